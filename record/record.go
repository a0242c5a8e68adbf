package record

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Field names shared by every hierarchy level.
const (
	FieldEntID     = "ent_id"
	FieldEnvID     = "env_id"
	FieldDevID     = "dev_id"
	FieldTags      = "tags"
	FieldVars      = "vars"
	FieldLinks     = "links"
	FieldContacts  = "contacts"
	FieldPorts     = "ports"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// Record is a flat field set as stored by a connector.
type Record map[string]Value

// FromMap converts decoded JSON into a Record.
func FromMap(m map[string]any) (Record, error) {
	r := make(Record, len(m))
	for k, x := range m {
		v, err := FromAny(x)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		r[k] = v
	}
	return r, nil
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v.Clone()
	}
	return out
}

// Str returns the string held in field, or "" when absent or not a string.
func (r Record) Str(field string) string {
	s, _ := r[field].Str()
	return s
}

// Fields returns the sorted field names of r.
func (r Record) Fields() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Interface converts r into a plain map for encoding.
func (r Record) Interface() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = v.Interface()
	}
	return out
}

// Normalize returns a copy of r whose vars entries holding JSON text are
// replaced by the decoded structure. Strings that are not JSON, and JSON
// string literals, are kept as stored so that normalizing twice is a no-op.
func Normalize(r Record) Record {
	out := r.Clone()
	vars, ok := out[FieldVars]
	if !ok || vars.Kind() != KindMap {
		return out
	}
	decoded := make(map[string]Value, vars.Len())
	for k, v := range vars.Entries() {
		decoded[k] = decodeVar(v)
	}
	out[FieldVars] = Map(decoded)
	return out
}

func decodeVar(v Value) Value {
	s, ok := v.Str()
	if !ok {
		return v
	}
	parsed, err := Parse([]byte(s))
	if err != nil || parsed.Kind() == KindString {
		return v
	}
	return parsed
}

// EncodeVars returns a copy of r whose structured vars entries are JSON
// encoded strings, the shape persisted by every connector.
func EncodeVars(r Record) (Record, error) {
	out := r.Clone()
	vars, ok := out[FieldVars]
	if !ok || vars.Kind() != KindMap {
		return out, nil
	}
	encoded := make(map[string]Value, vars.Len())
	for k, v := range vars.Entries() {
		if !v.IsContainer() {
			encoded[k] = v
			continue
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode var %q: %w", k, err)
		}
		encoded[k] = String(string(data))
	}
	out[FieldVars] = Map(encoded)
	return out, nil
}

// TagSet returns the distinct, sorted string members of a tag list.
// Non-string members are rendered with their JSON form.
func TagSet(v Value) []string {
	seen := make(map[string]struct{})
	for _, item := range v.Items() {
		s, ok := item.Str()
		if !ok {
			data, err := json.Marshal(item)
			if err != nil {
				continue
			}
			s = strings.TrimSpace(string(data))
		}
		seen[s] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// TagUnion returns the union of two tag lists as a sorted list value.
func TagUnion(a, b Value) Value {
	merged := append(append([]Value{}, a.Items()...), b.Items()...)
	return Strings(TagSet(List(merged...))...)
}
