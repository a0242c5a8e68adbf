package search

import (
	"net/url"
	"sort"
	"strconv"

	"github.com/jacentio/rookery/record"
	"github.com/jacentio/rookery/store"
)

// Request parameter names with a dedicated meaning.
const (
	ParamTag     = "tag"
	ParamPort    = "port"
	ParamVar     = "var"
	ParamLink    = "link"
	ParamContact = "contact"
	ParamFuzzy   = "fuzzy"
)

// Hints target a nested field of the record. Empty hints are unset.
type Hints struct {
	Tag     string
	Port    string
	Var     string
	Link    string
	Contact string
}

// fields returns the record field targeted by each set hint.
func (h Hints) fields() map[string]string {
	out := make(map[string]string)
	for field, v := range map[string]string{
		record.FieldTags:     h.Tag,
		record.FieldPorts:    h.Port,
		record.FieldVars:     h.Var,
		record.FieldLinks:    h.Link,
		record.FieldContacts: h.Contact,
	} {
		if v != "" {
			out[field] = v
		}
	}
	return out
}

// Request is a parsed search request. It is never modified after parsing.
type Request struct {
	Hints Hints
	Fuzzy bool

	// Constraints are the remaining field=value criteria.
	Constraints map[string]record.Value
}

// Criterion is one field to search and the value to look for.
type Criterion struct {
	Field string
	Value record.Value
}

// ParseRequest splits query parameters into hints, the fuzzy flag and
// generic constraints. Only the first value of a repeated parameter is
// used. An unparsable fuzzy flag reads as false.
func ParseRequest(params url.Values) Request {
	req := Request{
		Hints: Hints{
			Tag:     params.Get(ParamTag),
			Port:    params.Get(ParamPort),
			Var:     params.Get(ParamVar),
			Link:    params.Get(ParamLink),
			Contact: params.Get(ParamContact),
		},
		Constraints: make(map[string]record.Value),
	}
	if raw := params.Get(ParamFuzzy); raw != "" {
		req.Fuzzy, _ = strconv.ParseBool(raw)
	}

	for k, values := range params {
		switch k {
		case ParamTag, ParamPort, ParamVar, ParamLink, ParamContact, ParamFuzzy:
			continue
		}
		if len(values) == 0 || values[0] == "" {
			continue
		}
		req.Constraints[k] = record.String(values[0])
	}
	return req
}

// Criteria returns the criteria to evaluate against each candidate:
// constraints first, then hints. A hint replaces a constraint on the same
// field. Order within each group is by field name.
func (r Request) Criteria() []Criterion {
	hinted := r.Hints.fields()

	var out []Criterion
	for _, field := range sortedFields(r.Constraints) {
		if _, ok := hinted[field]; ok {
			continue
		}
		if r.Constraints[field].IsEmpty() {
			continue
		}
		out = append(out, Criterion{Field: field, Value: r.Constraints[field]})
	}

	hintFields := make([]string, 0, len(hinted))
	for field := range hinted {
		hintFields = append(hintFields, field)
	}
	sort.Strings(hintFields)
	for _, field := range hintFields {
		out = append(out, Criterion{Field: field, Value: record.String(hinted[field])})
	}
	return out
}

func sortedFields(m map[string]record.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IDs are the hierarchy identifiers supplied with a request. Empty ids are unset.
type IDs struct {
	EntID string
	EnvID string
	DevID string
}

// Filters returns the lookup filters for the ids that are set.
func (ids IDs) Filters() store.Filters {
	return store.Filters{
		record.FieldEntID: ids.EntID,
		record.FieldEnvID: ids.EnvID,
		record.FieldDevID: ids.DevID,
	}.Compact()
}
