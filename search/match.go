package search

import (
	"strconv"
	"strings"

	"github.com/jacentio/rookery/record"
)

// Matches reports whether criterion occurs anywhere inside value.
//
// Lists match when any element matches. Map entries are tested one by one:
// nested containers are searched recursively, strings holding commas or
// newlines are split into tokens first, integers and booleans only match
// exactly, and null entries never match. Everything else is compared as a
// scalar, case-insensitively by substring when fuzzy is set.
func Matches(value, criterion record.Value, fuzzy bool) bool {
	switch value.Kind() {
	case record.KindList:
		for _, item := range value.Items() {
			if Matches(item, criterion, fuzzy) {
				return true
			}
		}
		return false
	case record.KindMap:
		for _, entry := range value.Entries() {
			if matchEntry(entry, criterion, fuzzy) {
				return true
			}
		}
		return false
	}
	return compareScalar(value, criterion, fuzzy)
}

func matchEntry(entry, criterion record.Value, fuzzy bool) bool {
	switch entry.Kind() {
	case record.KindList, record.KindMap:
		return Matches(entry, criterion, fuzzy)
	case record.KindString:
		s, _ := entry.Str()
		if strings.ContainsAny(s, ",\n") {
			return Matches(tokenize(s), criterion, fuzzy)
		}
	case record.KindInt, record.KindBool:
		return equal(entry, criterion)
	case record.KindNull:
		return false
	}
	return compareScalar(entry, criterion, fuzzy)
}

// tokenize splits a delimited string on commas and newlines, dropping
// empty tokens.
func tokenize(s string) record.Value {
	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '\n'
	})
	return record.Strings(tokens...)
}

// compareScalar compares two scalars. Exact equality always matches; with
// fuzzy set, two strings also match when the lowercased criterion is a
// substring of the lowercased value. Non-string operands never match
// fuzzily.
func compareScalar(value, criterion record.Value, fuzzy bool) bool {
	if value.Kind() == record.KindNull {
		return false
	}
	if equal(value, criterion) {
		return true
	}
	if !fuzzy {
		return false
	}
	v, ok := value.Str()
	if !ok {
		return false
	}
	c, ok := criterion.Str()
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(v), strings.ToLower(c))
}

// equal is exact equality, where a number also equals the text of the same
// number because request criteria arrive as text.
func equal(a, b record.Value) bool {
	if a.Equal(b) {
		return true
	}
	if n, ok := numericText(b); ok && isNumber(a) {
		return a.Equal(n)
	}
	if n, ok := numericText(a); ok && isNumber(b) {
		return b.Equal(n)
	}
	return false
}

func isNumber(v record.Value) bool {
	return v.Kind() == record.KindInt || v.Kind() == record.KindFloat
}

func numericText(v record.Value) (record.Value, bool) {
	s, ok := v.Str()
	if !ok {
		return record.Value{}, false
	}
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return record.Int(i), true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return record.Float(f), true
	}
	return record.Value{}, false
}
