package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jacentio/rookery/record"
)

func TestMatches(t *testing.T) {
	vars := record.Map(map[string]record.Value{
		"note":  record.String("alpha,beta,gamma"),
		"lines": record.String("one\ntwo"),
		"count": record.Int(3),
		"on":    record.Bool(true),
		"none":  record.Null(),
		"deep": record.Map(map[string]record.Value{
			"list": record.List(record.String("x"), record.Map(map[string]record.Value{"k": record.String("Needle")})),
		}),
	})

	tests := []struct {
		name      string
		value     record.Value
		criterion record.Value
		fuzzy     bool
		want      bool
	}{
		{"scalar exact", record.String("web"), record.String("web"), false, true},
		{"scalar exact case", record.String("Web"), record.String("web"), false, false},
		{"scalar fuzzy case", record.String("Web"), record.String("WEB"), true, true},
		{"scalar fuzzy substring", record.String("webserver"), record.String("serv"), true, true},
		{"scalar fuzzy reversed", record.String("serv"), record.String("webserver"), true, false},
		{"list element", record.Strings("a", "b"), record.String("b"), false, true},
		{"list miss", record.Strings("a", "b"), record.String("c"), false, false},
		{"empty list", record.List(), record.String("a"), true, false},
		{"token exact", vars, record.String("beta"), false, true},
		{"token partial exact", vars, record.String("bet"), false, false},
		{"token fuzzy", vars, record.String("BET"), true, true},
		{"newline token", vars, record.String("two"), false, true},
		{"nested map in list", vars, record.String("needle"), true, true},
		{"nested exact", vars, record.String("Needle"), false, true},
		{"int entry exact", vars, record.Int(3), false, true},
		{"int entry from text", vars, record.String("3"), false, true},
		{"bool entry", vars, record.Bool(true), false, true},
		{"null never matches", record.Null(), record.Null(), true, false},
		{"int vs float", record.Int(2), record.Float(2), false, true},
		{"number vs text", record.Float(2.5), record.String("2.5"), false, true},
		{"fuzzy non-string", record.Int(12), record.String("1"), true, false},
		{"bool scalar vs string", record.Bool(true), record.String("true"), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.value, tt.criterion, tt.fuzzy))
		})
	}
}

func TestMatches_ExactImpliesFuzzy(t *testing.T) {
	values := []record.Value{
		record.String("Alpha"),
		record.String("a,b\nc"),
		record.Int(7),
		record.Float(1.5),
		record.Bool(false),
		record.Null(),
		record.Strings("x", "Y"),
		record.Map(map[string]record.Value{
			"a": record.String("p,q"),
			"b": record.Int(7),
			"c": record.List(record.String("Alpha")),
		}),
	}
	criteria := []record.Value{
		record.String("Alpha"), record.String("alpha"), record.String("q"),
		record.String("7"), record.Int(7), record.Float(1.5), record.Bool(false),
		record.String("Y"), record.String(""),
	}

	for _, v := range values {
		for _, c := range criteria {
			if Matches(v, c, false) {
				assert.True(t, Matches(v, c, true), "value=%v criterion=%v", v.Interface(), c.Interface())
			}
		}
	}
}

func TestTokenize(t *testing.T) {
	got := tokenize("a,,b\n\nc,")
	assert.Equal(t, record.Strings("a", "b", "c"), got)
}
