package keys

import (
	"reflect"
	"testing"
)

func TestCompose(t *testing.T) {
	tests := []struct {
		parts    []string
		expected string
	}{
		{[]string{"e1"}, "e1"},
		{[]string{"e1", "v1"}, "e1#v1"},
		{[]string{"e1", "v1", "d1"}, "e1#v1#d1"},
		{[]string{"a#b", "c"}, `a\#b#c`},
		{[]string{`a\b`}, `a\\b`},
		{[]string{"", "x"}, "#x"},
	}

	for _, tt := range tests {
		if got := Compose(tt.parts...); got != tt.expected {
			t.Errorf("Compose(%q) = %q, want %q", tt.parts, got, tt.expected)
		}
	}
}

func TestSplit_RoundTrip(t *testing.T) {
	inputs := [][]string{
		{"e1"},
		{"e1", "v1", "d1"},
		{"with#hash", "with\\slash", "plain"},
		{"", ""},
		{"trailing\\"},
	}

	for _, parts := range inputs {
		if got := Split(Compose(parts...)); !reflect.DeepEqual(got, parts) {
			t.Errorf("Split(Compose(%q)) = %q", parts, got)
		}
	}
}

func TestCompose_Distinct(t *testing.T) {
	// Different part boundaries never collapse onto the same key.
	if Compose("a#b", "c") == Compose("a", "b#c") {
		t.Error("expected distinct keys for a#b|c and a|b#c")
	}
	if Compose("a", "b") == Compose("a#b") {
		t.Error("expected distinct keys for a|b and a#b")
	}
}
