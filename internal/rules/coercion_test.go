package rules

import (
	"encoding/json"
	"math"
	"testing"
)

func TestToNumber(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		want   float64
		wantOK bool
	}{
		{name: "float64 passthrough", value: 42.5, want: 42.5, wantOK: true},
		{name: "int", value: 100, want: 100, wantOK: true},
		{name: "int64", value: int64(999), want: 999, wantOK: true},
		{name: "json.Number", value: json.Number("12.5"), want: 12.5, wantOK: true},
		{name: "numeric string", value: "25", want: 25, wantOK: true},
		{name: "string with whitespace", value: "  42  ", want: 42, wantOK: true},
		{name: "negative string", value: "-100", want: -100, wantOK: true},
		{name: "scientific notation", value: "1e3", want: 1000, wantOK: true},
		{name: "bool true", value: true, want: 1, wantOK: true},
		{name: "bool false", value: false, want: 0, wantOK: true},
		{name: "non-numeric string", value: "abc", wantOK: false},
		{name: "empty string", value: "", wantOK: false},
		{name: "whitespace-only string", value: "   ", wantOK: false},
		{name: "NaN string", value: "NaN", wantOK: false},
		{name: "infinity string", value: "Infinity", wantOK: false},
		{name: "NaN float", value: math.NaN(), wantOK: false},
		{name: "nil", value: nil, wantOK: false},
		{name: "map", value: map[string]any{"a": 1}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := toNumber(tt.value)
			if ok != tt.wantOK {
				t.Fatalf("toNumber(%v) ok = %v, want %v", tt.value, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("toNumber(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{"hello", "hello"},
		{20.0, "20"},
		{3.25, "3.25"},
		{18, "18"},
		{int64(7), "7"},
		{true, "true"},
		{false, "false"},
		{nil, "null"},
		{json.Number("5"), "5"},
	}

	for _, tt := range tests {
		if got := stringify(tt.value); got != tt.want {
			t.Errorf("stringify(%#v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}
