package llm

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)```")

// ErrNoJSON indicates a response with no parseable JSON document.
var ErrNoJSON = errors.New("no parseable JSON in response")

// ExtractJSON recovers a JSON document from noisy model output.
// A fenced block wins when present; otherwise the text between the first '{'
// and the last '}' is tried. Both candidates are tried in that order.
func ExtractJSON(raw string) (any, error) {
	var candidates []string
	if m := fencePattern.FindStringSubmatch(raw); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
		candidates = append(candidates, raw[start:end+1])
	}

	var lastErr error
	for _, c := range candidates {
		v, err := DecodeOrdered([]byte(c))
		if err == nil {
			return v, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoJSON, lastErr)
	}
	return nil, ErrNoJSON
}

// ExtractObject is ExtractJSON restricted to a top-level object.
func ExtractObject(raw string) (*Object, error) {
	v, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*Object)
	if !ok {
		return nil, fmt.Errorf("%w: top-level value is %s, not an object", ErrNoJSON, kindOf(v))
	}
	return obj, nil
}

// Prefix returns at most n bytes of s, cut on a rune boundary.
func Prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
