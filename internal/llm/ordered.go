package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
)

// maxNesting bounds recursion while decoding untrusted JSON. Values nested
// deeper are skipped without recursion and decode as nil.
const maxNesting = 256

// Object is a decoded JSON object that remembers key order.
// Key order matters to callers that scavenge "the first key" of an
// unrecognized shape; Go maps cannot provide it.
type Object struct {
	Keys   []string
	Values map[string]any
}

// Get returns the value for key.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.Values[key]
	return v, ok
}

// Len returns the number of distinct keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.Keys)
}

// AsObject views v as an ordered object. Plain map[string]any values are
// accepted with keys sorted, so iteration stays deterministic.
func AsObject(v any) (*Object, bool) {
	switch obj := v.(type) {
	case *Object:
		return obj, obj != nil
	case map[string]any:
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return &Object{Keys: keys, Values: obj}, true
	default:
		return nil, false
	}
}

// Map converts the object and any nested objects to plain maps.
func (o *Object) Map() map[string]any {
	out := make(map[string]any, len(o.Keys))
	for _, k := range o.Keys {
		out[k] = plain(o.Values[k])
	}
	return out
}

func plain(v any) any {
	switch t := v.(type) {
	case *Object:
		return t.Map()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	default:
		return v
	}
}

// DecodeOrdered decodes one JSON document. Objects become *Object, arrays
// []any, numbers float64. Duplicate keys keep their first position and last value.
func DecodeOrdered(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	v, err := decodeValue(dec, 0)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder, depth int) (any, error) {
	if depth > maxNesting {
		return nil, skipValue(dec)
	}
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		obj := &Object{Values: make(map[string]any)}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("object key is %T, not string", keyTok)
			}
			val, err := decodeValue(dec, depth+1)
			if err != nil {
				return nil, err
			}
			if _, dup := obj.Values[key]; !dup {
				obj.Keys = append(obj.Keys, key)
			}
			obj.Values[key] = val
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			val, err := decodeValue(dec, depth+1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %q", delim)
	}
}

// skipValue consumes one value, however deeply nested, with a counter
// instead of recursion.
func skipValue(dec *json.Decoder) error {
	open := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if delim, ok := tok.(json.Delim); ok {
			switch delim {
			case '{', '[':
				open++
			case '}', ']':
				open--
			}
		}
		if open == 0 {
			return nil
		}
	}
}
