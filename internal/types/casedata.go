package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CaseData is a flat mapping from field name to a string, number, boolean or null.
// It lives for one validation request and is never persisted.
type CaseData map[string]any

// ParseCaseData decodes a JSON object into CaseData.
// Arrays, nested objects and non-object documents are rejected with ErrInvalidCaseData.
func ParseCaseData(data []byte) (CaseData, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrInvalidCaseData)
	}
	var values map[string]any
	if err := json.Unmarshal(trimmed, &values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCaseData, err)
	}
	return NewCaseData(values)
}

// NewCaseData checks that every value is a scalar and returns the values as CaseData.
func NewCaseData(values map[string]any) (CaseData, error) {
	if len(values) > MaxCaseFields {
		return nil, fmt.Errorf("%w: too many fields: %d (max %d)", ErrInvalidCaseData, len(values), MaxCaseFields)
	}
	data := make(CaseData, len(values))
	for k, v := range values {
		if v != nil && !isScalar(v) {
			return nil, fmt.Errorf("%w: field %q must be a string, number, boolean or null", ErrInvalidCaseData, k)
		}
		data[k] = v
	}
	return data, nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, float64, float32, int, int32, int64, uint, uint32, uint64, json.Number:
		return true
	default:
		return false
	}
}
