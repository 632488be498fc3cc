package types

import "github.com/google/uuid"

// NewPolicyID generates a UUIDv7 policy identifier.
// Time-ordered IDs keep newest-first listings stable for equal timestamps.
// Panics if the random source fails.
func NewPolicyID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewRuleID generates a UUIDv7 rule identifier.
func NewRuleID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewChecklistItemID generates a UUIDv7 checklist item identifier.
func NewChecklistItemID() string {
	return uuid.Must(uuid.NewV7()).String()
}
