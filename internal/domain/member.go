package domain

import "time"

const (
	MinNameLen = 1
	MaxNameLen = 50
)

// MemberID is the opaque session identifier a member joined with.
type MemberID string

// Member is a participant identity within one room.
// Owned exclusively by its Room; no transport or lifecycle logic here.
type Member struct {
	ID           MemberID  `json:"id"`
	Name         string    `json:"name"`
	Vote         Vote      `json:"vote"`
	LastActivity time.Time `json:"lastActivity"`
}

// ValidName checks the display-name length rule. Callers trim first.
func ValidName(name string) bool {
	return len(name) >= MinNameLen && len(name) <= MaxNameLen
}
