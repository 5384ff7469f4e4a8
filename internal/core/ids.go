package core

import "github.com/google/uuid"

// NewID returns a random UUID string for new records.
func NewID() string {
	return uuid.NewString()
}

// IDFunc generates record identifiers. Tests swap in deterministic ones.
type IDFunc func() string
