package core

import "github.com/google/uuid"

// ID uniquely identifies a domain entity (report runs, stored rows).
type ID string

// NewID generates a new random ID.
func NewID() ID {
	return ID(uuid.New().String())
}

func (id ID) String() string {
	return string(id)
}

// IsEmpty reports whether the ID is unset.
func (id ID) IsEmpty() bool {
	return id == ""
}
