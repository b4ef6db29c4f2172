package types

import "github.com/google/uuid"

// ID identifies one orchestrator run. It is minted once per run and
// travels only outward, into logs and the final report, so it carries no
// parsing surface.
type ID string

// NewID returns a fresh random run identifier.
func NewID() ID {
	return ID(uuid.NewString())
}

// String returns the string representation of the ID.
func (id ID) String() string {
	return string(id)
}
