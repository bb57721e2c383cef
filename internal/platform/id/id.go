package id

import "github.com/google/uuid"

// Generator creates opaque identifiers.
type Generator interface {
	New() string
}

// UUID produces RFC 4122 v4 identifiers. Tracking sessions and wallet ledger
// rows are keyed by it.
type UUID struct{}

func (UUID) New() string {
	return uuid.NewString()
}
