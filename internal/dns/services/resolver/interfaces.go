package resolver

import (
	"github.com/micjavier/hsd/internal/dns/domain"
)

// RecordStore is the registry snapshot: encoded record blobs keyed by
// registered name.
type RecordStore interface {
	// Get returns the encoded record blob for name, and whether one exists.
	Get(name string) ([]byte, bool, error)

	// MightContain reports whether name could be registered. False is
	// definite; true may be a false positive.
	MightContain(name string) bool
}

// RecordCache holds decoded records keyed by registered name.
type RecordCache interface {
	Get(name string) (*domain.Record, bool)
	Set(name string, rec *domain.Record)
}
