package store

import (
	"context"

	"github.com/jacentio/rookery/record"
)

// Filters constrains records by field equality. Empty values are ignored.
type Filters map[string]string

// Compact returns a copy of f without empty values.
func (f Filters) Compact() Filters {
	out := make(Filters, len(f))
	for k, v := range f {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Matches reports whether r carries every filter value.
func (f Filters) Matches(r record.Record) bool {
	for k, v := range f {
		if v == "" {
			continue
		}
		if r.Str(k) != v {
			return false
		}
	}
	return true
}

// Connector is the persistence boundary used by the search and write paths.
// Implementations must be safe for concurrent use; they do not retry.
// Every error is returned wrapped in an *OpError.
type Connector interface {
	// Fetch returns every record of table matching filters.
	// Empty filters return the whole table.
	Fetch(ctx context.Context, table string, filters Filters) ([]record.Record, error)

	// FetchOne returns the single record matching filters.
	// Returns ErrNotFound when nothing matches and ErrMultipleRecords when
	// more than one record does.
	FetchOne(ctx context.Context, table string, filters Filters) (record.Record, error)

	// Insert stores a new record. fields must carry every key attribute.
	// Returns ErrAlreadyExists when the key is taken.
	Insert(ctx context.Context, table string, fields record.Record) error

	// Update overwrites fields of the record identified by filters, which
	// must name a complete key. Returns ErrNotFound when the record is absent.
	Update(ctx context.Context, table string, filters Filters, fields record.Record) error

	// MergeMap sets entries inside the map held in field, keeping the
	// entries already stored, and overwrites fields in the same write.
	// A missing or non-map field is replaced by entries.
	MergeMap(ctx context.Context, table string, filters Filters, field string, entries map[string]record.Value, fields record.Record) error
}
