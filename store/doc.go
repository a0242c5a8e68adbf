// Package store provides the persistence boundary for the inventory
// hierarchy: Entity, Environment and Device records, each level in its own
// table.
//
// # Connector
//
// The search and write paths only talk to the [Connector] interface:
//
//	type Connector interface {
//	    Fetch(ctx, table, filters) ([]record.Record, error)
//	    FetchOne(ctx, table, filters) (record.Record, error)
//	    Insert(ctx, table, fields) error
//	    Update(ctx, table, filters, fields) error
//	    MergeMap(ctx, table, filters, field, entries, fields) error
//	}
//
// [Store] implements it on DynamoDB. The memstore subpackage implements it
// in memory for tests and local runs.
//
// # Keys
//
// Every table is keyed by a single "pk" attribute holding the composite
// key of the record and its ancestors (ent_id, ent_id#env_id,
// ent_id#env_id#dev_id). The [Registry] describes which attributes form
// the key of each [Level].
//
// # Configuration
//
// Use [DefaultConfig] for small inventories (ScanSegments=1, sequential
// scans). Increase ScanSegments to scan large tables in parallel:
//
//	cfg := store.DefaultConfig()
//	cfg.ScanSegments = 8
//
// # Errors
//
// Connector calls return an [*OpError] wrapping one of:
//
//   - [ErrNotFound] - no record with that key
//   - [ErrAlreadyExists] - insert on an existing key
//   - [ErrMultipleRecords] - FetchOne filters are ambiguous
//   - [ErrIncompleteKey] - write without a complete key
//   - [ErrUnknownTable] - table not in the registry
//
// or the underlying DynamoDB error. [ErrParentNotFound] is used by callers
// that check ancestors before writing.
package store
