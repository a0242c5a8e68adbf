package store

import (
	"github.com/jacentio/rookery/internal/keys"
	"github.com/jacentio/rookery/record"
)

// Hierarchy level names.
const (
	LevelEntity      = "entity"
	LevelEnvironment = "environment"
	LevelDevice      = "device"
)

// Level describes one level of the inventory hierarchy and the table it lives in.
type Level struct {
	// Name is the level name (e.g., "environment").
	Name string

	// Table is the table holding records of this level (e.g., "rookery_environments").
	Table string

	// KeyAttrs are the identifier attributes forming the composite key,
	// ancestors first (e.g., ent_id, env_id).
	KeyAttrs []string

	// Columns are the payload fields a caller may write.
	Columns []string

	// Parent is the parent level name (empty for the root level).
	Parent string
}

// IDAttr returns the attribute holding this level's own identifier.
func (l Level) IDAttr() string {
	return l.KeyAttrs[len(l.KeyAttrs)-1]
}

// HasColumn reports whether field is a writable payload column.
func (l Level) HasColumn(field string) bool {
	for _, c := range l.Columns {
		if c == field {
			return true
		}
	}
	return false
}

// HasFullKey reports whether filters name every key attribute of the level.
func (l Level) HasFullKey(filters Filters) bool {
	for _, attr := range l.KeyAttrs {
		if filters[attr] == "" {
			return false
		}
	}
	return true
}

// Key returns the composite key for the record identified by filters.
func (l Level) Key(filters Filters) (string, error) {
	if !l.HasFullKey(filters) {
		return "", ErrIncompleteKey
	}
	parts := make([]string, len(l.KeyAttrs))
	for i, attr := range l.KeyAttrs {
		parts[i] = filters[attr]
	}
	return keys.Compose(parts...), nil
}

// ParseKey returns the key filters encoded in a composite key.
func (l Level) ParseKey(key string) (Filters, error) {
	parts := keys.Split(key)
	if len(parts) != len(l.KeyAttrs) {
		return nil, ErrIncompleteKey
	}
	f := make(Filters, len(parts))
	for i, attr := range l.KeyAttrs {
		f[attr] = parts[i]
	}
	if !l.HasFullKey(f) {
		return nil, ErrIncompleteKey
	}
	return f, nil
}

// KeyOf returns the key filters of a stored record.
func (l Level) KeyOf(r record.Record) Filters {
	f := make(Filters, len(l.KeyAttrs))
	for _, attr := range l.KeyAttrs {
		f[attr] = r.Str(attr)
	}
	return f
}

// Registry holds the hierarchy levels known to the connectors.
type Registry struct {
	levels  []Level
	byName  map[string]Level
	byTable map[string]Level
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		levels:  []Level{},
		byName:  make(map[string]Level),
		byTable: make(map[string]Level),
	}
}

// DefaultRegistry returns the entity, environment and device levels using
// the table names from cfg.
func DefaultRegistry(cfg Config) *Registry {
	cfg.validate()
	common := []string{record.FieldTags, record.FieldVars, record.FieldLinks, record.FieldContacts}

	r := NewRegistry()
	r.Register(Level{
		Name:     LevelEntity,
		Table:    cfg.EntitiesTable,
		KeyAttrs: []string{record.FieldEntID},
		Columns:  common,
	})
	r.Register(Level{
		Name:     LevelEnvironment,
		Table:    cfg.EnvironmentsTable,
		KeyAttrs: []string{record.FieldEntID, record.FieldEnvID},
		Columns:  common,
		Parent:   LevelEntity,
	})
	r.Register(Level{
		Name:     LevelDevice,
		Table:    cfg.DevicesTable,
		KeyAttrs: []string{record.FieldEntID, record.FieldEnvID, record.FieldDevID},
		Columns:  append(append([]string{}, common...), record.FieldPorts),
		Parent:   LevelEnvironment,
	})
	return r
}

// Register adds a level to the registry.
func (r *Registry) Register(l Level) {
	r.levels = append(r.levels, l)
	r.byName[l.Name] = l
	r.byTable[l.Table] = l
}

// Level returns the level with the given name.
func (r *Registry) Level(name string) (Level, bool) {
	l, ok := r.byName[name]
	return l, ok
}

// ByTable returns the level stored in table.
func (r *Registry) ByTable(table string) (Level, bool) {
	l, ok := r.byTable[table]
	return l, ok
}

// ParentOf returns the parent level of the named level.
func (r *Registry) ParentOf(name string) (Level, bool) {
	l, ok := r.byName[name]
	if !ok || l.Parent == "" {
		return Level{}, false
	}
	return r.Level(l.Parent)
}

// Levels returns all registered levels in registration order.
func (r *Registry) Levels() []Level {
	return r.levels
}
