package store

// Config holds configuration for the storage connectors.
type Config struct {
	// EntitiesTable is the table holding entity records.
	// Default: "rookery_entities"
	EntitiesTable string

	// EnvironmentsTable is the table holding environment records.
	// Default: "rookery_environments"
	EnvironmentsTable string

	// DevicesTable is the table holding device records.
	// Default: "rookery_devices"
	DevicesTable string

	// ScanSegments is the number of parallel DynamoDB scan segments used by
	// Fetch when the filters do not name a complete key.
	// Default: 1 (sequential scan)
	// Max: 64
	ScanSegments int
}

// DefaultConfig returns sensible defaults for small inventories.
func DefaultConfig() Config {
	return Config{
		EntitiesTable:     "rookery_entities",
		EnvironmentsTable: "rookery_environments",
		DevicesTable:      "rookery_devices",
		ScanSegments:      1,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	def := DefaultConfig()
	if c.EntitiesTable == "" {
		c.EntitiesTable = def.EntitiesTable
	}
	if c.EnvironmentsTable == "" {
		c.EnvironmentsTable = def.EnvironmentsTable
	}
	if c.DevicesTable == "" {
		c.DevicesTable = def.DevicesTable
	}
	if c.ScanSegments < 1 {
		c.ScanSegments = 1
	}
	if c.ScanSegments > 64 {
		c.ScanSegments = 64
	}
}
