package store

// Config holds configuration for the Store.
type Config struct {
	// TableName is the name of the metadata table.
	// Default: "dataset-metadata"
	TableName string

	// IndexName is the name of the secondary index keyed (Type, Id).
	// Default: "IdByTypeIndex"
	IndexName string
}

// DefaultConfig returns the table and index names used in production.
func DefaultConfig() Config {
	return Config{
		TableName: "dataset-metadata",
		IndexName: "IdByTypeIndex",
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.TableName == "" {
		c.TableName = "dataset-metadata"
	}
	if c.IndexName == "" {
		c.IndexName = "IdByTypeIndex"
	}
}
