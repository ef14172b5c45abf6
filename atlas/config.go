package atlas

// Config holds atlas sizing and eviction parameters.
type Config struct {
	// InitialSize is the starting texture dimension (width = height).
	// Must be a power of two. Default: 1024.
	InitialSize int

	// MaxSize caps texture growth. Must be a power of two and at least
	// InitialSize. Default: 4096.
	MaxSize int

	// Padding is the minimum gap between stored glyphs, in pixels.
	// Must be at least 1 so linear sampling never bleeds a neighbor.
	// Default: 1.
	Padding int

	// Capacity bounds the number of resident glyphs. Default: 8192.
	Capacity int

	// MemoryLimit caps texture memory in bytes. Growth stops at the
	// largest power-of-two size that fits. Default: 32 MiB.
	MemoryLimit int
}

// DefaultConfig returns the default atlas configuration.
func DefaultConfig() Config {
	return Config{
		InitialSize: 1024,
		MaxSize:     4096,
		Padding:     1,
		Capacity:    8192,
		MemoryLimit: 32 << 20,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.InitialSize < 64 {
		return &ConfigError{Field: "InitialSize", Reason: "must be at least 64"}
	}
	if c.InitialSize&(c.InitialSize-1) != 0 {
		return &ConfigError{Field: "InitialSize", Reason: "must be a power of two"}
	}
	if c.MaxSize < c.InitialSize {
		return &ConfigError{Field: "MaxSize", Reason: "must be at least InitialSize"}
	}
	if c.MaxSize&(c.MaxSize-1) != 0 {
		return &ConfigError{Field: "MaxSize", Reason: "must be a power of two"}
	}
	if c.Padding < 1 {
		return &ConfigError{Field: "Padding", Reason: "must be at least 1"}
	}
	if c.Capacity < 1 {
		return &ConfigError{Field: "Capacity", Reason: "must be at least 1"}
	}
	if c.MemoryLimit < c.InitialSize*c.InitialSize {
		return &ConfigError{Field: "MemoryLimit", Reason: "must cover the initial texture"}
	}
	return nil
}
