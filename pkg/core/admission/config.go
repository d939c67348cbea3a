package admission

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config holds the processor's tunables. Zero values fall back to
// DefaultConfig, matching the rest of the node's settings packages.
type Config struct {
	// WorkerPoolSize bounds the number of goroutines running cryptographic
	// verification concurrently.
	WorkerPoolSize int `toml:"worker_pool_size"`

	// CompletionYield is the pause the completion queue takes between two
	// pipeline runs so that a burst of worker completions cannot starve the
	// submit path.
	CompletionYield time.Duration `toml:"completion_yield"`

	// DedupCacheCapacity is the initial capacity hint for the dedup set.
	DedupCacheCapacity int `toml:"dedup_cache_capacity"`
}

// DefaultConfig mirrors the values the reference node ships with.
func DefaultConfig() Config {
	return Config{
		WorkerPoolSize:     4,
		CompletionYield:    10 * time.Millisecond,
		DedupCacheCapacity: 1024,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.WorkerPoolSize <= 0 {
		c.WorkerPoolSize = d.WorkerPoolSize
	}
	if c.CompletionYield <= 0 {
		c.CompletionYield = d.CompletionYield
	}
	if c.DedupCacheCapacity <= 0 {
		c.DedupCacheCapacity = d.DedupCacheCapacity
	}
	return c
}

// LoadConfig decodes a TOML settings file into a Config, applying defaults
// for any field the file omits. A missing file is not an error: the caller
// gets DefaultConfig back.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "admission: decoding config %s", path)
	}

	return cfg.withDefaults(), nil
}
