package binpack

import (
	"sync"

	"gopkg.in/yaml.v3"
)

// Documented defaults, restored by ResetLimits.
const (
	// DefaultMaxBufferSize bounds encode output and decode input at 10 MiB.
	DefaultMaxBufferSize = 10 << 20

	// DefaultMaxNestingDepth bounds decode recursion into nested structures.
	DefaultMaxNestingDepth = 100
)

// securityLimits is the process-wide codec configuration. It is consulted at
// the start of every encode and decode; the lock makes runtime
// reconfiguration safe under concurrent codec use.
type securityLimits struct {
	mu              sync.RWMutex
	maxBufferSize   int
	maxNestingDepth int
	strictMode      bool
}

var limits = securityLimits{
	maxBufferSize:   DefaultMaxBufferSize,
	maxNestingDepth: DefaultMaxNestingDepth,
}

// MaxBufferSize returns the configured buffer size limit in bytes.
func MaxBufferSize() int {
	limits.mu.RLock()
	defer limits.mu.RUnlock()
	return limits.maxBufferSize
}

// SetMaxBufferSize sets the buffer size limit in bytes.
// Values that are not positive are rejected with a ConfigError.
func SetMaxBufferSize(n int) error {
	if n <= 0 {
		return newConfigError("max buffer size", n)
	}
	limits.mu.Lock()
	defer limits.mu.Unlock()
	limits.maxBufferSize = n
	return nil
}

// MaxNestingDepth returns the configured decode recursion limit.
func MaxNestingDepth() int {
	limits.mu.RLock()
	defer limits.mu.RUnlock()
	return limits.maxNestingDepth
}

// SetMaxNestingDepth sets the decode recursion limit.
// Values that are not positive are rejected with a ConfigError.
func SetMaxNestingDepth(n int) error {
	if n <= 0 {
		return newConfigError("max nesting depth", n)
	}
	limits.mu.Lock()
	defer limits.mu.Unlock()
	limits.maxNestingDepth = n
	return nil
}

// StrictMode reports whether strict mode is enabled. Strict mode is advisory
// metadata for calling code, such as a socket layer that mandates a rate
// limiter on every sender; the codec's own behavior does not change.
func StrictMode() bool {
	limits.mu.RLock()
	defer limits.mu.RUnlock()
	return limits.strictMode
}

// EnableStrictMode turns strict mode on.
func EnableStrictMode() {
	limits.mu.Lock()
	defer limits.mu.Unlock()
	limits.strictMode = true
}

// DisableStrictMode turns strict mode off.
func DisableStrictMode() {
	limits.mu.Lock()
	defer limits.mu.Unlock()
	limits.strictMode = false
}

// ResetLimits restores the documented defaults.
// This is primarily useful for test isolation.
func ResetLimits() {
	limits.mu.Lock()
	defer limits.mu.Unlock()
	limits.maxBufferSize = DefaultMaxBufferSize
	limits.maxNestingDepth = DefaultMaxNestingDepth
	limits.strictMode = false
}

// LimitsConfig carries security limits in a form suitable for a deployment
// config file. Zero numeric values leave the current setting unchanged.
type LimitsConfig struct {
	MaxBufferSize   int  `yaml:"max_buffer_size"`
	MaxNestingDepth int  `yaml:"max_nesting_depth"`
	StrictMode      bool `yaml:"strict_mode"`
}

// ApplyLimits applies a limits configuration, validating each value the same
// way the individual setters do.
func ApplyLimits(cfg LimitsConfig) error {
	if cfg.MaxBufferSize != 0 {
		if err := SetMaxBufferSize(cfg.MaxBufferSize); err != nil {
			return err
		}
	}
	if cfg.MaxNestingDepth != 0 {
		if err := SetMaxNestingDepth(cfg.MaxNestingDepth); err != nil {
			return err
		}
	}
	if cfg.StrictMode {
		EnableStrictMode()
	} else {
		DisableStrictMode()
	}
	return nil
}

// LoadLimits parses a YAML limits document and applies it.
func LoadLimits(data []byte) error {
	var cfg LimitsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return err
	}
	return ApplyLimits(cfg)
}
