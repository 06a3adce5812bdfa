package config

import (
	"fmt"
	"strings"
)

// Config carries process-level options for graph loading and kernel
// compilation. It is read once at startup and never mutated afterwards.
type Config struct {
	// FormatVersion is the version tag of the serialized network description.
	// Several validators select among historical parameter encodings based on
	// it (see internal/validate).
	FormatVersion int

	LogLevel  string
	LogFormat string

	// DisableJIT forces every compute layer onto the reference kernels even
	// when a specialized implementation is feasible.
	DisableJIT bool

	// ISAOverride pins the vector ISA tier instead of probing the CPU.
	// Empty means autodetect. Accepted values: "avx512", "avx2", "sse42".
	ISAOverride string
}

func Default() Config {
	return Config{
		FormatVersion: 4,
		LogLevel:      "INFO",
		LogFormat:     "console",
	}
}

func (c *Config) Validate() error {
	if c.FormatVersion <= 0 {
		return fmt.Errorf("invalid format_version: %d (must be positive)", c.FormatVersion)
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("invalid log_level: %q (must be DEBUG/INFO/WARN/ERROR)", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log_format: %q (must be console or json)", c.LogFormat)
	}
	switch strings.ToLower(c.ISAOverride) {
	case "", "avx512", "avx2", "sse42":
	default:
		return fmt.Errorf("invalid isa override: %q (must be avx512/avx2/sse42)", c.ISAOverride)
	}
	return nil
}
