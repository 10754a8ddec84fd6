// Package configs loads process-wide configuration for the EPCIS
// transcoder, following the teacher's configs.Load() shape but backed by
// struct tags instead of hand-written getEnv/getEnvInt/getEnvBool helpers.
package configs

import (
	"fmt"

	"github.com/caarlos0/env/v9"
)

// Config holds tunables for the conversion pipeline. Per-request knobs
// (media types, versions, GS1 flags) live on types.ConversionRequest, not
// here — this is process-wide defaults and resource limits only.
type Config struct {
	// WorkerPoolSize is read from the environment but not consulted by
	// the orchestrator, which starts one goroutine per pipeline stage.
	WorkerPoolSize int `env:"EPCISCONV_WORKERS" envDefault:"0"`

	// PipeBufferSize bounds the ring buffer behind every pipe.Pipe.
	PipeBufferSize int `env:"EPCISCONV_PIPE_BUFFER_BYTES" envDefault:"65536"`

	// VersionScanLimit bounds how many prefix bytes the Version Detector
	// reads before giving up (spec 4.A: "up to 1024 bytes").
	VersionScanLimit int `env:"EPCISCONV_VERSION_SCAN_LIMIT" envDefault:"1024"`

	// Default feature flags applied when a ConversionRequest doesn't set
	// them explicitly (see types.ConversionRequest).
	DefaultGenerateGS1CompliantDocument bool `env:"EPCISCONV_GS1_COMPLIANT_DEFAULT" envDefault:"true"`
	DefaultIncludeAssociationEvent      bool `env:"EPCISCONV_INCLUDE_ASSOCIATION_EVENT_DEFAULT" envDefault:"true"`
	DefaultIncludePersistentDisposition bool `env:"EPCISCONV_INCLUDE_PERSISTENT_DISPOSITION_DEFAULT" envDefault:"true"`
	DefaultIncludeSensorElementList     bool `env:"EPCISCONV_INCLUDE_SENSOR_ELEMENT_LIST_DEFAULT" envDefault:"true"`

	// ValidationPolicy controls what the collector does when a validator
	// rejects an event: "abort" (default) or "skip" (spec 4.D).
	ValidationPolicy string `env:"EPCISCONV_VALIDATION_POLICY" envDefault:"abort"`
}

// Load reads configuration from the environment, applying defaults for
// anything unset.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}
	if cfg.ValidationPolicy != "abort" && cfg.ValidationPolicy != "skip" {
		return nil, fmt.Errorf("invalid EPCISCONV_VALIDATION_POLICY %q: must be \"abort\" or \"skip\"", cfg.ValidationPolicy)
	}
	if cfg.PipeBufferSize <= 0 {
		return nil, fmt.Errorf("EPCISCONV_PIPE_BUFFER_BYTES must be positive, got %d", cfg.PipeBufferSize)
	}
	return cfg, nil
}
