// Package config provides configuration structures for the overlap engine:
// ingestion chunking, report batching, the active-status filter, and the
// artifact output location.
package config

import (
	"fmt"
)

const (
	// DefaultChunkSize is the number of source rows processed per ingestion
	// batch when no explicit chunk size is configured.
	DefaultChunkSize = 50000

	// MinChunkSize is the smallest accepted chunk size. Smaller chunks add
	// per-chunk overhead without any memory benefit.
	MinChunkSize = 1000

	// DefaultBatchSize is the number of contracts per batched export file.
	DefaultBatchSize = 20

	// DefaultOutputDir is where report artifacts are written.
	DefaultOutputDir = "./reports"

	// DefaultPort is the HTTP listen port for the serve command.
	DefaultPort = "8080"
)

// Settings contains all configuration options for the overlap engine.
type Settings struct {
	// ChunkSize bounds the number of rows processed per ingestion batch,
	// enabling arbitrarily large sources without unbounded memory use.
	ChunkSize int `json:"chunk_size" mapstructure:"chunk_size"`

	// BatchSize is the number of contracts-with-overlaps grouped into a
	// single batched export file.
	BatchSize int `json:"batch_size" mapstructure:"batch_size"`

	// ActiveOnly restricts ingestion to rows whose contract/buyer status
	// fields are case-insensitively "active" (when those columns exist).
	ActiveOnly bool `json:"active_only" mapstructure:"active_only"`

	// OutputDir is the directory report artifacts are written into.
	OutputDir string `json:"output_dir" mapstructure:"output_dir"`

	// Port is the HTTP listen port used by the serve command.
	Port string `json:"port" mapstructure:"port"`
}

// Default returns a Settings value with all defaults applied.
func Default() Settings {
	s := Settings{ActiveOnly: true}
	s.ApplyDefaults()
	return s
}

// ApplyDefaults fills in default values for unset fields. The zero value of
// ActiveOnly is false, so the flag default is handled by the loaders, not
// here.
func (s *Settings) ApplyDefaults() {
	if s.ChunkSize == 0 {
		s.ChunkSize = DefaultChunkSize
	}
	if s.BatchSize == 0 {
		s.BatchSize = DefaultBatchSize
	}
	if s.OutputDir == "" {
		s.OutputDir = DefaultOutputDir
	}
	if s.Port == "" {
		s.Port = DefaultPort
	}
}

// Validate checks the settings for out-of-range values.
func (s *Settings) Validate() error {
	if s.ChunkSize < MinChunkSize {
		return fmt.Errorf("chunk_size %d is below the minimum of %d", s.ChunkSize, MinChunkSize)
	}
	if s.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1, got %d", s.BatchSize)
	}
	if s.OutputDir == "" {
		return fmt.Errorf("output_dir cannot be empty")
	}
	return nil
}
