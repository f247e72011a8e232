// Package config handles converter configuration loading and management.
package config

import (
	"fmt"
	"runtime"

	"github.com/Faultbox/ripconv/pkg/mesh"
	"github.com/Faultbox/ripconv/pkg/textures"
)

// Config holds all converter settings.
type Config struct {
	Parse    ParseConfig    `yaml:"parse"`
	Assemble AssembleConfig `yaml:"assemble"`
	Export   ExportConfig   `yaml:"export"`
	Batch    BatchConfig    `yaml:"batch"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ParseConfig holds RIP decoding settings.
type ParseConfig struct {
	StrictFormats bool `yaml:"strict_formats"` // Fail on unknown format codes
}

// AssembleConfig holds mesh assembly settings.
type AssembleConfig struct {
	NormalDivisor   float32 `yaml:"normal_divisor"`
	TexCoordDivisor float32 `yaml:"texcoord_divisor"`
	FlipV           bool    `yaml:"flip_v"`
}

// ExportConfig holds output settings.
type ExportConfig struct {
	Formats     []string `yaml:"formats"`      // Exporter names, e.g. obj, glb
	OutputDir   string   `yaml:"output_dir"`   // Empty writes next to each input
	MaxTextures int      `yaml:"max_textures"` // Cap for texture name discovery
	Textures    string   `yaml:"textures"`     // Re-encode textures as png or webp; empty keeps them
}

// BatchConfig holds parallelism settings.
type BatchConfig struct {
	Workers int `yaml:"workers"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Parse: ParseConfig{
			StrictFormats: false,
		},
		Assemble: AssembleConfig{
			NormalDivisor:   mesh.DefaultDivisor,
			TexCoordDivisor: mesh.DefaultDivisor,
			FlipV:           true,
		},
		Export: ExportConfig{
			Formats:     []string{"obj"},
			OutputDir:   "",
			MaxTextures: textures.DefaultMax,
			Textures:    "",
		},
		Batch: BatchConfig{
			Workers: runtime.NumCPU(),
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	if c.Assemble.NormalDivisor <= 0 {
		return fmt.Errorf("assemble.normal_divisor must be positive, got %v", c.Assemble.NormalDivisor)
	}
	if c.Assemble.TexCoordDivisor <= 0 {
		return fmt.Errorf("assemble.texcoord_divisor must be positive, got %v", c.Assemble.TexCoordDivisor)
	}
	if len(c.Export.Formats) == 0 {
		return fmt.Errorf("export.formats must list at least one format")
	}
	if c.Export.MaxTextures < 0 {
		return fmt.Errorf("export.max_textures must not be negative, got %d", c.Export.MaxTextures)
	}
	if c.Export.Textures != "" && !textures.ValidTarget(c.Export.Textures) {
		return fmt.Errorf("export.textures must be png, webp or empty, got %q", c.Export.Textures)
	}
	if c.Batch.Workers < 0 {
		return fmt.Errorf("batch.workers must not be negative, got %d", c.Batch.Workers)
	}
	return nil
}

// MeshOptions returns the assembler options for these settings.
func (c AssembleConfig) MeshOptions() mesh.Options {
	return mesh.Options{
		NormalDivisor:   c.NormalDivisor,
		TexCoordDivisor: c.TexCoordDivisor,
		FlipV:           c.FlipV,
	}
}
