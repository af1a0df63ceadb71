// Package config handles converter configuration loading and management.
package config

import (
	"fmt"
	"strings"

	"github.com/dyuri/bndconv/internal/binary"
	"github.com/dyuri/bndconv/internal/model"
)

// Config holds all converter settings.
type Config struct {
	Decode  DecodeConfig  `yaml:"decode"`
	Export  ExportConfig  `yaml:"export"`
	Logging LoggingConfig `yaml:"logging"`
}

// DecodeConfig holds archive decoding settings.
type DecodeConfig struct {
	MaxObjects int        `yaml:"max_objects"` // Object records to decode; 1 keeps legacy behaviour
	Tags       TagsConfig `yaml:"tags"`
}

// TagsConfig lists expected header tags. Empty values are not checked.
type TagsConfig struct {
	Magic string `yaml:"magic"`
	Data  string `yaml:"data"`
	Mesh  string `yaml:"mesh"`
}

// ExportConfig holds OBJ output settings.
type ExportConfig struct {
	Extension string `yaml:"extension"` // Replaces .bnd in output names
	Verify    bool   `yaml:"verify"`    // Re-parse output before committing it
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Decode: DecodeConfig{
			MaxObjects: 1,
		},
		Export: ExportConfig{
			Extension: ".obj",
			Verify:    false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks settings that would otherwise fail late or silently.
func (c *Config) Validate() error {
	if c.Decode.MaxObjects < 1 {
		return fmt.Errorf("decode.max_objects must be at least 1, got %d", c.Decode.MaxObjects)
	}
	for name, tag := range map[string]string{
		"magic": c.Decode.Tags.Magic,
		"data":  c.Decode.Tags.Data,
		"mesh":  c.Decode.Tags.Mesh,
	} {
		if _, ok := model.ParseTag(tag); !ok {
			return fmt.Errorf("decode.tags.%s %q is longer than 4 bytes", name, tag)
		}
	}
	if !strings.HasPrefix(c.Export.Extension, ".") || len(c.Export.Extension) < 2 {
		return fmt.Errorf("export.extension %q must start with a dot", c.Export.Extension)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn or error", c.Logging.Level)
	}
	return nil
}

// DecodeOptions converts the decode section into reader options.
// Call Validate first; oversized tags are truncated here.
func (c *Config) DecodeOptions() binary.Options {
	opts := binary.DefaultOptions()
	opts.MaxObjects = c.Decode.MaxObjects
	opts.Tags.Magic = tag(c.Decode.Tags.Magic)
	opts.Tags.Data = tag(c.Decode.Tags.Data)
	opts.Tags.Mesh = tag(c.Decode.Tags.Mesh)
	return opts
}

func tag(s string) model.Tag {
	var t model.Tag
	copy(t[:], s)
	return t
}
