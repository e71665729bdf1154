package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Config holds the converter's paths and settings.
type Config struct {
	// Paths
	SourceDir string `json:"source_dir" hcl:"source_dir,optional"`
	DestDir   string `json:"dest_dir" hcl:"dest_dir,optional"`
	Manifest  string `json:"manifest" hcl:"manifest,optional"`

	// Decoding
	Charset string `json:"charset" hcl:"charset,optional"`
	Workers int    `json:"workers" hcl:"workers,optional"`

	// Logging
	LogLevel  string `json:"log_level" hcl:"log_level,optional"`
	LogFormat string `json:"log_format" hcl:"log_format,optional"`

	Preview *Preview `json:"preview" hcl:"preview,block"`
}

// Preview holds mesh preview render settings.
type Preview struct {
	Enabled     bool   `json:"enabled" hcl:"enabled,optional"`
	Format      string `json:"format" hcl:"format,optional"`
	Size        int    `json:"size" hcl:"size,optional"`
	Supersample int    `json:"supersample" hcl:"supersample,optional"`
}

// PreviewFormats lists the accepted preview image formats.
var PreviewFormats = []string{"webp", "tga", "bmp"}

// Load reads a config file. Files ending in .hcl are parsed as HCL,
// anything else as JSON. Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		return loadHCL(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	SourceDir     string
	DestDir       string
	Charset       string
	Workers       int
	LogLevel      string
	LogFormat     string
	Preview       bool
	PreviewFormat string
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.SourceDir != "" {
		c.SourceDir = flags.SourceDir
	}
	if flags.DestDir != "" {
		c.DestDir = flags.DestDir
	}
	if flags.Charset != "" {
		c.Charset = flags.Charset
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}
	if flags.LogFormat != "" {
		c.LogFormat = flags.LogFormat
	}
	if c.Preview == nil {
		c.Preview = &Preview{}
	}
	if flags.Preview {
		c.Preview.Enabled = true
	}
	if flags.PreviewFormat != "" {
		c.Preview.Format = flags.PreviewFormat
	}

	// Destination defaults to a sibling of the source tree
	if c.DestDir == "" && c.SourceDir != "" {
		src := filepath.Clean(c.SourceDir)
		c.DestDir = filepath.Join(filepath.Dir(src), filepath.Base(src)+"-normalized")
	}
	if c.Manifest == "" {
		c.Manifest = "manifest.json"
	}

	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}

	// Defaults for preview settings
	if c.Preview.Format == "" {
		c.Preview.Format = "webp"
	}
	if c.Preview.Size <= 0 {
		c.Preview.Size = 256
	}
	if c.Preview.Supersample <= 0 {
		c.Preview.Supersample = 2
	}
}

// Validate checks a resolved config.
func (c *Config) Validate() error {
	if c.SourceDir == "" {
		return fmt.Errorf("config: source directory is required")
	}
	info, err := os.Stat(c.SourceDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("config: source directory does not exist: %s", c.SourceDir)
	}

	src, _ := filepath.Abs(c.SourceDir)
	dst, _ := filepath.Abs(c.DestDir)
	if src == dst {
		return fmt.Errorf("config: destination must differ from source: %s", c.DestDir)
	}

	if c.Preview != nil {
		ok := false
		for _, f := range PreviewFormats {
			if c.Preview.Format == f {
				ok = true
			}
		}
		if !ok {
			return fmt.Errorf("config: unknown preview format %q (want one of %s)",
				c.Preview.Format, strings.Join(PreviewFormats, ", "))
		}
	}
	return nil
}
