// Package config loads the optional TOML configuration file.
//
// The file supplies defaults for anything the command line and the
// environment leave unset, plus the window/context hints used by the
// GLFW backend.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultFileName is looked up next to the script when no path is given.
const DefaultFileName = "sqhell.toml"

// File mirrors the TOML document.
type File struct {
	LogLevel  string   `toml:"log_level"`
	Timeout   int      `toml:"timeout"` // seconds
	Headless  bool     `toml:"headless"`
	Encoding  string   `toml:"encoding"`
	SoundFont string   `toml:"soundfont"`
	Graphics  Graphics `toml:"graphics"`
}

// Graphics holds the context and window hints.
type Graphics struct {
	ContextMajor  int  `toml:"context_major"`
	ContextMinor  int  `toml:"context_minor"`
	CoreProfile   bool `toml:"core_profile"`
	ForwardCompat bool `toml:"forward_compat"`
	Resizable     bool `toml:"resizable"`
	Samples       int  `toml:"samples"`
	SwapInterval  int  `toml:"swap_interval"`
}

// Default returns the configuration used when no file exists.
func Default() *File {
	return &File{
		Graphics: DefaultGraphics(),
	}
}

// DefaultGraphics requests an OpenGL 4.1 core context, the highest
// version available on every desktop platform.
func DefaultGraphics() Graphics {
	return Graphics{
		ContextMajor:  4,
		ContextMinor:  1,
		CoreProfile:   true,
		ForwardCompat: true,
		Resizable:     true,
		SwapInterval:  1,
	}
}

// TimeoutDuration converts the timeout in seconds.
func (f *File) TimeoutDuration() time.Duration {
	return time.Duration(f.Timeout) * time.Second
}

// Load reads and validates a config file. Keys missing from the file keep
// their default values.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("failed to parse config %s:%d:%d: %w", path, row, col, err)
		}
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Discover loads explicitPath if set, otherwise DefaultFileName beside the
// script. A missing implicit file is not an error; the defaults are returned.
func Discover(explicitPath, scriptPath string) (*File, string, error) {
	if explicitPath != "" {
		cfg, err := Load(explicitPath)
		return cfg, explicitPath, err
	}

	candidate := filepath.Join(filepath.Dir(scriptPath), DefaultFileName)
	cfg, err := Load(candidate)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), "", nil
	}
	if err != nil {
		return nil, candidate, err
	}
	return cfg, candidate, nil
}

func (f *File) validate() error {
	if f.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got %d", f.Timeout)
	}
	g := f.Graphics
	if g.ContextMajor < 1 || g.ContextMinor < 0 {
		return fmt.Errorf("invalid context version %d.%d", g.ContextMajor, g.ContextMinor)
	}
	if g.Samples < 0 {
		return fmt.Errorf("samples must be non-negative, got %d", g.Samples)
	}
	return nil
}
