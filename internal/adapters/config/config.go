// Package config resolves the directory layout and runtime settings.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"go.trai.ch/zerr"
)

const (
	// EnvHome overrides the root data directory.
	EnvHome = "QUARRY_HOME"
	// EnvWidth overrides the number of concurrent package installs.
	EnvWidth = "QUARRY_WIDTH"
)

// Config holds the resolved directory layout and runtime settings. All
// paths are absolute.
type Config struct {
	// Home is the root data directory.
	Home string

	// Sources caches downloaded artifacts.
	Sources string

	// Builds holds per-package working directories.
	Builds string

	// Binaries is where build steps install their results.
	Binaries string

	// Specs is the local spec-file registry.
	Specs string

	// Database is the installed-package database file.
	Database string

	// Width is the maximum number of packages installed concurrently.
	Width int
}

// Load resolves the configuration from the environment. The default home is
// ~/.local/share/quarry.
func Load() (*Config, error) {
	home := os.Getenv(EnvHome)
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, zerr.Wrap(err, "failed to determine home directory")
		}
		home = filepath.Join(userHome, ".local", "share", "quarry")
	}
	home, err := filepath.Abs(home)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to resolve data directory")
	}

	width := runtime.NumCPU()
	if raw := os.Getenv(EnvWidth); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return nil, zerr.With(zerr.New("invalid install width"), "value", raw)
		}
		width = parsed
	}

	return &Config{
		Home:     home,
		Sources:  filepath.Join(home, "sources"),
		Builds:   filepath.Join(home, "builds"),
		Binaries: filepath.Join(home, "binaries"),
		Specs:    filepath.Join(home, "specs"),
		Database: filepath.Join(home, "quarry.db"),
		Width:    width,
	}, nil
}

// EnsureDirs creates the directory layout if it does not exist yet.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Home, c.Sources, c.Builds, c.Binaries, c.Specs} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to create data directory"), "dir", dir)
		}
	}
	return nil
}
