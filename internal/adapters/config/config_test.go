package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrypkg/quarry/internal/adapters/config"
)

func TestLoad_HomeOverride(t *testing.T) {
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, home, cfg.Home)
	assert.Equal(t, filepath.Join(home, "sources"), cfg.Sources)
	assert.Equal(t, filepath.Join(home, "builds"), cfg.Builds)
	assert.Equal(t, filepath.Join(home, "binaries"), cfg.Binaries)
	assert.Equal(t, filepath.Join(home, "specs"), cfg.Specs)
	assert.Equal(t, filepath.Join(home, "quarry.db"), cfg.Database)
	assert.GreaterOrEqual(t, cfg.Width, 1)
}

func TestLoad_WidthOverride(t *testing.T) {
	t.Setenv(config.EnvHome, t.TempDir())
	t.Setenv(config.EnvWidth, "3")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Width)
}

func TestLoad_RejectsInvalidWidth(t *testing.T) {
	t.Setenv(config.EnvHome, t.TempDir())

	for _, bad := range []string{"0", "-2", "lots"} {
		t.Setenv(config.EnvWidth, bad)
		_, err := config.Load()
		assert.Error(t, err, bad)
	}
}

func TestEnsureDirs(t *testing.T) {
	home := filepath.Join(t.TempDir(), "quarry")
	t.Setenv(config.EnvHome, home)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NoError(t, cfg.EnsureDirs())

	for _, dir := range []string{cfg.Sources, cfg.Builds, cfg.Binaries, cfg.Specs} {
		info, err := os.Stat(dir)
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir(), dir)
	}
}
