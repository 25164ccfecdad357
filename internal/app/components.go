package app

import (
	"github.com/quarrypkg/quarry/internal/adapters/config"
	"github.com/quarrypkg/quarry/internal/core/ports"
)

// Components contains the initialized application components the CLI layer
// needs.
type Components struct {
	App      *App
	Logger   ports.Logger
	Config   *config.Config
	Database ports.Database
}

// Close releases resources held by the components.
func (c *Components) Close() error {
	return c.Database.Close()
}
