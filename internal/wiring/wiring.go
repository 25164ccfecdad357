// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "github.com/quarrypkg/quarry/internal/adapters/archive"
	_ "github.com/quarrypkg/quarry/internal/adapters/checksum"
	_ "github.com/quarrypkg/quarry/internal/adapters/config"
	_ "github.com/quarrypkg/quarry/internal/adapters/db"
	_ "github.com/quarrypkg/quarry/internal/adapters/fetch"
	_ "github.com/quarrypkg/quarry/internal/adapters/logger"
	_ "github.com/quarrypkg/quarry/internal/adapters/shell"
	_ "github.com/quarrypkg/quarry/internal/adapters/specfile"
	_ "github.com/quarrypkg/quarry/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "github.com/quarrypkg/quarry/internal/app"
	_ "github.com/quarrypkg/quarry/internal/engine/orchestrator"
	_ "github.com/quarrypkg/quarry/internal/engine/pipeline"
	_ "github.com/quarrypkg/quarry/internal/engine/resolver"
)
