package app

import (
	"context"

	"github.com/grindlemire/graft"

	"github.com/quarrypkg/quarry/internal/adapters/config"   //nolint:depguard // Wired in app layer
	"github.com/quarrypkg/quarry/internal/adapters/db"       //nolint:depguard // Wired in app layer
	"github.com/quarrypkg/quarry/internal/adapters/logger"   //nolint:depguard // Wired in app layer
	"github.com/quarrypkg/quarry/internal/adapters/specfile" //nolint:depguard // Wired in app layer
	"github.com/quarrypkg/quarry/internal/core/ports"
	"github.com/quarrypkg/quarry/internal/engine/orchestrator"
	"github.com/quarrypkg/quarry/internal/engine/resolver"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			specfile.NodeID,
			db.NodeID,
			resolver.NodeID,
			orchestrator.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			config.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	source, err := graft.Dep[ports.SpecSource](ctx)
	if err != nil {
		return nil, err
	}

	database, err := graft.Dep[ports.Database](ctx)
	if err != nil {
		return nil, err
	}

	res, err := graft.Dep[*resolver.Resolver](ctx)
	if err != nil {
		return nil, err
	}

	orch, err := graft.Dep[*orchestrator.Orchestrator](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(source, database, res, orch, log), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	application, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	cfg, err := graft.Dep[*config.Config](ctx)
	if err != nil {
		return nil, err
	}

	database, err := graft.Dep[ports.Database](ctx)
	if err != nil {
		return nil, err
	}

	return &Components{
		App:      application,
		Logger:   log,
		Config:   cfg,
		Database: database,
	}, nil
}
