package orchestrator

import (
	"context"

	"github.com/grindlemire/graft"

	"github.com/quarrypkg/quarry/internal/adapters/config" //nolint:depguard // Wired in engine wiring
	"github.com/quarrypkg/quarry/internal/adapters/logger" //nolint:depguard // Wired in engine wiring
	"github.com/quarrypkg/quarry/internal/core/ports"
	"github.com/quarrypkg/quarry/internal/engine/pipeline"
)

// NodeID is the unique identifier for the orchestrator Graft node.
const NodeID graft.ID = "engine.orchestrator"

func init() {
	graft.Register(graft.Node[*Orchestrator]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			pipeline.NodeID,
			logger.NodeID,
			config.NodeID,
		},
		Run: func(ctx context.Context) (*Orchestrator, error) {
			pipe, err := graft.Dep[*pipeline.Pipeline](ctx)
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

			return New(pipe, log, cfg.Width), nil
		},
	})
}
