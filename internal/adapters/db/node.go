package db

import (
	"context"

	"github.com/grindlemire/graft"

	"github.com/quarrypkg/quarry/internal/adapters/config" //nolint:depguard // Wired in adapter wiring
	"github.com/quarrypkg/quarry/internal/core/ports"
)

// NodeID is the unique identifier for the database Graft node.
const NodeID graft.ID = "adapter.database"

func init() {
	graft.Register(graft.Node[ports.Database]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
		},
		Run: func(ctx context.Context) (ports.Database, error) {
			cfg, err := graft.Dep[*config.Config](ctx)
			if err != nil {
				return nil, err
			}
			return Open(ctx, cfg.Database)
		},
	})
}
