package resolver

import (
	"context"

	"github.com/grindlemire/graft"

	"github.com/quarrypkg/quarry/internal/adapters/db"       //nolint:depguard // Wired in engine wiring
	"github.com/quarrypkg/quarry/internal/adapters/logger"   //nolint:depguard // Wired in engine wiring
	"github.com/quarrypkg/quarry/internal/adapters/specfile" //nolint:depguard // Wired in engine wiring
	"github.com/quarrypkg/quarry/internal/core/ports"
)

// NodeID is the unique identifier for the resolver Graft node.
const NodeID graft.ID = "engine.resolver"

func init() {
	graft.Register(graft.Node[*Resolver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			specfile.NodeID,
			db.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Resolver, error) {
			source, err := graft.Dep[ports.SpecSource](ctx)
			if err != nil {
				return nil, err
			}

			database, err := graft.Dep[ports.Database](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return New(source, database, log), nil
		},
	})
}
