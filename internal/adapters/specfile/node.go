package specfile

import (
	"context"

	"github.com/grindlemire/graft"

	"github.com/quarrypkg/quarry/internal/adapters/config" //nolint:depguard // Wired in adapter wiring
	"github.com/quarrypkg/quarry/internal/adapters/logger" //nolint:depguard // Wired in adapter wiring
	"github.com/quarrypkg/quarry/internal/core/ports"
)

// NodeID is the unique identifier for the spec source Graft node.
const NodeID graft.ID = "adapter.spec_source"

func init() {
	graft.Register(graft.Node[ports.SpecSource]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (ports.SpecSource, error) {
			cfg, err := graft.Dep[*config.Config](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewDirSource(cfg.Specs, log), nil
		},
	})
}
