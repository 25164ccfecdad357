package fetch

import (
	"context"

	"github.com/grindlemire/graft"

	"github.com/quarrypkg/quarry/internal/adapters/config"    //nolint:depguard // Wired in adapter wiring
	"github.com/quarrypkg/quarry/internal/adapters/logger"    //nolint:depguard // Wired in adapter wiring
	"github.com/quarrypkg/quarry/internal/adapters/telemetry" //nolint:depguard // Wired in adapter wiring
	"github.com/quarrypkg/quarry/internal/core/ports"
)

// NodeID is the unique identifier for the downloader Graft node.
const NodeID graft.ID = "adapter.downloader"

func init() {
	graft.Register(graft.Node[ports.Downloader]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			telemetry.NodeID,
		},
		Run: func(ctx context.Context) (ports.Downloader, error) {
			cfg, err := graft.Dep[*config.Config](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			sink, err := graft.Dep[ports.ProgressSink](ctx)
			if err != nil {
				return nil, err
			}

			return New(cfg.Sources, log, sink, WithWidth(cfg.Width)), nil
		},
	})
}
