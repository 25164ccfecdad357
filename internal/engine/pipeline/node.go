package pipeline

import (
	"context"

	"github.com/grindlemire/graft"

	"github.com/quarrypkg/quarry/internal/adapters/archive"   //nolint:depguard // Wired in engine wiring
	"github.com/quarrypkg/quarry/internal/adapters/checksum"  //nolint:depguard // Wired in engine wiring
	"github.com/quarrypkg/quarry/internal/adapters/config"    //nolint:depguard // Wired in engine wiring
	"github.com/quarrypkg/quarry/internal/adapters/db"        //nolint:depguard // Wired in engine wiring
	"github.com/quarrypkg/quarry/internal/adapters/fetch"     //nolint:depguard // Wired in engine wiring
	"github.com/quarrypkg/quarry/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"github.com/quarrypkg/quarry/internal/adapters/shell"     //nolint:depguard // Wired in engine wiring
	"github.com/quarrypkg/quarry/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"github.com/quarrypkg/quarry/internal/core/ports"
)

// NodeID is the unique identifier for the pipeline Graft node.
const NodeID graft.ID = "engine.pipeline"

func init() {
	graft.Register(graft.Node[*Pipeline]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			fetch.NodeID,
			checksum.NodeID,
			archive.NodeID,
			shell.NodeID,
			db.NodeID,
			logger.NodeID,
			telemetry.NodeID,
			config.NodeID,
		},
		Run: runPipelineNode,
	})
}

func runPipelineNode(ctx context.Context) (*Pipeline, error) {
	downloader, err := graft.Dep[ports.Downloader](ctx)
	if err != nil {
		return nil, err
	}

	verifier, err := graft.Dep[ports.Verifier](ctx)
	if err != nil {
		return nil, err
	}

	extractor, err := graft.Dep[ports.Extractor](ctx)
	if err != nil {
		return nil, err
	}

	executor, err := graft.Dep[ports.Executor](ctx)
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

	sink, err := graft.Dep[ports.ProgressSink](ctx)
	if err != nil {
		return nil, err
	}

	cfg, err := graft.Dep[*config.Config](ctx)
	if err != nil {
		return nil, err
	}

	return New(downloader, verifier, extractor, executor, database, log, sink, Dirs{
		Builds:   cfg.Builds,
		Binaries: cfg.Binaries,
	}), nil
}
