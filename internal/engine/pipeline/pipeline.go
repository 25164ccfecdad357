// Package pipeline drives one package through the install state machine:
// fetch, verify, extract, build, install.
package pipeline

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.trai.ch/zerr"

	"github.com/quarrypkg/quarry/internal/core/domain"
	"github.com/quarrypkg/quarry/internal/core/ports"
)

// Dirs holds the directories a pipeline run works in. Working directories
// are created under Builds and are exclusive to one package; build steps
// install their results into Binaries.
type Dirs struct {
	Builds   string
	Binaries string
}

// Pipeline executes the per-package install state machine. Checksum
// verification always precedes extraction; the database record is written
// only after every stage succeeded, so a crash mid-run leaves no partial
// record and a retry is safe.
type Pipeline struct {
	downloader ports.Downloader
	verifier   ports.Verifier
	extractor  ports.Extractor
	executor   ports.Executor
	db         ports.Database
	logger     ports.Logger
	sink       ports.ProgressSink
	dirs       Dirs
}

// New creates a Pipeline.
func New(
	downloader ports.Downloader,
	verifier ports.Verifier,
	extractor ports.Extractor,
	executor ports.Executor,
	db ports.Database,
	logger ports.Logger,
	sink ports.ProgressSink,
	dirs Dirs,
) *Pipeline {
	return &Pipeline{
		downloader: downloader,
		verifier:   verifier,
		extractor:  extractor,
		executor:   executor,
		db:         db,
		logger:     logger,
		sink:       sink,
		dirs:       dirs,
	}
}

// Install runs the state machine for one resolved package and returns its
// terminal result. Storage failures are reported through the result error
// as domain.ErrStorage so the caller can abort the whole operation.
func (p *Pipeline) Install(ctx context.Context, spec domain.PackageSpec) domain.NodeResult {
	rec, err := p.db.Get(ctx, spec.Name)
	if err != nil {
		return p.failed(spec, domain.StagePending, zerr.Wrap(domain.ErrStorage, err.Error()))
	}
	if rec != nil && rec.Matches(spec) {
		p.logger.Info("package already installed: " + spec.ID())
		p.sink.Done(spec.Name, nil)
		return domain.NodeResult{Name: spec.Name, Stage: domain.StageInstalled, Cached: true}
	}

	p.sink.Stage(spec.Name, domain.StageFetching)
	artifact, err := p.downloader.Fetch(ctx, spec)
	if err != nil {
		return p.failed(spec, domain.StageFetching, err)
	}

	p.sink.Stage(spec.Name, domain.StageVerifying)
	if err := p.verifier.Verify(artifact, spec.Checksum); err != nil {
		// A tampered or corrupted artifact must never reach a build command.
		_ = os.Remove(artifact)
		return p.failed(spec, domain.StageVerifying, err)
	}

	p.sink.Stage(spec.Name, domain.StageExtracting)
	workdir := filepath.Join(p.dirs.Builds, spec.Name+"_"+spec.Version.String())
	if err := os.MkdirAll(workdir, 0o750); err != nil {
		return p.failed(spec, domain.StageExtracting, zerr.Wrap(err, "failed to create working directory"))
	}
	defer func() {
		if err := os.RemoveAll(workdir); err != nil {
			p.logger.Warn("failed to remove working directory " + workdir)
		}
	}()

	if _, err := p.extractor.Extract(artifact, workdir); err != nil {
		return p.failed(spec, domain.StageExtracting, err)
	}

	if err := os.MkdirAll(p.dirs.Binaries, 0o750); err != nil {
		return p.failed(spec, domain.StageBuilding, zerr.Wrap(err, "failed to create binaries directory"))
	}
	before, err := snapshot(p.dirs.Binaries)
	if err != nil {
		return p.failed(spec, domain.StageBuilding, err)
	}

	p.sink.Stage(spec.Name, domain.StageBuilding)
	env := map[string]string{
		"source": workdir,
		"binary": p.dirs.Binaries,
	}
	for _, step := range spec.BuildSteps {
		if err := p.executor.Run(ctx, workdir, env, step); err != nil {
			return p.failed(spec, domain.StageBuilding, err)
		}
	}

	placed, err := placedFiles(p.dirs.Binaries, before)
	if err != nil {
		return p.failed(spec, domain.StageBuilding, err)
	}

	record := domain.NewInstalledRecord(spec, placed, time.Now().UTC())
	if err := p.db.Put(ctx, record); err != nil {
		return p.failed(spec, domain.StageInstalled, zerr.Wrap(domain.ErrStorage, err.Error()))
	}

	p.sink.Done(spec.Name, nil)
	return domain.NodeResult{Name: spec.Name, Stage: domain.StageInstalled}
}

func (p *Pipeline) failed(spec domain.PackageSpec, at domain.Stage, err error) domain.NodeResult {
	wrapped := zerr.With(err, "package", spec.Name)
	p.logger.Error(wrapped)
	p.sink.Done(spec.Name, wrapped)
	return domain.NodeResult{
		Name:     spec.Name,
		Stage:    domain.StageFailed,
		FailedAt: at,
		Err:      wrapped,
	}
}

// snapshot lists the regular files under root, relative to it.
func snapshot(root string) (map[string]struct{}, error) {
	files := make(map[string]struct{})
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			files[rel] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, zerr.Wrap(err, "failed to scan binaries directory")
	}
	return files, nil
}

// placedFiles returns the files the build steps added under root, sorted.
func placedFiles(root string, before map[string]struct{}) ([]string, error) {
	after, err := snapshot(root)
	if err != nil {
		return nil, err
	}
	var placed []string
	for path := range after {
		if _, existed := before[path]; !existed {
			placed = append(placed, path)
		}
	}
	sort.Strings(placed)
	return placed, nil
}
