// Package app implements the application layer for quarry.
package app

import (
	"context"

	"github.com/Masterminds/semver/v3"
	"go.trai.ch/zerr"

	"github.com/quarrypkg/quarry/internal/core/domain"
	"github.com/quarrypkg/quarry/internal/core/ports"
	"github.com/quarrypkg/quarry/internal/engine/orchestrator"
	"github.com/quarrypkg/quarry/internal/engine/resolver"
)

// App represents the main application logic.
type App struct {
	source       ports.SpecSource
	db           ports.Database
	resolver     *resolver.Resolver
	orchestrator *orchestrator.Orchestrator
	logger       ports.Logger
}

// New creates a new App instance.
func New(
	source ports.SpecSource,
	db ports.Database,
	res *resolver.Resolver,
	orch *orchestrator.Orchestrator,
	logger ports.Logger,
) *App {
	return &App{
		source:       source,
		db:           db,
		resolver:     res,
		orchestrator: orch,
		logger:       logger,
	}
}

// Resolve computes the full dependency closure for the named package at its
// newest known version.
func (a *App) Resolve(ctx context.Context, name string) (*domain.Resolution, error) {
	root, err := a.newestSpec(ctx, name)
	if err != nil {
		return nil, err
	}
	return a.resolver.Resolve(ctx, root)
}

// ResolveVersion computes the dependency closure for one specific version of
// the named package.
func (a *App) ResolveVersion(ctx context.Context, name, version string) (*domain.Resolution, error) {
	wanted, err := semver.NewVersion(version)
	if err != nil {
		wrapped := zerr.With(zerr.Wrap(err, "invalid version"), "package", name)
		return nil, zerr.With(wrapped, "version", version)
	}

	candidates, err := a.source.Candidates(ctx, name)
	if err != nil {
		return nil, err
	}
	for _, spec := range candidates {
		if spec.Version.Equal(wanted) {
			return a.resolver.Resolve(ctx, spec)
		}
	}
	notFound := zerr.Wrap(domain.ErrPackageNotFound, "no candidate with the requested version")
	notFound = zerr.With(notFound, "package", name)
	return nil, zerr.With(notFound, "version", version)
}

// Install resolves the named package and installs its full closure. The
// returned report carries the per-package outcome even when the error is
// non-nil; a partially failed run reports domain.ErrInstallFailed.
func (a *App) Install(ctx context.Context, name string) (*domain.InstallReport, error) {
	res, err := a.Resolve(ctx, name)
	if err != nil {
		return nil, err
	}

	report, err := a.orchestrator.Install(ctx, res)
	if err != nil {
		return report, err
	}
	if report.Failed() {
		return report, zerr.With(zerr.Wrap(domain.ErrInstallFailed, "not every package reached installed"), "package", name)
	}
	return report, nil
}

// Installed returns the installed record for the named package, or nil when
// it is not installed.
func (a *App) Installed(ctx context.Context, name string) (*domain.InstalledRecord, error) {
	return a.db.Get(ctx, name)
}

// ListInstalled returns every installed record, ordered by name.
func (a *App) ListInstalled(ctx context.Context) ([]domain.InstalledRecord, error) {
	return a.db.List(ctx)
}

// newestSpec picks the highest known version for a package name.
func (a *App) newestSpec(ctx context.Context, name string) (domain.PackageSpec, error) {
	candidates, err := a.source.Candidates(ctx, name)
	if err != nil {
		return domain.PackageSpec{}, err
	}
	if len(candidates) == 0 {
		return domain.PackageSpec{}, zerr.With(zerr.Wrap(domain.ErrPackageNotFound, "no candidate specifications in any source"), "package", name)
	}

	newest := candidates[0]
	for _, spec := range candidates[1:] {
		if spec.Version.Compare(newest.Version) > 0 {
			newest = spec
		}
	}
	return newest, nil
}
