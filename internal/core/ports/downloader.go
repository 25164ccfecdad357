package ports

import (
	"context"

	"github.com/quarrypkg/quarry/internal/core/domain"
)

// FetchResult is the outcome of one source download.
type FetchResult struct {
	// Spec is the specification the artifact was fetched for.
	Spec domain.PackageSpec

	// Path is the local artifact path. Empty when Err is set.
	Path string

	// Err is the download failure, if any.
	Err error
}

// Downloader fetches source artifacts. It is responsible for transport
// concerns only; content verification belongs to the build pipeline.
//
//go:generate go run go.uber.org/mock/mockgen -source=downloader.go -destination=mocks/mock_downloader.go -package=mocks
type Downloader interface {
	// Fetch downloads the source artifact for one specification and returns
	// the local file path.
	Fetch(ctx context.Context, spec domain.PackageSpec) (string, error)

	// FetchAll downloads many artifacts with bounded concurrency. Results
	// arrive in completion order, not submission order; the channel is
	// closed once every download has finished.
	FetchAll(ctx context.Context, specs []domain.PackageSpec) <-chan FetchResult
}
