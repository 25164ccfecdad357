// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"github.com/quarrypkg/quarry/internal/core/domain"
)

// SpecSource looks up candidate package specifications by name. It is the
// resolver's view of a package registry.
//
//go:generate go run go.uber.org/mock/mockgen -source=specsource.go -destination=mocks/mock_specsource.go -package=mocks
type SpecSource interface {
	// Candidates returns every known specification for the given package
	// name, one per available version, in no particular order. An unknown
	// name yields an empty slice and a nil error.
	Candidates(ctx context.Context, name string) ([]domain.PackageSpec, error)
}
