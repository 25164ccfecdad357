package ports

import (
	"context"

	"github.com/quarrypkg/quarry/internal/core/domain"
)

// Database is the durable store of installed-package records. It is the
// single source of truth for "is X already installed". Implementations must
// make every method atomic with respect to concurrent callers, with at most
// one writer per package name at a time.
//
//go:generate go run go.uber.org/mock/mockgen -source=database.go -destination=mocks/mock_database.go -package=mocks
type Database interface {
	// Get retrieves the record for a package name.
	// Returns nil, nil if the package is not installed.
	Get(ctx context.Context, name string) (*domain.InstalledRecord, error)

	// Put stores the record, atomically replacing any previous record for
	// the same name.
	Put(ctx context.Context, rec domain.InstalledRecord) error

	// List returns every installed record.
	List(ctx context.Context) ([]domain.InstalledRecord, error)

	// Close releases the underlying store.
	Close() error
}
