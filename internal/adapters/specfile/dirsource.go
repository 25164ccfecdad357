package specfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"

	"github.com/quarrypkg/quarry/internal/core/domain"
	"github.com/quarrypkg/quarry/internal/core/ports"
)

// DirSource implements ports.SpecSource over a directory of YAML spec
// files, one file per package version. The directory is rescanned on every
// lookup so newly dropped spec files are visible without a restart.
type DirSource struct {
	dir    string
	logger ports.Logger
}

// NewDirSource creates a DirSource reading specs from dir.
func NewDirSource(dir string, logger ports.Logger) *DirSource {
	return &DirSource{
		dir:    dir,
		logger: logger,
	}
}

// Candidates returns every parseable specification for the given package
// name. Malformed spec files are skipped with a warning; an unknown name
// yields an empty slice.
func (s *DirSource) Candidates(ctx context.Context, name string) ([]domain.PackageSpec, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read spec directory"), "dir", s.dir)
	}

	var candidates []domain.PackageSpec
	seen := make(map[string]bool)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !isSpecFile(entry.Name()) {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		spec, err := Load(path)
		if err != nil {
			s.logger.Warn("skipping malformed spec file " + path + ": " + err.Error())
			continue
		}
		if spec.Name != name {
			continue
		}
		if seen[spec.ID()] {
			s.logger.Warn("skipping duplicate spec " + spec.ID() + " in " + path)
			continue
		}
		seen[spec.ID()] = true
		candidates = append(candidates, spec)
	}
	return candidates, nil
}

func isSpecFile(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
