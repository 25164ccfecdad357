// Package specfile parses YAML package specifications and serves them to
// the resolver.
package specfile

import (
	"os"
	"sort"

	"github.com/Masterminds/semver/v3"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"github.com/quarrypkg/quarry/internal/core/domain"
)

// Specfile represents the structure of a package specification file.
type Specfile struct {
	Name         string            `yaml:"name"`
	Version      string            `yaml:"version"`
	Source       string            `yaml:"source"`
	Checksum     string            `yaml:"checksum"`
	Dependencies map[string]string `yaml:"dependencies"`
	Build        []string          `yaml:"build"`
	License      string            `yaml:"license"`
	Repository   string            `yaml:"repository"`
	Description  string            `yaml:"description"`
}

// Load reads a specification file from the given path.
func Load(path string) (domain.PackageSpec, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return domain.PackageSpec{}, zerr.Wrap(err, "failed to read spec file")
	}
	spec, err := Parse(data)
	if err != nil {
		return domain.PackageSpec{}, zerr.With(err, "path", path)
	}
	return spec, nil
}

// Parse decodes one YAML specification into a domain.PackageSpec.
func Parse(data []byte) (domain.PackageSpec, error) {
	var file Specfile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return domain.PackageSpec{}, zerr.Wrap(err, "failed to parse spec file")
	}

	if file.Name == "" {
		return domain.PackageSpec{}, zerr.New("spec file is missing a package name")
	}
	version, err := semver.NewVersion(file.Version)
	if err != nil {
		badVersion := zerr.With(zerr.Wrap(err, "invalid package version"), "package", file.Name)
		return domain.PackageSpec{}, zerr.With(badVersion, "version", file.Version)
	}
	if file.Source == "" {
		return domain.PackageSpec{}, zerr.With(zerr.New("spec file is missing a source URL"), "package", file.Name)
	}
	if file.Checksum == "" {
		return domain.PackageSpec{}, zerr.With(zerr.New("spec file is missing a checksum"), "package", file.Name)
	}

	requires := make([]domain.Requirement, 0, len(file.Dependencies))
	for name, rng := range file.Dependencies {
		constraint, err := semver.NewConstraint(rng)
		if err != nil {
			badRange := zerr.With(zerr.Wrap(err, "invalid requirement range"), "package", file.Name)
			badRange = zerr.With(badRange, "requirement", name)
			return domain.PackageSpec{}, zerr.With(badRange, "range", rng)
		}
		requires = append(requires, domain.Requirement{Name: name, Range: constraint})
	}
	sort.Slice(requires, func(i, j int) bool {
		return requires[i].Name < requires[j].Name
	})

	return domain.PackageSpec{
		Name:        file.Name,
		Version:     version,
		Source:      file.Source,
		Checksum:    file.Checksum,
		Requires:    requires,
		BuildSteps:  file.Build,
		License:     file.License,
		Repository:  file.Repository,
		Description: file.Description,
	}, nil
}
