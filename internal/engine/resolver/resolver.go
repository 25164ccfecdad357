// Package resolver implements conflict-free version selection over a
// package dependency graph.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.trai.ch/zerr"

	"github.com/quarrypkg/quarry/internal/core/domain"
	"github.com/quarrypkg/quarry/internal/core/ports"
)

// Resolver computes a concrete, conflict-free dependency graph for a root
// specification. Candidates are tried highest-version-first, so the newest
// compatible version wins.
type Resolver struct {
	source ports.SpecSource
	db     ports.Database
	logger ports.Logger
}

// New creates a Resolver backed by the given registry lookup and installed
// package database.
func New(source ports.SpecSource, db ports.Database, logger ports.Logger) *Resolver {
	return &Resolver{
		source: source,
		db:     db,
		logger: logger,
	}
}

// requirement is one accumulated version constraint on a package name,
// together with the package that demanded it. origin is the spec ID of the
// demanding version: a requirement only binds while that exact version is
// still chosen, so constraints issued by a version that was later unpinned
// die with it.
type requirement struct {
	rng        *semver.Constraints
	requiredBy string
	origin     string
}

// choice is a version decision for one package name.
type choice struct {
	spec domain.PackageSpec
	// installed marks a pin taken from the package database rather than a
	// registry candidate. Installed pins carry no dependency edges; their
	// subtree was validated when they were installed.
	installed bool
}

type opKind int

const (
	opChoose opKind = iota
	opRequire
	opUnpin
)

// op is one reversible mutation of the solver state. The trail of ops makes
// backtracking an exact undo, including everything a partially resolved
// subtree committed before a sibling conflicted.
type op struct {
	kind opKind
	name string
	prev *choice
}

type state struct {
	reqs   map[string][]requirement
	chosen map[string]*choice
	cands  map[string][]domain.PackageSpec
	path   []string
	trail  []op
}

func newState() *state {
	return &state{
		reqs:   make(map[string][]requirement),
		chosen: make(map[string]*choice),
		cands:  make(map[string][]domain.PackageSpec),
	}
}

func (st *state) onPath(name string) bool {
	return slices.Contains(st.path, name)
}

func (st *state) choose(name string, c *choice) {
	st.chosen[name] = c
	st.trail = append(st.trail, op{kind: opChoose, name: name})
}

func (st *state) unpin(name string) {
	prev := st.chosen[name]
	delete(st.chosen, name)
	st.trail = append(st.trail, op{kind: opUnpin, name: name, prev: prev})
}

func (st *state) require(name string, req requirement) {
	st.reqs[name] = append(st.reqs[name], req)
	st.trail = append(st.trail, op{kind: opRequire, name: name})
}

// undoTo rewinds the trail to a previous mark.
func (st *state) undoTo(mark int) {
	for len(st.trail) > mark {
		last := st.trail[len(st.trail)-1]
		st.trail = st.trail[:len(st.trail)-1]
		switch last.kind {
		case opChoose:
			delete(st.chosen, last.name)
		case opRequire:
			rs := st.reqs[last.name]
			st.reqs[last.name] = rs[:len(rs)-1]
		case opUnpin:
			st.chosen[last.name] = last.prev
		}
	}
}

// live reports whether a requirement still binds. A requirement issued by a
// version that has since been unpinned or replaced is dead: it must not
// constrain any later decision.
func (st *state) live(req requirement) bool {
	c, ok := st.chosen[req.requiredBy]
	return ok && c.spec.ID() == req.origin
}

// satisfied reports whether v meets every live requirement on name.
func (st *state) satisfied(name string, v *semver.Version) bool {
	for _, req := range st.reqs[name] {
		if !st.live(req) {
			continue
		}
		if !req.rng.Check(v) {
			return false
		}
	}
	return true
}

// Resolve computes the dependency graph for root. It performs no network or
// artifact I/O; every failure is reported before any install work begins.
func (r *Resolver) Resolve(ctx context.Context, root domain.PackageSpec) (*domain.Resolution, error) {
	st := newState()
	st.choose(root.Name, &choice{spec: root})
	st.path = append(st.path, root.Name)

	for _, req := range root.Requires {
		st.require(req.Name, requirement{rng: req.Range, requiredBy: root.Name, origin: root.ID()})
		if err := r.solve(ctx, st, req.Name); err != nil {
			return nil, err
		}
	}

	res, err := r.build(root.Name, st)
	if err != nil {
		return nil, err
	}
	r.logger.Info(fmt.Sprintf("resolved %d packages for %s", res.Len(), root.ID()))
	return res, nil
}

// solve picks a version for name that satisfies every requirement collected
// so far, expanding its dependency subtree recursively. A returned version
// conflict makes the caller backtrack to its next candidate; cycle,
// not-found and storage failures are final.
func (r *Resolver) solve(ctx context.Context, st *state, name string) error {
	if st.onPath(name) {
		return zerr.With(zerr.Wrap(domain.ErrDependencyCycle, "requirement path loops back on itself"),
			"cycle", strings.Join(append(slices.Clone(st.path), name), " -> "))
	}

	if c, ok := st.chosen[name]; ok {
		if st.satisfied(name, c.spec.Version) {
			return nil
		}
		// The standing choice cannot satisfy a newly collected requirement.
		// Unpin it and re-resolve the name from registry candidates; the
		// unpinned version's own requirements go dead with it.
		st.unpin(name)
	} else if err := r.pinInstalled(ctx, st, name); err != nil {
		return err
	} else if _, pinned := st.chosen[name]; pinned {
		return nil
	}

	cands, err := r.candidates(ctx, st, name)
	if err != nil {
		return err
	}

	st.path = append(st.path, name)
	defer func() { st.path = st.path[:len(st.path)-1] }()

	for _, cand := range cands {
		if !st.satisfied(name, cand.Version) {
			continue
		}

		mark := len(st.trail)
		st.choose(name, &choice{spec: cand})

		conflicted := false
		for _, req := range cand.Requires {
			st.require(req.Name, requirement{rng: req.Range, requiredBy: name, origin: cand.ID()})
			if err := r.solve(ctx, st, req.Name); err != nil {
				if !errors.Is(err, domain.ErrVersionConflict) {
					return err
				}
				conflicted = true
				break
			}
		}
		if !conflicted {
			return nil
		}
		st.undoTo(mark)
	}

	return r.conflict(st, name)
}

// pinInstalled consults the package database and pins an already-installed
// version when it satisfies every requirement seen so far, skipping subtree
// expansion entirely.
func (r *Resolver) pinInstalled(ctx context.Context, st *state, name string) error {
	rec, err := r.db.Get(ctx, name)
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrStorage, err.Error()), "package", name)
	}
	if rec == nil {
		return nil
	}
	v, err := rec.SemVer()
	if err != nil {
		return zerr.With(zerr.Wrap(err, "corrupt installed record"), "package", name)
	}
	if !st.satisfied(name, v) {
		return nil
	}

	st.choose(name, &choice{
		spec: domain.PackageSpec{
			Name:     rec.Name,
			Version:  v,
			Checksum: rec.Checksum,
		},
		installed: true,
	})
	return nil
}

// candidates returns the registry specifications for name, newest first.
// Lookups are cached for the lifetime of one Resolve call so re-resolving a
// name after an unpin never hits the registry twice.
func (r *Resolver) candidates(ctx context.Context, st *state, name string) ([]domain.PackageSpec, error) {
	cands, cached := st.cands[name]
	if !cached {
		var err error
		cands, err = r.source.Candidates(ctx, name)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "candidate lookup failed"), "package", name)
		}
		slices.SortFunc(cands, func(a, b domain.PackageSpec) int {
			return b.Version.Compare(a.Version)
		})
		st.cands[name] = cands
	}

	if len(cands) == 0 {
		err := zerr.Wrap(domain.ErrPackageNotFound, "no candidate specifications in any source")
		err = zerr.With(err, "package", name)
		return nil, zerr.With(err, "required_by", st.requesters(name))
	}
	return cands, nil
}

// conflict builds the version-conflict diagnostic, listing every live
// requirement and the decision path that led here.
func (r *Resolver) conflict(st *state, name string) error {
	reqs := make([]string, 0, len(st.reqs[name]))
	for _, req := range st.reqs[name] {
		if !st.live(req) {
			continue
		}
		reqs = append(reqs, fmt.Sprintf("%s requires %s", req.requiredBy, req.rng.String()))
	}
	err := zerr.Wrap(domain.ErrVersionConflict, "no version satisfies the combined requirements")
	err = zerr.With(err, "package", name)
	err = zerr.With(err, "requirements", strings.Join(reqs, "; "))
	return zerr.With(err, "path", strings.Join(st.path, " -> "))
}

func (st *state) requesters(name string) string {
	names := make([]string, 0, len(st.reqs[name]))
	for _, req := range st.reqs[name] {
		if !st.live(req) {
			continue
		}
		names = append(names, req.requiredBy)
	}
	return strings.Join(names, ", ")
}

// build converts the final solver state into an arena-backed resolution
// graph and computes its topological order. Only packages reachable from the
// root are included: a choice stranded when its sole requester was unpinned
// must not be installed.
func (r *Resolver) build(rootName string, st *state) (*domain.Resolution, error) {
	res := domain.NewResolution()

	ids := make(map[string]domain.NodeID)
	seen := map[string]bool{rootName: true}
	queue := []string{rootName}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		c := st.chosen[name]
		id, err := res.Add(c.spec)
		if err != nil {
			return nil, err
		}
		ids[name] = id

		if c.installed {
			continue
		}
		for _, req := range c.spec.Requires {
			if !seen[req.Name] {
				seen[req.Name] = true
				queue = append(queue, req.Name)
			}
		}
	}

	for name, id := range ids {
		c := st.chosen[name]
		if c.installed {
			continue
		}
		for _, req := range c.spec.Requires {
			res.Connect(id, ids[req.Name])
		}
	}

	res.SetRoot(ids[rootName])
	if err := res.Finalize(); err != nil {
		return nil, err
	}
	return res, nil
}
