package domain

import (
	"iter"
	"strings"

	"go.trai.ch/zerr"
)

// NodeID addresses a node inside a Resolution arena. Edges are stored as
// NodeID references, so diamond dependencies collapse to a single shared
// node instead of a duplicated subtree.
type NodeID int

// ResolvedPackage is a PackageSpec bound to the one concrete version the
// resolver chose, together with its direct dependency edges.
type ResolvedPackage struct {
	Spec PackageSpec
	Deps []NodeID
}

// Resolution is the concrete, conflict-free dependency graph produced by the
// resolver. Invariants: one node per package name, and the graph is acyclic
// once Finalize has succeeded.
type Resolution struct {
	nodes      []ResolvedPackage
	byName     map[string]NodeID
	root       NodeID
	order      []NodeID
	dependents [][]NodeID
}

// NewResolution creates an empty resolution graph.
func NewResolution() *Resolution {
	return &Resolution{
		byName: make(map[string]NodeID),
		root:   -1,
	}
}

// Add appends a node for the given specification and returns its id.
// It returns ErrDuplicatePackage if the name is already present.
func (r *Resolution) Add(spec PackageSpec) (NodeID, error) {
	if _, exists := r.byName[spec.Name]; exists {
		return 0, zerr.With(zerr.Wrap(ErrDuplicatePackage, "graph already holds a node for this name"), "package", spec.Name)
	}
	id := NodeID(len(r.nodes))
	r.nodes = append(r.nodes, ResolvedPackage{Spec: spec})
	r.byName[spec.Name] = id
	return id, nil
}

// Connect records a direct dependency edge from one node to another.
func (r *Resolution) Connect(from, to NodeID) {
	r.nodes[from].Deps = append(r.nodes[from].Deps, to)
}

// SetRoot marks the node the resolution was computed for.
func (r *Resolution) SetRoot(id NodeID) {
	r.root = id
}

// Root returns the root node id.
func (r *Resolution) Root() NodeID {
	return r.root
}

// Node returns the node stored under the given id.
func (r *Resolution) Node(id NodeID) ResolvedPackage {
	return r.nodes[id]
}

// Lookup returns the node id for a package name.
func (r *Resolution) Lookup(name string) (NodeID, bool) {
	id, ok := r.byName[name]
	return id, ok
}

// Len returns the number of nodes in the graph.
func (r *Resolution) Len() int {
	return len(r.nodes)
}

// Finalize checks the graph for cycles with a depth-first topological sort
// and populates the execution order and reverse edges. The order places
// every dependency before its dependents.
func (r *Resolution) Finalize() error {
	r.order = make([]NodeID, 0, len(r.nodes))
	r.dependents = make([][]NodeID, len(r.nodes))
	visited := make([]int, len(r.nodes)) // 0 unvisited, 1 on path, 2 done
	var path []NodeID

	var visit func(id NodeID) error
	visit = func(id NodeID) error {
		visited[id] = 1
		path = append(path, id)

		for _, dep := range r.nodes[id].Deps {
			if visited[dep] == 1 {
				return r.cycleError(path, dep)
			}
			if visited[dep] == 0 {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[id] = 2
		path = path[:len(path)-1]
		r.order = append(r.order, id)
		return nil
	}

	for id := range r.nodes {
		if visited[id] == 0 {
			if err := visit(NodeID(id)); err != nil {
				return err
			}
		}
	}

	for id, node := range r.nodes {
		for _, dep := range node.Deps {
			r.dependents[dep] = append(r.dependents[dep], NodeID(id))
		}
	}

	return nil
}

// cycleError reports the offending dependency path, starting at the node
// that closes the cycle.
func (r *Resolution) cycleError(path []NodeID, dep NodeID) error {
	var b strings.Builder
	start := 0
	for i, id := range path {
		if id == dep {
			start = i
			break
		}
	}
	for _, id := range path[start:] {
		b.WriteString(r.nodes[id].Spec.Name)
		b.WriteString(" -> ")
	}
	b.WriteString(r.nodes[dep].Spec.Name)
	return zerr.With(zerr.Wrap(ErrDependencyCycle, "graph is not acyclic"), "cycle", b.String())
}

// Walk yields the resolved packages in dependency order (dependencies before
// dependents). Finalize must have succeeded first.
func (r *Resolution) Walk() iter.Seq[ResolvedPackage] {
	return func(yield func(ResolvedPackage) bool) {
		for _, id := range r.order {
			if !yield(r.nodes[id]) {
				return
			}
		}
	}
}

// Order returns the node ids in dependency order.
func (r *Resolution) Order() []NodeID {
	return r.order
}

// Dependents returns the nodes that directly depend on the given node.
func (r *Resolution) Dependents(id NodeID) []NodeID {
	return r.dependents[id]
}
