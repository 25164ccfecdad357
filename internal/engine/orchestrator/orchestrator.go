// Package orchestrator walks a resolved dependency graph in dependency
// order and drives the install pipeline for every node.
package orchestrator

import (
	"context"
	"errors"

	"github.com/quarrypkg/quarry/internal/core/domain"
	"github.com/quarrypkg/quarry/internal/core/ports"
)

// Installer runs the install state machine for one resolved package.
// *pipeline.Pipeline is the production implementation.
type Installer interface {
	Install(ctx context.Context, spec domain.PackageSpec) domain.NodeResult
}

// Orchestrator schedules resolved packages onto a bounded pool, releasing a
// dependent only once all of its direct dependencies are installed. A
// failure blocks the failed node's transitive dependents but lets
// independent in-flight branches run to completion.
type Orchestrator struct {
	installer Installer
	logger    ports.Logger
	width     int
}

// New creates an Orchestrator with the given concurrency width. Width 1
// executes sequentially in topological order with identical results.
func New(installer Installer, logger ports.Logger, width int) *Orchestrator {
	if width < 1 {
		width = 1
	}
	return &Orchestrator{
		installer: installer,
		logger:    logger,
		width:     width,
	}
}

type result struct {
	id  domain.NodeID
	res domain.NodeResult
}

type runState struct {
	res       *domain.Resolution
	inDegree  map[domain.NodeID]int
	ready     []domain.NodeID
	active    int
	resultsCh chan result
	report    *domain.InstallReport
	aborted   error
	abortedBy string
}

// Install drives every node of the resolution to a terminal state and
// returns the report enumerating all outcomes. The returned error is
// non-nil only when the operation as a whole aborted: a storage failure or
// context cancellation. Per-package failures are reported, not returned.
func (o *Orchestrator) Install(ctx context.Context, res *domain.Resolution) (*domain.InstallReport, error) {
	state := o.newRunState(res)

	for !state.isDone() {
		o.schedule(ctx, state)

		if state.isDone() {
			break
		}

		if ctx.Err() != nil {
			if state.active == 0 {
				break
			}
			// Cancelled: nothing new starts, so only the in-flight
			// results remain to drain.
			o.handleResult(state, <-state.resultsCh)
			continue
		}

		select {
		case r := <-state.resultsCh:
			o.handleResult(state, r)
		case <-ctx.Done():
		}
	}

	state.markUnfinished()

	if state.aborted != nil {
		return state.report, state.aborted
	}
	if ctx.Err() != nil {
		return state.report, ctx.Err()
	}
	return state.report, nil
}

func (o *Orchestrator) newRunState(res *domain.Resolution) *runState {
	inDegree := make(map[domain.NodeID]int, res.Len())
	var ready []domain.NodeID
	for _, id := range res.Order() {
		deps := len(res.Node(id).Deps)
		inDegree[id] = deps
		if deps == 0 {
			ready = append(ready, id)
		}
	}

	return &runState{
		res:       res,
		inDegree:  inDegree,
		ready:     ready,
		resultsCh: make(chan result, o.width),
		report:    domain.NewInstallReport(),
	}
}

func (state *runState) isDone() bool {
	return state.active == 0 && len(state.ready) == 0
}

// schedule dispatches ready nodes up to the pool width. Once the run is
// aborted no new work starts; in-flight nodes still run to completion.
func (o *Orchestrator) schedule(ctx context.Context, state *runState) {
	for len(state.ready) > 0 && state.active < o.width && state.aborted == nil && ctx.Err() == nil {
		id := state.ready[0]
		state.ready = state.ready[1:]
		state.active++

		go func(id domain.NodeID, spec domain.PackageSpec) {
			state.resultsCh <- result{id: id, res: o.installer.Install(ctx, spec)}
		}(id, state.res.Node(id).Spec)
	}
}

func (o *Orchestrator) handleResult(state *runState, r result) {
	state.active--
	state.report.Record(r.res)

	if r.res.Stage == domain.StageInstalled {
		for _, dep := range state.res.Dependents(r.id) {
			state.inDegree[dep]--
			if state.inDegree[dep] == 0 {
				state.ready = append(state.ready, dep)
			}
		}
		return
	}

	if errors.Is(r.res.Err, domain.ErrStorage) {
		// Install-state consistency is gone; stop scheduling anything new.
		o.logger.Error(r.res.Err)
		state.aborted = r.res.Err
		state.abortedBy = r.res.Name
		return
	}

	o.logger.Warn("package " + r.res.Name + " failed; blocking its dependents")
	o.block(state, r.id, r.res.Name)
}

// block marks every transitive dependent of a failed node as blocked.
// Blocked nodes never reach the ready queue, so nothing is scheduled for
// them.
func (o *Orchestrator) block(state *runState, id domain.NodeID, cause string) {
	queue := []domain.NodeID{id}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for _, dep := range state.res.Dependents(next) {
			name := state.res.Node(dep).Spec.Name
			if _, done := state.report.Result(name); done {
				continue
			}
			state.report.Record(domain.NodeResult{
				Name:      name,
				Stage:     domain.StageBlocked,
				BlockedBy: cause,
			})
			queue = append(queue, dep)
		}
	}
}

// markUnfinished records a blocked result for every node that never reached
// a terminal state, so the report always enumerates the whole graph.
func (state *runState) markUnfinished() {
	for _, id := range state.res.Order() {
		name := state.res.Node(id).Spec.Name
		if _, done := state.report.Result(name); done {
			continue
		}
		state.report.Record(domain.NodeResult{
			Name:      name,
			Stage:     domain.StageBlocked,
			BlockedBy: state.abortedBy,
		})
	}
}
