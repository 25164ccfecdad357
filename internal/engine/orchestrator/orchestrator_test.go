package orchestrator_test

import (
	"context"
	"sync"
	"testing"
	"testing/synctest"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"

	"github.com/quarrypkg/quarry/internal/core/domain"
	"github.com/quarrypkg/quarry/internal/core/ports/mocks"
	"github.com/quarrypkg/quarry/internal/engine/orchestrator"
)

// fakeInstaller runs a per-package function and records invocation order.
type fakeInstaller struct {
	mu      sync.Mutex
	started []string
	active  int
	peak    int
	run     map[string]func() domain.NodeResult
}

func newFakeInstaller() *fakeInstaller {
	return &fakeInstaller{run: make(map[string]func() domain.NodeResult)}
}

func (f *fakeInstaller) Install(_ context.Context, spec domain.PackageSpec) domain.NodeResult {
	f.mu.Lock()
	f.started = append(f.started, spec.Name)
	f.active++
	if f.active > f.peak {
		f.peak = f.active
	}
	fn := f.run[spec.Name]
	f.mu.Unlock()

	var res domain.NodeResult
	if fn != nil {
		res = fn()
	} else {
		res = domain.NodeResult{Name: spec.Name, Stage: domain.StageInstalled}
	}

	f.mu.Lock()
	f.active--
	f.mu.Unlock()
	return res
}

func (f *fakeInstaller) startedNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.started...)
}

func graph(t *testing.T, edges map[string][]string) *domain.Resolution {
	t.Helper()

	res := domain.NewResolution()
	ids := make(map[string]domain.NodeID)
	for name := range edges {
		id, err := res.Add(domain.PackageSpec{Name: name, Version: semver.MustParse("1.0.0")})
		require.NoError(t, err)
		ids[name] = id
	}
	for name, deps := range edges {
		for _, dep := range deps {
			res.Connect(ids[name], ids[dep])
		}
	}
	require.NoError(t, res.Finalize())
	return res
}

func testLogger(ctrl *gomock.Controller) *mocks.MockLogger {
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	logger.EXPECT().Error(gomock.Any()).AnyTimes()
	return logger
}

func TestInstall_DependencyOrder(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// app -> lib -> base
		res := graph(t, map[string][]string{
			"base": {},
			"lib":  {"base"},
			"app":  {"lib"},
		})

		installer := newFakeInstaller()
		o := orchestrator.New(installer, testLogger(ctrl), 4)

		report, err := o.Install(context.Background(), res)
		require.NoError(t, err)
		assert.False(t, report.Failed())

		assert.Equal(t, []string{"base", "lib", "app"}, installer.startedNames())
		for _, name := range []string{"base", "lib", "app"} {
			r, ok := report.Result(name)
			require.True(t, ok, name)
			assert.Equal(t, domain.StageInstalled, r.Stage)
		}
	})
}

func TestInstall_FailureBlocksDependentsOnly(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// app depends on lib and util; lib fails, util is independent and
		// must still install. app must end up blocked, never started.
		res := graph(t, map[string][]string{
			"lib":  {},
			"util": {},
			"app":  {"lib", "util"},
		})

		installer := newFakeInstaller()
		installer.run["lib"] = func() domain.NodeResult {
			return domain.NodeResult{
				Name:     "lib",
				Stage:    domain.StageFailed,
				FailedAt: domain.StageBuilding,
				Err:      domain.ErrBuildCommandFailed,
			}
		}

		o := orchestrator.New(installer, testLogger(ctrl), 4)

		report, err := o.Install(context.Background(), res)
		require.NoError(t, err)
		assert.True(t, report.Failed())

		libRes, _ := report.Result("lib")
		assert.Equal(t, domain.StageFailed, libRes.Stage)
		assert.Equal(t, domain.StageBuilding, libRes.FailedAt)

		utilRes, _ := report.Result("util")
		assert.Equal(t, domain.StageInstalled, utilRes.Stage)

		appRes, _ := report.Result("app")
		assert.Equal(t, domain.StageBlocked, appRes.Stage)
		assert.Equal(t, "lib", appRes.BlockedBy)
		assert.NotContains(t, installer.startedNames(), "app")
	})
}

func TestInstall_TransitiveBlocking(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// base fails; lib and app above it are both blocked, attributed to
		// the original failure.
		res := graph(t, map[string][]string{
			"base": {},
			"lib":  {"base"},
			"app":  {"lib"},
		})

		installer := newFakeInstaller()
		installer.run["base"] = func() domain.NodeResult {
			return domain.NodeResult{
				Name:     "base",
				Stage:    domain.StageFailed,
				FailedAt: domain.StageFetching,
				Err:      domain.ErrSourceUnreachable,
			}
		}

		o := orchestrator.New(installer, testLogger(ctrl), 2)

		report, err := o.Install(context.Background(), res)
		require.NoError(t, err)

		for _, name := range []string{"lib", "app"} {
			r, ok := report.Result(name)
			require.True(t, ok, name)
			assert.Equal(t, domain.StageBlocked, r.Stage, name)
			assert.Equal(t, "base", r.BlockedBy, name)
		}
		assert.Equal(t, []string{"base"}, installer.startedNames())
	})
}

func TestInstall_WidthBoundsConcurrency(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		edges := map[string][]string{
			"a": {}, "b": {}, "c": {}, "d": {}, "e": {}, "f": {},
		}
		res := graph(t, edges)

		installer := newFakeInstaller()
		gate := make(chan struct{})
		for name := range edges {
			installer.run[name] = func() domain.NodeResult {
				<-gate
				return domain.NodeResult{Name: name, Stage: domain.StageInstalled}
			}
		}

		o := orchestrator.New(installer, testLogger(ctrl), 2)

		done := make(chan struct{})
		go func() {
			defer close(done)
			report, err := o.Install(context.Background(), res)
			assert.NoError(t, err)
			assert.False(t, report.Failed())
		}()

		// Let the pool fill, then release everyone.
		synctest.Wait()
		close(gate)
		<-done

		installer.mu.Lock()
		defer installer.mu.Unlock()
		assert.LessOrEqual(t, installer.peak, 2)
		assert.Len(t, installer.started, 6)
	})
}

func TestInstall_WidthOneIsSequential(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		res := graph(t, map[string][]string{
			"base": {},
			"lib":  {"base"},
			"app":  {"lib", "base"},
		})

		installer := newFakeInstaller()
		o := orchestrator.New(installer, testLogger(ctrl), 1)

		report, err := o.Install(context.Background(), res)
		require.NoError(t, err)
		assert.False(t, report.Failed())
		assert.Equal(t, []string{"base", "lib", "app"}, installer.startedNames())

		installer.mu.Lock()
		defer installer.mu.Unlock()
		assert.Equal(t, 1, installer.peak)
	})
}

func TestInstall_ReportIsWidthInvariant(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// ssl fails, so curl and app end up blocked while the zlib branch
		// installs. Every width must report the same terminal states.
		outcomes := make(map[int]map[string]domain.Stage)
		for _, width := range []int{1, 2, 8} {
			res := graph(t, map[string][]string{
				"zlib": {},
				"ssl":  {},
				"curl": {"ssl", "zlib"},
				"app":  {"curl"},
			})

			installer := newFakeInstaller()
			installer.run["ssl"] = func() domain.NodeResult {
				return domain.NodeResult{
					Name:     "ssl",
					Stage:    domain.StageFailed,
					FailedAt: domain.StageBuilding,
					Err:      domain.ErrBuildCommandFailed,
				}
			}

			o := orchestrator.New(installer, testLogger(ctrl), width)
			report, err := o.Install(context.Background(), res)
			require.NoError(t, err)

			stages := make(map[string]domain.Stage)
			for _, r := range report.Results() {
				stages[r.Name] = r.Stage
			}
			outcomes[width] = stages
		}

		assert.Equal(t, outcomes[1], outcomes[2])
		assert.Equal(t, outcomes[1], outcomes[8])
		assert.Equal(t, domain.StageInstalled, outcomes[1]["zlib"])
		assert.Equal(t, domain.StageFailed, outcomes[1]["ssl"])
		assert.Equal(t, domain.StageBlocked, outcomes[1]["curl"])
		assert.Equal(t, domain.StageBlocked, outcomes[1]["app"])
	})
}

func TestInstall_StorageFailureAborts(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		res := graph(t, map[string][]string{
			"base": {},
			"lib":  {"base"},
			"app":  {"lib"},
		})

		installer := newFakeInstaller()
		installer.run["base"] = func() domain.NodeResult {
			return domain.NodeResult{
				Name:     "base",
				Stage:    domain.StageFailed,
				FailedAt: domain.StageInstalled,
				Err:      zerr.Wrap(domain.ErrStorage, "record write failed"),
			}
		}

		o := orchestrator.New(installer, testLogger(ctrl), 4)

		report, err := o.Install(context.Background(), res)
		require.ErrorIs(t, err, domain.ErrStorage)

		// Nothing beyond the failing node may start; the report still covers
		// the whole graph.
		assert.Equal(t, []string{"base"}, installer.startedNames())
		for _, name := range []string{"lib", "app"} {
			r, ok := report.Result(name)
			require.True(t, ok, name)
			assert.Equal(t, domain.StageBlocked, r.Stage)
		}
	})
}

func TestInstall_ContextCancellation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		res := graph(t, map[string][]string{
			"base": {},
			"app":  {"base"},
		})

		ctx, cancel := context.WithCancel(context.Background())

		installer := newFakeInstaller()
		installer.run["base"] = func() domain.NodeResult {
			cancel()
			return domain.NodeResult{Name: "base", Stage: domain.StageInstalled}
		}

		o := orchestrator.New(installer, testLogger(ctrl), 2)

		report, err := o.Install(ctx, res)
		require.ErrorIs(t, err, context.Canceled)

		// The in-flight package finished; the dependent never started.
		baseRes, _ := report.Result("base")
		assert.Equal(t, domain.StageInstalled, baseRes.Stage)
		assert.NotContains(t, installer.startedNames(), "app")
	})
}

func TestInstall_CancellationDrainsInFlight(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		res := graph(t, map[string][]string{
			"zlib": {},
			"ssl":  {},
			"app":  {"zlib", "ssl"},
		})

		ctx, cancel := context.WithCancel(context.Background())

		// Both roots are dispatched together; ssl holds its result back
		// until after cancellation, so the loop has to wait for it rather
		// than spin on the cancelled context.
		gate := make(chan struct{})
		installer := newFakeInstaller()
		installer.run["zlib"] = func() domain.NodeResult {
			cancel()
			return domain.NodeResult{Name: "zlib", Stage: domain.StageInstalled}
		}
		installer.run["ssl"] = func() domain.NodeResult {
			<-gate
			return domain.NodeResult{Name: "ssl", Stage: domain.StageInstalled}
		}

		o := orchestrator.New(installer, testLogger(ctrl), 2)

		done := make(chan struct{})
		var report *domain.InstallReport
		var err error
		go func() {
			defer close(done)
			report, err = o.Install(ctx, res)
		}()

		// Once everything settles the orchestrator must be blocked on the
		// in-flight result, not looping on the cancelled context.
		synctest.Wait()
		close(gate)
		<-done

		require.ErrorIs(t, err, context.Canceled)
		for _, name := range []string{"zlib", "ssl"} {
			r, ok := report.Result(name)
			require.True(t, ok, name)
			assert.Equal(t, domain.StageInstalled, r.Stage)
		}
		appRes, _ := report.Result("app")
		assert.Equal(t, domain.StageBlocked, appRes.Stage)
	})
}
