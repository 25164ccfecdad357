package commands_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/quarrypkg/quarry/cmd/quarry/commands"
	"github.com/quarrypkg/quarry/internal/app"
	"github.com/quarrypkg/quarry/internal/core/domain"
	"github.com/quarrypkg/quarry/internal/core/ports/mocks"
	"github.com/quarrypkg/quarry/internal/engine/orchestrator"
	"github.com/quarrypkg/quarry/internal/engine/resolver"
)

type installerFunc func(ctx context.Context, spec domain.PackageSpec) domain.NodeResult

func (f installerFunc) Install(ctx context.Context, spec domain.PackageSpec) domain.NodeResult {
	return f(ctx, spec)
}

func newCLI(t *testing.T, ctrl *gomock.Controller, installer orchestrator.Installer) (*commands.CLI, *mocks.MockSpecSource, *mocks.MockDatabase, *bytes.Buffer) {
	t.Helper()

	source := mocks.NewMockSpecSource(ctrl)
	database := mocks.NewMockDatabase(ctrl)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	logger.EXPECT().Error(gomock.Any()).AnyTimes()

	res := resolver.New(source, database, logger)
	orch := orchestrator.New(installer, logger, 2)
	a := app.New(source, database, res, orch, logger)

	cli := commands.New(a)
	var out bytes.Buffer
	cli.SetOutput(&out, &out)
	return cli, source, database, &out
}

func candidate(name, version string, requires ...domain.Requirement) domain.PackageSpec {
	return domain.PackageSpec{
		Name:     name,
		Version:  semver.MustParse(version),
		Source:   "https://pkgs.example.com/" + name + ".tar.gz",
		Checksum: "abc",
		Requires: requires,
	}
}

var installOK installerFunc = func(_ context.Context, spec domain.PackageSpec) domain.NodeResult {
	return domain.NodeResult{Name: spec.Name, Stage: domain.StageInstalled}
}

func TestResolveCommand_PrintsClosureInOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cli, source, database, out := newCLI(t, ctrl, installOK)
	database.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	rng, err := semver.NewConstraint("^1.0")
	require.NoError(t, err)

	source.EXPECT().Candidates(gomock.Any(), "app").Return([]domain.PackageSpec{
		candidate("app", "1.0.0", domain.Requirement{Name: "zlib", Range: rng}),
	}, nil)
	source.EXPECT().Candidates(gomock.Any(), "zlib").
		Return([]domain.PackageSpec{candidate("zlib", "1.3.0")}, nil)

	cli.SetArgs([]string{"resolve", "app"})
	require.NoError(t, cli.Execute(context.Background()))

	assert.Equal(t, "zlib@1.3.0\napp@1.0.0\n", out.String())
}

func TestInstallCommand_ReportsOutcomes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cli, source, database, out := newCLI(t, ctrl, installOK)
	database.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	source.EXPECT().Candidates(gomock.Any(), "zlib").
		Return([]domain.PackageSpec{candidate("zlib", "1.3.0")}, nil)

	cli.SetArgs([]string{"install", "zlib"})
	require.NoError(t, cli.Execute(context.Background()))

	assert.Contains(t, out.String(), "zlib: installed")
}

func TestInstallCommand_FailureReturnsError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	failAll := installerFunc(func(_ context.Context, spec domain.PackageSpec) domain.NodeResult {
		return domain.NodeResult{
			Name:     spec.Name,
			Stage:    domain.StageFailed,
			FailedAt: domain.StageFetching,
			Err:      domain.ErrSourceUnreachable,
		}
	})

	cli, source, database, out := newCLI(t, ctrl, failAll)
	database.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	source.EXPECT().Candidates(gomock.Any(), "zlib").
		Return([]domain.PackageSpec{candidate("zlib", "1.3.0")}, nil)

	cli.SetArgs([]string{"install", "zlib"})
	err := cli.Execute(context.Background())
	require.ErrorIs(t, err, domain.ErrInstallFailed)
	assert.Contains(t, out.String(), "zlib: failed during Fetching")
}

func TestInstallCommand_NoArgsShowsHelp(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cli, _, _, out := newCLI(t, ctrl, installOK)

	cli.SetArgs([]string{"install"})
	require.NoError(t, cli.Execute(context.Background()))
	assert.Contains(t, out.String(), "Usage:")
}

func TestListCommand(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cli, _, database, out := newCLI(t, ctrl, installOK)
	database.EXPECT().List(gomock.Any()).Return([]domain.InstalledRecord{
		{Name: "curl", Version: "8.5.0"},
		{Name: "zlib", Version: "1.3.0"},
	}, nil)

	cli.SetArgs([]string{"list"})
	require.NoError(t, cli.Execute(context.Background()))

	assert.Equal(t, "curl@8.5.0\nzlib@1.3.0\n", out.String())
}

func TestVersionCommand(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cli, _, _, out := newCLI(t, ctrl, installOK)

	cli.SetArgs([]string{"version"})
	require.NoError(t, cli.Execute(context.Background()))
	assert.Contains(t, out.String(), "dev")
}
