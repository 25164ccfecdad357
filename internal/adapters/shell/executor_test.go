package shell_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"

	"github.com/quarrypkg/quarry/internal/adapters/shell"
	"github.com/quarrypkg/quarry/internal/core/domain"
	"github.com/quarrypkg/quarry/internal/core/ports/mocks"
)

func testLogger(ctrl *gomock.Controller) *mocks.MockLogger {
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	logger.EXPECT().Error(gomock.Any()).AnyTimes()
	return logger
}

func TestRun_ExecutesInWorkingDirectory(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dir := t.TempDir()
	e := shell.NewExecutor(testLogger(ctrl))

	err := e.Run(context.Background(), dir, nil, "pwd > where.txt")
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "where.txt"))
	require.NoError(t, err)

	got, err := filepath.EvalSymlinks(strings.TrimSpace(string(content)))
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRun_ExposesPackageVariables(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dir := t.TempDir()
	e := shell.NewExecutor(testLogger(ctrl))

	env := map[string]string{
		"source": "/work/zlib",
		"binary": "/data/binaries",
	}
	err := e.Run(context.Background(), dir, env, `printf '%s:%s' "$source" "$binary" > vars.txt`)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "vars.txt"))
	require.NoError(t, err)
	assert.Equal(t, "/work/zlib:/data/binaries", string(content))
}

func TestRun_NonZeroExitCarriesCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	e := shell.NewExecutor(testLogger(ctrl))

	err := e.Run(context.Background(), t.TempDir(), nil, "exit 3")
	require.ErrorIs(t, err, domain.ErrBuildCommandFailed)

	var zerrErr *zerr.Error
	require.True(t, errors.As(err, &zerrErr))
	assert.Equal(t, 3, zerrErr.Metadata()["exit_code"])
	assert.Equal(t, "exit 3", zerrErr.Metadata()["command"])
}

func TestRun_ContextCancellation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	e := shell.NewExecutor(testLogger(ctrl))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := e.Run(ctx, t.TempDir(), nil, "sleep 10")
	assert.ErrorIs(t, err, domain.ErrBuildCommandFailed)
}
