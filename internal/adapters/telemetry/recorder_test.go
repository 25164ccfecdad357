package telemetry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrypkg/quarry/internal/adapters/telemetry"
	"github.com/quarrypkg/quarry/internal/core/domain"
)

func TestNew(t *testing.T) {
	recorder := telemetry.New()
	assert.NotNil(t, recorder)
}

func TestRecorder_FullPackageLifecycle(t *testing.T) {
	recorder := telemetry.New()

	recorder.Stage("zlib", domain.StageFetching)
	recorder.Download(domain.Progress{Package: "zlib", Bytes: 512, Total: 1024})
	recorder.Download(domain.Progress{Package: "zlib", Bytes: 1024, Total: 1024})
	recorder.Stage("zlib", domain.StageBuilding)
	recorder.Done("zlib", nil)

	// A package finishing without stages renders as a cache hit.
	recorder.Done("curl", nil)

	require.NoError(t, recorder.Close())
}

func TestRecorder_UnknownTotal(t *testing.T) {
	recorder := telemetry.New()
	defer func() { _ = recorder.Close() }()

	recorder.Stage("zlib", domain.StageFetching)
	recorder.Download(domain.Progress{Package: "zlib", Bytes: 2048, Total: -1})
	recorder.Done("zlib", domain.ErrSourceUnreachable)
}

func TestNoop_DiscardsEverything(t *testing.T) {
	sink := telemetry.NewNoop()

	sink.Stage("zlib", domain.StageFetching)
	sink.Download(domain.Progress{Package: "zlib", Bytes: 1})
	sink.Done("zlib", nil)
}
