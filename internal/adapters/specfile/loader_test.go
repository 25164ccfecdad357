package specfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/quarrypkg/quarry/internal/adapters/specfile"
	"github.com/quarrypkg/quarry/internal/core/ports/mocks"
)

const zlibSpec = `
name: zlib
version: 1.3.0
source: https://pkgs.example.com/zlib-1.3.0.tar.gz
checksum: deadbeef
dependencies:
  libc: ">=2.0"
build:
  - ./configure --prefix=$binary
  - make install
license: Zlib
repository: https://github.com/madler/zlib
description: A massively spiffy yet delicately unobtrusive compression library
`

func TestParse_FullSpec(t *testing.T) {
	spec, err := specfile.Parse([]byte(zlibSpec))
	require.NoError(t, err)

	assert.Equal(t, "zlib", spec.Name)
	assert.Equal(t, "1.3.0", spec.Version.String())
	assert.Equal(t, "https://pkgs.example.com/zlib-1.3.0.tar.gz", spec.Source)
	assert.Equal(t, "deadbeef", spec.Checksum)
	assert.Equal(t, []string{"./configure --prefix=$binary", "make install"}, spec.BuildSteps)
	assert.Equal(t, "Zlib", spec.License)

	require.Len(t, spec.Requires, 1)
	assert.Equal(t, "libc", spec.Requires[0].Name)
	assert.Equal(t, ">=2.0", spec.Requires[0].Range.String())
}

func TestParse_RequirementsSortedByName(t *testing.T) {
	spec, err := specfile.Parse([]byte(`
name: app
version: 1.0.0
source: https://example.com/app.tar.gz
checksum: abc
dependencies:
  zlib: "^1.0"
  curl: "^8.0"
  openssl: "^3.0"
`))
	require.NoError(t, err)

	require.Len(t, spec.Requires, 3)
	assert.Equal(t, "curl", spec.Requires[0].Name)
	assert.Equal(t, "openssl", spec.Requires[1].Name)
	assert.Equal(t, "zlib", spec.Requires[2].Name)
}

func TestParse_Rejections(t *testing.T) {
	cases := map[string]string{
		"missing name": `
version: 1.0.0
source: https://example.com/a.tar.gz
checksum: abc
`,
		"bad version": `
name: a
version: not-a-version
source: https://example.com/a.tar.gz
checksum: abc
`,
		"missing source": `
name: a
version: 1.0.0
checksum: abc
`,
		"missing checksum": `
name: a
version: 1.0.0
source: https://example.com/a.tar.gz
`,
		"bad requirement range": `
name: a
version: 1.0.0
source: https://example.com/a.tar.gz
checksum: abc
dependencies:
  b: "not a range"
`,
		"not yaml": `{{{`,
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := specfile.Parse([]byte(input))
			assert.Error(t, err)
		})
	}
}

func writeSpec(t *testing.T, dir, file, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o600))
}

func TestDirSource_GroupsCandidatesByName(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()

	dir := t.TempDir()
	writeSpec(t, dir, "zlib-1.2.0.yaml", `
name: zlib
version: 1.2.0
source: https://example.com/zlib-1.2.0.tar.gz
checksum: aaa
`)
	writeSpec(t, dir, "zlib-1.3.0.yaml", `
name: zlib
version: 1.3.0
source: https://example.com/zlib-1.3.0.tar.gz
checksum: bbb
`)
	writeSpec(t, dir, "curl-8.5.0.yml", `
name: curl
version: 8.5.0
source: https://example.com/curl-8.5.0.tar.gz
checksum: ccc
`)
	writeSpec(t, dir, "README.md", "not a spec")

	source := specfile.NewDirSource(dir, logger)

	zlib, err := source.Candidates(t.Context(), "zlib")
	require.NoError(t, err)
	assert.Len(t, zlib, 2)

	curl, err := source.Candidates(t.Context(), "curl")
	require.NoError(t, err)
	assert.Len(t, curl, 1)

	ghost, err := source.Candidates(t.Context(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, ghost)
}

func TestDirSource_SkipsMalformedFiles(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Warn(gomock.Any()).Times(1)

	dir := t.TempDir()
	writeSpec(t, dir, "good.yaml", `
name: zlib
version: 1.3.0
source: https://example.com/zlib-1.3.0.tar.gz
checksum: aaa
`)
	writeSpec(t, dir, "broken.yaml", `name: [unclosed`)

	source := specfile.NewDirSource(dir, logger)

	specs, err := source.Candidates(t.Context(), "zlib")
	require.NoError(t, err)
	assert.Len(t, specs, 1)
}

func TestDirSource_MissingDirectoryIsEmpty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	logger := mocks.NewMockLogger(ctrl)

	source := specfile.NewDirSource(filepath.Join(t.TempDir(), "nope"), logger)

	specs, err := source.Candidates(t.Context(), "zlib")
	require.NoError(t, err)
	assert.Empty(t, specs)
}
