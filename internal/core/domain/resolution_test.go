package domain_test

import (
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/zerr"

	"github.com/quarrypkg/quarry/internal/core/domain"
)

func node(name string) domain.PackageSpec {
	return domain.PackageSpec{Name: name, Version: semver.MustParse("1.0.0")}
}

func TestResolution_AddRejectsDuplicateName(t *testing.T) {
	res := domain.NewResolution()

	_, err := res.Add(node("zlib"))
	require.NoError(t, err)

	_, err = res.Add(node("zlib"))
	require.ErrorIs(t, err, domain.ErrDuplicatePackage)
}

func TestResolution_FinalizeOrdersDependenciesFirst(t *testing.T) {
	res := domain.NewResolution()

	app, _ := res.Add(node("app"))
	lib, _ := res.Add(node("lib"))
	base, _ := res.Add(node("base"))

	res.Connect(app, lib)
	res.Connect(app, base)
	res.Connect(lib, base)
	res.SetRoot(app)

	require.NoError(t, res.Finalize())

	pos := make(map[string]int)
	i := 0
	for pkg := range res.Walk() {
		pos[pkg.Spec.Name] = i
		i++
	}
	require.Len(t, pos, 3)
	assert.Less(t, pos["base"], pos["lib"])
	assert.Less(t, pos["lib"], pos["app"])
}

func TestResolution_FinalizeDetectsCycle(t *testing.T) {
	res := domain.NewResolution()

	a, _ := res.Add(node("a"))
	b, _ := res.Add(node("b"))
	c, _ := res.Add(node("c"))

	res.Connect(a, b)
	res.Connect(b, c)
	res.Connect(c, a)
	res.SetRoot(a)

	err := res.Finalize()
	require.ErrorIs(t, err, domain.ErrDependencyCycle)

	var zerrErr *zerr.Error
	require.ErrorAs(t, err, &zerrErr)
	assert.Contains(t, zerrErr.Metadata()["cycle"], "a -> b -> c -> a")
}

func TestResolution_SelfDependencyIsCycle(t *testing.T) {
	res := domain.NewResolution()

	a, _ := res.Add(node("a"))
	res.Connect(a, a)
	res.SetRoot(a)

	assert.ErrorIs(t, res.Finalize(), domain.ErrDependencyCycle)
}

func TestResolution_DependentsAreReverseEdges(t *testing.T) {
	res := domain.NewResolution()

	app, _ := res.Add(node("app"))
	cli, _ := res.Add(node("cli"))
	lib, _ := res.Add(node("lib"))

	res.Connect(app, lib)
	res.Connect(cli, lib)
	res.SetRoot(app)

	require.NoError(t, res.Finalize())

	deps := res.Dependents(lib)
	assert.ElementsMatch(t, []domain.NodeID{app, cli}, deps)
	assert.Empty(t, res.Dependents(app))
}

func TestResolution_Lookup(t *testing.T) {
	res := domain.NewResolution()

	id, err := res.Add(node("zlib"))
	require.NoError(t, err)

	got, ok := res.Lookup("zlib")
	assert.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = res.Lookup("ghost")
	assert.False(t, ok)
}
