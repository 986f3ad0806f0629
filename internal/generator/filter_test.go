package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/refitgen/internal/settings"
	"github.com/mark3labs/refitgen/internal/spec"
)

func TestSelects_TruthTable(t *testing.T) {
	t.Parallel()

	base := settings.New(
		settings.WithMatchPaths("^/pets"),
		settings.WithTags("pet"),
	)
	base.NoDeprecatedOperations = true
	p := prepareWith(t, base)

	for _, pathOK := range []bool{true, false} {
		for _, tagOK := range []bool{true, false} {
			for _, deprecated := range []bool{false, true} {
				op := spec.Operation{Method: spec.GET, Path: "/orders", Tags: []string{"store"}, Deprecated: deprecated}
				if pathOK {
					op.Path = "/pets/{id}"
				}
				if tagOK {
					op.Tags = []string{"store", "pet"}
				}
				want := pathOK && tagOK && !deprecated
				assert.Equal(t, want, Selects(op, p), "path=%v tag=%v deprecated=%v", pathOK, tagOK, deprecated)
			}
		}
	}
}

func TestSelects_EmptyFiltersKeepEverything(t *testing.T) {
	t.Parallel()

	p := prepare(t)
	for _, op := range petDoc().Operations {
		assert.True(t, Selects(op, p), op.Key())
	}
}

func TestSelects_PathPatternsAreORed(t *testing.T) {
	t.Parallel()

	p := prepare(t, settings.WithMatchPaths("^/store", "^/health$"))
	got := FilterOperations(petDoc().Operations, p)
	require.Len(t, got, 2)
	assert.Equal(t, "post /store/order", got[0].Key())
	assert.Equal(t, "get /health", got[1].Key())
}

func TestFilterOperations_UntaggedFailTagFilter(t *testing.T) {
	t.Parallel()

	p := prepare(t, settings.WithTags("store"))
	got := FilterOperations(petDoc().Operations, p)
	require.Len(t, got, 1)
	assert.Equal(t, "placeOrder", got[0].ID)
}

func TestFilterOperations_InvalidPatternFailsBeforeFiltering(t *testing.T) {
	t.Parallel()

	_, err := settings.Prepare(settings.New(settings.WithMatchPaths("^/pets(")))
	require.Error(t, err)
	assert.ErrorIs(t, err, settings.ErrConfiguration)
}
