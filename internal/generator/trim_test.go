package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/refitgen/internal/settings"
	"github.com/mark3labs/refitgen/internal/spec"
)

func TestTrimSchemas_DisabledKeepsAll(t *testing.T) {
	t.Parallel()

	doc := petDoc()
	kept, err := TrimSchemas(doc, nil, prepare(t))
	require.NoError(t, err)
	assert.Equal(t, doc.Schemas.IDs(), kept)
}

func TestTrimSchemas_ReachableClosure(t *testing.T) {
	t.Parallel()

	doc := petDoc()
	p := prepare(t, settings.WithTrimUnusedSchema(), settings.WithTags("pet"))
	ops := FilterOperations(doc.Operations, p)

	kept, err := TrimSchemas(doc, ops, p)
	require.NoError(t, err)
	assert.Equal(t, []spec.SchemaID{"Pet", "Category", "Status"}, kept)
}

func TestTrimSchemas_KeepPatternsAreAdditive(t *testing.T) {
	t.Parallel()

	doc := petDoc()
	p := prepare(t, settings.WithTrimUnusedSchema("^Ta", "^Pet$"), settings.WithTags("pet"))
	ops := FilterOperations(doc.Operations, p)

	kept, err := TrimSchemas(doc, ops, p)
	require.NoError(t, err)
	assert.Equal(t, []spec.SchemaID{"Pet", "Category", "Status", "Tag"}, kept)
}

func TestTrimSchemas_KeepPatternFollowsReferences(t *testing.T) {
	t.Parallel()

	doc := petDoc()
	p := prepare(t, settings.WithTrimUnusedSchema("^Pet$"))

	kept, err := TrimSchemas(doc, nil, p)
	require.NoError(t, err)
	assert.Equal(t, []spec.SchemaID{"Pet", "Category", "Status"}, kept)
}

func TestTrimSchemas_Cycles(t *testing.T) {
	t.Parallel()

	ops := []spec.Operation{{Method: spec.GET, Path: "/nodes", Responses: []spec.Response{jsonResponse(ref("Node"))}}}
	doc := testDoc(ops,
		object("Node", spec.Property{Name: "children", Type: arrayOf(ref("Node"))}, spec.Property{Name: "owner", Type: ref("Owner")}),
		object("Owner", spec.Property{Name: "root", Type: ref("Node")}),
		object("Unused"),
	)
	p := prepare(t, settings.WithTrimUnusedSchema())

	kept, err := TrimSchemas(doc, ops, p)
	require.NoError(t, err)
	assert.Equal(t, []spec.SchemaID{"Node", "Owner"}, kept)
}

func TestTrimSchemas_ParameterReferencesSeed(t *testing.T) {
	t.Parallel()

	ops := []spec.Operation{{
		Method:     spec.GET,
		Path:       "/pets",
		Parameters: []spec.Parameter{{Name: "status", In: spec.InQuery, Type: ref("Status")}},
	}}
	doc := testDoc(ops, stringEnum("Status", "a"), object("Other"))

	kept, err := TrimSchemas(doc, ops, prepare(t, settings.WithTrimUnusedSchema()))
	require.NoError(t, err)
	assert.Equal(t, []spec.SchemaID{"Status"}, kept)
}

func TestTrimSchemas_DanglingReference(t *testing.T) {
	t.Parallel()

	ops := []spec.Operation{{Method: spec.GET, Path: "/pets", Responses: []spec.Response{jsonResponse(ref("Pet"))}}}
	doc := testDoc(ops, object("Pet", spec.Property{Name: "owner", Type: ref("Missing")}))

	_, err := TrimSchemas(doc, ops, prepare(t, settings.WithTrimUnusedSchema()))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGeneration)

	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, UnresolvedReference, ge.Code)
	assert.Equal(t, "Missing", ge.Schema)
	assert.Equal(t, "get /pets", ge.Operation)
	assert.Contains(t, ge.Error(), `referenced from schema "Pet"`)
}

func TestOperationReferences(t *testing.T) {
	t.Parallel()

	op := petDoc().Operations[2]
	assert.Equal(t, []spec.SchemaID{"Order", "Order"}, OperationReferences(op))
}
