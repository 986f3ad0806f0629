package generator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mark3labs/refitgen/internal/settings"
	"github.com/mark3labs/refitgen/internal/spec"
)

func prepare(t *testing.T, opts ...settings.Option) *settings.Prepared {
	t.Helper()
	p, err := settings.Prepare(settings.New(opts...))
	require.NoError(t, err)
	return p
}

func prepareWith(t *testing.T, gs settings.GenerationSettings) *settings.Prepared {
	t.Helper()
	p, err := settings.Prepare(gs)
	require.NoError(t, err)
	return p
}

// testDoc registers schemas under their preset IDs, in argument order.
func testDoc(ops []spec.Operation, schemas ...*spec.Schema) *spec.Document {
	arena := spec.NewSchemaArena()
	for _, s := range schemas {
		arena.Add(s.ID, s)
	}
	return &spec.Document{Title: "Petstore", Operations: ops, Schemas: arena}
}

func ref(id string) spec.TypeRef { return spec.TypeRef{Ref: spec.SchemaID(id)} }

func prim(typ, format string) spec.TypeRef {
	return spec.TypeRef{Inline: &spec.Schema{Kind: spec.KindPrimitive, Primitive: typ, Format: format, AdditionalProperties: true}}
}

func arrayOf(item spec.TypeRef) spec.TypeRef {
	return spec.TypeRef{Inline: &spec.Schema{Kind: spec.KindArray, Items: &item, AdditionalProperties: true}}
}

func object(id string, props ...spec.Property) *spec.Schema {
	return &spec.Schema{ID: spec.SchemaID(id), Kind: spec.KindObject, Properties: props, AdditionalProperties: true}
}

func stringEnum(id string, values ...string) *spec.Schema {
	s := &spec.Schema{ID: spec.SchemaID(id), Kind: spec.KindEnum, Primitive: "string"}
	for _, v := range values {
		s.Enum = append(s.Enum, spec.EnumMember{Value: v})
	}
	return s
}

func jsonResponse(t spec.TypeRef) spec.Response {
	return spec.Response{Status: "200", ContentTypes: []string{"application/json"}, Type: &t}
}

// petDoc is a small petstore: Pet references Category and Status, Tag is
// unreferenced and Order only appears on the store operation.
func petDoc() *spec.Document {
	ops := []spec.Operation{
		{ID: "listPets", Method: spec.GET, Path: "/pets", Tags: []string{"pet"}, Responses: []spec.Response{jsonResponse(arrayOf(ref("Pet")))}},
		{ID: "getPet", Method: spec.GET, Path: "/pets/{petId}", Tags: []string{"pet"},
			Parameters: []spec.Parameter{{Name: "petId", In: spec.InPath, Required: true, Type: prim("integer", "int64")}},
			Responses:  []spec.Response{jsonResponse(ref("Pet"))}},
		{ID: "placeOrder", Method: spec.POST, Path: "/store/order", Tags: []string{"store"},
			Parameters: []spec.Parameter{{Name: "body", In: spec.InBody, Required: true, Type: ref("Order"), ContentType: "application/json"}},
			Responses:  []spec.Response{jsonResponse(ref("Order"))}},
		{Method: spec.GET, Path: "/health", Deprecated: true, Responses: []spec.Response{{Status: "204"}}},
	}
	return testDoc(ops,
		object("Pet",
			spec.Property{Name: "id", Type: prim("integer", "int64"), Required: true},
			spec.Property{Name: "name", Type: prim("string", ""), Required: true},
			spec.Property{Name: "category", Type: ref("Category")},
			spec.Property{Name: "status", Type: ref("Status")},
		),
		object("Category", spec.Property{Name: "name", Type: prim("string", "")}),
		stringEnum("Status", "available", "pending", "sold"),
		object("Tag", spec.Property{Name: "name", Type: prim("string", "")}),
		object("Order", spec.Property{Name: "petId", Type: prim("integer", "int64")}),
	)
}
