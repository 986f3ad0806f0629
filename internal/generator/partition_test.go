package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/refitgen/internal/settings"
	"github.com/mark3labs/refitgen/internal/spec"
)

func taggedOps() []spec.Operation {
	return []spec.Operation{
		{ID: "addPet", Method: spec.POST, Path: "/pet", Tags: []string{"pet"}},
		{ID: "findPets", Method: spec.GET, Path: "/pet/findByStatus", Tags: []string{"pet", "store"}},
		{ID: "getInventory", Method: spec.GET, Path: "/store/inventory", Tags: []string{"store"}},
		{Method: spec.GET, Path: "/health"},
	}
}

func TestPartition_ByTag(t *testing.T) {
	t.Parallel()

	p := prepare(t, settings.WithInterfaceMode(settings.InterfacesByTag))
	groups, err := Partition("Petstore", taggedOps(), p, NewNameContext())
	require.NoError(t, err)

	require.Len(t, groups, 3)
	assert.Equal(t, "IPetApi", groups[0].Name)
	assert.Equal(t, "pet", groups[0].Key)
	assert.Len(t, groups[0].Methods, 2)
	assert.Equal(t, "IStoreApi", groups[1].Name)
	assert.Len(t, groups[1].Methods, 1)
	assert.Equal(t, "IDefaultApi", groups[2].Name)
	assert.Equal(t, "", groups[2].Key)
	require.Len(t, groups[2].Methods, 1)
	assert.Equal(t, "GetHealth", groups[2].Methods[0].Name)
}

func TestPartition_FirstEncounterOrder(t *testing.T) {
	t.Parallel()

	ops := []spec.Operation{
		{ID: "zeta", Method: spec.GET, Path: "/z", Tags: []string{"zoo"}},
		{ID: "alpha", Method: spec.GET, Path: "/a", Tags: []string{"aardvark"}},
		{ID: "beta", Method: spec.GET, Path: "/b", Tags: []string{"zoo"}},
	}
	p := prepare(t, settings.WithInterfaceMode(settings.InterfacesByTag))
	groups, err := Partition("", ops, p, NewNameContext())
	require.NoError(t, err)

	require.Len(t, groups, 2)
	assert.Equal(t, "IZooApi", groups[0].Name)
	assert.Equal(t, []string{"Zeta", "Beta"}, methodNames(groups[0]))
	assert.Equal(t, "IAardvarkApi", groups[1].Name)
}

func TestPartition_ExclusiveAndComplete(t *testing.T) {
	t.Parallel()

	for _, mode := range []settings.InterfaceMode{settings.InterfacesUnset, settings.InterfacesByEndpoint, settings.InterfacesByTag} {
		mode := mode
		t.Run(string(mode), func(t *testing.T) {
			t.Parallel()

			ops := taggedOps()
			groups, err := Partition("Petstore", ops, prepare(t, settings.WithInterfaceMode(mode)), NewNameContext())
			require.NoError(t, err)

			seen := make(map[string]string)
			for _, g := range groups {
				for _, m := range g.Methods {
					key := m.Operation.Key()
					prev, dup := seen[key]
					require.False(t, dup, "%s in both %s and %s", key, prev, g.Name)
					seen[key] = g.Name
				}
			}
			assert.Len(t, seen, len(ops))
		})
	}
}

func TestPartition_Single(t *testing.T) {
	t.Parallel()

	groups, err := Partition("Swagger Petstore", taggedOps(), prepare(t), NewNameContext())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "ISwaggerPetstore", groups[0].Name)
	assert.Equal(t, []string{"AddPet", "FindPets", "GetInventory", "GetHealth"}, methodNames(groups[0]))

	groups, err = Partition("  ", taggedOps(), prepare(t), NewNameContext())
	require.NoError(t, err)
	assert.Equal(t, "IApiClient", groups[0].Name)
}

func TestPartition_ByEndpoint(t *testing.T) {
	t.Parallel()

	groups, err := Partition("", taggedOps(), prepare(t, settings.WithInterfaceMode(settings.InterfacesByEndpoint)), NewNameContext())
	require.NoError(t, err)
	require.Len(t, groups, 4)
	assert.Equal(t, "IAddPetEndpoint", groups[0].Name)
	assert.Equal(t, "IGetHealthEndpoint", groups[3].Name)
	for _, g := range groups {
		require.Len(t, g.Methods, 1)
		assert.Equal(t, "Execute", g.Methods[0].Name)
	}

	gs := settings.New(settings.WithInterfaceMode(settings.InterfacesByEndpoint))
	gs.OperationNameTemplate = "{operationName}Async"
	groups, err = Partition("", taggedOps(), prepareWith(t, gs), NewNameContext())
	require.NoError(t, err)
	assert.Equal(t, "AddPetAsync", groups[0].Methods[0].Name)
	assert.Equal(t, "AddPet", groups[0].Methods[0].OperationName)
}

func TestPartition_MethodNameCollisions(t *testing.T) {
	t.Parallel()

	ops := []spec.Operation{
		{ID: "getPet", Method: spec.GET, Path: "/pets/{id}"},
		{ID: "get-pet", Method: spec.GET, Path: "/v2/pets/{id}"},
		{ID: "GetPet", Method: spec.GET, Path: "/v3/pets/{id}"},
	}
	groups, err := Partition("", ops, prepare(t), NewNameContext())
	require.NoError(t, err)
	assert.Equal(t, []string{"GetPet", "GetPet2", "GetPet3"}, methodNames(groups[0]))
}

func TestPartition_GroupNameAvoidsContracts(t *testing.T) {
	t.Parallel()

	names := NewNameContext()
	_, err := names.Reserve(scopeTypes, "IPetApi")
	require.NoError(t, err)

	groups, err := Partition("", taggedOps()[:1], prepare(t, settings.WithInterfaceMode(settings.InterfacesByTag)), names)
	require.NoError(t, err)
	assert.Equal(t, "IPetApi2", groups[0].Name)
}

func TestPartition_UnnameableOperation(t *testing.T) {
	t.Parallel()

	ops := []spec.Operation{{ID: "%%%", Method: "", Path: "/"}}
	_, err := Partition("", ops, prepare(t), NewNameContext())
	require.Error(t, err)

	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, NameCollision, ge.Code)
	assert.Equal(t, " /", ge.Operation)
}

func methodNames(g InterfaceGroup) []string {
	out := make([]string, 0, len(g.Methods))
	for _, m := range g.Methods {
		out = append(out, m.Name)
	}
	return out
}
