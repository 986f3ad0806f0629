package pipeline

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/refitgen/internal/emitter/refit"
	"github.com/mark3labs/refitgen/internal/generator"
	"github.com/mark3labs/refitgen/internal/settings"
	"github.com/mark3labs/refitgen/internal/spec"
)

const petstore = `openapi: 3.0.3
info:
  title: Swagger Petstore
  version: "1.0.0"
paths:
  /pet/{petId}:
    get:
      tags: [pet]
      operationId: getPetById
      summary: Find pet by ID
      parameters:
        - name: petId
          in: path
          required: true
          schema:
            type: integer
            format: int64
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Pet'
            application/xml:
              schema:
                $ref: '#/components/schemas/Pet'
        "404":
          description: not found
  /pet/findByStatus:
    get:
      tags: [pet]
      operationId: findPetsByStatus
      parameters:
        - name: status
          in: query
          schema:
            type: array
            items:
              type: string
              enum: [available, pending, sold]
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: array
                items:
                  $ref: '#/components/schemas/Pet'
  /store/order:
    post:
      tags: [store]
      operationId: placeOrder
      requestBody:
        required: true
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/Order'
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Order'
  /health:
    get:
      deprecated: true
      responses:
        "204":
          description: alive
components:
  schemas:
    Pet:
      type: object
      required: [name]
      properties:
        id:
          type: integer
          format: int64
        name:
          type: string
        category:
          $ref: '#/components/schemas/Category'
        status:
          type: string
          enum: [available, pending, sold]
    Category:
      type: object
      properties:
        name:
          type: string
    Order:
      type: object
      properties:
        petId:
          type: integer
          format: int64
        shipDate:
          type: string
          format: date-time
    Unused:
      type: object
      properties:
        note:
          type: string
`

func loadPetstore(t *testing.T) *spec.Document {
	t.Helper()
	src, err := spec.LoadData(context.Background(), []byte(petstore))
	require.NoError(t, err)
	doc, err := spec.Build(src)
	require.NoError(t, err)
	return doc
}

func scenarioSettings() settings.GenerationSettings {
	gs := settings.New(
		settings.WithNamespace("Petstore.Client"),
		settings.WithInterfaceMode(settings.InterfacesByTag),
		settings.WithTrimUnusedSchema(),
		settings.WithRegistration(settings.RegistrationSettings{
			BaseURL:         "https://petstore.example.com/v3",
			MessageHandlers: []string{"LoggingHandler"},
			UseRetryPolicy:  true,
		}),
	)
	gs.UseCancellationTokens = true
	return gs
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	res, err := Run(loadPetstore(t), scenarioSettings())
	require.NoError(t, err)

	assert.Equal(t, []string{"IPetApi", "IStoreApi", "IDefaultApi"}, res.InterfaceNames)
	assert.NotContains(t, res.Schemas, spec.SchemaID("Unused"))
	require.Len(t, res.Artifacts, 1)

	out := res.Artifacts[0].Content
	assert.Equal(t, refit.SingleFileName, res.Artifacts[0].Name)
	assert.True(t, strings.HasPrefix(out, refit.AutoGeneratedHeader+"\n\nnamespace Petstore.Client\n{\n"))
	assert.Contains(t, out, "public partial class Pet\n")
	assert.Contains(t, out, "public partial class Category\n")
	assert.Contains(t, out, "public partial class Order\n")
	assert.NotContains(t, out, "class Unused")
	assert.Contains(t, out, `[Headers("Accept: application/json, application/xml")]`)
	assert.Contains(t, out, "Task<Pet> GetPetById(long petId, CancellationToken cancellationToken = default);")
	assert.Contains(t, out, "Task<ICollection<Pet>> FindPetsByStatus([Query(CollectionFormat.Multi)] IEnumerable<StatusItem> status, CancellationToken cancellationToken = default);")
	assert.Contains(t, out, "Task<Order> PlaceOrder([Body] Order body, CancellationToken cancellationToken = default);")
	assert.Contains(t, out, "Task GetHealth(CancellationToken cancellationToken = default);")
	assert.Contains(t, out, `[System.Runtime.Serialization.EnumMember(Value = @"pending")]`)
	assert.Contains(t, out, "public System.DateTimeOffset ShipDate { get; set; }")

	// registration: one statement per interface, defaults applied
	assert.Equal(t, 3, strings.Count(out, "services\n"))
	assert.Equal(t, 3, strings.Count(out, "TimeSpan.FromSeconds(1),\n"))
	assert.Equal(t, 3, strings.Count(out, "                                6)));\n"))
	assert.True(t, strings.HasSuffix(out, "            return services;\n        }\n    }\n}\n"))
	assert.NotContains(t, out, "\n\n\n")
}

func TestRun_Idempotent(t *testing.T) {
	t.Parallel()

	doc := loadPetstore(t)
	for _, layout := range []settings.OutputLayout{settings.LayoutSingleFile, settings.LayoutMultipleFiles} {
		gs := scenarioSettings()
		gs.OutputLayout = layout
		first, err := Run(doc, gs)
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			again, err := Run(doc, gs)
			require.NoError(t, err)
			assert.Equal(t, first.Artifacts, again.Artifacts)
		}
		// a freshly parsed document yields the same bytes
		again, err := Run(loadPetstore(t), gs)
		require.NoError(t, err)
		assert.Equal(t, first.Artifacts, again.Artifacts)
	}
}

func TestRun_MultipleFiles(t *testing.T) {
	t.Parallel()

	gs := scenarioSettings()
	gs.OutputLayout = settings.LayoutMultipleFiles
	gs.ContractsNamespace = "Petstore.Contracts"
	res, err := Run(loadPetstore(t), gs)
	require.NoError(t, err)

	require.Len(t, res.Artifacts, 3)
	assert.Equal(t, refit.ContractsFileName, res.Artifacts[0].Name)
	assert.Equal(t, refit.InterfacesFileName, res.Artifacts[1].Name)
	assert.Equal(t, refit.RegistrationFileName, res.Artifacts[2].Name)
	assert.Contains(t, res.Artifacts[0].Content, "namespace Petstore.Contracts\n")
	assert.Contains(t, res.Artifacts[1].Content, "    using Petstore.Contracts;\n")
	assert.NotContains(t, res.Artifacts[1].Content, "class Pet")
}

func TestRun_InterfaceAndContractOnly(t *testing.T) {
	t.Parallel()

	doc := loadPetstore(t)

	gs := scenarioSettings()
	gs.ContractOnly = true
	res, err := Run(doc, gs)
	require.NoError(t, err)
	assert.Empty(t, res.InterfaceNames)
	assert.Empty(t, res.Sections.Registration)
	assert.Contains(t, res.Artifacts[0].Content, "class Pet")

	gs = scenarioSettings()
	gs.InterfaceOnly = true
	res, err = Run(doc, gs)
	require.NoError(t, err)
	assert.Empty(t, res.Contracts)
	assert.NotContains(t, res.Artifacts[0].Content, "class Pet")
	assert.Contains(t, res.Artifacts[0].Content, "interface IPetApi")
}

func TestRun_NoRegistration(t *testing.T) {
	t.Parallel()

	gs := scenarioSettings()
	gs.Registration = nil
	res, err := Run(loadPetstore(t), gs)
	require.NoError(t, err)
	assert.Equal(t, "", res.Sections.Registration)
	assert.NotContains(t, res.Artifacts[0].Content, "IServiceCollection")
}

func TestRun_ConfigurationErrorBeforeGeneration(t *testing.T) {
	t.Parallel()

	gs := scenarioSettings()
	gs.InterfaceOnly = true
	gs.ContractOnly = true
	res, err := Run(loadPetstore(t), gs)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, settings.ErrConfiguration)

	gs = scenarioSettings()
	gs.Registration.BaseURL = ""
	res, err = Run(loadPetstore(t), gs)
	assert.Nil(t, res)
	var ce *settings.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "registration.baseUrl", ce.Setting)
}

func TestRun_DanglingReferenceReturnsNothing(t *testing.T) {
	t.Parallel()

	doc := loadPetstore(t)
	ghost := spec.TypeRef{Ref: "Ghost"}
	doc.Operations = append(doc.Operations, spec.Operation{
		Method:    spec.GET,
		Path:      "/ghost",
		Responses: []spec.Response{{Status: "200", Type: &ghost}},
	})

	res, err := Run(doc, scenarioSettings())
	assert.Nil(t, res)
	require.ErrorIs(t, err, generator.ErrGeneration)
	var ge *generator.GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "Ghost", ge.Schema)
	assert.Equal(t, "get /ghost", ge.Operation)
}

func TestRun_NilDocument(t *testing.T) {
	t.Parallel()

	_, err := Run(nil, settings.New())
	assert.ErrorIs(t, err, ErrNilDocument)
}

func TestRun_LogsStages(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	_, err := Run(loadPetstore(t), scenarioSettings(), WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"message":"filtered operations"`)
	assert.Contains(t, buf.String(), `"selected":4`)
	assert.Contains(t, buf.String(), `"message":"generation complete"`)
}
