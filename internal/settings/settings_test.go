package settings

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareAppliesDefaults(t *testing.T) {
	t.Parallel()

	p, err := Prepare(GenerationSettings{})
	require.NoError(t, err)
	assert.Equal(t, DefaultNamespace, p.Namespace)
	assert.Equal(t, DefaultNamespace, p.ContractsNamespace)
	assert.Equal(t, LayoutSingleFile, p.OutputLayout)
	assert.Equal(t, InterfacesUnset, p.MultipleInterfaces)
	assert.Equal(t, ReturnRaw, p.ReturnMode)
	assert.Nil(t, p.Registration)
}

func TestPrepareRegistrationDefaults(t *testing.T) {
	t.Parallel()

	in := New(WithRegistration(RegistrationSettings{
		BaseURL:         " https://api.example.com ",
		MessageHandlers: []string{" LoggingHandler "},
		UseRetryPolicy:  true,
	}))
	p, err := Prepare(in)
	require.NoError(t, err)
	require.NotNil(t, p.Registration)
	assert.Equal(t, "https://api.example.com", p.Registration.BaseURL)
	assert.Equal(t, []string{"LoggingHandler"}, p.Registration.MessageHandlers)
	assert.Equal(t, DefaultFirstBackoffSeconds, p.Registration.FirstBackoffSeconds)
	assert.Equal(t, DefaultMaxRetryCount, p.Registration.MaxRetryCount)
	assert.Equal(t, DefaultExtensionMethodName, p.Registration.ExtensionMethodName)

	// the caller's value is not mutated
	assert.Equal(t, " LoggingHandler ", in.Registration.MessageHandlers[0])
	assert.Zero(t, in.Registration.MaxRetryCount)
}

func TestPrepareRejectsInvalidSettings(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		in      GenerationSettings
		setting string
	}{
		{"bad path regex", New(WithMatchPaths("^/pets(")), "matchPaths"},
		{"bad keep regex", New(WithTrimUnusedSchema("[a-")), "keepSchemaPatterns"},
		{"interface and contract only", GenerationSettings{InterfaceOnly: true, ContractOnly: true}, "interfaceOnly"},
		{"registration without base url", New(WithRegistration(RegistrationSettings{})), "registration.baseUrl"},
		{"negative retries", New(WithRegistration(RegistrationSettings{BaseURL: "http://x", MaxRetryCount: -1})), "registration.maxRetryCount"},
		{"negative backoff", New(WithRegistration(RegistrationSettings{BaseURL: "http://x", FirstBackoffSeconds: -0.5})), "registration.firstBackoffSeconds"},
		{"empty handler", New(WithRegistration(RegistrationSettings{BaseURL: "http://x", MessageHandlers: []string{" "}})), "registration.messageHandlers[0]"},
		{"unknown interface mode", New(WithInterfaceMode("ByColour")), "multipleInterfaces"},
		{"unknown return mode", New(WithReturnMode("Stream")), "returnMode"},
		{"unknown layout", New(WithOutputLayout("Zip")), "outputLayout"},
		{"bad namespace", New(WithNamespace("My Api")), "namespace"},
		{"bad template", GenerationSettings{OperationNameTemplate: "{operationName}-Async"}, "operationNameTemplate"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Prepare(tc.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfiguration))
			var ce *ConfigurationError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tc.setting, ce.Setting)
		})
	}
}

func TestPreparedFilters(t *testing.T) {
	t.Parallel()

	p, err := Prepare(GenerationSettings{
		MatchPaths:            []string{"^/pet", "^/store"},
		Tags:                  []string{" pet ", "pet", ""},
		KeepSchemaPatterns:    []string{"^Error$"},
		OperationNameTemplate: "{operationName}Async",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"pet"}, p.Tags)
	assert.True(t, p.MatchesPath("/pet/{id}"))
	assert.True(t, p.MatchesPath("/store/order"))
	assert.False(t, p.MatchesPath("/user"))
	assert.True(t, p.AllowsTags([]string{"store", "pet"}))
	assert.False(t, p.AllowsTags(nil))
	assert.True(t, p.KeepsSchema("Error"))
	assert.False(t, p.KeepsSchema("Errors"))
	assert.Equal(t, "GetPetAsync", p.MethodName("GetPet"))
}

func TestParseFileYAMLAndJSON(t *testing.T) {
	t.Parallel()

	yamlDoc := []byte(`
input: ./petstore.yaml
output: ./Generated
namespace: Petstore.Client
multipleInterfaces: ByTag
tags: [pet, store]
registration:
  baseUrl: https://petstore3.swagger.io/api/v3
  messageHandlers: [LoggingHandler]
  useRetryPolicy: true
  maxRetryCount: 3
`)
	f, err := ParseFile(yamlDoc)
	require.NoError(t, err)
	assert.Equal(t, "./petstore.yaml", f.Input)
	assert.Equal(t, "Petstore.Client", f.Namespace)
	assert.Equal(t, InterfacesByTag, f.MultipleInterfaces)
	assert.Equal(t, []string{"pet", "store"}, f.Tags)
	require.NotNil(t, f.Registration)
	assert.Equal(t, 3, f.Registration.MaxRetryCount)

	jsonDoc := []byte(`{"namespace":"Api","returnMode":"WrappedResponse","trimUnusedSchema":true}`)
	f, err = ParseFile(jsonDoc)
	require.NoError(t, err)
	assert.Equal(t, ReturnWrappedResponse, f.ReturnMode)
	assert.True(t, f.TrimUnusedSchema)

	f, err = ParseFile(nil)
	require.NoError(t, err)
	assert.Empty(t, f.Namespace)
}

func TestParseFileRejectsUnknownField(t *testing.T) {
	t.Parallel()

	_, err := ParseFile([]byte("namespace: Api\nlanguage: go\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "language")
}

func TestLoadFileReportsPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bogus: true\n"), 0o644))

	_, err := LoadFile(path)
	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, path, ce.Value)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestJSONSchemaDescribesSettings(t *testing.T) {
	t.Parallel()

	data, err := JSONSchema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "refitgen settings", doc["title"])

	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok, "schema has no properties: %s", data)
	for _, key := range []string{"input", "namespace", "multipleInterfaces", "registration", "trimUnusedSchema"} {
		assert.Contains(t, props, key)
	}
	mode := props["multipleInterfaces"].(map[string]any)
	assert.ElementsMatch(t, []any{"Unset", "ByEndpoint", "ByTag"}, mode["enum"])
}
