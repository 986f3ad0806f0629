package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// File is the on-disk settings document (YAML or JSON). Generation settings
// sit at the top level next to the input and output locations.
type File struct {
	Input  string `json:"input,omitempty" yaml:"input,omitempty" jsonschema_description:"Path or http(s) URL of the OpenAPI or Swagger document."`
	Output string `json:"output,omitempty" yaml:"output,omitempty" jsonschema_description:"Output file (single layout) or directory (multiple layout)."`

	GenerationSettings `yaml:",inline"`
}

// LoadFile reads and strictly decodes a settings file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{Setting: "file", Value: path, Reason: err.Error(), Cause: err}
	}
	f, err := ParseFile(data)
	if err != nil {
		var ce *ConfigurationError
		if errors.As(err, &ce) {
			ce.Value = path
		}
		return nil, err
	}
	return f, nil
}

// ParseFile decodes settings from YAML or JSON bytes. Unknown fields are
// rejected. An empty document yields zero settings.
func ParseFile(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ConfigurationError{Setting: "file", Reason: fmt.Sprintf("parse: %v", err), Cause: err}
	}
	return &f, nil
}

// JSONSchema returns the JSON Schema describing the settings file.
func JSONSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	schema := r.Reflect(&File{})
	schema.Title = "refitgen settings"
	return json.MarshalIndent(schema, "", "  ")
}
