package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mark3labs/refitgen/internal/pipeline"
	"github.com/mark3labs/refitgen/internal/settings"
	"github.com/mark3labs/refitgen/internal/spec"
)

type generateInput struct {
	Spec           string `json:"spec"                      jsonschema:"Inline OpenAPI 3 or Swagger 2 document (JSON or YAML)"`
	Settings       string `json:"settings,omitempty"        jsonschema:"Generation settings in the refitgen settings file format (YAML or JSON)"`
	Namespace      string `json:"namespace,omitempty"       jsonschema:"Overrides the namespace of the generated code"`
	SkipValidation bool   `json:"skip_validation,omitempty" jsonschema:"Generate even when the document fails OpenAPI validation"`
}

type artifactInfo struct {
	Name    string `json:"name"`
	Size    int    `json:"size"`
	Content string `json:"content"`
}

type generateOutput struct {
	Artifacts      []artifactInfo `json:"artifacts"`
	Interfaces     []string       `json:"interfaces,omitempty"`
	ContractCount  int            `json:"contract_count"`
	OperationCount int            `json:"operation_count"`
}

func (h *handlers) generate(ctx context.Context, _ *mcp.CallToolRequest, input generateInput) (*mcp.CallToolResult, generateOutput, error) {
	if strings.TrimSpace(input.Spec) == "" {
		return errResult(errors.New("spec is required")), generateOutput{}, nil
	}

	gs := settings.New()
	if strings.TrimSpace(input.Settings) != "" {
		f, err := settings.ParseFile([]byte(input.Settings))
		if err != nil {
			return errResult(err), generateOutput{}, nil
		}
		gs = f.GenerationSettings
	}
	if ns := strings.TrimSpace(input.Namespace); ns != "" {
		gs.Namespace = ns
	}

	src, err := spec.LoadData(ctx, []byte(input.Spec),
		spec.WithSkipValidation(input.SkipValidation),
		spec.WithLogger(h.log),
	)
	if err != nil {
		return errResult(describe(err)), generateOutput{}, nil
	}
	doc, err := spec.Build(src, spec.WithBuildLogger(h.log))
	if err != nil {
		return errResult(err), generateOutput{}, nil
	}
	res, err := pipeline.Run(doc, gs, pipeline.WithLogger(h.log))
	if err != nil {
		return errResult(err), generateOutput{}, nil
	}

	out := generateOutput{
		Interfaces:     res.InterfaceNames,
		ContractCount:  len(res.Contracts),
		OperationCount: len(res.Operations),
		Artifacts:      make([]artifactInfo, 0, len(res.Artifacts)),
	}
	for _, a := range res.Artifacts {
		out.Artifacts = append(out.Artifacts, artifactInfo{Name: a.Name, Size: len(a.Content), Content: a.Content})
	}
	h.log.Debug().Int("artifacts", len(out.Artifacts)).Msg("generate tool finished")
	return nil, out, nil
}

// describe appends the location and pointer of a document error.
func describe(err error) error {
	var de *spec.DocumentError
	if !errors.As(err, &de) {
		return err
	}
	msg := de.Message
	if de.JSONPointer != "" {
		msg = fmt.Sprintf("%s\nPointer: %s", msg, de.JSONPointer)
	}
	return errors.New(msg)
}

type settingsSchemaInput struct{}

type settingsSchemaOutput struct {
	Schema string `json:"schema"`
}

func (h *handlers) settingsSchema(_ context.Context, _ *mcp.CallToolRequest, _ settingsSchemaInput) (*mcp.CallToolResult, settingsSchemaOutput, error) {
	data, err := settings.JSONSchema()
	if err != nil {
		return errResult(err), settingsSchemaOutput{}, nil
	}
	return nil, settingsSchemaOutput{Schema: string(data)}, nil
}
