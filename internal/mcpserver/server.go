// Package mcpserver exposes refitgen over the Model Context Protocol so
// assistants can generate Refit clients without touching the file system.
package mcpserver

import (
	"context"
	"regexp"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/mark3labs/refitgen/internal/emitter/refit"
)

const serverInstructions = `refitgen MCP server: generates C# Refit client interfaces, contracts and dependency-injection registration from OpenAPI 3 or Swagger 2 documents.

Pass the document inline via "spec". Generation settings use the same YAML or JSON format as a refitgen settings file; call settings_schema for its JSON Schema. Generated files are returned inline and never written to disk.`

// New builds a server with every refitgen tool registered.
func New(logger zerolog.Logger) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{Name: refit.GeneratorName, Version: refit.GeneratorVersion},
		&mcp.ServerOptions{Instructions: serverInstructions},
	)
	h := &handlers{log: logger.With().Str("component", "mcp").Logger()}
	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate",
		Description: "Generate C# Refit client code from an OpenAPI or Swagger document. Returns every artifact (file name and content) plus the generated interface names. Settings are optional; omit them for a single IApiClient-style interface in the GeneratedCode namespace.",
	}, h.generate)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "settings_schema",
		Description: "Return the JSON Schema of the refitgen settings document accepted by the generate tool.",
	}, h.settingsSchema)
	return server
}

// Run serves over stdio until the client disconnects or ctx is cancelled.
func Run(ctx context.Context, logger zerolog.Logger) error {
	return New(logger).Run(ctx, &mcp.StdioTransport{})
}

type handlers struct {
	log zerolog.Logger
}

var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run)[a-zA-Z0-9._/-]*)`)

// errResult reports a tool failure without leaking local paths.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: pathPattern.ReplaceAllString(err.Error(), "<path>")}},
	}
}
