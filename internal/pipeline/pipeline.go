// Package pipeline runs every generation stage over a parsed document and
// returns the rendered artifacts. It performs no I/O.
package pipeline

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/mark3labs/refitgen/internal/emitter/refit"
	"github.com/mark3labs/refitgen/internal/generator"
	"github.com/mark3labs/refitgen/internal/settings"
	"github.com/mark3labs/refitgen/internal/spec"
)

// ErrNilDocument is returned when Run receives no document.
var ErrNilDocument = errors.New("pipeline: nil document")

type Artifact = refit.Artifact

// Result holds everything one run produced. It is only returned when every
// stage succeeded.
type Result struct {
	Artifacts []Artifact
	// Operations is the filtered operation set.
	Operations []spec.Operation
	// Schemas lists the retained schemas in document order.
	Schemas        []spec.SchemaID
	Contracts      []generator.ContractType
	Interfaces     []generator.Interface
	InterfaceNames []string
	Sections       refit.Sections
}

type config struct {
	log zerolog.Logger
}

type Option func(*config)

// WithLogger routes stage statistics to l at debug level.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) { c.log = l }
}

// Run validates gs and executes Filter, Trim, Partition, contract and method
// synthesis, rendering, registration and layout.
func Run(doc *spec.Document, gs settings.GenerationSettings, opts ...Option) (*Result, error) {
	cfg := config{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if doc == nil {
		return nil, ErrNilDocument
	}
	p, err := settings.Prepare(gs)
	if err != nil {
		return nil, err
	}
	log := cfg.log.With().Str("component", "pipeline").Logger()

	names := generator.NewNameContext()
	ops := generator.FilterOperations(doc.Operations, p)
	log.Debug().Int("operations", len(doc.Operations)).Int("selected", len(ops)).Msg("filtered operations")

	kept, err := generator.TrimSchemas(doc, ops, p)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("schemas", doc.Schemas.Len()).Int("kept", len(kept)).Msg("trimmed schemas")

	types, err := generator.NewTypeMapper(doc, kept, names)
	if err != nil {
		return nil, err
	}

	res := &Result{Operations: ops, Schemas: kept}

	if !p.InterfaceOnly {
		res.Contracts, err = generator.SynthesizeContracts(doc, types, p, names)
		if err != nil {
			return nil, err
		}
		res.Sections.Contracts = refit.RenderContracts(res.Contracts, p)
	}

	if !p.ContractOnly {
		groups, err := generator.Partition(doc.Title, ops, p, names)
		if err != nil {
			return nil, err
		}
		log.Debug().Int("groups", len(groups)).Str("mode", string(p.MultipleInterfaces)).Msg("partitioned operations")
		res.Interfaces, err = generator.BuildInterfaces(groups, types, p, names)
		if err != nil {
			return nil, err
		}
		res.Sections.Interfaces, res.InterfaceNames = refit.RenderInterfaces(res.Interfaces, p)
		res.Sections.Registration = refit.EmitRegistration(res.InterfaceNames, p.Namespace, p.Registration)
	}

	res.Artifacts = refit.Layout(res.Sections, p)
	log.Debug().Int("contracts", len(res.Contracts)).Int("interfaces", len(res.InterfaceNames)).Int("artifacts", len(res.Artifacts)).Msg("generation complete")
	return res, nil
}
