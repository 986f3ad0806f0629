package generator

import (
	"fmt"

	"github.com/mark3labs/refitgen/internal/settings"
	"github.com/mark3labs/refitgen/internal/spec"
)

// OperationReferences lists the named schemas referenced by op's parameters
// and responses, in declaration order.
func OperationReferences(op spec.Operation) []spec.SchemaID {
	var out []spec.SchemaID
	for _, param := range op.Parameters {
		out = append(out, param.Type.References()...)
	}
	for _, resp := range op.Responses {
		if resp.Type != nil {
			out = append(out, resp.Type.References()...)
		}
	}
	return out
}

type pending struct {
	id        spec.SchemaID
	operation string
	from      spec.SchemaID
}

// TrimSchemas returns the schemas to generate, in document order. With
// trimming disabled every schema is kept. Otherwise the result is the
// closure of schemas reachable from ops plus the schemas matching a keep
// pattern (and everything those reference). Keep patterns only add.
func TrimSchemas(doc *spec.Document, ops []spec.Operation, p *settings.Prepared) ([]spec.SchemaID, error) {
	if !p.TrimUnusedSchema {
		return doc.Schemas.IDs(), nil
	}

	var stack []pending
	// seeds are pushed in reverse so the walk visits them in document order
	var seeds []pending
	for _, op := range ops {
		for _, id := range OperationReferences(op) {
			seeds = append(seeds, pending{id: id, operation: op.Key()})
		}
	}
	for _, id := range doc.Schemas.IDs() {
		if p.KeepsSchema(string(id)) {
			seeds = append(seeds, pending{id: id})
		}
	}
	for i := len(seeds) - 1; i >= 0; i-- {
		stack = append(stack, seeds[i])
	}

	visited := make(map[spec.SchemaID]struct{})
	for len(stack) > 0 {
		next := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[next.id]; seen {
			continue
		}
		s, ok := doc.Schemas.Get(next.id)
		if !ok {
			ge := &GenerationError{Code: UnresolvedReference, Schema: string(next.id), Operation: next.operation}
			if next.from != "" {
				ge.Message = fmt.Sprintf("referenced from schema %q", next.from)
			}
			return nil, ge
		}
		visited[next.id] = struct{}{}
		refs := s.References()
		for i := len(refs) - 1; i >= 0; i-- {
			if _, seen := visited[refs[i]]; !seen {
				stack = append(stack, pending{id: refs[i], operation: next.operation, from: next.id})
			}
		}
	}

	kept := make([]spec.SchemaID, 0, len(visited))
	for _, id := range doc.Schemas.IDs() {
		if _, ok := visited[id]; ok {
			kept = append(kept, id)
		}
	}
	return kept, nil
}
