package generator

import (
	"github.com/mark3labs/refitgen/internal/settings"
	"github.com/mark3labs/refitgen/internal/spec"
)

// Selects reports whether op survives the path, tag and deprecation filters.
func Selects(op spec.Operation, p *settings.Prepared) bool {
	if !p.MatchesPath(op.Path) {
		return false
	}
	if !p.AllowsTags(op.Tags) {
		return false
	}
	if op.Deprecated && p.NoDeprecatedOperations {
		return false
	}
	return true
}

// FilterOperations keeps the selected operations in document order.
func FilterOperations(ops []spec.Operation, p *settings.Prepared) []spec.Operation {
	out := make([]spec.Operation, 0, len(ops))
	for _, op := range ops {
		if Selects(op, p) {
			out = append(out, op)
		}
	}
	return out
}
