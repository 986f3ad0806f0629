package generator

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes generation failures.
type ErrorCode string

const (
	UnresolvedReference ErrorCode = "UnresolvedReference"
	NameCollision       ErrorCode = "NameCollision"
)

// ErrGeneration matches every GenerationError via errors.Is.
var ErrGeneration = errors.New("generation error")

// GenerationError aborts a run. It names the operation and/or schema that
// could not be processed.
type GenerationError struct {
	Code      ErrorCode
	Operation string // "get /pets/{id}"
	Schema    string
	Name      string // identifier involved in a collision
	Message   string
}

func (e *GenerationError) Error() string {
	var parts []string
	if e.Schema != "" {
		parts = append(parts, fmt.Sprintf("schema %q", e.Schema))
	}
	if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("operation %q", e.Operation))
	}
	if e.Name != "" {
		parts = append(parts, fmt.Sprintf("name %q", e.Name))
	}
	msg := fmt.Sprintf("generate: %s", e.Code)
	if len(parts) > 0 {
		msg += " (" + strings.Join(parts, ", ") + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }

// withOperation fills in the operation identity on a GenerationError that
// lacks one. Other errors pass through.
func withOperation(err error, key string) error {
	var ge *GenerationError
	if errors.As(err, &ge) && ge.Operation == "" {
		ge.Operation = key
	}
	return err
}
