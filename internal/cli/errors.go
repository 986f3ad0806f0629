package cli

import (
	"errors"
	"fmt"

	"github.com/mark3labs/refitgen/internal/settings"
	"github.com/mark3labs/refitgen/internal/spec"
)

var ErrUsage = errors.New("cli usage error")

type usageError struct {
	msg string
}

func newUsageError(msg string) error {
	return usageError{msg: msg}
}

func (e usageError) Error() string {
	return e.msg
}

func (e usageError) Is(target error) bool {
	return target == ErrUsage
}

// friendlyError maps document and settings problems to usage errors that
// name the offending location. Other errors pass through unchanged.
func friendlyError(err error) error {
	var de *spec.DocumentError
	if errors.As(err, &de) {
		msg := fmt.Sprintf("spec: %s", de.Message)
		if de.Location != "" {
			msg = fmt.Sprintf("%s\nLocation: %s", msg, de.Location)
		}
		if de.JSONPointer != "" {
			msg = fmt.Sprintf("%s\nPointer: %s", msg, de.JSONPointer)
		}
		return newUsageError(msg)
	}
	if errors.Is(err, settings.ErrConfiguration) {
		return newUsageError(err.Error())
	}
	return err
}
