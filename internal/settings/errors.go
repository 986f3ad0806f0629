package settings

import (
	"errors"
	"fmt"
)

// ErrConfiguration matches every ConfigurationError via errors.Is.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError reports an invalid or contradictory setting. It is raised
// before any generation work starts.
type ConfigurationError struct {
	Setting string
	Value   string
	Reason  string
	Cause   error
}

func (e *ConfigurationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("settings: %s %q: %s", e.Setting, e.Value, e.Reason)
	}
	return fmt.Sprintf("settings: %s: %s", e.Setting, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Cause }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }
