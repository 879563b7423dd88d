package autocomplete

import (
	"errors"
	"fmt"
)

var (
	ErrMissingOnChange   = errors.New("OnChange is required")
	ErrNegativeDebounce  = errors.New("debounce must not be negative")
	ErrMissingDispatcher = errors.New("a dispatcher is required")
)

// ConfigError reports an invalid Config.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("autocomplete: invalid %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// FilterError wraps a failed or panicking filter call.
type FilterError struct {
	Query string
	Err   error
	Panic bool
}

func (e *FilterError) Error() string {
	if e.Panic {
		return fmt.Sprintf("filter %q panicked: %v", e.Query, e.Err)
	}
	return fmt.Sprintf("filter %q: %v", e.Query, e.Err)
}

func (e *FilterError) Unwrap() error { return e.Err }
