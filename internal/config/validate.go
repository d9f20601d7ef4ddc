package config

import (
	"fmt"
	"strings"
)

// ValidationError represents an invalid option
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the options for values no worker could run with.
// Queue tokens are never validated; they degrade to defaults instead.
func Validate(opts Options) error {
	var errs []string

	if opts.Count < 0 {
		errs = append(errs, ValidationError{"count", fmt.Sprintf("must be positive, got %d", opts.Count)}.Error())
	}
	if opts.Timeout < 0 {
		errs = append(errs, ValidationError{"timeout", fmt.Sprintf("must not be negative, got %d", opts.Timeout)}.Error())
	}
	if opts.Grace < 0 {
		errs = append(errs, ValidationError{"grace", fmt.Sprintf("must not be negative, got %s", opts.Grace)}.Error())
	}
	if opts.Program == "" {
		errs = append(errs, ValidationError{"program", "cannot be empty"}.Error())
	}
	if !opts.NoHerd && opts.Shim == "" {
		errs = append(errs, ValidationError{"shim", "cannot be empty unless --no-herd is set"}.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid options: %s", strings.Join(errs, "; "))
	}
	return nil
}
