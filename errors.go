package labtex

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrMissingArtifact      = errors.New("missing artifact")
	ErrSchemaMismatch       = errors.New("schema mismatch")
)

// MissingArtifactError reports a file that a previous build step should have produced.
type MissingArtifactError struct {
	Path string
	Step string
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("%s not found at %q: run %q first to generate it", ErrMissingArtifact, e.Path, e.Step)
}

func (e *MissingArtifactError) Unwrap() error {
	return ErrMissingArtifact
}

func invalidConfig(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}

func schemaMismatch(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSchemaMismatch, fmt.Sprintf(format, args...))
}
