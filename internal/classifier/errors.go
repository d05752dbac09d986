package classifier

import (
	"errors"
	"fmt"
)

// ErrNotLoaded indicates no classifier is registered for a variant.
var ErrNotLoaded = errors.New("classifier not loaded")

// ErrColumnMismatch indicates a model artifact was trained on a different
// column layout than the encoder produces.
var ErrColumnMismatch = errors.New("model columns do not match encoder columns")

// UnavailableError indicates the classifier capability could not be
// invoked for a variant.
type UnavailableError struct {
	Variant Variant
	Err     error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("classifier %s unavailable: %v", e.Variant, e.Err)
	}
	return fmt.Sprintf("classifier %s unavailable", e.Variant)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// ArtifactError indicates a model artifact failed to load or validate.
type ArtifactError struct {
	Source string
	Err    error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("model artifact %s: %v", e.Source, e.Err)
}

func (e *ArtifactError) Unwrap() error { return e.Err }
