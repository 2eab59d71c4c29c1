package core

import (
	"errors"
	"fmt"
)

var (
	ErrPdfExtraction       = errors.New("pdf extraction failed")
	ErrInvalidFileFormat   = errors.New("invalid file format")
	ErrResourceNotFound    = errors.New("resource not found")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInvalidInput        = errors.New("invalid input")
)

// ExtractionError reports bad or corrupt input bytes. Kind is ErrPdfExtraction
// or ErrInvalidFileFormat.
type ExtractionError struct {
	Kind     error
	MimeType string
	Err      error
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v (%s)", e.Kind, e.MimeType)
	}
	return fmt.Sprintf("%v (%s): %v", e.Kind, e.MimeType, e.Err)
}

func (e *ExtractionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// GenerationError is returned once an artifact call has used up its retries.
type GenerationError struct {
	Artifact string
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate %s: failed after %d attempts: %v", e.Artifact, e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// StudyMaterialGenerationError is returned by ingestion after the upload has
// already been rolled back.
type StudyMaterialGenerationError struct {
	UploadID string
	Err      error
}

func (e *StudyMaterialGenerationError) Error() string {
	return "study material generation failed: " + e.Err.Error()
}

func (e *StudyMaterialGenerationError) Unwrap() error { return e.Err }

// ConsistencyError means a row written a moment ago could not be read back.
type ConsistencyError struct {
	Entity string
	ID     string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("consistency check failed: %s %s not found after write", e.Entity, e.ID)
}

type InsufficientCreditsError struct {
	Required  int
	Available int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %d, available %d", e.Required, e.Available)
}

func (e *InsufficientCreditsError) Unwrap() error { return ErrInsufficientCredits }

type ResourceNotFoundError struct {
	Resource string
	ID       string
}

func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *ResourceNotFoundError) Unwrap() error { return ErrResourceNotFound }

// InvalidInput wraps ErrInvalidInput with a message.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
