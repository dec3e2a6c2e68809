package ocr

import (
	"errors"
	"fmt"
)

// ErrNotInitialized is returned when extraction is attempted before a
// successful Initialize call.
var ErrNotInitialized = errors.New("ocr engine not initialized: call Initialize first")

// InitializationError reports that the engine refused or failed to
// initialize. The adapter stays uninitialized.
type InitializationError struct {
	Language Language
	Err      error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("ocr initialization failed for %q: %v", e.Language, e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// ExtractionError reports an engine failure or a malformed engine payload
// during extraction.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("text extraction failed: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ImageLoadError reports a failed byte resolution for an image URI.
type ImageLoadError struct {
	URI string
	Err error
}

func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("failed to load image from %q: %v", e.URI, e.Err)
}

func (e *ImageLoadError) Unwrap() error { return e.Err }
