package usecase

import "errors"

var (
	// ErrInvalidURL is returned for anything that is not a canonical watch URL.
	ErrInvalidURL = errors.New("Invalid YouTube URL.")
	// ErrStreamNotFound is returned when the video has no progressive MP4 encoding.
	ErrStreamNotFound = errors.New("Stream not found.")
)

// ExtractionError wraps any failure of the extraction provider.
// Message is the provider's own text.
type ExtractionError struct {
	Message string
	cause   error
}

func NewExtractionError(cause error) *ExtractionError {
	return &ExtractionError{Message: cause.Error(), cause: cause}
}

func (e *ExtractionError) Error() string { return e.Message }

func (e *ExtractionError) Unwrap() error { return e.cause }
