package pipeline

import (
	"errors"

	"github.com/ironsheep/boundary-mcp/internal/tracer"
)

// Error kinds surfaced by the pipeline. Callers match them with errors.Is.
var (
	// ErrInvalidConfiguration rejects a configuration before any processing.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrMalformedImage rejects an image without pixels or with a pixel
	// buffer that does not match its dimensions.
	ErrMalformedImage = errors.New("malformed image")

	// ErrRecursionLimitExceeded reports that tracing hit a configured chain
	// limit. The partial result committed before the limit is returned with
	// it.
	ErrRecursionLimitExceeded = tracer.ErrLimitExceeded
)
