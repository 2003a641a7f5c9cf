package telemetry

import (
	"errors"
	"io"
)

// ErrStop can be returned from a ParseFunc callback to end the scan early
// without reporting an error to the caller.
var ErrStop = errors.New("telemetry: stop iteration")

// ParseOptions controls partial reads. Skip drops the first n frames;
// Limit caps the number of frames yielded (0 means unlimited).
type ParseOptions struct {
	Skip  int
	Limit int
}

// Source produces telemetry frames from a text stream. Each call scans
// the given reader from its current position; passing a fresh reader
// restarts the sequence. Implemented by the flight-log and subtitle
// parsers.
type Source interface {
	// ParseFunc streams frames to fn as they are decoded.
	ParseFunc(r io.Reader, opts ParseOptions, fn func(*Frame) error) error

	// Parse collects all frames into a slice.
	Parse(r io.Reader, opts ParseOptions) ([]*Frame, error)
}
