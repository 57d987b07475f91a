package ingest

import "errors"

// Sentinel kinds for ingest errors.
var (
	ErrEmptyInput        = errors.New("empty input")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrMalformed         = errors.New("malformed input")
)
