package media

import (
	"errors"
	"fmt"
	"strings"
)

// Demux failures.
var (
	ErrNotFound          = errors.New("source not found")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrCorrupt           = errors.New("corrupt source")
)

// Operation failures.
var (
	ErrNoStreamOfKind       = errors.New("no stream of kind")
	ErrMux                  = errors.New("mux error")
	ErrPacketWrite          = errors.New("packet write failed")
	ErrIO                   = errors.New("i/o error")
	ErrFrameworkUnavailable = errors.New("media framework unavailable")
)

// Wrap tags err with marker and a short detail for classification with
// errors.Is. A nil marker defaults to ErrIO.
func Wrap(marker error, detail string, err error) error {
	if marker == nil {
		marker = ErrIO
	}
	detail = strings.TrimSpace(detail)
	switch {
	case detail == "" && err == nil:
		return marker
	case detail == "":
		return fmt.Errorf("%w: %w", marker, err)
	case err == nil:
		return fmt.Errorf("%w: %s", marker, detail)
	default:
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
}

// NoStreamOfKind reports that a container has no stream of the given medium.
func NoStreamOfKind(medium Medium) error {
	return fmt.Errorf("%w: %s", ErrNoStreamOfKind, medium)
}

// IsDemuxError reports whether err originated from opening or reading a source.
func IsDemuxError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnsupportedFormat) || errors.Is(err, ErrCorrupt)
}
