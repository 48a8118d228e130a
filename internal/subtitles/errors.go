package subtitles

import "errors"

var (
	ErrUnsupportedColor         = errors.New("unsupported color")
	ErrInvalidAlignment         = errors.New("invalid alignment")
	ErrInvalidFont              = errors.New("invalid font")
	ErrSubtitleGenerationFailed = errors.New("subtitle generation failed")
)

// IsStyleError reports whether err came from style validation.
func IsStyleError(err error) bool {
	return errors.Is(err, ErrUnsupportedColor) || errors.Is(err, ErrInvalidAlignment) || errors.Is(err, ErrInvalidFont)
}
