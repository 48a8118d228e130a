package subtitles

import (
	"path/filepath"
	"strconv"
	"strings"
)

// FilterExpression is a complete, escaped ffmpeg video filter.
type FilterExpression string

func (f FilterExpression) String() string { return string(f) }

// Filter builds the subtitles filter that burns subtitlePath with style s.
// The result depends only on its inputs.
func (s Style) Filter(subtitlePath string) FilterExpression {
	var b strings.Builder
	b.WriteString("subtitles=filename=")
	b.WriteString(quoteGraph(escapeOption(subtitlePath)))
	if s.FontFile != "" {
		b.WriteString(":fontsdir=")
		b.WriteString(quoteGraph(escapeOption(filepath.Dir(s.FontFile))))
	}
	b.WriteString(":force_style=")
	b.WriteString(quoteGraph(escapeOption(s.forceStyle())))
	return FilterExpression(b.String())
}

// Scaled prefixes f with a scale filter. Non-positive sizes return f.
func (f FilterExpression) Scaled(width, height int) FilterExpression {
	if width <= 0 || height <= 0 {
		return f
	}
	return FilterExpression("scale=" + strconv.Itoa(width) + ":" + strconv.Itoa(height) + "," + string(f))
}

// escapeOption escapes a filter option value: backslash, single quote and
// the ':' option separator each get a leading backslash.
func escapeOption(value string) string {
	var b strings.Builder
	b.Grow(len(value) + 8)
	for _, r := range value {
		switch r {
		case '\\', '\'', ':':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// quoteGraph single-quotes value for the filtergraph parser. Inside quotes
// only the quote itself is special; it is emitted as '\''.
func quoteGraph(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}
