package subtitles

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
)

// Color is a font color packed as ASS BBGGRR hex.
type Color string

// Named colors, already in BBGGRR order.
var namedColors = map[string]Color{
	"white": "FFFFFF",
	"black": "000000",
	"red":   "0000FF",
	"green": "00FF00",
	"blue":  "FF0000",
}

// foldName normalizes a style keyword for case-insensitive lookup.
func foldName(value string) string {
	return cases.Fold().String(strings.TrimSpace(value))
}

// ParseColor accepts a color name (white, black, red, green, blue; any
// case) or a six digit RRGGBB hex value. Either form may carry a leading
// '#', so "#white" is white.
func ParseColor(value string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if c, ok := namedColors[foldName(hex)]; ok {
		return c, nil
	}
	if len(hex) != 6 {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedColor, value)
	}
	for i := 0; i < len(hex); i++ {
		if !isHexDigit(hex[i]) {
			return "", fmt.Errorf("%w: %q", ErrUnsupportedColor, value)
		}
	}
	hex = strings.ToUpper(hex)
	return Color(hex[4:6] + hex[2:4] + hex[0:2]), nil
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// Alignment is an ASS numpad alignment code (1..9).
type Alignment int

var (
	verticalRows = map[string]int{
		"bottom": 0,
		"center": 1,
		"middle": 1,
		"top":    2,
	}
	horizontalColumns = map[string]int{
		"left":   1,
		"center": 2,
		"right":  3,
	}
)

// ParseAlignment maps a vertical (top, center/middle, bottom) and
// horizontal (left, center, right) position to its numpad code: bottom row
// 1-3, middle row 4-6, top row 7-9.
func ParseAlignment(vertical, horizontal string) (Alignment, error) {
	row, okRow := verticalRows[foldName(vertical)]
	col, okCol := horizontalColumns[foldName(horizontal)]
	if !okRow || !okCol {
		return 0, fmt.Errorf("%w: vertical=%q horizontal=%q", ErrInvalidAlignment, vertical, horizontal)
	}
	return Alignment(row*3 + col), nil
}

// StyleSpec holds unvalidated style settings as they appear in config or
// on the command line.
type StyleSpec struct {
	FontFile   string
	FontSize   uint
	Color      string
	Vertical   string
	Horizontal string
}

// Style is a validated subtitle style.
type Style struct {
	FontFile  string
	FontSize  uint
	Color     Color
	Alignment Alignment
}

// NewStyle validates spec. Every field is checked before a Style is
// returned, so a bad style never reaches the encoder.
func NewStyle(spec StyleSpec) (Style, error) {
	color, err := ParseColor(spec.Color)
	if err != nil {
		return Style{}, err
	}
	align, err := ParseAlignment(spec.Vertical, spec.Horizontal)
	if err != nil {
		return Style{}, err
	}
	if spec.FontSize == 0 {
		return Style{}, fmt.Errorf("%w: font size must be positive", ErrInvalidFont)
	}
	font := strings.TrimSpace(spec.FontFile)
	// force_style fields are comma separated with no escape mechanism.
	if strings.ContainsAny(font, ",\n") {
		return Style{}, fmt.Errorf("%w: font path %q contains a comma or newline", ErrInvalidFont, font)
	}
	return Style{FontFile: font, FontSize: spec.FontSize, Color: color, Alignment: align}, nil
}

// forceStyle renders the ASS override fields. Alpha 00 is fully opaque.
func (s Style) forceStyle() string {
	fields := make([]string, 0, 5)
	if s.FontFile != "" {
		name := strings.TrimSuffix(filepath.Base(s.FontFile), filepath.Ext(s.FontFile))
		fields = append(fields, "Fontfile="+s.FontFile, "Fontname="+name)
	}
	fields = append(fields,
		fmt.Sprintf("FontSize=%d", s.FontSize),
		"PrimaryColour=&H00"+string(s.Color),
		fmt.Sprintf("Alignment=%d", s.Alignment),
	)
	return strings.Join(fields, ",")
}
