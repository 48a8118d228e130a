package textutil

import (
	"path/filepath"
	"strings"
	"unicode"
)

// fallbackStem names intermediates when nothing usable is left of the input name.
const fallbackStem = "video"

var stemReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// FileStem returns the base name of path without its extension, with
// filesystem-unsafe characters and control runes removed.
func FileStem(path string) string {
	base := filepath.Base(strings.TrimSpace(path))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = stemReplacer.Replace(stem)
	stem = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, stem)
	stem = strings.Trim(stem, " .")
	if stem == "" || stem == "-" {
		return fallbackStem
	}
	return stem
}
