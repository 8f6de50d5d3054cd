package app

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// letters that do not decompose into base + combining mark under NFD
var foldReplacer = strings.NewReplacer(
	"ß", "ss", "Æ", "AE", "æ", "ae", "Œ", "OE", "œ", "oe",
	"Ø", "O", "ø", "o", "Đ", "D", "đ", "d", "Ł", "L", "ł", "l",
	"Þ", "TH", "þ", "th", "ı", "i",
)

func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, foldReplacer.Replace(s))
	if err != nil {
		return s
	}
	return out
}

// Slugify turns a display title into a URL-safe token:
//
//	Slugify("Sunshine Inn")     // "sunshine-inn"
//	Slugify("Hôtel  Côte d'Or") // "hotel-cote-dor"
//	Slugify("My App 2.0!")      // "my-app-20"
//
// Accents are folded to ASCII, whitespace runs become one hyphen, every other
// non [a-z0-9-] rune is dropped, hyphen runs collapse and edge hyphens are trimmed.
// Slugify(Slugify(s)) == Slugify(s).
func Slugify(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	lastHyphen := true // suppresses a leading hyphen
	for _, r := range strings.ToLower(fold(text)) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		case r == '-' || unicode.IsSpace(r):
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
