package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// KeyFunc turns a raw column name into the form alias candidates are compared in.
type KeyFunc func(string) string

// FoldKey trims, case-folds and strips surrounding quotes.
func FoldKey(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	return cases.Fold().String(strings.TrimSpace(s))
}

// CompactKey is FoldKey with whitespace, percent signs and parentheses
// (ASCII and full-width) removed.
func CompactKey(s string) string {
	s = FoldKey(s)
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return -1
		case r == '%', r == '(', r == ')', r == '（', r == '）':
			return -1
		}
		return r
	}, s)
}

// BareKey is FoldKey with every space, punctuation rune, underscore and hyphen
// removed, so "Product ID", "product-id" and "product_id" share a key. Letters
// of any script are kept.
func BareKey(s string) string {
	s = FoldKey(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || r == '_' || r == '-' {
			return -1
		}
		return r
	}, s)
}

// CanonKey keeps only ASCII letters and digits, lowercased.
func CanonKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var cyrillicLatin = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}

// Transliterate maps a Russian column title onto the snake_case Latin column
// names used by the Ozon wide table, e.g.
// "Воронка продаж: Показы всего" -> "voronka_prodazh_pokazy_vsego".
// Runs of anything other than [a-z0-9] collapse into one underscore; only a
// leading underscore is trimmed, trailing ones are part of the column names.
func Transliterate(s string) string {
	s = cases.Lower(language.Russian).String(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(s))
	pendingSep := false
	for _, r := range s {
		lat, ok := cyrillicLatin[r]
		switch {
		case ok:
			if lat == "" {
				continue
			}
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			lat = string(r)
		default:
			pendingSep = true
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteString(lat)
	}
	if pendingSep {
		b.WriteByte('_')
	}
	return strings.TrimPrefix(b.String(), "_")
}
