package normalize

import (
	"unicode"

	"golang.org/x/text/language"
)

type scriptTag struct {
	table *unicode.RangeTable
	tag   language.Tag
}

// Order matters: kana decides Japanese before Han is counted as Chinese.
var scripts = []scriptTag{
	{unicode.Hiragana, language.Japanese},
	{unicode.Katakana, language.Japanese},
	{unicode.Hangul, language.Korean},
	{unicode.Han, language.Chinese},
	{unicode.Cyrillic, language.Russian},
	{unicode.Arabic, language.Arabic},
	{unicode.Hebrew, language.Hebrew},
	{unicode.Greek, language.Greek},
	{unicode.Thai, language.Thai},
	{unicode.Devanagari, language.Hindi},
	{unicode.Tamil, language.Tamil},
	{unicode.Telugu, language.Telugu},
	{unicode.Bengali, language.Bengali},
	{unicode.Kannada, language.Kannada},
	{unicode.Malayalam, language.Malayalam},
	{unicode.Gujarati, language.Gujarati},
	{unicode.Gurmukhi, language.Punjabi},
}

// DetectLanguage infers a two-letter code from the dominant non-Latin script.
// Latin or empty text yields "en".
func DetectLanguage(text string) string {
	counts := make(map[language.Tag]int)
	latin := 0
	hasKana := false

	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		if unicode.Is(unicode.Latin, r) {
			latin++
			continue
		}
		for _, s := range scripts {
			if unicode.Is(s.table, r) {
				if s.tag == language.Japanese {
					hasKana = true
				}
				counts[s.tag]++
				break
			}
		}
	}

	if hasKana {
		counts[language.Japanese] += counts[language.Chinese]
		delete(counts, language.Chinese)
	}

	best, bestCount := language.English, latin
	for _, s := range scripts {
		if c := counts[s.tag]; c > bestCount {
			best, bestCount = s.tag, c
		}
	}
	base, _ := best.Base()
	return base.String()
}
