package media

import "unicode"

// DetectLang guesses a coarse language code from the dominant script of the
// text. It only ever populates a catalog field; "und" means undetermined.
// Latin-script text defaults to "en" — distinguishing Latin-script
// languages needs more signal than a title offers.
func DetectLang(text string) string {
	counts := map[string]int{}
	total := 0

	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		total++
		switch {
		case unicode.Is(unicode.Latin, r):
			counts["en"]++
		case unicode.Is(unicode.Cyrillic, r):
			counts["ru"]++
		case unicode.Is(unicode.Han, r):
			counts["zh"]++
		case unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r):
			counts["ja"]++
		case unicode.Is(unicode.Hangul, r):
			counts["ko"]++
		case unicode.Is(unicode.Arabic, r):
			counts["ar"]++
		case unicode.Is(unicode.Devanagari, r):
			counts["hi"]++
		}
	}

	if total == 0 {
		return "und"
	}

	best, bestCount := "und", 0
	for lang, n := range counts {
		if n > bestCount {
			best, bestCount = lang, n
		}
	}

	// Hiragana/Katakana in mostly-Han text means Japanese, not Chinese.
	if best == "zh" && counts["ja"] > 0 {
		best = "ja"
	}

	if bestCount*2 < total {
		return "und"
	}
	return best
}
