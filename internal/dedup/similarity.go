package dedup

import (
	"net/url"
	"path"
	"strings"
	"unicode"
)

// meaningfulWordLen: words this short ("the", "an", "for") carry no signal
// and are dropped before comparing titles.
const meaningfulWordLen = 3

// TitleSimilarity returns the meaningful-word overlap ratio of two titles
// in [0,1]. Case and punctuation are ignored; the ratio is the size of the
// intersection over the smaller word set, so a retitled repost ("... " +
// "(Remastered)") still scores high against the original.
func TitleSimilarity(a, b string) float64 {
	wa := meaningfulWords(a)
	wb := meaningfulWords(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}

	shared := 0
	for w := range wa {
		if wb[w] {
			shared++
		}
	}

	smaller := len(wa)
	if len(wb) < smaller {
		smaller = len(wb)
	}
	return float64(shared) / float64(smaller)
}

func meaningfulWords(s string) map[string]bool {
	out := make(map[string]bool)
	word := strings.Builder{}

	flush := func() {
		if word.Len() > meaningfulWordLen {
			out[word.String()] = true
		}
		word.Reset()
	}

	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			word.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return out
}

// MediaID extracts the platform-assigned identifier embedded in a media
// URL: the last path segment with any file extension stripped. Two posts
// on the same source pointing at the same media id are the same clip even
// when the full URLs differ (mirrors, quality variants).
func MediaID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	seg := path.Base(strings.TrimRight(u.Path, "/"))
	if seg == "." || seg == "/" {
		return ""
	}
	if ext := path.Ext(seg); ext != "" {
		seg = strings.TrimSuffix(seg, ext)
	}
	return seg
}
