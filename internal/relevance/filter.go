package relevance

import (
	"regexp"
	"strconv"
	"strings"

	"cliphub/pkg/config"
	"cliphub/pkg/models"
)

// generationProximity is how many words may sit between a topic term and
// its generation verb for the pair to still count as a pattern.
const generationProximity = 3

// Filter decides whether a candidate is topically in scope. It is pure:
// the answer depends only on the candidate's text and the configured terms.
//
// General sources must satisfy all three of: a word-boundary primary term,
// a secondary co-occurrence term, and a generation pattern ("<topic> ...
// generated"). Single-keyword matching drowns in false positives on broad
// communities; the conjunction is what keeps precision usable.
type Filter struct {
	primary    []*regexp.Regexp
	secondary  []*regexp.Regexp
	generation []*regexp.Regexp
	excluded   []string
}

// New compiles the term vocabulary. Terms are matched case-insensitively
// with word-boundary semantics, so "ai" never matches inside "air".
func New(cfg config.RelevanceConfig) *Filter {
	f := &Filter{
		primary:   compileTerms(cfg.Primary),
		secondary: compileTerms(cfg.Secondary),
	}

	for _, e := range cfg.Excluded {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			f.excluded = append(f.excluded, e)
		}
	}

	// "<topic> generated", "<topic> video generated", verb either side
	gap := `\W+(?:\w+\W+){0,` + strconv.Itoa(generationProximity) + `}?`
	for _, p := range cfg.Primary {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		for _, v := range cfg.GenerationVerbs {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "" {
				continue
			}
			pq, vq := regexp.QuoteMeta(p), regexp.QuoteMeta(v)
			f.generation = append(f.generation,
				regexp.MustCompile(`\b`+pq+`\b`+gap+`\b`+vq+`\b`),
				regexp.MustCompile(`\b`+vq+`\b`+gap+`\b`+pq+`\b`),
			)
		}
	}
	return f
}

// IsRelevant classifies a candidate. Trusted sources are pre-declared as
// topically pure and always pass; exclusion terms reject regardless.
func (f *Filter) IsRelevant(c models.Candidate, trusted bool) bool {
	text := strings.ToLower(c.Title + " " + c.Body + " " + c.Flair)

	for _, e := range f.excluded {
		if strings.Contains(text, e) {
			return false
		}
	}

	if trusted {
		return true
	}

	if !anyMatch(f.primary, text) {
		return false
	}
	if !anyMatch(f.secondary, text) {
		return false
	}
	return anyMatch(f.generation, text)
}

func anyMatch(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

func compileTerms(terms []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		out = append(out, regexp.MustCompile(`\b`+regexp.QuoteMeta(t)+`\b`))
	}
	return out
}
