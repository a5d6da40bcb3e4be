package extract

import (
	"regexp"
	"strings"
)

// Filter is one step of the text normalization chain.
type Filter func(string) string

// defaultFilters rewrites extracted text into something synthesis engines
// handle better. Order matters: punctuation collapsing runs before quote and
// bracket stripping, whitespace collapsing runs last.
var defaultFilters = []Filter{
	// Expand common abbreviations.
	regexpFilter(`(?i)\bch\.(\s)`, "chapter${1}"),
	regexpFilter(`(?i)\bpt\.(\s)`, "part${1}"),
	regexpFilter(`&`, " and "),
	regexpFilter(`%`, " percent "),
	// Runs of punctuation confuse synthesis, collapse them to a period.
	regexpFilter(`[!?:;.…]+`, "."),
	regexpFilter(`,+`, ","),
	// Hyphens and single quotes survive only inside words.
	stripUnlessInWord('-'),
	stripUnlessInWord('\''),
	// Parentheses and typographic decoration carry nothing speakable.
	regexpFilter(`[()\[\]{}"`+"“”‘’"+`*~_]`, ""),
	regexpFilter(`\s+`, " "),
	blankToEmpty,
}

// Normalize produces synthesis-ready text: trim, run the filter chain,
// lowercase.
func Normalize(text string) string {
	s := strings.TrimSpace(text)
	for _, f := range defaultFilters {
		s = f(s)
	}
	return strings.ToLower(s)
}

func regexpFilter(pattern, replacement string) Filter {
	re := regexp.MustCompile(pattern)
	return func(s string) string {
		return re.ReplaceAllString(s, replacement)
	}
}

// stripUnlessInWord removes target except where both neighbors are ASCII
// alphanumerics, so "well-known" and "don't" keep their interior byte while
// dangling hyphens and quote marks disappear.
func stripUnlessInWord(target byte) Filter {
	return func(s string) string {
		if strings.IndexByte(s, target) < 0 {
			return s
		}
		var b strings.Builder
		b.Grow(len(s))
		for i := 0; i < len(s); i++ {
			c := s[i]
			if c == target {
				prevOK := i > 0 && isASCIIAlnum(s[i-1])
				nextOK := i+1 < len(s) && isASCIIAlnum(s[i+1])
				if !prevOK || !nextOK {
					continue
				}
			}
			b.WriteByte(c)
		}
		return b.String()
	}
}

func blankToEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}

func isASCIIAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
