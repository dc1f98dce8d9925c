package sentiment

import (
	_ "embed"
	"strconv"
	"strings"
)

//go:embed lexicon.txt
var defaultLexiconData string

// Lexicon maps normalized terms to polarity weights. Loaded once at
// construction and immutable afterwards; missing terms contribute 0.
type Lexicon map[string]float64

// ParseLexicon parses tab-separated "term\tweight" lines. Blank lines and
// lines starting with '#' are skipped, as are unparseable entries.
func ParseLexicon(raw string) Lexicon {
	lex := make(Lexicon, 256)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			continue
		}
		term := strings.ToLower(strings.TrimSpace(parts[0]))
		weight, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			continue
		}
		lex[term] = weight
	}
	return lex
}

// DefaultLexicon returns the built-in polarity lexicon.
func DefaultLexicon() Lexicon {
	return ParseLexicon(defaultLexiconData)
}

// Weight returns the polarity weight for a term, 0 for unknown terms.
func (l Lexicon) Weight(term string) float64 {
	return l[term]
}
