// Package text implements the shared tokenizer used by the trend and
// sentiment analyzers and by the dedup guard's fingerprinting.
package text

import (
	"fmt"
	"regexp"
	"strings"
)

const DefaultMinTokenLength = 3

var (
	urlPattern        = regexp.MustCompile(`https?://\S+`)
	fencedCodePattern = regexp.MustCompile("```[\\s\\S]*?```")
	inlineCodePattern = regexp.MustCompile("`[^`]+`")
	// Everything except lowercase alphanumerics, whitespace, and hyphens.
	// Hyphens survive so terms like "agent-to-agent" stay intact.
	nonTokenPattern = regexp.MustCompile(`[^a-z0-9\s-]+`)
	digitsPattern   = regexp.MustCompile(`^[0-9]+$`)
)

// Normalizer turns raw feed text into lowercase token sequences. It never
// fails: malformed input degrades to fewer tokens.
type Normalizer struct {
	minTokenLength int
	stopWords      map[string]struct{}
}

// NewNormalizer builds a Normalizer. An empty stopWords slice falls back to
// the built-in list. Invalid settings are fatal at startup.
func NewNormalizer(minTokenLength int, stopWords []string) (*Normalizer, error) {
	if minTokenLength < 1 {
		return nil, fmt.Errorf("min token length must be >= 1, got %d", minTokenLength)
	}
	if len(stopWords) == 0 {
		stopWords = DefaultStopWords
	}

	set := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		set[strings.ToLower(w)] = struct{}{}
	}

	return &Normalizer{minTokenLength: minTokenLength, stopWords: set}, nil
}

// Normalize returns the ordered token sequence for a piece of text:
// lowercased, URLs and code spans removed, punctuation stripped, stop words
// and short or all-digit tokens dropped. The result may be empty.
func (n *Normalizer) Normalize(text string) []string {
	text = strings.ToLower(text)
	text = urlPattern.ReplaceAllString(text, " ")
	text = fencedCodePattern.ReplaceAllString(text, " ")
	text = inlineCodePattern.ReplaceAllString(text, " ")
	text = nonTokenPattern.ReplaceAllString(text, " ")

	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "-")
		if len(f) < n.minTokenLength {
			continue
		}
		if digitsPattern.MatchString(f) {
			continue
		}
		if _, stop := n.stopWords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// Bigrams joins adjacent tokens into two-word phrases. Input tokens are
// already stop-filtered, so every adjacent pair qualifies.
func Bigrams(tokens []string) []string {
	if len(tokens) < 2 {
		return nil
	}
	bigrams := make([]string, 0, len(tokens)-1)
	for i := 0; i < len(tokens)-1; i++ {
		bigrams = append(bigrams, tokens[i]+" "+tokens[i+1])
	}
	return bigrams
}
