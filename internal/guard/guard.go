// Package guard implements the engagement dedup guard that gates outbound
// text before it reaches the publisher.
//
// Duplicate or templated replies trigger platform-side moderation cooldowns,
// so decisions err toward suppressing: a stale history entry costs one
// skipped reply, a double-post costs a multi-hour suspension.
package guard

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/moltbridge/moltwatch/internal/domain"
	"github.com/moltbridge/moltwatch/internal/text"
)

// DefaultDenylist holds phrases whose presence marks a candidate as
// templated or mock output. Matching is case-insensitive substring.
var DefaultDenylist = []string{
	"[dry run]",
	"lorem ipsum",
	"as an ai language model",
	"{top_kw}",
	"{agent_count}",
	"{post_count}",
	"insert reply here",
}

// Suppression reasons reported in decisions.
const (
	ReasonDuplicate  = "duplicate"
	ReasonDenylisted = "denylisted"
	ReasonEmpty      = "empty"
)

// Decision is the outcome of a publish check. Signature is always set for
// non-empty candidates so callers can confirm a successful publish.
type Decision struct {
	Allow     bool
	Reason    string
	Signature string
}

// Guard fingerprints normalized candidates and checks them against the
// signature history it exclusively owns.
type Guard struct {
	normalizer *text.Normalizer
	denylist   []string
}

// NewGuard builds a Guard. An empty denylist falls back to the default.
func NewGuard(normalizer *text.Normalizer, denylist []string) (*Guard, error) {
	if normalizer == nil {
		return nil, fmt.Errorf("normalizer is required")
	}
	if len(denylist) == 0 {
		denylist = DefaultDenylist
	}
	lowered := make([]string, len(denylist))
	for i, phrase := range denylist {
		lowered[i] = strings.ToLower(phrase)
	}
	return &Guard{normalizer: normalizer, denylist: lowered}, nil
}

// Fingerprint derives the content signature for a candidate: a sha256 over
// the sorted token multiset of the normalized text. Whitespace, punctuation,
// casing, and word-order edits all collapse to the same signature; this is
// lexical near-duplicate detection, not semantic similarity.
func (g *Guard) Fingerprint(candidate string) string {
	tokens := g.normalizer.Normalize(candidate)
	if len(tokens) == 0 {
		return ""
	}

	counts := make(map[string]int, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	h := sha256.New()
	for _, term := range terms {
		h.Write([]byte(term))
		h.Write([]byte{':'})
		h.Write([]byte(strconv.Itoa(counts[term])))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// MayPublish decides whether a candidate may go out. It only reads state;
// calling it twice with the same inputs returns the same decision.
func (g *Guard) MayPublish(candidate string, state domain.EngagementState) Decision {
	signature := g.Fingerprint(candidate)
	if signature == "" {
		return Decision{Allow: false, Reason: ReasonEmpty}
	}

	lowered := strings.ToLower(candidate)
	for _, phrase := range g.denylist {
		if strings.Contains(lowered, phrase) {
			return Decision{Allow: false, Reason: ReasonDenylisted, Signature: signature}
		}
	}

	if _, seen := state.History[signature]; seen {
		return Decision{Allow: false, Reason: ReasonDuplicate, Signature: signature}
	}
	return Decision{Allow: true, Signature: signature}
}

// ConfirmPublish records a signature after the external publisher reports
// success. Signatures are only ever added here, never on a bare allow.
func (g *Guard) ConfirmPublish(state *domain.EngagementState, signature string, now time.Time) {
	if signature == "" {
		return
	}
	if state.History == nil {
		state.History = make(map[string]time.Time)
	}
	if _, seen := state.History[signature]; !seen {
		state.History[signature] = now
	}
}
