// Package trend implements time-windowed keyword, topic, and engagement
// analysis over feed snapshots.
//
// All rankings are count-descending with lexical tie-breaks, so identical
// inputs always produce identical reports.
package trend

import (
	"fmt"
	"sort"
	"time"

	"github.com/moltbridge/moltwatch/internal/domain"
	"github.com/moltbridge/moltwatch/internal/text"
)

const (
	DefaultStableThresholdPct = 10.0
	DefaultRecencyWindow      = 6 * time.Hour

	DefaultTopKeywords      = 20
	DefaultTopTopics        = 15
	DefaultTopConversations = 10
	DefaultTopPosters       = 10

	// Authors with at least this many records count as prolific.
	prolificThreshold = 3

	// Comments weigh double so discussion volume beats raw popularity.
	commentWeight = 2
)

// Options tunes the analyzer. Zero values fall back to defaults.
type Options struct {
	StableThresholdPct float64
	RecencyWindow      time.Duration
	TopKeywords        int
	TopTopics          int
	TopConversations   int
	TopPosters         int
}

// Analyzer computes TrendReports from snapshots. Stateless and safe for
// reuse across runs.
type Analyzer struct {
	normalizer *text.Normalizer
	opts       Options
}

// NewAnalyzer builds an Analyzer. Invalid options are fatal at startup.
func NewAnalyzer(normalizer *text.Normalizer, opts Options) (*Analyzer, error) {
	if normalizer == nil {
		return nil, fmt.Errorf("normalizer is required")
	}
	if opts.StableThresholdPct == 0 {
		opts.StableThresholdPct = DefaultStableThresholdPct
	}
	if opts.StableThresholdPct < 0 {
		return nil, fmt.Errorf("stable threshold must be >= 0, got %g", opts.StableThresholdPct)
	}
	if opts.RecencyWindow == 0 {
		opts.RecencyWindow = DefaultRecencyWindow
	}
	if opts.RecencyWindow < 0 {
		return nil, fmt.Errorf("recency window must be positive, got %s", opts.RecencyWindow)
	}
	if opts.TopKeywords == 0 {
		opts.TopKeywords = DefaultTopKeywords
	}
	if opts.TopTopics == 0 {
		opts.TopTopics = DefaultTopTopics
	}
	if opts.TopConversations == 0 {
		opts.TopConversations = DefaultTopConversations
	}
	if opts.TopPosters == 0 {
		opts.TopPosters = DefaultTopPosters
	}
	return &Analyzer{normalizer: normalizer, opts: opts}, nil
}

// Analyze builds the full trend report for the current snapshot, comparing
// against the previous window when one is supplied. An empty current
// snapshot yields an empty report, not an error.
func (a *Analyzer) Analyze(current domain.Snapshot, previous *domain.Snapshot) domain.TrendReport {
	report := domain.TrendReport{
		TotalRecords:   len(current.Records),
		SkippedRecords: current.Skipped,
	}
	if len(current.Records) == 0 {
		return report
	}

	unigrams, bigrams := a.termFrequencies(current)
	report.Keywords = rankTerms(unigrams, a.opts.TopKeywords)
	report.Topics = rankTerms(bigrams, a.opts.TopTopics)

	currentTerms := merge(unigrams, bigrams)
	var previousTerms map[string]int
	if previous != nil {
		prevUnigrams, prevBigrams := a.termFrequencies(*previous)
		previousTerms = merge(prevUnigrams, prevBigrams)
	}
	report.Deltas = a.compareTerms(currentTerms, previousTerms)

	report.SubmoltActivity = submoltActivity(current)
	report.TopConversations = a.topConversations(current)
	report.Authors = authorPatterns(current, a.opts.TopPosters)
	return report
}

// termFrequencies counts unigrams and bigrams over all record bodies.
// Counts are recomputed per snapshot, never accumulated in place.
func (a *Analyzer) termFrequencies(snapshot domain.Snapshot) (unigrams, bigrams map[string]int) {
	unigrams = make(map[string]int)
	bigrams = make(map[string]int)
	for _, record := range snapshot.Records {
		tokens := a.normalizer.Normalize(record.Body)
		for _, token := range tokens {
			unigrams[token]++
		}
		for _, bigram := range text.Bigrams(tokens) {
			bigrams[bigram]++
		}
	}
	return unigrams, bigrams
}

// compareTerms builds a delta for every term present in either window.
// Terms absent from one side count as 0; a term appearing from nothing is
// always up regardless of the stable band.
func (a *Analyzer) compareTerms(current, previous map[string]int) []domain.TrendDelta {
	terms := make(map[string]struct{}, len(current)+len(previous))
	for term := range current {
		terms[term] = struct{}{}
	}
	for term := range previous {
		terms[term] = struct{}{}
	}

	deltas := make([]domain.TrendDelta, 0, len(terms))
	for term := range terms {
		currCount := current[term]
		prevCount := previous[term]

		var changePct float64
		var direction domain.Direction
		switch {
		case prevCount == 0 && currCount == 0:
			direction = domain.DirectionStable
		case prevCount == 0:
			changePct = 100
			direction = domain.DirectionUp
		default:
			changePct = 100 * float64(currCount-prevCount) / float64(prevCount)
			switch {
			case changePct > a.opts.StableThresholdPct:
				direction = domain.DirectionUp
			case changePct < -a.opts.StableThresholdPct:
				direction = domain.DirectionDown
			default:
				direction = domain.DirectionStable
			}
		}

		deltas = append(deltas, domain.TrendDelta{
			Term:          term,
			CurrentCount:  currCount,
			PreviousCount: prevCount,
			ChangePct:     changePct,
			Direction:     direction,
		})
	}

	sort.Slice(deltas, func(i, j int) bool {
		if deltas[i].CurrentCount != deltas[j].CurrentCount {
			return deltas[i].CurrentCount > deltas[j].CurrentCount
		}
		return deltas[i].Term < deltas[j].Term
	})
	return deltas
}

// topConversations ranks records inside the recency window by
// upvotes + 2*comments. The snapshot capture time anchors the window so the
// ranking has no clock dependency.
func (a *Analyzer) topConversations(snapshot domain.Snapshot) []domain.Conversation {
	cutoff := snapshot.CapturedAt.Add(-a.opts.RecencyWindow)

	conversations := make([]domain.Conversation, 0, len(snapshot.Records))
	for _, record := range snapshot.Records {
		if record.CreatedAt.Before(cutoff) {
			continue
		}
		conversations = append(conversations, domain.Conversation{
			RecordID:     record.ID,
			Submolt:      record.Submolt,
			Author:       record.Author,
			Upvotes:      record.Upvotes,
			CommentCount: record.CommentCount,
			Score:        record.Upvotes + commentWeight*record.CommentCount,
		})
	}

	sort.Slice(conversations, func(i, j int) bool {
		if conversations[i].Score != conversations[j].Score {
			return conversations[i].Score > conversations[j].Score
		}
		return conversations[i].RecordID < conversations[j].RecordID
	})
	if len(conversations) > a.opts.TopConversations {
		conversations = conversations[:a.opts.TopConversations]
	}
	return conversations
}

// submoltActivity aggregates per-submolt engagement, ranked by record count.
func submoltActivity(snapshot domain.Snapshot) []domain.SubmoltActivity {
	byName := make(map[string]*domain.SubmoltActivity)
	for _, record := range snapshot.Records {
		name := record.Submolt
		if name == "" {
			continue
		}
		activity, ok := byName[name]
		if !ok {
			activity = &domain.SubmoltActivity{Submolt: name}
			byName[name] = activity
		}
		activity.RecordCount++
		activity.TotalUpvotes += record.Upvotes
		activity.TotalComments += record.CommentCount
		activity.EngagementScore += record.Upvotes + commentWeight*record.CommentCount
	}

	ranked := make([]domain.SubmoltActivity, 0, len(byName))
	for _, activity := range byName {
		ranked = append(ranked, *activity)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].RecordCount != ranked[j].RecordCount {
			return ranked[i].RecordCount > ranked[j].RecordCount
		}
		return ranked[i].Submolt < ranked[j].Submolt
	})
	return ranked
}

// authorPatterns summarizes posting behavior across the snapshot.
func authorPatterns(snapshot domain.Snapshot, topPosters int) domain.AuthorPatterns {
	byAuthor := make(map[string]*domain.AuthorCount)
	for _, record := range snapshot.Records {
		name := record.Author
		if name == "" {
			name = "unknown"
		}
		count, ok := byAuthor[name]
		if !ok {
			count = &domain.AuthorCount{Name: name}
			byAuthor[name] = count
		}
		count.Records++
		count.Upvotes += record.Upvotes
	}

	patterns := domain.AuthorPatterns{
		UniqueAuthors: len(byAuthor),
		TotalRecords:  len(snapshot.Records),
	}
	if len(byAuthor) > 0 {
		patterns.AvgPerAuthor = float64(len(snapshot.Records)) / float64(len(byAuthor))
	}

	ranked := make([]domain.AuthorCount, 0, len(byAuthor))
	for _, count := range byAuthor {
		ranked = append(ranked, *count)
		if count.Records >= prolificThreshold {
			patterns.ProlificAuthors++
		}
		if count.Records == 1 {
			patterns.OneTimePosters++
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Records != ranked[j].Records {
			return ranked[i].Records > ranked[j].Records
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > topPosters {
		ranked = ranked[:topPosters]
	}
	patterns.TopPosters = ranked
	return patterns
}

// rankTerms converts a frequency map into a ranked slice with share of all
// occurrences, count-descending with lexical tie-break.
func rankTerms(counts map[string]int, limit int) []domain.TermCount {
	total := 0
	for _, count := range counts {
		total += count
	}
	if total == 0 {
		return nil
	}

	ranked := make([]domain.TermCount, 0, len(counts))
	for term, count := range counts {
		ranked = append(ranked, domain.TermCount{
			Term:  term,
			Count: count,
			Share: float64(count) / float64(total),
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Term < ranked[j].Term
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func merge(a, b map[string]int) map[string]int {
	merged := make(map[string]int, len(a)+len(b))
	for term, count := range a {
		merged[term] = count
	}
	for term, count := range b {
		merged[term] += count
	}
	return merged
}
