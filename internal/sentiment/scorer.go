// Package sentiment implements lexicon-based polarity scoring.
//
// A Scorer sums per-token polarity weights from an immutable Lexicon and
// normalizes by token count, so scores land roughly in [-1, 1]. Aggregation
// over a snapshot weights every record equally, not by engagement.
package sentiment

import (
	"fmt"
	"sort"

	"github.com/moltbridge/moltwatch/internal/domain"
	"github.com/moltbridge/moltwatch/internal/text"
)

const (
	DefaultPositiveThreshold = 0.05
	DefaultNegativeThreshold = -0.05

	topResultCount = 5
	topTermCount   = 10
)

// Scorer scores token sequences against a fixed lexicon. Deterministic,
// no side effects.
type Scorer struct {
	lexicon           Lexicon
	normalizer        *text.Normalizer
	positiveThreshold float64
	negativeThreshold float64
}

// NewScorer builds a Scorer. Threshold misconfiguration is fatal at startup.
func NewScorer(lexicon Lexicon, normalizer *text.Normalizer, positiveThreshold, negativeThreshold float64) (*Scorer, error) {
	if len(lexicon) == 0 {
		return nil, fmt.Errorf("lexicon must not be empty")
	}
	if normalizer == nil {
		return nil, fmt.Errorf("normalizer is required")
	}
	if positiveThreshold <= 0 {
		return nil, fmt.Errorf("positive threshold must be > 0, got %g", positiveThreshold)
	}
	if negativeThreshold >= 0 {
		return nil, fmt.Errorf("negative threshold must be < 0, got %g", negativeThreshold)
	}
	return &Scorer{
		lexicon:           lexicon,
		normalizer:        normalizer,
		positiveThreshold: positiveThreshold,
		negativeThreshold: negativeThreshold,
	}, nil
}

// Score sums lexicon weights over the tokens and normalizes by token count.
// An empty sequence or one with no recognized terms is neutral with score 0.
func (s *Scorer) Score(tokens []string) (domain.SentimentLabel, float64) {
	if len(tokens) == 0 {
		return domain.SentimentNeutral, 0
	}

	var sum float64
	for _, token := range tokens {
		sum += s.lexicon.Weight(token)
	}

	score := sum / float64(len(tokens))
	if score > 1 {
		score = 1
	} else if score < -1 {
		score = -1
	}

	switch {
	case score > s.positiveThreshold:
		return domain.SentimentPositive, score
	case score < s.negativeThreshold:
		return domain.SentimentNegative, score
	default:
		return domain.SentimentNeutral, score
	}
}

// AnalyzeSnapshot scores every record in the snapshot and aggregates the
// results into a summary. Records with bodies that normalize to nothing are
// still counted (as neutral).
func (s *Scorer) AnalyzeSnapshot(snapshot domain.Snapshot) ([]domain.SentimentResult, domain.SentimentSummary) {
	results := make([]domain.SentimentResult, 0, len(snapshot.Records))
	positiveTerms := make(map[string]int)
	negativeTerms := make(map[string]int)

	for _, record := range snapshot.Records {
		tokens := s.normalizer.Normalize(record.Body)
		label, score := s.Score(tokens)
		results = append(results, domain.SentimentResult{
			RecordID: record.ID,
			Label:    label,
			Score:    score,
		})

		for _, token := range tokens {
			switch w := s.lexicon.Weight(token); {
			case w > 0:
				positiveTerms[token]++
			case w < 0:
				negativeTerms[token]++
			}
		}
	}

	return results, s.summarize(results, positiveTerms, negativeTerms)
}

func (s *Scorer) summarize(results []domain.SentimentResult, positiveTerms, negativeTerms map[string]int) domain.SentimentSummary {
	summary := domain.SentimentSummary{
		Distribution: map[domain.SentimentLabel]int{
			domain.SentimentPositive: 0,
			domain.SentimentNeutral:  0,
			domain.SentimentNegative: 0,
		},
		Percentages: make(map[domain.SentimentLabel]float64, 3),
		TotalScored: len(results),
	}

	var sum float64
	for _, r := range results {
		summary.Distribution[r.Label]++
		sum += r.Score
	}
	if len(results) > 0 {
		summary.AverageScore = sum / float64(len(results))
	}
	total := len(results)
	if total == 0 {
		total = 1
	}
	for label, count := range summary.Distribution {
		summary.Percentages[label] = 100 * float64(count) / float64(total)
	}

	ranked := make([]domain.SentimentResult, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].RecordID < ranked[j].RecordID
	})
	for _, r := range ranked {
		if r.Score > 0 && len(summary.TopPositive) < topResultCount {
			summary.TopPositive = append(summary.TopPositive, r)
		}
	}
	for i := len(ranked) - 1; i >= 0; i-- {
		if ranked[i].Score < 0 && len(summary.TopNegative) < topResultCount {
			summary.TopNegative = append(summary.TopNegative, ranked[i])
		}
	}

	summary.PositiveTerms = rankTerms(positiveTerms, topTermCount)
	summary.NegativeTerms = rankTerms(negativeTerms, topTermCount)
	return summary
}

// rankTerms sorts term counts descending, breaking ties lexically so the
// output is reproducible.
func rankTerms(counts map[string]int, limit int) []domain.TermCount {
	ranked := make([]domain.TermCount, 0, len(counts))
	for term, count := range counts {
		ranked = append(ranked, domain.TermCount{Term: term, Count: count})
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
