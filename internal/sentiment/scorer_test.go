package sentiment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moltbridge/moltwatch/internal/domain"
	"github.com/moltbridge/moltwatch/internal/text"
)

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	normalizer, err := text.NewNormalizer(text.DefaultMinTokenLength, nil)
	require.NoError(t, err)
	scorer, err := NewScorer(DefaultLexicon(), normalizer, DefaultPositiveThreshold, DefaultNegativeThreshold)
	require.NoError(t, err)
	return scorer
}

func TestParseLexicon(t *testing.T) {
	lex := ParseLexicon("# comment\ngood\t0.7\n\nbad\t-0.7\nmalformed line\nnan\tx\n")
	assert.Len(t, lex, 2)
	assert.Equal(t, 0.7, lex.Weight("good"))
	assert.Equal(t, -0.7, lex.Weight("bad"))
	assert.Equal(t, 0.0, lex.Weight("unknown"))
}

func TestNewScorerValidation(t *testing.T) {
	normalizer, err := text.NewNormalizer(3, nil)
	require.NoError(t, err)

	_, err = NewScorer(Lexicon{}, normalizer, 0.05, -0.05)
	assert.Error(t, err)

	_, err = NewScorer(DefaultLexicon(), nil, 0.05, -0.05)
	assert.Error(t, err)

	_, err = NewScorer(DefaultLexicon(), normalizer, -0.1, -0.05)
	assert.Error(t, err)

	_, err = NewScorer(DefaultLexicon(), normalizer, 0.05, 0.1)
	assert.Error(t, err)
}

func TestScoreNeutralOnNoLexiconHits(t *testing.T) {
	scorer := newTestScorer(t)

	label, score := scorer.Score([]string{"quarterly", "infrastructure", "update"})
	assert.Equal(t, domain.SentimentNeutral, label)
	assert.Equal(t, 0.0, score)

	label, score = scorer.Score(nil)
	assert.Equal(t, domain.SentimentNeutral, label)
	assert.Equal(t, 0.0, score)
}

func TestScoreLabels(t *testing.T) {
	scorer := newTestScorer(t)

	label, score := scorer.Score([]string{"agents", "amazing"})
	assert.Equal(t, domain.SentimentPositive, label)
	assert.InDelta(t, 0.5, score, 1e-9)

	label, score = scorer.Score([]string{"agents", "terrible"})
	assert.Equal(t, domain.SentimentNegative, label)
	assert.InDelta(t, -0.5, score, 1e-9)
}

func TestScoreIsDeterministic(t *testing.T) {
	scorer := newTestScorer(t)
	tokens := []string{"great", "progress", "terrible", "bugs"}

	label1, score1 := scorer.Score(tokens)
	label2, score2 := scorer.Score(tokens)
	assert.Equal(t, label1, label2)
	assert.Equal(t, score1, score2)
}

func TestAnalyzeSnapshotDistribution(t *testing.T) {
	scorer := newTestScorer(t)

	snapshot := domain.NewSnapshot(domain.WindowCurrent, time.Now(), []domain.Record{
		{ID: "p1", Body: "agents are amazing"},
		{ID: "p2", Body: "agents are terrible"},
		{ID: "p3", Body: "just a normal update"},
	})

	results, summary := scorer.AnalyzeSnapshot(snapshot)
	require.Len(t, results, 3)

	assert.Equal(t, 1, summary.Distribution[domain.SentimentPositive])
	assert.Equal(t, 1, summary.Distribution[domain.SentimentNegative])
	assert.Equal(t, 1, summary.Distribution[domain.SentimentNeutral])
	assert.Equal(t, 3, summary.TotalScored)
	assert.InDelta(t, 33.3, summary.Percentages[domain.SentimentPositive], 0.1)

	require.Len(t, summary.TopPositive, 1)
	assert.Equal(t, "p1", summary.TopPositive[0].RecordID)
	require.Len(t, summary.TopNegative, 1)
	assert.Equal(t, "p2", summary.TopNegative[0].RecordID)

	require.NotEmpty(t, summary.PositiveTerms)
	assert.Equal(t, "amazing", summary.PositiveTerms[0].Term)
	require.NotEmpty(t, summary.NegativeTerms)
	assert.Equal(t, "terrible", summary.NegativeTerms[0].Term)
}

func TestAnalyzeSnapshotEmpty(t *testing.T) {
	scorer := newTestScorer(t)

	results, summary := scorer.AnalyzeSnapshot(domain.Snapshot{Window: domain.WindowCurrent})
	assert.Empty(t, results)
	assert.Equal(t, 0, summary.TotalScored)
	assert.Equal(t, 0.0, summary.AverageScore)
	assert.Empty(t, summary.TopPositive)
	assert.Empty(t, summary.TopNegative)
}
