package domain

import (
	"context"
	"time"
)

// Window labels which scrape period a Snapshot belongs to.
type Window string

const (
	WindowCurrent  Window = "current"
	WindowPrevious Window = "previous"
)

// Record is one scraped post or comment. Immutable once built.
type Record struct {
	ID           string    `json:"id"`
	Body         string    `json:"body"`
	Author       string    `json:"author"`
	Submolt      string    `json:"submolt"`
	Upvotes      int       `json:"upvotes"`
	CommentCount int       `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// Valid reports whether the record carries the minimum fields the analyzers
// need. Invalid records are skipped, never fatal.
func (r Record) Valid() bool {
	return r.ID != "" && r.Body != ""
}

// Snapshot is an ordered capture of feed records at one scrape time.
// Records are unique by ID; duplicates and invalid records are dropped at
// construction and counted in Skipped.
type Snapshot struct {
	Window     Window
	CapturedAt time.Time
	Records    []Record
	Skipped    int
}

// NewSnapshot builds a Snapshot, deduplicating by record ID in input order.
func NewSnapshot(window Window, capturedAt time.Time, records []Record) Snapshot {
	seen := make(map[string]struct{}, len(records))
	unique := make([]Record, 0, len(records))
	skipped := 0

	for _, r := range records {
		if !r.Valid() {
			skipped++
			continue
		}
		if _, dup := seen[r.ID]; dup {
			skipped++
			continue
		}
		seen[r.ID] = struct{}{}
		unique = append(unique, r)
	}

	return Snapshot{
		Window:     window,
		CapturedAt: capturedAt,
		Records:    unique,
		Skipped:    skipped,
	}
}

// --- Trend types ---

// TermCount is one ranked term with its occurrence count and share of all
// counted terms in the snapshot.
type TermCount struct {
	Term  string  `json:"term"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

type Direction string

const (
	DirectionUp     Direction = "up"
	DirectionDown   Direction = "down"
	DirectionStable Direction = "stable"
)

// TrendDelta compares one term's count between the current and previous
// windows. ChangePct is relative to PreviousCount and is 0 when both sides
// are empty.
type TrendDelta struct {
	Term          string    `json:"term"`
	CurrentCount  int       `json:"current_count"`
	PreviousCount int       `json:"previous_count"`
	ChangePct     float64   `json:"change_pct"`
	Direction     Direction `json:"direction"`
}

// SubmoltActivity aggregates engagement per submolt.
type SubmoltActivity struct {
	Submolt         string `json:"submolt"`
	RecordCount     int    `json:"record_count"`
	TotalUpvotes    int    `json:"total_upvotes"`
	TotalComments   int    `json:"total_comments"`
	EngagementScore int    `json:"engagement_score"`
}

// Conversation is one record ranked by discussion volume.
type Conversation struct {
	RecordID     string `json:"record_id"`
	Submolt      string `json:"submolt"`
	Author       string `json:"author"`
	Upvotes      int    `json:"upvotes"`
	CommentCount int    `json:"comment_count"`
	Score        int    `json:"score"`
}

// AuthorCount tracks posting volume for a single author.
type AuthorCount struct {
	Name    string `json:"name"`
	Records int    `json:"records"`
	Upvotes int    `json:"upvotes"`
}

// AuthorPatterns summarizes posting behavior across the snapshot.
type AuthorPatterns struct {
	UniqueAuthors   int           `json:"unique_authors"`
	TotalRecords    int           `json:"total_records"`
	AvgPerAuthor    float64       `json:"avg_per_author"`
	TopPosters      []AuthorCount `json:"top_posters"`
	ProlificAuthors int           `json:"prolific_authors"`
	OneTimePosters  int           `json:"one_time_posters"`
}

// TrendReport is the full output of one trend analysis pass.
type TrendReport struct {
	TotalRecords     int               `json:"total_records"`
	SkippedRecords   int               `json:"skipped_records"`
	Keywords         []TermCount       `json:"keywords"`
	Topics           []TermCount       `json:"topics"`
	Deltas           []TrendDelta      `json:"deltas"`
	SubmoltActivity  []SubmoltActivity `json:"submolt_activity"`
	TopConversations []Conversation    `json:"top_conversations"`
	Authors          AuthorPatterns    `json:"authors"`
}

// --- Sentiment types ---

type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// SentimentResult is the polarity of a single record.
type SentimentResult struct {
	RecordID string         `json:"record_id"`
	Label    SentimentLabel `json:"label"`
	Score    float64        `json:"score"`
}

// SentimentSummary aggregates per-record results with equal weighting.
type SentimentSummary struct {
	Distribution  map[SentimentLabel]int     `json:"distribution"`
	Percentages   map[SentimentLabel]float64 `json:"percentages"`
	AverageScore  float64                    `json:"average_score"`
	TotalScored   int                        `json:"total_scored"`
	TopPositive   []SentimentResult          `json:"top_positive"`
	TopNegative   []SentimentResult          `json:"top_negative"`
	PositiveTerms []TermCount                `json:"positive_terms"`
	NegativeTerms []TermCount                `json:"negative_terms"`
}

// Report is the engine output handed to the external reporter.
type Report struct {
	RunID       string           `json:"run_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Trend       TrendReport      `json:"trend"`
	Sentiment   SentimentSummary `json:"sentiment"`
}

// --- Store interfaces ---

// EngagementStateStore round-trips dedup history and the rate budget between
// scheduled runs. Save must be all-or-nothing.
type EngagementStateStore interface {
	Load(ctx context.Context) (EngagementState, error)
	Save(ctx context.Context, state EngagementState) error
}

// SnapshotStore archives snapshots so the next run can load its previous
// window for trend comparison.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snapshot Snapshot) error
	LoadLatest(ctx context.Context) (*Snapshot, error)
}
