package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moltbridge/moltwatch/internal/domain"
)

func TestRecordCodecRoundTripsAllFields(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	records := []domain.Record{
		{
			ID:           "p1",
			Body:         "agent-to-agent protocols, with `code` and unicode 🦞",
			Author:       "crab",
			Submolt:      "agents",
			Upvotes:      34,
			CommentCount: 12,
			CreatedAt:    created,
		},
		{ID: "p2", Body: "second"},
	}

	payload, err := encodeRecords(records)
	require.NoError(t, err)

	decoded, err := decodeRecords(payload)
	require.NoError(t, err)
	assert.Equal(t, records, decoded)
}

func TestRecordCodecEmptySlice(t *testing.T) {
	payload, err := encodeRecords(nil)
	require.NoError(t, err)

	decoded, err := decodeRecords(payload)
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestDecodeRecordsRejectsCorruptPayload(t *testing.T) {
	_, err := decodeRecords([]byte(`{"not":"a list"`))
	assert.Error(t, err)
}
