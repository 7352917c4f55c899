package overlay

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fllscore/ddzledger/internal/ledger"
)

func serverRecords() []ledger.EnrichedGameRecord {
	return []ledger.EnrichedGameRecord{
		{
			Timestamp:     "2024-01-01 10:05:00",
			Scores:        map[string]int{"A": 30, "B": -15, "C": -15},
			GameNumber:    2,
			Landlord:      "A",
			Farmer1:       "B",
			Farmer2:       "C",
			LandlordScore: 30,
		},
		{
			Timestamp:     "2024-01-01 10:00:00",
			Scores:        map[string]int{"B": 20, "A": -10, "C": -10},
			GameNumber:    1,
			Landlord:      "B",
			Farmer1:       "A",
			Farmer2:       "C",
			LandlordScore: 20,
		},
	}
}

func TestMergeHistory_NoPendingIsNoOp(t *testing.T) {
	server := serverRecords()

	got := MergeHistory(server, nil)

	require.Len(t, got, 2)
	assert.Same(t, &server[0], &got[0], "empty overlay must return the server slice untouched")
}

func TestMergeHistory_OfflineSubmission(t *testing.T) {
	pending := []ledger.PendingSubmission{
		{ID: "p-1", Landlord: "P", Farmer1: "E", Farmer2: "L", LandlordScore: 30, Timestamp: "2024-01-01T10:10:00Z"},
	}

	got := MergeHistory(nil, pending)

	require.Len(t, got, 1)
	assert.True(t, got[0].IsPending)
	assert.Equal(t, "p-1", got[0].PendingID)
	assert.Equal(t, 1, got[0].GameNumber)
	assert.Equal(t, 30, got[0].Scores["P"])
	assert.Equal(t, -15, got[0].Scores["E"])
	assert.Equal(t, -15, got[0].Scores["L"])
}

func TestMergeHistory_PendingLeadsAndNumbersContinue(t *testing.T) {
	server := serverRecords()
	pending := []ledger.PendingSubmission{
		{ID: "p-1", Landlord: "C", Farmer1: "A", Farmer2: "B", LandlordScore: 40, Timestamp: "2024-01-01T10:10:00Z"},
		{ID: "p-2", Landlord: "A", Farmer1: "B", Farmer2: "C", LandlordScore: -20, Timestamp: "2024-01-01T10:12:00Z"},
	}

	got := MergeHistory(server, pending)

	require.Len(t, got, 4)
	// Most recently added pending entry first, then the older one,
	// then the server records in their own order.
	assert.Equal(t, "p-2", got[0].PendingID)
	assert.Equal(t, 4, got[0].GameNumber)
	assert.Equal(t, "p-1", got[1].PendingID)
	assert.Equal(t, 3, got[1].GameNumber)
	assert.Equal(t, 2, got[2].GameNumber)
	assert.False(t, got[2].IsPending)
}

func TestMergeHistory_FarmerScoreInvariant(t *testing.T) {
	for _, score := range []int{10, 20, 30, -40, 60} {
		pending := []ledger.PendingSubmission{
			{ID: "p", Landlord: "X", Farmer1: "Y", Farmer2: "Z", LandlordScore: score},
		}
		got := MergeHistory(nil, pending)
		require.Len(t, got, 1)
		farmer := got[0].Scores["Y"]
		assert.Equal(t, -score/2, farmer)
		assert.Zero(t, score+2*farmer, "scores must sum to zero")
	}
}

func TestMergeHistory_Golden(t *testing.T) {
	pending := []ledger.PendingSubmission{
		{ID: "p-1", Landlord: "C", Farmer1: "A", Farmer2: "B", LandlordScore: 40, Timestamp: "2024-01-01T10:10:00Z"},
		{ID: "p-2", Landlord: "A", Farmer1: "B", Farmer2: "C", LandlordScore: -20, Timestamp: "2024-01-01T10:12:00Z"},
	}

	got := MergeHistory(serverRecords(), pending)

	raw, err := json.MarshalIndent(got, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "merge_history", raw)
}
