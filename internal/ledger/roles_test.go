package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifyRoles_UniqueSign(t *testing.T) {
	landlord, farmers, ok := IdentifyRoles(map[string]int{"A": 30, "B": -15, "C": -15})

	require.True(t, ok)
	assert.Equal(t, "A", landlord)
	assert.ElementsMatch(t, []string{"B", "C"}, farmers[:])
}

func TestIdentifyRoles_NegativeLandlord(t *testing.T) {
	landlord, farmers, ok := IdentifyRoles(map[string]int{"A": 10, "B": -20, "C": 10})

	require.True(t, ok)
	assert.Equal(t, "B", landlord)
	assert.ElementsMatch(t, []string{"A", "C"}, farmers[:])
}

func TestIdentifyRoles_FallbackLargestAbs(t *testing.T) {
	// All zero except one: no unique nonzero sign among a shared pair,
	// so the largest absolute value wins.
	landlord, _, ok := IdentifyRoles(map[string]int{"A": 0, "B": 40, "C": -40})

	require.True(t, ok)
	assert.Equal(t, "B", landlord, "tie on abs resolves to first name in sorted order")
}

func TestIdentifyRoles_Deterministic(t *testing.T) {
	// Map iteration order varies between runs; the result must not.
	for i := 0; i < 50; i++ {
		landlord, farmers, ok := IdentifyRoles(map[string]int{"A": 30, "B": -15, "C": -15})
		require.True(t, ok)
		require.Equal(t, "A", landlord)
		require.Equal(t, [2]string{"B", "C"}, farmers)
	}
}

func TestIdentifyRoles_WrongArity(t *testing.T) {
	_, _, ok := IdentifyRoles(map[string]int{"A": 1, "B": -1})
	assert.False(t, ok)
}

func TestEnrich(t *testing.T) {
	rec := GameRecord{
		Timestamp: "2024-01-01 10:00:00",
		Scores:    map[string]int{"P": 30, "E": -15, "L": -15},
	}

	got := Enrich(rec, 42)

	assert.Equal(t, 42, got.GameNumber)
	assert.Equal(t, "P", got.Landlord)
	assert.Equal(t, 30, got.LandlordScore)
	assert.ElementsMatch(t, []string{"E", "L"}, []string{got.Farmer1, got.Farmer2})
	assert.False(t, got.IsPending)
}

func TestEnrich_MalformedRecord(t *testing.T) {
	rec := GameRecord{
		Timestamp: "2024-01-01 10:00:00",
		Scores:    map[string]int{"A": 5},
	}

	got := Enrich(rec, 7)

	assert.Equal(t, 7, got.GameNumber)
	assert.Equal(t, "A", got.Landlord)
	assert.Equal(t, "?", got.Farmer1)
	assert.Equal(t, "?", got.Farmer2)
	assert.Equal(t, 0, got.LandlordScore)
}
