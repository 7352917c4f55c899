package overlay

import (
	"math"
	"sort"

	"github.com/fllscore/ddzledger/internal/ledger"
)

// OverlayStats folds each pending entry's effect into the server stats:
// the landlord takes landlordScore, each farmer -landlordScore/2. Rows
// are created for players the server has never seen, every touched row
// is flagged HasPendingData, and the result is re-sorted descending by
// total score. With no pending entries the server slice is returned
// untouched.
//
// The win rate is updated incrementally from the win count implied by
// the previous rate and game count. Rounding that implied count makes
// the update approximate under repeated overlays; existing clients of
// the ledger compute it exactly this way, so it must not be tightened
// into an exact count.
func OverlayStats(server []ledger.PlayerStats, pending []ledger.PendingSubmission) []ledger.PlayerStats {
	if len(pending) == 0 {
		return server
	}

	rows := make([]ledger.PlayerStats, len(server))
	copy(rows, server)
	index := make(map[string]int, len(rows))
	for i, s := range rows {
		index[s.Name] = i
	}

	for _, p := range pending {
		farmerScore := p.FarmerScore()
		for _, name := range []string{p.Landlord, p.Farmer1, p.Farmer2} {
			i, ok := index[name]
			if !ok {
				rows = append(rows, ledger.PlayerStats{Name: name})
				i = len(rows) - 1
				index[name] = i
			}
			row := &rows[i]

			score := farmerScore
			if name == p.Landlord {
				score = p.LandlordScore
			}

			row.TotalScore += score
			row.GamesPlayed++
			row.HasPendingData = true
			row.AvgScore = float64(row.TotalScore) / float64(row.GamesPlayed)
			if score > 0 {
				prevWins := math.Round(row.WinRate / 100 * float64(row.GamesPlayed-1))
				row.WinRate = (prevWins + 1) / float64(row.GamesPlayed) * 100
			}
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalScore > rows[j].TotalScore
	})
	return rows
}
