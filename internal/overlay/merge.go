// Package overlay blends confirmed remote data with the pending local
// queue into the view the rest of the application reads. Both entry
// points are pure: immutable inputs, no I/O, recomputed on every read.
package overlay

import (
	"github.com/fllscore/ddzledger/internal/ledger"
)

// MergeHistory places the pending entries ahead of (newer than) all
// server records, most recently added first, numbering them onward from
// the newest server record. With no pending entries the server slice is
// returned untouched.
func MergeHistory(server []ledger.EnrichedGameRecord, pending []ledger.PendingSubmission) []ledger.EnrichedGameRecord {
	if len(pending) == 0 {
		return server
	}

	base := 0
	if len(server) > 0 {
		base = server[0].GameNumber
	}

	block := make([]ledger.EnrichedGameRecord, len(pending))
	for i, p := range pending {
		farmerScore := p.FarmerScore()
		// Reversed placement: the last-added pending entry is the
		// newest and leads the merged view.
		block[len(pending)-1-i] = ledger.EnrichedGameRecord{
			Timestamp: p.Timestamp,
			Scores: map[string]int{
				p.Landlord: p.LandlordScore,
				p.Farmer1:  farmerScore,
				p.Farmer2:  farmerScore,
			},
			GameNumber:     base + i + 1,
			Landlord:       p.Landlord,
			Farmer1:        p.Farmer1,
			Farmer2:        p.Farmer2,
			LandlordScore:  p.LandlordScore,
			IsCurrentRound: true,
			IsPending:      true,
			PendingID:      p.ID,
		}
	}

	out := make([]ledger.EnrichedGameRecord, 0, len(block)+len(server))
	out = append(out, block...)
	out = append(out, server...)
	return out
}
