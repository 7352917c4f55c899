package ledger

import "time"

// Gap thresholds between consecutive games that end a round. The tight
// threshold bounds the "current round" summary; the wide one bounds the
// trend window.
const (
	RoundGapTight = 2 * time.Hour
	RoundGapWide  = 6 * time.Hour
)

// FilterRound returns the leading run of records (newest first) whose
// consecutive timestamps are no more than gap apart. The first record
// always belongs to the round; iteration stops at the first larger gap.
//
// Records whose timestamps cannot be parsed end the round, which keeps
// a corrupt row from pulling unrelated history into the summary.
func FilterRound(records []EnrichedGameRecord, gap time.Duration) []EnrichedGameRecord {
	if len(records) == 0 {
		return nil
	}
	out := []EnrichedGameRecord{records[0]}
	for i := 1; i < len(records); i++ {
		prev, err1 := ParseTimestamp(records[i-1].Timestamp)
		curr, err2 := ParseTimestamp(records[i].Timestamp)
		if err1 != nil || err2 != nil {
			break
		}
		if prev.Sub(curr) > gap {
			break
		}
		out = append(out, records[i])
	}
	return out
}

// ParseTimestamp accepts both timestamp shapes seen in a merged view:
// the server's "YYYY-MM-DD HH:MM:SS" and the client's RFC 3339 instant
// carried by pending entries.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(ServerTimeFormat, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
