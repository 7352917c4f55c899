package ledger

// ServerTimeFormat is the layout the remote ledger uses for
// authoritative timestamps ("YYYY-MM-DD HH:MM:SS", server-local time).
const ServerTimeFormat = "2006-01-02 15:04:05"

// GameRecord is the authoritative remote record of one game.
//
// INVARIANTS (enforced by the remote ledger, relied upon here):
//   - Scores has exactly 3 entries summing to 0
//   - one entry (the landlord) has the sign unique among the three;
//     the other two (the farmers) each score -landlordScore/2
//
// Records are created by submit, removed only by deleteLastGame, and
// never mutated in place.
type GameRecord struct {
	Timestamp string         `json:"timestamp"`
	Scores    map[string]int `json:"scores"`
}

// PendingSubmission is a locally buffered write that has not been
// confirmed by the remote ledger. It is owned exclusively by the
// pending queue until removed (confirmed sync, undo, or force-clear).
//
// Timestamp is a client-generated ISO instant and stays provisional:
// the server assigns the authoritative timestamp when the entry is
// promoted to a GameRecord by a successful sync.
type PendingSubmission struct {
	ID            string `json:"id"`
	Landlord      string `json:"landlord"`
	Farmer1       string `json:"farmer1"`
	Farmer2       string `json:"farmer2"`
	LandlordScore int    `json:"landlordScore"`
	Timestamp     string `json:"timestamp"`
}

// FarmerScore returns the score each farmer takes for this submission.
func (p PendingSubmission) FarmerScore() int {
	return -p.LandlordScore / 2
}

// EnrichedGameRecord is the view-only shape of a game: a GameRecord (or
// a synthetic record derived from a PendingSubmission) plus the role
// assignment and display numbering. Never persisted as-is; recomputed
// on every read and owned by the caller.
type EnrichedGameRecord struct {
	Timestamp      string         `json:"timestamp"`
	Scores         map[string]int `json:"scores"`
	GameNumber     int            `json:"gameNumber"`
	Landlord       string         `json:"landlord"`
	Farmer1        string         `json:"farmer1"`
	Farmer2        string         `json:"farmer2"`
	LandlordScore  int            `json:"landlordScore"`
	IsCurrentRound bool           `json:"isCurrentRound"`
	IsPending      bool           `json:"isPending,omitempty"`
	PendingID      string         `json:"pendingId,omitempty"`
}

// PlayerStats is one row of the aggregate stats view.
//
// HasPendingData marks rows whose totals include local, unconfirmed
// submissions (the overlay sets it; server responses never do).
type PlayerStats struct {
	Name           string  `json:"name"`
	TotalScore     int     `json:"totalScore"`
	AvgScore       float64 `json:"avgScore"`
	GamesPlayed    int     `json:"gamesPlayed"`
	WinRate        float64 `json:"winRate"`
	HasPendingData bool    `json:"hasPendingData,omitempty"`
}

// PlayerCombo is the last-used landlord/farmer seating, persisted so
// the next submission can be pre-filled.
type PlayerCombo struct {
	Landlord string `json:"landlord"`
	Farmer1  string `json:"farmer1"`
	Farmer2  string `json:"farmer2"`
}
