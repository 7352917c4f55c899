package ledger

import "sort"

// IdentifyRoles determines the landlord of a 3-score record that is not
// already labeled. The landlord is the entry whose sign is unique among
// the three (the other two share a sign); when no sign is unique the
// entry with the largest absolute value wins.
//
// Player names are visited in sorted order so the result is independent
// of map iteration order.
func IdentifyRoles(scores map[string]int) (landlord string, farmers [2]string, ok bool) {
	if len(scores) != 3 {
		return "", [2]string{}, false
	}

	players := make([]string, 0, 3)
	for name := range scores {
		players = append(players, name)
	}
	sort.Strings(players)

	sign := func(v int) int {
		switch {
		case v > 0:
			return 1
		case v < 0:
			return -1
		default:
			return 0
		}
	}

	landlordIdx := -1
	for i := 0; i < 3; i++ {
		si := sign(scores[players[i]])
		sj := sign(scores[players[(i+1)%3]])
		sk := sign(scores[players[(i+2)%3]])
		if si != 0 && sj == sk && si != sj {
			landlordIdx = i
			break
		}
	}

	// No unique sign: largest absolute score.
	if landlordIdx == -1 {
		maxAbs := -1
		for i, name := range players {
			v := scores[name]
			if v < 0 {
				v = -v
			}
			if v > maxAbs {
				maxAbs = v
				landlordIdx = i
			}
		}
	}

	landlord = players[landlordIdx]
	fi := 0
	for i, name := range players {
		if i != landlordIdx {
			farmers[fi] = name
			fi++
		}
	}
	return landlord, farmers, true
}

// Enrich converts a raw remote record into the enriched view shape,
// assigning roles and the given display number.
//
// Records that do not carry exactly 3 scores cannot be role-identified;
// they come back with placeholder roles and a zero landlord score so a
// malformed remote row never breaks a history page.
func Enrich(rec GameRecord, gameNumber int) EnrichedGameRecord {
	landlord, farmers, ok := IdentifyRoles(rec.Scores)
	if !ok {
		names := make([]string, 0, len(rec.Scores))
		for name := range rec.Scores {
			names = append(names, name)
		}
		sort.Strings(names)
		for len(names) < 3 {
			names = append(names, "?")
		}
		return EnrichedGameRecord{
			Timestamp:  rec.Timestamp,
			Scores:     rec.Scores,
			GameNumber: gameNumber,
			Landlord:   names[0],
			Farmer1:    names[1],
			Farmer2:    names[2],
		}
	}

	return EnrichedGameRecord{
		Timestamp:     rec.Timestamp,
		Scores:        rec.Scores,
		GameNumber:    gameNumber,
		Landlord:      landlord,
		Farmer1:       farmers[0],
		Farmer2:       farmers[1],
		LandlordScore: rec.Scores[landlord],
	}
}
