package services

import (
	"sort"

	"wagerengine/domain/entities"
)

// FraudThresholds tunes the statistical checks
type FraudThresholds struct {
	WinStreak int // Consecutive wins that count as an anomaly
	Rematch   int // Settled matches between one pair inside the window
}

// FraudContext is everything the checks need, loaded after settlement
type FraudContext struct {
	Wager          *entities.Wager
	Participants   []*entities.Participant // Active participants
	WinnerResults  []bool                  // Winner's most recent results, newest first
	PairMatches    map[[2]int64]int        // Settled matches per participant pair inside the window
	ReusedProofs   map[string][]int64      // Proof hash -> other wagers it appeared on
	FundingSources map[int64][]string      // User -> external funding sources
}

// CheckWinStreak fires when the last threshold results are all wins
func CheckWinStreak(results []bool, threshold int) bool {
	if threshold <= 0 || len(results) < threshold {
		return false
	}
	for _, won := range results[:threshold] {
		if !won {
			return false
		}
	}
	return true
}

// CheckRapidRematch returns the pairs that met at least threshold times
func CheckRapidRematch(pairMatches map[[2]int64]int, threshold int) [][2]int64 {
	if threshold <= 0 {
		return nil
	}
	var pairs [][2]int64
	for pair, count := range pairMatches {
		if count >= threshold {
			pairs = append(pairs, pair)
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
	return pairs
}

// CheckReusedProof returns proof hashes seen on another wager
func CheckReusedProof(reused map[string][]int64) []string {
	var hashes []string
	for hash, wagers := range reused {
		if len(wagers) > 0 {
			hashes = append(hashes, hash)
		}
	}
	sort.Strings(hashes)
	return hashes
}

// CheckMultiAccount returns participant pairs sharing a funding source
func CheckMultiAccount(sources map[int64][]string) [][2]int64 {
	owners := make(map[string][]int64)
	for userID, refs := range sources {
		for _, ref := range refs {
			owners[ref] = append(owners[ref], userID)
		}
	}

	seen := make(map[[2]int64]bool)
	var pairs [][2]int64
	for _, users := range owners {
		sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
		for i := 0; i < len(users); i++ {
			for j := i + 1; j < len(users); j++ {
				if users[i] == users[j] {
					continue
				}
				pair := [2]int64{users[i], users[j]}
				if !seen[pair] {
					seen[pair] = true
					pairs = append(pairs, pair)
				}
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
	return pairs
}

// ParticipantPairs lists every unordered pair of participants, lower id first
func ParticipantPairs(participants []*entities.Participant) [][2]int64 {
	ids := make([]int64, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.UserID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var pairs [][2]int64
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			pairs = append(pairs, [2]int64{ids[i], ids[j]})
		}
	}
	return pairs
}

// EvaluateFraudSignals runs every check and returns the flags to record
func EvaluateFraudSignals(fc FraudContext, th FraudThresholds) []*entities.FraudFlag {
	var flags []*entities.FraudFlag
	wagerID := fc.Wager.ID

	if fc.Wager.WinnerID != nil && CheckWinStreak(fc.WinnerResults, th.WinStreak) {
		winner := *fc.Wager.WinnerID
		flags = append(flags, &entities.FraudFlag{
			WagerID:  wagerID,
			UserID:   &winner,
			Signal:   entities.FraudSignalWinStreak,
			Severity: entities.FraudSeverityLow,
			Details:  map[string]any{"streak": th.WinStreak},
		})
	}

	for _, pair := range CheckRapidRematch(fc.PairMatches, th.Rematch) {
		flags = append(flags, &entities.FraudFlag{
			WagerID:  wagerID,
			Signal:   entities.FraudSignalRapidRematch,
			Severity: entities.FraudSeverityLow,
			Details: map[string]any{
				"users":   []int64{pair[0], pair[1]},
				"matches": fc.PairMatches[pair],
			},
		})
	}

	for _, hash := range CheckReusedProof(fc.ReusedProofs) {
		flags = append(flags, &entities.FraudFlag{
			WagerID:  wagerID,
			Signal:   entities.FraudSignalReusedProof,
			Severity: entities.FraudSeverityHigh,
			Details: map[string]any{
				"proof_hash":   hash,
				"other_wagers": fc.ReusedProofs[hash],
			},
		})
	}

	for _, pair := range CheckMultiAccount(fc.FundingSources) {
		flags = append(flags, &entities.FraudFlag{
			WagerID:  wagerID,
			Signal:   entities.FraudSignalMultiAccount,
			Severity: entities.FraudSeverityHigh,
			Details:  map[string]any{"users": []int64{pair[0], pair[1]}},
		})
	}
	return flags
}
