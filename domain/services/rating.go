package services

import (
	"math"

	"wagerengine/domain/entities"
)

// EloKFactor bounds how far one match can move a rating
const EloKFactor = 32

func expectedScore(rating, opponent float64) float64 {
	return 1 / (1 + math.Pow(10, (opponent-rating)/400))
}

// CalculateRatingChanges rates the winner against the mean of the losers and
// each loser against the winner. Missing ratings start at the default.
func CalculateRatingChanges(winnerID int64, participantIDs []int64, ratings map[int64]*entities.SkillRating) []entities.RatingChange {
	ratingOf := func(userID int64) int {
		if r, ok := ratings[userID]; ok && r != nil {
			return r.Rating
		}
		return entities.DefaultRating
	}

	winnerRating := float64(ratingOf(winnerID))

	var loserSum float64
	var losers int
	for _, id := range participantIDs {
		if id != winnerID {
			loserSum += float64(ratingOf(id))
			losers++
		}
	}
	if losers == 0 {
		return nil
	}
	meanLoser := loserSum / float64(losers)

	changes := make([]entities.RatingChange, 0, len(participantIDs))
	for _, id := range participantIDs {
		old := ratingOf(id)
		var delta float64
		won := id == winnerID
		if won {
			delta = EloKFactor * (1 - expectedScore(winnerRating, meanLoser))
		} else {
			delta = EloKFactor * (0 - expectedScore(float64(old), winnerRating))
		}
		next := old + int(math.Round(delta))
		if next < 0 {
			next = 0
		}
		changes = append(changes, entities.RatingChange{
			UserID:    id,
			OldRating: old,
			NewRating: next,
			Won:       won,
		})
	}
	return changes
}
