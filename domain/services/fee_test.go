package services

import (
	"testing"

	"wagerengine/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestFeeSchedule_Calculate(t *testing.T) {
	tests := []struct {
		name         string
		bps          int64
		stake        int64
		participants int
		expected     entities.FeeBreakdown
	}{
		{name: "five percent", bps: 500, stake: 10, participants: 2, expected: entities.FeeBreakdown{Pot: 20, PlatformFee: 1, PrizePool: 19}},
		{name: "rounds down", bps: 500, stake: 7, participants: 2, expected: entities.FeeBreakdown{Pot: 14, PlatformFee: 0, PrizePool: 14}},
		{name: "no fee", bps: 0, stake: 50, participants: 4, expected: entities.FeeBreakdown{Pot: 200, PrizePool: 200}},
		{name: "lobby", bps: 350, stake: 1000, participants: 8, expected: entities.FeeBreakdown{Pot: 8000, PlatformFee: 280, PrizePool: 7720}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schedule, err := NewFeeSchedule(tt.bps)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, schedule.Calculate(tt.stake, tt.participants))
		})
	}
}

func TestNewFeeSchedule_Bounds(t *testing.T) {
	_, err := NewFeeSchedule(-1)
	assert.ErrorIs(t, err, entities.ErrValidation)
	_, err = NewFeeSchedule(10000)
	assert.ErrorIs(t, err, entities.ErrValidation)
}

// Property: the fee never creates or destroys money
func TestFeeSchedule_ConservesPot(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bps := rapid.Int64Range(0, 9999).Draw(t, "bps")
		stake := rapid.Int64Range(1, 1_000_000_000).Draw(t, "stake")
		n := rapid.IntRange(entities.MinParticipants, entities.MaxParticipants).Draw(t, "participants")

		fee := FeeSchedule{BasisPoints: bps}.Calculate(stake, n)

		if fee.Pot != stake*int64(n) {
			t.Fatalf("pot %d, expected %d", fee.Pot, stake*int64(n))
		}
		if fee.PlatformFee+fee.PrizePool != fee.Pot {
			t.Fatalf("fee %d + prize %d != pot %d", fee.PlatformFee, fee.PrizePool, fee.Pot)
		}
		if fee.PlatformFee < 0 || fee.PrizePool <= 0 {
			t.Fatalf("negative split: %+v", fee)
		}
	})
}

func TestCalculateRatingChanges(t *testing.T) {
	changes := CalculateRatingChanges(TestUser1ID, []int64{TestUser1ID, TestUser2ID}, map[int64]*entities.SkillRating{})
	require.Len(t, changes, 2)
	assert.Equal(t, entities.RatingChange{UserID: TestUser1ID, OldRating: 1200, NewRating: 1216, Won: true}, changes[0])
	assert.Equal(t, entities.RatingChange{UserID: TestUser2ID, OldRating: 1200, NewRating: 1184}, changes[1])

	assert.Nil(t, CalculateRatingChanges(TestUser1ID, []int64{TestUser1ID}, nil))
}

// Property: winning never lowers a rating, losing never raises one, and no
// rating goes negative
func TestCalculateRatingChanges_Monotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(2, 8).Draw(t, "participants")
		ids := make([]int64, 0, n)
		ratings := map[int64]*entities.SkillRating{}
		for i := 0; i < n; i++ {
			id := int64(100 + i)
			ids = append(ids, id)
			ratings[id] = &entities.SkillRating{UserID: id, Rating: rapid.IntRange(0, 3000).Draw(t, "rating")}
		}
		winner := ids[rapid.IntRange(0, n-1).Draw(t, "winner")]

		for _, change := range CalculateRatingChanges(winner, ids, ratings) {
			if change.NewRating < 0 {
				t.Fatalf("negative rating %+v", change)
			}
			if change.Won && change.NewRating < change.OldRating {
				t.Fatalf("winner lost rating %+v", change)
			}
			if !change.Won && change.NewRating > change.OldRating {
				t.Fatalf("loser gained rating %+v", change)
			}
		}
	})
}
