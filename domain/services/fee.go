package services

import (
	"fmt"

	"wagerengine/domain/entities"
)

const basisPointsDenominator = 10000

// FeeSchedule is the single authoritative platform fee function
type FeeSchedule struct {
	BasisPoints int64
}

// NewFeeSchedule validates and returns a fee schedule
func NewFeeSchedule(basisPoints int64) (FeeSchedule, error) {
	if basisPoints < 0 || basisPoints >= basisPointsDenominator {
		return FeeSchedule{}, fmt.Errorf("%w: fee basis points must be in [0, %d), got %d",
			entities.ErrValidation, basisPointsDenominator, basisPoints)
	}
	return FeeSchedule{BasisPoints: basisPoints}, nil
}

// Calculate splits the pot of a wager. The fee rounds down so PlatformFee + PrizePool == Pot.
func (f FeeSchedule) Calculate(stakeAmount int64, participants int) entities.FeeBreakdown {
	pot := stakeAmount * int64(participants)
	fee := pot * f.BasisPoints / basisPointsDenominator
	return entities.FeeBreakdown{
		Pot:         pot,
		PlatformFee: fee,
		PrizePool:   pot - fee,
	}
}
