package services

import (
	"fmt"

	"oddsmatch/domain/entities"
)

// MatchedStakes holds the amounts each side contributes to a match
type MatchedStakes struct {
	Incoming  int64
	Candidate int64
}

// IsZero reports whether the pair cannot form a match
func (m MatchedStakes) IsZero() bool {
	return m.Incoming <= 0 || m.Candidate <= 0
}

// CalculateMatchedStakes computes the fill of two bets at complementary odds.
// The side with multiplier above one pays out p*(m-1) against the other side's
// stake, so its fill is min(Sp, Sl/(m-1)) and the other side's is fill*(m-1).
// Both are floored; intermediates are 256-bit and any result outside int64 is ErrOverflow.
func CalculateMatchedStakes(incoming, candidate entities.BetData) (MatchedStakes, error) {
	if !incoming.Odds.IsComplementary(candidate.Odds) {
		return MatchedStakes{}, fmt.Errorf("%w: odds %s and %s are not complementary", entities.ErrConsistency, incoming.Odds, candidate.Odds)
	}

	payout, liability := incoming, candidate
	incomingIsPayout := true
	if !incoming.Odds.GreaterThanOne() {
		payout, liability = candidate, incoming
		incomingIsPayout = false
	}

	odds := payout.Odds.Simplified()
	// (m - 1) = (num - den) / den
	excess := uint64(odds.Numerator - odds.Denominator)
	den := uint64(odds.Denominator)

	maxPayout, err := entities.MulDiv(liability.Stake, den, excess)
	if err != nil {
		return MatchedStakes{}, fmt.Errorf("failed to calculate payout side fill: %w", err)
	}

	payoutMatched := payout.Stake
	if maxPayout < payoutMatched {
		payoutMatched = maxPayout
	}

	liabilityMatched, err := entities.MulDiv(payoutMatched, excess, den)
	if err != nil {
		return MatchedStakes{}, fmt.Errorf("failed to calculate liability side fill: %w", err)
	}

	if incomingIsPayout {
		return MatchedStakes{Incoming: payoutMatched, Candidate: liabilityMatched}, nil
	}
	return MatchedStakes{Incoming: liabilityMatched, Candidate: payoutMatched}, nil
}
