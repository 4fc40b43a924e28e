package usecase

import (
	"fmt"
	"math"

	"github.com/bidback/position_engine/internal/domain"
)

// PositionSizer stacks the VIX tier multiplier and the breadth multiplier
// onto a base dollar allocation. The base itself (portfolio value x
// allocation percent) is computed by the caller.
type PositionSizer struct{}

func NewPositionSizer() *PositionSizer {
	return &PositionSizer{}
}

// ComputeAllocation produces the size plan for one entry. AvoidEntry is a
// hard override: zero allocation and shares with the Avoided flag set, not
// a zero multiplier applied arithmetically.
func (s *PositionSizer) ComputeAllocation(baseAllocation, entryPrice float64, tier domain.VixTier, signal domain.BreadthSignal) (domain.PositionSizePlan, error) {
	if entryPrice <= 0 {
		return domain.PositionSizePlan{}, fmt.Errorf("%w: entry price must be > 0, got %v", domain.ErrInvalidInput, entryPrice)
	}
	if baseAllocation < 0 {
		return domain.PositionSizePlan{}, fmt.Errorf("%w: base allocation must be >= 0, got %v", domain.ErrInvalidInput, baseAllocation)
	}

	if signal.Type == domain.SignalAvoidEntry {
		return domain.PositionSizePlan{
			BaseAllocation: baseAllocation,
			VixMultiplier:  tier.PositionMultiplier,
			Avoided:        true,
		}, nil
	}

	final := baseAllocation * tier.PositionMultiplier * signal.Multiplier
	return domain.PositionSizePlan{
		BaseAllocation:    baseAllocation,
		VixMultiplier:     tier.PositionMultiplier,
		BreadthMultiplier: signal.Multiplier,
		FinalAllocation:   final,
		ShareCount:        int(math.Floor(final / entryPrice)),
	}, nil
}
