package usecase

import (
	"fmt"
	"math"

	"github.com/bidback/position_engine/internal/domain"
)

// TierTable is the ordered VIX exit-rule table. Validated once at
// construction as a contiguous partition of [0, +Inf) and immutable after.
type TierTable struct {
	tiers []domain.VixTier
}

// NewTierTable validates that the tiers are ordered, gapless and cover
// [0, +Inf). An override table from config goes through the same checks.
func NewTierTable(tiers []domain.VixTier) (*TierTable, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("%w: empty tier table", domain.ErrInvalidInput)
	}
	if tiers[0].LowerBound != 0 {
		return nil, fmt.Errorf("%w: first tier must start at 0, got %v", domain.ErrInvalidInput, tiers[0].LowerBound)
	}
	for i, t := range tiers {
		if t.UpperBound <= t.LowerBound {
			return nil, fmt.Errorf("%w: tier %q has empty range [%v, %v)", domain.ErrInvalidInput, t.Label, t.LowerBound, t.UpperBound)
		}
		if i > 0 && t.LowerBound != tiers[i-1].UpperBound {
			return nil, fmt.Errorf("%w: gap between tiers %q and %q", domain.ErrInvalidInput, tiers[i-1].Label, t.Label)
		}
	}
	if !math.IsInf(tiers[len(tiers)-1].UpperBound, 1) {
		return nil, fmt.Errorf("%w: last tier must be unbounded above", domain.ErrInvalidInput)
	}
	cp := make([]domain.VixTier, len(tiers))
	copy(cp, tiers)
	return &TierTable{tiers: cp}, nil
}

// DefaultTierTable returns the built-in 7-tier BIDBACK table.
func DefaultTierTable() *TierTable {
	t, err := NewTierTable(domain.DefaultVixTiers())
	if err != nil {
		panic(err) // built-in table is a fixed constant
	}
	return t
}

// Classify returns the tier containing vix. Fails for negative readings.
func (t *TierTable) Classify(vix float64) (domain.VixTier, error) {
	if vix < 0 || math.IsNaN(vix) {
		return domain.VixTier{}, fmt.Errorf("%w: vix must be >= 0, got %v", domain.ErrInvalidInput, vix)
	}
	for _, tier := range t.tiers {
		if tier.Contains(vix) {
			return tier, nil
		}
	}
	// Unreachable with a validated table.
	return domain.VixTier{}, fmt.Errorf("%w: no tier covers vix %v", domain.ErrInvalidInput, vix)
}

// Tiers returns a copy of the table rows.
func (t *TierTable) Tiers() []domain.VixTier {
	cp := make([]domain.VixTier, len(t.tiers))
	copy(cp, t.tiers)
	return cp
}
