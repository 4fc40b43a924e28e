package domain

import (
	"encoding/json"
	"math"
)

// VixTier is one row of the BIDBACK exit-rule table. Bounds are half-open:
// LowerBound inclusive, UpperBound exclusive. The top tier uses +Inf.
type VixTier struct {
	Label      string
	LowerBound float64
	UpperBound float64

	StopLossPct float64 // negative, e.g. -8 means stop 8% below entry

	// High-volatility tiers carry no interim target; HasProfitTarget1
	// distinguishes "absent" from a literal zero percent.
	ProfitTarget1Pct float64
	HasProfitTarget1 bool
	ProfitTarget2Pct float64

	MaxHoldDays        int
	PositionMultiplier float64
}

// vixTierJSON is the wire shape: a null upper bound stands in for +Inf and
// a null first target for "no interim target".
type vixTierJSON struct {
	Label              string   `json:"label"`
	LowerBound         float64  `json:"lower_bound"`
	UpperBound         *float64 `json:"upper_bound"`
	StopLossPct        float64  `json:"stop_loss_pct"`
	ProfitTarget1Pct   *float64 `json:"profit_target1_pct"`
	ProfitTarget2Pct   float64  `json:"profit_target2_pct"`
	MaxHoldDays        int      `json:"max_hold_days"`
	PositionMultiplier float64  `json:"position_multiplier"`
}

func (t VixTier) MarshalJSON() ([]byte, error) {
	out := vixTierJSON{
		Label:              t.Label,
		LowerBound:         t.LowerBound,
		StopLossPct:        t.StopLossPct,
		ProfitTarget2Pct:   t.ProfitTarget2Pct,
		MaxHoldDays:        t.MaxHoldDays,
		PositionMultiplier: t.PositionMultiplier,
	}
	if !math.IsInf(t.UpperBound, 1) {
		upper := t.UpperBound
		out.UpperBound = &upper
	}
	if t.HasProfitTarget1 {
		target := t.ProfitTarget1Pct
		out.ProfitTarget1Pct = &target
	}
	return json.Marshal(out)
}

func (t *VixTier) UnmarshalJSON(data []byte) error {
	var in vixTierJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*t = VixTier{
		Label:              in.Label,
		LowerBound:         in.LowerBound,
		UpperBound:         math.Inf(1),
		StopLossPct:        in.StopLossPct,
		ProfitTarget2Pct:   in.ProfitTarget2Pct,
		MaxHoldDays:        in.MaxHoldDays,
		PositionMultiplier: in.PositionMultiplier,
	}
	if in.UpperBound != nil {
		t.UpperBound = *in.UpperBound
	}
	if in.ProfitTarget1Pct != nil {
		t.HasProfitTarget1 = true
		t.ProfitTarget1Pct = *in.ProfitTarget1Pct
	}
	return nil
}

// Contains reports whether vix falls inside the tier's half-open range.
func (t VixTier) Contains(vix float64) bool {
	return vix >= t.LowerBound && vix < t.UpperBound
}

// DefaultVixTiers returns the built-in 7-tier BIDBACK table. The Elevated
// tier's first target is +9%; it can be overridden via config.
func DefaultVixTiers() []VixTier {
	return []VixTier{
		{Label: "Ultra-Low", LowerBound: 0, UpperBound: 12, StopLossPct: -4, ProfitTarget1Pct: 4, HasProfitTarget1: true, ProfitTarget2Pct: 10, MaxHoldDays: 3, PositionMultiplier: 0.8},
		{Label: "Low", LowerBound: 12, UpperBound: 15, StopLossPct: -6, ProfitTarget1Pct: 8, HasProfitTarget1: true, ProfitTarget2Pct: 12, MaxHoldDays: 4, PositionMultiplier: 0.9},
		{Label: "Normal", LowerBound: 15, UpperBound: 20, StopLossPct: -8, ProfitTarget1Pct: 9, HasProfitTarget1: true, ProfitTarget2Pct: 15, MaxHoldDays: 5, PositionMultiplier: 1.0},
		{Label: "Elevated", LowerBound: 20, UpperBound: 25, StopLossPct: -10, ProfitTarget1Pct: 9, HasProfitTarget1: true, ProfitTarget2Pct: 20, MaxHoldDays: 5, PositionMultiplier: 1.1},
		{Label: "High", LowerBound: 25, UpperBound: 30, StopLossPct: -12, ProfitTarget2Pct: 25, MaxHoldDays: 6, PositionMultiplier: 1.2},
		{Label: "Very High", LowerBound: 30, UpperBound: 40, StopLossPct: -15, ProfitTarget2Pct: 30, MaxHoldDays: 7, PositionMultiplier: 1.3},
		{Label: "Extreme", LowerBound: 40, UpperBound: math.Inf(1), StopLossPct: -18, ProfitTarget2Pct: 35, MaxHoldDays: 10, PositionMultiplier: 1.4},
	}
}
