package usecase_test

import (
	"errors"
	"math"
	"testing"

	"github.com/bidback/position_engine/internal/domain"
	"github.com/bidback/position_engine/internal/usecase"
)

const epsilon = 0.000001

func floatEquals(a, b float64) bool {
	return (a-b) < epsilon && (b-a) < epsilon
}

func TestClassifyVix(t *testing.T) {
	table := usecase.DefaultTierTable()

	tests := []struct {
		name      string
		vix       float64
		wantLabel string
		wantMult  float64
		wantHold  int
	}{
		{"Zero", 0, "Ultra-Low", 0.8, 3},
		{"Just under 12", 11.99, "Ultra-Low", 0.8, 3},
		{"Boundary 12", 12, "Low", 0.9, 4},
		{"Boundary 15", 15, "Normal", 1.0, 5},
		{"Boundary 20", 20, "Elevated", 1.1, 5},
		{"Scenario elevated", 22.4, "Elevated", 1.1, 5},
		{"Boundary 25", 25, "High", 1.2, 6},
		{"Boundary 30", 30, "Very High", 1.3, 7},
		{"Boundary 40", 40, "Extreme", 1.4, 10},
		{"Crisis reading", 85.5, "Extreme", 1.4, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, err := table.Classify(tt.vix)
			if err != nil {
				t.Fatalf("Classify(%v) error: %v", tt.vix, err)
			}
			if tier.Label != tt.wantLabel {
				t.Errorf("Classify(%v).Label = %q, want %q", tt.vix, tier.Label, tt.wantLabel)
			}
			if !floatEquals(tier.PositionMultiplier, tt.wantMult) {
				t.Errorf("Classify(%v).PositionMultiplier = %v, want %v", tt.vix, tier.PositionMultiplier, tt.wantMult)
			}
			if tier.MaxHoldDays != tt.wantHold {
				t.Errorf("Classify(%v).MaxHoldDays = %d, want %d", tt.vix, tier.MaxHoldDays, tt.wantHold)
			}
		})
	}
}

func TestClassifyVixRejectsNegative(t *testing.T) {
	table := usecase.DefaultTierTable()

	if _, err := table.Classify(-0.1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Classify(-0.1) error = %v, want ErrInvalidInput", err)
	}
}

// The seven tiers must partition [0, +Inf): every reading matches exactly
// one tier's half-open range.
func TestTierRangesPartition(t *testing.T) {
	tiers := usecase.DefaultTierTable().Tiers()

	if len(tiers) != 7 {
		t.Fatalf("default table has %d tiers, want 7", len(tiers))
	}
	for v := 0.0; v <= 100.0; v += 0.25 {
		matches := 0
		for _, tier := range tiers {
			if tier.Contains(v) {
				matches++
			}
		}
		if matches != 1 {
			t.Fatalf("vix %v matched %d tiers, want exactly 1", v, matches)
		}
	}
	if !math.IsInf(tiers[len(tiers)-1].UpperBound, 1) {
		t.Error("top tier is not unbounded above")
	}
}

func TestTierStopsBelowTargets(t *testing.T) {
	for _, tier := range usecase.DefaultTierTable().Tiers() {
		if tier.StopLossPct >= 0 {
			t.Errorf("tier %q stop %v is not negative", tier.Label, tier.StopLossPct)
		}
		if tier.HasProfitTarget1 && tier.ProfitTarget1Pct >= tier.ProfitTarget2Pct {
			t.Errorf("tier %q target1 %v >= target2 %v", tier.Label, tier.ProfitTarget1Pct, tier.ProfitTarget2Pct)
		}
	}
}

func TestNewTierTableValidation(t *testing.T) {
	tests := []struct {
		name  string
		tiers []domain.VixTier
	}{
		{"empty", nil},
		{"not starting at zero", []domain.VixTier{
			{Label: "A", LowerBound: 5, UpperBound: math.Inf(1)},
		}},
		{"gap", []domain.VixTier{
			{Label: "A", LowerBound: 0, UpperBound: 10},
			{Label: "B", LowerBound: 12, UpperBound: math.Inf(1)},
		}},
		{"bounded top", []domain.VixTier{
			{Label: "A", LowerBound: 0, UpperBound: 50},
		}},
		{"empty range", []domain.VixTier{
			{Label: "A", LowerBound: 0, UpperBound: 0},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := usecase.NewTierTable(tt.tiers); !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("NewTierTable() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}
