package usecase_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/bidback/position_engine/internal/domain"
	"github.com/bidback/position_engine/internal/usecase"
)

func newExitPlanner() *usecase.ExitPlanner {
	return usecase.NewExitPlanner(usecase.NewMarketCalendar(2025, 2026))
}

func TestBuildExitPlanUltraLow(t *testing.T) {
	planner := newExitPlanner()
	tier := tierByLabel(t, "Ultra-Low")

	// Monday entry, 3 hold days, no closures in between.
	plan, err := planner.BuildExitPlan(58.45, day(2025, time.August, 11), tier)
	if err != nil {
		t.Fatalf("BuildExitPlan error: %v", err)
	}

	if !almostEqual(plan.StopLossPrice, 56.112, 0.001) {
		t.Errorf("StopLossPrice = %v, want 56.112", plan.StopLossPrice)
	}
	if !plan.HasProfitTarget1 || !almostEqual(plan.ProfitTarget1Price, 60.788, 0.001) {
		t.Errorf("ProfitTarget1Price = %v (present=%v), want 60.788", plan.ProfitTarget1Price, plan.HasProfitTarget1)
	}
	if !almostEqual(plan.ProfitTarget2Price, 64.295, 0.001) {
		t.Errorf("ProfitTarget2Price = %v, want 64.295", plan.ProfitTarget2Price)
	}
	if plan.MaxHoldDays != 3 {
		t.Errorf("MaxHoldDays = %d, want 3", plan.MaxHoldDays)
	}
	if want := day(2025, time.August, 14); !plan.ExitDate.Equal(want) {
		t.Errorf("ExitDate = %v, want %v", plan.ExitDate, want)
	}
}

func TestBuildExitPlanElevated(t *testing.T) {
	planner := newExitPlanner()
	tier := tierByLabel(t, "Elevated")

	plan, err := planner.BuildExitPlan(45.20, day(2025, time.August, 11), tier)
	if err != nil {
		t.Fatalf("BuildExitPlan error: %v", err)
	}

	if !almostEqual(plan.StopLossPrice, 40.68, 0.001) {
		t.Errorf("StopLossPrice = %v, want 40.68", plan.StopLossPrice)
	}
	if !almostEqual(plan.ProfitTarget2Price, 54.24, 0.001) {
		t.Errorf("ProfitTarget2Price = %v, want 54.24", plan.ProfitTarget2Price)
	}
}

// Entering on the July 3 early close must skip July 4 and the weekend:
// the fifth trading day after 2025-07-03 is 2025-07-11.
func TestBuildExitPlanSkipsHolidayAndWeekend(t *testing.T) {
	planner := newExitPlanner()
	tier := tierByLabel(t, "Normal") // 5 hold days

	plan, err := planner.BuildExitPlan(100, day(2025, time.July, 3), tier)
	if err != nil {
		t.Fatalf("BuildExitPlan error: %v", err)
	}
	if want := day(2025, time.July, 11); !plan.ExitDate.Equal(want) {
		t.Errorf("ExitDate = %v, want %v", plan.ExitDate, want)
	}
}

// For every tier: stop < entry < target1 (when present) < target2.
func TestExitPriceOrdering(t *testing.T) {
	planner := newExitPlanner()
	entry := 100.0

	for _, tier := range usecase.DefaultTierTable().Tiers() {
		plan, err := planner.BuildExitPlan(entry, day(2025, time.August, 11), tier)
		if err != nil {
			t.Fatalf("tier %q: BuildExitPlan error: %v", tier.Label, err)
		}
		if plan.StopLossPrice >= entry {
			t.Errorf("tier %q: stop %v not below entry", tier.Label, plan.StopLossPrice)
		}
		if plan.HasProfitTarget1 {
			if plan.ProfitTarget1Price <= entry || plan.ProfitTarget1Price >= plan.ProfitTarget2Price {
				t.Errorf("tier %q: target1 %v out of order (entry %v, target2 %v)",
					tier.Label, plan.ProfitTarget1Price, entry, plan.ProfitTarget2Price)
			}
		} else if plan.ProfitTarget1Price != 0 {
			t.Errorf("tier %q: absent target1 carries price %v", tier.Label, plan.ProfitTarget1Price)
		}
		if plan.ProfitTarget2Price <= entry {
			t.Errorf("tier %q: target2 %v not above entry", tier.Label, plan.ProfitTarget2Price)
		}
	}
}

func TestBuildExitPlanInvalidInputs(t *testing.T) {
	planner := newExitPlanner()
	tier := tierByLabel(t, "Normal")

	if _, err := planner.BuildExitPlan(0, day(2025, time.August, 11), tier); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("zero entry price error = %v, want ErrInvalidInput", err)
	}
	if _, err := planner.BuildExitPlan(100, day(2030, time.August, 12), tier); !errors.Is(err, domain.ErrUnsupportedYear) {
		t.Errorf("unloaded year error = %v, want ErrUnsupportedYear", err)
	}
}

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}
