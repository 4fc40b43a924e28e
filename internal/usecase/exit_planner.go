package usecase

import (
	"fmt"
	"time"

	"github.com/bidback/position_engine/internal/domain"
)

// ExitPlanner turns a VIX tier's percentages into absolute prices and
// projects the max-hold-day count onto the market calendar.
type ExitPlanner struct {
	calendar *MarketCalendar
}

func NewExitPlanner(calendar *MarketCalendar) *ExitPlanner {
	return &ExitPlanner{calendar: calendar}
}

// BuildExitPlan computes stop/target prices from the tier percents and the
// concrete exit date, skipping weekends and full-close holidays.
func (p *ExitPlanner) BuildExitPlan(entryPrice float64, entryDate time.Time, tier domain.VixTier) (domain.ExitPlan, error) {
	if entryPrice <= 0 {
		return domain.ExitPlan{}, fmt.Errorf("%w: entry price must be > 0, got %v", domain.ErrInvalidInput, entryPrice)
	}

	exitDate, err := p.calendar.AddTradingDays(entryDate, tier.MaxHoldDays)
	if err != nil {
		return domain.ExitPlan{}, err
	}

	plan := domain.ExitPlan{
		StopLossPrice:      entryPrice * (1 + tier.StopLossPct/100),
		ProfitTarget2Price: entryPrice * (1 + tier.ProfitTarget2Pct/100),
		MaxHoldDays:        tier.MaxHoldDays,
		ExitDate:           exitDate,
	}
	if tier.HasProfitTarget1 {
		plan.HasProfitTarget1 = true
		plan.ProfitTarget1Price = entryPrice * (1 + tier.ProfitTarget1Pct/100)
	}
	return plan, nil
}
