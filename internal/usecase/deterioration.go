package usecase

import (
	"fmt"
	"math"
	"time"

	"github.com/bidback/position_engine/internal/domain"
)

// Deterioration criteria constants.
const (
	// VIXDeteriorationDelta is how many points VIX must rise since entry
	// to count as a deterioration signal.
	VIXDeteriorationDelta = 5.0

	// MomentumReversalEntryMax / CurrentMin bound the T2108 crossing that
	// marks a momentum reversal (entered oversold, now past midpoint).
	MomentumReversalEntryMax   = 30.0
	MomentumReversalCurrentMin = 50.0
)

// DeteriorationTracker scores an open position's current breadth readings
// against its entry readings.
type DeteriorationTracker struct {
	classifier *BreadthClassifier
}

func NewDeteriorationTracker(classifier *BreadthClassifier) *DeteriorationTracker {
	return &DeteriorationTracker{classifier: classifier}
}

// Assess awards one point per triggered criterion (max 4) and maps the
// score to a recommendation. Score 0-1: hold (an avoid signal alone is
// flagged but still a hold). Score >= 2: reduce. Score 4, or an avoid
// signal plus two other criteria: exit.
func (t *DeteriorationTracker) Assess(entry, current domain.BreadthReading) domain.DeteriorationAssessment {
	var a domain.DeteriorationAssessment

	if entry.T2108 < MomentumReversalEntryMax && current.T2108 > MomentumReversalCurrentMin {
		a.Score++
		a.SignalsTriggered = append(a.SignalsTriggered, "t2108 momentum reversal")
	}
	if current.VIX-entry.VIX > VIXDeteriorationDelta {
		a.Score++
		a.SignalsTriggered = append(a.SignalsTriggered, "vix spike since entry")
	}
	if moverRatio(entry) >= 1 && moverRatio(current) < 1 {
		a.Score++
		a.SignalsTriggered = append(a.SignalsTriggered, "4pct mover ratio inverted")
	}
	entrySignal := t.classifier.ClassifyReading(entry)
	currentSignal := t.classifier.ClassifyReading(current)
	if currentSignal.Type == domain.SignalAvoidEntry && entrySignal.Type != domain.SignalAvoidEntry {
		a.Score++
		a.AvoidSignal = true
		a.SignalsTriggered = append(a.SignalsTriggered, "breadth turned avoid-entry")
	}

	switch {
	case a.Score == 4 || (a.AvoidSignal && a.Score >= 3):
		a.Recommendation = domain.RecommendExit
	case a.Score >= 2:
		a.Recommendation = domain.RecommendReduce
	default:
		a.Recommendation = domain.RecommendHold
	}
	return a
}

// moverRatio is up4pct/down4pct. A zero down count with any up movers is
// treated as +Inf; a fully flat day stays balanced at 1.
func moverRatio(r domain.BreadthReading) float64 {
	if r.StocksDown4PctDaily == 0 {
		if r.StocksUp4PctDaily == 0 {
			return 1
		}
		return math.Inf(1)
	}
	return float64(r.StocksUp4PctDaily) / float64(r.StocksDown4PctDaily)
}

// RecordPartialExit returns a copy of the position with the exit lot
// appended and the remaining quantity reduced. Pure: the input position is
// untouched and the caller persists the result.
func RecordPartialExit(p domain.Position, quantity int, price float64, exitDate time.Time, targetHit string) (domain.Position, error) {
	if quantity <= 0 {
		return domain.Position{}, fmt.Errorf("%w: exit quantity must be > 0, got %d", domain.ErrInvalidInput, quantity)
	}
	if quantity > p.RemainingQuantity {
		return domain.Position{}, fmt.Errorf("%w: exit quantity %d exceeds remaining %d", domain.ErrInvalidInput, quantity, p.RemainingQuantity)
	}
	if price <= 0 {
		return domain.Position{}, fmt.Errorf("%w: exit price must be > 0, got %v", domain.ErrInvalidInput, price)
	}

	updated := p.Clone()
	updated.RemainingQuantity -= quantity
	updated.PartialExits = append(updated.PartialExits, domain.PartialExit{
		Date:      exitDate,
		Quantity:  quantity,
		Price:     price,
		TargetHit: targetHit,
	})
	return updated, nil
}
