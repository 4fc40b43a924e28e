package usecase

import (
	"github.com/bidback/position_engine/internal/domain"
	"go.uber.org/zap"
)

// BIDBACK entry thresholds.
const (
	BigOpportunityT2108Max = 30.0
	BigOpportunityUp4Min   = 1000
	AvoidEntryUp4Max       = 150
	AvoidEntryT2108Min     = 80.0

	BigOpportunityMultiplier = 2.0
	NormalMultiplier         = 1.0
)

// BreadthClassifier derives the entry signal from a day's breadth numbers.
type BreadthClassifier struct {
	logger *zap.Logger
}

func NewBreadthClassifier(logger *zap.Logger) *BreadthClassifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BreadthClassifier{logger: logger}
}

// Classify maps (T2108, up4%, down4%) to BigOpportunity, AvoidEntry or
// Normal. AvoidEntry is checked independently and takes precedence; if the
// opportunity thresholds also matched the signal is flagged ambiguous.
func (c *BreadthClassifier) Classify(t2108 float64, up4, down4 int) domain.BreadthSignal {
	var avoidReasons []string
	if up4 < AvoidEntryUp4Max {
		avoidReasons = append(avoidReasons, "up4pct below 150")
	}
	if t2108 > AvoidEntryT2108Min {
		avoidReasons = append(avoidReasons, "t2108 above 80")
	}

	bigOpportunity := t2108 < BigOpportunityT2108Max && up4 > BigOpportunityUp4Min

	if len(avoidReasons) > 0 {
		signal := domain.BreadthSignal{
			Type:       domain.SignalAvoidEntry,
			Multiplier: 0,
			Reasons:    avoidReasons,
		}
		if bigOpportunity {
			signal.Ambiguous = true
			c.logger.Warn("ambiguous breadth signal, avoid-entry takes precedence",
				zap.Float64("t2108", t2108),
				zap.Int("up4pct", up4),
				zap.Int("down4pct", down4))
		}
		return signal
	}

	if bigOpportunity {
		return domain.BreadthSignal{
			Type:       domain.SignalBigOpportunity,
			Multiplier: BigOpportunityMultiplier,
			Reasons:    []string{"t2108 below 30 with up4pct above 1000"},
		}
	}

	return domain.BreadthSignal{Type: domain.SignalNormal, Multiplier: NormalMultiplier}
}

// ClassifyReading is a convenience wrapper over Classify for stored readings.
func (c *BreadthClassifier) ClassifyReading(r domain.BreadthReading) domain.BreadthSignal {
	return c.Classify(r.T2108, r.StocksUp4PctDaily, r.StocksDown4PctDaily)
}
