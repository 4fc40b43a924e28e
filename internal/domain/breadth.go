package domain

import "time"

type SignalType string

const (
	SignalBigOpportunity SignalType = "BIG_OPPORTUNITY"
	SignalAvoidEntry     SignalType = "AVOID_ENTRY"
	SignalNormal         SignalType = "NORMAL"
)

// BreadthReading is one trading day's market-breadth snapshot as supplied
// by the journal. The engine only uses T2108, VIX and the daily 4% mover
// counts; the quarterly fields are carried through for the journal views.
type BreadthReading struct {
	Date                time.Time
	T2108               float64 // pct of stocks above their 40-day MA, 0-100
	VIX                 float64
	StocksUp4PctDaily   int
	StocksDown4PctDaily int

	StocksUp25PctQuarterly   int
	StocksDown25PctQuarterly int
}

// BreadthSignal is the derived entry signal for a reading. It is recomputed
// on every evaluation and never persisted.
type BreadthSignal struct {
	Type SignalType
	// Multiplier is the breadth leg of position sizing: 2.0 for
	// BigOpportunity, 1.0 for Normal, 0 for AvoidEntry.
	Multiplier float64
	// Ambiguous is set when both opportunity and avoid thresholds matched.
	// AvoidEntry wins; the flag is advisory for diagnostics.
	Ambiguous bool
	Reasons   []string
}
