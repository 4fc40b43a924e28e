package domain

import "time"

// PositionSizePlan is the dollar allocation and share count for a planned
// entry. Avoided marks the hard avoid-entry override so callers can render
// "entry avoided" instead of a $0 position.
type PositionSizePlan struct {
	BaseAllocation    float64
	VixMultiplier     float64
	BreadthMultiplier float64
	FinalAllocation   float64
	ShareCount        int
	Avoided           bool
}

// ExitPlan is the absolute stop/target prices and the concrete calendar
// exit date for a planned entry.
type ExitPlan struct {
	StopLossPrice      float64
	ProfitTarget1Price float64
	HasProfitTarget1   bool
	ProfitTarget2Price float64
	MaxHoldDays        int
	// ExitDate is always a trading day, reached by counting exactly
	// MaxHoldDays trading days forward from the entry date.
	ExitDate time.Time
}

// TradePlan bundles everything the planner computes for one entry.
type TradePlan struct {
	Symbol     string
	EntryDate  time.Time
	EntryPrice float64
	Signal     BreadthSignal
	Tier       VixTier
	Size       PositionSizePlan
	Exit       ExitPlan
}

type Recommendation string

const (
	RecommendHold   Recommendation = "HOLD"
	RecommendReduce Recommendation = "REDUCE"
	RecommendExit   Recommendation = "EXIT"
)

// DeteriorationAssessment scores how much a position's breadth conditions
// have worsened since entry. Recomputed fresh on every call.
type DeteriorationAssessment struct {
	Score            int // 0-4
	Recommendation   Recommendation
	SignalsTriggered []string
	// AvoidSignal is set when the current reading classifies as AvoidEntry
	// while the entry reading did not.
	AvoidSignal bool
}
