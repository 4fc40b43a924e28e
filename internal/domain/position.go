package domain

import "time"

type PositionStatus string

const (
	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"
)

// PartialExit is one scale-out lot taken against an open position.
type PartialExit struct {
	Date     time.Time
	Quantity int
	Price    float64
	// TargetHit names which exit level triggered the lot, e.g. "target1".
	TargetHit string
}

// Position is a journal position the engine assesses. The engine never
// mutates a stored Position; updates are returned as new values and the
// caller persists them.
type Position struct {
	ID                string
	Symbol            string
	Status            PositionStatus
	EntryDate         time.Time
	EntryPrice        float64
	Quantity          int
	RemainingQuantity int
	PartialExits      []PartialExit

	EntryReading   BreadthReading
	CurrentReading BreadthReading

	CreatedAt time.Time
	ClosedAt  *time.Time
}

// Clone returns a deep copy, so pure updates never alias the caller's slice.
func (p Position) Clone() Position {
	cp := p
	cp.PartialExits = make([]PartialExit, len(p.PartialExits))
	copy(cp.PartialExits, p.PartialExits)
	return cp
}
