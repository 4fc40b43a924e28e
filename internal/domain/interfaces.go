package domain

import (
	"context"
	"time"
)

// PositionRepository defines storage operations for journal positions.
type PositionRepository interface {
	SavePosition(ctx context.Context, p *Position) error
	GetPosition(ctx context.Context, id string) (*Position, error)
	ListOpenPositions(ctx context.Context) ([]*Position, error)
	// RecordPartialExit persists an already-validated partial exit along
	// with the position's updated remaining quantity.
	RecordPartialExit(ctx context.Context, p *Position, exit PartialExit) error
	ClosePosition(ctx context.Context, id string, closedAt time.Time) error
}

// BreadthRepository defines storage operations for daily breadth readings.
type BreadthRepository interface {
	SaveReading(ctx context.Context, r *BreadthReading) error
	GetReading(ctx context.Context, date time.Time) (*BreadthReading, error)
	LatestReading(ctx context.Context) (*BreadthReading, error)
}
