package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/bidback/position_engine/internal/domain"
	"go.uber.org/zap"
)

// PlanRequest carries everything needed to plan one entry. BaseAllocation
// is portfolio value x allocation percent, computed by the caller.
type PlanRequest struct {
	Symbol         string
	EntryPrice     float64
	EntryDate      time.Time
	BaseAllocation float64
	Reading        domain.BreadthReading
}

// PositionAssessment pairs a position with its current deterioration
// assessment for dashboard views.
type PositionAssessment struct {
	Position   *domain.Position
	Assessment domain.DeteriorationAssessment
}

// PlannerService wires the engine components to the journal repositories.
// All computation stays in the pure components; the service only loads
// inputs, logs and persists results.
type PlannerService struct {
	positions  domain.PositionRepository
	breadth    domain.BreadthRepository
	tiers      *TierTable
	classifier *BreadthClassifier
	sizer      *PositionSizer
	exits      *ExitPlanner
	tracker    *DeteriorationTracker
	logger     *zap.Logger
}

func NewPlannerService(
	positions domain.PositionRepository,
	breadth domain.BreadthRepository,
	tiers *TierTable,
	calendar *MarketCalendar,
	logger *zap.Logger,
) *PlannerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	classifier := NewBreadthClassifier(logger)
	return &PlannerService{
		positions:  positions,
		breadth:    breadth,
		tiers:      tiers,
		classifier: classifier,
		sizer:      NewPositionSizer(),
		exits:      NewExitPlanner(calendar),
		tracker:    NewDeteriorationTracker(classifier),
		logger:     logger,
	}
}

// PlanTrade runs the full planning pipeline for one entry: breadth signal,
// VIX tier, allocation and exit plan. Pure apart from logging.
func (s *PlannerService) PlanTrade(req PlanRequest) (*domain.TradePlan, error) {
	tier, err := s.tiers.Classify(req.Reading.VIX)
	if err != nil {
		return nil, err
	}
	signal := s.classifier.ClassifyReading(req.Reading)

	size, err := s.sizer.ComputeAllocation(req.BaseAllocation, req.EntryPrice, tier, signal)
	if err != nil {
		return nil, err
	}
	exit, err := s.exits.BuildExitPlan(req.EntryPrice, req.EntryDate, tier)
	if err != nil {
		return nil, err
	}

	s.logger.Info("trade planned",
		zap.String("symbol", req.Symbol),
		zap.String("signal", string(signal.Type)),
		zap.String("tier", tier.Label),
		zap.Float64("final_allocation", size.FinalAllocation),
		zap.Int("shares", size.ShareCount),
		zap.Time("exit_date", exit.ExitDate))

	return &domain.TradePlan{
		Symbol:     req.Symbol,
		EntryDate:  req.EntryDate,
		EntryPrice: req.EntryPrice,
		Signal:     signal,
		Tier:       tier,
		Size:       size,
		Exit:       exit,
	}, nil
}

// OpenPosition plans the trade and persists the resulting position with
// its entry reading. Avoided entries are rejected rather than stored as
// zero-share positions.
func (s *PlannerService) OpenPosition(ctx context.Context, req PlanRequest) (*domain.Position, *domain.TradePlan, error) {
	plan, err := s.PlanTrade(req)
	if err != nil {
		return nil, nil, err
	}
	if plan.Size.Avoided {
		return nil, plan, fmt.Errorf("%w: entry avoided by breadth signal", domain.ErrInvalidInput)
	}

	pos := &domain.Position{
		Symbol:            req.Symbol,
		Status:            domain.PositionOpen,
		EntryDate:         req.EntryDate,
		EntryPrice:        req.EntryPrice,
		Quantity:          plan.Size.ShareCount,
		RemainingQuantity: plan.Size.ShareCount,
		EntryReading:      req.Reading,
		CurrentReading:    req.Reading,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.positions.SavePosition(ctx, pos); err != nil {
		return nil, nil, err
	}
	return pos, plan, nil
}

// TakePartialExit validates and records a scale-out lot. A lot that
// empties the position closes it.
func (s *PlannerService) TakePartialExit(ctx context.Context, positionID string, quantity int, price float64, exitDate time.Time, targetHit string) (*domain.Position, error) {
	pos, err := s.positions.GetPosition(ctx, positionID)
	if err != nil {
		return nil, err
	}

	updated, err := RecordPartialExit(*pos, quantity, price, exitDate, targetHit)
	if err != nil {
		return nil, err
	}
	exit := updated.PartialExits[len(updated.PartialExits)-1]
	if err := s.positions.RecordPartialExit(ctx, &updated, exit); err != nil {
		return nil, err
	}
	if updated.RemainingQuantity == 0 {
		if err := s.positions.ClosePosition(ctx, updated.ID, exitDate); err != nil {
			return nil, err
		}
		updated.Status = domain.PositionClosed
	}

	s.logger.Info("partial exit recorded",
		zap.String("position", updated.ID),
		zap.Int("quantity", quantity),
		zap.Float64("price", price),
		zap.Int("remaining", updated.RemainingQuantity))
	return &updated, nil
}

// GetPosition loads a stored position with its partial-exit history.
func (s *PlannerService) GetPosition(ctx context.Context, positionID string) (*domain.Position, error) {
	return s.positions.GetPosition(ctx, positionID)
}

// AssessPosition scores a position against the latest stored reading.
func (s *PlannerService) AssessPosition(ctx context.Context, positionID string) (*PositionAssessment, error) {
	pos, err := s.positions.GetPosition(ctx, positionID)
	if err != nil {
		return nil, err
	}
	current, err := s.breadth.LatestReading(ctx)
	if err != nil {
		return nil, err
	}
	pos.CurrentReading = *current
	assessment := s.tracker.Assess(pos.EntryReading, *current)
	return &PositionAssessment{Position: pos, Assessment: assessment}, nil
}

// ReassessOpenPositions sweeps every open position against the latest
// reading. Used by the dashboard refresh and the scheduled job.
func (s *PlannerService) ReassessOpenPositions(ctx context.Context) ([]PositionAssessment, error) {
	current, err := s.breadth.LatestReading(ctx)
	if err != nil {
		return nil, err
	}
	open, err := s.positions.ListOpenPositions(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]PositionAssessment, 0, len(open))
	for _, pos := range open {
		pos.CurrentReading = *current
		assessment := s.tracker.Assess(pos.EntryReading, *current)
		if assessment.Recommendation != domain.RecommendHold {
			s.logger.Warn("position deteriorated",
				zap.String("position", pos.ID),
				zap.String("symbol", pos.Symbol),
				zap.Int("score", assessment.Score),
				zap.String("recommendation", string(assessment.Recommendation)))
		}
		results = append(results, PositionAssessment{Position: pos, Assessment: assessment})
	}
	return results, nil
}

// Calendar exposes the market calendar for the web layer's date endpoints.
func (s *PlannerService) Calendar() *MarketCalendar {
	return s.exits.calendar
}

// Tiers exposes the active tier table.
func (s *PlannerService) Tiers() *TierTable {
	return s.tiers
}

// SaveReading stores a breadth reading supplied by the journal UI.
func (s *PlannerService) SaveReading(ctx context.Context, r *domain.BreadthReading) error {
	return s.breadth.SaveReading(ctx, r)
}

// LatestReading returns the most recent stored breadth reading.
func (s *PlannerService) LatestReading(ctx context.Context) (*domain.BreadthReading, error) {
	return s.breadth.LatestReading(ctx)
}
