package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bidback/position_engine/internal/domain"
	"github.com/bidback/position_engine/internal/usecase"
)

// MockPositionRepo
type MockPositionRepo struct {
	Positions map[string]*domain.Position
	Saved     int
	Exits     []domain.PartialExit
	Closed    []string
}

func NewMockPositionRepo() *MockPositionRepo {
	return &MockPositionRepo{Positions: make(map[string]*domain.Position)}
}

func (m *MockPositionRepo) SavePosition(ctx context.Context, p *domain.Position) error {
	if p.ID == "" {
		p.ID = "mock-id"
	}
	m.Saved++
	cp := p.Clone()
	m.Positions[p.ID] = &cp
	return nil
}

func (m *MockPositionRepo) GetPosition(ctx context.Context, id string) (*domain.Position, error) {
	p, ok := m.Positions[id]
	if !ok {
		return nil, errors.New("position not found")
	}
	cp := p.Clone()
	return &cp, nil
}

func (m *MockPositionRepo) ListOpenPositions(ctx context.Context) ([]*domain.Position, error) {
	var open []*domain.Position
	for _, p := range m.Positions {
		if p.Status == domain.PositionOpen {
			cp := p.Clone()
			open = append(open, &cp)
		}
	}
	return open, nil
}

func (m *MockPositionRepo) RecordPartialExit(ctx context.Context, p *domain.Position, exit domain.PartialExit) error {
	m.Exits = append(m.Exits, exit)
	cp := p.Clone()
	m.Positions[p.ID] = &cp
	return nil
}

func (m *MockPositionRepo) ClosePosition(ctx context.Context, id string, closedAt time.Time) error {
	m.Closed = append(m.Closed, id)
	if p, ok := m.Positions[id]; ok {
		p.Status = domain.PositionClosed
	}
	return nil
}

// MockBreadthRepo
type MockBreadthRepo struct {
	Latest *domain.BreadthReading
}

func (m *MockBreadthRepo) SaveReading(ctx context.Context, r *domain.BreadthReading) error {
	m.Latest = r
	return nil
}

func (m *MockBreadthRepo) GetReading(ctx context.Context, date time.Time) (*domain.BreadthReading, error) {
	return m.Latest, nil
}

func (m *MockBreadthRepo) LatestReading(ctx context.Context) (*domain.BreadthReading, error) {
	if m.Latest == nil {
		return nil, errors.New("no readings")
	}
	return m.Latest, nil
}

func newService(positions *MockPositionRepo, breadth *MockBreadthRepo) *usecase.PlannerService {
	return usecase.NewPlannerService(
		positions, breadth,
		usecase.DefaultTierTable(),
		usecase.NewMarketCalendar(2025, 2026),
		nil,
	)
}

func TestPlanTradePipeline(t *testing.T) {
	svc := newService(NewMockPositionRepo(), &MockBreadthRepo{})

	// Elevated VIX with big-opportunity breadth: 10000 x 1.1 x 2.0.
	plan, err := svc.PlanTrade(usecase.PlanRequest{
		Symbol:         "XLE",
		EntryPrice:     45.20,
		EntryDate:      day(2025, time.August, 11),
		BaseAllocation: 10000,
		Reading:        reading(28.5, 22.4, 1250, 300),
	})
	if err != nil {
		t.Fatalf("PlanTrade error: %v", err)
	}

	if plan.Signal.Type != domain.SignalBigOpportunity {
		t.Errorf("Signal = %v, want BigOpportunity", plan.Signal.Type)
	}
	if plan.Tier.Label != "Elevated" {
		t.Errorf("Tier = %q, want Elevated", plan.Tier.Label)
	}
	if !floatEquals(plan.Size.FinalAllocation, 22000) {
		t.Errorf("FinalAllocation = %v, want 22000", plan.Size.FinalAllocation)
	}
	if !almostEqual(plan.Exit.StopLossPrice, 40.68, 0.001) {
		t.Errorf("StopLossPrice = %v, want 40.68", plan.Exit.StopLossPrice)
	}
	// Elevated tier holds 5 trading days: Mon Aug 11 -> Mon Aug 18.
	if want := day(2025, time.August, 18); !plan.Exit.ExitDate.Equal(want) {
		t.Errorf("ExitDate = %v, want %v", plan.Exit.ExitDate, want)
	}
}

func TestPlanTradeAvoidEntry(t *testing.T) {
	svc := newService(NewMockPositionRepo(), &MockBreadthRepo{})

	plan, err := svc.PlanTrade(usecase.PlanRequest{
		Symbol:         "XLE",
		EntryPrice:     45.20,
		EntryDate:      day(2025, time.August, 11),
		BaseAllocation: 10000,
		Reading:        reading(50, 22.4, 120, 300),
	})
	if err != nil {
		t.Fatalf("PlanTrade error: %v", err)
	}
	if !plan.Size.Avoided || plan.Size.FinalAllocation != 0 {
		t.Errorf("avoid-entry plan = %+v, want avoided with zero allocation", plan.Size)
	}
}

func TestOpenPositionPersistsAndRejectsAvoided(t *testing.T) {
	positions := NewMockPositionRepo()
	svc := newService(positions, &MockBreadthRepo{})

	req := usecase.PlanRequest{
		Symbol:         "SPY",
		EntryPrice:     100,
		EntryDate:      day(2025, time.August, 11),
		BaseAllocation: 10000,
		Reading:        reading(50, 17, 600, 300),
	}
	pos, plan, err := svc.OpenPosition(context.Background(), req)
	if err != nil {
		t.Fatalf("OpenPosition error: %v", err)
	}
	if positions.Saved != 1 {
		t.Errorf("Saved = %d, want 1", positions.Saved)
	}
	if pos.Quantity != plan.Size.ShareCount || pos.RemainingQuantity != pos.Quantity {
		t.Errorf("position quantities %d/%d do not match plan %d", pos.Quantity, pos.RemainingQuantity, plan.Size.ShareCount)
	}

	req.Reading = reading(85, 17, 600, 300)
	if _, _, err := svc.OpenPosition(context.Background(), req); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("avoided entry error = %v, want ErrInvalidInput", err)
	}
	if positions.Saved != 1 {
		t.Errorf("avoided entry was persisted, Saved = %d", positions.Saved)
	}
}

func TestTakePartialExitClosesEmptiedPosition(t *testing.T) {
	positions := NewMockPositionRepo()
	svc := newService(positions, &MockBreadthRepo{})

	seed := &domain.Position{
		ID:                "pos-1",
		Symbol:            "SPY",
		Status:            domain.PositionOpen,
		EntryPrice:        100,
		Quantity:          50,
		RemainingQuantity: 50,
	}
	positions.Positions[seed.ID] = seed

	updated, err := svc.TakePartialExit(context.Background(), "pos-1", 20, 109, day(2025, time.August, 14), "target1")
	if err != nil {
		t.Fatalf("TakePartialExit error: %v", err)
	}
	if updated.RemainingQuantity != 30 || updated.Status != domain.PositionOpen {
		t.Errorf("after first exit: remaining %d status %v", updated.RemainingQuantity, updated.Status)
	}

	updated, err = svc.TakePartialExit(context.Background(), "pos-1", 30, 115, day(2025, time.August, 15), "target2")
	if err != nil {
		t.Fatalf("TakePartialExit error: %v", err)
	}
	if updated.RemainingQuantity != 0 || updated.Status != domain.PositionClosed {
		t.Errorf("after final exit: remaining %d status %v", updated.RemainingQuantity, updated.Status)
	}
	if len(positions.Closed) != 1 || positions.Closed[0] != "pos-1" {
		t.Errorf("Closed = %v, want [pos-1]", positions.Closed)
	}

	if _, err := svc.TakePartialExit(context.Background(), "pos-1", 1, 115, day(2025, time.August, 15), ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("overdrawn exit error = %v, want ErrInvalidInput", err)
	}
}

func TestReassessOpenPositions(t *testing.T) {
	positions := NewMockPositionRepo()
	breadth := &MockBreadthRepo{}
	svc := newService(positions, breadth)

	entry := reading(28, 18, 1250, 300)
	positions.Positions["pos-1"] = &domain.Position{
		ID:                "pos-1",
		Symbol:            "IWM",
		Status:            domain.PositionOpen,
		EntryReading:      entry,
		Quantity:          10,
		RemainingQuantity: 10,
	}
	current := reading(55, 24.5, 120, 600)
	breadth.Latest = &current

	results, err := svc.ReassessOpenPositions(context.Background())
	if err != nil {
		t.Fatalf("ReassessOpenPositions error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	got := results[0]
	if got.Assessment.Score != 4 || got.Assessment.Recommendation != domain.RecommendExit {
		t.Errorf("assessment = %+v, want score 4 exit", got.Assessment)
	}
	if !got.Position.CurrentReading.Date.Equal(current.Date) || got.Position.CurrentReading.T2108 != 55 {
		t.Errorf("current reading not attached: %+v", got.Position.CurrentReading)
	}
}
