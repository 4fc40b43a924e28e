package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bidback/position_engine/internal/domain"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const dateLayout = "2006-01-02"

// SQLiteStore persists journal positions, partial exits and daily breadth
// readings. It implements domain.PositionRepository and
// domain.BreadthRepository.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS positions (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'OPEN',
			entry_date TEXT NOT NULL,
			entry_price REAL NOT NULL,
			quantity INTEGER NOT NULL,
			remaining_quantity INTEGER NOT NULL,
			entry_t2108 REAL NOT NULL,
			entry_vix REAL NOT NULL,
			entry_up4pct INTEGER NOT NULL,
			entry_down4pct INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			closed_at DATETIME
		);`,
		`CREATE INDEX IF NOT EXISTS idx_positions_status ON positions(status);`,
		`CREATE TABLE IF NOT EXISTS partial_exits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			position_id TEXT NOT NULL,
			exit_date TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			price REAL NOT NULL,
			target_hit TEXT NOT NULL DEFAULT '',
			FOREIGN KEY (position_id) REFERENCES positions(id)
		);`,
		`CREATE TABLE IF NOT EXISTS breadth_readings (
			date TEXT PRIMARY KEY,
			t2108 REAL NOT NULL,
			vix REAL NOT NULL,
			up4pct_daily INTEGER NOT NULL,
			down4pct_daily INTEGER NOT NULL,
			up25pct_quarterly INTEGER NOT NULL DEFAULT 0,
			down25pct_quarterly INTEGER NOT NULL DEFAULT 0
		);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}

	// Migration: target_hit was added after the first schema version.
	// We ignore the error if the column already exists.
	_, _ = s.db.Exec(`ALTER TABLE partial_exits ADD COLUMN target_hit TEXT NOT NULL DEFAULT ''`)

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// PositionRepository Implementation

func (s *SQLiteStore) SavePosition(ctx context.Context, p *domain.Position) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	query := `INSERT INTO positions (id, symbol, status, entry_date, entry_price, quantity, remaining_quantity, entry_t2108, entry_vix, entry_up4pct, entry_down4pct, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.Symbol, p.Status, p.EntryDate.Format(dateLayout), p.EntryPrice,
		p.Quantity, p.RemainingQuantity,
		p.EntryReading.T2108, p.EntryReading.VIX,
		p.EntryReading.StocksUp4PctDaily, p.EntryReading.StocksDown4PctDaily,
		p.CreatedAt)
	return err
}

func (s *SQLiteStore) GetPosition(ctx context.Context, id string) (*domain.Position, error) {
	query := `SELECT id, symbol, status, entry_date, entry_price, quantity, remaining_quantity, entry_t2108, entry_vix, entry_up4pct, entry_down4pct, created_at, closed_at FROM positions WHERE id = ?`
	row := s.db.QueryRowContext(ctx, query, id)

	p, err := scanPosition(row)
	if err != nil {
		return nil, err
	}
	exits, err := s.listPartialExits(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.PartialExits = exits
	return p, nil
}

func (s *SQLiteStore) ListOpenPositions(ctx context.Context) ([]*domain.Position, error) {
	query := `SELECT id, symbol, status, entry_date, entry_price, quantity, remaining_quantity, entry_t2108, entry_vix, entry_up4pct, entry_down4pct, created_at, closed_at FROM positions WHERE status = 'OPEN' ORDER BY entry_date`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []*domain.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, p := range positions {
		exits, err := s.listPartialExits(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		p.PartialExits = exits
	}
	return positions, nil
}

func (s *SQLiteStore) RecordPartialExit(ctx context.Context, p *domain.Position, exit domain.PartialExit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO partial_exits (position_id, exit_date, quantity, price, target_hit) VALUES (?, ?, ?, ?, ?)`,
		p.ID, exit.Date.Format(dateLayout), exit.Quantity, exit.Price, exit.TargetHit)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE positions SET remaining_quantity = ? WHERE id = ?`,
		p.RemainingQuantity, p.ID)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) ClosePosition(ctx context.Context, id string, closedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE positions SET status = 'CLOSED', closed_at = ? WHERE id = ?`, closedAt, id)
	return err
}

func (s *SQLiteStore) listPartialExits(ctx context.Context, positionID string) ([]domain.PartialExit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT exit_date, quantity, price, target_hit FROM partial_exits WHERE position_id = ? ORDER BY id`, positionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exits []domain.PartialExit
	for rows.Next() {
		var e domain.PartialExit
		var exitDate string
		if err := rows.Scan(&exitDate, &e.Quantity, &e.Price, &e.TargetHit); err != nil {
			return nil, err
		}
		e.Date, err = time.Parse(dateLayout, exitDate)
		if err != nil {
			return nil, err
		}
		exits = append(exits, e)
	}
	return exits, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosition(row rowScanner) (*domain.Position, error) {
	var p domain.Position
	var entryDate string
	var closedAt sql.NullTime
	err := row.Scan(&p.ID, &p.Symbol, &p.Status, &entryDate, &p.EntryPrice,
		&p.Quantity, &p.RemainingQuantity,
		&p.EntryReading.T2108, &p.EntryReading.VIX,
		&p.EntryReading.StocksUp4PctDaily, &p.EntryReading.StocksDown4PctDaily,
		&p.CreatedAt, &closedAt)
	if err != nil {
		return nil, err
	}
	p.EntryDate, err = time.Parse(dateLayout, entryDate)
	if err != nil {
		return nil, err
	}
	p.EntryReading.Date = p.EntryDate
	if closedAt.Valid {
		t := closedAt.Time
		p.ClosedAt = &t
	}
	return &p, nil
}

// BreadthRepository Implementation

func (s *SQLiteStore) SaveReading(ctx context.Context, r *domain.BreadthReading) error {
	query := `INSERT INTO breadth_readings (date, t2108, vix, up4pct_daily, down4pct_daily, up25pct_quarterly, down25pct_quarterly)
			  VALUES (?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(date) DO UPDATE SET
			  t2108=excluded.t2108,
			  vix=excluded.vix,
			  up4pct_daily=excluded.up4pct_daily,
			  down4pct_daily=excluded.down4pct_daily,
			  up25pct_quarterly=excluded.up25pct_quarterly,
			  down25pct_quarterly=excluded.down25pct_quarterly`
	_, err := s.db.ExecContext(ctx, query,
		r.Date.Format(dateLayout), r.T2108, r.VIX,
		r.StocksUp4PctDaily, r.StocksDown4PctDaily,
		r.StocksUp25PctQuarterly, r.StocksDown25PctQuarterly)
	return err
}

func (s *SQLiteStore) GetReading(ctx context.Context, date time.Time) (*domain.BreadthReading, error) {
	query := `SELECT date, t2108, vix, up4pct_daily, down4pct_daily, up25pct_quarterly, down25pct_quarterly FROM breadth_readings WHERE date = ?`
	return scanReading(s.db.QueryRowContext(ctx, query, date.Format(dateLayout)))
}

func (s *SQLiteStore) LatestReading(ctx context.Context) (*domain.BreadthReading, error) {
	query := `SELECT date, t2108, vix, up4pct_daily, down4pct_daily, up25pct_quarterly, down25pct_quarterly FROM breadth_readings ORDER BY date DESC LIMIT 1`
	return scanReading(s.db.QueryRowContext(ctx, query))
}

func scanReading(row rowScanner) (*domain.BreadthReading, error) {
	var r domain.BreadthReading
	var day string
	err := row.Scan(&day, &r.T2108, &r.VIX,
		&r.StocksUp4PctDaily, &r.StocksDown4PctDaily,
		&r.StocksUp25PctQuarterly, &r.StocksDown25PctQuarterly)
	if err != nil {
		return nil, err
	}
	r.Date, err = time.Parse(dateLayout, day)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
