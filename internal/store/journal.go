// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"neo-trader/internal/models"
	"neo-trader/internal/trading"
)

// Journal records completed strategy legs in SQLite so a run's fills
// survive process restarts and can be reviewed later.
type Journal struct {
	db *sql.DB
}

// NewJournal opens (or creates) the journal database.
func NewJournal(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	j := &Journal{db: db}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return j, nil
}

func (j *Journal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS legs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_no TEXT NOT NULL,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		quantity TEXT NOT NULL,
		price TEXT NOT NULL,
		avg_price TEXT,
		status TEXT NOT NULL,
		placed_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_legs_order_no ON legs(order_no);
	CREATE INDEX IF NOT EXISTS idx_legs_placed_at ON legs(placed_at);
	`

	_, err := j.db.Exec(schema)
	return err
}

// RecordLeg appends one completed leg.
func (j *Journal) RecordLeg(ctx context.Context, leg trading.LegRecord) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO legs (order_no, symbol, side, quantity, price, avg_price, status, placed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		leg.OrderNo, leg.Symbol, string(leg.Side), leg.Quantity,
		leg.Price, leg.AvgPrice, leg.Status, leg.PlacedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record leg: %w", err)
	}
	return nil
}

// Legs returns the most recent legs, newest first.
func (j *Journal) Legs(ctx context.Context, limit int) ([]trading.LegRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT order_no, symbol, side, quantity, price, avg_price, status, placed_at
		FROM legs ORDER BY placed_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query legs: %w", err)
	}
	defer rows.Close()

	var legs []trading.LegRecord
	for rows.Next() {
		var leg trading.LegRecord
		var side string
		var placedAt time.Time
		if err := rows.Scan(&leg.OrderNo, &leg.Symbol, &side, &leg.Quantity,
			&leg.Price, &leg.AvgPrice, &leg.Status, &placedAt); err != nil {
			return nil, fmt.Errorf("failed to scan leg: %w", err)
		}
		leg.Side = models.OrderSide(side)
		leg.PlacedAt = placedAt
		legs = append(legs, leg)
	}
	return legs, rows.Err()
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Ensure Journal implements the recorder interface used by the stepper
var _ trading.LegRecorder = (*Journal)(nil)
