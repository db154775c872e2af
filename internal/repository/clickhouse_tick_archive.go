package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"PaperDesk/internal/domain/models"
	"PaperDesk/internal/domain/repository"
)

// ClickHouseTickArchive implements TickArchive for ClickHouse. Ticks and
// trades land in separate tables; both inserts batch with multi-row VALUES
// to cut round-trips.
type ClickHouseTickArchive struct {
	db         *sql.DB
	tickTable  string
	tradeTable string
}

// NewClickHouseTickArchive creates a ClickHouse archive.
func NewClickHouseTickArchive(db *sql.DB, tickTable, tradeTable string) repository.TickArchive {
	if tickTable == "" {
		tickTable = "sim_ticks"
	}
	if tradeTable == "" {
		tradeTable = "sim_trades"
	}
	return &ClickHouseTickArchive{db: db, tickTable: tickTable, tradeTable: tradeTable}
}

// Init ensures both tables exist (idempotent).
func (a *ClickHouseTickArchive) Init(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			ts DateTime64(3),
			account_id String,
			price Float64,
			regime LowCardinality(String),
			trend LowCardinality(String)
		) ENGINE = MergeTree() ORDER BY (account_id, ts)`, a.tickTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			ts DateTime64(3),
			account_id String,
			side LowCardinality(String),
			usd_amount Float64,
			price Float64,
			asset_delta Float64,
			realized_pl Float64
		) ENGINE = MergeTree() ORDER BY (account_id, ts)`, a.tradeTable),
	}
	for _, stmt := range stmts {
		if _, err := a.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("archive init: %w", err)
		}
	}
	return nil
}

func (a *ClickHouseTickArchive) StoreTicks(ctx context.Context, ticks []*models.TickPoint) error {
	if len(ticks) == 0 {
		return nil
	}

	values := make([]string, 0, len(ticks))
	args := make([]interface{}, 0, len(ticks)*5)
	for _, t := range ticks {
		if t == nil {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?)")
		args = append(args, t.At, t.AccountID, t.Price, t.Regime, t.Trend)
	}
	if len(values) == 0 {
		return nil
	}

	q := fmt.Sprintf("INSERT INTO %s (ts, account_id, price, regime, trend) VALUES %s",
		a.tickTable, strings.Join(values, ","))
	if _, err := a.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("store ticks: %w", err)
	}
	return nil
}

func (a *ClickHouseTickArchive) StoreTrade(ctx context.Context, accountID string, tr *models.TradeResult) error {
	if tr == nil {
		return nil
	}
	q := fmt.Sprintf("INSERT INTO %s (ts, account_id, side, usd_amount, price, asset_delta, realized_pl) VALUES (?, ?, ?, ?, ?, ?, ?)",
		a.tradeTable)
	if _, err := a.db.ExecContext(ctx, q,
		tr.At, accountID, string(tr.Side), tr.USDAmount, tr.Price, tr.AssetDelta, tr.RealizedPL,
	); err != nil {
		return fmt.Errorf("store trade: %w", err)
	}
	return nil
}

// History reads the stored ticks of one account inside [from, to], oldest
// first.
func (a *ClickHouseTickArchive) History(ctx context.Context, accountID string, from, to time.Time, limit int) ([]*models.TickPoint, error) {
	q := fmt.Sprintf("SELECT ts, price, regime, trend FROM %s WHERE account_id = ? AND ts >= ? AND ts <= ? ORDER BY ts LIMIT ?",
		a.tickTable)
	rows, err := a.db.QueryContext(ctx, q, accountID, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("tick history query: %w", err)
	}
	defer rows.Close()

	var out []*models.TickPoint
	for rows.Next() {
		t := &models.TickPoint{AccountID: accountID}
		if err := rows.Scan(&t.At, &t.Price, &t.Regime, &t.Trend); err != nil {
			return nil, fmt.Errorf("tick history scan: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tick history rows: %w", err)
	}
	return out, nil
}

func (a *ClickHouseTickArchive) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *ClickHouseTickArchive) Close() error {
	return nil // pool owned by pkg/clickhouse
}
