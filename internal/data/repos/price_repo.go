package repos

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/pkg/logger"
)

// Schema creates the daily price table served by PriceRepository
const Schema = `
CREATE SCHEMA IF NOT EXISTS market;
CREATE TABLE IF NOT EXISTS market.daily_prices (
	symbol      TEXT             NOT NULL,
	trade_date  DATE             NOT NULL,
	close_price DOUBLE PRECISION,
	adj_close   DOUBLE PRECISION,
	updated_at  TIMESTAMPTZ      NOT NULL DEFAULT now(),
	PRIMARY KEY (symbol, trade_date)
);
`

// PriceRepository serves daily prices stored in Postgres as a price provider
// ⭐ SSOT: 가격 데이터 저장/조회는 여기서만
type PriceRepository struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool, log *logger.Logger) *PriceRepository {
	return &PriceRepository{
		pool:   pool,
		logger: log.WithComponent("price_repo"),
	}
}

// Name implements contracts.PriceProvider
func (r *PriceRepository) Name() string {
	return "postgres"
}

// EnsureSchema creates the price table if missing
func (r *PriceRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create price schema: %w", err)
	}
	return nil
}

// LatestDate returns the newest stored trade date among symbols
func (r *PriceRepository) LatestDate(ctx context.Context, symbols []string) (time.Time, bool, error) {
	query := `
		SELECT MAX(trade_date)
		FROM market.daily_prices
		WHERE symbol = ANY($1)
	`

	var latest *time.Time
	if err := r.pool.QueryRow(ctx, query, symbols).Scan(&latest); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query latest date: %w", err)
	}
	if latest == nil {
		return time.Time{}, false, nil
	}
	return contracts.TruncateDay(*latest), true, nil
}

// FetchPrices reads stored prices. Trailing periods are anchored at the
// newest stored date for the requested symbols.
func (r *PriceRepository) FetchPrices(ctx context.Context, symbols []string, req contracts.FetchRequest) (*contracts.RawFrame, error) {
	if len(symbols) == 0 {
		return contracts.NewRawFrame(nil), nil
	}

	anchor := time.Now()
	if req.IsPeriod() {
		latest, ok, err := r.LatestDate(ctx, symbols)
		if err != nil {
			return nil, err
		}
		if !ok {
			return contracts.NewRawFrame(nil), nil
		}
		anchor = latest
	}

	start, end, err := req.Resolve(anchor)
	if err != nil {
		return nil, fmt.Errorf("resolve request: %w", err)
	}

	query := `
		SELECT symbol, trade_date, close_price, adj_close
		FROM market.daily_prices
		WHERE symbol = ANY($1) AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, symbols, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	var stored []StoredPrice
	for rows.Next() {
		var p StoredPrice
		if err := rows.Scan(&p.Symbol, &p.Date, &p.Close, &p.AdjClose); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		stored = append(stored, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prices: %w", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"symbols": len(symbols),
		"rows":    len(stored),
		"start":   start.Format(contracts.DateLayout),
		"end":     end.Format(contracts.DateLayout),
	}).Debug("Loaded stored prices")

	return req.Trim(FrameFromRows(stored, len(symbols) == 1)), nil
}

// Symbols lists every stored symbol (UniverseSource)
func (r *PriceRepository) Symbols(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT symbol FROM market.daily_prices ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// SaveFrame upserts every non-missing value of a frame.
// Flat frames need the symbol they belong to in flatSymbol.
func (r *PriceRepository) SaveFrame(ctx context.Context, frame *contracts.RawFrame, flatSymbol string) (int, error) {
	prices := RowsFromFrame(frame, flatSymbol)
	if len(prices) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO market.daily_prices (symbol, trade_date, close_price, adj_close)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			close_price = COALESCE(EXCLUDED.close_price, market.daily_prices.close_price),
			adj_close   = COALESCE(EXCLUDED.adj_close, market.daily_prices.adj_close),
			updated_at  = now()
	`

	batch := &pgx.Batch{}
	for _, p := range prices {
		batch.Queue(query, p.Symbol, p.Date, p.Close, p.AdjClose)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range prices {
		if _, err := results.Exec(); err != nil {
			return 0, fmt.Errorf("failed to upsert price: %w", err)
		}
	}

	r.logger.WithField("rows", len(prices)).Info("Saved prices")
	return len(prices), nil
}

// StoredPrice is one market.daily_prices row. NULL columns are nil.
type StoredPrice struct {
	Symbol   string
	Date     time.Time
	Close    *float64
	AdjClose *float64
}

// FrameFromRows lays stored rows out as a provider frame
func FrameFromRows(rows []StoredPrice, flat bool) *contracts.RawFrame {
	assembler := contracts.NewFrameAssembler()
	for _, p := range rows {
		if p.Close != nil {
			assembler.Add(p.Symbol, contracts.FieldClose, p.Date, *p.Close)
		}
		if p.AdjClose != nil {
			assembler.Add(p.Symbol, contracts.FieldAdjClose, p.Date, *p.AdjClose)
		}
	}
	return assembler.Frame(flat)
}

// RowsFromFrame flattens a frame into storable rows, skipping missing values
func RowsFromFrame(frame *contracts.RawFrame, flatSymbol string) []StoredPrice {
	if frame.Empty() {
		return nil
	}

	type rowKey struct {
		symbol string
		row    int
	}
	index := make(map[rowKey]int)
	var out []StoredPrice

	for key, values := range frame.Columns {
		symbol := key.Symbol
		if symbol == "" {
			symbol = flatSymbol
		}
		if symbol == "" {
			continue
		}
		for i, v := range values {
			if i >= len(frame.Dates) || math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			k := rowKey{symbol, i}
			pos, ok := index[k]
			if !ok {
				pos = len(out)
				index[k] = pos
				out = append(out, StoredPrice{Symbol: symbol, Date: frame.Dates[i]})
			}
			value := v
			switch key.Field {
			case contracts.FieldClose:
				out[pos].Close = &value
			case contracts.FieldAdjClose:
				out[pos].AdjClose = &value
			}
		}
	}
	return out
}
