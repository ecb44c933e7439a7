package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ClickHouseConfig holds connection settings for the bar warehouse.
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

// ClickHouseProvider loads bars from the canonical ClickHouse data table.
type ClickHouseProvider struct {
	conn   driver.Conn
	db     string
	logger *zap.Logger
}

// NewClickHouseProvider opens a native-protocol connection and verifies it.
func NewClickHouseProvider(cfg ClickHouseConfig, logger *zap.Logger) (*ClickHouseProvider, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: 10 * time.Second,
		Compression: &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &ClickHouseProvider{conn: conn, db: cfg.Database, logger: logger}, nil
}

// GetHistoricalData loads bars per symbol from the canonical data table.
// Prices are stored as Decimal128 and converted to float64 at this boundary.
func (p *ClickHouseProvider) GetHistoricalData(ctx context.Context, symbols []string, start, end time.Time, timeframe string) (map[string]BarSeries, error) {
	query := fmt.Sprintf(`
		SELECT symbol, open_time_ms, open, high, low, close, volume
		FROM %s.data
		WHERE symbol IN (?) AND interval = ?
		  AND open_time_ms >= ? AND open_time_ms <= ?
		ORDER BY symbol, open_time_ms`, p.db)

	rows, err := p.conn.Query(ctx, query, symbols, timeframe, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	result := make(map[string]BarSeries)
	for rows.Next() {
		var (
			symbol     string
			openTimeMs uint64
			open       decimal.Decimal
			high       decimal.Decimal
			low        decimal.Decimal
			closePx    decimal.Decimal
			volume     decimal.Decimal
		)
		if err := rows.Scan(&symbol, &openTimeMs, &open, &high, &low, &closePx, &volume); err != nil {
			return nil, fmt.Errorf("scan bar row: %w", err)
		}

		series := result[symbol]
		series.Symbol = symbol
		series.Bars = append(series.Bars, Bar{
			Timestamp: time.UnixMilli(int64(openTimeMs)).UTC(),
			Open:      open.InexactFloat64(),
			High:      high.InexactFloat64(),
			Low:       low.InexactFloat64(),
			Close:     closePx.InexactFloat64(),
			Volume:    volume.InexactFloat64(),
		})
		result[symbol] = series
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bar rows: %w", err)
	}

	p.logger.Debug("loaded bars from clickhouse",
		zap.Int("symbols_requested", len(symbols)),
		zap.Int("symbols_loaded", len(result)))

	return result, nil
}

// Close releases the connection.
func (p *ClickHouseProvider) Close() error {
	return p.conn.Close()
}
