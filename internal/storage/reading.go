package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cuongbtq/weather-report/internal/domain"
	"github.com/cuongbtq/weather-report/internal/metric"
	"github.com/jmoiron/sqlx"
)

// insertBatchSize keeps a multi-row insert well below the 65535 bind parameter limit
const insertBatchSize = 500

// ReadingStorage reads and writes weather readings
type ReadingStorage struct {
	db       *sqlx.DB
	registry *metric.Registry
	logger   *slog.Logger
}

// NewReadingStorage creates a new ReadingStorage instance
func NewReadingStorage(db *sqlx.DB, registry *metric.Registry, logger *slog.Logger) *ReadingStorage {
	return &ReadingStorage{
		db:       db,
		registry: registry,
		logger:   logger,
	}
}

// FetchReadings returns the readings of deviceID with start <= recorded_at <= end,
// ascending by time. Only the requested metrics are selected; the timestamp always is.
// Keys unknown to the registry are ignored so they never reach the SQL text.
func (s *ReadingStorage) FetchReadings(ctx context.Context, deviceID string, start, end time.Time, fields []string) ([]domain.Reading, error) {
	if start.After(end) {
		return []domain.Reading{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM weather_readings
		WHERE device_id = $1
		  AND recorded_at >= $2
		  AND recorded_at <= $3
		ORDER BY recorded_at ASC
	`, strings.Join(s.projection(fields), ", "))

	rows, err := s.db.QueryxContext(ctx, query, deviceID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	readings := []domain.Reading{}
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	s.logger.Debug("Readings fetched",
		slog.String("device_id", deviceID),
		slog.Int("count", len(readings)),
		slog.Int("fields", len(fields)),
	)

	return readings, nil
}

// LatestReading returns the most recent reading of deviceID with every metric, or nil if there is none
func (s *ReadingStorage) LatestReading(ctx context.Context, deviceID string) (*domain.Reading, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM weather_readings
		WHERE device_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`, strings.Join(s.projection(s.registry.MetricKeys()), ", "))

	rows, err := s.db.QueryxContext(ctx, query, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest reading: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("rows iteration error: %w", err)
		}
		return nil, nil
	}

	reading, err := scanReading(rows)
	if err != nil {
		return nil, err
	}
	return &reading, nil
}

// InsertReadings stores readings in batches inside one transaction
func (s *ReadingStorage) InsertReadings(ctx context.Context, readings []domain.Reading) error {
	if len(readings) == 0 {
		return nil
	}

	metrics := s.registry.MetricKeys()
	columns := append([]string{"device_id", "recorded_at"}, metrics...)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for from := 0; from < len(readings); from += insertBatchSize {
		to := min(from+insertBatchSize, len(readings))
		query, args := buildInsert(columns, metrics, readings[from:to])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert readings: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit readings: %w", err)
	}

	s.logger.Info("Readings inserted",
		slog.Int("count", len(readings)),
	)

	return nil
}

// projection returns the selected columns for fields: device, time, then known metrics
func (s *ReadingStorage) projection(fields []string) []string {
	columns := []string{"device_id", "recorded_at"}
	for _, key := range s.registry.Filter(fields) {
		if key == metric.Timestamp {
			continue
		}
		columns = append(columns, key)
	}
	return columns
}

func buildInsert(columns, metrics []string, batch []domain.Reading) (string, []any) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO weather_readings (")
	sb.WriteString(strings.Join(columns, ", "))
	sb.WriteString(") VALUES ")

	args := make([]any, 0, len(batch)*len(columns))
	for i, r := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j := range columns {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(len(args) + j + 1))
		}
		sb.WriteByte(')')

		args = append(args, r.DeviceID, r.Timestamp)
		for _, key := range metrics {
			if v, ok := r.Value(key); ok {
				args = append(args, v)
			} else {
				args = append(args, nil)
			}
		}
	}

	return sb.String(), args
}

func scanReading(rows *sqlx.Rows) (domain.Reading, error) {
	row := make(map[string]any)
	if err := rows.MapScan(row); err != nil {
		return domain.Reading{}, fmt.Errorf("failed to scan reading: %w", err)
	}

	reading := domain.Reading{Values: make(map[string]float64, len(row))}
	for column, raw := range row {
		switch column {
		case "device_id":
			reading.DeviceID = asString(raw)
		case "recorded_at":
			ts, ok := raw.(time.Time)
			if !ok {
				return domain.Reading{}, fmt.Errorf("unexpected recorded_at type %T", raw)
			}
			reading.Timestamp = ts
		default:
			if v, ok := asFloat(raw); ok {
				reading.Values[column] = v
			}
		}
	}

	return reading, nil
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return ""
	}
}

// asFloat converts a driver value to float64; NULL and unparsable values report false
func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int64:
		return float64(t), true
	case []byte:
		f, err := strconv.ParseFloat(string(t), 64)
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
