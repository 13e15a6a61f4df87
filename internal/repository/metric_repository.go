package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/septivank/environment-monitor/internal/model"
	"github.com/septivank/environment-monitor/internal/store"
)

var _ store.MetricStore = (*MetricRepository)(nil)

const metricColumns = `id, device_id, temperature, humidity, timestamp, received_at, room, department, floor, building`

// levelColumns whitelists the column each level filters on
var levelColumns = map[model.Level]string{
	model.LevelRoom:       "room",
	model.LevelDepartment: "department",
	model.LevelFloor:      "floor",
	model.LevelBuilding:   "building",
}

// MetricRepository stores metrics in PostgreSQL
type MetricRepository struct {
	pool *pgxpool.Pool
}

// NewMetricRepository creates a new metric repository
func NewMetricRepository(pool *pgxpool.Pool) *MetricRepository {
	return &MetricRepository{pool: pool}
}

// Save inserts a metric and sets its surrogate id
func (r *MetricRepository) Save(ctx context.Context, metric *model.Metric) error {
	query := `
		INSERT INTO metrics (
			device_id, temperature, humidity, timestamp,
			received_at, room, department, floor, building
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		metric.DeviceID,
		metric.Temperature,
		metric.Humidity,
		metric.Timestamp,
		metric.ReceivedAt,
		metric.Room,
		metric.Department,
		metric.Floor,
		metric.Building,
	).Scan(&metric.ID)
	if err != nil {
		return model.StorageError("insert metric", err)
	}

	return nil
}

// FindByID gets a metric by its surrogate id
func (r *MetricRepository) FindByID(ctx context.Context, id int64) (*model.Metric, error) {
	query := `SELECT ` + metricColumns + ` FROM metrics WHERE id = $1`

	metric, err := scanMetric(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("metric %d not found", id)
	}
	if err != nil {
		return nil, model.StorageError("find metric", err)
	}

	return metric, nil
}

// FindByFilter returns matching metrics ordered by timestamp, then id
func (r *MetricRepository) FindByFilter(ctx context.Context, filter model.MetricFilter) ([]model.Metric, error) {
	where, args, err := whereClause(filter)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + metricColumns + ` FROM metrics WHERE ` + where + ` ORDER BY timestamp, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, model.StorageError("query metrics", err)
	}
	defer rows.Close()

	metrics := []model.Metric{}
	for rows.Next() {
		metric, err := scanMetric(rows)
		if err != nil {
			return nil, model.StorageError("scan metric", err)
		}
		metrics = append(metrics, *metric)
	}
	if err := rows.Err(); err != nil {
		return nil, model.StorageError("query metrics", err)
	}

	return metrics, nil
}

// Aggregate computes count and both means in one statement so they always
// describe the same set of rows
func (r *MetricRepository) Aggregate(ctx context.Context, filter model.MetricFilter) (model.Aggregate, error) {
	where, args, err := whereClause(filter)
	if err != nil {
		return model.Aggregate{}, err
	}
	query := `
		SELECT COUNT(*), COALESCE(AVG(temperature), 0), COALESCE(AVG(humidity), 0)
		FROM metrics
		WHERE ` + where

	var agg model.Aggregate
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&agg.Count, &agg.AvgTemperature, &agg.AvgHumidity); err != nil {
		return model.Aggregate{}, model.StorageError("aggregate metrics", err)
	}

	return agg, nil
}

func whereClause(filter model.MetricFilter) (string, []any, error) {
	args := []any{filter.From, filter.To}
	where := `timestamp >= $1 AND timestamp < $2`

	if filter.DeviceID != "" {
		args = append(args, filter.DeviceID)
		where += fmt.Sprintf(" AND device_id = $%d", len(args))
	}
	if filter.Level != "" {
		column, ok := levelColumns[filter.Level]
		if !ok {
			return "", nil, fmt.Errorf("%w: %q", model.ErrInvalidLevel, filter.Level)
		}
		args = append(args, filter.LevelValue)
		where += fmt.Sprintf(" AND %s = $%d", column, len(args))
	}

	return where, args, nil
}

func scanMetric(row pgx.Row) (*model.Metric, error) {
	var (
		m                     model.Metric
		timestamp, receivedAt time.Time
	)
	err := row.Scan(
		&m.ID,
		&m.DeviceID,
		&m.Temperature,
		&m.Humidity,
		&timestamp,
		&receivedAt,
		&m.Room,
		&m.Department,
		&m.Floor,
		&m.Building,
	)
	if err != nil {
		return nil, err
	}
	m.Timestamp = timestamp.UTC()
	m.ReceivedAt = receivedAt.UTC()
	return &m, nil
}
