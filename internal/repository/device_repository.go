package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/septivank/environment-monitor/internal/model"
	"github.com/septivank/environment-monitor/internal/store"
)

var _ store.DeviceStore = (*DeviceRepository)(nil)

const deviceColumns = `id, protocol, room, department, floor, building, status, created_at, updated_at`

// DeviceRepository stores devices in PostgreSQL
type DeviceRepository struct {
	pool *pgxpool.Pool
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(pool *pgxpool.Pool) *DeviceRepository {
	return &DeviceRepository{pool: pool}
}

// Insert creates a device. The conflict check and the insert are one statement.
func (r *DeviceRepository) Insert(ctx context.Context, device model.Device) error {
	query := `
		INSERT INTO devices (` + deviceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query,
		device.ID,
		string(device.Protocol),
		device.Room,
		device.Department,
		device.Floor,
		device.Building,
		string(device.Status),
		device.CreatedAt,
		device.UpdatedAt,
	)
	if err != nil {
		return model.StorageError("insert device", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", model.ErrAlreadyExists, device.ID)
	}

	return nil
}

// FindByID gets a device by id
func (r *DeviceRepository) FindByID(ctx context.Context, id string) (*model.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = $1`

	device, err := scanDevice(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}
	if err != nil {
		return nil, model.StorageError("find device", err)
	}

	return device, nil
}

// FindAll lists devices ordered by id
func (r *DeviceRepository) FindAll(ctx context.Context, filter model.DeviceFilter) ([]model.Device, error) {
	var (
		conds []string
		args  []any
	)
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("protocol", string(filter.Protocol))
	add("status", string(filter.Status))
	add("room", filter.Location.Room)
	add("department", filter.Location.Department)
	add("floor", filter.Location.Floor)
	add("building", filter.Location.Building)

	query := `SELECT ` + deviceColumns + ` FROM devices`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, model.StorageError("list devices", err)
	}
	defer rows.Close()

	devices := []model.Device{}
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, model.StorageError("scan device", err)
		}
		devices = append(devices, *device)
	}
	if err := rows.Err(); err != nil {
		return nil, model.StorageError("list devices", err)
	}

	return devices, nil
}

// Update replaces the mutable fields of a device in a single statement. An
// empty status keeps the stored one.
func (r *DeviceRepository) Update(ctx context.Context, id string, fields model.DeviceFields, updatedAt time.Time) (*model.Device, error) {
	query := `
		UPDATE devices
		SET protocol = $2, room = $3, department = $4, floor = $5, building = $6,
			status = COALESCE(NULLIF($7, ''), status), updated_at = $8
		WHERE id = $1
		RETURNING ` + deviceColumns

	device, err := scanDevice(r.pool.QueryRow(ctx, query,
		id,
		string(fields.Protocol),
		fields.Location.Room,
		fields.Location.Department,
		fields.Location.Floor,
		fields.Location.Building,
		string(fields.Status),
		updatedAt,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}
	if err != nil {
		return nil, model.StorageError("update device", err)
	}

	return device, nil
}

// Delete removes a device. Its metrics are kept.
func (r *DeviceRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM devices WHERE id = $1`, id)
	if err != nil {
		return model.StorageError("delete device", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}
	return nil
}

// Ping checks the pool can reach the database
func (r *DeviceRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanDevice(row pgx.Row) (*model.Device, error) {
	var (
		d                  model.Device
		protocol, status   string
		createdAt, updated time.Time
	)
	err := row.Scan(
		&d.ID,
		&protocol,
		&d.Room,
		&d.Department,
		&d.Floor,
		&d.Building,
		&status,
		&createdAt,
		&updated,
	)
	if err != nil {
		return nil, err
	}
	d.Protocol = model.Protocol(protocol)
	d.Status = model.DeviceStatus(status)
	d.CreatedAt = createdAt.UTC()
	d.UpdatedAt = updated.UTC()
	return &d, nil
}
