package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is idempotent. The location columns on metrics are a snapshot taken
// at ingestion, not a foreign key to devices.
const schema = `
CREATE TABLE IF NOT EXISTS devices (
	id          VARCHAR(100) PRIMARY KEY,
	protocol    VARCHAR(20)  NOT NULL,
	room        VARCHAR(100) NOT NULL,
	department  VARCHAR(100) NOT NULL,
	floor       VARCHAR(50)  NOT NULL DEFAULT '',
	building    VARCHAR(100) NOT NULL,
	status      VARCHAR(20)  NOT NULL DEFAULT 'ACTIVE',
	created_at  TIMESTAMPTZ  NOT NULL,
	updated_at  TIMESTAMPTZ  NOT NULL
);

CREATE TABLE IF NOT EXISTS metrics (
	id           BIGSERIAL PRIMARY KEY,
	device_id    VARCHAR(100)     NOT NULL,
	temperature  DOUBLE PRECISION NOT NULL,
	humidity     DOUBLE PRECISION NOT NULL,
	timestamp    TIMESTAMPTZ      NOT NULL,
	received_at  TIMESTAMPTZ      NOT NULL,
	room         VARCHAR(100)     NOT NULL DEFAULT '',
	department   VARCHAR(100)     NOT NULL DEFAULT '',
	floor        VARCHAR(50)      NOT NULL DEFAULT '',
	building     VARCHAR(100)     NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_metrics_device_timestamp ON metrics (device_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_metrics_timestamp ON metrics (timestamp);
CREATE INDEX IF NOT EXISTS idx_metrics_room_timestamp ON metrics (room, timestamp);
CREATE INDEX IF NOT EXISTS idx_metrics_department_timestamp ON metrics (department, timestamp);
CREATE INDEX IF NOT EXISTS idx_metrics_floor_timestamp ON metrics (floor, timestamp);
CREATE INDEX IF NOT EXISTS idx_metrics_building_timestamp ON metrics (building, timestamp);
`

// ApplySchema creates the tables and indexes if they do not exist
func ApplySchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("[DATABASE] failed to apply schema: %w", err)
	}
	return nil
}
