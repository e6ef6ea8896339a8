package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// migrations are applied in order on startup. The monitor owns a single
// append-only table; records are never updated or deleted by the service.
var migrations = []struct {
	name string
	sql  string
}{
	{
		name: "001_create_tat_dispositions",
		sql: `
        CREATE TABLE IF NOT EXISTS tat_dispositions (
            id               TEXT PRIMARY KEY,
            ticket_id        TEXT NOT NULL,
            subject          TEXT NOT NULL,
            category         TEXT NOT NULL,
            agent            TEXT NOT NULL,
            assigned_at      TIMESTAMPTZ NOT NULL,
            disposed_at      TIMESTAMPTZ NOT NULL,
            tat_hours        DOUBLE PRECISION NOT NULL,
            disposition_type TEXT NOT NULL,
            is_escalated     BOOLEAN NOT NULL,
            was_overdue      BOOLEAN NOT NULL,
            created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
	},
	{
		name: "002_index_tat_dispositions_agent",
		sql:  `CREATE INDEX IF NOT EXISTS idx_tat_dispositions_agent ON tat_dispositions (agent, disposed_at DESC)`,
	},
}

// RunMigrations executes the schema migrations against the archive database.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if pool == nil {
		logger.Warn("no postgres pool available; skipping migrations")
		return nil
	}

	for _, migration := range migrations {
		logger.Info("applying migration", zap.String("name", migration.name))
		if _, err := pool.Exec(ctx, migration.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", migration.name, err)
		}
	}

	logger.Info("migrations applied", zap.Int("count", len(migrations)))
	return nil
}
