package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/tat-monitor/internal/domain"
)

// DispositionArchiveRepository mirrors disposition records into postgres so
// the audit trail survives the bounded in-store log. Rows are append-only.
type DispositionArchiveRepository interface {
	Insert(ctx context.Context, record *domain.DispositionRecord) error
	ListRecent(ctx context.Context, limit int) ([]domain.DispositionRecord, error)
}

type dispositionArchiveRepository struct {
	pool *pgxpool.Pool
}

// NewDispositionArchiveRepository instantiates repository.
func NewDispositionArchiveRepository(pool *pgxpool.Pool) DispositionArchiveRepository {
	return &dispositionArchiveRepository{pool: pool}
}

func (r *dispositionArchiveRepository) Insert(ctx context.Context, record *domain.DispositionRecord) error {
	const query = `
        INSERT INTO tat_dispositions (id, ticket_id, subject, category, agent, assigned_at, disposed_at, tat_hours, disposition_type, is_escalated, was_overdue)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err := r.pool.Exec(ctx, query,
		record.ID,
		record.TicketID,
		record.Subject,
		record.Category,
		record.Agent,
		record.AssignedAt,
		record.DisposedAt,
		record.TATHours,
		record.DispositionType,
		record.IsEscalated,
		record.WasOverdue,
	)
	return err
}

func (r *dispositionArchiveRepository) ListRecent(ctx context.Context, limit int) ([]domain.DispositionRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
        SELECT id, ticket_id, subject, category, agent, assigned_at, disposed_at, tat_hours, disposition_type, is_escalated, was_overdue
        FROM tat_dispositions ORDER BY disposed_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDispositions(rows)
}

func scanDispositions(rows pgx.Rows) ([]domain.DispositionRecord, error) {
	var result []domain.DispositionRecord
	for rows.Next() {
		var record domain.DispositionRecord
		if err := rows.Scan(
			&record.ID,
			&record.TicketID,
			&record.Subject,
			&record.Category,
			&record.Agent,
			&record.AssignedAt,
			&record.DisposedAt,
			&record.TATHours,
			&record.DispositionType,
			&record.IsEscalated,
			&record.WasOverdue,
		); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}
