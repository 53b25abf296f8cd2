package store

import (
	"context"
	"fmt"

	"lostlink/internal/utils"
	"lostlink/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const auditTableName = "lostlink.audit_logs"

var auditColumns = utils.StructTagValues(types.AuditLog{})

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) CreateAuditLog(ctx context.Context, entry *types.AuditLog) error {

	entry.ID = utils.NanoID()

	entryMap := utils.StructToMap(entry)

	query, args, err := psql().Insert(auditTableName).SetMap(entryMap).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert audit log query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create audit log")

}

func (r *AuditRepository) AuditLogs(ctx context.Context, limit uint64) ([]*types.AuditLog, error) {

	if limit == 0 {
		limit = 100
	}

	query, args, err := psql().Select(auditColumns...).From(auditTableName).
		OrderBy("timestamp desc").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate audit logs query: %w", err)
	}

	var logs = make([]*types.AuditLog, 0)
	err = pgxscan.Select(ctx, r.pool, &logs, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audit logs: %w", err)
	}

	return logs, nil
}

// AuditLogsByAdminAction backs the admin login history view.
func (r *AuditRepository) AuditLogsByAdminAction(ctx context.Context, adminID string, action types.AuditAction, limit uint64) ([]*types.AuditLog, error) {

	if limit == 0 {
		limit = 20
	}

	query, args, err := psql().Select(auditColumns...).From(auditTableName).
		Where(sq.Eq{"admin_id": adminID, "action": action}).
		OrderBy("timestamp desc").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate admin audit logs query: %w", err)
	}

	var logs = make([]*types.AuditLog, 0)
	err = pgxscan.Select(ctx, r.pool, &logs, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch admin audit logs: %w", err)
	}

	return logs, nil
}
