package store

import (
	"context"
	"fmt"
	"time"

	"lostlink/internal/utils"
	"lostlink/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const notificationTableName = "lostlink.notifications"

var notificationColumns = utils.StructTagValues(types.Notification{})

type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) CreateNotification(ctx context.Context, notification *types.Notification) error {

	notification.ID = utils.NanoID()
	notification.CreatedAt = time.Now()

	notificationMap := utils.StructToMap(notification)

	query, args, err := psql().Insert(notificationTableName).SetMap(notificationMap).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert notification query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create notification")

}

// CreateBroadcast inserts one notification row per recipient. The admin
// broadcast fan-out is write-per-user so each recipient tracks their own
// read flag.
func (r *NotificationRepository) CreateBroadcast(ctx context.Context, userIDs []string, title, message string, relatedID *string) error {

	if len(userIDs) == 0 {
		return nil
	}

	now := time.Now()

	builder := psql().Insert(notificationTableName).
		Columns("id", "user_id", "title", "message", "category", "related_id", "read", "created_at")

	for _, userID := range userIDs {
		builder = builder.Values(utils.NanoID(), userID, title, message, types.NotificationBroadcast, relatedID, false, now)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate broadcast insert query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create broadcast notifications")

}

func (r *NotificationRepository) NotificationsByUser(ctx context.Context, userID string, unreadOnly bool, limit uint64) ([]*types.Notification, error) {

	if limit == 0 {
		limit = 50
	}

	builder := psql().Select(notificationColumns...).From(notificationTableName).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at desc").
		Limit(limit)

	if unreadOnly {
		builder = builder.Where(sq.Eq{"read": false})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate notifications query: %w", err)
	}

	var notifications = make([]*types.Notification, 0)
	err = pgxscan.Select(ctx, r.pool, &notifications, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	return notifications, nil
}

// MarkRead flips the read flag, scoped to the recipient so one user cannot
// consume another's notifications.
func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID, userID string) error {

	query, args, err := psql().Update(notificationTableName).
		Set("read", true).
		Where(sq.Eq{"id": notificationID, "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate mark read query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return types.ErrNotificationNotFound
	}

	return nil
}
