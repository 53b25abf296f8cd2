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

const itemTableName = "lostlink.items"

var itemColumns = utils.StructTagValues(types.Item{})

type ItemRepository struct {
	pool *pgxpool.Pool
}

func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

// ItemFilter narrows item queries. Zero values mean "no constraint".
type ItemFilter struct {
	Query    string
	Type     types.ItemType
	Category types.ItemCategory
	Statuses []types.ItemStatus
	UserID   string
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    uint64
}

func (r *ItemRepository) Item(ctx context.Context, itemID string) (*types.Item, error) {

	query, args, err := psql().Select(itemColumns...).From(itemTableName).
		Where(sq.Eq{"id": itemID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate item query: %w", err)
	}

	var item = new(types.Item)
	err = pgxscan.Get(ctx, r.pool, item, query, args...)
	if err != nil && !pgxscan.NotFound(err) {
		return nil, err
	}

	if err != nil {
		return nil, types.ErrItemNotFound
	}

	return item, nil
}

func (r *ItemRepository) Items(ctx context.Context, filter ItemFilter) ([]*types.Item, error) {

	builder := psql().Select(itemColumns...).From(itemTableName).
		OrderBy("reported_at desc")

	if filter.Query != "" {
		pattern := fmt.Sprint("%", filter.Query, "%")
		builder = builder.Where(sq.Or{
			sq.ILike{"description": pattern},
			sq.ILike{"category": pattern},
			sq.ILike{"location": pattern},
		})
	}

	if filter.Type != "" {
		builder = builder.Where(sq.Eq{"type": filter.Type})
	}

	if filter.Category != "" {
		builder = builder.Where(sq.Eq{"category": filter.Category})
	}

	if len(filter.Statuses) > 0 {
		builder = builder.Where(sq.Eq{"status": filter.Statuses})
	}

	if filter.UserID != "" {
		builder = builder.Where(sq.Eq{"user_id": filter.UserID})
	}

	if filter.DateFrom != nil {
		builder = builder.Where(sq.GtOrEq{"reported_at": *filter.DateFrom})
	}

	if filter.DateTo != nil {
		builder = builder.Where(sq.LtOrEq{"reported_at": *filter.DateTo})
	}

	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate items query: %w", err)
	}

	var items = make([]*types.Item, 0)
	err = pgxscan.Select(ctx, r.pool, &items, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch items: %w", err)
	}

	return items, nil
}

func (r *ItemRepository) CountItems(ctx context.Context, filter ItemFilter) (int64, error) {

	builder := psql().Select("count(*)").From(itemTableName)

	if filter.Type != "" {
		builder = builder.Where(sq.Eq{"type": filter.Type})
	}

	if filter.Category != "" {
		builder = builder.Where(sq.Eq{"category": filter.Category})
	}

	if len(filter.Statuses) > 0 {
		builder = builder.Where(sq.Eq{"status": filter.Statuses})
	}

	if filter.DateFrom != nil {
		builder = builder.Where(sq.GtOrEq{"reported_at": *filter.DateFrom})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to generate item count query: %w", err)
	}

	var count int64
	err = r.pool.QueryRow(ctx, query, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}

	return count, nil
}

// CountItemsByCategory counts high-risk open items, used by the dashboard.
func (r *ItemRepository) CountHighRisk(ctx context.Context) (int64, error) {

	query, args, err := psql().Select("count(*)").From(itemTableName).
		Where(sq.Eq{"category": types.HighRiskCategories}).
		Where(sq.Eq{"status": []types.ItemStatus{types.ItemStatusPending, types.ItemStatusAvailable}}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to generate high risk count query: %w", err)
	}

	var count int64
	err = r.pool.QueryRow(ctx, query, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count high risk items: %w", err)
	}

	return count, nil
}

// CountReturnedSince counts items physically handed back on or after the
// given instant, used for the "returned today" dashboard figure.
func (r *ItemRepository) CountReturnedSince(ctx context.Context, since time.Time) (int64, error) {

	query, args, err := psql().Select("count(*)").From(itemTableName).
		Where(sq.Eq{"status": types.ItemStatusReturned}).
		Where(sq.GtOrEq{"handed_over_at": since}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to generate returned count query: %w", err)
	}

	var count int64
	err = r.pool.QueryRow(ctx, query, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count returned items: %w", err)
	}

	return count, nil
}

func (r *ItemRepository) CreateItem(ctx context.Context, item *types.Item) error {

	now := time.Now()
	if item.ID == "" {
		item.ID = utils.NanoID()
	}
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.ReportedAt.IsZero() {
		item.ReportedAt = now
	}

	itemMap := utils.StructToMap(item)

	query, args, err := psql().Insert(itemTableName).SetMap(itemMap).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert item query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create item")

}

// UpdateItemGuarded persists the item conditionally on the status it had
// when the caller read it. Concurrent admin actions on the same item lose
// the race here instead of silently overwriting each other: the loser gets
// ErrConflict, or ErrItemNotFound when the row is gone.
func (r *ItemRepository) UpdateItemGuarded(ctx context.Context, item *types.Item, expect types.ItemStatus) error {

	itemMap := utils.StructToMap(item)

	query, args, err := psql().Update(itemTableName).SetMap(itemMap).
		Where(sq.Eq{"id": item.ID, "status": expect}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update item query for item %s: %w", item.ID, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	if tag.RowsAffected() > 0 {
		return nil
	}

	if _, err := r.Item(ctx, item.ID); err != nil {
		return err
	}

	return fmt.Errorf("item %s changed status since it was read: %w", item.ID, types.ErrConflict)
}
