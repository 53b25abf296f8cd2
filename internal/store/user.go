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

const userTableName = "lostlink.users"

var userColumns = utils.StructTagValues(types.User{})

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) User(ctx context.Context, userID string) (*types.User, error) {

	query, args, err := psql().Select(userColumns...).From(userTableName).
		Where(sq.Eq{"id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user query: %w", err)
	}

	var user = new(types.User)
	err = pgxscan.Get(ctx, r.pool, user, query, args...)
	if err != nil && !pgxscan.NotFound(err) {
		return nil, err
	}

	if err != nil {
		return nil, types.ErrUserNotFound
	}

	return user, nil
}

func (r *UserRepository) UserByEmail(ctx context.Context, email string) (*types.User, error) {

	query, args, err := psql().Select(userColumns...).From(userTableName).
		Where(sq.Eq{"email": email}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user by email query: %w", err)
	}

	var user = new(types.User)
	err = pgxscan.Get(ctx, r.pool, user, query, args...)
	if err != nil && !pgxscan.NotFound(err) {
		return nil, err
	}

	if err != nil {
		return nil, types.ErrUserNotFound
	}

	return user, nil
}

// UsersByIDs fetches the given users in one round trip, keyed by ID.
// Missing IDs are simply absent from the map.
func (r *UserRepository) UsersByIDs(ctx context.Context, userIDs []string) (map[string]*types.User, error) {

	if len(userIDs) == 0 {
		return map[string]*types.User{}, nil
	}

	query, args, err := psql().Select(userColumns...).From(userTableName).
		Where(sq.Eq{"id": userIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate users query: %w", err)
	}

	var users = make([]*types.User, 0)
	err = pgxscan.Select(ctx, r.pool, &users, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	result := make(map[string]*types.User, len(users))
	for _, user := range users {
		result[user.ID] = user
	}

	return result, nil
}

func (r *UserRepository) UserIDsByRole(ctx context.Context, role types.Role) ([]string, error) {

	query, args, err := psql().Select("id").From(userTableName).
		Where(sq.Eq{"role": role}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user ids query: %w", err)
	}

	var ids = make([]string, 0)
	err = pgxscan.Select(ctx, r.pool, &ids, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user ids: %w", err)
	}

	return ids, nil
}

func (r *UserRepository) AllUserIDs(ctx context.Context) ([]string, error) {

	query, args, err := psql().Select("id").From(userTableName).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate all user ids query: %w", err)
	}

	var ids = make([]string, 0)
	err = pgxscan.Select(ctx, r.pool, &ids, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user ids: %w", err)
	}

	return ids, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user *types.User) error {

	if user.ID == "" {
		user.ID = utils.NanoID()
	}
	user.CreatedAt = time.Now()

	userMap := utils.StructToMap(user)

	query, args, err := psql().Insert(userTableName).SetMap(userMap).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert user query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create user")

}
