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

const claimTableName = "lostlink.claims"

var claimColumns = utils.StructTagValues(types.Claim{})

type ClaimRepository struct {
	pool *pgxpool.Pool
}

func NewClaimRepository(pool *pgxpool.Pool) *ClaimRepository {
	return &ClaimRepository{pool: pool}
}

func (r *ClaimRepository) Claim(ctx context.Context, claimID string) (*types.Claim, error) {

	query, args, err := psql().Select(claimColumns...).From(claimTableName).
		Where(sq.Eq{"id": claimID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate claim query: %w", err)
	}

	var claim = new(types.Claim)
	err = pgxscan.Get(ctx, r.pool, claim, query, args...)
	if err != nil && !pgxscan.NotFound(err) {
		return nil, err
	}

	if err != nil {
		return nil, types.ErrClaimNotFound
	}

	return claim, nil
}

func (r *ClaimRepository) ClaimsByStatus(ctx context.Context, status types.ClaimStatus) ([]*types.Claim, error) {

	builder := psql().Select(claimColumns...).From(claimTableName).
		OrderBy("submitted_at desc")

	if status != "" {
		builder = builder.Where(sq.Eq{"status": status})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate claims query: %w", err)
	}

	var claims = make([]*types.Claim, 0)
	err = pgxscan.Select(ctx, r.pool, &claims, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch claims: %w", err)
	}

	return claims, nil
}

func (r *ClaimRepository) ClaimsByItem(ctx context.Context, itemID string) ([]*types.Claim, error) {

	query, args, err := psql().Select(claimColumns...).From(claimTableName).
		Where(sq.Eq{"item_id": itemID}).
		OrderBy("submitted_at desc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate item claims query: %w", err)
	}

	var claims = make([]*types.Claim, 0)
	err = pgxscan.Select(ctx, r.pool, &claims, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch item claims: %w", err)
	}

	return claims, nil
}

func (r *ClaimRepository) ClaimsByClaimant(ctx context.Context, claimantID string) ([]*types.Claim, error) {

	query, args, err := psql().Select(claimColumns...).From(claimTableName).
		Where(sq.Eq{"claimant_id": claimantID}).
		OrderBy("submitted_at desc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate claimant claims query: %w", err)
	}

	var claims = make([]*types.Claim, 0)
	err = pgxscan.Select(ctx, r.pool, &claims, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch claimant claims: %w", err)
	}

	return claims, nil
}

// LatestClaimForItem returns the approved claim if one exists, otherwise
// the most recent claim of any status. Used to show reporters how their
// found item was claimed.
func (r *ClaimRepository) LatestClaimForItem(ctx context.Context, itemID string) (*types.Claim, error) {

	query, args, err := psql().Select(claimColumns...).From(claimTableName).
		Where(sq.Eq{"item_id": itemID}).
		OrderBy("status = 'APPROVED' desc", "submitted_at desc").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate latest claim query: %w", err)
	}

	var claim = new(types.Claim)
	err = pgxscan.Get(ctx, r.pool, claim, query, args...)
	if err != nil && !pgxscan.NotFound(err) {
		return nil, err
	}

	if err != nil {
		return nil, types.ErrClaimNotFound
	}

	return claim, nil
}

func (r *ClaimRepository) CountClaims(ctx context.Context, status types.ClaimStatus) (int64, error) {

	builder := psql().Select("count(*)").From(claimTableName)
	if status != "" {
		builder = builder.Where(sq.Eq{"status": status})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to generate claim count query: %w", err)
	}

	var count int64
	err = r.pool.QueryRow(ctx, query, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count claims: %w", err)
	}

	return count, nil
}

func (r *ClaimRepository) CreateClaim(ctx context.Context, claim *types.Claim) error {

	now := time.Now()
	claim.ID = utils.NanoID()
	if claim.SubmittedAt.IsZero() {
		claim.SubmittedAt = now
	}

	claimMap := utils.StructToMap(claim)

	query, args, err := psql().Insert(claimTableName).SetMap(claimMap).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert claim query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create claim")

}

// UpdateClaimGuarded persists the claim conditionally on the status it had
// when read, mirroring ItemRepository.UpdateItemGuarded.
func (r *ClaimRepository) UpdateClaimGuarded(ctx context.Context, claim *types.Claim, expect types.ClaimStatus) error {

	claimMap := utils.StructToMap(claim)

	query, args, err := psql().Update(claimTableName).SetMap(claimMap).
		Where(sq.Eq{"id": claim.ID, "status": expect}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update claim query for claim %s: %w", claim.ID, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update claim: %w", err)
	}

	if tag.RowsAffected() > 0 {
		return nil
	}

	if _, err := r.Claim(ctx, claim.ID); err != nil {
		return err
	}

	return fmt.Errorf("claim %s changed status since it was read: %w", claim.ID, types.ErrConflict)
}
