package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Sarsenovv/competition-platform/models"
	"github.com/lib/pq"
)

var (
	ErrCouponNotFound     = errors.New("coupon not found")
	ErrCouponCodeConflict = errors.New("coupon code conflict")
	ErrCouponExhausted    = errors.New("coupon has no remaining uses")
)

type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	GetByCode(ctx context.Context, exec SQLExecutor, code string) (*models.Coupon, error)
	// IncrementUse атомарно увеличивает used_count, не превышая max_uses.
	IncrementUse(ctx context.Context, exec SQLExecutor, id int) error
	Delete(ctx context.Context, id int) error
	ListByCompetition(ctx context.Context, competitionID int) ([]*models.Coupon, error)
}

type postgresCouponRepository struct {
	db *sql.DB
}

func NewPostgresCouponRepository(db *sql.DB) CouponRepository {
	return &postgresCouponRepository{db: db}
}

func (r *postgresCouponRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresCouponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	query := `
		INSERT INTO coupons (code, competition_id, max_uses, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		coupon.Code,
		coupon.CompetitionID,
		coupon.MaxUses,
		coupon.ExpiresAt,
	).Scan(&coupon.ID, &coupon.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "coupons_code_key" {
				return ErrCouponCodeConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresCouponRepository) GetByCode(ctx context.Context, exec SQLExecutor, code string) (*models.Coupon, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, code, competition_id, max_uses, used_count, expires_at, created_at
		FROM coupons WHERE code = $1`
	var coupon models.Coupon
	err := executor.QueryRowContext(ctx, query, code).Scan(
		&coupon.ID,
		&coupon.Code,
		&coupon.CompetitionID,
		&coupon.MaxUses,
		&coupon.UsedCount,
		&coupon.ExpiresAt,
		&coupon.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	return &coupon, nil
}

func (r *postgresCouponRepository) IncrementUse(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE coupons SET used_count = used_count + 1
		WHERE id = $1 AND used_count < max_uses`
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	// 0 строк означает либо отсутствие купона, либо исчерпанный лимит.
	return checkAffectedRows(result, ErrCouponExhausted)
}

func (r *postgresCouponRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM coupons WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCouponNotFound)
}

func (r *postgresCouponRepository) ListByCompetition(ctx context.Context, competitionID int) ([]*models.Coupon, error) {
	query := `
		SELECT id, code, competition_id, max_uses, used_count, expires_at, created_at
		FROM coupons
		WHERE competition_id = $1 OR competition_id IS NULL
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	coupons := make([]*models.Coupon, 0)
	for rows.Next() {
		var coupon models.Coupon
		scanErr := rows.Scan(
			&coupon.ID,
			&coupon.Code,
			&coupon.CompetitionID,
			&coupon.MaxUses,
			&coupon.UsedCount,
			&coupon.ExpiresAt,
			&coupon.CreatedAt,
		)
		if scanErr != nil {
			return nil, scanErr
		}
		coupons = append(coupons, &coupon)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return coupons, nil
}
