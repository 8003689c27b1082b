package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Sarsenovv/competition-platform/models"
	"github.com/lib/pq"
)

var (
	ErrRegistrationNotFound           = errors.New("registration not found")
	ErrRegistrationConflict           = errors.New("user or team is already registered for this competition")
	ErrRegistrationCompetitionInvalid = errors.New("registration competition conflict or invalid")
	ErrRegistrationUserInvalid        = errors.New("registration user conflict or invalid")
)

type RegistrationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, registration *models.Registration) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Registration, error)
	GetByCompetitionAndUser(ctx context.Context, exec SQLExecutor, competitionID, userID int) (*models.Registration, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RegistrationStatus) error
	CountByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) (int, error)
	ListByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) ([]*models.Registration, error)
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, exec SQLExecutor, registration *models.Registration) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO registrations (competition_id, user_id, team_id, coupon_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		registration.CompetitionID,
		registration.UserID,
		registration.TeamID,
		registration.CouponID,
		registration.Status,
	).Scan(&registration.ID, &registration.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "registrations_competition_id_user_id_key" {
					return ErrRegistrationConflict
				}
			case "23503":
				if pqErr.Constraint == "registrations_competition_id_fkey" {
					return ErrRegistrationCompetitionInvalid
				}
				if pqErr.Constraint == "registrations_user_id_fkey" {
					return ErrRegistrationUserInvalid
				}
			}
		}
		return err
	}
	return nil
}

func (r *postgresRegistrationRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Registration, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, competition_id, user_id, team_id, coupon_id, status, created_at
		FROM registrations WHERE id = $1`
	row := executor.QueryRowContext(ctx, query, id)
	return scanRegistrationRow(row)
}

func (r *postgresRegistrationRepository) GetByCompetitionAndUser(ctx context.Context, exec SQLExecutor, competitionID, userID int) (*models.Registration, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, competition_id, user_id, team_id, coupon_id, status, created_at
		FROM registrations WHERE competition_id = $1 AND user_id = $2`
	row := executor.QueryRowContext(ctx, query, competitionID, userID)
	return scanRegistrationRow(row)
}

func (r *postgresRegistrationRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RegistrationStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE registrations SET status = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) CountByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) (int, error) {
	executor := r.getExecutor(exec)
	query := `SELECT COUNT(*) FROM registrations WHERE competition_id = $1 AND status != 'canceled'`
	var count int
	if err := executor.QueryRowContext(ctx, query, competitionID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresRegistrationRepository) ListByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) ([]*models.Registration, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, competition_id, user_id, team_id, coupon_id, status, created_at
		FROM registrations WHERE competition_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := executor.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	registrations := make([]*models.Registration, 0)
	for rows.Next() {
		registration, scanErr := scanRegistrationRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		registrations = append(registrations, registration)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return registrations, nil
}

func scanRegistrationRow(scanner interface{ Scan(...interface{}) error }) (*models.Registration, error) {
	var reg models.Registration
	err := scanner.Scan(
		&reg.ID,
		&reg.CompetitionID,
		&reg.UserID,
		&reg.TeamID,
		&reg.CouponID,
		&reg.Status,
		&reg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	return &reg, nil
}
