package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Sarsenovv/competition-platform/models"
	"github.com/lib/pq"
)

var (
	ErrCriterionNotFound           = errors.New("judging criterion not found")
	ErrCriterionCompetitionInvalid = errors.New("criterion competition conflict or invalid")
)

type CriterionRepository interface {
	Create(ctx context.Context, exec SQLExecutor, criterion *models.JudgingCriterion) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.JudgingCriterion, error)
	Update(ctx context.Context, exec SQLExecutor, criterion *models.JudgingCriterion) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	ListByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) ([]*models.JudgingCriterion, error)
}

type postgresCriterionRepository struct {
	db *sql.DB // Main DB connection, used when exec is nil
}

func NewPostgresCriterionRepository(db *sql.DB) CriterionRepository {
	return &postgresCriterionRepository{db: db}
}

func (r *postgresCriterionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresCriterionRepository) Create(ctx context.Context, exec SQLExecutor, criterion *models.JudgingCriterion) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO judging_criteria (competition_id, name, weight)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		criterion.CompetitionID,
		criterion.Name,
		criterion.Weight,
	).Scan(&criterion.ID, &criterion.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			if pqErr.Constraint == "judging_criteria_competition_id_fkey" {
				return ErrCriterionCompetitionInvalid
			}
		}
		return err
	}
	return nil
}

func (r *postgresCriterionRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.JudgingCriterion, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, competition_id, name, weight, created_at
		FROM judging_criteria
		WHERE id = $1`
	row := executor.QueryRowContext(ctx, query, id)
	return scanCriterionRow(row)
}

func (r *postgresCriterionRepository) Update(ctx context.Context, exec SQLExecutor, criterion *models.JudgingCriterion) error {
	executor := r.getExecutor(exec)
	query := `UPDATE judging_criteria SET name = $1, weight = $2 WHERE id = $3`
	result, err := executor.ExecContext(ctx, query, criterion.Name, criterion.Weight, criterion.ID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCriterionNotFound)
}

func (r *postgresCriterionRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM judging_criteria WHERE id = $1`
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCriterionNotFound)
}

func (r *postgresCriterionRepository) ListByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) ([]*models.JudgingCriterion, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, competition_id, name, weight, created_at
		FROM judging_criteria
		WHERE competition_id = $1
		ORDER BY id ASC`

	rows, err := executor.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	criteria := make([]*models.JudgingCriterion, 0)
	for rows.Next() {
		criterion, scanErr := scanCriterionRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		criteria = append(criteria, criterion)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return criteria, nil
}

func scanCriterionRow(scanner interface{ Scan(...interface{}) error }) (*models.JudgingCriterion, error) {
	var c models.JudgingCriterion
	err := scanner.Scan(&c.ID, &c.CompetitionID, &c.Name, &c.Weight, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCriterionNotFound
		}
		return nil, err
	}
	return &c, nil
}
