package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Sarsenovv/competition-platform/models"
	"github.com/lib/pq"
)

var (
	ErrScoreNotFound          = errors.New("score not found")
	ErrScoreSubmissionInvalid = errors.New("score submission conflict or invalid")
	ErrScoreCriterionInvalid  = errors.New("score criterion conflict or invalid")
	ErrScoreJudgeInvalid      = errors.New("score judge conflict or invalid")
)

type ScoreRepository interface {
	// Upsert создаёт оценку или перезаписывает существующую по ключу
	// (submission_id, judge_id, criterion_id).
	Upsert(ctx context.Context, exec SQLExecutor, score *models.Score) error
	// ListWithWeights возвращает все оценки заявки вместе с весами критериев.
	ListWithWeights(ctx context.Context, exec SQLExecutor, submissionID int) ([]models.CriterionScore, error)
	ListBySubmission(ctx context.Context, exec SQLExecutor, submissionID int) ([]*models.Score, error)
	DeleteBySubmission(ctx context.Context, exec SQLExecutor, submissionID int) error
}

type postgresScoreRepository struct {
	db *sql.DB
}

func NewPostgresScoreRepository(db *sql.DB) ScoreRepository {
	return &postgresScoreRepository{db: db}
}

func (r *postgresScoreRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresScoreRepository) Upsert(ctx context.Context, exec SQLExecutor, score *models.Score) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO scores (submission_id, judge_id, criterion_id, score, comment)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (submission_id, judge_id, criterion_id)
		DO UPDATE SET score = EXCLUDED.score, comment = EXCLUDED.comment, updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := executor.QueryRowContext(ctx, query,
		score.SubmissionID,
		score.JudgeID,
		score.CriterionID,
		score.Value,
		score.Comment,
	).Scan(&score.ID, &score.CreatedAt, &score.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			switch pqErr.Constraint {
			case "scores_submission_id_fkey":
				return ErrScoreSubmissionInvalid
			case "scores_criterion_id_fkey":
				return ErrScoreCriterionInvalid
			case "scores_judge_id_fkey":
				return ErrScoreJudgeInvalid
			}
		}
		return err
	}
	return nil
}

func (r *postgresScoreRepository) ListWithWeights(ctx context.Context, exec SQLExecutor, submissionID int) ([]models.CriterionScore, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT s.criterion_id, s.score, c.weight
		FROM scores s
		JOIN judging_criteria c ON s.criterion_id = c.id
		WHERE s.submission_id = $1
		ORDER BY s.criterion_id ASC, s.judge_id ASC`

	rows, err := executor.QueryContext(ctx, query, submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := make([]models.CriterionScore, 0)
	for rows.Next() {
		var cs models.CriterionScore
		if scanErr := rows.Scan(&cs.CriterionID, &cs.Value, &cs.Weight); scanErr != nil {
			return nil, scanErr
		}
		scores = append(scores, cs)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return scores, nil
}

func (r *postgresScoreRepository) ListBySubmission(ctx context.Context, exec SQLExecutor, submissionID int) ([]*models.Score, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, submission_id, judge_id, criterion_id, score, comment, created_at, updated_at
		FROM scores
		WHERE submission_id = $1
		ORDER BY criterion_id ASC, judge_id ASC`

	rows, err := executor.QueryContext(ctx, query, submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := make([]*models.Score, 0)
	for rows.Next() {
		var s models.Score
		scanErr := rows.Scan(
			&s.ID, &s.SubmissionID, &s.JudgeID, &s.CriterionID,
			&s.Value, &s.Comment, &s.CreatedAt, &s.UpdatedAt,
		)
		if scanErr != nil {
			return nil, scanErr
		}
		scores = append(scores, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return scores, nil
}

func (r *postgresScoreRepository) DeleteBySubmission(ctx context.Context, exec SQLExecutor, submissionID int) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM scores WHERE submission_id = $1`
	_, err := executor.ExecContext(ctx, query, submissionID)
	return err
}
