package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Sarsenovv/competition-platform/models"
	"github.com/lib/pq"
)

var (
	ErrSubmissionNotFound           = errors.New("submission not found")
	ErrSubmissionCompetitionInvalid = errors.New("submission competition conflict or invalid")
	ErrSubmissionOwnerInvalid       = errors.New("submission owner conflict or invalid")
	ErrSubmissionOwnerConflict      = errors.New("owner already has a submission for this competition")
)

type SubmissionRepository interface {
	Create(ctx context.Context, exec SQLExecutor, submission *models.Submission) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Submission, error)
	Update(ctx context.Context, exec SQLExecutor, submission *models.Submission) error
	// UpdateEvaluation персистит пересчитанный final_score и статус одной заявки.
	UpdateEvaluation(ctx context.Context, exec SQLExecutor, id int, finalScore *float64, status models.SubmissionStatus) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.SubmissionStatus, feedback *string) error
	// PublishByCompetition переводит все заявки конкурса с перечисленными
	// статусами в status=published одним запросом и возвращает только
	// изменённые этим вызовом строки.
	PublishByCompetition(ctx context.Context, exec SQLExecutor, competitionID int, from []models.SubmissionStatus) ([]*models.Submission, error)
	ListByCompetition(ctx context.Context, exec SQLExecutor, competitionID int, status *models.SubmissionStatus) ([]*models.Submission, error)
	GetByCompetitionAndOwner(ctx context.Context, exec SQLExecutor, competitionID, ownerID int) (*models.Submission, error)
}

type postgresSubmissionRepository struct {
	db *sql.DB
}

func NewPostgresSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &postgresSubmissionRepository{db: db}
}

func (r *postgresSubmissionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const submissionColumns = `id, competition_id, owner_id, team_name, title, summary,
	repo_url, storage_url, video_url, archive_url, attachments, status, final_score, feedback,
	created_at, updated_at`

func (r *postgresSubmissionRepository) Create(ctx context.Context, exec SQLExecutor, submission *models.Submission) error {
	executor := r.getExecutor(exec)

	attachments, err := marshalAttachments(submission.Attachments)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO submissions
			(competition_id, owner_id, team_name, title, summary, repo_url, storage_url, video_url, archive_url, attachments, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	err = executor.QueryRowContext(ctx, query,
		submission.CompetitionID,
		submission.OwnerID,
		submission.TeamName,
		submission.Title,
		submission.Summary,
		submission.RepoURL,
		submission.StorageURL,
		submission.VideoURL,
		submission.ArchiveURL,
		attachments,
		submission.Status,
	).Scan(&submission.ID, &submission.CreatedAt, &submission.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "submissions_competition_id_owner_id_key" {
					return ErrSubmissionOwnerConflict
				}
			case "23503":
				if pqErr.Constraint == "submissions_competition_id_fkey" {
					return ErrSubmissionCompetitionInvalid
				}
				if pqErr.Constraint == "submissions_owner_id_fkey" {
					return ErrSubmissionOwnerInvalid
				}
			}
		}
		return err
	}
	return nil
}

func (r *postgresSubmissionRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Submission, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	row := executor.QueryRowContext(ctx, query, id)
	return scanSubmissionRow(row)
}

func (r *postgresSubmissionRepository) GetByCompetitionAndOwner(ctx context.Context, exec SQLExecutor, competitionID, ownerID int) (*models.Submission, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE competition_id = $1 AND owner_id = $2`
	row := executor.QueryRowContext(ctx, query, competitionID, ownerID)
	return scanSubmissionRow(row)
}

func (r *postgresSubmissionRepository) Update(ctx context.Context, exec SQLExecutor, submission *models.Submission) error {
	executor := r.getExecutor(exec)

	attachments, err := marshalAttachments(submission.Attachments)
	if err != nil {
		return err
	}

	query := `
		UPDATE submissions SET
			team_name = $1,
			title = $2,
			summary = $3,
			repo_url = $4,
			storage_url = $5,
			video_url = $6,
			archive_url = $7,
			attachments = $8,
			updated_at = NOW()
		WHERE id = $9`

	result, err := executor.ExecContext(ctx, query,
		submission.TeamName,
		submission.Title,
		submission.Summary,
		submission.RepoURL,
		submission.StorageURL,
		submission.VideoURL,
		submission.ArchiveURL,
		attachments,
		submission.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSubmissionNotFound)
}

func (r *postgresSubmissionRepository) UpdateEvaluation(ctx context.Context, exec SQLExecutor, id int, finalScore *float64, status models.SubmissionStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE submissions SET final_score = $1, status = $2, updated_at = NOW() WHERE id = $3`
	result, err := executor.ExecContext(ctx, query, finalScore, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSubmissionNotFound)
}

func (r *postgresSubmissionRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.SubmissionStatus, feedback *string) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE submissions SET
			status = $1,
			feedback = COALESCE($2, feedback),
			updated_at = NOW()
		WHERE id = $3`
	result, err := executor.ExecContext(ctx, query, status, feedback, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSubmissionNotFound)
}

func (r *postgresSubmissionRepository) PublishByCompetition(ctx context.Context, exec SQLExecutor, competitionID int, from []models.SubmissionStatus) ([]*models.Submission, error) {
	executor := r.getExecutor(exec)

	statuses := make([]string, 0, len(from))
	for _, s := range from {
		statuses = append(statuses, string(s))
	}

	query := `
		UPDATE submissions SET status = $1, updated_at = NOW()
		WHERE competition_id = $2 AND status = ANY($3)
		RETURNING ` + submissionColumns

	rows, err := executor.QueryContext(ctx, query, models.SubmissionStatusPublished, competitionID, pq.Array(statuses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	published := make([]*models.Submission, 0)
	for rows.Next() {
		submission, scanErr := scanSubmissionRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		published = append(published, submission)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return published, nil
}

func (r *postgresSubmissionRepository) ListByCompetition(ctx context.Context, exec SQLExecutor, competitionID int, status *models.SubmissionStatus) ([]*models.Submission, error) {
	executor := r.getExecutor(exec)

	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE competition_id = $1`
	args := []interface{}{competitionID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	submissions := make([]*models.Submission, 0)
	for rows.Next() {
		submission, scanErr := scanSubmissionRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		submissions = append(submissions, submission)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return submissions, nil
}

func scanSubmissionRow(scanner interface{ Scan(...interface{}) error }) (*models.Submission, error) {
	var s models.Submission
	var attachments []byte
	err := scanner.Scan(
		&s.ID,
		&s.CompetitionID,
		&s.OwnerID,
		&s.TeamName,
		&s.Title,
		&s.Summary,
		&s.RepoURL,
		&s.StorageURL,
		&s.VideoURL,
		&s.ArchiveURL,
		&attachments,
		&s.Status,
		&s.FinalScore,
		&s.Feedback,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &s.Attachments); err != nil {
			return nil, fmt.Errorf("failed to decode submission %d attachments: %w", s.ID, err)
		}
	}
	if s.Attachments == nil {
		s.Attachments = []models.Attachment{}
	}
	return &s, nil
}

func marshalAttachments(attachments []models.Attachment) ([]byte, error) {
	if attachments == nil {
		attachments = []models.Attachment{}
	}
	data, err := json.Marshal(attachments)
	if err != nil {
		return nil, fmt.Errorf("failed to encode attachments: %w", err)
	}
	return data, nil
}
