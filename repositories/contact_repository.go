package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Sarsenovv/competition-platform/models"
	"github.com/lib/pq"
)

var (
	ErrContactRequestNotFound          = errors.New("contact request not found")
	ErrContactRequestConflict          = errors.New("contact request already exists for this submission")
	ErrContactRequestSubmissionInvalid = errors.New("contact request submission conflict or invalid")
)

type ContactRequestRepository interface {
	Create(ctx context.Context, request *models.ContactRequest) error
	GetByID(ctx context.Context, id int) (*models.ContactRequest, error)
	UpdateStatus(ctx context.Context, id int, status models.ContactRequestStatus) error
	ListByRequester(ctx context.Context, requesterID int) ([]*models.ContactRequest, error)
	ListBySubmissionOwner(ctx context.Context, ownerID int) ([]*models.ContactRequest, error)
}

type postgresContactRequestRepository struct {
	db *sql.DB
}

func NewPostgresContactRequestRepository(db *sql.DB) ContactRequestRepository {
	return &postgresContactRequestRepository{db: db}
}

func (r *postgresContactRequestRepository) Create(ctx context.Context, request *models.ContactRequest) error {
	query := `
		INSERT INTO contact_requests (requester_id, submission_id, message, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		request.RequesterID,
		request.SubmissionID,
		request.Message,
		request.Status,
	).Scan(&request.ID, &request.CreatedAt, &request.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "contact_requests_requester_id_submission_id_key" {
					return ErrContactRequestConflict
				}
			case "23503":
				if pqErr.Constraint == "contact_requests_submission_id_fkey" {
					return ErrContactRequestSubmissionInvalid
				}
			}
		}
		return err
	}
	return nil
}

func (r *postgresContactRequestRepository) GetByID(ctx context.Context, id int) (*models.ContactRequest, error) {
	query := `
		SELECT id, requester_id, submission_id, message, status, created_at, updated_at
		FROM contact_requests WHERE id = $1`
	var req models.ContactRequest
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&req.ID, &req.RequesterID, &req.SubmissionID, &req.Message,
		&req.Status, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContactRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *postgresContactRequestRepository) UpdateStatus(ctx context.Context, id int, status models.ContactRequestStatus) error {
	query := `UPDATE contact_requests SET status = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrContactRequestNotFound)
}

func (r *postgresContactRequestRepository) ListByRequester(ctx context.Context, requesterID int) ([]*models.ContactRequest, error) {
	query := `
		SELECT id, requester_id, submission_id, message, status, created_at, updated_at
		FROM contact_requests WHERE requester_id = $1
		ORDER BY created_at DESC`
	return r.queryContactRequests(ctx, query, requesterID)
}

func (r *postgresContactRequestRepository) ListBySubmissionOwner(ctx context.Context, ownerID int) ([]*models.ContactRequest, error) {
	query := `
		SELECT cr.id, cr.requester_id, cr.submission_id, cr.message, cr.status, cr.created_at, cr.updated_at
		FROM contact_requests cr
		JOIN submissions s ON cr.submission_id = s.id
		WHERE s.owner_id = $1
		ORDER BY cr.created_at DESC`
	return r.queryContactRequests(ctx, query, ownerID)
}

func (r *postgresContactRequestRepository) queryContactRequests(ctx context.Context, query string, args ...interface{}) ([]*models.ContactRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]*models.ContactRequest, 0)
	for rows.Next() {
		var req models.ContactRequest
		scanErr := rows.Scan(
			&req.ID, &req.RequesterID, &req.SubmissionID, &req.Message,
			&req.Status, &req.CreatedAt, &req.UpdatedAt,
		)
		if scanErr != nil {
			return nil, scanErr
		}
		requests = append(requests, &req)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}
