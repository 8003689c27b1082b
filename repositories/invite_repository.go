package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Sarsenovv/competition-platform/models"
	"github.com/lib/pq"
)

var (
	ErrInviteNotFound      = errors.New("invite not found")
	ErrInviteTokenConflict = errors.New("invite token conflict")
	ErrInviteTeamInvalid   = errors.New("invite team conflict or invalid")
)

type InviteRepository interface {
	Create(ctx context.Context, invite *models.Invite) error
	GetByToken(ctx context.Context, token string) (*models.Invite, error)
	Delete(ctx context.Context, id int) error
	ListByTeamID(ctx context.Context, teamID int) ([]*models.Invite, error)
	// DeleteExpired удаляет все приглашения с истёкшим сроком, возвращает их число.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type postgresInviteRepository struct {
	db *sql.DB
}

func NewPostgresInviteRepository(db *sql.DB) InviteRepository {
	return &postgresInviteRepository{db: db}
}

func (r *postgresInviteRepository) Create(ctx context.Context, invite *models.Invite) error {
	query := `
		INSERT INTO invites (team_id, token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, invite.TeamID, invite.Token, invite.ExpiresAt).
		Scan(&invite.ID, &invite.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "invites_token_key" {
					return ErrInviteTokenConflict
				}
			case "23503":
				if pqErr.Constraint == "invites_team_id_fkey" {
					return ErrInviteTeamInvalid
				}
			}
		}
		return err
	}
	return nil
}

func (r *postgresInviteRepository) GetByToken(ctx context.Context, token string) (*models.Invite, error) {
	query := `SELECT id, team_id, token, expires_at, created_at FROM invites WHERE token = $1`
	var invite models.Invite
	err := r.db.QueryRowContext(ctx, query, token).
		Scan(&invite.ID, &invite.TeamID, &invite.Token, &invite.ExpiresAt, &invite.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}
	return &invite, nil
}

func (r *postgresInviteRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM invites WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrInviteNotFound)
}

func (r *postgresInviteRepository) ListByTeamID(ctx context.Context, teamID int) ([]*models.Invite, error) {
	query := `
		SELECT id, team_id, token, expires_at, created_at
		FROM invites
		WHERE team_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invites := make([]*models.Invite, 0)
	for rows.Next() {
		var invite models.Invite
		scanErr := rows.Scan(&invite.ID, &invite.TeamID, &invite.Token, &invite.ExpiresAt, &invite.CreatedAt)
		if scanErr != nil {
			return nil, scanErr
		}
		invites = append(invites, &invite)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return invites, nil
}

func (r *postgresInviteRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM invites WHERE expires_at <= $1`
	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
