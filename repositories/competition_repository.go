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
	ErrCompetitionNotFound         = errors.New("competition not found")
	ErrCompetitionTitleConflict    = errors.New("competition title conflict")
	ErrCompetitionOrganizerInvalid = errors.New("competition organizer invalid")
)

type CompetitionFilter struct {
	Status      *models.CompetitionStatus
	OrganizerID *int
}

type CompetitionRepository interface {
	Create(ctx context.Context, competition *models.Competition) error
	GetByID(ctx context.Context, id int) (*models.Competition, error)
	Update(ctx context.Context, competition *models.Competition) error
	UpdateStatus(ctx context.Context, id int, status models.CompetitionStatus) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, filter CompetitionFilter) ([]*models.Competition, error)
	// ListDueForStatus возвращает конкурсы, чей статус должен быть продвинут по датам.
	ListDueForStatus(ctx context.Context, now time.Time) ([]*models.Competition, error)
}

type postgresCompetitionRepository struct {
	db *sql.DB
}

func NewPostgresCompetitionRepository(db *sql.DB) CompetitionRepository {
	return &postgresCompetitionRepository{db: db}
}

const competitionColumns = `id, title, description, organizer_id, reg_end_date, start_date, end_date,
	status, max_entries, entry_fee, logo_key, created_at`

func (r *postgresCompetitionRepository) Create(ctx context.Context, competition *models.Competition) error {
	query := `
		INSERT INTO competitions (title, description, organizer_id, reg_end_date, start_date, end_date, status, max_entries, entry_fee)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		competition.Title,
		competition.Description,
		competition.OrganizerID,
		competition.RegEndDate,
		competition.StartDate,
		competition.EndDate,
		competition.Status,
		competition.MaxEntries,
		competition.EntryFee,
	).Scan(&competition.ID, &competition.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "competitions_title_key" {
					return ErrCompetitionTitleConflict
				}
			case "23503":
				if pqErr.Constraint == "competitions_organizer_id_fkey" {
					return ErrCompetitionOrganizerInvalid
				}
			}
		}
		return err
	}
	return nil
}

func (r *postgresCompetitionRepository) GetByID(ctx context.Context, id int) (*models.Competition, error) {
	query := `SELECT ` + competitionColumns + ` FROM competitions WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)
	competition, err := scanCompetitionRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}
	return competition, nil
}

func (r *postgresCompetitionRepository) Update(ctx context.Context, competition *models.Competition) error {
	query := `
		UPDATE competitions SET
			title = $1,
			description = $2,
			reg_end_date = $3,
			start_date = $4,
			end_date = $5,
			status = $6,
			max_entries = $7,
			entry_fee = $8,
			logo_key = $9
		WHERE id = $10`

	result, err := r.db.ExecContext(ctx, query,
		competition.Title,
		competition.Description,
		competition.RegEndDate,
		competition.StartDate,
		competition.EndDate,
		competition.Status,
		competition.MaxEntries,
		competition.EntryFee,
		competition.LogoKey,
		competition.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "competitions_title_key" {
				return ErrCompetitionTitleConflict
			}
		}
		return err
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

func (r *postgresCompetitionRepository) UpdateStatus(ctx context.Context, id int, status models.CompetitionStatus) error {
	query := `UPDATE competitions SET status = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

func (r *postgresCompetitionRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM competitions WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

func (r *postgresCompetitionRepository) List(ctx context.Context, filter CompetitionFilter) ([]*models.Competition, error) {
	query := `SELECT ` + competitionColumns + ` FROM competitions WHERE 1=1`
	args := make([]interface{}, 0, 2)

	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += ` AND status = $1`
	}
	if filter.OrganizerID != nil {
		args = append(args, *filter.OrganizerID)
		if len(args) == 1 {
			query += ` AND organizer_id = $1`
		} else {
			query += ` AND organizer_id = $2`
		}
	}
	query += ` ORDER BY start_date DESC, id DESC`

	return r.queryCompetitions(ctx, query, args...)
}

func (r *postgresCompetitionRepository) ListDueForStatus(ctx context.Context, now time.Time) ([]*models.Competition, error) {
	// Конкурсы, у которых прошла дата смены фазы, но статус ещё не обновлён.
	query := `SELECT ` + competitionColumns + ` FROM competitions
		WHERE (status = 'registration' AND reg_end_date <= $1)
		   OR (status = 'judging' AND end_date <= $1)
		ORDER BY id ASC`
	return r.queryCompetitions(ctx, query, now)
}

func (r *postgresCompetitionRepository) queryCompetitions(ctx context.Context, query string, args ...interface{}) ([]*models.Competition, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	competitions := make([]*models.Competition, 0)
	for rows.Next() {
		competition, scanErr := scanCompetitionRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		competitions = append(competitions, competition)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return competitions, nil
}

func scanCompetitionRow(scanner interface{ Scan(...interface{}) error }) (*models.Competition, error) {
	var c models.Competition
	err := scanner.Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.OrganizerID,
		&c.RegEndDate,
		&c.StartDate,
		&c.EndDate,
		&c.Status,
		&c.MaxEntries,
		&c.EntryFee,
		&c.LogoKey,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
