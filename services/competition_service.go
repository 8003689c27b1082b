package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Sarsenovv/competition-platform/models"
	"github.com/Sarsenovv/competition-platform/repositories"
	"github.com/Sarsenovv/competition-platform/storage"
)

type CompetitionInput struct {
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	RegEndDate  time.Time `json:"reg_end_date"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	MaxEntries  int       `json:"max_entries"`
	EntryFee    int       `json:"entry_fee"`
}

type CompetitionService interface {
	Create(ctx context.Context, organizerID int, input CompetitionInput) (*models.Competition, error)
	GetByID(ctx context.Context, id int) (*models.Competition, error)
	Update(ctx context.Context, id, currentUserID int, currentRole models.UserRole, input CompetitionInput) (*models.Competition, error)
	SetStatus(ctx context.Context, id, currentUserID int, currentRole models.UserRole, status models.CompetitionStatus) error
	Delete(ctx context.Context, id, currentUserID int, currentRole models.UserRole) error
	List(ctx context.Context, filter repositories.CompetitionFilter) ([]*models.Competition, error)
	UploadLogo(ctx context.Context, id, currentUserID int, currentRole models.UserRole, contentType, filename string, content io.Reader) (*models.Competition, error)
	// AdvanceDueStatuses продвигает конкурсы по датам; вызывается планировщиком.
	AdvanceDueStatuses(ctx context.Context, now time.Time) error
	RunStatusMaintenanceLoop(ctx context.Context, interval time.Duration)
}

type competitionService struct {
	competitionRepo repositories.CompetitionRepository
	uploader        storage.FileUploader
	logger          *slog.Logger
}

func NewCompetitionService(competitionRepo repositories.CompetitionRepository, uploader storage.FileUploader, logger *slog.Logger) CompetitionService {
	return &competitionService{
		competitionRepo: competitionRepo,
		uploader:        uploader,
		logger:          logger,
	}
}

func validateCompetitionInput(input CompetitionInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return ErrValidationFailed
	}
	if !input.EndDate.After(input.StartDate) {
		return ErrCompetitionInvalidDateRange
	}
	if input.RegEndDate.After(input.StartDate) {
		return ErrCompetitionInvalidRegDate
	}
	if input.MaxEntries < 0 || input.EntryFee < 0 {
		return ErrCompetitionInvalidCapacity
	}
	return nil
}

func (s *competitionService) Create(ctx context.Context, organizerID int, input CompetitionInput) (*models.Competition, error) {
	if err := validateCompetitionInput(input); err != nil {
		return nil, err
	}

	competition := &models.Competition{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		OrganizerID: organizerID,
		RegEndDate:  input.RegEndDate,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Status:      models.CompetitionStatusDraft,
		MaxEntries:  input.MaxEntries,
		EntryFee:    input.EntryFee,
	}
	if err := s.competitionRepo.Create(ctx, competition); err != nil {
		switch {
		case errors.Is(err, repositories.ErrCompetitionTitleConflict):
			return nil, ErrCompetitionTitleConflict
		case errors.Is(err, repositories.ErrCompetitionOrganizerInvalid):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create competition: %w", err)
	}
	return competition, nil
}

func (s *competitionService) GetByID(ctx context.Context, id int) (*models.Competition, error) {
	competition, err := s.competitionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to get competition %d: %w", id, err)
	}
	s.attachLogoURL(competition)
	return competition, nil
}

// canManage проверяет, что пользователь — организатор конкурса или админ.
func (s *competitionService) canManage(competition *models.Competition, userID int, role models.UserRole) bool {
	return competition.OrganizerID == userID || role == models.RoleAdmin
}

func (s *competitionService) Update(ctx context.Context, id, currentUserID int, currentRole models.UserRole, input CompetitionInput) (*models.Competition, error) {
	competition, err := s.competitionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to get competition %d: %w", id, err)
	}
	if !s.canManage(competition, currentUserID, currentRole) {
		return nil, ErrForbiddenOperation
	}
	if err := validateCompetitionInput(input); err != nil {
		return nil, err
	}

	competition.Title = strings.TrimSpace(input.Title)
	competition.Description = input.Description
	competition.RegEndDate = input.RegEndDate
	competition.StartDate = input.StartDate
	competition.EndDate = input.EndDate
	competition.MaxEntries = input.MaxEntries
	competition.EntryFee = input.EntryFee

	if err := s.competitionRepo.Update(ctx, competition); err != nil {
		if errors.Is(err, repositories.ErrCompetitionTitleConflict) {
			return nil, ErrCompetitionTitleConflict
		}
		return nil, fmt.Errorf("failed to update competition %d: %w", id, err)
	}
	s.attachLogoURL(competition)
	return competition, nil
}

// competitionTransitions описывает допустимые ручные переводы статуса.
var competitionTransitions = map[models.CompetitionStatus][]models.CompetitionStatus{
	models.CompetitionStatusDraft:        {models.CompetitionStatusRegistration, models.CompetitionStatusCanceled},
	models.CompetitionStatusRegistration: {models.CompetitionStatusJudging, models.CompetitionStatusCanceled},
	models.CompetitionStatusJudging:      {models.CompetitionStatusCompleted, models.CompetitionStatusCanceled},
	models.CompetitionStatusCompleted:    {},
	models.CompetitionStatusCanceled:     {},
}

func CanTransitionCompetition(from, to models.CompetitionStatus) bool {
	for _, allowed := range competitionTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s *competitionService) SetStatus(ctx context.Context, id, currentUserID int, currentRole models.UserRole, status models.CompetitionStatus) error {
	switch status {
	case models.CompetitionStatusDraft, models.CompetitionStatusRegistration,
		models.CompetitionStatusJudging, models.CompetitionStatusCompleted,
		models.CompetitionStatusCanceled:
	default:
		return ErrCompetitionInvalidStatus
	}

	competition, err := s.competitionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return ErrCompetitionNotFound
		}
		return fmt.Errorf("failed to get competition %d: %w", id, err)
	}
	if !s.canManage(competition, currentUserID, currentRole) {
		return ErrForbiddenOperation
	}
	if !CanTransitionCompetition(competition.Status, status) {
		return ErrCompetitionInvalidStatus
	}

	if err := s.competitionRepo.UpdateStatus(ctx, id, status); err != nil {
		return fmt.Errorf("failed to update competition %d status: %w", id, err)
	}
	return nil
}

func (s *competitionService) Delete(ctx context.Context, id, currentUserID int, currentRole models.UserRole) error {
	competition, err := s.competitionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return ErrCompetitionNotFound
		}
		return fmt.Errorf("failed to get competition %d: %w", id, err)
	}
	if !s.canManage(competition, currentUserID, currentRole) {
		return ErrForbiddenOperation
	}
	// Удалять можно только черновики; дальше конкурс отменяется.
	if competition.Status != models.CompetitionStatusDraft {
		return ErrCompetitionInvalidStatus
	}

	if err := s.competitionRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete competition %d: %w", id, err)
	}
	if competition.LogoKey != nil {
		_ = s.uploader.Delete(ctx, *competition.LogoKey)
	}
	return nil
}

func (s *competitionService) List(ctx context.Context, filter repositories.CompetitionFilter) ([]*models.Competition, error) {
	competitions, err := s.competitionRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitions: %w", err)
	}
	for _, competition := range competitions {
		s.attachLogoURL(competition)
	}
	return competitions, nil
}

func (s *competitionService) UploadLogo(ctx context.Context, id, currentUserID int, currentRole models.UserRole, contentType, filename string, content io.Reader) (*models.Competition, error) {
	competition, err := s.competitionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to get competition %d: %w", id, err)
	}
	if !s.canManage(competition, currentUserID, currentRole) {
		return nil, ErrForbiddenOperation
	}

	key := fmt.Sprintf("competitions/%d/%s%s", competition.ID, uuid.NewString(), path.Ext(filename))
	result, err := s.uploader.Upload(ctx, key, contentType, content)
	if err != nil {
		return nil, fmt.Errorf("failed to upload logo: %w", err)
	}

	oldKey := competition.LogoKey
	competition.LogoKey = &result.Key
	if err := s.competitionRepo.Update(ctx, competition); err != nil {
		_ = s.uploader.Delete(ctx, result.Key)
		return nil, fmt.Errorf("failed to persist logo key: %w", err)
	}
	if oldKey != nil {
		_ = s.uploader.Delete(ctx, *oldKey)
	}

	competition.LogoURL = &result.Location
	return competition, nil
}

func (s *competitionService) attachLogoURL(competition *models.Competition) {
	if competition.LogoKey != nil {
		url := s.uploader.GetPublicURL(*competition.LogoKey)
		competition.LogoURL = &url
	}
}

// AdvanceDueStatuses переводит registration -> judging по reg-дедлайну и
// judging -> completed по дате окончания. Запускается фоновым тикером.
func (s *competitionService) AdvanceDueStatuses(ctx context.Context, now time.Time) error {
	due, err := s.competitionRepo.ListDueForStatus(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to list due competitions: %w", err)
	}

	for _, competition := range due {
		var next models.CompetitionStatus
		switch competition.Status {
		case models.CompetitionStatusRegistration:
			next = models.CompetitionStatusJudging
		case models.CompetitionStatusJudging:
			next = models.CompetitionStatusCompleted
		default:
			continue
		}
		if err := s.competitionRepo.UpdateStatus(ctx, competition.ID, next); err != nil {
			s.logger.Error("failed to advance competition status",
				"competition_id", competition.ID, "from", competition.Status, "to", next, "error", err)
			continue
		}
		s.logger.Info("competition status advanced",
			"competition_id", competition.ID, "from", competition.Status, "to", next)
	}
	return nil
}

// RunStatusMaintenanceLoop периодически продвигает статусы конкурсов по датам.
func (s *competitionService) RunStatusMaintenanceLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.AdvanceDueStatuses(ctx, time.Now()); err != nil {
				s.logger.Error("competition status maintenance failed", "error", err)
			}
		}
	}
}
