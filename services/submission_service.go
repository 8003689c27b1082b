package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/Sarsenovv/competition-platform/metrics"
	"github.com/Sarsenovv/competition-platform/models"
	"github.com/Sarsenovv/competition-platform/repositories"
	"github.com/Sarsenovv/competition-platform/storage"
	"github.com/google/uuid"
)

// submissionTransitions — разрешённые ручные переходы статуса заявки.
// Переход в published выполняется только массовой публикацией результатов.
var submissionTransitions = map[models.SubmissionStatus][]models.SubmissionStatus{
	models.SubmissionStatusSubmitted: {
		models.SubmissionStatusUnderReview,
		models.SubmissionStatusDisqualified,
	},
	models.SubmissionStatusUnderReview: {
		models.SubmissionStatusShortlisted,
		models.SubmissionStatusNotWinner,
		models.SubmissionStatusDisqualified,
	},
	models.SubmissionStatusShortlisted: {
		models.SubmissionStatusWinner,
		models.SubmissionStatusNotWinner,
		models.SubmissionStatusDisqualified,
	},
}

// CanTransitionSubmission reports whether a manual status change from->to is allowed.
func CanTransitionSubmission(from, to models.SubmissionStatus) bool {
	for _, allowed := range submissionTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type CreateSubmissionInput struct {
	CompetitionID int     `json:"competition_id"`
	TeamName      *string `json:"team_name,omitempty"`
	Title         string  `json:"title"`
	Summary       *string `json:"summary,omitempty"`
	RepoURL       *string `json:"repo_url,omitempty"`
	StorageURL    *string `json:"storage_url,omitempty"`
	VideoURL      *string `json:"video_url,omitempty"`
	ArchiveURL    *string `json:"archive_url,omitempty"`
}

type UpdateSubmissionInput struct {
	TeamName   *string `json:"team_name,omitempty"`
	Title      *string `json:"title,omitempty"`
	Summary    *string `json:"summary,omitempty"`
	RepoURL    *string `json:"repo_url,omitempty"`
	StorageURL *string `json:"storage_url,omitempty"`
	VideoURL   *string `json:"video_url,omitempty"`
	ArchiveURL *string `json:"archive_url,omitempty"`
}

type SubmissionService interface {
	Create(ctx context.Context, ownerID int, input CreateSubmissionInput) (*models.Submission, error)
	GetByID(ctx context.Context, id int) (*models.Submission, error)
	Update(ctx context.Context, id, currentUserID int, input UpdateSubmissionInput) (*models.Submission, error)
	// SetStatus — ручной (админский) перевод статуса с проверкой машины состояний.
	SetStatus(ctx context.Context, id int, status models.SubmissionStatus, feedback *string) (*models.Submission, error)
	ListByCompetition(ctx context.Context, competitionID int, status *models.SubmissionStatus) ([]*models.Submission, error)
	AddAttachment(ctx context.Context, id, currentUserID int, filename, contentType string, size int64, content io.Reader) (*models.Submission, error)
}

type submissionService struct {
	submissionRepo   repositories.SubmissionRepository
	competitionRepo  repositories.CompetitionRepository
	registrationRepo repositories.RegistrationRepository
	userRepo         repositories.UserRepository
	uploader         storage.FileUploader
	mailer           Mailer
	logger           *slog.Logger
}

func NewSubmissionService(
	submissionRepo repositories.SubmissionRepository,
	competitionRepo repositories.CompetitionRepository,
	registrationRepo repositories.RegistrationRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
	mailer Mailer,
	logger *slog.Logger,
) SubmissionService {
	return &submissionService{
		submissionRepo:   submissionRepo,
		competitionRepo:  competitionRepo,
		registrationRepo: registrationRepo,
		userRepo:         userRepo,
		uploader:         uploader,
		mailer:           mailer,
		logger:           logger,
	}
}

func (s *submissionService) Create(ctx context.Context, ownerID int, input CreateSubmissionInput) (*models.Submission, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidationFailed)
	}

	if _, err := s.competitionRepo.GetByID(ctx, input.CompetitionID); err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to get competition %d: %w", input.CompetitionID, err)
	}

	// Подать проект может только участник, зарегистрированный на конкурс.
	registration, err := s.registrationRepo.GetByCompetitionAndUser(ctx, nil, input.CompetitionID, ownerID)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return nil, ErrSubmissionRegistrationRequired
		}
		return nil, fmt.Errorf("failed to check registration: %w", err)
	}
	if registration.Status == models.RegistrationStatusCanceled {
		return nil, ErrSubmissionRegistrationRequired
	}

	submission := &models.Submission{
		CompetitionID: input.CompetitionID,
		OwnerID:       ownerID,
		TeamName:      input.TeamName,
		Title:         input.Title,
		Summary:       input.Summary,
		RepoURL:       input.RepoURL,
		StorageURL:    input.StorageURL,
		VideoURL:      input.VideoURL,
		ArchiveURL:    input.ArchiveURL,
		Attachments:   []models.Attachment{},
		Status:        models.SubmissionStatusSubmitted,
	}

	if err := s.submissionRepo.Create(ctx, nil, submission); err != nil {
		switch {
		case errors.Is(err, repositories.ErrSubmissionOwnerConflict):
			return nil, ErrSubmissionConflict
		case errors.Is(err, repositories.ErrSubmissionCompetitionInvalid):
			return nil, ErrCompetitionNotFound
		case errors.Is(err, repositories.ErrSubmissionOwnerInvalid):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}
	return submission, nil
}

func (s *submissionService) GetByID(ctx context.Context, id int) (*models.Submission, error) {
	submission, err := s.submissionRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrSubmissionNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission %d: %w", id, err)
	}
	return submission, nil
}

func (s *submissionService) Update(ctx context.Context, id, currentUserID int, input UpdateSubmissionInput) (*models.Submission, error) {
	submission, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if submission.OwnerID != currentUserID {
		return nil, ErrForbiddenOperation
	}
	// Артефакты можно менять только до начала оценивания.
	if submission.Status != models.SubmissionStatusSubmitted {
		return nil, ErrSubmissionNotEditable
	}

	if input.TeamName != nil {
		submission.TeamName = input.TeamName
	}
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, fmt.Errorf("%w: title is required", ErrValidationFailed)
		}
		submission.Title = *input.Title
	}
	if input.Summary != nil {
		submission.Summary = input.Summary
	}
	if input.RepoURL != nil {
		submission.RepoURL = input.RepoURL
	}
	if input.StorageURL != nil {
		submission.StorageURL = input.StorageURL
	}
	if input.VideoURL != nil {
		submission.VideoURL = input.VideoURL
	}
	if input.ArchiveURL != nil {
		submission.ArchiveURL = input.ArchiveURL
	}

	if err := s.submissionRepo.Update(ctx, nil, submission); err != nil {
		if errors.Is(err, repositories.ErrSubmissionNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to update submission %d: %w", id, err)
	}
	return submission, nil
}

func (s *submissionService) SetStatus(ctx context.Context, id int, status models.SubmissionStatus, feedback *string) (*models.Submission, error) {
	if !status.Valid() {
		return nil, ErrSubmissionInvalidStatus
	}

	submission, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanTransitionSubmission(submission.Status, status) {
		return nil, ErrSubmissionInvalidTransition
	}

	if err := s.submissionRepo.UpdateStatus(ctx, nil, id, status, feedback); err != nil {
		if errors.Is(err, repositories.ErrSubmissionNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to update submission %d status: %w", id, err)
	}
	submission.Status = status
	if feedback != nil {
		submission.Feedback = feedback
	}

	// Уведомление автора — вне критического пути.
	go s.notifyStatusChange(submission)

	return submission, nil
}

func (s *submissionService) ListByCompetition(ctx context.Context, competitionID int, status *models.SubmissionStatus) ([]*models.Submission, error) {
	if status != nil && !status.Valid() {
		return nil, ErrSubmissionInvalidStatus
	}
	if _, err := s.competitionRepo.GetByID(ctx, competitionID); err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to get competition %d: %w", competitionID, err)
	}

	submissions, err := s.submissionRepo.ListByCompetition(ctx, nil, competitionID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions for competition %d: %w", competitionID, err)
	}
	return submissions, nil
}

func (s *submissionService) AddAttachment(ctx context.Context, id, currentUserID int, filename, contentType string, size int64, content io.Reader) (*models.Submission, error) {
	submission, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if submission.OwnerID != currentUserID {
		return nil, ErrForbiddenOperation
	}
	if submission.Status != models.SubmissionStatusSubmitted {
		return nil, ErrSubmissionNotEditable
	}

	key := fmt.Sprintf("submissions/%d/%s%s", submission.ID, uuid.NewString(), path.Ext(filename))
	result, err := s.uploader.Upload(ctx, key, contentType, content)
	if err != nil {
		return nil, fmt.Errorf("failed to upload attachment: %w", err)
	}

	submission.Attachments = append(submission.Attachments, models.Attachment{
		Name:        filename,
		URL:         result.Location,
		ContentType: contentType,
		Size:        size,
	})

	if err := s.submissionRepo.Update(ctx, nil, submission); err != nil {
		// Файл уже загружен; чистим, чтобы не копить сироты в бакете.
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.Error("failed to delete orphaned attachment",
				slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, fmt.Errorf("failed to persist attachment for submission %d: %w", id, err)
	}
	return submission, nil
}

func (s *submissionService) notifyStatusChange(submission *models.Submission) {
	if s.mailer == nil {
		return
	}
	ctx := context.Background()

	owner, err := s.userRepo.GetByID(ctx, submission.OwnerID)
	if err != nil {
		s.logger.Error("status notification: failed to load owner",
			slog.Int("submission_id", submission.ID), slog.Any("error", err))
		metrics.EmailsFailed.Inc()
		return
	}
	competition, err := s.competitionRepo.GetByID(ctx, submission.CompetitionID)
	if err != nil {
		s.logger.Error("status notification: failed to load competition",
			slog.Int("submission_id", submission.ID), slog.Any("error", err))
		metrics.EmailsFailed.Inc()
		return
	}

	err = s.mailer.SendSubmissionStatusEmail(owner.Email, owner.FirstName, competition.Title, submission.Title, submission.Status, submission.Feedback)
	if err != nil {
		s.logger.Error("status notification: failed to send email",
			slog.Int("submission_id", submission.ID), slog.Any("error", err))
		metrics.EmailsFailed.Inc()
	}
}
