package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Sarsenovv/competition-platform/models"
	"github.com/Sarsenovv/competition-platform/repositories"
)

type CreateContactRequestInput struct {
	SubmissionID int    `json:"submission_id"`
	Message      string `json:"message"`
}

type ContactService interface {
	Create(ctx context.Context, requesterID int, input CreateContactRequestInput) (*models.ContactRequest, error)
	Respond(ctx context.Context, requestID, currentUserID int, accept bool) error
	ListSent(ctx context.Context, requesterID int) ([]*models.ContactRequest, error)
	ListReceived(ctx context.Context, ownerID int) ([]*models.ContactRequest, error)
}

type contactService struct {
	contactRepo    repositories.ContactRequestRepository
	submissionRepo repositories.SubmissionRepository
	userRepo       repositories.UserRepository
	mailer         Mailer
	logger         *slog.Logger
}

func NewContactService(
	contactRepo repositories.ContactRequestRepository,
	submissionRepo repositories.SubmissionRepository,
	userRepo repositories.UserRepository,
	mailer Mailer,
	logger *slog.Logger,
) ContactService {
	return &contactService{
		contactRepo:    contactRepo,
		submissionRepo: submissionRepo,
		userRepo:       userRepo,
		mailer:         mailer,
		logger:         logger,
	}
}

func (s *contactService) Create(ctx context.Context, requesterID int, input CreateContactRequestInput) (*models.ContactRequest, error) {
	if strings.TrimSpace(input.Message) == "" {
		return nil, ErrValidationFailed
	}

	requester, err := s.userRepo.GetByID(ctx, requesterID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get requester %d: %w", requesterID, err)
	}
	if requester.Role != models.RoleHiring && requester.Role != models.RoleInvestor {
		return nil, ErrForbiddenOperation
	}

	submission, err := s.submissionRepo.GetByID(ctx, nil, input.SubmissionID)
	if err != nil {
		if errors.Is(err, repositories.ErrSubmissionNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission %d: %w", input.SubmissionID, err)
	}
	// Контакты доступны только по опубликованным результатам.
	if submission.Status != models.SubmissionStatusPublished {
		return nil, ErrForbiddenOperation
	}

	request := &models.ContactRequest{
		RequesterID:  requesterID,
		SubmissionID: input.SubmissionID,
		Message:      strings.TrimSpace(input.Message),
		Status:       models.ContactRequestStatusPending,
	}
	if err := s.contactRepo.Create(ctx, request); err != nil {
		switch {
		case errors.Is(err, repositories.ErrContactRequestConflict):
			return nil, ErrContactRequestConflict
		case errors.Is(err, repositories.ErrContactRequestSubmissionInvalid):
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to create contact request: %w", err)
	}

	go s.notifyOwner(requester, submission, request.Message)

	return request, nil
}

func (s *contactService) notifyOwner(requester *models.User, submission *models.Submission, message string) {
	owner, err := s.userRepo.GetByID(context.Background(), submission.OwnerID)
	if err != nil {
		s.logger.Error("contact request notification: owner lookup failed",
			"submission_id", submission.ID, "error", err)
		return
	}
	requesterName := requester.FirstName + " " + requester.LastName
	if err := s.mailer.SendContactRequestEmail(owner.Email, requesterName, submission.Title, message); err != nil {
		s.logger.Error("failed to send contact request email",
			"email", owner.Email, "submission_id", submission.ID, "error", err)
	}
}

func (s *contactService) Respond(ctx context.Context, requestID, currentUserID int, accept bool) error {
	request, err := s.contactRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrContactRequestNotFound) {
			return ErrContactRequestNotFound
		}
		return fmt.Errorf("failed to get contact request %d: %w", requestID, err)
	}

	submission, err := s.submissionRepo.GetByID(ctx, nil, request.SubmissionID)
	if err != nil {
		return fmt.Errorf("failed to get submission %d: %w", request.SubmissionID, err)
	}
	if submission.OwnerID != currentUserID {
		return ErrForbiddenOperation
	}
	if request.Status != models.ContactRequestStatusPending {
		return ErrValidationFailed
	}

	status := models.ContactRequestStatusDeclined
	if accept {
		status = models.ContactRequestStatusAccepted
	}
	if err := s.contactRepo.UpdateStatus(ctx, requestID, status); err != nil {
		if errors.Is(err, repositories.ErrContactRequestNotFound) {
			return ErrContactRequestNotFound
		}
		return fmt.Errorf("failed to update contact request %d: %w", requestID, err)
	}
	return nil
}

func (s *contactService) ListSent(ctx context.Context, requesterID int) ([]*models.ContactRequest, error) {
	requests, err := s.contactRepo.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact requests for requester %d: %w", requesterID, err)
	}
	return requests, nil
}

func (s *contactService) ListReceived(ctx context.Context, ownerID int) ([]*models.ContactRequest, error) {
	requests, err := s.contactRepo.ListBySubmissionOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact requests for owner %d: %w", ownerID, err)
	}
	return requests, nil
}
