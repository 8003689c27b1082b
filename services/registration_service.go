package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sarsenovv/competition-platform/models"
	"github.com/Sarsenovv/competition-platform/repositories"
)

type RegisterEntryInput struct {
	CompetitionID int     `json:"competition_id"`
	AsTeam        bool    `json:"as_team"`
	CouponCode    *string `json:"coupon_code,omitempty"`
}

type RegistrationService interface {
	Register(ctx context.Context, userID int, input RegisterEntryInput) (*models.Registration, error)
	Cancel(ctx context.Context, registrationID, currentUserID int) error
	ListByCompetition(ctx context.Context, competitionID int) ([]*models.Registration, error)
}

type registrationService struct {
	transactor       repositories.Transactor
	registrationRepo repositories.RegistrationRepository
	competitionRepo  repositories.CompetitionRepository
	userRepo         repositories.UserRepository
	teamRepo         repositories.TeamRepository
	couponRepo       repositories.CouponRepository
}

func NewRegistrationService(
	transactor repositories.Transactor,
	registrationRepo repositories.RegistrationRepository,
	competitionRepo repositories.CompetitionRepository,
	userRepo repositories.UserRepository,
	teamRepo repositories.TeamRepository,
	couponRepo repositories.CouponRepository,
) RegistrationService {
	return &registrationService{
		transactor:       transactor,
		registrationRepo: registrationRepo,
		competitionRepo:  competitionRepo,
		userRepo:         userRepo,
		teamRepo:         teamRepo,
		couponRepo:       couponRepo,
	}
}

func (s *registrationService) Register(ctx context.Context, userID int, input RegisterEntryInput) (*models.Registration, error) {
	competition, err := s.competitionRepo.GetByID(ctx, input.CompetitionID)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to get competition %d: %w", input.CompetitionID, err)
	}

	if competition.Status != models.CompetitionStatusRegistration || time.Now().After(competition.RegEndDate) {
		return nil, ErrRegistrationClosed
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}

	registration := &models.Registration{
		CompetitionID: input.CompetitionID,
		UserID:        userID,
		Status:        models.RegistrationStatusConfirmed,
	}

	if input.AsTeam {
		if user.TeamID == nil {
			return nil, ErrTeamNotFound
		}
		team, err := s.teamRepo.GetByID(ctx, *user.TeamID)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return nil, ErrTeamNotFound
			}
			return nil, fmt.Errorf("failed to get team %d: %w", *user.TeamID, err)
		}
		// Команду на конкурс регистрирует только капитан.
		if team.CaptainID != userID {
			return nil, ErrCaptainActionForbidden
		}
		registration.TeamID = &team.ID
	}

	// Регистрация, платёж купоном и проверка вместимости — одна транзакция.
	err = s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		count, err := s.registrationRepo.CountByCompetition(ctx, exec, input.CompetitionID)
		if err != nil {
			return fmt.Errorf("failed to count registrations: %w", err)
		}
		if competition.MaxEntries > 0 && count >= competition.MaxEntries {
			return ErrCompetitionFull
		}

		if competition.EntryFee > 0 {
			if input.CouponCode == nil {
				return ErrEntryFeeRequired
			}
			coupon, err := s.couponRepo.GetByCode(ctx, exec, *input.CouponCode)
			if err != nil {
				if errors.Is(err, repositories.ErrCouponNotFound) {
					return ErrCouponNotFound
				}
				return fmt.Errorf("failed to get coupon: %w", err)
			}
			if coupon.CompetitionID != nil && *coupon.CompetitionID != input.CompetitionID {
				return ErrCouponWrongCompetition
			}
			if !coupon.Usable(time.Now()) {
				return ErrCouponExpired
			}
			if err := s.couponRepo.IncrementUse(ctx, exec, coupon.ID); err != nil {
				if errors.Is(err, repositories.ErrCouponExhausted) {
					return ErrCouponExpired
				}
				return fmt.Errorf("failed to redeem coupon %d: %w", coupon.ID, err)
			}
			registration.CouponID = &coupon.ID
		}

		if err := s.registrationRepo.Create(ctx, exec, registration); err != nil {
			if errors.Is(err, repositories.ErrRegistrationConflict) {
				return ErrRegistrationConflict
			}
			return fmt.Errorf("failed to create registration: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return registration, nil
}

func (s *registrationService) Cancel(ctx context.Context, registrationID, currentUserID int) error {
	registration, err := s.registrationRepo.GetByID(ctx, nil, registrationID)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return ErrRegistrationNotFound
		}
		return fmt.Errorf("failed to get registration %d: %w", registrationID, err)
	}
	if registration.UserID != currentUserID {
		return ErrForbiddenOperation
	}

	if err := s.registrationRepo.UpdateStatus(ctx, nil, registrationID, models.RegistrationStatusCanceled); err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return ErrRegistrationNotFound
		}
		return fmt.Errorf("failed to cancel registration %d: %w", registrationID, err)
	}
	return nil
}

func (s *registrationService) ListByCompetition(ctx context.Context, competitionID int) ([]*models.Registration, error) {
	if _, err := s.competitionRepo.GetByID(ctx, competitionID); err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to get competition %d: %w", competitionID, err)
	}

	registrations, err := s.registrationRepo.ListByCompetition(ctx, nil, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations for competition %d: %w", competitionID, err)
	}
	return registrations, nil
}
