package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Sarsenovv/competition-platform/models"
	"github.com/Sarsenovv/competition-platform/repositories"
)

type CreateCouponInput struct {
	Code          *string    `json:"code,omitempty"`
	CompetitionID *int       `json:"competition_id,omitempty"`
	MaxUses       int        `json:"max_uses"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

type CouponService interface {
	Create(ctx context.Context, input CreateCouponInput) (*models.Coupon, error)
	ListByCompetition(ctx context.Context, competitionID int) ([]*models.Coupon, error)
	Delete(ctx context.Context, id int) error
}

type couponService struct {
	couponRepo      repositories.CouponRepository
	competitionRepo repositories.CompetitionRepository
}

func NewCouponService(couponRepo repositories.CouponRepository, competitionRepo repositories.CompetitionRepository) CouponService {
	return &couponService{couponRepo: couponRepo, competitionRepo: competitionRepo}
}

func (s *couponService) Create(ctx context.Context, input CreateCouponInput) (*models.Coupon, error) {
	if input.MaxUses <= 0 {
		return nil, ErrValidationFailed
	}
	if input.CompetitionID != nil {
		if _, err := s.competitionRepo.GetByID(ctx, *input.CompetitionID); err != nil {
			if errors.Is(err, repositories.ErrCompetitionNotFound) {
				return nil, ErrCompetitionNotFound
			}
			return nil, fmt.Errorf("failed to get competition %d: %w", *input.CompetitionID, err)
		}
	}

	coupon := &models.Coupon{
		CompetitionID: input.CompetitionID,
		MaxUses:       input.MaxUses,
	}
	if input.ExpiresAt != nil {
		coupon.ExpiresAt = *input.ExpiresAt
	}
	if input.Code != nil && strings.TrimSpace(*input.Code) != "" {
		coupon.Code = strings.ToUpper(strings.TrimSpace(*input.Code))
	} else {
		coupon.Code = generateCouponCode()
	}

	if err := s.couponRepo.Create(ctx, coupon); err != nil {
		if errors.Is(err, repositories.ErrCouponCodeConflict) {
			return nil, ErrValidationFailed
		}
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}
	return coupon, nil
}

func (s *couponService) ListByCompetition(ctx context.Context, competitionID int) ([]*models.Coupon, error) {
	if _, err := s.competitionRepo.GetByID(ctx, competitionID); err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to get competition %d: %w", competitionID, err)
	}

	coupons, err := s.couponRepo.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons for competition %d: %w", competitionID, err)
	}
	return coupons, nil
}

func (s *couponService) Delete(ctx context.Context, id int) error {
	if err := s.couponRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrCouponNotFound) {
			return ErrCouponNotFound
		}
		return fmt.Errorf("failed to delete coupon %d: %w", id, err)
	}
	return nil
}

// generateCouponCode собирает короткий читаемый код на основе UUID.
func generateCouponCode() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return strings.ToUpper(raw[:12])
}
