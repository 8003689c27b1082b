package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Sarsenovv/competition-platform/models"
	"github.com/Sarsenovv/competition-platform/repositories"
)

type CriterionInput struct {
	Name string `json:"name"`
	// Weight == nil означает вес по умолчанию (1).
	Weight *float64 `json:"weight,omitempty"`
}

type CriterionService interface {
	Create(ctx context.Context, competitionID int, input CriterionInput) (*models.JudgingCriterion, error)
	Update(ctx context.Context, id int, input CriterionInput) (*models.JudgingCriterion, error)
	Delete(ctx context.Context, id int) error
	ListByCompetition(ctx context.Context, competitionID int) ([]*models.JudgingCriterion, error)
}

type criterionService struct {
	criterionRepo   repositories.CriterionRepository
	competitionRepo repositories.CompetitionRepository
}

func NewCriterionService(
	criterionRepo repositories.CriterionRepository,
	competitionRepo repositories.CompetitionRepository,
) CriterionService {
	return &criterionService{
		criterionRepo:   criterionRepo,
		competitionRepo: competitionRepo,
	}
}

// validateCriterionInput формализует приведение веса на границе:
// отсутствующий вес допустим (трактуется как 1), явный должен быть > 0.
func validateCriterionInput(input CriterionInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: criterion name is required", ErrValidationFailed)
	}
	if input.Weight != nil && *input.Weight <= 0 {
		return ErrCriterionWeightInvalid
	}
	return nil
}

func (s *criterionService) Create(ctx context.Context, competitionID int, input CriterionInput) (*models.JudgingCriterion, error) {
	if err := validateCriterionInput(input); err != nil {
		return nil, err
	}

	if _, err := s.competitionRepo.GetByID(ctx, competitionID); err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to get competition %d: %w", competitionID, err)
	}

	criterion := &models.JudgingCriterion{
		CompetitionID: competitionID,
		Name:          input.Name,
		Weight:        input.Weight,
	}

	if err := s.criterionRepo.Create(ctx, nil, criterion); err != nil {
		if errors.Is(err, repositories.ErrCriterionCompetitionInvalid) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to create criterion: %w", err)
	}
	return criterion, nil
}

func (s *criterionService) Update(ctx context.Context, id int, input CriterionInput) (*models.JudgingCriterion, error) {
	if err := validateCriterionInput(input); err != nil {
		return nil, err
	}

	criterion, err := s.criterionRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCriterionNotFound) {
			return nil, ErrCriterionNotFound
		}
		return nil, fmt.Errorf("failed to get criterion %d: %w", id, err)
	}

	criterion.Name = input.Name
	criterion.Weight = input.Weight

	if err := s.criterionRepo.Update(ctx, nil, criterion); err != nil {
		if errors.Is(err, repositories.ErrCriterionNotFound) {
			return nil, ErrCriterionNotFound
		}
		return nil, fmt.Errorf("failed to update criterion %d: %w", id, err)
	}
	return criterion, nil
}

func (s *criterionService) Delete(ctx context.Context, id int) error {
	if err := s.criterionRepo.Delete(ctx, nil, id); err != nil {
		if errors.Is(err, repositories.ErrCriterionNotFound) {
			return ErrCriterionNotFound
		}
		return fmt.Errorf("failed to delete criterion %d: %w", id, err)
	}
	return nil
}

func (s *criterionService) ListByCompetition(ctx context.Context, competitionID int) ([]*models.JudgingCriterion, error) {
	if _, err := s.competitionRepo.GetByID(ctx, competitionID); err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to get competition %d: %w", competitionID, err)
	}

	criteria, err := s.criterionRepo.ListByCompetition(ctx, nil, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list criteria for competition %d: %w", competitionID, err)
	}
	return criteria, nil
}
