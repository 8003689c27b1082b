package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Sarsenovv/competition-platform/models"
	"github.com/Sarsenovv/competition-platform/repositories"
)

type TeamService interface {
	Create(ctx context.Context, name string, captainID int) (*models.Team, error)
	GetByID(ctx context.Context, id int) (*models.Team, error)
	Rename(ctx context.Context, id int, name string, currentUserID int) (*models.Team, error)
	RemoveMember(ctx context.Context, teamID, memberID, currentUserID int) error
	Delete(ctx context.Context, id, currentUserID int) error
}

type teamService struct {
	teamRepo repositories.TeamRepository
	userRepo repositories.UserRepository
}

func NewTeamService(teamRepo repositories.TeamRepository, userRepo repositories.UserRepository) TeamService {
	return &teamService{
		teamRepo: teamRepo,
		userRepo: userRepo,
	}
}

func (s *teamService) Create(ctx context.Context, name string, captainID int) (*models.Team, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrTeamNameRequired
	}

	captain, err := s.userRepo.GetByID(ctx, captainID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", captainID, err)
	}
	if captain.TeamID != nil {
		return nil, ErrUserAlreadyInTeam
	}

	team := &models.Team{
		Name:      name,
		CaptainID: captainID,
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamNameConflict
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	// Капитан сразу становится участником своей команды.
	captain.TeamID = &team.ID
	if err := s.userRepo.Update(ctx, captain); err != nil {
		return nil, fmt.Errorf("failed to attach captain to team %d: %w", team.ID, err)
	}

	return team, nil
}

func (s *teamService) GetByID(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", id, err)
	}

	members, err := s.userRepo.ListByTeamID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list team %d members: %w", id, err)
	}
	for i := range members {
		members[i].PasswordHash = ""
	}
	team.Members = members

	return team, nil
}

func (s *teamService) Rename(ctx context.Context, id int, name string, currentUserID int) (*models.Team, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrTeamNameRequired
	}

	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", id, err)
	}
	if team.CaptainID != currentUserID {
		return nil, ErrCaptainActionForbidden
	}

	team.Name = name
	if err := s.teamRepo.Update(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamNameConflict
		}
		return nil, fmt.Errorf("failed to rename team %d: %w", id, err)
	}
	return team, nil
}

func (s *teamService) RemoveMember(ctx context.Context, teamID, memberID, currentUserID int) error {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

	// Выйти может сам участник, исключить — только капитан.
	if currentUserID != memberID && team.CaptainID != currentUserID {
		return ErrCaptainActionForbidden
	}
	if memberID == team.CaptainID {
		return ErrCannotRemoveCaptain
	}

	member, err := s.userRepo.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user %d: %w", memberID, err)
	}
	if member.TeamID == nil || *member.TeamID != teamID {
		return ErrUserNotFound
	}

	member.TeamID = nil
	if err := s.userRepo.Update(ctx, member); err != nil {
		return fmt.Errorf("failed to detach user %d from team %d: %w", memberID, teamID, err)
	}
	return nil
}

func (s *teamService) Delete(ctx context.Context, id, currentUserID int) error {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to get team %d: %w", id, err)
	}
	if team.CaptainID != currentUserID {
		return ErrCaptainActionForbidden
	}

	members, err := s.userRepo.ListByTeamID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list team %d members: %w", id, err)
	}
	for i := range members {
		members[i].TeamID = nil
		if err := s.userRepo.Update(ctx, &members[i]); err != nil {
			return fmt.Errorf("failed to detach user %d from team %d: %w", members[i].ID, id, err)
		}
	}

	if err := s.teamRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to delete team %d: %w", id, err)
	}
	return nil
}
