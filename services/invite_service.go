package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Sarsenovv/competition-platform/models"
	"github.com/Sarsenovv/competition-platform/repositories"
)

const (
	inviteTokenLength = 16                 // Длина токена в байтах (32 символа в hex)
	inviteDuration    = 7 * 24 * time.Hour // Срок действия приглашения (7 дней)
)

var (
	ErrInviteCreationFailed  = errors.New("failed to create invite")
	ErrInviteTokenGeneration = errors.New("failed to generate unique invite token")
)

type InviteService interface {
	CreateInvite(ctx context.Context, teamID int, currentUserID int) (*models.Invite, error)
	GetInviteByToken(ctx context.Context, token string) (*models.Invite, error)
	AcceptInvite(ctx context.Context, token string, currentUserID int) error
	ListTeamInvites(ctx context.Context, teamID int, currentUserID int) ([]*models.Invite, error)
	// CleanupExpired удаляет просроченные приглашения; вызывается фоновым циклом.
	CleanupExpired(ctx context.Context) (int64, error)
	// RunCleanupLoop запускает периодическую очистку до отмены контекста.
	RunCleanupLoop(ctx context.Context, interval time.Duration)
}

type inviteService struct {
	inviteRepo repositories.InviteRepository
	teamRepo   repositories.TeamRepository
	userRepo   repositories.UserRepository
	logger     *slog.Logger
}

func NewInviteService(
	inviteRepo repositories.InviteRepository,
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	logger *slog.Logger,
) InviteService {
	return &inviteService{
		inviteRepo: inviteRepo,
		teamRepo:   teamRepo,
		userRepo:   userRepo,
		logger:     logger,
	}
}

func (s *inviteService) CreateInvite(ctx context.Context, teamID int, currentUserID int) (*models.Invite, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

	if team.CaptainID != currentUserID {
		return nil, ErrCaptainActionForbidden
	}

	maxAttempts := 3 // Попытки сгенерировать уникальный токен
	for attempt := 0; attempt < maxAttempts; attempt++ {
		token, err := generateSecureToken(inviteTokenLength)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInviteTokenGeneration, err)
		}

		invite := &models.Invite{
			TeamID:    teamID,
			Token:     token,
			ExpiresAt: time.Now().Add(inviteDuration),
		}

		err = s.inviteRepo.Create(ctx, invite)
		if err == nil {
			return invite, nil
		}

		// Если ошибка - конфликт токена, пробуем снова
		if !errors.Is(err, repositories.ErrInviteTokenConflict) {
			if errors.Is(err, repositories.ErrInviteTeamInvalid) {
				return nil, ErrTeamNotFound
			}
			return nil, fmt.Errorf("%w: %w", ErrInviteCreationFailed, err)
		}
	}

	return nil, fmt.Errorf("%w after %d attempts", ErrInviteTokenGeneration, maxAttempts)
}

func (s *inviteService) GetInviteByToken(ctx context.Context, token string) (*models.Invite, error) {
	invite, err := s.inviteRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrInviteNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to get invite by token: %w", err)
	}

	if time.Now().After(invite.ExpiresAt) {
		return nil, ErrInviteExpired
	}

	return invite, nil
}

func (s *inviteService) AcceptInvite(ctx context.Context, token string, currentUserID int) error {
	invite, err := s.GetInviteByToken(ctx, token)
	if err != nil {
		return err // ErrInviteNotFound или ErrInviteExpired
	}

	user, err := s.userRepo.GetByID(ctx, currentUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user %d: %w", currentUserID, err)
	}

	if user.TeamID != nil {
		return ErrUserAlreadyInTeam
	}

	user.TeamID = &invite.TeamID
	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserTeamInvalid) {
			return fmt.Errorf("team %d associated with invite %d not found: %w", invite.TeamID, invite.ID, err)
		}
		return fmt.Errorf("failed to update user %d team: %w", user.ID, err)
	}

	// Использованное приглашение удаляем. Пользователь уже в команде, поэтому
	// ошибку удаления только логируем: просроченные и неудалённые приглашения
	// подчищает фоновый цикл CleanupExpired.
	if err := s.inviteRepo.Delete(ctx, invite.ID); err != nil {
		s.logger.Warn("failed to delete accepted invite",
			slog.Int("invite_id", invite.ID),
			slog.Int("user_id", user.ID),
			slog.Any("error", err))
	}

	return nil
}

func (s *inviteService) ListTeamInvites(ctx context.Context, teamID int, currentUserID int) ([]*models.Invite, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

	if team.CaptainID != currentUserID {
		return nil, ErrCaptainActionForbidden
	}

	invites, err := s.inviteRepo.ListByTeamID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites for team %d: %w", teamID, err)
	}

	// Просроченные отфильтровываем на уровне сервиса
	activeInvites := make([]*models.Invite, 0, len(invites))
	now := time.Now()
	for _, invite := range invites {
		if now.Before(invite.ExpiresAt) {
			activeInvites = append(activeInvites, invite)
		}
	}

	return activeInvites, nil
}

func (s *inviteService) CleanupExpired(ctx context.Context) (int64, error) {
	deleted, err := s.inviteRepo.DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired invites: %w", err)
	}
	return deleted, nil
}

func (s *inviteService) RunCleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("invite cleanup loop started", slog.Duration("interval", interval))

	// Один прогон сразу при старте, далее по тикеру.
	if deleted, err := s.CleanupExpired(ctx); err != nil {
		s.logger.Error("invite cleanup: initial run failed", slog.Any("error", err))
	} else if deleted > 0 {
		s.logger.Info("invite cleanup: removed expired invites", slog.Int64("count", deleted))
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("invite cleanup loop stopped")
			return
		case <-ticker.C:
			deleted, err := s.CleanupExpired(ctx)
			if err != nil {
				s.logger.Error("invite cleanup: periodic run failed", slog.Any("error", err))
				continue
			}
			if deleted > 0 {
				s.logger.Info("invite cleanup: removed expired invites", slog.Int64("count", deleted))
			}
		}
	}
}
