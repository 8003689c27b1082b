package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sarsenovv/competition-platform/models"
	"github.com/Sarsenovv/competition-platform/repositories"
)

type memInviteRepo struct {
	invites map[int]*models.Invite
	nextID  int
}

func newMemInviteRepo() *memInviteRepo {
	return &memInviteRepo{invites: make(map[int]*models.Invite)}
}

func (r *memInviteRepo) Create(_ context.Context, invite *models.Invite) error {
	for _, existing := range r.invites {
		if existing.Token == invite.Token {
			return repositories.ErrInviteTokenConflict
		}
	}
	r.nextID++
	invite.ID = r.nextID
	invite.CreatedAt = time.Now()
	copied := *invite
	r.invites[invite.ID] = &copied
	return nil
}

func (r *memInviteRepo) GetByToken(_ context.Context, token string) (*models.Invite, error) {
	for _, invite := range r.invites {
		if invite.Token == token {
			copied := *invite
			return &copied, nil
		}
	}
	return nil, repositories.ErrInviteNotFound
}

func (r *memInviteRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.invites[id]; !ok {
		return repositories.ErrInviteNotFound
	}
	delete(r.invites, id)
	return nil
}

func (r *memInviteRepo) ListByTeamID(_ context.Context, teamID int) ([]*models.Invite, error) {
	result := make([]*models.Invite, 0)
	for _, invite := range r.invites {
		if invite.TeamID == teamID {
			copied := *invite
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *memInviteRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var deleted int64
	for id, invite := range r.invites {
		if now.After(invite.ExpiresAt) {
			delete(r.invites, id)
			deleted++
		}
	}
	return deleted, nil
}

type memTeamRepo struct {
	teams map[int]*models.Team
}

func newMemTeamRepo() *memTeamRepo {
	return &memTeamRepo{teams: make(map[int]*models.Team)}
}

func (r *memTeamRepo) Create(_ context.Context, team *models.Team) error {
	r.teams[team.ID] = team
	return nil
}

func (r *memTeamRepo) GetByID(_ context.Context, id int) (*models.Team, error) {
	team, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copied := *team
	return &copied, nil
}

func (r *memTeamRepo) Update(_ context.Context, team *models.Team) error {
	r.teams[team.ID] = team
	return nil
}

func (r *memTeamRepo) Delete(_ context.Context, id int) error {
	delete(r.teams, id)
	return nil
}

type memUserRepo struct {
	users map[int]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[int]*models.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *models.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *memUserRepo) GetByConfirmationToken(_ context.Context, token string) (*models.User, error) {
	for _, user := range r.users {
		if user.EmailConfirmationToken != nil && *user.EmailConfirmationToken == token {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *memUserRepo) GetByPasswordResetToken(_ context.Context, token string) (*models.User, error) {
	for _, user := range r.users {
		if user.PasswordResetToken != nil && *user.PasswordResetToken == token {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *memUserRepo) ConfirmEmail(_ context.Context, id int) error {
	user, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.EmailConfirmed = true
	user.EmailConfirmationToken = nil
	return nil
}

func (r *memUserRepo) SetPasswordResetToken(_ context.Context, id int, token string, expiresAt time.Time) error {
	user, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.PasswordResetToken = &token
	user.PasswordResetExpiresAt = &expiresAt
	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *models.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id int) error {
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) ListByTeamID(_ context.Context, teamID int) ([]models.User, error) {
	result := make([]models.User, 0)
	for _, user := range r.users {
		if user.TeamID != nil && *user.TeamID == teamID {
			result = append(result, *user)
		}
	}
	return result, nil
}

func newInviteFixture() (InviteService, *memInviteRepo, *memTeamRepo, *memUserRepo) {
	invites := newMemInviteRepo()
	teams := newMemTeamRepo()
	users := newMemUserRepo()
	return NewInviteService(invites, teams, users, slog.Default()), invites, teams, users
}

func TestCreateInviteCaptainOnly(t *testing.T) {
	service, _, teams, _ := newInviteFixture()
	teams.teams[1] = &models.Team{ID: 1, Name: "Rockets", CaptainID: 7}

	_, err := service.CreateInvite(context.Background(), 1, 99)
	assert.ErrorIs(t, err, ErrCaptainActionForbidden)

	invite, err := service.CreateInvite(context.Background(), 1, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, invite.TeamID)
	assert.NotEmpty(t, invite.Token)
	assert.True(t, invite.ExpiresAt.After(time.Now()))
}

func TestGetInviteByTokenExpired(t *testing.T) {
	service, invites, _, _ := newInviteFixture()
	invites.invites[1] = &models.Invite{
		ID: 1, TeamID: 1, Token: "stale",
		ExpiresAt: time.Now().Add(-time.Hour),
	}

	_, err := service.GetInviteByToken(context.Background(), "stale")
	assert.ErrorIs(t, err, ErrInviteExpired)

	_, err = service.GetInviteByToken(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrInviteNotFound)
}

func TestAcceptInviteJoinsTeamAndConsumesInvite(t *testing.T) {
	service, invites, teams, users := newInviteFixture()
	teams.teams[1] = &models.Team{ID: 1, Name: "Rockets", CaptainID: 7}
	users.users[5] = &models.User{ID: 5, Email: "member@example.com"}
	invites.invites[1] = &models.Invite{
		ID: 1, TeamID: 1, Token: "fresh",
		ExpiresAt: time.Now().Add(time.Hour),
	}

	err := service.AcceptInvite(context.Background(), "fresh", 5)
	require.NoError(t, err)

	require.NotNil(t, users.users[5].TeamID)
	assert.Equal(t, 1, *users.users[5].TeamID)
	assert.Empty(t, invites.invites)
}

func TestAcceptInviteRejectsUserAlreadyInTeam(t *testing.T) {
	service, invites, teams, users := newInviteFixture()
	teams.teams[1] = &models.Team{ID: 1, Name: "Rockets", CaptainID: 7}
	otherTeam := 2
	users.users[5] = &models.User{ID: 5, TeamID: &otherTeam}
	invites.invites[1] = &models.Invite{
		ID: 1, TeamID: 1, Token: "fresh",
		ExpiresAt: time.Now().Add(time.Hour),
	}

	err := service.AcceptInvite(context.Background(), "fresh", 5)
	assert.ErrorIs(t, err, ErrUserAlreadyInTeam)
}

func TestListTeamInvitesFiltersExpired(t *testing.T) {
	service, invites, teams, _ := newInviteFixture()
	teams.teams[1] = &models.Team{ID: 1, Name: "Rockets", CaptainID: 7}
	invites.invites[1] = &models.Invite{ID: 1, TeamID: 1, Token: "alive", ExpiresAt: time.Now().Add(time.Hour)}
	invites.invites[2] = &models.Invite{ID: 2, TeamID: 1, Token: "stale", ExpiresAt: time.Now().Add(-time.Hour)}

	active, err := service.ListTeamInvites(context.Background(), 1, 7)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "alive", active[0].Token)
}

func TestCleanupExpired(t *testing.T) {
	service, invites, _, _ := newInviteFixture()
	invites.invites[1] = &models.Invite{ID: 1, TeamID: 1, Token: "alive", ExpiresAt: time.Now().Add(time.Hour)}
	invites.invites[2] = &models.Invite{ID: 2, TeamID: 1, Token: "stale", ExpiresAt: time.Now().Add(-time.Hour)}
	invites.invites[3] = &models.Invite{ID: 3, TeamID: 2, Token: "older", ExpiresAt: time.Now().Add(-48 * time.Hour)}

	deleted, err := service.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)
	assert.Len(t, invites.invites, 1)
}
