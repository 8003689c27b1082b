package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sarsenovv/competition-platform/models"
	"github.com/Sarsenovv/competition-platform/repositories"
)

func strPtr(s string) *string { return &s }

type memRegistrationRepo struct {
	registrations map[int]*models.Registration
	nextID        int
}

func newMemRegistrationRepo() *memRegistrationRepo {
	return &memRegistrationRepo{registrations: make(map[int]*models.Registration)}
}

func (r *memRegistrationRepo) Create(_ context.Context, _ repositories.SQLExecutor, registration *models.Registration) error {
	for _, existing := range r.registrations {
		if existing.CompetitionID == registration.CompetitionID && existing.UserID == registration.UserID {
			return repositories.ErrRegistrationConflict
		}
	}
	r.nextID++
	registration.ID = r.nextID
	registration.CreatedAt = time.Now()
	copied := *registration
	r.registrations[registration.ID] = &copied
	return nil
}

func (r *memRegistrationRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Registration, error) {
	registration, ok := r.registrations[id]
	if !ok {
		return nil, repositories.ErrRegistrationNotFound
	}
	copied := *registration
	return &copied, nil
}

func (r *memRegistrationRepo) GetByCompetitionAndUser(_ context.Context, _ repositories.SQLExecutor, competitionID, userID int) (*models.Registration, error) {
	for _, registration := range r.registrations {
		if registration.CompetitionID == competitionID && registration.UserID == userID {
			copied := *registration
			return &copied, nil
		}
	}
	return nil, repositories.ErrRegistrationNotFound
}

func (r *memRegistrationRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.RegistrationStatus) error {
	registration, ok := r.registrations[id]
	if !ok {
		return repositories.ErrRegistrationNotFound
	}
	registration.Status = status
	return nil
}

func (r *memRegistrationRepo) CountByCompetition(_ context.Context, _ repositories.SQLExecutor, competitionID int) (int, error) {
	count := 0
	for _, registration := range r.registrations {
		if registration.CompetitionID == competitionID && registration.Status != models.RegistrationStatusCanceled {
			count++
		}
	}
	return count, nil
}

func (r *memRegistrationRepo) ListByCompetition(_ context.Context, _ repositories.SQLExecutor, competitionID int) ([]*models.Registration, error) {
	result := make([]*models.Registration, 0)
	for _, registration := range r.registrations {
		if registration.CompetitionID == competitionID {
			copied := *registration
			result = append(result, &copied)
		}
	}
	return result, nil
}

type memCouponRepo struct {
	coupons map[int]*models.Coupon
}

func newMemCouponRepo() *memCouponRepo {
	return &memCouponRepo{coupons: make(map[int]*models.Coupon)}
}

func (r *memCouponRepo) Create(_ context.Context, coupon *models.Coupon) error {
	r.coupons[coupon.ID] = coupon
	return nil
}

func (r *memCouponRepo) GetByCode(_ context.Context, _ repositories.SQLExecutor, code string) (*models.Coupon, error) {
	for _, coupon := range r.coupons {
		if coupon.Code == code {
			copied := *coupon
			return &copied, nil
		}
	}
	return nil, repositories.ErrCouponNotFound
}

func (r *memCouponRepo) IncrementUse(_ context.Context, _ repositories.SQLExecutor, id int) error {
	coupon, ok := r.coupons[id]
	if !ok {
		return repositories.ErrCouponNotFound
	}
	if coupon.UsedCount >= coupon.MaxUses {
		return repositories.ErrCouponExhausted
	}
	coupon.UsedCount++
	return nil
}

func (r *memCouponRepo) Delete(_ context.Context, id int) error {
	delete(r.coupons, id)
	return nil
}

func (r *memCouponRepo) ListByCompetition(_ context.Context, competitionID int) ([]*models.Coupon, error) {
	result := make([]*models.Coupon, 0)
	for _, coupon := range r.coupons {
		if coupon.CompetitionID != nil && *coupon.CompetitionID == competitionID {
			copied := *coupon
			result = append(result, &copied)
		}
	}
	return result, nil
}

type registrationFixture struct {
	service       RegistrationService
	registrations *memRegistrationRepo
	competitions  *memCompetitionRepo
	users         *memUserRepo
	teams         *memTeamRepo
	coupons       *memCouponRepo
}

func newRegistrationFixture() *registrationFixture {
	fixture := &registrationFixture{
		registrations: newMemRegistrationRepo(),
		competitions:  newMemCompetitionRepo(),
		users:         newMemUserRepo(),
		teams:         newMemTeamRepo(),
		coupons:       newMemCouponRepo(),
	}
	fixture.service = NewRegistrationService(
		fakeTransactor{},
		fixture.registrations,
		fixture.competitions,
		fixture.users,
		fixture.teams,
		fixture.coupons,
	)
	return fixture
}

func (f *registrationFixture) seedOpenCompetition(id, maxEntries, entryFee int) {
	f.competitions.competitions[id] = &models.Competition{
		ID:         id,
		Title:      "Open Competition",
		Status:     models.CompetitionStatusRegistration,
		RegEndDate: time.Now().Add(24 * time.Hour),
		MaxEntries: maxEntries,
		EntryFee:   entryFee,
	}
}

func TestRegisterFreeCompetition(t *testing.T) {
	fixture := newRegistrationFixture()
	fixture.seedOpenCompetition(1, 10, 0)
	fixture.users.users[5] = &models.User{ID: 5, Email: "student@example.com"}

	registration, err := fixture.service.Register(context.Background(), 5, RegisterEntryInput{CompetitionID: 1})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusConfirmed, registration.Status)
	assert.Nil(t, registration.CouponID)
}

func TestRegisterClosedCompetition(t *testing.T) {
	fixture := newRegistrationFixture()
	fixture.users.users[5] = &models.User{ID: 5}

	fixture.competitions.competitions[1] = &models.Competition{
		ID: 1, Status: models.CompetitionStatusDraft,
		RegEndDate: time.Now().Add(24 * time.Hour),
	}
	_, err := fixture.service.Register(context.Background(), 5, RegisterEntryInput{CompetitionID: 1})
	assert.ErrorIs(t, err, ErrRegistrationClosed)

	// Статус registration, но дедлайн прошёл.
	fixture.competitions.competitions[2] = &models.Competition{
		ID: 2, Status: models.CompetitionStatusRegistration,
		RegEndDate: time.Now().Add(-time.Hour),
	}
	_, err = fixture.service.Register(context.Background(), 5, RegisterEntryInput{CompetitionID: 2})
	assert.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestRegisterCompetitionFull(t *testing.T) {
	fixture := newRegistrationFixture()
	fixture.seedOpenCompetition(1, 1, 0)
	fixture.users.users[5] = &models.User{ID: 5}
	fixture.users.users[6] = &models.User{ID: 6}

	_, err := fixture.service.Register(context.Background(), 5, RegisterEntryInput{CompetitionID: 1})
	require.NoError(t, err)

	_, err = fixture.service.Register(context.Background(), 6, RegisterEntryInput{CompetitionID: 1})
	assert.ErrorIs(t, err, ErrCompetitionFull)
}

func TestRegisterDuplicate(t *testing.T) {
	fixture := newRegistrationFixture()
	fixture.seedOpenCompetition(1, 10, 0)
	fixture.users.users[5] = &models.User{ID: 5}

	_, err := fixture.service.Register(context.Background(), 5, RegisterEntryInput{CompetitionID: 1})
	require.NoError(t, err)

	_, err = fixture.service.Register(context.Background(), 5, RegisterEntryInput{CompetitionID: 1})
	assert.ErrorIs(t, err, ErrRegistrationConflict)
}

func TestRegisterPaidRequiresCoupon(t *testing.T) {
	fixture := newRegistrationFixture()
	fixture.seedOpenCompetition(1, 10, 5000)
	fixture.users.users[5] = &models.User{ID: 5}

	_, err := fixture.service.Register(context.Background(), 5, RegisterEntryInput{CompetitionID: 1})
	assert.ErrorIs(t, err, ErrEntryFeeRequired)

	_, err = fixture.service.Register(context.Background(), 5, RegisterEntryInput{
		CompetitionID: 1, CouponCode: strPtr("NOPE"),
	})
	assert.ErrorIs(t, err, ErrCouponNotFound)
}

func TestRegisterRedeemsCoupon(t *testing.T) {
	fixture := newRegistrationFixture()
	fixture.seedOpenCompetition(1, 10, 5000)
	fixture.users.users[5] = &models.User{ID: 5}
	competitionID := 1
	fixture.coupons.coupons[3] = &models.Coupon{
		ID: 3, Code: "FREE2026", CompetitionID: &competitionID,
		MaxUses: 1, ExpiresAt: time.Now().Add(time.Hour),
	}

	registration, err := fixture.service.Register(context.Background(), 5, RegisterEntryInput{
		CompetitionID: 1, CouponCode: strPtr("FREE2026"),
	})
	require.NoError(t, err)
	require.NotNil(t, registration.CouponID)
	assert.Equal(t, 3, *registration.CouponID)
	assert.Equal(t, 1, fixture.coupons.coupons[3].UsedCount)

	// Купон исчерпан, повторная регистрация другим пользователем невозможна.
	fixture.users.users[6] = &models.User{ID: 6}
	_, err = fixture.service.Register(context.Background(), 6, RegisterEntryInput{
		CompetitionID: 1, CouponCode: strPtr("FREE2026"),
	})
	assert.ErrorIs(t, err, ErrCouponExpired)
}

func TestRegisterCouponScopedToCompetition(t *testing.T) {
	fixture := newRegistrationFixture()
	fixture.seedOpenCompetition(1, 10, 5000)
	fixture.users.users[5] = &models.User{ID: 5}
	otherCompetition := 9
	fixture.coupons.coupons[3] = &models.Coupon{
		ID: 3, Code: "OTHER", CompetitionID: &otherCompetition,
		MaxUses: 10, ExpiresAt: time.Now().Add(time.Hour),
	}

	_, err := fixture.service.Register(context.Background(), 5, RegisterEntryInput{
		CompetitionID: 1, CouponCode: strPtr("OTHER"),
	})
	assert.ErrorIs(t, err, ErrCouponWrongCompetition)
}

func TestRegisterTeamCaptainOnly(t *testing.T) {
	fixture := newRegistrationFixture()
	fixture.seedOpenCompetition(1, 10, 0)
	teamID := 2
	fixture.teams.teams[2] = &models.Team{ID: 2, Name: "Rockets", CaptainID: 7}
	fixture.users.users[5] = &models.User{ID: 5, TeamID: &teamID}
	fixture.users.users[7] = &models.User{ID: 7, TeamID: &teamID}

	_, err := fixture.service.Register(context.Background(), 5, RegisterEntryInput{CompetitionID: 1, AsTeam: true})
	assert.ErrorIs(t, err, ErrCaptainActionForbidden)

	registration, err := fixture.service.Register(context.Background(), 7, RegisterEntryInput{CompetitionID: 1, AsTeam: true})
	require.NoError(t, err)
	require.NotNil(t, registration.TeamID)
	assert.Equal(t, 2, *registration.TeamID)
}

func TestCancelRegistrationOwnerOnly(t *testing.T) {
	fixture := newRegistrationFixture()
	fixture.registrations.registrations[1] = &models.Registration{
		ID: 1, CompetitionID: 1, UserID: 5,
		Status: models.RegistrationStatusConfirmed,
	}

	err := fixture.service.Cancel(context.Background(), 1, 99)
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	err = fixture.service.Cancel(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusCanceled, fixture.registrations.registrations[1].Status)
}
