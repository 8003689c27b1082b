package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sarsenovv/competition-platform/models"
	"github.com/Sarsenovv/competition-platform/repositories"
)

func floatPtr(v float64) *float64 { return &v }

// --- фейки репозиториев в памяти ---

type fakeTransactor struct{}

func (fakeTransactor) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type memSubmissionRepo struct {
	submissions map[int]*models.Submission
}

func newMemSubmissionRepo() *memSubmissionRepo {
	return &memSubmissionRepo{submissions: make(map[int]*models.Submission)}
}

func (r *memSubmissionRepo) Create(_ context.Context, _ repositories.SQLExecutor, s *models.Submission) error {
	r.submissions[s.ID] = s
	return nil
}

func (r *memSubmissionRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Submission, error) {
	s, ok := r.submissions[id]
	if !ok {
		return nil, repositories.ErrSubmissionNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *memSubmissionRepo) Update(_ context.Context, _ repositories.SQLExecutor, s *models.Submission) error {
	if _, ok := r.submissions[s.ID]; !ok {
		return repositories.ErrSubmissionNotFound
	}
	r.submissions[s.ID] = s
	return nil
}

func (r *memSubmissionRepo) UpdateEvaluation(_ context.Context, _ repositories.SQLExecutor, id int, finalScore *float64, status models.SubmissionStatus) error {
	s, ok := r.submissions[id]
	if !ok {
		return repositories.ErrSubmissionNotFound
	}
	s.FinalScore = finalScore
	s.Status = status
	return nil
}

func (r *memSubmissionRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.SubmissionStatus, feedback *string) error {
	s, ok := r.submissions[id]
	if !ok {
		return repositories.ErrSubmissionNotFound
	}
	s.Status = status
	if feedback != nil {
		s.Feedback = feedback
	}
	return nil
}

func (r *memSubmissionRepo) PublishByCompetition(_ context.Context, _ repositories.SQLExecutor, competitionID int, from []models.SubmissionStatus) ([]*models.Submission, error) {
	eligible := make(map[models.SubmissionStatus]bool, len(from))
	for _, status := range from {
		eligible[status] = true
	}

	published := make([]*models.Submission, 0)
	for _, s := range r.submissions {
		if s.CompetitionID == competitionID && eligible[s.Status] {
			s.Status = models.SubmissionStatusPublished
			copied := *s
			published = append(published, &copied)
		}
	}
	return published, nil
}

func (r *memSubmissionRepo) ListByCompetition(_ context.Context, _ repositories.SQLExecutor, competitionID int, status *models.SubmissionStatus) ([]*models.Submission, error) {
	result := make([]*models.Submission, 0)
	for _, s := range r.submissions {
		if s.CompetitionID != competitionID {
			continue
		}
		if status != nil && s.Status != *status {
			continue
		}
		copied := *s
		result = append(result, &copied)
	}
	return result, nil
}

func (r *memSubmissionRepo) GetByCompetitionAndOwner(_ context.Context, _ repositories.SQLExecutor, competitionID, ownerID int) (*models.Submission, error) {
	for _, s := range r.submissions {
		if s.CompetitionID == competitionID && s.OwnerID == ownerID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, repositories.ErrSubmissionNotFound
}

type scoreKey struct {
	submissionID int
	judgeID      int
	criterionID  int
}

type memScoreRepo struct {
	scores   map[scoreKey]*models.Score
	criteria *memCriterionRepo
	nextID   int
}

func newMemScoreRepo(criteria *memCriterionRepo) *memScoreRepo {
	return &memScoreRepo{scores: make(map[scoreKey]*models.Score), criteria: criteria}
}

func (r *memScoreRepo) Upsert(_ context.Context, _ repositories.SQLExecutor, score *models.Score) error {
	key := scoreKey{score.SubmissionID, score.JudgeID, score.CriterionID}
	if existing, ok := r.scores[key]; ok {
		existing.Value = score.Value
		existing.Comment = score.Comment
		existing.UpdatedAt = time.Now()
		score.ID = existing.ID
		return nil
	}
	r.nextID++
	score.ID = r.nextID
	score.CreatedAt = time.Now()
	score.UpdatedAt = score.CreatedAt
	copied := *score
	r.scores[key] = &copied
	return nil
}

func (r *memScoreRepo) ListWithWeights(_ context.Context, _ repositories.SQLExecutor, submissionID int) ([]models.CriterionScore, error) {
	ledger := make([]models.CriterionScore, 0)
	for key, score := range r.scores {
		if key.submissionID != submissionID {
			continue
		}
		entry := models.CriterionScore{CriterionID: key.criterionID, Value: score.Value}
		if criterion, ok := r.criteria.criteria[key.criterionID]; ok {
			entry.Weight = criterion.Weight
		}
		ledger = append(ledger, entry)
	}
	return ledger, nil
}

func (r *memScoreRepo) ListBySubmission(_ context.Context, _ repositories.SQLExecutor, submissionID int) ([]*models.Score, error) {
	result := make([]*models.Score, 0)
	for key, score := range r.scores {
		if key.submissionID == submissionID {
			copied := *score
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *memScoreRepo) DeleteBySubmission(_ context.Context, _ repositories.SQLExecutor, submissionID int) error {
	for key := range r.scores {
		if key.submissionID == submissionID {
			delete(r.scores, key)
		}
	}
	return nil
}

type memCriterionRepo struct {
	criteria map[int]*models.JudgingCriterion
}

func newMemCriterionRepo() *memCriterionRepo {
	return &memCriterionRepo{criteria: make(map[int]*models.JudgingCriterion)}
}

func (r *memCriterionRepo) Create(_ context.Context, _ repositories.SQLExecutor, c *models.JudgingCriterion) error {
	r.criteria[c.ID] = c
	return nil
}

func (r *memCriterionRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.JudgingCriterion, error) {
	c, ok := r.criteria[id]
	if !ok {
		return nil, repositories.ErrCriterionNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *memCriterionRepo) Update(_ context.Context, _ repositories.SQLExecutor, c *models.JudgingCriterion) error {
	r.criteria[c.ID] = c
	return nil
}

func (r *memCriterionRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	delete(r.criteria, id)
	return nil
}

func (r *memCriterionRepo) ListByCompetition(_ context.Context, _ repositories.SQLExecutor, competitionID int) ([]*models.JudgingCriterion, error) {
	result := make([]*models.JudgingCriterion, 0)
	for _, c := range r.criteria {
		if c.CompetitionID == competitionID {
			copied := *c
			result = append(result, &copied)
		}
	}
	return result, nil
}

type memCompetitionRepo struct {
	competitions map[int]*models.Competition
	due          []*models.Competition
}

func newMemCompetitionRepo() *memCompetitionRepo {
	return &memCompetitionRepo{competitions: make(map[int]*models.Competition)}
}

func (r *memCompetitionRepo) Create(_ context.Context, c *models.Competition) error {
	r.competitions[c.ID] = c
	return nil
}

func (r *memCompetitionRepo) GetByID(_ context.Context, id int) (*models.Competition, error) {
	c, ok := r.competitions[id]
	if !ok {
		return nil, repositories.ErrCompetitionNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *memCompetitionRepo) Update(_ context.Context, c *models.Competition) error {
	r.competitions[c.ID] = c
	return nil
}

func (r *memCompetitionRepo) UpdateStatus(_ context.Context, id int, status models.CompetitionStatus) error {
	c, ok := r.competitions[id]
	if !ok {
		return repositories.ErrCompetitionNotFound
	}
	c.Status = status
	return nil
}

func (r *memCompetitionRepo) Delete(_ context.Context, id int) error {
	delete(r.competitions, id)
	return nil
}

func (r *memCompetitionRepo) List(_ context.Context, _ repositories.CompetitionFilter) ([]*models.Competition, error) {
	result := make([]*models.Competition, 0, len(r.competitions))
	for _, c := range r.competitions {
		copied := *c
		result = append(result, &copied)
	}
	return result, nil
}

func (r *memCompetitionRepo) ListDueForStatus(_ context.Context, _ time.Time) ([]*models.Competition, error) {
	return r.due, nil
}

type recordingMailer struct {
	mu            sync.Mutex
	resultsEmails []string
}

func (m *recordingMailer) SendWelcomeEmail(string, string) error       { return nil }
func (m *recordingMailer) SendPasswordResetEmail(string, string) error { return nil }
func (m *recordingMailer) SendTeamInviteEmail(string, string, string) error {
	return nil
}
func (m *recordingMailer) SendSubmissionStatusEmail(string, string, string, string, models.SubmissionStatus, *string) error {
	return nil
}
func (m *recordingMailer) SendContactRequestEmail(string, string, string, string) error {
	return nil
}

func (m *recordingMailer) SendResultsPublishedEmail(userEmail, _, _, _ string, _ *float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resultsEmails = append(m.resultsEmails, userEmail)
	return nil
}

func (m *recordingMailer) resultsEmailCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.resultsEmails)
}

type recordingBroadcaster struct {
	scoreEvents   int
	publishEvents int
	lastFinal     *float64
}

func (b *recordingBroadcaster) BroadcastScoreRecorded(_, _ int, finalScore *float64) {
	b.scoreEvents++
	b.lastFinal = finalScore
}

func (b *recordingBroadcaster) BroadcastResultsPublished(_ int, _ int64) {
	b.publishEvents++
}

type evaluationFixture struct {
	service      EvaluationService
	submissions  *memSubmissionRepo
	scores       *memScoreRepo
	criteria     *memCriterionRepo
	competitions *memCompetitionRepo
	broadcaster  *recordingBroadcaster
}

func newEvaluationFixture(t *testing.T) *evaluationFixture {
	t.Helper()

	criteria := newMemCriterionRepo()
	fixture := &evaluationFixture{
		submissions:  newMemSubmissionRepo(),
		scores:       newMemScoreRepo(criteria),
		criteria:     criteria,
		competitions: newMemCompetitionRepo(),
		broadcaster:  &recordingBroadcaster{},
	}
	fixture.service = NewEvaluationService(
		fakeTransactor{},
		fixture.submissions,
		fixture.scores,
		fixture.criteria,
		fixture.competitions,
		nil,
		nil,
		fixture.broadcaster,
		slog.Default(),
		defaultLeaderboardLimit,
	)
	return fixture
}

func (f *evaluationFixture) seedCompetition(id int) {
	f.competitions.competitions[id] = &models.Competition{
		ID:     id,
		Title:  fmt.Sprintf("Competition %d", id),
		Status: models.CompetitionStatusJudging,
	}
}

func (f *evaluationFixture) seedSubmission(id, competitionID int, status models.SubmissionStatus) {
	f.submissions.submissions[id] = &models.Submission{
		ID:            id,
		CompetitionID: competitionID,
		OwnerID:       100 + id,
		Title:         fmt.Sprintf("Project %d", id),
		Status:        status,
		CreatedAt:     time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *evaluationFixture) seedCriterion(id, competitionID int, weight *float64) {
	f.criteria.criteria[id] = &models.JudgingCriterion{
		ID:            id,
		CompetitionID: competitionID,
		Name:          fmt.Sprintf("Criterion %d", id),
		Weight:        weight,
	}
}

// --- агрегация ---

func TestComputeFinalScoreWeightedMean(t *testing.T) {
	ledger := []models.CriterionScore{
		{CriterionID: 1, Value: 80, Weight: floatPtr(1)},
		{CriterionID: 2, Value: 60, Weight: floatPtr(3)},
	}

	final := ComputeFinalScore(ledger)
	require.NotNil(t, final)
	assert.InDelta(t, 65.0, *final, 1e-9)
}

func TestComputeFinalScoreNullWeightDefaultsToOne(t *testing.T) {
	ledger := []models.CriterionScore{
		{CriterionID: 1, Value: 90, Weight: nil},
		{CriterionID: 2, Value: 70, Weight: floatPtr(2)},
	}

	final := ComputeFinalScore(ledger)
	require.NotNil(t, final)
	// (90*1 + 70*2) / 3
	assert.InDelta(t, 230.0/3.0, *final, 1e-9)
}

func TestComputeFinalScoreNonPositiveWeightCoerced(t *testing.T) {
	ledger := []models.CriterionScore{
		{CriterionID: 1, Value: 40, Weight: floatPtr(0)},
		{CriterionID: 2, Value: 80, Weight: floatPtr(-5)},
	}

	final := ComputeFinalScore(ledger)
	require.NotNil(t, final)
	assert.InDelta(t, 60.0, *final, 1e-9)
}

func TestComputeFinalScoreEmptyLedger(t *testing.T) {
	assert.Nil(t, ComputeFinalScore(nil))
	assert.Nil(t, ComputeFinalScore([]models.CriterionScore{}))
}

// --- запись оценок ---

func TestRecordScoreRejectsOutOfRange(t *testing.T) {
	fixture := newEvaluationFixture(t)

	_, err := fixture.service.RecordScore(context.Background(), RecordScoreInput{
		SubmissionID: 1, JudgeID: 1, CriterionID: 1, Value: 101,
	})
	assert.ErrorIs(t, err, ErrScoreOutOfRange)

	_, err = fixture.service.RecordScore(context.Background(), RecordScoreInput{
		SubmissionID: 1, JudgeID: 1, CriterionID: 1, Value: -0.5,
	})
	assert.ErrorIs(t, err, ErrScoreOutOfRange)
}

func TestRecordScoreCriterionFromOtherCompetition(t *testing.T) {
	fixture := newEvaluationFixture(t)
	fixture.seedCompetition(1)
	fixture.seedSubmission(10, 1, models.SubmissionStatusSubmitted)
	fixture.seedCriterion(5, 2, nil) // критерий чужого конкурса

	_, err := fixture.service.RecordScore(context.Background(), RecordScoreInput{
		SubmissionID: 10, JudgeID: 3, CriterionID: 5, Value: 50,
	})
	assert.ErrorIs(t, err, ErrCriterionCompetitionMismatch)
}

func TestRecordScoreComputesAndCachesFinalScore(t *testing.T) {
	fixture := newEvaluationFixture(t)
	fixture.seedCompetition(1)
	fixture.seedSubmission(10, 1, models.SubmissionStatusSubmitted)
	fixture.seedCriterion(1, 1, floatPtr(1))
	fixture.seedCriterion(2, 1, floatPtr(3))

	_, err := fixture.service.RecordScore(context.Background(), RecordScoreInput{
		SubmissionID: 10, JudgeID: 3, CriterionID: 1, Value: 80,
	})
	require.NoError(t, err)

	_, err = fixture.service.RecordScore(context.Background(), RecordScoreInput{
		SubmissionID: 10, JudgeID: 3, CriterionID: 2, Value: 60,
	})
	require.NoError(t, err)

	stored := fixture.submissions.submissions[10]
	require.NotNil(t, stored.FinalScore)
	assert.InDelta(t, 65.0, *stored.FinalScore, 1e-9)
	assert.Equal(t, 2, fixture.broadcaster.scoreEvents)
}

func TestRecordScoreRepeatedWriteOverwrites(t *testing.T) {
	fixture := newEvaluationFixture(t)
	fixture.seedCompetition(1)
	fixture.seedSubmission(10, 1, models.SubmissionStatusSubmitted)
	fixture.seedCriterion(1, 1, nil)

	for _, value := range []float64{40, 55, 70} {
		_, err := fixture.service.RecordScore(context.Background(), RecordScoreInput{
			SubmissionID: 10, JudgeID: 3, CriterionID: 1, Value: value,
		})
		require.NoError(t, err)
	}

	// Перезапись той же пары (судья, критерий) не плодит строк журнала.
	ledger, err := fixture.scores.ListWithWeights(context.Background(), nil, 10)
	require.NoError(t, err)
	assert.Len(t, ledger, 1)

	stored := fixture.submissions.submissions[10]
	require.NotNil(t, stored.FinalScore)
	assert.InDelta(t, 70.0, *stored.FinalScore, 1e-9)
}

func TestRecordScoreAdvancesSubmittedToUnderReview(t *testing.T) {
	fixture := newEvaluationFixture(t)
	fixture.seedCompetition(1)
	fixture.seedSubmission(10, 1, models.SubmissionStatusSubmitted)
	fixture.seedCriterion(1, 1, nil)

	_, err := fixture.service.RecordScore(context.Background(), RecordScoreInput{
		SubmissionID: 10, JudgeID: 3, CriterionID: 1, Value: 88,
	})
	require.NoError(t, err)

	assert.Equal(t, models.SubmissionStatusUnderReview, fixture.submissions.submissions[10].Status)
}

func TestRecordScoreDoesNotDemoteAdvancedStatus(t *testing.T) {
	fixture := newEvaluationFixture(t)
	fixture.seedCompetition(1)
	fixture.seedCriterion(1, 1, nil)

	for _, status := range []models.SubmissionStatus{
		models.SubmissionStatusUnderReview,
		models.SubmissionStatusShortlisted,
		models.SubmissionStatusWinner,
		models.SubmissionStatusNotWinner,
	} {
		fixture.seedSubmission(10, 1, status)

		_, err := fixture.service.RecordScore(context.Background(), RecordScoreInput{
			SubmissionID: 10, JudgeID: 3, CriterionID: 1, Value: 42,
		})
		require.NoError(t, err)

		assert.Equal(t, status, fixture.submissions.submissions[10].Status,
			"запись оценки не должна откатывать статус %s", status)
	}
}

// Отвергнутая политика: каждая новая оценка сбрасывает статус заявки обратно
// в under_review. Действующее поведение сохраняет любой продвинутый статус,
// включая published, и обновляет только кешированный итоговый балл.
func TestRecordScoreLegacyResetPolicyRejected(t *testing.T) {
	const legacyResetTarget = models.SubmissionStatusUnderReview

	for _, status := range []models.SubmissionStatus{
		models.SubmissionStatusShortlisted,
		models.SubmissionStatusWinner,
		models.SubmissionStatusNotWinner,
		models.SubmissionStatusPublished,
	} {
		fixture := newEvaluationFixture(t)
		fixture.seedCompetition(1)
		fixture.seedCriterion(1, 1, nil)
		fixture.seedSubmission(10, 1, status)

		_, err := fixture.service.RecordScore(context.Background(), RecordScoreInput{
			SubmissionID: 10, JudgeID: 3, CriterionID: 1, Value: 55,
		})
		require.NoError(t, err)

		stored := fixture.submissions.submissions[10]
		assert.Equal(t, status, stored.Status)
		assert.NotEqual(t, legacyResetTarget, stored.Status,
			"оценка не должна сбрасывать статус %s в %s", status, legacyResetTarget)
		require.NotNil(t, stored.FinalScore)
		assert.InDelta(t, 55.0, *stored.FinalScore, 1e-9)
	}
}

func TestRecordScoreUnknownSubmission(t *testing.T) {
	fixture := newEvaluationFixture(t)

	_, err := fixture.service.RecordScore(context.Background(), RecordScoreInput{
		SubmissionID: 404, JudgeID: 3, CriterionID: 1, Value: 50,
	})
	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}

// --- публикация ---

func TestPublishResultsScopesStatuses(t *testing.T) {
	fixture := newEvaluationFixture(t)
	fixture.seedCompetition(1)
	fixture.seedSubmission(1, 1, models.SubmissionStatusSubmitted)
	fixture.seedSubmission(2, 1, models.SubmissionStatusUnderReview)
	fixture.seedSubmission(3, 1, models.SubmissionStatusWinner)
	fixture.seedSubmission(4, 1, models.SubmissionStatusDisqualified)
	fixture.seedSubmission(5, 1, models.SubmissionStatusShortlisted)
	fixture.seedSubmission(6, 1, models.SubmissionStatusNotWinner)

	published, err := fixture.service.PublishResults(context.Background(), 1)
	require.NoError(t, err)
	assert.EqualValues(t, 4, published)

	assert.Equal(t, models.SubmissionStatusSubmitted, fixture.submissions.submissions[1].Status)
	assert.Equal(t, models.SubmissionStatusPublished, fixture.submissions.submissions[2].Status)
	assert.Equal(t, models.SubmissionStatusPublished, fixture.submissions.submissions[3].Status)
	assert.Equal(t, models.SubmissionStatusDisqualified, fixture.submissions.submissions[4].Status)
	assert.Equal(t, models.SubmissionStatusPublished, fixture.submissions.submissions[5].Status)
	assert.Equal(t, models.SubmissionStatusPublished, fixture.submissions.submissions[6].Status)

	assert.Equal(t, 1, fixture.broadcaster.publishEvents)
}

func TestPublishResultsIgnoresOtherCompetitions(t *testing.T) {
	fixture := newEvaluationFixture(t)
	fixture.seedCompetition(1)
	fixture.seedCompetition(2)
	fixture.seedSubmission(1, 1, models.SubmissionStatusUnderReview)
	fixture.seedSubmission(2, 2, models.SubmissionStatusUnderReview)

	published, err := fixture.service.PublishResults(context.Background(), 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, published)
	assert.Equal(t, models.SubmissionStatusUnderReview, fixture.submissions.submissions[2].Status)
}

func TestPublishResultsNotifiesNewRowsOnly(t *testing.T) {
	criteria := newMemCriterionRepo()
	submissions := newMemSubmissionRepo()
	competitions := newMemCompetitionRepo()
	users := newMemUserRepo()
	mailer := &recordingMailer{}
	service := NewEvaluationService(
		fakeTransactor{},
		submissions,
		newMemScoreRepo(criteria),
		criteria,
		competitions,
		users,
		mailer,
		nil,
		slog.Default(),
		defaultLeaderboardLimit,
	)

	competitions.competitions[1] = &models.Competition{
		ID: 1, Title: "Hackathon", Status: models.CompetitionStatusJudging,
	}
	submissions.submissions[10] = &models.Submission{
		ID: 10, CompetitionID: 1, OwnerID: 110,
		Status: models.SubmissionStatusUnderReview,
	}
	users.users[110] = &models.User{ID: 110, Email: "owner@example.com", FirstName: "Aliya"}

	published, err := service.PublishResults(context.Background(), 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, published)
	require.Eventually(t, func() bool { return mailer.resultsEmailCount() == 1 },
		time.Second, 10*time.Millisecond)

	// Повторная публикация ничего не переводит и не шлёт писем заново.
	published, err = service.PublishResults(context.Background(), 1)
	require.NoError(t, err)
	assert.EqualValues(t, 0, published)
	assert.Never(t, func() bool { return mailer.resultsEmailCount() > 1 },
		200*time.Millisecond, 20*time.Millisecond)
}

func TestPublishResultsUnknownCompetition(t *testing.T) {
	fixture := newEvaluationFixture(t)

	_, err := fixture.service.PublishResults(context.Background(), 99)
	assert.ErrorIs(t, err, ErrCompetitionNotFound)
}

func TestPublishableStatusesExcludeSubmittedAndDisqualified(t *testing.T) {
	statuses := PublishableStatuses()
	assert.NotContains(t, statuses, models.SubmissionStatusSubmitted)
	assert.NotContains(t, statuses, models.SubmissionStatusDisqualified)
	assert.NotContains(t, statuses, models.SubmissionStatusPublished)
}

// --- рейтинг ---

func TestBuildLeaderboardOrderingAndTieBreak(t *testing.T) {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	submissions := []*models.Submission{
		{ID: 1, Title: "Bronze", Status: models.SubmissionStatusPublished, FinalScore: floatPtr(72.5), CreatedAt: base},
		{ID: 2, Title: "Late Gold", Status: models.SubmissionStatusPublished, FinalScore: floatPtr(91.0), CreatedAt: base.Add(time.Hour)},
		{ID: 3, Title: "Early Gold", Status: models.SubmissionStatusPublished, FinalScore: floatPtr(91.0), CreatedAt: base},
		{ID: 4, Title: "Unscored", Status: models.SubmissionStatusPublished, FinalScore: nil, CreatedAt: base},
	}

	entries := BuildLeaderboard(submissions, 0)
	require.Len(t, entries, 3)

	// Равные баллы: ранняя заявка выше.
	assert.Equal(t, 3, entries[0].SubmissionID)
	assert.Equal(t, 2, entries[1].SubmissionID)
	assert.Equal(t, 1, entries[2].SubmissionID)

	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, 3, entries[2].Rank)
}

func TestBuildLeaderboardIdTieBreak(t *testing.T) {
	created := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	submissions := []*models.Submission{
		{ID: 7, Status: models.SubmissionStatusPublished, FinalScore: floatPtr(50), CreatedAt: created},
		{ID: 3, Status: models.SubmissionStatusPublished, FinalScore: floatPtr(50), CreatedAt: created},
	}

	entries := BuildLeaderboard(submissions, 0)
	require.Len(t, entries, 2)
	assert.Equal(t, 3, entries[0].SubmissionID)
	assert.Equal(t, 7, entries[1].SubmissionID)
}

func TestBuildLeaderboardExcludesUnpublished(t *testing.T) {
	created := time.Now()
	submissions := []*models.Submission{
		{ID: 1, Status: models.SubmissionStatusUnderReview, FinalScore: floatPtr(95), CreatedAt: created},
		{ID: 2, Status: models.SubmissionStatusPublished, FinalScore: floatPtr(60), CreatedAt: created},
	}

	entries := BuildLeaderboard(submissions, 0)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].SubmissionID)
}

func TestGetLeaderboardDefaultLimit(t *testing.T) {
	fixture := newEvaluationFixture(t)
	fixture.seedCompetition(1)

	for i := 1; i <= 80; i++ {
		fixture.submissions.submissions[i] = &models.Submission{
			ID:            i,
			CompetitionID: 1,
			Title:         fmt.Sprintf("Project %d", i),
			Status:        models.SubmissionStatusPublished,
			FinalScore:    floatPtr(float64(i)),
			CreatedAt:     time.Now(),
		}
	}

	entries, err := fixture.service.GetLeaderboard(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, entries, defaultLeaderboardLimit)

	// Лучшая заявка первой, ранги сплошные.
	assert.InDelta(t, 80.0, entries[0].FinalScore, 1e-9)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, defaultLeaderboardLimit, entries[len(entries)-1].Rank)
}

func TestGetLeaderboardLimitClamped(t *testing.T) {
	fixture := newEvaluationFixture(t)
	fixture.seedCompetition(1)

	for i := 1; i <= 60; i++ {
		fixture.submissions.submissions[i] = &models.Submission{
			ID:            i,
			CompetitionID: 1,
			Status:        models.SubmissionStatusPublished,
			FinalScore:    floatPtr(float64(i)),
			CreatedAt:     time.Now(),
		}
	}

	entries, err := fixture.service.GetLeaderboard(context.Background(), 1, 1000)
	require.NoError(t, err)
	assert.Len(t, entries, defaultLeaderboardLimit)

	entries, err = fixture.service.GetLeaderboard(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 10)
}
