package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sarsenovv/competition-platform/models"
	"github.com/Sarsenovv/competition-platform/services"
)

func jsonBody(s string) io.Reader { return strings.NewReader(s) }

type stubEvaluationService struct {
	leaderboard    []models.LeaderboardEntry
	leaderboardErr error
	gotLimit       int
	published      int64
	publishErr     error
}

func (s *stubEvaluationService) RecordScore(_ context.Context, input services.RecordScoreInput) (*models.Score, error) {
	return &models.Score{
		SubmissionID: input.SubmissionID,
		JudgeID:      input.JudgeID,
		CriterionID:  input.CriterionID,
		Value:        input.Value,
	}, nil
}

func (s *stubEvaluationService) ListScores(_ context.Context, _ int) ([]*models.Score, error) {
	return nil, nil
}

func (s *stubEvaluationService) PublishResults(_ context.Context, _ int) (int64, error) {
	return s.published, s.publishErr
}

func (s *stubEvaluationService) GetLeaderboard(_ context.Context, _ int, limit int) ([]models.LeaderboardEntry, error) {
	s.gotLimit = limit
	return s.leaderboard, s.leaderboardErr
}

func newLeaderboardRouter(service services.EvaluationService) *chi.Mux {
	handler := NewEvaluationHandler(service)
	router := chi.NewRouter()
	router.Get("/competitions/{competitionID}/leaderboard", handler.GetLeaderboard)
	router.Post("/competitions/{competitionID}/publish", handler.PublishResults)
	return router
}

func TestGetLeaderboardOK(t *testing.T) {
	stub := &stubEvaluationService{
		leaderboard: []models.LeaderboardEntry{
			{Rank: 1, SubmissionID: 3, Title: "Winner", FinalScore: 91},
			{Rank: 2, SubmissionID: 1, Title: "Runner-up", FinalScore: 72.5},
		},
	}
	router := newLeaderboardRouter(stub)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/competitions/1/leaderboard?limit=10", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, stub.gotLimit)

	var response struct {
		Leaderboard []models.LeaderboardEntry `json:"leaderboard"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Leaderboard, 2)
	assert.Equal(t, 1, response.Leaderboard[0].Rank)
	assert.Equal(t, "Winner", response.Leaderboard[0].Title)
}

func TestGetLeaderboardRejectsBadParams(t *testing.T) {
	router := newLeaderboardRouter(&stubEvaluationService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/competitions/abc/leaderboard", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/competitions/1/leaderboard?limit=-5", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/competitions/1/leaderboard?limit=ten", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetLeaderboardUnknownCompetition(t *testing.T) {
	router := newLeaderboardRouter(&stubEvaluationService{leaderboardErr: services.ErrCompetitionNotFound})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/competitions/99/leaderboard", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublishResultsOK(t *testing.T) {
	router := newLeaderboardRouter(&stubEvaluationService{published: 12})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/competitions/1/publish", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		CompetitionID int   `json:"competition_id"`
		Published     int64 `json:"published"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 1, response.CompetitionID)
	assert.EqualValues(t, 12, response.Published)
}
