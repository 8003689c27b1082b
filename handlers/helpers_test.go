package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sarsenovv/competition-platform/services"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"submission not found", services.ErrSubmissionNotFound, http.StatusNotFound},
		{"competition not found", services.ErrCompetitionNotFound, http.StatusNotFound},
		{"criterion not found", services.ErrCriterionNotFound, http.StatusNotFound},
		{"coupon not found", services.ErrCouponNotFound, http.StatusNotFound},

		{"email conflict", services.ErrUserEmailConflict, http.StatusConflict},
		{"registration conflict", services.ErrRegistrationConflict, http.StatusConflict},
		{"competition full", services.ErrCompetitionFull, http.StatusConflict},

		{"score out of range", services.ErrScoreOutOfRange, http.StatusBadRequest},
		{"criterion mismatch", services.ErrCriterionCompetitionMismatch, http.StatusBadRequest},
		{"criterion weight", services.ErrCriterionWeightInvalid, http.StatusBadRequest},
		{"invalid transition", services.ErrSubmissionInvalidTransition, http.StatusBadRequest},
		{"coupon expired", services.ErrCouponExpired, http.StatusBadRequest},
		{"entry fee required", services.ErrEntryFeeRequired, http.StatusBadRequest},
		{"date range", services.ErrCompetitionInvalidDateRange, http.StatusBadRequest},

		{"invalid credentials", services.ErrInvalidCredentials, http.StatusUnauthorized},

		{"forbidden", services.ErrForbiddenOperation, http.StatusForbidden},
		{"captain only", services.ErrCaptainActionForbidden, http.StatusForbidden},
		{"registration closed", services.ErrRegistrationClosed, http.StatusForbidden},

		{"unknown", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)

			mapServiceErrorToHTTP(rec, req, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
		})
	}
}

func TestReadJSONRejectsUnknownFields(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/test",
		jsonBody(`{"score": 50, "bogus": true}`))

	var dst struct {
		Score float64 `json:"score"`
	}
	err := readJSON(rec, req, &dst)
	assert.ErrorContains(t, err, "unknown key")
}

func TestReadJSONRejectsEmptyBody(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/test", jsonBody(""))

	var dst struct{}
	err := readJSON(rec, req, &dst)
	assert.ErrorContains(t, err, "must not be empty")
}

func TestReadJSONRejectsMultipleValues(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/test", jsonBody(`{}{}`))

	var dst struct{}
	err := readJSON(rec, req, &dst)
	assert.ErrorContains(t, err, "single JSON value")
}
