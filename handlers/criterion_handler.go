package handlers

import (
	"net/http"

	"github.com/Sarsenovv/competition-platform/services"
)

type CriterionHandler struct {
	criterionService services.CriterionService
}

func NewCriterionHandler(cs services.CriterionService) *CriterionHandler {
	return &CriterionHandler{criterionService: cs}
}

func (h *CriterionHandler) CreateCriterion(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CriterionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	criterion, err := h.criterionService.Create(r.Context(), competitionID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"criterion": criterion}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CriterionHandler) ListCriteria(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	criteria, err := h.criterionService.ListByCompetition(r.Context(), competitionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"criteria": criteria}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CriterionHandler) UpdateCriterion(w http.ResponseWriter, r *http.Request) {
	criterionID, err := getIDFromURL(r, "criterionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CriterionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	criterion, err := h.criterionService.Update(r.Context(), criterionID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"criterion": criterion}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CriterionHandler) DeleteCriterion(w http.ResponseWriter, r *http.Request) {
	criterionID, err := getIDFromURL(r, "criterionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.criterionService.Delete(r.Context(), criterionID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
