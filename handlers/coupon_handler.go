package handlers

import (
	"net/http"

	"github.com/Sarsenovv/competition-platform/services"
)

type CouponHandler struct {
	couponService services.CouponService
}

func NewCouponHandler(cs services.CouponService) *CouponHandler {
	return &CouponHandler{couponService: cs}
}

func (h *CouponHandler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var input services.CreateCouponInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	coupon, err := h.couponService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"coupon": coupon}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CouponHandler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	coupons, err := h.couponService.ListByCompetition(r.Context(), competitionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"coupons": coupons}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CouponHandler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	couponID, err := getIDFromURL(r, "couponID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.couponService.Delete(r.Context(), couponID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
