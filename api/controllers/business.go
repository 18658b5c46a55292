package controllers

import (
	"net/http"

	"github.com/rohanmehta-dev/vaanijya-backend/api/responses"
	"github.com/rohanmehta-dev/vaanijya-backend/api/validators"
	businesssvc "github.com/rohanmehta-dev/vaanijya-backend/internal/business"
	paymentsvc "github.com/rohanmehta-dev/vaanijya-backend/internal/payments"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/logger"
)

type createBusinessProfileRequest struct {
	BusinessName string `json:"business_name" validate:"required,max=255"`
	GSTIN        string `json:"gstin" validate:"omitempty,len=15"`
	Address      string `json:"address" validate:"max=1024"`
}

func BusinessProfileCreate(svc businesssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createBusinessProfileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.CreateProfile(r.Context(), businesssvc.CreateProfileParams{
			UserID:       userID,
			BusinessName: payload.BusinessName,
			GSTIN:        payload.GSTIN,
			Address:      payload.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, profile)
	}
}

func BusinessProfileFetch(svc businesssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.GetProfile(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// BusinessSubscriptionCreate opens a payment intent for the annual
// wholesale plan. Activation happens when the payment settles.
func BusinessSubscriptionCreate(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.CreateSubscriptionIntent(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}
