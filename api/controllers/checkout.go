package controllers

import (
	"net/http"

	"github.com/rohanmehta-dev/vaanijya-backend/api/responses"
	"github.com/rohanmehta-dev/vaanijya-backend/api/validators"
	ordersvc "github.com/rohanmehta-dev/vaanijya-backend/internal/orders"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/enums"
	apperrors "github.com/rohanmehta-dev/vaanijya-backend/pkg/errors"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/logger"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/types"
)

type checkoutRequest struct {
	PaymentMethod string        `json:"payment_method" validate:"required"`
	Address       types.Address `json:"address" validate:"required"`
	AllowPartial  bool          `json:"allow_partial"`
}

// Checkout turns the caller's active cart into an order.
func Checkout(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, apperrors.Wrap(apperrors.CodeValidation, err, "invalid payment method"))
			return
		}

		result, err := svc.Checkout(r.Context(), ordersvc.CheckoutParams{
			UserID:        userID,
			PaymentMethod: method,
			Address:       payload.Address,
			AllowPartial:  payload.AllowPartial,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
