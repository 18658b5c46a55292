package controllers

import (
	"net/http"

	"github.com/rohanmehta-dev/vaanijya-backend/api/responses"
	"github.com/rohanmehta-dev/vaanijya-backend/api/validators"
	paymentsvc "github.com/rohanmehta-dev/vaanijya-backend/internal/payments"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/logger"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/pagination"
)

type verifyPaymentRequest struct {
	GatewayOrderID   string `json:"razorpay_order_id" validate:"required"`
	GatewayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature        string `json:"razorpay_signature" validate:"required"`
}

// PaymentVerify is the browser checkout callback: the client posts the
// gateway's signed triple and the payment settles exactly once.
func PaymentVerify(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload verifyPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.VerifyPayment(r.Context(), paymentsvc.VerifyParams{
			UserID:           userID,
			GatewayOrderID:   payload.GatewayOrderID,
			GatewayPaymentID: payload.GatewayPaymentID,
			Signature:        payload.Signature,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

func PaymentList(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page := pagination.FromRequest(r)
		records, total, err := svc.ListByUser(r.Context(), userID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"payments":   records,
			"pagination": pagination.NewMeta(page, total),
		})
	}
}
