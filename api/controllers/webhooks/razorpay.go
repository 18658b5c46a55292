package webhooks

import (
	"io"
	"net/http"

	"github.com/rohanmehta-dev/vaanijya-backend/api/responses"
	paymentsvc "github.com/rohanmehta-dev/vaanijya-backend/internal/payments"
	apperrors "github.com/rohanmehta-dev/vaanijya-backend/pkg/errors"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/logger"
)

const razorpaySignatureHeader = "X-Razorpay-Signature"

// RazorpayWebhook receives payment lifecycle events. Signature verification
// and replay suppression live in the payments service.
func RazorpayWebhook(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, apperrors.New(apperrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			responses.WriteError(ctx, logg, w, apperrors.Wrap(apperrors.CodeDependency, err, "read request body"))
			return
		}

		signature := r.Header.Get(razorpaySignatureHeader)
		if signature == "" {
			responses.WriteError(ctx, logg, w, apperrors.New(apperrors.CodeUnauthorized, "webhook signature missing"))
			return
		}

		if err := svc.HandleWebhook(ctx, payload, signature); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}
