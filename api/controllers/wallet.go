package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rohanmehta-dev/vaanijya-backend/api/responses"
	"github.com/rohanmehta-dev/vaanijya-backend/api/validators"
	walletsvc "github.com/rohanmehta-dev/vaanijya-backend/internal/wallet"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/logger"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/pagination"
)

type walletAmountRequest struct {
	AmountPaise int64  `json:"amount_paise" validate:"required,min=1"`
	Description string `json:"description" validate:"max=512"`
}

type withdrawalDecisionRequest struct {
	Approve bool `json:"approve"`
}

// WalletFetch returns the caller's wallet, creating it on first use.
func WalletFetch(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		wallet, err := svc.Balance(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wallet)
	}
}

func WalletAddFunds(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload walletAmountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.Credit(r.Context(), walletsvc.EntryParams{
			UserID:      userID,
			AmountPaise: payload.AmountPaise,
			Description: payload.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, txn)
	}
}

func WalletWithdraw(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload walletAmountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.RequestWithdrawal(r.Context(), userID, payload.AmountPaise)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, txn)
	}
}

func WalletTransactions(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page := pagination.FromRequest(r)
		txns, total, err := svc.Transactions(r.Context(), userID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"transactions": txns,
			"pagination":   pagination.NewMeta(page, total),
		})
	}
}

// AdminWithdrawalDecision approves or rejects a pending withdrawal. Approval
// is the step that debits the wallet.
func AdminWithdrawalDecision(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload withdrawalDecisionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.ResolveWithdrawal(r.Context(), chi.URLParam(r, "txnId"), payload.Approve)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, txn)
	}
}
