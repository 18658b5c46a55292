package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/config"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/db/models"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/enums"
	apperrors "github.com/rohanmehta-dev/vaanijya-backend/pkg/errors"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/logger"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/pagination"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/razorpay"
	"gorm.io/gorm"
)

// Gateway is the slice of the payment gateway client the service needs.
type Gateway interface {
	CreateOrder(ctx context.Context, req razorpay.CreateOrderRequest) (*razorpay.Order, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	VerifyWebhookSignature(body []byte, signature string) bool
}

// OrderFinalizer receives the payment outcome for order-purpose payments.
// The orders service implements it; wiring happens in main.
type OrderFinalizer interface {
	MarkPaymentOutcome(ctx context.Context, orderID string, success bool, failureReason string) error
}

// SubscriptionActivator opens the wholesale window after a subscription
// payment succeeds.
type SubscriptionActivator interface {
	ActivateSubscription(ctx context.Context, userID string, from time.Time) (*models.BusinessProfile, error)
}

// WebhookGuard deduplicates webhook deliveries.
type WebhookGuard interface {
	Claim(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
}

// IntentParams describes a payment intent to open at the gateway.
type IntentParams struct {
	UserID      string
	OrderID     *string
	Purpose     enums.PaymentPurpose
	Method      enums.PaymentMethod
	AmountPaise int64
}

// VerifyParams is the browser checkout callback payload.
type VerifyParams struct {
	UserID           string
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// Service owns payment records and their gateway lifecycle.
type Service interface {
	CreateIntent(ctx context.Context, params IntentParams) (*models.PaymentRecord, error)
	CreateSubscriptionIntent(ctx context.Context, userID string) (*models.PaymentRecord, error)
	VerifyPayment(ctx context.Context, params VerifyParams) (*models.PaymentRecord, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) error
	ListByUser(ctx context.Context, userID string, page pagination.Params) ([]models.PaymentRecord, int64, error)

	WithTx(tx *gorm.DB) Service
}

type service struct {
	repo      Repository
	gateway   Gateway
	finalizer OrderFinalizer
	activator SubscriptionActivator
	guard     WebhookGuard
	cfg       config.CheckoutConfig
	logg      *logger.Logger
}

// NewService builds the payments service. finalizer and activator are set
// after construction to break the wiring cycle with the orders service.
func NewService(repo Repository, gateway Gateway, guard WebhookGuard, cfg config.CheckoutConfig, logg *logger.Logger) *ServiceImpl {
	return &ServiceImpl{service{
		repo:    repo,
		gateway: gateway,
		guard:   guard,
		cfg:     cfg,
		logg:    logg,
	}}
}

// ServiceImpl exposes the late-bound collaborator setters.
type ServiceImpl struct {
	service
}

// SetOrderFinalizer wires the order-outcome callback.
func (s *ServiceImpl) SetOrderFinalizer(f OrderFinalizer) {
	s.finalizer = f
}

// SetSubscriptionActivator wires the subscription callback.
func (s *ServiceImpl) SetSubscriptionActivator(a SubscriptionActivator) {
	s.activator = a
}

func (s *service) WithTx(tx *gorm.DB) Service {
	clone := *s
	clone.repo = s.repo.WithTx(tx)
	return &clone
}

// CreateIntent opens a gateway order and records it as pending. The receipt
// carries our transaction id so gateway dashboards correlate back to us.
func (s *service) CreateIntent(ctx context.Context, params IntentParams) (*models.PaymentRecord, error) {
	if params.AmountPaise <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "amount must be positive")
	}

	transactionID := "txn_" + uuid.NewString()
	notes := map[string]string{
		"transaction_id": transactionID,
		"purpose":        params.Purpose.String(),
		"user_id":        params.UserID,
	}
	if params.OrderID != nil {
		notes["order_id"] = *params.OrderID
	}

	gatewayOrder, err := s.gateway.CreateOrder(ctx, razorpay.CreateOrderRequest{
		AmountPaise: params.AmountPaise,
		Currency:    s.cfg.Currency,
		Receipt:     transactionID,
		Notes:       notes,
	})
	if err != nil {
		return nil, err
	}

	record := &models.PaymentRecord{
		UserID:         params.UserID,
		OrderID:        params.OrderID,
		TransactionID:  transactionID,
		GatewayOrderID: gatewayOrder.ID,
		Purpose:        params.Purpose,
		Method:         params.Method,
		Status:         enums.PaymentStatusPending,
		AmountPaise:    params.AmountPaise,
		Currency:       s.cfg.Currency,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// CreateSubscriptionIntent opens an intent for the annual wholesale plan.
func (s *service) CreateSubscriptionIntent(ctx context.Context, userID string) (*models.PaymentRecord, error) {
	return s.CreateIntent(ctx, IntentParams{
		UserID:      userID,
		Purpose:     enums.PaymentPurposeSubscription,
		Method:      enums.PaymentMethodOther,
		AmountPaise: s.cfg.SubscriptionPricePaise,
	})
}

// VerifyPayment settles the browser callback. Replays of an already settled
// payment return the record unchanged.
func (s *service) VerifyPayment(ctx context.Context, params VerifyParams) (*models.PaymentRecord, error) {
	record, err := s.repo.GetByGatewayOrderID(ctx, params.GatewayOrderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.New(apperrors.CodeNotFound, "payment not found")
		}
		return nil, err
	}
	if record.UserID != params.UserID {
		return nil, apperrors.New(apperrors.CodeForbidden, "payment belongs to another user")
	}
	if record.Status.IsTerminal() {
		return record, nil
	}

	if !s.gateway.VerifyPaymentSignature(params.GatewayOrderID, params.GatewayPaymentID, params.Signature) {
		if err := s.markFailed(ctx, record, "signature verification failed"); err != nil {
			return nil, err
		}
		return nil, apperrors.New(apperrors.CodeUnauthorized, "invalid payment signature")
	}

	return s.settle(ctx, record, params.GatewayPaymentID)
}

// settle transitions a pending record to success and fires the purpose hook.
func (s *service) settle(ctx context.Context, record *models.PaymentRecord, gatewayPaymentID string) (*models.PaymentRecord, error) {
	fields := map[string]any{
		"status":             enums.PaymentStatusSuccess.String(),
		"gateway_payment_id": gatewayPaymentID,
	}

	var subFrom, subTo *time.Time
	if record.Purpose == enums.PaymentPurposeSubscription && s.activator != nil {
		profile, err := s.activator.ActivateSubscription(ctx, record.UserID, time.Now())
		if err != nil {
			return nil, err
		}
		subFrom, subTo = profile.SubscriptionFrom, profile.SubscriptionTo
		fields["subscription_from"] = subFrom
		fields["subscription_to"] = subTo
	}

	if err := s.repo.UpdateFields(ctx, record.ID, fields); err != nil {
		return nil, err
	}

	if record.Purpose == enums.PaymentPurposeOrder && record.OrderID != nil && s.finalizer != nil {
		if err := s.finalizer.MarkPaymentOutcome(ctx, *record.OrderID, true, ""); err != nil {
			return nil, err
		}
	}

	record.Status = enums.PaymentStatusSuccess
	record.GatewayPaymentID = gatewayPaymentID
	record.SubscriptionFrom = subFrom
	record.SubscriptionTo = subTo
	return record, nil
}

func (s *service) markFailed(ctx context.Context, record *models.PaymentRecord, reason string) error {
	fields := map[string]any{
		"status":         enums.PaymentStatusFailed.String(),
		"failure_reason": reason,
	}
	if err := s.repo.UpdateFields(ctx, record.ID, fields); err != nil {
		return err
	}
	if record.Purpose == enums.PaymentPurposeOrder && record.OrderID != nil && s.finalizer != nil {
		if err := s.finalizer.MarkPaymentOutcome(ctx, *record.OrderID, false, reason); err != nil {
			return err
		}
	}
	record.Status = enums.PaymentStatusFailed
	record.FailureReason = reason
	return nil
}

// paymentEntity is the gateway's payment object as delivered in webhooks.
type paymentEntity struct {
	ID          string            `json:"id"`
	OrderID     string            `json:"order_id"`
	AmountPaise int64             `json:"amount"`
	Notes       map[string]string `json:"notes"`
	ErrorReason string            `json:"error_description"`
}

// webhookEvent is the gateway's delivery envelope.
type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity paymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleWebhook processes gateway deliveries. Unknown events are skipped,
// duplicate deliveries short-circuit on the redis claim, and a delivery for
// a record we never opened creates a compensating record for reconciliation.
func (s *service) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !s.gateway.VerifyWebhookSignature(body, signature) {
		return apperrors.New(apperrors.CodeUnauthorized, "invalid webhook signature")
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return apperrors.Wrap(apperrors.CodeValidation, err, "malformed webhook body")
	}

	entity := event.Payload.Payment.Entity
	switch event.Event {
	case "payment.captured", "payment.authorized", "payment.failed":
	default:
		s.logg.Info(ctx, "ignoring webhook event "+event.Event)
		return nil
	}

	claimID := fmt.Sprintf("%s:%s", event.Event, entity.ID)
	if s.guard != nil {
		won, err := s.guard.Claim(ctx, claimID)
		if err != nil {
			return err
		}
		if !won {
			return nil
		}
	}

	err := s.applyWebhook(ctx, event.Event, entity)
	if err != nil && s.guard != nil {
		// Give the gateway's retry a chance to land.
		_ = s.guard.Release(ctx, claimID)
	}
	return err
}

func (s *service) applyWebhook(ctx context.Context, eventName string, entity paymentEntity) error {
	record, err := s.repo.GetByGatewayOrderID(ctx, entity.OrderID)
	if err == gorm.ErrRecordNotFound {
		return s.createCompensatingRecord(ctx, eventName, entity)
	}
	if err != nil {
		return err
	}
	if record.Status.IsTerminal() {
		return nil
	}

	if eventName == "payment.failed" {
		reason := entity.ErrorReason
		if reason == "" {
			reason = "gateway reported failure"
		}
		return s.markFailed(ctx, record, reason)
	}

	_, err = s.settle(ctx, record, entity.ID)
	return err
}

// createCompensatingRecord books a payment we have no intent for, so money
// captured at the gateway is never invisible to reconciliation.
func (s *service) createCompensatingRecord(ctx context.Context, eventName string, entity paymentEntity) error {
	s.logg.Warn(ctx, "webhook for unknown gateway order, recording for reconciliation")

	status := enums.PaymentStatusSuccess
	if eventName == "payment.failed" {
		status = enums.PaymentStatusFailed
	}

	record := &models.PaymentRecord{
		UserID:           entity.Notes["user_id"],
		TransactionID:    "txn_webhook_" + entity.ID,
		GatewayOrderID:   entity.OrderID,
		GatewayPaymentID: entity.ID,
		Purpose:          enums.PaymentPurposeOrder,
		Method:           enums.PaymentMethodOther,
		Status:           status,
		AmountPaise:      entity.AmountPaise,
		Currency:         s.cfg.Currency,
		FailureReason:    entity.ErrorReason,
	}
	if purpose, err := enums.ParsePaymentPurpose(entity.Notes["purpose"]); err == nil {
		record.Purpose = purpose
	}
	return s.repo.Create(ctx, record)
}

func (s *service) ListByUser(ctx context.Context, userID string, page pagination.Params) ([]models.PaymentRecord, int64, error) {
	total, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	records, err := s.repo.ListByUser(ctx, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}
