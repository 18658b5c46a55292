package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rohanmehta-dev/vaanijya-backend/internal/business"
	"github.com/rohanmehta-dev/vaanijya-backend/internal/cart"
	"github.com/rohanmehta-dev/vaanijya-backend/internal/payments"
	"github.com/rohanmehta-dev/vaanijya-backend/internal/pricing"
	"github.com/rohanmehta-dev/vaanijya-backend/internal/products"
	"github.com/rohanmehta-dev/vaanijya-backend/internal/units"
	"github.com/rohanmehta-dev/vaanijya-backend/internal/users"
	"github.com/rohanmehta-dev/vaanijya-backend/internal/wallet"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/db/models"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/enums"
	apperrors "github.com/rohanmehta-dev/vaanijya-backend/pkg/errors"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/logger"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/metrics"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/pagination"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service orchestrates order creation and its compensation paths.
type Service interface {
	Checkout(ctx context.Context, params CheckoutParams) (*CheckoutResult, error)
	GetForUser(ctx context.Context, userID, orderID string) (*models.Order, error)
	List(ctx context.Context, userID string, page pagination.Params) ([]models.Order, int64, error)
	Cancel(ctx context.Context, userID, orderID string) (*models.Order, error)
	MarkPaymentOutcome(ctx context.Context, orderID string, success bool, failureReason string) error
}

// Deps collects the collaborating services.
type Deps struct {
	Repo     Repository
	Users    users.Repository
	Products products.Repository
	Carts    cart.Service
	Units    units.Service
	Pricer   *pricing.Engine
	Wallet   wallet.Service
	Business business.Service
	Payments payments.Service
	Runner   txRunner
	Metrics  *metrics.Checkout
	Logger   *logger.Logger
}

type service struct {
	deps Deps
}

// NewService builds the order orchestrator.
func NewService(deps Deps) Service {
	return &service{deps: deps}
}

// allocatedLine pairs a cart line with its allocation while the order is
// being assembled.
type allocatedLine struct {
	product  *models.Product
	quantity int
	alloc    *units.Allocation
}

// Checkout runs the order saga in a single transaction: allocate stock,
// price, settle payment (COD confirm, wallet debit or gateway intent),
// persist the order and retire the cart. Any failure rolls the whole attempt
// back, so no order row survives and the cart keeps its lines. A
// concurrent-write conflict during allocation is repeated once on fresh
// state.
func (s *service) Checkout(ctx context.Context, params CheckoutParams) (*CheckoutResult, error) {
	start := time.Now()

	if !params.PaymentMethod.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "unknown payment method")
	}

	var result *CheckoutResult
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		result, err = s.allocateAndPersist(ctx, params)
		if err == nil || !apperrors.HasCode(err, apperrors.CodeConcurrency) || attempt == 1 {
			break
		}
		if s.deps.Metrics != nil {
			s.deps.Metrics.AllocationRetries.Inc()
		}
		s.deps.Logger.Warn(ctx, "checkout hit concurrent stock update, retrying")
	}
	if err != nil {
		s.countFailure(err)
		return nil, err
	}

	ctx = s.deps.Logger.WithOrderID(ctx, result.Order.ID)
	if s.deps.Metrics != nil {
		s.deps.Metrics.OrdersCreated.WithLabelValues(params.PaymentMethod.String()).Inc()
		s.deps.Metrics.CheckoutDuration.Observe(time.Since(start).Seconds())
		for _, item := range result.Order.Items {
			if item.Status == enums.LineItemStatusAllocated {
				s.deps.Metrics.UnitsAllocated.Add(float64(item.Quantity))
			}
		}
	}
	s.deps.Logger.Info(ctx, "order created")
	return result, nil
}

// allocateAndPersist is the whole saga: every stock mutation, the payment
// settlement, the order row and the cart clear commit together or not at all.
func (s *service) allocateAndPersist(ctx context.Context, params CheckoutParams) (*CheckoutResult, error) {
	var result *CheckoutResult
	err := s.deps.Runner.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.deps.Users.WithTx(tx)
		productRepo := s.deps.Products.WithTx(tx)
		cartSvc := s.deps.Carts.WithTx(tx)
		unitSvc := s.deps.Units.WithTx(tx)
		orderRepo := s.deps.Repo.WithTx(tx)

		user, err := userRepo.GetByID(ctx, params.UserID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.New(apperrors.CodeNotFound, "user not found")
			}
			return err
		}

		activeCart, err := cartSvc.Get(ctx, params.UserID)
		if err != nil {
			return err
		}
		if len(activeCart.Items) == 0 {
			return apperrors.New(apperrors.CodeValidation, "cart is empty")
		}

		wholesale := false
		if user.Role.IsBusiness() {
			wholesale, err = s.deps.Business.WithTx(tx).SubscriptionActive(ctx, params.UserID, time.Now())
			if err != nil {
				return err
			}
		}

		orderID := uuid.NewString()
		var allocated []allocatedLine
		var skipped []SkippedLine

		for _, line := range activeCart.Items {
			product, err := productRepo.GetByID(ctx, line.ProductID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return apperrors.New(apperrors.CodeNotFound, "product in cart no longer exists")
				}
				return err
			}

			alloc, err := unitSvc.Allocate(ctx, units.AllocateParams{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				BuyerID:   params.UserID,
				OrderID:   orderID,
			})
			if err != nil {
				details, shortStocked := outOfStock(err)
				if shortStocked && params.AllowPartial {
					skipped = append(skipped, SkippedLine{
						ProductID:   product.ID,
						ProductName: product.Name,
						Requested:   line.Quantity,
						Available:   details.Available,
					})
					continue
				}
				return err
			}
			allocated = append(allocated, allocatedLine{product: product, quantity: line.Quantity, alloc: alloc})
		}

		if len(allocated) == 0 {
			return apperrors.New(apperrors.CodeConflict, "no cart line could be allocated")
		}

		inputs := make([]pricing.LineInput, 0, len(allocated))
		for _, line := range allocated {
			inputs = append(inputs, pricing.LineInput{Product: line.product, Quantity: line.quantity})
		}
		quote, err := s.deps.Pricer.Quote(inputs, wholesale)
		if err != nil {
			return err
		}
		if wholesale {
			if err := s.deps.Pricer.EnforceBusinessMinimum(quote); err != nil {
				return err
			}
		}

		order := &models.Order{
			ID:              orderID,
			UserID:          params.UserID,
			Status:          enums.OrderStatusPending,
			PaymentMethod:   params.PaymentMethod,
			PaymentStatus:   enums.PaymentStatusPending,
			SubtotalPaise:   quote.SubtotalPaise,
			GSTPaise:        quote.GSTPaise,
			ShippingPaise:   quote.ShippingPaise,
			TotalPaise:      quote.TotalPaise,
			ShippingAddress: params.Address.String(),
		}
		for i, line := range allocated {
			priced := quote.Lines[i]
			order.Items = append(order.Items, models.OrderItem{
				OrderID:        orderID,
				ProductID:      line.product.ID,
				ProductName:    line.product.Name,
				Quantity:       line.quantity,
				UnitPricePaise: priced.UnitPricePaise,
				GSTPercent:     priced.GSTPercent,
				GSTPaise:       priced.GSTPaise,
				ShippingPaise:  priced.ShippingPaise,
				LineTotalPaise: priced.LineTotalPaise,
				Serials:        line.alloc.Serials,
				Status:         enums.LineItemStatusAllocated,
			})
		}
		for _, skip := range skipped {
			order.Items = append(order.Items, models.OrderItem{
				OrderID:     orderID,
				ProductID:   skip.ProductID,
				ProductName: skip.ProductName,
				Quantity:    skip.Requested,
				Status:      enums.LineItemStatusSkipped,
			})
		}
		if len(skipped) > 0 {
			order.Status = enums.OrderStatusPartialAlloc
		}

		if err := orderRepo.Create(ctx, order); err != nil {
			return err
		}
		walletTxn, payment, err := s.settle(ctx, tx, orderRepo, params, order)
		if err != nil {
			return err
		}
		if err := cartSvc.MarkCheckedOut(ctx, params.UserID); err != nil {
			return err
		}

		result = &CheckoutResult{Order: order, WalletTxn: walletTxn, Payment: payment, Skipped: skipped}
		return nil
	})
	return result, err
}

// settle runs the payment branch inside the checkout transaction, so a
// declined wallet debit or an unreachable gateway rolls the whole order back.
func (s *service) settle(
	ctx context.Context,
	tx *gorm.DB,
	orderRepo Repository,
	params CheckoutParams,
	order *models.Order,
) (*models.WalletTransaction, *models.PaymentRecord, error) {
	switch {
	case params.PaymentMethod == enums.PaymentMethodCOD:
		if err := orderRepo.UpdateFields(ctx, order.ID, map[string]any{
			"status": enums.OrderStatusConfirmed.String(),
		}); err != nil {
			return nil, nil, err
		}
		order.Status = enums.OrderStatusConfirmed
		return nil, nil, nil

	case params.PaymentMethod == enums.PaymentMethodWallet:
		txn, err := s.deps.Wallet.WithTx(tx).Debit(ctx, wallet.EntryParams{
			UserID:      params.UserID,
			AmountPaise: order.TotalPaise,
			OrderID:     &order.ID,
			Description: "order payment",
		})
		if err != nil {
			return nil, nil, err
		}
		if err := orderRepo.UpdateFields(ctx, order.ID, map[string]any{
			"status":         enums.OrderStatusConfirmed.String(),
			"payment_status": enums.PaymentStatusSuccess.String(),
		}); err != nil {
			return nil, nil, err
		}
		order.Status = enums.OrderStatusConfirmed
		order.PaymentStatus = enums.PaymentStatusSuccess
		return txn, nil, nil

	default:
		record, err := s.deps.Payments.WithTx(tx).CreateIntent(ctx, payments.IntentParams{
			UserID:      params.UserID,
			OrderID:     &order.ID,
			Purpose:     enums.PaymentPurposeOrder,
			Method:      params.PaymentMethod,
			AmountPaise: order.TotalPaise,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := orderRepo.UpdateFields(ctx, order.ID, map[string]any{
			"gateway_order_id": record.GatewayOrderID,
		}); err != nil {
			return nil, nil, err
		}
		order.GatewayOrderID = record.GatewayOrderID
		return nil, record, nil
	}
}

// rollbackAllocation releases every allocated unit of the order and marks it
// failed. Errors are aggregated rather than short-circuited so one stubborn
// line cannot strand the others.
func (s *service) rollbackAllocation(ctx context.Context, order *models.Order, status enums.OrderStatus) error {
	var errs error
	released := 0
	for _, item := range order.Items {
		if item.Status != enums.LineItemStatusAllocated {
			continue
		}
		legacyQty := item.Quantity - len(item.Serials)
		if err := s.deps.Units.Release(ctx, item.ProductID, item.Serials, legacyQty); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		released += item.Quantity
	}

	errs = multierr.Append(errs, s.deps.Repo.UpdateItemStatuses(ctx, order.ID,
		enums.LineItemStatusAllocated.String(), enums.LineItemStatusReleased.String()))
	errs = multierr.Append(errs, s.deps.Repo.UpdateFields(ctx, order.ID, map[string]any{
		"status":         status.String(),
		"payment_status": enums.PaymentStatusFailed.String(),
	}))

	if s.deps.Metrics != nil {
		s.deps.Metrics.UnitsReleased.Add(float64(released))
	}
	if errs != nil {
		s.deps.Logger.Error(ctx, "order rollback incomplete", errs)
	}
	return errs
}

func (s *service) GetForUser(ctx context.Context, userID, orderID string) (*models.Order, error) {
	order, err := s.deps.Repo.GetForUser(ctx, userID, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.New(apperrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return order, nil
}

func (s *service) List(ctx context.Context, userID string, page pagination.Params) ([]models.Order, int64, error) {
	total, err := s.deps.Repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	items, err := s.deps.Repo.ListByUser(ctx, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Cancel returns the order's units to the pool and refunds wallet payments.
func (s *service) Cancel(ctx context.Context, userID, orderID string) (*models.Order, error) {
	order, err := s.GetForUser(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.IsCancellable() {
		return nil, apperrors.New(apperrors.CodeStateConflict, "order can no longer be cancelled")
	}

	var errs error
	for _, item := range order.Items {
		if item.Status != enums.LineItemStatusAllocated {
			continue
		}
		legacyQty := item.Quantity - len(item.Serials)
		errs = multierr.Append(errs, s.deps.Units.Release(ctx, item.ProductID, item.Serials, legacyQty))
	}
	if errs != nil {
		return nil, errs
	}

	fields := map[string]any{"status": enums.OrderStatusCancelled.String()}
	if order.PaymentMethod == enums.PaymentMethodWallet && order.PaymentStatus == enums.PaymentStatusSuccess {
		if _, err := s.deps.Wallet.Credit(ctx, wallet.EntryParams{
			UserID:      userID,
			AmountPaise: order.TotalPaise,
			OrderID:     &order.ID,
			Description: "order cancelled, amount refunded",
		}); err != nil {
			return nil, err
		}
		fields["payment_status"] = enums.PaymentStatusRefunded.String()
	}

	if err := s.deps.Repo.UpdateItemStatuses(ctx, order.ID,
		enums.LineItemStatusAllocated.String(), enums.LineItemStatusReleased.String()); err != nil {
		return nil, err
	}
	if err := s.deps.Repo.UpdateFields(ctx, order.ID, fields); err != nil {
		return nil, err
	}

	return s.GetForUser(ctx, userID, orderID)
}

// MarkPaymentOutcome is the payments service callback. Repeat deliveries of
// an outcome the order already reflects are no-ops.
func (s *service) MarkPaymentOutcome(ctx context.Context, orderID string, success bool, failureReason string) error {
	order, err := s.deps.Repo.GetByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperrors.New(apperrors.CodeNotFound, "order not found")
		}
		return err
	}

	if success {
		if order.PaymentStatus == enums.PaymentStatusSuccess {
			return nil
		}
		if order.Status == enums.OrderStatusCancelled {
			return apperrors.New(apperrors.CodeStateConflict, "payment succeeded for a cancelled order")
		}
		return s.deps.Repo.UpdateFields(ctx, orderID, map[string]any{
			"status":         enums.OrderStatusConfirmed.String(),
			"payment_status": enums.PaymentStatusSuccess.String(),
		})
	}

	if order.PaymentStatus == enums.PaymentStatusFailed || order.Status == enums.OrderStatusCancelled {
		return nil
	}
	s.deps.Logger.Warn(ctx, "payment failed, releasing order allocation: "+failureReason)
	return s.rollbackAllocation(ctx, order, enums.OrderStatusPaymentFailed)
}

func (s *service) countFailure(err error) {
	if s.deps.Metrics == nil {
		return
	}
	reason := "internal"
	if typed := apperrors.As(err); typed != nil {
		reason = string(typed.Code())
	}
	s.deps.Metrics.OrdersFailed.WithLabelValues(reason).Inc()
}

// outOfStock extracts the availability details from an allocation failure.
func outOfStock(err error) (units.OutOfStockDetails, bool) {
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeConflict {
		return units.OutOfStockDetails{}, false
	}
	details, ok := typed.Details().(units.OutOfStockDetails)
	return details, ok
}
