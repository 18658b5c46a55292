package pricing

import (
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/config"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/db/models"
	apperrors "github.com/rohanmehta-dev/vaanijya-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// LineInput pairs a product with the requested quantity.
type LineInput struct {
	Product  *models.Product
	Quantity int
}

// Line is the priced form of one input line. All amounts are integer paise;
// GST is rounded per line, not on the grand total.
type Line struct {
	ProductID      string `json:"product_id"`
	Quantity       int    `json:"quantity"`
	UnitPricePaise int64  `json:"unit_price_paise"`
	GSTPercent     int    `json:"gst_percent"`
	GSTPaise       int64  `json:"gst_paise"`
	ShippingPaise  int64  `json:"shipping_paise"`
	LineTotalPaise int64  `json:"line_total_paise"`
}

// Quote is a fully priced set of lines with totals.
type Quote struct {
	Lines         []Line `json:"lines"`
	SubtotalPaise int64  `json:"subtotal_paise"`
	GSTPaise      int64  `json:"gst_paise"`
	ShippingPaise int64  `json:"shipping_paise"`
	TotalPaise    int64  `json:"total_paise"`
}

// BelowMinimumDetails is attached when a wholesale order is under the floor.
type BelowMinimumDetails struct {
	TotalPaise   int64 `json:"total_paise"`
	MinimumPaise int64 `json:"minimum_paise"`
}

// Engine prices order lines. It is pure computation over product snapshots,
// so callers can run it inside or outside a transaction.
type Engine struct {
	cfg config.CheckoutConfig
}

// NewEngine builds a pricing engine.
func NewEngine(cfg config.CheckoutConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Quote prices the lines for the given buyer tier. Business pricing applies
// only when the caller has already verified the subscription is active.
func (e *Engine) Quote(inputs []LineInput, business bool) (*Quote, error) {
	if len(inputs) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "no lines to price")
	}

	quote := &Quote{Lines: make([]Line, 0, len(inputs))}
	for _, input := range inputs {
		if input.Product == nil {
			return nil, apperrors.New(apperrors.CodeInternal, "pricing input missing product")
		}
		if input.Quantity <= 0 {
			return nil, apperrors.New(apperrors.CodeValidation, "quantity must be positive")
		}

		unitPrice := input.Product.EffectivePriceFor(business)
		base := unitPrice * int64(input.Quantity)
		gst := gstFor(base, input.Product.GSTPercent)
		// Shipping is a per-piece charge, not a flat per-line fee.
		shipping := input.Product.ShippingChargePaise * int64(input.Quantity)

		line := Line{
			ProductID:      input.Product.ID,
			Quantity:       input.Quantity,
			UnitPricePaise: unitPrice,
			GSTPercent:     input.Product.GSTPercent,
			GSTPaise:       gst,
			ShippingPaise:  shipping,
			LineTotalPaise: base + gst + shipping,
		}
		quote.Lines = append(quote.Lines, line)

		quote.SubtotalPaise += base
		quote.GSTPaise += gst
		quote.ShippingPaise += shipping
		quote.TotalPaise += line.LineTotalPaise
	}

	return quote, nil
}

// EnforceBusinessMinimum rejects wholesale orders under the configured floor.
// The floor is measured against the grand total, GST and shipping included.
func (e *Engine) EnforceBusinessMinimum(quote *Quote) error {
	if quote.TotalPaise >= e.cfg.B2BMinOrderPaise {
		return nil
	}
	return apperrors.New(apperrors.CodeConflict, "order below wholesale minimum").
		WithDetails(BelowMinimumDetails{
			TotalPaise:   quote.TotalPaise,
			MinimumPaise: e.cfg.B2BMinOrderPaise,
		})
}

// gstFor computes GST on a paise amount, rounding half away from zero so
// 0.5 paise goes to the exchequer rather than the buyer.
func gstFor(basePaise int64, percent int) int64 {
	if percent <= 0 || basePaise <= 0 {
		return 0
	}
	return decimal.NewFromInt(basePaise).
		Mul(decimal.NewFromInt(int64(percent))).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}
