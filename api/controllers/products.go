package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rohanmehta-dev/vaanijya-backend/api/responses"
	"github.com/rohanmehta-dev/vaanijya-backend/api/validators"
	"github.com/rohanmehta-dev/vaanijya-backend/internal/products"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/logger"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/pagination"
)

type createProductRequest struct {
	Name                string `json:"name" validate:"required,max=255"`
	Description         string `json:"description"`
	Category            string `json:"category" validate:"max=128"`
	PricePaise          int64  `json:"price_paise" validate:"required,min=1"`
	SellingPricePaise   int64  `json:"selling_price_paise" validate:"min=0"`
	B2BPricePaise       int64  `json:"b2b_price_paise" validate:"min=0"`
	GSTPercent          int    `json:"gst_percent" validate:"min=0,max=28"`
	ShippingChargePaise int64  `json:"shipping_charge_paise" validate:"min=0"`
	Stock               int    `json:"stock" validate:"min=0"`
}

type updateProductRequest struct {
	Name                *string `json:"name,omitempty" validate:"omitempty,max=255"`
	Description         *string `json:"description,omitempty"`
	Category            *string `json:"category,omitempty" validate:"omitempty,max=128"`
	PricePaise          *int64  `json:"price_paise,omitempty" validate:"omitempty,min=1"`
	SellingPricePaise   *int64  `json:"selling_price_paise,omitempty" validate:"omitempty,min=0"`
	B2BPricePaise       *int64  `json:"b2b_price_paise,omitempty" validate:"omitempty,min=0"`
	GSTPercent          *int    `json:"gst_percent,omitempty" validate:"omitempty,min=0,max=28"`
	ShippingChargePaise *int64  `json:"shipping_charge_paise,omitempty" validate:"omitempty,min=0"`
	Stock               *int    `json:"stock,omitempty" validate:"omitempty,min=0"`
}

// ProductList is the public catalog listing.
func ProductList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inStockOnly, err := validators.ParseQueryBool(r, "in_stock")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter := products.ListFilter{
			Category:    r.URL.Query().Get("category"),
			Search:      r.URL.Query().Get("q"),
			InStockOnly: inStockOnly,
		}
		page := pagination.FromRequest(r)

		items, total, err := svc.List(r.Context(), filter, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"products":   items,
			"pagination": pagination.NewMeta(page, total),
		})
	}
}

func ProductDetail(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		product, err := svc.GetByID(r.Context(), chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductAvailability reports the unit-level stock picture for a product.
func ProductAvailability(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		avail, err := svc.Availability(r.Context(), chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, avail)
	}
}

func AdminProductCreate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), products.CreateParams{
			Name:                payload.Name,
			Description:         payload.Description,
			Category:            payload.Category,
			PricePaise:          payload.PricePaise,
			SellingPricePaise:   payload.SellingPricePaise,
			B2BPricePaise:       payload.B2BPricePaise,
			GSTPercent:          payload.GSTPercent,
			ShippingChargePaise: payload.ShippingChargePaise,
			Stock:               payload.Stock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func AdminProductUpdate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), chi.URLParam(r, "productId"), products.UpdateParams{
			Name:                payload.Name,
			Description:         payload.Description,
			Category:            payload.Category,
			PricePaise:          payload.PricePaise,
			SellingPricePaise:   payload.SellingPricePaise,
			B2BPricePaise:       payload.B2BPricePaise,
			GSTPercent:          payload.GSTPercent,
			ShippingChargePaise: payload.ShippingChargePaise,
			Stock:               payload.Stock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminProductDelete(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "productId")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
