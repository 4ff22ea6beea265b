package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/inventory-backend/api/middleware"
	"github.com/angelmondragon/inventory-backend/api/responses"
	"github.com/angelmondragon/inventory-backend/api/validators"
	"github.com/angelmondragon/inventory-backend/internal/items"
	"github.com/angelmondragon/inventory-backend/internal/ledger"
	pkgerrors "github.com/angelmondragon/inventory-backend/pkg/errors"
	"github.com/angelmondragon/inventory-backend/pkg/logger"
	"github.com/angelmondragon/inventory-backend/pkg/types"
)

const maxSearchLength = 200

type createItemRequest struct {
	Name         string           `json:"name" validate:"required"`
	Quantity     *int             `json:"quantity" validate:"required"`
	Price        *decimal.Decimal `json:"price" validate:"required"`
	ReorderLevel *int             `json:"reorder_level,omitempty"`
	Category     string           `json:"category,omitempty"`
	Supplier     *string          `json:"supplier,omitempty"`
}

func (r createItemRequest) toInput() items.CreateInput {
	return items.CreateInput{
		Name:         r.Name,
		Quantity:     *r.Quantity,
		Price:        *r.Price,
		ReorderLevel: r.ReorderLevel,
		Category:     r.Category,
		Supplier:     r.Supplier,
	}
}

// updateItemRequest accepts quantity only to reject it; stock moves through
// the stock endpoints.
type updateItemRequest struct {
	Quantity     *int                   `json:"quantity,omitempty"`
	Name         *string                `json:"name,omitempty"`
	Price        *decimal.Decimal       `json:"price,omitempty"`
	ReorderLevel *int                   `json:"reorder_level,omitempty"`
	Category     *string                `json:"category,omitempty"`
	Supplier     types.Nullable[string] `json:"supplier"`
}

func (r updateItemRequest) toInput() items.UpdateInput {
	return items.UpdateInput{
		Name:         r.Name,
		Price:        r.Price,
		ReorderLevel: r.ReorderLevel,
		Category:     r.Category,
		Supplier:     r.Supplier,
	}
}

// ListItems returns a page of items, optionally filtered by a name,
// category or supplier search.
func ListItems(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query := validators.SanitizeString(r.URL.Query().Get("q"), maxSearchLength)

		page, err := svc.List(r.Context(), items.ListParams{Query: query, Params: params})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func CreateItem(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		var body createItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Create(r.Context(), middleware.ActorFromContext(r.Context()), body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// GetItem returns the item with its latest movements and open alerts.
func GetItem(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "itemId", "item")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func UpdateItem(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "itemId", "item")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.Quantity != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Validation("quantity cannot be edited", map[string]string{"quantity": "use the stock endpoint to change quantity"}))
			return
		}

		item, err := svc.Update(r.Context(), middleware.ActorFromContext(r.Context()), id, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// DeleteItem removes the item together with its ledger entries and alerts.
func DeleteItem(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "itemId", "item")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), middleware.ActorFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ItemTransactions pages through the ledger of one item, newest first.
func ItemTransactions(itemSvc items.Service, ledgerSvc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if itemSvc == nil || ledgerSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "itemId", "item")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := itemSvc.Get(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := ledgerSvc.History(r.Context(), id, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
