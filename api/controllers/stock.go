package controllers

import (
	"fmt"
	"net/http"

	"github.com/angelmondragon/inventory-backend/api/middleware"
	"github.com/angelmondragon/inventory-backend/api/responses"
	"github.com/angelmondragon/inventory-backend/api/validators"
	"github.com/angelmondragon/inventory-backend/internal/stock"
	pkgerrors "github.com/angelmondragon/inventory-backend/pkg/errors"
	"github.com/angelmondragon/inventory-backend/pkg/logger"
)

const maxReasonLength = 200

type stockUpdateRequest struct {
	TransactionType string `json:"transaction_type" validate:"required"`
	Quantity        int    `json:"quantity"`
	Reason          string `json:"reason,omitempty"`
}

func decodeStockUpdate(r *http.Request) (stock.SubmitInput, error) {
	id, err := validators.ParseUUIDParam(r, "itemId", "item")
	if err != nil {
		return stock.SubmitInput{}, err
	}
	var body stockUpdateRequest
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		return stock.SubmitInput{}, err
	}
	return stock.SubmitInput{
		ItemID:   id,
		Type:     body.TransactionType,
		Quantity: body.Quantity,
		Reason:   validators.SanitizeString(body.Reason, maxReasonLength),
	}, nil
}

// SubmitStock applies one stock movement entered on the stock form.
func SubmitStock(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		input, err := decodeStockUpdate(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Submit(r.Context(), middleware.ActorFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type legacyStockResponse struct {
	Success     bool   `json:"success"`
	NewQuantity int    `json:"new_quantity"`
	Message     string `json:"message"`
}

// LegacyStockUpdate is the AJAX variant of SubmitStock with the flat
// success/error body older dashboards expect.
func LegacyStockUpdate(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteLegacyError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		input, err := decodeStockUpdate(r)
		if err != nil {
			responses.WriteLegacyError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Submit(r.Context(), middleware.ActorFromContext(r.Context()), input)
		if err != nil {
			responses.WriteLegacyError(r.Context(), logg, w, err)
			return
		}
		responses.WriteLegacy(w, http.StatusOK, legacyStockResponse{
			Success:     true,
			NewQuantity: result.NewQuantity,
			Message:     fmt.Sprintf("Stock updated successfully. New quantity: %d", result.NewQuantity),
		})
	}
}
