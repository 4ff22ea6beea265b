package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/inventory-backend/api/responses"
	"github.com/angelmondragon/inventory-backend/api/validators"
	"github.com/angelmondragon/inventory-backend/internal/reports"
	"github.com/angelmondragon/inventory-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/inventory-backend/pkg/errors"
	"github.com/angelmondragon/inventory-backend/pkg/logger"
)

const maxFilterLength = 100

func Analytics(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
			return
		}

		data, err := svc.Analytics(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, data)
	}
}

// Report builds the report selected by ?type= with optional category,
// supplier and created-at filters.
func Report(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
			return
		}

		query := r.URL.Query()
		reportType, err := enums.ParseReportType(strings.TrimSpace(query.Get("type")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Validation("unknown report type", map[string]string{"type": "unknown report type"}))
			return
		}

		from, err := validators.ParseQueryDate(r, "date_from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryDate(r, "date_to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if to != nil {
			// date_to is inclusive of the whole day.
			end := to.AddDate(0, 0, 1)
			to = &end
		}

		report, err := svc.Report(r.Context(), reportType, reports.Filter{
			Category: validators.SanitizeString(query.Get("category"), maxFilterLength),
			Supplier: validators.SanitizeString(query.Get("supplier"), maxFilterLength),
			From:     from,
			To:       to,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

type legacyDashboardResponse struct {
	Success bool                   `json:"success"`
	Data    *reports.DashboardData `json:"data"`
}

// LegacyDashboardData serves the headline numbers polled by the dashboard.
func LegacyDashboardData(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteLegacyError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
			return
		}

		data, err := svc.Dashboard(r.Context())
		if err != nil {
			responses.WriteLegacyError(r.Context(), logg, w, err)
			return
		}
		responses.WriteLegacy(w, http.StatusOK, legacyDashboardResponse{Success: true, Data: data})
	}
}
