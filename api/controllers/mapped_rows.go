package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quotehub/quotehub-backend/api/responses"
	"github.com/quotehub/quotehub-backend/api/validators"
	"github.com/quotehub/quotehub-backend/internal/mappedrows"
	"github.com/quotehub/quotehub-backend/internal/quotes"
	"github.com/quotehub/quotehub-backend/pkg/db/models"
	pkgerrors "github.com/quotehub/quotehub-backend/pkg/errors"
	"github.com/quotehub/quotehub-backend/pkg/logger"
	"github.com/quotehub/quotehub-backend/pkg/pagination"
)

type mappedRowDTO struct {
	ID             uuid.UUID  `json:"id"`
	QuoteVersionID uuid.UUID  `json:"quote_version_id"`
	ProductNo      *string    `json:"product_no,omitempty"`
	ServiceSKU     *string    `json:"service_sku,omitempty"`
	Description    *string    `json:"description,omitempty"`
	SerialNo       *string    `json:"serial_no,omitempty"`
	DateFrom       *time.Time `json:"date_from,omitempty"`
	DateTo         *time.Time `json:"date_to,omitempty"`

	Qty           int             `json:"qty"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"original_price"`

	IsSelected bool `json:"is_selected"`
	IsOnePay   bool `json:"is_one_pay"`
}

func toMappedRowDTO(row models.MappedRow) mappedRowDTO {
	return mappedRowDTO{
		ID:             row.ID,
		QuoteVersionID: row.QuoteVersionID,
		ProductNo:      row.ProductNo,
		ServiceSKU:     row.ServiceSKU,
		Description:    row.Description,
		SerialNo:       row.SerialNo,
		DateFrom:       row.DateFrom,
		DateTo:         row.DateTo,
		Qty:            row.Qty,
		Price:          row.Price,
		OriginalPrice:  row.OriginalPrice,
		IsSelected:     row.IsSelected,
		IsOnePay:       row.IsOnePay,
	}
}

// MappedRowsList pages through one version's typed row projection.
func MappedRowsList(svc mappedrows.Service, quotesSvc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mapped rows service unavailable"))
			return
		}

		versionID, err := validators.ParsePathUUID(chi.URLParam(r, "versionId"), "versionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		window := pagination.NewWindow(offset, limit)

		version, err := quotesSvc.FindVersion(r.Context(), versionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if version == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "quote version not found"))
			return
		}

		rows, err := svc.ListByVersion(r.Context(), version.ID, window.Offset, window.Limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]mappedRowDTO, 0, len(rows))
		for _, row := range rows {
			out = append(out, toMappedRowDTO(row))
		}

		responses.WriteSuccess(w, struct {
			Rows   []mappedRowDTO `json:"rows"`
			Offset int            `json:"offset"`
			Limit  int            `json:"limit"`
		}{Rows: out, Offset: window.Offset, Limit: window.Limit})
	}
}
