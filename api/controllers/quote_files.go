package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quotehub/quotehub-backend/api/middleware"
	"github.com/quotehub/quotehub-backend/api/responses"
	"github.com/quotehub/quotehub-backend/api/validators"
	"github.com/quotehub/quotehub-backend/internal/comparison"
	"github.com/quotehub/quotehub-backend/internal/docprocess"
	"github.com/quotehub/quotehub-backend/internal/ingest"
	"github.com/quotehub/quotehub-backend/internal/quotes"
	"github.com/quotehub/quotehub-backend/pkg/db/models"
	pkgerrors "github.com/quotehub/quotehub-backend/pkg/errors"
	"github.com/quotehub/quotehub-backend/pkg/logger"
	"github.com/quotehub/quotehub-backend/pkg/pagination"
)

type quoteFileDTO struct {
	ID               uuid.UUID  `json:"id"`
	QuoteID          uuid.UUID  `json:"quote_id"`
	FileType         string     `json:"file_type"`
	Format           string     `json:"format"`
	OriginalFileName string     `json:"original_file_name"`
	ImportedPage     int        `json:"imported_page"`
	Separator        *string    `json:"data_select_separator,omitempty"`
	State            string     `json:"state"`
	HandledAt        *time.Time `json:"handled_at,omitempty"`
	AutomappedAt     *time.Time `json:"automapped_at,omitempty"`
	ExceptionCode    *string    `json:"exception_code,omitempty"`
	ExceptionMessage *string    `json:"exception_message,omitempty"`
}

func toQuoteFileDTO(f *models.QuoteFile) quoteFileDTO {
	return quoteFileDTO{
		ID:               f.ID,
		QuoteID:          f.QuoteID,
		FileType:         string(f.FileType),
		Format:           string(f.Format),
		OriginalFileName: f.OriginalFileName,
		ImportedPage:     f.ImportedPage,
		Separator:        f.DataSelectSeparator,
		State:            string(f.State),
		HandledAt:        f.HandledAt,
		AutomappedAt:     f.AutomappedAt,
		ExceptionCode:    f.ExceptionCode,
		ExceptionMessage: f.ExceptionMessage,
	}
}

type importedRowDTO struct {
	ID       uuid.UUID         `json:"id"`
	Page     int               `json:"page"`
	IsOnePay bool              `json:"is_one_pay"`
	Columns  map[string]string `json:"columns"`
}

func actorFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return id, nil
}

type processFileRequest struct {
	Page      *int    `json:"page,omitempty" validate:"omitempty,min=1"`
	Separator *string `json:"separator,omitempty" validate:"omitempty,min=1"`
}

// QuoteFileProcess kicks off (or re-runs) document processing for one file.
func QuoteFileProcess(svc docprocess.Service, quotesSvc quotes.Service, files *docprocess.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "processing service unavailable"))
			return
		}

		if _, err := actorFromRequest(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quoteID, err := validators.ParsePathUUID(chi.URLParam(r, "quoteId"), "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		fileID, err := validators.ParsePathUUID(chi.URLParam(r, "fileId"), "fileId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload processFileRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		quote, err := quotesSvc.FindQuote(r.Context(), quoteID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if quote == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found"))
			return
		}

		file, err := files.FindFile(r.Context(), fileID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if file == nil || file.QuoteID != quote.ID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "quote file not found"))
			return
		}

		if err := svc.PerformProcess(r.Context(), quote, file, docprocess.Options{
			Page:      payload.Page,
			Separator: payload.Separator,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := files.FindFile(r.Context(), fileID)
		if err != nil || updated == nil {
			responses.WriteSuccess(w, toQuoteFileDTO(file))
			return
		}
		responses.WriteSuccess(w, toQuoteFileDTO(updated))
	}
}

// QuoteFileRows pages through the raw imported rows of a handled file.
func QuoteFileRows(files *docprocess.Repository, imported *ingest.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if files == nil || imported == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rows repository unavailable"))
			return
		}

		fileID, err := validators.ParsePathUUID(chi.URLParam(r, "fileId"), "fileId")
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

		file, err := files.FindFile(r.Context(), fileID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if file == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "quote file not found"))
			return
		}

		rows, err := imported.FindPage(r.Context(), file.ID, file.ImportedPage, window.Offset, window.Limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		total, err := imported.CountFrom(r.Context(), file.ID, file.ImportedPage)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]importedRowDTO, 0, len(rows))
		for _, row := range rows {
			columns := make(map[string]string, len(row.ColumnsData))
			for _, cell := range row.ColumnsData {
				if cell.Value != nil {
					columns[cell.Header] = *cell.Value
				}
			}
			out = append(out, importedRowDTO{
				ID:       row.ID,
				Page:     row.Page,
				IsOnePay: row.IsOnePay,
				Columns:  columns,
			})
		}

		responses.WriteSuccess(w, struct {
			Rows   []importedRowDTO `json:"rows"`
			Total  int64            `json:"total"`
			Offset int              `json:"offset"`
			Limit  int              `json:"limit"`
		}{Rows: out, Total: total, Offset: window.Offset, Limit: window.Limit})
	}
}

// QuoteFileCompare diffs two handled price lists by row key and column set.
func QuoteFileCompare(svc comparison.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "comparison service unavailable"))
			return
		}

		baseID, err := validators.ParsePathUUID(chi.URLParam(r, "fileId"), "fileId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		targetID, err := validators.ParsePathUUID(chi.URLParam(r, "otherId"), "otherId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Compare(r.Context(), baseID, targetID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
