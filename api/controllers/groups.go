package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quotehub/quotehub-backend/api/responses"
	"github.com/quotehub/quotehub-backend/api/validators"
	"github.com/quotehub/quotehub-backend/internal/groups"
	pkgerrors "github.com/quotehub/quotehub-backend/pkg/errors"
	"github.com/quotehub/quotehub-backend/pkg/logger"
)

type groupRequest struct {
	Name       string      `json:"name" validate:"required,min=1"`
	SearchText string      `json:"search_text,omitempty"`
	RowIDs     []uuid.UUID `json:"rows_ids,omitempty"`
}

func (g groupRequest) toInput() groups.GroupInput {
	return groups.GroupInput{
		Name:       strings.TrimSpace(g.Name),
		SearchText: g.SearchText,
		RowIDs:     g.RowIDs,
	}
}

// GroupCreate appends a named row group to the actor's writable version.
func GroupCreate(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "groups service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quoteID, err := validators.ParsePathUUID(chi.URLParam(r, "quoteId"), "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload groupRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		group, err := svc.Create(r.Context(), quoteID, actor, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, group)
	}
}

type groupUpdateRequest struct {
	Name       *string      `json:"name,omitempty" validate:"omitempty,min=1"`
	SearchText *string      `json:"search_text,omitempty"`
	RowIDs     *[]uuid.UUID `json:"rows_ids,omitempty"`
}

// GroupUpdate renames a group or rewrites its row id list. Omitted fields
// keep their stored values.
func GroupUpdate(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "groups service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quoteID, err := validators.ParsePathUUID(chi.URLParam(r, "quoteId"), "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		groupID, err := validators.ParsePathUUID(chi.URLParam(r, "groupId"), "groupId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload groupUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		current, err := svc.Find(r.Context(), quoteID, groupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := groups.GroupInput{
			Name:       current.Name,
			SearchText: current.SearchText,
			RowIDs:     current.RowIDs,
		}
		if payload.Name != nil {
			input.Name = strings.TrimSpace(*payload.Name)
		}
		if payload.SearchText != nil {
			input.SearchText = *payload.SearchText
		}
		if payload.RowIDs != nil {
			input.RowIDs = *payload.RowIDs
		}

		group, err := svc.Update(r.Context(), quoteID, actor, groupID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, group)
	}
}

// GroupFind returns one group of the quote's active version.
func GroupFind(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "groups service unavailable"))
			return
		}

		quoteID, err := validators.ParsePathUUID(chi.URLParam(r, "quoteId"), "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		groupID, err := validators.ParsePathUUID(chi.URLParam(r, "groupId"), "groupId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		group, err := svc.Find(r.Context(), quoteID, groupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, group)
	}
}

// GroupList returns the whole group document of the quote's active version.
func GroupList(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "groups service unavailable"))
			return
		}

		quoteID, err := validators.ParsePathUUID(chi.URLParam(r, "quoteId"), "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), quoteID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

type groupSelectionRequest struct {
	Selections []struct {
		GroupID    uuid.UUID `json:"group_id" validate:"required"`
		IsSelected bool      `json:"is_selected"`
	} `json:"selections" validate:"required,min=1,dive"`
}

// GroupSelect toggles is_selected flags for several groups at once.
func GroupSelect(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "groups service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quoteID, err := validators.ParsePathUUID(chi.URLParam(r, "quoteId"), "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload groupSelectionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		selections := make([]groups.Selection, 0, len(payload.Selections))
		for _, sel := range payload.Selections {
			selections = append(selections, groups.Selection{
				GroupID:    sel.GroupID,
				IsSelected: sel.IsSelected,
			})
		}

		if err := svc.Select(r.Context(), quoteID, actor, selections); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

type groupMoveRowsRequest struct {
	SourceID      uuid.UUID   `json:"source_id" validate:"required"`
	DestinationID uuid.UUID   `json:"destination_id" validate:"required"`
	RowIDs        []uuid.UUID `json:"rows_ids" validate:"required,min=1"`
}

// GroupMoveRows splices row ids from one group into another.
func GroupMoveRows(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "groups service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quoteID, err := validators.ParsePathUUID(chi.URLParam(r, "quoteId"), "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload groupMoveRowsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.MoveRows(r.Context(), quoteID, actor, payload.SourceID, payload.DestinationID, payload.RowIDs); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

// GroupDelete removes one group; deleting the last group clears the
// version's group document entirely.
func GroupDelete(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "groups service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quoteID, err := validators.ParsePathUUID(chi.URLParam(r, "quoteId"), "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		groupID, err := validators.ParsePathUUID(chi.URLParam(r, "groupId"), "groupId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), quoteID, actor, groupID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}
