package groups

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quotehub/quotehub-backend/internal/quotes"
	"github.com/quotehub/quotehub-backend/pkg/db/types"
	"github.com/quotehub/quotehub-backend/pkg/enums"
	"github.com/quotehub/quotehub-backend/pkg/errors"
	"github.com/quotehub/quotehub-backend/pkg/lock"
	"github.com/quotehub/quotehub-backend/pkg/logger"
	"github.com/quotehub/quotehub-backend/pkg/outbox"
	"github.com/quotehub/quotehub-backend/pkg/outbox/payloads"
)

// GroupInput carries the caller-supplied fields of a row group.
type GroupInput struct {
	Name       string
	SearchText string
	RowIDs     []uuid.UUID
}

// Selection toggles one group's is_selected flag.
type Selection struct {
	GroupID    uuid.UUID
	IsSelected bool
}

// Service manages the group_description document of a quote version. Every
// mutation resolves the actor's writable version (forking when the actor is
// not the quote's creator), serializes on the per-version lock, rewrites the
// whole document in one transaction and leaves an audit event behind.
type Service interface {
	Create(ctx context.Context, quoteID, actorID uuid.UUID, input GroupInput) (*types.RowsGroup, error)
	Update(ctx context.Context, quoteID, actorID, groupID uuid.UUID, input GroupInput) (*types.RowsGroup, error)
	Find(ctx context.Context, quoteID, groupID uuid.UUID) (*types.RowsGroup, error)
	List(ctx context.Context, quoteID uuid.UUID) (types.RowsGroups, error)
	Select(ctx context.Context, quoteID, actorID uuid.UUID, selections []Selection) error
	MoveRows(ctx context.Context, quoteID, actorID, sourceID, destinationID uuid.UUID, rowIDs []uuid.UUID) error
	Delete(ctx context.Context, quoteID, actorID, groupID uuid.UUID) error
}

type service struct {
	db     *gorm.DB
	quotes quotes.Service
	repo   *quotes.Repository
	locks  *lock.Provider
	events *outbox.Service
	logg   *logger.Logger
}

func NewService(db *gorm.DB, quotesSvc quotes.Service, repo *quotes.Repository, locks *lock.Provider, events *outbox.Service, logg *logger.Logger) (Service, error) {
	if db == nil {
		return nil, errors.New(errors.CodeDependency, "db is required")
	}
	if quotesSvc == nil {
		return nil, errors.New(errors.CodeDependency, "quotes service is required")
	}
	if repo == nil {
		return nil, errors.New(errors.CodeDependency, "quotes repository is required")
	}
	if locks == nil {
		return nil, errors.New(errors.CodeDependency, "lock provider is required")
	}
	return &service{db: db, quotes: quotesSvc, repo: repo, locks: locks, events: events, logg: logg}, nil
}

// mutation rewrites the group document. It returns the new document, the new
// sort value, and the id the audit event should reference.
type mutation func(w *quotes.WritableVersion, groups types.RowsGroups) (types.RowsGroups, *string, uuid.UUID, error)

func (s *service) Create(ctx context.Context, quoteID, actorID uuid.UUID, input GroupInput) (*types.RowsGroup, error) {
	if input.Name == "" {
		return nil, errors.New(errors.CodeValidation, "group name is required")
	}

	var created types.RowsGroup
	err := s.mutate(ctx, quoteID, actorID, "create", func(w *quotes.WritableVersion, groups types.RowsGroups) (types.RowsGroups, *string, uuid.UUID, error) {
		created = types.RowsGroup{
			ID:         uuid.New(),
			Name:       input.Name,
			SearchText: input.SearchText,
			RowIDs:     translateAll(w, input.RowIDs),
		}
		next := append(groups, created)
		return next, currentSort(w), created.ID, nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *service) Update(ctx context.Context, quoteID, actorID, groupID uuid.UUID, input GroupInput) (*types.RowsGroup, error) {
	var updated types.RowsGroup
	err := s.mutate(ctx, quoteID, actorID, "update", func(w *quotes.WritableVersion, groups types.RowsGroups) (types.RowsGroups, *string, uuid.UUID, error) {
		idx := groups.FindByID(groupID)
		if idx < 0 {
			return nil, nil, uuid.Nil, groupNotFound(groupID)
		}
		group := groups[idx]
		if input.Name != "" {
			group.Name = input.Name
		}
		group.SearchText = input.SearchText
		if input.RowIDs != nil {
			group.RowIDs = translateAll(w, input.RowIDs)
		}
		groups[idx] = group
		updated = group
		return groups, currentSort(w), groupID, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *service) Find(ctx context.Context, quoteID, groupID uuid.UUID) (*types.RowsGroup, error) {
	groups, err := s.List(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	idx := groups.FindByID(groupID)
	if idx < 0 {
		return nil, groupNotFound(groupID)
	}
	group := groups[idx]
	return &group, nil
}

func (s *service) List(ctx context.Context, quoteID uuid.UUID) (types.RowsGroups, error) {
	quote, err := s.quotes.FindQuote(ctx, quoteID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading quote")
	}
	if quote == nil {
		return nil, errors.New(errors.CodeNotFound, "quote not found")
	}
	version, err := s.quotes.ActiveVersion(ctx, quote)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading active version")
	}
	if version == nil {
		return nil, errors.New(errors.CodeNotFound, "quote has no active version")
	}
	return version.GroupDescription, nil
}

func (s *service) Select(ctx context.Context, quoteID, actorID uuid.UUID, selections []Selection) error {
	if len(selections) == 0 {
		return errors.New(errors.CodeValidation, "at least one selection is required")
	}
	return s.mutate(ctx, quoteID, actorID, "select", func(w *quotes.WritableVersion, groups types.RowsGroups) (types.RowsGroups, *string, uuid.UUID, error) {
		for _, sel := range selections {
			idx := groups.FindByID(sel.GroupID)
			if idx < 0 {
				return nil, nil, uuid.Nil, groupNotFound(sel.GroupID)
			}
			groups[idx].IsSelected = sel.IsSelected
		}
		return groups, currentSort(w), uuid.Nil, nil
	})
}

func (s *service) MoveRows(ctx context.Context, quoteID, actorID, sourceID, destinationID uuid.UUID, rowIDs []uuid.UUID) error {
	if len(rowIDs) == 0 {
		return errors.New(errors.CodeValidation, "row ids are required")
	}
	return s.mutate(ctx, quoteID, actorID, "move", func(w *quotes.WritableVersion, groups types.RowsGroups) (types.RowsGroups, *string, uuid.UUID, error) {
		srcIdx := groups.FindByID(sourceID)
		dstIdx := groups.FindByID(destinationID)
		if srcIdx < 0 {
			return nil, nil, uuid.Nil, groupNotFound(sourceID)
		}
		if dstIdx < 0 {
			return nil, nil, uuid.Nil, groupNotFound(destinationID)
		}

		moving := map[uuid.UUID]struct{}{}
		for _, id := range translateAll(w, rowIDs) {
			moving[id] = struct{}{}
		}

		kept := make([]uuid.UUID, 0, len(groups[srcIdx].RowIDs))
		var spliced []uuid.UUID
		for _, id := range groups[srcIdx].RowIDs {
			if _, ok := moving[id]; ok {
				spliced = append(spliced, id)
				continue
			}
			kept = append(kept, id)
		}
		groups[srcIdx].RowIDs = kept
		groups[dstIdx].RowIDs = append(groups[dstIdx].RowIDs, spliced...)
		return groups, currentSort(w), sourceID, nil
	})
}

func (s *service) Delete(ctx context.Context, quoteID, actorID, groupID uuid.UUID) error {
	return s.mutate(ctx, quoteID, actorID, "delete", func(w *quotes.WritableVersion, groups types.RowsGroups) (types.RowsGroups, *string, uuid.UUID, error) {
		idx := groups.FindByID(groupID)
		if idx < 0 {
			return nil, nil, uuid.Nil, groupNotFound(groupID)
		}
		next := append(groups[:idx:idx], groups[idx+1:]...)
		if len(next) == 0 {
			// Distinguish "grouped then emptied" from "never grouped".
			return nil, nil, groupID, nil
		}
		return next, currentSort(w), groupID, nil
	})
}

// mutate runs the shared template: fork-or-reuse the writable version, take
// the version lock, rewrite the whole document transactionally, audit.
func (s *service) mutate(ctx context.Context, quoteID, actorID uuid.UUID, action string, fn mutation) error {
	quote, err := s.quotes.FindQuote(ctx, quoteID)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "loading quote")
	}
	if quote == nil {
		return errors.New(errors.CodeNotFound, "quote not found")
	}

	var writable *quotes.WritableVersion
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		writable, txErr = s.quotes.ResolveWritableVersion(ctx, tx, quote, actorID)
		return txErr
	})
	if err != nil {
		return err
	}

	return s.locks.WithLock(ctx, lock.UpdateQuoteKey(writable.Version.ID), func(ctx context.Context) error {
		// Re-read under the lock; another writer may have won the race
		// between fork resolution and acquisition.
		version, err := s.quotes.FindVersion(ctx, writable.Version.ID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "reloading version")
		}
		if version == nil {
			return errors.New(errors.CodeNotFound, "quote version not found")
		}
		writable.Version = version

		before := snapshot(version.GroupDescription)
		next, sort, subjectID, err := fn(writable, version.GroupDescription)
		if err != nil {
			return err
		}

		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.repo.WithTx(tx).UpdateGroupDescription(ctx, version.ID, next, sort); err != nil {
				return errors.Wrap(errors.CodeInternal, err, "persisting group description")
			}
			if s.events != nil {
				event := outbox.DomainEvent{
					EventType:     enums.EventGroupDescriptionChanged,
					AggregateType: enums.AggregateQuote,
					AggregateID:   quote.ID,
					Actor:         &outbox.ActorRef{UserID: actorID},
					Data: payloads.GroupDescriptionChangedEvent{
						QuoteID:        quote.ID,
						QuoteVersionID: version.ID,
						GroupID:        subjectLabel(subjectID),
						Action:         action,
						Before:         before,
						After:          snapshot(next),
					},
				}
				if err := s.events.Emit(ctx, tx, event); err != nil {
					return errors.Wrap(errors.CodeInternal, err, "emitting group audit event")
				}
			}
			return nil
		})
	})
}

func currentSort(w *quotes.WritableVersion) *string {
	if w == nil || w.Version == nil {
		return nil
	}
	return w.Version.SortGroupDescription
}

func translateAll(w *quotes.WritableVersion, ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return nil
	}
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		out = append(out, w.TranslateRowID(id))
	}
	return out
}

func snapshot(groups types.RowsGroups) []payloads.GroupSnapshot {
	out := make([]payloads.GroupSnapshot, 0, len(groups))
	for _, group := range groups {
		out = append(out, payloads.GroupSnapshot{Name: group.Name, RowCount: len(group.RowIDs)})
	}
	return out
}

func subjectLabel(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}

func groupNotFound(id uuid.UUID) error {
	return errors.New(errors.CodeGroupNotFound, fmt.Sprintf("group %s not found", id))
}
