package quotes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quotehub/quotehub-backend/pkg/db/models"
	"github.com/quotehub/quotehub-backend/pkg/db/types"
	"github.com/quotehub/quotehub-backend/pkg/enums"
	"github.com/quotehub/quotehub-backend/pkg/errors"
	"github.com/quotehub/quotehub-backend/pkg/logger"
	"github.com/quotehub/quotehub-backend/pkg/outbox"
	"github.com/quotehub/quotehub-backend/pkg/outbox/payloads"
)

// WritableVersion is the result of resolving which version an actor may edit.
// When the actor is not the quote's creator a fresh fork is created and
// RowIDMap translates the source version's mapped row ids to the fork's.
type WritableVersion struct {
	Version  *models.QuoteVersion
	Forked   bool
	RowIDMap map[uuid.UUID]uuid.UUID
}

// TranslateRowID maps a row id through the fork lineage. IDs unknown to the
// map (including all ids when no fork happened) pass through unchanged.
func (w *WritableVersion) TranslateRowID(id uuid.UUID) uuid.UUID {
	if w == nil || !w.Forked {
		return id
	}
	if mapped, ok := w.RowIDMap[id]; ok {
		return mapped
	}
	return id
}

// Service resolves quotes, versions and copy-on-write forks.
type Service interface {
	FindQuote(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	FindVersion(ctx context.Context, id uuid.UUID) (*models.QuoteVersion, error)
	ActiveVersion(ctx context.Context, quote *models.Quote) (*models.QuoteVersion, error)
	ResolveWritableVersion(ctx context.Context, tx *gorm.DB, quote *models.Quote, actorID uuid.UUID) (*WritableVersion, error)
}

type service struct {
	repo   *Repository
	events *outbox.Service
	logg   *logger.Logger
}

func NewService(repo *Repository, events *outbox.Service, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New(errors.CodeDependency, "quotes repository is required")
	}
	return &service{repo: repo, events: events, logg: logg}, nil
}

func (s *service) FindQuote(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	return s.repo.FindQuote(ctx, id)
}

func (s *service) FindVersion(ctx context.Context, id uuid.UUID) (*models.QuoteVersion, error) {
	return s.repo.FindVersion(ctx, id)
}

func (s *service) ActiveVersion(ctx context.Context, quote *models.Quote) (*models.QuoteVersion, error) {
	return s.repo.ActiveVersion(ctx, quote)
}

// ResolveWritableVersion returns the version the actor may mutate. The
// quote's creator edits the active version in place; anyone else gets a
// copy-on-write fork with replicated mapped rows, translated group row ids
// and the quote's active pointer moved to the fork. Runs inside the caller's
// transaction so a failed fork leaves nothing behind.
func (s *service) ResolveWritableVersion(ctx context.Context, tx *gorm.DB, quote *models.Quote, actorID uuid.UUID) (*WritableVersion, error) {
	if quote == nil {
		return nil, errors.New(errors.CodeValidation, "quote is required")
	}
	repo := s.repo.WithTx(tx)

	source, err := repo.ActiveVersion(ctx, quote)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading active version")
	}
	if source == nil {
		return nil, errors.New(errors.CodeNotFound, "quote has no active version")
	}

	if quote.UserID == actorID {
		return &WritableVersion{Version: source}, nil
	}

	fork := &models.QuoteVersion{
		ID:                   uuid.New(),
		QuoteID:              quote.ID,
		UserID:               actorID,
		VersionNumber:        source.VersionNumber + 1,
		SortGroupDescription: source.SortGroupDescription,
		PriceListFileID:      source.PriceListFileID,
		ScheduleFileID:       source.ScheduleFileID,
	}
	if err := repo.CreateVersion(ctx, fork); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "creating forked version")
	}

	translation, err := repo.ReplicateMappedRows(ctx, source.ID, fork.ID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "replicating mapped rows")
	}

	// Carry the groups over with row ids rewritten to the replicas.
	if source.GroupDescription != nil {
		translated := translateGroups(source.GroupDescription, translation)
		fork.GroupDescription = translated
		if err := repo.UpdateGroupDescription(ctx, fork.ID, translated, source.SortGroupDescription); err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err, "copying group description")
		}
	}

	if err := repo.SetActiveVersion(ctx, quote.ID, fork.ID); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "activating forked version")
	}

	if s.events != nil && tx != nil {
		event := outbox.DomainEvent{
			EventType:     enums.EventQuoteVersionForked,
			AggregateType: enums.AggregateQuote,
			AggregateID:   quote.ID,
			Actor:         &outbox.ActorRef{UserID: actorID},
			Data: payloads.QuoteVersionForkedEvent{
				QuoteID:         quote.ID,
				SourceVersionID: source.ID,
				NewVersionID:    fork.ID,
				UserID:          actorID,
				VersionNumber:   fork.VersionNumber,
			},
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err, "emitting fork event")
		}
	}

	if s.logg != nil {
		fields := map[string]any{
			"quote_id":       quote.ID.String(),
			"source_version": source.ID.String(),
			"new_version":    fork.ID.String(),
		}
		s.logg.Info(s.logg.WithFields(ctx, fields), "quote version forked")
	}

	return &WritableVersion{Version: fork, Forked: true, RowIDMap: translation}, nil
}

func translateGroups(groups types.RowsGroups, translation map[uuid.UUID]uuid.UUID) types.RowsGroups {
	if groups == nil {
		return nil
	}
	out := make(types.RowsGroups, 0, len(groups))
	for _, group := range groups {
		copied := group
		copied.RowIDs = make([]uuid.UUID, 0, len(group.RowIDs))
		for _, id := range group.RowIDs {
			if mapped, ok := translation[id]; ok {
				copied.RowIDs = append(copied.RowIDs, mapped)
				continue
			}
			copied.RowIDs = append(copied.RowIDs, id)
		}
		out = append(out, copied)
	}
	return out
}
