package columns

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	dbpkg "github.com/quotehub/quotehub-backend/pkg/db"
	"github.com/quotehub/quotehub-backend/pkg/db/models"
	"github.com/quotehub/quotehub-backend/pkg/errors"
)

const aliasUniqueConstraint = "ux_importable_column_aliases_alias"

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Resolver maps raw header text to durable column identities, creating temp
// columns on first sight of an unknown header.
type Resolver struct {
	repo *Repository
}

func NewResolver(repo *Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Normalize produces the canonical alias form of a header.
func Normalize(header string) string {
	return strings.ToLower(strings.TrimSpace(header))
}

// Slugify converts a header into a column name slug.
func Slugify(header string) string {
	slug := slugRe.ReplaceAllString(Normalize(header), "_")
	return strings.Trim(slug, "_")
}

// Resolve returns the column id for the given header within the provided
// transaction. Columns already claimed for the current page are passed in
// allocated and never returned again; the caller records the returned id in
// that set. An unknown header creates a temp column, and a concurrent create
// of the same alias is resolved by retrying the lookup against the winner's
// row.
func (r *Resolver) Resolve(ctx context.Context, tx *gorm.DB, header string, allocated map[uuid.UUID]struct{}) (uuid.UUID, error) {
	alias := Normalize(header)
	if alias == "" {
		return uuid.Nil, errors.New(errors.CodeValidation, "column header is required")
	}

	repo := r.repo.WithTx(tx)
	excluded := allocatedIDs(allocated)

	column, err := repo.FindByAlias(ctx, alias, excluded)
	if err != nil {
		return uuid.Nil, errors.Wrap(errors.CodeInternal, err, "resolving column alias")
	}
	if column != nil {
		return column.ID, nil
	}

	created, err := r.createWithRetry(ctx, repo, header, alias, excluded)
	if err != nil {
		return uuid.Nil, err
	}
	return created.ID, nil
}

func (r *Resolver) createWithRetry(ctx context.Context, repo *Repository, header, alias string, excluded []uuid.UUID) (*models.ImportableColumn, error) {
	var column *models.ImportableColumn
	attempt := 0

	backoff := retry.WithMaxRetries(4, retry.NewConstant(10*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		created, createErr := repo.CreateTemp(ctx, strings.TrimSpace(header), Slugify(header), suffixedAlias(alias, attempt))
		if createErr == nil {
			column = created
			return nil
		}
		if !dbpkg.IsUniqueViolation(createErr, aliasUniqueConstraint) {
			return createErr
		}

		// Another writer inserted the alias first; adopt their column.
		existing, findErr := repo.FindByAlias(ctx, suffixedAlias(alias, attempt), excluded)
		if findErr != nil {
			return findErr
		}
		if existing != nil {
			column = existing
			return nil
		}

		// The alias owner is excluded by this page's allocation set (a
		// duplicate header within one page). Retry with a suffixed alias so
		// the duplicate gets its own column.
		return retry.RetryableError(createErr)
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "creating temp column")
	}
	return column, nil
}

func suffixedAlias(alias string, attempt int) string {
	if attempt <= 1 {
		return alias
	}
	return fmt.Sprintf("%s %d", alias, attempt)
}

func allocatedIDs(allocated map[uuid.UUID]struct{}) []uuid.UUID {
	if len(allocated) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(allocated))
	for id := range allocated {
		ids = append(ids, id)
	}
	return ids
}
