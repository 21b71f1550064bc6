package docprocess

import (
	"context"
	"fmt"
	"strings"

	"github.com/quotehub/quotehub-backend/pkg/db/models"
	"github.com/quotehub/quotehub-backend/pkg/enums"
	"github.com/quotehub/quotehub-backend/pkg/errors"
)

// Processor parses one quote file and persists its extracted data. Each
// (file type, format) combination resolves to its own implementation.
type Processor interface {
	Process(ctx context.Context, file *models.QuoteFile) error
}

// Registry dispatches quote files to processors keyed by
// {fileType}_{normalizedFormat}.
type Registry struct {
	processors map[string]Processor
}

func NewRegistry() *Registry {
	return &Registry{processors: map[string]Processor{}}
}

// Key builds the registry lookup key for a type/format combination.
func Key(fileType enums.QuoteFileType, format enums.FileFormat) string {
	return fmt.Sprintf("%s_%s", fileType, strings.ToLower(format.String()))
}

// Register binds a processor to a type/format combination, replacing any
// previous binding.
func (r *Registry) Register(fileType enums.QuoteFileType, format enums.FileFormat, p Processor) {
	r.processors[Key(fileType, format)] = p
}

// Resolve returns the processor for the file's type/format combination.
func (r *Registry) Resolve(file *models.QuoteFile) (Processor, error) {
	key := Key(file.FileType, file.Format)
	p, ok := r.processors[key]
	if !ok {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("no processor registered for %s", key))
	}
	return p, nil
}
