// Package store holds the pipeline's narrow persistence contracts:
// read-only prompt templates, the append-only operation log, and the
// deduplicated error log.
package store

import (
	"context"
	"time"

	"github.com/brightpath/onboard/internal/model"
)

// TemplateStore serves operator-managed prompt templates.
type TemplateStore interface {
	// FindActiveTemplate returns the active, highest-version template for
	// the family, or nil when none exists.
	FindActiveTemplate(ctx context.Context, family model.Family) (*model.PromptTemplate, error)
	SaveTemplate(ctx context.Context, tpl model.PromptTemplate) (*model.PromptTemplate, error)
	ListTemplates(ctx context.Context, family model.Family) ([]model.PromptTemplate, error)
}

// OperationLog is the append-only model-invocation log.
type OperationLog interface {
	AppendOperations(ctx context.Context, ops []model.OperationRecord) error
	SummarizeOperations(ctx context.Context, since time.Time) (*model.OperationSummary, error)
}

// ErrorLog deduplicates recurring errors by exact message while open.
type ErrorLog interface {
	// FindOpenError returns the open (unresolved) event with this exact
	// message, or nil.
	FindOpenError(ctx context.Context, message string) (*model.ErrorEvent, error)
	IncrementError(ctx context.Context, id string) error
	CreateError(ctx context.Context, message string) (*model.ErrorEvent, error)
	ResolveError(ctx context.Context, id string) error
	ListErrors(ctx context.Context, includeResolved bool, limit int) ([]model.ErrorEvent, error)
}

// Store combines the persistence surfaces behind one backend.
type Store interface {
	TemplateStore
	OperationLog
	ErrorLog

	Migrate(ctx context.Context) error
	Close() error
}
