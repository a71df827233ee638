package ports

import (
	"context"

	"go.trai.ch/unify/internal/core/domain"
)

// Emitter serializes a plan document to its destination. Implementations must
// refuse to overwrite a document written by a newer tool version.
//
//go:generate mockgen -source=emitter.go -destination=mocks/mock_emitter.go -package=mocks
type Emitter interface {
	Emit(ctx context.Context, doc *domain.PlanDocument, path string) error
}
