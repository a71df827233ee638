package ports

import (
	"context"

	"go.trai.ch/unify/internal/core/domain"
)

// RequestLoader reads a plan request file from disk.
//
//go:generate mockgen -source=request_loader.go -destination=mocks/mock_request_loader.go -package=mocks
type RequestLoader interface {
	Load(ctx context.Context, path string) (*domain.Request, error)
}
