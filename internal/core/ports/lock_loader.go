package ports

import (
	"context"

	"go.trai.ch/unify/internal/core/domain"
)

// LockLoader ingests a lockfile and its manifest fragments into a
// cross-referenced package set.
//
//go:generate mockgen -source=lock_loader.go -destination=mocks/mock_lock_loader.go -package=mocks
type LockLoader interface {
	Load(ctx context.Context, lockPath string, manifestPaths []string) (*domain.PackageSet, error)
}
