package request

import (
	"context"

	"github.com/grindlemire/graft"

	"go.trai.ch/unify/internal/core/ports"
)

const NodeID graft.ID = "adapter.request_loader"

func init() {
	graft.Register(graft.Node[ports.RequestLoader]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.RequestLoader, error) {
			return NewLoader(), nil
		},
	})
}
