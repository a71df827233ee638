package emit

import (
	"context"

	"github.com/grindlemire/graft"

	"go.trai.ch/unify/internal/adapters/logger"
	"go.trai.ch/unify/internal/core/ports"
)

const NodeID graft.ID = "adapter.emitter"

func init() {
	graft.Register(graft.Node[ports.Emitter]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.Emitter, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewEmitter(log), nil
		},
	})
}
