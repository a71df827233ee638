package app

import (
	"context"

	"github.com/grindlemire/graft"

	"go.trai.ch/unify/internal/adapters/emit"     //nolint:depguard // Wired in app layer
	"go.trai.ch/unify/internal/adapters/lockfile" //nolint:depguard // Wired in app layer
	"go.trai.ch/unify/internal/adapters/logger"   //nolint:depguard // Wired in app layer
	"go.trai.ch/unify/internal/adapters/request"  //nolint:depguard // Wired in app layer
	"go.trai.ch/unify/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			lockfile.NodeID,
			request.NodeID,
			emit.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			lock, err := graft.Dep[ports.LockLoader](ctx)
			if err != nil {
				return nil, err
			}
			reqLoader, err := graft.Dep[ports.RequestLoader](ctx)
			if err != nil {
				return nil, err
			}
			emitter, err := graft.Dep[ports.Emitter](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(lock, reqLoader, emitter, log), nil
		},
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			application, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: application, Logger: log}, nil
		},
	})
}
