// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/unify/internal/adapters/emit"
	_ "go.trai.ch/unify/internal/adapters/lockfile"
	_ "go.trai.ch/unify/internal/adapters/logger"
	_ "go.trai.ch/unify/internal/adapters/request"
	// Register app nodes.
	_ "go.trai.ch/unify/internal/app"
)
