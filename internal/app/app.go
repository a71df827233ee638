// Package app implements the application layer for unify.
package app

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"

	"go.trai.ch/unify/internal/build"
	"go.trai.ch/unify/internal/core/domain"
	"go.trai.ch/unify/internal/core/ports"
	"go.trai.ch/unify/internal/engine/features"
	"go.trai.ch/unify/internal/engine/synth"
)

// App represents the main application logic.
type App struct {
	lockLoader    ports.LockLoader
	requestLoader ports.RequestLoader
	emitter       ports.Emitter
	logger        ports.Logger
}

// New creates a new App instance.
func New(lock ports.LockLoader, req ports.RequestLoader, emit ports.Emitter, log ports.Logger) *App {
	return &App{
		lockLoader:    lock,
		requestLoader: req,
		emitter:       emit,
		logger:        log,
	}
}

// PlanOptions carries the command line overrides applied on top of the
// request file.
type PlanOptions struct {
	// Output is the plan destination path; empty means stdout.
	Output string

	// Targets overrides the request's target list when non-empty.
	Targets []string

	// Dev includes dev dependencies on every root.
	Dev bool
}

// Plan loads the request, ingests the lockfile once, resolves every requested
// target and emits the combined plan document. Any failure discards the whole
// document; a partial plan is never written.
func (a *App) Plan(ctx context.Context, requestPath string, opts PlanOptions) error {
	req, err := a.requestLoader.Load(ctx, requestPath)
	if err != nil {
		return err
	}
	if len(opts.Targets) > 0 {
		req.Targets = opts.Targets
	}
	if opts.Dev {
		for i := range req.Roots {
			req.Roots[i].Dev = true
		}
	}
	if err := req.Validate(); err != nil {
		return err
	}

	var manifests []string
	if req.Manifests != "" {
		manifests = []string{req.Manifests}
	}
	set, err := a.lockLoader.Load(ctx, req.Lockfile, manifests)
	if err != nil {
		return zerr.Wrap(err, "failed to ingest lockfile")
	}

	roots, err := lookupRoots(set, req.Roots)
	if err != nil {
		return err
	}

	plans, err := a.resolveAll(ctx, set, req, roots)
	if err != nil {
		return err
	}
	a.logger.Info(fmt.Sprintf("resolved %d plans for %d roots", len(plans), len(roots)))

	doc := &domain.PlanDocument{
		Version: build.Version,
		Plans:   plans,
	}
	return a.emitter.Emit(ctx, doc, opts.Output)
}

// resolveAll resolves one plan per target. Targets are independent: the
// package set and roots are immutable inputs, each goroutine writes only its
// own slot.
func (a *App) resolveAll(ctx context.Context, set *domain.PackageSet, req *domain.Request, roots []features.Root) ([]domain.Plan, error) {
	triples := slices.Clone(req.Targets)
	slices.Sort(triples)
	triples = slices.Compact(triples)

	var buildPlatform *domain.TargetPlatform
	if req.BuildTarget != "" {
		p, err := domain.PlatformForTriple(req.BuildTarget)
		if err != nil {
			return nil, err
		}
		buildPlatform = &p
	}

	plans := make([]domain.Plan, len(triples))
	g, ctx := errgroup.WithContext(ctx)
	for i, triple := range triples {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			target, err := domain.PlatformForTriple(triple)
			if err != nil {
				return err
			}
			// Without an explicit build machine the build is native.
			bp := target
			if buildPlatform != nil {
				bp = *buildPlatform
			}

			res, err := features.New(set, bp, target).Resolve(roots)
			if err != nil {
				return zerr.With(err, "target", triple)
			}
			plan, err := synth.New(set).Build(res)
			if err != nil {
				return zerr.With(err, "target", triple)
			}
			plans[i] = *plan
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return plans, nil
}

// lookupRoots binds each requested root to a concrete package record. A name
// carried by several lockfile versions needs an explicit version; a version
// carried by several sources cannot be disambiguated at all.
func lookupRoots(set *domain.PackageSet, reqs []domain.RootRequest) ([]features.Root, error) {
	roots := make([]features.Root, 0, len(reqs))
	for _, rr := range reqs {
		candidates := set.ByName(rr.Name)
		if rr.Version != "" {
			candidates = slices.DeleteFunc(slices.Clone(candidates), func(r *domain.PackageRecord) bool {
				return r.ID.Version.String() != rr.Version
			})
		}

		switch len(candidates) {
		case 0:
			return nil, zerr.With(
				zerr.With(domain.ErrPackageNotFound, "root", rr.Name),
				"version", rr.Version,
			)
		case 1:
			roots = append(roots, features.Root{
				Rec:             candidates[0],
				Features:        rr.Features,
				DefaultFeatures: rr.DefaultFeatures,
				Dev:             rr.Dev,
			})
		default:
			sentinel := domain.ErrAmbiguousDependency
			if sameVersion(candidates) {
				sentinel = domain.ErrInconsistentSource
			}
			keys := make([]string, len(candidates))
			for i, c := range candidates {
				keys[i] = c.ID.Key()
			}
			return nil, zerr.With(
				zerr.With(sentinel, "root", rr.Name),
				"candidates", strings.Join(keys, ", "),
			)
		}
	}
	return roots, nil
}

func sameVersion(recs []*domain.PackageRecord) bool {
	for _, r := range recs[1:] {
		if !r.ID.Version.Equal(recs[0].ID.Version) {
			return false
		}
	}
	return true
}
