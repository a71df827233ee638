// Package features computes, per package instance and target, the transitive
// closure of activated features and live dependency edges. The algorithm is a
// worklist fixed point: feature requests propagate bidirectionally through
// shared dependencies, so a single traversal cannot settle them.
package features

import (
	"slices"
	"strings"

	"go.trai.ch/zerr"

	"go.trai.ch/unify/internal/core/domain"
)

// UnitRef identifies one package instance within a resolution: a package id
// key plus the side of the build it is compiled for.
type UnitRef struct {
	Pkg   string
	Scope domain.UnitScope
}

// ResolvedEdge is one live dependency edge of a package instance.
type ResolvedEdge struct {
	To        UnitRef
	Kind      domain.DepKind
	Alias     string
	RawTarget string
}

// Result is the frozen outcome of one resolution run for one target platform.
type Result struct {
	// Target is the platform this resolution ran against.
	Target domain.TargetPlatform

	// Features maps package id keys to their unified feature sets. A feature,
	// once active for an instance, stays active for every consumer of it.
	Features map[string]domain.FeatureSet

	// Active marks the reachable package instances per scope.
	Active map[UnitRef]bool

	// Edges holds the live dependency edges per instance.
	Edges map[UnitRef][]ResolvedEdge

	// RequiredBy maps package id keys to the root request names that
	// activated them.
	RequiredBy map[string][]string
}

// Root is a root request bound to a concrete package record.
type Root struct {
	Rec             *domain.PackageRecord
	Features        []string
	DefaultFeatures bool
	Dev             bool
}

// Resolver runs the fixed-point feature computation. It reads the package set
// only; a resolver per target platform may run in parallel with others.
type Resolver struct {
	set    *domain.PackageSet
	build  domain.TargetPlatform
	target domain.TargetPlatform
}

// New creates a Resolver for one (build platform, target platform) pair.
func New(set *domain.PackageSet, build, target domain.TargetPlatform) *Resolver {
	return &Resolver{set: set, build: build, target: target}
}

type itemKind int

const (
	enablePackage itemKind = iota
	enableFeature
)

type workItem struct {
	kind    itemKind
	rec     *domain.PackageRecord
	scope   domain.UnitScope
	feature string
	dev     bool
	root    string
}

type state struct {
	r           *Resolver
	queue       []workItem
	features    map[string]domain.FeatureSet
	activeScope map[UnitRef]bool
	featSeen    map[UnitRef]map[string]bool
	edges       map[UnitRef]map[string]ResolvedEdge
	requiredBy  map[string]map[string]bool
}

// Resolve computes the fixed point for the given roots. The queue drains in
// finitely many steps: the set of (package, scope, feature) triples is finite
// and each is expanded at most once.
func (r *Resolver) Resolve(roots []Root) (*Result, error) {
	st := &state{
		r:           r,
		features:    make(map[string]domain.FeatureSet),
		activeScope: make(map[UnitRef]bool),
		featSeen:    make(map[UnitRef]map[string]bool),
		edges:       make(map[UnitRef]map[string]ResolvedEdge),
		requiredBy:  make(map[string]map[string]bool),
	}

	// Feature requests go in ahead of the package enablement so that edges
	// gated on a root feature see it active when the package's deps are walked.
	for _, root := range roots {
		if root.DefaultFeatures {
			st.push(workItem{
				kind:    enableFeature,
				rec:     root.Rec,
				scope:   domain.ScopeTarget,
				feature: "default",
				root:    root.Rec.ID.Name.String(),
			})
		}
		for _, f := range root.Features {
			st.push(workItem{
				kind:    enableFeature,
				rec:     root.Rec,
				scope:   domain.ScopeTarget,
				feature: f,
				root:    root.Rec.ID.Name.String(),
			})
		}
		st.push(workItem{
			kind:  enablePackage,
			rec:   root.Rec,
			scope: domain.ScopeTarget,
			dev:   root.Dev,
			root:  root.Rec.ID.Name.String(),
		})
	}

	for len(st.queue) > 0 {
		item := st.queue[0]
		st.queue = st.queue[1:]

		var err error
		switch item.kind {
		case enablePackage:
			err = st.enablePkg(item)
		case enableFeature:
			err = st.enableFeat(item)
		}
		if err != nil {
			return nil, err
		}
	}

	return st.freeze(), nil
}

func (st *state) push(item workItem) {
	st.queue = append(st.queue, item)
}

// platformFor returns the platform predicates are evaluated against for a
// scope: host-side code sees the build machine, everything else the target.
func (st *state) platformFor(scope domain.UnitScope) domain.TargetPlatform {
	if scope == domain.ScopeHost {
		return st.r.build
	}
	return st.r.target
}

// depScope returns the scope a dependency edge lands in. Build dependencies
// and proc-macro packages always compile for the build machine.
func (st *state) depScope(consumer domain.UnitScope, kind domain.DepKind, dep *domain.PackageRecord) domain.UnitScope {
	if kind == domain.DepBuild || dep.Manifest.ProcMacro {
		return consumer.ShiftToHost()
	}
	return consumer
}

// enablePkg marks a package instance reachable and walks its non-optional
// dependency edges. Optional edges stay dark until a feature activates them.
func (st *state) enablePkg(item workItem) error {
	ref := UnitRef{Pkg: item.rec.ID.Key(), Scope: item.scope}
	st.markRequired(item.rec, item.root)

	if st.activeScope[ref] {
		return nil
	}
	st.activeScope[ref] = true

	// A package entering a new scope replays its already-active features
	// there, so that feature-activated optional edges exist on this side too.
	for f := range st.features[ref.Pkg] {
		st.push(workItem{
			kind: enableFeature, rec: item.rec, scope: item.scope,
			feature: f, root: item.root,
		})
	}

	for i := range item.rec.Deps {
		dep := &item.rec.Deps[i]
		if dep.Optional {
			continue
		}
		if dep.Kind == domain.DepDev && !item.dev {
			continue
		}
		if !st.edgeApplies(item.rec, dep, item.scope) {
			continue
		}
		if err := st.followEdge(item.rec, dep, item.scope, item.root); err != nil {
			return err
		}
	}
	return nil
}

// edgeApplies evaluates the edge's platform predicate for the consumer's
// scope. Feature predicates see the consumer's features active at evaluation
// time; growth is monotonic, so an edge admitted once stays admitted.
func (st *state) edgeApplies(consumer *domain.PackageRecord, dep *domain.Dependency, scope domain.UnitScope) bool {
	if dep.Target == nil {
		return true
	}
	active := st.features[consumer.ID.Key()]
	return dep.Target.Matches(st.platformFor(scope), active.Has)
}

// followEdge records a live edge and propagates the requested features into
// the dependency.
func (st *state) followEdge(consumer *domain.PackageRecord, dep *domain.Dependency, scope domain.UnitScope, root string) error {
	depRec, ok := st.r.set.Get(dep.Pkg.Key())
	if !ok {
		// Ingestion binds every edge; a miss here is a defect, not bad input.
		return zerr.With(domain.ErrDanglingDependency, "package", dep.Pkg.Key())
	}

	target := st.depScope(scope, dep.Kind, depRec)
	from := UnitRef{Pkg: consumer.ID.Key(), Scope: scope}
	to := UnitRef{Pkg: depRec.ID.Key(), Scope: target}

	st.recordEdge(from, ResolvedEdge{
		To:        to,
		Kind:      dep.Kind,
		Alias:     dep.Rename,
		RawTarget: dep.RawTarget,
	})

	if dep.DefaultFeatures {
		st.push(workItem{
			kind: enableFeature, rec: depRec, scope: target,
			feature: "default", root: root,
		})
	}
	for _, f := range dep.Features {
		st.push(workItem{
			kind: enableFeature, rec: depRec, scope: target,
			feature: f, root: root,
		})
	}
	st.push(workItem{kind: enablePackage, rec: depRec, scope: target, root: root})
	return nil
}

func (st *state) recordEdge(from UnitRef, edge ResolvedEdge) {
	ident := string(edge.Kind) + "\x00" + edge.To.Pkg + "\x00" + string(edge.To.Scope) + "\x00" + edge.Alias
	if st.edges[from] == nil {
		st.edges[from] = make(map[string]ResolvedEdge)
	}
	st.edges[from][ident] = edge
}

func (st *state) markRequired(rec *domain.PackageRecord, root string) {
	if root == "" {
		return
	}
	key := rec.ID.Key()
	if st.requiredBy[key] == nil {
		st.requiredBy[key] = make(map[string]bool)
	}
	st.requiredBy[key][root] = true
}

// enableFeat is one step of the fixed point: activate a single feature on a
// single package instance, then expand its implications. Already-seen pairs
// are skipped, which is what makes cyclic implication chains terminate.
func (st *state) enableFeat(item workItem) error {
	ref := UnitRef{Pkg: item.rec.ID.Key(), Scope: item.scope}
	if st.featSeen[ref] == nil {
		st.featSeen[ref] = make(map[string]bool)
	}
	if st.featSeen[ref][item.feature] {
		return nil
	}
	st.featSeen[ref][item.feature] = true

	depName, depFeature, isDepForm := strings.Cut(item.feature, "/")
	declared := !isDepForm && item.rec.HasFeature(item.feature)
	if !isDepForm && !declared {
		// A bare feature name equal to an optional dependency's toml name
		// activates that dependency.
		if item.rec.OptionalDep(item.feature) != nil {
			isDepForm = true
			depName, depFeature = item.feature, ""
		}
	}

	switch {
	case declared:
		st.addFeature(ref.Pkg, item.feature)
		for _, implied := range item.rec.Manifest.Features[item.feature] {
			st.push(workItem{
				kind: enableFeature, rec: item.rec, scope: item.scope,
				feature: implied, root: item.root,
			})
		}
		return nil

	case isDepForm:
		return st.activateDep(item, depName, depFeature)

	case item.feature == "default":
		// A package without a declared default feature has the empty default.
		return nil

	default:
		return zerr.With(
			zerr.With(domain.ErrUnknownFeature, "package", ref.Pkg),
			"feature", item.feature,
		)
	}
}

func (st *state) addFeature(pkgKey, feature string) {
	if st.features[pkgKey] == nil {
		st.features[pkgKey] = domain.NewFeatureSet()
	}
	st.features[pkgKey].Add(feature)
}

// activateDep handles the "dep" and "dep/feature" implication forms: the named
// dependency edge goes live (no longer optional for this resolution) and the
// indicated feature, if any, is requested on the dependency's own instance.
func (st *state) activateDep(item workItem, depName, depFeature string) error {
	ref := UnitRef{Pkg: item.rec.ID.Key(), Scope: item.scope}

	// The activating name joins the consumer's own feature set up front,
	// mirroring the implicit feature an optional dependency exposes; predicate
	// evaluation below already sees it.
	st.addFeature(ref.Pkg, depName)

	matched := false
	for i := range item.rec.Deps {
		dep := &item.rec.Deps[i]
		if dep.TomlName() != depName || dep.Kind == domain.DepDev {
			continue
		}
		matched = true
		if !st.edgeApplies(item.rec, dep, item.scope) {
			continue
		}

		depRec, ok := st.r.set.Get(dep.Pkg.Key())
		if !ok {
			return zerr.With(domain.ErrDanglingDependency, "package", dep.Pkg.Key())
		}
		target := st.depScope(item.scope, dep.Kind, depRec)

		st.recordEdge(ref, ResolvedEdge{
			To:        UnitRef{Pkg: depRec.ID.Key(), Scope: target},
			Kind:      dep.Kind,
			Alias:     dep.Rename,
			RawTarget: dep.RawTarget,
		})
		if dep.DefaultFeatures {
			st.push(workItem{
				kind: enableFeature, rec: depRec, scope: target,
				feature: "default", root: item.root,
			})
		}
		for _, f := range dep.Features {
			st.push(workItem{
				kind: enableFeature, rec: depRec, scope: target,
				feature: f, root: item.root,
			})
		}
		if depFeature != "" {
			st.push(workItem{
				kind: enableFeature, rec: depRec, scope: target,
				feature: depFeature, root: item.root,
			})
		}
		st.push(workItem{kind: enablePackage, rec: depRec, scope: target, root: item.root})
	}

	if !matched {
		return zerr.With(
			zerr.With(domain.ErrUnknownFeature, "package", ref.Pkg),
			"feature", item.feature,
		)
	}

	return nil
}

func (st *state) freeze() *Result {
	res := &Result{
		Target:     st.r.target,
		Features:   st.features,
		Active:     st.activeScope,
		Edges:      make(map[UnitRef][]ResolvedEdge, len(st.edges)),
		RequiredBy: make(map[string][]string, len(st.requiredBy)),
	}
	for from, byIdent := range st.edges {
		idents := make([]string, 0, len(byIdent))
		for ident := range byIdent {
			idents = append(idents, ident)
		}
		slices.Sort(idents)
		out := make([]ResolvedEdge, 0, len(idents))
		for _, ident := range idents {
			out = append(out, byIdent[ident])
		}
		res.Edges[from] = out
	}
	for pkg, roots := range st.requiredBy {
		names := make([]string, 0, len(roots))
		for name := range roots {
			names = append(names, name)
		}
		slices.Sort(names)
		res.RequiredBy[pkg] = names
	}
	return res
}
