// Package synth materializes resolved feature sets into a deduplicated build
// unit graph, checks it for structural errors and freezes a deterministic
// emission order.
package synth

import (
	"slices"
	"strings"

	"go.trai.ch/zerr"

	"go.trai.ch/unify/internal/core/domain"
	"go.trai.ch/unify/internal/engine/features"
)

// Synthesizer turns one resolution result into a plan for its target.
type Synthesizer struct {
	set *domain.PackageSet
}

// New creates a Synthesizer over the ingested package set.
func New(set *domain.PackageSet) *Synthesizer {
	return &Synthesizer{set: set}
}

// graph is the materialized unit graph before freezing. Edges are grouped by
// consumer key; deps is the normal/build skeleton used for ordering, dev edges
// deliberately excluded.
type graph struct {
	units map[string]*domain.BuildUnit
	recs  map[string]*domain.PackageRecord
	edges map[string][]domain.Edge
	deps  map[string][]string
}

// Build deduplicates package instances into build units, binds their edges and
// returns the plan in topological order, dependencies before dependents.
// A cycle among normal or build edges is fatal; dev edges may legally point
// back into the graph and constrain nothing.
func (s *Synthesizer) Build(res *features.Result) (*domain.Plan, error) {
	g, err := s.materialize(res)
	if err != nil {
		return nil, err
	}
	if err := g.bind(res); err != nil {
		return nil, err
	}

	order, err := g.emissionOrder()
	if err != nil {
		return nil, err
	}

	plan := &domain.Plan{
		Target: res.Target.Triple,
		Units:  make([]domain.PlanUnit, 0, len(order)),
	}
	emitted := make(map[string]bool, len(order))
	for _, key := range order {
		if emitted[key] {
			return nil, zerr.With(domain.ErrEmissionKeyCollision, "key", key)
		}
		emitted[key] = true
		plan.Units = append(plan.Units, g.planUnit(key))
	}
	return plan, nil
}

// materialize collapses the per-scope activation marks into one build unit per
// package, merging scopes.
func (s *Synthesizer) materialize(res *features.Result) (*graph, error) {
	g := &graph{
		units: make(map[string]*domain.BuildUnit),
		recs:  make(map[string]*domain.PackageRecord),
		edges: make(map[string][]domain.Edge),
		deps:  make(map[string][]string),
	}

	for ref := range res.Active {
		if unit, exists := g.units[ref.Pkg]; exists {
			if !slices.Contains(unit.Scopes, ref.Scope) {
				unit.Scopes = append(unit.Scopes, ref.Scope)
			}
			continue
		}
		rec, ok := s.set.Get(ref.Pkg)
		if !ok {
			return nil, zerr.With(domain.ErrDanglingDependency, "package", ref.Pkg)
		}
		g.recs[ref.Pkg] = rec
		g.units[ref.Pkg] = &domain.BuildUnit{
			ID:         rec.ID,
			Features:   sortedFeatures(res.Features[ref.Pkg]),
			Platform:   res.Target,
			Scopes:     []domain.UnitScope{ref.Scope},
			RequiredBy: res.RequiredBy[ref.Pkg],
		}
	}

	for _, unit := range g.units {
		slices.Sort(unit.Scopes)
	}
	return g, nil
}

func sortedFeatures(fs domain.FeatureSet) []string {
	if len(fs) == 0 {
		return []string{}
	}
	return fs.Sorted()
}

// bind merges the per-scope edge lists of each unit into its edge set and
// records the ordering skeleton.
func (g *graph) bind(res *features.Result) error {
	for ref, edges := range res.Edges {
		if _, ok := g.units[ref.Pkg]; !ok {
			continue
		}
		for _, edge := range edges {
			if _, present := g.units[edge.To.Pkg]; !present {
				return zerr.With(
					zerr.With(domain.ErrDanglingDependency, "package", ref.Pkg),
					"dependency", edge.To.Pkg,
				)
			}
			g.edges[ref.Pkg] = append(g.edges[ref.Pkg], domain.Edge{
				From:      ref.Pkg,
				To:        edge.To.Pkg,
				Kind:      edge.Kind,
				Alias:     edge.Alias,
				Scope:     edge.To.Scope,
				RawTarget: edge.RawTarget,
			})
			if edge.Kind != domain.DepDev {
				g.deps[ref.Pkg] = append(g.deps[ref.Pkg], edge.To.Pkg)
			}
		}
	}

	for key := range g.edges {
		slices.SortFunc(g.edges[key], compareEdges)
		g.edges[key] = slices.CompactFunc(g.edges[key], func(a, b domain.Edge) bool {
			return a == b
		})
	}
	for key := range g.deps {
		slices.Sort(g.deps[key])
		g.deps[key] = slices.Compact(g.deps[key])
	}
	return nil
}

func compareEdges(a, b domain.Edge) int {
	if c := strings.Compare(a.To, b.To); c != 0 {
		return c
	}
	if c := strings.Compare(string(a.Kind), string(b.Kind)); c != 0 {
		return c
	}
	if c := strings.Compare(string(a.Scope), string(b.Scope)); c != 0 {
		return c
	}
	return strings.Compare(a.Alias, b.Alias)
}

// planUnit serializes one unit with its outgoing edges and the passthrough
// manifest metadata.
func (g *graph) planUnit(key string) domain.PlanUnit {
	unit := g.units[key]
	rec := g.recs[key]

	scopes := make([]string, len(unit.Scopes))
	for i, s := range unit.Scopes {
		scopes[i] = string(s)
	}

	deps := make([]domain.PlanDep, 0, len(g.edges[key]))
	for _, edge := range g.edges[key] {
		deps = append(deps, domain.PlanDep{
			Key:    edge.To,
			Alias:  edge.Alias,
			Kind:   edge.Kind,
			Scope:  string(edge.Scope),
			Target: edge.RawTarget,
		})
	}

	checksum := rec.Checksum
	if git, ok := unit.ID.Source.(domain.GitSource); ok && checksum == "" {
		// Git checkouts have no archive hash; the pinned revision is the
		// content address.
		checksum = "rev:" + git.Rev.String()
	}

	return domain.PlanUnit{
		Key:         unit.Key(),
		Name:        unit.ID.Name.String(),
		Version:     unit.ID.Version.String(),
		Source:      unit.ID.Source.Key(),
		Checksum:    checksum,
		Features:    unit.Features,
		Scopes:      scopes,
		Deps:        deps,
		BuildScript: rec.Manifest.BuildScript,
		Links:       rec.Manifest.Links,
		Edition:     rec.Manifest.Edition,
		RequiredBy:  unit.RequiredBy,
	}
}

// emissionOrder topologically sorts the normal/build subgraph, breaking ties
// by package identity: name, then semantic version, then source key. A stall
// means a cycle; the error carries the offending path.
func (g *graph) emissionOrder() ([]string, error) {
	keys := make([]string, 0, len(g.units))
	for key := range g.units {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, g.compareKeys)

	pending := make(map[string]int, len(keys))
	dependents := make(map[string][]string, len(keys))
	for _, key := range keys {
		pending[key] = len(g.deps[key])
		for _, dep := range g.deps[key] {
			dependents[dep] = append(dependents[dep], key)
		}
	}

	ready := make([]string, 0, len(keys))
	for _, key := range keys {
		if pending[key] == 0 {
			ready = append(ready, key)
		}
	}

	order := make([]string, 0, len(keys))
	for len(ready) > 0 {
		key := ready[0]
		ready = ready[1:]
		order = append(order, key)
		for _, dependent := range dependents[key] {
			pending[dependent]--
			if pending[dependent] == 0 {
				ready = g.insertSorted(ready, dependent)
			}
		}
	}

	if len(order) != len(keys) {
		return nil, g.cycleError(pending)
	}
	return order, nil
}

// compareKeys orders unit keys by their package identity so that version
// ties break by semver comparison, not by the key's string form.
func (g *graph) compareKeys(a, b string) int {
	ida, idb := g.units[a].ID, g.units[b].ID
	if ida.Less(idb) {
		return -1
	}
	if idb.Less(ida) {
		return 1
	}
	return 0
}

func (g *graph) insertSorted(list []string, item string) []string {
	idx, _ := slices.BinarySearchFunc(list, item, g.compareKeys)
	return slices.Insert(list, idx, item)
}

// cycleError walks the stalled subgraph to reconstruct one concrete cycle path
// for the error report.
func (g *graph) cycleError(pending map[string]int) error {
	remaining := make([]string, 0, len(pending))
	for key, n := range pending {
		if n > 0 {
			remaining = append(remaining, key)
		}
	}
	slices.Sort(remaining)

	stuck := make(map[string]bool, len(remaining))
	for _, key := range remaining {
		stuck[key] = true
	}

	visited := make(map[string]int) // 0 unvisited, 1 on path, 2 done
	var path []string
	var cycle string

	var visit func(key string) bool
	visit = func(key string) bool {
		visited[key] = 1
		path = append(path, key)
		for _, dep := range g.deps[key] {
			if !stuck[dep] {
				continue
			}
			if visited[dep] == 1 {
				cycle = renderCycle(path, dep)
				return true
			}
			if visited[dep] == 0 && visit(dep) {
				return true
			}
		}
		visited[key] = 2
		path = path[:len(path)-1]
		return false
	}

	for _, key := range remaining {
		if visited[key] == 0 && visit(key) {
			break
		}
	}
	return zerr.With(domain.ErrDependencyCycle, "cycle", cycle)
}

func renderCycle(path []string, dep string) string {
	start := slices.Index(path, dep)
	var b strings.Builder
	for i := start; i < len(path); i++ {
		b.WriteString(path[i])
		b.WriteString(" -> ")
	}
	b.WriteString(dep)
	return b.String()
}
