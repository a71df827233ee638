package domain

// PlanDep is one dependency reference inside an emitted plan unit. Key always
// names another unit present in the same plan; the emitter refuses to write a
// plan with a dangling reference.
type PlanDep struct {
	Key    string  `json:"key"`
	Alias  string  `json:"alias,omitempty"`
	Kind   DepKind `json:"kind"`
	Scope  string  `json:"scope"`
	Target string  `json:"target,omitempty"`
}

// PlanUnit is the serialized form of one build unit.
type PlanUnit struct {
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	Source      string    `json:"source"`
	Checksum    string    `json:"checksum,omitempty"`
	Features    []string  `json:"features"`
	Scopes      []string  `json:"scopes"`
	Deps        []PlanDep `json:"deps"`
	BuildScript bool      `json:"build-script,omitempty"`
	Links       string    `json:"links,omitempty"`
	Edition     string    `json:"edition,omitempty"`
	RequiredBy  []string  `json:"required-by,omitempty"`
}

// Plan is the resolved build plan for one target platform. Units appear in
// topological order, dependencies before dependents, ties broken by name then
// version then source so that identical input always serializes identically.
type Plan struct {
	Target string     `json:"target"`
	Units  []PlanUnit `json:"units"`
}

// PlanDocument is the full emitter output: one plan per requested target,
// ordered by target triple, under a tool version header. ContentHash is the
// digest of the serialized plans, filled in at emission.
type PlanDocument struct {
	Version     string `json:"unify-version"`
	ContentHash string `json:"content-hash,omitempty"`
	Plans       []Plan `json:"plans"`
}
