package domain

// UnitScope identifies which machine a build unit is compiled for within one
// resolution: the target platform itself, or the build machine (build scripts,
// proc-macros and their dependency closures).
type UnitScope string

const (
	// ScopeTarget marks code that runs on the target platform.
	ScopeTarget UnitScope = "target"
	// ScopeHost marks build-time tooling that runs on the build machine.
	ScopeHost UnitScope = "host"
)

// ShiftToHost returns the scope a dependency lives in when reached through a
// build-dependency edge or a proc-macro package: always the host side.
// Host-side code never shifts back to the target.
func (s UnitScope) ShiftToHost() UnitScope { return ScopeHost }

// BuildUnit is one concrete, fully resolved compilation instance of a package:
// identity, active feature set and target platform. Units are created during
// synthesis and immutable once emitted.
type BuildUnit struct {
	// ID is the package identity.
	ID PackageID

	// Features is the sorted resolved feature set.
	Features []string

	// Platform is the target platform this resolution ran against.
	Platform TargetPlatform

	// Scopes lists the sides of the build the unit participates in, sorted.
	// A package reached both as a normal and a build dependency carries both.
	Scopes []UnitScope

	// RequiredBy names the workspace roots whose requests activated this unit,
	// sorted. Provenance only; not part of unit identity.
	RequiredBy []string
}

// Key returns the emission key for this unit. Within one emitted plan the
// synthesizer guarantees at most one unit per key; a collision is a defect.
func (u *BuildUnit) Key() string {
	return u.ID.Key()
}

// Edge is a directed dependency relation between two build units.
type Edge struct {
	// From and To are unit emission keys.
	From string
	To   string

	// Kind classifies the edge.
	Kind DepKind

	// Alias is the rename the consumer manifest used, empty if none.
	Alias string

	// Scope is the side of the build the edge belongs to.
	Scope UnitScope

	// RawTarget is the original predicate text, passed through for the builder.
	RawTarget string
}
