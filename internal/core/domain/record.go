package domain

import "go.trai.ch/zerr"

// DepKind classifies a dependency edge.
type DepKind string

const (
	// DepNormal is a regular link dependency.
	DepNormal DepKind = "normal"
	// DepBuild is a build-time tool dependency, compiled for the build machine.
	DepBuild DepKind = "build"
	// DepDev is a test-only dependency, excluded from the compiled link graph
	// of its own package.
	DepDev DepKind = "dev"
)

// ParseDepKind parses a dependency kind string. The empty string means normal.
func ParseDepKind(s string) (DepKind, error) {
	switch s {
	case "", "normal":
		return DepNormal, nil
	case "build":
		return DepBuild, nil
	case "dev":
		return DepDev, nil
	default:
		return "", zerr.With(ErrUnknownDependencyKind, "kind", s)
	}
}

// TargetPredicate is a parsed target-conditional expression. It gates whether a
// dependency edge applies to a given platform. hasFeature answers feature
// predicates against the consumer's currently active features.
type TargetPredicate interface {
	Matches(p TargetPlatform, hasFeature func(string) bool) bool
}

// Dependency is one declared dependency edge of a package record.
type Dependency struct {
	// Name is the real package name of the dependency target.
	Name InternedString

	// Rename is the alias used by the consuming manifest, empty when the
	// dependency is not renamed. Feature implications reference this alias.
	Rename string

	// Kind classifies the edge.
	Kind DepKind

	// Optional marks the edge inactive until a feature activates it.
	Optional bool

	// DefaultFeatures controls whether the target's default feature is seeded.
	DefaultFeatures bool

	// Features are the explicitly requested features on the target.
	Features []string

	// Target is the parsed platform predicate, nil when unconditional.
	Target TargetPredicate

	// RawTarget preserves the predicate text for plan emission.
	RawTarget string

	// Pkg is the concrete package id the edge resolves to. Bound once at
	// ingestion close; a record set with an unbindable edge never leaves
	// ingestion.
	Pkg PackageID
}

// TomlName returns the name by which the consumer refers to this dependency:
// the rename alias if present, the real package name otherwise.
func (d *Dependency) TomlName() string {
	if d.Rename != "" {
		return d.Rename
	}
	return d.Name.String()
}

// ManifestFragment carries the per-package manifest data resolution needs.
type ManifestFragment struct {
	// Features maps each declared feature to its implications: other feature
	// names, "dep/feature" forms, or bare optional dependency names. The
	// default feature list is the "default" entry.
	Features map[string][]string

	// BuildScript reports whether the package has a build script.
	BuildScript bool

	// Links is the native library this package links, empty if none.
	Links string

	// Edition is the language edition marker passed through to the builder.
	Edition string

	// ProcMacro reports whether the package is a compiler plugin. Such packages
	// always compile for the build machine.
	ProcMacro bool
}

// PackageRecord is one resolved lockfile entry joined with its manifest
// fragment. Records are created once by ingestion and never mutated afterwards.
type PackageRecord struct {
	// ID is the package identity.
	ID PackageID

	// Checksum is the content checksum, empty for source kinds that forbid one.
	Checksum string

	// Deps are the declared dependency edges.
	Deps []Dependency

	// Manifest is the manifest fragment for this release.
	Manifest ManifestFragment
}

// HasFeature reports whether the manifest declares the named feature.
func (r *PackageRecord) HasFeature(name string) bool {
	_, ok := r.Manifest.Features[name]
	return ok
}

// OptionalDep returns the optional dependency known to the consumer under the
// given toml name, or nil.
func (r *PackageRecord) OptionalDep(tomlName string) *Dependency {
	for i := range r.Deps {
		d := &r.Deps[i]
		if d.Optional && d.TomlName() == tomlName {
			return d
		}
	}
	return nil
}
