package domain

import "errors"

var (
	// ErrParse is returned when the lockfile, a manifest fragment, or a target
	// predicate cannot be parsed.
	ErrParse = errors.New("parse error")

	// ErrDuplicatePackage is returned when two lockfile entries share the same package id.
	ErrDuplicatePackage = errors.New("duplicate package id")

	// ErrDanglingDependency is returned when a declared dependency has no matching
	// package record.
	ErrDanglingDependency = errors.New("dangling dependency")

	// ErrAmbiguousDependency is returned when a declared dependency matches more than
	// one package record and carries no version to disambiguate.
	ErrAmbiguousDependency = errors.New("ambiguous dependency")

	// ErrUnknownFeature is returned when a feature request references a name that is
	// neither a declared feature nor an optional dependency.
	ErrUnknownFeature = errors.New("unknown feature")

	// ErrDependencyCycle is returned when a cycle is detected among normal or build
	// dependency edges.
	ErrDependencyCycle = errors.New("dependency cycle detected")

	// ErrInconsistentSource is returned when the same name and version is claimed from
	// two incompatible source descriptors.
	ErrInconsistentSource = errors.New("inconsistent package source")

	// ErrEmissionKeyCollision is returned when two distinct build units would serialize
	// to the same plan key. This is always a synthesis defect, never a valid input.
	ErrEmissionKeyCollision = errors.New("emission key collision")

	// ErrUnknownDependencyKind is returned when a dependency declares a kind other than
	// normal, build or dev.
	ErrUnknownDependencyKind = errors.New("unknown dependency kind")

	// ErrUnknownCfgKey is returned when a target predicate compares an attribute the
	// evaluator does not support. Silently ignoring it would prune the wrong edges.
	ErrUnknownCfgKey = errors.New("unknown cfg attribute")

	// ErrChecksumForbidden is returned when a checksum is present for a source kind
	// that cannot carry one.
	ErrChecksumForbidden = errors.New("checksum not allowed for this source kind")

	// ErrBadVersion is returned when a version string is not valid semver.
	ErrBadVersion = errors.New("invalid semantic version")

	// ErrUnknownTarget is returned when a target triple is not in the platform table.
	ErrUnknownTarget = errors.New("unknown target triple")

	// ErrPackageNotFound is returned when a root request names a package that is not
	// in the lockfile.
	ErrPackageNotFound = errors.New("package not found in lockfile")

	// ErrNoRootsSpecified is returned when a resolution request contains no root packages.
	ErrNoRootsSpecified = errors.New("no root packages specified")

	// ErrNoTargetsSpecified is returned when a resolution request contains no target platforms.
	ErrNoTargetsSpecified = errors.New("no target platforms specified")

	// ErrPlanVersionNewer is returned when an existing plan file was written by a newer
	// version of unify than the one running.
	ErrPlanVersionNewer = errors.New("existing plan was generated by a newer unify")
)
