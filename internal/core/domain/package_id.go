// Package domain contains the descriptor model for lockfile resolution:
// package identities, records, feature sets, target platforms and build units.
package domain

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"go.trai.ch/zerr"
)

// PackageID is the identity tuple of a distinct package release.
// Two ids with equal name and version but different sources are distinct.
type PackageID struct {
	// Name is the package name.
	Name InternedString

	// Version is the exact resolved semantic version.
	Version *semver.Version

	// Source is the canonicalized origin of the release.
	Source Source
}

// NewPackageID parses the version string and builds a PackageID.
func NewPackageID(name, version string, source Source) (PackageID, error) {
	v, err := semver.StrictNewVersion(version)
	if err != nil {
		return PackageID{}, zerr.With(
			zerr.With(fmt.Errorf("%w: %w", ErrBadVersion, err), "package", name),
			"version", version,
		)
	}
	return PackageID{
		Name:    NewInternedString(name),
		Version: v,
		Source:  source,
	}, nil
}

// Key returns the canonical identity string "name version source-key".
// It is the structural equality and map key for package identity; pointer
// identity is never used for deduplication.
func (id PackageID) Key() string {
	return id.Name.String() + " " + id.Version.String() + " " + id.Source.Key()
}

// Equal reports structural equality of two package ids.
func (id PackageID) Equal(other PackageID) bool {
	return id.Key() == other.Key()
}

// Less orders ids by name, then version, then source key. Used for
// deterministic iteration and emission tie-breaks.
func (id PackageID) Less(other PackageID) bool {
	if n, o := id.Name.String(), other.Name.String(); n != o {
		return n < o
	}
	if c := id.Version.Compare(other.Version); c != 0 {
		return c < 0
	}
	return id.Source.Key() < other.Source.Key()
}

// String returns the identity key.
func (id PackageID) String() string {
	return id.Key()
}
