package domain

// RootRequest names one workspace package whose dependency closure should be
// resolved, with the features requested on it.
type RootRequest struct {
	// Name is the package name. Required.
	Name string

	// Version disambiguates when the lockfile holds several versions of the
	// name. Optional.
	Version string

	// Features are the explicitly requested features.
	Features []string

	// DefaultFeatures seeds the package's default feature when true.
	DefaultFeatures bool

	// Dev includes the package's dev dependencies in the resolution. Dev
	// requests never leak into a resolution that did not ask for them.
	Dev bool
}

// Request is one full resolution request: inputs, roots and targets.
type Request struct {
	// Lockfile is the path to the lockfile.
	Lockfile string

	// Manifests is the path to the manifest fragments file.
	Manifests string

	// BuildTarget is the triple of the machine the build itself runs on.
	BuildTarget string

	// Targets are the triples to resolve plans for. Each target resolves
	// independently.
	Targets []string

	// Roots are the requested workspace packages.
	Roots []RootRequest
}

// Validate checks the request invariants that do not need the package set.
func (r *Request) Validate() error {
	if len(r.Roots) == 0 {
		return ErrNoRootsSpecified
	}
	if len(r.Targets) == 0 {
		return ErrNoTargetsSpecified
	}
	return nil
}
