package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// SourceKind identifies where a package release comes from.
type SourceKind string

const (
	// SourceRegistry is a package downloaded from a registry index.
	SourceRegistry SourceKind = "registry"
	// SourceGit is a package checked out from a git repository at a pinned revision.
	SourceGit SourceKind = "git"
	// SourcePath is a package located on the local filesystem.
	SourcePath SourceKind = "path"
)

// DefaultRegistryIndex is the index URL the bare "crates-io" alias canonicalizes to.
const DefaultRegistryIndex = "https://github.com/rust-lang/crates.io-index"

// Source describes the origin of a package release. Each kind carries exactly
// the fields meaningful for it. Implementations are comparable value types so
// that package identity works structurally, never by pointer.
type Source interface {
	// Kind returns the source kind tag.
	Kind() SourceKind

	// Key returns the canonical identifier for this source. Two raw descriptors
	// that denote the same origin produce the same key.
	Key() string

	// AllowsChecksum reports whether a lockfile entry from this source may carry
	// a content checksum.
	AllowsChecksum() bool
}

// RegistrySource is a package from a registry index.
type RegistrySource struct {
	// Index is the canonical registry index URL.
	Index InternedString
}

// Kind returns SourceRegistry.
func (s RegistrySource) Kind() SourceKind { return SourceRegistry }

// Key returns "registry+<index-url>".
func (s RegistrySource) Key() string { return "registry+" + s.Index.String() }

// AllowsChecksum reports true; registry archives are content-addressed.
func (s RegistrySource) AllowsChecksum() bool { return true }

// GitSource is a package pinned to a git revision.
type GitSource struct {
	// URL is the repository URL without query or fragment.
	URL InternedString

	// Rev is the full commit hash the checkout is pinned to.
	Rev InternedString
}

// Kind returns SourceGit.
func (s GitSource) Kind() SourceKind { return SourceGit }

// Key returns "git+<url>#<rev>".
func (s GitSource) Key() string { return "git+" + s.URL.String() + "#" + s.Rev.String() }

// AllowsChecksum reports false; the pinned revision is the content address.
func (s GitSource) AllowsChecksum() bool { return false }

// PathSource is a package on the local filesystem, typically a workspace member.
type PathSource struct {
	// Path is the package directory relative to the workspace root.
	Path InternedString
}

// Kind returns SourcePath.
func (s PathSource) Kind() SourceKind { return SourcePath }

// Key returns "path+<path>".
func (s PathSource) Key() string { return "path+" + s.Path.String() }

// AllowsChecksum reports false; local trees have no archive to hash.
func (s PathSource) AllowsChecksum() bool { return false }

// ParseSource canonicalizes a raw source descriptor string into a Source.
// Recognized forms:
//
//	registry+<index-url>
//	crates-io                          (alias for the default registry index)
//	git+<url>?rev=<rev>#<commit>
//	git+<url>#<commit>
//	path+<path>
//
// Canonicalization is a pure function; no registry of known sources is kept.
func ParseSource(raw string) (Source, error) {
	switch {
	case raw == "crates-io" || raw == "registry+"+DefaultRegistryIndex:
		return RegistrySource{Index: NewInternedString(DefaultRegistryIndex)}, nil

	case strings.HasPrefix(raw, "registry+"):
		index := strings.TrimPrefix(raw, "registry+")
		if index == "" {
			return nil, zerr.With(ErrParse, "source", raw)
		}
		return RegistrySource{Index: NewInternedString(index)}, nil

	case strings.HasPrefix(raw, "git+"):
		return parseGitSource(raw)

	case strings.HasPrefix(raw, "path+"):
		path := strings.TrimPrefix(raw, "path+")
		path = strings.TrimPrefix(path, "file://")
		if path == "" {
			return nil, zerr.With(ErrParse, "source", raw)
		}
		return PathSource{Path: NewInternedString(path)}, nil

	default:
		return nil, zerr.With(ErrParse, "source", raw)
	}
}

func parseGitSource(raw string) (Source, error) {
	rest := strings.TrimPrefix(raw, "git+")

	// The precise commit follows the fragment. A rev query parameter names the
	// requested revision but the fragment wins because it is the resolved one.
	rest, frag, hasFrag := strings.Cut(rest, "#")
	url, query, hasQuery := strings.Cut(rest, "?")

	rev := frag
	if !hasFrag && hasQuery {
		for part := range strings.SplitSeq(query, "&") {
			if v, ok := strings.CutPrefix(part, "rev="); ok {
				rev = v
			}
		}
	}

	if url == "" || rev == "" {
		return nil, zerr.With(ErrParse, "source", raw)
	}
	return GitSource{
		URL: NewInternedString(url),
		Rev: NewInternedString(rev),
	}, nil
}
