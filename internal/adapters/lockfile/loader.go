// Package lockfile ingests a lockfile and its manifest fragments into a
// cross-referenced package set.
package lockfile

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"go.trai.ch/zerr"

	"go.trai.ch/unify/internal/core/domain"
	"go.trai.ch/unify/internal/core/ports"
	"go.trai.ch/unify/internal/engine/cfgexpr"
)

// Loader implements ports.LockLoader over TOML files.
type Loader struct {
	log ports.Logger
}

// NewLoader creates a new Loader.
func NewLoader(log ports.Logger) *Loader {
	return &Loader{log: log}
}

// lockDepRef is one parsed entry of a package's lockfile dependency list:
// "name", "name version" or "name version (source)".
type lockDepRef struct {
	name    string
	version string
	source  string
}

// depPin carries the version and source pins a manifest declaration may put on
// an edge. Pins stay adapter-local; bound edges carry only the concrete id.
type depPin struct {
	version string
	source  string
}

// Load reads the lockfile and the manifest fragment files, joins them into
// package records and binds every dependency edge to a concrete package id.
// The returned set is immutable from the caller's point of view.
func (l *Loader) Load(ctx context.Context, lockPath string, manifestPaths []string) (*domain.PackageSet, error) {
	lock, err := readLock(lockPath)
	if err != nil {
		return nil, err
	}

	set := domain.NewPackageSet()
	lockDeps := make(map[string][]lockDepRef, len(lock.Packages))

	for _, dto := range lock.Packages {
		rec, refs, err := buildRecord(dto)
		if err != nil {
			return nil, err
		}
		if err := set.Add(rec); err != nil {
			return nil, err
		}
		lockDeps[rec.ID.Key()] = refs
	}

	pins := make(map[string][]depPin)
	for _, path := range manifestPaths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := applyManifests(set, path, pins); err != nil {
			return nil, err
		}
	}

	if err := bindAll(set, lockDeps, pins); err != nil {
		return nil, err
	}

	l.log.Info(fmt.Sprintf("ingested %d packages from %s", set.Len(), lockPath))
	return set, nil
}

func readLock(path string) (*lockDTO, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read lockfile")
	}
	var lock lockDTO
	if err := toml.Unmarshal(data, &lock); err != nil {
		return nil, zerr.Wrap(err, "failed to parse lockfile")
	}
	return &lock, nil
}

func buildRecord(dto packageDTO) (*domain.PackageRecord, []lockDepRef, error) {
	if dto.Name == "" || dto.Version == "" {
		return nil, nil, zerr.With(
			zerr.With(domain.ErrParse, "reason", "package entry missing name or version"),
			"name", dto.Name,
		)
	}

	src, err := parseEntrySource(dto.Name, dto.Source)
	if err != nil {
		return nil, nil, err
	}

	id, err := domain.NewPackageID(dto.Name, dto.Version, src)
	if err != nil {
		return nil, nil, err
	}

	if dto.Checksum != "" && !src.AllowsChecksum() {
		return nil, nil, zerr.With(
			zerr.With(domain.ErrChecksumForbidden, "package", id.Key()),
			"source", src.Key(),
		)
	}

	refs := make([]lockDepRef, 0, len(dto.Dependencies))
	for _, raw := range dto.Dependencies {
		ref, err := parseLockDepRef(raw)
		if err != nil {
			return nil, nil, zerr.With(err, "package", id.Key())
		}
		refs = append(refs, ref)
	}

	return &domain.PackageRecord{ID: id, Checksum: dto.Checksum}, refs, nil
}

// parseEntrySource canonicalizes a lock entry's source. Workspace members
// carry no source string; they are keyed as paths under their own name.
func parseEntrySource(name, raw string) (domain.Source, error) {
	if raw == "" {
		return domain.PathSource{Path: domain.NewInternedString(name)}, nil
	}
	return domain.ParseSource(raw)
}

func parseLockDepRef(raw string) (lockDepRef, error) {
	fields := strings.Fields(raw)
	switch len(fields) {
	case 1:
		return lockDepRef{name: fields[0]}, nil
	case 2:
		return lockDepRef{name: fields[0], version: fields[1]}, nil
	case 3:
		src := strings.TrimSuffix(strings.TrimPrefix(fields[2], "("), ")")
		return lockDepRef{name: fields[0], version: fields[1], source: src}, nil
	default:
		return lockDepRef{}, zerr.With(
			zerr.With(domain.ErrParse, "reason", "malformed dependency reference"),
			"dependency", raw,
		)
	}
}

// applyManifests joins one fragment file onto the package set. Fragments for
// packages the lockfile does not know are skipped, so a fragment file may
// cover a superset of one lockfile's closure.
func applyManifests(set *domain.PackageSet, path string, pins map[string][]depPin) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return zerr.Wrap(err, "failed to read manifest fragments")
	}
	var file manifestFileDTO
	if err := toml.Unmarshal(data, &file); err != nil {
		return zerr.Wrap(err, "failed to parse manifest fragments")
	}

	for _, dto := range file.Manifests {
		rec := matchRecord(set, dto)
		if rec == nil {
			continue
		}
		if _, seen := pins[rec.ID.Key()]; seen {
			return zerr.With(
				zerr.With(domain.ErrDuplicatePackage, "package", rec.ID.Key()),
				"reason", "second manifest fragment for the same release",
			)
		}

		rec.Manifest = domain.ManifestFragment{
			Features:    dto.Features,
			BuildScript: dto.BuildScript,
			Links:       dto.Links,
			Edition:     dto.Edition,
			ProcMacro:   dto.ProcMacro,
		}
		if rec.Manifest.Features == nil {
			rec.Manifest.Features = map[string][]string{}
		}

		deps, depPins, err := buildDeps(rec.ID, dto.Dependencies)
		if err != nil {
			return err
		}
		rec.Deps = deps
		pins[rec.ID.Key()] = depPins
	}
	return nil
}

func matchRecord(set *domain.PackageSet, dto manifestDTO) *domain.PackageRecord {
	for _, rec := range set.ByName(dto.Name) {
		if rec.ID.Version.String() != dto.Version {
			continue
		}
		if dto.Source != "" {
			src, err := domain.ParseSource(dto.Source)
			if err != nil || src.Key() != rec.ID.Source.Key() {
				continue
			}
		}
		return rec
	}
	return nil
}

func buildDeps(owner domain.PackageID, dtos []dependencyDTO) ([]domain.Dependency, []depPin, error) {
	deps := make([]domain.Dependency, 0, len(dtos))
	depPins := make([]depPin, 0, len(dtos))
	for _, dto := range dtos {
		kind, err := domain.ParseDepKind(dto.Kind)
		if err != nil {
			return nil, nil, zerr.With(zerr.With(err, "package", owner.Key()), "dependency", dto.Name)
		}

		var pred domain.TargetPredicate
		if dto.Target != "" {
			expr, err := cfgexpr.Parse(dto.Target)
			if err != nil {
				return nil, nil, zerr.With(zerr.With(err, "package", owner.Key()), "dependency", dto.Name)
			}
			pred = expr
		}

		defaultFeatures := true
		if dto.DefaultFeatures != nil {
			defaultFeatures = *dto.DefaultFeatures
		}

		deps = append(deps, domain.Dependency{
			Name:            domain.NewInternedString(dto.Name),
			Rename:          dto.Rename,
			Kind:            kind,
			Optional:        dto.Optional,
			DefaultFeatures: defaultFeatures,
			Features:        dto.Features,
			Target:          pred,
			RawTarget:       dto.Target,
			// Pkg is bound after all fragments are applied.
		})
		depPins = append(depPins, depPin{version: dto.Version, source: dto.Source})
	}
	return deps, depPins, nil
}

// bindAll resolves every declared edge to a concrete package id, using the
// consumer's lockfile dependency list to disambiguate between versions. Lock
// entries without a matching declaration become plain normal edges so that a
// bare lockfile still yields a usable graph.
func bindAll(set *domain.PackageSet, lockDeps map[string][]lockDepRef, pins map[string][]depPin) error {
	for rec := range set.All() {
		refs := lockDeps[rec.ID.Key()]
		recPins := pins[rec.ID.Key()]

		declared := make(map[string]bool, len(rec.Deps))
		dropped := make([]bool, len(rec.Deps))
		for i := range rec.Deps {
			dep := &rec.Deps[i]
			declared[dep.Name.String()] = true

			var pin depPin
			if i < len(recPins) {
				pin = recPins[i]
			}
			pkg, err := bindDep(set, rec, dep, pin, refs)
			if err != nil {
				return err
			}
			if pkg == nil {
				// An optional edge whose target never made it into the
				// lockfile closure can never activate. Drop it.
				dropped[i] = true
				continue
			}
			dep.Pkg = *pkg
		}

		rec.Deps = pruneDeps(rec.Deps, dropped)

		for _, ref := range refs {
			if declared[ref.name] {
				continue
			}
			pkg, err := resolveRef(set, rec, ref)
			if err != nil {
				return err
			}
			rec.Deps = append(rec.Deps, domain.Dependency{
				Name:            pkg.Name,
				Kind:            domain.DepNormal,
				DefaultFeatures: true,
				Pkg:             *pkg,
			})
		}
	}
	return nil
}

func pruneDeps(deps []domain.Dependency, dropped []bool) []domain.Dependency {
	kept := deps[:0]
	for i, d := range deps {
		if !dropped[i] {
			kept = append(kept, d)
		}
	}
	return kept
}

// bindDep finds the concrete package a declared edge points at. A nil result
// with a nil error means the edge is optional and its target is absent.
func bindDep(set *domain.PackageSet, rec *domain.PackageRecord, dep *domain.Dependency, pin depPin, refs []lockDepRef) (*domain.PackageID, error) {
	name := dep.Name.String()
	candidates := set.ByName(name)

	if pin.version != "" {
		candidates = filterVersion(candidates, pin.version)
	}
	if pin.source != "" {
		filtered, err := filterSource(candidates, pin.source)
		if err != nil {
			return nil, zerr.With(zerr.With(err, "package", rec.ID.Key()), "dependency", name)
		}
		if len(filtered) == 0 && len(candidates) > 0 {
			return nil, zerr.With(
				zerr.With(
					zerr.With(domain.ErrInconsistentSource, "package", rec.ID.Key()),
					"dependency", name,
				),
				"source", pin.source,
			)
		}
		candidates = filtered
	}

	// The consumer's lock entry pins version and source when present.
	candidates = filterRefs(candidates, refs, name)

	switch len(candidates) {
	case 0:
		if dep.Optional {
			return nil, nil
		}
		return nil, zerr.With(
			zerr.With(domain.ErrDanglingDependency, "package", rec.ID.Key()),
			"dependency", name,
		)
	case 1:
		return &candidates[0].ID, nil
	default:
		// Same name and version from several sources is a source conflict,
		// not a version ambiguity.
		sentinel := domain.ErrAmbiguousDependency
		if sameVersion(candidates) {
			sentinel = domain.ErrInconsistentSource
		}
		return nil, zerr.With(
			zerr.With(
				zerr.With(sentinel, "package", rec.ID.Key()),
				"dependency", name,
			),
			"candidates", candidateKeys(candidates),
		)
	}
}

func sameVersion(recs []*domain.PackageRecord) bool {
	for _, r := range recs[1:] {
		if !r.ID.Version.Equal(recs[0].ID.Version) {
			return false
		}
	}
	return true
}

func resolveRef(set *domain.PackageSet, rec *domain.PackageRecord, ref lockDepRef) (*domain.PackageID, error) {
	candidates := set.ByName(ref.name)
	if ref.version != "" {
		candidates = filterVersion(candidates, ref.version)
	}
	if ref.source != "" {
		filtered, err := filterSource(candidates, ref.source)
		if err != nil {
			return nil, zerr.With(zerr.With(err, "package", rec.ID.Key()), "dependency", ref.name)
		}
		candidates = filtered
	}

	switch len(candidates) {
	case 0:
		return nil, zerr.With(
			zerr.With(domain.ErrDanglingDependency, "package", rec.ID.Key()),
			"dependency", ref.name,
		)
	case 1:
		return &candidates[0].ID, nil
	default:
		sentinel := domain.ErrAmbiguousDependency
		if sameVersion(candidates) {
			sentinel = domain.ErrInconsistentSource
		}
		return nil, zerr.With(
			zerr.With(
				zerr.With(sentinel, "package", rec.ID.Key()),
				"dependency", ref.name,
			),
			"candidates", candidateKeys(candidates),
		)
	}
}

func filterVersion(recs []*domain.PackageRecord, version string) []*domain.PackageRecord {
	var out []*domain.PackageRecord
	for _, r := range recs {
		if r.ID.Version.String() == version {
			out = append(out, r)
		}
	}
	return out
}

func filterSource(recs []*domain.PackageRecord, raw string) ([]*domain.PackageRecord, error) {
	src, err := domain.ParseSource(raw)
	if err != nil {
		return nil, err
	}
	var out []*domain.PackageRecord
	for _, r := range recs {
		if r.ID.Source.Key() == src.Key() {
			out = append(out, r)
		}
	}
	return out, nil
}

func filterRefs(recs []*domain.PackageRecord, refs []lockDepRef, name string) []*domain.PackageRecord {
	matching := make([]lockDepRef, 0, 1)
	for _, ref := range refs {
		if ref.name == name {
			matching = append(matching, ref)
		}
	}
	if len(matching) == 0 {
		return recs
	}

	var out []*domain.PackageRecord
	for _, r := range recs {
		for _, ref := range matching {
			if ref.version != "" && r.ID.Version.String() != ref.version {
				continue
			}
			if ref.source != "" {
				src, err := domain.ParseSource(ref.source)
				if err != nil || src.Key() != r.ID.Source.Key() {
					continue
				}
			}
			out = append(out, r)
			break
		}
	}
	return out
}

func candidateKeys(recs []*domain.PackageRecord) string {
	keys := make([]string, len(recs))
	for i, r := range recs {
		keys[i] = r.ID.Key()
	}
	return strings.Join(keys, ", ")
}
