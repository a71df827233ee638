package lockfile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/unify/internal/adapters/lockfile"
	"go.trai.ch/unify/internal/core/domain"
)

type nopLogger struct{}

func (nopLogger) Info(string) {}
func (nopLogger) Error(error) {}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const basicLock = `
version = 4

[[package]]
name = "app"
version = "0.1.0"

[[package]]
name = "libc"
version = "0.2.150"
source = "registry+https://github.com/rust-lang/crates.io-index"
checksum = "aaaa"
`

const basicManifests = `
[[manifest]]
name = "app"
version = "0.1.0"
edition = "2021"

[manifest.features]
default = []

[[manifest.dependencies]]
name = "libc"
target = 'cfg(unix)'
`

func TestLoad_JoinsLockAndManifest(t *testing.T) {
	dir := t.TempDir()
	lockPath := writeFile(t, dir, "test.lock", basicLock)
	manifestPath := writeFile(t, dir, "manifests.toml", basicManifests)

	set, err := lockfile.NewLoader(nopLogger{}).
		Load(context.Background(), lockPath, []string{manifestPath})
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())

	apps := set.ByName("app")
	require.Len(t, apps, 1)
	app := apps[0]
	assert.Equal(t, "2021", app.Manifest.Edition)
	assert.Equal(t, domain.SourcePath, app.ID.Source.Kind())

	require.Len(t, app.Deps, 1)
	dep := app.Deps[0]
	assert.Equal(t, "libc", dep.Name.String())
	assert.Equal(t, domain.DepNormal, dep.Kind)
	assert.Equal(t, "cfg(unix)", dep.RawTarget)
	require.NotNil(t, dep.Target)
	assert.Equal(t, "libc 0.2.150 registry+"+domain.DefaultRegistryIndex, dep.Pkg.Key())
}

func TestLoad_SynthesizesEdgesFromLockList(t *testing.T) {
	dir := t.TempDir()
	lockPath := writeFile(t, dir, "test.lock", `
[[package]]
name = "app"
version = "0.1.0"
dependencies = ["libc"]

[[package]]
name = "libc"
version = "0.2.150"
source = "registry+https://github.com/rust-lang/crates.io-index"
`)

	set, err := lockfile.NewLoader(nopLogger{}).
		Load(context.Background(), lockPath, nil)
	require.NoError(t, err)

	app := set.ByName("app")[0]
	require.Len(t, app.Deps, 1)
	assert.Equal(t, "libc", app.Deps[0].Name.String())
	assert.True(t, app.Deps[0].DefaultFeatures)
}

func TestLoad_ChecksumForbiddenForPathSource(t *testing.T) {
	dir := t.TempDir()
	lockPath := writeFile(t, dir, "test.lock", `
[[package]]
name = "local"
version = "0.1.0"
source = "path+file:///work/local"
checksum = "deadbeef"
`)

	_, err := lockfile.NewLoader(nopLogger{}).
		Load(context.Background(), lockPath, nil)
	assert.ErrorIs(t, err, domain.ErrChecksumForbidden)
}

func TestLoad_GitSourceCarriesRevNotChecksum(t *testing.T) {
	dir := t.TempDir()
	lockPath := writeFile(t, dir, "test.lock", `
[[package]]
name = "fork"
version = "0.3.0"
source = "git+https://example.com/fork.git?rev=main#abc123"
`)

	set, err := lockfile.NewLoader(nopLogger{}).
		Load(context.Background(), lockPath, nil)
	require.NoError(t, err)

	rec := set.ByName("fork")[0]
	assert.Equal(t, "git+https://example.com/fork.git#abc123", rec.ID.Source.Key())
	assert.Empty(t, rec.Checksum)
}

func TestLoad_DuplicatePackage(t *testing.T) {
	dir := t.TempDir()
	lockPath := writeFile(t, dir, "test.lock", `
[[package]]
name = "dup"
version = "1.0.0"
source = "registry+https://github.com/rust-lang/crates.io-index"

[[package]]
name = "dup"
version = "1.0.0"
source = "registry+https://github.com/rust-lang/crates.io-index"
`)

	_, err := lockfile.NewLoader(nopLogger{}).
		Load(context.Background(), lockPath, nil)
	assert.ErrorIs(t, err, domain.ErrDuplicatePackage)
}

func TestLoad_DanglingDependency(t *testing.T) {
	dir := t.TempDir()
	lockPath := writeFile(t, dir, "test.lock", `
[[package]]
name = "app"
version = "0.1.0"
dependencies = ["missing"]
`)

	_, err := lockfile.NewLoader(nopLogger{}).
		Load(context.Background(), lockPath, nil)
	assert.ErrorIs(t, err, domain.ErrDanglingDependency)
}

func TestLoad_AmbiguousDependency(t *testing.T) {
	dir := t.TempDir()
	lockPath := writeFile(t, dir, "test.lock", `
[[package]]
name = "app"
version = "0.1.0"
dependencies = ["rand"]

[[package]]
name = "rand"
version = "0.7.3"
source = "registry+https://github.com/rust-lang/crates.io-index"

[[package]]
name = "rand"
version = "0.8.5"
source = "registry+https://github.com/rust-lang/crates.io-index"
`)

	_, err := lockfile.NewLoader(nopLogger{}).
		Load(context.Background(), lockPath, nil)
	assert.ErrorIs(t, err, domain.ErrAmbiguousDependency)
}

func TestLoad_SameVersionTwoSourcesIsSourceConflict(t *testing.T) {
	dir := t.TempDir()
	lockPath := writeFile(t, dir, "test.lock", `
[[package]]
name = "app"
version = "0.1.0"
dependencies = ["rand"]

[[package]]
name = "rand"
version = "0.8.5"
source = "registry+https://github.com/rust-lang/crates.io-index"

[[package]]
name = "rand"
version = "0.8.5"
source = "git+https://example.com/rand.git#abc123"
`)

	_, err := lockfile.NewLoader(nopLogger{}).
		Load(context.Background(), lockPath, nil)
	assert.ErrorIs(t, err, domain.ErrInconsistentSource)
	assert.NotErrorIs(t, err, domain.ErrAmbiguousDependency)
}

func TestLoad_DeclaredDepSourceConflict(t *testing.T) {
	dir := t.TempDir()
	lockPath := writeFile(t, dir, "test.lock", `
[[package]]
name = "app"
version = "0.1.0"
dependencies = ["rand"]

[[package]]
name = "rand"
version = "0.8.5"
source = "registry+https://github.com/rust-lang/crates.io-index"

[[package]]
name = "rand"
version = "0.8.5"
source = "git+https://example.com/rand.git#abc123"
`)
	manifestPath := writeFile(t, dir, "manifests.toml", `
[[manifest]]
name = "app"
version = "0.1.0"

[[manifest.dependencies]]
name = "rand"
`)

	_, err := lockfile.NewLoader(nopLogger{}).
		Load(context.Background(), lockPath, []string{manifestPath})
	assert.ErrorIs(t, err, domain.ErrInconsistentSource)
	assert.NotErrorIs(t, err, domain.ErrAmbiguousDependency)
}

func TestLoad_LockRefVersionDisambiguates(t *testing.T) {
	dir := t.TempDir()
	lockPath := writeFile(t, dir, "test.lock", `
[[package]]
name = "app"
version = "0.1.0"
dependencies = ["rand 0.8.5"]

[[package]]
name = "rand"
version = "0.7.3"
source = "registry+https://github.com/rust-lang/crates.io-index"

[[package]]
name = "rand"
version = "0.8.5"
source = "registry+https://github.com/rust-lang/crates.io-index"
`)

	set, err := lockfile.NewLoader(nopLogger{}).
		Load(context.Background(), lockPath, nil)
	require.NoError(t, err)

	app := set.ByName("app")[0]
	require.Len(t, app.Deps, 1)
	assert.Equal(t, "0.8.5", app.Deps[0].Pkg.Version.String())
}

func TestLoad_AbsentOptionalDepIsDropped(t *testing.T) {
	dir := t.TempDir()
	lockPath := writeFile(t, dir, "test.lock", `
[[package]]
name = "app"
version = "0.1.0"
dependencies = []
`)
	manifestPath := writeFile(t, dir, "manifests.toml", `
[[manifest]]
name = "app"
version = "0.1.0"

[[manifest.dependencies]]
name = "serde"
optional = true
`)

	set, err := lockfile.NewLoader(nopLogger{}).
		Load(context.Background(), lockPath, []string{manifestPath})
	require.NoError(t, err)

	app := set.ByName("app")[0]
	assert.Empty(t, app.Deps)
}

func TestLoad_InconsistentSource(t *testing.T) {
	dir := t.TempDir()
	lockPath := writeFile(t, dir, "test.lock", `
[[package]]
name = "app"
version = "0.1.0"

[[package]]
name = "fork"
version = "1.0.0"
source = "registry+https://github.com/rust-lang/crates.io-index"
`)
	manifestPath := writeFile(t, dir, "manifests.toml", `
[[manifest]]
name = "app"
version = "0.1.0"

[[manifest.dependencies]]
name = "fork"
source = "git+https://example.com/fork.git#abc123"
`)

	_, err := lockfile.NewLoader(nopLogger{}).
		Load(context.Background(), lockPath, []string{manifestPath})
	assert.ErrorIs(t, err, domain.ErrInconsistentSource)
}

func TestLoad_Idempotent(t *testing.T) {
	dir := t.TempDir()
	lockPath := writeFile(t, dir, "test.lock", basicLock)
	manifestPath := writeFile(t, dir, "manifests.toml", basicManifests)

	loader := lockfile.NewLoader(nopLogger{})
	first, err := loader.Load(context.Background(), lockPath, []string{manifestPath})
	require.NoError(t, err)
	second, err := loader.Load(context.Background(), lockPath, []string{manifestPath})
	require.NoError(t, err)

	require.Equal(t, first.Len(), second.Len())
	for rec := range first.All() {
		other, ok := second.Get(rec.ID.Key())
		require.True(t, ok, rec.ID.Key())
		assert.Equal(t, rec.Checksum, other.Checksum)
		assert.Equal(t, rec.Manifest, other.Manifest)
		require.Len(t, other.Deps, len(rec.Deps))
		for i := range rec.Deps {
			assert.Equal(t, rec.Deps[i].Pkg.Key(), other.Deps[i].Pkg.Key())
			assert.Equal(t, rec.Deps[i].Kind, other.Deps[i].Kind)
		}
	}
}
