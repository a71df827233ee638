package emit_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/unify/internal/adapters/emit"
	"go.trai.ch/unify/internal/core/domain"
)

type nopLogger struct{}

func (nopLogger) Info(string) {}
func (nopLogger) Error(error) {}

func sampleDoc(version string) *domain.PlanDocument {
	return &domain.PlanDocument{
		Version: version,
		Plans: []domain.Plan{{
			Target: "x86_64-unknown-linux-gnu",
			Units: []domain.PlanUnit{
				{
					Key:      "libc 0.2.150 registry+" + domain.DefaultRegistryIndex,
					Name:     "libc",
					Version:  "0.2.150",
					Source:   "registry+" + domain.DefaultRegistryIndex,
					Checksum: "aaaa",
					Features: []string{"default", "std"},
					Scopes:   []string{"target"},
					Deps:     []domain.PlanDep{},
				},
				{
					Key:      "app 0.1.0 path+app",
					Name:     "app",
					Version:  "0.1.0",
					Source:   "path+app",
					Features: []string{},
					Scopes:   []string{"target"},
					Deps: []domain.PlanDep{{
						Key:   "libc 0.2.150 registry+" + domain.DefaultRegistryIndex,
						Kind:  domain.DepNormal,
						Scope: "target",
					}},
				},
			},
		}},
	}
}

func TestEmit_Deterministic(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.json")
	second := filepath.Join(dir, "b.json")
	e := emit.NewEmitter(nopLogger{})

	require.NoError(t, e.Emit(context.Background(), sampleDoc("1.0.0"), first))
	require.NoError(t, e.Emit(context.Background(), sampleDoc("1.0.0"), second))

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Contains(t, string(a), `"content-hash": "xxh64:`)
}

func TestEmit_HashIgnoresVersionHeader(t *testing.T) {
	old := sampleDoc("1.0.0")
	updated := sampleDoc("1.1.0")
	e := emit.NewEmitter(nopLogger{})
	dir := t.TempDir()

	require.NoError(t, e.Emit(context.Background(), old, filepath.Join(dir, "a.json")))
	require.NoError(t, e.Emit(context.Background(), updated, filepath.Join(dir, "b.json")))

	assert.Equal(t, old.ContentHash, updated.ContentHash)
}

func TestEmit_KeyCollision(t *testing.T) {
	doc := sampleDoc("1.0.0")
	doc.Plans[0].Units = append(doc.Plans[0].Units, doc.Plans[0].Units[0])

	err := emit.NewEmitter(nopLogger{}).
		Emit(context.Background(), doc, filepath.Join(t.TempDir(), "p.json"))
	assert.ErrorIs(t, err, domain.ErrEmissionKeyCollision)
}

func TestEmit_DanglingReference(t *testing.T) {
	doc := sampleDoc("1.0.0")
	doc.Plans[0].Units = doc.Plans[0].Units[1:] // drop libc, keep the app that references it

	err := emit.NewEmitter(nopLogger{}).
		Emit(context.Background(), doc, filepath.Join(t.TempDir(), "p.json"))
	assert.ErrorIs(t, err, domain.ErrDanglingDependency)
}

func TestEmit_RefusesNewerExistingPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.json")
	e := emit.NewEmitter(nopLogger{})

	require.NoError(t, e.Emit(context.Background(), sampleDoc("2.0.0"), path))

	err := e.Emit(context.Background(), sampleDoc("1.0.0"), path)
	assert.ErrorIs(t, err, domain.ErrPlanVersionNewer)
}

func TestEmit_OverwritesOlderAndDevPlans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.json")
	e := emit.NewEmitter(nopLogger{})

	require.NoError(t, e.Emit(context.Background(), sampleDoc("1.0.0"), path))
	require.NoError(t, e.Emit(context.Background(), sampleDoc("2.0.0"), path))

	// A dev build carries no comparable version and always writes.
	require.NoError(t, e.Emit(context.Background(), sampleDoc("dev"), path))
}
