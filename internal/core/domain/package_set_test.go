package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/unify/internal/core/domain"
)

func record(t *testing.T, name, version string) *domain.PackageRecord {
	t.Helper()
	src, err := domain.ParseSource("crates-io")
	require.NoError(t, err)
	id, err := domain.NewPackageID(name, version, src)
	require.NoError(t, err)
	return &domain.PackageRecord{ID: id}
}

func TestPackageSet_DuplicateAdd(t *testing.T) {
	set := domain.NewPackageSet()
	require.NoError(t, set.Add(record(t, "serde", "1.0.0")))

	err := set.Add(record(t, "serde", "1.0.0"))
	assert.ErrorIs(t, err, domain.ErrDuplicatePackage)
}

func TestPackageSet_ByNameSortedByVersion(t *testing.T) {
	set := domain.NewPackageSet()
	require.NoError(t, set.Add(record(t, "rand", "0.8.5")))
	require.NoError(t, set.Add(record(t, "rand", "0.7.3")))
	require.NoError(t, set.Add(record(t, "serde", "1.0.0")))

	recs := set.ByName("rand")
	require.Len(t, recs, 2)
	assert.Equal(t, "0.7.3", recs[0].ID.Version.String())
	assert.Equal(t, "0.8.5", recs[1].ID.Version.String())
}

func TestPackageSet_AllIsDeterministic(t *testing.T) {
	set := domain.NewPackageSet()
	require.NoError(t, set.Add(record(t, "b", "1.0.0")))
	require.NoError(t, set.Add(record(t, "a", "1.0.0")))
	require.NoError(t, set.Add(record(t, "c", "1.0.0")))

	var keys []string
	for rec := range set.All() {
		keys = append(keys, rec.ID.Key())
	}
	assert.IsIncreasing(t, keys)
	assert.Equal(t, 3, set.Len())
}
