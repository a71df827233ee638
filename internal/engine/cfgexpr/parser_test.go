package cfgexpr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/unify/internal/core/domain"
	"go.trai.ch/unify/internal/engine/cfgexpr"
)

func platform(t *testing.T, triple string) domain.TargetPlatform {
	t.Helper()
	p, err := domain.PlatformForTriple(triple)
	require.NoError(t, err)
	return p
}

func noFeatures(string) bool { return false }

func TestParse_BareTriple(t *testing.T) {
	expr, err := cfgexpr.Parse("x86_64-unknown-linux-gnu")
	require.NoError(t, err)

	assert.True(t, expr.Matches(platform(t, "x86_64-unknown-linux-gnu"), noFeatures))
	assert.False(t, expr.Matches(platform(t, "aarch64-apple-darwin"), noFeatures))
}

func TestParse_Comparisons(t *testing.T) {
	linux := platform(t, "x86_64-unknown-linux-gnu")
	windows := platform(t, "x86_64-pc-windows-msvc")

	tests := []struct {
		input   string
		linux   bool
		windows bool
	}{
		{`cfg(target_os = "linux")`, true, false},
		{`cfg(target_arch = "x86_64")`, true, true},
		{`cfg(target_env = "msvc")`, false, true},
		{`cfg(target_family = "unix")`, true, false},
		{`cfg(target_endian = "little")`, true, true},
		{`cfg(target_pointer_width = "64")`, true, true},
		{`cfg(target_vendor = "pc")`, false, true},
		{`cfg(unix)`, true, false},
		{`cfg(windows)`, false, true},
	}
	for _, tt := range tests {
		expr, err := cfgexpr.Parse(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.linux, expr.Matches(linux, noFeatures), "%s on linux", tt.input)
		assert.Equal(t, tt.windows, expr.Matches(windows, noFeatures), "%s on windows", tt.input)
	}
}

func TestParse_Combinators(t *testing.T) {
	linux := platform(t, "x86_64-unknown-linux-gnu")
	darwin := platform(t, "aarch64-apple-darwin")

	expr, err := cfgexpr.Parse(`cfg(all(unix, not(target_os = "macos")))`)
	require.NoError(t, err)
	assert.True(t, expr.Matches(linux, noFeatures))
	assert.False(t, expr.Matches(darwin, noFeatures))

	expr, err = cfgexpr.Parse(`cfg(any(target_os = "macos", target_os = "ios"))`)
	require.NoError(t, err)
	assert.False(t, expr.Matches(linux, noFeatures))
	assert.True(t, expr.Matches(darwin, noFeatures))

	// Empty all() holds, empty any() does not.
	expr, err = cfgexpr.Parse(`cfg(all())`)
	require.NoError(t, err)
	assert.True(t, expr.Matches(linux, noFeatures))

	expr, err = cfgexpr.Parse(`cfg(any())`)
	require.NoError(t, err)
	assert.False(t, expr.Matches(linux, noFeatures))
}

func TestParse_TrailingCommaAllowed(t *testing.T) {
	expr, err := cfgexpr.Parse(`cfg(all(unix, target_pointer_width = "64",))`)
	require.NoError(t, err)
	assert.True(t, expr.Matches(platform(t, "x86_64-unknown-linux-gnu"), noFeatures))
}

func TestParse_FeaturePredicate(t *testing.T) {
	expr, err := cfgexpr.Parse(`cfg(feature = "simd")`)
	require.NoError(t, err)

	linux := platform(t, "x86_64-unknown-linux-gnu")
	assert.False(t, expr.Matches(linux, noFeatures))
	assert.True(t, expr.Matches(linux, func(f string) bool { return f == "simd" }))
}

func TestParse_TargetFeatureNeverMatches(t *testing.T) {
	// CPU feature sets are unknown at resolution time.
	expr, err := cfgexpr.Parse(`cfg(target_feature = "avx2")`)
	require.NoError(t, err)
	assert.False(t, expr.Matches(platform(t, "x86_64-unknown-linux-gnu"), noFeatures))
}

func TestParse_UnknownKey(t *testing.T) {
	_, err := cfgexpr.Parse(`cfg(target_abi = "eabihf")`)
	assert.ErrorIs(t, err, domain.ErrUnknownCfgKey)
}

func TestParse_Malformed(t *testing.T) {
	inputs := []string{
		``,
		`cfg()`,
		`cfg(all(unix)`,
		`cfg(target_os = linux)`,
		`cfg(target_os = "linux)`,
		`cfg(not(unix, windows))`,
		`cfg(unix) trailing`,
		`x86_64 linux`,
	}
	for _, input := range inputs {
		_, err := cfgexpr.Parse(input)
		assert.ErrorIs(t, err, domain.ErrParse, "input %q", input)
	}
}

func TestExpr_StringRoundTrip(t *testing.T) {
	inputs := []string{
		`cfg(all(unix, not(target_os = "macos")))`,
		`cfg(any(windows, target_env = "musl"))`,
		`cfg(target_pointer_width = "32")`,
	}
	for _, input := range inputs {
		expr, err := cfgexpr.Parse(input)
		require.NoError(t, err)

		again, err := cfgexpr.Parse("cfg(" + expr.String() + ")")
		require.NoError(t, err, "reparse of %q", expr.String())
		assert.Equal(t, expr.String(), again.String())
	}
}
