package domain

import (
	"slices"

	"go.trai.ch/zerr"
)

// TargetPlatform describes a concrete build target. It is consumed only by the
// target predicate evaluator; resolution itself never inspects these fields.
type TargetPlatform struct {
	// Triple is the full target triple, e.g. "x86_64-unknown-linux-gnu".
	Triple string

	// OS is the operating system, e.g. "linux", "macos", "windows".
	OS string

	// Arch is the CPU architecture, e.g. "x86_64", "aarch64".
	Arch string

	// Env is the ABI environment, e.g. "gnu", "musl", "msvc". May be empty.
	Env string

	// Family is the broad OS family, "unix" or "windows". May be empty.
	Family string

	// Endian is "little" or "big".
	Endian string

	// PointerWidth is "32" or "64".
	PointerWidth string

	// Vendor is the triple vendor field, e.g. "unknown", "apple", "pc".
	Vendor string
}

// knownTriples is the builtin platform table. Entries follow the conventional
// triple layout arch-vendor-os[-env].
var knownTriples = map[string]TargetPlatform{
	"x86_64-unknown-linux-gnu": {
		OS: "linux", Arch: "x86_64", Env: "gnu", Family: "unix",
		Endian: "little", PointerWidth: "64", Vendor: "unknown",
	},
	"x86_64-unknown-linux-musl": {
		OS: "linux", Arch: "x86_64", Env: "musl", Family: "unix",
		Endian: "little", PointerWidth: "64", Vendor: "unknown",
	},
	"aarch64-unknown-linux-gnu": {
		OS: "linux", Arch: "aarch64", Env: "gnu", Family: "unix",
		Endian: "little", PointerWidth: "64", Vendor: "unknown",
	},
	"aarch64-unknown-linux-musl": {
		OS: "linux", Arch: "aarch64", Env: "musl", Family: "unix",
		Endian: "little", PointerWidth: "64", Vendor: "unknown",
	},
	"i686-unknown-linux-gnu": {
		OS: "linux", Arch: "x86", Env: "gnu", Family: "unix",
		Endian: "little", PointerWidth: "32", Vendor: "unknown",
	},
	"x86_64-apple-darwin": {
		OS: "macos", Arch: "x86_64", Env: "", Family: "unix",
		Endian: "little", PointerWidth: "64", Vendor: "apple",
	},
	"aarch64-apple-darwin": {
		OS: "macos", Arch: "aarch64", Env: "", Family: "unix",
		Endian: "little", PointerWidth: "64", Vendor: "apple",
	},
	"aarch64-apple-ios": {
		OS: "ios", Arch: "aarch64", Env: "", Family: "unix",
		Endian: "little", PointerWidth: "64", Vendor: "apple",
	},
	"x86_64-pc-windows-msvc": {
		OS: "windows", Arch: "x86_64", Env: "msvc", Family: "windows",
		Endian: "little", PointerWidth: "64", Vendor: "pc",
	},
	"x86_64-pc-windows-gnu": {
		OS: "windows", Arch: "x86_64", Env: "gnu", Family: "windows",
		Endian: "little", PointerWidth: "64", Vendor: "pc",
	},
	"aarch64-linux-android": {
		OS: "android", Arch: "aarch64", Env: "", Family: "unix",
		Endian: "little", PointerWidth: "64", Vendor: "unknown",
	},
	"x86_64-unknown-freebsd": {
		OS: "freebsd", Arch: "x86_64", Env: "", Family: "unix",
		Endian: "little", PointerWidth: "64", Vendor: "unknown",
	},
	"s390x-unknown-linux-gnu": {
		OS: "linux", Arch: "s390x", Env: "gnu", Family: "unix",
		Endian: "big", PointerWidth: "64", Vendor: "unknown",
	},
	"wasm32-unknown-unknown": {
		OS: "", Arch: "wasm32", Env: "", Family: "",
		Endian: "little", PointerWidth: "32", Vendor: "unknown",
	},
}

// PlatformForTriple looks up the builtin platform table.
// Unknown triples fail loudly with ErrUnknownTarget; guessing attributes would
// silently prune the wrong dependency edges.
func PlatformForTriple(triple string) (TargetPlatform, error) {
	p, ok := knownTriples[triple]
	if !ok {
		return TargetPlatform{}, zerr.With(ErrUnknownTarget, "triple", triple)
	}
	p.Triple = triple
	return p, nil
}

// KnownTriples returns the sorted list of triples in the builtin table.
func KnownTriples() []string {
	triples := make([]string, 0, len(knownTriples))
	for t := range knownTriples {
		triples = append(triples, t)
	}
	slices.Sort(triples)
	return triples
}
