package lockfile

// lockDTO is the on-disk structure of the lockfile.
type lockDTO struct {
	Version  int          `toml:"version"`
	Packages []packageDTO `toml:"package"`
}

// packageDTO is one [[package]] entry.
type packageDTO struct {
	Name         string   `toml:"name"`
	Version      string   `toml:"version"`
	Source       string   `toml:"source"`
	Checksum     string   `toml:"checksum"`
	Dependencies []string `toml:"dependencies"`
}

// manifestFileDTO is the on-disk structure of a manifest fragments file.
type manifestFileDTO struct {
	Manifests []manifestDTO `toml:"manifest"`
}

// manifestDTO carries the manifest data for one package release.
type manifestDTO struct {
	Name         string              `toml:"name"`
	Version      string              `toml:"version"`
	Source       string              `toml:"source"`
	Edition      string              `toml:"edition"`
	BuildScript  bool                `toml:"build-script"`
	Links        string              `toml:"links"`
	ProcMacro    bool                `toml:"proc-macro"`
	Features     map[string][]string `toml:"features"`
	Dependencies []dependencyDTO     `toml:"dependencies"`
}

// dependencyDTO is one declared dependency edge of a manifest.
type dependencyDTO struct {
	Name            string   `toml:"name"`
	Rename          string   `toml:"rename"`
	Kind            string   `toml:"kind"`
	Optional        bool     `toml:"optional"`
	DefaultFeatures *bool    `toml:"default-features"`
	Features        []string `toml:"features"`
	Target          string   `toml:"target"`
	Version         string   `toml:"version"`
	Source          string   `toml:"source"`
}
