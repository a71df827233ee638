// Package request provides the plan request loader for unify.
package request

import (
	"context"
	"os"
	"path/filepath"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"go.trai.ch/unify/internal/core/domain"
)

// FileRequestLoader implements ports.RequestLoader using a YAML file.
type FileRequestLoader struct{}

// NewLoader creates a new FileRequestLoader.
func NewLoader() *FileRequestLoader {
	return &FileRequestLoader{}
}

// requestDTO is the structure of the unify.yaml request file.
type requestDTO struct {
	Lockfile    string    `yaml:"lockfile"`
	Manifests   string    `yaml:"manifests"`
	BuildTarget string    `yaml:"buildTarget"`
	Targets     []string  `yaml:"targets"`
	Roots       []rootDTO `yaml:"roots"`
}

// rootDTO is one requested workspace package.
type rootDTO struct {
	Name            string   `yaml:"name"`
	Version         string   `yaml:"version"`
	Features        []string `yaml:"features"`
	DefaultFeatures *bool    `yaml:"defaultFeatures"`
	Dev             bool     `yaml:"dev"`
}

// Load reads a request file and returns a validated domain.Request. Relative
// input paths resolve against the request file's directory so a request stays
// valid regardless of the working directory it is invoked from.
func (l *FileRequestLoader) Load(ctx context.Context, path string) (*domain.Request, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read request file")
	}

	var dto requestDTO
	if err := yaml.Unmarshal(data, &dto); err != nil {
		return nil, zerr.Wrap(err, "failed to parse request file")
	}

	base := filepath.Dir(path)
	req := &domain.Request{
		Lockfile:    resolvePath(base, dto.Lockfile),
		Manifests:   resolvePath(base, dto.Manifests),
		BuildTarget: dto.BuildTarget,
		Targets:     dto.Targets,
		Roots:       make([]domain.RootRequest, 0, len(dto.Roots)),
	}

	for _, r := range dto.Roots {
		defaultFeatures := true
		if r.DefaultFeatures != nil {
			defaultFeatures = *r.DefaultFeatures
		}
		req.Roots = append(req.Roots, domain.RootRequest{
			Name:            r.Name,
			Version:         r.Version,
			Features:        r.Features,
			DefaultFeatures: defaultFeatures,
			Dev:             r.Dev,
		})
	}

	if err := req.Validate(); err != nil {
		return nil, zerr.With(err, "request", path)
	}
	return req, nil
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
