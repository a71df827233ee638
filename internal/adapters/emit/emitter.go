// Package emit serializes plan documents. Output is deterministic: the same
// document always produces the same bytes.
package emit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/cespare/xxhash/v2"
	"go.trai.ch/zerr"

	"go.trai.ch/unify/internal/core/domain"
	"go.trai.ch/unify/internal/core/ports"
)

// JSONEmitter implements ports.Emitter writing indented JSON.
type JSONEmitter struct {
	log ports.Logger
}

// NewEmitter creates a new JSONEmitter.
func NewEmitter(log ports.Logger) *JSONEmitter {
	return &JSONEmitter{log: log}
}

// Emit verifies the document, stamps its content hash and writes it to path.
// An empty path or "-" writes to stdout. An existing file written by a newer
// tool version is never overwritten.
func (e *JSONEmitter) Emit(ctx context.Context, doc *domain.PlanDocument, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := verify(doc); err != nil {
		return err
	}

	hash, err := contentHash(doc.Plans)
	if err != nil {
		return err
	}
	doc.ContentHash = hash

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to serialize plan document")
	}
	data = append(data, '\n')

	if path == "" || path == "-" {
		if _, err := os.Stdout.Write(data); err != nil {
			return zerr.Wrap(err, "failed to write plan document")
		}
		return nil
	}

	if err := checkOverwrite(path, doc.Version); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // plan output is not sensitive
		return zerr.Wrap(err, "failed to write plan document")
	}
	e.log.Info(fmt.Sprintf("wrote %d plans to %s (%s)", len(doc.Plans), path, hash))
	return nil
}

// contentHash digests the serialized plans. The hash covers the plans only, so
// re-stamping the tool version header does not change it.
func contentHash(plans []domain.Plan) (string, error) {
	data, err := json.Marshal(plans)
	if err != nil {
		return "", zerr.Wrap(err, "failed to serialize plans for hashing")
	}
	return fmt.Sprintf("xxh64:%016x", xxhash.Sum64(data)), nil
}

// verify checks the structural guarantees a plan document must hold before it
// may be written: every plan's unit keys are unique and every dependency
// reference lands on a unit of the same plan.
func verify(doc *domain.PlanDocument) error {
	for i := range doc.Plans {
		plan := &doc.Plans[i]
		keys := make(map[string]bool, len(plan.Units))
		for _, unit := range plan.Units {
			if keys[unit.Key] {
				return zerr.With(
					zerr.With(domain.ErrEmissionKeyCollision, "target", plan.Target),
					"key", unit.Key,
				)
			}
			keys[unit.Key] = true
		}
		for _, unit := range plan.Units {
			for _, dep := range unit.Deps {
				if !keys[dep.Key] {
					return zerr.With(
						zerr.With(
							zerr.With(domain.ErrDanglingDependency, "target", plan.Target),
							"package", unit.Key,
						),
						"dependency", dep.Key,
					)
				}
			}
		}
	}
	return nil
}

// checkOverwrite refuses to clobber a plan file produced by a newer tool.
// Files with an unparseable or non-semver version header are fair game.
func checkOverwrite(path, version string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return zerr.Wrap(err, "failed to read existing plan document")
	}

	var existing struct {
		Version string `json:"unify-version"`
	}
	if err := json.Unmarshal(data, &existing); err != nil {
		return nil
	}

	current, err := semver.NewVersion(version)
	if err != nil {
		return nil
	}
	previous, err := semver.NewVersion(existing.Version)
	if err != nil {
		return nil
	}
	if previous.GreaterThan(current) {
		return zerr.With(
			zerr.With(
				zerr.With(domain.ErrPlanVersionNewer, "path", path),
				"existing", existing.Version,
			),
			"current", version,
		)
	}
	return nil
}
