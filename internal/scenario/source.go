package scenario

import (
	"context"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/threatsim/threatsim/internal/types"
)

// Source supplies fully validated scenarios to the engine.
// The engine never parses raw scenario files itself.
type Source interface {
	// Load returns a validated scenario by reference. The returned scenario
	// must pass Validate and is owned by the caller.
	Load(ctx context.Context, ref string) (*ThreatScenario, error)
}

// FileSource loads scenarios from YAML files on disk.
type FileSource struct{}

// NewFileSource creates a file-backed scenario source.
func NewFileSource() *FileSource {
	return &FileSource{}
}

// Load reads, decodes, and validates the scenario at path.
// Missing IDs and timestamps are filled in before validation.
func (s *FileSource) Load(ctx context.Context, path string) (*ThreatScenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapError(types.SCENARIO_LOAD_FAILED, "failed to read scenario file", err)
	}

	var sc ThreatScenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, types.WrapError(types.SCENARIO_LOAD_FAILED, "failed to decode scenario YAML", err)
	}

	if sc.ID.IsZero() {
		sc.ID = types.NewID()
	}
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = time.Now().UTC()
	}

	if err := sc.Validate(); err != nil {
		return nil, err
	}

	return &sc, nil
}
