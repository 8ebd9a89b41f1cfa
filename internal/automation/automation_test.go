package automation

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/bounce/internal/config"
	"github.com/san-kum/bounce/internal/experiment"
	"github.com/san-kum/bounce/internal/storage"
)

var quiet = log.New(io.Discard)

func TestParseScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: demo
steps:
  - preset: headon
    duration: 1
    seed: 3
    save_as: headon_run
  - preset: wall
    engine: chipmunk
    duration: 0.5
`))
	require.NoError(t, err)
	assert.Equal(t, "demo", sc.Name)
	require.Len(t, sc.Steps, 2)
	require.NotNil(t, sc.Steps[0].Seed)
	assert.Equal(t, int64(3), *sc.Steps[0].Seed)
	assert.Nil(t, sc.Steps[1].Seed)
	assert.Equal(t, "chipmunk", sc.Steps[1].Engine)

	_, err = ParseScenario([]byte("name: empty\n"))
	assert.Error(t, err)
	_, err = ParseScenario([]byte("steps:\n  - preset: wall\n    duration: -1\n"))
	assert.Error(t, err)
}

func TestLoadScenarioResolvesConfigPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("steps:\n  - config: scenes/a.yaml\n"), 0o644))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "scenes", "a.yaml"), sc.Steps[0].Config)
}

func TestRunScenario(t *testing.T) {
	seed := int64(5)
	sc := &Scenario{Steps: []ScenarioStep{
		{Preset: "headon", Duration: 1, Seed: &seed, SaveAs: "hit"},
		{Preset: "wall", Duration: 0.5, Engine: experiment.EngineChipmunk},
	}}
	store := storage.New(t.TempDir())

	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), store, quiet)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "headon", results[0].Scene)
	assert.NotEmpty(t, results[0].RunID)
	assert.Equal(t, 60, results[0].Result.StepsTaken)
	assert.Empty(t, results[1].RunID)
	assert.Equal(t, 30, results[1].Result.StepsTaken)

	meta, err := store.Load(results[0].RunID)
	require.NoError(t, err)
	assert.Equal(t, "hit", meta.Scene)
	assert.Equal(t, seed, meta.Seed)
}

func TestRunScenarioStopsOnBadStep(t *testing.T) {
	sc := &Scenario{Steps: []ScenarioStep{
		{Preset: "wall", Duration: 0.1},
		{Preset: "missing"},
	}}
	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), nil, quiet)
	assert.Error(t, err)
	assert.Len(t, results, 1)
}

func TestRunSweep(t *testing.T) {
	sweep := &ParameterSweep{
		Scene:     config.GetPreset("wall"),
		ParamName: "speed",
		ParamMin:  0.5,
		ParamMax:  2,
		NumSteps:  4,
		Duration:  2,
	}
	results, err := RunSweep(context.Background(), sweep, quiet)
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, 0.5, results[0].ParamValue)
	assert.Equal(t, 2.0, results[3].ParamValue)
	assert.GreaterOrEqual(t, results[3].WallCollisions, results[0].WallCollisions)
	for _, r := range results {
		assert.LessOrEqual(t, r.MinEnergy, r.MaxEnergy)
	}

	sweep.ParamName = "friction"
	_, err = RunSweep(context.Background(), sweep, quiet)
	assert.Error(t, err)

	sweep.ParamName, sweep.NumSteps = "gravity", 1
	_, err = RunSweep(context.Background(), sweep, quiet)
	assert.Error(t, err)
}

func TestRunMonteCarlo(t *testing.T) {
	results, err := RunMonteCarlo(context.Background(), &MonteCarloConfig{
		Scene:        config.DefaultConfig(),
		Perturbation: 0.5,
		NumTrials:    6,
		Duration:     2,
		Seed:         10,
		Parallel:     2,
	})
	require.NoError(t, err)
	require.Len(t, results, 6)
	for i, r := range results {
		assert.Equal(t, int64(10+i), r.Seed)
		assert.Positive(t, r.Collisions)
	}

	contained, escaped := MonteCarloStats(results)
	assert.Equal(t, 6, contained)
	assert.Equal(t, 0, escaped)
}
