package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/bounce/internal/config"
	"github.com/san-kum/bounce/internal/dynamo"
	"github.com/san-kum/bounce/internal/sim"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type BodyInfo struct {
	Radius float64 `json:"radius"`
	Mass   float64 `json:"mass"`
}

type RunMetadata struct {
	ID             string             `json:"id"`
	Scene          string             `json:"scene"`
	Timestamp      time.Time          `json:"timestamp"`
	Seed           int64              `json:"seed"`
	Dt             float64            `json:"dt"`
	Duration       float64            `json:"duration"`
	Steps          int                `json:"steps"`
	Arena          config.ArenaConfig `json:"arena"`
	Bodies         []BodyInfo         `json:"bodies"`
	BallCollisions int                `json:"ball_collisions"`
	WallCollisions int                `json:"wall_collisions"`
	Metrics        map[string]float64 `json:"metrics"`
}

func (s *Store) Save(scene string, cfg *config.Config, result *sim.Result) (string, error) {
	runID, runDir, err := s.newRunDir(scene)
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:             runID,
		Scene:          scene,
		Timestamp:      time.Now(),
		Seed:           cfg.Seed,
		Dt:             cfg.TimeStep(),
		Duration:       cfg.Duration,
		Steps:          result.StepsTaken,
		Arena:          cfg.Arena,
		BallCollisions: result.BallCollisions,
		WallCollisions: result.WallCollisions,
		Metrics:        result.Metrics,
	}
	if len(result.Frames) > 0 {
		for _, b := range result.Frames[0].Bodies {
			meta.Bodies = append(meta.Bodies, BodyInfo{Radius: b.Radius, Mass: b.Mass})
		}
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, framesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteFramesCSV(csvFile, result.Frames); err != nil {
		return "", err
	}
	return runID, csvFile.Close()
}

func (s *Store) newRunDir(scene string) (string, string, error) {
	if err := s.Init(); err != nil {
		return "", "", err
	}
	base := fmt.Sprintf("%s_%d", scene, time.Now().Unix())
	runID := base
	for i := 1; ; i++ {
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", "", err
		}
		runID = fmt.Sprintf("%s_%d", base, i)
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

// WriteFramesCSV writes one row per frame: time then x, y, vx, vy for each
// body in index order.
func WriteFramesCSV(out io.Writer, frames []dynamo.Frame) error {
	w := csv.NewWriter(out)
	if len(frames) == 0 {
		w.Flush()
		return w.Error()
	}

	header := []string{"time"}
	for i := range frames[0].Bodies {
		header = append(header,
			fmt.Sprintf("x%d", i), fmt.Sprintf("y%d", i),
			fmt.Sprintf("vx%d", i), fmt.Sprintf("vy%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, f := range frames {
		row := make([]string, 0, len(header))
		row = append(row, formatFloat(f.Time))
		for _, b := range f.Bodies {
			row = append(row, formatFloat(b.Pos.X), formatFloat(b.Pos.Y), formatFloat(b.Vel.X), formatFloat(b.Vel.Y))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns stored runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadFrames rebuilds the recorded frames of a run. Colors and events are
// not stored.
func (s *Store) LoadFrames(runID string) ([]dynamo.Frame, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(s.FramesPath(runID))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []dynamo.Frame{}, nil
	}

	frames := make([]dynamo.Frame, 0, len(records)-1)
	for i, record := range records[1:] {
		if (len(record)-1)%4 != 0 {
			return nil, fmt.Errorf("%s row %d: %d columns", framesFile, i+1, len(record))
		}
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d col %d: %w", framesFile, i+1, j, err)
			}
			vals[j] = v
		}

		n := (len(vals) - 1) / 4
		f := dynamo.Frame{Step: i, Time: vals[0], Bodies: make([]dynamo.BodyState, n)}
		for k := 0; k < n; k++ {
			b := dynamo.BodyState{
				ID:  k,
				Pos: dynamo.Vec2{X: vals[1+4*k], Y: vals[2+4*k]},
				Vel: dynamo.Vec2{X: vals[3+4*k], Y: vals[4+4*k]},
			}
			if k < len(meta.Bodies) {
				b.Radius = meta.Bodies[k].Radius
				b.Mass = meta.Bodies[k].Mass
			}
			f.Bodies[k] = b
		}
		frames = append(frames, f)
	}
	return frames, nil
}

func (s *Store) FramesPath(runID string) string {
	return filepath.Join(s.baseDir, runID, framesFile)
}
