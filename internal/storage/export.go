package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/bounce/internal/dynamo"
)

type ExportBody struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	Radius float64 `json:"radius,omitempty"`
	Mass   float64 `json:"mass,omitempty"`
}

type ExportFrame struct {
	Time   float64      `json:"time"`
	Bodies []ExportBody `json:"bodies"`
}

type ExportData struct {
	RunMetadata
	Frames []ExportFrame `json:"frames"`
}

func NewExportData(meta RunMetadata, frames []dynamo.Frame) ExportData {
	data := ExportData{
		RunMetadata: meta,
		Frames:      make([]ExportFrame, len(frames)),
	}
	for i, f := range frames {
		ef := ExportFrame{Time: f.Time, Bodies: make([]ExportBody, len(f.Bodies))}
		for j, b := range f.Bodies {
			ef.Bodies[j] = ExportBody{
				X:      b.Pos.X,
				Y:      b.Pos.Y,
				VX:     b.Vel.X,
				VY:     b.Vel.Y,
				Radius: b.Radius,
				Mass:   b.Mass,
			}
		}
		data.Frames[i] = ef
	}
	return data
}

func WriteJSON(w io.Writer, data ExportData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportJSON writes a stored run to path, or to stdout when path is empty.
func (s *Store) ExportJSON(runID, path string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	frames, err := s.LoadFrames(runID)
	if err != nil {
		return err
	}
	data := NewExportData(*meta, frames)

	if path == "" {
		return WriteJSON(os.Stdout, data)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := WriteJSON(f, data); err != nil {
		return err
	}
	return f.Close()
}

// ExportCSV copies the frames table of a run to w.
func (s *Store) ExportCSV(runID string, w io.Writer) error {
	f, err := os.Open(s.FramesPath(runID))
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}
