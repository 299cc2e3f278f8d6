package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/roadsim/internal/sim"
)

type ExportData struct {
	Run      *RunMetadata       `json:"run,omitempty"`
	Frames   int                `json:"frames"`
	Best     int                `json:"best"`
	BestY    float64            `json:"best_y"`
	Distance float64            `json:"distance"`
	Damaged  int                `json:"damaged"`
	Metrics  map[string]float64 `json:"metrics"`
	History  []GenerationRecord `json:"history,omitempty"`
}

// Summary collects the result of a run for export.
func Summary(meta *RunMetadata, result *sim.Result) ExportData {
	return ExportData{
		Run:      meta,
		Frames:   result.Frames,
		Best:     result.Best,
		BestY:    result.BestY,
		Distance: result.Distance,
		Damaged:  result.Damaged,
		Metrics:  result.Metrics,
	}
}

func Export(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, data ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return Export(file, data)
}
