package store

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/helixflock/internal/analysis"
	"github.com/san-kum/helixflock/internal/dynamo"
)

type ExportData struct {
	Mode      string               `json:"mode"`
	Seed      int64                `json:"seed"`
	Particles int                  `json:"particles"`
	Dt        float64              `json:"dt"`
	Duration  float64              `json:"duration"`
	Frames    int                  `json:"frames"`
	Params    dynamo.Params        `json:"params"`
	Fields    []dynamo.ForceField  `json:"fields"`
	Metrics   map[string]float64   `json:"metrics"`
	Final     analysis.Summary     `json:"final"`
	Errors    []string             `json:"errors,omitempty"`
	History   map[string][]float64 `json:"history,omitempty"`
}

// RunInfo is what the caller knows about a run that Result does not carry.
type RunInfo struct {
	Mode      dynamo.Mode
	Seed      int64
	Particles int
	Params    dynamo.Params
	Fields    []dynamo.ForceField
	Final     analysis.Summary
}

func NewExportData(info RunInfo, cfg dynamo.RunConfig, result *dynamo.Result, withHistory bool) ExportData {
	data := ExportData{
		Mode:      string(info.Mode),
		Seed:      info.Seed,
		Particles: info.Particles,
		Dt:        cfg.Dt,
		Duration:  cfg.Duration,
		Frames:    result.Frames,
		Params:    info.Params,
		Fields:    info.Fields,
		Metrics:   result.Metrics,
		Final:     info.Final,
	}
	for _, err := range result.Errors {
		data.Errors = append(data.Errors, err.Error())
	}
	if withHistory {
		data.History = result.History
	}
	return data
}

func WriteJSON(w io.Writer, data ExportData) error {
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
	return WriteJSON(file, data)
}
