package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/tanksim/internal/sim"
)

type ExportData struct {
	Model      string               `json:"model"`
	Integrator string               `json:"integrator,omitempty"`
	Samples    int                  `json:"samples"`
	Times      []float64            `json:"times"`
	Outputs    map[string][]float64 `json:"outputs"`
	States     [][]float64          `json:"states"`
	Inputs     []float64            `json:"inputs"`
	Stats      sim.Stats            `json:"stats"`
	Metrics    map[string]float64   `json:"metrics"`
}

// ExportJSON writes resp as one indented JSON document.
func ExportJSON(w io.Writer, integrator string, resp *sim.Response) error {
	data := ExportData{
		Model:      resp.System,
		Integrator: integrator,
		Samples:    resp.Len(),
		Times:      resp.Times,
		Outputs:    make(map[string][]float64, len(resp.Names)),
		States:     make([][]float64, len(resp.States)),
		Inputs:     resp.Inputs,
		Stats:      resp.Stats,
		Metrics:    finite(resp.Metrics),
	}

	for k, name := range resp.Names {
		data.Outputs[name] = resp.Outputs[k]
	}
	for i, s := range resp.States {
		data.States[i] = s
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
