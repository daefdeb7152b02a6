package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/tanksim/internal/dynamo"
	"github.com/san-kum/tanksim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
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

type RunMetadata struct {
	ID         string             `json:"id"`
	Model      string             `json:"model"`
	Integrator string             `json:"integrator"`
	Timestamp  time.Time          `json:"timestamp"`
	Policy     string             `json:"policy"`
	Hold       string             `json:"hold"`
	Adaptive   bool               `json:"adaptive"`
	MaxStep    float64            `json:"max_step"`
	Samples    int                `json:"samples"`
	Duration   float64            `json:"duration"`
	InitState  []float64          `json:"init_state"`
	Params     map[string]float64 `json:"params"`
	Outputs    []string           `json:"outputs"`
	Stats      sim.Stats          `json:"stats"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes a run directory holding metadata.json and states.csv. The
// caller fills the scenario fields of meta; ID, timestamp, sizes, outputs,
// stats and metrics are taken from resp.
func (s *Store) Save(meta RunMetadata, resp *sim.Response) (string, error) {
	meta.ID = fmt.Sprintf("%s_%s", meta.Model, uuid.New().String()[:8])
	meta.Timestamp = time.Now()
	meta.Samples = resp.Len()
	if resp.Len() > 0 {
		meta.Duration = resp.Times[resp.Len()-1] - resp.Times[0]
	}
	meta.Outputs = resp.Names
	meta.Stats = resp.Stats
	meta.Metrics = finite(resp.Metrics)

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, statesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, resp); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// finite drops metrics JSON cannot carry.
func finite(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}

// WriteCSV writes one row per grid point: time, h1, h2, every named output
// as y:<name>, and the input u.
func WriteCSV(w io.Writer, resp *sim.Response) error {
	cw := csv.NewWriter(w)

	header := []string{"time", "h1", "h2"}
	for _, name := range resp.Names {
		header = append(header, "y:"+name)
	}
	header = append(header, "u")
	if err := cw.Write(header); err != nil {
		return err
	}

	format := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for i := range resp.Times {
		row := []string{format(resp.Times[i])}
		for _, val := range resp.States[i] {
			row = append(row, format(val))
		}
		for k := range resp.Names {
			row = append(row, format(resp.Outputs[k][i]))
		}
		row = append(row, format(resp.Inputs[i]))
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// List returns every readable run, newest first.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
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

// Resolve expands a unique run ID prefix to the full ID.
func (s *Store) Resolve(prefix string) (string, error) {
	if _, err := os.Stat(filepath.Join(s.baseDir, prefix, metadataFile)); err == nil {
		return prefix, nil
	}

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			matches = append(matches, entry.Name())
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no run matches %q", prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("run id %q is ambiguous (%d matches)", prefix, len(matches))
	}
}

// LoadResponse reads a saved run back into a Response.
func (s *Store) LoadResponse(runID string) (*sim.Response, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	resp, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", runID, err)
	}
	resp.System = meta.Model
	resp.Metrics = meta.Metrics
	resp.Stats = meta.Stats
	return resp, nil
}

// ReadCSV parses the layout written by WriteCSV.
func ReadCSV(r io.Reader) (*sim.Response, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("states csv is empty")
	}

	header := records[0]
	if len(header) < 4 || header[0] != "time" || header[len(header)-1] != "u" {
		return nil, fmt.Errorf("unexpected states csv header %v", header)
	}

	resp := &sim.Response{Metrics: map[string]float64{}}
	firstOutput := len(header) - 1
	for j, col := range header[1 : len(header)-1] {
		if name, ok := strings.CutPrefix(col, "y:"); ok {
			if firstOutput == len(header)-1 {
				firstOutput = j + 1
			}
			resp.Names = append(resp.Names, name)
		}
	}
	resp.Outputs = make([][]float64, len(resp.Names))

	for line, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("states csv line %d: %w", line+2, err)
			}
			vals[j] = v
		}

		resp.Times = append(resp.Times, vals[0])
		resp.States = append(resp.States, dynamo.State(vals[1:firstOutput]))
		for k := range resp.Names {
			resp.Outputs[k] = append(resp.Outputs[k], vals[firstOutput+k])
		}
		resp.Inputs = append(resp.Inputs, vals[len(vals)-1])
	}
	return resp, nil
}
