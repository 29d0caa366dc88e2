// Package mlmodel reads, writes and scores model bundles.
//
// A model bundle is a directory archived as an artifact. Its manifest,
// model.json, declares the kind of the model and its parameters.
package mlmodel

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

// ManifestFile is the name of the manifest inside a model bundle.
const ManifestFile = "model.json"

// Kinds of model a manifest can declare.
const (
	KindLinear   = "linear"
	KindLogistic = "logistic"
)

var (
	// ErrUnknownKind means the manifest declares a kind this build does not speak.
	ErrUnknownKind = errors.New("unknown model kind")

	// ErrWidthMismatch means a feature row does not fit the model.
	ErrWidthMismatch = errors.New("feature width mismatch")
)

func errWidthMismatch(want, got int) error {
	return fmt.Errorf("%w: model takes %d features, got %d", ErrWidthMismatch, want, got)
}

// Manifest is the content of model.json in a model bundle.
type Manifest struct {
	Kind      string    `json:"kind"`
	Features  []string  `json:"features"`
	Intercept float64   `json:"intercept"`
	Weights   []float64 `json:"weights"`

	// Classes are the labels of classifier output, in score order. Optional.
	Classes []string `json:"classes,omitempty"`
}

// Model is a loaded model. One Predict call scores one feature row.
type Model interface {
	// Features returns the names of input features,
	// in the order Predict takes them.
	Features() []string

	// Predict returns the model output for a feature row.
	//
	// # Args
	//
	// - x []float64: one feature row. Its width should equal len(Features()).
	//
	// # Returns
	//
	// - float64: the model output.
	//
	// - error: ErrWidthMismatch when the row width is wrong.
	Predict(x []float64) (float64, error)

	// Manifest returns the serializable form of this model.
	Manifest() Manifest
}

// FromManifest builds a Model out of a manifest.
func FromManifest(man Manifest) (Model, error) {
	switch man.Kind {
	case KindLinear:
		return NewLinearRegression(man.Features, man.Intercept, man.Weights)
	case KindLogistic:
		return NewLogisticRegression(man.Features, man.Intercept, man.Weights, man.Classes)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, man.Kind)
	}
}

// Load reads a manifest stream (the content of model.json) and builds the model.
func Load(r io.Reader) (Model, error) {
	man := Manifest{}
	if err := json.NewDecoder(r).Decode(&man); err != nil {
		return nil, fmt.Errorf("broken model manifest: %w", err)
	}
	return FromManifest(man)
}

// LoadBundle reads the manifest from an unpacked bundle directory.
func LoadBundle(dir string) (Model, error) {
	f, err := os.Open(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Save writes the manifest of m as model.json content.
func Save(w io.Writer, m Model) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m.Manifest())
}

// Probe scores a zero vector, proving the model answers at all.
func Probe(m Model) (float64, error) {
	return m.Predict(make([]float64, len(m.Features())))
}

// PredictBatch scores rows of X, fanning rows out over CPU cores.
//
// The output keeps row order. The first row error, if any, is returned
// and the output is dropped.
func PredictBatch(m Model, X [][]float64) ([]float64, error) {
	if len(X) == 0 {
		return nil, nil
	}
	out := make([]float64, len(X))
	errs := make([]error, len(X))
	wg := sync.WaitGroup{}

	workers := runtime.GOMAXPROCS(0)
	rowsPerWorker := (len(X) + workers - 1) / workers

	for w := 0; w < workers; w++ {
		s := w * rowsPerWorker
		e := s + rowsPerWorker
		if e > len(X) {
			e = len(X)
		}
		if s >= e {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				out[i], errs[i] = m.Predict(X[i])
			}
		}(s, e)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
