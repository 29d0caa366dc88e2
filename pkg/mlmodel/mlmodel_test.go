package mlmodel_test

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelyard/modelyard/pkg/mlmodel"
	"github.com/modelyard/modelyard/pkg/utils/try"
)

func TestLoad(t *testing.T) {
	t.Run("when it reads a linear manifest, the model scores rows with it", func(t *testing.T) {
		manifest := `{
			"kind": "linear",
			"features": ["rooms", "area"],
			"intercept": 1.5,
			"weights": [2.0, 0.5]
		}`
		testee := try.To(mlmodel.Load(strings.NewReader(manifest))).OrFatal(t)

		got := try.To(testee.Predict([]float64{3, 10})).OrFatal(t)
		want := 1.5 + 2.0*3 + 0.5*10
		if got != want {
			t.Errorf("prediction unmatch: (actual, expected) = (%f, %f)", got, want)
		}

		if features := testee.Features(); len(features) != 2 ||
			features[0] != "rooms" || features[1] != "area" {
			t.Errorf("features unmatch: %v", features)
		}
	})

	t.Run("when it reads a logistic manifest, the model classifies rows with it", func(t *testing.T) {
		manifest := `{
			"kind": "logistic",
			"features": ["score"],
			"intercept": 0,
			"weights": [10],
			"classes": ["reject", "accept"]
		}`
		testee := try.To(mlmodel.Load(strings.NewReader(manifest))).OrFatal(t)

		got := try.To(testee.Predict([]float64{1})).OrFatal(t)
		if got != 1 {
			t.Errorf("label unmatch: (actual, expected) = (%f, %f)", got, 1.0)
		}

		logistic, ok := testee.(*mlmodel.LogisticRegression)
		if !ok {
			t.Fatalf("unexpected model type: %T", testee)
		}
		proba := try.To(logistic.PredictProba([]float64{1})).OrFatal(t)
		if proba <= 0.5 || 1 < proba {
			t.Errorf("probability out of range: %f", proba)
		}
		if class, ok := logistic.ClassOf(got); !ok || class != "accept" {
			t.Errorf("class unmatch: (actual, expected) = (%s, %s)", class, "accept")
		}
	})

	t.Run("when the kind is unknown, it returns ErrUnknownKind", func(t *testing.T) {
		manifest := `{"kind": "perceptron", "features": [], "weights": []}`
		if _, err := mlmodel.Load(strings.NewReader(manifest)); !errors.Is(err, mlmodel.ErrUnknownKind) {
			t.Errorf("expected ErrUnknownKind, but got: %v", err)
		}
	})

	t.Run("when the manifest is not json, it errors", func(t *testing.T) {
		if _, err := mlmodel.Load(strings.NewReader("weights = oops")); err == nil {
			t.Error("no error for broken manifest")
		}
	})

	t.Run("when features and weights disagree in width, it errors", func(t *testing.T) {
		manifest := `{"kind": "linear", "features": ["a", "b"], "weights": [1]}`
		if _, err := mlmodel.Load(strings.NewReader(manifest)); err == nil {
			t.Error("no error for mismatched manifest")
		}
	})
}

func TestSave(t *testing.T) {
	t.Run("a saved model loads back and scores the same", func(t *testing.T) {
		original := try.To(mlmodel.NewLinearRegression(
			[]string{"x1", "x2", "x3"}, -0.5, []float64{1.25, 0, 3},
		)).OrFatal(t)

		buf := new(bytes.Buffer)
		if err := mlmodel.Save(buf, original); err != nil {
			t.Fatal("failed to save:", err)
		}
		loaded := try.To(mlmodel.Load(buf)).OrFatal(t)

		row := []float64{0.5, 100, -2}
		want := try.To(original.Predict(row)).OrFatal(t)
		got := try.To(loaded.Predict(row)).OrFatal(t)
		if got != want {
			t.Errorf("prediction unmatch: (actual, expected) = (%f, %f)", got, want)
		}
	})
}

func TestLoadBundle(t *testing.T) {
	t.Run("it reads model.json in the bundle directory", func(t *testing.T) {
		dir := t.TempDir()
		manifest := `{"kind": "linear", "features": ["x"], "intercept": 2, "weights": [3]}`
		if err := os.WriteFile(filepath.Join(dir, mlmodel.ManifestFile), []byte(manifest), 0644); err != nil {
			t.Fatal(err)
		}

		testee := try.To(mlmodel.LoadBundle(dir)).OrFatal(t)
		got := try.To(testee.Predict([]float64{4})).OrFatal(t)
		if want := 14.0; got != want {
			t.Errorf("prediction unmatch: (actual, expected) = (%f, %f)", got, want)
		}
	})

	t.Run("when model.json is missing, it errors", func(t *testing.T) {
		if _, err := mlmodel.LoadBundle(t.TempDir()); err == nil {
			t.Error("no error for empty bundle")
		}
	})
}

func TestProbe(t *testing.T) {
	t.Run("it scores a zero vector on a loadable model", func(t *testing.T) {
		testee := try.To(mlmodel.NewLinearRegression(
			[]string{"a", "b"}, 7, []float64{1, 2},
		)).OrFatal(t)

		got := try.To(mlmodel.Probe(testee)).OrFatal(t)
		if got != 7 {
			t.Errorf("probe output unmatch: (actual, expected) = (%f, %f)", got, 7.0)
		}
	})
}

func TestPredictWidth(t *testing.T) {
	t.Run("a wrong-width row reads as ErrWidthMismatch", func(t *testing.T) {
		linear := try.To(mlmodel.NewLinearRegression(
			[]string{"a", "b"}, 0, []float64{1, 1},
		)).OrFatal(t)
		if _, err := linear.Predict([]float64{1}); !errors.Is(err, mlmodel.ErrWidthMismatch) {
			t.Errorf("expected ErrWidthMismatch, but got: %v", err)
		}

		logistic := try.To(mlmodel.NewLogisticRegression(
			[]string{"a"}, 0, []float64{1}, nil,
		)).OrFatal(t)
		if _, err := logistic.Predict([]float64{1, 2, 3}); !errors.Is(err, mlmodel.ErrWidthMismatch) {
			t.Errorf("expected ErrWidthMismatch, but got: %v", err)
		}
	})
}

func TestPredictBatch(t *testing.T) {
	t.Run("it scores rows in order, same as one-by-one Predict", func(t *testing.T) {
		testee := try.To(mlmodel.NewLinearRegression(
			[]string{"x"}, 1, []float64{2},
		)).OrFatal(t)

		X := make([][]float64, 1000)
		for i := range X {
			X[i] = []float64{float64(i) / 10}
		}

		got := try.To(mlmodel.PredictBatch(testee, X)).OrFatal(t)
		if len(got) != len(X) {
			t.Fatalf("output length unmatch: (actual, expected) = (%d, %d)", len(got), len(X))
		}
		for i, row := range X {
			want := try.To(testee.Predict(row)).OrFatal(t)
			if math.Abs(got[i]-want) != 0 {
				t.Errorf("prediction unmatch at %d: (actual, expected) = (%f, %f)", i, got[i], want)
			}
		}
	})

	t.Run("when any row has a wrong width, it errors", func(t *testing.T) {
		testee := try.To(mlmodel.NewLinearRegression(
			[]string{"x"}, 0, []float64{1},
		)).OrFatal(t)

		X := [][]float64{{1}, {2, 3}, {4}}
		if _, err := mlmodel.PredictBatch(testee, X); !errors.Is(err, mlmodel.ErrWidthMismatch) {
			t.Errorf("expected ErrWidthMismatch, but got: %v", err)
		}
	})

	t.Run("empty input scores to nothing", func(t *testing.T) {
		testee := try.To(mlmodel.NewLinearRegression(
			[]string{"x"}, 0, []float64{1},
		)).OrFatal(t)

		got := try.To(mlmodel.PredictBatch(testee, nil)).OrFatal(t)
		if len(got) != 0 {
			t.Errorf("unexpected output: %v", got)
		}
	})
}
