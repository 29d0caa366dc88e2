package mlmodel_test

import (
	"math"
	"testing"

	"github.com/modelyard/modelyard/pkg/mlmodel"
	"github.com/modelyard/modelyard/pkg/utils/try"
)

func TestLinearRegressionFit(t *testing.T) {
	t.Run("it recovers y = 3x - 2 from samples", func(t *testing.T) {
		X := [][]float64{}
		y := []float64{}
		for i := 0; i <= 20; i++ {
			x := float64(i) / 20
			X = append(X, []float64{x})
			y = append(y, 3*x-2)
		}

		testee := try.To(mlmodel.NewLinearRegression(
			[]string{"x"}, 0, []float64{0},
		)).OrFatal(t)
		if err := testee.Fit(X, y, 0.5, 2000); err != nil {
			t.Fatal("failed to fit:", err)
		}

		for i, row := range X {
			got := try.To(testee.Predict(row)).OrFatal(t)
			if math.Abs(got-y[i]) > 0.01 {
				t.Errorf("prediction off at x=%f: (actual, expected) = (%f, %f)", row[0], got, y[i])
			}
		}
	})

	t.Run("when rows and targets disagree in count, it errors", func(t *testing.T) {
		testee := try.To(mlmodel.NewLinearRegression(
			[]string{"x"}, 0, []float64{0},
		)).OrFatal(t)
		if err := testee.Fit([][]float64{{1}, {2}}, []float64{1}, 0.1, 1); err == nil {
			t.Error("no error for mismatched training data")
		}
	})
}

func TestLogisticRegressionFit(t *testing.T) {
	t.Run("it separates labels by the sign of x", func(t *testing.T) {
		X := [][]float64{
			{-2}, {-1.5}, {-1}, {-0.5},
			{0.5}, {1}, {1.5}, {2},
		}
		y := []float64{0, 0, 0, 0, 1, 1, 1, 1}

		testee := try.To(mlmodel.NewLogisticRegression(
			[]string{"x"}, 0, []float64{0}, nil,
		)).OrFatal(t)
		if err := testee.Fit(X, y, 0.5, 2000); err != nil {
			t.Fatal("failed to fit:", err)
		}

		pred := try.To(mlmodel.PredictBatch(testee, X)).OrFatal(t)
		if acc := mlmodel.Accuracy(y, pred); acc != 1.0 {
			t.Errorf("accuracy unmatch: (actual, expected) = (%f, %f)", acc, 1.0)
		}

		if p := try.To(testee.PredictProba([]float64{2})).OrFatal(t); p < 0.8 {
			t.Errorf("probability too low for a clear positive: %f", p)
		}
		if p := try.To(testee.PredictProba([]float64{-2})).OrFatal(t); 0.2 < p {
			t.Errorf("probability too high for a clear negative: %f", p)
		}
	})
}
