package mlmodel

import (
	"fmt"
)

// LinearRegression scores a feature row as intercept + w . x .
type LinearRegression struct {
	features  []string
	intercept float64
	weights   []float64
}

func NewLinearRegression(features []string, intercept float64, weights []float64) (*LinearRegression, error) {
	if len(features) != len(weights) {
		return nil, fmt.Errorf(
			"manifest mismatch: %d features vs %d weights",
			len(features), len(weights),
		)
	}
	return &LinearRegression{
		features:  features,
		intercept: intercept,
		weights:   weights,
	}, nil
}

func (m *LinearRegression) Features() []string {
	return m.features
}

func (m *LinearRegression) Predict(x []float64) (float64, error) {
	if len(x) != len(m.weights) {
		return 0, errWidthMismatch(len(m.weights), len(x))
	}
	sum := m.intercept
	for j, v := range x {
		sum += m.weights[j] * v
	}
	return sum, nil
}

func (m *LinearRegression) Manifest() Manifest {
	return Manifest{
		Kind:      KindLinear,
		Features:  append([]string{}, m.features...),
		Intercept: m.intercept,
		Weights:   append([]float64{}, m.weights...),
	}
}

// Fit adjusts weights by full-batch gradient descent over MSE.
//
// Serving never trains. This is for tests and bundle generators.
func (m *LinearRegression) Fit(X [][]float64, y []float64, lr float64, epochs int) error {
	if len(X) != len(y) {
		return fmt.Errorf("row count mismatch: %d rows vs %d targets", len(X), len(y))
	}
	if len(X) == 0 {
		return nil
	}
	for ep := 0; ep < epochs; ep++ {
		gW := make([]float64, len(m.weights))
		gb := 0.0
		for i, row := range X {
			yhat, err := m.Predict(row)
			if err != nil {
				return err
			}
			d := 2 * (yhat - y[i]) / float64(len(X))
			for j, xij := range row {
				gW[j] += d * xij
			}
			gb += d
		}
		for j := range m.weights {
			m.weights[j] -= lr * gW[j]
		}
		m.intercept -= lr * gb
	}
	return nil
}

var _ Model = &LinearRegression{}
