package mlmodel

import (
	"fmt"
	"math"
)

// LogisticRegression scores a feature row as sigmoid(intercept + w . x).
//
// Predict returns the class label (0 or 1) at the 0.5 cut.
// PredictProba returns the probability of class 1.
type LogisticRegression struct {
	features  []string
	intercept float64
	weights   []float64
	classes   []string
}

func NewLogisticRegression(features []string, intercept float64, weights []float64, classes []string) (*LogisticRegression, error) {
	if len(features) != len(weights) {
		return nil, fmt.Errorf(
			"manifest mismatch: %d features vs %d weights",
			len(features), len(weights),
		)
	}
	if len(classes) != 0 && len(classes) != 2 {
		return nil, fmt.Errorf("binary classifier takes 2 classes, got %d", len(classes))
	}
	return &LogisticRegression{
		features:  features,
		intercept: intercept,
		weights:   weights,
		classes:   classes,
	}, nil
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

func (m *LogisticRegression) Features() []string {
	return m.features
}

// PredictProba returns the probability of class 1 for a feature row.
func (m *LogisticRegression) PredictProba(x []float64) (float64, error) {
	if len(x) != len(m.weights) {
		return 0, errWidthMismatch(len(m.weights), len(x))
	}
	z := m.intercept
	for j, v := range x {
		z += m.weights[j] * v
	}
	return sigmoid(z), nil
}

func (m *LogisticRegression) Predict(x []float64) (float64, error) {
	p, err := m.PredictProba(x)
	if err != nil {
		return 0, err
	}
	if p >= 0.5 {
		return 1, nil
	}
	return 0, nil
}

func (m *LogisticRegression) Manifest() Manifest {
	return Manifest{
		Kind:      KindLogistic,
		Features:  append([]string{}, m.features...),
		Intercept: m.intercept,
		Weights:   append([]float64{}, m.weights...),
		Classes:   append([]string{}, m.classes...),
	}
}

// ClassOf maps a Predict output to its label, when classes are declared.
func (m *LogisticRegression) ClassOf(label float64) (string, bool) {
	i := int(label)
	if i < 0 || len(m.classes) <= i {
		return "", false
	}
	return m.classes[i], true
}

// Fit adjusts weights by full-batch gradient descent over binary cross-entropy.
//
// Targets in y should be 0 or 1.
func (m *LogisticRegression) Fit(X [][]float64, y []float64, lr float64, epochs int) error {
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
			p, err := m.PredictProba(row)
			if err != nil {
				return err
			}
			d := (p - y[i]) / float64(len(X))
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

var _ Model = &LogisticRegression{}
