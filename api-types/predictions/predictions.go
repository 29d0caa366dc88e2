package predictions

import "fmt"

// Request carries feature rows to score.
// Every row must have the same width.
type Request struct {
	Inputs [][]float64 `json:"inputs"`
}

func (r Request) Validate() error {
	if len(r.Inputs) == 0 {
		return fmt.Errorf("inputs: should not be empty")
	}
	width := len(r.Inputs[0])
	for i, row := range r.Inputs {
		if len(row) != width {
			return fmt.Errorf(
				"inputs: row %d has %d features, row 0 has %d",
				i, len(row), width,
			)
		}
	}
	return nil
}

// Response carries one output per input row, in order.
// Probabilities is set only for models that score class likelihoods.
type Response struct {
	Model         string      `json:"model"`
	Version       int         `json:"version"`
	Outputs       []float64   `json:"outputs"`
	Probabilities [][]float64 `json:"probabilities,omitempty"`
}
