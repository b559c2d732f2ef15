package pfsys

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/zkmlio/zkml/logger"
)

// ModelInput is the record a model run hands over for proving; the floating
// point inputs the model was evaluated on, their shapes, and the outputs the
// run produced. OutputData may be empty when outputs are not constrained as
// public instances.
type ModelInput struct {
	InputData   [][]float64 `json:"input_data"`
	InputShapes [][]int     `json:"input_shapes"`
	OutputData  [][]float64 `json:"output_data"`
}

// LoadModelInput reads and validates a model input record from a JSON file.
func LoadModelInput(path string) (*ModelInput, error) {
	log := logger.Logger()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var input ModelInput
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidModelInput, path, err)
	}
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	log.Debug().Str("path", path).
		Int("nbInputs", len(input.InputData)).
		Int("nbOutputs", len(input.OutputData)).
		Msg("loaded model input")
	return &input, nil
}

// Validate checks the shape contract; one shape per input, each declaring
// exactly the element count of its data vector.
func (m *ModelInput) Validate() error {
	if len(m.InputData) != len(m.InputShapes) {
		return fmt.Errorf("%w: %d inputs, %d shapes", ErrInvalidModelInput, len(m.InputData), len(m.InputShapes))
	}
	for i, shape := range m.InputShapes {
		n := 1
		for _, d := range shape {
			if d < 0 {
				return fmt.Errorf("%w: input %d has negative dimension %d", ErrInvalidModelInput, i, d)
			}
			n *= d
		}
		if n != len(m.InputData[i]) {
			return fmt.Errorf("%w: input %d has %d values, shape %v wants %d", ErrInvalidModelInput, i, len(m.InputData[i]), shape, n)
		}
	}
	return nil
}
