package pfsys

import (
	"fmt"
	"math/big"
	"time"

	"github.com/consensys/gnark-crypto/ecc"

	"github.com/zkmlio/zkml/fieldutils"
	"github.com/zkmlio/zkml/graph"
	"github.com/zkmlio/zkml/logger"
	"github.com/zkmlio/zkml/tensor"
)

// PrepareInstances turns a model input record into the ordered field element
// instance groups a proof binds to; every public input group first, in input
// order, then every public output group, in output order. The ordering is a
// contract with the circuit, which lays out its public variables the same
// way.
//
// Inputs quantize at the run's global scale. Each output quantizes at its
// own scale from outScales, and when args.PackBase is above one the output
// vector is packed into a single element after bounding its largest packing
// exponent against the 128-bit intermediate range.
func PrepareInstances(input *ModelInput, vis graph.VarVisibility, args graph.RunArgs, outScales []uint, curveID ecc.ID) ([][]*big.Int, error) {
	log := logger.Logger().With().Str("curve", curveID.String()).Logger()
	start := time.Now()

	if err := input.Validate(); err != nil {
		return nil, err
	}
	q := curveID.ScalarField()
	var instances [][]*big.Int

	if vis.Input.IsPublic() {
		for i, values := range input.InputData {
			t, err := tensor.Quantize(values, input.InputShapes[i], 0, args.Scale)
			if err != nil {
				return nil, fmt.Errorf("quantize input %d: %w", i, err)
			}
			instances = append(instances, toFelts(t, q))
		}
	}

	if vis.Output.IsPublic() {
		if len(outScales) < len(input.OutputData) {
			return nil, fmt.Errorf("%w: %d outputs, %d output scales", ErrInvalidModelInput, len(input.OutputData), len(outScales))
		}
		for i, values := range input.OutputData {
			scale := outScales[i]
			t, err := tensor.Quantize(values, []int{len(values)}, 0, scale)
			if err != nil {
				return nil, fmt.Errorf("quantize output %d: %w", i, err)
			}
			if args.PackBase > 1 && t.Len() > 0 {
				// bound and packing stride both use this output's own scale
				if (t.Len()-1)*(int(scale)+1) > tensor.MaxExponent(args.PackBase) {
					return nil, fmt.Errorf("output %d: %w", i, ErrPackingExponent)
				}
				if t, err = tensor.Pack(t, args.PackBase, scale); err != nil {
					return nil, fmt.Errorf("pack output %d: %w", i, err)
				}
			}
			instances = append(instances, toFelts(t, q))
		}
	}

	log.Debug().Dur("took", time.Since(start)).Int("nbGroups", len(instances)).Msg("instances prepared")
	return instances, nil
}

func toFelts(t *tensor.Tensor, q *big.Int) []*big.Int {
	felts := make([]*big.Int, t.Len())
	for i, v := range t.Values() {
		felts[i] = fieldutils.IntToFelt(v, q)
	}
	return felts
}
