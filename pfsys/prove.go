package pfsys

import (
	"bytes"
	"fmt"
	"math/big"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/scs"

	"github.com/zkmlio/zkml/fieldutils"
	"github.com/zkmlio/zkml/logger"
)

// CheckMode selects how defensively proof generation runs.
type CheckMode uint8

const (
	// SAFE runs a witness satisfiability check before proving and verifies
	// the fresh proof before returning it.
	SAFE CheckMode = iota
	// UNSAFE skips both checks.
	UNSAFE
)

func (m CheckMode) String() string {
	switch m {
	case SAFE:
		return "safe"
	case UNSAFE:
		return "unsafe"
	default:
		return "unknown"
	}
}

// CompileCircuit compiles the circuit into a sparse constraint system over
// the curve's scalar field.
func CompileCircuit(circuit frontend.Circuit, curveID ecc.ID) (constraint.ConstraintSystem, error) {
	log := logger.Logger().With().Str("curve", curveID.String()).Logger()
	start := time.Now()

	ccs, err := frontend.Compile(curveID.ScalarField(), scs.NewBuilder, circuit)
	if err != nil {
		return nil, fmt.Errorf("compile circuit: %w", err)
	}

	log.Debug().Dur("took", time.Since(start)).Int("nbConstraints", ccs.GetNbConstraints()).Msg("circuit compiled")
	return ccs, nil
}

// CreateKeys runs the PLONK setup over a compiled circuit.
func CreateKeys(ccs constraint.ConstraintSystem, params *Params) (plonk.ProvingKey, plonk.VerifyingKey, error) {
	log := logger.Logger().With().Str("curve", params.CurveID.String()).Logger()
	start := time.Now()

	if curveID := fieldutils.FieldToCurve(ccs.Field()); curveID != params.CurveID {
		return nil, nil, fmt.Errorf("create keys: circuit compiled for %s, params for %s", curveID, params.CurveID)
	}
	pk, vk, err := plonk.Setup(ccs, params.SRS, params.SRSLagrange)
	if err != nil {
		return nil, nil, fmt.Errorf("plonk setup: %w", err)
	}

	log.Debug().Dur("took", time.Since(start)).Msg("keys created")
	return pk, vk, nil
}

// CreateProofCircuit generates a proof that assignment satisfies ccs and
// binds it to the prepared instance groups. The instances must flatten to
// the assignment's public values in group order.
//
// In SAFE mode the witness is solved against the constraint system and the
// instances are checked against the assignment's public values before any
// proving work, and the fresh proof is handed to strategy and the strategy
// finalized before it is returned. Failures of the two stages stay
// distinguishable; a bad witness surfaces as ErrMockCheck, a fresh proof
// that does not verify as ErrSelfVerify.
func CreateProofCircuit(
	ccs constraint.ConstraintSystem,
	assignment frontend.Circuit,
	instances [][]*big.Int,
	params *Params,
	pk plonk.ProvingKey,
	vk plonk.VerifyingKey,
	strategy VerificationStrategy,
	mode CheckMode,
	opts ...backend.ProverOption,
) (*Snark, error) {
	log := logger.Logger().With().Str("curve", params.CurveID.String()).Str("checkMode", mode.String()).Logger()
	start := time.Now()

	fullWitness, err := frontend.NewWitness(assignment, params.CurveID.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("build witness: %w", err)
	}

	counts := make([]uint32, len(instances))
	for i, group := range instances {
		counts[i] = uint32(len(group))
	}
	protocol, err := CompileProtocol(params, vk, counts)
	if err != nil {
		return nil, err
	}

	if mode == SAFE {
		if err := mockCheck(ccs, fullWitness, instances, opts...); err != nil {
			return nil, err
		}
	}

	proof, err := plonk.Prove(ccs, pk, fullWitness, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProve, err)
	}
	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode proof: %w", err)
	}

	snark := NewSnark(protocol, instances, buf.Bytes())

	if mode == SAFE {
		if err := VerifyProofCircuit(snark, params, vk, strategy); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSelfVerify, err)
		}
		if err := strategy.Finalize(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSelfVerify, err)
		}
	}

	log.Debug().Dur("took", time.Since(start)).Msg("proof created")
	return snark, nil
}

// mockCheck solves the witness over the constraint system and checks the
// prepared instances against the assignment's own public values.
func mockCheck(ccs constraint.ConstraintSystem, fullWitness witness.Witness, instances [][]*big.Int, opts ...backend.ProverOption) error {
	cfg, err := backend.NewProverConfig(opts...)
	if err != nil {
		return err
	}
	if err := ccs.IsSolved(fullWitness, cfg.SolverOpts...); err != nil {
		return fmt.Errorf("%w: %v", ErrMockCheck, err)
	}

	public, err := fullWitness.Public()
	if err != nil {
		return err
	}
	expected, err := instancesToWitness(fieldutils.FieldToCurve(ccs.Field()), instances)
	if err != nil {
		return err
	}
	got, err := public.MarshalBinary()
	if err != nil {
		return err
	}
	want, err := expected.MarshalBinary()
	if err != nil {
		return err
	}
	if !bytes.Equal(got, want) {
		return fmt.Errorf("%w: instances do not match the assignment's public values", ErrMockCheck)
	}
	return nil
}
