package pfsys

import (
	"fmt"
	"math/big"
	"runtime"
	"sync"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/backend/witness"
	"golang.org/x/sync/errgroup"

	"github.com/zkmlio/zkml/logger"
)

// ProofJob is one verification unit handed to a strategy.
type ProofJob struct {
	Proof         plonk.Proof
	VerifyingKey  plonk.VerifyingKey
	PublicWitness witness.Witness
	Opts          []backend.VerifierOption
}

// VerificationStrategy decides how verification jobs run; inline one at a
// time, or queued and checked together.
type VerificationStrategy interface {
	// Process takes ownership of one job. An inline strategy verifies it
	// before returning, a batching strategy queues it.
	Process(job ProofJob) error
	// Finalize settles any queued jobs.
	Finalize() error
}

// SingleStrategy verifies each job inline as it arrives.
type SingleStrategy struct{}

func (SingleStrategy) Process(job ProofJob) error {
	if err := plonk.Verify(job.Proof, job.VerifyingKey, job.PublicWitness, job.Opts...); err != nil {
		return fmt.Errorf("%w: %v", ErrVerify, err)
	}
	return nil
}

func (SingleStrategy) Finalize() error { return nil }

// BatchStrategy queues jobs and verifies them in parallel on Finalize.
type BatchStrategy struct {
	mu    sync.Mutex
	jobs  []ProofJob
	limit int
}

// BatchOption configures a BatchStrategy.
type BatchOption func(*BatchStrategy)

// WithBatchLimit caps the number of verifications running in parallel
// during Finalize. Defaults to runtime.NumCPU().
func WithBatchLimit(n int) BatchOption {
	return func(s *BatchStrategy) { s.limit = n }
}

// NewBatchStrategy returns a strategy that defers verification until
// Finalize and runs the queued jobs in parallel.
func NewBatchStrategy(opts ...BatchOption) *BatchStrategy {
	s := &BatchStrategy{limit: runtime.NumCPU()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BatchStrategy) Process(job ProofJob) error {
	s.mu.Lock()
	s.jobs = append(s.jobs, job)
	s.mu.Unlock()
	return nil
}

// Finalize verifies every queued job and reports the first failure, tagged
// with its queue position. The queue resets either way.
func (s *BatchStrategy) Finalize() error {
	s.mu.Lock()
	jobs := s.jobs
	s.jobs = nil
	s.mu.Unlock()

	log := logger.Logger()
	start := time.Now()

	var g errgroup.Group
	g.SetLimit(s.limit)
	for i, job := range jobs {
		g.Go(func() error {
			if err := plonk.Verify(job.Proof, job.VerifyingKey, job.PublicWitness, job.Opts...); err != nil {
				return fmt.Errorf("proof %d: %w: %v", i, ErrVerify, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	log.Debug().Dur("took", time.Since(start)).Int("nbProofs", len(jobs)).Msg("batch verified")
	return nil
}

// VerifyProofCircuit checks an artifact against a verifying key under the
// given parameters and hands the verification job to strategy. With an
// inline strategy a nil return means the proof verified; with a batching
// strategy it means the job was accepted and the outcome arrives at
// Finalize. A cryptographic rejection surfaces as ErrVerify, anything else
// is a malformed artifact or context.
func VerifyProofCircuit(snark *Snark, params *Params, vk plonk.VerifyingKey, strategy VerificationStrategy, opts ...backend.VerifierOption) error {
	log := logger.Logger().With().Str("curve", snark.CurveID.String()).Logger()
	start := time.Now()

	if params.CurveID != snark.CurveID {
		return fmt.Errorf("verify: %w", ErrInvalidCurve)
	}
	if protocol, ok := snark.Protocol(); ok {
		if protocol.CurveID != snark.CurveID {
			return fmt.Errorf("verify: %w", ErrInvalidCurve)
		}
		if err := protocol.Match(snark.NumInstance()); err != nil {
			return fmt.Errorf("verify: %w", err)
		}
		if err := protocol.CheckKey(vk); err != nil {
			return fmt.Errorf("verify: %w", err)
		}
	} else {
		total := 0
		for _, group := range snark.Instances {
			total += len(group)
		}
		if nbPublic := vk.NbPublicWitness(); total != nbPublic {
			return fmt.Errorf("verify: %w: %d instance elements, verifying key wants %d", ErrInstanceMismatch, total, nbPublic)
		}
	}

	proof, err := decodeProof(snark)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	publicWitness, err := instancesToWitness(snark.CurveID, snark.Instances)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	if err := strategy.Process(ProofJob{
		Proof:         proof,
		VerifyingKey:  vk,
		PublicWitness: publicWitness,
		Opts:          opts,
	}); err != nil {
		return err
	}

	log.Debug().Dur("took", time.Since(start)).Msg("verifier done")
	return nil
}

// instancesToWitness lays the instance groups into a public only witness,
// flattened in group order.
func instancesToWitness(curveID ecc.ID, instances [][]*big.Int) (witness.Witness, error) {
	total := 0
	for _, group := range instances {
		total += len(group)
	}
	w, err := witness.New(curveID.ScalarField())
	if err != nil {
		return nil, err
	}
	values := make(chan any, total)
	go func() {
		for _, group := range instances {
			for _, felt := range group {
				values <- felt
			}
		}
		close(values)
	}()
	if err := w.Fill(total, 0, values); err != nil {
		return nil, err
	}
	return w, nil
}
