package pfsys

import (
	"fmt"
	"io"
	"time"

	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/backend/solidity"

	"github.com/zkmlio/zkml/logger"
)

// ExportVerifier writes a Solidity verifier contract for vk to w. Proofs
// meant for the contract must be generated with
// solidity.WithProverTargetSolidityVerifier so the transcript hashing
// matches what the contract recomputes.
func ExportVerifier(vk plonk.VerifyingKey, w io.Writer, opts ...solidity.ExportOption) error {
	log := logger.Logger()
	start := time.Now()

	if err := vk.ExportSolidity(w, opts...); err != nil {
		return fmt.Errorf("export solidity verifier: %w", err)
	}

	log.Debug().Dur("took", time.Since(start)).Msg("solidity verifier exported")
	return nil
}
