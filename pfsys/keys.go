package pfsys

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/kzg"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/test/unsafekzg"

	"github.com/zkmlio/zkml/fieldutils"
	"github.com/zkmlio/zkml/internal/ioutils"
	"github.com/zkmlio/zkml/logger"
)

// Params is the structured reference string pair PLONK setup and proving
// consume; the canonical SRS and its Lagrange form, tied to one curve.
type Params struct {
	CurveID     ecc.ID
	SRS         kzg.SRS
	SRSLagrange kzg.SRS
}

// GenParams generates an unsafe parameter pair sized for ccs. Test and
// development helper; production parameters come from a ceremony and load
// through LoadParams.
func GenParams(ccs constraint.ConstraintSystem) (*Params, error) {
	log := logger.Logger()
	start := time.Now()

	curveID := fieldutils.FieldToCurve(ccs.Field())
	srs, srsLagrange, err := unsafekzg.NewSRS(ccs)
	if err != nil {
		return nil, err
	}

	log.Debug().Dur("took", time.Since(start)).Str("curve", curveID.String()).Msg("unsafe kzg srs generated")
	return &Params{CurveID: curveID, SRS: srs, SRSLagrange: srsLagrange}, nil
}

// SaveParams writes the parameter pair to path, curve identifier first so a
// reader can fail fast on a curve mismatch.
func SaveParams(params *Params, path string) error {
	log := logger.Logger()
	start := time.Now()

	if err := ioutils.WriteFile(path, func(w io.Writer) error {
		if _, err := w.Write([]byte{byte(params.CurveID)}); err != nil {
			return err
		}
		if _, err := params.SRS.WriteTo(w); err != nil {
			return err
		}
		_, err := params.SRSLagrange.WriteTo(w)
		return err
	}); err != nil {
		return fmt.Errorf("save params %s: %w", path, err)
	}

	log.Debug().Dur("took", time.Since(start)).Str("path", path).Msg("params saved")
	return nil
}

// LoadParams reads a parameter pair written by SaveParams.
func LoadParams(path string, curveID ecc.ID) (*Params, error) {
	log := logger.Logger()
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if ecc.ID(tag) != curveID {
		return nil, fmt.Errorf("load params %s: %w", path, ErrInvalidCurve)
	}

	srs := kzg.NewSRS(curveID)
	if _, err := srs.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("load params %s: srs: %w", path, err)
	}
	srsLagrange := kzg.NewSRS(curveID)
	if _, err := srsLagrange.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("load params %s: lagrange srs: %w", path, err)
	}

	log.Debug().Dur("took", time.Since(start)).Str("path", path).Msg("params loaded")
	return &Params{CurveID: curveID, SRS: srs, SRSLagrange: srsLagrange}, nil
}

// SaveProvingKey writes pk to path with the raw point encoding.
func SaveProvingKey(pk plonk.ProvingKey, path string) error {
	log := logger.Logger()
	start := time.Now()

	if err := ioutils.WriteFile(path, func(w io.Writer) error {
		_, err := pk.WriteRawTo(w)
		return err
	}); err != nil {
		return fmt.Errorf("save proving key %s: %w", path, err)
	}

	log.Debug().Dur("took", time.Since(start)).Str("path", path).Msg("proving key saved")
	return nil
}

// LoadProvingKey reads a proving key written by SaveProvingKey. The raw
// encoding skips curve checks on load, so the file must come from a
// trusted writer.
func LoadProvingKey(path string, curveID ecc.ID) (plonk.ProvingKey, error) {
	log := logger.Logger()
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pk := plonk.NewProvingKey(curveID)
	if _, err := pk.UnsafeReadFrom(bufio.NewReader(f)); err != nil {
		return nil, fmt.Errorf("load proving key %s: %w", path, err)
	}

	log.Debug().Dur("took", time.Since(start)).Str("path", path).Msg("proving key loaded")
	return pk, nil
}

// SaveVerifyingKey writes vk to path with the raw point encoding.
func SaveVerifyingKey(vk plonk.VerifyingKey, path string) error {
	log := logger.Logger()
	start := time.Now()

	if err := ioutils.WriteFile(path, func(w io.Writer) error {
		_, err := vk.WriteRawTo(w)
		return err
	}); err != nil {
		return fmt.Errorf("save verifying key %s: %w", path, err)
	}

	log.Debug().Dur("took", time.Since(start)).Str("path", path).Msg("verifying key saved")
	return nil
}

// LoadVerifyingKey reads a verifying key written by SaveVerifyingKey. The
// raw encoding skips curve checks on load, so the file must come from a
// trusted writer.
func LoadVerifyingKey(path string, curveID ecc.ID) (plonk.VerifyingKey, error) {
	log := logger.Logger()
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vk := plonk.NewVerifyingKey(curveID)
	if _, err := vk.UnsafeReadFrom(bufio.NewReader(f)); err != nil {
		return nil, fmt.Errorf("load verifying key %s: %w", path, err)
	}

	log.Debug().Dur("took", time.Since(start)).Str("path", path).Msg("verifying key loaded")
	return vk, nil
}
