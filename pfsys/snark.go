package pfsys

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"strconv"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/plonk"

	"github.com/zkmlio/zkml/fieldutils"
	"github.com/zkmlio/zkml/internal/ioutils"
	"github.com/zkmlio/zkml/logger"
)

// Snark is a generated proof together with the public instances it binds
// to. The protocol description travels with artifacts produced at proving
// time or loaded with key and parameter context; Protocol reports whether
// one is attached.
type Snark struct {
	CurveID   ecc.ID
	Instances [][]*big.Int
	Proof     []byte

	protocol *Protocol
}

// NewSnark assembles a proving time artifact.
func NewSnark(protocol *Protocol, instances [][]*big.Int, proof []byte) *Snark {
	return &Snark{
		CurveID:   protocol.CurveID,
		Instances: instances,
		Proof:     proof,
		protocol:  protocol,
	}
}

// Protocol returns the protocol description compiled when the artifact was
// created or loaded, and whether one is attached.
func (s *Snark) Protocol() (*Protocol, bool) {
	return s.protocol, s.protocol != nil
}

// SaveProtocol writes the attached protocol description to path, so a
// verifier can reload the artifact without key material at hand.
func (s *Snark) SaveProtocol(path string) error {
	protocol, ok := s.Protocol()
	if !ok {
		return ErrMissingProtocol
	}
	return protocol.Save(path)
}

// NumInstance returns the element count of each instance group.
func (s *Snark) NumInstance() []uint32 {
	counts := make([]uint32, len(s.Instances))
	for i, group := range s.Instances {
		counts[i] = uint32(len(group))
	}
	return counts
}

// Snarkbytes is the on disk form of a Snark; per group element counts, the
// canonical bytes of every instance element and the raw proof.
type Snarkbytes struct {
	NumInstance []uint32     `json:"num_instance"`
	Instances   [][]RawBytes `json:"instances"`
	Proof       RawBytes     `json:"proof"`
}

// RawBytes marshals as a plain JSON array of numbers instead of the base64
// string encoding/json uses for byte slices, which keeps the on disk form
// readable next to the instance encodings.
type RawBytes []byte

func (b RawBytes) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, len(b)*4+2)
	buf = append(buf, '[')
	for i, v := range b {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendUint(buf, uint64(v), 10)
	}
	return append(buf, ']'), nil
}

func (b *RawBytes) UnmarshalJSON(data []byte) error {
	var values []int
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	out := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return fmt.Errorf("byte value %d out of range", v)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}

// Bytes returns the serializable form of the artifact. Instance elements
// are encoded with the fixed width canonical encoding of the curve's scalar
// field.
func (s *Snark) Bytes() Snarkbytes {
	q := s.CurveID.ScalarField()
	sb := Snarkbytes{
		NumInstance: s.NumInstance(),
		Instances:   make([][]RawBytes, len(s.Instances)),
		Proof:       RawBytes(s.Proof),
	}
	for i, group := range s.Instances {
		sb.Instances[i] = make([]RawBytes, len(group))
		for j, felt := range group {
			sb.Instances[i][j] = fieldutils.FeltBytes(felt, q)
		}
	}
	return sb
}

// Save writes the artifact to path. The write is atomic; a crash mid write
// leaves any previous artifact at path intact.
func (s *Snark) Save(path string) error {
	log := logger.Logger()
	start := time.Now()

	sb := s.Bytes()
	if err := ioutils.WriteFileAtomic(path, func(w io.Writer) error {
		return json.NewEncoder(w).Encode(&sb)
	}); err != nil {
		return fmt.Errorf("save proof %s: %w", path, err)
	}

	log.Debug().Dur("took", time.Since(start)).Str("path", path).Msg("proof saved")
	return nil
}

// LoadSnark reads an artifact back under the given curve. When both params
// and vk are supplied the protocol description is recompiled from them and
// the recorded element counts, and the returned artifact is protocol aware.
// With either absent the artifact stays protocol-less; instances and proof
// are available for re-serialization or for a verifier that supplies its
// own context, but protocol aware operations refuse it.
func LoadSnark(path string, curveID ecc.ID, params *Params, vk plonk.VerifyingKey) (*Snark, error) {
	log := logger.Logger()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sb Snarkbytes
	if err := json.Unmarshal(data, &sb); err != nil {
		return nil, fmt.Errorf("load proof %s: %v", path, err)
	}
	if len(sb.NumInstance) != len(sb.Instances) {
		return nil, fmt.Errorf("load proof %s: %w: %d counts, %d groups", path, ErrInstanceMismatch, len(sb.NumInstance), len(sb.Instances))
	}

	s := &Snark{
		CurveID:   curveID,
		Instances: make([][]*big.Int, len(sb.Instances)),
		Proof:     []byte(sb.Proof),
	}
	for i, group := range sb.Instances {
		if int(sb.NumInstance[i]) != len(group) {
			return nil, fmt.Errorf("load proof %s: %w: group %d records %d elements, holds %d", path, ErrInstanceMismatch, i, sb.NumInstance[i], len(group))
		}
		s.Instances[i] = make([]*big.Int, len(group))
		for j, raw := range group {
			s.Instances[i][j] = fieldutils.FeltFromBytes(raw)
		}
	}

	if params != nil && vk != nil {
		if params.CurveID != curveID {
			return nil, fmt.Errorf("load proof %s: %w", path, ErrInvalidCurve)
		}
		protocol, err := CompileProtocol(params, vk, sb.NumInstance)
		if err != nil {
			return nil, fmt.Errorf("load proof %s: %w", path, err)
		}
		s.protocol = protocol
	}

	log.Debug().Str("path", path).Bool("protocol", s.protocol != nil).Msg("proof loaded")
	return s, nil
}
