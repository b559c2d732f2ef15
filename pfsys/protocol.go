package pfsys

import (
	"fmt"
	"io"
	"os"

	"github.com/blang/semver/v4"
	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/sha3"

	"github.com/zkmlio/zkml"
	"github.com/zkmlio/zkml/internal/ioutils"
	"github.com/zkmlio/zkml/logger"
)

// Protocol describes the public surface a proof is checked against; the
// curve, the per group instance counts committed at proving time, and a
// digest binding the description to the verifying key it was compiled from.
// Recompiling from the same key, parameters and counts lands on an identical
// description, which is what lets an artifact be re-verified after a
// restart.
type Protocol struct {
	// serialization header
	ZkmlVersion string

	CurveID     ecc.ID
	NumInstance []uint32
	VkDigest    [32]byte
}

// CompileProtocol derives the protocol description of a circuit shape from
// verifier side parameters, the verifying key and the declared per group
// element counts. The counts must sum to the key's public witness size.
func CompileProtocol(params *Params, vk plonk.VerifyingKey, numInstance []uint32) (*Protocol, error) {
	total := 0
	for _, n := range numInstance {
		total += int(n)
	}
	if nbPublic := vk.NbPublicWitness(); total != nbPublic {
		return nil, fmt.Errorf("%w: %d instance elements, verifying key wants %d", ErrInstanceMismatch, total, nbPublic)
	}
	digest, err := vkDigest(vk)
	if err != nil {
		return nil, err
	}
	return &Protocol{
		ZkmlVersion: zkml.Version.String(),
		CurveID:     params.CurveID,
		NumInstance: append([]uint32(nil), numInstance...),
		VkDigest:    digest,
	}, nil
}

// Match checks an instance layout against the one committed at compile
// time, group by group.
func (p *Protocol) Match(numInstance []uint32) error {
	if len(numInstance) != len(p.NumInstance) {
		return fmt.Errorf("%w: %d groups, protocol wants %d", ErrInstanceMismatch, len(numInstance), len(p.NumInstance))
	}
	for i, n := range numInstance {
		if n != p.NumInstance[i] {
			return fmt.Errorf("%w: group %d has %d elements, protocol wants %d", ErrInstanceMismatch, i, n, p.NumInstance[i])
		}
	}
	return nil
}

// CheckKey checks that vk is the verifying key the protocol was compiled
// from.
func (p *Protocol) CheckKey(vk plonk.VerifyingKey) error {
	digest, err := vkDigest(vk)
	if err != nil {
		return err
	}
	if digest != p.VkDigest {
		return ErrProtocolMismatch
	}
	return nil
}

func vkDigest(vk plonk.VerifyingKey) ([32]byte, error) {
	var digest [32]byte
	h := sha3.New256()
	if _, err := vk.WriteTo(h); err != nil {
		return digest, err
	}
	copy(digest[:], h.Sum(nil))
	return digest, nil
}

// Save writes the protocol to path; the curve identifier is encoded in the
// first bytes so a reader can fail fast on a curve mismatch.
func (p *Protocol) Save(path string) error {
	return ioutils.WriteFile(path, func(w io.Writer) error {
		enc, err := cbor.CoreDetEncOptions().EncMode()
		if err != nil {
			return err
		}
		encoder := enc.NewEncoder(w)
		if err := encoder.Encode(p.CurveID); err != nil {
			return err
		}
		return encoder.Encode(p)
	})
}

// LoadProtocol reads a protocol back and checks it was serialized with the
// expected curve. A version mismatch with the running binary is logged, not
// rejected.
func LoadProtocol(path string, curveID ecc.ID) (*Protocol, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dm, err := cbor.DecOptions{
		MaxArrayElements: 2147483647,
		MaxMapPairs:      2147483647,
	}.DecMode()
	if err != nil {
		return nil, err
	}
	decoder := dm.NewDecoder(f)

	var storedID ecc.ID
	if err := decoder.Decode(&storedID); err != nil {
		return nil, err
	}
	if storedID != curveID {
		return nil, ErrInvalidCurve
	}

	var p Protocol
	if err := decoder.Decode(&p); err != nil {
		return nil, err
	}
	if err := p.checkSerializationHeader(); err != nil {
		return nil, err
	}
	return &p, nil
}

// checkSerializationHeader parses the version header; a mismatch with the
// running binary carries no compatibility guarantees.
func (p *Protocol) checkSerializationHeader() error {
	binaryVersion := zkml.Version
	objectVersion, err := semver.Parse(p.ZkmlVersion)
	if err != nil {
		return fmt.Errorf("when parsing zkml version: %w", err)
	}

	if binaryVersion.Compare(objectVersion) != 0 {
		log := logger.Logger()
		log.Warn().Str("binary", binaryVersion.String()).Str("object", objectVersion.String()).Msg("zkml version (binary) mismatch with protocol. there are no guarantees on compatibility")
	}
	return nil
}
