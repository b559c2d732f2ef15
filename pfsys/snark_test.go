package pfsys_test

import (
	"bytes"
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/zkmlio/zkml/fieldutils"
	"github.com/zkmlio/zkml/pfsys"
)

func TestSnarkSaveLoad(t *testing.T) {
	assert := require.New(t)
	s, snark, instances := testSnark(t)
	path := filepath.Join(t.TempDir(), "proof.json")

	assert.NoError(snark.Save(path))

	// context free load keeps instances and proof but carries no protocol
	bare, err := pfsys.LoadSnark(path, ecc.BN254, nil, nil)
	assert.NoError(err)
	_, ok := bare.Protocol()
	assert.False(ok)
	assert.Equal(snark.Proof, bare.Proof)
	assert.Len(bare.Instances, len(instances))
	for i := range instances {
		assert.Len(bare.Instances[i], len(instances[i]))
		for j := range instances[i] {
			assert.Zero(instances[i][j].Cmp(bare.Instances[i][j]))
		}
	}

	// loading with key context recompiles the protocol and the artifact
	// verifies again
	full, err := pfsys.LoadSnark(path, ecc.BN254, s.params, s.vk)
	assert.NoError(err)
	protocol, ok := full.Protocol()
	assert.True(ok)
	assert.NoError(protocol.CheckKey(s.vk))
	assert.NoError(pfsys.VerifyProofCircuit(full, s.params, s.vk, pfsys.SingleStrategy{}))
}

func TestSnarkSaveIsAtomic(t *testing.T) {
	assert := require.New(t)
	_, snark, _ := testSnark(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "proof.json")

	assert.NoError(snark.Save(path))
	assert.NoError(snark.Save(path))

	entries, err := os.ReadDir(dir)
	assert.NoError(err)
	assert.Len(entries, 1)
}

func TestSnarkbytesEncoding(t *testing.T) {
	assert := require.New(t)
	_, snark, _ := testSnark(t)

	sb := snark.Bytes()
	b, err := json.Marshal(&sb)
	assert.NoError(err)

	// bytes appear as plain number arrays, not base64 strings
	var decoded struct {
		NumInstance []uint32  `json:"num_instance"`
		Instances   [][][]int `json:"instances"`
		Proof       []int     `json:"proof"`
	}
	assert.NoError(json.Unmarshal(b, &decoded))
	assert.Equal([]uint32{4, 1}, decoded.NumInstance)
	assert.Len(decoded.Instances, 2)
	assert.Len(decoded.Instances[0], 4)
	assert.Len(decoded.Instances[0][0], 32)
	assert.NotEmpty(decoded.Proof)
	for _, v := range decoded.Proof {
		assert.GreaterOrEqual(v, 0)
		assert.LessOrEqual(v, 255)
	}
}

func TestRawBytesRejectsOutOfRange(t *testing.T) {
	assert := require.New(t)

	var rb pfsys.RawBytes
	assert.NoError(json.Unmarshal([]byte("[0,127,255]"), &rb))
	assert.Equal(pfsys.RawBytes{0, 127, 255}, rb)

	assert.Error(json.Unmarshal([]byte("[256]"), &rb))
	assert.Error(json.Unmarshal([]byte("[-1]"), &rb))
	assert.Error(json.Unmarshal([]byte(`"AQID"`), &rb))
}

func TestSnarkbytesRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	properties.Property("unmarshal(marshal(snarkbytes)) == snarkbytes", prop.ForAll(
		func(proof []byte, element []byte) bool {
			sb := pfsys.Snarkbytes{
				NumInstance: []uint32{1},
				Instances:   [][]pfsys.RawBytes{{pfsys.RawBytes(element)}},
				Proof:       pfsys.RawBytes(proof),
			}
			b, err := json.Marshal(&sb)
			if err != nil {
				return false
			}
			var decoded pfsys.Snarkbytes
			if err := json.Unmarshal(b, &decoded); err != nil {
				return false
			}
			return bytes.Equal(decoded.Proof, sb.Proof) &&
				len(decoded.Instances) == 1 &&
				bytes.Equal(decoded.Instances[0][0], sb.Instances[0][0])
		},
		gen.SliceOf(gen.UInt8()),
		gen.SliceOf(gen.UInt8()),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestSnarkPersistenceRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)
	q := ecc.BN254.ScalarField()
	dir := t.TempDir()

	properties.Property("load(save(snark)) preserves instances and proof", prop.ForAll(
		func(groups [][]int64, proof []byte) bool {
			s := &pfsys.Snark{
				CurveID:   ecc.BN254,
				Instances: make([][]*big.Int, len(groups)),
				Proof:     proof,
			}
			for i, group := range groups {
				s.Instances[i] = make([]*big.Int, len(group))
				for j, v := range group {
					s.Instances[i][j] = fieldutils.IntToFelt(big.NewInt(v), q)
				}
			}
			path := filepath.Join(dir, "roundtrip.json")
			if err := s.Save(path); err != nil {
				return false
			}
			loaded, err := pfsys.LoadSnark(path, ecc.BN254, nil, nil)
			if err != nil {
				return false
			}
			if !bytes.Equal(loaded.Proof, s.Proof) || len(loaded.Instances) != len(s.Instances) {
				return false
			}
			for i := range s.Instances {
				if len(loaded.Instances[i]) != len(s.Instances[i]) {
					return false
				}
				for j := range s.Instances[i] {
					if loaded.Instances[i][j].Cmp(s.Instances[i][j]) != 0 {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.SliceOf(gen.Int64())),
		gen.SliceOf(gen.UInt8()),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestLoadSnarkRejectsLayoutLies(t *testing.T) {
	assert := require.New(t)
	_, snark, _ := testSnark(t)
	path := filepath.Join(t.TempDir(), "proof.json")

	sb := snark.Bytes()
	sb.NumInstance[0] = 3
	b, err := json.Marshal(&sb)
	assert.NoError(err)
	assert.NoError(os.WriteFile(path, b, 0o600))

	_, err = pfsys.LoadSnark(path, ecc.BN254, nil, nil)
	assert.ErrorIs(err, pfsys.ErrInstanceMismatch)
}
