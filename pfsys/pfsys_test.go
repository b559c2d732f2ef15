package pfsys_test

import (
	"math/big"
	"sync"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/stretchr/testify/require"

	"github.com/zkmlio/zkml/graph"
	"github.com/zkmlio/zkml/pfsys"
	"github.com/zkmlio/zkml/tensor"
)

const testScale = 7

// linearModel is a one neuron fixed point model, y = w.x + b. Inputs and
// weights carry scale testScale, bias and output carry twice that, so the
// relation holds exactly over the integers. Weights and bias stay private.
type linearModel struct {
	X [4]frontend.Variable `gnark:",public"`
	Y frontend.Variable    `gnark:",public"`
	W [4]frontend.Variable
	B frontend.Variable
}

func (c *linearModel) Define(api frontend.API) error {
	acc := frontend.Variable(0)
	for i := range c.X {
		acc = api.Add(acc, api.Mul(c.X[i], c.W[i]))
	}
	acc = api.Add(acc, c.B)
	api.AssertIsEqual(c.Y, acc)
	return nil
}

// affineModel has the same shape as linearModel but subtracts the bias, so
// it compiles to a different verifying key over the same domain size.
type affineModel struct {
	X [4]frontend.Variable `gnark:",public"`
	Y frontend.Variable    `gnark:",public"`
	W [4]frontend.Variable
	B frontend.Variable
}

func (c *affineModel) Define(api frontend.API) error {
	acc := frontend.Variable(0)
	for i := range c.X {
		acc = api.Add(acc, api.Mul(c.X[i], c.W[i]))
	}
	acc = api.Sub(acc, c.B)
	api.AssertIsEqual(c.Y, acc)
	return nil
}

var testWeights = []float64{1, 0.5, 0.25, -0.125}

const testBias = 0.0625

func testInput() *pfsys.ModelInput {
	return &pfsys.ModelInput{
		InputData:   [][]float64{{0.5, 1, -0.25, 2}},
		InputShapes: [][]int{{4}},
		OutputData:  [][]float64{{0.75}},
	}
}

func testRunArgs() graph.RunArgs {
	args := graph.DefaultRunArgs()
	args.Scale = testScale
	return args
}

func testAssignment(assert *require.Assertions) *linearModel {
	input := testInput()
	xq, err := tensor.Quantize(input.InputData[0], []int{4}, 0, testScale)
	assert.NoError(err)
	yq, err := tensor.Quantize(input.OutputData[0], []int{1}, 0, 2*testScale)
	assert.NoError(err)
	wq, err := tensor.Quantize(testWeights, []int{4}, 0, testScale)
	assert.NoError(err)
	bq, err := tensor.Quantize([]float64{testBias}, []int{1}, 0, 2*testScale)
	assert.NoError(err)

	var m linearModel
	for i := 0; i < 4; i++ {
		m.X[i] = xq.At(i)
		m.W[i] = wq.At(i)
	}
	m.Y = yq.At(0)
	m.B = bq.At(0)
	return &m
}

type testSetup struct {
	ccs    constraint.ConstraintSystem
	params *pfsys.Params
	pk     plonk.ProvingKey
	vk     plonk.VerifyingKey
}

var (
	setupOnce sync.Once
	setup     *testSetup
	setupErr  error
)

// sharedSetup compiles the test model and runs the trusted setup once for
// the whole package.
func sharedSetup(t *testing.T) *testSetup {
	t.Helper()
	setupOnce.Do(func() {
		ccs, err := pfsys.CompileCircuit(&linearModel{}, ecc.BN254)
		if err != nil {
			setupErr = err
			return
		}
		params, err := pfsys.GenParams(ccs)
		if err != nil {
			setupErr = err
			return
		}
		pk, vk, err := pfsys.CreateKeys(ccs, params)
		if err != nil {
			setupErr = err
			return
		}
		setup = &testSetup{ccs: ccs, params: params, pk: pk, vk: vk}
	})
	require.NoError(t, setupErr)
	return setup
}

func testInstances(t *testing.T) [][]*big.Int {
	t.Helper()
	args := testRunArgs()
	instances, err := pfsys.PrepareInstances(testInput(), args.Visibility(), args, []uint{2 * testScale}, ecc.BN254)
	require.NoError(t, err)
	return instances
}

func testSnark(t *testing.T) (*testSetup, *pfsys.Snark, [][]*big.Int) {
	t.Helper()
	assert := require.New(t)
	s := sharedSetup(t)

	instances := testInstances(t)
	snark, err := pfsys.CreateProofCircuit(s.ccs, testAssignment(assert), instances, s.params, s.pk, s.vk, pfsys.SingleStrategy{}, pfsys.SAFE)
	assert.NoError(err)
	return s, snark, instances
}

// deepCopy clones an artifact so a test can tamper with it without
// touching the original.
func deepCopy(s *pfsys.Snark) *pfsys.Snark {
	c := *s
	c.Proof = append([]byte(nil), s.Proof...)
	c.Instances = make([][]*big.Int, len(s.Instances))
	for i, group := range s.Instances {
		c.Instances[i] = make([]*big.Int, len(group))
		for j, v := range group {
			c.Instances[i][j] = new(big.Int).Set(v)
		}
	}
	return &c
}
