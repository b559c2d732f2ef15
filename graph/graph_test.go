package graph

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestVisibilityJSON(t *testing.T) {
	assert := require.New(t)

	b, err := json.Marshal(Public)
	assert.NoError(err)
	assert.JSONEq(`"public"`, string(b))

	var v Visibility
	assert.NoError(json.Unmarshal([]byte(`"private"`), &v))
	assert.Equal(Private, v)
	assert.False(v.IsPublic())

	assert.Error(json.Unmarshal([]byte(`"bogus"`), &v))
}

func TestRunArgsJSON(t *testing.T) {
	assert := require.New(t)
	args := DefaultRunArgs()

	b, err := json.Marshal(args)
	assert.NoError(err)
	for _, key := range []string{"tolerance", "scale", "bits", "logrows", "pack_base", "public_inputs", "public_outputs"} {
		assert.Contains(string(b), `"`+key+`"`)
	}

	var decoded RunArgs
	assert.NoError(json.Unmarshal(b, &decoded))
	if diff := cmp.Diff(args, decoded); diff != "" {
		t.Fatalf("run args changed during round trip (-want +got):\n%s", diff)
	}
}

func TestDefaultRunArgs(t *testing.T) {
	assert := require.New(t)
	args := DefaultRunArgs()

	assert.Equal(uint(7), args.Scale)
	assert.Equal(uint(17), args.LogRows)
	assert.True(args.PublicInputs)
	assert.True(args.PublicOutputs)

	vis := args.Visibility()
	assert.True(vis.Input.IsPublic())
	assert.True(vis.Output.IsPublic())

	args.PublicInputs = false
	vis = args.Visibility()
	assert.False(vis.Input.IsPublic())
	assert.True(vis.Output.IsPublic())
}
