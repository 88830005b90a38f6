package tensor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVector_BinaryRoundTrip(t *testing.T) {
	v := Vector{1, NA(), -3.5, 0}
	data, err := v.MarshalBinary()
	require.NoError(t, err)

	var got Vector
	require.NoError(t, got.UnmarshalBinary(data))
	assert.True(t, v.Equal(got))
}

func TestVector_EqualDistinguishesNAFromZero(t *testing.T) {
	assert.True(t, Vector{NA()}.Equal(Vector{NA()}))
	assert.False(t, Vector{NA()}.Equal(Vector{0}))
	assert.False(t, Vector{1}.Equal(Vector{1, 2}))
}

func TestVector_JSON(t *testing.T) {
	v := NewVectorFilled(3, NA())
	v[1] = 2

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `[null,2,null]`, string(data))

	var got Vector
	require.NoError(t, json.Unmarshal(data, &got))
	assert.True(t, v.Equal(got))
}

func TestVector_Clone(t *testing.T) {
	v := Vector{1, 2}
	cp := v.Clone()
	cp[0] = 9
	assert.Equal(t, 1.0, v[0])
	assert.Nil(t, Vector(nil).Clone())
}
