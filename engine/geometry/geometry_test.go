package geometry

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAttribute(t *testing.T, name string, values []float32, itemSize int) *Attribute {
	t.Helper()
	a, err := NewAttribute(name, values, itemSize)
	require.NoError(t, err)
	return a
}

func TestNewAttribute(t *testing.T) {
	values := []float32{1, 2, 3, 4, 5, 6}
	a := mustAttribute(t, "position", values, 3)

	assert.Equal(t, 2, a.Count())
	assert.Equal(t, 3, a.ItemSize())
	assert.Equal(t, 6, a.Len())
	assert.Equal(t, []float32{4, 5, 6}, a.At(1))
	assert.Nil(t, a.At(2))
	assert.Nil(t, a.At(-1))

	// the attribute owns its storage
	values[0] = 99
	assert.Equal(t, float32(1), a.Values()[0])
	a.Values()[0] = 42
	assert.Equal(t, float32(1), a.At(0)[0])
}

func TestNewAttributeStride(t *testing.T) {
	_, err := NewAttribute("normal", []float32{1, 2, 3, 4}, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAttributeStride))

	_, err = NewAttribute("normal", []float32{1}, 0)
	assert.True(t, errors.Is(err, ErrAttributeStride))
}

func TestNewMeshGeometry(t *testing.T) {
	pos := mustAttribute(t, AttributePosition, make([]float32, 9), 3)
	nrm := mustAttribute(t, AttributeNormal, make([]float32, 9), 3)
	uv := mustAttribute(t, AttributeUV, make([]float32, 4), 2)
	idx := mustAttribute(t, AttributeSkinIndex, make([]float32, 12), 4)
	wgt := mustAttribute(t, AttributeSkinWeight, make([]float32, 12), 4)
	v := mustAttribute(t, AttributeV0, make([]float32, 9), 3)

	g, err := NewMeshGeometry(
		WithPosition(pos),
		WithNormal(nrm),
		WithUV(uv),
		WithSkin(idx, wgt),
		WithLocalFrames(v, v, v, v),
	)
	require.NoError(t, err)

	assert.Equal(t, 3, g.VertexCount())
	assert.Same(t, uv, g.UV())
	assert.Same(t, v, g.LocalFrame(3))
	assert.Nil(t, g.LocalFrame(4))
	assert.Equal(t, []string{
		AttributePosition, AttributeNormal, AttributeUV, AttributeSkinIndex, AttributeSkinWeight,
		AttributeV0, AttributeV1, AttributeV2, AttributeV3,
	}, g.AttributeNames())
	assert.Len(t, g.Attributes(), 9)
}

func TestNewMeshGeometryCountMismatch(t *testing.T) {
	pos := mustAttribute(t, AttributePosition, make([]float32, 9), 3)
	nrm := mustAttribute(t, AttributeNormal, make([]float32, 6), 3)

	_, err := NewMeshGeometry(WithPosition(pos), WithNormal(nrm))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAttributeCount))

	_, err = NewMeshGeometry(WithNormal(nrm))
	assert.True(t, errors.Is(err, ErrAttributeCount))
}
