package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestPerspectiveZODepthRange(t *testing.T) {
	p := PerspectiveZO(mgl32.DegToRad(60), 1.5, 0.1, 50)

	depth := func(z float32) float32 {
		clip := p.Mul4x1(mgl32.Vec4{0, 0, z, 1})
		return clip.Z() / clip.W()
	}
	assert.InDelta(t, 0, depth(-0.1), 1e-5)
	assert.InDelta(t, 1, depth(-50), 1e-5)
	assert.Less(t, depth(-1), depth(-10))
}

func TestViewProjectionInverse(t *testing.T) {
	_, _, vp, inv := ViewProjection(
		mgl32.Vec3{2, 3, 4}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 1, 0},
		mgl32.DegToRad(45), 1, 0.1, 100,
	)
	assert.True(t, vp.Mul4(inv).ApproxEqualThreshold(mgl32.Ident4(), 1e-3))

	// the target lands in the middle of the screen
	clip := vp.Mul4x1(mgl32.Vec4{0, 1, 0, 1})
	assert.InDelta(t, 0, clip.X()/clip.W(), 1e-5)
	assert.InDelta(t, 0, clip.Y()/clip.W(), 1e-5)
}

func TestSliceToBytes(t *testing.T) {
	assert.Nil(t, SliceToBytes([]uint32{}))
	b := SliceToBytes([]uint32{1, 2})
	assert.Len(t, b, 8)
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Equal(t, 0, Coalesce(0, 0))
}
