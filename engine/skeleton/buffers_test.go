package skeleton

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferSizes(t *testing.T) {
	for _, n := range []int{0, 1, 3, 17} {
		s := newTestSkeleton(t, chainDefs(n, mgl32.Vec3{}))
		slots := n + HandleSlotCount

		assert.Equal(t, slots, s.InstanceSlotCount())
		assert.Len(t, s.BoneTranslations(), 3*slots)
		assert.Len(t, s.BoneRotations(), 4*slots)
		assert.Len(t, s.BoneHighlights(), 4*slots)
	}
}

func TestHighlightExclusivity(t *testing.T) {
	s := newTestSkeleton(t, forkDefs())
	for b := range s.BoneCount() {
		require.NoError(t, s.SetHighlightedBone(b))
		colors := s.BoneHighlights()
		for i := range s.BoneCount() {
			var want [4]float32
			if i == b {
				want = HighlightColor
			} else {
				want = DefaultColor
			}
			assert.Equal(t, want[:], colors[i*4:i*4+4], "highlight %d slot %d", b, i)
		}
		for k := range HandleSlotCount {
			i := s.BoneCount() + k
			assert.Equal(t, HandleColor[:], colors[i*4:i*4+4])
		}
	}

	s.ClearHighlightedBone()
	colors := s.BoneHighlights()
	for i := range s.BoneCount() {
		assert.Equal(t, DefaultColor[:], colors[i*4:i*4+4])
	}
}

func TestCustomColors(t *testing.T) {
	bone := [4]float32{0, 0, 0, 1}
	hl := [4]float32{1, 0, 0, 1}
	handle := [4]float32{0, 1, 0, 0.5}
	s := newTestSkeleton(t, chainDefs(2, mgl32.Vec3{}), WithColors(bone, hl, handle))
	require.NoError(t, s.SetHighlightedBone(1))

	assert.Equal(t, []float32{
		0, 0, 0, 1,
		1, 0, 0, 1,
		0, 1, 0, 0.5,
		0, 1, 0, 0.5,
		0, 1, 0, 0.5,
		0, 1, 0, 0.5,
	}, s.BoneHighlights())
}

func TestTranslationsAndRotations(t *testing.T) {
	s := newTestSkeleton(t, chainDefs(2, mgl32.Vec3{0, 1, 0}))
	q := mgl32.QuatRotate(0.5, mgl32.Vec3{0, 0, 1})
	require.NoError(t, s.RotateBone(0, q))

	tr := s.BoneTranslations()
	rot := s.BoneRotations()
	for i := range s.BoneCount() {
		assertVec(t, s.Bone(i).JointPosition(), mgl32.Vec3{tr[i*3], tr[i*3+1], tr[i*3+2]})
		w := s.Bone(i).WorldRotation()
		assert.Equal(t, []float32{w.V[0], w.V[1], w.V[2], w.W}, rot[i*4:i*4+4])
	}
}

func TestHandlesOffscreenWithoutHighlight(t *testing.T) {
	s := newTestSkeleton(t, chainDefs(3, mgl32.Vec3{}))
	tr := s.BoneTranslations()
	for _, v := range tr[3*s.BoneCount():] {
		assert.Equal(t, OffscreenDistance, v)
	}

	rot := s.BoneRotations()
	for k := range HandleSlotCount {
		i := s.BoneCount() + k
		assert.Equal(t, []float32{0, 0, 0, 1}, rot[i*4:i*4+4])
	}

	custom := newTestSkeleton(t, chainDefs(1, mgl32.Vec3{}), WithOffscreenDistance(-500))
	for _, v := range custom.BoneTranslations()[3:] {
		assert.Equal(t, float32(-500), v)
	}
}

func TestHandlesAroundHighlightedBone(t *testing.T) {
	tests := []struct {
		name   string
		rotate mgl32.Quat
	}{
		// a vertical bone is parallel to the helper direction and takes the fallback
		{name: "along helper", rotate: mgl32.QuatIdent()},
		{name: "tilted", rotate: mgl32.QuatRotate(0.8, mgl32.Vec3{1, 0, 1}.Normalize())},
		{name: "horizontal", rotate: mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSkeleton(t, chainDefs(2, mgl32.Vec3{}), WithHandleRadius(0.3))
			require.NoError(t, s.RotateBone(0, tt.rotate))
			require.NoError(t, s.SetHighlightedBone(1))

			b := s.Bone(1)
			mid := b.Midpoint()
			axis := b.Axis()
			tr := s.BoneTranslations()
			rot := s.BoneRotations()

			var offsets []mgl32.Vec3
			for k := range HandleSlotCount {
				i := s.BoneCount() + k
				p := mgl32.Vec3{tr[i*3], tr[i*3+1], tr[i*3+2]}
				off := p.Sub(mid)
				offsets = append(offsets, off)

				assert.InDelta(t, 0.3, off.Len(), tol, "handle %d distance", k)
				assert.InDelta(t, 0, off.Dot(axis), tol, "handle %d perpendicular", k)

				w := b.WorldRotation()
				assert.Equal(t, []float32{w.V[0], w.V[1], w.V[2], w.W}, rot[i*4:i*4+4])
			}

			// opposite pairs and the two pairs at right angles
			assertVec(t, mgl32.Vec3{}, offsets[0].Add(offsets[1]))
			assertVec(t, mgl32.Vec3{}, offsets[2].Add(offsets[3]))
			assert.InDelta(t, 0, offsets[0].Dot(offsets[2]), tol)
		})
	}
}

func TestHandleBasisZeroAxis(t *testing.T) {
	u, v := handleBasis(mgl32.Vec3{})
	assert.Equal(t, handleFallback, u)
	assert.InDelta(t, 1, v.Len(), tol)
	assert.InDelta(t, 0, u.Dot(v), tol)
}

func TestProxyBuffers(t *testing.T) {
	indices := []uint32{0, 1, 2}
	positions := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 2, 0,
	}
	s := newTestSkeleton(t, chainDefs(2, mgl32.Vec3{}), WithProxyGeometry(indices, positions))

	idx := s.BoneIndexBuffer()
	require.Len(t, idx, 3*ProxyReplication)
	for k := range ProxyReplication {
		base := uint32(3 * k)
		assert.Equal(t, []uint32{base, base + 1, base + 2}, idx[k*3:k*3+3], "copy %d indices", k)
	}

	pos := s.BonePositionBuffer()
	require.Len(t, pos, 9*ProxyReplication)
	assert.Equal(t, positions, pos[:9])
	for k := 1; k < ProxyReplication; k++ {
		assert.Equal(t, []float32{0, 0, 0, HandleScale, 0, 0, 0, 2 * HandleScale, 0}, pos[k*9:k*9+9], "copy %d positions", k)
	}

	attr := s.BoneIndexAttribute()
	require.Len(t, attr, 3*ProxyReplication)
	for i, v := range attr {
		assert.Equal(t, float32(i/3), v)
	}

	// the option copies its input
	positions[3] = 42
	assert.Equal(t, float32(1), s.BonePositionBuffer()[3])
}

func TestProxyBuffersRejectMalformedGeometry(t *testing.T) {
	_, err := NewSkeleton(chainDefs(1, mgl32.Vec3{}), WithProxyGeometry([]uint32{0}, []float32{0, 0}))
	assert.True(t, errors.Is(err, ErrInvalidProxyGeometry))

	_, err = NewSkeleton(chainDefs(1, mgl32.Vec3{}), WithProxyGeometry([]uint32{0, 1, 3}, make([]float32, 9)))
	assert.True(t, errors.Is(err, ErrInvalidProxyGeometry))
}
