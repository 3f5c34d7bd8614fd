package skeleton

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unitZBone returns the single bone of a skeleton running from the origin to (0, 0, 1).
func unitZBone(t *testing.T) (Skeleton, *Bone) {
	t.Helper()
	s := newTestSkeleton(t, []BoneDefinition{
		{Parent: NoBone, RestJoint: mgl32.Vec3{0, 0, 0}, RestEndpoint: mgl32.Vec3{0, 0, 1}},
	})
	return s, s.Bone(0)
}

func TestIntersect(t *testing.T) {
	const r = DefaultCylinderRadius
	const eps = float32(1e-3)
	_, b := unitZBone(t)

	tests := []struct {
		name      string
		origin    mgl32.Vec3
		direction mgl32.Vec3
		hit       bool
		distance  float32
	}{
		{
			name:      "grazing approach hits just short of the axis",
			origin:    mgl32.Vec3{r + 0.01, 0, 0.5},
			direction: mgl32.Vec3{-1, 0, 0},
			hit:       true,
			distance:  0.01,
		},
		{
			name:      "unnormalized direction",
			origin:    mgl32.Vec3{2, 0, 0.25},
			direction: mgl32.Vec3{-4, 0, 0},
			hit:       true,
			distance:  2 - r,
		},
		{
			name:      "passes just outside the radius",
			origin:    mgl32.Vec3{r + 0.01, r + eps, 0.5},
			direction: mgl32.Vec3{-1, 0, 0},
		},
		{
			name:      "pointing away from the bone",
			origin:    mgl32.Vec3{0, 0, 0.5},
			direction: mgl32.Vec3{1, 0, 0},
		},
		{
			name:      "bone behind the origin",
			origin:    mgl32.Vec3{1, 0, 0.5},
			direction: mgl32.Vec3{1, 0, 0},
		},
		{
			name:      "beyond the endpoint",
			origin:    mgl32.Vec3{1, 0, 2.5},
			direction: mgl32.Vec3{-1, 0, 0},
		},
		{
			name:      "before the joint",
			origin:    mgl32.Vec3{1, 0, -1.5},
			direction: mgl32.Vec3{-1, 0, 0},
		},
		{
			name:      "parallel to the bone",
			origin:    mgl32.Vec3{0, 0, -3},
			direction: mgl32.Vec3{0, 0, 1},
		},
		{
			name:      "zero direction",
			origin:    mgl32.Vec3{1, 0, 0.5},
			direction: mgl32.Vec3{},
		},
		{
			name:      "origin inside the cylinder",
			origin:    mgl32.Vec3{0.02, 0, 0.5},
			direction: mgl32.Vec3{-1, 0, 0},
			hit:       true,
			distance:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := b.Intersect(tt.origin, tt.direction, r)
			require.Equal(t, tt.hit, ok)
			if tt.hit {
				assert.InDelta(t, tt.distance, d, tol)
			}
		})
	}
}

func TestIntersectOblique(t *testing.T) {
	_, b := unitZBone(t)
	dir := mgl32.Vec3{-1, 0, -1}
	d, ok := b.Intersect(mgl32.Vec3{1, 0, 1.5}, dir, 0.1)
	require.True(t, ok)

	// the surface hit lies at distance 0.1 from the axis
	p := mgl32.Vec3{1, 0, 1.5}.Add(dir.Normalize().Mul(d))
	assert.InDelta(t, 0.1, mgl32.Vec2{p.X(), p.Y()}.Len(), tol)
	assert.Greater(t, p.Z(), float32(0))
	assert.Less(t, p.Z(), float32(1))
}

func TestIntersectFollowsWorldRotation(t *testing.T) {
	s, b := unitZBone(t)
	require.NoError(t, s.RotateBone(0, mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{1, 0, 0})))

	assertVec(t, mgl32.Vec3{0, -1, 0}, b.Axis())
	assertVec(t, mgl32.Vec3{0, -1, 0}, b.EndpointPosition())

	_, ok := b.Intersect(mgl32.Vec3{1, 0, 0.5}, mgl32.Vec3{-1, 0, 0}, DefaultCylinderRadius)
	assert.False(t, ok)

	d, ok := b.Intersect(mgl32.Vec3{1, -0.5, 0}, mgl32.Vec3{-1, 0, 0}, DefaultCylinderRadius)
	require.True(t, ok)
	assert.InDelta(t, 1-DefaultCylinderRadius, d, tol)
}

func TestIntersectZeroLengthBone(t *testing.T) {
	s := newTestSkeleton(t, []BoneDefinition{
		{Parent: NoBone, RestJoint: mgl32.Vec3{1, 1, 1}, RestEndpoint: mgl32.Vec3{1, 1, 1}},
	})
	_, ok := s.Bone(0).Intersect(mgl32.Vec3{5, 1, 1}, mgl32.Vec3{-1, 0, 0}, 1)
	assert.False(t, ok)
	assert.Equal(t, mgl32.Vec3{}, s.Bone(0).Axis())
}

func TestBoneAccessors(t *testing.T) {
	s := newTestSkeleton(t, forkDefs())
	root := s.Bone(0)

	assert.Equal(t, 0, root.Index())
	assert.True(t, root.IsRoot())
	assert.Equal(t, NoBone, root.Parent())
	assert.Equal(t, []int{1, 3}, root.Children())

	// the returned children are a copy
	c := root.Children()
	c[0] = 99
	assert.Equal(t, []int{1, 3}, root.Children())

	leaf := s.Bone(2)
	assert.False(t, leaf.IsRoot())
	assert.Equal(t, 1, leaf.Parent())
	assert.Empty(t, leaf.Children())
	assert.InDelta(t, 1, leaf.Length(), tol)
	assertVec(t, mgl32.Vec3{1.5, 1, 0}, leaf.Midpoint())
	assertVec(t, mgl32.Vec3{1, 0, 0}, leaf.Axis())
}
