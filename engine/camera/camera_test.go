package camera

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-3

func frontCamera(t *testing.T) Camera {
	t.Helper()
	ctrl := NewCameraController(
		WithTarget(mgl32.Vec3{0, 1, 0}),
		WithRadius(4),
		WithAzimuth(0),
		WithElevation(0),
	)
	return NewCamera(
		WithController(ctrl),
		WithAspect(2),
		WithPerspective(60, 0.1, 50),
	)
}

func assertVec(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := range 3 {
		assert.InDelta(t, want[i], got[i], tol)
	}
}

func TestScreenRayThroughCenter(t *testing.T) {
	c := frontCamera(t)
	origin, dir := c.ScreenRay(400, 200, 800, 400)

	assertVec(t, mgl32.Vec3{0, 0, -1}, dir)
	assertVec(t, mgl32.Vec3{0, 1, 4 - 0.1}, origin)
}

func TestScreenRayCorners(t *testing.T) {
	c := frontCamera(t)

	_, dir := c.ScreenRay(0, 0, 800, 400)
	assert.Less(t, dir.X(), float32(0))
	assert.Greater(t, dir.Y(), float32(0))

	_, dir = c.ScreenRay(800, 400, 800, 400)
	assert.Greater(t, dir.X(), float32(0))
	assert.Less(t, dir.Y(), float32(0))

	// the top edge sits half the vertical field of view above the view axis
	_, dir = c.ScreenRay(400, 0, 800, 400)
	assert.InDelta(t, math.Pi/6, math.Atan2(float64(dir.Y()), float64(-dir.Z())), tol)

	_, dir = c.ScreenRay(10, 10, 0, 400)
	assert.Equal(t, mgl32.Vec3{}, dir)
}

func TestScreenRayPassesThroughProjectedPoint(t *testing.T) {
	c := NewCamera(
		WithController(NewCameraController(WithAzimuth(0.7), WithElevation(0.4), WithRadius(3))),
		WithAspect(16.0/9.0),
	)
	const w, h = 1600, 900

	for _, p := range []mgl32.Vec3{{0.5, 1.3, 0.2}, {-0.3, 0.2, -0.4}, {0, 1, 0}} {
		clip := mgl32.Mat4(c.ViewProjectionMatrix()).Mul4x1(p.Vec4(1))
		ndc := clip.Vec3().Mul(1 / clip.W())
		px := (ndc.X() + 1) / 2 * w
		py := (1 - ndc.Y()) / 2 * h

		origin, dir := c.ScreenRay(px, py, w, h)
		toPoint := p.Sub(origin)
		miss := toPoint.Sub(dir.Mul(toPoint.Dot(dir))).Len()
		assert.InDelta(t, 0, miss, tol, "point %v", p)
		assert.Greater(t, toPoint.Dot(dir), float32(0))
	}
}

func TestInverseViewProjection(t *testing.T) {
	c := frontCamera(t)
	vp := mgl32.Mat4(c.ViewProjectionMatrix())
	inv := mgl32.Mat4(c.InverseViewProjectionMatrix())
	assert.True(t, vp.Mul4(inv).ApproxEqualThreshold(mgl32.Ident4(), tol))
}

func TestCameraWithoutController(t *testing.T) {
	c := NewCamera()
	c.Update()
	assert.Equal(t, [16]float32(mgl32.Ident4()), c.ViewMatrix())
	assert.Nil(t, c.Controller())

	c.SetController(NewCameraController())
	assert.NotEqual(t, [16]float32(mgl32.Ident4()), c.ViewMatrix())
}

func TestUniform(t *testing.T) {
	c := frontCamera(t)
	u := c.Uniform()
	assert.Equal(t, c.ViewProjectionMatrix(), u.ViewProj)
	assert.Equal(t, GPUCameraUniformSize, u.Size())

	buf := u.Marshal()
	require.Len(t, buf, GPUCameraUniformSize)
	assert.InDelta(t, 4, math.Float32frombits(binary.LittleEndian.Uint32(buf[72:])), tol)
	assert.Contains(t, GPUCameraUniformSource, "struct CameraUniform")
}

func TestControllerOrbitKeepsDistance(t *testing.T) {
	cc := NewCameraController(WithTarget(mgl32.Vec3{1, 2, 3}), WithRadius(5))
	distance := func() float32 {
		px, py, pz := cc.Position()
		return mgl32.Vec3{px, py, pz}.Sub(mgl32.Vec3{1, 2, 3}).Len()
	}
	assert.InDelta(t, 5, distance(), tol)

	cc.Orbit(120, -40)
	assert.InDelta(t, 5, distance(), tol)
	cc.OrbitLeft()
	cc.OrbitRight()
	assert.InDelta(t, 5, distance(), tol)

	cc.SetElevation(10)
	assert.Less(t, cc.Elevation(), float32(math.Pi/2))
	_, py, _ := cc.Position()
	assert.Less(t, py, float32(2+5))
}

func TestControllerZoomClamps(t *testing.T) {
	cc := NewCameraController(WithRadius(2), WithRadiusBounds(1, 3), WithZoomSpeed(1))
	cc.Zoom(0.5)
	assert.InDelta(t, 1.5, cc.Radius(), tol)
	cc.Zoom(10)
	assert.Equal(t, float32(1), cc.Radius())
	cc.Zoom(-10)
	assert.Equal(t, float32(3), cc.Radius())
	cc.SetRadius(100)
	assert.Equal(t, float32(3), cc.Radius())
}

func TestControllerPanMovesTargetAndEye(t *testing.T) {
	cc := NewCameraController(WithAzimuth(0), WithElevation(0), WithRadius(2), WithPanSpeed(0.01))
	px, py, pz := cc.Position()
	tx, ty, tz := cc.Target()
	before := mgl32.Vec3{px, py, pz}.Sub(mgl32.Vec3{tx, ty, tz})

	cc.Pan(10, 0)
	nx, ny, nz := cc.Target()
	// dragging right slides the view left: the target moves along -X when looking down -Z
	assert.InDelta(t, tx-0.2, nx, tol)
	assert.InDelta(t, ty, ny, tol)
	assert.InDelta(t, tz, nz, tol)

	px, py, pz = cc.Position()
	assertVec(t, before, mgl32.Vec3{px, py, pz}.Sub(mgl32.Vec3{nx, ny, nz}))
}
