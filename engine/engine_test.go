package engine

import (
	"bytes"
	"encoding/binary"
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-rig/common"
	"github.com/Carmen-Shannon/oxy-rig/engine/camera"
	"github.com/Carmen-Shannon/oxy-rig/engine/renderer"
	"github.com/Carmen-Shannon/oxy-rig/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-rig/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-rig/engine/scene"
	"github.com/Carmen-Shannon/oxy-rig/engine/skeleton"
)

const tol = 1e-4

// fakeWindow runs a fixed number of update callbacks instead of a platform loop.
type fakeWindow struct {
	width, height int
	frames        int
	quit          bool
	closed        bool

	onUpdate    func()
	onResize    func(int, int)
	onScroll    func(float32)
	onKeyDown   func(uint32)
	onKeyUp     func(uint32)
	onMouseDown func(uint32, float32, float32)
	onMouseUp   func(uint32, float32, float32)
	onMouseMove func(float32, float32)
}

func (w *fakeWindow) SetUpdateCallback(cb func()) { w.onUpdate = cb }
func (w *fakeWindow) SetResizeCallback(cb func(int, int)) { w.onResize = cb }
func (w *fakeWindow) SetScrollCallback(cb func(float32)) { w.onScroll = cb }
func (w *fakeWindow) SetKeyDownCallback(cb func(uint32)) { w.onKeyDown = cb }
func (w *fakeWindow) SetKeyUpCallback(cb func(uint32)) { w.onKeyUp = cb }
func (w *fakeWindow) SetMouseDownCallback(cb func(uint32, float32, float32)) { w.onMouseDown = cb }
func (w *fakeWindow) SetMouseUpCallback(cb func(uint32, float32, float32)) { w.onMouseUp = cb }
func (w *fakeWindow) SetMouseMoveCallback(cb func(float32, float32)) { w.onMouseMove = cb }
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (w *fakeWindow) IsRunning() bool { return !w.quit }
func (w *fakeWindow) Quit() { w.quit = true }
func (w *fakeWindow) Close() error { w.closed = true; return nil }
func (w *fakeWindow) Width() int { return w.width }
func (w *fakeWindow) Height() int { return w.height }

func (w *fakeWindow) ProcessMessages() {
	for range w.frames {
		if w.quit {
			return
		}
		w.onUpdate()
	}
}

// fakeRenderer records what the engine asks of the GPU.
type fakeRenderer struct {
	pipelines map[string]pipeline.Pipeline
	writes    int
	payloads  [][]byte
	draws     []renderer.DrawRange
	frames    int
	beginErr  error
	resized   [2]int
	released  bool
}

var _ renderer.Renderer = &fakeRenderer{}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{pipelines: make(map[string]pipeline.Pipeline)}
}

func (r *fakeRenderer) Pipeline(key string) pipeline.Pipeline { return r.pipelines[key] }
func (r *fakeRenderer) RegisterPipelines(ps ...pipeline.Pipeline) error {
	for _, p := range ps {
		r.pipelines[p.PipelineKey()] = p
	}
	return nil
}
func (r *fakeRenderer) Resize(width, height int) { r.resized = [2]int{width, height} }
func (r *fakeRenderer) SetPresentMode(renderer.PresentMode) {}
func (r *fakeRenderer) SetClearColor(wgpu.Color) {}
func (r *fakeRenderer) InitMeshBuffers(p bind_group_provider.BindGroupProvider, _, _ []byte, n int) error {
	p.SetIndexCount(n)
	return nil
}
func (r *fakeRenderer) InitBindGroup(bind_group_provider.BindGroupProvider, wgpu.BindGroupLayoutDescriptor, map[int]uint64) error {
	return nil
}
func (r *fakeRenderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.writes += len(writes)
	for _, w := range writes {
		r.payloads = append(r.payloads, w.Data)
	}
}

// payloadsOfSize returns the recorded buffer writes of exactly n bytes.
func (r *fakeRenderer) payloadsOfSize(n int) [][]byte {
	var out [][]byte
	for _, p := range r.payloads {
		if len(p) == n {
			out = append(out, p)
		}
	}
	return out
}
func (r *fakeRenderer) BeginFrame() error { return r.beginErr }
func (r *fakeRenderer) DrawCall(key string, _ bind_group_provider.BindGroupProvider, _ []bind_group_provider.BindGroupProvider, d renderer.DrawRange) error {
	if _, ok := r.pipelines[key]; !ok {
		return renderer.ErrPipelineNotFound
	}
	r.draws = append(r.draws, d)
	return nil
}
func (r *fakeRenderer) EndFrame() { r.frames++ }
func (r *fakeRenderer) Present() {}
func (r *fakeRenderer) Release() { r.released = true }

// chain returns a vertical chain of n unit bones at base with a single-triangle proxy.
func chain(t *testing.T, n int, base mgl32.Vec3) skeleton.Skeleton {
	t.Helper()
	defs := make([]skeleton.BoneDefinition, n)
	for i := range defs {
		defs[i] = skeleton.BoneDefinition{
			Parent:       i - 1,
			RestJoint:    base.Add(mgl32.Vec3{0, float32(i), 0}),
			RestEndpoint: base.Add(mgl32.Vec3{0, float32(i + 1), 0}),
		}
		if i+1 < n {
			defs[i].Children = []int{i + 1}
		}
	}
	sk, err := skeleton.NewSkeleton(defs,
		skeleton.WithProxyGeometry([]uint32{0, 1, 2}, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}))
	require.NoError(t, err)
	return sk
}

type harness struct {
	engine   *engine
	window   *fakeWindow
	renderer *fakeRenderer
	camera   camera.Camera
	scene    scene.Scene
	log      *bytes.Buffer
}

// newHarness builds an engine over a 3-bone chain from y=0 to y=3, viewed head-on from +Z
// through (0, 1.5, 0) at the center of an 800x600 window. Extra options are applied last.
func newHarness(t *testing.T, options ...EngineBuilderOption) *harness {
	t.Helper()
	sc := scene.NewScene("test", scene.WithWorkers(1))
	require.NoError(t, sc.Add("a", chain(t, 3, mgl32.Vec3{})))

	cam := camera.NewCamera(
		camera.WithController(camera.NewCameraController(
			camera.WithTarget(mgl32.Vec3{0, 1.5, 0}),
			camera.WithRadius(5),
			camera.WithAzimuth(0),
			camera.WithElevation(0),
		)),
		camera.WithPerspective(45, 0.1, 100),
	)

	h := &harness{
		window:   &fakeWindow{width: 800, height: 600},
		renderer: newFakeRenderer(),
		camera:   cam,
		scene:    sc,
		log:      &bytes.Buffer{},
	}
	e, err := NewEngine(append([]EngineBuilderOption{
		WithWindow(h.window),
		WithRenderer(h.renderer),
		WithCamera(cam),
		WithScene(sc),
		WithRotationStep(90),
		WithLogger(slog.New(slog.NewTextHandler(h.log, &slog.HandlerOptions{Level: slog.LevelDebug}))),
	}, options...)...)
	require.NoError(t, err)
	h.engine = e.(*engine)
	t.Cleanup(h.engine.Close)
	return h
}

func (h *harness) clickCenter() {
	h.window.onMouseDown(common.MouseButtonLeft, 400, 300)
	h.window.onMouseUp(common.MouseButtonLeft, 400, 300)
}

func TestNewEngineRequiresComponents(t *testing.T) {
	_, err := NewEngine()
	assert.ErrorContains(t, err, "window")

	_, err = NewEngine(WithWindow(&fakeWindow{}))
	assert.ErrorContains(t, err, "renderer")

	_, err = NewEngine(WithWindow(&fakeWindow{}), WithRenderer(newFakeRenderer()))
	assert.ErrorContains(t, err, "camera")

	_, err = NewEngine(WithWindow(&fakeWindow{}), WithRenderer(newFakeRenderer()), WithCamera(camera.NewCamera()))
	assert.ErrorContains(t, err, "scene")
}

func TestClickPicksBone(t *testing.T) {
	h := newHarness(t)
	h.clickCenter()

	actor, bone, ok := h.scene.Highlighted()
	require.True(t, ok)
	assert.Equal(t, "a", actor)
	assert.Equal(t, 1, bone)
	assert.Contains(t, h.log.String(), "bone selected")

	// a click beside the chain misses and clears the highlight
	h.window.onMouseDown(common.MouseButtonLeft, 10, 10)
	_, _, ok = h.scene.Highlighted()
	assert.False(t, ok)
}

func TestArrowKeysRotateHighlightedBone(t *testing.T) {
	h := newHarness(t)

	h.scene.Update()

	// nothing highlighted: keys are ignored
	h.window.onKeyDown(common.KeyUp)
	assert.Equal(t, 0, h.scene.Update())

	h.clickCenter()
	h.window.onKeyDown(common.KeyQ)
	h.scene.Update()

	sk := h.scene.Actor("a")
	want := mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1})
	got := sk.Bone(1).LocalRotation()
	assert.InDelta(t, want.W, got.W, tol)
	assert.InDelta(t, want.V.Z(), got.V.Z(), tol)

	// +90 about Z swings everything above the joint at (0,1,0): the tip moves from (0,3,0) to (-2,1,0)
	tip := sk.Bone(2).EndpointPosition()
	assert.InDelta(t, -2, tip.X(), tol)
	assert.InDelta(t, 1, tip.Y(), tol)

	h.window.onKeyDown(common.KeyR)
	assert.InDelta(t, 3, sk.Bone(2).EndpointPosition().Y(), tol)
	assert.InDelta(t, 1, sk.Bone(1).LocalRotation().W, tol)
}

func TestRotationKeyAxes(t *testing.T) {
	c := newControls(nil, nil, slog.Default(), 30, nil)
	tests := []struct {
		key  uint32
		axis mgl32.Vec3
		sign float32
	}{
		{common.KeyUp, axisX, 1},
		{common.KeyDown, axisX, -1},
		{common.KeyLeft, axisY, 1},
		{common.KeyRight, axisY, -1},
		{common.KeyQ, axisZ, 1},
		{common.KeyE, axisZ, -1},
	}
	for _, tt := range tests {
		q, ok := c.rotation(tt.key)
		require.True(t, ok)
		want := mgl32.QuatRotate(tt.sign*mgl32.DegToRad(30), tt.axis)
		assert.InDelta(t, want.W, q.W, tol)
		for i := range 3 {
			assert.InDelta(t, want.V[i], q.V[i], tol)
		}
	}
	_, ok := c.rotation(common.KeyA)
	assert.False(t, ok)
}

func TestClearHighlightAndQuit(t *testing.T) {
	h := newHarness(t)
	h.clickCenter()
	h.window.onKeyDown(common.KeyF)
	_, _, ok := h.scene.Highlighted()
	assert.False(t, ok)

	h.window.onKeyDown(common.KeyEsc)
	assert.True(t, h.window.quit)
}

func TestMouseDragOrbitsAndPans(t *testing.T) {
	h := newHarness(t)
	ctrl := h.camera.Controller()
	azimuth := ctrl.Azimuth()

	// moves without the middle button do nothing
	h.window.onMouseMove(500, 300)
	assert.Equal(t, azimuth, ctrl.Azimuth())

	h.window.onMouseDown(common.MouseButtonMiddle, 400, 300)
	h.window.onMouseMove(500, 300)
	assert.NotEqual(t, azimuth, ctrl.Azimuth())

	tx, ty, tz := ctrl.Target()
	h.window.onKeyDown(common.KeyLeftShift)
	h.window.onMouseMove(500, 350)
	nx, ny, nz := ctrl.Target()
	assert.NotEqual(t, mgl32.Vec3{tx, ty, tz}, mgl32.Vec3{nx, ny, nz})
	h.window.onKeyUp(common.KeyLeftShift)

	h.window.onMouseUp(common.MouseButtonMiddle, 500, 350)
	azimuth = ctrl.Azimuth()
	h.window.onMouseMove(700, 350)
	assert.Equal(t, azimuth, ctrl.Azimuth())
}

func TestScrollZoomsAndKeysOrbit(t *testing.T) {
	h := newHarness(t)
	ctrl := h.camera.Controller()

	radius := ctrl.Radius()
	h.window.onScroll(1)
	assert.Less(t, ctrl.Radius(), radius)

	azimuth := ctrl.Azimuth()
	h.window.onKeyDown(common.KeyA)
	assert.NotEqual(t, azimuth, ctrl.Azimuth())
	h.window.onKeyDown(common.KeyD)
	assert.InDelta(t, azimuth, ctrl.Azimuth(), tol)
}

func TestResize(t *testing.T) {
	h := newHarness(t)
	h.window.onResize(1000, 500)
	assert.Equal(t, [2]int{1000, 500}, h.renderer.resized)
	assert.InDelta(t, 2, h.camera.Aspect(), tol)

	// minimized windows keep the last aspect
	h.window.onResize(0, 0)
	assert.InDelta(t, 2, h.camera.Aspect(), tol)
}

func TestDescribeLogsHierarchy(t *testing.T) {
	h := newHarness(t)
	h.window.onKeyDown(common.KeySpace)
	assert.Contains(t, h.log.String(), "hierarchy")
	assert.Contains(t, h.log.String(), "actor=a")
}

func TestRunDrawsFrames(t *testing.T) {
	h := newHarness(t)
	h.window.frames = 3

	calls := 0
	h.engine.SetFrameCallback(func(float32) { calls++ })
	require.NoError(t, h.engine.Run())

	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, h.renderer.frames)
	require.Contains(t, h.renderer.pipelines, renderer.BonePipelineKey)
	require.Len(t, h.engine.passes, 1)

	// copy 0 instanced per bone, then the four handle copies once, every frame
	require.Len(t, h.renderer.draws, 6)
	assert.Equal(t, renderer.DrawRange{FirstIndex: 0, IndexCount: 3, InstanceCount: 3}, h.renderer.draws[0])
	assert.Equal(t, renderer.DrawRange{FirstIndex: 3, IndexCount: 12, InstanceCount: 1}, h.renderer.draws[1])

	// one shape upload at pass creation, then camera, model and instances per frame
	assert.Equal(t, 1+3*3, h.renderer.writes)
}

func TestFrameUploadsHandleSizeAndWorldTransform(t *testing.T) {
	h := newHarness(t, WithHandleSize(0.3))
	moved, err := skeleton.NewSkeleton(
		[]skeleton.BoneDefinition{{Parent: skeleton.NoBone, RestJoint: mgl32.Vec3{}, RestEndpoint: mgl32.Vec3{0, 1, 0}}},
		skeleton.WithWorldTransform(mgl32.Translate3D(10, 0, 0)),
		skeleton.WithProxyGeometry([]uint32{0, 1, 2}, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}),
	)
	require.NoError(t, err)
	require.NoError(t, h.scene.Add("moved", moved))
	h.window.frames = 1
	require.NoError(t, h.engine.Run())

	// shapes of the 3-bone chain: 3 bones + 4 handles; handle scale is the configured size
	shapes := h.renderer.payloadsOfSize(7 * renderer.GPUBoneShapeSize)
	require.Len(t, shapes, 1)
	handle := shapes[0][3*renderer.GPUBoneShapeSize+16:]
	assert.InDelta(t, 0.3, math.Float32frombits(binary.LittleEndian.Uint32(handle)), 1e-6)

	// one model matrix per actor; the moved actor carries its translation in column 3
	models := h.renderer.payloadsOfSize(renderer.GPUModelUniformSize)
	require.Len(t, models, 2)
	var xs []float32
	for _, m := range models {
		xs = append(xs, math.Float32frombits(binary.LittleEndian.Uint32(m[12*4:])))
	}
	assert.ElementsMatch(t, []float32{0, 10}, xs)
}

func TestFrameTracksActors(t *testing.T) {
	h := newHarness(t)
	h.engine.frame()
	require.NoError(t, h.scene.Add("b", chain(t, 2, mgl32.Vec3{3, 0, 0})))
	h.engine.frame()
	assert.Len(t, h.engine.passes, 2)

	h.scene.Remove("a")
	h.engine.frame()
	assert.Len(t, h.engine.passes, 1)
	assert.Contains(t, h.engine.passes, "b")
}

func TestFrameSkipsFailedAcquire(t *testing.T) {
	h := newHarness(t)
	h.renderer.beginErr = errors.New("outdated surface")
	h.engine.frame()
	assert.Zero(t, h.renderer.frames)
	assert.Empty(t, h.renderer.draws)
	assert.False(t, h.window.quit)
}

func TestFramePanicStopsRun(t *testing.T) {
	h := newHarness(t)
	h.window.frames = 5
	h.engine.SetFrameCallback(func(float32) { panic("boom") })

	err := h.engine.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.True(t, h.window.quit)
}

func TestClose(t *testing.T) {
	h := newHarness(t)
	h.engine.frame()
	h.engine.Close()
	assert.True(t, h.renderer.released)
	assert.True(t, h.window.closed)
	assert.Empty(t, h.engine.passes)
}

func TestFrameDuration(t *testing.T) {
	assert.Zero(t, frameDuration(0))
	assert.Zero(t, frameDuration(-5))
	assert.Equal(t, 10*time.Millisecond, frameDuration(100))
}
