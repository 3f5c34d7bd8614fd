package engine

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-rig/common"
	"github.com/Carmen-Shannon/oxy-rig/engine/camera"
	"github.com/Carmen-Shannon/oxy-rig/engine/scene"
)

// Local rotation axes of the highlighted bone.
var (
	axisX = mgl32.Vec3{1, 0, 0}
	axisY = mgl32.Vec3{0, 1, 0}
	axisZ = mgl32.Vec3{0, 0, 1}
)

// controls translates window input into scene and camera operations.
// All methods run on the window thread.
type controls struct {
	scene  scene.Scene
	camera camera.Camera
	logger *slog.Logger
	quit   func()

	step          float32 // radians per key press
	width, height int

	shift      bool
	middleDown bool
	lastX      float32
	lastY      float32
}

// newControls builds the input mapping. step is the bone rotation per key press in degrees.
func newControls(sc scene.Scene, cam camera.Camera, logger *slog.Logger, step float32, quit func()) *controls {
	return &controls{
		scene:  sc,
		camera: cam,
		logger: logger,
		quit:   quit,
		step:   mgl32.DegToRad(step),
	}
}

// rotation returns the local rotation a key press applies to the highlighted bone.
func (c *controls) rotation(key uint32) (mgl32.Quat, bool) {
	switch key {
	case common.KeyUp:
		return mgl32.QuatRotate(c.step, axisX), true
	case common.KeyDown:
		return mgl32.QuatRotate(-c.step, axisX), true
	case common.KeyLeft:
		return mgl32.QuatRotate(c.step, axisY), true
	case common.KeyRight:
		return mgl32.QuatRotate(-c.step, axisY), true
	case common.KeyQ:
		return mgl32.QuatRotate(c.step, axisZ), true
	case common.KeyE:
		return mgl32.QuatRotate(-c.step, axisZ), true
	}
	return mgl32.Quat{}, false
}

func (c *controls) keyDown(key uint32) {
	if q, ok := c.rotation(key); ok {
		c.scene.RotateHighlighted(q)
		return
	}

	switch key {
	case common.KeyLeftShift, common.KeyRightShift:
		c.shift = true
	case common.KeyA:
		if ctrl := c.camera.Controller(); ctrl != nil {
			ctrl.OrbitLeft()
		}
	case common.KeyD:
		if ctrl := c.camera.Controller(); ctrl != nil {
			ctrl.OrbitRight()
		}
	case common.KeyR:
		c.scene.ResetPose()
		c.logger.Info("pose reset")
	case common.KeyF:
		c.scene.ClearHighlight()
	case common.KeySpace:
		c.describe()
	case common.KeyEsc:
		if c.quit != nil {
			c.quit()
		}
	}
}

func (c *controls) keyUp(key uint32) {
	switch key {
	case common.KeyLeftShift, common.KeyRightShift:
		c.shift = false
	}
}

func (c *controls) mouseDown(button uint32, x, y float32) {
	switch button {
	case common.MouseButtonLeft:
		c.pick(x, y)
	case common.MouseButtonMiddle:
		c.middleDown = true
		c.lastX, c.lastY = x, y
	}
}

func (c *controls) mouseUp(button uint32, _, _ float32) {
	if button == common.MouseButtonMiddle {
		c.middleDown = false
	}
}

// mouseMove orbits while the middle button is held, or pans with shift.
func (c *controls) mouseMove(x, y float32) {
	if !c.middleDown {
		return
	}
	dx, dy := x-c.lastX, y-c.lastY
	c.lastX, c.lastY = x, y

	ctrl := c.camera.Controller()
	if ctrl == nil {
		return
	}
	if c.shift {
		ctrl.Pan(dx, dy)
	} else {
		ctrl.Orbit(dx, dy)
	}
}

func (c *controls) scroll(delta float32) {
	if ctrl := c.camera.Controller(); ctrl != nil {
		ctrl.Zoom(delta)
	}
}

func (c *controls) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.width, c.height = width, height
	c.camera.SetAspect(float32(width) / float32(height))
}

// pick casts the cursor ray into the scene and highlights the closest bone hit.
// A miss clears the highlight.
func (c *controls) pick(x, y float32) {
	c.camera.Update()
	origin, dir := c.camera.ScreenRay(x, y, float32(c.width), float32(c.height))
	if dir.Len() == 0 {
		return
	}
	if hit, ok := c.scene.Pick(origin, dir); ok {
		c.logger.Info("bone selected", "actor", hit.Actor, "bone", hit.Bone)
	}
}

// describe logs the hierarchy of the highlighted actor, or of every actor when nothing is highlighted.
func (c *controls) describe() {
	names := c.scene.Actors()
	if actor, _, ok := c.scene.Highlighted(); ok {
		names = []string{actor}
	}
	for _, name := range names {
		if sk := c.scene.Actor(name); sk != nil {
			c.logger.Info("hierarchy", "actor", name, "bones", sk.BoneCount(), "dump", sk.Describe())
		}
	}
}
