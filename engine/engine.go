package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/Carmen-Shannon/oxy-rig/engine/camera"
	"github.com/Carmen-Shannon/oxy-rig/engine/profiler"
	"github.com/Carmen-Shannon/oxy-rig/engine/renderer"
	"github.com/Carmen-Shannon/oxy-rig/engine/scene"
	"github.com/Carmen-Shannon/oxy-rig/engine/window"
)

// engine implements the Engine interface.
// Every frame runs on the window thread: input callbacks, scene update, upload, draw.
type engine struct {
	window   window.Window
	renderer renderer.Renderer
	camera   camera.Camera
	scene    scene.Scene
	logger   *slog.Logger

	controls *controls
	passes   map[string]renderer.BonePass

	profiler         *profiler.Profiler
	profilingEnabled bool

	rotationStep     float32 // degrees
	handleSize       float32
	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	frameCallback    func(deltaTime float32)

	lastFrame time.Time
	err       error
	quitOnce  sync.Once
	closeOnce sync.Once
}

// Engine is the main entry point for the viewer.
// It wires window input to the scene and camera, and draws every actor each frame.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the renderer frames are drawn with.
	//
	// Returns:
	//   - renderer.Renderer: the renderer
	Renderer() renderer.Renderer

	// Camera returns the viewing camera.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera

	// Scene returns the scene holding the skeleton actors.
	//
	// Returns:
	//   - scene.Scene: the scene
	Scene() scene.Scene

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetFrameCallback registers a function run at the start of every frame, before the scene
	// update. It runs on the window thread and may rotate bones.
	//
	// Parameters:
	//   - callback: receives the delta time in seconds
	SetFrameCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional frame rate cap in frames per second.
	// Pass 0 to uncap (default).
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run processes window messages and draws frames until the window closes or Quit is called.
	//
	// Returns:
	//   - error: the error that stopped the loop, or nil on a normal quit
	Run() error

	// Quit stops the loop after the current frame. Safe to call multiple times.
	Quit()

	// Close releases GPU resources, the scene's workers and the window. Later calls are no-ops.
	Close()
}

// NewEngine creates an Engine from a window, renderer, camera and scene supplied as options.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: an error if a required component is missing
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		passes:       make(map[string]renderer.BonePass),
		rotationStep: 5,
		handleSize:   0.1,
		logger:       slog.Default(),
	}
	for _, opt := range options {
		opt(e)
	}
	e.logger = e.logger.With("component", "engine")

	switch {
	case e.window == nil:
		return nil, errors.New("engine requires a window")
	case e.renderer == nil:
		return nil, errors.New("engine requires a renderer")
	case e.camera == nil:
		return nil, errors.New("engine requires a camera")
	case e.scene == nil:
		return nil, errors.New("engine requires a scene")
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger))
	}

	e.controls = newControls(e.scene, e.camera, e.logger, e.rotationStep, e.Quit)
	e.controls.resize(e.window.Width(), e.window.Height())

	e.window.SetResizeCallback(func(width, height int) {
		e.renderer.Resize(width, height)
		e.controls.resize(width, height)
	})
	e.window.SetKeyDownCallback(e.controls.keyDown)
	e.window.SetKeyUpCallback(e.controls.keyUp)
	e.window.SetMouseDownCallback(e.controls.mouseDown)
	e.window.SetMouseUpCallback(e.controls.mouseUp)
	e.window.SetMouseMoveCallback(e.controls.mouseMove)
	e.window.SetScrollCallback(e.controls.scroll)
	e.window.SetUpdateCallback(e.frame)

	return e, nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Camera() camera.Camera {
	return e.camera
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetFrameCallback(callback func(deltaTime float32)) {
	e.frameCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.renderFrameLimit = frameDuration(fps)
}

func (e *engine) Run() error {
	e.lastFrame = time.Now()
	e.logger.Info("engine running", "actors", len(e.scene.Actors()))
	e.window.ProcessMessages()
	return e.err
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		e.logger.Info("engine quitting")
		e.window.Quit()
	})
}

func (e *engine) Close() {
	e.closeOnce.Do(func() {
		for name, p := range e.passes {
			p.Release()
			delete(e.passes, name)
		}
		e.renderer.Release()
		e.scene.Close()
		if err := e.window.Close(); err != nil {
			e.logger.Debug("window close", "error", err)
		}
	})
}

// fail records the first fatal error and stops the loop.
func (e *engine) fail(err error) {
	if e.err == nil {
		e.err = err
	}
	e.logger.Error("frame failed", "error", err)
	e.Quit()
}

// frame runs one update-and-draw cycle. It is the window's update callback.
func (e *engine) frame() {
	defer func() {
		if r := recover(); r != nil {
			e.fail(errors.Errorf("frame panic: %v", r))
		}
	}()

	now := time.Now()
	dt := float32(now.Sub(e.lastFrame).Seconds())
	e.lastFrame = now

	if e.frameCallback != nil {
		e.frameCallback(dt)
	}

	start := time.Now()
	if updated := e.scene.Update(); updated > 0 && e.profilingEnabled {
		e.profiler.RecordUpdate(time.Since(start))
	}
	e.camera.Update()

	if err := e.syncPasses(); err != nil {
		e.fail(err)
		return
	}

	actors := e.scene.Actors()
	for _, name := range actors {
		p, ok := e.passes[name]
		if sk := e.scene.Actor(name); ok && sk != nil {
			p.Update(e.camera, sk)
		}
	}

	// A failed acquire (minimized or outdated surface) skips the frame.
	if err := e.renderer.BeginFrame(); err != nil {
		e.logger.Debug("frame skipped", "error", err)
		return
	}
	for _, name := range actors {
		if p, ok := e.passes[name]; ok {
			if err := p.Draw(); err != nil {
				e.logger.Error("draw failed", "actor", name, "error", err)
			}
		}
	}
	e.renderer.EndFrame()
	e.renderer.Present()

	if e.profilingEnabled {
		e.profiler.Tick()
	}

	if e.renderFrameLimit > 0 {
		if remaining := e.renderFrameLimit - time.Since(now); remaining > 0 {
			time.Sleep(remaining)
		}
	}
}

// syncPasses creates a bone pass for every new actor and releases passes of removed ones.
func (e *engine) syncPasses() error {
	actors := e.scene.Actors()
	present := make(map[string]bool, len(actors))
	for _, name := range actors {
		present[name] = true
		if _, ok := e.passes[name]; ok {
			continue
		}
		sk := e.scene.Actor(name)
		if sk == nil {
			continue
		}
		p, err := renderer.NewBonePass(e.renderer, sk, e.handleSize)
		if err != nil {
			return errors.Wrapf(err, "actor %q", name)
		}
		e.passes[name] = p
		e.logger.Debug("bone pass created", "actor", name, "bones", sk.BoneCount())
	}
	for name, p := range e.passes {
		if !present[name] {
			p.Release()
			delete(e.passes, name)
		}
	}
	return nil
}

// frameDuration converts a frame rate cap into a minimum frame duration. Non-positive means uncapped.
func frameDuration(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
