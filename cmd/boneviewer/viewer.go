package main

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/Carmen-Shannon/oxy-rig/engine/camera"
	"github.com/Carmen-Shannon/oxy-rig/engine/config"
	"github.com/Carmen-Shannon/oxy-rig/engine/loader"
	"github.com/Carmen-Shannon/oxy-rig/engine/scene"
)

// actorName is the scene name of the viewer's skeleton.
const actorName = "rig"

// viewerConfig is the file configuration plus settings that only exist on the command line.
type viewerConfig struct {
	config.Config
	frameLimit float64
}

// flags holds the command-line overrides. Only flags set explicitly replace file values.
type flags struct {
	path     string
	mesh     string
	bones    int
	workers  int
	profile  bool
	fps      float64
	software bool
	verbose  bool
}

func (f *flags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.path, "config", "c", "", "YAML configuration file")
	fs.StringVar(&f.mesh, "mesh", config.MeshHumanoid, "skeleton to show: humanoid or chain")
	fs.IntVar(&f.bones, "bones", 6, "bone count of the chain skeleton")
	fs.IntVar(&f.workers, "workers", 2, "scene update workers")
	fs.BoolVar(&f.profile, "profile", false, "log frame statistics")
	fs.Float64Var(&f.fps, "fps", 0, "frame rate cap, 0 for uncapped")
	fs.BoolVar(&f.software, "software", false, "force the fallback software adapter")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")
}

// config loads the file (or the defaults) and applies the flags that were set.
//
// Parameters:
//   - fs: the parsed flag set, used to tell explicit flags from defaults
//
// Returns:
//   - viewerConfig: the validated configuration
//   - error: error if the file cannot be loaded or the result is invalid
func (f *flags) config(fs *pflag.FlagSet) (viewerConfig, error) {
	cfg := config.Default()
	if f.path != "" {
		loaded, err := config.Load(f.path)
		if err != nil {
			return viewerConfig{}, err
		}
		cfg = loaded
	}

	if fs.Changed("mesh") {
		cfg.Scene.Mesh = f.mesh
	}
	if fs.Changed("bones") {
		cfg.Scene.ChainBones = f.bones
	}
	if fs.Changed("workers") {
		cfg.Scene.Workers = f.workers
	}
	if fs.Changed("profile") {
		cfg.Profiler.Enabled = f.profile
	}
	if err := cfg.Validate(); err != nil {
		return viewerConfig{}, errors.Wrap(err, "invalid configuration")
	}
	return viewerConfig{Config: cfg, frameLimit: f.fps}, nil
}

// buildScene creates the configured skeleton and a scene holding it.
//
// Parameters:
//   - cfg: a validated configuration
//   - logger: the logger for the loader and scene
//
// Returns:
//   - scene.Scene: the scene with one actor
//   - error: error if the skeleton cannot be built
func buildScene(cfg config.Config, logger *slog.Logger) (scene.Scene, error) {
	var (
		mesh *loader.MeshData
		err  error
	)
	switch cfg.Scene.Mesh {
	case config.MeshChain:
		mesh, err = loader.ChainMesh(actorName, cfg.Scene.ChainBones, cfg.Scene.BoneLength)
	default:
		mesh, err = loader.HumanoidMesh(actorName)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to build mesh")
	}

	l := loader.NewLoader(
		loader.WithSource(loader.NewMemorySource(mesh)),
		loader.WithLogger(logger),
	)
	sk, err := l.LoadSkeleton(actorName, cfg.SkeletonOptions()...)
	if err != nil {
		return nil, err
	}

	sc := scene.NewScene("viewer", scene.WithWorkers(cfg.Scene.Workers), scene.WithLogger(logger))
	if err := sc.Add(actorName, sk); err != nil {
		sc.Close()
		return nil, err
	}
	return sc, nil
}

// buildCamera creates an orbiting perspective camera for a framebuffer of the given size.
//
// Parameters:
//   - cfg: a validated configuration
//   - width: framebuffer width in pixels
//   - height: framebuffer height in pixels
//
// Returns:
//   - camera.Camera: the camera with an orbit controller
func buildCamera(cfg config.Config, width, height int) camera.Camera {
	c := cfg.Camera
	ctrl := camera.NewCameraController(
		camera.WithTarget(mgl32.Vec3(c.Target)),
		camera.WithRadius(c.Distance),
		camera.WithRadiusBounds(c.MinDistance, c.MaxDistance),
		camera.WithAzimuth(mgl32.DegToRad(c.Azimuth)),
		camera.WithElevation(mgl32.DegToRad(c.Elevation)),
		camera.WithElevationBounds(mgl32.DegToRad(c.MinElevation), mgl32.DegToRad(c.MaxElevation)),
		camera.WithOrbitSpeed(mgl32.DegToRad(c.KeyOrbitStep)),
		camera.WithMouseSensitivity(c.OrbitSpeed),
		camera.WithZoomSpeed(c.ZoomSpeed),
		camera.WithPanSpeed(c.PanSpeed),
	)
	aspect := float32(1)
	if width > 0 && height > 0 {
		aspect = float32(width) / float32(height)
	}
	return camera.NewCamera(
		camera.WithPerspective(c.FOV, c.Near, c.Far),
		camera.WithAspect(aspect),
		camera.WithUp(c.Up[0], c.Up[1], c.Up[2]),
		camera.WithController(ctrl),
	)
}
