package config

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Carmen-Shannon/oxy-rig/engine/skeleton"
)

// Mesh kinds understood by the viewer.
const (
	MeshHumanoid = "humanoid"
	MeshChain    = "chain"
)

// Config is the viewer configuration. Every field has a default, and a YAML file only needs to
// name the values it changes.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Camera   CameraConfig   `yaml:"camera"`
	Picking  PickingConfig  `yaml:"picking"`
	Colors   ColorConfig    `yaml:"colors"`
	Input    InputConfig    `yaml:"input"`
	Scene    SceneConfig    `yaml:"scene"`
	Profiler ProfilerConfig `yaml:"profiler"`
}

type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	VSync  bool   `yaml:"vsync"`
}

type CameraConfig struct {
	FOV         float32    `yaml:"fov"` // vertical, degrees
	Near        float32    `yaml:"near"`
	Far         float32    `yaml:"far"`
	Distance    float32    `yaml:"distance"`
	MinDistance float32    `yaml:"min_distance"`
	MaxDistance float32    `yaml:"max_distance"`
	Target      [3]float32 `yaml:"target"`
	Up          [3]float32 `yaml:"up"`
	OrbitSpeed  float32    `yaml:"orbit_speed"` // radians per pixel
	ZoomSpeed   float32    `yaml:"zoom_speed"`  // distance per scroll step
	PanSpeed    float32    `yaml:"pan_speed"`   // fraction of the distance per pixel

	// Angles in degrees.
	Azimuth      float32 `yaml:"azimuth"`
	Elevation    float32 `yaml:"elevation"`
	MinElevation float32 `yaml:"min_elevation"`
	MaxElevation float32 `yaml:"max_elevation"`
	KeyOrbitStep float32 `yaml:"key_orbit_step"` // per A/D press
}

type PickingConfig struct {
	CylinderRadius float32 `yaml:"cylinder_radius"`
	HandleRadius   float32 `yaml:"handle_radius"`
	HandleSize     float32 `yaml:"handle_size"` // scale of the drawn handle widgets
}

type ColorConfig struct {
	Bone       [4]float32 `yaml:"bone"`
	Highlight  [4]float32 `yaml:"highlight"`
	Handle     [4]float32 `yaml:"handle"`
	Background [4]float64 `yaml:"background"`
}

type InputConfig struct {
	RotationStep float32 `yaml:"rotation_step"` // degrees per key press
}

type SceneConfig struct {
	Mesh       string  `yaml:"mesh"`
	ChainBones int     `yaml:"chain_bones"`
	BoneLength float32 `yaml:"bone_length"`
	Workers    int     `yaml:"workers"`
}

type ProfilerConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// Default returns the built-in configuration.
//
// Returns:
//   - Config: the defaults
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:  "oxy-rig",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Camera: CameraConfig{
			FOV:         45,
			Near:        0.05,
			Far:         100,
			Distance:    3.5,
			MinDistance: 0.5,
			MaxDistance: 20,
			Target:      [3]float32{0, 1, 0},
			Up:          [3]float32{0, 1, 0},
			OrbitSpeed:  0.005,
			ZoomSpeed:   0.25,
			PanSpeed:    0.0015,

			Azimuth:      0,
			Elevation:    17,
			MinElevation: -85,
			MaxElevation: 85,
			KeyOrbitStep: 3,
		},
		Picking: PickingConfig{
			CylinderRadius: skeleton.DefaultCylinderRadius,
			HandleRadius:   skeleton.DefaultHandleRadius,
			HandleSize:     0.1,
		},
		Colors: ColorConfig{
			Bone:       skeleton.DefaultColor,
			Highlight:  skeleton.HighlightColor,
			Handle:     skeleton.HandleColor,
			Background: [4]float64{0.08, 0.08, 0.1, 1},
		},
		Input: InputConfig{
			RotationStep: 5,
		},
		Scene: SceneConfig{
			Mesh:       MeshHumanoid,
			ChainBones: 6,
			BoneLength: 0.3,
			Workers:    2,
		},
		Profiler: ProfilerConfig{
			Enabled:  false,
			Interval: 2 * time.Second,
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - Config: the merged configuration
//   - error: error if the file cannot be read, decoded or validated
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "open config %s", path)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Decode reads YAML from r over the defaults and validates the result.
// Unknown keys are rejected.
//
// Parameters:
//   - r: the YAML source
//
// Returns:
//   - Config: the merged configuration
//   - error: error if decoding or validation fails
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(err, "failed to unmarshal yaml")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Write encodes the configuration as YAML.
//
// Parameters:
//   - w: the destination
//
// Returns:
//   - error: error if encoding fails
func (c Config) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&c); err != nil {
		return errors.Wrap(err, "failed to marshal yaml")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, "failed to close yaml encoder")
	}
	return nil
}

// Validate checks that every value is usable.
//
// Returns:
//   - error: a description of the first invalid value
func (c Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return errors.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	case c.Camera.FOV <= 0 || c.Camera.FOV >= 180:
		return errors.Errorf("camera fov %v must be in (0, 180)", c.Camera.FOV)
	case c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near:
		return errors.Errorf("camera clip range [%v, %v] is invalid", c.Camera.Near, c.Camera.Far)
	case c.Camera.MinDistance <= 0 || c.Camera.MaxDistance < c.Camera.MinDistance:
		return errors.Errorf("camera distance range [%v, %v] is invalid", c.Camera.MinDistance, c.Camera.MaxDistance)
	case c.Camera.Up == [3]float32{}:
		return errors.New("camera up vector must be non-zero")
	case c.Camera.MinElevation <= -90 || c.Camera.MaxElevation >= 90 || c.Camera.MinElevation > c.Camera.MaxElevation:
		return errors.Errorf("camera elevation range [%v, %v] must lie inside (-90, 90)", c.Camera.MinElevation, c.Camera.MaxElevation)
	case c.Camera.KeyOrbitStep <= 0 || c.Camera.PanSpeed <= 0:
		return errors.Errorf("camera key orbit step %v and pan speed %v must be positive", c.Camera.KeyOrbitStep, c.Camera.PanSpeed)
	case c.Picking.CylinderRadius <= 0:
		return errors.Errorf("picking cylinder radius %v must be positive", c.Picking.CylinderRadius)
	case c.Picking.HandleRadius <= 0:
		return errors.Errorf("picking handle radius %v must be positive", c.Picking.HandleRadius)
	case c.Picking.HandleSize <= 0:
		return errors.Errorf("picking handle size %v must be positive", c.Picking.HandleSize)
	case c.Input.RotationStep <= 0:
		return errors.Errorf("input rotation step %v must be positive", c.Input.RotationStep)
	case c.Scene.Workers < 1:
		return errors.Errorf("scene workers %d must be at least 1", c.Scene.Workers)
	case c.Scene.Mesh != MeshHumanoid && c.Scene.Mesh != MeshChain:
		return errors.Errorf("scene mesh %q must be %q or %q", c.Scene.Mesh, MeshHumanoid, MeshChain)
	case c.Scene.Mesh == MeshChain && (c.Scene.ChainBones < 1 || c.Scene.BoneLength <= 0):
		return errors.Errorf("chain of %d bones of length %v is invalid", c.Scene.ChainBones, c.Scene.BoneLength)
	case c.Profiler.Enabled && c.Profiler.Interval <= 0:
		return errors.Errorf("profiler interval %v must be positive", c.Profiler.Interval)
	}
	return nil
}

// SkeletonOptions converts the picking and color settings into skeleton options.
//
// Returns:
//   - []skeleton.SkeletonBuilderOption: the options
func (c Config) SkeletonOptions() []skeleton.SkeletonBuilderOption {
	return []skeleton.SkeletonBuilderOption{
		skeleton.WithCylinderRadius(c.Picking.CylinderRadius),
		skeleton.WithHandleRadius(c.Picking.HandleRadius),
		skeleton.WithColors(c.Colors.Bone, c.Colors.Highlight, c.Colors.Handle),
	}
}
