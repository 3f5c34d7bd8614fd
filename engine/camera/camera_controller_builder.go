package camera

import (
	"github.com/go-gl/mathgl/mgl32"
)

// CameraControllerOption is a functional option for configuring a CameraController.
// Initial radius and elevation are clamped to their bounds after every option has run,
// so bounds and start values may be given in any order.
type CameraControllerOption func(*cameraControllerImpl)

// WithRadius sets the starting distance between the camera and the orbit pivot.
//
// Parameters:
//   - radius: distance to the pivot in world units
//
// Returns:
//   - CameraControllerOption: functional option to set the radius
func WithRadius(radius float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.radius = radius
	}
}

// WithAzimuth sets the starting angle around the world Y axis. Zero looks at the pivot from +Z,
// which is where the procedural rigs face.
//
// Parameters:
//   - azimuth: angle in radians
//
// Returns:
//   - CameraControllerOption: functional option to set the azimuth
func WithAzimuth(azimuth float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.azimuth = azimuth
	}
}

// WithElevation sets the starting height angle above the pivot's horizontal plane.
//
// Parameters:
//   - elevation: angle in radians, positive looks down on the skeleton
//
// Returns:
//   - CameraControllerOption: functional option to set the elevation
func WithElevation(elevation float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.elevation = elevation
	}
}

// WithTarget sets the orbit pivot.
//
// Parameters:
//   - target: world-space pivot, usually the skeleton's center
//
// Returns:
//   - CameraControllerOption: functional option to set the target position
func WithTarget(target mgl32.Vec3) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.target = target
	}
}

// WithRadiusBounds limits how close and how far scroll zoom may take the camera.
//
// Parameters:
//   - minRadius: closest distance to the pivot
//   - maxRadius: farthest distance to the pivot
//
// Returns:
//   - CameraControllerOption: functional option to set radius bounds
func WithRadiusBounds(minRadius, maxRadius float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.minRadius = minRadius
		cc.maxRadius = maxRadius
	}
}

// WithElevationBounds limits the height angle reachable by a middle-button drag.
// Keep both bounds strictly inside (-pi/2, pi/2); at the poles the view direction is parallel
// to the up vector and the view matrix degenerates.
//
// Parameters:
//   - minElevation: lowest angle in radians
//   - maxElevation: highest angle in radians
//
// Returns:
//   - CameraControllerOption: functional option to set elevation bounds
func WithElevationBounds(minElevation, maxElevation float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.minElevation = minElevation
		cc.maxElevation = maxElevation
	}
}

// WithOrbitSpeed sets how far one OrbitLeft or OrbitRight call (the A and D keys) turns the camera.
//
// Parameters:
//   - speed: radians per call
//
// Returns:
//   - CameraControllerOption: functional option to set orbit speed
func WithOrbitSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.orbitSpeed = speed
	}
}

// WithMouseSensitivity sets the drag-to-orbit rate.
//
// Parameters:
//   - sensitivity: radians per pixel of cursor movement
//
// Returns:
//   - CameraControllerOption: functional option to set mouse sensitivity
func WithMouseSensitivity(sensitivity float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.mouseSensitivity = sensitivity
	}
}

// WithZoomSpeed sets the distance one scroll step moves the camera toward the pivot.
//
// Parameters:
//   - speed: world units per scroll step
//
// Returns:
//   - CameraControllerOption: functional option to set zoom speed
func WithZoomSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.zoomSpeed = speed
	}
}

// WithPanSpeed sets the shift+drag pan rate. The offset scales with the current radius so the
// skeleton tracks the cursor at any zoom.
//
// Parameters:
//   - speed: fraction of the radius moved per pixel of cursor movement
//
// Returns:
//   - CameraControllerOption: functional option to set pan speed
func WithPanSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.panSpeed = speed
	}
}
