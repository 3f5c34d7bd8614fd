package skeleton

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-rig/engine/geometry"
)

// SkeletonBuilderOption is a functional option for configuring a skeleton at construction.
type SkeletonBuilderOption func(s *skeletonImpl)

// WithName sets the skeleton identifier used in errors and logs.
//
// Parameters:
//   - name: the skeleton name
//
// Returns:
//   - SkeletonBuilderOption: option function to apply
func WithName(name string) SkeletonBuilderOption {
	return func(s *skeletonImpl) {
		s.name = name
	}
}

// WithWorldTransform sets the mesh world transform supplied by the loader.
// The kinematics work in skeleton space; Pick maps world rays through the inverse and the
// renderer applies the transform as the model matrix. A singular transform makes every pick miss.
//
// Parameters:
//   - m: the world transform
//
// Returns:
//   - SkeletonBuilderOption: option function to apply
func WithWorldTransform(m mgl32.Mat4) SkeletonBuilderOption {
	return func(s *skeletonImpl) {
		s.worldTransform = m
	}
}

// WithGeometry attaches the skinned mesh geometry.
//
// Parameters:
//   - g: the mesh geometry
//
// Returns:
//   - SkeletonBuilderOption: option function to apply
func WithGeometry(g *geometry.MeshGeometry) SkeletonBuilderOption {
	return func(s *skeletonImpl) {
		s.geometry = g
	}
}

// WithProxyGeometry sets the base bone-proxy draw geometry (one capsule-like shape).
// The skeleton expands it into ProxyReplication copies at construction.
//
// Parameters:
//   - indices: triangle indices into positions
//   - positions: 3 floats per vertex
//
// Returns:
//   - SkeletonBuilderOption: option function to apply
func WithProxyGeometry(indices []uint32, positions []float32) SkeletonBuilderOption {
	return func(s *skeletonImpl) {
		s.baseProxyIndices = append([]uint32(nil), indices...)
		s.baseProxyPositions = append([]float32(nil), positions...)
	}
}

// WithCylinderRadius sets the pick-cylinder radius. Non-positive values are ignored.
//
// Parameters:
//   - r: the radius in world units
//
// Returns:
//   - SkeletonBuilderOption: option function to apply
func WithCylinderRadius(r float32) SkeletonBuilderOption {
	return func(s *skeletonImpl) {
		if r > 0 {
			s.cylinderRadius = r
		}
	}
}

// WithHandleRadius sets the distance of the rotation handles from the highlighted bone's midpoint.
// Non-positive values are ignored.
//
// Parameters:
//   - r: the handle distance in world units
//
// Returns:
//   - SkeletonBuilderOption: option function to apply
func WithHandleRadius(r float32) SkeletonBuilderOption {
	return func(s *skeletonImpl) {
		if r > 0 {
			s.handleRadius = r
		}
	}
}

// WithOffscreenDistance sets the coordinate used to park the handles while nothing is highlighted.
//
// Parameters:
//   - d: the off-screen coordinate
//
// Returns:
//   - SkeletonBuilderOption: option function to apply
func WithOffscreenDistance(d float32) SkeletonBuilderOption {
	return func(s *skeletonImpl) {
		s.offscreenDistance = d
	}
}

// WithColors sets the bone, highlight and handle RGBA colors.
//
// Parameters:
//   - bone: color of bones that are not highlighted
//   - highlight: color of the highlighted bone
//   - handle: color of the rotation-handle slots
//
// Returns:
//   - SkeletonBuilderOption: option function to apply
func WithColors(bone, highlight, handle [4]float32) SkeletonBuilderOption {
	return func(s *skeletonImpl) {
		s.defaultColor = bone
		s.highlightColor = highlight
		s.handleColor = handle
	}
}
