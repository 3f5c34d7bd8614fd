package skeleton

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// NoBone is the sentinel index for "no bone": the parent of a root, or an unset highlight.
const NoBone = -1

const (
	// RayEpsilon is the distance a ray origin is nudged along the ray when deciding whether
	// the closest approach lies in front of it. It keeps a ray cast from a bone's own surface
	// from reporting that bone.
	RayEpsilon float32 = 1e-4

	// DefaultCylinderRadius is the pick-cylinder radius around each bone axis.
	DefaultCylinderRadius float32 = 0.05

	// parallelEpsilon is the smallest |dir × axis| treated as non-parallel.
	parallelEpsilon float32 = 1e-6

	// lengthEpsilon is the shortest bone axis the intersection test accepts.
	lengthEpsilon float32 = 1e-6
)

// BoneDefinition is the load-time description of one bone, as produced by a BoneLoader.
// Positions are world space in the rest pose.
type BoneDefinition struct {
	// Parent is the index of the parent bone, or NoBone for a root.
	Parent int

	// Children are the indices of the child bones. Order is preserved.
	Children []int

	// RestJoint is the joint (proximal) position in the rest pose.
	RestJoint mgl32.Vec3

	// RestEndpoint is the distal end position in the rest pose.
	RestEndpoint mgl32.Vec3

	// RestRotation is the rest orientation. The zero quaternion is treated as identity.
	RestRotation mgl32.Quat

	// RestTransform is the rest-pose transform. The zero matrix is treated as identity.
	RestTransform mgl32.Mat4
}

// Bone is a single joint of a Skeleton.
//
// Rest fields are fixed at construction. Live fields (joint/endpoint position, world rotation)
// are derived from the local rotations of the bone and its ancestors and are only valid after
// the owning skeleton's update pass has run.
type Bone struct {
	index    int
	parent   int
	children []int

	restJointPosition    mgl32.Vec3
	restEndpointPosition mgl32.Vec3
	restRotation         mgl32.Quat
	restTransform        mgl32.Mat4
	relativeOffset       mgl32.Mat4

	localRotation mgl32.Quat

	jointPosition    mgl32.Vec3
	endpointPosition mgl32.Vec3
	worldRotation    mgl32.Quat
}

// Index returns the bone's position in the skeleton's bone array.
func (b *Bone) Index() int { return b.index }

// Parent returns the parent bone index, or NoBone for a root.
func (b *Bone) Parent() int { return b.parent }

// IsRoot reports whether the bone has no parent.
func (b *Bone) IsRoot() bool { return b.parent == NoBone }

// Children returns a copy of the ordered child indices.
func (b *Bone) Children() []int {
	out := make([]int, len(b.children))
	copy(out, b.children)
	return out
}

// RestJointPosition returns the joint position in the rest pose.
func (b *Bone) RestJointPosition() mgl32.Vec3 { return b.restJointPosition }

// RestEndpointPosition returns the endpoint position in the rest pose.
func (b *Bone) RestEndpointPosition() mgl32.Vec3 { return b.restEndpointPosition }

// RestRotation returns the rest orientation supplied by the loader.
func (b *Bone) RestRotation() mgl32.Quat { return b.restRotation }

// RestTransform returns the rest-pose transform supplied by the loader.
func (b *Bone) RestTransform() mgl32.Mat4 { return b.restTransform }

// RelativeOffset returns the translation from the parent's rest joint to this bone's rest joint.
func (b *Bone) RelativeOffset() mgl32.Mat4 { return b.relativeOffset }

// LocalRotation returns the accumulated user rotation relative to the rest orientation.
func (b *Bone) LocalRotation() mgl32.Quat { return b.localRotation }

// JointPosition returns the current world-space joint position.
func (b *Bone) JointPosition() mgl32.Vec3 { return b.jointPosition }

// EndpointPosition returns the current world-space endpoint position.
func (b *Bone) EndpointPosition() mgl32.Vec3 { return b.endpointPosition }

// WorldRotation returns the current world-space orientation.
func (b *Bone) WorldRotation() mgl32.Quat { return b.worldRotation }

// Length returns the rest distance between joint and endpoint.
func (b *Bone) Length() float32 {
	return b.restEndpointPosition.Sub(b.restJointPosition).Len()
}

// Midpoint returns the current world-space midpoint of the bone.
func (b *Bone) Midpoint() mgl32.Vec3 {
	return b.jointPosition.Add(b.endpointPosition).Mul(0.5)
}

// Axis returns the current unit direction from joint to endpoint: the rest direction rotated
// by the bone's world rotation. Returns the zero vector for a zero-length bone.
func (b *Bone) Axis() mgl32.Vec3 {
	rest := b.restEndpointPosition.Sub(b.restJointPosition)
	l := rest.Len()
	if l < lengthEpsilon {
		return mgl32.Vec3{}
	}
	return normalize(b.worldRotation.Rotate(rest))
}

// Rotate composes delta onto the bone's local rotation in the bone's own frame
// (local = local * delta). Live fields are left stale until the skeleton updates.
//
// Parameters:
//   - delta: the rotation to apply
func (b *Bone) Rotate(delta mgl32.Quat) {
	b.localRotation = b.localRotation.Mul(delta).Normalize()
}

// Intersect tests a ray against the bone's pick cylinder: a cylinder of the given radius around
// the segment from the current joint to the current endpoint. End caps are not tested.
//
// Parameters:
//   - origin: ray origin in world space
//   - direction: ray direction (need not be normalized)
//   - radius: cylinder radius
//
// Returns:
//   - float32: distance along the ray from origin to the cylinder surface (0 if origin is inside)
//   - bool: false when the ray misses, runs parallel to the bone, or the hit is behind the origin
func (b *Bone) Intersect(origin, direction mgl32.Vec3, radius float32) (float32, bool) {
	rest := b.restEndpointPosition.Sub(b.restJointPosition)
	length := rest.Len()
	if length < lengthEpsilon {
		return 0, false
	}
	dirLen := direction.Len()
	if dirLen < lengthEpsilon {
		return 0, false
	}

	axis := normalize(b.worldRotation.Rotate(rest))
	dir := direction.Mul(1 / dirLen)

	n := dir.Cross(axis)
	sinTheta := n.Len()
	if sinTheta < parallelEpsilon {
		return 0, false
	}
	n = n.Mul(1 / sinTheta)

	w := origin.Sub(b.jointPosition)
	dist := math32.Abs(w.Dot(n))
	if dist > radius {
		return 0, false
	}

	// Closest points between origin+s*dir and joint+t*axis (both unit directions).
	cosTheta := dir.Dot(axis)
	d := dir.Dot(w)
	e := axis.Dot(w)
	denom := 1 - cosTheta*cosTheta
	s := (cosTheta*e - d) / denom
	t := (e - cosTheta*d) / denom

	joint := b.jointPosition
	endpoint := joint.Add(axis.Mul(length))
	onAxis := joint.Add(axis.Mul(t))
	if onAxis.Sub(joint).Len() > length || onAxis.Sub(endpoint).Len() > length {
		return 0, false
	}

	onRay := origin.Add(dir.Mul(s))
	nudged := origin.Add(dir.Mul(RayEpsilon))
	if onRay.Sub(nudged).Len() > onRay.Sub(origin).Len() {
		return 0, false
	}

	halfChord := math32.Sqrt(radius*radius-dist*dist) / sinTheta
	hit := s - halfChord
	if hit < 0 {
		hit = 0
	}
	return hit, true
}

// normalize returns v scaled to unit length, or the zero vector when v is degenerate.
func normalize(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l < lengthEpsilon {
		return mgl32.Vec3{}
	}
	return v.Mul(1 / l)
}
