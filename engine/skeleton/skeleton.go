package skeleton

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/Carmen-Shannon/oxy-rig/engine/geometry"
)

var (
	// ErrBoneOutOfRange is returned when a bone index does not address a bone of the skeleton.
	ErrBoneOutOfRange = errors.New("bone index out of range")

	// ErrInvalidHierarchy is returned when bone definitions do not describe a forest.
	ErrInvalidHierarchy = errors.New("invalid bone hierarchy")

	// ErrInvalidProxyGeometry is returned when the bone-proxy draw buffers are malformed.
	ErrInvalidProxyGeometry = errors.New("invalid bone proxy geometry")
)

// skeletonImpl is the implementation of the Skeleton interface.
type skeletonImpl struct {
	name           string
	bones          []Bone
	roots          []int
	highlighted    int
	worldTransform mgl32.Mat4
	worldInverse   mgl32.Mat4 // zero when worldTransform is singular
	geometry       *geometry.MeshGeometry

	cylinderRadius    float32
	handleRadius      float32
	offscreenDistance float32
	defaultColor      [4]float32
	highlightColor    [4]float32
	handleColor       [4]float32

	baseProxyIndices   []uint32
	baseProxyPositions []float32

	proxyIndices   []uint32
	proxyPositions []float32
	proxyBoneIndex []float32
}

// Skeleton owns a bone hierarchy and keeps the bones' world-space pose consistent with their
// local rotations. It also derives the per-instance buffers used to draw and pick the bones.
//
// A Skeleton is not safe for concurrent use; callers drive it from a single goroutine.
type Skeleton interface {
	// Name returns the skeleton identifier.
	//
	// Returns:
	//   - string: the name given at construction
	Name() string

	// BoneCount returns the number of bones.
	//
	// Returns:
	//   - int: the bone count
	BoneCount() int

	// Bone returns the bone at index i, or nil if i is out of range.
	// The returned bone may be rotated directly; call Update before reading its live pose.
	//
	// Parameters:
	//   - i: bone index
	//
	// Returns:
	//   - *Bone: the bone or nil
	Bone(i int) *Bone

	// Roots returns the indices of bones without a parent, in bone array order.
	//
	// Returns:
	//   - []int: the root indices
	Roots() []int

	// WorldTransform returns the mesh world transform supplied by the loader. Joint positions and
	// every derived buffer are in skeleton space; this matrix places them in the world.
	//
	// Returns:
	//   - mgl32.Mat4: the world transform
	WorldTransform() mgl32.Mat4

	// Geometry returns the skinned mesh geometry, or nil if none was supplied.
	//
	// Returns:
	//   - *geometry.MeshGeometry: the geometry or nil
	Geometry() *geometry.MeshGeometry

	// CylinderRadius returns the pick-cylinder radius used by Pick.
	//
	// Returns:
	//   - float32: the radius
	CylinderRadius() float32

	// UpdateRotations recomputes every bone's world rotation from the local rotations,
	// walking each root's subtree in full.
	UpdateRotations()

	// UpdatePositions recomputes every bone's joint and endpoint positions from the
	// relative offsets and local rotations, walking each root's subtree in full.
	UpdatePositions()

	// Update runs UpdateRotations followed by UpdatePositions.
	Update()

	// RotateBone composes delta onto a bone's local rotation and recomputes the pose.
	//
	// Parameters:
	//   - i: bone index
	//   - delta: rotation in the bone's local frame
	//
	// Returns:
	//   - error: ErrBoneOutOfRange if i does not address a bone
	RotateBone(i int, delta mgl32.Quat) error

	// ResetPose sets every local rotation back to identity and recomputes the pose.
	ResetPose()

	// HighlightedBone returns the highlighted bone index, or NoBone.
	//
	// Returns:
	//   - int: the stored highlight index
	HighlightedBone() int

	// HighlightedBoneIndex resolves the highlight against the bone array by scanning for it.
	// Returns NoBone when nothing is highlighted or the stored index matches no bone.
	//
	// Returns:
	//   - int: the highlighted bone index or NoBone
	HighlightedBoneIndex() int

	// SetHighlightedBone highlights bone i. Passing NoBone clears the highlight.
	//
	// Parameters:
	//   - i: bone index or NoBone
	//
	// Returns:
	//   - error: ErrBoneOutOfRange if i is neither NoBone nor a valid index
	SetHighlightedBone(i int) error

	// ClearHighlightedBone removes the highlight.
	ClearHighlightedBone()

	// Pick intersects a world-space ray with every bone and returns the closest hit.
	// The ray is mapped into skeleton space through the inverse world transform.
	//
	// Parameters:
	//   - origin: ray origin in world space
	//   - direction: ray direction in world space
	//
	// Returns:
	//   - int: index of the closest bone hit, or NoBone
	//   - float32: world-space distance from origin to the hit
	//   - bool: true if any bone was hit
	Pick(origin, direction mgl32.Vec3) (int, float32, bool)

	// PickAndHighlight runs Pick and highlights the hit bone, clearing the highlight on a miss.
	//
	// Parameters:
	//   - origin: ray origin in world space
	//   - direction: ray direction
	//
	// Returns:
	//   - int: the newly highlighted bone index, or NoBone
	PickAndHighlight(origin, direction mgl32.Vec3) int

	// InstanceSlotCount returns the number of instance slots in the derived buffers:
	// one per bone plus HandleSlotCount rotation-handle slots.
	//
	// Returns:
	//   - int: the slot count
	InstanceSlotCount() int

	// BoneTranslations returns 3 floats per instance slot: each bone's joint position followed
	// by the rotation-handle positions (pushed off-screen when nothing is highlighted).
	//
	// Returns:
	//   - []float32: a newly allocated translation buffer
	BoneTranslations() []float32

	// BoneRotations returns 4 floats (x, y, z, w) per instance slot: each bone's world rotation
	// followed by the highlighted bone's rotation repeated for every handle slot.
	//
	// Returns:
	//   - []float32: a newly allocated rotation buffer
	BoneRotations() []float32

	// BoneHighlights returns an RGBA color per instance slot.
	//
	// Returns:
	//   - []float32: a newly allocated color buffer
	BoneHighlights() []float32

	// BoneIndexBuffer returns the expanded bone-proxy index buffer.
	// The buffer is computed once at construction; callers must not modify it.
	//
	// Returns:
	//   - []uint32: the index buffer
	BoneIndexBuffer() []uint32

	// BonePositionBuffer returns the expanded bone-proxy vertex positions (3 floats per vertex).
	// The buffer is computed once at construction; callers must not modify it.
	//
	// Returns:
	//   - []float32: the position buffer
	BonePositionBuffer() []float32

	// BoneIndexAttribute returns one float per expanded proxy vertex holding its replica number:
	// 0 for the bone proxy, 1..HandleSlotCount for the handle widgets.
	// The buffer is computed once at construction; callers must not modify it.
	//
	// Returns:
	//   - []float32: the index attribute buffer
	BoneIndexAttribute() []float32

	// Describe returns an indented dump of the hierarchy with the current joint positions.
	//
	// Returns:
	//   - string: the formatted tree
	Describe() string
}

var _ Skeleton = &skeletonImpl{}

// NewSkeleton builds a skeleton from bone definitions and computes its initial pose.
// The hierarchy is validated up front: every parent and child index must be in range,
// parent and child links must agree, and every bone must be reachable from a root exactly once.
//
// Parameters:
//   - defs: bone definitions indexed by bone index
//   - options: functional options for rendering constants, proxy geometry and metadata
//
// Returns:
//   - Skeleton: the constructed skeleton in its rest pose
//   - error: ErrInvalidHierarchy or ErrInvalidProxyGeometry (wrapped) on malformed input
func NewSkeleton(defs []BoneDefinition, options ...SkeletonBuilderOption) (Skeleton, error) {
	s := &skeletonImpl{
		name:              "skeleton",
		highlighted:       NoBone,
		worldTransform:    mgl32.Ident4(),
		cylinderRadius:    DefaultCylinderRadius,
		handleRadius:      DefaultHandleRadius,
		offscreenDistance: OffscreenDistance,
		defaultColor:      DefaultColor,
		highlightColor:    HighlightColor,
		handleColor:       HandleColor,
	}
	for _, opt := range options {
		opt(s)
	}

	if err := validateHierarchy(defs); err != nil {
		return nil, errors.Wrapf(err, "skeleton %q", s.name)
	}

	s.bones = make([]Bone, len(defs))
	for i, def := range defs {
		b := &s.bones[i]
		b.index = i
		b.parent = def.Parent
		b.children = append([]int(nil), def.Children...)
		b.restJointPosition = def.RestJoint
		b.restEndpointPosition = def.RestEndpoint
		b.restRotation = def.RestRotation
		if b.restRotation == (mgl32.Quat{}) {
			b.restRotation = mgl32.QuatIdent()
		}
		b.restTransform = def.RestTransform
		if b.restTransform == (mgl32.Mat4{}) {
			b.restTransform = mgl32.Ident4()
		}
		b.localRotation = mgl32.QuatIdent()
		b.worldRotation = mgl32.QuatIdent()

		if def.Parent == NoBone {
			s.roots = append(s.roots, i)
		}
	}

	for i := range s.bones {
		b := &s.bones[i]
		offset := b.restJointPosition
		if b.parent != NoBone {
			offset = offset.Sub(s.bones[b.parent].restJointPosition)
		}
		b.relativeOffset = mgl32.Translate3D(offset.X(), offset.Y(), offset.Z())
	}

	if err := s.buildProxyBuffers(); err != nil {
		return nil, errors.Wrapf(err, "skeleton %q", s.name)
	}

	if s.worldTransform.Det() != 0 {
		s.worldInverse = s.worldTransform.Inv()
	}

	s.Update()
	return s, nil
}

// validateHierarchy checks that defs describe a forest whose parent and child links agree.
func validateHierarchy(defs []BoneDefinition) error {
	n := len(defs)
	for i, def := range defs {
		if def.Parent != NoBone && (def.Parent < 0 || def.Parent >= n) {
			return errors.Wrapf(ErrInvalidHierarchy, "bone %d: parent %d out of range", i, def.Parent)
		}
		if def.Parent == i {
			return errors.Wrapf(ErrInvalidHierarchy, "bone %d is its own parent", i)
		}
		for _, c := range def.Children {
			if c < 0 || c >= n {
				return errors.Wrapf(ErrInvalidHierarchy, "bone %d: child %d out of range", i, c)
			}
			if defs[c].Parent != i {
				return errors.Wrapf(ErrInvalidHierarchy, "bone %d lists child %d whose parent is %d", i, c, defs[c].Parent)
			}
		}
		if def.Parent != NoBone && !containsInt(defs[def.Parent].Children, i) {
			return errors.Wrapf(ErrInvalidHierarchy, "bone %d is missing from the children of parent %d", i, def.Parent)
		}
	}

	// Every bone must be visited exactly once from the roots; anything left over sits on a cycle.
	visited := make([]bool, n)
	stack := make([]int, 0, n)
	for i, def := range defs {
		if def.Parent == NoBone {
			stack = append(stack, i)
		}
	}
	count := 0
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[i] {
			return errors.Wrapf(ErrInvalidHierarchy, "bone %d reached twice", i)
		}
		visited[i] = true
		count++
		stack = append(stack, defs[i].Children...)
	}
	if count != n {
		for i, v := range visited {
			if !v {
				return errors.Wrapf(ErrInvalidHierarchy, "bone %d is not reachable from a root", i)
			}
		}
	}
	return nil
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func (s *skeletonImpl) Name() string {
	return s.name
}

func (s *skeletonImpl) BoneCount() int {
	return len(s.bones)
}

func (s *skeletonImpl) Bone(i int) *Bone {
	if i < 0 || i >= len(s.bones) {
		return nil
	}
	return &s.bones[i]
}

func (s *skeletonImpl) Roots() []int {
	out := make([]int, len(s.roots))
	copy(out, s.roots)
	return out
}

func (s *skeletonImpl) WorldTransform() mgl32.Mat4 {
	return s.worldTransform
}

func (s *skeletonImpl) Geometry() *geometry.MeshGeometry {
	return s.geometry
}

func (s *skeletonImpl) CylinderRadius() float32 {
	return s.cylinderRadius
}

func (s *skeletonImpl) UpdateRotations() {
	for _, r := range s.roots {
		root := &s.bones[r]
		root.worldRotation = root.localRotation
		for _, c := range root.children {
			s.updateRotation(c, root.worldRotation)
		}
	}
}

// updateRotation sets world = parentWorld * local for bone i and recurses into its children.
func (s *skeletonImpl) updateRotation(i int, parentWorld mgl32.Quat) {
	b := &s.bones[i]
	b.worldRotation = parentWorld.Mul(b.localRotation).Normalize()
	for _, c := range b.children {
		s.updateRotation(c, b.worldRotation)
	}
}

func (s *skeletonImpl) UpdatePositions() {
	for _, r := range s.roots {
		s.updatePosition(r, mgl32.Ident4())
	}
}

// updatePosition composes the chain transform of bone i onto parentChain, places the joint and
// endpoint, and recurses into its children.
func (s *skeletonImpl) updatePosition(i int, parentChain mgl32.Mat4) {
	b := &s.bones[i]
	chain := parentChain.Mul4(b.relativeOffset).Mul4(b.localRotation.Mat4())

	b.jointPosition = chain.Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3()
	rest := b.restEndpointPosition.Sub(b.restJointPosition)
	b.endpointPosition = chain.Mul4x1(rest.Vec4(1)).Vec3()

	for _, c := range b.children {
		s.updatePosition(c, chain)
	}
}

func (s *skeletonImpl) Update() {
	s.UpdateRotations()
	s.UpdatePositions()
}

func (s *skeletonImpl) RotateBone(i int, delta mgl32.Quat) error {
	b := s.Bone(i)
	if b == nil {
		return errors.Wrapf(ErrBoneOutOfRange, "rotate bone %d of %d", i, len(s.bones))
	}
	b.Rotate(delta)
	s.Update()
	return nil
}

func (s *skeletonImpl) ResetPose() {
	for i := range s.bones {
		s.bones[i].localRotation = mgl32.QuatIdent()
	}
	s.Update()
}

func (s *skeletonImpl) HighlightedBone() int {
	return s.highlighted
}

func (s *skeletonImpl) HighlightedBoneIndex() int {
	if s.highlighted == NoBone {
		return NoBone
	}
	for i := range s.bones {
		if s.bones[i].index == s.highlighted {
			return i
		}
	}
	return NoBone
}

func (s *skeletonImpl) SetHighlightedBone(i int) error {
	if i != NoBone && (i < 0 || i >= len(s.bones)) {
		return errors.Wrapf(ErrBoneOutOfRange, "highlight bone %d of %d", i, len(s.bones))
	}
	s.highlighted = i
	return nil
}

func (s *skeletonImpl) ClearHighlightedBone() {
	s.highlighted = NoBone
}

func (s *skeletonImpl) Pick(origin, direction mgl32.Vec3) (int, float32, bool) {
	o, d, scale, ok := s.toSkeletonSpace(origin, direction)
	if !ok {
		return NoBone, 0, false
	}

	best := NoBone
	var bestDist float32
	for i := range s.bones {
		dist, ok := s.bones[i].Intersect(o, d, s.cylinderRadius)
		if !ok {
			continue
		}
		if best == NoBone || dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	if best == NoBone {
		return NoBone, 0, false
	}
	return best, bestDist / scale, true
}

// toSkeletonSpace maps a world-space ray through the inverse world transform. The returned
// direction is unit length and scale is skeleton units per world unit along the ray.
func (s *skeletonImpl) toSkeletonSpace(origin, direction mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3, float32, bool) {
	dirLen := direction.Len()
	if dirLen < lengthEpsilon || s.worldInverse == (mgl32.Mat4{}) {
		return mgl32.Vec3{}, mgl32.Vec3{}, 0, false
	}
	o := mgl32.TransformCoordinate(origin, s.worldInverse)
	d := mgl32.TransformNormal(direction.Mul(1/dirLen), s.worldInverse)
	scale := d.Len()
	if scale < lengthEpsilon {
		return mgl32.Vec3{}, mgl32.Vec3{}, 0, false
	}
	return o, d.Mul(1 / scale), scale, true
}

func (s *skeletonImpl) PickAndHighlight(origin, direction mgl32.Vec3) int {
	i, _, _ := s.Pick(origin, direction)
	s.highlighted = i
	return i
}
