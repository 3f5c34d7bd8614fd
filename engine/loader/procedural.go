package loader

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/Carmen-Shannon/oxy-rig/engine/geometry"
	"github.com/Carmen-Shannon/oxy-rig/engine/skeleton"
)

// DefaultProxySegments is the ring resolution used by the procedural meshes' proxy shape.
const DefaultProxySegments = 8

// boneSpec is the input of buildMesh: one bone by parent and rest positions.
type boneSpec struct {
	name   string
	parent int
	joint  mgl32.Vec3
	end    mgl32.Vec3
}

// CapsuleProxy returns a closed capsule-like proxy shape running from the origin to (0, 1, 0)
// with unit radius: a pole at each end and two rings of the given number of segments.
// Triangles wind counter-clockwise when seen from outside.
//
// Parameters:
//   - segments: ring resolution, clamped to at least 3
//
// Returns:
//   - []uint32: triangle indices
//   - []float32: vertex positions, 3 floats per vertex
func CapsuleProxy(segments int) ([]uint32, []float32) {
	if segments < 3 {
		segments = 3
	}
	const (
		lowRing  float32 = 0.15
		highRing float32 = 0.85
	)

	positions := make([]float32, 0, 3*(2*segments+2))
	positions = append(positions, 0, 0, 0)
	for _, y := range []float32{lowRing, highRing} {
		for i := range segments {
			a := 2 * math32.Pi * float32(i) / float32(segments)
			positions = append(positions, math32.Cos(a), y, math32.Sin(a))
		}
	}
	positions = append(positions, 0, 1, 0)

	bottom := uint32(0)
	top := uint32(2*segments + 1)
	low := func(i int) uint32 { return uint32(1 + i%segments) }
	high := func(i int) uint32 { return uint32(1 + segments + i%segments) }

	indices := make([]uint32, 0, 12*segments)
	for i := range segments {
		a, b := low(i), low(i+1)
		c, d := high(i+1), high(i)
		indices = append(indices,
			bottom, a, b,
			a, c, b,
			a, d, c,
			top, c, d,
		)
	}
	return indices, positions
}

// ChainMesh builds a straight chain of bones along +Y starting at the origin.
//
// Parameters:
//   - name: the mesh name
//   - boneCount: number of bones
//   - boneLength: rest length of every bone
//
// Returns:
//   - *MeshData: the mesh
//   - error: error if boneCount is negative or boneLength is not positive
func ChainMesh(name string, boneCount int, boneLength float32) (*MeshData, error) {
	if boneCount < 0 {
		return nil, errors.Errorf("chain %q: negative bone count %d", name, boneCount)
	}
	if boneLength <= 0 {
		return nil, errors.Errorf("chain %q: bone length %v must be positive", name, boneLength)
	}
	specs := make([]boneSpec, boneCount)
	for i := range specs {
		specs[i] = boneSpec{
			name:   "link",
			parent: i - 1,
			joint:  mgl32.Vec3{0, float32(i) * boneLength, 0},
			end:    mgl32.Vec3{0, float32(i+1) * boneLength, 0},
		}
	}
	return buildMesh(name, specs)
}

// HumanoidMesh builds a standing humanoid of 17 bones rooted at the hips, about 1.8 units tall,
// facing +Z.
//
// Parameters:
//   - name: the mesh name
//
// Returns:
//   - *MeshData: the mesh
//   - error: error if the mesh cannot be assembled
func HumanoidMesh(name string) (*MeshData, error) {
	v := func(x, y, z float32) mgl32.Vec3 { return mgl32.Vec3{x, y, z} }
	specs := []boneSpec{
		{name: "hips", parent: skeleton.NoBone, joint: v(0, 1.0, 0), end: v(0, 1.1, 0)},
		{name: "spine", parent: 0, joint: v(0, 1.1, 0), end: v(0, 1.3, 0)},
		{name: "chest", parent: 1, joint: v(0, 1.3, 0), end: v(0, 1.5, 0)},
		{name: "neck", parent: 2, joint: v(0, 1.5, 0), end: v(0, 1.6, 0)},
		{name: "head", parent: 3, joint: v(0, 1.6, 0), end: v(0, 1.8, 0)},
	}
	for _, side := range []struct {
		suffix string
		x      float32
	}{{".L", 1}, {".R", -1}} {
		arm := len(specs)
		specs = append(specs,
			boneSpec{name: "upperArm" + side.suffix, parent: 2, joint: v(0.2*side.x, 1.45, 0), end: v(0.45*side.x, 1.45, 0)},
			boneSpec{name: "forearm" + side.suffix, parent: arm, joint: v(0.45*side.x, 1.45, 0), end: v(0.7*side.x, 1.45, 0)},
			boneSpec{name: "hand" + side.suffix, parent: arm + 1, joint: v(0.7*side.x, 1.45, 0), end: v(0.8*side.x, 1.45, 0)},
		)
	}
	for _, side := range []struct {
		suffix string
		x      float32
	}{{".L", 1}, {".R", -1}} {
		leg := len(specs)
		specs = append(specs,
			boneSpec{name: "thigh" + side.suffix, parent: 0, joint: v(0.1*side.x, 1.0, 0), end: v(0.1*side.x, 0.55, 0)},
			boneSpec{name: "shin" + side.suffix, parent: leg, joint: v(0.1*side.x, 0.55, 0), end: v(0.1*side.x, 0.1, 0)},
			boneSpec{name: "foot" + side.suffix, parent: leg + 1, joint: v(0.1*side.x, 0.1, 0), end: v(0.1*side.x, 0, 0.15)},
		)
	}
	return buildMesh(name, specs)
}

// buildMesh derives children, offsets, a two-vertex-per-bone skinned geometry and the capsule
// proxy from bone specs. Each bone contributes its joint vertex, weighted half to the bone and
// half to its parent, and its endpoint vertex, weighted fully to the bone.
func buildMesh(name string, specs []boneSpec) (*MeshData, error) {
	bones := make([]BoneRecord, len(specs))
	for i, s := range specs {
		offset := s.joint
		if s.parent != skeleton.NoBone {
			if s.parent < 0 || s.parent >= i {
				return nil, errors.Wrapf(skeleton.ErrInvalidHierarchy, "mesh %q bone %d: parent %d must precede it", name, i, s.parent)
			}
			offset = s.joint.Sub(specs[s.parent].joint)
			bones[s.parent].Children = append(bones[s.parent].Children, i)
		}
		bones[i] = BoneRecord{
			Name:          s.name,
			Parent:        s.parent,
			Children:      bones[i].Children,
			RestJoint:     s.joint,
			RestEndpoint:  s.end,
			RestRotation:  mgl32.QuatIdent(),
			RestTransform: mgl32.Translate3D(s.joint.X(), s.joint.Y(), s.joint.Z()),
			Offset:        offset,
		}
	}

	g, err := skinnedGeometry(specs)
	if err != nil {
		return nil, errors.Wrapf(err, "mesh %q", name)
	}

	indices, positions := CapsuleProxy(DefaultProxySegments)
	return &MeshData{
		Name:           name,
		WorldTransform: mgl32.Ident4(),
		Bones:          bones,
		Geometry:       g,
		ProxyIndices:   indices,
		ProxyPositions: positions,
	}, nil
}

func skinnedGeometry(specs []boneSpec) (*geometry.MeshGeometry, error) {
	n := 2 * len(specs)
	position := make([]float32, 0, 3*n)
	normal := make([]float32, 0, 3*n)
	skinIndex := make([]float32, 0, 4*n)
	skinWeight := make([]float32, 0, 4*n)
	var frames [4][]float32
	for k := range frames {
		frames[k] = make([]float32, 0, 3*n)
	}

	appendVertex := func(p, nrm mgl32.Vec3, influences []int, weights []float32) {
		position = append(position, p[0], p[1], p[2])
		normal = append(normal, nrm[0], nrm[1], nrm[2])
		for k := range 4 {
			if k < len(influences) {
				skinIndex = append(skinIndex, float32(influences[k]))
				skinWeight = append(skinWeight, weights[k])
				local := p.Sub(specs[influences[k]].joint)
				frames[k] = append(frames[k], local[0], local[1], local[2])
				continue
			}
			skinIndex = append(skinIndex, 0)
			skinWeight = append(skinWeight, 0)
			frames[k] = append(frames[k], 0, 0, 0)
		}
	}

	for i, s := range specs {
		nrm := perpendicular(s.end.Sub(s.joint))
		if s.parent == skeleton.NoBone {
			appendVertex(s.joint, nrm, []int{i}, []float32{1})
		} else {
			appendVertex(s.joint, nrm, []int{i, s.parent}, []float32{0.5, 0.5})
		}
		appendVertex(s.end, nrm, []int{i}, []float32{1})
	}

	attrs := make(map[string]*geometry.Attribute)
	for _, a := range []struct {
		name     string
		values   []float32
		itemSize int
	}{
		{geometry.AttributePosition, position, 3},
		{geometry.AttributeNormal, normal, 3},
		{geometry.AttributeSkinIndex, skinIndex, 4},
		{geometry.AttributeSkinWeight, skinWeight, 4},
		{geometry.AttributeV0, frames[0], 3},
		{geometry.AttributeV1, frames[1], 3},
		{geometry.AttributeV2, frames[2], 3},
		{geometry.AttributeV3, frames[3], 3},
	} {
		attr, err := geometry.NewAttribute(a.name, a.values, a.itemSize)
		if err != nil {
			return nil, err
		}
		attrs[a.name] = attr
	}

	return geometry.NewMeshGeometry(
		geometry.WithPosition(attrs[geometry.AttributePosition]),
		geometry.WithNormal(attrs[geometry.AttributeNormal]),
		geometry.WithSkin(attrs[geometry.AttributeSkinIndex], attrs[geometry.AttributeSkinWeight]),
		geometry.WithLocalFrames(attrs[geometry.AttributeV0], attrs[geometry.AttributeV1], attrs[geometry.AttributeV2], attrs[geometry.AttributeV3]),
	)
}

// perpendicular returns a unit vector perpendicular to dir, or +Z for a zero dir.
func perpendicular(dir mgl32.Vec3) mgl32.Vec3 {
	helper := mgl32.Vec3{0, 0, 1}
	if math32.Abs(dir.Normalize().Dot(helper)) > 0.9 {
		helper = mgl32.Vec3{1, 0, 0}
	}
	p := dir.Cross(helper)
	if p.Len() < 1e-6 {
		return mgl32.Vec3{0, 0, 1}
	}
	return p.Normalize()
}
