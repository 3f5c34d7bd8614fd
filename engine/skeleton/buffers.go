package skeleton

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

const (
	// HandleSlotCount is the number of rotation-handle instance slots appended after the bones.
	HandleSlotCount = 4

	// ProxyReplication is how many copies of the base proxy geometry the draw buffers hold:
	// copy 0 is the bone proxy, copies 1..HandleSlotCount are the handle widgets.
	ProxyReplication = 1 + HandleSlotCount

	// HandleScale scales the handle-widget copies of the proxy geometry.
	HandleScale float32 = 0.5

	// DefaultHandleRadius is the distance of each handle from the highlighted bone's midpoint.
	DefaultHandleRadius float32 = 0.15

	// OffscreenDistance is written to every handle translation component while nothing is
	// highlighted, so the widget geometry lands outside any sane view volume.
	OffscreenDistance float32 = 1e6
)

var (
	// DefaultColor is the RGBA color of a bone that is not highlighted.
	DefaultColor = [4]float32{0.75, 0.75, 0.78, 1}

	// HighlightColor is the RGBA color of the highlighted bone.
	HighlightColor = [4]float32{1, 0.55, 0.1, 1}

	// HandleColor is the RGBA color of the rotation-handle slots.
	HandleColor = [4]float32{0.2, 0.6, 1, 1}
)

// handleHelper is the fixed direction orthogonalized against the bone axis to span the handle plane.
var handleHelper = mgl32.Vec3{0, 1, 0}

// handleFallback replaces handleHelper when the bone axis is nearly parallel to it.
var handleFallback = mgl32.Vec3{1, 0, 0}

func (s *skeletonImpl) InstanceSlotCount() int {
	return len(s.bones) + HandleSlotCount
}

func (s *skeletonImpl) BoneTranslations() []float32 {
	out := make([]float32, 0, 3*s.InstanceSlotCount())
	for i := range s.bones {
		p := s.bones[i].jointPosition
		out = append(out, p[0], p[1], p[2])
	}
	for _, p := range s.handlePositions() {
		out = append(out, p[0], p[1], p[2])
	}
	return out
}

func (s *skeletonImpl) BoneRotations() []float32 {
	out := make([]float32, 0, 4*s.InstanceSlotCount())
	for i := range s.bones {
		out = appendQuat(out, s.bones[i].worldRotation)
	}
	handle := mgl32.QuatIdent()
	if h := s.HighlightedBoneIndex(); h != NoBone {
		handle = s.bones[h].worldRotation
	}
	for range HandleSlotCount {
		out = appendQuat(out, handle)
	}
	return out
}

func (s *skeletonImpl) BoneHighlights() []float32 {
	out := make([]float32, 0, 4*s.InstanceSlotCount())
	h := s.HighlightedBoneIndex()
	for i := range s.bones {
		c := s.defaultColor
		if i == h {
			c = s.highlightColor
		}
		out = append(out, c[:]...)
	}
	for range HandleSlotCount {
		out = append(out, s.handleColor[:]...)
	}
	return out
}

func (s *skeletonImpl) BoneIndexBuffer() []uint32 {
	return s.proxyIndices
}

func (s *skeletonImpl) BonePositionBuffer() []float32 {
	return s.proxyPositions
}

func (s *skeletonImpl) BoneIndexAttribute() []float32 {
	return s.proxyBoneIndex
}

// handlePositions returns the HandleSlotCount handle translations for the current highlight.
// Handles sit at midpoint ± r·u and midpoint ± r·v, where u is the helper direction made
// orthogonal to the bone axis and v = axis × u.
func (s *skeletonImpl) handlePositions() [HandleSlotCount]mgl32.Vec3 {
	var out [HandleSlotCount]mgl32.Vec3

	h := s.HighlightedBoneIndex()
	if h == NoBone {
		far := mgl32.Vec3{s.offscreenDistance, s.offscreenDistance, s.offscreenDistance}
		for i := range out {
			out[i] = far
		}
		return out
	}

	b := &s.bones[h]
	mid := b.Midpoint()
	u, v := handleBasis(b.Axis())
	r := s.handleRadius

	out[0] = mid.Add(u.Mul(r))
	out[1] = mid.Sub(u.Mul(r))
	out[2] = mid.Add(v.Mul(r))
	out[3] = mid.Sub(v.Mul(r))
	return out
}

// handleBasis returns two unit vectors perpendicular to axis and to each other.
// A zero axis yields the helper frame itself.
func handleBasis(axis mgl32.Vec3) (u, v mgl32.Vec3) {
	if axis.Len() < lengthEpsilon {
		return handleFallback, handleFallback.Cross(handleHelper)
	}
	u = gramSchmidt(handleHelper, axis)
	if u.Len() < 1e-3 {
		u = gramSchmidt(handleFallback, axis)
	}
	u = normalize(u)
	v = normalize(axis.Cross(u))
	return u, v
}

// gramSchmidt removes from helper its component along the unit vector axis.
func gramSchmidt(helper, axis mgl32.Vec3) mgl32.Vec3 {
	return helper.Sub(axis.Mul(helper.Dot(axis)))
}

func appendQuat(dst []float32, q mgl32.Quat) []float32 {
	return append(dst, q.V[0], q.V[1], q.V[2], q.W)
}

// buildProxyBuffers expands the loader's base proxy geometry into ProxyReplication copies.
// Copy k's indices are offset by k vertex blocks; copies 1.. are scaled by HandleScale and
// every vertex of copy k carries k in the index attribute.
func (s *skeletonImpl) buildProxyBuffers() error {
	if len(s.baseProxyPositions)%3 != 0 {
		return errors.Wrapf(ErrInvalidProxyGeometry, "%d position values are not a multiple of 3", len(s.baseProxyPositions))
	}
	vertexCount := len(s.baseProxyPositions) / 3
	for i, idx := range s.baseProxyIndices {
		if int(idx) >= vertexCount {
			return errors.Wrapf(ErrInvalidProxyGeometry, "index %d at %d exceeds vertex count %d", idx, i, vertexCount)
		}
	}

	s.proxyIndices = make([]uint32, 0, len(s.baseProxyIndices)*ProxyReplication)
	s.proxyPositions = make([]float32, 0, len(s.baseProxyPositions)*ProxyReplication)
	s.proxyBoneIndex = make([]float32, 0, vertexCount*ProxyReplication)

	for k := range ProxyReplication {
		scale := float32(1)
		if k > 0 {
			scale = HandleScale
		}
		base := uint32(k * vertexCount)
		for _, idx := range s.baseProxyIndices {
			s.proxyIndices = append(s.proxyIndices, idx+base)
		}
		for _, p := range s.baseProxyPositions {
			s.proxyPositions = append(s.proxyPositions, p*scale)
		}
		for range vertexCount {
			s.proxyBoneIndex = append(s.proxyBoneIndex, float32(k))
		}
	}
	return nil
}
