package renderer

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-rig/engine/skeleton"
)

// BoneShaderSource is the WGSL for the bone-proxy pass. It includes the camera and bone
// instance definitions through @oxy:include.
//
//go:embed assets/bone.wgsl
var BoneShaderSource string

// proxyUp is the axis the base proxy geometry is modelled along.
var proxyUp = mgl32.Vec3{0, 1, 0}

// GPUBoneShape is the GPU-aligned per-slot proxy alignment read by the bone vertex shader.
// Size: 32 bytes (std430 / WGSL aligned).
type GPUBoneShape struct {
	Align [4]float32 // offset  0: rest alignment quaternion x, y, z, w (vec4<f32>)
	Scale [4]float32 // offset 16: xyz scale, w = y offset before scaling (vec4<f32>)
}

// GPUBoneShapeSize is the byte size of one GPUBoneShape.
const GPUBoneShapeSize = 32

// Size returns the size of the GPUBoneShape struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPUBoneShape) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUBoneShape struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUBoneShape) Marshal() []byte {
	buf := make([]byte, GPUBoneShapeSize)
	g.marshalInto(buf)
	return buf
}

func (g *GPUBoneShape) marshalInto(buf []byte) {
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Align[i]))
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(g.Scale[i]))
	}
}

// BoneShapes computes the proxy alignment of every instance slot. A bone slot turns the proxy's
// +Y axis onto the bone's rest direction and stretches it to the bone length with the given
// radius; a handle slot keeps identity alignment, centers the pre-scaled handle copy and scales
// it uniformly by handleSize.
//
// Parameters:
//   - s: the skeleton
//   - radius: bone proxy radius
//   - handleSize: uniform scale of the handle copies
//
// Returns:
//   - []GPUBoneShape: InstanceSlotCount entries
func BoneShapes(s skeleton.Skeleton, radius, handleSize float32) []GPUBoneShape {
	out := make([]GPUBoneShape, s.InstanceSlotCount())
	for i := range s.BoneCount() {
		b := s.Bone(i)
		dir := b.RestEndpointPosition().Sub(b.RestJointPosition())
		length := dir.Len()

		align := mgl32.QuatIdent()
		if length > 1e-6 {
			align = alignFromUp(dir.Mul(1 / length))
		}
		out[i] = GPUBoneShape{
			Align: quatArray(align),
			Scale: [4]float32{radius, length, radius, 0},
		}
	}
	for k := range skeleton.HandleSlotCount {
		out[s.BoneCount()+k] = GPUBoneShape{
			Align: quatArray(mgl32.QuatIdent()),
			Scale: [4]float32{handleSize, handleSize, handleSize, -skeleton.HandleScale / 2},
		}
	}
	return out
}

// MarshalShapes serializes shapes into one contiguous buffer.
//
// Parameters:
//   - shapes: the shapes to pack
//
// Returns:
//   - []byte: len(shapes) * GPUBoneShapeSize bytes
func MarshalShapes(shapes []GPUBoneShape) []byte {
	buf := make([]byte, len(shapes)*GPUBoneShapeSize)
	for i := range shapes {
		shapes[i].marshalInto(buf[i*GPUBoneShapeSize:])
	}
	return buf
}

// GPUModelUniform is the per-actor model matrix read by the bone vertex shader. It places the
// skeleton-space instance slots in the world.
// Size: 64 bytes (mat4x4<f32>, column-major).
type GPUModelUniform struct {
	Model [16]float32 // offset 0: skeleton world transform
}

// GPUModelUniformSize is the byte size of one GPUModelUniform.
const GPUModelUniformSize = 64

// NewModelUniform wraps a skeleton's world transform.
//
// Parameters:
//   - world: the world transform
//
// Returns:
//   - GPUModelUniform: the uniform
func NewModelUniform(world mgl32.Mat4) GPUModelUniform {
	return GPUModelUniform{Model: world}
}

// Size returns the size of the GPUModelUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPUModelUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUModelUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUModelUniform) Marshal() []byte {
	buf := make([]byte, GPUModelUniformSize)
	for i, v := range g.Model {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// InterleaveProxyVertices packs the proxy position buffer and the replica index attribute into
// the bone shader's vertex layout: position vec3<f32> then replica f32, 16 bytes per vertex.
//
// Parameters:
//   - positions: 3 floats per vertex
//   - replicas: 1 float per vertex
//
// Returns:
//   - []byte: the interleaved vertex buffer
func InterleaveProxyVertices(positions, replicas []float32) []byte {
	n := min(len(positions)/3, len(replicas))
	buf := make([]byte, n*16)
	for v := range n {
		o := v * 16
		binary.LittleEndian.PutUint32(buf[o:], math.Float32bits(positions[v*3]))
		binary.LittleEndian.PutUint32(buf[o+4:], math.Float32bits(positions[v*3+1]))
		binary.LittleEndian.PutUint32(buf[o+8:], math.Float32bits(positions[v*3+2]))
		binary.LittleEndian.PutUint32(buf[o+12:], math.Float32bits(replicas[v]))
	}
	return buf
}

// MarshalIndices serializes a u32 index buffer.
//
// Parameters:
//   - indices: the indices
//
// Returns:
//   - []byte: 4 bytes per index, little-endian
func MarshalIndices(indices []uint32) []byte {
	buf := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}

// BoneDrawRanges splits the replicated proxy index buffer into its two draws: copy 0 instanced
// once per bone, then the handle copies drawn once. Empty ranges are omitted.
//
// Parameters:
//   - indexCount: total length of the replicated index buffer
//   - boneCount: number of bones in the skeleton
//
// Returns:
//   - []DrawRange: at most two ranges
func BoneDrawRanges(indexCount, boneCount int) []DrawRange {
	perCopy := indexCount / skeleton.ProxyReplication
	if perCopy == 0 {
		return nil
	}
	var ranges []DrawRange
	if boneCount > 0 {
		ranges = append(ranges, DrawRange{
			FirstIndex:    0,
			IndexCount:    uint32(perCopy),
			InstanceCount: uint32(boneCount),
		})
	}
	ranges = append(ranges, DrawRange{
		FirstIndex:    uint32(perCopy),
		IndexCount:    uint32(indexCount - perCopy),
		InstanceCount: 1,
	})
	return ranges
}

// alignFromUp returns the shortest-arc rotation taking proxyUp onto the unit vector to.
// Opposite vectors rotate half a turn about X.
func alignFromUp(to mgl32.Vec3) mgl32.Quat {
	d := proxyUp.Dot(to)
	if d < -1+1e-6 {
		return mgl32.Quat{W: 0, V: mgl32.Vec3{1, 0, 0}}
	}
	return mgl32.Quat{W: 1 + d, V: proxyUp.Cross(to)}.Normalize()
}

func quatArray(q mgl32.Quat) [4]float32 {
	return [4]float32{q.V[0], q.V[1], q.V[2], q.W}
}
