package skeleton

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUBoneInstanceSource is the canonical WGSL definition of the BoneInstance struct and the
// helpers the bone shaders use to resolve instance slots.
// Matches GPUBoneInstance layout exactly (48 bytes, std430 aligned).
//
//go:embed assets/bone_instance.wgsl
var GPUBoneInstanceSource string

// GPUBoneInstance is the GPU-aligned representation of one instance slot.
// Size: 48 bytes (std430 / WGSL aligned).
type GPUBoneInstance struct {
	Translation [3]float32 // offset  0: joint or handle position (vec3<f32>)
	_pad        float32    // offset 12: padding to align rotation
	Rotation    [4]float32 // offset 16: world rotation quaternion x, y, z, w (vec4<f32>)
	Color       [4]float32 // offset 32: RGBA highlight color (vec4<f32>)
}

// GPUBoneInstanceSize is the byte size of one GPUBoneInstance.
const GPUBoneInstanceSize = 48

// Size returns the size of the GPUBoneInstance struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (48)
func (g *GPUBoneInstance) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUBoneInstance struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUBoneInstance) Marshal() []byte {
	buf := make([]byte, GPUBoneInstanceSize)
	g.marshalInto(buf)
	return buf
}

func (g *GPUBoneInstance) marshalInto(buf []byte) {
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Translation[i]))
	}
	binary.LittleEndian.PutUint32(buf[12:], 0) // _pad
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(g.Rotation[i]))
	}
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[32+i*4:], math.Float32bits(g.Color[i]))
	}
}

// Instances zips the three derived buffers of a skeleton into one GPUBoneInstance per slot.
//
// Parameters:
//   - s: the skeleton to read
//
// Returns:
//   - []GPUBoneInstance: InstanceSlotCount entries
func Instances(s Skeleton) []GPUBoneInstance {
	t := s.BoneTranslations()
	r := s.BoneRotations()
	c := s.BoneHighlights()

	out := make([]GPUBoneInstance, s.InstanceSlotCount())
	for i := range out {
		copy(out[i].Translation[:], t[i*3:i*3+3])
		copy(out[i].Rotation[:], r[i*4:i*4+4])
		copy(out[i].Color[:], c[i*4:i*4+4])
	}
	return out
}

// MarshalInstances serializes every instance slot of a skeleton into one contiguous buffer.
//
// Parameters:
//   - s: the skeleton to read
//
// Returns:
//   - []byte: InstanceSlotCount * GPUBoneInstanceSize bytes
func MarshalInstances(s Skeleton) []byte {
	instances := Instances(s)
	buf := make([]byte, len(instances)*GPUBoneInstanceSize)
	for i := range instances {
		instances[i].marshalInto(buf[i*GPUBoneInstanceSize:])
	}
	return buf
}
