package skeleton

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFloat(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}

func TestGPUBoneInstanceLayout(t *testing.T) {
	g := GPUBoneInstance{
		Translation: [3]float32{1, 2, 3},
		Rotation:    [4]float32{0.1, 0.2, 0.3, 0.9},
		Color:       [4]float32{1, 0.5, 0.25, 1},
	}
	assert.Equal(t, GPUBoneInstanceSize, g.Size())

	buf := g.Marshal()
	require.Len(t, buf, GPUBoneInstanceSize)
	assert.Equal(t, float32(2), readFloat(buf, 4))
	assert.Equal(t, float32(0), readFloat(buf, 12))
	assert.Equal(t, float32(0.9), readFloat(buf, 28))
	assert.Equal(t, float32(0.25), readFloat(buf, 40))
}

func TestMarshalInstances(t *testing.T) {
	s := newTestSkeleton(t, chainDefs(3, mgl32.Vec3{2, 0, 0}))
	require.NoError(t, s.SetHighlightedBone(1))

	instances := Instances(s)
	require.Len(t, instances, s.InstanceSlotCount())
	assert.Equal(t, [3]float32{2, 1, 0}, instances[1].Translation)
	assert.Equal(t, [4]float32{0, 0, 0, 1}, instances[1].Rotation)
	assert.Equal(t, HighlightColor, instances[1].Color)
	assert.Equal(t, HandleColor, instances[s.BoneCount()].Color)

	buf := MarshalInstances(s)
	require.Len(t, buf, s.InstanceSlotCount()*GPUBoneInstanceSize)
	assert.Equal(t, instances[2].Marshal(), buf[2*GPUBoneInstanceSize:3*GPUBoneInstanceSize])
}

func TestGPUBoneInstanceSourceDefinesStruct(t *testing.T) {
	assert.Contains(t, GPUBoneInstanceSource, "struct BoneInstance")
	assert.Contains(t, GPUBoneInstanceSource, "fn bone_slot")
}
