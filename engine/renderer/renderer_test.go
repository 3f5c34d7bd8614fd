package renderer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-rig/engine/camera"
	"github.com/Carmen-Shannon/oxy-rig/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-rig/engine/skeleton"
)

const tol = 1e-4

// armSkeleton returns two bones: one up the Y axis and one along +X from its tip,
// with a single-triangle proxy.
func armSkeleton(t *testing.T) skeleton.Skeleton {
	t.Helper()
	s, err := skeleton.NewSkeleton([]skeleton.BoneDefinition{
		{Parent: skeleton.NoBone, Children: []int{1}, RestJoint: mgl32.Vec3{0, 0, 0}, RestEndpoint: mgl32.Vec3{0, 2, 0}},
		{Parent: 0, RestJoint: mgl32.Vec3{0, 2, 0}, RestEndpoint: mgl32.Vec3{0.5, 2, 0}},
	},
		skeleton.WithName("arm"),
		skeleton.WithProxyGeometry([]uint32{0, 1, 2}, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}),
	)
	require.NoError(t, err)
	return s
}

func readFloat(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}

func TestBoneShapes(t *testing.T) {
	s := armSkeleton(t)
	shapes := BoneShapes(s, 0.05, 0.1)
	require.Len(t, shapes, s.InstanceSlotCount())

	// bone 0 already points along the proxy axis
	assert.Equal(t, [4]float32{0, 0, 0, 1}, shapes[0].Align)
	assert.InDelta(t, 2, shapes[0].Scale[1], tol)
	assert.InDelta(t, 0.05, shapes[0].Scale[0], tol)
	assert.InDelta(t, 0.05, shapes[0].Scale[2], tol)

	a := shapes[1].Align
	q := mgl32.Quat{W: a[3], V: mgl32.Vec3{a[0], a[1], a[2]}}
	got := q.Rotate(mgl32.Vec3{0, 1, 0})
	assert.InDelta(t, 1, got.X(), tol)
	assert.InDelta(t, 0, got.Y(), tol)
	assert.InDelta(t, 0, got.Z(), tol)
	assert.InDelta(t, 0.5, shapes[1].Scale[1], tol)

	for k := range skeleton.HandleSlotCount {
		h := shapes[s.BoneCount()+k]
		assert.Equal(t, [4]float32{0, 0, 0, 1}, h.Align)
		assert.Equal(t, [4]float32{0.1, 0.1, 0.1, -skeleton.HandleScale / 2}, h.Scale)
	}
}

func TestMarshalShapes(t *testing.T) {
	shape := GPUBoneShape{Align: [4]float32{1, 2, 3, 4}, Scale: [4]float32{5, 6, 7, 8}}
	assert.Equal(t, GPUBoneShapeSize, shape.Size())

	buf := MarshalShapes([]GPUBoneShape{shape, shape})
	require.Len(t, buf, 2*GPUBoneShapeSize)
	assert.Equal(t, shape.Marshal(), buf[GPUBoneShapeSize:])
	for i := range 8 {
		assert.Equal(t, float32(i+1), readFloat(buf, i*4))
	}
}

func TestModelUniform(t *testing.T) {
	world := mgl32.Translate3D(10, 2, -3).Mul4(mgl32.Scale3D(2, 2, 2))
	u := NewModelUniform(world)
	assert.Equal(t, GPUModelUniformSize, u.Size())

	buf := u.Marshal()
	require.Len(t, buf, GPUModelUniformSize)
	// column-major: the translation is the fourth column
	assert.InDelta(t, 2, readFloat(buf, 0), tol)
	assert.InDelta(t, 10, readFloat(buf, 12*4), tol)
	assert.InDelta(t, 2, readFloat(buf, 13*4), tol)
	assert.InDelta(t, -3, readFloat(buf, 14*4), tol)
	assert.InDelta(t, 1, readFloat(buf, 15*4), tol)
}

func TestInterleaveProxyVertices(t *testing.T) {
	s := armSkeleton(t)
	buf := InterleaveProxyVertices(s.BonePositionBuffer(), s.BoneIndexAttribute())

	vertexCount := 3 * skeleton.ProxyReplication
	require.Len(t, buf, vertexCount*16)

	// second vertex of copy 0
	assert.Equal(t, float32(1), readFloat(buf, 16))
	assert.Equal(t, float32(0), readFloat(buf, 16+12))

	// second vertex of copy 2 is pre-scaled and tagged with its replica
	o := (2*3 + 1) * 16
	assert.Equal(t, skeleton.HandleScale, readFloat(buf, o))
	assert.Equal(t, float32(2), readFloat(buf, o+12))

	assert.Empty(t, InterleaveProxyVertices([]float32{1, 2}, []float32{0}))
}

func TestMarshalIndices(t *testing.T) {
	buf := MarshalIndices([]uint32{7, 1 << 20})
	require.Len(t, buf, 8)
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(buf))
	assert.Equal(t, uint32(1<<20), binary.LittleEndian.Uint32(buf[4:]))
}

func TestBoneDrawRanges(t *testing.T) {
	perCopy := 6
	total := perCopy * skeleton.ProxyReplication

	tests := []struct {
		name    string
		indices int
		bones   int
		want    []DrawRange
	}{
		{"bones and handles", total, 3, []DrawRange{
			{FirstIndex: 0, IndexCount: 6, InstanceCount: 3},
			{FirstIndex: 6, IndexCount: 24, InstanceCount: 1},
		}},
		{"no bones", total, 0, []DrawRange{
			{FirstIndex: 6, IndexCount: 24, InstanceCount: 1},
		}},
		{"no geometry", 0, 3, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BoneDrawRanges(tt.indices, tt.bones))
		})
	}
}

func TestNewBonePipeline(t *testing.T) {
	p, err := NewBonePipeline()
	require.NoError(t, err)
	assert.Equal(t, BonePipelineKey, p.PipelineKey())
	assert.True(t, p.DepthTestEnabled())

	vs := p.Shader(shader.ShaderTypeVertex)
	require.NotNil(t, vs)
	assert.Equal(t, "vs_main", vs.EntryPoint())
	assert.Contains(t, vs.Source(), "struct CameraUniform")
	assert.Contains(t, vs.Source(), "fn bone_slot")

	layouts := vs.VertexLayouts()
	require.Len(t, layouts, 1)
	assert.Equal(t, uint64(16), layouts[0].ArrayStride)
	require.Len(t, layouts[0].Attributes, 2)
	assert.Equal(t, wgpu.VertexFormatFloat32x3, layouts[0].Attributes[0].Format)
	assert.Equal(t, wgpu.VertexFormatFloat32, layouts[0].Attributes[1].Format)

	fs := p.Shader(shader.ShaderTypeFragment)
	require.NotNil(t, fs)
	assert.Equal(t, "fs_main", fs.EntryPoint())

	groups := p.BindGroupLayoutDescriptors()
	require.Len(t, groups, 1)
	entries := groups[0].Entries
	require.Len(t, entries, 4)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, entries[0].Buffer.Type)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, entries[1].Buffer.Type)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, entries[2].Buffer.Type)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, entries[3].Buffer.Type)
	for _, e := range entries {
		assert.NotZero(t, e.Visibility&wgpu.ShaderStageVertex)
	}
}

func TestBoneBufferSizes(t *testing.T) {
	p, err := NewBonePipeline()
	require.NoError(t, err)

	s := armSkeleton(t)
	sizes, err := boneBufferSizes(p.Shader(shader.ShaderTypeVertex), s.InstanceSlotCount())
	require.NoError(t, err)

	assert.Equal(t, map[int]uint64{
		0: camera.GPUCameraUniformSize,
		1: uint64(6 * skeleton.GPUBoneInstanceSize),
		2: uint64(6 * GPUBoneShapeSize),
		3: GPUModelUniformSize,
	}, sizes)
	assert.Len(t, skeleton.MarshalInstances(s), int(sizes[1]))
}

func TestBoneBufferSizesMissingBinding(t *testing.T) {
	vs, err := shader.NewShader("bare", shader.ShaderTypeVertex, `
@group(0) @binding(0) var<uniform> camera: mat4x4<f32>;
@vertex
fn main() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }
`)
	require.NoError(t, err)
	_, err = boneBufferSizes(vs, 4)
	assert.Error(t, err)
}
