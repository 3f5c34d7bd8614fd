package pipeline

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-rig/engine/renderer/shader"
)

const source = `
struct Params { tint: vec4<f32>, };
struct VertexInput { @location(0) position: vec3<f32>, };

@group(0) @binding(0) var<uniform> params: Params;
@group(2) @binding(1) var<storage, read> values: array<f32>;

@vertex
fn vs_main(in: VertexInput) -> @builtin(position) vec4<f32> {
    return vec4<f32>(in.position, 1.0) * params.tint + vec4<f32>(values[0]);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return params.tint;
}
`

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("bones")
	assert.Equal(t, "bones", p.PipelineKey())
	assert.True(t, p.DepthTestEnabled())
	assert.True(t, p.DepthWriteEnabled())
	assert.False(t, p.BlendEnabled())
	assert.Equal(t, wgpu.CullModeBack, p.CullMode())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, p.Topology())
	assert.Equal(t, wgpu.FrontFaceCCW, p.FrontFace())
	assert.NotNil(t, p.BlendState())
	assert.Nil(t, p.RenderPipeline())
	assert.Nil(t, p.Shader(shader.ShaderTypeVertex))
	assert.Empty(t, p.BindGroupLayoutDescriptors())
}

func TestPipelineOptions(t *testing.T) {
	p := NewPipeline("lines",
		WithCullMode(wgpu.CullModeNone),
		WithTopology(wgpu.PrimitiveTopologyLineList),
		WithFrontFace(wgpu.FrontFaceCW),
		WithDepthTestEnabled(false),
		WithDepthWriteEnabled(false),
		WithBlendEnabled(true),
	)
	assert.Equal(t, wgpu.CullModeNone, p.CullMode())
	assert.Equal(t, wgpu.PrimitiveTopologyLineList, p.Topology())
	assert.Equal(t, wgpu.FrontFaceCW, p.FrontFace())
	assert.False(t, p.DepthTestEnabled())
	assert.False(t, p.DepthWriteEnabled())
	assert.True(t, p.BlendEnabled())
}

func TestBindGroupLayoutsMergeStages(t *testing.T) {
	vs, err := shader.NewShader("vs", shader.ShaderTypeVertex, source)
	require.NoError(t, err)
	fs, err := shader.NewShader("fs", shader.ShaderTypeFragment, source)
	require.NoError(t, err)

	p := NewPipeline("merged", WithVertexShader(vs), WithFragmentShader(fs))
	assert.Equal(t, vs, p.Shader(shader.ShaderTypeVertex))
	assert.Equal(t, fs, p.Shader(shader.ShaderTypeFragment))

	layouts := p.BindGroupLayoutDescriptors()
	require.Len(t, layouts, 3)

	require.Len(t, layouts[0].Entries, 1)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, layouts[0].Entries[0].Visibility)

	assert.Empty(t, layouts[1].Entries)

	require.Len(t, layouts[2].Entries, 1)
	assert.Equal(t, uint32(1), layouts[2].Entries[0].Binding)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, layouts[2].Entries[0].Buffer.Type)
}
