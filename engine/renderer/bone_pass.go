package renderer

import (
	"github.com/pkg/errors"

	"github.com/Carmen-Shannon/oxy-rig/engine/camera"
	"github.com/Carmen-Shannon/oxy-rig/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-rig/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-rig/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-rig/engine/skeleton"
)

// BonePipelineKey is the cache key of the bone-proxy render pipeline.
const BonePipelineKey = "bones"

// Shader variable names of the bone pass bindings in group 0.
const (
	cameraVar    = "camera"
	instancesVar = "instances"
	shapesVar    = "shapes"
	modelVar     = "model"
)

// BonePass draws one skeleton's bone proxies and rotation handles.
type BonePass interface {
	// Update uploads the camera uniform, the skeleton's world transform and its current instance slots.
	// The skeleton's update pass must have run since its last rotation.
	//
	// Parameters:
	//   - cam: the camera to draw from
	//   - s: the skeleton this pass was created for
	Update(cam camera.Camera, s skeleton.Skeleton)

	// Draw records the bone and handle draws into the open frame.
	//
	// Returns:
	//   - error: an error if the bone pipeline is not registered
	Draw() error

	// Release frees the pass's GPU buffers.
	Release()
}

type bonePass struct {
	renderer  Renderer
	mesh      bind_group_provider.BindGroupProvider
	bindings  bind_group_provider.BindGroupProvider
	ranges    []DrawRange
	slotCount int

	cameraBinding    int
	instancesBinding int
	modelBinding     int
}

var _ BonePass = &bonePass{}

// NewBonePipeline parses the bone shader and builds its pipeline description.
// The GPU pipeline is created when the result is registered with a Renderer.
//
// Returns:
//   - pipeline.Pipeline: the unregistered pipeline
//   - error: an error if the shader cannot be parsed
func NewBonePipeline() (pipeline.Pipeline, error) {
	includes := []shader.ShaderBuilderOption{
		shader.WithInclude("camera", camera.GPUCameraUniformSource),
		shader.WithInclude("bone_instance", skeleton.GPUBoneInstanceSource),
	}
	vs, err := shader.NewShader(BonePipelineKey+".vs", shader.ShaderTypeVertex, BoneShaderSource, includes...)
	if err != nil {
		return nil, err
	}
	fs, err := shader.NewShader(BonePipelineKey+".fs", shader.ShaderTypeFragment, BoneShaderSource, includes...)
	if err != nil {
		return nil, err
	}
	return pipeline.NewPipeline(BonePipelineKey,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
	), nil
}

// boneBufferSizes returns the byte size of each group 0 binding for a skeleton with slotCount
// instance slots.
func boneBufferSizes(vs shader.Shader, slotCount int) (map[int]uint64, error) {
	sizes := map[string]uint64{
		cameraVar:    camera.GPUCameraUniformSize,
		instancesVar: uint64(slotCount * skeleton.GPUBoneInstanceSize),
		shapesVar:    uint64(slotCount * GPUBoneShapeSize),
		modelVar:     GPUModelUniformSize,
	}
	out := make(map[int]uint64, len(sizes))
	for name, size := range sizes {
		binding, ok := vs.BindingFromVarName(0, name)
		if !ok {
			return nil, errors.Errorf("bone shader declares no %q binding", name)
		}
		out[binding] = size
	}
	return out, nil
}

// NewBonePass registers the bone pipeline if needed, uploads the skeleton's replicated proxy
// geometry and its static slot shapes, and allocates the per-frame buffers.
//
// Parameters:
//   - r: the renderer
//   - s: the skeleton to draw
//   - handleSize: uniform scale of the rotation-handle widgets
//
// Returns:
//   - BonePass: the pass
//   - error: an error if the pipeline or any GPU buffer cannot be created
func NewBonePass(r Renderer, s skeleton.Skeleton, handleSize float32) (BonePass, error) {
	p := r.Pipeline(BonePipelineKey)
	if p == nil {
		created, err := NewBonePipeline()
		if err != nil {
			return nil, err
		}
		if err := r.RegisterPipelines(created); err != nil {
			return nil, err
		}
		p = created
	}
	vs := p.Shader(shader.ShaderTypeVertex)

	bp := &bonePass{
		renderer:  r,
		mesh:      bind_group_provider.NewBindGroupProvider(s.Name() + " Proxy"),
		bindings:  bind_group_provider.NewBindGroupProvider(s.Name() + " Bones"),
		slotCount: s.InstanceSlotCount(),
	}

	indices := s.BoneIndexBuffer()
	vertices := InterleaveProxyVertices(s.BonePositionBuffer(), s.BoneIndexAttribute())
	if err := r.InitMeshBuffers(bp.mesh, vertices, MarshalIndices(indices), len(indices)); err != nil {
		bp.Release()
		return nil, errors.Wrapf(err, "skeleton %q", s.Name())
	}
	bp.ranges = BoneDrawRanges(len(indices), s.BoneCount())

	sizes, err := boneBufferSizes(vs, bp.slotCount)
	if err != nil {
		bp.Release()
		return nil, err
	}
	descriptors := p.BindGroupLayoutDescriptors()
	if len(descriptors) == 0 {
		bp.Release()
		return nil, errors.New("bone pipeline has no bind group layout")
	}
	if err := r.InitBindGroup(bp.bindings, descriptors[0], sizes); err != nil {
		bp.Release()
		return nil, errors.Wrapf(err, "skeleton %q", s.Name())
	}

	bp.cameraBinding, _ = vs.BindingFromVarName(0, cameraVar)
	bp.instancesBinding, _ = vs.BindingFromVarName(0, instancesVar)
	bp.modelBinding, _ = vs.BindingFromVarName(0, modelVar)
	shapesBinding, _ := vs.BindingFromVarName(0, shapesVar)

	// Shapes depend only on rest data and are written once.
	r.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: bp.bindings,
		Binding:  shapesBinding,
		Data:     MarshalShapes(BoneShapes(s, s.CylinderRadius(), handleSize)),
	}})
	return bp, nil
}

func (bp *bonePass) Update(cam camera.Camera, s skeleton.Skeleton) {
	uniform := cam.Uniform()
	model := NewModelUniform(s.WorldTransform())
	bp.renderer.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: bp.bindings, Binding: bp.cameraBinding, Data: uniform.Marshal()},
		{Provider: bp.bindings, Binding: bp.modelBinding, Data: model.Marshal()},
		{Provider: bp.bindings, Binding: bp.instancesBinding, Data: skeleton.MarshalInstances(s)},
	})
}

func (bp *bonePass) Draw() error {
	groups := []bind_group_provider.BindGroupProvider{bp.bindings}
	for _, dr := range bp.ranges {
		if err := bp.renderer.DrawCall(BonePipelineKey, bp.mesh, groups, dr); err != nil {
			return err
		}
	}
	return nil
}

func (bp *bonePass) Release() {
	bp.mesh.Release()
	bp.bindings.Release()
}
