package shader

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
)

// ShaderType identifies the pipeline stage a Shader is compiled for.
type ShaderType int

const (
	// ShaderTypeVertex is a vertex stage shader.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is a fragment stage shader.
	ShaderTypeFragment
)

// ErrNoEntryPoint is returned when the WGSL source has no entry point for the requested stage.
var ErrNoEntryPoint = errors.New("no entry point for shader stage")

type shader struct {
	key        string
	source     string
	shaderType ShaderType
	entryPoint string

	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	vertexLayouts              []wgpu.VertexBufferLayout

	includes map[string]string
}

// Shader is a pre-processed WGSL source bound to one pipeline stage, together with the bind group
// and vertex buffer layouts reflected from its declarations.
type Shader interface {
	// Key returns the shader's identifier, used as the module label.
	Key() string

	// Source returns the WGSL source after @oxy:include expansion.
	Source() string

	// ShaderType returns the stage the shader was created for.
	ShaderType() ShaderType

	// EntryPoint returns the name of the stage's entry point function.
	EntryPoint() string

	// BindGroupLayoutDescriptor returns the layout reflected for one bind group.
	// Entries are sorted by binding and carry the shader's stage as visibility.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the layout, empty if the group is not declared
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors returns every reflected bind group layout keyed by group index.
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName returns the variable declared at a group and binding.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index
	//
	// Returns:
	//   - string: the variable name, or empty if nothing is declared there
	BindGroupVarName(group, binding int) string

	// BindingFromVarName looks up the binding of a named variable within a group.
	//
	// Parameters:
	//   - group: the bind group index
	//   - varName: the WGSL variable name
	//
	// Returns:
	//   - int: the binding index, or -1
	//   - bool: false if the variable is not declared in the group
	BindingFromVarName(group int, varName string) (int, bool)

	// VertexLayouts returns one vertex buffer layout per vertex input struct, in declaration order.
	// Always empty for fragment shaders.
	VertexLayouts() []wgpu.VertexBufferLayout
}

var _ Shader = &shader{}

// NewShader pre-processes and reflects a WGSL source for one pipeline stage.
//
// Parameters:
//   - key: identifier for the shader
//   - shaderType: the stage to compile for
//   - source: raw WGSL source, possibly containing @oxy:include lines
//   - options: functional options to configure the shader
//
// Returns:
//   - Shader: the reflected shader
//   - error: an unknown include or a missing entry point
func NewShader(key string, shaderType ShaderType, source string, options ...ShaderBuilderOption) (Shader, error) {
	s := &shader{
		key:        key,
		shaderType: shaderType,
		includes:   make(map[string]string),
	}
	for _, opt := range options {
		opt(s)
	}

	processed, err := expandIncludes(source, s.includes)
	if err != nil {
		return nil, errors.Wrapf(err, "shader %q", key)
	}
	s.source = processed

	s.entryPoint = parseEntryPoint(processed, shaderType)
	if s.entryPoint == "" {
		return nil, errors.Wrapf(ErrNoEntryPoint, "shader %q", key)
	}

	var visibility wgpu.ShaderStage
	switch shaderType {
	case ShaderTypeVertex:
		visibility = wgpu.ShaderStageVertex
		s.vertexLayouts = parseVertexLayouts(processed)
	case ShaderTypeFragment:
		visibility = wgpu.ShaderStageFragment
	}
	s.bindGroupLayoutDescriptors, s.bindingVarNames = parseBindGroupLayouts(processed, visibility)

	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	return s.bindingVarNames[group][binding]
}

func (s *shader) BindingFromVarName(group int, varName string) (int, bool) {
	for binding, name := range s.bindingVarNames[group] {
		if name == varName {
			return binding, true
		}
	}
	return -1, false
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}
