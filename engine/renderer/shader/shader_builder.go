package shader

// ShaderBuilderOption is a functional option for configuring a Shader.
type ShaderBuilderOption func(*shader)

// WithInclude registers a WGSL snippet that replaces every `// @oxy:include(name)` line.
//
// Parameters:
//   - name: the include name
//   - source: the WGSL text to splice in
//
// Returns:
//   - ShaderBuilderOption: option function to apply
func WithInclude(name, source string) ShaderBuilderOption {
	return func(s *shader) {
		s.includes[name] = source
	}
}
