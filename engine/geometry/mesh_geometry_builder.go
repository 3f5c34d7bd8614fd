package geometry

// MeshGeometryBuilderOption is a functional option for assembling a MeshGeometry.
type MeshGeometryBuilderOption func(g *MeshGeometry)

// WithPosition sets the vertex position attribute.
//
// Parameters:
//   - a: the position attribute (item size 3)
//
// Returns:
//   - MeshGeometryBuilderOption: option function to apply
func WithPosition(a *Attribute) MeshGeometryBuilderOption {
	return func(g *MeshGeometry) {
		g.position = a
	}
}

// WithNormal sets the vertex normal attribute.
//
// Parameters:
//   - a: the normal attribute (item size 3)
//
// Returns:
//   - MeshGeometryBuilderOption: option function to apply
func WithNormal(a *Attribute) MeshGeometryBuilderOption {
	return func(g *MeshGeometry) {
		g.normal = a
	}
}

// WithUV sets the optional texture coordinate attribute.
// UVs are exempt from the shared vertex count check.
//
// Parameters:
//   - a: the uv attribute (item size 2)
//
// Returns:
//   - MeshGeometryBuilderOption: option function to apply
func WithUV(a *Attribute) MeshGeometryBuilderOption {
	return func(g *MeshGeometry) {
		g.uv = a
	}
}

// WithSkin sets the skin index and skin weight attributes.
//
// Parameters:
//   - index: up to four influencing bone indices per vertex (item size 4)
//   - weight: matching blend weights, expected to sum to 1 per vertex (item size 4)
//
// Returns:
//   - MeshGeometryBuilderOption: option function to apply
func WithSkin(index, weight *Attribute) MeshGeometryBuilderOption {
	return func(g *MeshGeometry) {
		g.skinIndex = index
		g.skinWeight = weight
	}
}

// WithLocalFrames sets the v0..v3 attributes.
//
// Parameters:
//   - v0, v1, v2, v3: vertex positions in the rest frame of each influencing bone
//
// Returns:
//   - MeshGeometryBuilderOption: option function to apply
func WithLocalFrames(v0, v1, v2, v3 *Attribute) MeshGeometryBuilderOption {
	return func(g *MeshGeometry) {
		g.v = [4]*Attribute{v0, v1, v2, v3}
	}
}
