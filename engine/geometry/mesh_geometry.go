package geometry

import (
	"github.com/pkg/errors"
)

// Attribute names used by MeshGeometry.Attributes.
const (
	AttributePosition   = "position"
	AttributeNormal     = "normal"
	AttributeUV         = "uv"
	AttributeSkinIndex  = "skinIndex"
	AttributeSkinWeight = "skinWeight"
	AttributeV0         = "v0"
	AttributeV1         = "v1"
	AttributeV2         = "v2"
	AttributeV3         = "v3"
)

// attributeOrder is the deterministic iteration order for Attributes.
var attributeOrder = []string{
	AttributePosition,
	AttributeNormal,
	AttributeUV,
	AttributeSkinIndex,
	AttributeSkinWeight,
	AttributeV0,
	AttributeV1,
	AttributeV2,
	AttributeV3,
}

// ErrAttributeCount is returned when per-vertex attributes disagree on the vertex count.
var ErrAttributeCount = errors.New("attribute count mismatch")

// MeshGeometry aggregates the attribute set of a skinned mesh.
// Every attribute except uv holds exactly one element per vertex.
//
// The v0..v3 attributes hold each vertex expressed in the rest frame of its (up to four)
// influencing bones, precomputed by the loader for linear blend skinning.
type MeshGeometry struct {
	position   *Attribute
	normal     *Attribute
	uv         *Attribute
	skinIndex  *Attribute
	skinWeight *Attribute
	v          [4]*Attribute
}

// NewMeshGeometry assembles a MeshGeometry from the given options and validates that
// every per-vertex attribute shares the position attribute's count.
//
// Parameters:
//   - options: functional options supplying the attributes
//
// Returns:
//   - *MeshGeometry: the assembled geometry
//   - error: ErrAttributeCount (wrapped) when counts disagree or position is missing
func NewMeshGeometry(options ...MeshGeometryBuilderOption) (*MeshGeometry, error) {
	g := &MeshGeometry{}
	for _, opt := range options {
		opt(g)
	}

	if g.position == nil {
		return nil, errors.Wrap(ErrAttributeCount, "mesh geometry has no position attribute")
	}

	count := g.position.Count()
	for _, name := range attributeOrder {
		if name == AttributeUV {
			continue
		}
		a := g.attribute(name)
		if a == nil {
			continue
		}
		if a.Count() != count {
			return nil, errors.Wrapf(ErrAttributeCount, "attribute %q has %d elements, position has %d", name, a.Count(), count)
		}
	}

	return g, nil
}

// VertexCount returns the number of vertices described by the geometry.
func (g *MeshGeometry) VertexCount() int {
	return g.position.Count()
}

// Position returns the vertex position attribute.
func (g *MeshGeometry) Position() *Attribute { return g.position }

// Normal returns the vertex normal attribute, or nil.
func (g *MeshGeometry) Normal() *Attribute { return g.normal }

// UV returns the optional texture coordinate attribute, or nil.
func (g *MeshGeometry) UV() *Attribute { return g.uv }

// SkinIndex returns the per-vertex influencing bone indices, or nil.
func (g *MeshGeometry) SkinIndex() *Attribute { return g.skinIndex }

// SkinWeight returns the per-vertex blend weights, or nil.
func (g *MeshGeometry) SkinWeight() *Attribute { return g.skinWeight }

// LocalFrame returns the v<i> attribute (vertex in the rest frame of its i-th influencing bone).
// Returns nil for i outside [0, 3] or when the attribute was not supplied.
func (g *MeshGeometry) LocalFrame(i int) *Attribute {
	if i < 0 || i >= len(g.v) {
		return nil
	}
	return g.v[i]
}

// Attributes returns the non-nil attributes keyed by name.
// Use AttributeNames for a deterministic iteration order.
//
// Returns:
//   - map[string]*Attribute: the present attributes
func (g *MeshGeometry) Attributes() map[string]*Attribute {
	out := make(map[string]*Attribute, len(attributeOrder))
	for _, name := range attributeOrder {
		if a := g.attribute(name); a != nil {
			out[name] = a
		}
	}
	return out
}

// AttributeNames returns the names of the present attributes in a fixed order.
func (g *MeshGeometry) AttributeNames() []string {
	names := make([]string, 0, len(attributeOrder))
	for _, name := range attributeOrder {
		if g.attribute(name) != nil {
			names = append(names, name)
		}
	}
	return names
}

func (g *MeshGeometry) attribute(name string) *Attribute {
	switch name {
	case AttributePosition:
		return g.position
	case AttributeNormal:
		return g.normal
	case AttributeUV:
		return g.uv
	case AttributeSkinIndex:
		return g.skinIndex
	case AttributeSkinWeight:
		return g.skinWeight
	case AttributeV0:
		return g.v[0]
	case AttributeV1:
		return g.v[1]
	case AttributeV2:
		return g.v[2]
	case AttributeV3:
		return g.v[3]
	}
	return nil
}
