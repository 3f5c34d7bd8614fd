package loader

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-rig/engine/geometry"
)

// BoneRecord is one bone as produced by a BoneLoader. Positions are world space in the rest pose.
type BoneRecord struct {
	// Name is an optional label carried for logs and tooling.
	Name string

	// Parent is the parent bone index, or skeleton.NoBone for a root.
	Parent int

	// Children are the child bone indices in a stable order.
	Children []int

	RestJoint     mgl32.Vec3
	RestEndpoint  mgl32.Vec3
	RestRotation  mgl32.Quat
	RestTransform mgl32.Mat4

	// Offset is the parent-relative rest joint displacement as stored by the source.
	// It is only consulted while loading: a non-zero Offset must agree with the absolute
	// rest joints, otherwise the record is rejected.
	Offset mgl32.Vec3
}

// MeshData is everything a source supplies for one skinned mesh.
type MeshData struct {
	Name           string
	WorldTransform mgl32.Mat4
	Bones          []BoneRecord
	Geometry       *geometry.MeshGeometry

	// ProxyIndices and ProxyPositions describe one bone-proxy shape (3 floats per vertex).
	ProxyIndices   []uint32
	ProxyPositions []float32
}

// AttributeLoader supplies the raw per-vertex attributes of a mesh.
type AttributeLoader interface {
	// LoadAttribute returns the named attribute of a mesh.
	//
	// Parameters:
	//   - mesh: the mesh name
	//   - name: the attribute name (geometry.AttributePosition, ...)
	//
	// Returns:
	//   - *geometry.Attribute: the attribute
	//   - error: ErrAttributeNotFound or ErrMeshNotFound (wrapped) if the source has no such data
	LoadAttribute(mesh, name string) (*geometry.Attribute, error)
}

// MeshGeometryLoader supplies the assembled attribute set of a mesh.
type MeshGeometryLoader interface {
	// LoadMeshGeometry returns the geometry of a mesh.
	//
	// Parameters:
	//   - mesh: the mesh name
	//
	// Returns:
	//   - *geometry.MeshGeometry: the geometry
	//   - error: error if the geometry cannot be produced
	LoadMeshGeometry(mesh string) (*geometry.MeshGeometry, error)
}

// BoneLoader supplies the bone records of a mesh.
type BoneLoader interface {
	// LoadBones returns the bone records of a mesh, indexed by bone index.
	//
	// Parameters:
	//   - mesh: the mesh name
	//
	// Returns:
	//   - []BoneRecord: the bone records
	//   - error: error if the bones cannot be produced
	LoadBones(mesh string) ([]BoneRecord, error)
}

// MeshLoader supplies complete mesh data.
type MeshLoader interface {
	// LoadMesh returns the full data of a mesh.
	//
	// Parameters:
	//   - mesh: the mesh name
	//
	// Returns:
	//   - *MeshData: the mesh data
	//   - error: error if the mesh cannot be produced
	LoadMesh(mesh string) (*MeshData, error)
}
