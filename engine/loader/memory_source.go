package loader

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/Carmen-Shannon/oxy-rig/engine/geometry"
)

// memorySource is the implementation of the MemorySource interface.
type memorySource struct {
	mu       sync.RWMutex
	meshes   map[string]*MeshData
	geometry MeshGeometryLoader
}

// MemorySource is an in-memory mesh source implementing every loader interface.
// Meshes are assembled through the attribute, geometry and bone layers on each LoadMesh,
// so a caller receives copies it may keep without affecting the stored data.
type MemorySource interface {
	AttributeLoader
	MeshGeometryLoader
	BoneLoader
	MeshLoader

	// AddMesh stores a mesh under data.Name, replacing any previous mesh of that name.
	//
	// Parameters:
	//   - data: the mesh to store
	//
	// Returns:
	//   - error: error if data is nil or unnamed
	AddMesh(data *MeshData) error

	// MeshNames returns the stored mesh names in sorted order.
	//
	// Returns:
	//   - []string: the mesh names
	MeshNames() []string
}

var _ MemorySource = &memorySource{}

// NewMemorySource creates a MemorySource holding the given meshes. Nil or unnamed meshes are skipped.
//
// Parameters:
//   - meshes: the meshes to store
//
// Returns:
//   - MemorySource: the new source
func NewMemorySource(meshes ...*MeshData) MemorySource {
	s := &memorySource{
		meshes: make(map[string]*MeshData, len(meshes)),
	}
	s.geometry = NewMeshGeometryLoader(s)
	for _, m := range meshes {
		_ = s.AddMesh(m)
	}
	return s
}

func (s *memorySource) AddMesh(data *MeshData) error {
	if data == nil {
		return errors.New("nil mesh data")
	}
	if data.Name == "" {
		return errors.New("mesh data has no name")
	}
	s.mu.Lock()
	s.meshes[data.Name] = data
	s.mu.Unlock()
	return nil
}

func (s *memorySource) MeshNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.meshes))
	for name := range s.meshes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *memorySource) mesh(name string) (*MeshData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meshes[name]
	if !ok {
		return nil, errors.Wrapf(ErrMeshNotFound, "mesh %q", name)
	}
	return m, nil
}

func (s *memorySource) LoadAttribute(mesh, name string) (*geometry.Attribute, error) {
	m, err := s.mesh(mesh)
	if err != nil {
		return nil, err
	}
	if m.Geometry == nil {
		return nil, errors.Wrapf(ErrAttributeNotFound, "mesh %q has no geometry", mesh)
	}
	a, ok := m.Geometry.Attributes()[name]
	if !ok {
		return nil, errors.Wrapf(ErrAttributeNotFound, "mesh %q attribute %q", mesh, name)
	}
	return a, nil
}

func (s *memorySource) LoadMeshGeometry(mesh string) (*geometry.MeshGeometry, error) {
	m, err := s.mesh(mesh)
	if err != nil {
		return nil, err
	}
	if m.Geometry == nil {
		return nil, nil
	}
	return s.geometry.LoadMeshGeometry(mesh)
}

func (s *memorySource) LoadBones(mesh string) ([]BoneRecord, error) {
	m, err := s.mesh(mesh)
	if err != nil {
		return nil, err
	}
	out := make([]BoneRecord, len(m.Bones))
	for i, b := range m.Bones {
		out[i] = b
		out[i].Children = append([]int(nil), b.Children...)
	}
	return out, nil
}

func (s *memorySource) LoadMesh(mesh string) (*MeshData, error) {
	m, err := s.mesh(mesh)
	if err != nil {
		return nil, err
	}
	g, err := s.LoadMeshGeometry(mesh)
	if err != nil {
		return nil, err
	}
	bones, err := s.LoadBones(mesh)
	if err != nil {
		return nil, err
	}
	return &MeshData{
		Name:           m.Name,
		WorldTransform: m.WorldTransform,
		Bones:          bones,
		Geometry:       g,
		ProxyIndices:   append([]uint32(nil), m.ProxyIndices...),
		ProxyPositions: append([]float32(nil), m.ProxyPositions...),
	}, nil
}

// attributeGeometryLoader assembles MeshGeometry from the attributes of an AttributeLoader.
type attributeGeometryLoader struct {
	attrs AttributeLoader
}

// NewMeshGeometryLoader returns a MeshGeometryLoader that assembles geometry attribute by
// attribute. Position is required; the other attributes are optional, except that skin index
// and skin weight must be present together.
//
// Parameters:
//   - attrs: the attribute source
//
// Returns:
//   - MeshGeometryLoader: the assembling loader
func NewMeshGeometryLoader(attrs AttributeLoader) MeshGeometryLoader {
	return &attributeGeometryLoader{attrs: attrs}
}

func (l *attributeGeometryLoader) LoadMeshGeometry(mesh string) (*geometry.MeshGeometry, error) {
	position, err := l.attrs.LoadAttribute(mesh, geometry.AttributePosition)
	if err != nil {
		return nil, errors.Wrap(err, "load position")
	}
	opts := []geometry.MeshGeometryBuilderOption{geometry.WithPosition(position)}

	normal, err := l.optional(mesh, geometry.AttributeNormal)
	if err != nil {
		return nil, err
	}
	if normal != nil {
		opts = append(opts, geometry.WithNormal(normal))
	}

	uv, err := l.optional(mesh, geometry.AttributeUV)
	if err != nil {
		return nil, err
	}
	if uv != nil {
		opts = append(opts, geometry.WithUV(uv))
	}

	skinIndex, err := l.optional(mesh, geometry.AttributeSkinIndex)
	if err != nil {
		return nil, err
	}
	skinWeight, err := l.optional(mesh, geometry.AttributeSkinWeight)
	if err != nil {
		return nil, err
	}
	if (skinIndex == nil) != (skinWeight == nil) {
		return nil, errors.Errorf("mesh %q: skin index and skin weight must be supplied together", mesh)
	}
	if skinIndex != nil {
		opts = append(opts, geometry.WithSkin(skinIndex, skinWeight))
	}

	var frames [4]*geometry.Attribute
	for i, name := range []string{geometry.AttributeV0, geometry.AttributeV1, geometry.AttributeV2, geometry.AttributeV3} {
		if frames[i], err = l.optional(mesh, name); err != nil {
			return nil, err
		}
	}
	if frames != [4]*geometry.Attribute{} {
		opts = append(opts, geometry.WithLocalFrames(frames[0], frames[1], frames[2], frames[3]))
	}

	g, err := geometry.NewMeshGeometry(opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "mesh %q", mesh)
	}
	return g, nil
}

// optional loads an attribute, mapping ErrAttributeNotFound to a nil attribute.
func (l *attributeGeometryLoader) optional(mesh, name string) (*geometry.Attribute, error) {
	a, err := l.attrs.LoadAttribute(mesh, name)
	if errors.Is(err, ErrAttributeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", name)
	}
	return a, nil
}
