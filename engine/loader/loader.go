package loader

import (
	"log/slog"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/Carmen-Shannon/oxy-rig/engine/skeleton"
)

var (
	// ErrMeshNotFound is returned when a source has no mesh of the requested name.
	ErrMeshNotFound = errors.New("mesh not found")

	// ErrAttributeNotFound is returned when a mesh has no attribute of the requested name.
	ErrAttributeNotFound = errors.New("attribute not found")

	// ErrInconsistentOffset is returned when a bone record's Offset disagrees with its rest joints.
	ErrInconsistentOffset = errors.New("bone offset disagrees with rest joints")

	// ErrNoSource is returned when a Loader has neither a cached mesh nor a source to ask.
	ErrNoSource = errors.New("no mesh source configured")
)

// offsetTolerance is the largest distance between a record's Offset and its rest joint
// displacement that is still accepted.
const offsetTolerance float32 = 1e-4

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	source MeshLoader
	logger *slog.Logger

	meshCache map[string]*MeshData
}

// Loader turns mesh data from a MeshLoader into skeletons.
// Mesh data is cached by name after the first load. Each LoadSkeleton call builds a fresh
// Skeleton, since a skeleton carries mutable pose state and is not shared between callers.
type Loader interface {
	// LoadSkeleton fetches mesh data by name (from the cache or the source) and builds a
	// skeleton in its rest pose with the mesh's geometry, proxy buffers and world transform.
	//
	// Parameters:
	//   - name: the mesh name
	//   - options: extra skeleton options, applied after the mesh-derived ones
	//
	// Returns:
	//   - skeleton.Skeleton: the new skeleton
	//   - error: error if the mesh cannot be loaded or does not form a valid skeleton
	LoadSkeleton(name string, options ...skeleton.SkeletonBuilderOption) (skeleton.Skeleton, error)

	// LoadMesh fetches mesh data by name, consulting the cache first.
	//
	// Parameters:
	//   - name: the mesh name
	//
	// Returns:
	//   - *MeshData: the mesh data
	//   - error: ErrNoSource or the source's error (wrapped)
	LoadMesh(name string) (*MeshData, error)

	// Get retrieves cached mesh data by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - *MeshData: the cached mesh data or nil
	Get(name string) *MeshData

	// Meshes returns a copy of the mesh cache.
	//
	// Returns:
	//   - map[string]*MeshData: all cached meshes keyed by name
	Meshes() map[string]*MeshData
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the given options applied.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:        sync.RWMutex{},
		logger:    slog.Default(),
		meshCache: make(map[string]*MeshData),
	}

	for _, option := range options {
		option(l)
	}

	l.logger = l.logger.With("component", "loader")
	return l
}

func (l *loader) LoadMesh(name string) (*MeshData, error) {
	l.mu.RLock()
	cached, ok := l.meshCache[name]
	l.mu.RUnlock()
	if ok {
		return cached, nil
	}

	if l.source == nil {
		return nil, errors.Wrapf(ErrNoSource, "load mesh %q", name)
	}

	data, err := l.source.LoadMesh(name)
	if err != nil {
		return nil, errors.Wrapf(err, "load mesh %q", name)
	}

	l.mu.Lock()
	l.meshCache[name] = data
	l.mu.Unlock()

	l.logger.Debug("mesh loaded", "mesh", name, "bones", len(data.Bones))
	return data, nil
}

func (l *loader) LoadSkeleton(name string, options ...skeleton.SkeletonBuilderOption) (skeleton.Skeleton, error) {
	data, err := l.LoadMesh(name)
	if err != nil {
		return nil, err
	}

	defs, err := BoneDefinitions(data.Bones)
	if err != nil {
		return nil, errors.Wrapf(err, "mesh %q", name)
	}

	skeletonName := data.Name
	if skeletonName == "" {
		skeletonName = name
	}
	world := data.WorldTransform
	if world == (mgl32.Mat4{}) {
		world = mgl32.Ident4()
	}

	opts := []skeleton.SkeletonBuilderOption{
		skeleton.WithName(skeletonName),
		skeleton.WithWorldTransform(world),
		skeleton.WithGeometry(data.Geometry),
		skeleton.WithProxyGeometry(data.ProxyIndices, data.ProxyPositions),
	}
	opts = append(opts, options...)

	s, err := skeleton.NewSkeleton(defs, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "mesh %q", name)
	}

	l.logger.Info("skeleton built", "mesh", name, "bones", s.BoneCount(), "roots", len(s.Roots()))
	return s, nil
}

func (l *loader) Get(name string) *MeshData {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.meshCache[name]
}

func (l *loader) Meshes() map[string]*MeshData {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]*MeshData, len(l.meshCache))
	for k, v := range l.meshCache {
		out[k] = v
	}
	return out
}

// BoneDefinitions converts bone records into skeleton definitions.
// A record with a non-zero Offset must agree with the distance between its rest joint and its
// parent's rest joint (or the origin, for a root). Parent indices are range checked here so the
// offset check can run; the full hierarchy check happens in skeleton.NewSkeleton.
//
// Parameters:
//   - records: the bone records indexed by bone index
//
// Returns:
//   - []skeleton.BoneDefinition: one definition per record
//   - error: ErrInconsistentOffset (wrapped) or skeleton.ErrInvalidHierarchy (wrapped)
func BoneDefinitions(records []BoneRecord) ([]skeleton.BoneDefinition, error) {
	defs := make([]skeleton.BoneDefinition, len(records))
	for i, r := range records {
		if r.Offset != (mgl32.Vec3{}) {
			var parentJoint mgl32.Vec3
			if r.Parent != skeleton.NoBone {
				if r.Parent < 0 || r.Parent >= len(records) {
					return nil, errors.Wrapf(skeleton.ErrInvalidHierarchy, "bone %d: parent %d out of range", i, r.Parent)
				}
				parentJoint = records[r.Parent].RestJoint
			}
			got := r.RestJoint.Sub(parentJoint)
			if got.Sub(r.Offset).Len() > offsetTolerance {
				return nil, errors.Wrapf(ErrInconsistentOffset, "bone %d %q: offset %v, rest joints give %v", i, r.Name, r.Offset, got)
			}
		}

		defs[i] = skeleton.BoneDefinition{
			Parent:        r.Parent,
			Children:      append([]int(nil), r.Children...),
			RestJoint:     r.RestJoint,
			RestEndpoint:  r.RestEndpoint,
			RestRotation:  r.RestRotation,
			RestTransform: r.RestTransform,
		}
	}
	return defs, nil
}
