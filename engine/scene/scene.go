package scene

import (
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/Carmen-Shannon/oxy-rig/engine/skeleton"
)

var (
	// ErrActorNotFound is returned when a named actor is not registered in the scene.
	ErrActorNotFound = errors.New("actor not found")

	// ErrDuplicateActor is returned when an actor name is already taken.
	ErrDuplicateActor = errors.New("actor already exists")
)

// PickResult describes the closest bone hit by a picking ray.
type PickResult struct {
	Actor    string
	Bone     int
	Distance float32
}

// Scene holds a set of named skeleton actors and keeps their poses and highlight state consistent.
// At most one bone across all actors is highlighted at a time.
// Thread-safe for concurrent access; each skeleton is only ever mutated by one goroutine at a time.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Add registers a skeleton under the given actor name. The actor is marked dirty so the next
	// Update recomputes its pose.
	//
	// Parameters:
	//   - name: unique actor name
	//   - sk: the skeleton to register
	//
	// Returns:
	//   - error: ErrDuplicateActor if the name is taken
	Add(name string, sk skeleton.Skeleton) error

	// Remove unregisters an actor. Removing the actor that owns the highlight clears it.
	//
	// Parameters:
	//   - name: the actor name
	Remove(name string)

	// Actor returns the skeleton registered under name, or nil.
	Actor(name string) skeleton.Skeleton

	// Actors returns the registered actor names in sorted order.
	Actors() []string

	// Update recomputes the pose of every dirty actor. Actors are distributed across the scene's
	// worker pool and the call returns once all of them are done.
	//
	// Returns:
	//   - int: the number of actors that were recomputed
	Update() int

	// Rotate applies a local rotation delta to one bone of an actor and marks the actor dirty.
	//
	// Parameters:
	//   - name: the actor name
	//   - bone: bone index within the actor
	//   - delta: rotation applied in the bone's local frame
	//
	// Returns:
	//   - error: ErrActorNotFound or skeleton.ErrBoneOutOfRange
	Rotate(name string, bone int, delta mgl32.Quat) error

	// RotateHighlighted rotates the highlighted bone, if any.
	//
	// Parameters:
	//   - delta: rotation applied in the bone's local frame
	//
	// Returns:
	//   - bool: true if a bone was highlighted and rotated
	RotateHighlighted(delta mgl32.Quat) bool

	// Pick casts a ray against every actor, highlights the closest hit bone and clears every
	// other highlight. A miss clears all highlights. Dirty actors are recomputed first.
	//
	// Parameters:
	//   - origin: ray origin in world space
	//   - direction: ray direction in world space
	//
	// Returns:
	//   - PickResult: the closest hit
	//   - bool: false if nothing was hit
	Pick(origin, direction mgl32.Vec3) (PickResult, bool)

	// Highlighted returns the actor and bone currently highlighted.
	//
	// Returns:
	//   - string: actor name
	//   - int: bone index
	//   - bool: false if nothing is highlighted
	Highlighted() (string, int, bool)

	// ClearHighlight removes the highlight from every actor.
	ClearHighlight()

	// ResetPose returns every actor to its rest pose.
	ResetPose()

	// Close stops the scene's worker pool.
	Close()
}

type actor struct {
	name  string
	sk    skeleton.Skeleton
	dirty bool
}

type scene struct {
	mu *sync.Mutex

	name   string
	actors map[string]*actor

	// highlight owner, empty when nothing is highlighted
	highlightActor string

	updatePool    worker.DynamicWorkerPool
	updateWorkers int

	logger *slog.Logger
}

var _ Scene = &scene{}

// NewScene creates an empty scene.
//
// Parameters:
//   - name: the scene's identifier
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:            &sync.Mutex{},
		name:          name,
		actors:        make(map[string]*actor),
		updateWorkers: max(runtime.NumCPU()-1, 1),
		logger:        slog.Default(),
	}

	for _, option := range options {
		option(s)
	}

	s.logger = s.logger.With("component", "scene", "scene", name)
	s.updatePool = worker.NewDynamicWorkerPool(s.updateWorkers, 256, 1*time.Second)
	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Add(name string, sk skeleton.Skeleton) error {
	if sk == nil {
		return errors.Errorf("scene %q: nil skeleton for actor %q", s.name, name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.actors[name]; ok {
		return errors.Wrapf(ErrDuplicateActor, "scene %q: actor %q", s.name, name)
	}

	// keep the scene-wide highlight exclusive
	if sk.HighlightedBone() != skeleton.NoBone {
		s.clearHighlightLocked()
		s.highlightActor = name
	}
	s.actors[name] = &actor{name: name, sk: sk, dirty: true}
	s.logger.Info("actor added", "actor", name, "bones", sk.BoneCount())
	return nil
}

func (s *scene) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.actors[name]; !ok {
		return
	}
	delete(s.actors, name)
	if s.highlightActor == name {
		s.highlightActor = ""
	}
	s.logger.Info("actor removed", "actor", name)
}

func (s *scene) Actor(name string) skeleton.Skeleton {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.actors[name]; ok {
		return a.sk
	}
	return nil
}

func (s *scene) Actors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedNames()
}

func (s *scene) Update() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked()
}

// updateLocked fans the dirty actors out over the update pool. A WaitGroup is the per-call barrier
// since pool.Wait blocks until workers idle out.
// Caller must hold the mutex.
func (s *scene) updateLocked() int {
	var wg sync.WaitGroup
	taskID := 0
	for _, a := range s.actors {
		if !a.dirty {
			continue
		}
		wg.Add(1)
		sk := a.sk
		id := taskID
		taskID++
		s.updatePool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				sk.Update()
				return nil, nil
			},
		})
		a.dirty = false
	}
	wg.Wait()
	return taskID
}

func (s *scene) Rotate(name string, bone int, delta mgl32.Quat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actors[name]
	if !ok {
		return errors.Wrapf(ErrActorNotFound, "scene %q: rotate %q", s.name, name)
	}
	b := a.sk.Bone(bone)
	if b == nil {
		return errors.Wrapf(skeleton.ErrBoneOutOfRange, "scene %q: actor %q bone %d", s.name, name, bone)
	}
	b.Rotate(delta)
	a.dirty = true
	return nil
}

func (s *scene) RotateHighlighted(delta mgl32.Quat) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actors[s.highlightActor]
	if !ok {
		return false
	}
	b := a.sk.Bone(a.sk.HighlightedBoneIndex())
	if b == nil {
		return false
	}
	b.Rotate(delta)
	a.dirty = true
	return true
}

func (s *scene) Pick(origin, direction mgl32.Vec3) (PickResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateLocked()

	var best PickResult
	found := false
	// sorted order makes equal-distance ties deterministic
	for _, name := range s.sortedNames() {
		bone, dist, ok := s.actors[name].sk.Pick(origin, direction)
		if !ok {
			continue
		}
		if !found || dist < best.Distance {
			best = PickResult{Actor: name, Bone: bone, Distance: dist}
			found = true
		}
	}

	s.clearHighlightLocked()
	if !found {
		s.logger.Debug("pick missed")
		return PickResult{Bone: skeleton.NoBone}, false
	}
	if err := s.actors[best.Actor].sk.SetHighlightedBone(best.Bone); err != nil {
		s.logger.Error("highlight failed", "actor", best.Actor, "bone", best.Bone, "error", err)
		return PickResult{Bone: skeleton.NoBone}, false
	}
	s.highlightActor = best.Actor
	s.logger.Debug("bone picked", "actor", best.Actor, "bone", best.Bone, "distance", best.Distance)
	return best, true
}

func (s *scene) Highlighted() (string, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actors[s.highlightActor]
	if !ok {
		return "", skeleton.NoBone, false
	}
	i := a.sk.HighlightedBoneIndex()
	if i == skeleton.NoBone {
		return "", skeleton.NoBone, false
	}
	return a.name, i, true
}

func (s *scene) ClearHighlight() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearHighlightLocked()
}

// clearHighlightLocked clears the highlight on every actor.
// Caller must hold the mutex.
func (s *scene) clearHighlightLocked() {
	for _, a := range s.actors {
		a.sk.ClearHighlightedBone()
	}
	s.highlightActor = ""
}

func (s *scene) ResetPose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.actors {
		a.sk.ResetPose()
		a.dirty = false
	}
	s.logger.Info("pose reset", "actors", len(s.actors))
}

func (s *scene) Close() {
	s.updatePool.Stop()
}

// sortedNames returns the actor names in sorted order.
// Caller must hold the mutex.
func (s *scene) sortedNames() []string {
	names := make([]string, 0, len(s.actors))
	for name := range s.actors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
