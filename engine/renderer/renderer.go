package renderer

import (
	"log/slog"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"

	"github.com/Carmen-Shannon/oxy-rig/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-rig/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-rig/engine/window"
)

// ErrPipelineNotFound is returned when a draw names a pipeline that was never registered.
var ErrPipelineNotFound = errors.New("render pipeline not registered")

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend
	logger      *slog.Logger

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	presentMode          PresentMode
	msaa                 MSAASampleCount
	clearColor           *wgpu.Color
}

// Renderer defines the interface for the rendering system.
//
// The Renderer owns the GPU device and surface, caches registered pipelines by key and exposes
// the frame lifecycle: BeginFrame, any number of DrawCall, EndFrame, Present.
type Renderer interface {
	// Pipeline retrieves the cached Pipeline associated with the given key.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// RegisterPipelines creates the GPU render pipeline for each Pipeline and caches it by
	// PipelineKey. Keys that are already registered are skipped.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if pipeline creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Resize reconfigures the surface and its attachments for a new framebuffer size.
	// Zero sizes (a minimized window) are ignored.
	//
	// Parameters:
	//   - width, height: the framebuffer size in pixels
	Resize(width, height int)

	// SetPresentMode changes the present mode. It takes effect at the next Resize.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// SetClearColor sets the color the frame is cleared to.
	//
	// Parameters:
	//   - color: RGBA clear color
	SetClearColor(color wgpu.Color)

	// InitMeshBuffers uploads vertex and index data into new GPU buffers owned by the provider.
	//
	// Parameters:
	//   - provider: receives the buffers
	//   - vertexData: interleaved vertex bytes
	//   - indexData: u32 index bytes
	//   - indexCount: number of indices
	//
	// Returns:
	//   - error: an error if buffer creation fails
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitBindGroup creates any missing buffer for the layout's bindings and builds the bind group.
	//
	// Parameters:
	//   - provider: receives the buffers and bind group
	//   - descriptor: the bind group layout, typically from Pipeline.BindGroupLayoutDescriptors
	//   - bufferSizes: byte size per binding for buffers the provider does not hold yet
	//
	// Returns:
	//   - error: an error if a size is missing or creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferSizes map[int]uint64) error

	// WriteBuffers queues CPU-side data for upload into provider buffers.
	//
	// Parameters:
	//   - writes: the writes to queue
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the next surface texture and opens the render pass.
	//
	// Returns:
	//   - error: an error if the surface texture cannot be acquired
	BeginFrame() error

	// DrawCall records an indexed draw into the open render pass.
	//
	// Parameters:
	//   - pipelineKey: key of a registered pipeline
	//   - mesh: provider holding the vertex and index buffers
	//   - bindGroups: providers whose bind groups are set at their slice position
	//   - draw: the index range and instance count
	//
	// Returns:
	//   - error: ErrPipelineNotFound if the key is not registered
	DrawCall(pipelineKey string, mesh bind_group_provider.BindGroupProvider, bindGroups []bind_group_provider.BindGroupProvider, draw DrawRange) error

	// EndFrame closes the render pass and submits the frame's commands.
	EndFrame()

	// Present shows the frame and releases the surface texture.
	Present()

	// Release destroys every registered pipeline and the GPU device.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer drawing into the given window's surface.
//
// Parameters:
//   - win: the window providing the surface descriptor and initial size
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the configured Renderer
//   - error: an error if the GPU adapter or device cannot be created
func NewRenderer(win window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   BackendTypeWGPU,
		msaa:          MSAA4x,
		logger:        slog.Default(),
	}

	// Options first so adapter flags are known before the backend requests a GPU.
	for _, opt := range options {
		opt(r)
	}
	r.logger = r.logger.With("component", "renderer")

	switch r.backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		b, err := newWGPURendererBackend(win.SurfaceDescriptor(), r.forceFallbackAdapter, r.msaa)
		if err != nil {
			return nil, errors.Wrap(err, "create wgpu backend")
		}
		r.backend = b
	}

	r.backend.SetPresentMode(r.presentMode)
	if r.clearColor != nil {
		r.backend.SetClearColor(*r.clearColor)
	}
	r.backend.ConfigureSurface(win.Width(), win.Height())

	r.logger.Info("renderer ready",
		"width", win.Width(),
		"height", win.Height(),
		"msaa", uint32(r.msaa),
		"software", r.forceFallbackAdapter,
	)
	return r, nil
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) SetClearColor(color wgpu.Color) {
	r.backend.SetClearColor(color)
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		if err := r.backend.RegisterRenderPipeline(p); err != nil {
			return err
		}
		r.pipelineCache[key] = p
		r.logger.Debug("pipeline registered", "pipeline", key)
	}
	return nil
}

func (r *renderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	return r.backend.InitMeshBuffers(provider, vertexData, indexData, indexCount)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferSizes map[int]uint64) error {
	return r.backend.InitBindGroup(provider, descriptor, bufferSizes)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.backend.WriteBuffers(writes)
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) DrawCall(pipelineKey string, mesh bind_group_provider.BindGroupProvider, bindGroups []bind_group_provider.BindGroupProvider, draw DrawRange) error {
	r.mu.Lock()
	p, exists := r.pipelineCache[pipelineKey]
	r.mu.Unlock()

	if !exists {
		return errors.Wrapf(ErrPipelineNotFound, "%q", pipelineKey)
	}

	r.backend.DrawCall(p, mesh, bindGroups, draw)
	return nil
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Release() {
	r.mu.Lock()
	for key, p := range r.pipelineCache {
		p.Release()
		delete(r.pipelineCache, key)
	}
	r.mu.Unlock()
	r.backend.Release()
}
