package host

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"

	"github.com/gogpu/yeti"
	"github.com/gogpu/yeti/cardbuf"
	"github.com/gogpu/yeti/eventloop"
	"github.com/gogpu/yeti/shadermgr"
	"github.com/gogpu/yeti/widget"
	"github.com/gogpu/yeti/workspace"
)

// frameInterval paces Run's ticker at the spec's ~60 Hz target. A missed
// tick is never fatal — frame simply skips whatever fraction of a second
// it lost (spec.md §4.6).
const frameInterval = time.Second / 60

var _ eventloop.Listener = (*Engine)(nil)

// Engine owns the WebGPU instance/adapter/device/queue, the surface
// collaborator, the event loop, and every workspace rendered into that
// surface each frame. New wires everything in the same order the
// teacher's NativeBackend.Init does; Run is this package's only blocking
// call, driving the seven-step per-frame orchestration until ctx is
// cancelled. Close does not stop a running Run.
type Engine struct {
	yeti.Object

	instance  *core.Instance
	adapterID core.AdapterID
	deviceID  core.DeviceID
	queueID   core.QueueID
	gpuInfo   *GPUInfo
	monitor   GPUMonitor

	surface Surface
	loop    *eventloop.Loop

	shaders *shadermgr.Manager
	cards   *cardbuf.CardBufferManager
	globals *sharedGlobals

	mu         sync.Mutex
	workspaces []*workspace.Workspace

	startTime  time.Time
	frameIndex uint64
	mouseX     float32
	mouseY     float32
	screenW    float32
	screenH    float32

	running atomic.Bool
}

// Options configures Engine.New. Exactly one of Surface or NewSurface
// must be set: Surface for a collaborator the caller already
// constructed (it needs no device), NewSurface for one that needs the
// device/queue New is about to acquire (host.OffscreenSurface, a real
// swapchain surface) — New calls it once the device exists. A nil
// CardBufConfig falls back to cardbuf.DefaultConfig, and a nil Monitor
// falls back to NoopMonitor.
type Options struct {
	Surface       Surface
	NewSurface    func(deviceID core.DeviceID, queueID core.QueueID) (Surface, error)
	Label         string
	CardBufConfig *cardbuf.Config
	Monitor       GPUMonitor
}

// New acquires a GPU device, builds the shared group-0 globals bind
// group, the shader manager, and the card buffer manager, then returns
// an Engine ready to own one or more workspaces via AddWorkspace.
func New(opts Options) (*Engine, error) {
	if opts.Surface == nil && opts.NewSurface == nil {
		return nil, yeti.NewError(yeti.InvalidArgument, "host.New requires Options.Surface or Options.NewSurface")
	}
	label := opts.Label
	if label == "" {
		label = "yeti-wgpu-device"
	}

	instance := core.NewInstance(&gputypes.InstanceDescriptor{
		Backends: gputypes.BackendsPrimary,
	})

	adapterID, deviceID, queueID, err := acquireDevice(instance, &gputypes.RequestAdapterOptions{
		PowerPreference: gputypes.PowerPreferenceHighPerformance,
	}, label)
	if err != nil {
		return nil, err
	}

	gpuInfo, _ := NewGPUInfo(adapterID)

	globals, err := createSharedGlobals(deviceID)
	if err != nil {
		_ = releaseDevice(deviceID)
		_ = releaseAdapter(adapterID)
		return nil, err
	}

	shaders, err := shadermgr.New(deviceID, globals.layout)
	if err != nil {
		_ = releaseDevice(deviceID)
		_ = releaseAdapter(adapterID)
		return nil, err
	}

	cardCfg := cardbuf.DefaultConfig()
	if opts.CardBufConfig != nil {
		cardCfg = *opts.CardBufConfig
	}
	cards, err := cardbuf.New(deviceID, cardCfg)
	if err != nil {
		_ = releaseDevice(deviceID)
		_ = releaseAdapter(adapterID)
		return nil, err
	}

	loop, err := eventloop.New()
	if err != nil {
		_ = releaseDevice(deviceID)
		_ = releaseAdapter(adapterID)
		return nil, err
	}

	surface := opts.Surface
	if surface == nil {
		surface, err = opts.NewSurface(deviceID, queueID)
		if err != nil {
			_ = releaseDevice(deviceID)
			_ = releaseAdapter(adapterID)
			return nil, err
		}
	}

	monitor := opts.Monitor
	if monitor == nil {
		monitor = NoopMonitor{}
	}

	e := &Engine{
		instance:  instance,
		adapterID: adapterID,
		deviceID:  deviceID,
		queueID:   queueID,
		gpuInfo:   gpuInfo,
		monitor:   monitor,
		surface:   surface,
		loop:      loop,
		shaders:   shaders,
		cards:     cards,
		globals:   globals,
		startTime: time.Time{},
	}
	e.InitObject()

	if err := loop.Register(yeti.EventMouseMove, e, 0); err != nil {
		return nil, err
	}
	if err := loop.Register(yeti.EventMouseDrag, e, 0); err != nil {
		return nil, err
	}
	if err := loop.Register(yeti.EventResize, e, 0); err != nil {
		return nil, err
	}

	if gpuInfo != nil {
		yeti.Logger().Info("host engine ready", "gpu", gpuInfo.String())
	}

	return e, nil
}

// Loop exposes the engine's event loop so callers can post platform
// events and register their own listeners alongside Engine's.
func (e *Engine) Loop() *eventloop.Loop { return e.loop }

// DeviceID returns the logical device every workspace's widgets should
// allocate GPU resources against.
func (e *Engine) DeviceID() core.DeviceID { return e.deviceID }

// QueueID returns the queue backing DeviceID, needed by a Surface
// implementation (host.OffscreenSurface, a real swapchain) to submit
// and upload.
func (e *Engine) QueueID() core.QueueID { return e.queueID }

// DeviceHandle returns the engine's acquired adapter/device/queue as a
// gpucontext.DeviceProvider, the shared-handle vocabulary an embedding
// application uses to receive GPU resources without importing
// gogpu/wgpu/core directly.
func (e *Engine) DeviceHandle() DeviceHandle {
	return DeviceHandle{adapter: e.adapterID, device: e.deviceID, queue: e.queueID}
}

// SharedBindGroupLayout returns the group-0 layout every workspace this
// engine drives must be constructed with.
func (e *Engine) SharedBindGroupLayout() core.BindGroupLayoutID { return e.globals.layout }

// SharedBindGroup returns the group-0 bind group every workspace this
// engine drives must be constructed with.
func (e *Engine) SharedBindGroup() core.BindGroupID { return e.globals.group }

// AddWorkspace registers ws to be prepared and rendered every frame.
func (e *Engine) AddWorkspace(ws *workspace.Workspace) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.workspaces = append(e.workspaces, ws)
	e.loop.Register(yeti.EventMouseDown, ws, 0)
	e.loop.Register(yeti.EventMouseUp, ws, 0)
	e.loop.Register(yeti.EventKeyDown, ws, 0)
	e.loop.Register(yeti.EventKeyUp, ws, 0)
	e.loop.Register(yeti.EventChar, ws, 0)
	e.loop.Register(yeti.EventScroll, ws, 0)
	e.loop.Register(yeti.EventSetFocus, ws, 0)
	e.loop.Register(yeti.EventClose, ws, 0)
	e.loop.Register(yeti.EventSplitPane, ws, 0)
}

// OnEvent implements eventloop.Listener, tracking the latest mouse
// position and screen size for the FrameContext every workspace's
// PrepareFrame/Render see this frame. It never consumes the event, so
// every other listener registered for the same kind still runs.
func (e *Engine) OnEvent(event yeti.Event) (bool, error) {
	switch event.Kind {
	case yeti.EventMouseMove, yeti.EventMouseDrag:
		e.mouseX = float32(event.X)
		e.mouseY = float32(event.Y)
	case yeti.EventResize:
		e.screenW = float32(event.Width)
		e.screenH = float32(event.Height)
	}
	return false, nil
}

// Run binds the event loop to the calling goroutine's OS thread (the
// render backend's device handle is thread-affine) and pumps one frame
// tick at roughly 60 Hz until ctx is cancelled. It is the only call in
// this package meant to block indefinitely.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return yeti.NewError(yeti.FailedPrecondition, "engine is already running")
	}
	defer e.running.Store(false)

	e.loop.Bind()
	e.startTime = time.Now()
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := e.frame(); err != nil {
				var skip *skippedFrameError
				if errors.As(err, &skip) {
					yeti.Logger().Warn("frame skipped", "error", skip.Unwrap())
					continue
				}
				return err
			}
		}
	}
}

// skippedFrameError marks a frame failure that is not fatal to the
// engine — the surface was transiently unavailable (resize in flight, a
// minimized window) and the next tick simply tries again.
type skippedFrameError struct{ cause error }

func (s *skippedFrameError) Error() string { return "frame skipped: " + s.cause.Error() }
func (s *skippedFrameError) Unwrap() error { return s.cause }

// frame runs the seven numbered steps of spec.md §4.6: pump events,
// recompile shaders if dirty, flush card-buffer uploads, acquire the
// surface's current view, record one render pass walking every
// workspace into it, then submit and present.
func (e *Engine) frame() error {
	if _, err := e.loop.DispatchPending(); err != nil {
		yeti.Logger().Warn("listener error during frame pump", "error", err)
	}

	if err := e.shaders.Update(); err != nil {
		return yeti.WrapError(yeti.GpuFailure, "shader update failed", err)
	}

	if err := e.cards.Flush(e.queueID); err != nil {
		return yeti.WrapError(yeti.GpuFailure, "card buffer flush failed", err)
	}

	view, err := e.surface.AcquireCurrentView()
	if err != nil {
		// Not fatal: the surface can be transiently unavailable (a
		// resize in flight, a minimized window). Skip this frame.
		return &skippedFrameError{cause: err}
	}

	e.frameIndex++
	globals := globalsUniform{
		Time:         float32(time.Since(e.startTime).Seconds()),
		MouseX:       e.mouseX,
		MouseY:       e.mouseY,
		ScreenWidth:  e.screenW,
		ScreenHeight: e.screenH,
		FrameIndex:   uint32(e.frameIndex),
	}
	if err := e.globals.update(e.queueID, globals); err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to update frame globals", err)
	}

	device, err := core.GetDevice(e.deviceID)
	if err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to resolve device", err)
	}
	encoder, err := device.CreateCommandEncoder("yeti-frame")
	if err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to create command encoder", err)
	}

	pass, err := encoder.BeginRenderPass(&core.RenderPassDescriptor{
		Label: "yeti-frame-pass",
		ColorAttachments: []core.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
	})
	if err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to begin render pass", err)
	}

	ctx := &widget.FrameContext{
		Time:         float64(globals.Time),
		MouseX:       e.mouseX,
		MouseY:       e.mouseY,
		ScreenWidth:  e.screenW,
		ScreenHeight: e.screenH,
		FrameIndex:   e.frameIndex,
		SharedGroup:  e.globals.group,
		SharedLayout: e.globals.layout,
		Device:       e.deviceID,
		Queue:        e.queueID,
		Cards:        e.cards,
	}

	e.mu.Lock()
	workspaces := append([]*workspace.Workspace(nil), e.workspaces...)
	e.mu.Unlock()

	// A workspace's PrepareFrame/Render failure is logged and the rest of
	// the frame continues; it never tears down the engine. The failing
	// widget is not marked failed or removed: it is prepared and rendered
	// again on the next frame.
	for _, ws := range workspaces {
		if err := ws.PrepareFrame(ctx); err != nil {
			yeti.Logger().Warn("workspace prepare failed", "error", err)
		}
		if err := ws.Render(pass, ctx); err != nil {
			yeti.Logger().Warn("workspace render failed", "error", err)
		}
	}

	encoder.EndRenderPass(pass)
	cmdBuf, err := encoder.Finish()
	if err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to finish command buffer", err)
	}

	if err := e.surface.Submit(cmdBuf.Raw()); err != nil {
		return yeti.WrapError(yeti.GpuFailure, "submit failed", err)
	}
	if err := e.surface.Present(); err != nil {
		return yeti.WrapError(yeti.GpuFailure, "present failed", err)
	}

	return nil
}

// Resize propagates a new surface size to the surface collaborator and
// every owned workspace.
func (e *Engine) Resize(width, height uint32) error {
	if err := e.surface.Resize(width, height); err != nil {
		return yeti.WrapError(yeti.GpuFailure, "surface resize failed", err)
	}
	e.screenW = float32(width)
	e.screenH = float32(height)

	e.mu.Lock()
	defer e.mu.Unlock()
	bounds := yeti.Bounds{X: 0, Y: 0, Width: float32(width), Height: float32(height)}
	for _, ws := range e.workspaces {
		ws.Resize(bounds)
	}
	return nil
}

// Close tears down the owned device and adapter in reverse acquisition
// order, the way the teacher's NativeBackend.Close does.
func (e *Engine) Close() error {
	_ = e.loop.Stop()
	if err := releaseDevice(e.deviceID); err != nil {
		return err
	}
	return releaseAdapter(e.adapterID)
}
