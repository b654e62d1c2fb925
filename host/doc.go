// Package host implements the engine that owns the WebGPU device/queue/
// surface, binds the event loop to its owning OS thread, and drives the
// seven-step per-frame orchestration: pump events, recompile shaders if
// dirty, flush card-buffer uploads, acquire the surface's current view,
// record one render pass, walk the workspace tree into it, then submit
// and present.
//
// Engine.Run is this package's only blocking call; everything else —
// shader compilation, buffer uploads, widget rendering — runs inside one
// frame tick on the goroutine that called Run.
package host
