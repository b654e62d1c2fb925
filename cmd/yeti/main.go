// Command yeti runs a headless yeti workspace for a fixed duration,
// driving the host engine's frame loop against an offscreen surface.
// There is no windowing dependency here, matching the teacher's own
// ggdemo, which drives its renderer without one either: yeti's real
// window backend is a platform-specific collaborator implementing
// host.Surface, left for a caller embedding this module to supply.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/gogpu/wgpu/core"
	"github.com/gogpu/wgpu/types"

	"github.com/gogpu/yeti"
	"github.com/gogpu/yeti/host"
	"github.com/gogpu/yeti/workspace"
)

func main() {
	var (
		width    = flag.Uint("width", 1280, "surface width in pixels")
		height   = flag.Uint("height", 720, "surface height in pixels")
		duration = flag.Duration("duration", 3*time.Second, "how long to run the frame loop")
	)
	flag.Parse()

	if err := run(uint32(*width), uint32(*height), *duration); err != nil {
		log.Fatalf("yeti: %v", err)
	}
}

func run(width, height uint32, duration time.Duration) error {
	engine, err := newHeadlessEngine(width, height)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := engine.Close(); cerr != nil {
			yeti.Logger().Warn("engine close failed", "error", cerr)
		}
	}()

	bounds := yeti.Bounds{X: 0, Y: 0, Width: float32(width), Height: float32(height)}
	ws, err := workspace.New(bounds, nil, engine.SharedBindGroupLayout(), engine.SharedBindGroup())
	if err != nil {
		return err
	}
	engine.AddWorkspace(ws)

	log.Printf("yeti: running headless workspace at %dx%d for %s", width, height, duration)

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	if err := engine.Run(ctx); err != nil {
		return err
	}

	log.Printf("yeti: frame loop exited cleanly")
	return nil
}

// newHeadlessEngine builds a host.Engine backed by host.OffscreenSurface.
// A caller embedding yeti with a real window just sets Options.Surface
// to its own host.Surface implementation instead of NewSurface.
func newHeadlessEngine(width, height uint32) (*host.Engine, error) {
	return host.New(host.Options{
		Label: "yeti-headless-device",
		NewSurface: func(deviceID core.DeviceID, queueID core.QueueID) (host.Surface, error) {
			return host.NewOffscreenSurface(deviceID, queueID, types.TextureFormatBGRA8Unorm, width, height)
		},
	})
}
