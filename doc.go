// Package yeti is the core of a GPU-accelerated terminal workspace: a
// windowing/multiplexing host that composes a grid of text cells with
// heterogeneous interactive widgets (shader panels, plots, images, video,
// rich text, PDF viewers, piano keyboards, …) over a single WebGPU surface.
//
// The package is organized as:
//
//   - yeti (this package): object identity, the Error carrier, the
//     factory/singleton protocol, and the Event type.
//   - [github.com/gogpu/yeti/gridwire]: the grid-cell wire format and the
//     OSC control-sequence codec.
//   - [github.com/gogpu/yeti/eventloop]: the per-thread cooperative event
//     loop.
//   - [github.com/gogpu/yeti/cardbuf]: the two-tier GPU buffer allocator
//     for cards.
//   - [github.com/gogpu/yeti/shadermgr]: the WGSL template composer and
//     shared render pipeline owner.
//   - [github.com/gogpu/yeti/tile] and [github.com/gogpu/yeti/workspace]:
//     the recursive split/pane layout tree and the workspace that renders
//     it.
//   - [github.com/gogpu/yeti/widget] and its subpackages: the widget
//     lifecycle contract and concrete widgets (plot, image, video,
//     richtext, shader, piano, pdf).
//   - [github.com/gogpu/yeti/host]: per-frame orchestration tying the
//     above together against a real WebGPU device.
//
// Out of scope (external collaborators): the platform window, the WebGPU
// device/queue/surface implementation, individual widget decode internals
// (video, PDF, MSDF atlas generation), persistent configuration loading,
// CLI argument parsing, and the PTY/multiplexer tool that produces grid
// cells.
package yeti
