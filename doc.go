// Package vkres manages the lifetime and synchronization of Vulkan resources
// for a rendering layer that emulates an immediate-mode API.
//
// # Overview
//
// vkres pools and recycles GPU objects, tracks when the GPU has finished with
// them, transitions images between layouts with the minimal barrier and queues
// writes to images until a flush point. It never submits work: resources are
// stamped with the serial of the batch being recorded and handed to the
// renderer's deferred-destruction sink on release.
//
// # Components
//
//   - [DynamicBuffer]: a linear allocator over rotating buffers for transient
//     upload data.
//   - [DynamicDescriptorPool]: a pool of descriptor pools with reference-counted
//     bindings and serial-gated reuse.
//   - [DynamicQueryPool], [DynamicSemaphorePool]: slab pools of queries and
//     semaphores recycled once fully freed and idle.
//   - [BufferHelper]: a buffer with bound memory that tracks outstanding access
//     to insert barriers only when needed.
//   - [ImageHelper]: an image with a layout state machine, a staged update queue
//     and blit-based mipmap generation.
//   - [LineLoopHelper], [FramebufferHelper], [ShaderProgramHelper]: auxiliary
//     helpers for line loops, framebuffers and per-program shader state.
//
// # Collaborators
//
// vkres consumes the interfaces of package native: a [native.Renderer] for the
// serial clock, device and garbage sink, and a [native.Recorder] for commands.
// backend/vulkan implements them on github.com/vulkan-go/vulkan and
// native/nativetest provides in-memory versions for tests.
//
// # Threading
//
// All calls are made from the single command-recording goroutine. None of the
// types in this package are safe for concurrent use.
package vkres
