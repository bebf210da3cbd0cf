// Package native defines the collaborators vkres records into and allocates
// from: the native [Device], the command [Recorder] and the [Renderer] that
// owns the serial clock and the deferred-destruction sink.
//
// # Handles
//
// Native objects are referred to by opaque uint64 handles ([Buffer], [Image],
// [DeviceMemory] and so on). Each Device implementation maintains the mapping
// between handles and its backend objects. Zero is never a valid handle.
//
// # Enumerations
//
// Layouts, pipeline stages, access masks, formats and usage flags use the
// Vulkan types from github.com/vulkan-go/vulkan so that the barrier table in
// vkres maps one to one onto vkCmdPipelineBarrier arguments.
//
// # Deferred destruction
//
// Objects retired by vkres are never destroyed synchronously. They are handed
// to [Renderer.ReleaseObject] together with the serial of the last batch that
// may reference them. [Garbage] is a ready-made sink that destroys objects once
// their serial completes.
package native
