// Package backend provides a registry of vkres renderers.
//
// A backend pairs a native.Renderer with command recording, so tools can
// drive vkres helpers without knowing which device is underneath.
//
// # Backend Registration
//
// The in-memory "nativetest" backend is registered on import. The Vulkan
// backend needs an application-created device and is registered with
// Register and NewVulkanRenderer.
//
// # Backend Selection
//
// Use Default() to get the best available backend, or Get() to request
// a specific backend by name:
//
//	r, err := backend.Default()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer r.Close()
//
//	rec, err := r.Recorder()
//	...
//	err = r.Flush()
//
// # Available Backends
//
// - "vulkan": a Vulkan device through github.com/vulkan-go/vulkan
// - "nativetest": an in-memory device that records a command trace
package backend
