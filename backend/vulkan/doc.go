// Package vulkan implements the vkres native interfaces on a Vulkan device
// through github.com/vulkan-go/vulkan.
//
// Device wraps a logical device and hands out opaque uint64 handles that
// map to Vulkan objects. Recorder records into a command buffer. Renderer
// tracks submitted batches with fences and destroys released objects once
// their batch has completed.
//
// Objects created outside vkres, such as swapchain images, render passes
// and layouts, are registered with the Import methods before use:
//
//	dev, err := vulkan.NewDevice(physicalDevice, device)
//	if err != nil {
//		return err
//	}
//	r := vulkan.NewRenderer(dev, queue)
//	defer r.Destroy()
//
//	rec, err := r.Begin(commandBuffer)
//	...
//	err = r.Submit(rec)
package vulkan
