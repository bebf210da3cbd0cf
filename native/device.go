package native

import vk "github.com/vulkan-go/vulkan"

// Device creates and destroys native objects.
//
// Every Create/Allocate method returns a non-null handle or an error.
// Destroy methods accept the null handle and do nothing for it.
// Methods are called from the single recording goroutine.
type Device interface {
	CreateBuffer(info BufferCreateInfo) (Buffer, error)
	DestroyBuffer(b Buffer)

	CreateBufferView(info BufferViewCreateInfo) (BufferView, error)
	DestroyBufferView(v BufferView)

	CreateImage(info ImageCreateInfo) (Image, error)
	DestroyImage(img Image)

	CreateImageView(info ImageViewCreateInfo) (ImageView, error)
	DestroyImageView(v ImageView)

	// AllocateBufferMemory allocates memory satisfying the buffer's
	// requirements with at least the requested property flags and binds
	// it to the buffer. It returns the flags of the memory type chosen.
	AllocateBufferMemory(b Buffer, props vk.MemoryPropertyFlags) (DeviceMemory, vk.MemoryPropertyFlags, error)

	// AllocateImageMemory is AllocateBufferMemory for images.
	AllocateImageMemory(img Image, props vk.MemoryPropertyFlags) (DeviceMemory, vk.MemoryPropertyFlags, error)

	FreeMemory(mem DeviceMemory)

	// MapMemory maps size bytes at offset. The returned slice aliases the
	// mapping and is valid until UnmapMemory.
	MapMemory(mem DeviceMemory, offset, size vk.DeviceSize) ([]byte, error)
	UnmapMemory(mem DeviceMemory)
	FlushMappedMemory(mem DeviceMemory, offset, size vk.DeviceSize) error
	InvalidateMappedMemory(mem DeviceMemory, offset, size vk.DeviceSize) error

	CreateDescriptorPool(maxSets uint32, sizes []DescriptorPoolSize) (DescriptorPool, error)
	DestroyDescriptorPool(p DescriptorPool)
	AllocateDescriptorSets(p DescriptorPool, layouts []DescriptorSetLayout) ([]DescriptorSet, error)

	CreateQueryPool(queryType vk.QueryType, count uint32) (QueryPool, error)
	DestroyQueryPool(p QueryPool)

	CreateSemaphore() (Semaphore, error)
	DestroySemaphore(s Semaphore)

	CreateFramebuffer(info FramebufferCreateInfo) (Framebuffer, error)
	DestroyFramebuffer(fb Framebuffer)

	// CreateShaderModule creates a module from SPIR-V words.
	CreateShaderModule(code []uint32) (ShaderModule, error)
	DestroyShaderModule(m ShaderModule)

	CreateComputePipeline(info ComputePipelineCreateInfo) (Pipeline, error)
	DestroyPipeline(p Pipeline)
}

// Destroy destroys obj immediately using the matching Device method.
func Destroy(d Device, obj Object) {
	switch obj.Type {
	case ObjectBuffer:
		d.DestroyBuffer(Buffer(obj.Handle))
	case ObjectBufferView:
		d.DestroyBufferView(BufferView(obj.Handle))
	case ObjectImage:
		d.DestroyImage(Image(obj.Handle))
	case ObjectImageView:
		d.DestroyImageView(ImageView(obj.Handle))
	case ObjectDeviceMemory:
		d.FreeMemory(DeviceMemory(obj.Handle))
	case ObjectDescriptorPool:
		d.DestroyDescriptorPool(DescriptorPool(obj.Handle))
	case ObjectQueryPool:
		d.DestroyQueryPool(QueryPool(obj.Handle))
	case ObjectSemaphore:
		d.DestroySemaphore(Semaphore(obj.Handle))
	case ObjectFramebuffer:
		d.DestroyFramebuffer(Framebuffer(obj.Handle))
	case ObjectShaderModule:
		d.DestroyShaderModule(ShaderModule(obj.Handle))
	case ObjectPipeline:
		d.DestroyPipeline(Pipeline(obj.Handle))
	default:
		panic("native: destroy of " + obj.String())
	}
}
