package native

import "fmt"

// Buffer is an opaque handle to a native buffer.
type Buffer uint64

// BufferView is an opaque handle to a typed buffer view.
type BufferView uint64

// Image is an opaque handle to a native image.
type Image uint64

// ImageView is an opaque handle to an image view.
type ImageView uint64

// DeviceMemory is an opaque handle to a device memory allocation.
type DeviceMemory uint64

// DescriptorPool is an opaque handle to a descriptor pool.
type DescriptorPool uint64

// DescriptorSet is an opaque handle to a descriptor set.
type DescriptorSet uint64

// DescriptorSetLayout is an opaque handle to a descriptor set layout.
type DescriptorSetLayout uint64

// QueryPool is an opaque handle to a query pool.
type QueryPool uint64

// Semaphore is an opaque handle to a semaphore.
type Semaphore uint64

// Framebuffer is an opaque handle to a framebuffer.
type Framebuffer uint64

// RenderPass is an opaque handle to a render pass.
type RenderPass uint64

// ShaderModule is an opaque handle to a shader module.
type ShaderModule uint64

// Pipeline is an opaque handle to a graphics or compute pipeline.
type Pipeline uint64

// PipelineLayout is an opaque handle to a pipeline layout.
type PipelineLayout uint64

// PipelineCache is an opaque handle to a pipeline cache.
type PipelineCache uint64

// Null is the invalid handle value shared by all handle types.
const Null = 0

// ObjectType tags the handle stored in an Object.
type ObjectType uint8

// Object types accepted by Renderer.ReleaseObject.
const (
	ObjectUnknown ObjectType = iota
	ObjectBuffer
	ObjectBufferView
	ObjectImage
	ObjectImageView
	ObjectDeviceMemory
	ObjectDescriptorPool
	ObjectQueryPool
	ObjectSemaphore
	ObjectFramebuffer
	ObjectShaderModule
	ObjectPipeline
)

var objectTypeNames = [...]string{
	ObjectUnknown:        "Unknown",
	ObjectBuffer:         "Buffer",
	ObjectBufferView:     "BufferView",
	ObjectImage:          "Image",
	ObjectImageView:      "ImageView",
	ObjectDeviceMemory:   "DeviceMemory",
	ObjectDescriptorPool: "DescriptorPool",
	ObjectQueryPool:      "QueryPool",
	ObjectSemaphore:      "Semaphore",
	ObjectFramebuffer:    "Framebuffer",
	ObjectShaderModule:   "ShaderModule",
	ObjectPipeline:       "Pipeline",
}

// String returns the type name.
func (t ObjectType) String() string {
	if int(t) < len(objectTypeNames) {
		return objectTypeNames[t]
	}
	return fmt.Sprintf("ObjectType(%d)", t)
}

// Object is a type-tagged native handle.
type Object struct {
	Type   ObjectType
	Handle uint64
}

// Valid reports whether the object refers to a native handle.
func (o Object) Valid() bool { return o.Type != ObjectUnknown && o.Handle != Null }

// String returns a debug representation such as "Buffer(7)".
func (o Object) String() string {
	return fmt.Sprintf("%s(%d)", o.Type, o.Handle)
}

// BufferObject tags a buffer handle.
func BufferObject(h Buffer) Object { return Object{ObjectBuffer, uint64(h)} }

// BufferViewObject tags a buffer view handle.
func BufferViewObject(h BufferView) Object { return Object{ObjectBufferView, uint64(h)} }

// ImageObject tags an image handle.
func ImageObject(h Image) Object { return Object{ObjectImage, uint64(h)} }

// ImageViewObject tags an image view handle.
func ImageViewObject(h ImageView) Object { return Object{ObjectImageView, uint64(h)} }

// MemoryObject tags a device memory handle.
func MemoryObject(h DeviceMemory) Object { return Object{ObjectDeviceMemory, uint64(h)} }

// DescriptorPoolObject tags a descriptor pool handle.
func DescriptorPoolObject(h DescriptorPool) Object { return Object{ObjectDescriptorPool, uint64(h)} }

// QueryPoolObject tags a query pool handle.
func QueryPoolObject(h QueryPool) Object { return Object{ObjectQueryPool, uint64(h)} }

// SemaphoreObject tags a semaphore handle.
func SemaphoreObject(h Semaphore) Object { return Object{ObjectSemaphore, uint64(h)} }

// FramebufferObject tags a framebuffer handle.
func FramebufferObject(h Framebuffer) Object { return Object{ObjectFramebuffer, uint64(h)} }

// ShaderModuleObject tags a shader module handle.
func ShaderModuleObject(h ShaderModule) Object { return Object{ObjectShaderModule, uint64(h)} }

// PipelineObject tags a pipeline handle.
func PipelineObject(h Pipeline) Object { return Object{ObjectPipeline, uint64(h)} }
