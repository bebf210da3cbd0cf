package native

import vk "github.com/vulkan-go/vulkan"

// Extent3D is the size of an image region in texels.
type Extent3D struct {
	Width  uint32
	Height uint32
	Depth  uint32
}

// Offset3D is the origin of an image region in texels.
type Offset3D struct {
	X int32
	Y int32
	Z int32
}

// SubresourceRange selects mip levels and array layers of an image.
type SubresourceRange struct {
	AspectMask     vk.ImageAspectFlags
	BaseMipLevel   uint32
	LevelCount     uint32
	BaseArrayLayer uint32
	LayerCount     uint32
}

// SubresourceLayers selects one mip level and a range of array layers.
type SubresourceLayers struct {
	AspectMask     vk.ImageAspectFlags
	MipLevel       uint32
	BaseArrayLayer uint32
	LayerCount     uint32
}

// BufferCreateInfo describes a buffer to create.
type BufferCreateInfo struct {
	Size  vk.DeviceSize
	Usage vk.BufferUsageFlags
}

// BufferViewCreateInfo describes a typed view over a buffer range.
type BufferViewCreateInfo struct {
	Buffer Buffer
	Format vk.Format
	Offset vk.DeviceSize
	Range  vk.DeviceSize
}

// ImageCreateInfo describes an image to create.
type ImageCreateInfo struct {
	Flags         vk.ImageCreateFlags
	Type          vk.ImageType
	Format        vk.Format
	Extent        Extent3D
	MipLevels     uint32
	ArrayLayers   uint32
	Samples       vk.SampleCountFlagBits
	Tiling        vk.ImageTiling
	Usage         vk.ImageUsageFlags
	InitialLayout vk.ImageLayout
}

// ComponentMapping is the per-channel swizzle of an image view.
type ComponentMapping struct {
	R, G, B, A vk.ComponentSwizzle
}

// ImageViewCreateInfo describes an image view to create.
type ImageViewCreateInfo struct {
	Image      Image
	ViewType   vk.ImageViewType
	Format     vk.Format
	Components ComponentMapping
	Range      SubresourceRange
}

// DescriptorPoolSize is the number of descriptors of one type in a pool.
type DescriptorPoolSize struct {
	Type  vk.DescriptorType
	Count uint32
}

// FramebufferCreateInfo describes a framebuffer to create.
type FramebufferCreateInfo struct {
	RenderPass  RenderPass
	Attachments []ImageView
	Width       uint32
	Height      uint32
	Layers      uint32
}

// ComputePipelineCreateInfo describes a compute pipeline to create.
type ComputePipelineCreateInfo struct {
	Module     ShaderModule
	EntryPoint string
	Layout     PipelineLayout
	Cache      PipelineCache
}

// MemoryBarrier is a global memory barrier.
type MemoryBarrier struct {
	SrcAccessMask vk.AccessFlags
	DstAccessMask vk.AccessFlags
}

// ImageBarrier is an image memory barrier with a layout transition.
// Queue family ownership is never transferred.
type ImageBarrier struct {
	SrcAccessMask vk.AccessFlags
	DstAccessMask vk.AccessFlags
	OldLayout     vk.ImageLayout
	NewLayout     vk.ImageLayout
	Image         Image
	Range         SubresourceRange
}

// BufferCopy is one region of a buffer to buffer copy.
type BufferCopy struct {
	SrcOffset vk.DeviceSize
	DstOffset vk.DeviceSize
	Size      vk.DeviceSize
}

// BufferImageCopy is one region of a buffer to image copy.
// A zero BufferRowLength or BufferImageHeight means tightly packed.
type BufferImageCopy struct {
	BufferOffset      vk.DeviceSize
	BufferRowLength   uint32
	BufferImageHeight uint32
	ImageSubresource  SubresourceLayers
	ImageOffset       Offset3D
	ImageExtent       Extent3D
}

// ImageCopy is one region of an image to image copy.
type ImageCopy struct {
	SrcSubresource SubresourceLayers
	SrcOffset      Offset3D
	DstSubresource SubresourceLayers
	DstOffset      Offset3D
	Extent         Extent3D
}

// ImageBlit is one region of a scaled image copy.
// Offsets hold the two opposite corners of each region.
type ImageBlit struct {
	SrcSubresource SubresourceLayers
	SrcOffsets     [2]Offset3D
	DstSubresource SubresourceLayers
	DstOffsets     [2]Offset3D
}

// ClearColorValue holds a clear color as four floats.
type ClearColorValue [4]float32

// ClearDepthStencilValue holds depth and stencil clear values.
type ClearDepthStencilValue struct {
	Depth   float32
	Stencil uint32
}
