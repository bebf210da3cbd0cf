package hal

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	vk "github.com/vulkan-go/vulkan"

	"github.com/gogpu/vkres/native"
)

// TextureUsage returns the texture usage a Vulkan image layout stands for.
// Layouts with no hal equivalent map to the zero usage.
func TextureUsage(layout vk.ImageLayout) gputypes.TextureUsage {
	switch layout {
	case vk.ImageLayoutTransferSrcOptimal:
		return gputypes.TextureUsageCopySrc
	case vk.ImageLayoutTransferDstOptimal:
		return gputypes.TextureUsageCopyDst
	case vk.ImageLayoutShaderReadOnlyOptimal, vk.ImageLayoutDepthStencilReadOnlyOptimal:
		return gputypes.TextureUsageTextureBinding
	case vk.ImageLayoutGeneral:
		return gputypes.TextureUsageStorageBinding
	case vk.ImageLayoutColorAttachmentOptimal, vk.ImageLayoutDepthStencilAttachmentOptimal, vk.ImageLayoutPresentSrc:
		return gputypes.TextureUsageRenderAttachment
	default:
		return 0
	}
}

var bufferUsages = []struct {
	flag  vk.BufferUsageFlagBits
	usage gputypes.BufferUsage
}{
	{vk.BufferUsageTransferSrcBit, gputypes.BufferUsageCopySrc},
	{vk.BufferUsageTransferDstBit, gputypes.BufferUsageCopyDst},
	{vk.BufferUsageUniformBufferBit, gputypes.BufferUsageUniform},
	{vk.BufferUsageStorageBufferBit, gputypes.BufferUsageStorage},
	{vk.BufferUsageIndexBufferBit, gputypes.BufferUsageIndex},
	{vk.BufferUsageVertexBufferBit, gputypes.BufferUsageVertex},
	{vk.BufferUsageIndirectBufferBit, gputypes.BufferUsageIndirect},
}

// BufferUsage converts Vulkan buffer usage flags. Texel buffer usages have
// no hal equivalent and are dropped.
func BufferUsage(flags vk.BufferUsageFlags) gputypes.BufferUsage {
	var u gputypes.BufferUsage
	for _, m := range bufferUsages {
		if flags&vk.BufferUsageFlags(m.flag) != 0 {
			u |= m.usage
		}
	}
	return u
}

// BufferDescriptor returns the hal descriptor for a vkres buffer.
// Host-visible buffers also get MapWrite usage.
func BufferDescriptor(label string, info native.BufferCreateInfo, props vk.MemoryPropertyFlags) *hal.BufferDescriptor {
	usage := BufferUsage(info.Usage)
	if props&vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit) != 0 {
		usage |= gputypes.BufferUsageMapWrite
	}
	return &hal.BufferDescriptor{
		Label: label,
		Size:  uint64(info.Size),
		Usage: usage,
	}
}
