package vulkan

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/gogpu/vkres/native"
)

func vkExtent(e native.Extent3D) vk.Extent3D {
	return vk.Extent3D{Width: e.Width, Height: e.Height, Depth: e.Depth}
}

func vkOffset(o native.Offset3D) vk.Offset3D {
	return vk.Offset3D{X: o.X, Y: o.Y, Z: o.Z}
}

func vkRange(r native.SubresourceRange) vk.ImageSubresourceRange {
	return vk.ImageSubresourceRange{
		AspectMask:     r.AspectMask,
		BaseMipLevel:   r.BaseMipLevel,
		LevelCount:     r.LevelCount,
		BaseArrayLayer: r.BaseArrayLayer,
		LayerCount:     r.LayerCount,
	}
}

func vkRanges(rs []native.SubresourceRange) []vk.ImageSubresourceRange {
	out := make([]vk.ImageSubresourceRange, len(rs))
	for i, r := range rs {
		out[i] = vkRange(r)
	}
	return out
}

func vkLayers(l native.SubresourceLayers) vk.ImageSubresourceLayers {
	return vk.ImageSubresourceLayers{
		AspectMask:     l.AspectMask,
		MipLevel:       l.MipLevel,
		BaseArrayLayer: l.BaseArrayLayer,
		LayerCount:     l.LayerCount,
	}
}

func vkBufferCopies(regions []native.BufferCopy) []vk.BufferCopy {
	out := make([]vk.BufferCopy, len(regions))
	for i, r := range regions {
		out[i] = vk.BufferCopy{SrcOffset: r.SrcOffset, DstOffset: r.DstOffset, Size: r.Size}
	}
	return out
}

func vkBufferImageCopies(regions []native.BufferImageCopy) []vk.BufferImageCopy {
	out := make([]vk.BufferImageCopy, len(regions))
	for i, r := range regions {
		out[i] = vk.BufferImageCopy{
			BufferOffset:      r.BufferOffset,
			BufferRowLength:   r.BufferRowLength,
			BufferImageHeight: r.BufferImageHeight,
			ImageSubresource:  vkLayers(r.ImageSubresource),
			ImageOffset:       vkOffset(r.ImageOffset),
			ImageExtent:       vkExtent(r.ImageExtent),
		}
	}
	return out
}

func vkImageCopies(regions []native.ImageCopy) []vk.ImageCopy {
	out := make([]vk.ImageCopy, len(regions))
	for i, r := range regions {
		out[i] = vk.ImageCopy{
			SrcSubresource: vkLayers(r.SrcSubresource),
			SrcOffset:      vkOffset(r.SrcOffset),
			DstSubresource: vkLayers(r.DstSubresource),
			DstOffset:      vkOffset(r.DstOffset),
			Extent:         vkExtent(r.Extent),
		}
	}
	return out
}

func vkImageBlits(regions []native.ImageBlit) []vk.ImageBlit {
	out := make([]vk.ImageBlit, len(regions))
	for i, r := range regions {
		out[i] = vk.ImageBlit{
			SrcSubresource: vkLayers(r.SrcSubresource),
			SrcOffsets:     [2]vk.Offset3D{vkOffset(r.SrcOffsets[0]), vkOffset(r.SrcOffsets[1])},
			DstSubresource: vkLayers(r.DstSubresource),
			DstOffsets:     [2]vk.Offset3D{vkOffset(r.DstOffsets[0]), vkOffset(r.DstOffsets[1])},
		}
	}
	return out
}

func vkMemoryBarriers(bs []native.MemoryBarrier) []vk.MemoryBarrier {
	out := make([]vk.MemoryBarrier, len(bs))
	for i, b := range bs {
		out[i] = vk.MemoryBarrier{
			SType:         vk.StructureTypeMemoryBarrier,
			SrcAccessMask: b.SrcAccessMask,
			DstAccessMask: b.DstAccessMask,
		}
	}
	return out
}

func vkComponents(c native.ComponentMapping) vk.ComponentMapping {
	return vk.ComponentMapping{R: c.R, G: c.G, B: c.B, A: c.A}
}

func vkPoolSizes(sizes []native.DescriptorPoolSize) []vk.DescriptorPoolSize {
	out := make([]vk.DescriptorPoolSize, len(sizes))
	for i, s := range sizes {
		out[i] = vk.DescriptorPoolSize{Type: s.Type, DescriptorCount: s.Count}
	}
	return out
}

// cString returns s terminated by a NUL byte as the C API expects.
func cString(s string) string {
	if len(s) > 0 && s[len(s)-1] == 0 {
		return s
	}
	return s + "\x00"
}
