package vulkan

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"

	"github.com/gogpu/vkres/native"
)

func TestConvertBufferImageCopy(t *testing.T) {
	in := []native.BufferImageCopy{{
		BufferOffset:      256,
		BufferRowLength:   64,
		BufferImageHeight: 32,
		ImageSubresource: native.SubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:   2,
			LayerCount: 1,
		},
		ImageOffset: native.Offset3D{X: 4, Y: 8},
		ImageExtent: native.Extent3D{Width: 16, Height: 16, Depth: 1},
	}}
	out := vkBufferImageCopies(in)
	if len(out) != 1 {
		t.Fatalf("len = %d", len(out))
	}
	got := out[0]
	if got.BufferOffset != 256 || got.BufferRowLength != 64 || got.BufferImageHeight != 32 {
		t.Errorf("buffer layout = %d/%d/%d", got.BufferOffset, got.BufferRowLength, got.BufferImageHeight)
	}
	if got.ImageSubresource.MipLevel != 2 || got.ImageSubresource.LayerCount != 1 {
		t.Errorf("subresource = %+v", got.ImageSubresource)
	}
	if got.ImageOffset.X != 4 || got.ImageOffset.Y != 8 {
		t.Errorf("offset = %+v", got.ImageOffset)
	}
	if got.ImageExtent.Width != 16 || got.ImageExtent.Depth != 1 {
		t.Errorf("extent = %+v", got.ImageExtent)
	}
}

func TestConvertImageBlit(t *testing.T) {
	in := []native.ImageBlit{{
		SrcSubresource: native.SubresourceLayers{MipLevel: 0, LayerCount: 1},
		SrcOffsets:     [2]native.Offset3D{{}, {X: 8, Y: 4, Z: 1}},
		DstSubresource: native.SubresourceLayers{MipLevel: 1, LayerCount: 1},
		DstOffsets:     [2]native.Offset3D{{}, {X: 4, Y: 2, Z: 1}},
	}}
	got := vkImageBlits(in)[0]
	if got.SrcOffsets[1].X != 8 || got.DstOffsets[1].X != 4 || got.DstOffsets[1].Y != 2 {
		t.Errorf("offsets = %+v -> %+v", got.SrcOffsets, got.DstOffsets)
	}
	if got.DstSubresource.MipLevel != 1 {
		t.Errorf("dst level = %d", got.DstSubresource.MipLevel)
	}
}

func TestConvertPoolSizes(t *testing.T) {
	in := []native.DescriptorPoolSize{
		{Type: vk.DescriptorTypeUniformBuffer, Count: 4},
		{Type: vk.DescriptorTypeCombinedImageSampler, Count: 8},
	}
	out := vkPoolSizes(in)
	for i := range in {
		if out[i].Type != in[i].Type || out[i].DescriptorCount != in[i].Count {
			t.Errorf("size %d = %+v; want %+v", i, out[i], in[i])
		}
	}
}

func TestConvertRanges(t *testing.T) {
	out := vkRanges([]native.SubresourceRange{
		{BaseMipLevel: 1, LevelCount: 3, BaseArrayLayer: 2, LayerCount: 4},
	})
	if out[0].BaseMipLevel != 1 || out[0].LevelCount != 3 || out[0].BaseArrayLayer != 2 || out[0].LayerCount != 4 {
		t.Errorf("range = %+v", out[0])
	}
	if len(vkRanges(nil)) != 0 {
		t.Error("nil ranges converted to non-empty slice")
	}
}
