package vkres

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"

	vk "github.com/vulkan-go/vulkan"

	"github.com/gogpu/vkres/native"
)

// GenerateMipmapsWithBlit fills levels 1..maxLevel of every layer by
// blitting each level from the one above it with a linear filter. Level 0
// must hold the source image. On return every level is in TransferSrc.
func (h *ImageHelper) GenerateMipmapsWithBlit(rec native.Recorder, maxLevel uint32) error {
	h.mustBeValid()
	if maxLevel >= h.levelCount {
		return fmt.Errorf("%w: max level %d of an image with %d levels", ErrInvalidArgument, maxLevel, h.levelCount)
	}
	if !h.format.Blittable {
		return fmt.Errorf("%w: blit mipmaps for format %d", ErrUnsupported, h.format.VkFormat)
	}

	h.ChangeLayout(colorAspect, ImageLayoutTransferDst, rec)

	// Levels below the one being read stay in TransferDst until written.
	barrier := native.ImageBarrier{
		SrcAccessMask: transferWriteAccess,
		DstAccessMask: transferReadAccess,
		OldLayout:     h.currentLayout.Native(),
		NewLayout:     vk.ImageLayoutTransferSrcOptimal,
		Image:         h.image,
		Range: native.SubresourceRange{
			AspectMask:     colorAspect,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     h.layerCount,
		},
	}

	width, height := int32(h.extents.Width), int32(h.extents.Height)
	for level := uint32(1); level <= maxLevel; level++ {
		nextWidth, nextHeight := max(width>>1, 1), max(height>>1, 1)

		barrier.Range.BaseMipLevel = level - 1
		rec.PipelineBarrier(transferStage, transferStage, nil, []native.ImageBarrier{barrier})

		rec.BlitImage(h.image, vk.ImageLayoutTransferSrcOptimal, h.image, vk.ImageLayoutTransferDstOptimal,
			[]native.ImageBlit{{
				SrcSubresource: native.SubresourceLayers{
					AspectMask: colorAspect,
					MipLevel:   level - 1,
					LayerCount: h.layerCount,
				},
				SrcOffsets: [2]native.Offset3D{{}, {X: width, Y: height, Z: 1}},
				DstSubresource: native.SubresourceLayers{
					AspectMask: colorAspect,
					MipLevel:   level,
					LayerCount: h.layerCount,
				},
				DstOffsets: [2]native.Offset3D{{}, {X: nextWidth, Y: nextHeight, Z: 1}},
			}}, vk.FilterLinear)

		width, height = nextWidth, nextHeight
	}

	barrier.Range.BaseMipLevel = maxLevel
	barrier.OldLayout = vk.ImageLayoutTransferDstOptimal
	rec.PipelineBarrier(transferStage, transferStage, nil, []native.ImageBarrier{barrier})

	h.currentLayout = ImageLayoutTransferSrc
	h.stamp()
	return nil
}

// GenerateMipmapsOnHost downscales level0 on the CPU and stages levels
// 1..maxLevel of the layer at index. It serves formats that cannot be
// blitted. The updates are applied by the next FlushStagedUpdates.
func (h *ImageHelper) GenerateMipmapsOnHost(r native.Renderer, level0 *image.RGBA, index ImageIndex, maxLevel uint32) error {
	if h.format == nil {
		return fmt.Errorf("%w: image without a format", ErrInvalidArgument)
	}
	prev := level0
	for level := uint32(1); level <= maxLevel; level++ {
		b := prev.Bounds()
		w, hgt := max(b.Dx()>>1, 1), max(b.Dy()>>1, 1)
		next := image.NewRGBA(image.Rect(0, 0, w, hgt))
		xdraw.BiLinear.Scale(next, next.Bounds(), prev, b, xdraw.Src, nil)

		if err := h.StageSubresourceUpdate(r,
			ImageIndex{Level: level, Layer: index.Layer, LayerCount: 1},
			native.Extent3D{Width: uint32(w), Height: uint32(hgt), Depth: 1},
			native.Offset3D{},
			h.format,
			PixelData{Type: PixelTypeRGBA8, Pixels: next.Pix},
		); err != nil {
			return fmt.Errorf("vkres: stage mip level %d: %w", level, err)
		}
		prev = next
	}
	return nil
}
