package vkres

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"

	"github.com/gogpu/vkres/native"
)

const (
	stagingBufferUsage = vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit | vk.BufferUsageTransferDstBit)

	stagingBufferSize vk.DeviceSize = 16 * 1024

	// Buffer offsets of buffer to image copies must be multiples of 4.
	stagingBufferAlignment vk.DeviceSize = 4
)

// subresourceUpdate is a write staged for an image: a buffer region when
// image is nil, otherwise a copy from image, which the update owns.
type subresourceUpdate struct {
	buffer     native.Buffer
	bufferCopy native.BufferImageCopy

	image     *ImageHelper
	imageCopy native.ImageCopy
}

func (u *subresourceUpdate) dst() native.SubresourceLayers {
	if u.image != nil {
		return u.imageCopy.DstSubresource
	}
	return u.bufferCopy.ImageSubresource
}

func (u *subresourceUpdate) isUpdateTo(layer, level uint32) bool {
	dst := u.dst()
	return dst.BaseArrayLayer == layer && dst.MipLevel == level
}

func (u *subresourceUpdate) release(r native.Renderer) {
	if u.image != nil {
		u.image.ReleaseImage(r)
		u.image.ReleaseStagingBuffer(r)
		u.image = nil
	}
}

// Rect is a rectangle in framebuffer coordinates.
type Rect struct {
	X, Y          int32
	Width, Height int32
}

// clipRect intersects a with bounds and reports whether the result is
// non-empty.
func clipRect(a, bounds Rect) (Rect, bool) {
	x0, y0 := max(a.X, bounds.X), max(a.Y, bounds.Y)
	x1 := min(int64(a.X)+int64(a.Width), int64(bounds.X)+int64(bounds.Width))
	y1 := min(int64(a.Y)+int64(a.Height), int64(bounds.Y)+int64(bounds.Height))
	if x1 <= int64(x0) || y1 <= int64(y0) {
		return Rect{}, false
	}
	return Rect{X: x0, Y: y0, Width: int32(x1 - int64(x0)), Height: int32(y1 - int64(y0))}, true
}

// FramebufferReader reads back the color target of a framebuffer.
type FramebufferReader interface {
	// ReadExtents returns the size of the readable area.
	ReadExtents() native.Extent3D

	// ViewportFlip reports whether rendering is flipped vertically.
	ViewportFlip() bool

	// ReadPixels writes area as rows of rowPitch bytes of t into dst,
	// bottom row first when flip is set.
	ReadPixels(area Rect, t PixelType, flip bool, dst []byte, rowPitch uint64) error
}

// PixelData is client pixel data for StageSubresourceUpdate.
type PixelData struct {
	Type   PixelType
	Unpack PixelUnpackState
	Pixels []byte
}

func (h *ImageHelper) stagingBuffer(r native.Renderer) *DynamicBuffer {
	if h.staging == nil {
		size := h.opts.stagingBufferSize
		if size == 0 {
			size = stagingBufferSize
		}
		h.staging = NewDynamicBuffer(stagingBufferUsage, size, true)
	}
	if h.staging.Alignment() == 0 {
		h.staging.Init(stagingBufferAlignment, r)
	}
	return h.staging
}

// AllocateStagingMemory returns size bytes of the image's staging buffer.
func (h *ImageHelper) AllocateStagingMemory(r native.Renderer, size vk.DeviceSize) (Allocation, error) {
	return h.stagingBuffer(r).Allocate(r, size)
}

// checkIndex rejects updates outside the declared levels and layers of a
// created image. Updates staged before creation are not checked.
func (h *ImageHelper) checkIndex(index ImageIndex) error {
	if h.levelCount == 0 {
		return nil
	}
	if index.Level >= h.levelCount ||
		uint64(index.Layer)+uint64(index.layerCount()) > uint64(h.layerCount) {
		return fmt.Errorf("%w: update to level %d layers %d+%d of an image with %d levels and %d layers",
			ErrInvalidArgument, index.Level, index.Layer, index.layerCount(), h.levelCount, h.layerCount)
	}
	return nil
}

func (h *ImageHelper) appendBufferUpdate(alloc Allocation, index ImageIndex, rowLength, imageHeight uint32, offset native.Offset3D, extents native.Extent3D) {
	h.updates = append(h.updates, subresourceUpdate{
		buffer: alloc.Buffer.Buffer(),
		bufferCopy: native.BufferImageCopy{
			BufferOffset:      alloc.Offset,
			BufferRowLength:   rowLength,
			BufferImageHeight: imageHeight,
			ImageSubresource: native.SubresourceLayers{
				AspectMask:     colorAspect,
				MipLevel:       index.Level,
				BaseArrayLayer: index.Layer,
				LayerCount:     index.layerCount(),
			},
			ImageOffset: offset,
			ImageExtent: extents,
		},
	})
}

// StageSubresourceUpdate converts client pixels into format and queues
// them for the subresource at index.
func (h *ImageHelper) StageSubresourceUpdate(r native.Renderer, index ImageIndex, extents native.Extent3D, offset native.Offset3D, format *Format, data PixelData) error {
	if err := h.checkIndex(index); err != nil {
		return err
	}
	load, err := format.LoadFunction(data.Type)
	if err != nil {
		return err
	}
	srcPixelBytes := data.Type.PixelBytes()
	rowPitch, err := data.Unpack.ComputeRowPitch(srcPixelBytes, extents.Width)
	if err != nil {
		return err
	}
	depthPitch, err := data.Unpack.ComputeDepthPitch(extents.Height, rowPitch)
	if err != nil {
		return err
	}
	skip, err := data.Unpack.ComputeSkipBytes(srcPixelBytes, rowPitch)
	if err != nil {
		return err
	}

	depth := max(extents.Depth, 1)
	outRowPitch, err := checkedMul(uint64(format.PixelBytes), uint64(extents.Width))
	if err != nil {
		return err
	}
	outDepthPitch, err := checkedMul(outRowPitch, uint64(extents.Height))
	if err != nil {
		return err
	}
	size, err := checkedMul(outDepthPitch, uint64(depth))
	if err != nil {
		return err
	}
	if size > 0 {
		need := skip + uint64(depth-1)*depthPitch + uint64(extents.Height-1)*rowPitch +
			uint64(extents.Width)*uint64(srcPixelBytes)
		if uint64(len(data.Pixels)) < need {
			return fmt.Errorf("%w: %d bytes of pixels, need %d", ErrInvalidArgument, len(data.Pixels), need)
		}
	}

	alloc, err := h.AllocateStagingMemory(r, vk.DeviceSize(size))
	if err != nil {
		return err
	}
	if size > 0 {
		load.Load(extents.Width, extents.Height, depth,
			data.Pixels[skip:], rowPitch, depthPitch,
			alloc.Data, outRowPitch, outDepthPitch)
	}
	extents.Depth = depth
	h.appendBufferUpdate(alloc, index, extents.Width, extents.Height, offset, extents)
	return nil
}

// StageSubresourceUpdateAndGetData queues an update of size bytes for the
// subresource at index and returns the staging memory for the caller to
// fill before the next flush.
func (h *ImageHelper) StageSubresourceUpdateAndGetData(r native.Renderer, size vk.DeviceSize, index ImageIndex, extents native.Extent3D, offset native.Offset3D) ([]byte, error) {
	if err := h.checkIndex(index); err != nil {
		return nil, err
	}
	alloc, err := h.AllocateStagingMemory(r, size)
	if err != nil {
		return nil, err
	}
	h.appendBufferUpdate(alloc, index, extents.Width, extents.Height, offset, extents)
	return alloc.Data, nil
}

// StageSubresourceUpdateFromFramebuffer reads srcArea of fb, clipped to the
// readable area, and queues it for the subresource at index. A fully
// clipped area queues nothing.
func (h *ImageHelper) StageSubresourceUpdateFromFramebuffer(r native.Renderer, index ImageIndex, srcArea Rect, dstOffset native.Offset3D, dstExtent native.Extent3D, format *Format, pixelType PixelType, fb FramebufferReader) error {
	readExtents := fb.ReadExtents()
	clipped, ok := clipRect(srcArea, Rect{Width: int32(readExtents.Width), Height: int32(readExtents.Height)})
	if !ok {
		return nil
	}
	flip := fb.ViewportFlip()
	if flip {
		clipped.Y = int32(readExtents.Height) - clipped.Y - clipped.Height
	}
	if err := h.checkIndex(index); err != nil {
		return err
	}
	load, err := format.LoadFunction(pixelType)
	if err != nil {
		return err
	}

	width, height := uint64(clipped.Width), uint64(clipped.Height)
	outRowPitch := uint64(format.PixelBytes) * width
	alloc, err := h.AllocateStagingMemory(r, vk.DeviceSize(outRowPitch*height))
	if err != nil {
		return err
	}

	if load.RequiresConversion {
		srcRowPitch := uint64(pixelType.PixelBytes()) * width
		if need := srcRowPitch * height; uint64(cap(h.scratch)) < need {
			h.scratch = make([]byte, need)
		}
		scratch := h.scratch[:srcRowPitch*height]
		if err := fb.ReadPixels(clipped, pixelType, flip, scratch, srcRowPitch); err != nil {
			return fmt.Errorf("vkres: read framebuffer: %w", err)
		}
		load.Load(uint32(width), uint32(height), 1, scratch, srcRowPitch, 0, alloc.Data, outRowPitch, 0)
	} else if err := fb.ReadPixels(clipped, pixelType, flip, alloc.Data, outRowPitch); err != nil {
		return fmt.Errorf("vkres: read framebuffer: %w", err)
	}

	h.appendBufferUpdate(alloc, index, 0, uint32(height), dstOffset, dstExtent)
	return nil
}

// StageSubresourceUpdateFromImage queues a copy of level 0 of src into the
// subresource at index. The update takes ownership of src and releases it
// once applied or removed.
func (h *ImageHelper) StageSubresourceUpdateFromImage(src *ImageHelper, index ImageIndex, dstOffset native.Offset3D, extents native.Extent3D) error {
	if err := h.checkIndex(index); err != nil {
		return err
	}
	h.updates = append(h.updates, subresourceUpdate{
		image: src,
		imageCopy: native.ImageCopy{
			SrcSubresource: native.SubresourceLayers{
				AspectMask: colorAspect,
				LayerCount: index.layerCount(),
			},
			DstSubresource: native.SubresourceLayers{
				AspectMask:     colorAspect,
				MipLevel:       index.Level,
				BaseArrayLayer: index.Layer,
				LayerCount:     index.layerCount(),
			},
			DstOffset: dstOffset,
			Extent:    extents,
		},
	})
	return nil
}

// RemoveStagedUpdates drops, without applying, the updates addressed to
// the level and base layer of index.
func (h *ImageHelper) RemoveStagedUpdates(r native.Renderer, index ImageIndex) {
	kept := h.updates[:0]
	for i := range h.updates {
		u := h.updates[i]
		if u.isUpdateTo(index.Layer, index.Level) {
			u.release(r)
			continue
		}
		kept = append(kept, u)
	}
	clear(h.updates[len(kept):])
	h.updates = kept
}

// HasStagedUpdates reports whether updates are pending.
func (h *ImageHelper) HasStagedUpdates() bool { return len(h.updates) > 0 }

// StagedUpdateCount returns the number of pending updates.
func (h *ImageHelper) StagedUpdateCount() int { return len(h.updates) }

// FlushStagedUpdates records the pending updates whose level lies in
// [baseLevel, baseLevel+levelCount) in queue order. The image moves to
// TransferDst once, before the first applied update. Updates to other
// levels stay queued.
func (h *ImageHelper) FlushStagedUpdates(r native.Renderer, baseLevel, levelCount uint32, rec native.Recorder) error {
	if len(h.updates) == 0 {
		return nil
	}
	if h.staging != nil {
		if err := h.staging.Flush(r.Device()); err != nil {
			return err
		}
	}

	end := uint64(baseLevel) + uint64(levelCount)
	var kept []subresourceUpdate
	transitioned := false
	for i := range h.updates {
		u := &h.updates[i]
		level := u.dst().MipLevel
		if level < baseLevel || uint64(level) >= end {
			kept = append(kept, *u)
			continue
		}

		if !transitioned {
			h.ChangeLayout(colorAspect, ImageLayoutTransferDst, rec)
			transitioned = true
		}
		if u.image == nil {
			rec.CopyBufferToImage(u.buffer, h.image, h.currentLayout.Native(),
				[]native.BufferImageCopy{u.bufferCopy})
		} else {
			src := u.image
			src.ChangeLayout(colorAspect, ImageLayoutTransferSrc, rec)
			rec.CopyImage(src.image, src.currentLayout.Native(), h.image, h.currentLayout.Native(),
				[]native.ImageCopy{u.imageCopy})
			src.stamp()
		}
		u.release(r)
	}
	if transitioned {
		h.stamp()
	}
	h.updates = kept

	if len(h.updates) == 0 {
		if h.staging != nil {
			h.staging.ReleaseRetainedBuffers(r)
		}
	} else {
		Logger().Warn("vkres: staged updates left pending after flush",
			"pending", len(h.updates), "baseLevel", baseLevel, "levelCount", levelCount)
	}
	return nil
}
