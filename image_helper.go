package vkres

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"

	"github.com/gogpu/vkres/native"
	"github.com/gogpu/vkres/serial"
)

// cubeFaceCount is the number of layers of a cube map.
const cubeFaceCount = 6

// TextureType is the kind of texture an image backs.
type TextureType uint8

// Texture types.
const (
	TextureType2D TextureType = iota
	TextureType2DArray
	TextureType3D
	TextureTypeCube
	TextureTypeExternal
	TextureTypeRectangle
)

func (t TextureType) imageType() vk.ImageType {
	if t == TextureType3D {
		return vk.ImageType3d
	}
	return vk.ImageType2d
}

func (t TextureType) viewType() vk.ImageViewType {
	switch t {
	case TextureType2DArray:
		return vk.ImageViewType2dArray
	case TextureType3D:
		return vk.ImageViewType3d
	case TextureTypeCube:
		return vk.ImageViewTypeCube
	default:
		return vk.ImageViewType2d
	}
}

func (t TextureType) createFlags() vk.ImageCreateFlags {
	if t == TextureTypeCube {
		return vk.ImageCreateFlags(vk.ImageCreateCubeCompatibleBit)
	}
	return 0
}

// checkLayerCount validates layerCount against the layers t allows.
func (t TextureType) checkLayerCount(layerCount uint32) error {
	switch t {
	case TextureType3D, TextureTypeExternal, TextureTypeRectangle:
		if layerCount != 1 {
			return fmt.Errorf("%w: texture type %d needs 1 layer, got %d", ErrInvalidArgument, t, layerCount)
		}
	case TextureTypeCube:
		if layerCount != cubeFaceCount {
			return fmt.Errorf("%w: cube map needs %d layers, got %d", ErrInvalidArgument, cubeFaceCount, layerCount)
		}
	}
	return nil
}

// ImageIndex addresses a mip level and a range of array layers.
type ImageIndex struct {
	Level uint32
	Layer uint32
	// LayerCount is the number of layers. Zero means 1.
	LayerCount uint32
}

func (i ImageIndex) layerCount() uint32 { return max(i.LayerCount, 1) }

// ImageCreateInfo describes an image created by ImageHelper.Init.
type ImageCreateInfo struct {
	Type       TextureType
	Extents    native.Extent3D
	Format     *Format
	Samples    uint32
	Usage      vk.ImageUsageFlags
	MipLevels  uint32
	LayerCount uint32
}

// ImageHelper owns a native image, its memory, its current layout and a
// queue of writes staged for it.
//
// Every operation that needs the image in a particular layout goes through
// ChangeLayout, which records at most one barrier.
type ImageHelper struct {
	serial.Use

	renderer native.Renderer
	image    native.Image
	memory   native.DeviceMemory
	weak     bool

	extents       native.Extent3D
	format        *Format
	samples       uint32
	currentLayout ImageLayout
	layerCount    uint32
	levelCount    uint32

	opts    imageOptions
	staging *DynamicBuffer
	updates []subresourceUpdate
	scratch []byte
}

// NewImageHelper returns an empty image helper. The zero ImageHelper is
// also ready to use with default options.
func NewImageHelper(opts ...ImageOption) *ImageHelper {
	h := &ImageHelper{opts: defaultImageOptions()}
	for _, opt := range opts {
		opt(&h.opts)
	}
	return h
}

// Init creates the native image in the Undefined layout with optimal
// tiling. Memory is bound separately by InitMemory.
func (h *ImageHelper) Init(r native.Renderer, info ImageCreateInfo) error {
	if h.Valid() {
		panic("vkres: image initialized twice")
	}
	if info.Format == nil {
		return fmt.Errorf("%w: image without a format", ErrInvalidArgument)
	}
	info.LayerCount = max(info.LayerCount, 1)
	info.MipLevels = max(info.MipLevels, 1)
	if err := info.Type.checkLayerCount(info.LayerCount); err != nil {
		return err
	}
	depth := uint32(1)
	if info.Type == TextureType3D {
		depth = max(info.Extents.Depth, 1)
	}

	h.renderer = r
	h.extents = info.Extents
	h.format = info.Format
	h.samples = max(info.Samples, 1)
	h.layerCount = info.LayerCount
	h.levelCount = info.MipLevels
	h.currentLayout = ImageLayoutUndefined

	img, err := r.Device().CreateImage(native.ImageCreateInfo{
		Flags:         info.Type.createFlags(),
		Type:          info.Type.imageType(),
		Format:        info.Format.VkFormat,
		Extent:        native.Extent3D{Width: info.Extents.Width, Height: info.Extents.Height, Depth: depth},
		MipLevels:     info.MipLevels,
		ArrayLayers:   info.LayerCount,
		Samples:       vk.SampleCountFlagBits(h.samples),
		Tiling:        vk.ImageTilingOptimal,
		Usage:         info.Usage,
		InitialLayout: vk.ImageLayoutUndefined,
	})
	if err != nil {
		return fmt.Errorf("vkres: create image: %w", err)
	}
	h.image = img
	return nil
}

// InitMemory allocates and binds memory with at least props.
func (h *ImageHelper) InitMemory(r native.Renderer, props vk.MemoryPropertyFlags) error {
	mem, _, err := r.Device().AllocateImageMemory(h.image, props)
	if err != nil {
		return fmt.Errorf("vkres: allocate image memory: %w", err)
	}
	h.memory = mem
	return nil
}

// Init2DWeakReference wraps an image owned elsewhere, such as a swapchain
// image. Releasing the helper only forgets the handle.
func (h *ImageHelper) Init2DWeakReference(r native.Renderer, img native.Image, extents native.Extent3D, format *Format, samples uint32) {
	if h.Valid() {
		panic("vkres: image initialized twice")
	}
	h.renderer = r
	h.image = img
	h.weak = true
	h.extents = extents
	h.format = format
	h.samples = max(samples, 1)
	h.currentLayout = ImageLayoutUndefined
	h.layerCount = 1
	h.levelCount = 1
}

// Init2DStaging creates a single level 2D image in device-local memory.
func (h *ImageHelper) Init2DStaging(r native.Renderer, extents native.Extent3D, format *Format, usage vk.ImageUsageFlags, layerCount uint32) error {
	if err := h.Init(r, ImageCreateInfo{
		Type:       TextureType2D,
		Extents:    native.Extent3D{Width: extents.Width, Height: extents.Height, Depth: 1},
		Format:     format,
		Samples:    1,
		Usage:      usage,
		MipLevels:  1,
		LayerCount: layerCount,
	}); err != nil {
		return err
	}
	if err := h.InitMemory(r, deviceLocalBit); err != nil {
		r.Device().DestroyImage(h.image)
		h.image = native.Null
		return err
	}
	return nil
}

// InitImageView creates a view over levelCount levels from baseLevel and
// every layer. A zero swizzle is the identity mapping.
func (h *ImageHelper) InitImageView(d native.Device, t TextureType, aspect vk.ImageAspectFlags, swizzle native.ComponentMapping, baseLevel, levelCount uint32) (native.ImageView, error) {
	return h.InitLayerImageView(d, t, aspect, swizzle, baseLevel, levelCount, 0, h.layerCount)
}

// InitLayerImageView creates a view over a range of levels and layers.
func (h *ImageHelper) InitLayerImageView(d native.Device, t TextureType, aspect vk.ImageAspectFlags, swizzle native.ComponentMapping, baseLevel, levelCount, baseLayer, layerCount uint32) (native.ImageView, error) {
	view, err := d.CreateImageView(native.ImageViewCreateInfo{
		Image:      h.image,
		ViewType:   t.viewType(),
		Format:     h.format.VkFormat,
		Components: swizzle,
		Range: native.SubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   baseLevel,
			LevelCount:     levelCount,
			BaseArrayLayer: baseLayer,
			LayerCount:     layerCount,
		},
	})
	if err != nil {
		return native.Null, fmt.Errorf("vkres: create image view: %w", err)
	}
	return view, nil
}

// Valid reports whether the helper holds an image.
func (h *ImageHelper) Valid() bool { return h.image != native.Null }

// Image returns the native image.
func (h *ImageHelper) Image() native.Image { return h.image }

// Memory returns the bound memory, or the null handle.
func (h *ImageHelper) Memory() native.DeviceMemory { return h.memory }

// Extents returns the size of level 0.
func (h *ImageHelper) Extents() native.Extent3D { return h.extents }

// Format returns the image format.
func (h *ImageHelper) Format() *Format { return h.format }

// Samples returns the sample count.
func (h *ImageHelper) Samples() uint32 { return h.samples }

// LevelCount returns the number of mip levels.
func (h *ImageHelper) LevelCount() uint32 { return h.levelCount }

// LayerCount returns the number of array layers.
func (h *ImageHelper) LayerCount() uint32 { return h.layerCount }

// CurrentLayout returns the layout recorded by the last transition.
func (h *ImageHelper) CurrentLayout() ImageLayout { return h.currentLayout }

// AspectFlags returns the aspects of the image format.
func (h *ImageHelper) AspectFlags() vk.ImageAspectFlags { return h.format.Aspect }

// LevelExtents returns the size of level: each dimension of level 0 halved
// level times, never below 1.
func (h *ImageHelper) LevelExtents(level uint32) native.Extent3D {
	return native.Extent3D{
		Width:  max(h.extents.Width>>level, 1),
		Height: max(h.extents.Height>>level, 1),
		Depth:  max(h.extents.Depth, 1),
	}
}

// IsLayoutChangeNecessary reports whether moving to layout needs a
// barrier. Only re-entering the current read-only layout does not.
func (h *ImageHelper) IsLayoutChangeNecessary(layout ImageLayout) bool {
	sameReadOnly := h.currentLayout == layout && h.currentLayout.ReadOnly()
	return !sameReadOnly
}

// ChangeLayout records the barrier moving every level and layer of the
// image to layout.
func (h *ImageHelper) ChangeLayout(aspect vk.ImageAspectFlags, layout ImageLayout, rec native.Recorder) {
	if !h.IsLayoutChangeNecessary(layout) {
		return
	}
	from, to := h.currentLayout.data(), layout.data()
	rec.PipelineBarrier(from.srcStage, to.dstStage, nil, []native.ImageBarrier{{
		SrcAccessMask: from.srcAccess,
		DstAccessMask: to.dstAccess,
		OldLayout:     from.layout,
		NewLayout:     to.layout,
		Image:         h.image,
		Range: native.SubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     h.levelCount,
			BaseArrayLayer: 0,
			LayerCount:     h.layerCount,
		},
	}})
	h.currentLayout = layout
	h.stamp()
}

// ClearColor clears levelCount levels from baseLevel on every layer.
func (h *ImageHelper) ClearColor(color native.ClearColorValue, baseLevel, levelCount uint32, rec native.Recorder) {
	h.ClearColorLayer(color, baseLevel, levelCount, 0, h.layerCount, rec)
}

// ClearColorLayer clears a range of levels and layers.
func (h *ImageHelper) ClearColorLayer(color native.ClearColorValue, baseLevel, levelCount, baseLayer, layerCount uint32, rec native.Recorder) {
	h.mustBeValid()
	h.ChangeLayout(colorAspect, ImageLayoutTransferDst, rec)
	rec.ClearColorImage(h.image, h.currentLayout.Native(), color, []native.SubresourceRange{{
		AspectMask:     colorAspect,
		BaseMipLevel:   baseLevel,
		LevelCount:     levelCount,
		BaseArrayLayer: baseLayer,
		LayerCount:     layerCount,
	}})
	h.stamp()
}

// ClearDepthStencil clears the clearAspect aspects of level 0, layer 0.
// imageAspect is the aspect set used for the layout transition.
func (h *ImageHelper) ClearDepthStencil(imageAspect, clearAspect vk.ImageAspectFlags, value native.ClearDepthStencilValue, rec native.Recorder) {
	h.mustBeValid()
	h.ChangeLayout(imageAspect, ImageLayoutTransferDst, rec)
	rec.ClearDepthStencilImage(h.image, h.currentLayout.Native(), value, []native.SubresourceRange{{
		AspectMask:     clearAspect,
		BaseMipLevel:   0,
		LevelCount:     1,
		BaseArrayLayer: 0,
		LayerCount:     1,
	}})
	h.stamp()
}

// CopyImage records a copy of size texels from level 0, layer 0 of src at
// srcOffset to level 0, layer 0 of dst at dstOffset.
func CopyImage(src, dst *ImageHelper, srcOffset, dstOffset native.Offset3D, size native.Extent3D, aspect vk.ImageAspectFlags, rec native.Recorder) {
	src.mustBeValid()
	dst.mustBeValid()
	src.ChangeLayout(src.AspectFlags(), ImageLayoutTransferSrc, rec)
	dst.ChangeLayout(dst.AspectFlags(), ImageLayoutTransferDst, rec)

	layer0 := native.SubresourceLayers{AspectMask: aspect, MipLevel: 0, BaseArrayLayer: 0, LayerCount: 1}
	rec.CopyImage(src.image, src.currentLayout.Native(), dst.image, dst.currentLayout.Native(), []native.ImageCopy{{
		SrcSubresource: layer0,
		SrcOffset:      srcOffset,
		DstSubresource: layer0,
		DstOffset:      dstOffset,
		Extent:         size,
	}})
	src.stamp()
	dst.stamp()
}

// ReleaseImage hands the image and its memory to the renderer at the last
// serial the image was used.
func (h *ImageHelper) ReleaseImage(r native.Renderer) {
	if h.weak {
		h.ResetImageWeakReference()
		return
	}
	r.ReleaseObject(h.Serial(), native.ImageObject(h.image))
	r.ReleaseObject(h.Serial(), native.MemoryObject(h.memory))
	h.image = native.Null
	h.memory = native.Null
}

// ReleaseStagingBuffer drops every pending update and releases the staging
// buffers.
func (h *ImageHelper) ReleaseStagingBuffer(r native.Renderer) {
	for i := range h.updates {
		h.updates[i].release(r)
	}
	h.updates = nil
	if h.staging != nil {
		h.staging.Release(r)
	}
}

// Release releases the image, its memory and its staging state.
func (h *ImageHelper) Release(r native.Renderer) {
	h.ReleaseImage(r)
	h.ReleaseStagingBuffer(r)
}

// ResetImageWeakReference forgets a handle set by Init2DWeakReference.
func (h *ImageHelper) ResetImageWeakReference() {
	h.image = native.Null
	h.weak = false
}

// Destroy destroys the image, its memory and its staging state
// immediately. The GPU must be idle.
func (h *ImageHelper) Destroy(d native.Device) {
	if !h.weak {
		d.DestroyImage(h.image)
	}
	d.FreeMemory(h.memory)
	h.image = native.Null
	h.memory = native.Null
	h.weak = false
	for i := range h.updates {
		if src := h.updates[i].image; src != nil {
			src.Destroy(d)
		}
	}
	h.updates = nil
	if h.staging != nil {
		h.staging.Destroy(d)
	}
	h.currentLayout = ImageLayoutUndefined
	h.layerCount = 0
	h.levelCount = 0
}

func (h *ImageHelper) mustBeValid() {
	if !h.Valid() {
		panic("vkres: image helper has no image")
	}
}

func (h *ImageHelper) stamp() {
	if h.renderer != nil {
		h.Update(h.renderer)
	}
}
