package vkres

import (
	"fmt"

	"github.com/gogpu/gputypes"
	vk "github.com/vulkan-go/vulkan"
)

// PixelType is the layout of client pixel data handed to the staging
// functions.
type PixelType uint8

// Client pixel layouts.
const (
	PixelTypeRGBA8 PixelType = iota + 1
	PixelTypeRGB8
	PixelTypeBGRA8
	PixelTypeLuminance8
	PixelTypeLuminanceAlpha8
	PixelTypeRed8
)

var pixelTypeInfo = map[PixelType]struct {
	name  string
	bytes uint32
}{
	PixelTypeRGBA8:           {"RGBA8", 4},
	PixelTypeRGB8:            {"RGB8", 3},
	PixelTypeBGRA8:           {"BGRA8", 4},
	PixelTypeLuminance8:      {"L8", 1},
	PixelTypeLuminanceAlpha8: {"LA8", 2},
	PixelTypeRed8:            {"R8", 1},
}

// PixelBytes returns the size of one client pixel, or 0 for an unknown type.
func (t PixelType) PixelBytes() uint32 { return pixelTypeInfo[t].bytes }

// String returns the type name.
func (t PixelType) String() string {
	if info, ok := pixelTypeInfo[t]; ok {
		return info.name
	}
	return fmt.Sprintf("PixelType(%d)", t)
}

// LoadFunction converts a width x height x depth block of client pixels in
// src into the storage layout in dst.
type LoadFunction func(width, height, depth uint32,
	src []byte, srcRowPitch, srcDepthPitch uint64,
	dst []byte, dstRowPitch, dstDepthPitch uint64)

// LoadFunctionInfo pairs a load function with whether it changes the pixel
// layout. Loads that do not convert can be skipped by readers that write
// storage layout directly.
type LoadFunctionInfo struct {
	Load               LoadFunction
	RequiresConversion bool
}

// Format describes a native image format.
type Format struct {
	VkFormat   vk.Format
	PixelBytes uint32
	Aspect     vk.ImageAspectFlags

	// TextureFormat is the portable equivalent, or TextureFormatUndefined.
	TextureFormat gputypes.TextureFormat

	// Blittable reports whether mip levels can be generated with a linear
	// blit.
	Blittable bool

	loads map[PixelType]LoadFunctionInfo
}

// LoadFunction returns the function loading client pixels of type t.
func (f *Format) LoadFunction(t PixelType) (LoadFunctionInfo, error) {
	info, ok := f.loads[t]
	if !ok {
		return LoadFunctionInfo{}, fmt.Errorf("%w: loading %v into format %d", ErrUnsupported, t, f.VkFormat)
	}
	return info, nil
}

const (
	colorAspect   = vk.ImageAspectFlags(vk.ImageAspectColorBit)
	depthAspect   = vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	stencilAspect = vk.ImageAspectFlags(vk.ImageAspectStencilBit)
)

var formats = map[vk.Format]*Format{
	vk.FormatR8g8b8a8Unorm: {
		VkFormat:      vk.FormatR8g8b8a8Unorm,
		PixelBytes:    4,
		Aspect:        colorAspect,
		TextureFormat: gputypes.TextureFormatRGBA8Unorm,
		Blittable:     true,
		loads: map[PixelType]LoadFunctionInfo{
			PixelTypeRGBA8:           {Load: loadCopy(4)},
			PixelTypeRGB8:            {Load: loadConvert(3, 4, rgbToRGBA), RequiresConversion: true},
			PixelTypeBGRA8:           {Load: loadConvert(4, 4, swapRedBlue), RequiresConversion: true},
			PixelTypeLuminance8:      {Load: loadConvert(1, 4, luminanceToRGBA), RequiresConversion: true},
			PixelTypeLuminanceAlpha8: {Load: loadConvert(2, 4, luminanceAlphaToRGBA), RequiresConversion: true},
		},
	},
	vk.FormatB8g8r8a8Unorm: {
		VkFormat:      vk.FormatB8g8r8a8Unorm,
		PixelBytes:    4,
		Aspect:        colorAspect,
		TextureFormat: gputypes.TextureFormatBGRA8Unorm,
		Blittable:     true,
		loads: map[PixelType]LoadFunctionInfo{
			PixelTypeBGRA8: {Load: loadCopy(4)},
			PixelTypeRGBA8: {Load: loadConvert(4, 4, swapRedBlue), RequiresConversion: true},
		},
	},
	vk.FormatR8Unorm: {
		VkFormat:      vk.FormatR8Unorm,
		PixelBytes:    1,
		Aspect:        colorAspect,
		TextureFormat: gputypes.TextureFormatR8Unorm,
		Blittable:     true,
		loads: map[PixelType]LoadFunctionInfo{
			PixelTypeRed8:       {Load: loadCopy(1)},
			PixelTypeLuminance8: {Load: loadCopy(1)},
		},
	},
	vk.FormatR8g8Unorm: {
		VkFormat:      vk.FormatR8g8Unorm,
		PixelBytes:    2,
		Aspect:        colorAspect,
		TextureFormat: gputypes.TextureFormatUndefined,
		Blittable:     true,
		loads: map[PixelType]LoadFunctionInfo{
			PixelTypeLuminanceAlpha8: {Load: loadCopy(2)},
		},
	},
	vk.FormatD24UnormS8Uint: {
		VkFormat:      vk.FormatD24UnormS8Uint,
		PixelBytes:    4,
		Aspect:        depthAspect | stencilAspect,
		TextureFormat: gputypes.TextureFormatDepth24PlusStencil8,
	},
	vk.FormatD16Unorm: {
		VkFormat:      vk.FormatD16Unorm,
		PixelBytes:    2,
		Aspect:        depthAspect,
		TextureFormat: gputypes.TextureFormatUndefined,
	},
}

// LookupFormat returns the description of f.
func LookupFormat(f vk.Format) (*Format, error) {
	if desc, ok := formats[f]; ok {
		return desc, nil
	}
	return nil, fmt.Errorf("%w: format %d", ErrUnsupported, f)
}

// MustLookupFormat is LookupFormat for formats known to be supported.
func MustLookupFormat(f vk.Format) *Format {
	desc, err := LookupFormat(f)
	if err != nil {
		panic(err)
	}
	return desc
}

func loadCopy(pixelBytes uint64) LoadFunction {
	return func(width, height, depth uint32, src []byte, srcRowPitch, srcDepthPitch uint64, dst []byte, dstRowPitch, dstDepthPitch uint64) {
		rowBytes := uint64(width) * pixelBytes
		for z := uint64(0); z < uint64(depth); z++ {
			for y := uint64(0); y < uint64(height); y++ {
				s := z*srcDepthPitch + y*srcRowPitch
				d := z*dstDepthPitch + y*dstRowPitch
				copy(dst[d:d+rowBytes], src[s:s+rowBytes])
			}
		}
	}
}

func loadConvert(srcBytes, dstBytes uint64, convert func(dst, src []byte)) LoadFunction {
	return func(width, height, depth uint32, src []byte, srcRowPitch, srcDepthPitch uint64, dst []byte, dstRowPitch, dstDepthPitch uint64) {
		for z := uint64(0); z < uint64(depth); z++ {
			for y := uint64(0); y < uint64(height); y++ {
				s := z*srcDepthPitch + y*srcRowPitch
				d := z*dstDepthPitch + y*dstRowPitch
				for x := uint64(0); x < uint64(width); x++ {
					convert(dst[d+x*dstBytes:d+(x+1)*dstBytes], src[s+x*srcBytes:s+(x+1)*srcBytes])
				}
			}
		}
	}
}

func rgbToRGBA(dst, src []byte) {
	dst[0], dst[1], dst[2], dst[3] = src[0], src[1], src[2], 0xff
}

func swapRedBlue(dst, src []byte) {
	dst[0], dst[1], dst[2], dst[3] = src[2], src[1], src[0], src[3]
}

func luminanceToRGBA(dst, src []byte) {
	dst[0], dst[1], dst[2], dst[3] = src[0], src[0], src[0], 0xff
}

func luminanceAlphaToRGBA(dst, src []byte) {
	dst[0], dst[1], dst[2], dst[3] = src[0], src[0], src[0], src[1]
}

// PixelUnpackState describes how client pixel data is laid out in memory.
// The zero value is tightly packed rows with no skipped pixels.
type PixelUnpackState struct {
	// Alignment is the row alignment in bytes. Zero means 1.
	Alignment uint32
	// RowLength is the row length in pixels. Zero means the image width.
	RowLength uint32
	// ImageHeight is the number of rows per image. Zero means the height.
	ImageHeight uint32
	SkipPixels  uint32
	SkipRows    uint32
}

// ComputeRowPitch returns the bytes between the starts of two rows.
func (u PixelUnpackState) ComputeRowPitch(pixelBytes, width uint32) (uint64, error) {
	rowLength := u.RowLength
	if rowLength == 0 {
		rowLength = width
	}
	rowBytes, err := checkedMul(uint64(pixelBytes), uint64(rowLength))
	if err != nil {
		return 0, err
	}
	return roundUp(rowBytes, uint64(max(u.Alignment, 1)))
}

// ComputeDepthPitch returns the bytes between the starts of two images.
func (u PixelUnpackState) ComputeDepthPitch(height uint32, rowPitch uint64) (uint64, error) {
	rows := u.ImageHeight
	if rows == 0 {
		rows = height
	}
	return checkedMul(uint64(rows), rowPitch)
}

// ComputeSkipBytes returns the offset of the first pixel to read.
func (u PixelUnpackState) ComputeSkipBytes(pixelBytes uint32, rowPitch uint64) (uint64, error) {
	rows, err := checkedMul(uint64(u.SkipRows), rowPitch)
	if err != nil {
		return 0, err
	}
	return checkedAdd(rows, uint64(u.SkipPixels)*uint64(pixelBytes))
}
