package vkres

import vk "github.com/vulkan-go/vulkan"

// DescriptorPoolOption configures a DynamicDescriptorPool during Init.
//
// Example:
//
//	var pool vkres.DynamicDescriptorPool
//	err := pool.Init(r, sizes, vkres.WithMaxSetsPerPool(16))
type DescriptorPoolOption func(*descriptorPoolOptions)

type descriptorPoolOptions struct {
	maxSetsPerPool uint32
}

func defaultDescriptorPoolOptions() descriptorPoolOptions {
	return descriptorPoolOptions{maxSetsPerPool: DefaultMaxSetsPerPool}
}

// WithMaxSetsPerPool sets how many descriptor sets each native pool holds.
// Zero keeps the default of 128.
func WithMaxSetsPerPool(n uint32) DescriptorPoolOption {
	return func(o *descriptorPoolOptions) {
		if n > 0 {
			o.maxSetsPerPool = n
		}
	}
}

// ImageOption configures an ImageHelper on construction.
type ImageOption func(*imageOptions)

type imageOptions struct {
	stagingBufferSize vk.DeviceSize
}

func defaultImageOptions() imageOptions {
	return imageOptions{stagingBufferSize: stagingBufferSize}
}

// WithStagingBufferSize sets the minimum size of the buffers backing staged
// image updates. Zero keeps the default of 16 KiB.
func WithStagingBufferSize(size vk.DeviceSize) ImageOption {
	return func(o *imageOptions) {
		if size > 0 {
			o.stagingBufferSize = size
		}
	}
}

// LineLoopOption configures a LineLoopHelper on construction.
type LineLoopOption func(*lineLoopOptions)

type lineLoopOptions struct {
	bufferSize vk.DeviceSize
}

func defaultLineLoopOptions() lineLoopOptions {
	return lineLoopOptions{bufferSize: lineLoopBufferMinSize}
}

// WithLineLoopBufferSize sets the minimum size of the line loop index
// buffers. Zero keeps the default of 1 MiB.
func WithLineLoopBufferSize(size vk.DeviceSize) LineLoopOption {
	return func(o *lineLoopOptions) {
		if size > 0 {
			o.bufferSize = size
		}
	}
}
