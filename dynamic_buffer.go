package vkres

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"

	"github.com/gogpu/vkres/native"
)

// mockICDMaxAllocation is the largest allocation the Vulkan mock driver
// accepts.
const mockICDMaxAllocation = 0x1000

// Allocation is a range handed out by DynamicBuffer.Allocate.
type Allocation struct {
	// Buffer is the buffer holding the range.
	Buffer *BufferHelper

	// Offset is the byte offset of the range in Buffer.
	Offset vk.DeviceSize

	// Data aliases the mapped range. It is nil for device-local buffers.
	Data []byte

	// NewBufferAllocated reports that Buffer differs from the buffer of the
	// previous allocation, so references to the old buffer are stale.
	NewBufferAllocated bool
}

// DynamicBuffer is a linear allocator over a sequence of buffers. When the
// current buffer is full it is retired, not freed, because ranges handed
// out earlier may still be read by the GPU; retired buffers are released
// to the renderer by ReleaseRetainedBuffers.
type DynamicBuffer struct {
	usage       vk.BufferUsageFlags
	hostVisible bool
	minSize     vk.DeviceSize
	alignment   vk.DeviceSize

	buffer    *BufferHelper
	next      vk.DeviceSize
	lastFlush vk.DeviceSize
	size      vk.DeviceSize
	retained  []*BufferHelper
}

// NewDynamicBuffer returns an allocator creating buffers of at least
// minSize bytes with usage. Init must be called before Allocate.
func NewDynamicBuffer(usage vk.BufferUsageFlags, minSize vk.DeviceSize, hostVisible bool) *DynamicBuffer {
	return &DynamicBuffer{
		usage:       usage,
		hostVisible: hostVisible,
		minSize:     minSize,
	}
}

// Init sets the allocation alignment. It is raised to the device's
// non-coherent atom size so flushed ranges never straddle allocations.
func (b *DynamicBuffer) Init(alignment vk.DeviceSize, r native.Renderer) {
	if alignment == 0 {
		panic("vkres: zero dynamic buffer alignment")
	}
	if r.Features().MockICD {
		b.minSize = min(b.minSize, mockICDMaxAllocation)
	}
	b.alignment = max(alignment, r.Limits().NonCoherentAtomSize)
}

// Allocate returns size bytes, rounded up to the alignment, from the
// current buffer, moving to a new buffer when they do not fit.
func (b *DynamicBuffer) Allocate(r native.Renderer, size vk.DeviceSize) (Allocation, error) {
	if b.alignment == 0 {
		panic("vkres: dynamic buffer used before Init")
	}
	d := r.Device()
	rounded, err := roundUp(uint64(size), uint64(b.alignment))
	if err != nil {
		return Allocation{}, err
	}

	var alloc Allocation
	end, err := checkedAdd(uint64(b.next), rounded)
	if err != nil || end >= uint64(b.size) {
		if b.buffer != nil {
			if err := b.Flush(d); err != nil {
				return Allocation{}, err
			}
			b.buffer.Unmap(d)
			b.retained = append(b.retained, b.buffer)
			b.buffer = nil
		}

		b.size = max(vk.DeviceSize(rounded), b.minSize)
		props := deviceLocalBit
		if b.hostVisible {
			props = hostVisibleBit
		}
		buf := &BufferHelper{}
		if err := buf.Init(r, native.BufferCreateInfo{Size: b.size, Usage: b.usage}, props); err != nil {
			b.size = 0
			return Allocation{}, err
		}
		b.buffer = buf
		b.next = 0
		b.lastFlush = 0
		alloc.NewBufferAllocated = true
		Logger().Debug("vkres: dynamic buffer allocated",
			"size", b.size, "retained", len(b.retained), "hostVisible", b.hostVisible)
	}

	alloc.Buffer = b.buffer
	alloc.Offset = b.next
	if b.hostVisible {
		data, err := b.buffer.Map(d)
		if err != nil {
			return Allocation{}, err
		}
		alloc.Data = data[b.next : b.next+size : b.next+vk.DeviceSize(rounded)]
	}
	b.next += vk.DeviceSize(rounded)
	return alloc, nil
}

// Flush makes everything written since the last flush visible to the GPU.
func (b *DynamicBuffer) Flush(d native.Device) error {
	if b.hostVisible && b.next > b.lastFlush {
		if err := b.buffer.Flush(d, b.lastFlush, b.next-b.lastFlush); err != nil {
			return fmt.Errorf("vkres: flush dynamic buffer: %w", err)
		}
		b.lastFlush = b.next
	}
	return nil
}

// Invalidate makes GPU writes since the last flush visible to the host.
func (b *DynamicBuffer) Invalidate(d native.Device) error {
	if b.hostVisible && b.next > b.lastFlush {
		if err := b.buffer.Invalidate(d, b.lastFlush, b.next-b.lastFlush); err != nil {
			return fmt.Errorf("vkres: invalidate dynamic buffer: %w", err)
		}
		b.lastFlush = b.next
	}
	return nil
}

// ReleaseRetainedBuffers hands every retired buffer to the renderer at the
// current serial.
func (b *DynamicBuffer) ReleaseRetainedBuffers(r native.Renderer) {
	current := r.CurrentQueueSerial()
	for _, buf := range b.retained {
		buf.UpdateSerial(current)
		buf.Release(r)
	}
	b.retained = nil
}

// Release hands every buffer, including the current one, to the renderer
// at the current serial. Buffers filled only by the host were never stamped
// by a recorded command, so the current serial bounds their lifetime.
func (b *DynamicBuffer) Release(r native.Renderer) {
	b.reset()
	b.ReleaseRetainedBuffers(r)
	if b.buffer != nil {
		b.buffer.Unmap(r.Device())
		b.buffer.UpdateSerial(r.CurrentQueueSerial())
		b.buffer.Release(r)
		b.buffer = nil
	}
}

// Destroy destroys every buffer immediately. The GPU must be idle.
func (b *DynamicBuffer) Destroy(d native.Device) {
	b.reset()
	for _, buf := range b.retained {
		buf.Destroy(d)
	}
	b.retained = nil
	if b.buffer != nil {
		b.buffer.Destroy(d)
		b.buffer = nil
	}
}

// CurrentBuffer returns the buffer the next allocation is taken from, or nil.
func (b *DynamicBuffer) CurrentBuffer() *BufferHelper { return b.buffer }

// RetainedBuffers returns the number of retired buffers not yet released.
func (b *DynamicBuffer) RetainedBuffers() int { return len(b.retained) }

// Alignment returns the effective allocation alignment.
func (b *DynamicBuffer) Alignment() vk.DeviceSize { return b.alignment }

// HostVisible reports whether allocations are mapped.
func (b *DynamicBuffer) HostVisible() bool { return b.hostVisible }

// SetMinimumSizeForTesting changes the minimum buffer size and forces the
// next allocation into a new buffer.
func (b *DynamicBuffer) SetMinimumSizeForTesting(minSize vk.DeviceSize) {
	b.minSize = minSize
	b.size = 0
}

func (b *DynamicBuffer) reset() {
	b.size = 0
	b.next = 0
	b.lastFlush = 0
}
