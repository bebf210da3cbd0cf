package vkres

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"

	"github.com/gogpu/vkres/native"
	"github.com/gogpu/vkres/serial"
)

const (
	hostVisibleBit  = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)
	hostCoherentBit = vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit)
	deviceLocalBit  = vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)

	transferReadAccess  = vk.AccessFlags(vk.AccessTransferReadBit)
	transferWriteAccess = vk.AccessFlags(vk.AccessTransferWriteBit)

	allCommandsStage = vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit)
	transferStage    = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
)

// BufferHelper owns a native buffer, its memory and an optional typed view.
//
// It remembers the outstanding read and write accesses recorded through it
// so that a following access only inserts a barrier when one is needed.
type BufferHelper struct {
	serial.Use

	renderer    native.Renderer
	buffer      native.Buffer
	view        native.BufferView
	viewFormat  vk.Format
	memory      native.DeviceMemory
	memoryProps vk.MemoryPropertyFlags
	size        vk.DeviceSize
	mapped      []byte

	writeAccess vk.AccessFlags
	readAccess  vk.AccessFlags
}

// Init creates the buffer and binds memory with at least memoryProps.
func (b *BufferHelper) Init(r native.Renderer, info native.BufferCreateInfo, memoryProps vk.MemoryPropertyFlags) error {
	d := r.Device()
	buf, err := d.CreateBuffer(info)
	if err != nil {
		return fmt.Errorf("vkres: create buffer: %w", err)
	}
	mem, props, err := d.AllocateBufferMemory(buf, memoryProps)
	if err != nil {
		d.DestroyBuffer(buf)
		return fmt.Errorf("vkres: allocate buffer memory: %w", err)
	}
	b.renderer = r
	b.buffer = buf
	b.memory = mem
	b.memoryProps = props
	b.size = info.Size
	return nil
}

// Valid reports whether the native buffer exists.
func (b *BufferHelper) Valid() bool { return b.buffer != native.Null }

// Buffer returns the native buffer.
func (b *BufferHelper) Buffer() native.Buffer { return b.buffer }

// BufferView returns the typed view, or the null handle.
func (b *BufferHelper) BufferView() native.BufferView { return b.view }

// Memory returns the backing memory.
func (b *BufferHelper) Memory() native.DeviceMemory { return b.memory }

// Size returns the size requested at Init.
func (b *BufferHelper) Size() vk.DeviceSize { return b.size }

// MemoryPropertyFlags returns the properties of the memory actually bound.
func (b *BufferHelper) MemoryPropertyFlags() vk.MemoryPropertyFlags { return b.memoryProps }

// HostVisible reports whether the memory can be mapped.
func (b *BufferHelper) HostVisible() bool { return b.memoryProps&hostVisibleBit != 0 }

// HostCoherent reports whether mapped writes need no flush.
func (b *BufferHelper) HostCoherent() bool { return b.memoryProps&hostCoherentBit != 0 }

// OnWrite records that the buffer is about to be written with access.
// Outstanding reads and writes are drained with a global memory barrier.
func (b *BufferHelper) OnWrite(rec native.Recorder, access vk.AccessFlags) {
	if b.readAccess != 0 || b.writeAccess != 0 {
		rec.PipelineBarrier(allCommandsStage, allCommandsStage,
			[]native.MemoryBarrier{{
				SrcAccessMask: b.readAccess | b.writeAccess,
				DstAccessMask: access,
			}}, nil)
	}
	b.writeAccess = access
	b.readAccess = 0
	b.stamp()
}

// OnRead records that the buffer is about to be read with access. An
// outstanding write is made visible to the read first.
func (b *BufferHelper) OnRead(rec native.Recorder, access vk.AccessFlags) {
	if b.writeAccess != 0 {
		rec.PipelineBarrier(allCommandsStage, allCommandsStage,
			[]native.MemoryBarrier{{
				SrcAccessMask: b.writeAccess,
				DstAccessMask: access,
			}}, nil)
		b.writeAccess = 0
	}
	b.readAccess |= access
	b.stamp()
}

// CopyFromBuffer records a copy of region from src into this buffer.
func (b *BufferHelper) CopyFromBuffer(rec native.Recorder, src native.Buffer, region native.BufferCopy) {
	if b.readAccess != 0 || b.writeAccess != 0 {
		rec.PipelineBarrier(allCommandsStage, transferStage,
			[]native.MemoryBarrier{{
				SrcAccessMask: b.readAccess | b.writeAccess,
				DstAccessMask: transferWriteAccess,
			}}, nil)
	}
	b.writeAccess = transferWriteAccess
	b.readAccess = 0
	rec.CopyBuffer(src, b.buffer, []native.BufferCopy{region})
	b.stamp()
}

// CopyToBuffer records a copy of regions from this buffer into dst.
func (b *BufferHelper) CopyToBuffer(rec native.Recorder, dst *BufferHelper, regions []native.BufferCopy) {
	dst.OnWrite(rec, transferWriteAccess)
	b.OnRead(rec, transferReadAccess)
	rec.CopyBuffer(b.buffer, dst.buffer, regions)
}

// Accesses returns the outstanding read and write access masks.
func (b *BufferHelper) Accesses() (read, write vk.AccessFlags) {
	return b.readAccess, b.writeAccess
}

// InitBufferView creates a typed view over the whole buffer. Calling it
// again with the same format does nothing; a different format panics.
func (b *BufferHelper) InitBufferView(d native.Device, format vk.Format) error {
	if b.view != native.Null {
		if b.viewFormat != format {
			panic(fmt.Sprintf("vkres: buffer view format %d, requested %d", b.viewFormat, format))
		}
		return nil
	}
	view, err := d.CreateBufferView(native.BufferViewCreateInfo{
		Buffer: b.buffer,
		Format: format,
		Offset: 0,
		Range:  b.size,
	})
	if err != nil {
		return fmt.Errorf("vkres: create buffer view: %w", err)
	}
	b.view = view
	b.viewFormat = format
	return nil
}

// Map maps the whole buffer, reusing an existing mapping. The buffer must be
// host visible.
func (b *BufferHelper) Map(d native.Device) ([]byte, error) {
	if !b.HostVisible() {
		panic("vkres: mapping memory that is not host visible")
	}
	if b.mapped == nil {
		data, err := d.MapMemory(b.memory, 0, b.size)
		if err != nil {
			return nil, fmt.Errorf("vkres: map buffer: %w", err)
		}
		b.mapped = data
	}
	return b.mapped, nil
}

// Mapped reports whether the buffer is currently mapped.
func (b *BufferHelper) Mapped() bool { return b.mapped != nil }

// Unmap releases the mapping, if any.
func (b *BufferHelper) Unmap(d native.Device) {
	if b.mapped != nil {
		d.UnmapMemory(b.memory)
		b.mapped = nil
	}
}

// Flush makes host writes in [offset, offset+size) visible to the device.
// Coherent and device-local memory needs no flush.
func (b *BufferHelper) Flush(d native.Device, offset, size vk.DeviceSize) error {
	if !b.HostVisible() || b.HostCoherent() {
		return nil
	}
	if err := d.FlushMappedMemory(b.memory, offset, size); err != nil {
		return fmt.Errorf("vkres: flush buffer: %w", err)
	}
	return nil
}

// Invalidate makes device writes in [offset, offset+size) visible to the
// host. Coherent and device-local memory needs no invalidation.
func (b *BufferHelper) Invalidate(d native.Device, offset, size vk.DeviceSize) error {
	if !b.HostVisible() || b.HostCoherent() {
		return nil
	}
	if err := d.InvalidateMappedMemory(b.memory, offset, size); err != nil {
		return fmt.Errorf("vkres: invalidate buffer: %w", err)
	}
	return nil
}

// Release unmaps the buffer and hands its objects to the renderer at the
// last serial the buffer was used.
func (b *BufferHelper) Release(r native.Renderer) {
	b.Unmap(r.Device())
	s := b.Serial()
	r.ReleaseObject(s, native.BufferObject(b.buffer))
	r.ReleaseObject(s, native.BufferViewObject(b.view))
	r.ReleaseObject(s, native.MemoryObject(b.memory))
	b.reset()
}

// Destroy destroys the buffer immediately.
func (b *BufferHelper) Destroy(d native.Device) {
	b.Unmap(d)
	d.DestroyBuffer(b.buffer)
	d.DestroyBufferView(b.view)
	d.FreeMemory(b.memory)
	b.reset()
}

func (b *BufferHelper) reset() {
	b.buffer = native.Null
	b.view = native.Null
	b.viewFormat = vk.FormatUndefined
	b.memory = native.Null
	b.size = 0
	b.readAccess = 0
	b.writeAccess = 0
}

func (b *BufferHelper) stamp() {
	if b.renderer != nil {
		b.Update(b.renderer)
	}
}
