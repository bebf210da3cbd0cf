package vkres

import (
	"context"
	"encoding/binary"
	"fmt"

	vk "github.com/vulkan-go/vulkan"

	"github.com/gogpu/vkres/native"
)

const (
	lineLoopBufferUsage = vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit | vk.BufferUsageTransferDstBit |
		vk.BufferUsageUniformTexelBufferBit | vk.BufferUsageStorageTexelBufferBit)

	lineLoopBufferMinSize vk.DeviceSize = 1024 * 1024

	// Offsets must suit the widest index type.
	lineLoopBufferAlignment vk.DeviceSize = 4
)

// IndexType is the type of client indices.
type IndexType uint8

// Index types.
const (
	IndexTypeUint8 IndexType = iota
	IndexTypeUint16
	IndexTypeUint32
)

// Native returns the index type of the buffers LineLoopHelper produces
// for t. Byte indices are widened to 16 bits.
func (t IndexType) Native() vk.IndexType {
	if t == IndexTypeUint32 {
		return vk.IndexTypeUint32
	}
	return vk.IndexTypeUint16
}

func (t IndexType) size() uint64 {
	switch t {
	case IndexTypeUint8:
		return 1
	case IndexTypeUint16:
		return 2
	default:
		return 4
	}
}

// nativeSize is the size of one index in the produced buffer.
func (t IndexType) nativeSize() uint64 {
	if t == IndexTypeUint32 {
		return 4
	}
	return 2
}

// LineLoopHelper builds index buffers that close line loops, so they can be
// drawn as line strips.
type LineLoopHelper struct {
	indices *DynamicBuffer
}

// NewLineLoopHelper returns a helper whose index buffers are host visible
// and aligned for 32-bit indices.
func NewLineLoopHelper(r native.Renderer, opts ...LineLoopOption) *LineLoopHelper {
	o := defaultLineLoopOptions()
	for _, opt := range opts {
		opt(&o)
	}
	indices := NewDynamicBuffer(lineLoopBufferUsage, o.bufferSize, true)
	indices.Init(lineLoopBufferAlignment, r)
	return &LineLoopHelper{indices: indices}
}

// GetIndexBufferForDrawArrays writes the indices first..first+count-1
// followed by first and returns where they start.
func (l *LineLoopHelper) GetIndexBufferForDrawArrays(r native.Renderer, count uint32, first uint32) (*BufferHelper, vk.DeviceSize, error) {
	if uint64(first)+uint64(count) > 1<<32 {
		return nil, 0, fmt.Errorf("%w: vertices %d+%d", ErrIntegerOverflow, first, count)
	}
	l.indices.ReleaseRetainedBuffers(r)
	alloc, err := l.indices.Allocate(r, vk.DeviceSize(4*(uint64(count)+1)))
	if err != nil {
		return nil, 0, err
	}
	for i := uint32(0); i < count; i++ {
		binary.LittleEndian.PutUint32(alloc.Data[4*i:], first+i)
	}
	binary.LittleEndian.PutUint32(alloc.Data[4*count:], first)

	if err := l.indices.Flush(r.Device()); err != nil {
		return nil, 0, err
	}
	return alloc.Buffer, alloc.Offset, nil
}

// GetIndexBufferForElementArrayBuffer copies count indices of type t at
// offset in src, followed by the first of them, into a new index range.
// 16 and 32-bit indices are copied on the GPU. Byte indices are widened on
// the host, which waits for the GPU to finish first.
func (l *LineLoopHelper) GetIndexBufferForElementArrayBuffer(ctx context.Context, r native.Renderer, rec native.Recorder, src *BufferHelper, t IndexType, count uint32, offset vk.DeviceSize) (*BufferHelper, vk.DeviceSize, error) {
	if t == IndexTypeUint8 {
		if !src.HostVisible() {
			return nil, 0, fmt.Errorf("%w: byte index buffer", ErrNotHostVisible)
		}
		if err := r.Finish(ctx); err != nil {
			return nil, 0, fmt.Errorf("vkres: wait for index buffer: %w", err)
		}
		wasMapped := src.Mapped()
		data, err := src.Map(r.Device())
		if err != nil {
			return nil, 0, err
		}
		if !wasMapped {
			defer src.Unmap(r.Device())
		}
		if uint64(offset) > uint64(len(data)) {
			return nil, 0, fmt.Errorf("%w: index offset %d past %d bytes", ErrInvalidArgument, offset, len(data))
		}
		return l.StreamIndices(r, t, count, data[offset:])
	}

	unit := t.size()
	l.indices.ReleaseRetainedBuffers(r)
	alloc, err := l.indices.Allocate(r, vk.DeviceSize(unit*(uint64(count)+1)+1))
	if err != nil {
		return nil, 0, err
	}

	units := vk.DeviceSize(uint64(count) * unit)
	copies := []native.BufferCopy{
		{SrcOffset: offset, DstOffset: alloc.Offset, Size: units},
		{SrcOffset: offset, DstOffset: alloc.Offset + units, Size: vk.DeviceSize(unit)},
	}
	if r.Features().ExtraCopyBufferRegion {
		copies = append(copies, native.BufferCopy{
			SrcOffset: offset, DstOffset: alloc.Offset + units + vk.DeviceSize(unit), Size: 1,
		})
	}
	src.CopyToBuffer(rec, alloc.Buffer, copies)

	if err := l.indices.Flush(r.Device()); err != nil {
		return nil, 0, err
	}
	return alloc.Buffer, alloc.Offset, nil
}

// StreamIndices copies count indices of type t from src, followed by the
// first of them, into a new index range. Byte indices are widened to 16
// bits.
func (l *LineLoopHelper) StreamIndices(r native.Renderer, t IndexType, count uint32, src []byte) (*BufferHelper, vk.DeviceSize, error) {
	if count == 0 {
		return nil, 0, fmt.Errorf("%w: line loop without indices", ErrInvalidArgument)
	}
	srcBytes := uint64(count) * t.size()
	if uint64(len(src)) < srcBytes {
		return nil, 0, fmt.Errorf("%w: %d bytes for %d indices", ErrInvalidArgument, len(src), count)
	}
	unit := t.nativeSize()
	alloc, err := l.indices.Allocate(r, vk.DeviceSize(unit*(uint64(count)+1)))
	if err != nil {
		return nil, 0, err
	}

	dst := alloc.Data
	if t == IndexTypeUint8 {
		for i := uint32(0); i < count; i++ {
			binary.LittleEndian.PutUint16(dst[2*i:], uint16(src[i]))
		}
		binary.LittleEndian.PutUint16(dst[2*count:], uint16(src[0]))
	} else {
		copy(dst, src[:srcBytes])
		copy(dst[srcBytes:], src[:unit])
	}

	if err := l.indices.Flush(r.Device()); err != nil {
		return nil, 0, err
	}
	return alloc.Buffer, alloc.Offset, nil
}

// Release hands the index buffers to the renderer.
func (l *LineLoopHelper) Release(r native.Renderer) {
	l.indices.Release(r)
}

// Destroy destroys the index buffers immediately. The GPU must be idle.
func (l *LineLoopHelper) Destroy(d native.Device) {
	l.indices.Destroy(d)
}

// DrawLineLoop draws count vertices of a line loop from an index range
// built by LineLoopHelper. The closing index is drawn as well.
func DrawLineLoop(rec native.Recorder, count uint32) {
	rec.DrawIndexed(count+1, 1, 0, 0, 0)
}
