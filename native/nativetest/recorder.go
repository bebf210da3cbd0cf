package nativetest

import (
	"fmt"
	"strings"

	vk "github.com/vulkan-go/vulkan"

	"github.com/gogpu/vkres/native"
)

// Op identifies a recorded command.
type Op uint8

// Recorded operations.
const (
	OpPipelineBarrier Op = iota + 1
	OpCopyBuffer
	OpCopyBufferToImage
	OpCopyImage
	OpBlitImage
	OpClearColorImage
	OpClearDepthStencilImage
	OpDrawIndexed
	OpBeginQuery
	OpEndQuery
	OpWriteTimestamp
)

var opNames = map[Op]string{
	OpPipelineBarrier:        "PipelineBarrier",
	OpCopyBuffer:             "CopyBuffer",
	OpCopyBufferToImage:      "CopyBufferToImage",
	OpCopyImage:              "CopyImage",
	OpBlitImage:              "BlitImage",
	OpClearColorImage:        "ClearColorImage",
	OpClearDepthStencilImage: "ClearDepthStencilImage",
	OpDrawIndexed:            "DrawIndexed",
	OpBeginQuery:             "BeginQuery",
	OpEndQuery:               "EndQuery",
	OpWriteTimestamp:         "WriteTimestamp",
}

// String returns the command name.
func (op Op) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return fmt.Sprintf("Op(%d)", op)
}

// Command is one recorded command. Only the fields relevant to Op are set.
type Command struct {
	Op Op

	SrcStages      vk.PipelineStageFlags
	DstStages      vk.PipelineStageFlags
	MemoryBarriers []native.MemoryBarrier
	ImageBarriers  []native.ImageBarrier

	SrcBuffer native.Buffer
	DstBuffer native.Buffer
	SrcImage  native.Image
	DstImage  native.Image
	SrcLayout vk.ImageLayout
	DstLayout vk.ImageLayout

	BufferCopies      []native.BufferCopy
	BufferImageCopies []native.BufferImageCopy
	ImageCopies       []native.ImageCopy
	Blits             []native.ImageBlit
	Filter            vk.Filter

	ClearColor        native.ClearColorValue
	ClearDepthStencil native.ClearDepthStencilValue
	Ranges            []native.SubresourceRange

	IndexCount    uint32
	InstanceCount uint32
	FirstIndex    uint32
	VertexOffset  int32
	FirstInstance uint32

	QueryPool native.QueryPool
	Query     uint32
	Stage     vk.PipelineStageFlagBits
}

// String formats the command on one line.
func (c Command) String() string {
	var b strings.Builder
	b.WriteString(c.Op.String())
	switch c.Op {
	case OpPipelineBarrier:
		fmt.Fprintf(&b, " stages=%#x->%#x", uint32(c.SrcStages), uint32(c.DstStages))
		for _, m := range c.MemoryBarriers {
			fmt.Fprintf(&b, " memory{%#x->%#x}", uint32(m.SrcAccessMask), uint32(m.DstAccessMask))
		}
		for _, ib := range c.ImageBarriers {
			fmt.Fprintf(&b, " image(%d){layout %d->%d access %#x->%#x levels %d+%d layers %d+%d}",
				ib.Image, ib.OldLayout, ib.NewLayout, uint32(ib.SrcAccessMask), uint32(ib.DstAccessMask),
				ib.Range.BaseMipLevel, ib.Range.LevelCount, ib.Range.BaseArrayLayer, ib.Range.LayerCount)
		}
	case OpCopyBuffer:
		fmt.Fprintf(&b, " %d->%d", c.SrcBuffer, c.DstBuffer)
		for _, r := range c.BufferCopies {
			fmt.Fprintf(&b, " {%d->%d %d}", r.SrcOffset, r.DstOffset, r.Size)
		}
	case OpCopyBufferToImage:
		fmt.Fprintf(&b, " %d->image(%d)", c.SrcBuffer, c.DstImage)
		for _, r := range c.BufferImageCopies {
			fmt.Fprintf(&b, " {off=%d level=%d layer=%d+%d at (%d,%d,%d) %dx%dx%d}",
				r.BufferOffset, r.ImageSubresource.MipLevel,
				r.ImageSubresource.BaseArrayLayer, r.ImageSubresource.LayerCount,
				r.ImageOffset.X, r.ImageOffset.Y, r.ImageOffset.Z,
				r.ImageExtent.Width, r.ImageExtent.Height, r.ImageExtent.Depth)
		}
	case OpCopyImage:
		fmt.Fprintf(&b, " image(%d)->image(%d) regions=%d", c.SrcImage, c.DstImage, len(c.ImageCopies))
	case OpBlitImage:
		for _, r := range c.Blits {
			fmt.Fprintf(&b, " level %d %dx%d -> level %d %dx%d",
				r.SrcSubresource.MipLevel, r.SrcOffsets[1].X, r.SrcOffsets[1].Y,
				r.DstSubresource.MipLevel, r.DstOffsets[1].X, r.DstOffsets[1].Y)
		}
	case OpClearColorImage:
		fmt.Fprintf(&b, " image(%d) color=%v", c.DstImage, c.ClearColor)
	case OpClearDepthStencilImage:
		fmt.Fprintf(&b, " image(%d) depth=%g stencil=%d", c.DstImage, c.ClearDepthStencil.Depth, c.ClearDepthStencil.Stencil)
	case OpDrawIndexed:
		fmt.Fprintf(&b, " count=%d instances=%d first=%d", c.IndexCount, c.InstanceCount, c.FirstIndex)
	case OpBeginQuery, OpEndQuery, OpWriteTimestamp:
		fmt.Fprintf(&b, " pool=%d query=%d", c.QueryPool, c.Query)
	}
	return b.String()
}

// Recorder is a native.Recorder and native.QueryRecorder that keeps every
// command. When Device is set, buffer to buffer copies are also executed on
// the device's host memory.
type Recorder struct {
	Device   *Device
	Commands []Command
}

var (
	_ native.Recorder      = (*Recorder)(nil)
	_ native.QueryRecorder = (*Recorder)(nil)
)

// NewRecorder returns a recorder that executes copies on d. d may be nil.
func NewRecorder(d *Device) *Recorder {
	return &Recorder{Device: d}
}

// Reset drops every recorded command.
func (r *Recorder) Reset() { r.Commands = r.Commands[:0] }

// Count returns how many commands of op were recorded.
func (r *Recorder) Count(op Op) int {
	n := 0
	for _, c := range r.Commands {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Filter returns the recorded commands of op in order.
func (r *Recorder) Filter(op Op) []Command {
	var out []Command
	for _, c := range r.Commands {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Ops returns the recorded operations in order.
func (r *Recorder) Ops() []Op {
	ops := make([]Op, len(r.Commands))
	for i, c := range r.Commands {
		ops[i] = c.Op
	}
	return ops
}

// PipelineBarrier implements native.Recorder.
func (r *Recorder) PipelineBarrier(srcStages, dstStages vk.PipelineStageFlags, memory []native.MemoryBarrier, images []native.ImageBarrier) {
	r.Commands = append(r.Commands, Command{
		Op:             OpPipelineBarrier,
		SrcStages:      srcStages,
		DstStages:      dstStages,
		MemoryBarriers: append([]native.MemoryBarrier(nil), memory...),
		ImageBarriers:  append([]native.ImageBarrier(nil), images...),
	})
}

// CopyBuffer implements native.Recorder.
func (r *Recorder) CopyBuffer(src, dst native.Buffer, regions []native.BufferCopy) {
	r.Commands = append(r.Commands, Command{
		Op:           OpCopyBuffer,
		SrcBuffer:    src,
		DstBuffer:    dst,
		BufferCopies: append([]native.BufferCopy(nil), regions...),
	})
	if r.Device == nil {
		return
	}
	from, to := r.Device.BufferBytes(src), r.Device.BufferBytes(dst)
	for _, region := range regions {
		copy(to[region.DstOffset:region.DstOffset+region.Size], from[region.SrcOffset:region.SrcOffset+region.Size])
	}
}

// CopyBufferToImage implements native.Recorder.
func (r *Recorder) CopyBufferToImage(src native.Buffer, dst native.Image, dstLayout vk.ImageLayout, regions []native.BufferImageCopy) {
	r.Commands = append(r.Commands, Command{
		Op:                OpCopyBufferToImage,
		SrcBuffer:         src,
		DstImage:          dst,
		DstLayout:         dstLayout,
		BufferImageCopies: append([]native.BufferImageCopy(nil), regions...),
	})
}

// CopyImage implements native.Recorder.
func (r *Recorder) CopyImage(src native.Image, srcLayout vk.ImageLayout, dst native.Image, dstLayout vk.ImageLayout, regions []native.ImageCopy) {
	r.Commands = append(r.Commands, Command{
		Op:          OpCopyImage,
		SrcImage:    src,
		SrcLayout:   srcLayout,
		DstImage:    dst,
		DstLayout:   dstLayout,
		ImageCopies: append([]native.ImageCopy(nil), regions...),
	})
}

// BlitImage implements native.Recorder.
func (r *Recorder) BlitImage(src native.Image, srcLayout vk.ImageLayout, dst native.Image, dstLayout vk.ImageLayout, regions []native.ImageBlit, filter vk.Filter) {
	r.Commands = append(r.Commands, Command{
		Op:        OpBlitImage,
		SrcImage:  src,
		SrcLayout: srcLayout,
		DstImage:  dst,
		DstLayout: dstLayout,
		Blits:     append([]native.ImageBlit(nil), regions...),
		Filter:    filter,
	})
}

// ClearColorImage implements native.Recorder.
func (r *Recorder) ClearColorImage(img native.Image, layout vk.ImageLayout, color native.ClearColorValue, ranges []native.SubresourceRange) {
	r.Commands = append(r.Commands, Command{
		Op:         OpClearColorImage,
		DstImage:   img,
		DstLayout:  layout,
		ClearColor: color,
		Ranges:     append([]native.SubresourceRange(nil), ranges...),
	})
}

// ClearDepthStencilImage implements native.Recorder.
func (r *Recorder) ClearDepthStencilImage(img native.Image, layout vk.ImageLayout, value native.ClearDepthStencilValue, ranges []native.SubresourceRange) {
	r.Commands = append(r.Commands, Command{
		Op:                OpClearDepthStencilImage,
		DstImage:          img,
		DstLayout:         layout,
		ClearDepthStencil: value,
		Ranges:            append([]native.SubresourceRange(nil), ranges...),
	})
}

// DrawIndexed implements native.Recorder.
func (r *Recorder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	r.Commands = append(r.Commands, Command{
		Op:            OpDrawIndexed,
		IndexCount:    indexCount,
		InstanceCount: instanceCount,
		FirstIndex:    firstIndex,
		VertexOffset:  vertexOffset,
		FirstInstance: firstInstance,
	})
}

// BeginQuery implements native.QueryRecorder.
func (r *Recorder) BeginQuery(pool native.QueryPool, query uint32) {
	r.Commands = append(r.Commands, Command{Op: OpBeginQuery, QueryPool: pool, Query: query})
}

// EndQuery implements native.QueryRecorder.
func (r *Recorder) EndQuery(pool native.QueryPool, query uint32) {
	r.Commands = append(r.Commands, Command{Op: OpEndQuery, QueryPool: pool, Query: query})
}

// WriteTimestamp implements native.QueryRecorder.
func (r *Recorder) WriteTimestamp(stage vk.PipelineStageFlagBits, pool native.QueryPool, query uint32) {
	r.Commands = append(r.Commands, Command{Op: OpWriteTimestamp, Stage: stage, QueryPool: pool, Query: query})
}
