package vulkan

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/gogpu/vkres/native"
)

// Recorder records native commands into a Vulkan command buffer.
type Recorder struct {
	dev *Device
	cb  vk.CommandBuffer

	commands int
}

var (
	_ native.Recorder      = (*Recorder)(nil)
	_ native.QueryRecorder = (*Recorder)(nil)
)

// NewRecorder returns a recorder for cb, which must be in the recording
// state.
func NewRecorder(d *Device, cb vk.CommandBuffer) *Recorder {
	return &Recorder{dev: d, cb: cb}
}

// CommandBuffer returns the command buffer being recorded.
func (r *Recorder) CommandBuffer() vk.CommandBuffer { return r.cb }

// Len returns the number of commands recorded.
func (r *Recorder) Len() int { return r.commands }

// PipelineBarrier implements native.Recorder.
func (r *Recorder) PipelineBarrier(srcStages, dstStages vk.PipelineStageFlags, memory []native.MemoryBarrier, images []native.ImageBarrier) {
	var imageBarriers []vk.ImageMemoryBarrier
	if len(images) > 0 {
		imageBarriers = make([]vk.ImageMemoryBarrier, len(images))
		for i, b := range images {
			imageBarriers[i] = vk.ImageMemoryBarrier{
				SType:               vk.StructureTypeImageMemoryBarrier,
				SrcAccessMask:       b.SrcAccessMask,
				DstAccessMask:       b.DstAccessMask,
				OldLayout:           b.OldLayout,
				NewLayout:           b.NewLayout,
				SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
				DstQueueFamilyIndex: vk.QueueFamilyIgnored,
				Image:               r.dev.VkImage(b.Image),
				SubresourceRange:    vkRange(b.Range),
			}
		}
	}
	var memoryBarriers []vk.MemoryBarrier
	if len(memory) > 0 {
		memoryBarriers = vkMemoryBarriers(memory)
	}
	vk.CmdPipelineBarrier(r.cb, srcStages, dstStages, 0,
		uint32(len(memoryBarriers)), memoryBarriers,
		0, nil,
		uint32(len(imageBarriers)), imageBarriers)
	r.commands++
}

// CopyBuffer implements native.Recorder.
func (r *Recorder) CopyBuffer(src, dst native.Buffer, regions []native.BufferCopy) {
	vk.CmdCopyBuffer(r.cb, r.dev.VkBuffer(src), r.dev.VkBuffer(dst),
		uint32(len(regions)), vkBufferCopies(regions))
	r.commands++
}

// CopyBufferToImage implements native.Recorder.
func (r *Recorder) CopyBufferToImage(src native.Buffer, dst native.Image, dstLayout vk.ImageLayout, regions []native.BufferImageCopy) {
	vk.CmdCopyBufferToImage(r.cb, r.dev.VkBuffer(src), r.dev.VkImage(dst), dstLayout,
		uint32(len(regions)), vkBufferImageCopies(regions))
	r.commands++
}

// CopyImage implements native.Recorder.
func (r *Recorder) CopyImage(src native.Image, srcLayout vk.ImageLayout, dst native.Image, dstLayout vk.ImageLayout, regions []native.ImageCopy) {
	vk.CmdCopyImage(r.cb, r.dev.VkImage(src), srcLayout, r.dev.VkImage(dst), dstLayout,
		uint32(len(regions)), vkImageCopies(regions))
	r.commands++
}

// BlitImage implements native.Recorder.
func (r *Recorder) BlitImage(src native.Image, srcLayout vk.ImageLayout, dst native.Image, dstLayout vk.ImageLayout, regions []native.ImageBlit, filter vk.Filter) {
	vk.CmdBlitImage(r.cb, r.dev.VkImage(src), srcLayout, r.dev.VkImage(dst), dstLayout,
		uint32(len(regions)), vkImageBlits(regions), filter)
	r.commands++
}

// ClearColorImage implements native.Recorder.
func (r *Recorder) ClearColorImage(img native.Image, layout vk.ImageLayout, color native.ClearColorValue, ranges []native.SubresourceRange) {
	var value vk.ClearColorValue
	*(*[4]float32)(unsafe.Pointer(&value)) = color
	vk.CmdClearColorImage(r.cb, r.dev.VkImage(img), layout, &value,
		uint32(len(ranges)), vkRanges(ranges))
	r.commands++
}

// ClearDepthStencilImage implements native.Recorder.
func (r *Recorder) ClearDepthStencilImage(img native.Image, layout vk.ImageLayout, value native.ClearDepthStencilValue, ranges []native.SubresourceRange) {
	vk.CmdClearDepthStencilImage(r.cb, r.dev.VkImage(img), layout,
		&vk.ClearDepthStencilValue{Depth: value.Depth, Stencil: value.Stencil},
		uint32(len(ranges)), vkRanges(ranges))
	r.commands++
}

// DrawIndexed implements native.Recorder.
func (r *Recorder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	vk.CmdDrawIndexed(r.cb, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
	r.commands++
}

// BeginQuery implements native.QueryRecorder.
func (r *Recorder) BeginQuery(pool native.QueryPool, query uint32) {
	vk.CmdBeginQuery(r.cb, r.dev.VkQueryPool(pool), query, 0)
	r.commands++
}

// EndQuery implements native.QueryRecorder.
func (r *Recorder) EndQuery(pool native.QueryPool, query uint32) {
	vk.CmdEndQuery(r.cb, r.dev.VkQueryPool(pool), query)
	r.commands++
}

// WriteTimestamp implements native.QueryRecorder.
func (r *Recorder) WriteTimestamp(stage vk.PipelineStageFlagBits, pool native.QueryPool, query uint32) {
	vk.CmdWriteTimestamp(r.cb, stage, r.dev.VkQueryPool(pool), query)
	r.commands++
}
