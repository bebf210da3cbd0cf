package native

import vk "github.com/vulkan-go/vulkan"

// Recorder appends commands to the currently open command stream.
// Commands are executed later by the GPU; recording never blocks.
type Recorder interface {
	PipelineBarrier(srcStages, dstStages vk.PipelineStageFlags, memory []MemoryBarrier, images []ImageBarrier)
	CopyBuffer(src, dst Buffer, regions []BufferCopy)
	CopyBufferToImage(src Buffer, dst Image, dstLayout vk.ImageLayout, regions []BufferImageCopy)
	CopyImage(src Image, srcLayout vk.ImageLayout, dst Image, dstLayout vk.ImageLayout, regions []ImageCopy)
	BlitImage(src Image, srcLayout vk.ImageLayout, dst Image, dstLayout vk.ImageLayout, regions []ImageBlit, filter vk.Filter)
	ClearColorImage(img Image, layout vk.ImageLayout, color ClearColorValue, ranges []SubresourceRange)
	ClearDepthStencilImage(img Image, layout vk.ImageLayout, value ClearDepthStencilValue, ranges []SubresourceRange)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32)
}

// QueryRecorder records query commands.
type QueryRecorder interface {
	BeginQuery(pool QueryPool, query uint32)
	EndQuery(pool QueryPool, query uint32)
	WriteTimestamp(stage vk.PipelineStageFlagBits, pool QueryPool, query uint32)
}
