package vkres

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// ImageLayout is the access state an ImageHelper is in. Every value maps to
// a native layout and the synchronization needed to enter and leave it.
type ImageLayout uint8

// Image layouts.
const (
	ImageLayoutUndefined ImageLayout = iota
	ImageLayoutPreInitialized
	ImageLayoutTransferSrc
	ImageLayoutTransferDst
	ImageLayoutComputeShaderReadOnly
	ImageLayoutComputeShaderWrite
	ImageLayoutFragmentShaderReadOnly
	ImageLayoutColorAttachment
	ImageLayoutDepthStencilAttachment
	ImageLayoutPresent

	imageLayoutCount
)

// imageMemoryBarrierData describes one ImageLayout.
//
// Transitions wait on srcStage and srcAccess of the old layout and block
// dstStage and dstAccess of the new one. srcAccess never carries read bits:
// write-after-read only needs an execution dependency.
type imageMemoryBarrierData struct {
	name      string
	layout    vk.ImageLayout
	dstStage  vk.PipelineStageFlags
	srcStage  vk.PipelineStageFlags
	dstAccess vk.AccessFlags
	srcAccess vk.AccessFlags
	readOnly  bool
}

var imageMemoryBarrierTable = [imageLayoutCount]imageMemoryBarrierData{
	ImageLayoutUndefined: {
		name:     "Undefined",
		layout:   vk.ImageLayoutUndefined,
		dstStage: vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
		srcStage: vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		readOnly: true,
	},
	ImageLayoutPreInitialized: {
		name:      "PreInitialized",
		layout:    vk.ImageLayoutPreinitialized,
		dstStage:  vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
		srcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		srcAccess: vk.AccessFlags(vk.AccessHostWriteBit),
	},
	ImageLayoutTransferSrc: {
		name:      "TransferSrc",
		layout:    vk.ImageLayoutTransferSrcOptimal,
		dstStage:  transferStage,
		srcStage:  transferStage,
		dstAccess: transferReadAccess,
		readOnly:  true,
	},
	ImageLayoutTransferDst: {
		name:      "TransferDst",
		layout:    vk.ImageLayoutTransferDstOptimal,
		dstStage:  transferStage,
		srcStage:  transferStage,
		dstAccess: transferWriteAccess,
		srcAccess: transferWriteAccess,
	},
	ImageLayoutComputeShaderReadOnly: {
		name:      "ComputeShaderReadOnly",
		layout:    vk.ImageLayoutShaderReadOnlyOptimal,
		dstStage:  vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit),
		srcStage:  vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit),
		dstAccess: vk.AccessFlags(vk.AccessShaderReadBit),
		readOnly:  true,
	},
	ImageLayoutComputeShaderWrite: {
		name:      "ComputeShaderWrite",
		layout:    vk.ImageLayoutGeneral,
		dstStage:  vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit),
		srcStage:  vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit),
		dstAccess: vk.AccessFlags(vk.AccessShaderReadBit | vk.AccessShaderWriteBit),
		srcAccess: vk.AccessFlags(vk.AccessShaderWriteBit),
	},
	ImageLayoutFragmentShaderReadOnly: {
		name:      "FragmentShaderReadOnly",
		layout:    vk.ImageLayoutShaderReadOnlyOptimal,
		dstStage:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		srcStage:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		dstAccess: vk.AccessFlags(vk.AccessShaderReadBit),
		readOnly:  true,
	},
	ImageLayoutColorAttachment: {
		name:      "ColorAttachment",
		layout:    vk.ImageLayoutColorAttachmentOptimal,
		dstStage:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		srcStage:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		dstAccess: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
		srcAccess: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	},
	ImageLayoutDepthStencilAttachment: {
		name:      "DepthStencilAttachment",
		layout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		dstStage:  vk.PipelineStageFlags(vk.PipelineStageLateFragmentTestsBit),
		srcStage:  vk.PipelineStageFlags(vk.PipelineStageLateFragmentTestsBit),
		dstAccess: vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit),
		srcAccess: vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit),
	},
	// vkQueuePresentKHR makes prior writes visible to the presentation
	// engine itself.
	ImageLayoutPresent: {
		name:     "Present",
		layout:   vk.ImageLayoutPresentSrc,
		dstStage: vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
		srcStage: vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		readOnly: true,
	},
}

func (l ImageLayout) data() *imageMemoryBarrierData {
	if l >= imageLayoutCount {
		panic(fmt.Sprintf("vkres: unknown image layout %d", l))
	}
	return &imageMemoryBarrierTable[l]
}

// Native returns the native layout for l.
func (l ImageLayout) Native() vk.ImageLayout { return l.data().layout }

// ReadOnly reports whether l only grants read access.
func (l ImageLayout) ReadOnly() bool { return l.data().readOnly }

// String returns the layout name.
func (l ImageLayout) String() string {
	if l >= imageLayoutCount {
		return fmt.Sprintf("ImageLayout(%d)", l)
	}
	return imageMemoryBarrierTable[l].name
}
