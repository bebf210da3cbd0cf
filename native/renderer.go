package native

import (
	"context"

	vk "github.com/vulkan-go/vulkan"

	"github.com/gogpu/vkres/serial"
)

// Features holds driver workaround flags consumed by vkres.
type Features struct {
	// ExtraCopyBufferRegion appends a one byte region to buffer copies
	// whose destination is an index buffer.
	ExtraCopyBufferRegion bool

	// MockICD caps dynamic buffer sizes for the Vulkan mock driver.
	MockICD bool
}

// Limits holds the device limits consumed by vkres.
type Limits struct {
	NonCoherentAtomSize vk.DeviceSize
}

// Renderer is the context vkres allocates against.
//
// It exposes the serial clock, the native device and the deferred
// destruction sink. ReleaseObject must not destroy obj before s completes.
// Finish blocks until every submitted batch has completed; it is the only
// blocking call vkres makes.
type Renderer interface {
	serial.Clock

	Device() Device
	ReleaseObject(s serial.Serial, obj Object)
	Finish(ctx context.Context) error
	Features() Features
	Limits() Limits
}
