package backend

import (
	"errors"

	"github.com/gogpu/vkres/native"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrClosed is returned by Flush after Close.
	ErrClosed = errors.New("backend: closed")
)

// Backend names.
const (
	BackendVulkan     = "vulkan"
	BackendNativeTest = "nativetest"
)

// Renderer is a native.Renderer that also owns command recording.
//
// vkres helpers record into Recorder. Flush submits what was recorded and
// collects objects whose batches have completed.
type Renderer interface {
	native.Renderer

	// Name returns the backend identifier (e.g., "vulkan", "nativetest").
	Name() string

	// Recorder returns the recorder for the batch being recorded, opening
	// one if needed.
	Recorder() (native.Recorder, error)

	// Flush submits the batch being recorded.
	Flush() error

	// Close waits for the device and destroys every released object.
	// The renderer should not be used after Close is called.
	Close()
}
