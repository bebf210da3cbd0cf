package vulkan

import (
	"context"
	"errors"
	"log/slog"
	"time"

	vk "github.com/vulkan-go/vulkan"

	"github.com/gogpu/vkres"
	"github.com/gogpu/vkres/native"
	"github.com/gogpu/vkres/serial"
)

// fenceWaitSlice bounds each vkWaitForFences call so Finish can observe
// context cancellation.
const fenceWaitSlice = 100 * time.Millisecond

// ErrRecording is returned by Begin while a batch is already open.
var ErrRecording = errors.New("vulkan: batch already recording")

// Option configures a Renderer.
type Option func(*Renderer)

// WithFeatures sets the workaround flags reported by Features.
func WithFeatures(f native.Features) Option {
	return func(r *Renderer) { r.features = f }
}

// WithLogger sets the renderer's logger. The default is vkres.Logger().
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.log = l
		}
	}
}

type submission struct {
	serial serial.Serial
	fence  vk.Fence
	cb     vk.CommandBuffer
}

// Renderer implements native.Renderer on one Vulkan queue.
//
// Each batch is recorded into a primary command buffer obtained with Begin
// and submitted with Submit. Completion is tracked with one fence per batch;
// CheckCompleted advances the completed serial and destroys released
// objects whose batch has finished.
type Renderer struct {
	*serial.Counter

	dev      *Device
	queue    vk.Queue
	pool     vk.CommandPool
	features native.Features
	log      *slog.Logger

	recording *Recorder
	inFlight  []submission
	fences    []vk.Fence
	buffers   []vk.CommandBuffer
	garbage   native.Garbage
}

var _ native.Renderer = (*Renderer)(nil)

// NewRenderer creates a renderer submitting to queue, which must belong to
// queueFamily.
func NewRenderer(dev *Device, queue vk.Queue, queueFamily uint32, opts ...Option) (*Renderer, error) {
	r := &Renderer{
		Counter: serial.NewCounter(),
		dev:     dev,
		queue:   queue,
		log:     vkres.Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	res := vk.CreateCommandPool(dev.dev, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: queueFamily,
	}, nil, &r.pool)
	if err := check("create command pool", res); err != nil {
		return nil, err
	}
	return r, nil
}

// Device implements native.Renderer.
func (r *Renderer) Device() native.Device { return r.dev }

// Features implements native.Renderer.
func (r *Renderer) Features() native.Features { return r.features }

// Limits implements native.Renderer.
func (r *Renderer) Limits() native.Limits { return r.dev.Limits() }

// ReleaseObject implements native.Renderer.
func (r *Renderer) ReleaseObject(s serial.Serial, obj native.Object) {
	r.garbage.Add(s, obj)
}

// Pending returns the number of released objects not yet destroyed.
func (r *Renderer) Pending() int { return r.garbage.Len() }

// Begin opens a command buffer for the current batch and returns its
// recorder.
func (r *Renderer) Begin() (*Recorder, error) {
	if r.recording != nil {
		return nil, ErrRecording
	}
	cb, err := r.commandBuffer()
	if err != nil {
		if cb != nil {
			r.buffers = append(r.buffers, cb)
		}
		return nil, err
	}
	res := vk.BeginCommandBuffer(cb, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	})
	if err := check("begin command buffer", res); err != nil {
		r.buffers = append(r.buffers, cb)
		return nil, err
	}
	r.recording = NewRecorder(r.dev, cb)
	return r.recording, nil
}

func (r *Renderer) commandBuffer() (vk.CommandBuffer, error) {
	if n := len(r.buffers); n > 0 {
		cb := r.buffers[n-1]
		r.buffers = r.buffers[:n-1]
		return cb, check("reset command buffer", vk.ResetCommandBuffer(cb, 0))
	}
	cbs := make([]vk.CommandBuffer, 1)
	res := vk.AllocateCommandBuffers(r.dev.dev, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        r.pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}, cbs)
	if err := check("allocate command buffer", res); err != nil {
		return nil, err
	}
	return cbs[0], nil
}

func (r *Renderer) fence() (vk.Fence, error) {
	if n := len(r.fences); n > 0 {
		f := r.fences[n-1]
		r.fences = r.fences[:n-1]
		return f, check("reset fence", vk.ResetFences(r.dev.dev, 1, []vk.Fence{f}))
	}
	var f vk.Fence
	res := vk.CreateFence(r.dev.dev, &vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}, nil, &f)
	return f, check("create fence", res)
}

// Submit ends the open batch, submits it and returns its serial. Objects
// used by the batch stay alive until the serial completes.
func (r *Renderer) Submit() (serial.Serial, error) {
	rec := r.recording
	if rec == nil {
		return serial.Invalid, nil
	}
	r.recording = nil
	cb := rec.CommandBuffer()
	if err := check("end command buffer", vk.EndCommandBuffer(cb)); err != nil {
		r.buffers = append(r.buffers, cb)
		return serial.Invalid, err
	}
	f, err := r.fence()
	if err != nil {
		r.buffers = append(r.buffers, cb)
		return serial.Invalid, err
	}
	res := vk.QueueSubmit(r.queue, 1, []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cb},
	}}, f)
	if err := check("queue submit", res); err != nil {
		r.buffers = append(r.buffers, cb)
		vk.DestroyFence(r.dev.dev, f, nil)
		return serial.Invalid, err
	}
	s := r.Counter.Submit()
	r.inFlight = append(r.inFlight, submission{serial: s, fence: f, cb: cb})
	r.log.Debug("vulkan: batch submitted", "serial", s, "commands", rec.Len())
	return s, nil
}

// CheckCompleted polls the fences of in-flight batches without blocking,
// advances the completed serial and collects released objects.
func (r *Renderer) CheckCompleted() error {
	done := 0
	for _, sub := range r.inFlight {
		res := vk.GetFenceStatus(r.dev.dev, sub.fence)
		if res == vk.NotReady {
			break
		}
		if err := check("get fence status", res); err != nil {
			r.retire(done)
			return err
		}
		done++
	}
	r.retire(done)
	return nil
}

// retire completes the first n in-flight batches and recycles their fences
// and command buffers.
func (r *Renderer) retire(n int) {
	if n == 0 {
		return
	}
	for _, sub := range r.inFlight[:n] {
		r.fences = append(r.fences, sub.fence)
		r.buffers = append(r.buffers, sub.cb)
	}
	r.Complete(r.inFlight[n-1].serial)
	remaining := copy(r.inFlight, r.inFlight[n:])
	clear(r.inFlight[remaining:])
	r.inFlight = r.inFlight[:remaining]

	if collected := r.garbage.Collect(r.dev, r.LastCompletedQueueSerial()); collected > 0 {
		r.log.Debug("vulkan: released objects destroyed", "count", collected)
	}
}

// Finish implements native.Renderer. It submits the open batch, if any, and
// waits for every in-flight batch.
func (r *Renderer) Finish(ctx context.Context) error {
	if _, err := r.Submit(); err != nil {
		return err
	}
	for len(r.inFlight) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		last := r.inFlight[len(r.inFlight)-1]
		res := vk.WaitForFences(r.dev.dev, 1, []vk.Fence{last.fence}, vk.True, uint64(fenceWaitSlice))
		if res == vk.Timeout {
			continue
		}
		if err := check("wait for fences", res); err != nil {
			return err
		}
		r.retire(len(r.inFlight))
	}
	return nil
}

// Destroy waits for the device to go idle and destroys every released
// object, fence, command buffer and the command pool. Objects still held by
// vkres helpers must be released before Destroy.
func (r *Renderer) Destroy() {
	vk.DeviceWaitIdle(r.dev.dev)
	r.retire(len(r.inFlight))
	r.garbage.DestroyAll(r.dev)
	for _, f := range r.fences {
		vk.DestroyFence(r.dev.dev, f, nil)
	}
	r.fences = nil
	if r.recording != nil {
		r.buffers = append(r.buffers, r.recording.CommandBuffer())
		r.recording = nil
	}
	if len(r.buffers) > 0 {
		vk.FreeCommandBuffers(r.dev.dev, r.pool, uint32(len(r.buffers)), r.buffers)
		r.buffers = nil
	}
	vk.DestroyCommandPool(r.dev.dev, r.pool, nil)
}
