package nativetest

import (
	"errors"
	"fmt"

	vk "github.com/vulkan-go/vulkan"

	"github.com/gogpu/vkres/native"
)

// Errors returned by Device.
var (
	// ErrPoolExhausted is returned when a descriptor pool has no sets left.
	ErrPoolExhausted = errors.New("nativetest: descriptor pool exhausted")

	// ErrUnknownHandle is returned for handles the device never created.
	ErrUnknownHandle = errors.New("nativetest: unknown handle")

	// ErrInjected is the default error for failures set with FailNext.
	ErrInjected = errors.New("nativetest: injected failure")
)

// Memory is a host-backed device memory allocation.
type Memory struct {
	Data       []byte
	Properties vk.MemoryPropertyFlags
	Mapped     bool
	Flushes    []Range
	Invalids   []Range
}

// Range is a flushed or invalidated byte range.
type Range struct {
	Offset vk.DeviceSize
	Size   vk.DeviceSize
}

// DescriptorPoolState tracks allocations from a descriptor pool.
type DescriptorPoolState struct {
	MaxSets   uint32
	Sizes     []native.DescriptorPoolSize
	Allocated uint32
}

// Device is an in-memory native.Device.
//
// Handles are allocated from a single counter, so handles of different types
// never collide. Memory property requests are granted as asked, plus
// ExtraMemoryProperties.
type Device struct {
	// ExtraMemoryProperties is added to every granted memory type.
	// Set it to vk.MemoryPropertyHostCoherentBit to emulate coherent memory.
	ExtraMemoryProperties vk.MemoryPropertyFlags

	next uint64
	live map[native.Object]struct{}

	created   map[native.ObjectType]int
	destroyed map[native.ObjectType]int

	buffers         map[native.Buffer]native.BufferCreateInfo
	bufferMemory    map[native.Buffer]native.DeviceMemory
	images          map[native.Image]native.ImageCreateInfo
	memory          map[native.DeviceMemory]*Memory
	descriptorPools map[native.DescriptorPool]*DescriptorPoolState
	queryPools      map[native.QueryPool]uint32
	shaderCode      map[native.ShaderModule][]uint32

	failures map[string]error
}

var _ native.Device = (*Device)(nil)

// NewDevice returns an empty device.
func NewDevice() *Device {
	return &Device{
		live:            make(map[native.Object]struct{}),
		created:         make(map[native.ObjectType]int),
		destroyed:       make(map[native.ObjectType]int),
		buffers:         make(map[native.Buffer]native.BufferCreateInfo),
		bufferMemory:    make(map[native.Buffer]native.DeviceMemory),
		images:          make(map[native.Image]native.ImageCreateInfo),
		memory:          make(map[native.DeviceMemory]*Memory),
		descriptorPools: make(map[native.DescriptorPool]*DescriptorPoolState),
		queryPools:      make(map[native.QueryPool]uint32),
		shaderCode:      make(map[native.ShaderModule][]uint32),
		failures:        make(map[string]error),
	}
}

// FailNext makes the next call to method return err (ErrInjected if nil).
func (d *Device) FailNext(method string, err error) {
	if err == nil {
		err = ErrInjected
	}
	d.failures[method] = err
}

func (d *Device) fail(method string) error {
	if err, ok := d.failures[method]; ok {
		delete(d.failures, method)
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

func (d *Device) add(t native.ObjectType) uint64 {
	d.next++
	d.live[native.Object{Type: t, Handle: d.next}] = struct{}{}
	d.created[t]++
	return d.next
}

func (d *Device) remove(t native.ObjectType, h uint64) bool {
	if h == native.Null {
		return false
	}
	obj := native.Object{Type: t, Handle: h}
	if _, ok := d.live[obj]; !ok {
		panic("nativetest: destroy of dead or unknown " + obj.String())
	}
	delete(d.live, obj)
	d.destroyed[t]++
	return true
}

// Live returns the number of live objects of type t.
func (d *Device) Live(t native.ObjectType) int {
	n := 0
	for obj := range d.live {
		if obj.Type == t {
			n++
		}
	}
	return n
}

// LiveTotal returns the number of live objects of every type.
func (d *Device) LiveTotal() int { return len(d.live) }

// IsLive reports whether obj has been created and not destroyed.
func (d *Device) IsLive(obj native.Object) bool {
	_, ok := d.live[obj]
	return ok
}

// Created returns how many objects of type t were ever created.
func (d *Device) Created(t native.ObjectType) int { return d.created[t] }

// Destroyed returns how many objects of type t were destroyed.
func (d *Device) Destroyed(t native.ObjectType) int { return d.destroyed[t] }

// BufferInfo returns the create info of b.
func (d *Device) BufferInfo(b native.Buffer) native.BufferCreateInfo { return d.buffers[b] }

// ImageInfo returns the create info of img.
func (d *Device) ImageInfo(img native.Image) native.ImageCreateInfo { return d.images[img] }

// Memory returns the allocation behind mem.
func (d *Device) Memory(mem native.DeviceMemory) *Memory { return d.memory[mem] }

// BufferBytes returns the memory bound to b, or nil if none is bound.
func (d *Device) BufferBytes(b native.Buffer) []byte {
	m, ok := d.memory[d.bufferMemory[b]]
	if !ok {
		return nil
	}
	return m.Data
}

// DescriptorPool returns the allocation state of p.
func (d *Device) DescriptorPool(p native.DescriptorPool) *DescriptorPoolState {
	return d.descriptorPools[p]
}

// CreateBuffer implements native.Device.
func (d *Device) CreateBuffer(info native.BufferCreateInfo) (native.Buffer, error) {
	if err := d.fail("CreateBuffer"); err != nil {
		return native.Null, err
	}
	b := native.Buffer(d.add(native.ObjectBuffer))
	d.buffers[b] = info
	return b, nil
}

// DestroyBuffer implements native.Device.
func (d *Device) DestroyBuffer(b native.Buffer) {
	if d.remove(native.ObjectBuffer, uint64(b)) {
		delete(d.buffers, b)
		delete(d.bufferMemory, b)
	}
}

// CreateBufferView implements native.Device.
func (d *Device) CreateBufferView(info native.BufferViewCreateInfo) (native.BufferView, error) {
	if err := d.fail("CreateBufferView"); err != nil {
		return native.Null, err
	}
	if _, ok := d.buffers[info.Buffer]; !ok {
		return native.Null, ErrUnknownHandle
	}
	return native.BufferView(d.add(native.ObjectBufferView)), nil
}

// DestroyBufferView implements native.Device.
func (d *Device) DestroyBufferView(v native.BufferView) {
	d.remove(native.ObjectBufferView, uint64(v))
}

// CreateImage implements native.Device.
func (d *Device) CreateImage(info native.ImageCreateInfo) (native.Image, error) {
	if err := d.fail("CreateImage"); err != nil {
		return native.Null, err
	}
	img := native.Image(d.add(native.ObjectImage))
	d.images[img] = info
	return img, nil
}

// DestroyImage implements native.Device.
func (d *Device) DestroyImage(img native.Image) {
	if d.remove(native.ObjectImage, uint64(img)) {
		delete(d.images, img)
	}
}

// CreateImageView implements native.Device.
func (d *Device) CreateImageView(info native.ImageViewCreateInfo) (native.ImageView, error) {
	if err := d.fail("CreateImageView"); err != nil {
		return native.Null, err
	}
	if _, ok := d.images[info.Image]; !ok {
		return native.Null, ErrUnknownHandle
	}
	return native.ImageView(d.add(native.ObjectImageView)), nil
}

// DestroyImageView implements native.Device.
func (d *Device) DestroyImageView(v native.ImageView) {
	d.remove(native.ObjectImageView, uint64(v))
}

func (d *Device) allocate(size vk.DeviceSize, props vk.MemoryPropertyFlags) (native.DeviceMemory, vk.MemoryPropertyFlags) {
	granted := props | d.ExtraMemoryProperties
	mem := native.DeviceMemory(d.add(native.ObjectDeviceMemory))
	d.memory[mem] = &Memory{Data: make([]byte, size), Properties: granted}
	return mem, granted
}

// AllocateBufferMemory implements native.Device.
func (d *Device) AllocateBufferMemory(b native.Buffer, props vk.MemoryPropertyFlags) (native.DeviceMemory, vk.MemoryPropertyFlags, error) {
	if err := d.fail("AllocateBufferMemory"); err != nil {
		return native.Null, 0, err
	}
	info, ok := d.buffers[b]
	if !ok {
		return native.Null, 0, ErrUnknownHandle
	}
	mem, granted := d.allocate(info.Size, props)
	d.bufferMemory[b] = mem
	return mem, granted, nil
}

// AllocateImageMemory implements native.Device.
// Images are backed by four bytes per texel of every level and layer.
func (d *Device) AllocateImageMemory(img native.Image, props vk.MemoryPropertyFlags) (native.DeviceMemory, vk.MemoryPropertyFlags, error) {
	if err := d.fail("AllocateImageMemory"); err != nil {
		return native.Null, 0, err
	}
	info, ok := d.images[img]
	if !ok {
		return native.Null, 0, ErrUnknownHandle
	}
	size := vk.DeviceSize(info.Extent.Width) * vk.DeviceSize(info.Extent.Height) *
		vk.DeviceSize(max(info.Extent.Depth, 1)) * vk.DeviceSize(max(info.ArrayLayers, 1)) * 4
	mem, granted := d.allocate(size, props)
	return mem, granted, nil
}

// FreeMemory implements native.Device.
func (d *Device) FreeMemory(mem native.DeviceMemory) {
	if d.remove(native.ObjectDeviceMemory, uint64(mem)) {
		delete(d.memory, mem)
	}
}

// MapMemory implements native.Device.
func (d *Device) MapMemory(mem native.DeviceMemory, offset, size vk.DeviceSize) ([]byte, error) {
	if err := d.fail("MapMemory"); err != nil {
		return nil, err
	}
	m, ok := d.memory[mem]
	if !ok {
		return nil, ErrUnknownHandle
	}
	if m.Properties&vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit) == 0 {
		panic("nativetest: mapping memory that is not host visible")
	}
	if m.Mapped {
		panic("nativetest: memory is already mapped")
	}
	if offset+size > vk.DeviceSize(len(m.Data)) {
		return nil, fmt.Errorf("nativetest: map range [%d, %d) exceeds %d bytes", offset, offset+size, len(m.Data))
	}
	m.Mapped = true
	return m.Data[offset : offset+size : offset+size], nil
}

// UnmapMemory implements native.Device.
func (d *Device) UnmapMemory(mem native.DeviceMemory) {
	m, ok := d.memory[mem]
	if !ok || !m.Mapped {
		panic("nativetest: unmapping memory that is not mapped")
	}
	m.Mapped = false
}

// FlushMappedMemory implements native.Device.
func (d *Device) FlushMappedMemory(mem native.DeviceMemory, offset, size vk.DeviceSize) error {
	if err := d.fail("FlushMappedMemory"); err != nil {
		return err
	}
	m, ok := d.memory[mem]
	if !ok {
		return ErrUnknownHandle
	}
	m.Flushes = append(m.Flushes, Range{Offset: offset, Size: size})
	return nil
}

// InvalidateMappedMemory implements native.Device.
func (d *Device) InvalidateMappedMemory(mem native.DeviceMemory, offset, size vk.DeviceSize) error {
	if err := d.fail("InvalidateMappedMemory"); err != nil {
		return err
	}
	m, ok := d.memory[mem]
	if !ok {
		return ErrUnknownHandle
	}
	m.Invalids = append(m.Invalids, Range{Offset: offset, Size: size})
	return nil
}

// CreateDescriptorPool implements native.Device.
func (d *Device) CreateDescriptorPool(maxSets uint32, sizes []native.DescriptorPoolSize) (native.DescriptorPool, error) {
	if err := d.fail("CreateDescriptorPool"); err != nil {
		return native.Null, err
	}
	p := native.DescriptorPool(d.add(native.ObjectDescriptorPool))
	d.descriptorPools[p] = &DescriptorPoolState{
		MaxSets: maxSets,
		Sizes:   append([]native.DescriptorPoolSize(nil), sizes...),
	}
	return p, nil
}

// DestroyDescriptorPool implements native.Device.
func (d *Device) DestroyDescriptorPool(p native.DescriptorPool) {
	if d.remove(native.ObjectDescriptorPool, uint64(p)) {
		delete(d.descriptorPools, p)
	}
}

// AllocateDescriptorSets implements native.Device.
// Sets are owned by their pool and are not tracked as live objects.
func (d *Device) AllocateDescriptorSets(p native.DescriptorPool, layouts []native.DescriptorSetLayout) ([]native.DescriptorSet, error) {
	if err := d.fail("AllocateDescriptorSets"); err != nil {
		return nil, err
	}
	state, ok := d.descriptorPools[p]
	if !ok {
		return nil, ErrUnknownHandle
	}
	if state.Allocated+uint32(len(layouts)) > state.MaxSets {
		return nil, ErrPoolExhausted
	}
	state.Allocated += uint32(len(layouts))
	sets := make([]native.DescriptorSet, len(layouts))
	for i := range sets {
		d.next++
		sets[i] = native.DescriptorSet(d.next)
	}
	return sets, nil
}

// CreateQueryPool implements native.Device.
func (d *Device) CreateQueryPool(queryType vk.QueryType, count uint32) (native.QueryPool, error) {
	if err := d.fail("CreateQueryPool"); err != nil {
		return native.Null, err
	}
	p := native.QueryPool(d.add(native.ObjectQueryPool))
	d.queryPools[p] = count
	return p, nil
}

// DestroyQueryPool implements native.Device.
func (d *Device) DestroyQueryPool(p native.QueryPool) {
	if d.remove(native.ObjectQueryPool, uint64(p)) {
		delete(d.queryPools, p)
	}
}

// CreateSemaphore implements native.Device.
func (d *Device) CreateSemaphore() (native.Semaphore, error) {
	if err := d.fail("CreateSemaphore"); err != nil {
		return native.Null, err
	}
	return native.Semaphore(d.add(native.ObjectSemaphore)), nil
}

// DestroySemaphore implements native.Device.
func (d *Device) DestroySemaphore(s native.Semaphore) {
	d.remove(native.ObjectSemaphore, uint64(s))
}

// CreateFramebuffer implements native.Device.
func (d *Device) CreateFramebuffer(info native.FramebufferCreateInfo) (native.Framebuffer, error) {
	if err := d.fail("CreateFramebuffer"); err != nil {
		return native.Null, err
	}
	return native.Framebuffer(d.add(native.ObjectFramebuffer)), nil
}

// DestroyFramebuffer implements native.Device.
func (d *Device) DestroyFramebuffer(fb native.Framebuffer) {
	d.remove(native.ObjectFramebuffer, uint64(fb))
}

// CreateShaderModule implements native.Device.
func (d *Device) CreateShaderModule(code []uint32) (native.ShaderModule, error) {
	if err := d.fail("CreateShaderModule"); err != nil {
		return native.Null, err
	}
	if len(code) == 0 {
		return native.Null, errors.New("nativetest: empty shader code")
	}
	m := native.ShaderModule(d.add(native.ObjectShaderModule))
	d.shaderCode[m] = append([]uint32(nil), code...)
	return m, nil
}

// DestroyShaderModule implements native.Device.
func (d *Device) DestroyShaderModule(m native.ShaderModule) {
	if d.remove(native.ObjectShaderModule, uint64(m)) {
		delete(d.shaderCode, m)
	}
}

// CreateComputePipeline implements native.Device.
func (d *Device) CreateComputePipeline(info native.ComputePipelineCreateInfo) (native.Pipeline, error) {
	if err := d.fail("CreateComputePipeline"); err != nil {
		return native.Null, err
	}
	if _, ok := d.shaderCode[info.Module]; !ok {
		return native.Null, ErrUnknownHandle
	}
	return native.Pipeline(d.add(native.ObjectPipeline)), nil
}

// DestroyPipeline implements native.Device.
func (d *Device) DestroyPipeline(p native.Pipeline) {
	d.remove(native.ObjectPipeline, uint64(p))
}
