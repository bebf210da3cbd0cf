package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/gogpu/vkres/native"
)

// Device implements native.Device on a Vulkan logical device.
//
// Objects created through Device are owned by it and destroyed by the
// matching Destroy method. Imported objects are only looked up; destroying
// an imported image drops the handle without calling vkDestroyImage.
//
// Device is not safe for concurrent use.
type Device struct {
	phys vk.PhysicalDevice
	dev  vk.Device

	memoryTypes []vk.MemoryPropertyFlags
	limits      native.Limits

	buffers        table[vk.Buffer]
	bufferViews    table[vk.BufferView]
	images         table[vk.Image]
	imageViews     table[vk.ImageView]
	memory         table[vk.DeviceMemory]
	descPools      table[vk.DescriptorPool]
	descSets       table[vk.DescriptorSet]
	setLayouts     table[vk.DescriptorSetLayout]
	queryPools     table[vk.QueryPool]
	semaphores     table[vk.Semaphore]
	framebuffers   table[vk.Framebuffer]
	renderPasses   table[vk.RenderPass]
	shaderModules  table[vk.ShaderModule]
	pipelines      table[vk.Pipeline]
	pipeLayouts    table[vk.PipelineLayout]
	pipelineCaches table[vk.PipelineCache]

	importedImages map[native.Image]struct{}
	poolSets       map[native.DescriptorPool][]uint64
}

var _ native.Device = (*Device)(nil)

// NewDevice wraps a logical device created from phys.
func NewDevice(phys vk.PhysicalDevice, dev vk.Device) *Device {
	var memProps vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(phys, &memProps)
	memProps.Deref()
	types := make([]vk.MemoryPropertyFlags, memProps.MemoryTypeCount)
	for i := range types {
		t := memProps.MemoryTypes[i]
		t.Deref()
		types[i] = t.PropertyFlags
	}

	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(phys, &props)
	props.Deref()
	props.Limits.Deref()

	return &Device{
		phys:           phys,
		dev:            dev,
		memoryTypes:    types,
		limits:         native.Limits{NonCoherentAtomSize: props.Limits.NonCoherentAtomSize},
		buffers:        newTable[vk.Buffer](),
		bufferViews:    newTable[vk.BufferView](),
		images:         newTable[vk.Image](),
		imageViews:     newTable[vk.ImageView](),
		memory:         newTable[vk.DeviceMemory](),
		descPools:      newTable[vk.DescriptorPool](),
		descSets:       newTable[vk.DescriptorSet](),
		setLayouts:     newTable[vk.DescriptorSetLayout](),
		queryPools:     newTable[vk.QueryPool](),
		semaphores:     newTable[vk.Semaphore](),
		framebuffers:   newTable[vk.Framebuffer](),
		renderPasses:   newTable[vk.RenderPass](),
		shaderModules:  newTable[vk.ShaderModule](),
		pipelines:      newTable[vk.Pipeline](),
		pipeLayouts:    newTable[vk.PipelineLayout](),
		pipelineCaches: newTable[vk.PipelineCache](),
		importedImages: make(map[native.Image]struct{}),
		poolSets:       make(map[native.DescriptorPool][]uint64),
	}
}

// VkDevice returns the wrapped logical device.
func (d *Device) VkDevice() vk.Device { return d.dev }

// Limits returns the device limits read at creation.
func (d *Device) Limits() native.Limits { return d.limits }

// Live returns the number of owned and imported objects the device tracks.
func (d *Device) Live() int {
	return d.buffers.len() + d.bufferViews.len() + d.images.len() + d.imageViews.len() +
		d.memory.len() + d.descPools.len() + d.descSets.len() + d.queryPools.len() +
		d.semaphores.len() + d.framebuffers.len() + d.shaderModules.len() + d.pipelines.len()
}

// ImportImage registers an image owned elsewhere, such as a swapchain image.
func (d *Device) ImportImage(img vk.Image) native.Image {
	h := native.Image(d.images.put(img))
	d.importedImages[h] = struct{}{}
	return h
}

// ImportDescriptorSetLayout registers a descriptor set layout.
func (d *Device) ImportDescriptorSetLayout(l vk.DescriptorSetLayout) native.DescriptorSetLayout {
	return native.DescriptorSetLayout(d.setLayouts.put(l))
}

// ImportRenderPass registers a render pass.
func (d *Device) ImportRenderPass(rp vk.RenderPass) native.RenderPass {
	return native.RenderPass(d.renderPasses.put(rp))
}

// ImportPipelineLayout registers a pipeline layout.
func (d *Device) ImportPipelineLayout(l vk.PipelineLayout) native.PipelineLayout {
	return native.PipelineLayout(d.pipeLayouts.put(l))
}

// ImportPipelineCache registers a pipeline cache.
func (d *Device) ImportPipelineCache(c vk.PipelineCache) native.PipelineCache {
	return native.PipelineCache(d.pipelineCaches.put(c))
}

// VkBuffer returns the Vulkan buffer for b.
func (d *Device) VkBuffer(b native.Buffer) vk.Buffer { return d.buffers.lookup(uint64(b)) }

// VkBufferView returns the Vulkan buffer view for v.
func (d *Device) VkBufferView(v native.BufferView) vk.BufferView {
	return d.bufferViews.lookup(uint64(v))
}

// VkImage returns the Vulkan image for img.
func (d *Device) VkImage(img native.Image) vk.Image { return d.images.lookup(uint64(img)) }

// VkImageView returns the Vulkan image view for v.
func (d *Device) VkImageView(v native.ImageView) vk.ImageView {
	return d.imageViews.lookup(uint64(v))
}

// VkDescriptorSet returns the Vulkan descriptor set for s.
func (d *Device) VkDescriptorSet(s native.DescriptorSet) vk.DescriptorSet {
	return d.descSets.lookup(uint64(s))
}

// VkFramebuffer returns the Vulkan framebuffer for fb.
func (d *Device) VkFramebuffer(fb native.Framebuffer) vk.Framebuffer {
	return d.framebuffers.lookup(uint64(fb))
}

// VkPipeline returns the Vulkan pipeline for p.
func (d *Device) VkPipeline(p native.Pipeline) vk.Pipeline { return d.pipelines.lookup(uint64(p)) }

// VkQueryPool returns the Vulkan query pool for p.
func (d *Device) VkQueryPool(p native.QueryPool) vk.QueryPool {
	return d.queryPools.lookup(uint64(p))
}

// VkSemaphore returns the Vulkan semaphore for s.
func (d *Device) VkSemaphore(s native.Semaphore) vk.Semaphore {
	return d.semaphores.lookup(uint64(s))
}

// CreateBuffer implements native.Device.
func (d *Device) CreateBuffer(info native.BufferCreateInfo) (native.Buffer, error) {
	var buf vk.Buffer
	res := vk.CreateBuffer(d.dev, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        info.Size,
		Usage:       info.Usage,
		SharingMode: vk.SharingModeExclusive,
	}, nil, &buf)
	if err := check("create buffer", res); err != nil {
		return native.Null, err
	}
	return native.Buffer(d.buffers.put(buf)), nil
}

// DestroyBuffer implements native.Device.
func (d *Device) DestroyBuffer(b native.Buffer) {
	if buf, ok := d.buffers.take(uint64(b)); ok {
		vk.DestroyBuffer(d.dev, buf, nil)
	}
}

// CreateBufferView implements native.Device.
func (d *Device) CreateBufferView(info native.BufferViewCreateInfo) (native.BufferView, error) {
	buf, ok := d.buffers.get(uint64(info.Buffer))
	if !ok {
		return native.Null, fmt.Errorf("%w: buffer %d", ErrUnknownHandle, info.Buffer)
	}
	var view vk.BufferView
	res := vk.CreateBufferView(d.dev, &vk.BufferViewCreateInfo{
		SType:  vk.StructureTypeBufferViewCreateInfo,
		Buffer: buf,
		Format: info.Format,
		Offset: info.Offset,
		Range:  info.Range,
	}, nil, &view)
	if err := check("create buffer view", res); err != nil {
		return native.Null, err
	}
	return native.BufferView(d.bufferViews.put(view)), nil
}

// DestroyBufferView implements native.Device.
func (d *Device) DestroyBufferView(v native.BufferView) {
	if view, ok := d.bufferViews.take(uint64(v)); ok {
		vk.DestroyBufferView(d.dev, view, nil)
	}
}

// CreateImage implements native.Device.
func (d *Device) CreateImage(info native.ImageCreateInfo) (native.Image, error) {
	var img vk.Image
	res := vk.CreateImage(d.dev, &vk.ImageCreateInfo{
		SType:         vk.StructureTypeImageCreateInfo,
		Flags:         info.Flags,
		ImageType:     info.Type,
		Format:        info.Format,
		Extent:        vkExtent(info.Extent),
		MipLevels:     info.MipLevels,
		ArrayLayers:   info.ArrayLayers,
		Samples:       info.Samples,
		Tiling:        info.Tiling,
		Usage:         info.Usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: info.InitialLayout,
	}, nil, &img)
	if err := check("create image", res); err != nil {
		return native.Null, err
	}
	return native.Image(d.images.put(img)), nil
}

// DestroyImage implements native.Device.
func (d *Device) DestroyImage(h native.Image) {
	img, ok := d.images.take(uint64(h))
	if !ok {
		return
	}
	if _, imported := d.importedImages[h]; imported {
		delete(d.importedImages, h)
		return
	}
	vk.DestroyImage(d.dev, img, nil)
}

// CreateImageView implements native.Device.
func (d *Device) CreateImageView(info native.ImageViewCreateInfo) (native.ImageView, error) {
	img, ok := d.images.get(uint64(info.Image))
	if !ok {
		return native.Null, fmt.Errorf("%w: image %d", ErrUnknownHandle, info.Image)
	}
	var view vk.ImageView
	res := vk.CreateImageView(d.dev, &vk.ImageViewCreateInfo{
		SType:            vk.StructureTypeImageViewCreateInfo,
		Image:            img,
		ViewType:         info.ViewType,
		Format:           info.Format,
		Components:       vkComponents(info.Components),
		SubresourceRange: vkRange(info.Range),
	}, nil, &view)
	if err := check("create image view", res); err != nil {
		return native.Null, err
	}
	return native.ImageView(d.imageViews.put(view)), nil
}

// DestroyImageView implements native.Device.
func (d *Device) DestroyImageView(v native.ImageView) {
	if view, ok := d.imageViews.take(uint64(v)); ok {
		vk.DestroyImageView(d.dev, view, nil)
	}
}

// AllocateBufferMemory implements native.Device.
func (d *Device) AllocateBufferMemory(b native.Buffer, props vk.MemoryPropertyFlags) (native.DeviceMemory, vk.MemoryPropertyFlags, error) {
	buf, ok := d.buffers.get(uint64(b))
	if !ok {
		return native.Null, 0, fmt.Errorf("%w: buffer %d", ErrUnknownHandle, b)
	}
	var reqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.dev, buf, &reqs)
	reqs.Deref()

	mem, flags, err := d.allocate(reqs, props)
	if err != nil {
		return native.Null, 0, err
	}
	if err := check("bind buffer memory", vk.BindBufferMemory(d.dev, buf, mem, 0)); err != nil {
		vk.FreeMemory(d.dev, mem, nil)
		return native.Null, 0, err
	}
	return native.DeviceMemory(d.memory.put(mem)), flags, nil
}

// AllocateImageMemory implements native.Device.
func (d *Device) AllocateImageMemory(h native.Image, props vk.MemoryPropertyFlags) (native.DeviceMemory, vk.MemoryPropertyFlags, error) {
	img, ok := d.images.get(uint64(h))
	if !ok {
		return native.Null, 0, fmt.Errorf("%w: image %d", ErrUnknownHandle, h)
	}
	var reqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.dev, img, &reqs)
	reqs.Deref()

	mem, flags, err := d.allocate(reqs, props)
	if err != nil {
		return native.Null, 0, err
	}
	if err := check("bind image memory", vk.BindImageMemory(d.dev, img, mem, 0)); err != nil {
		vk.FreeMemory(d.dev, mem, nil)
		return native.Null, 0, err
	}
	return native.DeviceMemory(d.memory.put(mem)), flags, nil
}

func (d *Device) allocate(reqs vk.MemoryRequirements, props vk.MemoryPropertyFlags) (vk.DeviceMemory, vk.MemoryPropertyFlags, error) {
	index, ok := findMemoryType(d.memoryTypes, reqs.MemoryTypeBits, props)
	if !ok {
		return nil, 0, fmt.Errorf("%w: bits %#x, flags %#x", ErrNoMemoryType, reqs.MemoryTypeBits, props)
	}
	var mem vk.DeviceMemory
	res := vk.AllocateMemory(d.dev, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  reqs.Size,
		MemoryTypeIndex: index,
	}, nil, &mem)
	if err := check("allocate memory", res); err != nil {
		return nil, 0, err
	}
	return mem, d.memoryTypes[index], nil
}

// FreeMemory implements native.Device.
func (d *Device) FreeMemory(m native.DeviceMemory) {
	if mem, ok := d.memory.take(uint64(m)); ok {
		vk.FreeMemory(d.dev, mem, nil)
	}
}

// MapMemory implements native.Device.
func (d *Device) MapMemory(m native.DeviceMemory, offset, size vk.DeviceSize) ([]byte, error) {
	mem, ok := d.memory.get(uint64(m))
	if !ok {
		return nil, fmt.Errorf("%w: memory %d", ErrUnknownHandle, m)
	}
	var ptr unsafe.Pointer
	if err := check("map memory", vk.MapMemory(d.dev, mem, offset, size, 0, &ptr)); err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(ptr), int(size)), nil
}

// UnmapMemory implements native.Device.
func (d *Device) UnmapMemory(m native.DeviceMemory) {
	if mem, ok := d.memory.get(uint64(m)); ok {
		vk.UnmapMemory(d.dev, mem)
	}
}

// FlushMappedMemory implements native.Device.
func (d *Device) FlushMappedMemory(m native.DeviceMemory, offset, size vk.DeviceSize) error {
	mem, ok := d.memory.get(uint64(m))
	if !ok {
		return fmt.Errorf("%w: memory %d", ErrUnknownHandle, m)
	}
	ranges := []vk.MappedMemoryRange{{
		SType:  vk.StructureTypeMappedMemoryRange,
		Memory: mem,
		Offset: offset,
		Size:   size,
	}}
	return check("flush mapped memory", vk.FlushMappedMemoryRanges(d.dev, 1, ranges))
}

// InvalidateMappedMemory implements native.Device.
func (d *Device) InvalidateMappedMemory(m native.DeviceMemory, offset, size vk.DeviceSize) error {
	mem, ok := d.memory.get(uint64(m))
	if !ok {
		return fmt.Errorf("%w: memory %d", ErrUnknownHandle, m)
	}
	ranges := []vk.MappedMemoryRange{{
		SType:  vk.StructureTypeMappedMemoryRange,
		Memory: mem,
		Offset: offset,
		Size:   size,
	}}
	return check("invalidate mapped memory", vk.InvalidateMappedMemoryRanges(d.dev, 1, ranges))
}

// CreateDescriptorPool implements native.Device.
func (d *Device) CreateDescriptorPool(maxSets uint32, sizes []native.DescriptorPoolSize) (native.DescriptorPool, error) {
	var pool vk.DescriptorPool
	res := vk.CreateDescriptorPool(d.dev, &vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxSets,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    vkPoolSizes(sizes),
	}, nil, &pool)
	if err := check("create descriptor pool", res); err != nil {
		return native.Null, err
	}
	return native.DescriptorPool(d.descPools.put(pool)), nil
}

// DestroyDescriptorPool implements native.Device. Sets allocated from the
// pool are freed with it.
func (d *Device) DestroyDescriptorPool(p native.DescriptorPool) {
	pool, ok := d.descPools.take(uint64(p))
	if !ok {
		return
	}
	for _, s := range d.poolSets[p] {
		d.descSets.take(s)
	}
	delete(d.poolSets, p)
	vk.DestroyDescriptorPool(d.dev, pool, nil)
}

// AllocateDescriptorSets implements native.Device.
func (d *Device) AllocateDescriptorSets(p native.DescriptorPool, layouts []native.DescriptorSetLayout) ([]native.DescriptorSet, error) {
	pool, ok := d.descPools.get(uint64(p))
	if !ok {
		return nil, fmt.Errorf("%w: descriptor pool %d", ErrUnknownHandle, p)
	}
	if len(layouts) == 0 {
		return nil, nil
	}
	vkLayouts := make([]vk.DescriptorSetLayout, len(layouts))
	for i, l := range layouts {
		vl, ok := d.setLayouts.get(uint64(l))
		if !ok {
			return nil, fmt.Errorf("%w: descriptor set layout %d", ErrUnknownHandle, l)
		}
		vkLayouts[i] = vl
	}
	sets := make([]vk.DescriptorSet, len(layouts))
	res := vk.AllocateDescriptorSets(d.dev, &vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: uint32(len(vkLayouts)),
		PSetLayouts:        vkLayouts,
	}, &sets[0])
	if err := check("allocate descriptor sets", res); err != nil {
		return nil, err
	}
	out := make([]native.DescriptorSet, len(sets))
	for i, s := range sets {
		h := d.descSets.put(s)
		d.poolSets[p] = append(d.poolSets[p], h)
		out[i] = native.DescriptorSet(h)
	}
	return out, nil
}

// CreateQueryPool implements native.Device.
func (d *Device) CreateQueryPool(queryType vk.QueryType, count uint32) (native.QueryPool, error) {
	var pool vk.QueryPool
	res := vk.CreateQueryPool(d.dev, &vk.QueryPoolCreateInfo{
		SType:      vk.StructureTypeQueryPoolCreateInfo,
		QueryType:  queryType,
		QueryCount: count,
	}, nil, &pool)
	if err := check("create query pool", res); err != nil {
		return native.Null, err
	}
	return native.QueryPool(d.queryPools.put(pool)), nil
}

// DestroyQueryPool implements native.Device.
func (d *Device) DestroyQueryPool(p native.QueryPool) {
	if pool, ok := d.queryPools.take(uint64(p)); ok {
		vk.DestroyQueryPool(d.dev, pool, nil)
	}
}

// CreateSemaphore implements native.Device.
func (d *Device) CreateSemaphore() (native.Semaphore, error) {
	var s vk.Semaphore
	res := vk.CreateSemaphore(d.dev, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, nil, &s)
	if err := check("create semaphore", res); err != nil {
		return native.Null, err
	}
	return native.Semaphore(d.semaphores.put(s)), nil
}

// DestroySemaphore implements native.Device.
func (d *Device) DestroySemaphore(s native.Semaphore) {
	if sem, ok := d.semaphores.take(uint64(s)); ok {
		vk.DestroySemaphore(d.dev, sem, nil)
	}
}

// CreateFramebuffer implements native.Device.
func (d *Device) CreateFramebuffer(info native.FramebufferCreateInfo) (native.Framebuffer, error) {
	rp, ok := d.renderPasses.get(uint64(info.RenderPass))
	if !ok {
		return native.Null, fmt.Errorf("%w: render pass %d", ErrUnknownHandle, info.RenderPass)
	}
	views := make([]vk.ImageView, len(info.Attachments))
	for i, a := range info.Attachments {
		v, ok := d.imageViews.get(uint64(a))
		if !ok {
			return native.Null, fmt.Errorf("%w: image view %d", ErrUnknownHandle, a)
		}
		views[i] = v
	}
	var fb vk.Framebuffer
	res := vk.CreateFramebuffer(d.dev, &vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      rp,
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           info.Width,
		Height:          info.Height,
		Layers:          info.Layers,
	}, nil, &fb)
	if err := check("create framebuffer", res); err != nil {
		return native.Null, err
	}
	return native.Framebuffer(d.framebuffers.put(fb)), nil
}

// DestroyFramebuffer implements native.Device.
func (d *Device) DestroyFramebuffer(f native.Framebuffer) {
	if fb, ok := d.framebuffers.take(uint64(f)); ok {
		vk.DestroyFramebuffer(d.dev, fb, nil)
	}
}

// CreateShaderModule implements native.Device.
func (d *Device) CreateShaderModule(code []uint32) (native.ShaderModule, error) {
	if len(code) == 0 {
		return native.Null, fmt.Errorf("vulkan: create shader module: empty code")
	}
	var m vk.ShaderModule
	res := vk.CreateShaderModule(d.dev, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code) * 4),
		PCode:    code,
	}, nil, &m)
	if err := check("create shader module", res); err != nil {
		return native.Null, err
	}
	return native.ShaderModule(d.shaderModules.put(m)), nil
}

// DestroyShaderModule implements native.Device.
func (d *Device) DestroyShaderModule(m native.ShaderModule) {
	if mod, ok := d.shaderModules.take(uint64(m)); ok {
		vk.DestroyShaderModule(d.dev, mod, nil)
	}
}

// CreateComputePipeline implements native.Device.
func (d *Device) CreateComputePipeline(info native.ComputePipelineCreateInfo) (native.Pipeline, error) {
	mod, ok := d.shaderModules.get(uint64(info.Module))
	if !ok {
		return native.Null, fmt.Errorf("%w: shader module %d", ErrUnknownHandle, info.Module)
	}
	layout, ok := d.pipeLayouts.get(uint64(info.Layout))
	if !ok {
		return native.Null, fmt.Errorf("%w: pipeline layout %d", ErrUnknownHandle, info.Layout)
	}
	cache := d.pipelineCaches.lookup(uint64(info.Cache))

	pipelines := make([]vk.Pipeline, 1)
	res := vk.CreateComputePipelines(d.dev, cache, 1, []vk.ComputePipelineCreateInfo{{
		SType: vk.StructureTypeComputePipelineCreateInfo,
		Stage: vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageComputeBit,
			Module: mod,
			PName:  cString(info.EntryPoint),
		},
		Layout: layout,
	}}, nil, pipelines)
	if err := check("create compute pipeline", res); err != nil {
		return native.Null, err
	}
	return native.Pipeline(d.pipelines.put(pipelines[0])), nil
}

// DestroyPipeline implements native.Device.
func (d *Device) DestroyPipeline(p native.Pipeline) {
	if pipe, ok := d.pipelines.take(uint64(p)); ok {
		vk.DestroyPipeline(d.dev, pipe, nil)
	}
}
