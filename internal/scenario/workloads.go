package scenario

import (
	"context"
	"fmt"
	"image"
	"image/color"

	vk "github.com/vulkan-go/vulkan"

	"github.com/gogpu/vkres"
	"github.com/gogpu/vkres/backend"
	"github.com/gogpu/vkres/internal/config"
	"github.com/gogpu/vkres/native"
)

const uploadImageUsage = vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit | vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit)

func init() {
	register(Scenario{
		Name:        "upload",
		Description: "stage a gradient and its host-generated mip chain, flush it and sample the image",
		Run:         runUpload,
	})
	register(Scenario{
		Name:        "blit",
		Description: "stage level 0 each frame and generate the mip chain with blits",
		Run:         runBlit,
	})
	register(Scenario{
		Name:        "descriptors",
		Description: "allocate descriptor sets every frame and watch pools roll over",
		Run:         runDescriptors,
	})
	register(Scenario{
		Name:        "queries",
		Description: "write timestamps and cycle semaphores through slab pools",
		Run:         runQueries,
	})
	register(Scenario{
		Name:        "lineloop",
		Description: "draw a line loop each frame from generated indices",
		Run:         runLineLoop,
	})
}

func recorder(r backend.Renderer) (native.Recorder, error) {
	rec, err := r.Recorder()
	if err != nil {
		return nil, fmt.Errorf("open recorder: %w", err)
	}
	return rec, nil
}

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 255 / max(w-1, 1)), G: uint8(y * 255 / max(h-1, 1)), A: 0xff})
		}
	}
	return img
}

func newImage(r backend.Renderer, cfg *config.Config) (*vkres.ImageHelper, error) {
	img := vkres.NewImageHelper(vkres.WithStagingBufferSize(vk.DeviceSize(cfg.Image.StagingBufferSize)))
	err := img.Init(r, vkres.ImageCreateInfo{
		Type:       vkres.TextureType2D,
		Extents:    native.Extent3D{Width: cfg.Image.Width, Height: cfg.Image.Height, Depth: 1},
		Format:     vkres.MustLookupFormat(vk.FormatR8g8b8a8Unorm),
		Samples:    1,
		Usage:      uploadImageUsage,
		MipLevels:  cfg.Image.MipLevels,
		LayerCount: 1,
	})
	if err != nil {
		return nil, err
	}
	if err := img.InitMemory(r, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)); err != nil {
		img.Release(r)
		return nil, err
	}
	return img, nil
}

func stageLevel0(r backend.Renderer, img *vkres.ImageHelper, level0 *image.RGBA) error {
	ext := img.LevelExtents(0)
	return img.StageSubresourceUpdate(r, vkres.ImageIndex{}, ext, native.Offset3D{}, img.Format(),
		vkres.PixelData{Type: vkres.PixelTypeRGBA8, Pixels: level0.Pix})
}

func runUpload(ctx context.Context, r backend.Renderer, cfg *config.Config) (*Report, error) {
	img, err := newImage(r, cfg)
	if err != nil {
		return nil, err
	}
	defer img.Release(r)

	rep := &Report{Frames: cfg.Frames}
	level0 := gradient(int(cfg.Image.Width), int(cfg.Image.Height))
	staged := 0
	for range cfg.Frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := recorder(r)
		if err != nil {
			return nil, err
		}
		if err := stageLevel0(r, img, level0); err != nil {
			return nil, err
		}
		if err := img.GenerateMipmapsOnHost(r, level0, vkres.ImageIndex{}, img.LevelCount()-1); err != nil {
			return nil, err
		}
		staged += img.StagedUpdateCount()
		if err := img.FlushStagedUpdates(r, 0, img.LevelCount(), rec); err != nil {
			return nil, err
		}
		img.ChangeLayout(img.AspectFlags(), vkres.ImageLayoutFragmentShaderReadOnly, rec)
		if err := r.Flush(); err != nil {
			return nil, err
		}
	}
	rep.add("mip levels", img.LevelCount())
	rep.add("updates staged", staged)
	rep.add("updates pending", img.StagedUpdateCount())
	rep.add("final layout", img.CurrentLayout())
	return rep, nil
}

func runBlit(ctx context.Context, r backend.Renderer, cfg *config.Config) (*Report, error) {
	img, err := newImage(r, cfg)
	if err != nil {
		return nil, err
	}
	defer img.Release(r)

	level0 := gradient(int(cfg.Image.Width), int(cfg.Image.Height))
	for range cfg.Frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := recorder(r)
		if err != nil {
			return nil, err
		}
		if err := stageLevel0(r, img, level0); err != nil {
			return nil, err
		}
		if err := img.FlushStagedUpdates(r, 0, 1, rec); err != nil {
			return nil, err
		}
		if err := img.GenerateMipmapsWithBlit(rec, img.LevelCount()-1); err != nil {
			return nil, err
		}
		if err := r.Flush(); err != nil {
			return nil, err
		}
	}
	rep := &Report{Frames: cfg.Frames}
	rep.add("mip levels", img.LevelCount())
	rep.add("final layout", img.CurrentLayout())
	return rep, nil
}

func runDescriptors(ctx context.Context, r backend.Renderer, cfg *config.Config) (*Report, error) {
	var pool vkres.DynamicDescriptorPool
	sizes := []native.DescriptorPoolSize{
		{Type: vk.DescriptorTypeUniformBuffer, Count: 1},
		{Type: vk.DescriptorTypeCombinedImageSampler, Count: 2},
	}
	if err := pool.Init(r, sizes, vkres.WithMaxSetsPerPool(cfg.Pools.MaxSetsPerPool)); err != nil {
		return nil, err
	}
	var binding vkres.DescriptorPoolBinding
	defer func() {
		binding.Reset()
		pool.Release(r)
	}()

	const layout native.DescriptorSetLayout = 1
	allocated := 0
	for range cfg.Frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sets, err := pool.AllocateSets(r, layout, cfg.Pools.SetsPerFrame, &binding)
		if err != nil {
			return nil, err
		}
		allocated += len(sets)
		if err := r.Flush(); err != nil {
			return nil, err
		}
	}
	rep := &Report{Frames: cfg.Frames}
	rep.add("sets allocated", allocated)
	rep.add("native pools", pool.PoolCount())
	return rep, nil
}

func runQueries(ctx context.Context, r backend.Renderer, cfg *config.Config) (*Report, error) {
	var queries vkres.DynamicQueryPool
	if err := queries.Init(r, vk.QueryTypeTimestamp, cfg.Pools.QueryPoolSize); err != nil {
		return nil, err
	}
	defer queries.Destroy(r.Device())

	var semaphores vkres.DynamicSemaphorePool
	if err := semaphores.Init(r, cfg.Pools.SemaphorePoolSize); err != nil {
		return nil, err
	}
	defer semaphores.Destroy(r.Device())

	helpers := make([]vkres.QueryHelper, cfg.Pools.QueriesPerFrame)
	sems := make([]vkres.SemaphoreHelper, cfg.Pools.SemaphoresPerFrame)
	for range cfg.Frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := recorder(r)
		if err != nil {
			return nil, err
		}
		qrec, ok := rec.(native.QueryRecorder)
		if !ok {
			return nil, fmt.Errorf("%s recorder cannot record queries", r.Name())
		}
		for i := range helpers {
			if err := queries.AllocateQuery(r, &helpers[i]); err != nil {
				return nil, err
			}
			helpers[i].WriteTimestamp(r, qrec)
		}
		for i := range sems {
			if err := semaphores.AllocateSemaphore(r, &sems[i]); err != nil {
				return nil, err
			}
		}
		if err := r.Flush(); err != nil {
			return nil, err
		}
		for i := range helpers {
			queries.FreeQuery(r, &helpers[i])
		}
		for i := range sems {
			semaphores.FreeSemaphore(r, &sems[i])
		}
	}
	rep := &Report{Frames: cfg.Frames}
	qs, ss := queries.Stats(), semaphores.Stats()
	rep.add("query slabs", qs.Slabs)
	rep.add("query slab size", qs.SlabSize)
	rep.add("semaphore slabs", ss.Slabs)
	rep.add("semaphore slab size", ss.SlabSize)
	return rep, nil
}

func runLineLoop(ctx context.Context, r backend.Renderer, cfg *config.Config) (*Report, error) {
	loop := vkres.NewLineLoopHelper(r, vkres.WithLineLoopBufferSize(vk.DeviceSize(cfg.LineLoop.BufferSize)))
	defer loop.Release(r)

	var lastOffset vk.DeviceSize
	buffers := map[native.Buffer]struct{}{}
	for frame := range cfg.Frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		buf, offset, err := loop.GetIndexBufferForDrawArrays(r, cfg.LineLoop.Vertices, uint32(frame))
		if err != nil {
			return nil, err
		}
		buffers[buf.Buffer()] = struct{}{}
		lastOffset = offset

		rec, err := recorder(r)
		if err != nil {
			return nil, err
		}
		vkres.DrawLineLoop(rec, cfg.LineLoop.Vertices)
		if err := r.Flush(); err != nil {
			return nil, err
		}
	}
	rep := &Report{Frames: cfg.Frames}
	rep.add("index buffers", len(buffers))
	rep.add("last offset", uint64(lastOffset))
	return rep, nil
}
