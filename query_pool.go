package vkres

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"

	"github.com/gogpu/vkres/native"
	"github.com/gogpu/vkres/serial"
)

// DynamicQueryPool hands out query slots from native query pools of a fixed
// size, creating a new native pool when the current one runs out and
// recycling pools whose queries were all freed.
type DynamicQueryPool struct {
	entryPool[native.QueryPool]
	queryType vk.QueryType
}

// Init creates the first native pool of poolSize queries of queryType.
func (p *DynamicQueryPool) Init(r native.Renderer, queryType vk.QueryType, poolSize uint32) error {
	p.initEntryPool(poolSize)
	p.queryType = queryType
	return p.allocateNewPool(r)
}

// Destroy destroys every native pool immediately.
func (p *DynamicQueryPool) Destroy(d native.Device) {
	p.destroyEntryPool(d.DestroyQueryPool)
}

// AllocateQuery assigns the next free query slot to q.
func (p *DynamicQueryPool) AllocateQuery(r native.Renderer, q *QueryHelper) error {
	if q.Valid() {
		panic("vkres: query helper already holds a query")
	}
	if p.exhausted() {
		if err := p.allocateNewPool(r); err != nil {
			return err
		}
	}
	slab, query := p.takeEntry()
	q.init(p, slab, query)
	return nil
}

// FreeQuery returns the slot held by q to its pool. It does nothing for an
// empty helper.
func (p *DynamicQueryPool) FreeQuery(r native.Renderer, q *QueryHelper) {
	if !q.Valid() {
		return
	}
	p.onEntryFreed(r, q.slab)
	q.deinit()
}

// Stats returns the slab layout of the pool.
func (p *DynamicQueryPool) Stats() PoolStats { return p.poolStats() }

func (p *DynamicQueryPool) allocateNewPool(r native.Renderer) error {
	if p.findFreeEntryPool(r) {
		return nil
	}
	pool, err := r.Device().CreateQueryPool(p.queryType, p.poolSize)
	if err != nil {
		return fmt.Errorf("vkres: create query pool: %w", err)
	}
	p.allocateNewEntryPool(pool)
	Logger().Debug("vkres: query pool grown",
		"slabs", len(p.slabs), "size", p.poolSize, "type", p.queryType)
	return nil
}

// QueryHelper holds one query slot allocated from a DynamicQueryPool.
type QueryHelper struct {
	pool       *DynamicQueryPool
	slab       int
	query      uint32
	mostRecent serial.Serial
}

func (q *QueryHelper) init(pool *DynamicQueryPool, slab int, query uint32) {
	q.pool = pool
	q.slab = slab
	q.query = query
	q.mostRecent = serial.Invalid
}

func (q *QueryHelper) deinit() {
	q.pool = nil
	q.slab = 0
	q.query = 0
	q.mostRecent = serial.Invalid
}

// Valid reports whether q holds a query slot.
func (q *QueryHelper) Valid() bool { return q.pool != nil }

// QueryPool returns the native pool containing the slot.
func (q *QueryHelper) QueryPool() native.QueryPool {
	return q.pool.slabs[q.slab]
}

// Query returns the slot index within QueryPool.
func (q *QueryHelper) Query() uint32 { return q.query }

// BeginQuery records the start of the query.
func (q *QueryHelper) BeginQuery(c serial.Clock, rec native.QueryRecorder) {
	rec.BeginQuery(q.QueryPool(), q.query)
	q.mostRecent = c.CurrentQueueSerial()
}

// EndQuery records the end of the query.
func (q *QueryHelper) EndQuery(c serial.Clock, rec native.QueryRecorder) {
	rec.EndQuery(q.QueryPool(), q.query)
	q.mostRecent = c.CurrentQueueSerial()
}

// WriteTimestamp records a bottom-of-pipe timestamp into the slot.
func (q *QueryHelper) WriteTimestamp(c serial.Clock, rec native.QueryRecorder) {
	rec.WriteTimestamp(vk.PipelineStageBottomOfPipeBit, q.QueryPool(), q.query)
	q.mostRecent = c.CurrentQueueSerial()
}

// HasPendingWork reports whether the query was last used in the batch still
// being recorded, so its result cannot be available before a submit.
func (q *QueryHelper) HasPendingWork(c serial.Clock) bool {
	return q.mostRecent.Valid() && q.mostRecent == c.CurrentQueueSerial()
}
