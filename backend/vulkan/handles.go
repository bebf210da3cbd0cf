package vulkan

// table maps the opaque uint64 handles given to vkres to Vulkan objects.
// Handle 0 is never issued.
type table[T comparable] struct {
	next uint64
	objs map[uint64]T
}

func newTable[T comparable]() table[T] {
	return table[T]{objs: make(map[uint64]T)}
}

func (t *table[T]) put(obj T) uint64 {
	t.next++
	t.objs[t.next] = obj
	return t.next
}

func (t *table[T]) get(h uint64) (T, bool) {
	obj, ok := t.objs[h]
	return obj, ok
}

// lookup returns the object for h, or the zero T for the null or an
// unknown handle.
func (t *table[T]) lookup(h uint64) T {
	return t.objs[h]
}

// take removes h and returns its object.
func (t *table[T]) take(h uint64) (T, bool) {
	obj, ok := t.objs[h]
	if ok {
		delete(t.objs, h)
	}
	return obj, ok
}

func (t *table[T]) len() int { return len(t.objs) }
