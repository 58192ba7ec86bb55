package topk

// Item is one scored candidate.
type Item struct {
	Index int
	Score float32
}

// minHeap is a value-based binary heap with the smallest score on top.
// It does not implement container/heap to avoid interface dispatch.
type minHeap struct {
	items []Item
}

func (h *minHeap) reset(capacity int) {
	if cap(h.items) < capacity {
		h.items = make([]Item, 0, capacity)
		return
	}
	h.items = h.items[:0]
}

func (h *minHeap) len() int { return len(h.items) }

func (h *minHeap) top() Item { return h.items[0] }

func (h *minHeap) push(it Item) {
	h.items = append(h.items, it)
	h.siftUp(len(h.items) - 1)
}

// replaceTop overwrites the minimum and restores the heap invariant.
func (h *minHeap) replaceTop(it Item) {
	h.items[0] = it
	h.siftDown(0)
}

func (h *minHeap) pop() Item {
	n := len(h.items)
	it := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return it
}

func (h *minHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.items[i].Score >= h.items[parent].Score {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *minHeap) siftDown(i int) {
	n := len(h.items)
	for {
		left := 2*i + 1
		if left >= n {
			break
		}
		child := left
		if right := left + 1; right < n && h.items[right].Score < h.items[left].Score {
			child = right
		}
		if h.items[child].Score >= h.items[i].Score {
			break
		}
		h.items[i], h.items[child] = h.items[child], h.items[i]
		i = child
	}
}
