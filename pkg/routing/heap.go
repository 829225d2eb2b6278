package routing

// MinHeap is a concrete-typed min-heap for the A* frontier.
// Avoids interface boxing overhead of container/heap.
type MinHeap struct {
	items []PQItem
}

// PQItem is a frontier entry. The priority travels with the entry, so the heap
// needs no lookup table shared with the search.
type PQItem struct {
	Node     int64
	Priority float64 // distance so far + straight-line estimate to target
}

func (h *MinHeap) Len() int { return len(h.items) }

func (h *MinHeap) Push(node int64, priority float64) {
	h.items = append(h.items, PQItem{node, priority})
	h.siftUp(len(h.items) - 1)
}

func (h *MinHeap) Pop() PQItem {
	n := len(h.items)
	item := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return item
}

func (h *MinHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.items[i].Priority >= h.items[parent].Priority {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *MinHeap) siftDown(i int) {
	n := len(h.items)
	for {
		smallest := i
		left := 2*i + 1
		right := 2*i + 2
		if left < n && h.items[left].Priority < h.items[smallest].Priority {
			smallest = left
		}
		if right < n && h.items[right].Priority < h.items[smallest].Priority {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}
