// Package waitqueue holds waiting patients in a binary max-heap keyed by
// priority score.
//
// Layout: 0-indexed array, children of i at 2i+1 and 2i+2, parent at
// (i-1)/2. Comparisons are strict, so equal scores never swap and tie order
// is a side effect of insertion order.
package waitqueue

import "github.com/okian/wardflow/internal/domain/model"

// Heap is an array-backed max-heap. The zero value is an empty heap.
type Heap struct {
	items []model.Patient
}

// New creates a heap with room for n patients.
func New(n int) *Heap {
	if n < 0 {
		n = 0
	}
	return &Heap{items: make([]model.Patient, 0, n)}
}

func parent(i int) int { return (i - 1) / 2 }
func left(i int) int   { return 2*i + 1 }
func right(i int) int  { return 2*i + 2 }

// Len returns the number of queued patients.
func (h *Heap) Len() int { return len(h.items) }

// Insert appends p and sifts it up while it beats its parent.
func (h *Heap) Insert(p model.Patient) {
	h.items = append(h.items, p)
	i := len(h.items) - 1
	for i > 0 && h.items[i].Score > h.items[parent(i)].Score {
		h.swap(i, parent(i))
		i = parent(i)
	}
}

// Peek returns the root without removing it.
func (h *Heap) Peek() (model.Patient, bool) {
	if len(h.items) == 0 {
		return model.Patient{}, false
	}
	return h.items[0], true
}

// ExtractMax removes and returns the root. It reports false on an empty heap.
func (h *Heap) ExtractMax() (model.Patient, bool) {
	n := len(h.items)
	if n == 0 {
		return model.Patient{}, false
	}
	root := h.items[0]
	last := h.items[n-1]
	h.items[n-1] = model.Patient{}
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.items[0] = last
		h.siftDown(0)
	}
	return root, true
}

func (h *Heap) siftDown(i int) {
	n := len(h.items)
	for {
		largest := i
		if l := left(i); l < n && h.items[l].Score > h.items[largest].Score {
			largest = l
		}
		if r := right(i); r < n && h.items[r].Score > h.items[largest].Score {
			largest = r
		}
		if largest == i {
			return
		}
		h.swap(i, largest)
		i = largest
	}
}

func (h *Heap) swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

// Items returns a copy of the backing array in heap order.
func (h *Heap) Items() []model.Patient {
	out := make([]model.Patient, len(h.items))
	copy(out, h.items)
	return out
}

// Drain returns the queue in extraction order without mutating h.
func (h *Heap) Drain() []model.Patient {
	c := &Heap{items: h.Items()}
	out := make([]model.Patient, 0, c.Len())
	for {
		p, ok := c.ExtractMax()
		if !ok {
			return out
		}
		out = append(out, p)
	}
}

// Valid reports whether every non-root node scores no higher than its parent.
func (h *Heap) Valid() bool {
	for i := 1; i < len(h.items); i++ {
		if h.items[i].Score > h.items[parent(i)].Score {
			return false
		}
	}
	return true
}
