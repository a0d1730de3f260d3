package frontier

import "sync"

// Item is a URL waiting to be crawled, with its distance from the start page.
type Item struct {
	URL   string
	Depth int
}

// Queue is a FIFO frontier. Popping from the front yields breadth-first order
// as long as children are enqueued after their parents.
type Queue struct {
	totalQueued int
	elements    []Item
	mu          sync.Mutex
}

func NewQueue() *Queue {
	return &Queue{
		elements: make([]Item, 0),
	}
}

func (q *Queue) Enqueue(it Item) {
	q.mu.Lock()
	q.elements = append(q.elements, it)
	q.totalQueued++
	q.mu.Unlock()
}

func (q *Queue) PopFront() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.elements) == 0 {
		return Item{}, false
	}
	it := q.elements[0]
	q.elements = q.elements[1:]
	return it, true
}

// PopBatch removes up to n items from the front.
func (q *Queue) PopBatch(n int) []Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n > len(q.elements) {
		n = len(q.elements)
	}
	batch := make([]Item, n)
	copy(batch, q.elements[:n])
	q.elements = q.elements[n:]
	return batch
}

func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.elements)
}

func (q *Queue) TotalQueued() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.totalQueued
}
