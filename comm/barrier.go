package comm

import "sync"

// barrier is a reusable generation barrier that can be torn down when a rank fails
type barrier struct {
	mu         sync.Mutex
	cond       *sync.Cond
	size       int
	waiting    int
	generation int
	aborted    bool
}

func newBarrier(size int) *barrier {
	b := &barrier{size: size}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *barrier) wait() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.aborted {
		panic(ErrAborted)
	}
	gen := b.generation
	b.waiting++
	if b.waiting == b.size {
		b.waiting = 0
		b.generation++
		b.cond.Broadcast()
		return
	}
	for gen == b.generation && !b.aborted {
		b.cond.Wait()
	}
	if gen == b.generation {
		panic(ErrAborted)
	}
}

func (b *barrier) abort() {
	b.mu.Lock()
	b.aborted = true
	b.cond.Broadcast()
	b.mu.Unlock()
}
