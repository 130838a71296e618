package comm

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrAborted is raised inside collectives of surviving ranks once any rank of
// the world has failed
var ErrAborted = errors.New("communicator aborted")

// Communicator is the subset of an MPI communicator the mesh code relies on
type Communicator interface {
	Rank() int
	Size() int
	Barrier()
	AllReduceMin(vals []int) []int
}

// World simulates an SPMD job: each rank runs in its own goroutine and
// exchanges messages through a shared MailBox.
type World struct {
	size    int
	mb      *MailBox[[]int]
	barrier *barrier
}

func NewWorld(size int) *World {
	if size < 1 {
		panic(fmt.Errorf("a world needs at least one rank, have %d", size))
	}
	return &World{
		size:    size,
		mb:      NewMailBox[[]int](size),
		barrier: newBarrier(size),
	}
}

func (w *World) Size() int { return w.size }

func (w *World) Comm(rank int) *Comm {
	if rank < 0 || rank >= w.size {
		panic(fmt.Errorf("rank %d out of range [0,%d)", rank, w.size))
	}
	return &Comm{world: w, rank: rank}
}

// Run executes fn on every rank concurrently and waits for all of them. A
// panicking rank aborts the world; the first failure is returned.
func (w *World) Run(fn func(c *Comm)) (err error) {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs = make(map[int]error)
	)
	for rank := 0; rank < w.size; rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					var rerr error
					switch v := r.(type) {
					case error:
						rerr = v
					default:
						rerr = fmt.Errorf("%v", v)
					}
					mu.Lock()
					errs[rank] = rerr
					mu.Unlock()
					w.barrier.abort()
				}
			}()
			fn(w.Comm(rank))
		}(rank)
	}
	wg.Wait()
	if len(errs) == 0 {
		return nil
	}
	// Report the root cause ahead of the ranks that only saw the abort
	ranks := make([]int, 0, len(errs))
	for rank := range errs {
		ranks = append(ranks, rank)
	}
	sort.Ints(ranks)
	for _, rank := range ranks {
		if !errors.Is(errs[rank], ErrAborted) {
			return fmt.Errorf("rank %d: %w", rank, errs[rank])
		}
	}
	return fmt.Errorf("rank %d: %w", ranks[0], errs[ranks[0]])
}

// Comm is one rank's handle on a World
type Comm struct {
	world *World
	rank  int
}

func (c *Comm) Rank() int { return c.rank }
func (c *Comm) Size() int { return c.world.size }

func (c *Comm) Barrier() { c.world.barrier.wait() }

// AllReduceMin returns the element-wise minimum of vals over all ranks
func (c *Comm) AllReduceMin(vals []int) (res []int) {
	mb := c.world.mb
	res = make([]int, len(vals))
	copy(res, vals)
	if c.world.size == 1 {
		return
	}
	msg := make([]int, len(vals))
	copy(msg, vals)
	mb.PostMessageToAll(c.rank, msg)
	mb.DeliverMyMessages(c.rank)
	c.Barrier()
	mb.ReceiveMyMessages(c.rank)
	received := mb.ReceiveMsgQs[c.rank].Cells()
	if len(received) != c.world.size-1 {
		panic(fmt.Errorf("rank %d expected %d contributions to reduction, received %d",
			c.rank, c.world.size-1, len(received)))
	}
	for _, env := range received {
		if len(env.Msg) != len(res) {
			panic(fmt.Errorf("rank %d contributed %d values, rank %d expected %d",
				env.From, len(env.Msg), c.rank, len(res)))
		}
		for i, v := range env.Msg {
			if v < res[i] {
				res[i] = v
			}
		}
	}
	mb.ClearMyMessages(c.rank)
	// Nobody may post the next round before everyone has drained this one
	c.Barrier()
	return
}

// SelfComm is a single rank communicator for serial use
func SelfComm() *Comm { return NewWorld(1).Comm(0) }
