package comm

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionMap(t *testing.T) {
	getHisto := func(K, Np int) (histo map[int]int) {
		pm := NewPartitionMap(Np, K)
		histo = make(map[int]int)
		for _, b := range pm.Partitions {
			histo[b[1]-b[0]]++
		}
		return
	}
	getTotal := func(histo map[int]int) (total int) {
		for key, count := range histo {
			total += key * count
		}
		return
	}
	assert.Equal(t, map[int]int{0: 30, 1: 2}, getHisto(2, 32))
	assert.Equal(t, map[int]int{1: 32}, getHisto(32, 32))
	assert.Equal(t, map[int]int{8: 1, 9: 31}, getHisto(287, 32))
	for n := 64; n < 2000; n++ {
		var (
			keys   [2]float64
			keyNum int
		)
		histo := getHisto(n, 32)
		for key := range histo {
			keys[keyNum] = float64(key)
			keyNum++
		}
		if keyNum == 2 {
			assert.Equal(t, 1., math.Abs(keys[0]-keys[1])) // Maximum imbalance of 1
		}
		assert.Equal(t, n, getTotal(histo))
	}
	for maxIndex := 10; maxIndex < 300; maxIndex++ {
		pm := NewPartitionMap(5, maxIndex)
		for k := 0; k < maxIndex; k++ {
			tryCount, bn, min, max := pm.getBucketWithTryCount(k)
			assert.True(t, k >= min && k < max && tryCount <= 1)
			assert.Equal(t, pm.Partitions[bn], [2]int{min, max})
		}
	}
	bn, _, _ := NewPartitionMap(3, 10).GetBucket(10)
	assert.Equal(t, -1, bn)
}

func TestMailBox(t *testing.T) {
	mb := NewMailBox[string](3)
	mb.PostMessage(0, 2, "a")
	mb.PostMessageToAll(1, "b")
	mb.DeliverMyMessages(0)
	mb.DeliverMyMessages(1)
	mb.ReceiveMyMessages(2)
	var got []string
	for _, env := range mb.ReceiveMsgQs[2].Cells() {
		got = append(got, fmt.Sprintf("%d:%s", env.From, env.Msg))
	}
	assert.ElementsMatch(t, []string{"0:a", "1:b"}, got)
	mb.ClearMyMessages(2)
	assert.Equal(t, 0, mb.ReceiveMsgQs[2].Len())

	mb.ReceiveMyMessages(0)
	require.Equal(t, 1, mb.ReceiveMsgQs[0].Len())
	assert.Equal(t, "b", mb.ReceiveMsgQs[0].Cells()[0].Msg)
	assert.Panics(t, func() { mb.PostMessage(0, 3, "x") })
}

func TestAllReduceMin(t *testing.T) {
	w := NewWorld(4)
	results := make([][]int, 4)
	err := w.Run(func(c *Comm) {
		// Several rounds back to back must not bleed into each other
		for round := 0; round < 3; round++ {
			r := c.Rank()
			res := c.AllReduceMin([]int{r + round, -r, 10})
			if round == 2 {
				results[r] = res
			}
		}
	})
	require.NoError(t, err)
	for r := 0; r < 4; r++ {
		assert.Equal(t, []int{2, -3, 10}, results[r])
	}

	single := SelfComm()
	assert.Equal(t, []int{5}, single.AllReduceMin([]int{5}))
	assert.Equal(t, 1, single.Size())
}

func TestWorldAbort(t *testing.T) {
	var reached int32
	boom := errors.New("boom")
	w := NewWorld(3)
	err := w.Run(func(c *Comm) {
		if c.Rank() == 1 {
			panic(boom)
		}
		c.Barrier()
		atomic.AddInt32(&reached, 1)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "rank 1")
	assert.Equal(t, int32(0), atomic.LoadInt32(&reached))

	assert.Panics(t, func() { NewWorld(0) })
	assert.Panics(t, func() { NewWorld(2).Comm(2) })
}
