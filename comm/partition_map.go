package comm

// PartitionMap splits [0,MaxIndex) into NRanks contiguous buckets whose sizes
// differ by at most one
type PartitionMap struct {
	MaxIndex   int
	NRanks     int
	Partitions [][2]int // Beginning and end index of partitions
}

func NewPartitionMap(nRanks, maxIndex int) (pm *PartitionMap) {
	pm = &PartitionMap{
		MaxIndex:   maxIndex,
		NRanks:     nRanks,
		Partitions: make([][2]int, nRanks),
	}
	for n := 0; n < nRanks; n++ {
		pm.Partitions[n] = pm.Split1D(n)
	}
	return
}

// GetBucket returns the rank holding index k and that rank's range, or -1
// when k is out of range
func (pm *PartitionMap) GetBucket(k int) (bucketNum, min, max int) {
	_, bucketNum, min, max = pm.getBucketWithTryCount(k)
	return
}

func (pm *PartitionMap) getBucketWithTryCount(k int) (tryCount, bucketNum, min, max int) {
	if k < 0 || k >= pm.MaxIndex {
		return 0, -1, 0, 0
	}
	// Initial guess
	bucketNum = int(float64(pm.NRanks*k) / float64(pm.MaxIndex))
	for !(pm.Partitions[bucketNum][0] <= k && pm.Partitions[bucketNum][1] > k) {
		if pm.Partitions[bucketNum][0] > k {
			bucketNum--
		} else {
			bucketNum++
		}
		if bucketNum == -1 || bucketNum == pm.NRanks {
			return 0, -1, 0, 0
		}
		tryCount++
	}
	min, max = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}

func (pm *PartitionMap) Split1D(rank int) (bucket [2]int) {
	var (
		Npart            = pm.MaxIndex / pm.NRanks
		startAdd, endAdd int
		remainder        = pm.MaxIndex % pm.NRanks
	)
	if remainder != 0 { // spread the remainder over the first chunks evenly
		if rank+1 > remainder {
			startAdd = remainder
		} else {
			startAdd = rank
			endAdd = 1
		}
	}
	bucket[0] = rank*Npart + startAdd
	bucket[1] = bucket[0] + Npart + endAdd
	return
}
