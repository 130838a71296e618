package submesh

// UniqueIndexGenerator hands out contiguous ids in first touch order. Asking
// again for a known key returns the id it was given the first time.
type UniqueIndexGenerator struct {
	ids  map[int]int
	next int
}

func NewUniqueIndexGenerator() *UniqueIndexGenerator {
	return &UniqueIndexGenerator{ids: make(map[int]int)}
}

func (g *UniqueIndexGenerator) Get(key int) (id int, isNew bool) {
	if id, ok := g.ids[key]; ok {
		return id, false
	}
	id = g.next
	g.ids[key] = id
	g.next++
	return id, true
}

// Find returns the id of key without allocating, -1 if it has none
func (g *UniqueIndexGenerator) Find(key int) int {
	if id, ok := g.ids[key]; ok {
		return id
	}
	return -1
}

func (g *UniqueIndexGenerator) Size() int { return g.next }
