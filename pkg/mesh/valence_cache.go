package mesh

// ValenceCache stores per-vertex valences of a corner table. While the cache
// is populated the owning table must not be mutated.
type ValenceCache struct {
	table      *CornerTable
	valences   []int32
	inaccurate []int8
}

// CacheValences computes the valence of every vertex.
func (vc *ValenceCache) CacheValences() {
	if len(vc.valences) > 0 {
		return
	}
	vc.valences = make([]int32, vc.table.NumVertices())
	for v := range vc.valences {
		vc.valences[v] = int32(vc.table.Valence(VertexIndex(v)))
	}
}

// CacheValencesInaccurate computes valences clamped to int8.
func (vc *ValenceCache) CacheValencesInaccurate() {
	if len(vc.inaccurate) > 0 {
		return
	}
	vc.inaccurate = make([]int8, vc.table.NumVertices())
	for v := range vc.inaccurate {
		val := vc.table.Valence(VertexIndex(v))
		if val > 127 {
			val = 127
		}
		vc.inaccurate[v] = int8(val)
	}
}

// ValenceFromCache returns the cached valence of v, or -1 for an invalid vertex.
func (vc *ValenceCache) ValenceFromCache(v VertexIndex) int {
	if v == InvalidVertexIndex || int(v) >= len(vc.valences) {
		return -1
	}
	return int(vc.valences[v])
}

// ValenceFromCacheInaccurate returns the clamped cached valence of v.
func (vc *ValenceCache) ValenceFromCacheInaccurate(v VertexIndex) int {
	if v == InvalidVertexIndex || int(v) >= len(vc.inaccurate) {
		return -1
	}
	return int(vc.inaccurate[v])
}

// ClearValenceCache drops all cached values.
func (vc *ValenceCache) ClearValenceCache() {
	vc.valences = nil
	vc.inaccurate = nil
}

// IsCacheEmpty reports whether nothing is cached.
func (vc *ValenceCache) IsCacheEmpty() bool {
	return len(vc.valences) == 0 && len(vc.inaccurate) == 0
}
