// Package pool provides object pooling for the small, short-lived
// map[string]any values the lifecycle engine builds as revision snapshots
// on every card mutation, so the write path doesn't churn the GC with one
// throwaway map per call.
package pool

import "sync"

// MapPool pools map[string]any scratch space for building revision
// snapshots before marshaling.
var MapPool = sync.Pool{
	New: func() any {
		return make(map[string]any, 8)
	},
}

// GetMap gets a cleared map from the pool.
func GetMap() map[string]any {
	m := MapPool.Get().(map[string]any)
	for k := range m {
		delete(m, k)
	}
	return m
}

// PutMap returns a map to the pool for reuse.
func PutMap(m map[string]any) {
	MapPool.Put(m)
}
