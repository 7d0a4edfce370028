package blur

import (
	"sync"
)

// maxCachedResponses bounds the response cache; it is flushed when full.
const maxCachedResponses = 32

type responseKey struct {
	rows, cols, diameter int
	sigma                float64
}

// cachedResponse is shared read-only between operators.
type cachedResponse struct {
	kernel   *Kernel
	response []complex128
	power    []float64
}

var (
	responseCacheMu sync.RWMutex
	responseCache   = make(map[responseKey]*cachedResponse)
)

func lookupResponse(key responseKey) (*cachedResponse, bool) {
	responseCacheMu.RLock()
	defer responseCacheMu.RUnlock()

	r, ok := responseCache[key]
	return r, ok
}

func storeResponse(key responseKey, r *cachedResponse) {
	responseCacheMu.Lock()
	defer responseCacheMu.Unlock()

	if len(responseCache) >= maxCachedResponses {
		clear(responseCache)
	}

	responseCache[key] = r
}

// ResetCache drops all memoized frequency responses.
func ResetCache() {
	responseCacheMu.Lock()
	defer responseCacheMu.Unlock()

	clear(responseCache)
}

// CachedResponses returns the number of memoized frequency responses.
func CachedResponses() int {
	responseCacheMu.RLock()
	defer responseCacheMu.RUnlock()

	return len(responseCache)
}
