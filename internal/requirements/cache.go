package requirements

import "sync"

// The requirements table changes between academic years, not between
// requests, so loads are memoized by source path for the process lifetime.
var (
	cacheMu   sync.Mutex
	loadCache = map[string]*Index{}
)

// LoadFileCached returns the memoized index for path, loading it on first
// use. The returned Index is shared and read-only.
func LoadFileCached(path string) *Index {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if ix, ok := loadCache[path]; ok {
		return ix
	}
	ix := LoadFile(path)
	loadCache[path] = ix
	return ix
}
