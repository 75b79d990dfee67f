package autoload

import "github.com/pthm/autoload/internal/memo"

// CacheInfo is a snapshot of one cache's counters.
type CacheInfo = memo.Stats

// CacheStats reports the query cache and the path resolution cache.
type CacheStats struct {
	Queries CacheInfo `json:"queries"`
	Paths   CacheInfo `json:"paths"`
}

// CacheStats returns the current cache counters.
func (a *Autoloader) CacheStats() CacheStats {
	return CacheStats{
		Queries: a.queries.Stats(),
		Paths:   a.resolver.Stats(),
	}
}

// ClearCaches drops every cached query and path and resets the counters.
func (a *Autoloader) ClearCaches() {
	a.queries.Purge()
	a.resolver.Purge()
}
