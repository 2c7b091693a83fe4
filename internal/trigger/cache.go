package trigger

import (
	"sync"

	"github.com/Hanaasagi/tinmacro/internal/session"
)

// PatternCache keeps the parsed definitions of rule patterns so that a
// pattern shared by several rules, or re-added after removal, is compiled
// once.
type PatternCache struct {
	cache map[string]session.Definition
	mutex sync.RWMutex
}

// NewPatternCache returns an empty cache.
func NewPatternCache() *PatternCache {
	return &PatternCache{cache: make(map[string]session.Definition)}
}

// Definition returns the cached definition for pattern, parsing and
// caching it on first use.
func (pc *PatternCache) Definition(pattern string) (session.Definition, error) {
	pc.mutex.RLock()
	if def, exists := pc.cache[pattern]; exists {
		pc.mutex.RUnlock()
		return def, nil
	}
	pc.mutex.RUnlock()

	pc.mutex.Lock()
	defer pc.mutex.Unlock()

	// Check again after acquiring write lock
	if def, exists := pc.cache[pattern]; exists {
		return def, nil
	}

	def, err := session.ParseDefinition(pattern)
	if err != nil {
		return session.Definition{}, err
	}
	pc.cache[pattern] = def
	return def, nil
}

// Len returns the number of cached patterns.
func (pc *PatternCache) Len() int {
	pc.mutex.RLock()
	defer pc.mutex.RUnlock()
	return len(pc.cache)
}
