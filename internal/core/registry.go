package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]Backend)
	registryMu sync.RWMutex
)

// Register adds a backend to the registry.
// Panics if the bundle is invalid or a backend with the same key is already registered.
func Register(b Backend) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if err := b.Validate(); err != nil {
		panic(fmt.Sprintf("invalid backend %s: %v", b.Key, err))
	}
	if _, exists := registry[b.Key]; exists {
		panic(fmt.Sprintf("backend already registered: %s", b.Key))
	}
	if b.Label == "" {
		b.Label = b.Key
	}

	registry[b.Key] = b
}

// Get returns a backend by key.
// Returns false if not found.
func Get(key string) (Backend, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	b, ok := registry[key]
	return b, ok
}

// All returns all registered backends.
// Sorted by group then by key for consistent ordering.
func All() []Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Backend, 0, len(registry))
	for _, b := range registry {
		result = append(result, b)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Group != result[j].Group {
			return result[i].Group < result[j].Group
		}
		return result[i].Key < result[j].Key
	})

	return result
}

// ByGroup returns all backends of a group, sorted by key.
func ByGroup(group string) []Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var result []Backend
	for _, b := range registry {
		if b.Group == group {
			result = append(result, b)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// Groups returns all unique group names.
// Sorted alphabetically.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	for _, b := range registry {
		seen[b.Group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}

	sort.Strings(groups)
	return groups
}

// BackendCount returns the number of registered backends.
func BackendCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered backends.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Backend)
}
