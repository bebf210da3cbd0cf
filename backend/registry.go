package backend

import (
	"sort"
	"sync"
)

// Factory creates a new renderer.
type Factory func() (Renderer, error)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first available wins).
	backendPriority = []string{BackendVulkan, BackendNativeTest}
)

// Register registers a backend factory with the given name.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the registered backend names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Get creates a renderer from the named backend.
func Get(name string) (Renderer, error) {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()

	if !ok {
		return nil, ErrBackendNotAvailable
	}
	return factory()
}

// Default creates a renderer from the best available backend.
// Priority order: vulkan > nativetest. A backend whose factory fails is
// skipped.
func Default() (Renderer, error) {
	registryMu.RLock()
	factories := make([]Factory, 0, len(backends))
	for _, name := range backendPriority {
		if f, ok := backends[name]; ok {
			factories = append(factories, f)
		}
	}
	registryMu.RUnlock()

	var firstErr error
	for _, factory := range factories {
		r, err := factory()
		if err == nil && r != nil {
			return r, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, ErrBackendNotAvailable
}
