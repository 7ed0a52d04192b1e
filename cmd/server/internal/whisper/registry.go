package whisper

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds a transcriber for a normalized model name.
type Factory func(model string) (Transcriber, error)

// Registry caches one transcriber instance per distinct model configuration.
// Loading a model is expensive, so instances are created lazily on first use
// and shared by every request with the same configuration key. The key also
// includes thread/worker/compute settings because changing any of them means
// a different loaded instance.
type Registry struct {
	mu        sync.Mutex
	factory   Factory
	instances map[string]Transcriber

	cpuThreads  int
	numWorkers  int
	computeType string
}

// NewRegistry creates an empty registry. The factory is invoked at most once
// per configuration key, under the registry lock.
func NewRegistry(factory Factory, cpuThreads, numWorkers int, computeType string) *Registry {
	return &Registry{
		factory:     factory,
		instances:   make(map[string]Transcriber),
		cpuThreads:  cpuThreads,
		numWorkers:  numWorkers,
		computeType: computeType,
	}
}

// Key returns the cache key for a normalized model name.
func (r *Registry) Key(model string) string {
	return fmt.Sprintf("%s|t%d|w%d|%s", model, r.cpuThreads, r.numWorkers, r.computeType)
}

// Get returns the cached transcriber for model, creating it on first use.
func (r *Registry) Get(model string) (Transcriber, error) {
	key := r.Key(model)

	r.mu.Lock()
	defer r.mu.Unlock()

	if inst, ok := r.instances[key]; ok {
		return inst, nil
	}
	inst, err := r.factory(model)
	if err != nil {
		return nil, fmt.Errorf("create transcriber for %s: %w", model, err)
	}
	r.instances[key] = inst
	return inst, nil
}

// Keys lists the configuration keys of all loaded instances, sorted for
// stable health output.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.instances))
	for k := range r.instances {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
