package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[Entity]EntityDefinition)
	registryMu sync.RWMutex
)

// Register adds an entity definition to the registry.
// Panics if the entity is already registered or a field is declared twice.
func Register(def EntityDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Entity]; exists {
		panic(fmt.Sprintf("entity already registered: %s", def.Entity))
	}

	seen := make(map[string]bool, len(def.Fields))
	for _, spec := range def.Fields {
		if seen[spec.Name] {
			panic(fmt.Sprintf("entity %s: field declared twice: %s", def.Entity, spec.Name))
		}
		seen[spec.Name] = true
	}

	registry[def.Entity] = def
}

// Get returns an entity definition.
// Returns false if not found.
func Get(e Entity) (EntityDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[e]
	return def, ok
}

// MustGet returns an entity definition or panics.
func MustGet(e Entity) EntityDefinition {
	def, ok := Get(e)
	if !ok {
		panic(fmt.Sprintf("entity not registered: %s", e))
	}
	return def
}

// All returns all registered entity definitions in pipeline order.
func All() []EntityDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]EntityDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Order != result[j].Order {
			return result[i].Order < result[j].Order
		}
		return result[i].Entity < result[j].Entity
	})

	return result
}

// EntityCount returns the number of registered entities.
func EntityCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}
