// Package registry provides a global registry of playable levels.
// Level packs register themselves in init() functions, allowing the CLI
// to discover and instantiate levels without hardcoded dependencies.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/stacker/internal/levels"
)

// ErrUnknownLevel is returned by Create for unregistered ids.
var ErrUnknownLevel = errors.New("registry: unknown level")

// LevelInfo contains metadata about a registered level.
type LevelInfo struct {
	ID     string
	Name   string
	Stages int
}

// Factory returns a fresh copy of a level definition.
type Factory func() *levels.Level

var (
	factories = make(map[string]Factory)
	infos     = make(map[string]LevelInfo)
	mu        sync.RWMutex
)

// Register adds a level factory to the registry.
// Typically called from a level pack's init() function.
// Panics if a level with the same ID is already registered.
func Register(id string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[id]; exists {
		panic(fmt.Sprintf("registry: level %q already registered", id))
	}

	factories[id] = f

	// Get metadata by creating a temporary instance
	lvl := f()
	infos[id] = LevelInfo{ID: id, Name: lvl.Name, Stages: lvl.StageCount()}
}

// RegisterLevel registers a parsed level under its own id. Every Create call
// returns a deep copy.
func RegisterLevel(lvl levels.Level) {
	Register(lvl.ID, func() *levels.Level {
		return lvl.Clone()
	})
}

// List returns information about all registered levels, sorted by ID.
func List() []LevelInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]LevelInfo, 0, len(infos))
	for _, info := range infos {
		result = append(result, info)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Create instantiates a level by its ID.
func Create(id string) (*levels.Level, error) {
	mu.RLock()
	defer mu.RUnlock()

	f, ok := factories[id]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownLevel, id)
	}

	return f(), nil
}

// Exists checks if a level with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := factories[id]
	return ok
}

// unregister removes a level; used by tests only.
func unregister(id string) {
	mu.Lock()
	defer mu.Unlock()
	delete(factories, id)
	delete(infos, id)
}
