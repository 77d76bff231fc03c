package storage

import (
	"fmt"
	"slices"
	"strings"

	"exporthub/internal/config"
)

// FactoryFunc builds a backend from the storage section of the config.
type FactoryFunc func(config.StorageConfig) (Storage, error)

var factories = make(map[string]FactoryFunc)

// Register makes a backend available to New under name.
func Register(name string, factory FactoryFunc) {
	factories[name] = factory
}

// Backends lists the registered backend names, sorted.
func Backends() []string {
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// New creates the backend selected by cfg.Backend.
func New(cfg config.StorageConfig) (Storage, error) {
	factory, ok := factories[cfg.Backend]
	if !ok {
		return nil, fmt.Errorf("unsupported storage backend: %q (must be one of: %s)", cfg.Backend, strings.Join(Backends(), ", "))
	}
	return factory(cfg)
}
