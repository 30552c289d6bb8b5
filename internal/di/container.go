// Package di wires the rebased services together for the command line.
package di

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
)

// ErrServiceNotFound is returned when neither a service nor a builder is
// registered under a name.
var ErrServiceNotFound = errors.New("service not found")

// Container is the dependency injection container.
// Services are built lazily on first Get and closed in reverse build order.
type Container struct {
	mu       sync.Mutex
	services map[string]any
	builders map[string]Builder
	building map[string]bool
	closers  []io.Closer
}

// Builder creates a service instance.
type Builder func(c *Container) (any, error)

// New creates an empty container.
func New() *Container {
	return &Container{
		services: make(map[string]any),
		builders: make(map[string]Builder),
		building: make(map[string]bool),
	}
}

// Register registers a ready service instance. The container does not close it.
func (c *Container) Register(name string, service any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[name] = service
}

// RegisterBuilder registers a builder for lazy instantiation.
func (c *Container) RegisterBuilder(name string, builder Builder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.builders[name] = builder
}

// Get retrieves a service by name, building it if needed. Builders may call
// Get for their own dependencies.
func (c *Container) Get(name string) (any, error) {
	c.mu.Lock()
	if service, ok := c.services[name]; ok {
		c.mu.Unlock()
		return service, nil
	}
	builder, ok := c.builders[name]
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, name)
	}
	if c.building[name] {
		c.mu.Unlock()
		return nil, fmt.Errorf("dependency cycle through %s", name)
	}
	c.building[name] = true
	c.mu.Unlock()

	service, err := builder(c)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.building, name)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", name, err)
	}
	c.services[name] = service
	if closer, ok := service.(io.Closer); ok {
		c.closers = append(c.closers, closer)
	}
	return service, nil
}

// Resolve retrieves a service and asserts its type.
func Resolve[T any](c *Container, name string) (T, error) {
	var zero T
	service, err := c.Get(name)
	if err != nil {
		return zero, err
	}
	typed, ok := service.(T)
	if !ok {
		return zero, fmt.Errorf("service %s is %T, not %T", name, service, zero)
	}
	return typed, nil
}

// Has checks if a service or builder is registered.
func (c *Container) Has(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.services[name]; ok {
		return true
	}
	_, ok := c.builders[name]
	return ok
}

// ServiceNames returns all registered names in sorted order.
func (c *Container) ServiceNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make(map[string]bool)
	for name := range c.services {
		names[name] = true
	}
	for name := range c.builders {
		names[name] = true
	}

	result := make([]string, 0, len(names))
	for name := range names {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Close closes every built service that implements io.Closer, newest first.
func (c *Container) Close() error {
	c.mu.Lock()
	closers := c.closers
	c.closers = nil
	c.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Service names.
const (
	ServiceConfig   = "config"
	ServiceLogger   = "logger"
	ServiceStore    = "store"
	ServiceRegistry = "registry"
)
