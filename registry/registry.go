// Package registry tracks the entities currently alive in the simulation.
package registry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/andersonmmachado/arena-unity/scene"
)

// ErrDuplicate is returned when inserting a name that is already registered.
var ErrDuplicate = errors.New("entity already registered")

// Registry maps entity names to their scene nodes. It does not own the
// nodes; the scene does.
//
// Registry is not safe for concurrent use.
type Registry struct {
	entities map[string]scene.Node
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entities: make(map[string]scene.Node)}
}

// Insert registers node under name.
func (r *Registry) Insert(name string, node scene.Node) error {
	if _, exists := r.entities[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	r.entities[name] = node
	return nil
}

// Lookup returns the node registered under name.
func (r *Registry) Lookup(name string) (scene.Node, bool) {
	n, ok := r.entities[name]
	return n, ok
}

// Contains reports whether name is registered.
func (r *Registry) Contains(name string) bool {
	_, ok := r.entities[name]
	return ok
}

// Remove unregisters name and returns its node.
func (r *Registry) Remove(name string) (scene.Node, bool) {
	n, ok := r.entities[name]
	if ok {
		delete(r.entities, name)
	}
	return n, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entities))
	for name := range r.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered entities.
func (r *Registry) Len() int {
	return len(r.entities)
}
