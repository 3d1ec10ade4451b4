// Package resolver finds plugin descriptors in a robot model and resolves the
// frames they name to nodes of a spawned robot's hierarchy.
package resolver

import (
	"errors"
	"fmt"

	"github.com/andersonmmachado/arena-unity/robotconfig"
	"github.com/andersonmmachado/arena-unity/scene"
)

// Resolution errors.
var (
	ErrPluginNotFound = errors.New("plugin not found")
	ErrMissingFrame   = errors.New("plugin has no frame")
	ErrFrameNotFound  = errors.New("frame not found")
)

// MissingFrameError reports a descriptor without a usable "frame" key.
type MissingFrameError struct {
	Plugin string
}

func (e *MissingFrameError) Error() string {
	return fmt.Sprintf("plugin %s has no frame", e.Plugin)
}

func (e *MissingFrameError) Unwrap() error { return ErrMissingFrame }

// FrameNotFoundError reports a frame name that matches no node.
type FrameNotFoundError struct {
	Plugin string
	Frame  string
	Root   string
}

func (e *FrameNotFoundError) Error() string {
	return fmt.Sprintf("frame %s of plugin %s not found under %s", e.Frame, e.Plugin, e.Root)
}

func (e *FrameNotFoundError) Unwrap() error { return ErrFrameNotFound }

// FindPlugin returns the first descriptor whose "type" equals kind. Matching
// is exact and case-sensitive; later descriptors of the same kind are ignored.
func FindPlugin(cfg *robotconfig.RobotConfig, kind string) (robotconfig.Descriptor, error) {
	if cfg != nil {
		for _, d := range cfg.Plugins {
			if t, ok := d.Type(); ok && t == kind {
				return d, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, kind)
}

// ResolveFrame finds the node named by d's "frame" key under root.
func ResolveFrame(root scene.Node, d robotconfig.Descriptor) (scene.Node, error) {
	plugin, _ := d.Type()
	frame, ok := d.Frame()
	if !ok {
		return nil, &MissingFrameError{Plugin: plugin}
	}

	if n := Search(root, frame, nil); n != nil {
		return n, nil
	}
	rootName := ""
	if root != nil {
		rootName = root.Name()
	}
	return nil, &FrameNotFoundError{Plugin: plugin, Frame: frame, Root: rootName}
}

// Search walks the hierarchy under root depth-first in pre-order (the node
// itself, then its children in child order) and returns the first node named
// name, or nil. visit, when non-nil, is called for every node examined.
//
// Names are expected to be unique; when they are not, the first node in
// pre-order wins.
func Search(root scene.Node, name string, visit func(scene.Node)) scene.Node {
	if root == nil {
		return nil
	}
	stack := []scene.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visit != nil {
			visit(n)
		}
		if n.Name() == name {
			return n
		}

		children := n.Children()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return nil
}
