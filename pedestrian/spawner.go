// Package pedestrian is the boundary to the crowd simulation that owns
// pedestrian agents.
package pedestrian

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/andersonmmachado/arena-unity/scene"
)

// ErrUnknownAgent is returned when deleting an id the spawner never issued.
var ErrUnknownAgent = errors.New("unknown pedestrian agent")

// Spawner creates and removes pedestrian agents.
type Spawner interface {
	// Spawn creates an agent from an actor descriptor at pose and returns
	// its scene node.
	Spawn(name, descriptor string, pose scene.Pose) (scene.Node, error)
	// Delete removes the agent spawned under the integer name id.
	Delete(id int) error
	// Release removes the agent spawned under a non-integer name.
	Release(name string) error
}

// Crowd is a headless Spawner. Each agent is a cylinder primitive tagged
// Pedestrian. Agents named with an integer are keyed by that integer; other
// agents are keyed by name, so the two never share an id.
type Crowd struct {
	world scene.World
	byID  map[int]scene.Node
	named map[string]scene.Node
}

// NewCrowd creates a spawner that places agents in world.
func NewCrowd(world scene.World) *Crowd {
	return &Crowd{
		world: world,
		byID:  make(map[int]scene.Node),
		named: make(map[string]scene.Node),
	}
}

// Spawn implements Spawner.
func (c *Crowd) Spawn(name, descriptor string, pose scene.Pose) (scene.Node, error) {
	if descriptor == "" {
		return nil, fmt.Errorf("spawn pedestrian %s: empty descriptor", name)
	}
	id, err := strconv.Atoi(name)
	isID := err == nil
	if isID {
		if _, taken := c.byID[id]; taken {
			return nil, fmt.Errorf("spawn pedestrian %s: agent id %d in use", name, id)
		}
	} else if _, taken := c.named[name]; taken {
		return nil, fmt.Errorf("spawn pedestrian %s: agent name in use", name)
	}

	node := c.world.NewPrimitive(scene.ShapeCylinder, name, nil)
	node.SetTag(scene.TagPedestrian)
	node.SetPose(pose.Normalized())
	if isID {
		c.byID[id] = node
	} else {
		c.named[name] = node
	}
	return node, nil
}

// Delete implements Spawner. It forgets the agent; the node itself is owned
// by whoever holds it in the scene.
func (c *Crowd) Delete(id int) error {
	if _, ok := c.byID[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownAgent, id)
	}
	delete(c.byID, id)
	return nil
}

// Release implements Spawner.
func (c *Crowd) Release(name string) error {
	if _, ok := c.named[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAgent, name)
	}
	delete(c.named, name)
	return nil
}

// Len returns the number of live agents.
func (c *Crowd) Len() int {
	return len(c.byID) + len(c.named)
}
