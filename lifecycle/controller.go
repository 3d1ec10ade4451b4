// Package lifecycle spawns, deletes and moves simulated entities and rebuilds
// the wall layout.
//
// A Controller owns the active-entity registry and the grouping nodes. It is
// single-threaded: callers must not invoke its methods concurrently.
package lifecycle

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/andersonmmachado/arena-unity/behaviors"
	"github.com/andersonmmachado/arena-unity/pedestrian"
	"github.com/andersonmmachado/arena-unity/registry"
	"github.com/andersonmmachado/arena-unity/robotconfig"
	"github.com/andersonmmachado/arena-unity/scene"
	"github.com/andersonmmachado/arena-unity/sensors"
	"github.com/andersonmmachado/arena-unity/urdf"
)

// ErrNotFound is returned by Delete and Move for unregistered names.
var ErrNotFound = errors.New("not found")

// Grouping node names.
const (
	GroupPedestrians = "Pedestrians"
	GroupObstacles   = "Obstacles"
	GroupWalls       = "Walls"
)

// DefaultMinWallThickness replaces zero-length wall axes.
const DefaultMinWallThickness = 0.1

// ConfigLoader loads a robot's plugin configuration by robot name.
type ConfigLoader interface {
	Load(robotName string) (*robotconfig.RobotConfig, error)
}

// Options configures a Controller. World is required.
type Options struct {
	World            scene.World
	Configs          ConfigLoader
	Builder          urdf.Builder
	Pedestrians      pedestrian.Spawner
	Sensors          sensors.Options
	Pivot            PivotFunc
	MinWallThickness float64
	Logger           *slog.Logger
}

// Controller is the context every request handler runs against.
type Controller struct {
	world       scene.World
	entities    *registry.Registry
	configs     ConfigLoader
	builder     urdf.Builder
	pedestrians pedestrian.Spawner
	attacher    *sensors.Attacher
	pivot       PivotFunc
	minWall     float64
	logger      *slog.Logger

	pedestrianGroup scene.Node
	obstacleGroup   scene.Node
	wallGroup       scene.Node
}

// New creates a controller and its grouping nodes.
func New(opts Options) (*Controller, error) {
	if opts.World == nil {
		return nil, fmt.Errorf("world is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Configs == nil {
		opts.Configs = robotconfig.NewLoader("", logger)
	}
	if opts.Builder == nil {
		opts.Builder = urdf.LinkBuilder{}
	}
	if opts.Pedestrians == nil {
		opts.Pedestrians = pedestrian.NewCrowd(opts.World)
	}
	if opts.Pivot == nil {
		opts.Pivot = CentroidPivot
	}
	if opts.MinWallThickness <= 0 {
		opts.MinWallThickness = DefaultMinWallThickness
	}

	return &Controller{
		world:           opts.World,
		entities:        registry.New(),
		configs:         opts.Configs,
		builder:         opts.Builder,
		pedestrians:     opts.Pedestrians,
		attacher:        sensors.NewAttacher(opts.Sensors, logger),
		pivot:           opts.Pivot,
		minWall:         opts.MinWallThickness,
		logger:          logger,
		pedestrianGroup: opts.World.NewNode(GroupPedestrians, nil),
		obstacleGroup:   opts.World.NewNode(GroupObstacles, nil),
		wallGroup:       opts.World.NewNode(GroupWalls, nil),
	}, nil
}

// Registry exposes the active-entity registry for read access.
func (c *Controller) Registry() *registry.Registry {
	return c.entities
}

// Group returns the grouping node with the given name, or nil.
func (c *Controller) Group(name string) scene.Node {
	switch name {
	case GroupPedestrians:
		return c.pedestrianGroup
	case GroupObstacles:
		return c.obstacleGroup
	case GroupWalls:
		return c.wallGroup
	default:
		return nil
	}
}

// SpawnRequest describes one entity to create.
type SpawnRequest struct {
	Name       string
	Descriptor string
	Pose       scene.Pose
}

// SpawnResult is a successfully spawned entity. Diagnostics lists sensor
// steps that degraded without failing the spawn.
type SpawnResult struct {
	Name        string
	Kind        Kind
	Node        scene.Node
	Diagnostics []sensors.Diagnostic
}

// Spawn classifies req.Descriptor, builds the entity and registers it.
// A name that is already registered is rejected before anything is built.
func (c *Controller) Spawn(req SpawnRequest) (*SpawnResult, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("entity name is required")
	}
	if c.entities.Contains(req.Name) {
		return nil, fmt.Errorf("spawn %s: %w", req.Name, registry.ErrDuplicate)
	}

	result := &SpawnResult{Name: req.Name, Kind: Classify(req.Descriptor)}
	pose := req.Pose.Normalized()

	var err error
	switch result.Kind {
	case KindRobot:
		result.Node, result.Diagnostics, err = c.spawnRobot(req.Name, req.Descriptor, pose)
	case KindActor:
		result.Node, err = c.spawnActor(req.Name, req.Descriptor, pose)
	default:
		result.Node = c.spawnGeneric(req.Name, pose)
	}
	if err != nil {
		return nil, fmt.Errorf("spawn %s %s: %w", result.Kind, req.Name, err)
	}

	if err := c.entities.Insert(req.Name, result.Node); err != nil {
		c.world.Destroy(result.Node)
		return nil, fmt.Errorf("spawn %s: %w", req.Name, err)
	}

	c.logger.Info("Spawned entity",
		"entity", req.Name,
		"kind", result.Kind.String(),
		"diagnostics", len(result.Diagnostics))
	return result, nil
}

func (c *Controller) spawnRobot(name, descriptor string, pose scene.Pose) (scene.Node, []sensors.Diagnostic, error) {
	root, err := c.builder.Build(c.world, name, descriptor)
	if err != nil {
		return nil, nil, fmt.Errorf("build hierarchy: %w", err)
	}
	base, err := urdf.BaseLink(root)
	if err != nil {
		c.world.Destroy(root)
		return nil, nil, err
	}

	base.AddBehavior(behaviors.NewPosePublisher(name, base.Name()))
	base.AddBehavior(behaviors.NewDriveController(name))
	root.SetPose(pose)
	root.SetGravity(true)
	root.SetTag(scene.TagRobot)

	cfg, err := c.configs.Load(name)
	if err != nil {
		c.logger.Warn("Robot config unavailable, spawning without sensors",
			"entity", name, "error", err)
		return root, []sensors.Diagnostic{{Sensor: sensors.SensorConfig, Err: err}}, nil
	}
	return root, c.attacher.Attach(name, root, cfg), nil
}

func (c *Controller) spawnActor(name, descriptor string, pose scene.Pose) (scene.Node, error) {
	node, err := c.pedestrians.Spawn(name, descriptor, pose)
	if err != nil {
		return nil, err
	}
	node.SetParent(c.pedestrianGroup)
	return node, nil
}

func (c *Controller) spawnGeneric(name string, pose scene.Pose) scene.Node {
	node := c.world.NewPrimitive(scene.ShapeCube, name, c.obstacleGroup)
	node.SetPose(pose)
	node.SetGravity(true)
	node.SetTag(scene.TagObstacle)
	return node
}

// Delete destroys the named entity. Integer names are also routed to the
// pedestrian spawner, which keys its agents by id; other pedestrians are
// released by name.
func (c *Controller) Delete(name string) error {
	node, ok := c.entities.Remove(name)
	if !ok {
		return fmt.Errorf("entity %s %w", name, ErrNotFound)
	}
	kind := KindOf(node)
	c.world.Destroy(node)

	if id, err := strconv.Atoi(name); err == nil {
		c.releasePedestrian(name, kind, c.pedestrians.Delete(id))
	} else if kind == KindActor {
		c.releasePedestrian(name, kind, c.pedestrians.Release(name))
	}

	c.logger.Info("Deleted entity", "entity", name)
	return nil
}

func (c *Controller) releasePedestrian(name string, kind Kind, err error) {
	switch {
	case err == nil:
	case errors.Is(err, pedestrian.ErrUnknownAgent) && kind != KindActor:
		// integer-named robots and obstacles were never crowd agents
	default:
		c.logger.Warn("Pedestrian spawner delete failed", "entity", name, "error", err)
	}
}

// Move overwrites the pose of the named entity.
func (c *Controller) Move(name string, pose scene.Pose) error {
	node, ok := c.entities.Lookup(name)
	if !ok {
		return fmt.Errorf("entity %s %w", name, ErrNotFound)
	}
	node.SetPose(pose.Normalized())
	c.logger.Debug("Moved entity", "entity", name)
	return nil
}

// Entity is a read-only view of a registered entity.
type Entity struct {
	Name string
	Kind Kind
	Pose scene.Pose
}

// Entities lists registered entities sorted by name.
func (c *Controller) Entities() []Entity {
	names := c.entities.Names()
	out := make([]Entity, 0, len(names))
	for _, name := range names {
		node, _ := c.entities.Lookup(name)
		out = append(out, Entity{Name: name, Kind: KindOf(node), Pose: node.Pose()})
	}
	return out
}

// Goal records a navigation goal. Goals change no state.
func (c *Controller) Goal(pose scene.Pose) {
	c.logger.Info("Goal received",
		"x", pose.Position.X,
		"y", pose.Position.Y,
		"z", pose.Position.Z)
}

// KindOf derives an entity's kind from the tag its spawn path gave it.
func KindOf(n scene.Node) Kind {
	switch n.Tag() {
	case scene.TagRobot:
		return KindRobot
	case scene.TagPedestrian:
		return KindActor
	default:
		return KindGeneric
	}
}
