package entitybridge

import (
	"fmt"
	"reflect"

	"github.com/c360studio/semstreams/component"
)

// entityBridgeSchema defines the configuration schema.
var entityBridgeSchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

// Port names. Subjects are taken from the port with the matching name.
const (
	PortSpawn        = "spawn"
	PortSpawnWalls   = "spawn_walls"
	PortDelete       = "delete"
	PortSetState     = "set_state"
	PortGoal         = "goal"
	PortListModels   = "list_models"
	PortListEntities = "list_entities"
	PortEvents       = "entity_events"
)

// Config holds configuration for the entity-bridge processor.
type Config struct {
	Ports            *component.PortConfig `json:"ports" schema:"type:ports,description:Port configuration,category:basic"`
	ArenaRoot        string                `json:"arena_root" schema:"type:string,description:Simulation setup root holding entities/robots (defaults to ../simulation-setup next to the executable),category:basic"`
	RGBDFallback     bool                  `json:"rgbd_fallback" schema:"type:bool,description:Mount a default RGB-D camera at the laser frame when a robot has no camera plugin,category:basic,default:false"`
	MinWallThickness float64               `json:"min_wall_thickness" schema:"type:float,description:Thickness used for zero-length wall axes,category:advanced,default:0.1"`
	StateBucket      string                `json:"state_bucket" schema:"type:string,description:KV bucket mirroring live entities (empty disables the mirror),category:advanced,default:ARENA_ENTITIES"`
	EventPrefix      string                `json:"event_prefix" schema:"type:string,description:Subject prefix for lifecycle events,category:advanced,default:sim.entity"`
	DisableEvents    bool                  `json:"disable_events" schema:"type:bool,description:Do not publish lifecycle events,category:advanced,default:false"`
	WatchModels      bool                  `json:"watch_models" schema:"type:bool,description:Watch robot model files and log edits,category:advanced,default:false"`
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.MinWallThickness < 0 {
		return fmt.Errorf("min_wall_thickness must be non-negative")
	}
	if !c.DisableEvents && c.EventPrefix == "" {
		return fmt.Errorf("event_prefix is required when events are enabled")
	}
	return nil
}

// DefaultConfig returns the default configuration for entity-bridge.
func DefaultConfig() Config {
	return Config{
		Ports: &component.PortConfig{
			Inputs: []component.PortDefinition{
				{
					Name:        PortSpawn,
					Type:        "nats",
					Subject:     "sim.spawn_model",
					Required:    true,
					Description: "Spawn a robot, pedestrian or obstacle (request/reply)",
				},
				{
					Name:        PortSpawnWalls,
					Type:        "nats",
					Subject:     "sim.spawn_walls",
					Required:    true,
					Description: "Replace the wall layout (request/reply)",
				},
				{
					Name:        PortDelete,
					Type:        "nats",
					Subject:     "sim.delete_model",
					Required:    true,
					Description: "Delete an entity by name (request/reply)",
				},
				{
					Name:        PortSetState,
					Type:        "nats",
					Subject:     "sim.set_model_state",
					Required:    true,
					Description: "Move an entity to a pose (request/reply)",
				},
				{
					Name:        PortGoal,
					Type:        "nats",
					Subject:     "sim.goal",
					Required:    false,
					Description: "Navigation goal notifications (fire-and-forget)",
				},
				{
					Name:        PortListModels,
					Type:        "nats",
					Subject:     "sim.list_models",
					Required:    false,
					Description: "List robot kinds with a model file (request/reply)",
				},
				{
					Name:        PortListEntities,
					Type:        "nats",
					Subject:     "sim.list_entities",
					Required:    false,
					Description: "List live entities (request/reply)",
				},
			},
			Outputs: []component.PortDefinition{
				{
					Name:        PortEvents,
					Type:        "nats",
					Subject:     "sim.entity.>",
					Required:    false,
					Description: "Entity lifecycle events",
				},
			},
		},
		MinWallThickness: 0.1,
		StateBucket:      "ARENA_ENTITIES",
		EventPrefix:      "sim.entity",
	}
}

// inputSubject returns the subject of the named input port, falling back to
// the default configuration.
func (c *Config) inputSubject(name string) string {
	if c.Ports != nil {
		for _, p := range c.Ports.Inputs {
			if p.Name == name && p.Subject != "" {
				return p.Subject
			}
		}
	}
	for _, p := range DefaultConfig().Ports.Inputs {
		if p.Name == name {
			return p.Subject
		}
	}
	return ""
}
