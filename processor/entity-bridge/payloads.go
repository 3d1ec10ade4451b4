package entitybridge

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"

	"github.com/andersonmmachado/arena-unity/lifecycle"
	"github.com/andersonmmachado/arena-unity/scene"
)

// SpawnRequest asks for one entity.
type SpawnRequest struct {
	// Name must be unique among live entities
	Name string `json:"name"`

	// Descriptor is the entity description text (URDF robot, actor, or any
	// other model text for an obstacle placeholder)
	Descriptor string `json:"descriptor"`

	Pose scene.Pose `json:"pose"`
}

// SpawnWallsRequest replaces the whole wall layout.
type SpawnWallsRequest struct {
	Walls []lifecycle.WallSegment `json:"walls"`
}

// DeleteRequest removes one entity.
type DeleteRequest struct {
	Name string `json:"name"`
}

// SetStateRequest moves one entity.
type SetStateRequest struct {
	Name string     `json:"name"`
	Pose scene.Pose `json:"pose"`
}

// GoalRequest carries a navigation goal.
type GoalRequest struct {
	Pose scene.Pose `json:"pose"`
}

// Response is the reply to every request/reply operation. Failures never
// surface as transport errors; Success is false and Message says why.
type Response struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	Kind        string       `json:"kind,omitempty"`
	Diagnostics []string     `json:"diagnostics,omitempty"`
	Models      []string     `json:"models,omitempty"`
	Entities    []EntityInfo `json:"entities,omitempty"`
}

// EntityInfo describes a live entity in list replies.
type EntityInfo struct {
	Name string     `json:"name"`
	Kind string     `json:"kind"`
	Pose scene.Pose `json:"pose"`
}

// Event actions.
const (
	ActionSpawned = "spawned"
	ActionDeleted = "deleted"
	ActionMoved   = "moved"
	ActionWalls   = "walls"
)

// EntityEvent is published after a successful lifecycle change.
type EntityEvent struct {
	ID        string      `json:"id"`
	Action    string      `json:"action"`
	Name      string      `json:"name,omitempty"`
	Kind      string      `json:"kind,omitempty"`
	Pose      *scene.Pose `json:"pose,omitempty"`
	Walls     int         `json:"walls,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Schema returns the message type for SpawnRequest.
func (p *SpawnRequest) Schema() message.Type { return SpawnRequestType }

// Validate validates the SpawnRequest.
func (p *SpawnRequest) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// MarshalJSON marshals the SpawnRequest to JSON.
func (p *SpawnRequest) MarshalJSON() ([]byte, error) {
	type Alias SpawnRequest
	return json.Marshal((*Alias)(p))
}

// UnmarshalJSON unmarshals the SpawnRequest from JSON.
func (p *SpawnRequest) UnmarshalJSON(data []byte) error {
	type Alias SpawnRequest
	return json.Unmarshal(data, (*Alias)(p))
}

// Schema returns the message type for SpawnWallsRequest.
func (p *SpawnWallsRequest) Schema() message.Type { return SpawnWallsRequestType }

// Validate validates the SpawnWallsRequest. An empty batch is valid and
// clears every wall.
func (p *SpawnWallsRequest) Validate() error { return nil }

// MarshalJSON marshals the SpawnWallsRequest to JSON.
func (p *SpawnWallsRequest) MarshalJSON() ([]byte, error) {
	type Alias SpawnWallsRequest
	return json.Marshal((*Alias)(p))
}

// UnmarshalJSON unmarshals the SpawnWallsRequest from JSON.
func (p *SpawnWallsRequest) UnmarshalJSON(data []byte) error {
	type Alias SpawnWallsRequest
	return json.Unmarshal(data, (*Alias)(p))
}

// Schema returns the message type for DeleteRequest.
func (p *DeleteRequest) Schema() message.Type { return DeleteRequestType }

// Validate validates the DeleteRequest.
func (p *DeleteRequest) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// MarshalJSON marshals the DeleteRequest to JSON.
func (p *DeleteRequest) MarshalJSON() ([]byte, error) {
	type Alias DeleteRequest
	return json.Marshal((*Alias)(p))
}

// UnmarshalJSON unmarshals the DeleteRequest from JSON.
func (p *DeleteRequest) UnmarshalJSON(data []byte) error {
	type Alias DeleteRequest
	return json.Unmarshal(data, (*Alias)(p))
}

// Schema returns the message type for SetStateRequest.
func (p *SetStateRequest) Schema() message.Type { return SetStateRequestType }

// Validate validates the SetStateRequest.
func (p *SetStateRequest) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// MarshalJSON marshals the SetStateRequest to JSON.
func (p *SetStateRequest) MarshalJSON() ([]byte, error) {
	type Alias SetStateRequest
	return json.Marshal((*Alias)(p))
}

// UnmarshalJSON unmarshals the SetStateRequest from JSON.
func (p *SetStateRequest) UnmarshalJSON(data []byte) error {
	type Alias SetStateRequest
	return json.Unmarshal(data, (*Alias)(p))
}

// Schema returns the message type for GoalRequest.
func (p *GoalRequest) Schema() message.Type { return GoalRequestType }

// Validate validates the GoalRequest.
func (p *GoalRequest) Validate() error { return nil }

// MarshalJSON marshals the GoalRequest to JSON.
func (p *GoalRequest) MarshalJSON() ([]byte, error) {
	type Alias GoalRequest
	return json.Marshal((*Alias)(p))
}

// UnmarshalJSON unmarshals the GoalRequest from JSON.
func (p *GoalRequest) UnmarshalJSON(data []byte) error {
	type Alias GoalRequest
	return json.Unmarshal(data, (*Alias)(p))
}

// Schema returns the message type for EntityEvent.
func (p *EntityEvent) Schema() message.Type { return EntityEventType }

// Validate validates the EntityEvent.
func (p *EntityEvent) Validate() error {
	if p.Action == "" {
		return fmt.Errorf("action is required")
	}
	return nil
}

// MarshalJSON marshals the EntityEvent to JSON.
func (p *EntityEvent) MarshalJSON() ([]byte, error) {
	type Alias EntityEvent
	return json.Marshal((*Alias)(p))
}

// UnmarshalJSON unmarshals the EntityEvent from JSON.
func (p *EntityEvent) UnmarshalJSON(data []byte) error {
	type Alias EntityEvent
	return json.Unmarshal(data, (*Alias)(p))
}

// Message types.
var (
	SpawnRequestType      = message.Type{Domain: "sim", Category: "spawn.request", Version: "v1"}
	SpawnWallsRequestType = message.Type{Domain: "sim", Category: "spawn_walls.request", Version: "v1"}
	DeleteRequestType     = message.Type{Domain: "sim", Category: "delete.request", Version: "v1"}
	SetStateRequestType   = message.Type{Domain: "sim", Category: "set_state.request", Version: "v1"}
	GoalRequestType       = message.Type{Domain: "sim", Category: "goal.request", Version: "v1"}
	EntityEventType       = message.Type{Domain: "sim", Category: "entity.event", Version: "v1"}
)

func init() {
	registrations := []struct {
		typ         message.Type
		description string
		factory     func() any
	}{
		{SpawnRequestType, "Entity spawn request", func() any { return &SpawnRequest{} }},
		{SpawnWallsRequestType, "Wall layout request", func() any { return &SpawnWallsRequest{} }},
		{DeleteRequestType, "Entity delete request", func() any { return &DeleteRequest{} }},
		{SetStateRequestType, "Entity pose request", func() any { return &SetStateRequest{} }},
		{GoalRequestType, "Navigation goal", func() any { return &GoalRequest{} }},
		{EntityEventType, "Entity lifecycle event", func() any { return &EntityEvent{} }},
	}
	for _, r := range registrations {
		if err := component.RegisterPayload(&component.PayloadRegistration{
			Domain:      r.typ.Domain,
			Category:    r.typ.Category,
			Version:     r.typ.Version,
			Description: r.description,
			Factory:     r.factory,
		}); err != nil {
			log.Printf("ERROR: failed to register %s payload: %v", r.typ.Category, err)
		}
	}
}
