package entitybridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/c360studio/semstreams/message"
	"github.com/google/uuid"

	"github.com/andersonmmachado/arena-unity/lifecycle"
	"github.com/andersonmmachado/arena-unity/robotconfig"
	"github.com/andersonmmachado/arena-unity/scene"
	"github.com/andersonmmachado/arena-unity/storage"
)

// Operation names used in logs and metrics.
const (
	opSpawn        = "spawn"
	opSpawnWalls   = "spawn_walls"
	opDelete       = "delete"
	opSetState     = "set_state"
	opListModels   = "list_models"
	opListEntities = "list_entities"
)

// decodeRequest accepts both a raw request and a BaseMessage-wrapped one.
// present reports whether the raw decode produced a meaningful request.
func decodeRequest[T any](data []byte, present func(*T) bool) (*T, error) {
	var req T
	if err := json.Unmarshal(data, &req); err == nil && present(&req) {
		return &req, nil
	}

	var baseMsg message.BaseMessage
	if err := json.Unmarshal(data, &baseMsg); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	payloadBytes, err := json.Marshal(baseMsg.Payload())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	var wrapped T
	if err := json.Unmarshal(payloadBytes, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request: %w", err)
	}
	return &wrapped, nil
}

// hasKey reports whether data is a JSON object with the top-level key.
func hasKey(data []byte, key string) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return false
	}
	_, ok := fields[key]
	return ok
}

func (c *Component) beginRequest(ctx context.Context, op string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.requestsProcessed.Add(1)
	c.updateLastActivity()

	preview := string(data)
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	c.logger.Debug("Received request", "operation", op, "size", len(data), "preview", preview)
	return nil
}

// handleSpawn creates one entity.
func (c *Component) handleSpawn(ctx context.Context, data []byte) ([]byte, error) {
	if err := c.beginRequest(ctx, opSpawn, data); err != nil {
		return nil, err
	}
	req, err := decodeRequest(data, func(r *SpawnRequest) bool { return r.Name != "" })
	if err != nil {
		return c.failure(opSpawn, err.Error())
	}
	if err := req.Validate(); err != nil {
		return c.failure(opSpawn, err.Error())
	}

	c.dispatch.Lock()
	defer c.dispatch.Unlock()

	res, err := c.controller.Spawn(lifecycle.SpawnRequest{
		Name:       req.Name,
		Descriptor: req.Descriptor,
		Pose:       req.Pose,
	})
	if err != nil {
		c.logger.Warn("Spawn failed", "entity", req.Name, "error", err)
		return c.failure(opSpawn, err.Error())
	}

	diagnostics := make([]string, 0, len(res.Diagnostics))
	for _, d := range res.Diagnostics {
		if !d.Attached {
			c.metrics.sensorSkipped(d.Sensor)
		}
		diagnostics = append(diagnostics, d.String())
	}
	pose := res.Node.Pose()

	c.metrics.setLive(c.controller.Registry().Len())
	c.mirrorPut(ctx, &storage.EntityRecord{
		Name:        res.Name,
		Kind:        res.Kind.String(),
		Pose:        pose,
		Diagnostics: diagnostics,
	})
	c.publishEvent(ctx, &EntityEvent{
		Action: ActionSpawned,
		Name:   res.Name,
		Kind:   res.Kind.String(),
		Pose:   &pose,
	})

	return c.success(opSpawn, &Response{
		Success:     true,
		Message:     fmt.Sprintf("spawned %s %s", res.Kind, res.Name),
		Kind:        res.Kind.String(),
		Diagnostics: diagnostics,
	})
}

// handleSpawnWalls replaces the wall layout.
func (c *Component) handleSpawnWalls(ctx context.Context, data []byte) ([]byte, error) {
	if err := c.beginRequest(ctx, opSpawnWalls, data); err != nil {
		return nil, err
	}
	req, err := decodeRequest(data, func(*SpawnWallsRequest) bool { return hasKey(data, "walls") })
	if err != nil {
		return c.failure(opSpawnWalls, err.Error())
	}

	c.dispatch.Lock()
	defer c.dispatch.Unlock()

	walls := c.controller.RebuildWalls(req.Walls)
	c.publishEvent(ctx, &EntityEvent{Action: ActionWalls, Walls: len(walls)})

	return c.success(opSpawnWalls, &Response{
		Success: true,
		Message: fmt.Sprintf("spawned %d walls", len(walls)),
	})
}

// handleDelete removes one entity.
func (c *Component) handleDelete(ctx context.Context, data []byte) ([]byte, error) {
	if err := c.beginRequest(ctx, opDelete, data); err != nil {
		return nil, err
	}
	req, err := decodeRequest(data, func(r *DeleteRequest) bool { return r.Name != "" })
	if err != nil {
		return c.failure(opDelete, err.Error())
	}
	if err := req.Validate(); err != nil {
		return c.failure(opDelete, err.Error())
	}

	c.dispatch.Lock()
	defer c.dispatch.Unlock()

	if err := c.controller.Delete(req.Name); err != nil {
		return c.failure(opDelete, err.Error())
	}

	c.metrics.setLive(c.controller.Registry().Len())
	c.mirrorDelete(ctx, req.Name)
	c.publishEvent(ctx, &EntityEvent{Action: ActionDeleted, Name: req.Name})

	return c.success(opDelete, &Response{
		Success: true,
		Message: fmt.Sprintf("deleted %s", req.Name),
	})
}

// handleSetState moves one entity.
func (c *Component) handleSetState(ctx context.Context, data []byte) ([]byte, error) {
	if err := c.beginRequest(ctx, opSetState, data); err != nil {
		return nil, err
	}
	req, err := decodeRequest(data, func(r *SetStateRequest) bool { return r.Name != "" })
	if err != nil {
		return c.failure(opSetState, err.Error())
	}
	if err := req.Validate(); err != nil {
		return c.failure(opSetState, err.Error())
	}

	c.dispatch.Lock()
	defer c.dispatch.Unlock()

	if err := c.controller.Move(req.Name, req.Pose); err != nil {
		return c.failure(opSetState, err.Error())
	}

	node, _ := c.controller.Registry().Lookup(req.Name)
	pose := node.Pose()
	kind := lifecycle.KindOf(node).String()
	c.mirrorMove(ctx, req.Name, kind, pose)
	c.publishEvent(ctx, &EntityEvent{Action: ActionMoved, Name: req.Name, Kind: kind, Pose: &pose})

	return c.success(opSetState, &Response{
		Success: true,
		Message: fmt.Sprintf("moved %s", req.Name),
	})
}

// handleListModels lists robot kinds with a model file under the arena root.
func (c *Component) handleListModels(ctx context.Context, data []byte) ([]byte, error) {
	if err := c.beginRequest(ctx, opListModels, data); err != nil {
		return nil, err
	}

	root, err := c.loader.ResolveRoot()
	if err != nil {
		return c.failure(opListModels, err.Error())
	}
	models, err := robotconfig.ListModels(root)
	if err != nil {
		return c.failure(opListModels, err.Error())
	}

	return c.success(opListModels, &Response{
		Success: true,
		Message: fmt.Sprintf("%d robot models", len(models)),
		Models:  models,
	})
}

// handleListEntities lists live entities.
func (c *Component) handleListEntities(ctx context.Context, data []byte) ([]byte, error) {
	if err := c.beginRequest(ctx, opListEntities, data); err != nil {
		return nil, err
	}

	c.dispatch.Lock()
	entities := c.controller.Entities()
	c.dispatch.Unlock()

	infos := make([]EntityInfo, 0, len(entities))
	for _, e := range entities {
		infos = append(infos, EntityInfo{Name: e.Name, Kind: e.Kind.String(), Pose: e.Pose})
	}

	return c.success(opListEntities, &Response{
		Success:  true,
		Message:  fmt.Sprintf("%d entities", len(infos)),
		Entities: infos,
	})
}

// handleGoal records a navigation goal. Goals have no reply.
func (c *Component) handleGoal(data []byte) {
	c.goalsReceived.Add(1)
	c.updateLastActivity()

	req, err := decodeRequest(data, func(*GoalRequest) bool { return hasKey(data, "pose") })
	if err != nil {
		c.logger.Warn("Dropping malformed goal", "error", err)
		return
	}

	c.dispatch.Lock()
	defer c.dispatch.Unlock()

	c.controller.Goal(req.Pose)
	c.metrics.goal()
}

// success marshals a reply. Replies are raw JSON without a BaseMessage
// wrapper so callers can read fields directly.
func (c *Component) success(op string, response *Response) ([]byte, error) {
	c.metrics.request(op, true)
	return json.Marshal(response)
}

// failure builds a failed reply.
func (c *Component) failure(op, msg string) ([]byte, error) {
	c.requestsFailed.Add(1)
	c.metrics.request(op, false)
	return json.Marshal(&Response{Success: false, Message: msg})
}

func (c *Component) publishEvent(ctx context.Context, event *EntityEvent) {
	if c.config.DisableEvents || c.natsClient == nil {
		return
	}
	event.ID = uuid.New().String()
	event.Timestamp = time.Now()

	baseMsg := message.NewBaseMessage(EntityEventType, event, componentName)
	data, err := json.Marshal(baseMsg)
	if err != nil {
		c.logger.Warn("Failed to marshal entity event", "action", event.Action, "error", err)
		return
	}
	subject := c.config.EventPrefix + "." + event.Action
	if err := c.natsClient.Publish(ctx, subject, data); err != nil {
		c.logger.Warn("Failed to publish entity event", "subject", subject, "error", err)
	}
}

func (c *Component) mirrorPut(ctx context.Context, rec *storage.EntityRecord) {
	if c.store == nil {
		return
	}
	if err := c.store.Put(ctx, rec); err != nil {
		c.logger.Warn("Entity mirror update failed", "entity", rec.Name, "error", err)
	}
}

func (c *Component) mirrorMove(ctx context.Context, name, kind string, pose scene.Pose) {
	if c.store == nil {
		return
	}
	rec, err := c.store.Get(ctx, name)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			c.logger.Warn("Entity mirror read failed", "entity", name, "error", err)
			return
		}
		rec = &storage.EntityRecord{Name: name, Kind: kind}
	}
	rec.Pose = pose
	c.mirrorPut(ctx, rec)
}

func (c *Component) mirrorDelete(ctx context.Context, name string) {
	if c.store == nil {
		return
	}
	if err := c.store.Delete(ctx, name); err != nil {
		c.logger.Warn("Entity mirror delete failed", "entity", name, "error", err)
	}
}
