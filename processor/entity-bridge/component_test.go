// Tests for the entity-bridge component that need no NATS server. Handlers
// are invoked directly with request bytes, exactly as SubscribeForRequests
// would call them.
package entitybridge

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"
	"github.com/c360studio/semstreams/metric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andersonmmachado/arena-unity/robotconfig"
	"github.com/andersonmmachado/arena-unity/scene"
)

const burgerURDF = `<robot name="burger">
  <link name="base_footprint"/>
  <link name="laser_link"/>
  <joint name="scan_joint" type="fixed">
    <parent link="base_footprint"/>
    <child link="laser_link"/>
  </joint>
</robot>`

const burgerModel = `plugins:
  - type: Laser
    frame: laser_link
    range: 3.5
`

func newTestComponent(t *testing.T, mutate func(*Config)) (*Component, *scene.Graph) {
	t.Helper()
	root := t.TempDir()
	path := robotconfig.ModelPath(root, "burger")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(burgerModel), 0o644))

	cfg := DefaultConfig()
	cfg.ArenaRoot = root
	cfg.StateBucket = ""
	if mutate != nil {
		mutate(&cfg)
	}

	g := scene.NewGraph()
	c, err := New(cfg, component.Dependencies{Logger: slog.Default()}, g)
	require.NoError(t, err)
	return c, g
}

func call(t *testing.T, h requestHandler, req any) Response {
	t.Helper()
	data, err := json.Marshal(req)
	require.NoError(t, err)
	return callRaw(t, h, data)
}

func callRaw(t *testing.T, h requestHandler, data []byte) Response {
	t.Helper()
	out, err := h(context.Background(), data)
	require.NoError(t, err)
	var resp Response
	require.NoError(t, json.Unmarshal(out, &resp))
	return resp
}

func TestNewComponent_Unit(t *testing.T) {
	tests := []struct {
		name      string
		rawConfig json.RawMessage
		wantErr   bool
	}{
		{"invalid JSON", json.RawMessage(`{invalid json}`), true},
		{"negative wall thickness", json.RawMessage(`{"min_wall_thickness": -1}`), true},
		{"defaults", json.RawMessage(`{}`), false},
		{"events disabled", json.RawMessage(`{"disable_events": true}`), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewComponent(tt.rawConfig, component.Dependencies{Logger: slog.Default()})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestComponent_StartWithoutNATSClient(t *testing.T) {
	c, _ := newTestComponent(t, nil)

	require.NoError(t, c.Initialize())
	assert.Error(t, c.Start(context.Background()))
	assert.False(t, c.Health().Healthy)
	assert.NoError(t, c.Stop(time.Second))
}

func TestHandleSpawn_Robot(t *testing.T) {
	c, _ := newTestComponent(t, nil)

	resp := call(t, c.handleSpawn, SpawnRequest{
		Name:       "burger",
		Descriptor: burgerURDF,
		Pose:       scene.Pose{Position: scene.Vector3{X: 1, Y: 2}},
	})

	assert.True(t, resp.Success, resp.Message)
	assert.Equal(t, "robot", resp.Kind)
	require.Len(t, resp.Diagnostics, 2)
	assert.Equal(t, "laser: attached at laser_link", resp.Diagnostics[0])
	assert.Contains(t, resp.Diagnostics[1], "rgbd_camera: skipped")
	assert.True(t, c.controller.Registry().Contains("burger"))
}

func TestHandleSpawn_RGBDFallback(t *testing.T) {
	c, _ := newTestComponent(t, func(cfg *Config) { cfg.RGBDFallback = true })

	resp := call(t, c.handleSpawn, SpawnRequest{Name: "burger", Descriptor: burgerURDF})

	require.True(t, resp.Success, resp.Message)
	assert.Contains(t, resp.Diagnostics[1], "laser fallback")
}

func TestHandleSpawn_Failures(t *testing.T) {
	c, _ := newTestComponent(t, nil)

	resp := call(t, c.handleSpawn, SpawnRequest{Name: "crate", Descriptor: "<sdf/>"})
	require.True(t, resp.Success)

	resp = call(t, c.handleSpawn, SpawnRequest{Name: "crate", Descriptor: "<sdf/>"})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "already registered")

	resp = callRaw(t, c.handleSpawn, []byte(`not json`))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "failed to parse request")

	assert.Equal(t, int64(2), c.requestsFailed.Load())
	assert.InDelta(t, 2.0/3.0, c.DataFlow().ErrorRate, 1e-9)
}

func TestHandleSpawn_BaseMessageWrapped(t *testing.T) {
	c, _ := newTestComponent(t, nil)

	req := &SpawnRequest{Name: "crate", Descriptor: "<sdf/>"}
	data, err := json.Marshal(message.NewBaseMessage(SpawnRequestType, req, "test"))
	require.NoError(t, err)

	resp := callRaw(t, c.handleSpawn, data)
	assert.True(t, resp.Success, resp.Message)
	assert.Equal(t, "generic", resp.Kind)
}

func TestHandleDelete(t *testing.T) {
	c, g := newTestComponent(t, nil)
	call(t, c.handleSpawn, SpawnRequest{Name: "crate", Descriptor: "<sdf/>"})

	resp := call(t, c.handleDelete, DeleteRequest{Name: "ghost"})
	assert.False(t, resp.Success)
	assert.Equal(t, "entity ghost not found", resp.Message)
	assert.True(t, c.controller.Registry().Contains("crate"))

	resp = call(t, c.handleDelete, DeleteRequest{Name: "crate"})
	assert.True(t, resp.Success, resp.Message)
	assert.False(t, c.controller.Registry().Contains("crate"))
	assert.Empty(t, g.FindByTag(scene.TagObstacle))
}

func TestHandleSetState(t *testing.T) {
	c, _ := newTestComponent(t, nil)
	call(t, c.handleSpawn, SpawnRequest{Name: "crate", Descriptor: "<sdf/>"})

	target := scene.Pose{Position: scene.Vector3{X: 4, Y: 5}}
	resp := call(t, c.handleSetState, SetStateRequest{Name: "crate", Pose: target})
	require.True(t, resp.Success, resp.Message)

	node, _ := c.controller.Registry().Lookup("crate")
	assert.Equal(t, target.Position, node.Pose().Position)

	resp = call(t, c.handleSetState, SetStateRequest{Name: "ghost", Pose: target})
	assert.False(t, resp.Success)

	resp = call(t, c.handleSetState, SetStateRequest{})
	assert.False(t, resp.Success)
}

func TestHandleSpawnWalls(t *testing.T) {
	c, g := newTestComponent(t, nil)

	resp := callRaw(t, c.handleSpawnWalls, []byte(`{"walls":[
		{"start":{"x":0,"y":0,"z":0},"end":{"x":5,"y":0,"z":2}},
		{"start":{"x":5,"y":0,"z":0},"end":{"x":5,"y":5,"z":2}},
		{"start":{"x":5,"y":5,"z":0},"end":{"x":0,"y":5,"z":2}}]}`))
	require.True(t, resp.Success, resp.Message)
	assert.Len(t, g.FindByTag(scene.TagWall), 3)

	resp = callRaw(t, c.handleSpawnWalls, []byte(`{"walls":[
		{"start":{"x":0,"y":0,"z":0},"end":{"x":1,"y":0,"z":2}}]}`))
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, "spawned 1 walls", resp.Message)
	assert.Len(t, g.FindByTag(scene.TagWall), 1)

	resp = callRaw(t, c.handleSpawnWalls, []byte(`{"walls":[]}`))
	require.True(t, resp.Success, resp.Message)
	assert.Empty(t, g.FindByTag(scene.TagWall))
}

func TestHandleListOperations(t *testing.T) {
	c, _ := newTestComponent(t, nil)
	call(t, c.handleSpawn, SpawnRequest{Name: "zeta", Descriptor: "<sdf/>"})
	call(t, c.handleSpawn, SpawnRequest{Name: "burger", Descriptor: burgerURDF})

	resp := callRaw(t, c.handleListModels, []byte(`{}`))
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, []string{"burger"}, resp.Models)

	resp = callRaw(t, c.handleListEntities, []byte(`{}`))
	require.True(t, resp.Success, resp.Message)
	require.Len(t, resp.Entities, 2)
	assert.Equal(t, "burger", resp.Entities[0].Name)
	assert.Equal(t, "robot", resp.Entities[0].Kind)
	assert.Equal(t, "generic", resp.Entities[1].Kind)
}

func TestHandleGoal(t *testing.T) {
	c, g := newTestComponent(t, nil)
	before := g.Count()

	c.handleGoal([]byte(`{"pose":{"position":{"x":1,"y":2,"z":0}}}`))
	c.handleGoal([]byte(`garbage`))

	assert.Equal(t, int64(2), c.goalsReceived.Load())
	assert.Equal(t, before, g.Count(), "goals change no state")
}

func TestHandler_CancelledContext(t *testing.T) {
	c, _ := newTestComponent(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.handleSpawn(ctx, []byte(`{"name":"x"}`))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), c.requestsProcessed.Load())
}

func TestComponent_MetricsRegistered(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ArenaRoot = t.TempDir()
	reg := metric.NewMetricsRegistry()

	c, err := New(cfg, component.Dependencies{Logger: slog.Default(), MetricsRegistry: reg}, scene.NewGraph())
	require.NoError(t, err)
	require.NotNil(t, c.metrics)

	call(t, c.handleSpawn, SpawnRequest{Name: "crate", Descriptor: "<sdf/>"})

	families, err := reg.PrometheusRegistry().Gather()
	require.NoError(t, err)
	found := false
	for _, f := range families {
		if strings.HasPrefix(f.GetName(), "arena_entity_bridge_requests_total") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestNewMetrics_LogsRegistrationFailures(t *testing.T) {
	reg := metric.NewMetricsRegistry()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	require.NotNil(t, newMetrics(reg, logger))
	assert.Empty(t, logs.String())

	second := newMetrics(reg, logger)
	require.NotNil(t, second, "metrics still record when registration fails")
	assert.Contains(t, logs.String(), "Failed to register metric")
	assert.Contains(t, logs.String(), "requests_total")
}

func TestComponent_Ports(t *testing.T) {
	c, _ := newTestComponent(t, nil)

	inputs := c.InputPorts()
	require.Len(t, inputs, 7)
	assert.Equal(t, PortSpawn, inputs[0].Name)
	assert.Equal(t, component.DirectionInput, inputs[0].Direction)

	outputs := c.OutputPorts()
	require.Len(t, outputs, 1)
	assert.Equal(t, PortEvents, outputs[0].Name)

	assert.Equal(t, componentName, c.Meta().Name)
}

func TestConfig_InputSubject(t *testing.T) {
	cfg := Config{Ports: &component.PortConfig{Inputs: []component.PortDefinition{
		{Name: PortSpawn, Subject: "arena.spawn"},
	}}}

	assert.Equal(t, "arena.spawn", cfg.inputSubject(PortSpawn))
	assert.Equal(t, "sim.delete_model", cfg.inputSubject(PortDelete), "missing ports fall back to defaults")
	assert.Equal(t, "", cfg.inputSubject("nope"))
}

func TestPayloadValidation(t *testing.T) {
	assert.Error(t, (&SpawnRequest{}).Validate())
	assert.Error(t, (&DeleteRequest{}).Validate())
	assert.Error(t, (&SetStateRequest{}).Validate())
	assert.NoError(t, (&SpawnWallsRequest{}).Validate())
	assert.Error(t, (&EntityEvent{}).Validate())
	assert.Equal(t, EntityEventType, (&EntityEvent{}).Schema())
}

type fakeRegistry struct {
	got component.RegistrationConfig
}

func (f *fakeRegistry) RegisterWithConfig(cfg component.RegistrationConfig) error {
	f.got = cfg
	return nil
}

func TestRegister(t *testing.T) {
	assert.Error(t, Register(nil))

	reg := &fakeRegistry{}
	require.NoError(t, Register(reg))
	assert.Equal(t, componentName, reg.got.Name)
	assert.Equal(t, "processor", reg.got.Type)
}
