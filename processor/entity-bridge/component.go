// Package entitybridge exposes the simulation's entity lifecycle over NATS:
// spawn, delete, move, wall layout and goal notifications.
//
// Every handler runs under one dispatch lock, so the lifecycle controller sees
// requests strictly one after another even though NATS delivers them on
// separate goroutines.
package entitybridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/natsclient"
	"github.com/nats-io/nats.go"

	"github.com/andersonmmachado/arena-unity/lifecycle"
	"github.com/andersonmmachado/arena-unity/robotconfig"
	"github.com/andersonmmachado/arena-unity/scene"
	"github.com/andersonmmachado/arena-unity/sensors"
	"github.com/andersonmmachado/arena-unity/storage"
)

const componentName = "entity-bridge"

// Component implements the entity-bridge processor.
type Component struct {
	name       string
	config     Config
	natsClient *natsclient.Client
	logger     *slog.Logger
	metrics    *metrics

	loader     *robotconfig.Loader
	controller *lifecycle.Controller

	// dispatch serializes handler execution
	dispatch sync.Mutex

	store   *storage.StateStore
	watcher *robotconfig.ModelWatcher

	// Lifecycle
	running       bool
	startTime     time.Time
	mu            sync.RWMutex
	cancel        context.CancelFunc
	subscriptions []*natsclient.Subscription
	goalSub       *nats.Subscription

	// Metrics
	requestsProcessed atomic.Int64
	requestsFailed    atomic.Int64
	goalsReceived     atomic.Int64
	lastActivityMu    sync.RWMutex
	lastActivity      time.Time
}

// NewComponent creates a new entity-bridge processor backed by a headless
// scene graph.
func NewComponent(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
	var config Config
	if err := json.Unmarshal(rawConfig, &config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Apply defaults if not specified
	defaults := DefaultConfig()
	if config.Ports == nil {
		config.Ports = defaults.Ports
	}
	if config.MinWallThickness == 0 {
		config.MinWallThickness = defaults.MinWallThickness
	}
	if config.EventPrefix == "" {
		config.EventPrefix = defaults.EventPrefix
	}

	return New(config, deps, scene.NewGraph())
}

// New creates an entity-bridge driving world.
func New(config Config, deps component.Dependencies, world scene.World) (*Component, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger := deps.GetLogger()

	loader := robotconfig.NewLoader(config.ArenaRoot, logger)
	controller, err := lifecycle.New(lifecycle.Options{
		World:            world,
		Configs:          loader,
		Sensors:          sensors.Options{RGBDFallback: config.RGBDFallback},
		MinWallThickness: config.MinWallThickness,
		Logger:           logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create lifecycle controller: %w", err)
	}

	return &Component{
		name:       componentName,
		config:     config,
		natsClient: deps.NATSClient,
		logger:     logger,
		metrics:    newMetrics(deps.MetricsRegistry, logger),
		loader:     loader,
		controller: controller,
	}, nil
}

// Initialize prepares the component.
func (c *Component) Initialize() error {
	root, err := c.loader.ResolveRoot()
	if err != nil {
		return fmt.Errorf("resolve arena root: %w", err)
	}
	c.logger.Debug("Initialized entity-bridge",
		"arena_root", root,
		"rgbd_fallback", c.config.RGBDFallback,
		"state_bucket", c.config.StateBucket)
	return nil
}

type requestHandler func(ctx context.Context, data []byte) ([]byte, error)

// Start subscribes to every operation subject.
func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("component already running")
	}
	if c.natsClient == nil {
		c.mu.Unlock()
		return fmt.Errorf("NATS client required")
	}

	// Set running state while holding lock to prevent race condition
	c.running = true
	c.startTime = time.Now()

	subCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	if err := c.subscribe(subCtx); err != nil {
		c.rollbackStart()
		return err
	}

	c.startMirror(subCtx)
	c.startWatcher(subCtx)

	c.logger.Info("entity-bridge started",
		"spawn_subject", c.config.inputSubject(PortSpawn),
		"goal_subject", c.config.inputSubject(PortGoal),
		"events", !c.config.DisableEvents)

	return nil
}

func (c *Component) subscribe(ctx context.Context) error {
	handlers := []struct {
		port    string
		handler requestHandler
	}{
		{PortSpawn, c.handleSpawn},
		{PortSpawnWalls, c.handleSpawnWalls},
		{PortDelete, c.handleDelete},
		{PortSetState, c.handleSetState},
		{PortListModels, c.handleListModels},
		{PortListEntities, c.handleListEntities},
	}

	subs := make([]*natsclient.Subscription, 0, len(handlers))
	for _, h := range handlers {
		subject := c.config.inputSubject(h.port)
		sub, err := c.natsClient.SubscribeForRequests(ctx, subject, h.handler)
		if err != nil {
			return fmt.Errorf("subscribe to %s: %w", subject, err)
		}
		subs = append(subs, sub)
	}

	conn := c.natsClient.GetConnection()
	if conn == nil {
		return fmt.Errorf("NATS connection not established")
	}
	goalSubject := c.config.inputSubject(PortGoal)
	goalSub, err := conn.Subscribe(goalSubject, func(msg *nats.Msg) {
		c.handleGoal(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", goalSubject, err)
	}

	c.mu.Lock()
	c.subscriptions = subs
	c.goalSub = goalSub
	c.mu.Unlock()
	return nil
}

func (c *Component) rollbackStart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	c.running = false
	c.cancel = nil
}

// startMirror opens the entity-state bucket. The mirror is optional; a bridge
// without JetStream still serves every operation.
func (c *Component) startMirror(ctx context.Context) {
	if c.config.StateBucket == "" {
		return
	}
	js, err := c.natsClient.JetStream()
	if err != nil {
		c.logger.Warn("JetStream unavailable, entity mirror disabled", "error", err)
		return
	}
	store, err := storage.NewStateStore(ctx, js, c.config.StateBucket)
	if err != nil {
		c.logger.Warn("Entity mirror disabled", "bucket", c.config.StateBucket, "error", err)
		return
	}
	if err := store.Clear(ctx); err != nil {
		c.logger.Warn("Failed to clear stale entity mirror", "bucket", c.config.StateBucket, "error", err)
	}

	c.dispatch.Lock()
	c.store = store
	c.dispatch.Unlock()
}

func (c *Component) startWatcher(ctx context.Context) {
	if !c.config.WatchModels {
		return
	}
	root, err := c.loader.ResolveRoot()
	if err != nil {
		c.logger.Warn("Model watcher disabled", "error", err)
		return
	}
	w, err := robotconfig.NewModelWatcher(root, robotconfig.DefaultDebounce, func(robotconfig.ModelChange) {
		c.metrics.modelChanged()
	}, c.logger)
	if err != nil {
		c.logger.Warn("Model watcher disabled", "error", err)
		return
	}
	if err := w.Start(ctx); err != nil {
		_ = w.Stop()
		c.logger.Warn("Model watcher disabled", "root", root, "error", err)
		return
	}

	c.mu.Lock()
	c.watcher = w
	c.mu.Unlock()
}

// Stop gracefully stops the component.
func (c *Component) Stop(_ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}

	if c.goalSub != nil {
		if err := c.goalSub.Unsubscribe(); err != nil {
			c.logger.Debug("Goal unsubscribe failed", "error", err)
		}
		c.goalSub = nil
	}
	if c.watcher != nil {
		if err := c.watcher.Stop(); err != nil {
			c.logger.Debug("Model watcher stop failed", "error", err)
		}
		c.watcher = nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.subscriptions = nil

	c.running = false
	c.logger.Info("entity-bridge stopped",
		"requests_processed", c.requestsProcessed.Load(),
		"requests_failed", c.requestsFailed.Load(),
		"goals_received", c.goalsReceived.Load())

	return nil
}

// Meta returns component metadata.
func (c *Component) Meta() component.Metadata {
	return component.Metadata{
		Name:        componentName,
		Type:        "processor",
		Description: "Request/reply service spawning, moving and deleting simulated entities",
		Version:     "1.0.0",
	}
}

// InputPorts returns configured input port definitions.
func (c *Component) InputPorts() []component.Port {
	if c.config.Ports == nil {
		return []component.Port{}
	}

	ports := make([]component.Port, len(c.config.Ports.Inputs))
	for i, portDef := range c.config.Ports.Inputs {
		ports[i] = component.Port{
			Name:        portDef.Name,
			Direction:   component.DirectionInput,
			Required:    portDef.Required,
			Description: portDef.Description,
			Config: component.NATSPort{
				Subject: portDef.Subject,
			},
		}
	}
	return ports
}

// OutputPorts returns configured output port definitions.
func (c *Component) OutputPorts() []component.Port {
	if c.config.Ports == nil {
		return []component.Port{}
	}

	ports := make([]component.Port, len(c.config.Ports.Outputs))
	for i, portDef := range c.config.Ports.Outputs {
		ports[i] = component.Port{
			Name:        portDef.Name,
			Direction:   component.DirectionOutput,
			Required:    portDef.Required,
			Description: portDef.Description,
			Config: component.NATSPort{
				Subject: portDef.Subject,
			},
		}
	}
	return ports
}

// ConfigSchema returns the configuration schema.
func (c *Component) ConfigSchema() component.ConfigSchema {
	return entityBridgeSchema
}

// Health returns the current health status.
func (c *Component) Health() component.HealthStatus {
	c.mu.RLock()
	running := c.running
	startTime := c.startTime
	c.mu.RUnlock()

	status := "stopped"
	if running {
		status = "running"
	}

	return component.HealthStatus{
		Healthy:    running,
		LastCheck:  time.Now(),
		ErrorCount: int(c.requestsFailed.Load()),
		Uptime:     time.Since(startTime),
		Status:     status,
	}
}

// DataFlow returns current data flow metrics.
func (c *Component) DataFlow() component.FlowMetrics {
	var errorRate float64
	if processed := c.requestsProcessed.Load(); processed > 0 {
		errorRate = float64(c.requestsFailed.Load()) / float64(processed)
	}
	return component.FlowMetrics{
		MessagesPerSecond: 0,
		BytesPerSecond:    0,
		ErrorRate:         errorRate,
		LastActivity:      c.getLastActivity(),
	}
}

func (c *Component) updateLastActivity() {
	c.lastActivityMu.Lock()
	c.lastActivity = time.Now()
	c.lastActivityMu.Unlock()
}

func (c *Component) getLastActivity() time.Time {
	c.lastActivityMu.RLock()
	defer c.lastActivityMu.RUnlock()
	return c.lastActivity
}
