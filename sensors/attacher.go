// Package sensors attaches sensor behaviors to a spawned robot according to
// its model document.
//
// Attachment is best effort per sensor. A missing plugin, a missing frame or
// an unresolvable frame produces a Diagnostic and the robot spawns without
// that sensor.
package sensors

import (
	"fmt"
	"log/slog"

	"github.com/andersonmmachado/arena-unity/behaviors"
	"github.com/andersonmmachado/arena-unity/resolver"
	"github.com/andersonmmachado/arena-unity/robotconfig"
	"github.com/andersonmmachado/arena-unity/scene"
)

// Plugin kinds read from robot models.
const (
	PluginLaser      = "Laser"
	PluginRGBDCamera = "RGBDCamera"
)

// Sensor names used in diagnostics.
const (
	SensorLaser      = "laser"
	SensorRGBDCamera = "rgbd_camera"
	SensorConfig     = "config"
)

// Options controls attachment policy.
type Options struct {
	// RGBDFallback mounts a default-configured RGB-D camera at the Laser
	// frame when the model has no RGBDCamera plugin.
	RGBDFallback bool
}

// Diagnostic is the outcome of one attachment step.
type Diagnostic struct {
	Sensor   string
	Attached bool
	// Frame is the node the sensor was mounted on, when attached.
	Frame string
	// Fallback is true when the camera was mounted through the Laser fallback.
	Fallback bool
	Err      error
}

// String renders the diagnostic for reply messages.
func (d Diagnostic) String() string {
	switch {
	case d.Attached && d.Fallback:
		return fmt.Sprintf("%s: attached at %s (laser fallback, default parameters)", d.Sensor, d.Frame)
	case d.Attached:
		return fmt.Sprintf("%s: attached at %s", d.Sensor, d.Frame)
	case d.Err != nil:
		return fmt.Sprintf("%s: skipped: %v", d.Sensor, d.Err)
	default:
		return fmt.Sprintf("%s: skipped", d.Sensor)
	}
}

// Attacher wires sensor behaviors onto robot hierarchies.
type Attacher struct {
	opts   Options
	logger *slog.Logger
}

// NewAttacher creates an attacher.
func NewAttacher(opts Options, logger *slog.Logger) *Attacher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Attacher{opts: opts, logger: logger}
}

// Attach mounts every configured sensor on the robot rooted at root and
// returns one Diagnostic per sensor, laser first.
func (a *Attacher) Attach(entity string, root scene.Node, cfg *robotconfig.RobotConfig) []Diagnostic {
	return []Diagnostic{
		a.attachLaser(entity, root, cfg),
		a.attachCamera(entity, root, cfg),
	}
}

func (a *Attacher) attachLaser(entity string, root scene.Node, cfg *robotconfig.RobotConfig) Diagnostic {
	diag := Diagnostic{Sensor: SensorLaser}

	d, err := resolver.FindPlugin(cfg, PluginLaser)
	if err != nil {
		diag.Err = err
		a.logger.Info("Robot has no laser plugin", "entity", entity)
		return diag
	}
	node, err := resolver.ResolveFrame(root, d)
	if err != nil {
		diag.Err = err
		a.logger.Warn("Laser frame unresolved, skipping", "entity", entity, "error", err)
		return diag
	}

	scanner := behaviors.NewLaserScanner(
		fmt.Sprintf("/%s/scan", entity),
		fmt.Sprintf("%s/%s", entity, node.Name()),
	)
	scanner.Configure(d)
	node.AddBehavior(scanner)

	diag.Attached = true
	diag.Frame = node.Name()
	a.logger.Debug("Attached laser scanner", "entity", entity, "frame", node.Name(), "topic", scanner.Topic)
	return diag
}

func (a *Attacher) attachCamera(entity string, root scene.Node, cfg *robotconfig.RobotConfig) Diagnostic {
	diag := Diagnostic{Sensor: SensorRGBDCamera}

	d, err := resolver.FindPlugin(cfg, PluginRGBDCamera)
	if err == nil {
		node, err := resolver.ResolveFrame(root, d)
		if err != nil {
			diag.Err = err
			a.logger.Warn("RGB-D camera frame unresolved, skipping", "entity", entity, "error", err)
			return diag
		}
		camera := a.newCamera(entity, node)
		camera.Configure(d)
		node.AddBehavior(camera)

		diag.Attached = true
		diag.Frame = node.Name()
		a.logger.Debug("Attached RGB-D camera", "entity", entity, "frame", node.Name())
		return diag
	}

	if !a.opts.RGBDFallback {
		diag.Err = err
		a.logger.Info("Robot has no RGB-D camera plugin", "entity", entity)
		return diag
	}

	laser, err := resolver.FindPlugin(cfg, PluginLaser)
	if err != nil {
		diag.Err = fmt.Errorf("rgbd fallback: %w", err)
		a.logger.Info("No RGB-D camera or laser plugin for fallback", "entity", entity)
		return diag
	}
	// Only the laser's frame is borrowed; its scan parameters mean nothing to a camera
	mount := robotconfig.Descriptor{robotconfig.KeyType: robotconfig.String(PluginLaser)}
	if frame, ok := laser.Get(robotconfig.KeyFrame); ok {
		mount[robotconfig.KeyFrame] = frame
	}
	node, err := resolver.ResolveFrame(root, mount)
	if err != nil {
		diag.Err = fmt.Errorf("rgbd fallback: %w", err)
		a.logger.Warn("RGB-D fallback frame unresolved, skipping", "entity", entity, "error", err)
		return diag
	}
	node.AddBehavior(a.newCamera(entity, node))

	diag.Attached = true
	diag.Fallback = true
	diag.Frame = node.Name()
	a.logger.Debug("Attached RGB-D camera at laser frame", "entity", entity, "frame", node.Name())
	return diag
}

func (a *Attacher) newCamera(entity string, node scene.Node) *behaviors.RGBDCamera {
	return behaviors.NewRGBDCamera(
		fmt.Sprintf("/%s/rgbd", entity),
		fmt.Sprintf("%s/%s", entity, node.Name()),
	)
}
