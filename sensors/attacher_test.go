package sensors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andersonmmachado/arena-unity/behaviors"
	"github.com/andersonmmachado/arena-unity/resolver"
	"github.com/andersonmmachado/arena-unity/robotconfig"
	"github.com/andersonmmachado/arena-unity/scene"
)

// robotTree builds burger -> [Plugins, base_link -> [lidar_link, camera_link]].
func robotTree(g *scene.Graph) (root, lidar, camera scene.Node) {
	root = g.NewNode("burger", nil)
	g.NewNode("Plugins", root)
	base := g.NewNode("base_link", root)
	lidar = g.NewNode("lidar_link", base)
	camera = g.NewNode("camera_link", base)
	return root, lidar, camera
}

func laserPlugin(frame string) robotconfig.Descriptor {
	d := robotconfig.Descriptor{
		"type":  robotconfig.String(PluginLaser),
		"range": robotconfig.Number(3.5),
	}
	if frame != "" {
		d["frame"] = robotconfig.String(frame)
	}
	return d
}

func cameraPlugin(frame string) robotconfig.Descriptor {
	return robotconfig.Descriptor{
		"type":  robotconfig.String(PluginRGBDCamera),
		"frame": robotconfig.String(frame),
		"width": robotconfig.Number(320),
	}
}

func only[T scene.Behavior](t *testing.T, n scene.Node, kind string) T {
	t.Helper()
	found := scene.BehaviorsOfKind(n, kind)
	require.Len(t, found, 1)
	b, ok := found[0].(T)
	require.True(t, ok)
	return b
}

func TestAttach_LaserNamingAndConfig(t *testing.T) {
	root, lidar, _ := robotTree(scene.NewGraph())
	cfg := &robotconfig.RobotConfig{Plugins: []robotconfig.Descriptor{laserPlugin("lidar_link")}}

	diags := NewAttacher(Options{}, nil).Attach("burger", root, cfg)

	require.Len(t, diags, 2)
	assert.True(t, diags[0].Attached)
	assert.Equal(t, "lidar_link", diags[0].Frame)

	scanner := only[*behaviors.LaserScanner](t, lidar, behaviors.KindLaserScanner)
	assert.Equal(t, "/burger/scan", scanner.Topic)
	assert.Equal(t, "burger/lidar_link", scanner.FrameID)
	assert.Equal(t, 3.5, scanner.RangeMax)
}

func TestAttach_LaserSkipped(t *testing.T) {
	tests := []struct {
		name    string
		plugins []robotconfig.Descriptor
		wantErr error
	}{
		{"no plugin", nil, resolver.ErrPluginNotFound},
		{"no frame", []robotconfig.Descriptor{laserPlugin("")}, resolver.ErrMissingFrame},
		{"unknown frame", []robotconfig.Descriptor{laserPlugin("rear_link")}, resolver.ErrFrameNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, lidar, _ := robotTree(scene.NewGraph())
			cfg := &robotconfig.RobotConfig{Plugins: tt.plugins}

			diags := NewAttacher(Options{}, nil).Attach("burger", root, cfg)

			assert.False(t, diags[0].Attached)
			assert.True(t, errors.Is(diags[0].Err, tt.wantErr))
			assert.Empty(t, lidar.Behaviors())
		})
	}
}

func TestAttach_CameraFromOwnPlugin(t *testing.T) {
	root, lidar, camera := robotTree(scene.NewGraph())
	cfg := &robotconfig.RobotConfig{Plugins: []robotconfig.Descriptor{
		laserPlugin("lidar_link"),
		cameraPlugin("camera_link"),
	}}

	diags := NewAttacher(Options{RGBDFallback: true}, nil).Attach("burger", root, cfg)

	assert.True(t, diags[1].Attached)
	assert.False(t, diags[1].Fallback)
	cam := only[*behaviors.RGBDCamera](t, camera, behaviors.KindRGBDCamera)
	assert.Equal(t, 320, cam.Width)
	assert.False(t, cam.Defaults)
	assert.Equal(t, "burger/camera_link", cam.FrameID)
	assert.Empty(t, scene.BehaviorsOfKind(lidar, behaviors.KindRGBDCamera))
}

func TestAttach_CameraFallbackEnabled(t *testing.T) {
	root, lidar, _ := robotTree(scene.NewGraph())
	cfg := &robotconfig.RobotConfig{Plugins: []robotconfig.Descriptor{laserPlugin("lidar_link")}}

	diags := NewAttacher(Options{RGBDFallback: true}, nil).Attach("burger", root, cfg)

	assert.True(t, diags[1].Attached)
	assert.True(t, diags[1].Fallback)
	assert.Equal(t, "lidar_link", diags[1].Frame)

	cam := only[*behaviors.RGBDCamera](t, lidar, behaviors.KindRGBDCamera)
	assert.True(t, cam.Defaults)
	assert.Equal(t, 640, cam.Width)
	assert.Nil(t, cam.Params, "laser fields must not leak into the camera")
	assert.Equal(t, "burger/lidar_link", cam.FrameID)
}

func TestAttach_CameraFallbackDisabled(t *testing.T) {
	root, lidar, camera := robotTree(scene.NewGraph())
	cfg := &robotconfig.RobotConfig{Plugins: []robotconfig.Descriptor{laserPlugin("lidar_link")}}

	diags := NewAttacher(Options{RGBDFallback: false}, nil).Attach("burger", root, cfg)

	assert.True(t, diags[0].Attached)
	assert.False(t, diags[1].Attached)
	assert.True(t, errors.Is(diags[1].Err, resolver.ErrPluginNotFound))
	assert.Empty(t, scene.BehaviorsOfKind(lidar, behaviors.KindRGBDCamera))
	assert.Empty(t, camera.Behaviors())
}

func TestAttach_CameraFallbackWithoutLaser(t *testing.T) {
	root, _, _ := robotTree(scene.NewGraph())

	diags := NewAttacher(Options{RGBDFallback: true}, nil).Attach("burger", root, &robotconfig.RobotConfig{})

	assert.False(t, diags[0].Attached)
	assert.False(t, diags[1].Attached)
	assert.True(t, errors.Is(diags[1].Err, resolver.ErrPluginNotFound))
}

func TestAttach_CameraFailureDoesNotBlockLaser(t *testing.T) {
	root, lidar, _ := robotTree(scene.NewGraph())
	cfg := &robotconfig.RobotConfig{Plugins: []robotconfig.Descriptor{
		cameraPlugin("nowhere"),
		laserPlugin("lidar_link"),
	}}

	diags := NewAttacher(Options{}, nil).Attach("burger", root, cfg)

	assert.True(t, diags[0].Attached)
	assert.False(t, diags[1].Attached)
	assert.True(t, errors.Is(diags[1].Err, resolver.ErrFrameNotFound))
	assert.Len(t, scene.BehaviorsOfKind(lidar, behaviors.KindLaserScanner), 1)
}

func TestDiagnostic_String(t *testing.T) {
	assert.Equal(t, "laser: attached at lidar_link",
		Diagnostic{Sensor: SensorLaser, Attached: true, Frame: "lidar_link"}.String())
	assert.Contains(t,
		Diagnostic{Sensor: SensorRGBDCamera, Attached: true, Fallback: true, Frame: "lidar_link"}.String(),
		"laser fallback")
	assert.Contains(t,
		Diagnostic{Sensor: SensorLaser, Err: resolver.ErrPluginNotFound}.String(),
		"skipped: plugin not found")
}
