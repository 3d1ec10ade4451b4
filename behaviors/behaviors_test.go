package behaviors

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andersonmmachado/arena-unity/robotconfig"
)

func TestLaserScanner_Configure(t *testing.T) {
	s := NewLaserScanner("/burger/scan", "burger/laser_link")
	s.Configure(robotconfig.Descriptor{
		"type":  robotconfig.String("Laser"),
		"range": robotconfig.Number(3.5),
		"angle": robotconfig.Mapping(robotconfig.Descriptor{
			"min":       robotconfig.Number(-1),
			"max":       robotconfig.Number(1),
			"increment": robotconfig.Number(0.5),
		}),
		"update_rate": robotconfig.String("fast"),
	})

	assert.Equal(t, 3.5, s.RangeMax)
	assert.Equal(t, -1.0, s.AngleMin)
	assert.Equal(t, 1.0, s.AngleMax)
	assert.Equal(t, 5, s.Beams())
	assert.Equal(t, 10.0, s.UpdateRate, "wrong-typed field keeps default")
	assert.Equal(t, "Laser", s.Params.StringOr("type", ""))
}

func TestLaserScanner_BeamsDegenerate(t *testing.T) {
	s := NewLaserScanner("", "")
	s.AngleIncrement = 0
	assert.Equal(t, 0, s.Beams())
}

func TestRGBDCamera_DefaultsAndConfigure(t *testing.T) {
	c := NewRGBDCamera("/jackal/rgbd", "jackal/camera_link")
	assert.True(t, c.Defaults)
	assert.Equal(t, "/jackal/rgbd/depth/image_raw", c.DepthTopic)
	assert.Equal(t, 640, c.Width)

	c.Configure(robotconfig.Descriptor{"width": robotconfig.Number(320)})

	assert.False(t, c.Defaults)
	assert.Equal(t, 320, c.Width)
	assert.Equal(t, 480, c.Height)
}

func TestPublisherNaming(t *testing.T) {
	p := NewPosePublisher("burger", "base_footprint")
	assert.Equal(t, "/burger/odom", p.OdomTopic)
	assert.Equal(t, "burger/base_footprint", p.BaseFrameID)

	d := NewDriveController("burger")
	assert.Equal(t, "/burger/cmd_vel", d.CmdVelTopic)
	assert.Equal(t, KindDriveController, d.Kind())
}
