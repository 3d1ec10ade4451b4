// Package behaviors holds the behaviors the bridge attaches to spawned
// robots: range scanners, RGB-D cameras, pose publishers and drive
// controllers.
//
// The engine side of each behavior (ray casting, rendering, odometry) is
// outside this module; these types carry the configuration the engine needs.
package behaviors

import (
	"fmt"

	"github.com/andersonmmachado/arena-unity/robotconfig"
)

// Behavior kinds.
const (
	KindLaserScanner    = "laser_scanner"
	KindRGBDCamera      = "rgbd_camera"
	KindPosePublisher   = "pose_publisher"
	KindDriveController = "drive_controller"
)

// LaserScanner is a planar range scanner.
type LaserScanner struct {
	Topic   string
	FrameID string

	RangeMax       float64
	RangeMin       float64
	AngleMin       float64
	AngleMax       float64
	AngleIncrement float64
	NoiseStdDev    float64
	UpdateRate     float64

	// Params is the full plugin descriptor the scanner was configured from.
	Params robotconfig.Descriptor
}

// Kind implements scene.Behavior.
func (*LaserScanner) Kind() string { return KindLaserScanner }

// NewLaserScanner returns a scanner publishing on topic in frameID with
// default parameters.
func NewLaserScanner(topic, frameID string) *LaserScanner {
	return &LaserScanner{
		Topic:          topic,
		FrameID:        frameID,
		RangeMax:       10,
		RangeMin:       0.05,
		AngleMin:       -3.14159,
		AngleMax:       3.14159,
		AngleIncrement: 0.01745,
		UpdateRate:     10,
	}
}

// Configure applies a Laser plugin descriptor. Fields that are absent or of
// the wrong type keep their current value.
func (s *LaserScanner) Configure(d robotconfig.Descriptor) {
	s.Params = d
	s.RangeMax = d.NumberOr("range", s.RangeMax)
	s.RangeMin = d.NumberOr("range_min", s.RangeMin)
	s.NoiseStdDev = d.NumberOr("noise_std_dev", s.NoiseStdDev)
	s.UpdateRate = d.NumberOr("update_rate", s.UpdateRate)
	if angle, ok := d.Mapping("angle"); ok {
		s.AngleMin = angle.NumberOr("min", s.AngleMin)
		s.AngleMax = angle.NumberOr("max", s.AngleMax)
		s.AngleIncrement = angle.NumberOr("increment", s.AngleIncrement)
	}
}

// Beams returns the number of rays per scan.
func (s *LaserScanner) Beams() int {
	if s.AngleIncrement <= 0 || s.AngleMax <= s.AngleMin {
		return 0
	}
	return int((s.AngleMax-s.AngleMin)/s.AngleIncrement) + 1
}

// RGBDCamera is a color plus depth camera.
type RGBDCamera struct {
	ColorTopic string
	DepthTopic string
	InfoTopic  string
	FrameID    string

	Width      int
	Height     int
	FOV        float64
	NearClip   float64
	FarClip    float64
	UpdateRate float64

	// Defaults is true when the camera runs on default parameters because
	// it was mounted through the Laser fallback.
	Defaults bool
	Params   robotconfig.Descriptor
}

// Kind implements scene.Behavior.
func (*RGBDCamera) Kind() string { return KindRGBDCamera }

// NewRGBDCamera returns a camera publishing under topicPrefix in frameID with
// default parameters.
func NewRGBDCamera(topicPrefix, frameID string) *RGBDCamera {
	return &RGBDCamera{
		ColorTopic: topicPrefix + "/color/image_raw",
		DepthTopic: topicPrefix + "/depth/image_raw",
		InfoTopic:  topicPrefix + "/camera_info",
		FrameID:    frameID,
		Width:      640,
		Height:     480,
		FOV:        60,
		NearClip:   0.1,
		FarClip:    10,
		UpdateRate: 10,
		Defaults:   true,
	}
}

// Configure applies an RGBDCamera plugin descriptor.
func (c *RGBDCamera) Configure(d robotconfig.Descriptor) {
	c.Params = d
	c.Defaults = false
	c.Width = int(d.NumberOr("width", float64(c.Width)))
	c.Height = int(d.NumberOr("height", float64(c.Height)))
	c.FOV = d.NumberOr("fov", c.FOV)
	c.NearClip = d.NumberOr("near_clip", c.NearClip)
	c.FarClip = d.NumberOr("far_clip", c.FarClip)
	c.UpdateRate = d.NumberOr("update_rate", c.UpdateRate)
}

// PosePublisher publishes the robot's transform tree and odometry.
type PosePublisher struct {
	OdomTopic   string
	OdomFrameID string
	BaseFrameID string
}

// Kind implements scene.Behavior.
func (*PosePublisher) Kind() string { return KindPosePublisher }

// NewPosePublisher returns the publisher for robot whose base link is
// baseLink.
func NewPosePublisher(robot, baseLink string) *PosePublisher {
	return &PosePublisher{
		OdomTopic:   fmt.Sprintf("/%s/odom", robot),
		OdomFrameID: fmt.Sprintf("%s/odom", robot),
		BaseFrameID: fmt.Sprintf("%s/%s", robot, baseLink),
	}
}

// DriveController consumes velocity commands for the robot.
type DriveController struct {
	CmdVelTopic string
}

// Kind implements scene.Behavior.
func (*DriveController) Kind() string { return KindDriveController }

// NewDriveController returns the controller for robot.
func NewDriveController(robot string) *DriveController {
	return &DriveController{CmdVelTopic: fmt.Sprintf("/%s/cmd_vel", robot)}
}
