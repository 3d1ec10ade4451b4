// Package scene defines the boundary between the entity bridge and the 3-D
// world it drives.
//
// The engine owns every node's lifetime. The bridge only holds non-owning
// references and talks to the engine through the World and Node interfaces.
// Graph is a headless in-memory World used when no engine is attached and in
// tests.
package scene

import "math"

// Well-known tags.
const (
	TagRobot      = "Robot"
	TagPedestrian = "Pedestrian"
	TagObstacle   = "Obstacle"
	TagWall       = "Wall"
)

// Vector3 is a position or extent in world units.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Sub returns v - o.
func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Add returns v + o.
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Scale returns v * f.
func (v Vector3) Scale(f float64) Vector3 {
	return Vector3{X: v.X * f, Y: v.Y * f, Z: v.Z * f}
}

// Abs returns v with every component made non-negative.
func (v Vector3) Abs() Vector3 {
	return Vector3{X: math.Abs(v.X), Y: math.Abs(v.Y), Z: math.Abs(v.Z)}
}

// Quaternion is an orientation.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// IdentityQuaternion is the zero rotation.
var IdentityQuaternion = Quaternion{W: 1}

// IsZero reports whether q is the all-zero value, which is not a valid
// rotation and usually means the field was omitted from a request.
func (q Quaternion) IsZero() bool {
	return q == Quaternion{}
}

// QuaternionFromEuler builds a quaternion from roll, pitch and yaw in radians.
func QuaternionFromEuler(roll, pitch, yaw float64) Quaternion {
	cr, sr := math.Cos(roll/2), math.Sin(roll/2)
	cp, sp := math.Cos(pitch/2), math.Sin(pitch/2)
	cy, sy := math.Cos(yaw/2), math.Sin(yaw/2)
	return Quaternion{
		X: sr*cp*cy - cr*sp*sy,
		Y: cr*sp*cy + sr*cp*sy,
		Z: cr*cp*sy - sr*sp*cy,
		W: cr*cp*cy + sr*sp*sy,
	}
}

// Pose is a position plus orientation.
type Pose struct {
	Position    Vector3    `json:"position"`
	Orientation Quaternion `json:"orientation"`
}

// Normalized returns p with an omitted orientation replaced by identity.
func (p Pose) Normalized() Pose {
	if p.Orientation.IsZero() {
		p.Orientation = IdentityQuaternion
	}
	return p
}

// Shape selects a primitive mesh.
type Shape string

// Primitive shapes the bridge asks the engine for.
const (
	ShapeCube     Shape = "cube"
	ShapeCylinder Shape = "cylinder"
)

// Behavior is a component attached to a node (sensor, publisher, controller).
type Behavior interface {
	Kind() string
}

// Node is one element of the scene hierarchy.
type Node interface {
	Name() string
	SetName(name string)
	Tag() string
	SetTag(tag string)

	Parent() Node
	// SetParent reparents the node. A nil parent attaches it to the world root.
	SetParent(parent Node)
	// Children returns the direct children in child order.
	Children() []Node

	Pose() Pose
	// SetPose overwrites the node's pose. Applying the same pose twice is a no-op.
	SetPose(p Pose)
	Scale() Vector3
	SetScale(s Vector3)

	Gravity() bool
	SetGravity(enabled bool)

	AddBehavior(b Behavior)
	Behaviors() []Behavior
}

// World creates, finds and destroys nodes.
type World interface {
	// Root is the invisible top of the hierarchy.
	Root() Node
	// NewNode creates an empty node. A nil parent means the world root.
	NewNode(name string, parent Node) Node
	// NewPrimitive creates a node carrying a primitive mesh.
	NewPrimitive(shape Shape, name string, parent Node) Node
	// Destroy removes the node and its subtree from the world.
	Destroy(n Node)
	// FindByTag scans every live node and returns those carrying tag.
	FindByTag(tag string) []Node
}

// BehaviorsOfKind returns the behaviors on n whose Kind equals kind.
func BehaviorsOfKind(n Node, kind string) []Behavior {
	var out []Behavior
	for _, b := range n.Behaviors() {
		if b.Kind() == kind {
			out = append(out, b)
		}
	}
	return out
}
