package lifecycle

import (
	"fmt"

	"github.com/andersonmmachado/arena-unity/scene"
)

// WallSegment spans a wall between two opposite corners.
type WallSegment struct {
	Start scene.Vector3 `json:"start"`
	End   scene.Vector3 `json:"end"`
}

// PivotFunc returns where a wall node is placed given its corners.
type PivotFunc func(start, end scene.Vector3) scene.Vector3

// CentroidPivot places a centre-pivot cube so that its corners land on start
// and end.
func CentroidPivot(start, end scene.Vector3) scene.Vector3 {
	return start.Add(end).Scale(0.5)
}

// RebuildWalls destroys every wall-tagged node in the scene and creates one
// cube per segment, named Wall1..WallN in input order.
func (c *Controller) RebuildWalls(segments []WallSegment) []scene.Node {
	old := c.world.FindByTag(scene.TagWall)
	for _, n := range old {
		c.world.Destroy(n)
	}

	walls := make([]scene.Node, 0, len(segments))
	for i, seg := range segments {
		wall := c.world.NewPrimitive(scene.ShapeCube, fmt.Sprintf("Wall%d", i+1), c.wallGroup)
		wall.SetScale(c.wallScale(seg))
		wall.SetPose(scene.Pose{
			Position:    c.pivot(seg.Start, seg.End),
			Orientation: scene.IdentityQuaternion,
		})
		wall.SetTag(scene.TagWall)
		walls = append(walls, wall)
	}

	c.logger.Info("Rebuilt walls", "removed", len(old), "created", len(walls))
	return walls
}

func (c *Controller) wallScale(seg WallSegment) scene.Vector3 {
	s := seg.End.Sub(seg.Start).Abs()
	if s.X == 0 {
		s.X = c.minWall
	}
	if s.Y == 0 {
		s.Y = c.minWall
	}
	if s.Z == 0 {
		s.Z = c.minWall
	}
	return s
}
