// Package urdf turns robot descriptions into scene hierarchies.
//
// Every hierarchy handed to the spawner follows one layout contract: the
// robot's root node has a plugins placeholder as its first child and the base
// link as its second child. BaseLink enforces that contract.
package urdf

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/andersonmmachado/arena-unity/scene"
)

// PluginsNodeName names the placeholder child every robot root carries first.
const PluginsNodeName = "Plugins"

// Hierarchy positions of the layout contract.
const (
	pluginsIndex  = 0
	baseLinkIndex = 1
)

// ErrHierarchyContract is returned when a robot hierarchy does not follow the
// plugins-then-base-link layout.
var ErrHierarchyContract = errors.New("robot hierarchy violates layout contract")

// Builder builds a robot hierarchy named name from descriptor text.
type Builder interface {
	Build(world scene.World, name, descriptor string) (scene.Node, error)
}

// BaseLink returns the base link of a robot hierarchy: the second child of
// root, right after the plugins placeholder.
func BaseLink(root scene.Node) (scene.Node, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: nil root", ErrHierarchyContract)
	}
	children := root.Children()
	if len(children) <= baseLinkIndex {
		return nil, fmt.Errorf("%w: %s has %d children, want at least %d",
			ErrHierarchyContract, root.Name(), len(children), baseLinkIndex+1)
	}
	if name := children[pluginsIndex].Name(); name != PluginsNodeName {
		return nil, fmt.Errorf("%w: first child of %s is %q, want %q",
			ErrHierarchyContract, root.Name(), name, PluginsNodeName)
	}
	return children[baseLinkIndex], nil
}

type robotXML struct {
	XMLName xml.Name   `xml:"robot"`
	Name    string     `xml:"name,attr"`
	Links   []linkXML  `xml:"link"`
	Joints  []jointXML `xml:"joint"`
}

type linkXML struct {
	Name string `xml:"name,attr"`
}

type jointXML struct {
	Name   string    `xml:"name,attr"`
	Type   string    `xml:"type,attr"`
	Parent linkRef   `xml:"parent"`
	Child  linkRef   `xml:"child"`
	Origin originXML `xml:"origin"`
}

type linkRef struct {
	Link string `xml:"link,attr"`
}

type originXML struct {
	XYZ string `xml:"xyz,attr"`
	RPY string `xml:"rpy,attr"`
}

// LinkBuilder builds a link-only hierarchy from URDF: links become nodes,
// joints nest child links under their parents at the joint origin. Meshes,
// inertia and joint dynamics are the engine's business and are ignored.
type LinkBuilder struct{}

// Build implements Builder.
func (LinkBuilder) Build(world scene.World, name, descriptor string) (scene.Node, error) {
	var robot robotXML
	if err := xml.Unmarshal([]byte(descriptor), &robot); err != nil {
		return nil, fmt.Errorf("parse urdf: %w", err)
	}
	if len(robot.Links) == 0 {
		return nil, fmt.Errorf("urdf %s declares no links", robot.Name)
	}

	isChild := make(map[string]bool, len(robot.Joints))
	jointsByParent := make(map[string][]jointXML, len(robot.Joints))
	for _, j := range robot.Joints {
		isChild[j.Child.Link] = true
		jointsByParent[j.Parent.Link] = append(jointsByParent[j.Parent.Link], j)
	}

	baseLink := ""
	for _, l := range robot.Links {
		if !isChild[l.Name] {
			baseLink = l.Name
			break
		}
	}
	if baseLink == "" {
		return nil, fmt.Errorf("urdf %s has no root link", robot.Name)
	}

	root := world.NewNode(name, nil)
	world.NewNode(PluginsNodeName, root)
	base := world.NewNode(baseLink, root)

	type pending struct {
		link string
		node scene.Node
	}
	visited := map[string]bool{baseLink: true}
	queue := []pending{{link: baseLink, node: base}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, j := range jointsByParent[cur.link] {
			if visited[j.Child.Link] {
				world.Destroy(root)
				return nil, fmt.Errorf("urdf %s: link %s has more than one parent", robot.Name, j.Child.Link)
			}
			visited[j.Child.Link] = true

			pose, err := originPose(j.Origin)
			if err != nil {
				world.Destroy(root)
				return nil, fmt.Errorf("urdf %s joint %s: %w", robot.Name, j.Name, err)
			}
			child := world.NewNode(j.Child.Link, cur.node)
			child.SetPose(pose)
			queue = append(queue, pending{link: j.Child.Link, node: child})
		}
	}

	return root, nil
}

func originPose(o originXML) (scene.Pose, error) {
	xyz, err := parseTriple(o.XYZ)
	if err != nil {
		return scene.Pose{}, fmt.Errorf("origin xyz: %w", err)
	}
	rpy, err := parseTriple(o.RPY)
	if err != nil {
		return scene.Pose{}, fmt.Errorf("origin rpy: %w", err)
	}
	return scene.Pose{
		Position:    scene.Vector3{X: xyz[0], Y: xyz[1], Z: xyz[2]},
		Orientation: scene.QuaternionFromEuler(rpy[0], rpy[1], rpy[2]),
	}, nil
}

func parseTriple(s string) ([3]float64, error) {
	var out [3]float64
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return out, nil
	}
	if len(fields) != 3 {
		return out, fmt.Errorf("want 3 values, got %q", s)
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}
