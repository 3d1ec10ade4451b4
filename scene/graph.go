package scene

// Graph is a headless World kept entirely in memory.
//
// Graph is not safe for concurrent use. Callers serialize access the same way
// they would for a real engine's main thread.
type Graph struct {
	root *graphNode
}

// NewGraph returns an empty world.
func NewGraph() *Graph {
	g := &Graph{}
	g.root = &graphNode{graph: g, name: "__root__", scale: Vector3{X: 1, Y: 1, Z: 1}}
	return g
}

// Root implements World.
func (g *Graph) Root() Node {
	return g.root
}

// NewNode implements World.
func (g *Graph) NewNode(name string, parent Node) Node {
	n := &graphNode{
		graph: g,
		name:  name,
		pose:  Pose{Orientation: IdentityQuaternion},
		scale: Vector3{X: 1, Y: 1, Z: 1},
	}
	n.SetParent(parent)
	return n
}

// NewPrimitive implements World.
func (g *Graph) NewPrimitive(shape Shape, name string, parent Node) Node {
	n := g.NewNode(name, parent).(*graphNode)
	n.shape = shape
	return n
}

// Destroy implements World.
func (g *Graph) Destroy(n Node) {
	gn, ok := n.(*graphNode)
	if !ok || gn == g.root || gn.destroyed {
		return
	}
	if gn.parent != nil {
		gn.parent.removeChild(gn)
	}
	gn.parent = nil
	gn.markDestroyed()
}

// FindByTag implements World.
func (g *Graph) FindByTag(tag string) []Node {
	var out []Node
	stack := []*graphNode{g.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n != g.root && n.tag == tag {
			out = append(out, n)
		}
		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, n.children[i])
		}
	}
	return out
}

// Count returns the number of live nodes, excluding the root.
func (g *Graph) Count() int {
	count := 0
	stack := []*graphNode{g.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count += len(n.children)
		stack = append(stack, n.children...)
	}
	return count
}

// Shape returns the primitive mesh of n, or "" when n is not a Graph
// primitive.
func (g *Graph) Shape(n Node) Shape {
	if gn, ok := n.(*graphNode); ok {
		return gn.shape
	}
	return ""
}

// Alive reports whether n belongs to g and has not been destroyed.
func (g *Graph) Alive(n Node) bool {
	gn, ok := n.(*graphNode)
	return ok && gn.graph == g && !gn.destroyed
}

type graphNode struct {
	graph     *Graph
	name      string
	tag       string
	shape     Shape
	parent    *graphNode
	children  []*graphNode
	pose      Pose
	scale     Vector3
	gravity   bool
	behaviors []Behavior
	destroyed bool
}

func (n *graphNode) Name() string        { return n.name }
func (n *graphNode) SetName(name string) { n.name = name }
func (n *graphNode) Tag() string         { return n.tag }
func (n *graphNode) SetTag(tag string)   { n.tag = tag }
func (n *graphNode) Pose() Pose          { return n.pose }
func (n *graphNode) SetPose(p Pose)      { n.pose = p }
func (n *graphNode) Scale() Vector3      { return n.scale }
func (n *graphNode) SetScale(s Vector3)  { n.scale = s }
func (n *graphNode) Gravity() bool       { return n.gravity }
func (n *graphNode) SetGravity(on bool)  { n.gravity = on }

func (n *graphNode) AddBehavior(b Behavior) {
	n.behaviors = append(n.behaviors, b)
}

func (n *graphNode) Behaviors() []Behavior {
	out := make([]Behavior, len(n.behaviors))
	copy(out, n.behaviors)
	return out
}

func (n *graphNode) Parent() Node {
	if n.parent == nil || n.parent == n.graph.root {
		return nil
	}
	return n.parent
}

func (n *graphNode) SetParent(parent Node) {
	target := n.graph.root
	if p, ok := parent.(*graphNode); ok && p != nil && p.graph == n.graph {
		target = p
	}
	if n.parent == target {
		return
	}
	if n.parent != nil {
		n.parent.removeChild(n)
	}
	n.parent = target
	target.children = append(target.children, n)
}

func (n *graphNode) Children() []Node {
	out := make([]Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *graphNode) removeChild(c *graphNode) {
	for i, existing := range n.children {
		if existing == c {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}

func (n *graphNode) markDestroyed() {
	stack := []*graphNode{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cur.destroyed = true
		stack = append(stack, cur.children...)
	}
}
