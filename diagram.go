package main

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

type DiagramType string

const (
	DiagramConcept DiagramType = "concept"
	DiagramMindMap DiagramType = "mindmap"
)

type Node struct {
	ID       string
	Kind     string
	Variant  string
	X        float64
	Y        float64
	Width    float64
	Height   float64
	Lines    []string
	Color    string
	Selected bool
}

func (n *Node) GetText() string {
	return strings.Join(n.Lines, "\n")
}

func (n *Node) SetText(text string) {
	n.Lines = strings.Split(text, "\n")
	n.updateSize()
}

// updateSize derives the node's extent from its label, one cell of padding
// on each side plus the border.
func (n *Node) updateSize() {
	if len(n.Lines) == 0 {
		n.Lines = []string{""}
	}

	cols := minNodeWidth
	for _, line := range n.Lines {
		if w := utf8.RuneCountInString(line) + 4; w > cols {
			cols = w
		}
	}
	rows := len(n.Lines) + 2
	if rows < minNodeHeight {
		rows = minNodeHeight
	}

	n.Width = float64(cols) * cellWidth
	n.Height = float64(rows) * cellHeight
}

func (n Node) Center() Point {
	return Point{X: n.X + n.Width/2, Y: n.Y + n.Height/2}
}

func (n Node) Contains(p Point) bool {
	return p.X >= n.X && p.X < n.X+n.Width && p.Y >= n.Y && p.Y < n.Y+n.Height
}

// Edge connects two nodes. Points holds the interior waypoints only; the
// anchors are derived from the node positions.
type Edge struct {
	ID           string
	Source       string
	SourceHandle string
	Target       string
	TargetHandle string
	Points       []Point
	StrokeWidth  float64
	Animated     bool
	MarkerEnd    bool
	Selected     bool
}

type ChangeKind int

const (
	ChangeNodes ChangeKind = iota
	ChangeEdges
	ChangeWaypoints
	ChangeSelection
)

// Change describes one mutation of a Diagram. EdgeID and Points are set for
// ChangeWaypoints only.
type Change struct {
	Kind   ChangeKind
	EdgeID string
	Points []Point
}

type Diagram struct {
	Title string
	Type  DiagramType

	nodes        []Node
	edges        []Edge
	observers    []observer
	nextObserver int
	nextID       int
}

func NewDiagram(title string, diagramType DiagramType) *Diagram {
	if title == "" {
		title = defaultTitle
	}
	if diagramType == "" {
		diagramType = DiagramConcept
	}
	return &Diagram{
		Title:     title,
		Type:      diagramType,
		nodes:     make([]Node, 0),
		edges:     make([]Edge, 0),
	}
}

type observer struct {
	id int
	fn func(Change)
}

// Observe registers fn to be called after every mutation, in registration
// order. The returned function unregisters it.
func (d *Diagram) Observe(fn func(Change)) func() {
	d.nextObserver++
	id := d.nextObserver
	d.observers = append(d.observers, observer{id: id, fn: fn})
	return func() {
		for i, o := range d.observers {
			if o.id == id {
				d.observers = append(d.observers[:i:i], d.observers[i+1:]...)
				return
			}
		}
	}
}

func (d *Diagram) notify(change Change) {
	// An observer may unregister itself while being called.
	for _, o := range append([]observer(nil), d.observers...) {
		o.fn(change)
	}
}

func (d *Diagram) newID(prefix string) string {
	for {
		d.nextID++
		id := fmt.Sprintf("%s%d", prefix, d.nextID)
		if _, ok := d.nodeIndex(id); ok {
			continue
		}
		if _, ok := d.edgeIndex(id); ok {
			continue
		}
		return id
	}
}

func (d *Diagram) nodeIndex(id string) (int, bool) {
	for i := range d.nodes {
		if d.nodes[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

func (d *Diagram) edgeIndex(id string) (int, bool) {
	for i := range d.edges {
		if d.edges[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

func (d *Diagram) Nodes() []Node {
	out := make([]Node, len(d.nodes))
	copy(out, d.nodes)
	return out
}

func (d *Diagram) Edges() []Edge {
	out := make([]Edge, len(d.edges))
	for i, e := range d.edges {
		e.Points = clonePoints(e.Points)
		out[i] = e
	}
	return out
}

func (d *Diagram) Node(id string) (Node, bool) {
	if i, ok := d.nodeIndex(id); ok {
		return d.nodes[i], true
	}
	return Node{}, false
}

func (d *Diagram) Edge(id string) (Edge, bool) {
	if i, ok := d.edgeIndex(id); ok {
		e := d.edges[i]
		e.Points = clonePoints(e.Points)
		return e, true
	}
	return Edge{}, false
}

// AddNode creates a node of the given palette kind at pos and returns its id.
func (d *Diagram) AddNode(kind string, pos Point) (string, error) {
	if !pos.IsFinite() {
		return "", fmt.Errorf("invalid node position %v", pos)
	}
	node, err := newNode(kind)
	if err != nil {
		return "", err
	}
	node.ID = d.newID("n")
	node.X = pos.X
	node.Y = pos.Y
	d.nodes = append(d.nodes, node)
	d.notify(Change{Kind: ChangeNodes})
	return node.ID, nil
}

// RestoreNode re-inserts a previously removed node as-is.
func (d *Diagram) RestoreNode(node Node) {
	if _, ok := d.nodeIndex(node.ID); ok {
		return
	}
	d.nodes = append(d.nodes, node)
	d.notify(Change{Kind: ChangeNodes})
}

// RemoveNode deletes a node and every edge attached to it. The removed
// edges are returned.
func (d *Diagram) RemoveNode(id string) []Edge {
	i, ok := d.nodeIndex(id)
	if !ok {
		return nil
	}
	d.nodes = append(d.nodes[:i], d.nodes[i+1:]...)

	var removed []Edge
	kept := make([]Edge, 0, len(d.edges))
	for _, e := range d.edges {
		if e.Source == id || e.Target == id {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	d.edges = kept
	d.notify(Change{Kind: ChangeNodes})
	if len(removed) > 0 {
		d.notify(Change{Kind: ChangeEdges})
	}
	return removed
}

// Connect adds an edge from source to target. Self loops, unknown nodes and
// duplicate connections are rejected.
func (d *Diagram) Connect(source, target string) (string, error) {
	return d.connectHandles(source, "", target, "")
}

func (d *Diagram) connectHandles(source, sourceHandle, target, targetHandle string) (string, error) {
	if source == target {
		return "", fmt.Errorf("cannot connect node %s to itself", source)
	}
	if _, ok := d.nodeIndex(source); !ok {
		return "", fmt.Errorf("unknown source node %s", source)
	}
	if _, ok := d.nodeIndex(target); !ok {
		return "", fmt.Errorf("unknown target node %s", target)
	}
	for _, e := range d.edges {
		if e.Source == source && e.Target == target &&
			e.SourceHandle == sourceHandle && e.TargetHandle == targetHandle {
			return "", fmt.Errorf("nodes %s and %s are already connected", source, target)
		}
	}

	edge := Edge{
		ID:           d.newID("e"),
		Source:       source,
		SourceHandle: sourceHandle,
		Target:       target,
		TargetHandle: targetHandle,
		Points:       []Point{},
		StrokeWidth:  edgeStrokeWidth,
		Animated:     d.Type == DiagramMindMap,
		MarkerEnd:    true,
	}
	d.edges = append(d.edges, edge)
	d.notify(Change{Kind: ChangeEdges})
	return edge.ID, nil
}

func (d *Diagram) RestoreEdge(edge Edge) {
	if _, ok := d.edgeIndex(edge.ID); ok {
		return
	}
	edge.Points = clonePoints(edge.Points)
	d.edges = append(d.edges, edge)
	d.notify(Change{Kind: ChangeEdges})
}

// RemoveEdge deletes an edge together with its waypoints.
func (d *Diagram) RemoveEdge(id string) (Edge, bool) {
	i, ok := d.edgeIndex(id)
	if !ok {
		return Edge{}, false
	}
	edge := d.edges[i]
	d.edges = append(d.edges[:i], d.edges[i+1:]...)
	d.notify(Change{Kind: ChangeEdges})
	return edge, true
}

// SetWaypoints replaces the waypoints of one edge, leaving every other
// field and every other edge untouched. The last call wins.
func (d *Diagram) SetWaypoints(edgeID string, points []Point) bool {
	i, ok := d.edgeIndex(edgeID)
	if !ok {
		return false
	}
	d.edges[i].Points = clonePoints(points)
	d.notify(Change{Kind: ChangeWaypoints, EdgeID: edgeID, Points: clonePoints(points)})
	return true
}

func (d *Diagram) Waypoints(edgeID string) []Point {
	if i, ok := d.edgeIndex(edgeID); ok {
		return clonePoints(d.edges[i].Points)
	}
	return nil
}

func (d *Diagram) SetLabel(id, text string) bool {
	i, ok := d.nodeIndex(id)
	if !ok {
		return false
	}
	d.nodes[i].SetText(text)
	d.notify(Change{Kind: ChangeNodes})
	return true
}

func (d *Diagram) SetNodeColor(id, color string) bool {
	i, ok := d.nodeIndex(id)
	if !ok {
		return false
	}
	d.nodes[i].Color = color
	d.notify(Change{Kind: ChangeNodes})
	return true
}

func (d *Diagram) MoveNode(id string, dx, dy float64) bool {
	i, ok := d.nodeIndex(id)
	if !ok {
		return false
	}
	d.nodes[i].X += dx
	d.nodes[i].Y += dy
	d.notify(Change{Kind: ChangeNodes})
	return true
}

func (d *Diagram) SelectNode(id string) {
	d.clearSelection()
	if i, ok := d.nodeIndex(id); ok {
		d.nodes[i].Selected = true
	}
	d.notify(Change{Kind: ChangeSelection})
}

func (d *Diagram) SelectEdge(id string) {
	d.clearSelection()
	if i, ok := d.edgeIndex(id); ok {
		d.edges[i].Selected = true
	}
	d.notify(Change{Kind: ChangeSelection})
}

func (d *Diagram) ClearSelection() {
	d.clearSelection()
	d.notify(Change{Kind: ChangeSelection})
}

func (d *Diagram) clearSelection() {
	for i := range d.nodes {
		d.nodes[i].Selected = false
	}
	for i := range d.edges {
		d.edges[i].Selected = false
	}
}

func (d *Diagram) SelectedNode() (string, bool) {
	for _, n := range d.nodes {
		if n.Selected {
			return n.ID, true
		}
	}
	return "", false
}

func (d *Diagram) SelectedEdge() (string, bool) {
	for _, e := range d.edges {
		if e.Selected {
			return e.ID, true
		}
	}
	return "", false
}

// DeleteSelected removes selected nodes (with their edges) and selected
// edges. Everything removed is returned so the deletion can be undone.
func (d *Diagram) DeleteSelected() ([]Node, []Edge) {
	var nodes []Node
	removedNode := make(map[string]bool)
	keptNodes := make([]Node, 0, len(d.nodes))
	for _, n := range d.nodes {
		if n.Selected {
			nodes = append(nodes, n)
			removedNode[n.ID] = true
			continue
		}
		keptNodes = append(keptNodes, n)
	}

	var edges []Edge
	keptEdges := make([]Edge, 0, len(d.edges))
	for _, e := range d.edges {
		if e.Selected || removedNode[e.Source] || removedNode[e.Target] {
			edges = append(edges, e)
			continue
		}
		keptEdges = append(keptEdges, e)
	}

	d.nodes = keptNodes
	d.edges = keptEdges
	if len(nodes) > 0 {
		d.notify(Change{Kind: ChangeNodes})
	}
	if len(edges) > 0 {
		d.notify(Change{Kind: ChangeEdges})
	}
	return nodes, edges
}

// NodeAt returns the topmost node containing p.
func (d *Diagram) NodeAt(p Point) (string, bool) {
	for i := len(d.nodes) - 1; i >= 0; i-- {
		if d.nodes[i].Contains(p) {
			return d.nodes[i].ID, true
		}
	}
	return "", false
}

// EdgeNear returns the topmost edge whose path passes within tolerance of p.
func (d *Diagram) EdgeNear(p Point, tolerance float64) (string, bool) {
	for i := len(d.edges) - 1; i >= 0; i-- {
		path := d.FullPath(d.edges[i])
		for j := 0; j < len(path)-1; j++ {
			if DistanceToSegment(p, path[j], path[j+1]) <= tolerance {
				return d.edges[i].ID, true
			}
		}
	}
	return "", false
}

// Anchors picks the facing sides of the two nodes: left/right when they are
// further apart horizontally than vertically, top/bottom otherwise.
func (d *Diagram) Anchors(edge Edge) (source, target Point, ok bool) {
	si, ok1 := d.nodeIndex(edge.Source)
	ti, ok2 := d.nodeIndex(edge.Target)
	if !ok1 || !ok2 {
		return Point{}, Point{}, false
	}

	from := d.nodes[si]
	to := d.nodes[ti]
	fc := from.Center()
	tc := to.Center()

	if math.Abs(fc.X-tc.X) > math.Abs(fc.Y-tc.Y) {
		if fc.X < tc.X {
			source = Point{X: from.X + from.Width, Y: fc.Y}
			target = Point{X: to.X, Y: tc.Y}
		} else {
			source = Point{X: from.X, Y: fc.Y}
			target = Point{X: to.X + to.Width, Y: tc.Y}
		}
	} else {
		if fc.Y < tc.Y {
			source = Point{X: fc.X, Y: from.Y + from.Height}
			target = Point{X: tc.X, Y: to.Y}
		} else {
			source = Point{X: fc.X, Y: from.Y}
			target = Point{X: tc.X, Y: to.Y + to.Height}
		}
	}
	return source, target, true
}

// FullPath is [sourceAnchor, waypoints..., targetAnchor].
func (d *Diagram) FullPath(edge Edge) []Point {
	source, target, ok := d.Anchors(edge)
	if !ok {
		return nil
	}
	path := make([]Point, 0, len(edge.Points)+2)
	path = append(path, source)
	path = append(path, edge.Points...)
	return append(path, target)
}

// Bounds covers every node and every waypoint. ok is false for an empty
// diagram.
func (d *Diagram) Bounds() (lo, hi Point, ok bool) {
	lo = Point{X: math.Inf(1), Y: math.Inf(1)}
	hi = Point{X: math.Inf(-1), Y: math.Inf(-1)}
	grow := func(p Point) {
		lo.X = math.Min(lo.X, p.X)
		lo.Y = math.Min(lo.Y, p.Y)
		hi.X = math.Max(hi.X, p.X)
		hi.Y = math.Max(hi.Y, p.Y)
		ok = true
	}

	for _, n := range d.nodes {
		grow(Point{X: n.X, Y: n.Y})
		grow(Point{X: n.X + n.Width, Y: n.Y + n.Height})
	}
	for _, e := range d.edges {
		for _, p := range e.Points {
			if p.IsFinite() {
				grow(p)
			}
		}
	}
	return lo, hi, ok
}
