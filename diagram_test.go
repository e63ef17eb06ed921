package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoNodeDiagram returns nodes n1 at (0,0) and n2 at (200,0) joined by e3.
func twoNodeDiagram(t *testing.T) (*Diagram, string, string, string) {
	t.Helper()
	d := NewDiagram("Test", DiagramConcept)
	a, err := d.AddNode(PaletteConcept, Point{0, 0})
	require.NoError(t, err)
	b, err := d.AddNode(PaletteConcept, Point{200, 0})
	require.NoError(t, err)
	e, err := d.Connect(a, b)
	require.NoError(t, err)
	return d, a, b, e
}

func TestNewDiagramDefaults(t *testing.T) {
	d := NewDiagram("", "")
	assert.Equal(t, defaultTitle, d.Title)
	assert.Equal(t, DiagramConcept, d.Type)
	assert.Empty(t, d.Nodes())
	assert.Empty(t, d.Edges())
}

func TestAddNode(t *testing.T) {
	d := NewDiagram("", DiagramConcept)

	id, err := d.AddNode(PaletteConcept, Point{10, 20})
	require.NoError(t, err)
	node, ok := d.Node(id)
	require.True(t, ok)
	assert.Equal(t, KindConcept, node.Kind)
	assert.Equal(t, 10.0, node.X)
	assert.Equal(t, float64(minNodeWidth)*cellWidth, node.Width)
	assert.Equal(t, float64(minNodeHeight)*cellHeight, node.Height)

	_, err = d.AddNode("hexagon", Point{})
	assert.Error(t, err)
	_, err = d.AddNode(PaletteConcept, Point{X: nan()})
	assert.Error(t, err)
	assert.Len(t, d.Nodes(), 1)
}

func TestNodeSizeFollowsLabel(t *testing.T) {
	var n Node
	n.SetText("hello world!\nsecond")
	assert.Equal(t, 16*cellWidth, n.Width)
	assert.Equal(t, 4*cellHeight, n.Height)
	assert.Equal(t, "hello world!\nsecond", n.GetText())
}

func TestConnectRules(t *testing.T) {
	d, a, b, e := twoNodeDiagram(t)

	edge, ok := d.Edge(e)
	require.True(t, ok)
	assert.Equal(t, a, edge.Source)
	assert.Equal(t, b, edge.Target)
	assert.True(t, edge.MarkerEnd)
	assert.False(t, edge.Animated)
	assert.Empty(t, edge.Points)

	_, err := d.Connect(a, a)
	assert.Error(t, err)
	_, err = d.Connect(a, "missing")
	assert.Error(t, err)
	_, err = d.Connect(a, b)
	assert.Error(t, err)

	// The reverse direction is a different edge.
	_, err = d.Connect(b, a)
	assert.NoError(t, err)
}

func TestMindMapEdgesAreAnimated(t *testing.T) {
	d := NewDiagram("", DiagramMindMap)
	a, _ := d.AddNode(PaletteMindMapCenter, Point{0, 0})
	b, _ := d.AddNode(PaletteMindMapLeaf, Point{200, 0})
	id, err := d.Connect(a, b)
	require.NoError(t, err)

	edge, _ := d.Edge(id)
	assert.True(t, edge.Animated)
}

func TestSetWaypointsTouchesOnlyThatEdge(t *testing.T) {
	d, a, b, e1 := twoNodeDiagram(t)
	c, _ := d.AddNode(PaletteConcept, Point{0, 200})
	e2, err := d.Connect(a, c)
	require.NoError(t, err)
	require.True(t, d.SetWaypoints(e2, []Point{{5, 5}}))

	before, _ := d.Edge(e1)
	require.True(t, d.SetWaypoints(e1, []Point{{10, 20}, {30, 40}}))

	after, _ := d.Edge(e1)
	assert.Equal(t, []Point{{10, 20}, {30, 40}}, after.Points)
	after.Points = before.Points
	assert.Equal(t, before, after)

	assert.Equal(t, []Point{{5, 5}}, d.Waypoints(e2))
	assert.Equal(t, b, after.Target)

	assert.False(t, d.SetWaypoints("missing", nil))
}

func TestSetWaypointsLastWriteWins(t *testing.T) {
	d, _, _, e := twoNodeDiagram(t)
	d.SetWaypoints(e, []Point{{1, 1}})
	d.SetWaypoints(e, []Point{{2, 2}, {3, 3}})
	assert.Equal(t, []Point{{2, 2}, {3, 3}}, d.Waypoints(e))
}

func TestWaypointsAreCopied(t *testing.T) {
	d, _, _, e := twoNodeDiagram(t)
	pts := []Point{{1, 1}}
	d.SetWaypoints(e, pts)
	pts[0].X = 99

	got := d.Waypoints(e)
	assert.Equal(t, 1.0, got[0].X)
	got[0].X = 77
	assert.Equal(t, 1.0, d.Waypoints(e)[0].X)
}

func TestObserve(t *testing.T) {
	d, _, _, e := twoNodeDiagram(t)

	var changes []Change
	dispose := d.Observe(func(c Change) { changes = append(changes, c) })

	d.SetWaypoints(e, []Point{{10, 20}})
	require.Len(t, changes, 1)
	assert.Equal(t, ChangeWaypoints, changes[0].Kind)
	assert.Equal(t, e, changes[0].EdgeID)
	assert.Equal(t, []Point{{10, 20}}, changes[0].Points)

	dispose()
	d.SetWaypoints(e, nil)
	assert.Len(t, changes, 1)
}

func TestDeleteSelectedNodeTakesItsEdges(t *testing.T) {
	d, a, _, e := twoNodeDiagram(t)
	d.SetWaypoints(e, []Point{{140, 100}})
	d.SelectNode(a)

	nodes, edges := d.DeleteSelected()
	require.Len(t, nodes, 1)
	require.Len(t, edges, 1)
	assert.Equal(t, a, nodes[0].ID)
	assert.Equal(t, []Point{{140, 100}}, edges[0].Points)
	assert.Len(t, d.Nodes(), 1)
	assert.Empty(t, d.Edges())
	assert.Nil(t, d.Waypoints(e))

	d.RestoreNode(nodes[0])
	d.RestoreEdge(edges[0])
	assert.Equal(t, []Point{{140, 100}}, d.Waypoints(e))
}

func TestDeleteSelectedEdgeKeepsNodes(t *testing.T) {
	d, _, _, e := twoNodeDiagram(t)
	d.SelectEdge(e)

	nodes, edges := d.DeleteSelected()
	assert.Empty(t, nodes)
	assert.Len(t, edges, 1)
	assert.Len(t, d.Nodes(), 2)
}

func TestRemoveNodeReturnsIncidentEdges(t *testing.T) {
	d, _, b, e := twoNodeDiagram(t)
	removed := d.RemoveNode(b)
	require.Len(t, removed, 1)
	assert.Equal(t, e, removed[0].ID)
	assert.Nil(t, d.RemoveNode("missing"))
}

func TestSelection(t *testing.T) {
	d, a, _, e := twoNodeDiagram(t)

	d.SelectNode(a)
	id, ok := d.SelectedNode()
	assert.True(t, ok)
	assert.Equal(t, a, id)

	d.SelectEdge(e)
	_, ok = d.SelectedNode()
	assert.False(t, ok)
	id, ok = d.SelectedEdge()
	assert.True(t, ok)
	assert.Equal(t, e, id)

	d.ClearSelection()
	_, ok = d.SelectedEdge()
	assert.False(t, ok)
}

func TestAnchorsAndFullPath(t *testing.T) {
	d, _, _, e := twoNodeDiagram(t)
	edge, _ := d.Edge(e)

	source, target, ok := d.Anchors(edge)
	require.True(t, ok)
	assert.Equal(t, Point{80, 24}, source)
	assert.Equal(t, Point{200, 24}, target)

	d.SetWaypoints(e, []Point{{140, 100}})
	edge, _ = d.Edge(e)
	assert.Equal(t, []Point{{80, 24}, {140, 100}, {200, 24}}, d.FullPath(edge))
}

func TestAnchorsVertical(t *testing.T) {
	d := NewDiagram("", DiagramConcept)
	a, _ := d.AddNode(PaletteConcept, Point{0, 0})
	b, _ := d.AddNode(PaletteConcept, Point{0, 200})
	id, _ := d.Connect(b, a)
	edge, _ := d.Edge(id)

	source, target, ok := d.Anchors(edge)
	require.True(t, ok)
	assert.Equal(t, Point{40, 200}, source)
	assert.Equal(t, Point{40, 48}, target)
}

func TestNodeAtAndEdgeNear(t *testing.T) {
	d, a, _, e := twoNodeDiagram(t)

	id, ok := d.NodeAt(Point{10, 10})
	assert.True(t, ok)
	assert.Equal(t, a, id)
	_, ok = d.NodeAt(Point{120, 100})
	assert.False(t, ok)

	id, ok = d.EdgeNear(Point{140, 28}, 5)
	assert.True(t, ok)
	assert.Equal(t, e, id)
	_, ok = d.EdgeNear(Point{140, 60}, 5)
	assert.False(t, ok)
}

func TestBounds(t *testing.T) {
	_, _, ok := NewDiagram("", "").Bounds()
	assert.False(t, ok)

	d, _, _, e := twoNodeDiagram(t)
	d.SetWaypoints(e, []Point{{140, 300}})
	lo, hi, ok := d.Bounds()
	require.True(t, ok)
	assert.Equal(t, Point{0, 0}, lo)
	assert.Equal(t, Point{280, 300}, hi)
}

func TestSetLabelAndMove(t *testing.T) {
	d, a, _, _ := twoNodeDiagram(t)
	assert.True(t, d.SetLabel(a, "Idea"))
	assert.True(t, d.MoveNode(a, 8, 16))
	assert.True(t, d.SetNodeColor(a, "#ff0000"))

	node, _ := d.Node(a)
	assert.Equal(t, []string{"Idea"}, node.Lines)
	assert.Equal(t, Point{8, 16}, Point{node.X, node.Y})
	assert.Equal(t, "#ff0000", node.Color)

	assert.False(t, d.SetLabel("missing", "x"))
}

func TestObserversRunInRegistrationOrder(t *testing.T) {
	d, a, _, _ := twoNodeDiagram(t)

	var order []int
	disposers := make([]func(), 0, 5)
	for i := 0; i < 5; i++ {
		disposers = append(disposers, d.Observe(func(Change) { order = append(order, i) }))
	}

	d.SetLabel(a, "x")
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)

	disposers[2]()
	disposers[2]()
	order = nil
	d.SetLabel(a, "y")
	assert.Equal(t, []int{0, 1, 3, 4}, order)
}

func TestObserverMayDisposeItselfDuringNotify(t *testing.T) {
	d, a, _, _ := twoNodeDiagram(t)

	calls := 0
	var dispose func()
	dispose = d.Observe(func(Change) {
		calls++
		dispose()
	})
	other := 0
	d.Observe(func(Change) { other++ })

	d.SetLabel(a, "x")
	d.SetLabel(a, "y")
	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, other)
}

func TestSelectionChangesNotify(t *testing.T) {
	d, a, _, e := twoNodeDiagram(t)

	var kinds []ChangeKind
	d.Observe(func(c Change) { kinds = append(kinds, c.Kind) })

	d.SelectNode(a)
	d.SelectEdge(e)
	d.ClearSelection()
	assert.Equal(t, []ChangeKind{ChangeSelection, ChangeSelection, ChangeSelection}, kinds)
}

func TestMoveNodeShiftsAnchors(t *testing.T) {
	d, a, _, e := twoNodeDiagram(t)

	require.True(t, d.MoveNode(a, 8, 16))
	node, _ := d.Node(a)
	assert.Equal(t, Point{8, 16}, Point{node.X, node.Y})
	edge, _ := d.Edge(e)
	source, _, _ := d.Anchors(edge)
	assert.Equal(t, Point{88, 40}, source)
	assert.False(t, d.MoveNode("missing", 1, 1))
	assert.False(t, d.SetNodeColor("missing", "#fff"))
}

func TestNodeWidthCountsRunes(t *testing.T) {
	d := NewDiagram("", DiagramConcept)
	id, err := d.AddNode(PaletteConcept, Point{0, 0})
	require.NoError(t, err)

	d.SetLabel(id, "ééééééééé")
	node, _ := d.Node(id)
	assert.Equal(t, 13*cellWidth, node.Width)
}
