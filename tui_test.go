package main

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	config := defaultConfig()
	config.StartMenu = false
	config.Confirmations = false
	return config
}

// newTestModel opens the two-node diagram in an 80x25 terminal with the
// viewport at the diagram origin, so cell (x, y) covers diagram
// [8x, 8x+8) x [16y, 16y+16).
func newTestModel(t *testing.T) (model, *Diagram, string) {
	t.Helper()
	d, _, _, e := twoNodeDiagram(t)
	m := newModel(testConfig(), d, "")
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 25})

	buf := m.getCurrentBuffer()
	buf.viewport.OffsetX, buf.viewport.OffsetY = 0, 0
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }
	return m, d, e
}

func update(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(model)
	require.True(t, ok)
	return out
}

func mouse(action tea.MouseAction, x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft}
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestClickSelectsEdgeThenInsertsAndDrags(t *testing.T) {
	m, d, e := newTestModel(t)

	m = update(t, m, mouse(tea.MouseActionPress, 15, 1))
	m = update(t, m, mouse(tea.MouseActionRelease, 15, 1))
	id, ok := d.SelectedEdge()
	require.True(t, ok)
	assert.Equal(t, e, id)
	assert.Empty(t, d.Waypoints(e))

	m = update(t, m, mouse(tea.MouseActionPress, 15, 2))
	assert.Equal(t, []Point{{124, 40}}, d.Waypoints(e))
	assert.True(t, m.getCurrentBuffer().dragging())
	assert.Equal(t, 1, m.window.ListenerCount())
	assert.Contains(t, m.View(), "dragging "+e+" waypoint 1")

	m = update(t, m, mouse(tea.MouseActionMotion, 20, 5))
	assert.Equal(t, []Point{{164, 88}}, d.Waypoints(e))

	m = update(t, m, mouse(tea.MouseActionRelease, 20, 5))
	assert.False(t, m.getCurrentBuffer().dragging())
	assert.Equal(t, 0, m.window.ListenerCount())

	// Insert plus drag is a single undo step.
	assert.Len(t, m.getCurrentBuffer().undoStack, 1)
	m = update(t, m, key("u"))
	assert.Empty(t, d.Waypoints(e))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Equal(t, []Point{{164, 88}}, d.Waypoints(e))
}

func TestDoubleClickDeletesWaypoint(t *testing.T) {
	m, d, e := newTestModel(t)
	d.SetWaypoints(e, []Point{{164, 88}})
	d.SelectEdge(e)
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 25})

	m = update(t, m, mouse(tea.MouseActionPress, 20, 5))
	assert.True(t, m.getCurrentBuffer().dragging())
	m = update(t, m, mouse(tea.MouseActionRelease, 20, 5))
	assert.Equal(t, []Point{{164, 88}}, d.Waypoints(e))

	m = update(t, m, mouse(tea.MouseActionPress, 20, 5))
	assert.Empty(t, d.Waypoints(e))
	assert.False(t, m.getCurrentBuffer().dragging())
}

func TestSlowSecondClickDoesNotDelete(t *testing.T) {
	m, d, e := newTestModel(t)
	d.SetWaypoints(e, []Point{{164, 88}})
	d.SelectEdge(e)
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 25})

	m = update(t, m, mouse(tea.MouseActionPress, 20, 5))
	m = update(t, m, mouse(tea.MouseActionRelease, 20, 5))

	later := m.now().Add(time.Second)
	m.now = func() time.Time { return later }
	m = update(t, m, mouse(tea.MouseActionPress, 20, 5))
	assert.Equal(t, []Point{{164, 88}}, d.Waypoints(e))
	assert.True(t, m.getCurrentBuffer().dragging())
}

func TestBlurEndsDrag(t *testing.T) {
	m, d, e := newTestModel(t)
	d.SelectEdge(e)
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 25})

	m = update(t, m, mouse(tea.MouseActionPress, 15, 2))
	require.True(t, m.getCurrentBuffer().dragging())

	m = update(t, m, tea.BlurMsg{})
	assert.False(t, m.getCurrentBuffer().dragging())
	assert.Equal(t, 0, m.window.ListenerCount())

	// Motion after the blur no longer moves the waypoint.
	m = update(t, m, mouse(tea.MouseActionMotion, 30, 10))
	assert.Equal(t, []Point{{124, 40}}, d.Waypoints(e))
}

func TestEscapeCancelsDragAndClearsSelection(t *testing.T) {
	m, d, e := newTestModel(t)
	d.SelectEdge(e)
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 25})

	m = update(t, m, mouse(tea.MouseActionPress, 15, 2))
	require.True(t, m.getCurrentBuffer().dragging())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.getCurrentBuffer().dragging())
	_, ok := d.SelectedEdge()
	assert.False(t, ok)
}

func TestClickOnNodeAndEmptySpace(t *testing.T) {
	m, d, _ := newTestModel(t)

	m = update(t, m, mouse(tea.MouseActionPress, 2, 1))
	id, ok := d.SelectedNode()
	require.True(t, ok)
	assert.Equal(t, "n1", id)

	update(t, m, mouse(tea.MouseActionPress, 50, 20))
	_, ok = d.SelectedNode()
	assert.False(t, ok)
}

func TestConnectMode(t *testing.T) {
	m, d, _ := newTestModel(t)
	c, err := d.AddNode(PaletteConcept, Point{0, 200})
	require.NoError(t, err)
	d.SelectNode("n1")

	m = update(t, m, key("c"))
	assert.Equal(t, ModeConnect, m.mode)

	// Node c covers cells (0..9, 12..14).
	m = update(t, m, mouse(tea.MouseActionPress, 3, 13))
	assert.Equal(t, ModeNormal, m.mode)
	assert.Len(t, d.Edges(), 2)
	assert.Equal(t, c, d.Edges()[1].Target)
	assert.Len(t, m.getCurrentBuffer().edges, 2)
}

func TestAddNodeDeleteAndUndo(t *testing.T) {
	m, d, _ := newTestModel(t)

	m = update(t, m, key("a"))
	require.Len(t, d.Nodes(), 3)
	id, ok := d.SelectedNode()
	require.True(t, ok)

	m = update(t, m, key("x"))
	_, ok = d.Node(id)
	assert.False(t, ok)

	m = update(t, m, key("u"))
	_, ok = d.Node(id)
	assert.True(t, ok)
	m = update(t, m, key("u"))
	assert.Len(t, d.Nodes(), 2)
}

func TestDeletingEdgeClosesItsComponent(t *testing.T) {
	m, d, e := newTestModel(t)
	d.SelectEdge(e)
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 25})
	m = update(t, m, mouse(tea.MouseActionPress, 15, 2))
	require.True(t, m.getCurrentBuffer().dragging())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyDelete})
	assert.Empty(t, d.Edges())
	assert.Empty(t, m.getCurrentBuffer().edges)
	assert.Equal(t, 0, m.window.ListenerCount())
}

func TestEditLabel(t *testing.T) {
	m, d, _ := newTestModel(t)
	d.SelectNode("n1")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ModeLabel, m.mode)
	m = update(t, m, key("Idea"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	node, _ := d.Node("n1")
	assert.Equal(t, "Idea", node.GetText())
	assert.Equal(t, ModeNormal, m.mode)

	update(t, m, key("u"))
	node, _ = d.Node("n1")
	assert.Equal(t, "", node.GetText())
}

func TestNavigationMovesViewport(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = update(t, m, key("l"))
	assert.Equal(t, cellWidth, m.getCurrentBuffer().viewport.OffsetX)
	m = update(t, m, key("J"))
	assert.Equal(t, 4*cellHeight, m.getCurrentBuffer().viewport.OffsetY)
	m = update(t, m, key("+"))
	assert.Greater(t, m.getCurrentBuffer().viewport.Zoom, 1.0)
	m = update(t, m, key("0"))
	assert.Equal(t, 1.0, m.getCurrentBuffer().viewport.Zoom)
}

func TestBuffers(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = update(t, m, key("N"))
	require.Len(t, m.buffers, 2)
	assert.Equal(t, DiagramMindMap, m.getDiagram().Type)
	assert.Contains(t, m.View(), "2:")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 0, m.currentBufferIndex)

	m = update(t, m, key("w"))
	assert.Len(t, m.buffers, 1)
}

func TestStartupMenu(t *testing.T) {
	config := testConfig()
	config.StartMenu = true
	m := newModel(config, nil, "")
	assert.Equal(t, ModeStartup, m.mode)
	assert.Contains(t, m.View(), "new mind map")

	m = update(t, m, key("m"))
	assert.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, DiagramMindMap, m.getDiagram().Type)
}

func TestQuitAsksForConfirmation(t *testing.T) {
	config := testConfig()
	config.Confirmations = true
	m := newModel(config, NewDiagram("", DiagramConcept), "")

	m = update(t, m, key("q"))
	assert.Equal(t, ModeConfirm, m.mode)
	assert.Contains(t, m.View(), "quit?")

	m = update(t, m, key("n"))
	assert.Equal(t, ModeNormal, m.mode)
}

func TestViewportUnavailableBeforeResize(t *testing.T) {
	d, _, _, e := twoNodeDiagram(t)
	d.SelectEdge(e)
	m := newModel(testConfig(), d, "")

	m = update(t, m, mouse(tea.MouseActionPress, 15, 2))
	assert.Empty(t, d.Waypoints(e))
	assert.False(t, m.getCurrentBuffer().dragging())
}

func TestPressInsideNodeBeatsSelectedEdgeStroke(t *testing.T) {
	m, d, e := newTestModel(t)
	d.SelectEdge(e)

	// Cell (9,1) is inside n1 and within reach of the edge's hit stroke.
	m = update(t, m, mouse(tea.MouseActionPress, 9, 1))
	m = update(t, m, mouse(tea.MouseActionRelease, 9, 1))

	assert.Empty(t, d.Waypoints(e))
	id, ok := d.SelectedNode()
	require.True(t, ok)
	assert.Equal(t, "n1", id)
	assert.Empty(t, m.getCurrentBuffer().undoStack)
}

func TestHandleInsideNodeStillDrags(t *testing.T) {
	m, d, e := newTestModel(t)
	d.SetWaypoints(e, []Point{{36, 40}})
	d.SelectEdge(e)

	// The waypoint handle is painted over the node, so it keeps the press.
	m = update(t, m, mouse(tea.MouseActionPress, 4, 2))
	assert.True(t, m.getCurrentBuffer().dragging())
	_, ok := d.SelectedNode()
	assert.False(t, ok)
}

func TestDragNodeMovesItAndUndoes(t *testing.T) {
	m, d, e := newTestModel(t)

	m = update(t, m, mouse(tea.MouseActionPress, 2, 1))
	require.True(t, m.getCurrentBuffer().dragging())
	assert.Contains(t, m.View(), "dragging n1")

	m = update(t, m, mouse(tea.MouseActionMotion, 5, 3))
	node, _ := d.Node("n1")
	assert.Equal(t, Point{24, 32}, Point{node.X, node.Y})
	assert.Equal(t, Point{104, 56}, m.getCurrentBuffer().edges[e].FullPath()[0])

	m = update(t, m, mouse(tea.MouseActionRelease, 5, 3))
	assert.False(t, m.getCurrentBuffer().dragging())
	assert.Equal(t, 0, m.window.ListenerCount())
	require.Len(t, m.getCurrentBuffer().undoStack, 1)

	m = update(t, m, key("u"))
	node, _ = d.Node("n1")
	assert.Equal(t, Point{0, 0}, Point{node.X, node.Y})
	assert.Equal(t, Point{80, 24}, m.getCurrentBuffer().edges[e].FullPath()[0])

	update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	node, _ = d.Node("n1")
	assert.Equal(t, Point{24, 32}, Point{node.X, node.Y})
}

func TestBlurEndsNodeDrag(t *testing.T) {
	m, d, _ := newTestModel(t)

	m = update(t, m, mouse(tea.MouseActionPress, 2, 1))
	m = update(t, m, mouse(tea.MouseActionMotion, 5, 1))
	m = update(t, m, tea.BlurMsg{})
	assert.False(t, m.getCurrentBuffer().dragging())
	assert.Len(t, m.getCurrentBuffer().undoStack, 1)

	update(t, m, mouse(tea.MouseActionMotion, 30, 10))
	node, _ := d.Node("n1")
	assert.Equal(t, Point{24, 0}, Point{node.X, node.Y})
}

func TestColorKeyCyclesAndUndoes(t *testing.T) {
	m, d, _ := newTestModel(t)
	d.SelectNode("n1")

	m = update(t, m, key("C"))
	node, _ := d.Node("n1")
	assert.Equal(t, nodeColors[1], node.Color)
	m = update(t, m, key("C"))
	node, _ = d.Node("n1")
	assert.Equal(t, nodeColors[2], node.Color)

	m = update(t, m, key("u"))
	node, _ = d.Node("n1")
	assert.Equal(t, nodeColors[1], node.Color)
	m = update(t, m, key("u"))
	node, _ = d.Node("n1")
	assert.Equal(t, "", node.Color)

	d.ClearSelection()
	m = update(t, m, key("C"))
	assert.NotEmpty(t, m.errorMessage)
}

func TestBackspaceRemovesWholeRune(t *testing.T) {
	m, d, _ := newTestModel(t)
	d.SelectNode("n1")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, key("héé"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "hé", m.editText)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	node, _ := d.Node("n1")
	assert.Equal(t, "hé", node.GetText())

	m = update(t, m, key("p"))
	require.Equal(t, ModeFileInput, m.mode)
	m = update(t, m, key("ü"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "", m.filename)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "", m.filename)
}

func TestFarWaypointDoesNotBreakView(t *testing.T) {
	m, d, e := newTestModel(t)
	d.SetWaypoints(e, []Point{{1e15, 0}})
	d.SelectEdge(e)

	assert.NotPanics(t, func() { _ = m.View() })
}

func TestDiagramChangesReachEdgeComponents(t *testing.T) {
	m, d, _ := newTestModel(t)
	c, err := d.AddNode(PaletteConcept, Point{0, 200})
	require.NoError(t, err)

	id, err := d.Connect("n1", c)
	require.NoError(t, err)
	assert.Contains(t, m.getCurrentBuffer().edges, id)

	d.SelectEdge(id)
	assert.True(t, m.getCurrentBuffer().edges[id].Render().Selected)

	d.RemoveEdge(id)
	assert.NotContains(t, m.getCurrentBuffer().edges, id)
}

func TestClosedBufferStopsObserving(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = update(t, m, key("N"))
	buf := m.getCurrentBuffer()
	closed := buf.diagram

	m = update(t, m, key("w"))
	require.Len(t, m.buffers, 1)

	a, _ := closed.AddNode(PaletteMindMapBranch, Point{0, 0})
	b, _ := closed.AddNode(PaletteMindMapBranch, Point{200, 0})
	_, err := closed.Connect(a, b)
	require.NoError(t, err)
	assert.Empty(t, buf.edges)
}
