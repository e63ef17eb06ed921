package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f5f3ff")).Background(lipgloss.Color(colorEdgeSelected))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e"))
	bufferStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(colorEdge))
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(colorEdgeSelected)).Bold(true)
	welcomeStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorEdgeSelected)).
			Padding(1, 3)
)

func newModel(config *Config, diagram *Diagram, filename string) model {
	m := model{
		window: NewWindow(),
		mode:   ModeNormal,
		config: config,
		now:    time.Now,
	}
	if diagram == nil {
		diagram = NewDiagram("", DiagramConcept)
		if config.StartMenu {
			m.mode = ModeStartup
		}
	}
	m.addNewBuffer(diagram, filename)
	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

// canvasSize is the terminal area left for the diagram once the status
// line (and the buffer bar, with several buffers) are drawn.
func (m *model) canvasSize() (int, int) {
	rows := m.height - 1
	if len(m.buffers) > 1 {
		rows--
	}
	if rows < 0 {
		rows = 0
	}
	return m.width, rows
}

// resizeBuffers gives every buffer's viewport the current canvas size.
func (m *model) resizeBuffers() {
	cols, rows := m.canvasSize()
	for _, buf := range m.buffers {
		buf.viewport.Cols, buf.viewport.Rows = cols, rows
	}
}

// syncEdges brings the buffer's edge components in line with its diagram:
// new edges get a component, every component gets fresh props and
// components of deleted edges are closed. It runs on every diagram change.
func (buf *Buffer) syncEdges() {
	seen := make(map[string]bool)
	for _, edge := range buf.diagram.edges {
		source, target, ok := buf.diagram.Anchors(edge)
		if !ok {
			continue
		}
		seen[edge.ID] = true
		props := EdgeProps{
			ID:             edge.ID,
			Source:         source,
			Target:         target,
			Points:         edge.Points,
			OnPointsChange: buf.pointsChanged,
			Selected:       edge.Selected,
			MarkerEnd:      edge.MarkerEnd,
			Animated:       edge.Animated,
			StrokeWidth:    edge.StrokeWidth,
		}
		if comp, ok := buf.edges[edge.ID]; ok {
			comp.SetProps(props)
			continue
		}
		buf.edges[edge.ID] = NewEditableEdge(buf.window, bufferProjector{buf}, props)
	}
	for id, comp := range buf.edges {
		if !seen[id] {
			comp.Close()
			delete(buf.edges, id)
		}
	}
}

func (buf *Buffer) pointsChanged(edgeID string, points []Point) {
	before := buf.diagram.Waypoints(edgeID)
	if !buf.diagram.SetWaypoints(edgeID, points) {
		return
	}
	dragging := false
	if comp, ok := buf.edges[edgeID]; ok {
		dragging = comp.Dragging()
	}
	buf.recordWaypoints(edgeID, before, points, dragging)
}

func (buf *Buffer) dragging() bool {
	if buf.nodeDrag != nil {
		return true
	}
	_, _, ok := buf.draggedWaypoint()
	return ok
}

// draggedWaypoint reports the edge and waypoint index of a running
// waypoint drag.
func (buf *Buffer) draggedWaypoint() (string, int, bool) {
	for id, comp := range buf.edges {
		if index, ok := comp.DragIndex(); ok {
			return id, index, true
		}
	}
	return "", 0, false
}

func (m *model) afterPointer() {
	if buf := m.getCurrentBuffer(); buf != nil && !buf.dragging() {
		buf.sealWaypoints()
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeBuffers()
		return m, nil

	case tea.BlurMsg:
		m.window.DispatchBlur()
		m.afterPointer()
		return m, nil

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *model) handleMouse(msg tea.MouseMsg) {
	ev := PointerEvent{PointerID: mousePointerID, ClientX: float64(msg.X), ClientY: float64(msg.Y)}
	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			if m.mode == ModeNormal || m.mode == ModeConnect {
				m.pointerDown(msg.X, msg.Y, ev)
			}
		case tea.MouseButtonWheelUp:
			if buf := m.getCurrentBuffer(); buf != nil {
				buf.viewport.ZoomBy(zoomStep)
			}
		case tea.MouseButtonWheelDown:
			if buf := m.getCurrentBuffer(); buf != nil {
				buf.viewport.ZoomBy(1 / zoomStep)
			}
		}
	case tea.MouseActionMotion:
		m.window.DispatchPointerMove(ev)
	case tea.MouseActionRelease:
		m.window.DispatchPointerUp(ev)
	}
	m.afterPointer()
}

func (m *model) pointerDown(x, y int, ev PointerEvent) {
	buf := m.getCurrentBuffer()
	if buf == nil {
		return
	}
	if _, rows := m.canvasSize(); y >= rows {
		return
	}
	buf.sealWaypoints()
	buf.endNodeDrag()
	m.errorMessage = ""

	p, ok := buf.viewport.ScreenToDiagram(float64(x), float64(y))
	if !ok {
		return
	}
	slop := buf.viewport.cellSlop()
	d := buf.diagram

	if m.mode == ModeConnect {
		if id, ok := d.NodeAt(p); ok {
			m.connect(m.connectFrom, id)
		}
		m.mode = ModeNormal
		m.connectFrom = ""
		return
	}

	for i := len(d.edges) - 1; i >= 0; i-- {
		edge := d.edges[i]
		comp, ok := buf.edges[edge.ID]
		if !edge.Selected || !ok {
			continue
		}
		view := comp.Render()
		el, hit := view.HitTest(p, slop)
		if !hit {
			continue
		}
		if el.Kind == ElementHitStroke {
			// Nodes are painted over edges, so a press inside one is the
			// node's even where the edge's stroke reaches.
			if _, onNode := d.NodeAt(p); onNode {
				continue
			}
		}
		if el.Kind == ElementHandle && m.isDoubleClick(x, y, edge.ID, el.Index) {
			comp.WaypointDoubleClick(el.Index)
			m.lastClick = clickRecord{}
			return
		}
		comp.Dispatch(view, p, slop, ev, nil)
		if el.Kind == ElementHandle {
			m.lastClick = clickRecord{at: m.now(), x: x, y: y, edgeID: edge.ID, index: el.Index}
		}
		return
	}

	if id, ok := d.NodeAt(p); ok {
		d.SelectNode(id)
		buf.startNodeDrag(id, p, ev.PointerID)
		return
	}
	if id, ok := d.EdgeNear(p, slop); ok {
		d.SelectEdge(id)
		return
	}
	d.ClearSelection()
}

func (m *model) isDoubleClick(x, y int, edgeID string, index int) bool {
	last := m.lastClick
	if last.edgeID != edgeID || last.index != index {
		return false
	}
	if abs(last.x-x) > 1 || abs(last.y-y) > 1 {
		return false
	}
	return m.now().Sub(last.at) <= doubleClickWindow
}

func (m *model) connect(source, target string) {
	d := m.getDiagram()
	if d == nil || source == "" {
		return
	}
	id, err := d.Connect(source, target)
	if err != nil {
		m.errorMessage = err.Error()
		return
	}
	edge, _ := d.Edge(id)
	m.recordAction(ActionAddEdge, EdgeData{Edge: edge}, nil)
	d.SelectEdge(id)
}

func (m *model) addNode(kind string) {
	buf := m.getCurrentBuffer()
	if buf == nil {
		return
	}
	d := buf.diagram
	offset := float64(len(d.nodes)%5) * 5 * cellWidth
	center := buf.viewport.Center()
	pos := Point{X: center.X - float64(minNodeWidth)*cellWidth/2 + offset, Y: center.Y - cellHeight + offset/2}
	id, err := d.AddNode(kind, pos)
	if err != nil {
		m.errorMessage = err.Error()
		return
	}
	node, _ := d.Node(id)
	m.recordAction(ActionAddNode, NodeData{Node: node}, nil)
	d.SelectNode(id)
}

func (m *model) deleteSelection() {
	d := m.getDiagram()
	if d == nil {
		return
	}
	nodes, edges := d.DeleteSelected()
	if len(nodes) == 0 && len(edges) == 0 {
		return
	}
	data := SelectionData{Nodes: nodes, Edges: edges}
	m.recordAction(ActionDeleteSelection, data, data)
}

// cycleColor gives the selected node the next fill of nodeColors.
func (m *model) cycleColor() {
	d := m.getDiagram()
	if d == nil {
		return
	}
	id, ok := d.SelectedNode()
	if !ok {
		m.errorMessage = "select a node to color"
		return
	}
	node, _ := d.Node(id)
	// A color from outside the cycle counts as the default.
	current := 0
	for i, c := range nodeColors {
		if strings.EqualFold(c, node.Color) {
			current = i
			break
		}
	}
	next := nodeColors[(current+1)%len(nodeColors)]
	m.recordAction(ActionSetColor, ColorData{ID: id, Color: next}, ColorData{ID: id, Color: node.Color})
	d.SetNodeColor(id, next)
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if m.help {
		m.help = false
		return m, nil
	}

	switch m.mode {
	case ModeStartup:
		return m.handleStartupKey(key)
	case ModeLabel:
		return m.handleLabelKey(msg)
	case ModeFileInput:
		return m.handleFileInputKey(msg)
	case ModeConfirm:
		return m.handleConfirmKey(key)
	}

	m.successMessage = ""
	switch key {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		if m.config.Confirmations {
			m.mode = ModeConfirm
			m.confirmAction = ConfirmQuit
			return m, nil
		}
		return m, tea.Quit
	case "?":
		m.help = true
	case "esc":
		m.window.DispatchPointerCancel(PointerEvent{PointerID: mousePointerID})
		m.mode = ModeNormal
		m.connectFrom = ""
		if d := m.getDiagram(); d != nil {
			d.ClearSelection()
		}
	case "a":
		m.addNode(m.getDiagram().DefaultNodeKind())
	case "A":
		m.addNode(PaletteTitle)
	case "1":
		m.addNode(PaletteMindMapCenter)
	case "2":
		m.addNode(PaletteMindMapBranch)
	case "3":
		m.addNode(PaletteMindMapLeaf)
	case "C":
		m.cycleColor()
	case "c":
		if id, ok := m.getDiagram().SelectedNode(); ok {
			m.mode = ModeConnect
			m.connectFrom = id
		} else {
			m.errorMessage = "select a node to connect from"
		}
	case "enter":
		if id, ok := m.getDiagram().SelectedNode(); ok {
			node, _ := m.getDiagram().Node(id)
			m.mode = ModeLabel
			m.editNodeID = id
			m.editText = node.GetText()
		}
	case "x", "delete", "backspace":
		if m.config.Confirmations {
			m.mode = ModeConfirm
			m.confirmAction = ConfirmDeleteSelection
			return m, nil
		}
		m.deleteSelection()
	case "u", "ctrl+z":
		m.undo()
	case "ctrl+r":
		m.redo()
	case "s":
		if buf := m.getCurrentBuffer(); buf != nil && buf.filename != "" {
			m.reportErr(buf.diagram.SaveFile(buf.filename), "saved "+buf.filename)
			return m, nil
		}
		m.startFileInput(FileOpSave)
	case "S":
		m.startFileInput(FileOpSave)
	case "p":
		m.startFileInput(FileOpSavePNG)
	case "t":
		m.startFileInput(FileOpSaveVisualTXT)
	case "o":
		m.startFileInput(FileOpOpen)
	case "y":
		m.reportErr(m.yankDiagram(), "diagram copied to clipboard")
	case "Y":
		m.reportErr(m.yankEdgePath(), "edge path copied to clipboard")
	case "P":
		if _, err := m.pasteDiagram(); err != nil {
			m.errorMessage = err.Error()
		}
	case "n":
		m.addNewBuffer(NewDiagram("", DiagramConcept), "")
	case "N":
		m.addNewBuffer(NewDiagram("", DiagramMindMap), "")
	case "w":
		if len(m.buffers) < 2 {
			break
		}
		if m.config.Confirmations {
			m.mode = ModeConfirm
			m.confirmAction = ConfirmCloseBuffer
			return m, nil
		}
		m.closeCurrentBuffer()
	case "tab":
		m.switchBuffer(1)
	case "shift+tab":
		m.switchBuffer(-1)
	default:
		m.handleNavigation(key)
	}
	return m, nil
}

func (m *model) switchBuffer(delta int) {
	if len(m.buffers) < 2 {
		return
	}
	if buf := m.getCurrentBuffer(); buf != nil {
		buf.pause()
	}
	m.currentBufferIndex = (m.currentBufferIndex + delta + len(m.buffers)) % len(m.buffers)
}

func (m *model) reportErr(err error, success string) {
	if err != nil {
		m.errorMessage = err.Error()
		m.successMessage = ""
		return
	}
	m.errorMessage = ""
	m.successMessage = success
}

func (m model) handleStartupKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n":
		m.getDiagram().Type = DiagramConcept
		m.mode = ModeNormal
	case "m":
		m.getDiagram().Type = DiagramMindMap
		m.mode = ModeNormal
	case "o":
		m.mode = ModeNormal
		m.startFileInput(FileOpOpen)
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	}
	return m, nil
}

func (m model) handleLabelKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = ModeNormal
	case tea.KeyEnter:
		d := m.getDiagram()
		if node, ok := d.Node(m.editNodeID); ok && node.GetText() != m.editText {
			m.recordAction(ActionEditLabel,
				LabelData{ID: m.editNodeID, Text: m.editText},
				LabelData{ID: m.editNodeID, Text: node.GetText()})
			d.SetLabel(m.editNodeID, m.editText)
		}
		m.mode = ModeNormal
	case tea.KeyCtrlJ:
		m.editText += "\n"
	case tea.KeyBackspace:
		m.editText = trimLastRune(m.editText)
	case tea.KeySpace:
		m.editText += " "
	case tea.KeyRunes:
		m.editText += string(msg.Runes)
	}
	return m, nil
}

func trimLastRune(s string) string {
	_, size := utf8.DecodeLastRuneInString(s)
	return s[:len(s)-size]
}

func (m *model) startFileInput(op FileOperation) {
	m.mode = ModeFileInput
	m.fileOp = op
	m.filename = ""
	if buf := m.getCurrentBuffer(); buf != nil && buf.filename != "" && op == FileOpSave {
		m.filename = strings.TrimSuffix(filepath.Base(buf.filename), ".json")
	}
}

func (m model) handleFileInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = ModeNormal
	case tea.KeyEnter:
		if strings.TrimSpace(m.filename) == "" {
			m.errorMessage = "file name required"
			return m, nil
		}
		path := m.fileOpPath()
		if m.fileOp != FileOpOpen && m.config.Confirmations {
			if _, err := os.Stat(path); err == nil {
				m.mode = ModeConfirm
				m.confirmAction = ConfirmOverwriteFile
				return m, nil
			}
		}
		m.mode = ModeNormal
		m.performFileOp()
	case tea.KeyBackspace:
		m.filename = trimLastRune(m.filename)
	case tea.KeyRunes:
		m.filename += string(msg.Runes)
	}
	return m, nil
}

func (m *model) fileOpPath() string {
	name := strings.TrimSpace(m.filename)
	ext := ".json"
	switch m.fileOp {
	case FileOpSavePNG:
		ext = ".png"
	case FileOpSaveVisualTXT:
		ext = ".txt"
	}
	if filepath.Ext(name) == "" {
		name += ext
	}
	if m.fileOp == FileOpOpen {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return m.config.GetSavePath(name)
}

func (m *model) performFileOp() {
	buf := m.getCurrentBuffer()
	if buf == nil {
		return
	}
	path := m.fileOpPath()
	switch m.fileOp {
	case FileOpSave:
		err := buf.diagram.SaveFile(path)
		if err == nil {
			buf.filename = path
		}
		m.reportErr(err, "saved "+path)
	case FileOpSavePNG:
		m.reportErr(buf.diagram.ExportToPNG(path, m.config.Export.Scale, m.config.Export.Padding), "exported "+path)
	case FileOpSaveVisualTXT:
		m.reportErr(buf.diagram.ExportVisualTXT(path), "exported "+path)
	case FileOpOpen:
		d, _, err := LoadFile(path)
		if err != nil {
			m.reportErr(err, "")
			return
		}
		m.addNewBuffer(d, path)
		m.reportErr(nil, "opened "+path)
	}
}

func (m model) handleConfirmKey(key string) (tea.Model, tea.Cmd) {
	m.mode = ModeNormal
	if key != "y" && key != "Y" {
		return m, nil
	}
	switch m.confirmAction {
	case ConfirmQuit:
		return m, tea.Quit
	case ConfirmDeleteSelection:
		m.deleteSelection()
	case ConfirmOverwriteFile:
		m.performFileOp()
	case ConfirmCloseBuffer:
		if len(m.buffers) > 1 {
			m.closeCurrentBuffer()
		}
	}
	return m, nil
}

func (m model) View() string {
	if m.mode == ModeStartup {
		return m.startupView()
	}
	if m.help {
		return m.helpView()
	}

	buf := m.getCurrentBuffer()
	if buf == nil {
		return ""
	}
	cols, rows := m.canvasSize()
	canvas := NewCanvas(cols, rows)

	views := make([]EdgeView, 0, len(buf.edges))
	for _, edge := range buf.diagram.edges {
		if comp, ok := buf.edges[edge.ID]; ok {
			views = append(views, comp.Render())
		}
	}
	canvas.Render(buf.diagram, buf.viewport, views)

	var b strings.Builder
	for _, line := range canvas.StyledLines() {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if len(m.buffers) > 1 {
		b.WriteString(m.renderBufferBar())
		b.WriteByte('\n')
	}
	b.WriteString(m.statusLine())
	return b.String()
}

func (m model) renderBufferBar() string {
	parts := make([]string, 0, len(m.buffers))
	for i, buf := range m.buffers {
		name := buf.diagram.Title
		if buf.filename != "" {
			name = filepath.Base(buf.filename)
		}
		label := fmt.Sprintf(" %d:%s ", i+1, name)
		if i == m.currentBufferIndex {
			parts = append(parts, activeStyle.Render(label))
		} else {
			parts = append(parts, bufferStyle.Render(label))
		}
	}
	return strings.Join(parts, "")
}

func (m model) statusLine() string {
	status := statusStyle.Render(" " + m.modeString() + " ")
	switch {
	case m.errorMessage != "":
		status += " " + errorStyle.Render(m.errorMessage)
	case m.successMessage != "":
		status += " " + successStyle.Render(m.successMessage)
	case m.mode == ModeFileInput:
		status += " file: " + m.filename + "_"
	case m.mode == ModeLabel:
		status += " label: " + strings.ReplaceAll(m.editText, "\n", "⏎") + "_"
	case m.mode == ModeConfirm:
		status += " " + m.confirmPrompt() + " (y/n)"
	default:
		if d := m.getDiagram(); d != nil {
			status += " " + d.Title
		}
		if buf := m.getCurrentBuffer(); buf != nil {
			if drag := buf.nodeDrag; drag != nil {
				status += " · dragging " + drag.id
			} else if id, index, ok := buf.draggedWaypoint(); ok {
				status += fmt.Sprintf(" · dragging %s waypoint %d", id, index+1)
			}
		}
	}
	return status
}

func (m model) confirmPrompt() string {
	switch m.confirmAction {
	case ConfirmQuit:
		return "quit?"
	case ConfirmDeleteSelection:
		return "delete selection?"
	case ConfirmOverwriteFile:
		return "overwrite " + m.fileOpPath() + "?"
	case ConfirmCloseBuffer:
		return "close diagram?"
	}
	return "confirm?"
}

func (m model) modeString() string {
	switch m.mode {
	case ModeStartup:
		return "START"
	case ModeConnect:
		return "CONNECT"
	case ModeLabel:
		return "LABEL"
	case ModeFileInput:
		switch m.fileOp {
		case FileOpSavePNG:
			return "EXPORT PNG"
		case FileOpSaveVisualTXT:
			return "EXPORT TXT"
		case FileOpOpen:
			return "OPEN"
		}
		return "SAVE"
	case ModeConfirm:
		return "CONFIRM"
	}
	return "NORMAL"
}

func (m model) startupView() string {
	body := strings.Join([]string{
		activeStyle.Render("conmap"),
		"",
		"n  new concept map",
		"m  new mind map",
		"o  open a diagram",
		"q  quit",
	}, "\n")
	box := welcomeStyle.Render(body)
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m model) helpView() string {
	return strings.Join([]string{
		activeStyle.Render("conmap keys"),
		"",
		"mouse      click node/edge to select, drag a node to move it",
		"           click a selected edge to add a waypoint",
		"           drag a waypoint (@) or midpoint (+), double-click a waypoint to delete",
		"a A 1 2 3  add node / title / mind-map central, branch, leaf",
		"c          connect selected node to the next clicked node",
		"C          cycle the fill color of the selected node",
		"enter      edit label of selected node (ctrl+j for newline)",
		"x          delete selection",
		"u ctrl+r   undo / redo",
		"s S o      save / save as / open",
		"p t        export PNG / TXT",
		"y Y P      copy diagram / copy edge path / paste diagram",
		"hjkl + - 0 pan / zoom / reset view",
		"n N w tab  new concept map / mind map / close / next diagram",
		"esc        cancel drag and clear selection",
		"q          quit",
		"",
		"press any key",
	}, "\n")
}
