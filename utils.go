package main

import (
	"bytes"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
)

// newBuffer wraps diagram and keeps the buffer's edge components in step
// with every change to it until close is called.
func newBuffer(diagram *Diagram, filename string) *Buffer {
	buf := &Buffer{
		diagram:   diagram,
		undoStack: []Action{},
		redoStack: []Action{},
		filename:  filename,
		viewport:  newViewport(),
		edges:     make(map[string]*EditableEdge),
	}
	buf.unobserve = diagram.Observe(func(Change) { buf.syncEdges() })
	return buf
}

// close stops observing the diagram and ends every drag the buffer owns.
func (buf *Buffer) close() {
	if buf.unobserve != nil {
		buf.unobserve()
		buf.unobserve = nil
	}
	buf.endNodeDrag()
	for id, edge := range buf.edges {
		edge.Close()
		delete(buf.edges, id)
	}
}

// pause ends running drags when the buffer leaves the screen.
func (buf *Buffer) pause() {
	buf.endNodeDrag()
	for _, edge := range buf.edges {
		edge.Close()
	}
}

func (m *model) getCurrentBuffer() *Buffer {
	if len(m.buffers) == 0 || m.currentBufferIndex < 0 || m.currentBufferIndex >= len(m.buffers) {
		return nil
	}
	return m.buffers[m.currentBufferIndex]
}

func (m *model) getDiagram() *Diagram {
	if buf := m.getCurrentBuffer(); buf != nil {
		return buf.diagram
	}
	return nil
}

func (m *model) addNewBuffer(diagram *Diagram, filename string) {
	if prev := m.getCurrentBuffer(); prev != nil {
		prev.pause()
	}
	buf := newBuffer(diagram, filename)
	buf.window = m.window
	if lo, _, ok := diagram.Bounds(); ok {
		buf.viewport.OffsetX = lo.X - 2*cellWidth
		buf.viewport.OffsetY = lo.Y - cellHeight
	}
	m.buffers = append(m.buffers, buf)
	m.currentBufferIndex = len(m.buffers) - 1
	m.resizeBuffers()
	buf.syncEdges()
}

func (m *model) closeCurrentBuffer() {
	buf := m.getCurrentBuffer()
	if buf == nil {
		return
	}
	buf.close()
	m.buffers = append(m.buffers[:m.currentBufferIndex], m.buffers[m.currentBufferIndex+1:]...)
	if m.currentBufferIndex >= len(m.buffers) {
		m.currentBufferIndex = len(m.buffers) - 1
	}
	m.resizeBuffers()
}

// bufferProjector always reads the buffer's current viewport, so edges see
// pan and zoom changes made after they were created.
type bufferProjector struct {
	buf *Buffer
}

func (p bufferProjector) ScreenToDiagram(screenX, screenY float64) (Point, bool) {
	return p.buf.viewport.ScreenToDiagram(screenX, screenY)
}

func readClipboardText() (string, error) {
	if runtime.GOOS == "darwin" {
		if output, err := exec.Command("pbpaste", "-Prefer", "txt").Output(); err == nil {
			return string(output), nil
		}
	}
	return clipboard.ReadAll()
}

func (m *model) yankDiagram() error {
	d := m.getDiagram()
	if d == nil {
		return fmt.Errorf("no diagram")
	}
	var buf bytes.Buffer
	if err := d.Save(&buf); err != nil {
		return err
	}
	return clipboard.WriteAll(buf.String())
}

func (m *model) yankEdgePath() error {
	buf := m.getCurrentBuffer()
	if buf == nil {
		return fmt.Errorf("no diagram")
	}
	id, ok := buf.diagram.SelectedEdge()
	if !ok {
		return fmt.Errorf("no edge selected")
	}
	edge, ok := buf.edges[id]
	if !ok {
		return fmt.Errorf("edge %s is not rendered", id)
	}
	return clipboard.WriteAll(edge.Path())
}

func (m *model) pasteDiagram() (LoadReport, error) {
	text, err := readClipboardText()
	if err != nil {
		return LoadReport{}, fmt.Errorf("reading clipboard: %w", err)
	}
	d, report, err := Load(strings.NewReader(text))
	if err != nil {
		return report, err
	}
	m.addNewBuffer(d, "")
	return report, nil
}
