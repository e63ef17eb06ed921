package main

// PointerCapturer is a render target that can route a pointer's events to
// itself. Terminals cannot, so a nil target is normal.
type PointerCapturer interface {
	SetPointerCapture(pointerID int) error
}

// Projector converts screen coordinates to diagram space. ok is false when
// the view transform is not available yet.
type Projector interface {
	ScreenToDiagram(screenX, screenY float64) (p Point, ok bool)
}

type dragSession struct {
	pointIndex int
	pointerID  int
	release    func()
}

// dragController owns at most one drag session and the window listeners
// that keep it alive.
type dragController struct {
	win     *Window
	session *dragSession
	onMove  func(pointIndex int, ev PointerEvent)
}

func (c *dragController) active() bool {
	return c.session != nil
}

func (c *dragController) pointIndex() (int, bool) {
	if c.session == nil {
		return 0, false
	}
	return c.session.pointIndex, true
}

// start ends any running drag, then begins tracking pointIndex for
// pointerID.
func (c *dragController) start(pointIndex, pointerID int, target PointerCapturer) {
	c.stop()

	session := &dragSession{pointIndex: pointIndex, pointerID: pointerID}
	c.session = session

	if target != nil {
		// Some surfaces reject capture; the window listeners still drive the drag.
		_ = target.SetPointerCapture(pointerID)
	}

	if c.win == nil {
		return
	}
	end := func(PointerEvent) { c.stop() }
	session.release = c.win.Acquire(Listeners{
		Move:   c.handleMove,
		Up:     end,
		Cancel: end,
		Blur:   c.stop,
		Preempted: func() {
			if c.session == session {
				c.session = nil
			}
		},
	})
}

func (c *dragController) stop() {
	session := c.session
	if session == nil {
		return
	}
	c.session = nil
	if session.release != nil {
		session.release()
	}
}

func (c *dragController) handleMove(ev PointerEvent) {
	session := c.session
	if session == nil || ev.PointerID != session.pointerID {
		return
	}
	if c.onMove != nil {
		c.onMove(session.pointIndex, ev)
	}
}

// nodeDrag moves one node with the pointer. The node follows whole cells,
// so dx and dy accumulate the total offset for the undo entry.
type nodeDrag struct {
	id        string
	pointerID int
	last      Point
	dx, dy    float64
	release   func()
}

func (buf *Buffer) startNodeDrag(id string, at Point, pointerID int) {
	buf.endNodeDrag()
	drag := &nodeDrag{id: id, pointerID: pointerID, last: at}
	buf.nodeDrag = drag
	if buf.window == nil {
		return
	}
	end := func(PointerEvent) { buf.finishNodeDrag(drag) }
	drag.release = buf.window.Acquire(Listeners{
		Move:      func(ev PointerEvent) { buf.moveNodeDrag(drag, ev) },
		Up:        end,
		Cancel:    end,
		Blur:      func() { buf.finishNodeDrag(drag) },
		Preempted: func() { buf.finishNodeDrag(drag) },
	})
}

func (buf *Buffer) moveNodeDrag(drag *nodeDrag, ev PointerEvent) {
	if buf.nodeDrag != drag || ev.PointerID != drag.pointerID {
		return
	}
	p, ok := buf.viewport.ScreenToDiagram(ev.ClientX, ev.ClientY)
	if !ok {
		return
	}
	dx, dy := p.X-drag.last.X, p.Y-drag.last.Y
	if dx == 0 && dy == 0 {
		return
	}
	if !buf.diagram.MoveNode(drag.id, dx, dy) {
		return
	}
	drag.last = p
	drag.dx += dx
	drag.dy += dy
}

// finishNodeDrag detaches the drag and records the move, if any, as one
// undo step.
func (buf *Buffer) finishNodeDrag(drag *nodeDrag) {
	if buf.nodeDrag != drag {
		return
	}
	buf.nodeDrag = nil
	if drag.release != nil {
		drag.release()
	}
	if drag.dx == 0 && drag.dy == 0 {
		return
	}
	buf.record(Action{
		Type:    ActionMoveNode,
		Data:    MoveData{ID: drag.id, DX: drag.dx, DY: drag.dy},
		Inverse: MoveData{ID: drag.id, DX: -drag.dx, DY: -drag.dy},
	})
}

func (buf *Buffer) endNodeDrag() {
	if buf.nodeDrag != nil {
		buf.finishNodeDrag(buf.nodeDrag)
	}
}
