package main

// EdgeProps are the per-redraw inputs of an EditableEdge.
type EdgeProps struct {
	ID             string
	Source         Point
	Target         Point
	Points         []Point
	OnPointsChange func(edgeID string, points []Point)
	Selected       bool
	MarkerEnd      bool
	Animated       bool
	StrokeWidth    float64
}

// EditableEdge is a polyline edge whose waypoints can be inserted, dragged
// and deleted with a pointer.
type EditableEdge struct {
	props  EdgeProps
	points []Point
	view   Projector
	drag   dragController
}

func NewEditableEdge(win *Window, view Projector, props EdgeProps) *EditableEdge {
	e := &EditableEdge{view: view}
	e.drag = dragController{win: win, onMove: e.moveWaypoint}
	e.SetProps(props)
	return e
}

// SetProps installs the props of the latest redraw. The callback and point
// list given here replace the previous ones, including for a drag that is
// already running.
func (e *EditableEdge) SetProps(props EdgeProps) {
	e.props = props
	e.points = sanitizePoints(props.Points)
}

func (e *EditableEdge) ID() string {
	return e.props.ID
}

func (e *EditableEdge) Points() []Point {
	return clonePoints(e.points)
}

func (e *EditableEdge) Dragging() bool {
	return e.drag.active()
}

// DragIndex reports which waypoint is being dragged.
func (e *EditableEdge) DragIndex() (int, bool) {
	return e.drag.pointIndex()
}

// Close ends any drag; call it when the edge is no longer rendered.
func (e *EditableEdge) Close() {
	e.drag.stop()
}

func (e *EditableEdge) FullPath() []Point {
	path := make([]Point, 0, len(e.points)+2)
	path = append(path, e.props.Source)
	path = append(path, e.points...)
	return append(path, e.props.Target)
}

func (e *EditableEdge) Path() string {
	return BuildPath(e.FullPath())
}

func (e *EditableEdge) updatePoints(next []Point) {
	e.points = next
	if e.props.OnPointsChange != nil {
		e.props.OnPointsChange(e.props.ID, clonePoints(next))
	}
}

func (e *EditableEdge) project(ev PointerEvent) (Point, bool) {
	if e.view == nil {
		return Point{}, false
	}
	p, ok := e.view.ScreenToDiagram(ev.ClientX, ev.ClientY)
	if !ok || !p.IsFinite() {
		return Point{}, false
	}
	return p, true
}

func (e *EditableEdge) moveWaypoint(index int, ev PointerEvent) {
	p, ok := e.project(ev)
	if !ok {
		return
	}
	if index < 0 || index >= len(e.points) {
		return
	}
	next := clonePoints(e.points)
	next[index] = p
	e.updatePoints(next)
}

func (e *EditableEdge) tooClose(p Point) bool {
	for _, existing := range e.points {
		if DistanceBetween(existing, p) < pointInsertMinDistance {
			return true
		}
	}
	return false
}

// insertPoint puts p at waypoint index i and starts dragging it. It reports
// false when p is too close to an existing waypoint.
func (e *EditableEdge) insertPoint(i int, p Point, pointerID int, target PointerCapturer) bool {
	if i < 0 || i > len(e.points) || !p.IsFinite() || e.tooClose(p) {
		return false
	}

	next := make([]Point, 0, len(e.points)+1)
	next = append(next, e.points[:i]...)
	next = append(next, p)
	next = append(next, e.points[i:]...)
	e.drag.start(i, pointerID, target)
	e.updatePoints(next)
	return true
}

// LinePointerDown handles a press on the hit-stroke: the click position is
// inserted after the start of the nearest segment. Unselected edges ignore
// it.
func (e *EditableEdge) LinePointerDown(ev PointerEvent, target PointerCapturer) bool {
	if !e.props.Selected {
		return false
	}
	p, ok := e.project(ev)
	if !ok {
		return false
	}
	segment := NearestSegment(e.FullPath(), p)
	if segment < 0 {
		return false
	}
	return e.insertPoint(segment, p, ev.PointerID, target)
}

func (e *EditableEdge) WaypointPointerDown(index int, ev PointerEvent, target PointerCapturer) bool {
	if index < 0 || index >= len(e.points) {
		return false
	}
	e.drag.start(index, ev.PointerID, target)
	return true
}

func (e *EditableEdge) WaypointDoubleClick(index int) bool {
	if index < 0 || index >= len(e.points) {
		return false
	}
	next := make([]Point, 0, len(e.points)-1)
	next = append(next, e.points[:index]...)
	next = append(next, e.points[index+1:]...)
	e.updatePoints(next)
	return true
}

// MidpointPointerDown inserts a waypoint at the exact middle of segment and
// starts dragging it.
func (e *EditableEdge) MidpointPointerDown(segment int, ev PointerEvent, target PointerCapturer) bool {
	path := e.FullPath()
	if segment < 0 || segment >= len(path)-1 {
		return false
	}
	return e.insertPoint(segment, Midpoint(path[segment], path[segment+1]), ev.PointerID, target)
}
