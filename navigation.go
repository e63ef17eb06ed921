package main

import "math"

const (
	minZoom  = 0.25
	maxZoom  = 4.0
	zoomStep = 1.25
)

// Viewport maps terminal cells to diagram space. Offset is the diagram
// position of the top-left corner of the screen.
type Viewport struct {
	OffsetX float64
	OffsetY float64
	Zoom    float64
	Cols    int
	Rows    int
}

func newViewport() Viewport {
	return Viewport{Zoom: 1}
}

func (v Viewport) ready() bool {
	return v.Cols > 0 && v.Rows > 0 && v.Zoom > 0 && !math.IsInf(v.Zoom, 0)
}

// ScreenToDiagram maps the center of cell (screenX, screenY) to diagram
// space. It is unavailable until the terminal size is known.
func (v Viewport) ScreenToDiagram(screenX, screenY float64) (Point, bool) {
	if !v.ready() {
		return Point{}, false
	}
	p := Point{
		X: v.OffsetX + (screenX+0.5)*cellWidth/v.Zoom,
		Y: v.OffsetY + (screenY+0.5)*cellHeight/v.Zoom,
	}
	return p, p.IsFinite()
}

// screenPos is the unbounded cell position of p.
func (v Viewport) screenPos(p Point) (float64, float64) {
	zoom := v.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	x := math.Floor((p.X - v.OffsetX) * zoom / cellWidth)
	y := math.Floor((p.Y - v.OffsetY) * zoom / cellHeight)
	return x, y
}

// DiagramToScreen returns the cell containing p. Positions far off screen
// are pinned to +/-screenLimit so they stay representable as int.
func (v Viewport) DiagramToScreen(p Point) (int, int) {
	x, y := v.screenPos(p)
	return int(pin(x)), int(pin(y))
}

const screenLimit = 1 << 30

func pin(v float64) float64 {
	if math.IsNaN(v) {
		return -screenLimit
	}
	return math.Max(-screenLimit, math.Min(screenLimit, v))
}

// cellSlop is how far a cell center can be from the point it stands for.
func (v Viewport) cellSlop() float64 {
	zoom := v.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	return math.Hypot(cellWidth/2, cellHeight/2) / zoom
}

func (v Viewport) Center() Point {
	p, ok := v.ScreenToDiagram(float64(v.Cols)/2, float64(v.Rows)/2)
	if !ok {
		return Point{X: v.OffsetX, Y: v.OffsetY}
	}
	return p
}

func (v *Viewport) Pan(cols, rows int) {
	zoom := v.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	v.OffsetX += float64(cols) * cellWidth / zoom
	v.OffsetY += float64(rows) * cellHeight / zoom
}

// ZoomBy scales around the screen center.
func (v *Viewport) ZoomBy(factor float64) {
	if v.Zoom <= 0 {
		v.Zoom = 1
	}
	center := v.Center()
	zoom := math.Max(minZoom, math.Min(maxZoom, v.Zoom*factor))
	v.Zoom = zoom
	v.OffsetX = center.X - float64(v.Cols)/2*cellWidth/zoom
	v.OffsetY = center.Y - float64(v.Rows)/2*cellHeight/zoom
}

func (v *Viewport) Reset() {
	v.OffsetX, v.OffsetY, v.Zoom = 0, 0, 1
}

func (m *model) handleNavigation(key string) {
	buf := m.getCurrentBuffer()
	if buf == nil {
		return
	}
	speed := m.getMoveSpeed(key)
	switch key {
	case "h", "left", "H", "shift+left":
		buf.viewport.Pan(-speed, 0)
	case "l", "right", "L", "shift+right":
		buf.viewport.Pan(speed, 0)
	case "k", "up", "K", "shift+up":
		buf.viewport.Pan(0, -speed)
	case "j", "down", "J", "shift+down":
		buf.viewport.Pan(0, speed)
	case "+", "=":
		buf.viewport.ZoomBy(zoomStep)
	case "-", "_":
		buf.viewport.ZoomBy(1 / zoomStep)
	case "0":
		buf.viewport.Reset()
	}
}

func (m *model) getMoveSpeed(key string) int {
	switch key {
	case "H", "L", "K", "J", "shift+left", "shift+right", "shift+up", "shift+down":
		return 4
	default:
		return 1
	}
}
