package main

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Canvas is a terminal rasterization of a diagram: one rune and one
// foreground color per cell.
type Canvas struct {
	width  int
	height int
	runes  [][]rune
	colors [][]string
}

func NewCanvas(width, height int) *Canvas {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	c := &Canvas{
		width:  width,
		height: height,
		runes:  make([][]rune, height),
		colors: make([][]string, height),
	}
	for y := range c.runes {
		c.runes[y] = make([]rune, width)
		c.colors[y] = make([]string, width)
		for x := range c.runes[y] {
			c.runes[y][x] = ' '
		}
	}
	return c
}

func (c *Canvas) isValidPos(x, y int) bool {
	return x >= 0 && y >= 0 && x < c.width && y < c.height
}

func (c *Canvas) set(x, y int, r rune, color string) {
	if !c.isValidPos(x, y) {
		return
	}
	c.runes[y][x] = r
	c.colors[y][x] = color
}

func (c *Canvas) At(x, y int) rune {
	if !c.isValidPos(x, y) {
		return 0
	}
	return c.runes[y][x]
}

// Render draws every edge, then every node on top, then the decorations
// of the given edge views. Passing nil views gives a clean picture for
// export.
func (c *Canvas) Render(d *Diagram, vp Viewport, views []EdgeView) {
	for _, edge := range d.edges {
		c.drawEdge(d.FullPath(edge), vp, edge)
	}
	for _, node := range d.nodes {
		c.drawNode(node, vp)
	}
	for _, view := range views {
		if view.Selected {
			c.drawDecorations(view, vp)
		}
	}
}

func (c *Canvas) drawEdge(path []Point, vp Viewport, edge Edge) {
	if len(path) < 2 {
		return
	}
	color := colorEdge
	if edge.Selected {
		color = colorEdgeSelected
	}

	var last []cell
	tipVisible := false
	for i := 0; i < len(path)-1; i++ {
		fx0, fy0 := vp.screenPos(path[i])
		fx1, fy1 := vp.screenPos(path[i+1])
		ch := lineRune(fx1-fx0, fy1-fy0)
		// One cell of margin keeps lines that leave the canvas from ending
		// on its border.
		ax, ay, bx, by, ok := clipSegment(fx0, fy0, fx1, fy1, -1, -1, float64(c.width), float64(c.height))
		if !ok {
			last, tipVisible = nil, false
			continue
		}
		tipVisible = bx == fx1 && by == fy1
		last = bresenham(int(math.Round(ax)), int(math.Round(ay)), int(math.Round(bx)), int(math.Round(by)))
		for j, p := range last {
			if edge.Animated && j%2 == 1 {
				continue
			}
			existing := c.At(p.x, p.y)
			if existing != ' ' && existing != ch && existing != 0 {
				c.set(p.x, p.y, '+', color)
				continue
			}
			c.set(p.x, p.y, ch, color)
		}
	}

	if edge.MarkerEnd && tipVisible && len(last) >= 2 {
		tip := last[len(last)-2]
		end := last[len(last)-1]
		c.set(tip.x, tip.y, arrowRune(end.x-tip.x, end.y-tip.y), color)
	}
}

// clipSegment clips the segment to [xmin,xmax]x[ymin,ymax] with the
// Liang-Barsky parametric test. ok is false when nothing is left.
func clipSegment(x0, y0, x1, y1, xmin, ymin, xmax, ymax float64) (ax, ay, bx, by float64, ok bool) {
	dx, dy := x1-x0, y1-y0
	t0, t1 := 0.0, 1.0
	for _, pq := range [4][2]float64{
		{-dx, x0 - xmin},
		{dx, xmax - x0},
		{-dy, y0 - ymin},
		{dy, ymax - y0},
	} {
		p, q := pq[0], pq[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = math.Max(t0, r)
		} else {
			if r < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = math.Min(t1, r)
		}
	}
	ax, ay = x0, y0
	if t0 > 0 {
		ax, ay = x0+t0*dx, y0+t0*dy
	}
	bx, by = x1, y1
	if t1 < 1 {
		bx, by = x0+t1*dx, y0+t1*dy
	}
	return ax, ay, bx, by, true
}

func lineRune(dx, dy float64) rune {
	switch {
	case dx == 0:
		return '|'
	case dy == 0:
		return '-'
	case math.Abs(dx) >= 3*math.Abs(dy):
		return '-'
	case math.Abs(dy) >= 3*math.Abs(dx):
		return '|'
	case (dx > 0) == (dy > 0):
		return '\\'
	default:
		return '/'
	}
}

func arrowRune(dx, dy int) rune {
	if abs(dx) >= abs(dy) {
		if dx >= 0 {
			return '>'
		}
		return '<'
	}
	if dy > 0 {
		return 'v'
	}
	return '^'
}

type cell struct {
	x, y int
}

func bresenham(x0, y0, x1, y1 int) []cell {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	cells := make([]cell, 0, max(dx, -dy)+1)
	err := dx + dy
	for {
		cells = append(cells, cell{x0, y0})
		if x0 == x1 && y0 == y1 {
			return cells
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) drawNode(node Node, vp Viewport) {
	x0, y0 := vp.DiagramToScreen(Point{X: node.X, Y: node.Y})
	x1, y1 := vp.DiagramToScreen(Point{X: node.X + node.Width, Y: node.Y + node.Height})
	x1--
	y1--
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}

	color := node.Color
	if node.Selected {
		color = colorEdgeSelected
	}
	corner, horizontal, vertical := nodeBorder(node)

	for y := max(y0, -1); y <= min(y1, c.height); y++ {
		for x := max(x0, -1); x <= min(x1, c.width); x++ {
			switch {
			case (y == y0 || y == y1) && (x == x0 || x == x1):
				c.set(x, y, corner, color)
			case y == y0 || y == y1:
				c.set(x, y, horizontal, color)
			case x == x0 || x == x1:
				c.set(x, y, vertical, color)
			default:
				c.set(x, y, ' ', "")
			}
		}
	}

	for i, line := range node.Lines {
		ty := y0 + 1 + i
		if ty >= y1 {
			break
		}
		maxWidth := x1 - x0 - 3
		if maxWidth < 0 {
			maxWidth = 0
		}
		runes := []rune(line)
		if len(runes) > maxWidth {
			runes = runes[:maxWidth]
		}
		for j, r := range runes {
			c.set(x0+2+j, ty, r, color)
		}
	}
}

func (c *Canvas) drawDecorations(view EdgeView, vp Viewport) {
	for _, el := range view.Elements {
		x, y := vp.DiagramToScreen(el.Center)
		switch el.Kind {
		case ElementEndpoint:
			c.set(x, y, 'o', el.Color)
		case ElementHandle:
			c.set(x, y, '@', el.Fill)
		case ElementMidpoint:
			if el.Radius > 0 {
				c.set(x, y, '+', el.Fill)
			}
		}
	}
}

func (c *Canvas) Lines() []string {
	lines := make([]string, c.height)
	for y := range c.runes {
		lines[y] = strings.TrimRight(string(c.runes[y]), " ")
	}
	return lines
}

// StyledLines colors runs of cells that share a foreground.
func (c *Canvas) StyledLines() []string {
	styles := make(map[string]lipgloss.Style)
	lines := make([]string, c.height)
	for y := range c.runes {
		var b strings.Builder
		start := 0
		for x := 1; x <= c.width; x++ {
			if x < c.width && c.colors[y][x] == c.colors[y][start] {
				continue
			}
			run := string(c.runes[y][start:x])
			color := c.colors[y][start]
			if color == "" {
				b.WriteString(run)
			} else {
				style, ok := styles[color]
				if !ok {
					style = lipgloss.NewStyle().Foreground(lipgloss.Color(color))
					styles[color] = style
				}
				b.WriteString(style.Render(run))
			}
			start = x
		}
		lines[y] = b.String()
	}
	return lines
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
