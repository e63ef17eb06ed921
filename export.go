package main

import (
	"fmt"
	"math"
	"os"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

// exportBounds returns the diagram-space origin and the image size (before
// scaling) of an export covering every node and waypoint plus padding.
func exportBounds(d *Diagram, padding float64) (origin Point, width, height int, err error) {
	lo, hi, ok := d.Bounds()
	if !ok {
		return Point{}, 0, 0, fmt.Errorf("nothing to export")
	}
	w := math.Max(1, math.Ceil(hi.X-lo.X+padding*2))
	h := math.Max(1, math.Ceil(hi.Y-lo.Y+padding*2))
	if w > maxExportPixels || h > maxExportPixels {
		return Point{}, 0, 0, fmt.Errorf("diagram spans %.0fx%.0f units, export is limited to %d per side", w, h, maxExportPixels)
	}
	width, height = int(w), int(h)
	return Point{X: lo.X - padding, Y: lo.Y - padding}, width, height, nil
}

func (d *Diagram) ExportToPNG(filename string, scale, padding float64) error {
	if scale <= 0 {
		scale = exportScale
	}
	origin, width, height, err := exportBounds(d, padding)
	if err != nil {
		return err
	}

	if float64(width)*scale > maxExportPixels || float64(height)*scale > maxExportPixels {
		return fmt.Errorf("image would be %.0fx%.0f pixels, export is limited to %d per side",
			float64(width)*scale, float64(height)*scale, maxExportPixels)
	}

	dc := gg.NewContext(int(float64(width)*scale), int(float64(height)*scale))
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.Scale(scale, scale)
	dc.Translate(-origin.X, -origin.Y)

	ttfFont, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return fmt.Errorf("failed to parse font: %w", err)
	}
	dc.SetFontFace(truetype.NewFace(ttfFont, &truetype.Options{
		Size:    12,
		DPI:     72,
		Hinting: font.HintingFull,
	}))

	// Edges first so nodes cover the anchors.
	for _, edge := range d.edges {
		drawEdgePNG(dc, d.FullPath(edge), edge)
	}
	for _, node := range d.nodes {
		drawNodePNG(dc, node)
	}

	if err := dc.SavePNG(filename); err != nil {
		return fmt.Errorf("writing %s: %w", filename, err)
	}
	return nil
}

func drawEdgePNG(dc *gg.Context, path []Point, edge Edge) {
	if len(path) < 2 {
		return
	}

	width := edge.StrokeWidth
	if width <= 0 {
		width = edgeStrokeWidth
	}
	dc.SetHexColor(colorEdge)
	dc.SetLineWidth(width)
	dc.SetLineCapRound()
	dc.SetLineJoinRound()
	if edge.Animated {
		dc.SetDash(5, 5)
	}

	dc.MoveTo(path[0].X, path[0].Y)
	for _, p := range path[1:] {
		dc.LineTo(p.X, p.Y)
	}
	dc.Stroke()
	dc.SetDash()

	if edge.MarkerEnd {
		drawArrowPNG(dc, path[len(path)-2], path[len(path)-1])
	}
}

func drawArrowPNG(dc *gg.Context, from, to Point) {
	dx := to.X - from.X
	dy := to.Y - from.Y
	length := math.Hypot(dx, dy)
	if length < 0.1 {
		return
	}
	dx /= length
	dy /= length

	arrowSize := 10.0
	arrowAngle := 0.5

	dc.MoveTo(to.X, to.Y)
	dc.LineTo(to.X-arrowSize*dx+arrowSize*dy*arrowAngle, to.Y-arrowSize*dy-arrowSize*dx*arrowAngle)
	dc.LineTo(to.X-arrowSize*dx-arrowSize*dy*arrowAngle, to.Y-arrowSize*dy+arrowSize*dx*arrowAngle)
	dc.ClosePath()
	dc.Fill()
}

func drawNodePNG(dc *gg.Context, node Node) {
	fill := "#ffffff"
	if node.Color != "" {
		fill = node.Color
	}
	radius := 8.0
	if node.Kind == KindMindMap {
		radius = node.Height / 2
	}

	if node.Kind != KindTitle {
		dc.DrawRoundedRectangle(node.X, node.Y, node.Width, node.Height, radius)
		dc.SetHexColor(fill)
		dc.FillPreserve()
		dc.SetHexColor(colorEdge)
		dc.SetLineWidth(1.5)
		dc.Stroke()
	}

	dc.SetHexColor("#1f1f2e")
	lineHeight := cellHeight
	top := node.Y + node.Height/2 - lineHeight*float64(len(node.Lines)-1)/2
	for i, line := range node.Lines {
		dc.DrawStringAnchored(line, node.X+node.Width/2, top+float64(i)*lineHeight, 0.5, 0.35)
	}
}

// ExportVisualTXT writes the terminal picture of the whole diagram, without
// selection decorations.
func (d *Diagram) ExportVisualTXT(filename string) error {
	lo, hi, ok := d.Bounds()
	if !ok {
		return fmt.Errorf("nothing to export")
	}
	vp := Viewport{
		OffsetX: lo.X - cellWidth,
		OffsetY: lo.Y - cellHeight,
		Zoom:    1,
	}
	cols := math.Ceil((hi.X-lo.X)/cellWidth) + 3
	rows := math.Ceil((hi.Y-lo.Y)/cellHeight) + 3
	if cols > maxExportCells || rows > maxExportCells {
		return fmt.Errorf("diagram spans %.0fx%.0f cells, text export is limited to %d per side", cols, rows, maxExportCells)
	}
	vp.Cols, vp.Rows = int(cols), int(rows)
	return d.exportVisualTXT(filename, vp)
}

func (d *Diagram) exportVisualTXT(filename string, vp Viewport) error {
	if vp.Cols > maxExportCells || vp.Rows > maxExportCells {
		return fmt.Errorf("text export is limited to %d cells per side", maxExportCells)
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	clean := *d
	clean.nodes = d.Nodes()
	clean.edges = d.Edges()
	clean.observers = nil
	clean.ClearSelection()

	canvas := NewCanvas(vp.Cols, vp.Rows)
	canvas.Render(&clean, vp, nil)
	for _, line := range canvas.Lines() {
		if _, err := fmt.Fprintln(file, line); err != nil {
			return err
		}
	}
	return nil
}
