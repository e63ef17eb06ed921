package main

type ElementKind int

const (
	ElementHitStroke ElementKind = iota
	ElementStroke
	ElementEndpoint
	ElementHandle
	ElementMidpoint
)

func (k ElementKind) String() string {
	switch k {
	case ElementHitStroke:
		return "hit-stroke"
	case ElementStroke:
		return "stroke"
	case ElementEndpoint:
		return "endpoint"
	case ElementHandle:
		return "handle"
	case ElementMidpoint:
		return "midpoint"
	}
	return "unknown"
}

// Element is one visual of a rendered edge. Strokes use Path and Width,
// markers use Center and Radius. Index is the waypoint index for handles
// and the segment index for midpoints.
type Element struct {
	Kind        ElementKind
	Index       int
	Path        string
	Width       float64
	Center      Point
	Radius      float64
	Color       string
	Fill        string
	Interactive bool
	MarkerEnd   bool
	Dashed      bool
}

// EdgeView is the visual tree of one edge, in paint order.
type EdgeView struct {
	EdgeID   string
	Selected bool
	Dragging bool
	Elements []Element

	path []Point
}

func (v EdgeView) Count(kind ElementKind) int {
	n := 0
	for _, el := range v.Elements {
		if el.Kind == kind {
			n++
		}
	}
	return n
}

func (e *EditableEdge) Render() EdgeView {
	path := e.FullPath()
	d := BuildPath(path)
	selected := e.props.Selected
	dragging := e.Dragging()

	width := e.props.StrokeWidth
	if width <= 0 {
		width = edgeStrokeWidth
	}
	stroke := colorEdge
	if selected {
		width = selectedStrokeWidth
		stroke = colorEdgeSelected
	}

	view := EdgeView{
		EdgeID:   e.props.ID,
		Selected: selected,
		Dragging: dragging,
		path:     path,
	}
	view.Elements = append(view.Elements,
		Element{Kind: ElementHitStroke, Path: d, Width: hitStrokeWidth, Color: "transparent", Interactive: selected},
		Element{Kind: ElementStroke, Path: d, Width: width, Color: stroke, MarkerEnd: e.props.MarkerEnd, Dashed: e.props.Animated},
	)
	if !selected {
		return view
	}

	view.Elements = append(view.Elements,
		Element{Kind: ElementEndpoint, Center: e.props.Source, Radius: endpointRadius, Color: colorEdgeSelected, Fill: colorEndpoint},
		Element{Kind: ElementEndpoint, Index: 1, Center: e.props.Target, Radius: endpointRadius, Color: colorEdgeSelected, Fill: colorEndpoint},
	)
	for i, p := range e.points {
		view.Elements = append(view.Elements, Element{
			Kind: ElementHandle, Index: i, Center: p, Radius: handleRadius,
			Color: colorEndpoint, Fill: colorHandle, Interactive: true,
		})
	}
	for i := 0; i < len(path)-1; i++ {
		radius := midpointRadius
		if dragging {
			radius = 0
		}
		view.Elements = append(view.Elements, Element{
			Kind: ElementMidpoint, Index: i, Center: Midpoint(path[i], path[i+1]), Radius: radius,
			Color: colorEdgeSelected, Fill: colorMidpoint, Interactive: true,
		})
	}
	return view
}

// HitTest returns the topmost interactive element under p. slop widens
// every target for coarse pointers; collapsed markers are never hit.
func (v EdgeView) HitTest(p Point, slop float64) (Element, bool) {
	for i := len(v.Elements) - 1; i >= 0; i-- {
		el := v.Elements[i]
		if !el.Interactive {
			continue
		}
		switch el.Kind {
		case ElementHandle, ElementMidpoint:
			if el.Radius <= 0 {
				continue
			}
			if DistanceBetween(p, el.Center) <= el.Radius+slop {
				return el, true
			}
		case ElementHitStroke:
			for j := 0; j < len(v.path)-1; j++ {
				if DistanceToSegment(p, v.path[j], v.path[j+1]) <= el.Width/2+slop {
					return el, true
				}
			}
		}
	}
	return Element{}, false
}

// Dispatch routes a pointer-down at diagram position p to the element the
// view says is under it. It reports whether anything was hit, even when the
// element then declined the press (e.g. an insertion too close to a
// waypoint).
func (e *EditableEdge) Dispatch(view EdgeView, p Point, slop float64, ev PointerEvent, target PointerCapturer) (Element, bool) {
	el, ok := view.HitTest(p, slop)
	if !ok {
		return Element{}, false
	}
	switch el.Kind {
	case ElementHandle:
		e.WaypointPointerDown(el.Index, ev, target)
	case ElementMidpoint:
		e.MidpointPointerDown(el.Index, ev, target)
	case ElementHitStroke:
		e.LinePointerDown(ev, target)
	}
	return el, true
}
