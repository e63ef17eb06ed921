package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"os"
)

type document struct {
	Title       string       `json:"title"`
	DiagramType DiagramType  `json:"diagramType"`
	Nodes       []nodeRecord `json:"nodes"`
	Edges       []edgeRecord `json:"edges"`
}

type nodeRecord struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Position position `json:"position"`
	Data     nodeData `json:"data"`
}

// position decodes like a waypoint: anything other than finite x and y
// marks it invalid instead of failing the document.
type position struct {
	Point
	valid bool
}

func (p *position) UnmarshalJSON(data []byte) error {
	p.Point, p.valid = decodePoint(data)
	return nil
}

func (p position) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Point)
}

// looseBool reads anything that is not a JSON boolean as false.
type looseBool bool

func (b *looseBool) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		v = false
	}
	*b = looseBool(v)
	return nil
}

type nodeData struct {
	Label   string `json:"label"`
	Variant string `json:"variant,omitempty"`
	Color   string `json:"color,omitempty"`
}

type edgeRecord struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	SourceHandle string    `json:"sourceHandle,omitempty"`
	Target       string    `json:"target"`
	TargetHandle string    `json:"targetHandle,omitempty"`
	Type         string    `json:"type"`
	Animated     looseBool `json:"animated"`
	Data         edgeData  `json:"data"`
}

// edgeData keeps points raw so a single bad entry cannot fail the whole
// document.
type edgeData struct {
	Points json.RawMessage `json:"points,omitempty"`
}

// LoadReport counts what sanitizing a document threw away.
type LoadReport struct {
	DroppedPoints int
	DroppedNodes  int
	DroppedEdges  int
}

func (d *Diagram) Save(w io.Writer) error {
	doc := document{
		Title:       d.Title,
		DiagramType: d.Type,
		Nodes:       make([]nodeRecord, 0, len(d.nodes)),
		Edges:       make([]edgeRecord, 0, len(d.edges)),
	}
	for _, n := range d.nodes {
		doc.Nodes = append(doc.Nodes, nodeRecord{
			ID:       n.ID,
			Type:     n.Kind,
			Position: position{Point: Point{X: n.X, Y: n.Y}, valid: true},
			Data:     nodeData{Label: n.GetText(), Variant: n.Variant, Color: n.Color},
		})
	}
	for _, e := range d.edges {
		points, err := json.Marshal(sanitizePoints(clonePoints(e.Points)))
		if err != nil {
			return fmt.Errorf("encoding points of edge %s: %w", e.ID, err)
		}
		doc.Edges = append(doc.Edges, edgeRecord{
			ID:           e.ID,
			Source:       e.Source,
			SourceHandle: e.SourceHandle,
			Target:       e.Target,
			TargetHandle: e.TargetHandle,
			Type:         "editable",
			Animated:     looseBool(e.Animated),
			Data:         edgeData{Points: points},
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func (d *Diagram) SaveFile(filename string) error {
	var buf bytes.Buffer
	if err := d.Save(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", filename, err)
	}
	return nil
}

// Load reads a saved document. Invalid waypoints, image nodes, nodes
// without a usable position and edges whose endpoints are missing are
// dropped rather than reported as errors.
func Load(r io.Reader) (*Diagram, LoadReport, error) {
	var report LoadReport
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, report, fmt.Errorf("decoding diagram: %w", err)
	}

	d := NewDiagram(doc.Title, doc.DiagramType)
	if d.Type != DiagramConcept && d.Type != DiagramMindMap {
		d.Type = DiagramConcept
	}

	for _, rec := range doc.Nodes {
		if rec.Type == KindImage || rec.ID == "" || !rec.Position.valid {
			report.DroppedNodes++
			continue
		}
		if _, dup := d.nodeIndex(rec.ID); dup {
			report.DroppedNodes++
			continue
		}
		kind := rec.Type
		if kind != KindMindMap && kind != KindTitle {
			kind = KindConcept
		}
		node := Node{
			ID:      rec.ID,
			Kind:    kind,
			Variant: rec.Data.Variant,
			X:       rec.Position.X,
			Y:       rec.Position.Y,
			Color:   rec.Data.Color,
		}
		node.SetText(rec.Data.Label)
		d.nodes = append(d.nodes, node)
	}

	for _, rec := range doc.Edges {
		_, okSource := d.nodeIndex(rec.Source)
		_, okTarget := d.nodeIndex(rec.Target)
		_, dup := d.edgeIndex(rec.ID)
		if !okSource || !okTarget || rec.ID == "" || dup {
			report.DroppedEdges++
			continue
		}
		points, dropped := decodePoints(rec.Data.Points)
		report.DroppedPoints += dropped
		d.edges = append(d.edges, Edge{
			ID:           rec.ID,
			Source:       rec.Source,
			SourceHandle: rec.SourceHandle,
			Target:       rec.Target,
			TargetHandle: rec.TargetHandle,
			Points:       points,
			StrokeWidth:  edgeStrokeWidth,
			Animated:     bool(rec.Animated),
			MarkerEnd:    true,
		})
	}

	if report.DroppedPoints > 0 || report.DroppedNodes > 0 || report.DroppedEdges > 0 {
		log.Printf("load: dropped %d points, %d nodes, %d edges", report.DroppedPoints, report.DroppedNodes, report.DroppedEdges)
	}
	return d, report, nil
}

func LoadFile(filename string) (*Diagram, LoadReport, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, LoadReport{}, err
	}
	defer f.Close()

	d, report, err := Load(f)
	if err != nil {
		return nil, report, fmt.Errorf("%s: %w", filename, err)
	}
	return d, report, nil
}

// decodePoints keeps, in order, every entry whose x and y are both finite
// numbers. Anything else, including a points value that is not an array,
// is dropped.
func decodePoints(raw json.RawMessage) ([]Point, int) {
	points := []Point{}
	if len(raw) == 0 {
		return points, 0
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		if string(raw) == "null" {
			return points, 0
		}
		return points, 1
	}

	dropped := 0
	for _, entry := range entries {
		p, ok := decodePoint(entry)
		if !ok {
			dropped++
			continue
		}
		points = append(points, p)
	}
	return points, dropped
}

func decodePoint(raw json.RawMessage) (Point, bool) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Point{}, false
	}
	x, okX := finiteNumber(fields["x"])
	y, okY := finiteNumber(fields["y"])
	if !okX || !okY {
		return Point{}, false
	}
	return Point{X: x, Y: y}, true
}

func finiteNumber(v any) (float64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
