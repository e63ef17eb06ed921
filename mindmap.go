package main

import "fmt"

// Palette kinds accepted by Diagram.AddNode.
const (
	PaletteConcept       = "concept"
	PaletteMindMapCenter = "mindmap-central"
	PaletteMindMapBranch = "mindmap-branch"
	PaletteMindMapLeaf   = "mindmap-leaf"
	PaletteTitle         = "title"
)

const (
	KindConcept = "concept"
	KindMindMap = "mindmap"
	KindTitle   = "title"
	KindImage   = "image"
)

const (
	VariantCentral = "central"
	VariantBranch  = "branch"
	VariantLeaf    = "leaf"
)

func newNode(paletteKind string) (Node, error) {
	var node Node
	switch paletteKind {
	case PaletteConcept:
		node = Node{Kind: KindConcept}
	case PaletteMindMapCenter:
		node = Node{Kind: KindMindMap, Variant: VariantCentral}
	case PaletteMindMapBranch:
		node = Node{Kind: KindMindMap, Variant: VariantBranch}
	case PaletteMindMapLeaf:
		node = Node{Kind: KindMindMap, Variant: VariantLeaf}
	case PaletteTitle:
		node = Node{Kind: KindTitle}
		node.SetText("Title")
		return node, nil
	default:
		return Node{}, fmt.Errorf("unknown node kind %q", paletteKind)
	}
	node.SetText("")
	return node, nil
}

// DefaultNodeKind is the palette entry added by the quick-add key.
func (d *Diagram) DefaultNodeKind() string {
	if d.Type == DiagramMindMap {
		return PaletteMindMapBranch
	}
	return PaletteConcept
}

// nodeBorder returns the corner, horizontal and vertical runes used to
// draw a node in the terminal. Mind-map variants get heavier borders the
// closer they are to the center.
func nodeBorder(node Node) (corner, horizontal, vertical rune) {
	if node.Selected {
		return '#', '#', '#'
	}
	switch {
	case node.Kind == KindTitle:
		return ' ', '=', ' '
	case node.Kind == KindMindMap && node.Variant == VariantCentral:
		return '*', '=', '"'
	case node.Kind == KindMindMap && node.Variant == VariantLeaf:
		return '.', '.', ':'
	default:
		return '+', '-', '|'
	}
}
