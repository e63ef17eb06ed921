package main

import "time"

type Buffer struct {
	diagram   *Diagram
	undoStack []Action
	redoStack []Action
	filename  string
	viewport  Viewport
	edges     map[string]*EditableEdge
	window    *Window
	unobserve func()
	nodeDrag  *nodeDrag

	// waypointsOpen is true while the top undo entry is still absorbing the
	// moves of a running drag.
	waypointsOpen bool
}

type model struct {
	width              int
	height             int
	buffers            []*Buffer
	currentBufferIndex int
	window             *Window
	mode               Mode
	help               bool
	connectFrom        string
	editText           string
	editNodeID         string
	filename           string
	fileOp             FileOperation
	confirmAction      ConfirmAction
	errorMessage       string
	successMessage     string
	config             *Config
	lastClick          clickRecord
	now                func() time.Time
}

type clickRecord struct {
	at     time.Time
	x, y   int
	edgeID string
	index  int
}

type Action struct {
	Type    ActionType
	Data    interface{}
	Inverse interface{}
}

type NodeData struct {
	Node Node
}

type EdgeData struct {
	Edge Edge
}

type SelectionData struct {
	Nodes []Node
	Edges []Edge
}

type WaypointsData struct {
	EdgeID string
	Points []Point
}

type LabelData struct {
	ID   string
	Text string
}

type MoveData struct {
	ID     string
	DX, DY float64
}

type ColorData struct {
	ID    string
	Color string
}
