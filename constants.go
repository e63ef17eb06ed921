package main

import "time"

type Mode int

const (
	ModeStartup Mode = iota
	ModeNormal
	ModeConnect
	ModeLabel
	ModeFileInput
	ModeConfirm
)

type FileOperation int

const (
	FileOpSave FileOperation = iota
	FileOpSavePNG
	FileOpSaveVisualTXT
	FileOpOpen
)

type ConfirmAction int

const (
	ConfirmDeleteSelection ConfirmAction = iota
	ConfirmQuit
	ConfirmCloseBuffer
	ConfirmOverwriteFile
)

type ActionType int

const (
	ActionAddNode ActionType = iota
	ActionAddEdge
	ActionDeleteSelection
	ActionSetWaypoints
	ActionEditLabel
	ActionMoveNode
	ActionSetColor
)

// Edge interaction geometry, in diagram units.
const (
	pointInsertMinDistance = 12.0
	hitStrokeWidth         = 16.0
	edgeStrokeWidth        = 2.0
	selectedStrokeWidth    = 2.5
	endpointRadius         = 4.0
	handleRadius           = 5.0
	midpointRadius         = 3.5
)

const (
	colorEdge         = "#5b5b7a"
	colorEdgeSelected = "#7c3aed"
	colorHandle       = "#a78bfa"
	colorMidpoint     = "#e9d5ff"
	colorEndpoint     = "#f5f3ff"
)

// One terminal cell covers cellWidth x cellHeight diagram units at zoom 1.
const (
	cellWidth  = 8.0
	cellHeight = 16.0
)

const (
	minNodeWidth      = 10 // cells
	minNodeHeight     = 3
	exportPadding     = 96.0
	exportScale       = 2.0
	maxExportPixels   = 16384 // per side, after scaling
	maxExportCells    = 4096
	mousePointerID    = 1
	doubleClickWindow = 400 * time.Millisecond
	defaultTitle      = "My Diagram"
)

// nodeColors is the fill cycle of the color key. The empty entry restores
// the kind's default.
var nodeColors = []string{"", "#a78bfa", "#60a5fa", "#4ade80", "#fbbf24", "#f87171"}
