package main

func (m *model) recordAction(actionType ActionType, data, inverse interface{}) {
	buf := m.getCurrentBuffer()
	if buf == nil {
		return
	}
	buf.record(Action{Type: actionType, Data: data, Inverse: inverse})
}

func (buf *Buffer) record(action Action) {
	buf.undoStack = append(buf.undoStack, action)
	buf.redoStack = buf.redoStack[:0]
	buf.waypointsOpen = false
}

// recordWaypoints stores a waypoint change. While dragging, consecutive
// changes to the same edge fold into one entry so a whole drag undoes in
// one step.
func (buf *Buffer) recordWaypoints(edgeID string, before, after []Point, dragging bool) {
	if dragging && buf.waypointsOpen && len(buf.undoStack) > 0 {
		top := &buf.undoStack[len(buf.undoStack)-1]
		if data, ok := top.Data.(WaypointsData); ok && top.Type == ActionSetWaypoints && data.EdgeID == edgeID {
			top.Data = WaypointsData{EdgeID: edgeID, Points: clonePoints(after)}
			return
		}
	}
	buf.record(Action{
		Type:    ActionSetWaypoints,
		Data:    WaypointsData{EdgeID: edgeID, Points: clonePoints(after)},
		Inverse: WaypointsData{EdgeID: edgeID, Points: clonePoints(before)},
	})
	buf.waypointsOpen = dragging
}

// sealWaypoints closes the open drag entry so the next drag starts a new
// undo step.
func (buf *Buffer) sealWaypoints() {
	buf.waypointsOpen = false
}

func (buf *Buffer) undo() bool {
	if len(buf.undoStack) == 0 {
		return false
	}

	lastIndex := len(buf.undoStack) - 1
	action := buf.undoStack[lastIndex]
	buf.undoStack = buf.undoStack[:lastIndex]
	buf.waypointsOpen = false

	d := buf.diagram
	switch action.Type {
	case ActionAddNode:
		data := action.Data.(NodeData)
		d.RemoveNode(data.Node.ID)
	case ActionAddEdge:
		data := action.Data.(EdgeData)
		d.RemoveEdge(data.Edge.ID)
	case ActionDeleteSelection:
		data := action.Inverse.(SelectionData)
		for _, node := range data.Nodes {
			d.RestoreNode(node)
		}
		for _, edge := range data.Edges {
			d.RestoreEdge(edge)
		}
	case ActionSetWaypoints:
		data := action.Inverse.(WaypointsData)
		d.SetWaypoints(data.EdgeID, data.Points)
	case ActionEditLabel:
		data := action.Inverse.(LabelData)
		d.SetLabel(data.ID, data.Text)
	case ActionMoveNode:
		data := action.Inverse.(MoveData)
		d.MoveNode(data.ID, data.DX, data.DY)
	case ActionSetColor:
		data := action.Inverse.(ColorData)
		d.SetNodeColor(data.ID, data.Color)
	}

	buf.redoStack = append(buf.redoStack, action)
	return true
}

func (buf *Buffer) redo() bool {
	if len(buf.redoStack) == 0 {
		return false
	}

	lastIndex := len(buf.redoStack) - 1
	action := buf.redoStack[lastIndex]
	buf.redoStack = buf.redoStack[:lastIndex]
	buf.waypointsOpen = false

	d := buf.diagram
	switch action.Type {
	case ActionAddNode:
		data := action.Data.(NodeData)
		d.RestoreNode(data.Node)
	case ActionAddEdge:
		data := action.Data.(EdgeData)
		d.RestoreEdge(data.Edge)
	case ActionDeleteSelection:
		data := action.Data.(SelectionData)
		for _, edge := range data.Edges {
			d.RemoveEdge(edge.ID)
		}
		for _, node := range data.Nodes {
			d.RemoveNode(node.ID)
		}
	case ActionSetWaypoints:
		data := action.Data.(WaypointsData)
		d.SetWaypoints(data.EdgeID, data.Points)
	case ActionEditLabel:
		data := action.Data.(LabelData)
		d.SetLabel(data.ID, data.Text)
	case ActionMoveNode:
		data := action.Data.(MoveData)
		d.MoveNode(data.ID, data.DX, data.DY)
	case ActionSetColor:
		data := action.Data.(ColorData)
		d.SetNodeColor(data.ID, data.Color)
	}

	buf.undoStack = append(buf.undoStack, action)
	return true
}

func (m *model) undo() {
	if buf := m.getCurrentBuffer(); buf != nil {
		buf.undo()
	}
}

func (m *model) redo() {
	if buf := m.getCurrentBuffer(); buf != nil {
		buf.redo()
	}
}
