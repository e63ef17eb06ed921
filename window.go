package main

// PointerEvent is a pointer report in screen coordinates.
type PointerEvent struct {
	PointerID int
	ClientX   float64
	ClientY   float64
}

// Listeners is the set of global handlers a drag attaches while it runs.
// Preempted is called when another Acquire detaches this set.
type Listeners struct {
	Move      func(PointerEvent)
	Up        func(PointerEvent)
	Cancel    func(PointerEvent)
	Blur      func()
	Preempted func()
}

type subscription struct {
	listeners Listeners
}

// Window is the process-wide source of pointer and focus events. At most
// one listener set is attached at a time.
type Window struct {
	active *subscription
}

func NewWindow() *Window {
	return &Window{}
}

// Acquire attaches l, first detaching whatever set is attached. The
// returned release detaches l; calling it again, or after l was preempted,
// does nothing.
func (w *Window) Acquire(l Listeners) func() {
	if prev := w.active; prev != nil {
		w.active = nil
		if prev.listeners.Preempted != nil {
			prev.listeners.Preempted()
		}
	}

	sub := &subscription{listeners: l}
	w.active = sub
	return func() {
		if w.active == sub {
			w.active = nil
		}
	}
}

func (w *Window) ListenerCount() int {
	if w.active == nil {
		return 0
	}
	return 1
}

func (w *Window) DispatchPointerMove(ev PointerEvent) {
	if sub := w.active; sub != nil && sub.listeners.Move != nil {
		sub.listeners.Move(ev)
	}
}

func (w *Window) DispatchPointerUp(ev PointerEvent) {
	if sub := w.active; sub != nil && sub.listeners.Up != nil {
		sub.listeners.Up(ev)
	}
}

func (w *Window) DispatchPointerCancel(ev PointerEvent) {
	if sub := w.active; sub != nil && sub.listeners.Cancel != nil {
		sub.listeners.Cancel(ev)
	}
}

func (w *Window) DispatchBlur() {
	if sub := w.active; sub != nil && sub.listeners.Blur != nil {
		sub.listeners.Blur()
	}
}
