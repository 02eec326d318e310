package chat

import (
	"sync"

	"github.com/google/uuid"
)

// MaxWindows bounds how many floating chat windows render at once.
const MaxWindows = 2

// Window is one floating chat surface. Pulse counts foreign messages that
// arrived while minimized, shown as a badge until the window is restored.
type Window struct {
	RoomID    uuid.UUID `json:"room_id"`
	Minimized bool      `json:"minimized"`
	Pulse     int       `json:"pulse"`
}

// WindowManager keeps the ordered set of open chat windows, evicting the
// oldest when capacity is exceeded.
type WindowManager struct {
	mu      sync.Mutex
	cap     int
	windows []Window
}

func NewWindowManager() *WindowManager {
	return &WindowManager{cap: MaxWindows}
}

// Open shows a room's window. Reopening an existing window restores it
// without creating a duplicate; at capacity the oldest entry is evicted
// first. Returns the evicted room id, if any.
func (w *WindowManager) Open(roomID uuid.UUID) (evicted *uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range w.windows {
		if w.windows[i].RoomID == roomID {
			w.windows[i].Minimized = false
			w.windows[i].Pulse = 0
			return nil
		}
	}

	if len(w.windows) >= w.cap {
		oldest := w.windows[0].RoomID
		w.windows = w.windows[1:]
		evicted = &oldest
	}
	w.windows = append(w.windows, Window{RoomID: roomID})
	return evicted
}

// Minimize collapses the window; its state is kept.
func (w *WindowManager) Minimize(roomID uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.windows {
		if w.windows[i].RoomID == roomID {
			w.windows[i].Minimized = true
			return
		}
	}
}

// Restore reopens a minimized window and clears its pulse.
func (w *WindowManager) Restore(roomID uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.windows {
		if w.windows[i].RoomID == roomID {
			w.windows[i].Minimized = false
			w.windows[i].Pulse = 0
			return
		}
	}
}

// Close removes the window and any pending pulse.
func (w *WindowManager) Close(roomID uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.windows {
		if w.windows[i].RoomID == roomID {
			w.windows = append(w.windows[:i], w.windows[i+1:]...)
			return
		}
	}
}

// NotifyMessage records a foreign message arriving for a room. A
// minimized window bumps its pulse but is not auto-restored.
func (w *WindowManager) NotifyMessage(roomID uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.windows {
		if w.windows[i].RoomID == roomID {
			if w.windows[i].Minimized {
				w.windows[i].Pulse++
			}
			return
		}
	}
}

// IsVisible reports whether the room has an open, non-minimized window.
func (w *WindowManager) IsVisible(roomID uuid.UUID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, win := range w.windows {
		if win.RoomID == roomID {
			return !win.Minimized
		}
	}
	return false
}

// Windows returns the current set in opening order.
func (w *WindowManager) Windows() []Window {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Window(nil), w.windows...)
}
