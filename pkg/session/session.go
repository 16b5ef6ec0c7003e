// Package session holds the state shared by the script-callable functions
// during one run: the scratch float buffer, the handle tables standing in
// for native objects, immediate-mode widget values and the stop request.
//
// A Session belongs to the goroutine running the script and is not safe
// for concurrent use.
package session

import (
	"errors"

	"github.com/zurustar/sqhell/pkg/graphics"
)

// ErrStopRequested is returned by the exit function so the engine aborts the
// running statement; the runner then reports the stop instead of a failure.
var ErrStopRequested = errors.New("stop requested")

// Session is the render-session context.
type Session struct {
	floats  *FloatBuffer
	windows *HandleTable[graphics.Window]

	checkboxes map[string]*bool
	sliders    map[string]*float32

	stopRequested bool
	exitCode      int
}

// New creates an empty session.
func New() *Session {
	return &Session{
		floats:     NewFloatBuffer(),
		windows:    NewHandleTable[graphics.Window]("window"),
		checkboxes: make(map[string]*bool),
		sliders:    make(map[string]*float32),
	}
}

// Floats returns the scratch buffer.
func (s *Session) Floats() *FloatBuffer {
	return s.floats
}

// AddWindow registers a window and returns its handle.
func (s *Session) AddWindow(w graphics.Window) Handle {
	return s.windows.Insert(w)
}

// Window resolves a window handle.
func (s *Session) Window(h Handle) (graphics.Window, error) {
	return s.windows.Get(h)
}

// RemoveWindow unregisters a window and returns it so the caller can destroy it.
func (s *Session) RemoveWindow(h Handle) (graphics.Window, error) {
	return s.windows.Release(h)
}

// Windows returns the live windows in creation order.
func (s *Session) Windows() []graphics.Window {
	var out []graphics.Window
	s.windows.Each(func(_ Handle, w graphics.Window) {
		out = append(out, w)
	})
	return out
}

// RemoveAllWindows unregisters every live window and returns them in
// creation order.
func (s *Session) RemoveAllWindows() []graphics.Window {
	var handles []Handle
	s.windows.Each(func(h Handle, _ graphics.Window) {
		handles = append(handles, h)
	})
	out := make([]graphics.Window, 0, len(handles))
	for _, h := range handles {
		if w, err := s.windows.Release(h); err == nil {
			out = append(out, w)
		}
	}
	return out
}

// Checkbox returns the persistent value for a checkbox label, creating it
// with def on first use.
func (s *Session) Checkbox(label string, def bool) *bool {
	v, ok := s.checkboxes[label]
	if !ok {
		v = new(bool)
		*v = def
		s.checkboxes[label] = v
	}
	return v
}

// Slider returns the persistent value for a slider label, creating it with
// def on first use.
func (s *Session) Slider(label string, def float32) *float32 {
	v, ok := s.sliders[label]
	if !ok {
		v = new(float32)
		*v = def
		s.sliders[label] = v
	}
	return v
}

// RequestStop records an in-script exit with the given code. The first
// request wins.
func (s *Session) RequestStop(code int) {
	if s.stopRequested {
		return
	}
	s.stopRequested = true
	s.exitCode = code
}

// StopRequested reports whether the script asked to stop, and with which code.
func (s *Session) StopRequested() (int, bool) {
	return s.exitCode, s.stopRequested
}
