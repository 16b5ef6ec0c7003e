package glbackend

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Window wraps a GLFW window.
type Window struct {
	win          *glfw.Window
	backend      *Backend
	swapInterval int
	destroyed    bool
}

// GLFW returns the underlying window.
func (w *Window) GLFW() *glfw.Window {
	return w.win
}

// MakeContextCurrent also applies the configured swap interval, which GLFW
// only accepts while a context is current.
func (w *Window) MakeContextCurrent() {
	if w.destroyed {
		return
	}
	w.win.MakeContextCurrent()
	glfw.SwapInterval(w.swapInterval)
}

func (w *Window) SwapBuffers() {
	if !w.destroyed {
		w.win.SwapBuffers()
	}
}

func (w *Window) ShouldClose() bool {
	return w.destroyed || w.win.ShouldClose()
}

func (w *Window) SetShouldClose(value bool) {
	if !w.destroyed {
		w.win.SetShouldClose(value)
	}
}

func (w *Window) Key(key int) int {
	if w.destroyed {
		return int(glfw.Release)
	}
	return int(w.win.GetKey(glfw.Key(key)))
}

func (w *Window) Size() (int, int) {
	if w.destroyed {
		return 0, 0
	}
	return w.win.GetSize()
}

func (w *Window) FramebufferSize() (int, int) {
	if w.destroyed {
		return 0, 0
	}
	return w.win.GetFramebufferSize()
}

func (w *Window) CursorPos() (float64, float64) {
	if w.destroyed {
		return 0, 0
	}
	return w.win.GetCursorPos()
}

func (w *Window) MouseButton(button int) bool {
	if w.destroyed {
		return false
	}
	return w.win.GetMouseButton(glfw.MouseButton(button)) == glfw.Press
}

func (w *Window) Destroy() {
	if w.destroyed {
		return
	}
	w.destroyed = true
	delete(w.backend.windows, w.win)
	w.win.Destroy()
}
