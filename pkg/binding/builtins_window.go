package binding

import (
	"fmt"

	"github.com/zurustar/sqhell/pkg/graphics"
)

func (e *Env) windowBuiltins() []Builtin {
	return []Builtin{
		def("glfwInit", e.glfwInit),
		def("glfwTerminate", e.glfwTerminate),
		def("glfwCreateWindow", e.glfwCreateWindow,
			P("width", KindInt), P("height", KindInt), P("title", KindText)),
		def("glfwDestroyWindow", e.glfwDestroyWindow, P("window", KindHandle)),
		def("glfwMakeContextCurrent", e.glfwMakeContextCurrent, P("window", KindHandle)),
		def("glfwSwapBuffers", e.glfwSwapBuffers, P("window", KindHandle)),
		def("glfwPollEvents", e.glfwPollEvents),
		def("glfwGetKey", e.glfwGetKey, P("window", KindHandle), P("key", KindKey)),
		def("glfwWindowShouldClose", e.glfwWindowShouldClose, P("window", KindHandle)),
		def("glfwSetWindowShouldClose", e.glfwSetWindowShouldClose,
			P("window", KindHandle), P("value", KindInt)),
		def("glfwGetWindowWidth", e.glfwGetWindowWidth, P("window", KindHandle)),
		def("glfwGetWindowHeight", e.glfwGetWindowHeight, P("window", KindHandle)),
		def("glfwGetTime", e.glfwGetTime),
	}
}

// glfwInit returns 1 on success and 0 on failure.
func (e *Env) glfwInit(*Call) (any, error) {
	if err := e.Backend.Init(); err != nil {
		e.Log.Error("Failed to initialize windowing", "error", err)
		return false, nil
	}
	return true, nil
}

// glfwTerminate destroys every window still open.
func (e *Env) glfwTerminate(*Call) (any, error) {
	for _, w := range e.Session.RemoveAllWindows() {
		w.Destroy()
	}
	e.Backend.Terminate()
	e.glLoaded = false
	return nil, nil
}

// glfwCreateWindow returns a window handle, or 0 when no window could be
// created.
func (e *Env) glfwCreateWindow(c *Call) (any, error) {
	w, err := e.Backend.CreateWindow(c.Int(0), c.Int(1), c.Text(2))
	if err != nil {
		e.Log.Error("Failed to create window", "width", c.Int(0), "height", c.Int(1), "error", err)
		return int64(0), nil
	}
	h := e.Session.AddWindow(w)
	e.Log.Debug("Window created", "handle", int64(h), "title", c.Text(2))
	return int64(h), nil
}

func (e *Env) glfwDestroyWindow(c *Call) (any, error) {
	w, err := e.Session.RemoveWindow(c.Handle(0))
	if err != nil {
		return nil, fmt.Errorf("glfwDestroyWindow: %w", err)
	}
	w.Destroy()
	return nil, nil
}

func (e *Env) glfwMakeContextCurrent(c *Call) (any, error) {
	return e.withWindow(c, func(w graphics.Window) any {
		w.MakeContextCurrent()
		return nil
	})
}

func (e *Env) glfwSwapBuffers(c *Call) (any, error) {
	return e.withWindow(c, func(w graphics.Window) any {
		w.SwapBuffers()
		return nil
	})
}

func (e *Env) glfwPollEvents(*Call) (any, error) {
	e.Backend.PollEvents()
	return nil, nil
}

// glfwGetKey accepts a key code or a one-character string such as 'W'.
func (e *Env) glfwGetKey(c *Call) (any, error) {
	return e.withWindow(c, func(w graphics.Window) any {
		return w.Key(c.Key(1))
	})
}

func (e *Env) glfwWindowShouldClose(c *Call) (any, error) {
	return e.withWindow(c, func(w graphics.Window) any {
		return w.ShouldClose()
	})
}

func (e *Env) glfwSetWindowShouldClose(c *Call) (any, error) {
	return e.withWindow(c, func(w graphics.Window) any {
		w.SetShouldClose(c.Int(1) != 0)
		return nil
	})
}

func (e *Env) glfwGetWindowWidth(c *Call) (any, error) {
	return e.withWindow(c, func(w graphics.Window) any {
		width, _ := w.Size()
		return width
	})
}

func (e *Env) glfwGetWindowHeight(c *Call) (any, error) {
	return e.withWindow(c, func(w graphics.Window) any {
		_, height := w.Size()
		return height
	})
}

func (e *Env) glfwGetTime(*Call) (any, error) {
	return e.Backend.Time(), nil
}

// withWindow resolves the window handle in the first argument and applies fn.
func (e *Env) withWindow(c *Call, fn func(graphics.Window) any) (any, error) {
	w, err := e.window(c, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Name(), err)
	}
	return fn(w), nil
}
