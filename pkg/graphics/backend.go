// Package graphics defines the windowing and OpenGL surface that scripts
// drive, the enum values scripts see as constants, a headless backend that
// only records operations, and image loading for textures.
//
// The GLFW/OpenGL implementation lives in the glbackend subpackage so that
// everything else can be built and tested without cgo.
package graphics

import (
	"errors"
	"image"
)

// ErrNotInitialized is returned when a window is requested before Init.
var ErrNotInitialized = errors.New("windowing system is not initialized")

// Window is a native window with an OpenGL context.
type Window interface {
	MakeContextCurrent()
	SwapBuffers()
	ShouldClose() bool
	SetShouldClose(value bool)
	// Key returns the last action (KeyPress or KeyRelease) for a key code.
	Key(key int) int
	Size() (width, height int)
	FramebufferSize() (width, height int)
	CursorPos() (x, y float64)
	MouseButton(button int) bool
	Destroy()
}

// Windowing is the GLFW side of a backend.
type Windowing interface {
	Init() error
	Terminate()
	CreateWindow(width, height int, title string) (Window, error)
	PollEvents()
	// Time returns seconds since Init.
	Time() float64
}

// GL is the subset of OpenGL reachable from scripts. Object names are the
// raw GL names; 0 means failure, as in GL itself.
type GL interface {
	// LoadGL resolves the GL entry points for the current context.
	LoadGL() error

	ClearColor(r, g, b, a float32)
	Clear(mask uint32)
	Viewport(x, y, width, height int32)

	CreateShader(kind uint32) uint32
	ShaderSource(shader uint32, source string)
	CompileShader(shader uint32)
	ShaderCompiled(shader uint32) bool
	ShaderInfoLog(shader uint32) string
	DeleteShader(shader uint32)

	CreateProgram() uint32
	AttachShader(program, shader uint32)
	LinkProgram(program uint32)
	ProgramInfoLog(program uint32) string
	UseProgram(program uint32)
	UniformLocation(program uint32, name string) int32
	Uniform1f(location int32, v float32)
	Uniform4f(location int32, v0, v1, v2, v3 float32)

	CreateBuffer() uint32
	BindBuffer(target, buffer uint32)
	// BufferData sets the store of buffer to size bytes (named-buffer
	// semantics). A nil data only allocates; otherwise data holds size/4
	// values.
	BufferData(buffer uint32, size int, data []float32, usage uint32)

	CreateVertexArray() uint32
	BindVertexArray(vao uint32)
	EnableVertexAttribArray(index uint32)
	VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset int)
	DrawArrays(mode uint32, first, count int32)

	CreateTexture(img *image.RGBA) uint32
	BindTexture(target, texture uint32)
}

// Backend combines windowing and rendering.
type Backend interface {
	Windowing
	GL
}
