// Package glbackend implements graphics.Backend on GLFW and OpenGL 4.1 core.
//
// All calls must come from the main OS thread; the command locks it in init.
package glbackend

import (
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/zurustar/sqhell/pkg/config"
	"github.com/zurustar/sqhell/pkg/graphics"
)

// Backend is the GLFW + OpenGL backend.
type Backend struct {
	hints config.Graphics
	log   *slog.Logger

	initialized bool
	glLoaded    bool
	start       time.Time
	windows     map[*glfw.Window]*Window
}

// New creates a backend that requests a context described by hints.
func New(hints config.Graphics, log *slog.Logger) *Backend {
	if log == nil {
		log = slog.Default()
	}
	return &Backend{
		hints:   hints,
		log:     log,
		windows: make(map[*glfw.Window]*Window),
	}
}

var _ graphics.Backend = (*Backend)(nil)

func (b *Backend) Init() error {
	if b.initialized {
		return nil
	}
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw init: %w", err)
	}
	b.initialized = true
	b.start = time.Now()
	b.log.Debug("GLFW initialized", "version", glfw.GetVersionString())
	return nil
}

func (b *Backend) Terminate() {
	if !b.initialized {
		return
	}
	for _, w := range b.windows {
		w.Destroy()
	}
	glfw.Terminate()
	b.initialized = false
	b.glLoaded = false
}

func boolHint(v bool) int {
	if v {
		return glfw.True
	}
	return glfw.False
}

func (b *Backend) CreateWindow(width, height int, title string) (graphics.Window, error) {
	if !b.initialized {
		return nil, graphics.ErrNotInitialized
	}

	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.ContextVersionMajor, b.hints.ContextMajor)
	glfw.WindowHint(glfw.ContextVersionMinor, b.hints.ContextMinor)
	if b.hints.CoreProfile {
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	}
	glfw.WindowHint(glfw.OpenGLForwardCompatible, boolHint(b.hints.ForwardCompat))
	glfw.WindowHint(glfw.Resizable, boolHint(b.hints.Resizable))
	if b.hints.Samples > 0 {
		glfw.WindowHint(glfw.Samples, b.hints.Samples)
	}

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create window: %w", err)
	}
	w := &Window{win: win, backend: b, swapInterval: b.hints.SwapInterval}
	b.windows[win] = w
	b.log.Debug("window created", "width", width, "height", height, "title", title)
	return w, nil
}

func (b *Backend) PollEvents() {
	if b.initialized {
		glfw.PollEvents()
	}
}

func (b *Backend) Time() float64 {
	if !b.initialized {
		return 0
	}
	return glfw.GetTime()
}

// LoadGL resolves GL entry points for the current context.
func (b *Backend) LoadGL() error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("gl init: %w", err)
	}
	b.glLoaded = true
	b.log.Debug("OpenGL loaded", "version", gl.GoStr(gl.GetString(gl.VERSION)))
	return nil
}

func (b *Backend) ClearColor(r, g, bl, a float32) { gl.ClearColor(r, g, bl, a) }
func (b *Backend) Clear(mask uint32)              { gl.Clear(mask) }

func (b *Backend) Viewport(x, y, width, height int32) {
	gl.Viewport(x, y, width, height)
}

func (b *Backend) CreateShader(kind uint32) uint32 {
	return gl.CreateShader(kind)
}

func (b *Backend) ShaderSource(shader uint32, source string) {
	csources, free := gl.Strs(source + "\x00")
	defer free()
	gl.ShaderSource(shader, 1, csources, nil)
}

func (b *Backend) CompileShader(shader uint32) { gl.CompileShader(shader) }

func (b *Backend) ShaderCompiled(shader uint32) bool {
	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	return status == gl.TRUE
}

func (b *Backend) ShaderInfoLog(shader uint32) string {
	var logLength int32
	gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
	if logLength == 0 {
		return ""
	}
	msg := strings.Repeat("\x00", int(logLength+1))
	gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(msg))
	return strings.TrimRight(msg, "\x00")
}

func (b *Backend) DeleteShader(shader uint32) { gl.DeleteShader(shader) }

func (b *Backend) CreateProgram() uint32 { return gl.CreateProgram() }

func (b *Backend) AttachShader(program, shader uint32) { gl.AttachShader(program, shader) }
func (b *Backend) LinkProgram(program uint32)          { gl.LinkProgram(program) }
func (b *Backend) UseProgram(program uint32)           { gl.UseProgram(program) }

func (b *Backend) ProgramInfoLog(program uint32) string {
	var logLength int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
	if logLength == 0 {
		return ""
	}
	msg := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(program, logLength, nil, gl.Str(msg))
	return strings.TrimRight(msg, "\x00")
}

func (b *Backend) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (b *Backend) Uniform1f(location int32, v float32) { gl.Uniform1f(location, v) }

func (b *Backend) Uniform4f(location int32, v0, v1, v2, v3 float32) {
	gl.Uniform4f(location, v0, v1, v2, v3)
}

// 4.1 core には DSA がないため Gen* と Bind を使う

func (b *Backend) CreateBuffer() uint32 {
	var buffer uint32
	gl.GenBuffers(1, &buffer)
	return buffer
}

func (b *Backend) BindBuffer(target, buffer uint32) { gl.BindBuffer(target, buffer) }

func (b *Backend) BufferData(buffer uint32, size int, data []float32, usage uint32) {
	var previous int32
	gl.GetIntegerv(gl.ARRAY_BUFFER_BINDING, &previous)
	gl.BindBuffer(gl.ARRAY_BUFFER, buffer)
	if len(data) == 0 {
		gl.BufferData(gl.ARRAY_BUFFER, size, nil, usage)
	} else {
		gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), usage)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(previous))
}

func (b *Backend) CreateVertexArray() uint32 {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	return vao
}

func (b *Backend) BindVertexArray(vao uint32)           { gl.BindVertexArray(vao) }
func (b *Backend) EnableVertexAttribArray(index uint32) { gl.EnableVertexAttribArray(index) }

func (b *Backend) VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset int) {
	gl.VertexAttribPointerWithOffset(index, size, xtype, normalized, stride, uintptr(offset))
}

func (b *Backend) DrawArrays(mode uint32, first, count int32) {
	gl.DrawArrays(mode, first, count)
}

func (b *Backend) CreateTexture(img *image.RGBA) uint32 {
	var texture uint32
	gl.GenTextures(1, &texture)
	gl.BindTexture(gl.TEXTURE_2D, texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	size := img.Bounds().Size()
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(img.Stride/4))
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(size.X), int32(size.Y), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	return texture
}

func (b *Backend) BindTexture(target, texture uint32) { gl.BindTexture(target, texture) }
