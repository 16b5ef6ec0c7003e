// Package ui runs Dear ImGui for scripts: one context for the whole run,
// fed from the window passed to uiNewFrame and drawn by an optional
// renderer when uiRender is called.
package ui

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/inkyblackness/imgui-go/v4"

	"github.com/zurustar/sqhell/pkg/graphics"
)

// ErrNoFrame is returned when widgets or Render are used outside a frame.
var ErrNoFrame = errors.New("ui frame not started; call uiNewFrame first")

// Renderer draws ImGui draw data into the current GL context.
type Renderer interface {
	Render(displaySize, framebufferSize [2]float32, drawData imgui.DrawData)
	Dispose()
}

// RendererFactory creates a renderer once a GL context is current.
type RendererFactory func(io imgui.IO) (Renderer, error)

// Context is the ImGui state of a run.
type Context struct {
	ctx      *imgui.Context
	io       imgui.IO
	factory  RendererFactory
	renderer Renderer
	log      *slog.Logger

	inFrame   bool
	lastFrame time.Time
	windows   int
}

// Option configures a Context.
type Option func(*Context)

// WithRenderer sets the factory used on the first Render. Without it
// frames are built but never drawn, as in headless mode.
func WithRenderer(factory RendererFactory) Option {
	return func(c *Context) {
		c.factory = factory
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Context) {
		c.log = log
	}
}

// New creates the ImGui context.
func New(opts ...Option) *Context {
	c := &Context{log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	c.ctx = imgui.CreateContext(nil)
	c.io = imgui.CurrentIO()
	c.io.SetIniFilename("")
	// フォントアトラスはレンダラーがなくてもNewFrame前に構築が必要
	c.io.Fonts().TextureDataAlpha8()
	return c
}

// NewFrame starts a frame sized to win and fed with its mouse state.
func (c *Context) NewFrame(win graphics.Window) error {
	if c.inFrame {
		// 前のフレームが描画されずに終わった
		c.closeWindows()
		imgui.EndFrame()
	}

	w, h := win.Size()
	c.io.SetDisplaySize(imgui.Vec2{X: float32(w), Y: float32(h)})

	now := time.Now()
	if !c.lastFrame.IsZero() {
		dt := float32(now.Sub(c.lastFrame).Seconds())
		if dt <= 0 {
			dt = 1.0 / 60
		}
		c.io.SetDeltaTime(dt)
	}
	c.lastFrame = now

	x, y := win.CursorPos()
	c.io.SetMousePosition(imgui.Vec2{X: float32(x), Y: float32(y)})
	for i := 0; i < 3; i++ {
		c.io.SetMouseButtonDown(i, win.MouseButton(i))
	}

	imgui.NewFrame()
	c.inFrame = true
	c.windows = 0
	return nil
}

// Render finishes the frame and draws it into win's context.
func (c *Context) Render(win graphics.Window) error {
	if !c.inFrame {
		return ErrNoFrame
	}
	c.closeWindows()
	imgui.Render()
	c.inFrame = false

	if c.renderer == nil && c.factory != nil {
		r, err := c.factory(c.io)
		if err != nil {
			return fmt.Errorf("create ui renderer: %w", err)
		}
		c.renderer = r
		c.log.Debug("ui renderer created")
	}
	if c.renderer == nil {
		return nil
	}

	w, h := win.Size()
	fw, fh := win.FramebufferSize()
	c.renderer.Render(
		[2]float32{float32(w), float32(h)},
		[2]float32{float32(fw), float32(fh)},
		imgui.RenderedDrawData())
	return nil
}

// closeWindows ends windows the script left open.
func (c *Context) closeWindows() {
	for ; c.windows > 0; c.windows-- {
		imgui.End()
	}
}

func (c *Context) frame() error {
	if !c.inFrame {
		return ErrNoFrame
	}
	return nil
}

// Begin opens a window. It reports whether the window is expanded.
func (c *Context) Begin(name string) (bool, error) {
	if err := c.frame(); err != nil {
		return false, err
	}
	c.windows++
	return imgui.Begin(name), nil
}

// End closes the window opened by the matching Begin.
func (c *Context) End() error {
	if err := c.frame(); err != nil {
		return err
	}
	if c.windows == 0 {
		return errors.New("uiEnd without matching uiBegin")
	}
	c.windows--
	imgui.End()
	return nil
}

func (c *Context) Text(text string) error {
	if err := c.frame(); err != nil {
		return err
	}
	imgui.Text(text)
	return nil
}

func (c *Context) Button(label string) (bool, error) {
	if err := c.frame(); err != nil {
		return false, err
	}
	return imgui.Button(label), nil
}

func (c *Context) Checkbox(label string, value *bool) (bool, error) {
	if err := c.frame(); err != nil {
		return false, err
	}
	imgui.Checkbox(label, value)
	return *value, nil
}

func (c *Context) SliderFloat(label string, value *float32, min, max float32) (float32, error) {
	if err := c.frame(); err != nil {
		return 0, err
	}
	imgui.SliderFloat(label, value, min, max)
	return *value, nil
}

func (c *Context) Separator() error {
	if err := c.frame(); err != nil {
		return err
	}
	imgui.Separator()
	return nil
}

func (c *Context) SameLine() error {
	if err := c.frame(); err != nil {
		return err
	}
	imgui.SameLine()
	return nil
}

// Close releases the renderer and the ImGui context.
func (c *Context) Close() {
	if c.renderer != nil {
		c.renderer.Dispose()
		c.renderer = nil
	}
	if c.ctx != nil {
		c.ctx.Destroy()
		c.ctx = nil
	}
}
