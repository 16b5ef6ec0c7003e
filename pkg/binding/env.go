package binding

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/zurustar/sqhell/pkg/fileutil"
	"github.com/zurustar/sqhell/pkg/graphics"
	"github.com/zurustar/sqhell/pkg/session"
)

// ErrGLNotLoaded is returned by GL functions called before gladLoadGL.
var ErrGLNotLoaded = errors.New("OpenGL functions are not loaded; call gladLoadGL first")

// UI is the immediate-mode UI the ui* functions drive.
type UI interface {
	NewFrame(win graphics.Window) error
	Render(win graphics.Window) error
	Begin(name string) (bool, error)
	End() error
	Text(text string) error
	Button(label string) (bool, error)
	Checkbox(label string, value *bool) (bool, error)
	SliderFloat(label string, value *float32, min, max float32) (float32, error)
	Separator() error
	SameLine() error
}

// Audio is the sound system behind playWave, playMidi and stopAudio.
type Audio interface {
	PlayWAVE(path string) error
	PlayMIDI(path string) error
	StopAll()
}

// Watcher reports changes to watched files.
type Watcher interface {
	Add(path string) error
	Changed(path string) bool
}

// Env is everything the builtins act on. Zero fields get defaults in
// Builtins: a silent headless backend, a UI and audio system that do
// nothing, stdout, and paths relative to the working directory.
type Env struct {
	Session *session.Session
	Backend graphics.Backend
	UI      UI
	Audio   Audio
	Watcher Watcher
	FS      *fileutil.RealFS

	// Encoding of files read by readFileText; empty means UTF-8.
	Encoding string
	Stdout   io.Writer
	Log      *slog.Logger

	glLoaded bool
}

func (e *Env) setDefaults() {
	if e.Session == nil {
		e.Session = session.New()
	}
	if e.Backend == nil {
		e.Backend = graphics.NewHeadless(graphics.WithLogOperations(false))
	}
	if e.UI == nil {
		e.UI = nopUI{}
	}
	if e.Audio == nil {
		e.Audio = nopAudio{}
	}
	if e.FS == nil {
		e.FS = fileutil.NewRealFS(".")
	}
	if e.Stdout == nil {
		e.Stdout = os.Stdout
	}
	if e.Log == nil {
		e.Log = slog.Default()
	}
}

// gl returns the GL half of the backend once gladLoadGL has succeeded.
func (e *Env) gl() (graphics.GL, error) {
	if !e.glLoaded {
		return nil, ErrGLNotLoaded
	}
	return e.Backend, nil
}

// window resolves a window handle argument.
func (e *Env) window(c *Call, i int) (graphics.Window, error) {
	return e.Session.Window(c.Handle(i))
}

// nopUI builds no frames. Widgets report their stored value unchanged.
type nopUI struct{}

func (nopUI) NewFrame(graphics.Window) error { return nil }
func (nopUI) Render(graphics.Window) error   { return nil }
func (nopUI) Begin(string) (bool, error)     { return false, nil }
func (nopUI) End() error                     { return nil }
func (nopUI) Text(string) error              { return nil }
func (nopUI) Button(string) (bool, error)    { return false, nil }
func (nopUI) Separator() error               { return nil }
func (nopUI) SameLine() error                { return nil }

func (nopUI) Checkbox(_ string, value *bool) (bool, error) { return *value, nil }

func (nopUI) SliderFloat(_ string, value *float32, _, _ float32) (float32, error) {
	return *value, nil
}

type nopAudio struct{}

func (nopAudio) PlayWAVE(string) error { return nil }
func (nopAudio) PlayMIDI(string) error { return nil }
func (nopAudio) StopAll()              {}
