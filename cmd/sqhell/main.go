// Command sqhell runs a SQL script that drives a window, OpenGL, Dear ImGui
// and audio through functions registered in an embedded SQLite engine.
package main

import (
	"context"
	"log/slog"
	"os"
	"runtime"

	"github.com/zurustar/sqhell/pkg/app"
	"github.com/zurustar/sqhell/pkg/audio"
	"github.com/zurustar/sqhell/pkg/config"
	"github.com/zurustar/sqhell/pkg/graphics"
	"github.com/zurustar/sqhell/pkg/graphics/glbackend"
	"github.com/zurustar/sqhell/pkg/ui"
)

func init() {
	// GLFWの呼び出しはメインスレッドから行う必要がある
	runtime.LockOSThread()
}

func main() {
	application := app.New(
		app.WithBackend(func(hints config.Graphics, log *slog.Logger) graphics.Backend {
			return glbackend.New(hints, log)
		}),
		app.WithUI(func(log *slog.Logger) app.UI {
			return ui.New(ui.WithRenderer(ui.NewOpenGL3), ui.WithLogger(log))
		}),
		app.WithAudio(func(soundFont string, muted bool, log *slog.Logger) app.Audio {
			return audio.NewSystem(
				audio.WithSoundFont(soundFont),
				audio.WithMuted(muted),
				audio.WithLogger(log))
		}),
	)
	os.Exit(app.ExitCode(application.Run(context.Background(), os.Args[1:])))
}
