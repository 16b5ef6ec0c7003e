// Package app wires the command line, configuration, engine, bindings and
// runner into one run of a script.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/zurustar/sqhell/pkg/binding"
	"github.com/zurustar/sqhell/pkg/cli"
	"github.com/zurustar/sqhell/pkg/config"
	"github.com/zurustar/sqhell/pkg/engine"
	"github.com/zurustar/sqhell/pkg/fileutil"
	"github.com/zurustar/sqhell/pkg/graphics"
	"github.com/zurustar/sqhell/pkg/logger"
	"github.com/zurustar/sqhell/pkg/runner"
	"github.com/zurustar/sqhell/pkg/script"
	"github.com/zurustar/sqhell/pkg/session"
)

// ExitError carries the process exit status of a failed run.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps the result of Run to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var stop *runner.StopError
	if errors.As(err, &stop) {
		return stop.Code
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// UI is an immediate-mode UI that must be released at shutdown.
type UI interface {
	binding.UI
	Close()
}

// Audio is an audio system that must be released at shutdown.
type Audio interface {
	binding.Audio
	Close()
}

// BackendFactory creates the windowing and GL backend.
type BackendFactory func(hints config.Graphics, log *slog.Logger) graphics.Backend

// UIFactory creates the UI context.
type UIFactory func(log *slog.Logger) UI

// AudioFactory creates the audio system. soundFont may be empty.
type AudioFactory func(soundFont string, muted bool, log *slog.Logger) Audio

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	stdout io.Writer
	stderr io.Writer

	newBackend BackendFactory
	newUI      UIFactory
	newAudio   AudioFactory

	config *cli.Config
	file   *config.File
	log    *slog.Logger
}

// Option configures an Application.
type Option func(*Application)

// WithOutput sets the streams for script output and diagnostics.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(a *Application) {
		a.stdout = stdout
		a.stderr = stderr
	}
}

// WithBackend sets the backend used outside headless mode.
func WithBackend(f BackendFactory) Option {
	return func(a *Application) {
		a.newBackend = f
	}
}

// WithUI sets the UI used outside headless mode.
func WithUI(f UIFactory) Option {
	return func(a *Application) {
		a.newUI = f
	}
}

// WithAudio sets the audio system.
func WithAudio(f AudioFactory) Option {
	return func(a *Application) {
		a.newAudio = f
	}
}

// New Applicationを作成
// バックエンドを指定しない場合は常にヘッドレスで動作する
func New(opts ...Option) *Application {
	a := &Application{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run アプリケーションを実行
// 戻り値は ExitCode でプロセスの終了コードに変換する
func (a *Application) Run(ctx context.Context, args []string) error {
	// 1. コマンドライン引数の解析
	cfg, err := cli.ParseArgs(args)
	if err != nil {
		fmt.Fprintf(a.stderr, "sqhell: %v\n", err)
		cli.PrintUsage(a.stderr)
		return &ExitError{Code: 1, Err: err}
	}
	if cfg.ShowHelp {
		cli.PrintHelp(a.stdout)
		return nil
	}
	if err := cfg.Validate(); err != nil {
		cli.PrintUsage(a.stderr)
		return &ExitError{Code: 1, Err: err}
	}
	a.config = cfg

	// 2. 設定ファイル
	file, path, err := config.Discover(cfg.ConfigPath, cfg.ScriptPath)
	if err != nil {
		return a.fail(err)
	}
	a.file = file
	a.mergeConfig()

	// 3. ロガーの初期化
	if err := logger.InitLoggerWithWriter(a.config.LogLevel, a.stderr); err != nil {
		return a.fail(err)
	}
	a.log = logger.GetLogger()
	a.log.Info("Application started", "script", cfg.ScriptPath, "headless", a.config.Headless)
	if path != "" {
		a.log.Debug("Config loaded", "path", path)
	}

	// 4. スクリプトの読み込み
	src, err := script.NewLoader(a.config.Encoding).Load(a.config.ScriptPath)
	if err != nil {
		return a.fail(err)
	}
	a.log.Info("Script loaded", "path", src.Path, "size", src.Size)

	// 5. 実行
	err = a.execute(ctx, src)

	var stop *runner.StopError
	switch {
	case err == nil:
	case errors.As(err, &stop):
		a.log.Info("Script exited", "code", stop.Code)
		return err
	case errors.Is(err, context.DeadlineExceeded):
		a.log.Info("Timeout reached, terminating", "timeout", a.config.Timeout)
		return nil
	case errors.Is(err, context.Canceled):
		a.log.Info("Interrupted, terminating")
		return nil
	default:
		var execErr *runner.ExecError
		if errors.As(err, &execErr) {
			// 診断メッセージはランナーが出力済み
			return &ExitError{Code: 1, Err: err}
		}
		return a.fail(err)
	}

	a.log.Info("Application terminated normally")
	return nil
}

// fail reports a startup failure and returns exit status 1.
func (a *Application) fail(err error) error {
	if a.log != nil {
		a.log.Error("Startup failed", "error", err)
	}
	fmt.Fprintf(a.stderr, "sqhell: %v\n", err)
	return &ExitError{Code: 1, Err: err}
}

// mergeConfig fills settings the command line and environment left at
// their defaults from the config file.
func (a *Application) mergeConfig() {
	c, f := a.config, a.file
	if c.LogLevel == cli.DefaultLogLevel && f.LogLevel != "" {
		c.LogLevel = f.LogLevel
	}
	if c.Timeout == 0 {
		c.Timeout = f.TimeoutDuration()
	}
	if !c.Headless {
		c.Headless = f.Headless
	}
	if c.Encoding == cli.DefaultEncoding && f.Encoding != "" {
		c.Encoding = f.Encoding
	}
	if c.SoundFont == "" {
		c.SoundFont = f.SoundFont
	}
}

// execute owns every resource of the run and releases them in reverse
// order of creation.
func (a *Application) execute(ctx context.Context, src *script.Source) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}

	conn, err := engine.Open(engine.MemoryPath, engine.WithLogger(a.log))
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			a.log.Warn("Failed to close engine", "error", err)
		}
	}()

	sess := session.New()
	backend := a.backend()
	defer func() {
		for _, w := range sess.RemoveAllWindows() {
			w.Destroy()
		}
		backend.Terminate()
	}()

	env := &binding.Env{
		Session:  sess,
		Backend:  backend,
		FS:       fileutil.NewRealFS(src.Dir),
		Encoding: a.config.Encoding,
		Stdout:   a.stdout,
		Log:      a.log,
	}

	if watcher, err := fileutil.NewWatcher(a.log); err != nil {
		a.log.Warn("File watching unavailable", "error", err)
	} else {
		env.Watcher = watcher
		defer watcher.Close()
	}

	if a.newUI != nil && !a.config.Headless {
		ui := a.newUI(a.log)
		env.UI = ui
		defer ui.Close()
	}

	if a.newAudio != nil {
		soundFont := a.config.SoundFont
		if soundFont == "" {
			soundFont = findSoundFont(src.Dir)
		}
		audio := a.newAudio(soundFont, a.config.Headless, a.log)
		env.Audio = audio
		defer audio.Close()
	}

	if _, err := binding.Install(conn, env); err != nil {
		return err
	}

	r := runner.New(conn,
		runner.WithDiagnostics(a.stderr),
		runner.WithLogger(a.log),
		runner.WithStopper(sess))
	defer func() {
		if err := r.Close(); err != nil {
			a.log.Warn("Failed to finalize statements", "error", err)
		}
	}()

	return r.Run(ctx, src.Content)
}

func (a *Application) backend() graphics.Backend {
	if a.config.Headless || a.newBackend == nil {
		a.log.Info("Headless mode: no window or GL context")
		return graphics.NewHeadless(graphics.WithHeadlessLogger(a.log))
	}
	return a.newBackend(a.file.Graphics, a.log)
}
