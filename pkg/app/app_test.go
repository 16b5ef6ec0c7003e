package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv は環境変数がテストに影響しないようにする
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"HEADLESS", "TIMEOUT", "LOG_LEVEL", "SQHELL_ENCODING", "SQHELL_SOUNDFONT"} {
		t.Setenv(name, "")
	}
}

func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

type result struct {
	err    error
	stdout string
	stderr string
}

func run(t *testing.T, opts []Option, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := New(append([]Option{WithOutput(&stdout, &stderr)}, opts...)...)
	err := a.Run(context.Background(), args)
	return result{err: err, stdout: stdout.String(), stderr: stderr.String()}
}

func TestRun_Help(t *testing.T) {
	clearEnv(t)
	r := run(t, nil, "--help")
	assert.Equal(t, 0, ExitCode(r.err))
	assert.Contains(t, r.stdout, "Usage:")
}

func TestRun_MissingScriptArgument(t *testing.T) {
	clearEnv(t)
	r := run(t, nil)
	assert.Equal(t, 1, ExitCode(r.err))
	assert.Contains(t, r.stderr, "Usage: sqhell")
}

func TestRun_InvalidFlag(t *testing.T) {
	clearEnv(t)
	r := run(t, nil, "--log-level", "verbose", "x.sql")
	assert.Equal(t, 1, ExitCode(r.err))
	assert.Contains(t, r.stderr, "invalid log level")
}

func TestRun_UnreadableScript(t *testing.T) {
	clearEnv(t)
	r := run(t, nil, "--headless", filepath.Join(t.TempDir(), "missing.sql"))
	assert.Equal(t, 1, ExitCode(r.err))
	assert.Contains(t, r.stderr, "script not found")
}

func TestRun_ExitCode(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeScript(t, dir, "hello.sql", `
SELECT println('hello, ', 'world');
SELECT exit(3);
`)

	r := run(t, nil, "--headless", "-l", "error", path)
	assert.Equal(t, 3, ExitCode(r.err))
	assert.Equal(t, "hello, world\n", r.stdout)
}

func TestRun_ExecutionErrorIsFatal(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeScript(t, dir, "bad.sql", `
CREATE TABLE t(x NOT NULL);
INSERT INTO t VALUES (NULL);
SELECT println('unreachable');
`)

	r := run(t, nil, "--headless", "-l", "error", path)
	assert.Equal(t, 1, ExitCode(r.err))
	assert.Contains(t, r.stderr, "ERROR: 19 ")
	assert.Empty(t, r.stdout)
}

func TestRun_CompileErrorsAreNotFatal(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeScript(t, dir, "typo.sql", `
SELEC 1;
SELECT exit(0);
`)

	r := run(t, nil, "--headless", "-l", "error", path)
	assert.Equal(t, 0, ExitCode(r.err))
	assert.Contains(t, r.stderr, "ERROR COMPILING SQL: 1 ")
}

func TestRun_TimeoutFromConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeScript(t, dir, "sqhell.toml", "timeout = 1\nheadless = true\nlog_level = \"error\"\n")
	path := writeScript(t, dir, "loop.sql", `
CREATE TABLE IF NOT EXISTS frames(n);
INSERT INTO frames VALUES (1);
`)

	r := run(t, nil, path)
	assert.NoError(t, r.err, "timeout is a normal termination")
	assert.Equal(t, 0, ExitCode(r.err))
}

func TestRun_WindowScript(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeScript(t, dir, "window.sql", `
CREATE TABLE win AS SELECT glfwInit() AS ok, glfwCreateWindow(320, 240, 'test') AS id;
SELECT glfwMakeContextCurrent(id), gladLoadGL() FROM win;
SELECT glClearColor(0.2, 0.3, 0.3), glClear(GL_COLOR_BUFFER_BIT()) FROM win;
SELECT glfwSwapBuffers(id), glfwPollEvents() FROM win;
SELECT exit(glfwGetWindowWidth(id) / 32) FROM win;
`)

	r := run(t, nil, "--headless", "-l", "error", path)
	assert.Equal(t, 10, ExitCode(r.err))
}

type fakeAudio struct {
	soundFont string
	muted     bool
	closed    bool
}

func (a *fakeAudio) PlayWAVE(string) error { return nil }
func (a *fakeAudio) PlayMIDI(string) error { return nil }
func (a *fakeAudio) StopAll()              {}
func (a *fakeAudio) Close()                { a.closed = true }

func TestRun_AudioWiring(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	sf := writeScript(t, dir, DefaultSoundFontName, "RIFF....sfbk")
	path := writeScript(t, dir, "audio.sql", "SELECT playWave('x.wav'); SELECT exit();")

	audio := &fakeAudio{}
	opts := []Option{WithAudio(func(soundFont string, muted bool, _ *slog.Logger) Audio {
		audio.soundFont = soundFont
		audio.muted = muted
		return audio
	})}

	r := run(t, opts, "--headless", "-l", "error", path)
	assert.Equal(t, 0, ExitCode(r.err))
	assert.Equal(t, sf, audio.soundFont)
	assert.True(t, audio.muted, "headless runs are muted")
	assert.True(t, audio.closed)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 7, ExitCode(&ExitError{Code: 7, Err: os.ErrClosed}))
	assert.Equal(t, 1, ExitCode(os.ErrNotExist))
}

func TestRun_TriangleExampleHeadless(t *testing.T) {
	clearEnv(t)
	path := filepath.Join("..", "..", "cmd", "sqhell", "examples", "triangle.sql")

	r := run(t, nil, "--headless", "--timeout", "1", "-l", "error", path)
	assert.NoError(t, r.err)
	assert.NotContains(t, r.stderr, "ERROR")
}
