package binding

import (
	"fmt"
	"io"
	"strings"

	"github.com/zurustar/sqhell/pkg/fileutil"
	"github.com/zurustar/sqhell/pkg/session"
)

func (e *Env) systemBuiltins() []Builtin {
	return []Builtin{
		defRest("print", P("values", KindAny), e.print),
		defRest("println", P("values", KindAny), e.println),
		def("exit", e.exit, Opt("code", KindInt, 0)),
		def("readFileText", e.readFileText, P("path", KindText)),
		def("watchFile", e.watchFile, P("path", KindText)),
		def("fileChanged", e.fileChanged, P("path", KindText)),
	}
}

// joinText concatenates the text form of each value with no separator.
func joinText(values []any) string {
	var sb strings.Builder
	for _, v := range values {
		sb.WriteString(formatText(v))
	}
	return sb.String()
}

func (e *Env) print(c *Call) (any, error) {
	if _, err := io.WriteString(e.Stdout, joinText(c.Rest())); err != nil {
		return nil, fmt.Errorf("print: %w", err)
	}
	return nil, nil
}

func (e *Env) println(c *Call) (any, error) {
	if _, err := io.WriteString(e.Stdout, joinText(c.Rest())+"\n"); err != nil {
		return nil, fmt.Errorf("println: %w", err)
	}
	return nil, nil
}

// exit aborts the running statement; the runner sees the stop request on
// the session and ends the run with the code.
func (e *Env) exit(c *Call) (any, error) {
	code := c.Int(0)
	e.Log.Debug("Exit requested by script", "code", code)
	e.Session.RequestStop(code)
	return nil, session.ErrStopRequested
}

func (e *Env) readFileText(c *Call) (any, error) {
	data, err := e.FS.ReadFile(c.Text(0))
	if err != nil {
		return nil, fmt.Errorf("readFileText: %w", err)
	}
	text, err := fileutil.DecodeText(data, e.Encoding)
	if err != nil {
		return nil, fmt.Errorf("readFileText: %w", err)
	}
	return text, nil
}

// watchFile returns 1 once path is being watched, 0 when watching is
// unavailable.
func (e *Env) watchFile(c *Call) (any, error) {
	if e.Watcher == nil {
		e.Log.Warn("File watching is unavailable", "path", c.Text(0))
		return false, nil
	}
	// 未作成のファイルも監視できるよう、解決に失敗したパスもそのまま使う
	path, _ := e.FS.Resolve(c.Text(0))
	if err := e.Watcher.Add(path); err != nil {
		e.Log.Warn("Failed to watch file", "path", path, "error", err)
		return false, nil
	}
	return true, nil
}

// fileChanged returns 1 if path changed since the previous call.
func (e *Env) fileChanged(c *Call) (any, error) {
	if e.Watcher == nil {
		return false, nil
	}
	path, _ := e.FS.Resolve(c.Text(0))
	return e.Watcher.Changed(path), nil
}
