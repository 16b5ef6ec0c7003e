package binding

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zurustar/sqhell/pkg/engine"
	"github.com/zurustar/sqhell/pkg/fileutil"
	"github.com/zurustar/sqhell/pkg/graphics"
	"github.com/zurustar/sqhell/pkg/logger"
	"github.com/zurustar/sqhell/pkg/session"
)

type fixture struct {
	conn    *engine.Conn
	env     *Env
	backend *graphics.Headless
	stdout  *bytes.Buffer
	dir     string
}

func newFixture(t *testing.T, configure ...func(*Env)) *fixture {
	t.Helper()

	conn, err := engine.Open(engine.MemoryPath, engine.WithLogger(logger.Discard()))
	require.NoError(t, err)

	dir := t.TempDir()
	f := &fixture{
		conn:    conn,
		backend: graphics.NewHeadless(graphics.WithLogOperations(false), graphics.WithRecordHistory(true)),
		stdout:  &bytes.Buffer{},
		dir:     dir,
	}
	f.env = &Env{
		Session: session.New(),
		Backend: f.backend,
		FS:      fileutil.NewRealFS(dir),
		Stdout:  f.stdout,
		Log:     logger.Discard(),
	}
	for _, c := range configure {
		c(f.env)
	}

	_, err = Install(conn, f.env)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return f
}

// eval runs a single statement and returns the first column of its first row.
func (f *fixture) eval(t *testing.T, sql string) (any, error) {
	t.Helper()
	stmt, _, err := f.conn.Compile(sql)
	require.NoError(t, err, sql)
	require.NotNil(t, stmt, sql)
	defer stmt.Finalize()

	row, err := stmt.Step()
	if err != nil {
		return nil, err
	}
	if !row {
		return nil, nil
	}
	return stmt.Column(0), nil
}

func (f *fixture) mustEval(t *testing.T, sql string) any {
	t.Helper()
	v, err := f.eval(t, sql)
	require.NoError(t, err, sql)
	return v
}

func (f *fixture) writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestInstall_RegistersEveryBuiltin(t *testing.T) {
	conn, err := engine.Open(engine.MemoryPath, engine.WithLogger(logger.Discard()))
	require.NoError(t, err)
	defer conn.Close()

	r, err := Install(conn, &Env{Log: logger.Discard()})
	require.NoError(t, err)

	names := r.Names()
	for _, want := range []string{"print", "exit", "pushFloats", "glfwCreateWindow", "glNamedBufferData",
		"uiSliderFloat", "playMidi", "GL_TRIANGLES", "GLFW_PRESS"} {
		assert.Contains(t, names, want)
	}
}

func TestPrint(t *testing.T) {
	f := newFixture(t)

	f.mustEval(t, "SELECT print('a', 1, NULL, 'b');")
	f.mustEval(t, "SELECT println(' x=', 2.0, ' y=', 0.25);")
	f.mustEval(t, "SELECT println();")

	assert.Equal(t, "a1b x=2.0 y=0.25\n\n", f.stdout.String())
}

func TestExit(t *testing.T) {
	f := newFixture(t)

	_, err := f.eval(t, "SELECT exit(3);")
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrStopRequested)

	code, stopping := f.env.Session.StopRequested()
	assert.True(t, stopping)
	assert.Equal(t, 3, code)
}

func TestExit_DefaultCode(t *testing.T) {
	f := newFixture(t)

	_, err := f.eval(t, "SELECT exit();")
	require.Error(t, err)

	code, stopping := f.env.Session.StopRequested()
	assert.True(t, stopping)
	assert.Equal(t, 0, code)
}

func TestReadFileText(t *testing.T) {
	f := newFixture(t)
	f.writeFile(t, "Shader.VERT", []byte("\xEF\xBB\xBFvoid main() {}"))

	// 大文字小文字を無視して解決し、BOMは除去される
	assert.Equal(t, "void main() {}", f.mustEval(t, "SELECT readFileText('shader.vert');"))

	_, err := f.eval(t, "SELECT readFileText('missing.txt');")
	assert.Error(t, err)
}

func TestReadFileText_Encoding(t *testing.T) {
	f := newFixture(t, func(e *Env) { e.Encoding = "shift_jis" })
	f.writeFile(t, "title.txt", []byte{0x83, 0x65, 0x83, 0x58, 0x83, 0x67}) // "テスト"

	assert.Equal(t, "テスト", f.mustEval(t, "SELECT readFileText('title.txt');"))
}

func TestFloats_ClearThenReadBack(t *testing.T) {
	f := newFixture(t)

	f.mustEval(t, "SELECT pushFloats(1, 2);")
	f.mustEval(t, "SELECT clearFloats();")
	f.mustEval(t, "SELECT pushFloats(3);")
	assert.Equal(t, int64(1), f.mustEval(t, "SELECT floatCount();"))

	h := f.mustEval(t, "SELECT getFloats();")
	values, err := f.env.Session.Floats().Resolve(session.Handle(h.(int64)))
	require.NoError(t, err)
	assert.Equal(t, []float32{3}, values)

	// 変更がなければ同じスナップショットが返る
	for i := 0; i < 100; i++ {
		assert.Equal(t, h, f.mustEval(t, "SELECT getFloats();"))
	}
	assert.Equal(t, 1, f.env.Session.Floats().Snapshots())

	_, err = f.eval(t, "SELECT pushFloats(1, 'two');")
	var argErr *ArgumentError
	assert.ErrorAs(t, err, &argErr)
}

func TestWindowLifecycle(t *testing.T) {
	f := newFixture(t)

	// 初期化前はウィンドウを作れない
	assert.Equal(t, int64(0), f.mustEval(t, "SELECT glfwCreateWindow(640, 480, 'early');"))

	assert.Equal(t, int64(1), f.mustEval(t, "SELECT glfwInit();"))
	h := f.mustEval(t, "SELECT glfwCreateWindow(640, 480, 'sqhell');").(int64)
	require.NotZero(t, h)

	w, err := f.env.Session.Window(session.Handle(h))
	require.NoError(t, err)
	win := w.(*graphics.HeadlessWindow)
	win.SetKey('W', graphics.KeyPress)

	q := func(sql string) any {
		v, err := f.eval(t, sql)
		require.NoError(t, err, sql)
		return v
	}
	bind := func(sql string) string {
		return strings.ReplaceAll(sql, "$w", itoa(h))
	}

	assert.Equal(t, int64(640), q(bind("SELECT glfwGetWindowWidth($w);")))
	assert.Equal(t, int64(480), q(bind("SELECT glfwGetWindowHeight($w);")))
	assert.Equal(t, int64(1), q(bind("SELECT glfwGetKey($w, 'w') = GLFW_PRESS();")))
	assert.Equal(t, int64(1), q(bind("SELECT glfwGetKey($w, 87);")))
	assert.Equal(t, int64(0), q(bind("SELECT glfwGetKey($w, GLFW_KEY_ESCAPE());")))
	assert.Equal(t, int64(0), q(bind("SELECT glfwWindowShouldClose($w);")))
	q(bind("SELECT glfwSetWindowShouldClose($w, 1);"))
	assert.Equal(t, int64(1), q(bind("SELECT glfwWindowShouldClose($w);")))

	q(bind("SELECT glfwMakeContextCurrent($w);"))
	q(bind("SELECT glfwSwapBuffers($w);"))
	q("SELECT glfwPollEvents();")
	assert.Equal(t, 1, win.Swaps())

	q(bind("SELECT glfwDestroyWindow($w);"))
	assert.True(t, win.Destroyed())

	_, err = f.eval(t, bind("SELECT glfwSwapBuffers($w);"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stale")

	_, err = f.eval(t, "SELECT glfwSwapBuffers(12345);")
	assert.Error(t, err)
}

func TestTerminate_DestroysWindows(t *testing.T) {
	f := newFixture(t)
	f.mustEval(t, "SELECT glfwInit();")
	h := f.mustEval(t, "SELECT glfwCreateWindow(100, 100, 'a');").(int64)
	w, err := f.env.Session.Window(session.Handle(h))
	require.NoError(t, err)

	f.mustEval(t, "SELECT glfwTerminate();")
	assert.True(t, w.(*graphics.HeadlessWindow).Destroyed())
	assert.Empty(t, f.env.Session.Windows())
}

func TestGL_RequiresLoad(t *testing.T) {
	f := newFixture(t)

	_, err := f.eval(t, "SELECT glClear(GL_COLOR_BUFFER_BIT());")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gladLoadGL")

	assert.Equal(t, int64(1), f.mustEval(t, "SELECT gladLoadGL();"))
	f.mustEval(t, "SELECT glClear(GL_COLOR_BUFFER_BIT());")
	assert.Contains(t, f.backend.Operations(), "Clear")
}

func TestGL_ClearColorDefaultsAlpha(t *testing.T) {
	f := newFixture(t)
	f.mustEval(t, "SELECT gladLoadGL();")
	f.backend.ClearOperationHistory()

	f.mustEval(t, "SELECT glClearColor(0.1, 0.2, 0.3);")
	f.mustEval(t, "SELECT glClearColor(0, 0, 0, 0.5);")

	history := f.backend.GetOperationHistory()
	require.Len(t, history, 2)
	assert.Equal(t, float32(1.0), history[0].Args["a"])
	assert.Equal(t, float32(0.5), history[1].Args["a"])

	// アリティごとに登録しているので、未登録のアリティはコンパイル時に失敗する
	stmt, _, err := f.conn.Compile("SELECT glClearColor(0.1, 0.2);")
	assert.Nil(t, stmt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wrong number of arguments")

	_, err = f.eval(t, "SELECT glClearColor('red', 0, 0);")
	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, 0, argErr.Index)
	assert.Equal(t, KindFloat, argErr.Want)
}

func TestGL_TrianglePipeline(t *testing.T) {
	f := newFixture(t)
	f.mustEval(t, "SELECT gladLoadGL();")

	vs := f.mustEval(t, "SELECT glCreateShader(GL_VERTEX_SHADER());").(int64)
	require.NotZero(t, vs)
	f.mustEval(t, "SELECT glShaderSource("+itoa(vs)+", 'void main() {}');")
	f.mustEval(t, "SELECT glCompileShader("+itoa(vs)+");")
	assert.Equal(t, int64(1), f.mustEval(t, "SELECT glGetShaderCompiled("+itoa(vs)+");"))
	assert.Equal(t, "", f.mustEval(t, "SELECT glGetShaderInfoLog("+itoa(vs)+");"))

	program := f.mustEval(t, "SELECT glCreateProgram();").(int64)
	f.mustEval(t, "SELECT glAttachShader("+itoa(program)+", "+itoa(vs)+");")
	f.mustEval(t, "SELECT glLinkProgram("+itoa(program)+");")
	f.mustEval(t, "SELECT glUseProgram("+itoa(program)+");")
	assert.Equal(t, int64(-1), f.mustEval(t, "SELECT glGetUniformLocation("+itoa(program)+", 'time');"))

	buffer := f.mustEval(t, "SELECT glCreateBuffer();").(int64)
	f.mustEval(t, "SELECT clearFloats();")
	f.mustEval(t, "SELECT pushFloats(-0.5, -0.5, 0, 0.5, -0.5, 0, 0, 0.5, 0);")
	f.mustEval(t, "SELECT glNamedBufferData("+itoa(buffer)+", 36, getFloats(), GL_STATIC_DRAW());")

	data, ok := f.backend.Buffer(uint32(buffer))
	require.True(t, ok)
	assert.Equal(t, []float32{-0.5, -0.5, 0, 0.5, -0.5, 0, 0, 0.5, 0}, data)

	// 範囲外のサイズと古いスナップショットは拒否される
	_, err := f.eval(t, "SELECT glNamedBufferData("+itoa(buffer)+", 40, getFloats(), GL_STATIC_DRAW());")
	assert.Error(t, err)
	h := f.mustEval(t, "SELECT getFloats();").(int64)
	f.mustEval(t, "SELECT clearFloats();")
	_, err = f.eval(t, "SELECT glNamedBufferData("+itoa(buffer)+", 4, "+itoa(h)+", GL_STATIC_DRAW());")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stale")

	// NULL は確保のみ
	f.mustEval(t, "SELECT glNamedBufferData("+itoa(buffer)+", 16, NULL, GL_DYNAMIC_DRAW());")
	data, ok = f.backend.Buffer(uint32(buffer))
	require.True(t, ok)
	assert.Equal(t, []float32{0, 0, 0, 0}, data)

	_, err = f.eval(t, "SELECT glNamedBufferData("+itoa(buffer)+", 16, 'data', GL_DYNAMIC_DRAW());")
	var argErr *ArgumentError
	assert.ErrorAs(t, err, &argErr)

	vao := f.mustEval(t, "SELECT glCreateVertexArray();").(int64)
	f.mustEval(t, "SELECT glBindVertexArray("+itoa(vao)+");")
	f.mustEval(t, "SELECT glEnableVertexAttribArray(0);")
	f.mustEval(t, "SELECT glVertexAttribPointer(0, 3, GL_FLOAT(), GL_FALSE(), 12, 0);")
	f.mustEval(t, "SELECT glDrawArrays(GL_TRIANGLES(), 0, 3);")

	assert.Subset(t, f.backend.Operations(), []string{"BufferData", "VertexAttribPointer", "DrawArrays"})
}

func TestLoadTexture(t *testing.T) {
	f := newFixture(t)
	f.mustEval(t, "SELECT gladLoadGL();")

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 2))))
	f.writeFile(t, "tile.png", buf.Bytes())

	tex := f.mustEval(t, "SELECT loadTexture('tile.png');").(int64)
	assert.NotZero(t, tex)
	f.mustEval(t, "SELECT glBindTexture(GL_TEXTURE_2D(), "+itoa(tex)+");")

	assert.Equal(t, int64(0), f.mustEval(t, "SELECT loadTexture('missing.png');"))
	f.writeFile(t, "broken.png", []byte("not an image"))
	assert.Equal(t, int64(0), f.mustEval(t, "SELECT loadTexture('broken.png');"))
}

func TestConstants(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, int64(graphics.GLTriangles), f.mustEval(t, "SELECT GL_TRIANGLES();"))
	assert.Equal(t, int64(graphics.GLColorBufferBit), f.mustEval(t, "SELECT GL_COLOR_BUFFER_BIT();"))
	assert.Equal(t, int64(graphics.KeyPress), f.mustEval(t, "SELECT GLFW_PRESS();"))

	// 定数は引数なしでしか登録されないのでコンパイル時に失敗する
	stmt, _, err := f.conn.Compile("SELECT GL_TRIANGLES(1);")
	assert.Nil(t, stmt)
	assert.Error(t, err)
}

func itoa(n int64) string {
	return formatText(n)
}
