package binding

import (
	"fmt"

	"github.com/zurustar/sqhell/pkg/graphics"
)

// glFunc guards fn with the gladLoadGL check.
func (e *Env) glFunc(fn func(gl graphics.GL, c *Call) (any, error)) Func {
	return func(c *Call) (any, error) {
		gl, err := e.gl()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name(), err)
		}
		return fn(gl, c)
	}
}

// glDo is glFunc for calls that return nothing.
func (e *Env) glDo(fn func(gl graphics.GL, c *Call)) Func {
	return e.glFunc(func(gl graphics.GL, c *Call) (any, error) {
		fn(gl, c)
		return nil, nil
	})
}

func u32(c *Call, i int) uint32 { return uint32(c.Int64(i)) }
func i32(c *Call, i int) int32  { return int32(c.Int64(i)) }

func (e *Env) glBuiltins() []Builtin {
	return []Builtin{
		def("gladLoadGL", e.gladLoadGL),

		def("glClearColor", e.glDo(func(gl graphics.GL, c *Call) {
			gl.ClearColor(c.Float32(0), c.Float32(1), c.Float32(2), c.Float32(3))
		}), P("r", KindFloat), P("g", KindFloat), P("b", KindFloat), Opt("a", KindFloat, 1.0)),
		def("glClear", e.glDo(func(gl graphics.GL, c *Call) {
			gl.Clear(u32(c, 0))
		}), P("mask", KindInt)),
		def("glViewport", e.glDo(func(gl graphics.GL, c *Call) {
			gl.Viewport(i32(c, 0), i32(c, 1), i32(c, 2), i32(c, 3))
		}), P("x", KindInt), P("y", KindInt), P("width", KindInt), P("height", KindInt)),

		// シェーダー
		def("glCreateShader", e.glFunc(func(gl graphics.GL, c *Call) (any, error) {
			return gl.CreateShader(u32(c, 0)), nil
		}), P("kind", KindInt)),
		def("glShaderSource", e.glDo(func(gl graphics.GL, c *Call) {
			gl.ShaderSource(u32(c, 0), c.Text(1))
		}), P("shader", KindInt), P("source", KindText)),
		def("glCompileShader", e.glDo(e.compileShader), P("shader", KindInt)),
		def("glGetShaderCompiled", e.glFunc(func(gl graphics.GL, c *Call) (any, error) {
			return gl.ShaderCompiled(u32(c, 0)), nil
		}), P("shader", KindInt)),
		def("glGetShaderInfoLog", e.glFunc(func(gl graphics.GL, c *Call) (any, error) {
			return gl.ShaderInfoLog(u32(c, 0)), nil
		}), P("shader", KindInt)),
		def("glDeleteShader", e.glDo(func(gl graphics.GL, c *Call) {
			gl.DeleteShader(u32(c, 0))
		}), P("shader", KindInt)),

		// プログラム
		def("glCreateProgram", e.glFunc(func(gl graphics.GL, _ *Call) (any, error) {
			return gl.CreateProgram(), nil
		})),
		def("glAttachShader", e.glDo(func(gl graphics.GL, c *Call) {
			gl.AttachShader(u32(c, 0), u32(c, 1))
		}), P("program", KindInt), P("shader", KindInt)),
		def("glLinkProgram", e.glDo(e.linkProgram), P("program", KindInt)),
		def("glGetProgramInfoLog", e.glFunc(func(gl graphics.GL, c *Call) (any, error) {
			return gl.ProgramInfoLog(u32(c, 0)), nil
		}), P("program", KindInt)),
		def("glUseProgram", e.glDo(func(gl graphics.GL, c *Call) {
			gl.UseProgram(u32(c, 0))
		}), P("program", KindInt)),
		def("glGetUniformLocation", e.glFunc(func(gl graphics.GL, c *Call) (any, error) {
			return gl.UniformLocation(u32(c, 0), c.Text(1)), nil
		}), P("program", KindInt), P("name", KindText)),
		def("glUniform1f", e.glDo(func(gl graphics.GL, c *Call) {
			gl.Uniform1f(i32(c, 0), c.Float32(1))
		}), P("location", KindInt), P("v0", KindFloat)),
		def("glUniform4f", e.glDo(func(gl graphics.GL, c *Call) {
			gl.Uniform4f(i32(c, 0), c.Float32(1), c.Float32(2), c.Float32(3), c.Float32(4))
		}), P("location", KindInt), P("v0", KindFloat), P("v1", KindFloat), P("v2", KindFloat), P("v3", KindFloat)),

		// バッファ・頂点配列
		def("glCreateBuffer", e.glFunc(func(gl graphics.GL, _ *Call) (any, error) {
			return gl.CreateBuffer(), nil
		})),
		def("glBindBuffer", e.glDo(func(gl graphics.GL, c *Call) {
			gl.BindBuffer(u32(c, 0), u32(c, 1))
		}), P("target", KindInt), P("buffer", KindInt)),
		def("glNamedBufferData", e.glFunc(e.namedBufferData),
			P("buffer", KindInt), P("size", KindInt), Nullable("data", KindHandle), P("usage", KindInt)),
		def("glCreateVertexArray", e.glFunc(func(gl graphics.GL, _ *Call) (any, error) {
			return gl.CreateVertexArray(), nil
		})),
		def("glBindVertexArray", e.glDo(func(gl graphics.GL, c *Call) {
			gl.BindVertexArray(u32(c, 0))
		}), P("array", KindInt)),
		def("glEnableVertexAttribArray", e.glDo(func(gl graphics.GL, c *Call) {
			gl.EnableVertexAttribArray(u32(c, 0))
		}), P("index", KindInt)),
		def("glVertexAttribPointer", e.glFunc(e.vertexAttribPointer),
			P("index", KindInt), P("size", KindInt), P("type", KindInt),
			P("normalized", KindInt), P("stride", KindInt), P("offset", KindInt)),
		def("glDrawArrays", e.glDo(func(gl graphics.GL, c *Call) {
			gl.DrawArrays(u32(c, 0), i32(c, 1), i32(c, 2))
		}), P("mode", KindInt), P("first", KindInt), P("count", KindInt)),

		// テクスチャ
		def("loadTexture", e.glFunc(e.loadTexture), P("path", KindText)),
		def("glBindTexture", e.glDo(func(gl graphics.GL, c *Call) {
			gl.BindTexture(u32(c, 0), u32(c, 1))
		}), P("target", KindInt), P("texture", KindInt)),
	}
}

// gladLoadGL returns 1 once GL entry points are available.
func (e *Env) gladLoadGL(*Call) (any, error) {
	if err := e.Backend.LoadGL(); err != nil {
		e.Log.Error("Failed to load OpenGL", "error", err)
		return false, nil
	}
	e.glLoaded = true
	return true, nil
}

func (e *Env) compileShader(gl graphics.GL, c *Call) {
	shader := u32(c, 0)
	gl.CompileShader(shader)
	if !gl.ShaderCompiled(shader) {
		e.Log.Warn("Shader compilation failed", "shader", shader, "log", gl.ShaderInfoLog(shader))
	}
}

func (e *Env) linkProgram(gl graphics.GL, c *Call) {
	program := u32(c, 0)
	gl.LinkProgram(program)
	if log := gl.ProgramInfoLog(program); log != "" {
		e.Log.Warn("Program link reported problems", "program", program, "log", log)
	}
}

// namedBufferData uploads the first size bytes of a float snapshot. NULL
// data allocates size bytes without uploading anything.
func (e *Env) namedBufferData(gl graphics.GL, c *Call) (any, error) {
	size := c.Int(1)
	if c.IsNull(2) {
		if size < 0 {
			return nil, fmt.Errorf("glNamedBufferData: negative size %d", size)
		}
		gl.BufferData(u32(c, 0), size, nil, u32(c, 3))
		return nil, nil
	}
	data, err := e.Session.Floats().ResolveBytes(c.Handle(2), size)
	if err != nil {
		return nil, fmt.Errorf("glNamedBufferData: %w", err)
	}
	gl.BufferData(u32(c, 0), size, data, u32(c, 3))
	return nil, nil
}

func (e *Env) vertexAttribPointer(gl graphics.GL, c *Call) (any, error) {
	if c.Int(5) < 0 || c.Int(4) < 0 {
		return nil, fmt.Errorf("glVertexAttribPointer: negative stride %d or offset %d", c.Int(4), c.Int(5))
	}
	gl.VertexAttribPointer(u32(c, 0), i32(c, 1), u32(c, 2), c.Int(3) != 0, i32(c, 4), c.Int(5))
	return nil, nil
}

// loadTexture decodes an image file into a new 2D texture and returns its
// name, or 0 if the file cannot be read.
func (e *Env) loadTexture(gl graphics.GL, c *Call) (any, error) {
	path, err := e.FS.Resolve(c.Text(0))
	if err != nil {
		e.Log.Warn("Texture file not found", "path", c.Text(0))
		return int64(0), nil
	}
	img, err := graphics.LoadImage(path)
	if err != nil {
		e.Log.Warn("Failed to load texture", "path", path, "error", err)
		return int64(0), nil
	}
	texture := gl.CreateTexture(img)
	e.Log.Debug("Texture loaded", "path", path, "texture", texture,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return texture, nil
}
