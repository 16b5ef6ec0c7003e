package ui

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/inkyblackness/imgui-go/v4"
)

const (
	vertexShaderSource = `#version 150
uniform mat4 ProjMtx;
in vec2 Position;
in vec2 UV;
in vec4 Color;
out vec2 Frag_UV;
out vec4 Frag_Color;
void main()
{
	Frag_UV = UV;
	Frag_Color = Color;
	gl_Position = ProjMtx * vec4(Position.xy, 0, 1);
}
`
	fragmentShaderSource = `#version 150
uniform sampler2D Texture;
in vec2 Frag_UV;
in vec4 Frag_Color;
out vec4 Out_Color;
void main()
{
	Out_Color = vec4(Frag_Color.rgb, Frag_Color.a * texture(Texture, Frag_UV.st).r);
}
`
)

// OpenGL3 draws ImGui output with the programmable pipeline.
type OpenGL3 struct {
	fontTexture    uint32
	program        uint32
	vertHandle     uint32
	fragHandle     uint32
	locTex         int32
	locProjMtx     int32
	locPosition    uint32
	locUV          uint32
	locColor       uint32
	vboHandle      uint32
	elementsHandle uint32
}

// NewOpenGL3 creates the renderer. A GL context must be current and its
// entry points loaded.
func NewOpenGL3(io imgui.IO) (Renderer, error) {
	r := &OpenGL3{}
	if err := r.createDeviceObjects(io); err != nil {
		r.Dispose()
		return nil, err
	}
	return r, nil
}

func compileShader(kind uint32, source string) (uint32, error) {
	shader := gl.CreateShader(kind)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		msg := make([]byte, logLength+1)
		gl.GetShaderInfoLog(shader, logLength, nil, &msg[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile ui shader: %s", msg)
	}
	return shader, nil
}

func (r *OpenGL3) createDeviceObjects(io imgui.IO) error {
	var err error
	if r.vertHandle, err = compileShader(gl.VERTEX_SHADER, vertexShaderSource); err != nil {
		return err
	}
	if r.fragHandle, err = compileShader(gl.FRAGMENT_SHADER, fragmentShaderSource); err != nil {
		return err
	}

	r.program = gl.CreateProgram()
	gl.AttachShader(r.program, r.vertHandle)
	gl.AttachShader(r.program, r.fragHandle)
	gl.LinkProgram(r.program)

	var status int32
	gl.GetProgramiv(r.program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		return fmt.Errorf("link ui program")
	}

	r.locTex = gl.GetUniformLocation(r.program, gl.Str("Texture\x00"))
	r.locProjMtx = gl.GetUniformLocation(r.program, gl.Str("ProjMtx\x00"))
	r.locPosition = uint32(gl.GetAttribLocation(r.program, gl.Str("Position\x00")))
	r.locUV = uint32(gl.GetAttribLocation(r.program, gl.Str("UV\x00")))
	r.locColor = uint32(gl.GetAttribLocation(r.program, gl.Str("Color\x00")))

	gl.GenBuffers(1, &r.vboHandle)
	gl.GenBuffers(1, &r.elementsHandle)

	r.createFontsTexture(io)
	return nil
}

func (r *OpenGL3) createFontsTexture(io imgui.IO) {
	fonts := io.Fonts()
	image := fonts.TextureDataAlpha8()

	var lastTexture int32
	gl.GetIntegerv(gl.TEXTURE_BINDING_2D, &lastTexture)
	gl.GenTextures(1, &r.fontTexture)
	gl.BindTexture(gl.TEXTURE_2D, r.fontTexture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RED, int32(image.Width), int32(image.Height),
		0, gl.RED, gl.UNSIGNED_BYTE, image.Pixels)

	fonts.SetTextureID(imgui.TextureID(r.fontTexture))
	gl.BindTexture(gl.TEXTURE_2D, uint32(lastTexture))
}

// Render draws drawData. The script's GL state (program, buffers, blend,
// scissor, viewport) is restored afterwards.
func (r *OpenGL3) Render(displaySize, framebufferSize [2]float32, drawData imgui.DrawData) {
	displayWidth, displayHeight := displaySize[0], displaySize[1]
	fbWidth, fbHeight := framebufferSize[0], framebufferSize[1]
	if fbWidth <= 0 || fbHeight <= 0 || !drawData.Valid() {
		return
	}
	drawData.ScaleClipRects(imgui.Vec2{
		X: fbWidth / displayWidth,
		Y: fbHeight / displayHeight,
	})

	var lastActiveTexture int32
	gl.GetIntegerv(gl.ACTIVE_TEXTURE, &lastActiveTexture)
	gl.ActiveTexture(gl.TEXTURE0)
	var lastProgram, lastTexture, lastArrayBuffer, lastElementArrayBuffer, lastVertexArray int32
	gl.GetIntegerv(gl.CURRENT_PROGRAM, &lastProgram)
	gl.GetIntegerv(gl.TEXTURE_BINDING_2D, &lastTexture)
	gl.GetIntegerv(gl.ARRAY_BUFFER_BINDING, &lastArrayBuffer)
	gl.GetIntegerv(gl.ELEMENT_ARRAY_BUFFER_BINDING, &lastElementArrayBuffer)
	gl.GetIntegerv(gl.VERTEX_ARRAY_BINDING, &lastVertexArray)
	var lastViewport, lastScissorBox [4]int32
	gl.GetIntegerv(gl.VIEWPORT, &lastViewport[0])
	gl.GetIntegerv(gl.SCISSOR_BOX, &lastScissorBox[0])
	lastEnableBlend := gl.IsEnabled(gl.BLEND)
	lastEnableCullFace := gl.IsEnabled(gl.CULL_FACE)
	lastEnableDepthTest := gl.IsEnabled(gl.DEPTH_TEST)
	lastEnableScissorTest := gl.IsEnabled(gl.SCISSOR_TEST)

	gl.Enable(gl.BLEND)
	gl.BlendEquation(gl.FUNC_ADD)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Disable(gl.CULL_FACE)
	gl.Disable(gl.DEPTH_TEST)
	gl.Enable(gl.SCISSOR_TEST)

	gl.Viewport(0, 0, int32(fbWidth), int32(fbHeight))
	orthoProjection := [4][4]float32{
		{2.0 / displayWidth, 0.0, 0.0, 0.0},
		{0.0, 2.0 / -displayHeight, 0.0, 0.0},
		{0.0, 0.0, -1.0, 0.0},
		{-1.0, 1.0, 0.0, 1.0},
	}
	gl.UseProgram(r.program)
	gl.Uniform1i(r.locTex, 0)
	gl.UniformMatrix4fv(r.locProjMtx, 1, false, &orthoProjection[0][0])
	gl.BindSampler(0, 0)

	var vaoHandle uint32
	gl.GenVertexArrays(1, &vaoHandle)
	gl.BindVertexArray(vaoHandle)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vboHandle)
	gl.EnableVertexAttribArray(r.locPosition)
	gl.EnableVertexAttribArray(r.locUV)
	gl.EnableVertexAttribArray(r.locColor)
	vertexSize, vertexOffsetPos, vertexOffsetUv, vertexOffsetCol := imgui.VertexBufferLayout()
	gl.VertexAttribPointerWithOffset(r.locPosition, 2, gl.FLOAT, false, int32(vertexSize), uintptr(vertexOffsetPos))
	gl.VertexAttribPointerWithOffset(r.locUV, 2, gl.FLOAT, false, int32(vertexSize), uintptr(vertexOffsetUv))
	gl.VertexAttribPointerWithOffset(r.locColor, 4, gl.UNSIGNED_BYTE, true, int32(vertexSize), uintptr(vertexOffsetCol))
	indexSize := imgui.IndexBufferLayout()
	drawType := uint32(gl.UNSIGNED_SHORT)
	if indexSize == 4 {
		drawType = gl.UNSIGNED_INT
	}

	for _, list := range drawData.CommandLists() {
		var indexBufferOffset uintptr

		vertexBuffer, vertexBufferSize := list.VertexBuffer()
		gl.BindBuffer(gl.ARRAY_BUFFER, r.vboHandle)
		gl.BufferData(gl.ARRAY_BUFFER, vertexBufferSize, vertexBuffer, gl.STREAM_DRAW)

		indexBuffer, indexBufferSize := list.IndexBuffer()
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.elementsHandle)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, indexBufferSize, indexBuffer, gl.STREAM_DRAW)

		for _, cmd := range list.Commands() {
			if cmd.HasUserCallback() {
				cmd.CallUserCallback(list)
			} else {
				gl.BindTexture(gl.TEXTURE_2D, uint32(cmd.TextureID()))
				clipRect := cmd.ClipRect()
				gl.Scissor(int32(clipRect.X), int32(fbHeight)-int32(clipRect.W),
					int32(clipRect.Z-clipRect.X), int32(clipRect.W-clipRect.Y))
				gl.DrawElementsWithOffset(gl.TRIANGLES, int32(cmd.ElementCount()), drawType, indexBufferOffset)
			}
			indexBufferOffset += uintptr(cmd.ElementCount() * indexSize)
		}
	}
	gl.DeleteVertexArrays(1, &vaoHandle)

	gl.UseProgram(uint32(lastProgram))
	gl.BindTexture(gl.TEXTURE_2D, uint32(lastTexture))
	gl.ActiveTexture(uint32(lastActiveTexture))
	gl.BindVertexArray(uint32(lastVertexArray))
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(lastArrayBuffer))
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, uint32(lastElementArrayBuffer))
	restore := func(capability uint32, enabled bool) {
		if enabled {
			gl.Enable(capability)
		} else {
			gl.Disable(capability)
		}
	}
	restore(gl.BLEND, lastEnableBlend)
	restore(gl.CULL_FACE, lastEnableCullFace)
	restore(gl.DEPTH_TEST, lastEnableDepthTest)
	restore(gl.SCISSOR_TEST, lastEnableScissorTest)
	gl.Viewport(lastViewport[0], lastViewport[1], lastViewport[2], lastViewport[3])
	gl.Scissor(lastScissorBox[0], lastScissorBox[1], lastScissorBox[2], lastScissorBox[3])
}

// Dispose deletes the GL objects.
func (r *OpenGL3) Dispose() {
	if r.vboHandle != 0 {
		gl.DeleteBuffers(1, &r.vboHandle)
	}
	if r.elementsHandle != 0 {
		gl.DeleteBuffers(1, &r.elementsHandle)
	}
	r.vboHandle, r.elementsHandle = 0, 0

	if r.program != 0 {
		for _, shader := range []uint32{r.vertHandle, r.fragHandle} {
			if shader != 0 {
				gl.DetachShader(r.program, shader)
			}
		}
	}
	for _, shader := range []uint32{r.vertHandle, r.fragHandle} {
		if shader != 0 {
			gl.DeleteShader(shader)
		}
	}
	r.vertHandle, r.fragHandle = 0, 0

	if r.program != 0 {
		gl.DeleteProgram(r.program)
		r.program = 0
	}
	if r.fontTexture != 0 {
		gl.DeleteTextures(1, &r.fontTexture)
		imgui.CurrentIO().Fonts().SetTextureID(0)
		r.fontTexture = 0
	}
}
