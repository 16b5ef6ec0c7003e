package graphics

// GLFW key and action values.
const (
	KeyRelease = 0
	KeyPress   = 1

	KeySpace  = 32
	KeyEscape = 256
	KeyEnter  = 257
	KeyRight  = 262
	KeyLeft   = 263
	KeyDown   = 264
	KeyUp     = 265
)

// OpenGL enum values.
const (
	GLFalse = 0
	GLTrue  = 1

	GLPoints        = 0x0000
	GLLines         = 0x0001
	GLLineStrip     = 0x0003
	GLTriangles     = 0x0004
	GLTriangleStrip = 0x0005

	GLDepthBufferBit = 0x00000100
	GLColorBufferBit = 0x00004000

	GLTexture2D = 0x0DE1
	GLFloat     = 0x1406

	GLArrayBuffer        = 0x8892
	GLElementArrayBuffer = 0x8893
	GLStreamDraw         = 0x88E0
	GLStaticDraw         = 0x88E4
	GLDynamicDraw        = 0x88E8

	GLFragmentShader = 0x8B30
	GLVertexShader   = 0x8B31
)

// Constant is a named integer exposed to scripts.
type Constant struct {
	Name  string
	Value int64
}

// Constants lists every enum value scripts can reference, in registration
// order.
var Constants = []Constant{
	{"GLFW_PRESS", KeyPress},
	{"GLFW_RELEASE", KeyRelease},
	{"GLFW_KEY_ESCAPE", KeyEscape},
	{"GLFW_KEY_SPACE", KeySpace},
	{"GLFW_KEY_ENTER", KeyEnter},
	{"GLFW_KEY_RIGHT", KeyRight},
	{"GLFW_KEY_LEFT", KeyLeft},
	{"GLFW_KEY_DOWN", KeyDown},
	{"GLFW_KEY_UP", KeyUp},

	{"GL_COLOR_BUFFER_BIT", GLColorBufferBit},
	{"GL_DEPTH_BUFFER_BIT", GLDepthBufferBit},
	{"GL_VERTEX_SHADER", GLVertexShader},
	{"GL_FRAGMENT_SHADER", GLFragmentShader},
	{"GL_ARRAY_BUFFER", GLArrayBuffer},
	{"GL_ELEMENT_ARRAY_BUFFER", GLElementArrayBuffer},
	{"GL_STREAM_DRAW", GLStreamDraw},
	{"GL_STATIC_DRAW", GLStaticDraw},
	{"GL_DYNAMIC_DRAW", GLDynamicDraw},
	{"GL_FLOAT", GLFloat},
	{"GL_TRIANGLES", GLTriangles},
	{"GL_TRIANGLE_STRIP", GLTriangleStrip},
	{"GL_LINES", GLLines},
	{"GL_LINE_STRIP", GLLineStrip},
	{"GL_POINTS", GLPoints},
	{"GL_TEXTURE_2D", GLTexture2D},
	{"GL_FALSE", GLFalse},
	{"GL_TRUE", GLTrue},
}
