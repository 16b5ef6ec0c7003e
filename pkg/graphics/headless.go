package graphics

import (
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"
)

// OperationRecord は記録された操作を表す
type OperationRecord struct {
	Operation string
	Args      map[string]any
}

// Headless はウィンドウもGLコンテキストも持たないバックエンド
// 操作をログに記録し、GLオブジェクト名だけを払い出す
type Headless struct {
	initialized bool
	glLoaded    bool
	start       time.Time

	nextName uint32
	shaders  map[uint32]*headlessShader
	buffers  map[uint32][]float32
	textures map[uint32]image.Rectangle
	windows  []*HeadlessWindow

	log              *slog.Logger
	logOperations    bool
	recordHistory    bool
	operationHistory []OperationRecord
	historyMu        sync.RWMutex
}

type headlessShader struct {
	kind     uint32
	source   string
	compiled bool
}

// HeadlessOption は Headless のオプションを設定する関数型
type HeadlessOption func(*Headless)

// WithHeadlessLogger はロガーを設定する
func WithHeadlessLogger(log *slog.Logger) HeadlessOption {
	return func(h *Headless) {
		h.log = log
	}
}

// WithLogOperations は操作のログ記録を有効/無効にする
func WithLogOperations(enabled bool) HeadlessOption {
	return func(h *Headless) {
		h.logOperations = enabled
	}
}

// WithRecordHistory は操作履歴の記録を有効/無効にする
func WithRecordHistory(enabled bool) HeadlessOption {
	return func(h *Headless) {
		h.recordHistory = enabled
	}
}

// NewHeadless は新しいヘッドレスバックエンドを作成する
func NewHeadless(opts ...HeadlessOption) *Headless {
	h := &Headless{
		shaders:       make(map[uint32]*headlessShader),
		buffers:       make(map[uint32][]float32),
		textures:      make(map[uint32]image.Rectangle),
		log:           slog.Default(),
		logOperations: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Headless) logOperation(operation string, args ...any) {
	if h.logOperations {
		h.log.Debug(fmt.Sprintf("[Headless] %s", operation), args...)
	}

	if h.recordHistory {
		record := OperationRecord{
			Operation: operation,
			Args:      make(map[string]any),
		}
		for i := 0; i < len(args)-1; i += 2 {
			if key, ok := args[i].(string); ok {
				record.Args[key] = args[i+1]
			}
		}
		h.historyMu.Lock()
		h.operationHistory = append(h.operationHistory, record)
		h.historyMu.Unlock()
	}
}

// GetOperationHistory は操作履歴を返す
func (h *Headless) GetOperationHistory() []OperationRecord {
	h.historyMu.RLock()
	defer h.historyMu.RUnlock()
	result := make([]OperationRecord, len(h.operationHistory))
	copy(result, h.operationHistory)
	return result
}

// ClearOperationHistory は操作履歴をクリアする
func (h *Headless) ClearOperationHistory() {
	h.historyMu.Lock()
	h.operationHistory = h.operationHistory[:0]
	h.historyMu.Unlock()
}

// Operations は記録された操作名だけを順に返す
func (h *Headless) Operations() []string {
	history := h.GetOperationHistory()
	names := make([]string, len(history))
	for i, r := range history {
		names[i] = r.Operation
	}
	return names
}

// Buffer はアップロードされたバッファの内容を返す（テスト用）
func (h *Headless) Buffer(buffer uint32) ([]float32, bool) {
	data, ok := h.buffers[buffer]
	return data, ok
}

// GLLoaded は LoadGL が呼ばれたかどうかを返す
func (h *Headless) GLLoaded() bool {
	return h.glLoaded
}

func (h *Headless) newName() uint32 {
	h.nextName++
	return h.nextName
}

// Init はウィンドウシステムを初期化する
func (h *Headless) Init() error {
	h.initialized = true
	h.start = time.Now()
	h.logOperation("Init")
	return nil
}

// Terminate は残っているウィンドウを破棄する
func (h *Headless) Terminate() {
	for _, w := range h.windows {
		w.destroyed = true
	}
	h.windows = nil
	h.initialized = false
	h.logOperation("Terminate")
}

// CreateWindow は仮想ウィンドウを作成する
func (h *Headless) CreateWindow(width, height int, title string) (Window, error) {
	if !h.initialized {
		return nil, ErrNotInitialized
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid window size %dx%d", width, height)
	}
	w := &HeadlessWindow{
		owner:  h,
		Title:  title,
		width:  width,
		height: height,
		keys:   make(map[int]int),
	}
	h.windows = append(h.windows, w)
	h.logOperation("CreateWindow", "width", width, "height", height, "title", title)
	return w, nil
}

// PollEvents はイベント処理の代わりに記録だけ行う
func (h *Headless) PollEvents() {
	h.logOperation("PollEvents")
}

// Time は Init からの経過秒数を返す
func (h *Headless) Time() float64 {
	if !h.initialized {
		return 0
	}
	return time.Since(h.start).Seconds()
}

// LoadGL はGLの読み込みを記録する
func (h *Headless) LoadGL() error {
	h.glLoaded = true
	h.logOperation("LoadGL")
	return nil
}

func (h *Headless) ClearColor(r, g, b, a float32) {
	h.logOperation("ClearColor", "r", r, "g", g, "b", b, "a", a)
}

func (h *Headless) Clear(mask uint32) {
	h.logOperation("Clear", "mask", mask)
}

func (h *Headless) Viewport(x, y, width, height int32) {
	h.logOperation("Viewport", "x", x, "y", y, "width", width, "height", height)
}

func (h *Headless) CreateShader(kind uint32) uint32 {
	if kind != GLVertexShader && kind != GLFragmentShader {
		h.logOperation("CreateShader", "kind", kind, "name", uint32(0))
		return 0
	}
	name := h.newName()
	h.shaders[name] = &headlessShader{kind: kind}
	h.logOperation("CreateShader", "kind", kind, "name", name)
	return name
}

func (h *Headless) ShaderSource(shader uint32, source string) {
	if s, ok := h.shaders[shader]; ok {
		s.source = source
	}
	h.logOperation("ShaderSource", "shader", shader, "length", len(source))
}

// CompileShader は空でないソースを持つシェーダーをコンパイル済みとみなす
func (h *Headless) CompileShader(shader uint32) {
	if s, ok := h.shaders[shader]; ok {
		s.compiled = s.source != ""
	}
	h.logOperation("CompileShader", "shader", shader)
}

func (h *Headless) ShaderCompiled(shader uint32) bool {
	s, ok := h.shaders[shader]
	return ok && s.compiled
}

func (h *Headless) ShaderInfoLog(shader uint32) string {
	s, ok := h.shaders[shader]
	switch {
	case !ok:
		return "invalid shader"
	case !s.compiled && s.source == "":
		return "empty shader source"
	}
	return ""
}

func (h *Headless) DeleteShader(shader uint32) {
	delete(h.shaders, shader)
	h.logOperation("DeleteShader", "shader", shader)
}

func (h *Headless) CreateProgram() uint32 {
	name := h.newName()
	h.logOperation("CreateProgram", "name", name)
	return name
}

func (h *Headless) AttachShader(program, shader uint32) {
	h.logOperation("AttachShader", "program", program, "shader", shader)
}

func (h *Headless) LinkProgram(program uint32) {
	h.logOperation("LinkProgram", "program", program)
}

func (h *Headless) ProgramInfoLog(program uint32) string {
	return ""
}

func (h *Headless) UseProgram(program uint32) {
	h.logOperation("UseProgram", "program", program)
}

func (h *Headless) UniformLocation(program uint32, name string) int32 {
	h.logOperation("UniformLocation", "program", program, "name", name)
	return -1
}

func (h *Headless) Uniform1f(location int32, v float32) {
	h.logOperation("Uniform1f", "location", location, "v", v)
}

func (h *Headless) Uniform4f(location int32, v0, v1, v2, v3 float32) {
	h.logOperation("Uniform4f", "location", location, "v0", v0, "v1", v1, "v2", v2, "v3", v3)
}

func (h *Headless) CreateBuffer() uint32 {
	name := h.newName()
	h.logOperation("CreateBuffer", "name", name)
	return name
}

func (h *Headless) BindBuffer(target, buffer uint32) {
	h.logOperation("BindBuffer", "target", target, "buffer", buffer)
}

func (h *Headless) BufferData(buffer uint32, size int, data []float32, usage uint32) {
	if data == nil {
		// 確保のみ（内容は未定義なのでゼロで埋める）
		h.buffers[buffer] = make([]float32, size/4)
	} else {
		h.buffers[buffer] = append([]float32(nil), data...)
	}
	h.logOperation("BufferData", "buffer", buffer, "size", size, "usage", usage)
}

func (h *Headless) CreateVertexArray() uint32 {
	name := h.newName()
	h.logOperation("CreateVertexArray", "name", name)
	return name
}

func (h *Headless) BindVertexArray(vao uint32) {
	h.logOperation("BindVertexArray", "vao", vao)
}

func (h *Headless) EnableVertexAttribArray(index uint32) {
	h.logOperation("EnableVertexAttribArray", "index", index)
}

func (h *Headless) VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset int) {
	h.logOperation("VertexAttribPointer",
		"index", index, "size", size, "type", xtype,
		"normalized", normalized, "stride", stride, "offset", offset)
}

func (h *Headless) DrawArrays(mode uint32, first, count int32) {
	h.logOperation("DrawArrays", "mode", mode, "first", first, "count", count)
}

func (h *Headless) CreateTexture(img *image.RGBA) uint32 {
	name := h.newName()
	h.textures[name] = img.Bounds()
	h.logOperation("CreateTexture", "name", name, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return name
}

func (h *Headless) BindTexture(target, texture uint32) {
	h.logOperation("BindTexture", "target", target, "texture", texture)
}

// HeadlessWindow はヘッドレスモード用のウィンドウ
type HeadlessWindow struct {
	owner       *Headless
	Title       string
	width       int
	height      int
	shouldClose bool
	destroyed   bool
	keys        map[int]int
	buttons     [8]bool
	cursorX     float64
	cursorY     float64
	swaps       int
}

func (w *HeadlessWindow) MakeContextCurrent() {
	w.owner.logOperation("MakeContextCurrent", "title", w.Title)
}

func (w *HeadlessWindow) SwapBuffers() {
	w.swaps++
	w.owner.logOperation("SwapBuffers", "title", w.Title)
}

func (w *HeadlessWindow) ShouldClose() bool {
	return w.shouldClose
}

func (w *HeadlessWindow) SetShouldClose(value bool) {
	w.shouldClose = value
}

func (w *HeadlessWindow) Key(key int) int {
	return w.keys[key]
}

// SetKey はキー入力を模擬する
func (w *HeadlessWindow) SetKey(key, action int) {
	w.keys[key] = action
}

// SetCursor はマウス状態を模擬する
func (w *HeadlessWindow) SetCursor(x, y float64, buttons ...int) {
	w.cursorX, w.cursorY = x, y
	w.buttons = [8]bool{}
	for _, b := range buttons {
		if b >= 0 && b < len(w.buttons) {
			w.buttons[b] = true
		}
	}
}

func (w *HeadlessWindow) Size() (int, int) {
	return w.width, w.height
}

func (w *HeadlessWindow) FramebufferSize() (int, int) {
	return w.width, w.height
}

func (w *HeadlessWindow) CursorPos() (float64, float64) {
	return w.cursorX, w.cursorY
}

func (w *HeadlessWindow) MouseButton(button int) bool {
	return button >= 0 && button < len(w.buttons) && w.buttons[button]
}

func (w *HeadlessWindow) Destroy() {
	if w.destroyed {
		return
	}
	w.destroyed = true
	for i, other := range w.owner.windows {
		if other == w {
			w.owner.windows = append(w.owner.windows[:i], w.owner.windows[i+1:]...)
			break
		}
	}
	w.owner.logOperation("DestroyWindow", "title", w.Title)
}

// Destroyed は破棄済みかどうかを返す
func (w *HeadlessWindow) Destroyed() bool {
	return w.destroyed
}

// Swaps は SwapBuffers の呼び出し回数を返す
func (w *HeadlessWindow) Swaps() int {
	return w.swaps
}
