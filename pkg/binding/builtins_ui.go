package binding

import (
	"fmt"
)

func (e *Env) uiBuiltins() []Builtin {
	return []Builtin{
		def("uiNewFrame", e.uiNewFrame, P("window", KindHandle)),
		def("uiRender", e.uiRender, P("window", KindHandle)),
		def("uiBegin", e.uiBegin, P("name", KindText)),
		def("uiEnd", e.uiEnd),
		defRest("uiText", P("values", KindAny), e.uiText),
		def("uiButton", e.uiButton, P("label", KindText)),
		def("uiCheckbox", e.uiCheckbox, P("label", KindText), Opt("default", KindInt, 0)),
		def("uiSliderFloat", e.uiSliderFloat,
			P("label", KindText), P("min", KindFloat), P("max", KindFloat), Opt("default", KindFloat, nil)),
		def("uiSeparator", e.uiSeparator),
		def("uiSameLine", e.uiSameLine),
	}
}

func uiError(c *Call, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", c.Name(), err)
}

func (e *Env) uiNewFrame(c *Call) (any, error) {
	w, err := e.window(c, 0)
	if err != nil {
		return nil, uiError(c, err)
	}
	return nil, uiError(c, e.UI.NewFrame(w))
}

func (e *Env) uiRender(c *Call) (any, error) {
	w, err := e.window(c, 0)
	if err != nil {
		return nil, uiError(c, err)
	}
	return nil, uiError(c, e.UI.Render(w))
}

// uiBegin returns 1 while the window is expanded.
func (e *Env) uiBegin(c *Call) (any, error) {
	open, err := e.UI.Begin(c.Text(0))
	return open, uiError(c, err)
}

func (e *Env) uiEnd(c *Call) (any, error) {
	return nil, uiError(c, e.UI.End())
}

func (e *Env) uiText(c *Call) (any, error) {
	return nil, uiError(c, e.UI.Text(joinText(c.Rest())))
}

// uiButton returns 1 on the frame the button was clicked.
func (e *Env) uiButton(c *Call) (any, error) {
	clicked, err := e.UI.Button(c.Text(0))
	return clicked, uiError(c, err)
}

// uiCheckbox returns the checkbox state, which persists per label for the
// whole run.
func (e *Env) uiCheckbox(c *Call) (any, error) {
	value := e.Session.Checkbox(c.Text(0), c.Int(1) != 0)
	checked, err := e.UI.Checkbox(c.Text(0), value)
	return checked, uiError(c, err)
}

// uiSliderFloat returns the slider value, which persists per label. The
// first value is default, or min when omitted.
func (e *Env) uiSliderFloat(c *Call) (any, error) {
	min, max := c.Float32(1), c.Float32(2)
	if min > max {
		return nil, fmt.Errorf("uiSliderFloat: min %v is greater than max %v", min, max)
	}
	initial := min
	if c.Value(3) != nil {
		initial = c.Float32(3)
	}
	value := e.Session.Slider(c.Text(0), initial)
	v, err := e.UI.SliderFloat(c.Text(0), value, min, max)
	return v, uiError(c, err)
}

func (e *Env) uiSeparator(c *Call) (any, error) {
	return nil, uiError(c, e.UI.Separator())
}

func (e *Env) uiSameLine(c *Call) (any, error) {
	return nil, uiError(c, e.UI.SameLine())
}
