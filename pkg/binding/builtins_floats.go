package binding

func (e *Env) floatBuiltins() []Builtin {
	return []Builtin{
		defRest("pushFloats", P("values", KindFloat), e.pushFloats),
		def("clearFloats", e.clearFloats),
		def("getFloats", e.getFloats),
		def("floatCount", e.floatCount),
	}
}

func (e *Env) pushFloats(c *Call) (any, error) {
	rest := c.Rest()
	values := make([]float32, len(rest))
	for i, v := range rest {
		values[i] = float32(v.(float64))
	}
	e.Session.Floats().Push(values...)
	return nil, nil
}

func (e *Env) clearFloats(*Call) (any, error) {
	e.Session.Floats().Clear()
	return nil, nil
}

// getFloats returns a handle to a snapshot of the buffer's current contents.
func (e *Env) getFloats(*Call) (any, error) {
	return int64(e.Session.Floats().Snapshot()), nil
}

func (e *Env) floatCount(*Call) (any, error) {
	return e.Session.Floats().Len(), nil
}
