package binding

// Audio failures never stop the script: the call logs a warning and
// returns 0.
func (e *Env) audioBuiltins() []Builtin {
	return []Builtin{
		def("playWave", e.playWave, P("path", KindText)),
		def("playMidi", e.playMidi, P("path", KindText)),
		def("stopAudio", e.stopAudio),
	}
}

func (e *Env) playWave(c *Call) (any, error) {
	return e.play(c, "WAV", e.Audio.PlayWAVE), nil
}

func (e *Env) playMidi(c *Call) (any, error) {
	return e.play(c, "MIDI", e.Audio.PlayMIDI), nil
}

func (e *Env) play(c *Call, kind string, play func(string) error) bool {
	path, err := e.FS.Resolve(c.Text(0))
	if err != nil {
		e.Log.Warn(kind+" file not found", "path", c.Text(0))
		return false
	}
	if err := play(path); err != nil {
		e.Log.Warn("Failed to play "+kind, "path", path, "error", err)
		return false
	}
	return true
}

func (e *Env) stopAudio(*Call) (any, error) {
	e.Audio.StopAll()
	return nil, nil
}
