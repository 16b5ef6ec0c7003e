// Package audio plays WAV files and SoundFont-rendered MIDI files for
// scripts. Everything is created on first use, so a script that never
// plays a sound never opens an audio device.
package audio

import (
	"log/slog"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

// System owns the shared audio context and both players.
type System struct {
	soundFontPath string
	muted         bool
	log           *slog.Logger

	audioCtx   *audio.Context
	wavPlayer  *WAVPlayer
	midiPlayer *MIDIPlayer

	mu sync.Mutex
}

// Option configures a System.
type Option func(*System)

// WithSoundFont sets the SF2 file used for MIDI synthesis.
func WithSoundFont(path string) Option {
	return func(s *System) {
		s.soundFontPath = path
	}
}

// WithMuted starts the system muted, as in headless mode.
func WithMuted(muted bool) Option {
	return func(s *System) {
		s.muted = muted
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *System) {
		s.log = log
	}
}

// WithContext uses an existing audio context instead of creating one.
func WithContext(ctx *audio.Context) Option {
	return func(s *System) {
		s.audioCtx = ctx
	}
}

// NewSystem creates an idle audio system.
func NewSystem(opts ...Option) *System {
	s := &System{log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// context must be called with s.mu held.
func (s *System) context() *audio.Context {
	if s.audioCtx == nil {
		// Ebitengine はプロセスにつき1つのコンテキストしか作れない
		if ctx := audio.CurrentContext(); ctx != nil {
			s.audioCtx = ctx
		} else {
			s.audioCtx = audio.NewContext(SampleRate)
		}
	}
	return s.audioCtx
}

// PlayWAVE starts a WAV file; several can play at once.
func (s *System) PlayWAVE(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wavPlayer == nil {
		s.wavPlayer = NewWAVPlayer(s.context())
		s.wavPlayer.SetMuted(s.muted)
	}
	if err := s.wavPlayer.Play(path); err != nil {
		return err
	}
	s.log.Debug("WAV playback started", "path", path, "muted", s.muted)
	return nil
}

// PlayMIDI replaces the current MIDI file with path. The SoundFont is
// loaded on the first call.
func (s *System) PlayMIDI(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.midiPlayer == nil {
		if s.soundFontPath == "" {
			return ErrNoSoundFont
		}
		soundFont, err := LoadSoundFont(s.soundFontPath)
		if err != nil {
			return err
		}
		player, err := NewMIDIPlayer(soundFont, s.context())
		if err != nil {
			return err
		}
		player.SetMuted(s.muted)
		s.midiPlayer = player
		s.log.Debug("SoundFont loaded", "path", s.soundFontPath)
	}
	if err := s.midiPlayer.Play(path); err != nil {
		return err
	}
	s.log.Debug("MIDI playback started", "path", path, "muted", s.muted)
	return nil
}

// StopAll stops MIDI and every WAV.
func (s *System) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.midiPlayer != nil {
		s.midiPlayer.Stop()
	}
	if s.wavPlayer != nil {
		s.wavPlayer.StopAll()
	}
}

// SetMuted mutes or unmutes all output.
func (s *System) SetMuted(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.muted = muted
	if s.midiPlayer != nil {
		s.midiPlayer.SetMuted(muted)
	}
	if s.wavPlayer != nil {
		s.wavPlayer.SetMuted(muted)
	}
}

// IsMuted returns whether the audio system is muted.
func (s *System) IsMuted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// Close stops all playback.
func (s *System) Close() {
	s.StopAll()
}
