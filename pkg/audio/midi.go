package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/sinshu/go-meltysynth/meltysynth"
)

// SampleRate is the output sample rate shared by WAV and MIDI playback.
const SampleRate = 44100

var (
	// ErrNoSoundFont is returned by MIDI playback when no SoundFont is configured.
	ErrNoSoundFont = errors.New("SoundFont file is required for MIDI playback")

	// ErrMIDIFileNotFound is returned when the MIDI file cannot be found.
	ErrMIDIFileNotFound = errors.New("MIDI file not found")

	// ErrMIDIInvalidFormat is returned when the MIDI file has an invalid format.
	ErrMIDIInvalidFormat = errors.New("invalid MIDI file format")
)

// MIDIStream renders the sequencer into 16-bit interleaved stereo for the
// audio player.
type MIDIStream struct {
	sequencer   *meltysynth.MidiFileSequencer
	left, right []float32
	sampleCount int64
	stopped     bool
	mu          sync.Mutex
}

// NewMIDIStream wraps a sequencer that is already playing.
func NewMIDIStream(sequencer *meltysynth.MidiFileSequencer) *MIDIStream {
	return &MIDIStream{sequencer: sequencer}
}

// Read implements io.Reader. A stopped stream yields silence.
func (s *MIDIStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.sequencer == nil {
		clear(p)
		return len(p), nil
	}

	samples := len(p) / 4
	if samples == 0 {
		return 0, nil
	}
	if cap(s.left) < samples {
		s.left = make([]float32, samples)
		s.right = make([]float32, samples)
	}
	left, right := s.left[:samples], s.right[:samples]

	s.sequencer.Render(left, right)
	s.sampleCount += int64(samples)

	for i := range samples {
		l := int16(clamp(left[i], -1, 1) * 32767)
		r := int16(clamp(right[i], -1, 1) * 32767)
		binary.LittleEndian.PutUint16(p[i*4:], uint16(l))
		binary.LittleEndian.PutUint16(p[i*4+2:], uint16(r))
	}
	return samples * 4, nil
}

// Stop makes further reads return silence.
func (s *MIDIStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

// SampleCount returns the number of sample frames rendered so far.
func (s *MIDIStream) SampleCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sampleCount
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// MIDIPlayer plays one Standard MIDI File at a time through the SoundFont
// synthesizer.
type MIDIPlayer struct {
	synth    *meltysynth.Synthesizer
	audioCtx *audio.Context

	player   *audio.Player
	stream   *MIDIStream
	duration time.Duration
	current  string
	muted    bool

	mu sync.Mutex
}

// NewMIDIPlayer creates a player for soundFont.
func NewMIDIPlayer(soundFont *meltysynth.SoundFont, audioCtx *audio.Context) (*MIDIPlayer, error) {
	settings := meltysynth.NewSynthesizerSettings(SampleRate)
	synth, err := meltysynth.NewSynthesizer(soundFont, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesizer: %w", err)
	}
	return &MIDIPlayer{synth: synth, audioCtx: audioCtx}, nil
}

// Play stops the current file, if any, and starts filename.
func (mp *MIDIPlayer) Play(filename string) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.stopInternal()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrMIDIFileNotFound, filename)
		}
		return fmt.Errorf("failed to read MIDI file: %w", err)
	}

	midi, err := meltysynth.NewMidiFile(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMIDIInvalidFormat, err)
	}

	sequencer := meltysynth.NewMidiFileSequencer(mp.synth)
	sequencer.Play(midi, false)
	mp.stream = NewMIDIStream(sequencer)
	mp.duration = midi.GetLength()

	player, err := mp.audioCtx.NewPlayer(mp.stream)
	if err != nil {
		mp.stream = nil
		return fmt.Errorf("failed to create audio player: %w", err)
	}
	player.SetVolume(volume(mp.muted))
	player.Play()
	mp.player = player
	mp.current = filename
	return nil
}

// Stop stops the current MIDI playback.
func (mp *MIDIPlayer) Stop() {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.stopInternal()
}

// stopInternal must be called with mp.mu held.
func (mp *MIDIPlayer) stopInternal() {
	if mp.stream != nil {
		mp.stream.Stop()
	}
	if mp.player != nil {
		mp.player.Close()
	}
	mp.player = nil
	mp.stream = nil
	mp.current = ""
	mp.duration = 0
}

// IsPlaying reports whether a file is loaded and has not reached its end.
func (mp *MIDIPlayer) IsPlaying() bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.player != nil && mp.player.Position() < mp.duration
}

// SetMuted silences playback without stopping the sequencer.
func (mp *MIDIPlayer) SetMuted(muted bool) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.muted = muted
	if mp.player != nil {
		mp.player.SetVolume(volume(muted))
	}
}

// Current returns the file being played, or "".
func (mp *MIDIPlayer) Current() string {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.current
}

// Duration returns the length of the current file.
func (mp *MIDIPlayer) Duration() time.Duration {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.duration
}
