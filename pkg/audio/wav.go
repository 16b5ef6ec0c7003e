package audio

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

// WAV-related errors
var (
	// ErrWAVFileNotFound is returned when the WAV file cannot be found.
	ErrWAVFileNotFound = errors.New("WAV file not found")

	// ErrWAVInvalidFormat is returned when the WAV file has an invalid format.
	ErrWAVInvalidFormat = errors.New("invalid WAV file format")
)

// WAVPlayer plays any number of WAV files at once; the audio context
// mixes them.
type WAVPlayer struct {
	audioCtx *audio.Context
	players  []*audio.Player
	muted    bool
	mu       sync.Mutex
}

// NewWAVPlayer creates a WAV player on the shared audio context.
func NewWAVPlayer(audioCtx *audio.Context) *WAVPlayer {
	return &WAVPlayer{audioCtx: audioCtx}
}

// Play decodes filename and starts it. Finished players are released first.
func (wp *WAVPlayer) Play(filename string) error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	wp.cleanupFinishedPlayers()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrWAVFileNotFound, filename)
		}
		return fmt.Errorf("failed to read WAV file: %w", err)
	}

	stream, err := wav.DecodeWithSampleRate(SampleRate, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWAVInvalidFormat, err)
	}

	player, err := wp.audioCtx.NewPlayer(stream)
	if err != nil {
		return fmt.Errorf("failed to create audio player: %w", err)
	}
	if wp.muted {
		player.SetVolume(0)
	}
	player.Play()
	wp.players = append(wp.players, player)
	return nil
}

// SetMuted silences current and future playback.
func (wp *WAVPlayer) SetMuted(muted bool) {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	wp.muted = muted
	for _, player := range wp.players {
		player.SetVolume(volume(muted))
	}
}

// IsMuted returns whether the WAV player is muted.
func (wp *WAVPlayer) IsMuted() bool {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return wp.muted
}

// StopAll stops all active WAV playback.
func (wp *WAVPlayer) StopAll() {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	for _, player := range wp.players {
		player.Close()
	}
	wp.players = nil
}

// ActivePlayers returns the number of WAV files still playing.
func (wp *WAVPlayer) ActivePlayers() int {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	wp.cleanupFinishedPlayers()
	return len(wp.players)
}

// cleanupFinishedPlayers must be called with wp.mu held.
func (wp *WAVPlayer) cleanupFinishedPlayers() {
	active := wp.players[:0]
	for _, player := range wp.players {
		if player.IsPlaying() {
			active = append(active, player)
		} else {
			player.Close()
		}
	}
	wp.players = active
}

func volume(muted bool) float64 {
	if muted {
		return 0
	}
	return 1
}
