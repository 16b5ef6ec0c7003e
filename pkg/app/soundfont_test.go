package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindSoundFont_ScriptDir(t *testing.T) {
	scriptDir := t.TempDir()
	sfPath := filepath.Join(scriptDir, "generaluser-gs.SF2")
	if err := os.WriteFile(sfPath, []byte("RIFF....sfbk"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	got := findSoundFont(scriptDir)
	if got != sfPath {
		t.Errorf("Expected %s, got %s", sfPath, got)
	}
}

func TestFindSoundFont_CurrentDir(t *testing.T) {
	workDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(workDir, DefaultSoundFontName), []byte("RIFF....sfbk"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	originalDir, _ := os.Getwd()
	defer os.Chdir(originalDir)
	if err := os.Chdir(workDir); err != nil {
		t.Fatalf("Failed to chdir: %v", err)
	}

	got := findSoundFont(t.TempDir())
	if filepath.Base(got) != DefaultSoundFontName {
		t.Errorf("Expected SoundFont in current directory, got %q", got)
	}
}

func TestFindSoundFont_NotFound(t *testing.T) {
	originalDir, _ := os.Getwd()
	defer os.Chdir(originalDir)
	os.Chdir(t.TempDir())

	if got := findSoundFont(t.TempDir()); got != "" {
		t.Errorf("Expected no SoundFont, got %q", got)
	}
}

func TestFindSoundFont_IgnoresEmptyFile(t *testing.T) {
	scriptDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(scriptDir, DefaultSoundFontName), nil, 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	originalDir, _ := os.Getwd()
	defer os.Chdir(originalDir)
	os.Chdir(t.TempDir())

	if got := findSoundFont(scriptDir); got != "" {
		t.Errorf("Expected empty SoundFont file to be ignored, got %q", got)
	}
}
