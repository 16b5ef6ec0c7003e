package app

import (
	"os"

	"github.com/zurustar/sqhell/pkg/fileutil"
)

// DefaultSoundFontName is the SoundFont looked up when none is configured.
const DefaultSoundFontName = "GeneralUser-GS.sf2"

// findSoundFont searches for DefaultSoundFontName in the following order:
//  1. the script directory
//  2. the current directory
//
// Names are matched case-insensitively. It returns "" when neither has one;
// MIDI playback then fails with audio.ErrNoSoundFont.
func findSoundFont(scriptDir string) string {
	dirs := []string{scriptDir}
	if wd, err := os.Getwd(); err == nil && wd != scriptDir {
		dirs = append(dirs, wd)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		path, err := fileutil.FindFileCaseInsensitive(dir, DefaultSoundFontName)
		if err != nil {
			continue
		}
		if info, err := os.Stat(path); err == nil && !info.IsDir() && info.Size() > 0 {
			return path
		}
	}
	return ""
}
