// Package assets materializes the files the notification mechanisms need on
// disk: the chime sound and the Windows toast script.
//
// Both are written once into the user cache directory and reused across
// runs. Writes go through a temp file + rename so a crashed writer never
// leaves a truncated asset behind.
package assets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	logx "taskchime/pkg/logx"
)

const (
	cacheSubdir = "taskchime"
	soundName   = "chime.wav"
	scriptName  = "toast.ps1"
)

// Store resolves asset paths lazily and caches them for the process lifetime.
type Store struct {
	log logx.Logger

	mu      sync.Mutex
	baseDir string
	sound   string
	script  string

	// override, when set, replaces the generated chime with a user file.
	// Guarded by mu: config hot-reload rewrites it while dispatches read it.
	override string
}

func NewStore(log logx.Logger) *Store {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Store{log: log}
}

// SetOverride points the chime at a user-supplied sound file. An empty value
// restores the generated default.
func (s *Store) SetOverride(path string) {
	s.mu.Lock()
	s.override = strings.TrimSpace(path)
	s.mu.Unlock()
}

// SoundPath returns the on-disk path of the chime sound, generating and
// caching the default WAV on first use.
func (s *Store) SoundPath() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p := s.override; p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", err
		}
		return p, nil
	}
	if s.sound != "" {
		return s.sound, nil
	}

	dir, err := s.dirLocked()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, soundName)
	if fi, err := os.Stat(path); err == nil && fi.Size() > 0 {
		s.sound = path
		return path, nil
	}

	if err := writeAtomic(path, chimeWAV()); err != nil {
		return "", err
	}
	s.log.Debug("chime sound materialized", logx.String("path", path))
	s.sound = path
	return path, nil
}

// ToastScriptPath returns the on-disk path of the embedded PowerShell toast
// script, materializing it on first use.
func (s *Store) ToastScriptPath() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.script != "" {
		return s.script, nil
	}

	dir, err := s.dirLocked()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, scriptName)

	// Rewrite unconditionally: the script must match this binary's version.
	if err := writeAtomic(path, toastScript); err != nil {
		return "", err
	}
	s.script = path
	return path, nil
}

func (s *Store) dirLocked() (string, error) {
	if s.baseDir != "" {
		return s.baseDir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil || strings.TrimSpace(base) == "" {
		base = os.TempDir()
	}
	if base == "" {
		return "", errors.New("no cache directory available")
	}
	dir := filepath.Join(base, cacheSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	s.baseDir = dir
	return dir, nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
