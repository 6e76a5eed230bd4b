package assets

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	logx "taskchime/pkg/logx"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(logx.Nop())
	s.baseDir = t.TempDir()
	return s
}

func TestChimeWAVHeader(t *testing.T) {
	b := chimeWAV()
	if len(b) <= 44 {
		t.Fatalf("wav too short: %d bytes", len(b))
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" || string(b[36:40]) != "data" {
		t.Fatalf("bad wav magic: %q %q %q", b[0:4], b[8:12], b[36:40])
	}
	riffLen := binary.LittleEndian.Uint32(b[4:8])
	if int(riffLen)+8 != len(b) {
		t.Fatalf("riff length %d does not match file size %d", riffLen, len(b))
	}
	dataLen := binary.LittleEndian.Uint32(b[40:44])
	if int(dataLen)+44 != len(b) {
		t.Fatalf("data length %d does not match file size %d", dataLen, len(b))
	}
}

func TestSoundPathCachesAndReuses(t *testing.T) {
	s := testStore(t)

	p1, err := s.SoundPath()
	if err != nil {
		t.Fatalf("SoundPath: %v", err)
	}
	fi1, err := os.Stat(p1)
	if err != nil || fi1.Size() == 0 {
		t.Fatalf("missing or empty sound file: %v", err)
	}

	// Second call must return the same path without rewriting.
	p2, err := s.SoundPath()
	if err != nil || p2 != p1 {
		t.Fatalf("second SoundPath = %q (%v), want %q", p2, err, p1)
	}
}

func TestSoundPathOverride(t *testing.T) {
	s := testStore(t)

	own := filepath.Join(t.TempDir(), "own.wav")
	if err := os.WriteFile(own, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	s.SetOverride(own)
	p, err := s.SoundPath()
	if err != nil || p != own {
		t.Fatalf("override path = %q (%v), want %q", p, err, own)
	}

	s.SetOverride(filepath.Join(t.TempDir(), "missing.wav"))
	if _, err := s.SoundPath(); err == nil {
		t.Fatalf("missing override must fail, not fall back silently")
	}

	s.SetOverride("")
	p, err = s.SoundPath()
	if err != nil || p == own {
		t.Fatalf("cleared override = %q (%v), want generated default", p, err)
	}
}

// Config hot-reload rewrites the override while scheduled chimes resolve the
// sound concurrently; both sides must go through the store's lock.
func TestSoundOverrideConcurrentReload(t *testing.T) {
	s := testStore(t)

	own := filepath.Join(t.TempDir(), "own.wav")
	if err := os.WriteFile(own, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			s.SetOverride(own)
			s.SetOverride("")
		}
	}()
	for i := 0; i < 200; i++ {
		if _, err := s.SoundPath(); err != nil {
			t.Fatalf("SoundPath during reload: %v", err)
		}
	}
	<-done
}

func TestToastScriptMaterialized(t *testing.T) {
	s := testStore(t)
	p, err := s.ToastScriptPath()
	if err != nil {
		t.Fatalf("ToastScriptPath: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("reading script: %v", err)
	}
	if len(b) == 0 {
		t.Fatalf("materialized script is empty")
	}
}
