package schedule

import (
	"sync"
	"testing"

	"taskchime/internal/config"
	"taskchime/internal/notify"
	logx "taskchime/pkg/logx"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingNotifier) Notify(_ notify.Config, title, _ string) {
	r.mu.Lock()
	r.calls = append(r.calls, title)
	r.mu.Unlock()
}

func TestApplyRejectsBadTimezone(t *testing.T) {
	s := New(&recordingNotifier{}, logx.Nop(), nil)
	err := s.Apply(&config.ServeConfig{
		Timezone: "Not/AZone",
		Chimes:   []config.ChimeConfig{{Spec: "* * * * *"}},
	}, notify.Config{})
	if err == nil {
		t.Fatalf("bad timezone must be rejected")
	}
}

func TestApplySkipsInvalidSpecs(t *testing.T) {
	s := New(&recordingNotifier{}, logx.Nop(), nil)
	defer s.Stop()
	err := s.Apply(&config.ServeConfig{
		Chimes: []config.ChimeConfig{
			{Spec: "not a cron line"},
			{Spec: "* * * * *"},
		},
	}, notify.Config{})
	if err != nil {
		t.Fatalf("valid chimes must survive an invalid sibling: %v", err)
	}
	if s.c == nil {
		t.Fatalf("schedule not running")
	}
	if got := len(s.c.Entries()); got != 1 {
		t.Fatalf("registered entries = %d, want 1", got)
	}
}

func TestApplyNilServeStopsCleanly(t *testing.T) {
	s := New(&recordingNotifier{}, logx.Nop(), nil)
	if err := s.Apply(nil, notify.Config{}); err != nil {
		t.Fatalf("nil serve config: %v", err)
	}
	// Stop on a never-started service must not panic.
	s.Stop()
}

func TestFireUsesDefaults(t *testing.T) {
	rec := &recordingNotifier{}
	s := New(rec, logx.Nop(), nil)
	s.fire(config.ChimeConfig{Spec: "* * * * *"}, notify.Config{})

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.calls) != 1 || rec.calls[0] != "taskchime" {
		t.Fatalf("calls = %v, want one default-titled chime", rec.calls)
	}
}
