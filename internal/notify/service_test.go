package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"taskchime/internal/platform"
	"taskchime/internal/procrun"
	logx "taskchime/pkg/logx"
)

// fakeRun records every process interaction and lets tests script outcomes.
type fakeRun struct {
	mu       sync.Mutex
	launches []procrun.Cmd
	outputs  []procrun.Cmd

	launchErr func(c procrun.Cmd) error
	outputFn  func(c procrun.Cmd) ([]byte, error)
}

func (f *fakeRun) Launch(c procrun.Cmd) error {
	f.mu.Lock()
	f.launches = append(f.launches, c)
	f.mu.Unlock()
	if f.launchErr != nil {
		return f.launchErr(c)
	}
	return nil
}

func (f *fakeRun) Output(_ context.Context, _ time.Duration, c procrun.Cmd) ([]byte, error) {
	f.mu.Lock()
	f.outputs = append(f.outputs, c)
	f.mu.Unlock()
	if f.outputFn != nil {
		return f.outputFn(c)
	}
	return nil, nil
}

func (f *fakeRun) launchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.launches)
}

func (f *fakeRun) outputCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.outputs)
}

type fakeAssets struct {
	sound     string
	script    string
	soundErr  error
	scriptErr error
}

func (f fakeAssets) SoundPath() (string, error)       { return f.sound, f.soundErr }
func (f fakeAssets) ToastScriptPath() (string, error) { return f.script, f.scriptErr }

func newTestService(run *fakeRun, target platform.Target) *Service {
	s := New(fakeAssets{sound: "/tmp/chime.wav", script: "/tmp/toast.ps1"}, run, logx.Nop(), nil)
	s.classify = func() platform.Target { return target }
	s.toast = func(context.Context, string, string) error { return nil }
	s.gate.getenv = func(string) string { return "" }
	return s
}

func TestKilledStatusForcesSoundOff(t *testing.T) {
	run := &fakeRun{}
	s := newTestService(run, platform.LinuxNative)

	s.NotifyExecutionHalted(
		Config{SoundEnabled: true, PushEnabled: false},
		ExecutionContext{Task: "deploy", Status: StatusKilled},
	)

	if n := run.launchCount(); n != 0 {
		t.Fatalf("user cancellation played a sound anyway: %d launches, want 0", n)
	}
}

func TestRunningStatusIsANoOp(t *testing.T) {
	run := &fakeRun{}
	var buf strings.Builder
	s := newTestService(run, platform.LinuxNative)
	s.log = logx.NewWriter(&buf, "debug")

	s.NotifyExecutionHalted(
		Config{SoundEnabled: true, PushEnabled: true},
		ExecutionContext{Task: "deploy", Status: StatusRunning},
	)

	if n := run.launchCount() + run.outputCount(); n != 0 {
		t.Fatalf("non-terminal status triggered %d external calls, want 0", n)
	}
	if got := strings.Count(buf.String(), `"level":"warn"`); got != 1 {
		t.Fatalf("want exactly one warning, got %d in %q", got, buf.String())
	}
}

func TestDisabledChannelsHaveZeroSideEffects(t *testing.T) {
	run := &fakeRun{}
	s := newTestService(run, platform.LinuxNative)

	s.Notify(Config{}, "t", "m")

	if n := run.launchCount() + run.outputCount(); n != 0 {
		t.Fatalf("fully disabled config still made %d external calls", n)
	}
}

func TestAudioFallbackStopsAtFirstLaunch(t *testing.T) {
	run := &fakeRun{
		launchErr: func(c procrun.Cmd) error {
			if c.Name == "paplay" {
				return errors.New("no pulseaudio")
			}
			return nil
		},
	}
	s := newTestService(run, platform.LinuxNative)

	s.Notify(Config{SoundEnabled: true}, "t", "m")

	if n := run.launchCount(); n != 2 {
		t.Fatalf("launch attempts = %d, want 2 (paplay fails, aplay succeeds)", n)
	}
	if run.launches[0].Name != "paplay" || run.launches[1].Name != "aplay" {
		t.Fatalf("chain order wrong: %q then %q", run.launches[0].Name, run.launches[1].Name)
	}
}

func TestAudioChainExhaustionIsSilent(t *testing.T) {
	run := &fakeRun{launchErr: func(procrun.Cmd) error { return errors.New("nope") }}
	s := newTestService(run, platform.LinuxNative)

	// Must not panic or surface anything; all three mechanisms tried.
	s.Notify(Config{SoundEnabled: true}, "t", "m")

	if n := run.launchCount(); n != 3 {
		t.Fatalf("launch attempts = %d, want 3", n)
	}
}

func TestMacOSPushEscapesQuotes(t *testing.T) {
	run := &fakeRun{}
	s := newTestService(run, platform.MacOS)

	s.Notify(Config{PushEnabled: true}, `say "hi"`, `done "ok"`)

	if n := run.launchCount(); n != 1 {
		t.Fatalf("launches = %d, want 1", n)
	}
	c := run.launches[0]
	if c.Name != "osascript" {
		t.Fatalf("mechanism = %q, want osascript", c.Name)
	}
	script := c.Args[1]
	if strings.Contains(strings.ReplaceAll(script, `\"`, ``), `"hi"`) {
		t.Fatalf("unescaped quotes survived in script: %q", script)
	}
}

func TestWindowsPushPassesLiteralArgs(t *testing.T) {
	run := &fakeRun{}
	s := newTestService(run, platform.Windows)

	s.Notify(Config{PushEnabled: true}, `ti"tle`, "msg")

	if n := run.launchCount(); n != 1 {
		t.Fatalf("launches = %d, want 1", n)
	}
	args := run.launches[0].Args
	found := false
	for i, a := range args {
		if a == "-Title" && i+1 < len(args) && args[i+1] == `ti"tle` {
			found = true
		}
	}
	if !found {
		t.Fatalf("title not passed as a literal argv entry: %v", args)
	}
}

func TestMissingToastScriptSkipsChannel(t *testing.T) {
	run := &fakeRun{}
	s := newTestService(run, platform.Windows)
	s.assets = fakeAssets{scriptErr: errors.New("no cache dir")}

	s.Notify(Config{PushEnabled: true}, "t", "m")

	if n := run.launchCount(); n != 0 {
		t.Fatalf("channel not skipped on asset fault: %d launches", n)
	}
}

func TestChannelsAreIndependent(t *testing.T) {
	// A failing audio chain must not stop the push channel.
	run := &fakeRun{
		launchErr: func(c procrun.Cmd) error {
			if c.Name != "osascript" {
				return errors.New("audio broken")
			}
			return nil
		},
	}
	s := newTestService(run, platform.MacOS)

	s.Notify(Config{SoundEnabled: true, PushEnabled: true}, "t", "m")

	var sawOsascript bool
	for _, c := range run.launches {
		if c.Name == "osascript" {
			sawOsascript = true
		}
	}
	if !sawOsascript {
		t.Fatalf("push channel never ran after audio failure: %v", run.launches)
	}
}

func TestSinkFailureIsSwallowed(t *testing.T) {
	run := &fakeRun{}
	s := newTestService(run, platform.MacOS)
	s.AddSink(failingSink{})

	// Must not panic; the built-in channels still run.
	s.Notify(Config{PushEnabled: true}, "t", "m")

	if n := run.launchCount(); n != 1 {
		t.Fatalf("built-in push did not run: %d launches", n)
	}
}

type failingSink struct{}

func (failingSink) Name() string { return "failing" }
func (failingSink) Send(context.Context, string, string) error {
	return errors.New("down")
}
