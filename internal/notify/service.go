// Package notify is the platform-adaptive notification dispatcher.
//
// It classifies the runtime environment, walks an ordered fallback chain of
// external mechanisms per channel, and absorbs every fault internally: no
// error ever reaches the caller, and total failure simply means no
// notification appears.
package notify

import (
	"context"
	"fmt"
	"time"

	"taskchime/internal/eventbus"
	"taskchime/internal/platform"
	"taskchime/internal/procrun"
	logx "taskchime/pkg/logx"
)

// Event-type aliases keep the publish sites short.
const (
	sent         = eventbus.TypeNotifySent
	skipped      = eventbus.TypeNotifySkipped
	launchFailed = eventbus.TypeNotifyLaunchFailed
)

// AssetSource resolves the files mechanisms need (chime sound, toast script).
type AssetSource interface {
	SoundPath() (string, error)
	ToastScriptPath() (string, error)
}

// Service dispatches notifications. Safe for concurrent use; the two
// environment-fact caches (bus gate, foreign root) are shared process-wide
// state owned by the Service.
type Service struct {
	log    logx.Logger
	run    procrun.Launcher
	bus    eventbus.Bus
	assets AssetSource

	gate  *busGate
	roots *rootCache

	// classify and toast are swappable seams for tests.
	classify func() platform.Target
	toast    func(ctx context.Context, title, message string) error

	sinks []Sink
}

func New(assets AssetSource, run procrun.Launcher, log logx.Logger, bus eventbus.Bus) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if run == nil {
		run = procrun.OS{}
	}
	return &Service{
		log:      log,
		run:      run,
		bus:      bus,
		assets:   assets,
		gate:     newBusGate(run, log.With(logx.String("comp", "busgate"))),
		roots:    newRootCache(run, log.With(logx.String("comp", "wslpath"))),
		classify: platform.Detect,
		toast:    dbusToast,
	}
}

// AddSink registers an extra delivery channel. Registration implies enabled.
func (s *Service) AddSink(sink Sink) {
	if sink != nil {
		s.sinks = append(s.sinks, sink)
	}
}

// NotifyExecutionHalted announces the terminal state of a wrapped execution.
//
// A still-running status is a caller bug: it is logged and nothing else
// happens. A user-initiated cancellation never plays the completion chime,
// whatever the configured sound policy says.
func (s *Service) NotifyExecutionHalted(cfg Config, ec ExecutionContext) {
	if !ec.Status.Terminal() {
		s.log.Warn("notification requested but execution is still running",
			logx.String("task", ec.Task))
		return
	}

	if ec.Status == StatusKilled {
		cfg.SoundEnabled = false
	}

	title := "Task Complete: " + ec.Task
	var message string
	switch ec.Status {
	case StatusCompleted:
		message = fmt.Sprintf("✅ '%s' completed successfully\nBranch: %s\nExecutor: %s", ec.Task, ec.Branch, ec.Executor)
	case StatusFailed:
		message = fmt.Sprintf("❌ '%s' execution failed\nBranch: %s\nExecutor: %s", ec.Task, ec.Branch, ec.Executor)
	case StatusKilled:
		message = fmt.Sprintf("🛑 '%s' execution cancelled by user\nBranch: %s\nExecutor: %s", ec.Task, ec.Branch, ec.Executor)
	}
	if ec.Took > 0 {
		message += fmt.Sprintf("\nTook: %s", ec.Took.Round(time.Second))
	}

	s.Notify(cfg, title, message)
}

// Notify fires the audio and push channels independently: failure or skip of
// one never affects the other, and neither ever returns a fault.
func (s *Service) Notify(cfg Config, title, message string) {
	target := s.classify()

	if cfg.SoundEnabled {
		s.playSound(target)
	}
	if cfg.PushEnabled {
		s.push(target, title, message)
	}

	for _, sink := range s.sinks {
		s.sendSink(sink, title, message)
	}
}

func (s *Service) playSound(target platform.Target) {
	path, err := s.assets.SoundPath()
	if err != nil {
		s.log.Error("no sound asset available", logx.Err(err))
		s.publish(skipped, Outcome{Channel: "audio", Platform: target.String(), Detail: err.Error()})
		return
	}

	if target == platform.LinuxWSL2 {
		if translated, ok := s.roots.Translate(path); ok {
			path = translated
		}
		// On translation failure the untranslated path is still worth a try.
	}

	s.runChain("audio", target, audioChain(target, path))
}

func (s *Service) sendSink(sink Sink, title, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), sinkSendTimeout)
	defer cancel()
	if err := sink.Send(ctx, title, message); err != nil {
		s.log.Warn("sink delivery failed", logx.String("sink", sink.Name()), logx.Err(err))
		s.publish(launchFailed, Outcome{Channel: sink.Name(), Detail: err.Error()})
		return
	}
	s.publish(sent, Outcome{Channel: sink.Name()})
}

func (s *Service) publish(typ string, o Outcome) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: typ, Data: o})
}
