package notify

import (
	"context"
	"time"
)

// Config is the per-dispatch notification policy. Values are copied in, so a
// dispatch never observes concurrent config edits.
type Config struct {
	SoundEnabled bool
	PushEnabled  bool
}

// Status is the terminal state of a wrapped execution.
type Status int

const (
	// StatusRunning is a caller contract violation when handed to
	// NotifyExecutionHalted: nothing has halted yet.
	StatusRunning Status = iota
	StatusCompleted
	StatusFailed
	// StatusKilled means the user cancelled the execution themselves.
	StatusKilled
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusKilled:
		return "killed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the execution has actually halted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusKilled
}

// ExecutionContext describes the wrapped task whose completion is being
// announced.
type ExecutionContext struct {
	Task     string
	Branch   string
	Executor string
	Status   Status
	Took     time.Duration
}

// Sink is an optional extra delivery channel beyond the built-in audio and
// desktop-push chains (e.g. Telegram). Errors are swallowed by the
// dispatcher like every other channel fault.
type Sink interface {
	Name() string
	Send(ctx context.Context, title, message string) error
}

// Outcome is the eventbus payload for notify.* events.
type Outcome struct {
	Channel   string `json:"channel"`
	Platform  string `json:"platform"`
	Mechanism string `json:"mechanism,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// Internal timeouts. These bound our own calls; callers cannot cancel a
// dispatch once begun.
const (
	busProbeTimeout    = 500 * time.Millisecond
	toastCallTimeout   = 2 * time.Second
	rootResolveTimeout = 5 * time.Second
	sinkSendTimeout    = 10 * time.Second
)

// DisableBusEnv is the opt-out flag: when set (to anything), the Linux
// desktop-bus push channel is disabled for the whole process.
const DisableBusEnv = "TASKCHIME_DISABLE_DBUS"
