// Package runner executes the wrapped command and reduces its outcome to the
// terminal status the dispatcher announces.
package runner

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"taskchime/internal/eventbus"
	"taskchime/internal/notify"
	"taskchime/internal/procrun"
	logx "taskchime/pkg/logx"
)

// killGrace is how long the child gets to exit after SIGTERM before SIGKILL.
const killGrace = 5 * time.Second

// Spec describes one wrapped execution.
type Spec struct {
	// Task is the human label used in notification titles. Defaults to the
	// command's base name.
	Task    string
	Command string
	Args    []string
	Dir     string
}

type Runner struct {
	log logx.Logger
	run procrun.Launcher
	bus eventbus.Bus
}

func New(run procrun.Launcher, log logx.Logger, bus eventbus.Bus) *Runner {
	if log.IsZero() {
		log = logx.Nop()
	}
	if run == nil {
		run = procrun.OS{}
	}
	return &Runner{log: log, run: run, bus: bus}
}

// Run executes the command with stdio passed through and blocks until it
// halts. Context cancellation (the user's Ctrl-C) terminates the child and
// maps to StatusKilled; any other non-zero exit maps to StatusFailed.
func (r *Runner) Run(ctx context.Context, spec Spec) notify.ExecutionContext {
	task := strings.TrimSpace(spec.Task)
	if task == "" {
		task = filepath.Base(spec.Command)
	}

	ec := notify.ExecutionContext{
		Task:     task,
		Branch:   r.gitBranch(spec.Dir),
		Executor: filepath.Base(spec.Command),
	}

	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		r.log.Error("command failed to start", logx.String("command", spec.Command), logx.Err(err))
		ec.Status = notify.StatusFailed
		r.finished(ec)
		return ec
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var waitErr error
	killed := false
	select {
	case waitErr = <-done:
	case <-ctx.Done():
		killed = true
		r.log.Info("cancellation requested, terminating child",
			logx.Int("pid", cmd.Process.Pid))
		_ = cmd.Process.Signal(os.Interrupt)
		select {
		case waitErr = <-done:
		case <-time.After(killGrace):
			_ = cmd.Process.Kill()
			waitErr = <-done
		}
	}
	ec.Took = time.Since(start)

	switch {
	case killed:
		ec.Status = notify.StatusKilled
	case waitErr == nil:
		ec.Status = notify.StatusCompleted
	default:
		var xerr *exec.ExitError
		if errors.As(waitErr, &xerr) {
			r.log.Debug("command exited non-zero", logx.Int("code", xerr.ExitCode()))
		}
		ec.Status = notify.StatusFailed
	}

	r.finished(ec)
	return ec
}

func (r *Runner) finished(ec notify.ExecutionContext) {
	r.log.Info("execution halted",
		logx.String("task", ec.Task),
		logx.String("status", ec.Status.String()),
		logx.Duration("took", ec.Took))
	if r.bus != nil {
		r.bus.Publish(eventbus.Event{Type: eventbus.TypeRunFinished, Data: ec})
	}
}

// gitBranch is best-effort context for the notification body; any failure
// just leaves the field empty.
func (r *Runner) gitBranch(dir string) string {
	out, err := r.run.Output(context.Background(), 2*time.Second, procrun.Cmd{
		Name: "git",
		Args: []string{"rev-parse", "--abbrev-ref", "HEAD"},
		Dir:  dir,
	})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
