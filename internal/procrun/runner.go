// Package procrun executes external notification mechanisms.
//
// Two shapes only: a detached launch whose completion is never observed, and
// a bounded output capture with a hard timeout. Neither shape lets a child
// process stall the caller.
package procrun

import (
	"context"
	"os/exec"
	"time"
)

// Cmd describes a single external invocation.
type Cmd struct {
	Name string
	Args []string
	// Dir, when set, becomes the child's working directory.
	Dir string
}

// Launcher is the execution seam between the fallback chains and the OS.
// Tests substitute a recording fake.
type Launcher interface {
	// Launch spawns the command and returns once process creation has
	// succeeded or failed. The child's exit status is never observed.
	Launch(c Cmd) error

	// Output runs the command and captures stdout, bounded by timeout.
	// Expiry kills the child and returns the context error.
	Output(ctx context.Context, timeout time.Duration, c Cmd) ([]byte, error)
}

// OS is the real Launcher backed by os/exec.
type OS struct{}

func (OS) Launch(c Cmd) error {
	cmd := exec.Command(c.Name, c.Args...)
	if c.Dir != "" {
		cmd.Dir = c.Dir
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	// Reap the child when it eventually exits so it doesn't linger as a
	// zombie. The result is intentionally discarded.
	go func() { _ = cmd.Wait() }()
	return nil
}

func (OS) Output(ctx context.Context, timeout time.Duration, c Cmd) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	if c.Dir != "" {
		cmd.Dir = c.Dir
	}
	out, err := cmd.Output()
	// Prefer the deadline error over exec's wrapped kill error so callers
	// can tell a timeout from a genuine launch fault.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, ctxErr
	}
	return out, err
}
