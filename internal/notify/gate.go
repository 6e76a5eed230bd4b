package notify

import (
	"context"
	"os"
	"sync/atomic"

	"taskchime/internal/procrun"
	logx "taskchime/pkg/logx"
)

// Circuit states for the desktop-bus gate. Transitions are monotonic toward
// gateUnavailable: once a fault is seen the verdict sticks for the rest of
// the process.
const (
	gateUnknown int32 = iota
	gateAvailable
	gateUnavailable
)

// busGate decides whether the Linux desktop bus is worth talking to.
//
// The first caller probes (bounded by busProbeTimeout); every later caller
// reads the cached verdict. Real toast faults can still flip an Available
// verdict to Unavailable afterwards via Trip — the gate is refined by usage,
// not just the initial probe.
type busGate struct {
	state atomic.Int32

	run    procrun.Launcher
	log    logx.Logger
	getenv func(string) string
}

func newBusGate(run procrun.Launcher, log logx.Logger) *busGate {
	return &busGate{run: run, log: log, getenv: os.Getenv}
}

// Available reports the gate verdict, probing on first use.
func (g *busGate) Available() bool {
	switch g.state.Load() {
	case gateAvailable:
		return true
	case gateUnavailable:
		return false
	}

	verdict := gateUnavailable
	switch {
	case g.getenv(DisableBusEnv) != "":
		g.log.Info("desktop-bus notifications disabled via environment",
			logx.String("var", DisableBusEnv))
	case g.probe():
		verdict = gateAvailable
	default:
		g.log.Info("desktop bus not available, desktop notifications will be skipped")
	}

	// First verdict wins. A concurrent Trip (or another prober) that landed
	// first is authoritative; never overwrite Unavailable with Available.
	if !g.state.CompareAndSwap(gateUnknown, verdict) {
		return g.state.Load() == gateAvailable
	}
	return verdict == gateAvailable
}

// Trip forces the gate shut for the remainder of the process. Used when an
// actual toast call times out or faults: the known failure mode is a bus
// client that hangs indefinitely, and one slow failure must not become many.
func (g *busGate) Trip(reason string) {
	if g.state.Swap(gateUnavailable) != gateUnavailable {
		g.log.Info("desktop bus marked unavailable", logx.String("reason", reason))
	}
}

// probe runs a cheap bus introspection call. Anything but a clean success
// within the deadline (missing binary, error reply, timeout) counts as
// unavailable.
func (g *busGate) probe() bool {
	_, err := g.run.Output(context.Background(), busProbeTimeout, procrun.Cmd{
		Name: "dbus-send",
		Args: []string{
			"--session",
			"--dest=org.freedesktop.DBus",
			"--type=method_call",
			"--print-reply",
			"/org/freedesktop/DBus",
			"org.freedesktop.DBus.GetId",
		},
	})
	if err != nil {
		g.log.Warn("desktop-bus probe failed", logx.Err(err))
		return false
	}
	return true
}
