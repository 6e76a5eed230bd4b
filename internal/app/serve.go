package app

import (
	"context"

	"github.com/coreos/go-systemd/v22/daemon"

	logx "taskchime/pkg/logx"
)

// Serve runs daemon mode: chime schedule + config hot-reload. Blocks until
// ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	cfg := a.cfgm.Get()
	if err := a.sched.Apply(cfg.Serve, a.Policy()); err != nil {
		return err
	}

	sub := a.cfgm.Subscribe(1)
	defer a.cfgm.Unsubscribe(sub)

	events, unsub := a.bus.Subscribe(16)
	defer unsub()

	watchDone := make(chan error, 1)
	go func() { watchDone <- a.cfgm.Watch(ctx) }()

	// Under systemd this flips the unit to "active"; elsewhere it's a no-op.
	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Debug("sd_notify failed", logx.Err(err))
	} else if sent {
		a.log.Debug("sd_notify readiness sent")
	}
	a.log.Info("serving")

	for {
		select {
		case <-ctx.Done():
			_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
			return nil
		case err := <-watchDone:
			if err != nil {
				return err
			}
			return nil
		case next := <-sub:
			if next == nil {
				continue
			}
			a.log.Info("applying reloaded config")
			a.applyConfig(next)
		case e := <-events:
			a.log.Debug("dispatch event", logx.String("type", e.Type))
		}
	}
}
