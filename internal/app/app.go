// Package app assembles taskchime's services and drives its three modes
// (run, serve, test).
package app

import (
	"context"
	"sync"
	"time"

	"taskchime/internal/assets"
	"taskchime/internal/config"
	"taskchime/internal/eventbus"
	"taskchime/internal/notify"
	"taskchime/internal/procrun"
	"taskchime/internal/runner"
	"taskchime/internal/schedule"
	"taskchime/internal/storage"
	"taskchime/internal/telegram"
	logx "taskchime/pkg/logx"
)

type App struct {
	cfgm *config.Manager
	logs *logx.Service
	log  logx.Logger
	bus  eventbus.Bus

	assets   *assets.Store
	notifier *notify.Service
	runner   *runner.Runner
	sched    *schedule.Service

	store *storage.Store

	recUnsub func()
	recWG    sync.WaitGroup
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logs, log := logx.New(logCfg(cfg))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	bus := eventbus.New()

	ast := assets.NewStore(log.With(logx.String("comp", "assets")))
	ast.SetOverride(cfg.Notifications.SoundFile)

	run := procrun.OS{}
	notifier := notify.New(ast, run, log.With(logx.String("comp", "notify")), bus)

	if tg := cfg.Telegram; tg != nil && tg.Enabled {
		sink, err := telegram.New(telegram.Config{
			Token:      tg.Token,
			ChatID:     tg.ChatID,
			RatePerSec: tg.RatePerSec,
		}, log.With(logx.String("comp", "telegram")))
		if err != nil {
			log.Warn("telegram sink disabled", logx.Err(err))
		} else {
			notifier.AddSink(sink)
		}
	}

	a := &App{
		cfgm:     cfgm,
		logs:     logs,
		log:      log.With(logx.String("comp", "app")),
		bus:      bus,
		assets:   ast,
		notifier: notifier,
		runner:   runner.New(run, log.With(logx.String("comp", "runner")), bus),
		sched:    schedule.New(notifier, log.With(logx.String("comp", "schedule")), bus),
	}

	if h := cfg.History; h != nil && h.Enabled {
		store, err := storage.Open(storage.Config{
			Path:    h.Path,
			MaxRows: h.MaxRows,
		}, log.With(logx.String("comp", "history")))
		if err != nil {
			log.Warn("history journal disabled", logx.Err(err))
		} else {
			a.store = store
			a.startRecorder()
		}
	}

	return a, nil
}

// Policy snapshots the current notification config.
func (a *App) Policy() notify.Config {
	cfg := a.cfgm.Get()
	if cfg == nil {
		return notify.Config{SoundEnabled: true, PushEnabled: true}
	}
	return notify.Config{
		SoundEnabled: cfg.Notifications.Sound(),
		PushEnabled:  cfg.Notifications.Push(),
	}
}

// Run executes the wrapped command, announces its terminal state, and
// returns a process exit code for main.
func (a *App) Run(ctx context.Context, spec runner.Spec) int {
	ec := a.runner.Run(ctx, spec)
	a.notifier.NotifyExecutionHalted(a.Policy(), ec)

	switch ec.Status {
	case notify.StatusCompleted:
		return 0
	case notify.StatusKilled:
		return 130
	default:
		return 1
	}
}

// Test sends a single test notification through every configured channel.
func (a *App) Test() {
	a.notifier.Notify(a.Policy(), "taskchime", "Test notification: if you can read this, push works. You should also hear a chime.")
}

// Close releases everything New acquired. Safe to call once.
func (a *App) Close() {
	a.sched.Stop()
	if a.recUnsub != nil {
		a.recUnsub()
		a.recWG.Wait()
	}
	_ = a.store.Close()
	_ = a.logs.Close()
}

func logCfg(cfg *config.Config) logx.Config {
	console := cfg.Logging.Console == nil || *cfg.Logging.Console
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

// startRecorder journals dispatch outcomes from the bus. Best-effort: a full
// subscriber buffer drops events rather than slowing dispatch.
func (a *App) startRecorder() {
	ch, unsub := a.bus.Subscribe(64)
	a.recUnsub = unsub
	a.recWG.Add(1)
	go func() {
		defer a.recWG.Done()
		for e := range ch {
			entry := storage.Entry{At: e.Time, Event: e.Type}
			if o, ok := e.Data.(notify.Outcome); ok {
				entry.Channel = o.Channel
				entry.Platform = o.Platform
				entry.Mechanism = o.Mechanism
				entry.Detail = o.Detail
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := a.store.Append(ctx, entry); err != nil {
				a.log.Debug("history append failed", logx.Err(err))
			}
			cancel()
		}
	}()
}

// applyConfig reacts to a hot-reloaded config in serve mode.
func (a *App) applyConfig(cfg *config.Config) {
	a.logs.Apply(logCfg(cfg))
	a.assets.SetOverride(cfg.Notifications.SoundFile)
	if err := a.sched.Apply(cfg.Serve, a.Policy()); err != nil {
		a.log.Warn("chime schedule rejected", logx.Err(err))
	}
}
