// Package schedule fires recurring chimes in serve mode.
package schedule

import (
	"time"

	"github.com/robfig/cron/v3"

	"taskchime/internal/config"
	"taskchime/internal/eventbus"
	"taskchime/internal/notify"
	logx "taskchime/pkg/logx"
)

// Notifier is the slice of the dispatcher the scheduler needs.
type Notifier interface {
	Notify(cfg notify.Config, title, message string)
}

type Service struct {
	log    logx.Logger
	bus    eventbus.Bus
	target Notifier
	parser cron.Parser

	c *cron.Cron
}

func New(target Notifier, log logx.Logger, bus eventbus.Bus) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		log:    log,
		bus:    bus,
		target: target,
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// Apply replaces the running schedule with the given chime set. Invalid
// specs are skipped with a warning; the rest still run.
func (s *Service) Apply(serve *config.ServeConfig, policy notify.Config) error {
	s.Stop()
	if serve == nil || len(serve.Chimes) == 0 {
		return nil
	}

	loc := time.Local
	if serve.Timezone != "" {
		l, err := time.LoadLocation(serve.Timezone)
		if err != nil {
			return err
		}
		loc = l
	}

	c := cron.New(cron.WithParser(s.parser), cron.WithLocation(loc))
	for _, chime := range serve.Chimes {
		chime := chime
		if _, err := s.parser.Parse(chime.Spec); err != nil {
			s.log.Warn("invalid chime spec, skipping",
				logx.String("spec", chime.Spec), logx.Err(err))
			continue
		}
		_, err := c.AddFunc(chime.Spec, func() { s.fire(chime, policy) })
		if err != nil {
			s.log.Warn("chime registration failed",
				logx.String("spec", chime.Spec), logx.Err(err))
		}
	}

	s.c = c
	c.Start()
	s.log.Info("chime schedule applied", logx.Int("chimes", len(serve.Chimes)))
	return nil
}

func (s *Service) fire(chime config.ChimeConfig, policy notify.Config) {
	title := chime.Title
	if title == "" {
		title = "taskchime"
	}
	message := chime.Message
	if message == "" {
		message = "Scheduled chime"
	}

	s.log.Debug("chime firing", logx.String("spec", chime.Spec), logx.String("title", title))
	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Type: eventbus.TypeChimeFired, Data: chime})
	}
	s.target.Notify(policy, title, message)
}

func (s *Service) Stop() {
	if s.c == nil {
		return
	}
	ctx := s.c.Stop()
	// Let in-flight jobs finish; they are short.
	<-ctx.Done()
	s.c = nil
}
