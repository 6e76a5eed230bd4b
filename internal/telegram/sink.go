// Package telegram delivers notifications to a Telegram chat. It is an
// optional extra channel: absent configuration means the sink is never
// constructed, and send failures are swallowed upstream like every other
// channel fault.
package telegram

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	logx "taskchime/pkg/logx"
)

type Config struct {
	Token  string
	ChatID int64
	// RatePerSec bounds sends toward the Bot API. Defaults to 1.
	RatePerSec int
}

type Sink struct {
	bot    *tele.Bot
	chatID int64
	lim    *rate.Limiter
	log    logx.Logger
}

func New(cfg Config, log logx.Logger) (*Sink, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat_id is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	// Send-only: no poller, no update handling.
	b, err := tele.NewBot(tele.Settings{Token: cfg.Token})
	if err != nil {
		return nil, err
	}

	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	return &Sink{
		bot:    b,
		chatID: cfg.ChatID,
		lim:    rate.NewLimiter(rate.Limit(rps), rps),
		log:    log,
	}, nil
}

func (s *Sink) Name() string { return "telegram" }

// Send posts title+message as one text message, honoring the rate limit and
// the caller's deadline.
func (s *Sink) Send(ctx context.Context, title, message string) error {
	if err := s.lim.Wait(ctx); err != nil {
		return err
	}

	text := title
	if message != "" {
		text = title + "\n\n" + message
	}

	// telebot's Send has no context variant; race it against the deadline so
	// a stuck Bot API call cannot stall the dispatcher.
	done := make(chan error, 1)
	go func() {
		_, err := s.bot.Send(tele.ChatID(s.chatID), text, &tele.SendOptions{DisableWebPagePreview: true})
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return err
		}
		s.log.Debug("telegram notification sent", logx.Int64("chat_id", s.chatID))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
