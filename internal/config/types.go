package config

// Config is taskchime's on-disk configuration. Both YAML and JSON are
// accepted; unknown fields are rejected so typos surface immediately.
type Config struct {
	Logging       LoggingConfig       `json:"logging"`
	Notifications NotificationsConfig `json:"notifications"`

	// Serve configures daemon mode (scheduled chimes). Ignored by run/test.
	Serve *ServeConfig `json:"serve,omitempty"`

	// History enables the optional sqlite dispatch journal.
	History *HistoryConfig `json:"history,omitempty"`

	// Telegram enables an extra delivery channel beyond sound and toast.
	Telegram *TelegramConfig `json:"telegram,omitempty"`
}

type LoggingConfig struct {
	Level string `json:"level,omitempty"`
	// Console is a pointer so "omitted" (default on) is distinguishable
	// from an explicit false.
	Console *bool         `json:"console,omitempty"`
	File    FileLogConfig `json:"file,omitempty"`
}

type FileLogConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

// NotificationsConfig is the dispatch policy. Both channels default to
// enabled when omitted.
type NotificationsConfig struct {
	SoundEnabled *bool `json:"sound_enabled,omitempty"`
	PushEnabled  *bool `json:"push_enabled,omitempty"`

	// SoundFile overrides the generated chime with a user-supplied file.
	SoundFile string `json:"sound_file,omitempty"`
}

func (n NotificationsConfig) Sound() bool { return n.SoundEnabled == nil || *n.SoundEnabled }
func (n NotificationsConfig) Push() bool  { return n.PushEnabled == nil || *n.PushEnabled }

type ServeConfig struct {
	// Timezone for chime schedules, IANA name. Empty means local time.
	Timezone string        `json:"timezone,omitempty"`
	Chimes   []ChimeConfig `json:"chimes,omitempty"`
}

// ChimeConfig is one scheduled notification in serve mode.
type ChimeConfig struct {
	// Spec is a cron expression; a leading seconds field is optional.
	Spec    string `json:"spec"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
}

type HistoryConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
	// MaxRows caps the journal; oldest rows are pruned past it.
	MaxRows int `json:"max_rows,omitempty"`
}

type TelegramConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token,omitempty"`
	ChatID  int64  `json:"chat_id,omitempty"`
	// RatePerSec bounds sends toward the Bot API. Defaults to 1.
	RatePerSec int `json:"rate_per_sec,omitempty"`
}
