package config

import "time"

// Defaults used when neither a flag, the environment nor a config file
// supplies a value.
const (
	DefaultServerURL        = "http://localhost:5000"
	DefaultStatsURL         = "http://localhost:5001"
	DefaultRevealIntervalMS = 40
	DefaultErrorText        = "Sunucuya bağlanılamadı."
	DefaultKioskTitle       = "Konya Numune Hastanesi"
	DefaultKioskSubtitle    = "Size nasıl yardımcı olabiliriz? Sağ alttaki sohbet simgesine dokunun."
)

// Config is the tibbi.yaml schema.
type Config struct {
	Server ServerConfig `yaml:"server" toml:"server" json:"server"`
	Stats  StatsConfig  `yaml:"stats" toml:"stats" json:"stats"`
	Chat   ChatConfig   `yaml:"chat" toml:"chat" json:"chat"`
	Notify NotifyConfig `yaml:"notify" toml:"notify" json:"notify"`
	Kiosk  KioskConfig  `yaml:"kiosk" toml:"kiosk" json:"kiosk"`
}

// ServerConfig locates the chat backend.
type ServerConfig struct {
	URL string `yaml:"url" toml:"url" json:"url"`
}

// StatsConfig locates the statistics backend.
type StatsConfig struct {
	URL string `yaml:"url" toml:"url" json:"url"`
}

type ChatConfig struct {
	// RevealIntervalMS is the delay between revealed characters.
	RevealIntervalMS int `yaml:"reveal_interval_ms" toml:"reveal_interval_ms" json:"reveal_interval_ms"`
	// ErrorText replaces the reply when a request fails.
	ErrorText string `yaml:"error_text" toml:"error_text" json:"error_text"`
}

type NotifyConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled" json:"enabled"`
	// SoundFile overrides the built-in chime.
	SoundFile string `yaml:"sound_file" toml:"sound_file" json:"sound_file"`
}

// KioskConfig holds the texts on the background panel.
type KioskConfig struct {
	Title    string `yaml:"title" toml:"title" json:"title"`
	Subtitle string `yaml:"subtitle" toml:"subtitle" json:"subtitle"`
}

// Default returns a Config with every field at its default.
func Default() *Config {
	return &Config{
		Server: ServerConfig{URL: DefaultServerURL},
		Stats:  StatsConfig{URL: DefaultStatsURL},
		Chat: ChatConfig{
			RevealIntervalMS: DefaultRevealIntervalMS,
			ErrorText:        DefaultErrorText,
		},
		Notify: NotifyConfig{Enabled: true},
		Kiosk: KioskConfig{
			Title:    DefaultKioskTitle,
			Subtitle: DefaultKioskSubtitle,
		},
	}
}

// RevealInterval returns Chat.RevealIntervalMS as a duration.
func (c *Config) RevealInterval() time.Duration {
	return time.Duration(c.Chat.RevealIntervalMS) * time.Millisecond
}
