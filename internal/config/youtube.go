package config

import "time"

// YouTube configures the external live-chat bid source. Optional; without an
// API key and live chat id the poll worker is not started.
type YouTube struct {
	APIKey       string        `env:"YOUTUBE_API_KEY"`
	LiveChatID   string        `env:"LIVE_CHAT_ID"`
	PollInterval time.Duration `env:"YOUTUBE_POLL_INTERVAL" envDefault:"5s"`
}

func (y YouTube) Enabled() bool {
	return y.APIKey != "" && y.LiveChatID != ""
}
