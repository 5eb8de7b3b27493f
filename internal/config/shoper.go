package config

import "time"

// Shoper is optional: with no URL or token the commerce integration degrades
// to disabled and closed auctions simply get no product URL.
type Shoper struct {
	APIURL   string        `env:"SHOPER_API_URL"`
	APIToken string        `env:"SHOPER_API_TOKEN"`
	Timeout  time.Duration `env:"SHOPER_TIMEOUT" envDefault:"15s"`

	ImportPollInterval time.Duration `env:"SHOPER_IMPORT_POLL_INTERVAL" envDefault:"2s"`
	ImportTimeout      time.Duration `env:"SHOPER_IMPORT_TIMEOUT" envDefault:"120s"`
}

func (s Shoper) Enabled() bool {
	return s.APIURL != "" && s.APIToken != ""
}
