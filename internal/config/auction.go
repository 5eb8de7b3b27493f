package config

import "time"

// Auction holds the countdown/read-model timings and the local directories the
// pipeline writes to. The tick interval bounds the expiry detection error: the
// close fires within one tick of the computed end time, which is intended.
type Auction struct {
	TickInterval    time.Duration `env:"AUCTION_TICK_INTERVAL" envDefault:"500ms"`
	RefreshInterval time.Duration `env:"AUCTION_REFRESH_INTERVAL" envDefault:"1s"`

	SnapshotDir  string `env:"SNAPSHOT_DIR" envDefault:"templates"`
	OrdersDir    string `env:"ORDERS_DIR" envDefault:"orders"`
	ScansDir     string `env:"SCANS_DIR" envDefault:"scans"`
	BaseImageURL string `env:"BASE_IMAGE_URL"`
}
