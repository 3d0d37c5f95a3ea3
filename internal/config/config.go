package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// sellingAtLayout is the wall-clock format of SELLING_AT, interpreted in the
// process-local timezone.
const sellingAtLayout = "2006-01-02 15:04:05"

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken      string `envconfig:"TG_BOT_TOKEN" required:"true"`
	ProviderToken string `envconfig:"PROVIDER_TOKEN" required:"true"`
	DBPath        string `envconfig:"DB_PATH" default:"./data/marketing.db"`

	SellingAtRaw   string        `envconfig:"SELLING_AT" required:"true"` // "2006-01-02 15:04:05"
	FollowupOffset time.Duration `envconfig:"FOLLOWUP_OFFSET" default:"16h"`
	PollInterval   time.Duration `envconfig:"POLL_INTERVAL" default:"30s"`

	Price    int    `envconfig:"PRICE" default:"4990"` // major currency units
	Currency string `envconfig:"CURRENCY" default:"RUB"`

	PromoPhotoPath string `envconfig:"PROMO_PHOTO_PATH" default:"./assets/team.jpg"`
	PromoFilePath  string `envconfig:"PROMO_FILE_PATH" default:"./assets/program.pdf"`

	SheetCredentials string `envconfig:"SHEET_CREDENTIALS" default:""`
	SheetID          string `envconfig:"SHEET_ID" default:""` // empty disables export
	SheetRange       string `envconfig:"SHEET_RANGE" default:"Sheet1!A:G"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"` // healthz

	// SellingAt is parsed from SellingAtRaw by Load.
	SellingAt time.Time `ignored:"true"`
}

// Load reads environment variables into Config and parses the campaign instant.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	at, err := time.ParseInLocation(sellingAtLayout, cfg.SellingAtRaw, time.Local)
	if err != nil {
		return cfg, fmt.Errorf("parse SELLING_AT: %w", err)
	}
	cfg.SellingAt = at
	if cfg.FollowupOffset <= 0 {
		return cfg, fmt.Errorf("FOLLOWUP_OFFSET must be positive")
	}
	if cfg.PollInterval <= 0 {
		return cfg, fmt.Errorf("POLL_INTERVAL must be positive")
	}
	return cfg, nil
}
