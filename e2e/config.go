package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ValidToken string `envconfig:"E2E_VALID_TOKEN" default:"e2e-account-hash"`
	Nickname   string `envconfig:"E2E_NICKNAME" default:"E2E Ranger"`
	// E2E_STEP_TIMEOUT bounds every blocking wait inside a scenario step
	StepTimeout time.Duration `envconfig:"E2E_STEP_TIMEOUT" default:"5s"`
	LogLevel    string        `envconfig:"E2E_LOG_LEVEL" default:"DEBUG"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
