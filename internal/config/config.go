package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config is the marketd service configuration. Values load from YAML
// and may be overridden by environment variables (MARKETD_*).
type Config struct {
	Listen  string `yaml:"listen"`
	DataDir string `yaml:"data_dir"`

	Gateway struct {
		BaseURL        string `yaml:"base_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"gateway"`

	// MinDeposit is the smallest deposit accepted when listing a sale.
	MinDeposit string `yaml:"min_deposit"`
	// TransferMemo is attached to gateway transfer requests.
	TransferMemo string `yaml:"transfer_memo"`

	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

func Default() Config {
	var cfg Config
	cfg.Listen = ":8080"
	cfg.DataDir = "data"
	cfg.Gateway.TimeoutSeconds = 30
	cfg.MinDeposit = "0.1"
	cfg.Log.Level = "info"
	return cfg
}

// Load reads the YAML file at path over the defaults. A missing file is
// fine; env overrides still apply.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, errors.Wrap(err, "config: read file")
			}
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, errors.Wrap(err, "config: parse yaml")
		}
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	if v := os.Getenv("MARKETD_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("MARKETD_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("MARKETD_GATEWAY_URL"); v != "" {
		c.Gateway.BaseURL = v
	}
	if v := os.Getenv("MARKETD_MIN_DEPOSIT"); v != "" {
		c.MinDeposit = v
	}
	if v := os.Getenv("MARKETD_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("MARKETD_LOG_FILE"); v != "" {
		c.Log.File = v
	}
}

func (c *Config) Validate() error {
	if c.Gateway.BaseURL == "" {
		return errors.New("config: gateway.base_url is required")
	}
	if _, err := c.MinDepositAmount(); err != nil {
		return err
	}
	return nil
}

func (c *Config) GatewayTimeout() time.Duration {
	return time.Duration(c.Gateway.TimeoutSeconds) * time.Second
}

func (c *Config) MinDepositAmount() (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(c.MinDeposit)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "config: min_deposit")
	}
	if amount.IsNegative() {
		return decimal.Zero, errors.New("config: min_deposit must not be negative")
	}
	return amount, nil
}
