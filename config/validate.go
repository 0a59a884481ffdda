package config

import (
	"fmt"
	"net/url"

	"github.com/Klingon-tech/klingnet-wallet/pkg/types"
	"github.com/shopspring/decimal"
)

// Validate checks wallet config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Testnet {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}
	if err := validateURL(cfg.Node.URL, "node.url"); err != nil {
		return err
	}
	if err := validateURL(cfg.Mirror.URL, "mirror.url"); err != nil {
		return err
	}
	if cfg.Node.Timeout <= 0 {
		return fmt.Errorf("node.timeout must be positive")
	}
	if cfg.Mirror.Timeout <= 0 {
		return fmt.Errorf("mirror.timeout must be positive")
	}

	if cfg.Fee.PercentageCut != "" && cfg.Fee.PercentageCut != "0" {
		cut, err := decimal.NewFromString(cfg.Fee.PercentageCut)
		if err != nil {
			return fmt.Errorf("fee.cut must be a decimal percentage: %w", err)
		}
		if cut.IsNegative() || cut.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("fee.cut must be in range [0, 100]")
		}
		if cut.IsPositive() {
			if cfg.Fee.Collector == "" {
				return fmt.Errorf("fee.cut requires fee.collector")
			}
			if _, err := types.ParseAccountID(cfg.Fee.Collector); err != nil {
				return fmt.Errorf("fee.collector: %w", err)
			}
		}
	}

	return nil
}

func validateURL(raw, field string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be a valid http(s) URL", field)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https", field)
	}
	return nil
}
