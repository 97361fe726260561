// Package config loads the register's YAML configuration and validates it
// against an embedded CUE schema before any of it reaches the engine.
//
// Tax and loyalty rules are externally supplied and read-only to the cart
// engine; this package is their supply channel.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue/cuecontext"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/tillworks/till/internal/pricing"
)

//go:embed schema.cue
var schemaCUE string

// Config is the validated, decoded configuration.
type Config struct {
	// DataDir is where the SQLite database lives.
	DataDir string
	// APIBaseURL is the external sales backend, e.g. "https://pos.example.com/api".
	APIBaseURL string
	Tax        pricing.TaxConfig
	Loyalty    pricing.LoyaltyConfig
}

// fileConfig is the raw YAML shape. Rates are strings: YAML floats would
// lose cents-level precision before decimal ever sees them.
type fileConfig struct {
	DataDir string `yaml:"data_dir"`
	API     struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"api"`
	Tax struct {
		Enabled     bool   `yaml:"enabled"`
		RatePercent string `yaml:"rate_percent"`
		Mode        string `yaml:"mode"`
	} `yaml:"tax"`
	Loyalty struct {
		Enabled                 bool   `yaml:"enabled"`
		EarnRatePerCurrencyUnit string `yaml:"earn_rate_per_currency_unit"`
		RedeemValuePer100Points string `yaml:"redeem_value_per_100_points"`
	} `yaml:"loyalty"`
}

// Default returns the configuration used when no file is given: local data
// file, local backend, tax and loyalty disabled.
func Default() Config {
	return Config{
		DataDir:    "till.db",
		APIBaseURL: "http://127.0.0.1:8000/api",
		Tax:        pricing.TaxConfig{Mode: pricing.TaxExclusive},
	}
}

// Load reads, schema-validates, and decodes the config file at path.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(raw)
}

// Parse validates and decodes raw YAML config bytes.
func Parse(raw []byte) (Config, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	if err := validateAgainstSchema(doc); err != nil {
		return Config{}, err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return fc.toConfig()
}

// validateAgainstSchema unifies the decoded document with the embedded CUE
// schema so shape errors surface with field paths before decoding.
func validateAgainstSchema(doc map[string]any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	unified := schema.Unify(ctx.Encode(doc))
	if err := unified.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (fc fileConfig) toConfig() (Config, error) {
	cfg := Default()
	if fc.DataDir != "" {
		cfg.DataDir = fc.DataDir
	}
	if fc.API.BaseURL != "" {
		cfg.APIBaseURL = fc.API.BaseURL
	}

	cfg.Tax.Enabled = fc.Tax.Enabled
	if fc.Tax.Mode != "" {
		cfg.Tax.Mode = pricing.TaxMode(fc.Tax.Mode)
	}
	var err error
	if cfg.Tax.RatePercent, err = parseRate(fc.Tax.RatePercent); err != nil {
		return Config{}, fmt.Errorf("tax.rate_percent: %w", err)
	}

	cfg.Loyalty.Enabled = fc.Loyalty.Enabled
	if cfg.Loyalty.EarnRatePerCurrencyUnit, err = parseRate(fc.Loyalty.EarnRatePerCurrencyUnit); err != nil {
		return Config{}, fmt.Errorf("loyalty.earn_rate_per_currency_unit: %w", err)
	}
	if cfg.Loyalty.RedeemValuePer100Points, err = parseRate(fc.Loyalty.RedeemValuePer100Points); err != nil {
		return Config{}, fmt.Errorf("loyalty.redeem_value_per_100_points: %w", err)
	}

	return cfg, nil
}

func parseRate(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("rate %s is negative", s)
	}
	return d, nil
}
