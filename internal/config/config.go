// Package config loads the checkout gateway settings from a YAML file and
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/pricing"
)

// Adjustment kinds accepted in presets and requests.
const (
	KindDiscount  = "discount"
	KindSurcharge = "surcharge"
)

// Shipping policy names.
const (
	ShippingStandard = "standard"
	ShippingExpress  = "express"
)

// Inventory backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	HTTPAddr     string `yaml:"http_addr"`
	ServiceName  string `yaml:"service_name"`
	Environment  string `yaml:"environment"`
	LogLevel     string `yaml:"log_level"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	Redis     RedisConfig       `yaml:"redis"`
	Journal   JournalConfig     `yaml:"journal"`
	Shipping  ShippingConfig    `yaml:"shipping"`
	Presets   map[string]Preset `yaml:"adjustments"`
	Inventory InventoryConfig   `yaml:"inventory"`
}

type RedisConfig struct {
	// Addr empty means no Redis: idempotent replay stays in process.
	Addr           string        `yaml:"addr"`
	Prefix         string        `yaml:"prefix"`
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl"`
}

type JournalConfig struct {
	// Path empty keeps the journal in memory.
	Path string `yaml:"path"`
}

type RatesConfig struct {
	Base  string `yaml:"base"`
	PerKg string `yaml:"per_kg"`
}

type ShippingConfig struct {
	Standard RatesConfig `yaml:"standard"`
	Express  RatesConfig `yaml:"express"`
}

// Preset is a named price adjustment such as a payment-method discount.
type Preset struct {
	Kind  string `yaml:"kind"`
	Value string `yaml:"value"`
}

type InventoryConfig struct {
	Backend         string         `yaml:"backend"`
	Stock           map[string]int `yaml:"stock"`
	BreakerFailures uint32         `yaml:"breaker_failures"`
	BreakerTimeout  time.Duration  `yaml:"breaker_timeout"`
}

// Default mirrors the rates and presets of the reference store.
func Default() Config {
	return Config{
		HTTPAddr:    ":8080",
		ServiceName: "checkout-gateway",
		Environment: "local",
		LogLevel:    "info",
		Redis: RedisConfig{
			Prefix:         "flexorder",
			IdempotencyTTL: 24 * time.Hour,
		},
		Shipping: ShippingConfig{
			Standard: ratesConfig(pricing.DefaultStandardRates),
			Express:  ratesConfig(pricing.DefaultExpressRates),
		},
		Presets: map[string]Preset{
			"pix-discount": {Kind: KindDiscount, Value: "0.05"},
			"gift-wrap":    {Kind: KindSurcharge, Value: "10.00"},
		},
		Inventory: InventoryConfig{
			Backend:         BackendMemory,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
	}
}

func ratesConfig(r pricing.Rates) RatesConfig {
	return RatesConfig{Base: r.Base.String(), PerKg: r.PerKg.String()}
}

// Load starts from Default, merges the YAML file at path when path is not
// empty, applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.ServiceName = getEnv("SERVICE_NAME", c.ServiceName)
	c.Environment = getEnv("DEPLOY_ENV", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTLPEndpoint)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Prefix = getEnv("REDIS_PREFIX", c.Redis.Prefix)
	c.Journal.Path = getEnv("JOURNAL_PATH", c.Journal.Path)
	c.Inventory.Backend = getEnv("INVENTORY_BACKEND", c.Inventory.Backend)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http_addr is required"))
	}
	if c.ServiceName == "" {
		errs = append(errs, errors.New("service_name is required"))
	}
	for _, name := range []string{ShippingStandard, ShippingExpress} {
		if _, err := c.ShippingPolicy(name); err != nil {
			errs = append(errs, err)
		}
	}
	for _, name := range c.PresetNames() {
		if _, err := c.Presets[name].Adjustment(); err != nil {
			errs = append(errs, fmt.Errorf("adjustment %q: %w", name, err))
		}
	}
	switch c.Inventory.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("inventory backend redis needs redis.addr"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown inventory backend %q", c.Inventory.Backend))
	}
	for sku, qty := range c.Inventory.Stock {
		if qty < 0 {
			errs = append(errs, fmt.Errorf("stock for %q is negative", sku))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c Config) StandardRates() (pricing.Rates, error) {
	return c.Shipping.Standard.rates("shipping.standard")
}

func (c Config) ExpressRates() (pricing.Rates, error) {
	return c.Shipping.Express.rates("shipping.express")
}

// ShippingPolicy builds the named policy with the configured rates.
func (c Config) ShippingPolicy(name string) (pricing.ShippingPolicy, error) {
	switch name {
	case ShippingStandard:
		r, err := c.StandardRates()
		if err != nil {
			return nil, err
		}
		s, err := pricing.NewStandardShippingWithRates(r)
		if err != nil {
			return nil, err
		}
		return s, nil
	case ShippingExpress:
		r, err := c.ExpressRates()
		if err != nil {
			return nil, err
		}
		s, err := pricing.NewExpressShippingWithRates(r)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown shipping policy %q", name)
}

func (r RatesConfig) rates(field string) (pricing.Rates, error) {
	base, err := decimal.NewFromString(r.Base)
	if err != nil {
		return pricing.Rates{}, fmt.Errorf("%s.base: %w", field, err)
	}
	perKg, err := decimal.NewFromString(r.PerKg)
	if err != nil {
		return pricing.Rates{}, fmt.Errorf("%s.per_kg: %w", field, err)
	}
	return pricing.Rates{Base: base, PerKg: perKg}, nil
}

// PresetNames returns the configured preset names in sorted order.
func (c Config) PresetNames() []string {
	names := make([]string, 0, len(c.Presets))
	for name := range c.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Adjustment turns the preset into a chain constructor. The value is
// checked here; the range of a discount rate is checked when it wraps.
func (p Preset) Adjustment() (pricing.Adjustment, error) {
	return ParseAdjustment(p.Kind, p.Value)
}

func ParseAdjustment(kind, value string) (pricing.Adjustment, error) {
	v, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("value %q: %w", value, err)
	}
	switch strings.ToLower(kind) {
	case KindDiscount:
		if v.IsNegative() || v.GreaterThan(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("discount rate %s outside [0, 1]", v)
		}
		return pricing.Discount(v), nil
	case KindSurcharge:
		if v.IsNegative() {
			return nil, fmt.Errorf("surcharge fee %s is negative", v)
		}
		return pricing.Surcharge(v), nil
	}
	return nil, fmt.Errorf("unknown adjustment kind %q", kind)
}
