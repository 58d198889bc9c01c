package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the service configuration, loaded once at startup.
// The api and stock_adjustment sections are required; everything else
// has defaults.
type Config struct {
	Listen        string `yaml:"listen"`
	CatalogPath   string `yaml:"catalog_path"`
	EmployeesPath string `yaml:"employees_path"`
	TemplatePath  string `yaml:"template_path"`
	ReceiptDir    string `yaml:"receipt_dir"`

	API             APIConfig             `yaml:"api"`
	StockAdjustment StockAdjustmentConfig `yaml:"stock_adjustment"`
}

// APIConfig carries the inventory API credentials and the flag that
// enables stock adjustment on commit.
type APIConfig struct {
	AppKey      string `yaml:"app_key"`
	AppSecret   string `yaml:"app_secret"`
	AdjustStock bool   `yaml:"adjust_stock"`
}

// StockAdjustmentConfig points at the adjustment endpoint.
type StockAdjustmentConfig struct {
	URL string `yaml:"url"`
}

// Load reads and validates the configuration file. A missing file,
// missing section or missing required key is fatal at startup: the
// service must not come up half-configured and fail per commit instead.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &Config{
		Listen:        ":8081",
		CatalogPath:   "data/catalog.csv",
		EmployeesPath: "data/employees.csv",
		TemplatePath:  "tpl/receipt.tpl",
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.API == (APIConfig{}) {
		return nil, fmt.Errorf("config %s: missing required section \"api\"", path)
	}
	if cfg.StockAdjustment == (StockAdjustmentConfig{}) {
		return nil, fmt.Errorf("config %s: missing required section \"stock_adjustment\"", path)
	}
	if cfg.API.AppKey == "" || cfg.API.AppSecret == "" {
		return nil, fmt.Errorf("config %s: api section requires app_key and app_secret", path)
	}
	if cfg.StockAdjustment.URL == "" {
		return nil, fmt.Errorf("config %s: stock_adjustment section requires url", path)
	}
	return cfg, nil
}
