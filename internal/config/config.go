package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/tradecockpit/cockpit/internal/model"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port string `yaml:"port"`
}

const _portDefault = "8080"

func (c *ServerConfig) Setup() {
	if c.Port == "" {
		c.Port = _portDefault
	}
}

type QuotesConfig struct {
	SparkURL          string        `yaml:"spark_url"`
	QuoteURL          string        `yaml:"quote_url"`
	UserAgent         string        `yaml:"user_agent"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
}

const (
	_sparkURLDefault          = "https://query1.finance.yahoo.com/v8/finance/spark"
	_quoteURLDefault          = "https://query1.finance.yahoo.com/v7/finance/quote"
	_userAgentDefault         = "Mozilla/5.0"
	_quoteTimeoutDefault      = 15 * time.Second
	_requestsPerMinuteDefault = 60
)

func (c *QuotesConfig) Setup() error {
	if c.SparkURL == "" {
		c.SparkURL = _sparkURLDefault
	}
	if c.QuoteURL == "" {
		c.QuoteURL = _quoteURLDefault
	}
	if _, err := url.Parse(c.SparkURL); err != nil {
		return fmt.Errorf("%w: invalid spark url", err)
	}
	if _, err := url.Parse(c.QuoteURL); err != nil {
		return fmt.Errorf("%w: invalid quote url", err)
	}
	if c.UserAgent == "" {
		c.UserAgent = _userAgentDefault
	}
	if c.Timeout <= 0 {
		c.Timeout = _quoteTimeoutDefault
	}
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = _requestsPerMinuteDefault
	}
	return nil
}

type SessionConfig struct {
	Location    string `yaml:"location"`
	OpenMinute  int    `yaml:"open_minute"`
	CloseMinute int    `yaml:"close_minute"`
}

const (
	_sessionLocationDefault = "America/New_York"
	_sessionOpenDefault     = 9*60 + 30
	_sessionCloseDefault    = 16 * 60
)

func (c *SessionConfig) Setup() {
	if c.Location == "" {
		c.Location = _sessionLocationDefault
	}
	if c.OpenMinute <= 0 {
		c.OpenMinute = _sessionOpenDefault
	}
	if c.CloseMinute <= 0 {
		c.CloseMinute = _sessionCloseDefault
	}
}

type CockpitConfig struct {
	Server          ServerConfig      `yaml:"server"`
	Quotes          QuotesConfig      `yaml:"quotes"`
	Session         SessionConfig     `yaml:"session"`
	RefreshInterval time.Duration     `yaml:"refresh_interval"`
	RiskPercent     model.RiskPercent `yaml:"risk_percent"`
	Accounts        []model.Account   `yaml:"accounts"`
}

const _refreshIntervalDefault = 60 * time.Second

// Accounts seeded on first start when the accounts table is empty.
var _accountsDefault = []model.Account{
	{ID: "ira", Name: "IRA", Color: "#4F8EF7", Balance: 42000},
	{ID: "tasty", Name: "Tasty", Color: "#E5A24A", Balance: 28000},
	{ID: "inherited", Name: "Inherited IRA", Color: "#6BCB77", Balance: 24000},
}

func (c *CockpitConfig) ValidateAndSetup() error {
	c.Server.Setup()
	if err := c.Quotes.Setup(); err != nil {
		return fmt.Errorf("%w: can't setup quotes cfg", err)
	}
	c.Session.Setup()

	if c.RefreshInterval <= 0 {
		c.RefreshInterval = _refreshIntervalDefault
	}

	if c.RiskPercent == 0 {
		c.RiskPercent = model.RiskOnePercent
	}
	if !c.RiskPercent.Valid() {
		return fmt.Errorf("invalid risk percent %v, allowed: %v", c.RiskPercent, model.RiskPercentOptions)
	}

	if len(c.Accounts) == 0 {
		c.Accounts = _accountsDefault
	}
	for _, a := range c.Accounts {
		if a.ID == "" || a.Name == "" {
			return fmt.Errorf("account requires id and name: %+v", a)
		}
		if a.Balance < 0 {
			return fmt.Errorf("negative balance for account %s", a.ID)
		}
	}

	return nil
}

func LoadCockpitConfig(filename string) (CockpitConfig, error) {
	var cfg CockpitConfig
	input, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("%w: can't read file", err)
	}

	if err := yaml.Unmarshal(input, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: can't unmarshal config", err)
	}

	if err := cfg.ValidateAndSetup(); err != nil {
		return cfg, fmt.Errorf("%w: can't setup cfg", err)
	}

	return cfg, nil
}
