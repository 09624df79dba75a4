package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradecockpit/cockpit/internal/model"
)

func TestValidateAndSetupDefaults(t *testing.T) {
	var cfg CockpitConfig
	require.NoError(t, cfg.ValidateAndSetup())

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "https://query1.finance.yahoo.com/v8/finance/spark", cfg.Quotes.SparkURL)
	assert.Equal(t, "America/New_York", cfg.Session.Location)
	assert.Equal(t, 9*60+30, cfg.Session.OpenMinute)
	assert.Equal(t, 16*60, cfg.Session.CloseMinute)
	assert.Equal(t, 60*time.Second, cfg.RefreshInterval)
	assert.Equal(t, model.RiskOnePercent, cfg.RiskPercent)

	require.Len(t, cfg.Accounts, 3)
	assert.Equal(t, "ira", cfg.Accounts[0].ID)
	assert.InDelta(t, 42000.0, cfg.Accounts[0].Balance, 1e-9)
}

func TestValidateAndSetupRejectsBadValues(t *testing.T) {
	cfg := CockpitConfig{RiskPercent: 3.0}
	assert.Error(t, cfg.ValidateAndSetup())

	cfg = CockpitConfig{Accounts: []model.Account{{ID: "ira"}}}
	assert.Error(t, cfg.ValidateAndSetup())

	cfg = CockpitConfig{Accounts: []model.Account{{ID: "ira", Name: "IRA", Balance: -1}}}
	assert.Error(t, cfg.ValidateAndSetup())
}
