package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadApp(t *testing.T) {
	path := writeFile(t, "config.yaml", `
checkpoint_path: /var/recon/recovery.json
data_dir: /var/recon/data
report_dir: /var/recon/reports
ledger_path: /var/recon/ledger.db
log_level: debug
rate_timeout: 20s
holidays:
  - "2026-01-01"
  - "2026-12-25"
categories:
  - "10"
  - "20"
`)

	app, err := LoadApp(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/recon/recovery.json", app.CheckpointPath)
	assert.Equal(t, "debug", app.LogLevel)
	assert.Equal(t, 20*time.Second, app.RateTimeout)

	// Defaults fill what the file omits
	assert.Equal(t, 60*time.Second, app.RateRetryTimeout)
	assert.Equal(t, 5, app.RateMaxLookbackDays)
	assert.Equal(t, 5, app.ParseWorkers)
	assert.Equal(t, 1000, app.ParseChunkThreshold)

	holidays := app.HolidayDates()
	require.Len(t, holidays, 2)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), holidays[0])
}

func TestLoadApp_MissingRequired(t *testing.T) {
	path := writeFile(t, "config.yaml", `
data_dir: /var/recon/data
ledger_path: /var/recon/ledger.db
`)

	_, err := LoadApp(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checkpoint_path")
}

func TestLoadApp_BadHoliday(t *testing.T) {
	path := writeFile(t, "config.yaml", `
checkpoint_path: /var/recon/recovery.json
data_dir: /var/recon/data
ledger_path: /var/recon/ledger.db
holidays:
  - "25.12.2026"
`)

	_, err := LoadApp(path)
	assert.Error(t, err)
}

const rulesYAML = `
rules:
  - country: Sweden
    active: true
    company_code: "2002"
    accounts: ["12345678", "87654321"]
    local_currency: SEK
    sales_org_local: "2002"
    sales_org_hq: "0001"
    sales_offices: ["SE1"]
    accountants: ["se-accounting@example.com"]
  - country: Germany
    active: true
    company_code: "1001"
    accounts: ["12345678"]
    local_currency: EUR
    sales_org_local: "1001"
    sales_org_hq: "0001"
    consolidate_scopes: true
    accountants: ["de-accounting@example.com"]
  - country: Norway
    active: false
    company_code: "2003"
    accounts: ["12345678"]
    local_currency: NOK
`

func TestLoadRules(t *testing.T) {
	path := writeFile(t, "rules.yaml", rulesYAML)

	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 3)

	assert.Equal(t, "Sweden", rules[0].Country)
	assert.Equal(t, "2002", rules[0].CompanyCode)
	assert.False(t, rules[0].ConsolidateScopes)
	assert.True(t, rules[1].ConsolidateScopes)

	active := ActiveRules(rules)
	require.Len(t, active, 2)
	assert.Equal(t, "Sweden", active[0].Country)
	assert.Equal(t, "Germany", active[1].Country)
}

func TestLoadRules_DuplicateCountry(t *testing.T) {
	path := writeFile(t, "rules.yaml", `
rules:
  - country: Sweden
    company_code: "2002"
    accounts: ["12345678"]
    local_currency: SEK
  - country: Sweden
    company_code: "2002"
    accounts: ["12345678"]
    local_currency: SEK
`)

	_, err := LoadRules(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate country")
}

func TestLoadRules_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no rules", "rules: []"},
		{"missing company code", `
rules:
  - country: Sweden
    accounts: ["12345678"]
    local_currency: SEK
`},
		{"missing accounts", `
rules:
  - country: Sweden
    company_code: "2002"
    local_currency: SEK
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "rules.yaml", tt.yaml)
			_, err := LoadRules(path)
			assert.Error(t, err)
		})
	}
}
