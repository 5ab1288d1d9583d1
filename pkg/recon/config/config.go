// Package config loads the application configuration and the per-country
// reconciliation rules from YAML documents.
package config

import (
	"errors"
	"fmt"
	"time"
)

// App holds the global application configuration.
type App struct {
	// CheckpointPath is the recovery document location.
	CheckpointPath string `yaml:"checkpoint_path"`

	// DataDir holds raw exports and binary dataset caches between stages.
	DataDir string `yaml:"data_dir"`

	// ExportDir is where pre-exported raw dumps are picked up. Must not
	// be the data directory; finished runs clean that one up.
	ExportDir string `yaml:"export_dir"`

	// ReportDir is where finished reconciliation workbooks are written.
	ReportDir string `yaml:"report_dir"`

	// LedgerPath is the GL item database location.
	LedgerPath string `yaml:"ledger_path"`

	// LogLevel controls verbosity: debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// RatePortalURL is the exchange rate portal endpoint. When empty,
	// runs need a manually entered rate.
	RatePortalURL string `yaml:"rate_portal_url"`

	// RateTimeout bounds the first exchange-rate request.
	RateTimeout time.Duration `yaml:"rate_timeout"`

	// RateRetryTimeout bounds the single extended retry.
	RateRetryTimeout time.Duration `yaml:"rate_retry_timeout"`

	// RateMaxLookbackDays is how many days back a missing rate may be
	// substituted from. Never applies on the day after ultimo.
	RateMaxLookbackDays int `yaml:"rate_max_lookback_days"`

	// ParseWorkers is the fork-join worker count for large exports.
	ParseWorkers int `yaml:"parse_workers"`

	// ParseChunkThreshold is the row count above which exports are parsed
	// in parallel chunks.
	ParseChunkThreshold int `yaml:"parse_chunk_threshold"`

	// Holidays are non-business days shared by all countries, as
	// YYYY-MM-DD strings.
	Holidays []string `yaml:"holidays"`

	// Categories is the whitelist of known bonus category codes. Codes
	// outside the list produce a warning, not a failure.
	Categories []string `yaml:"categories"`
}

// Rule holds the reconciliation rules for one country.
type Rule struct {
	// Country is the country name used in exports and checkpoints.
	Country string `yaml:"country"`

	// Active excludes the country from runs when false, without deleting
	// its rules.
	Active bool `yaml:"active"`

	// CompanyCode is the SAP company code.
	CompanyCode string `yaml:"company_code"`

	// Accounts are the GL accounts reconciled for this country.
	Accounts []string `yaml:"accounts"`

	// LocalCurrency is the entity's booking currency.
	LocalCurrency string `yaml:"local_currency"`

	// SalesOrgLocal identifies locally negotiated agreements.
	SalesOrgLocal string `yaml:"sales_org_local"`

	// SalesOrgHQ identifies headquarters negotiated agreements.
	SalesOrgHQ string `yaml:"sales_org_hq"`

	// SalesOffices filter the headquarters extract.
	SalesOffices []string `yaml:"sales_offices"`

	// ConsolidateScopes enables the HQ versus local agreement
	// consolidation for entities booking both scopes on one ledger.
	ConsolidateScopes bool `yaml:"consolidate_scopes"`

	// Accountants receive the closing notification.
	Accountants []string `yaml:"accountants"`
}

// Defaults applied when the YAML leaves fields unset.
const (
	defaultLogLevel            = "info"
	defaultRateTimeout         = 30 * time.Second
	defaultRateRetryTimeout    = 60 * time.Second
	defaultRateMaxLookbackDays = 5
	defaultParseWorkers        = 5
	defaultParseChunkThreshold = 1000
)

func (a *App) applyDefaults() {
	if a.LogLevel == "" {
		a.LogLevel = defaultLogLevel
	}
	if a.RateTimeout == 0 {
		a.RateTimeout = defaultRateTimeout
	}
	if a.RateRetryTimeout == 0 {
		a.RateRetryTimeout = defaultRateRetryTimeout
	}
	if a.RateMaxLookbackDays == 0 {
		a.RateMaxLookbackDays = defaultRateMaxLookbackDays
	}
	if a.ParseWorkers == 0 {
		a.ParseWorkers = defaultParseWorkers
	}
	if a.ParseChunkThreshold == 0 {
		a.ParseChunkThreshold = defaultParseChunkThreshold
	}
}

func (a *App) validate() error {
	if a.CheckpointPath == "" {
		return errors.New("checkpoint_path is required")
	}
	if a.DataDir == "" {
		return errors.New("data_dir is required")
	}
	if a.LedgerPath == "" {
		return errors.New("ledger_path is required")
	}
	for _, h := range a.Holidays {
		if _, err := time.Parse("2006-01-02", h); err != nil {
			return fmt.Errorf("invalid holiday %q: %w", h, err)
		}
	}
	return nil
}

// HolidayDates returns the parsed shared holidays.
func (a *App) HolidayDates() []time.Time {
	out := make([]time.Time, 0, len(a.Holidays))
	for _, h := range a.Holidays {
		d, err := time.Parse("2006-01-02", h)
		if err != nil {
			continue // rejected at load time
		}
		out = append(out, d)
	}
	return out
}

func (r *Rule) validate() error {
	if r.Country == "" {
		return errors.New("country is required")
	}
	if r.CompanyCode == "" {
		return fmt.Errorf("rule %s: company_code is required", r.Country)
	}
	if len(r.Accounts) == 0 {
		return fmt.Errorf("rule %s: at least one account is required", r.Country)
	}
	if r.LocalCurrency == "" {
		return fmt.Errorf("rule %s: local_currency is required", r.Country)
	}
	return nil
}
