package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// GLAccounts holds the GL account numbers the bridge rules post against.
type GLAccounts struct {
	VoucherAccrual     string `yaml:"voucher_accrual" validate:"required"`
	Bank               string `yaml:"bank" validate:"required"`
	CustomerReceivable string `yaml:"customer_receivable" validate:"required"`
	RefundLiability    string `yaml:"refund_liability" validate:"required"`
	MarketingExpense   string `yaml:"marketing_expense" validate:"required"`
	VoucherBreakage    string `yaml:"voucher_breakage" validate:"required"`
}

// Config is the engine configuration. It is built once per run and handed by
// value to every component; components never modify it.
type Config struct {
	NonMarketingBusinessUses []string           `yaml:"non_marketing_business_uses" validate:"required,min=1,dive,required"`
	VoucherAccrualAccounts   []string           `yaml:"voucher_accrual_accounts" validate:"dive,required"`
	Companies                []string           `yaml:"companies" validate:"dive,required"`
	GLAccounts               GLAccounts         `yaml:"gl_accounts"`
	VarianceThreshold        float64            `yaml:"variance_threshold" validate:"gt=0"`
	ReclassEpsilon           float64            `yaml:"reclass_epsilon" validate:"gte=0"`
	RestrictVTCToCutoffMonth bool               `yaml:"restrict_vtc_to_cutoff_month"`
	ReportingCurrency        string             `yaml:"reporting_currency" validate:"required_with=FXRates"`
	FXRates                  map[string]float64 `yaml:"fx_rates" validate:"dive,keys,required,endkeys,gt=0"`
	LogLevel                 string             `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn warning error"`
	LogFormat                string             `yaml:"log_format" validate:"omitempty,oneof=json text"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		NonMarketingBusinessUses: []string{"apology_v2", "jforce", "refund", "store_credit", "Jpay store_credit"},
		VoucherAccrualAccounts:   []string{"18412"},
		GLAccounts: GLAccounts{
			VoucherAccrual:     "18412",
			Bank:               "18010",
			CustomerReceivable: "13003",
			RefundLiability:    "18317",
			MarketingExpense:   "65010",
			VoucherBreakage:    "71010",
		},
		VarianceThreshold: 1000,
		ReclassEpsilon:    0.01,
		LogLevel:          "info",
		LogFormat:         "json",
	}
}

// LoadConfig reads an optional .env file, an optional YAML file named by
// RECON_CONFIG_FILE, then applies RECON_* environment overrides.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if path := strings.TrimSpace(os.Getenv("RECON_CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v, ok := lookupEnv("RECON_NON_MARKETING"); ok {
		cfg.NonMarketingBusinessUses = splitList(v)
	}
	if v, ok := lookupEnv("RECON_GL_ACCOUNTS"); ok {
		cfg.VoucherAccrualAccounts = splitList(v)
	}
	if v, ok := lookupEnv("RECON_COMPANIES"); ok {
		cfg.Companies = splitList(v)
	}
	if v, ok := lookupEnv("RECON_VARIANCE_THRESHOLD"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RECON_VARIANCE_THRESHOLD: %w", err)
		}
		cfg.VarianceThreshold = f
	}
	if v, ok := lookupEnv("RECON_RECLASS_EPSILON"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RECON_RECLASS_EPSILON: %w", err)
		}
		cfg.ReclassEpsilon = f
	}
	if v, ok := lookupEnv("RECON_RESTRICT_VTC_MONTH"); ok {
		v = strings.ToLower(v)
		cfg.RestrictVTCToCutoffMonth = v == "1" || v == "true" || v == "yes" || v == "y"
	}
	if v, ok := lookupEnv("RECON_REPORTING_CURRENCY"); ok {
		cfg.ReportingCurrency = strings.ToUpper(v)
	}
	if v, ok := lookupEnv("RECON_FX_RATES"); ok {
		rates, err := parseRates(v)
		if err != nil {
			return fmt.Errorf("RECON_FX_RATES: %w", err)
		}
		cfg.FXRates = rates
	}
	if v, ok := lookupEnv("LOG_LEVEL"); ok {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookupEnv("LOG_FORMAT"); ok {
		cfg.LogFormat = strings.ToLower(v)
	}
	return nil
}

// Validate checks the configuration with struct tags.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Clone returns a deep copy so a component can hold it without aliasing the caller's slices.
func (c Config) Clone() Config {
	out := c
	out.NonMarketingBusinessUses = append([]string(nil), c.NonMarketingBusinessUses...)
	out.VoucherAccrualAccounts = append([]string(nil), c.VoucherAccrualAccounts...)
	out.Companies = append([]string(nil), c.Companies...)
	if c.FXRates != nil {
		out.FXRates = make(map[string]float64, len(c.FXRates))
		for k, v := range c.FXRates {
			out.FXRates[k] = v
		}
	}
	return out
}

// IsNonMarketing reports whether a voucher business use belongs to the
// Non-Marketing set. Comparison is trimmed and case-insensitive.
func (c Config) IsNonMarketing(businessUse string) bool {
	return containsFold(c.NonMarketingBusinessUses, businessUse)
}

// InScopeAccount reports whether a GL account is in the voucher accrual scope.
// An empty scope list accepts every account.
func (c Config) InScopeAccount(account string) bool {
	if len(c.VoucherAccrualAccounts) == 0 {
		return true
	}
	return containsFold(c.VoucherAccrualAccounts, account)
}

// InScopeCompany reports whether a company is in scope. An empty list accepts all.
func (c Config) InScopeCompany(company string) bool {
	if len(c.Companies) == 0 {
		return true
	}
	return containsFold(c.Companies, company)
}

// FXRate returns the rate converting a company's local currency into the
// reporting currency. ok is false when no conversion is configured.
func (c Config) FXRate(company string) (float64, bool) {
	if c.ReportingCurrency == "" || len(c.FXRates) == 0 {
		return 0, false
	}
	key := strings.ToUpper(strings.TrimSpace(company))
	if key == "" {
		return 0, false
	}
	for _, k := range c.RateCompanies() {
		if strings.ToUpper(strings.TrimSpace(k)) == key {
			return c.FXRates[k], true
		}
	}
	return 0, false
}

func containsFold(list []string, v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), v) {
			return true
		}
	}
	return false
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseRates parses "EG=0.02,KE=0.0077".
func parseRates(raw string) (map[string]float64, error) {
	rates := make(map[string]float64)
	for _, part := range splitList(raw) {
		k, v, found := strings.Cut(part, "=")
		if !found {
			return nil, fmt.Errorf("expected COMPANY=RATE, got %q", part)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("rate for %s: %w", k, err)
		}
		rates[strings.ToUpper(strings.TrimSpace(k))] = f
	}
	return rates, nil
}

// RateCompanies returns the companies with a configured FX rate, sorted.
func (c Config) RateCompanies() []string {
	keys := make([]string, 0, len(c.FXRates))
	for k := range c.FXRates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
