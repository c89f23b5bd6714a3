package config

import (
	"fmt"
	"math"

	"github.com/aristath/quantport/internal/domain"
)

// EngineConfig centralizes every tunable named in spec.md §6 into one
// immutable, construction-validated object, per the REDESIGN FLAGS
// ("Factor weights and constants... centralize into an immutable config
// object validated at construction").
type EngineConfig struct {
	FactorWeights domain.FactorWeights `json:"factor_weights"`
	WinsorizeLimit float64 `json:"winsorize_limit"`

	TopN             int     `json:"top_n"`
	MaxPositionSize  float64 `json:"max_position_size"`
	FactorAlphaScalar float64 `json:"factor_alpha_scalar"`
	RiskAversion     float64 `json:"risk_aversion"`
	Tau              float64 `json:"tau"`

	CovarianceLookbackDays int `json:"covariance_lookback_days"`

	RateLimitPerMin int `json:"rate_limit_per_min"`
	CacheTTLHours   int `json:"cache_ttl_hours"`
	MaxRetries      int `json:"max_retries"`

	EnableRegimeAdjustment bool `json:"enable_regime_adjustment"`
	EnableMacroTilt        bool `json:"enable_macro_tilt"`
	EnableFactorRegimes    bool `json:"enable_factor_regimes"`
}

// LoadEngineConfig reads the engine tunables from the environment,
// falling back to spec.md §6's defaults.
func LoadEngineConfig() EngineConfig {
	cfg := EngineConfig{
		FactorWeights: domain.FactorWeights{
			Value:    getEnvAsFloat("FACTOR_WEIGHT_VALUE", 0.4),
			Quality:  getEnvAsFloat("FACTOR_WEIGHT_QUALITY", 0.4),
			Momentum: getEnvAsFloat("FACTOR_WEIGHT_MOMENTUM", 0.2),
		},
		WinsorizeLimit:         getEnvAsFloat("WINSORIZE_LIMIT", 3.0),
		TopN:                   getEnvAsInt("TOP_N", 30),
		MaxPositionSize:        getEnvAsFloat("MAX_POSITION_SIZE", 0.30),
		FactorAlphaScalar:      getEnvAsFloat("FACTOR_ALPHA_SCALAR", 0.02),
		RiskAversion:           getEnvAsFloat("RISK_AVERSION", 2.5),
		Tau:                    getEnvAsFloat("TAU", 0.05),
		CovarianceLookbackDays: getEnvAsInt("COVARIANCE_LOOKBACK_DAYS", 504),
		RateLimitPerMin:        getEnvAsInt("RATE_LIMIT_PER_MIN", 60),
		CacheTTLHours:          getEnvAsInt("CACHE_TTL_HOURS", 24),
		MaxRetries:             getEnvAsInt("MAX_RETRIES", 5),
		EnableRegimeAdjustment: getEnvAsBool("ENABLE_REGIME_ADJUSTMENT", false),
		EnableMacroTilt:        getEnvAsBool("ENABLE_MACRO_TILT", false),
		EnableFactorRegimes:    getEnvAsBool("ENABLE_FACTOR_REGIMES", true),
	}
	return cfg
}

// DefaultEngineConfig returns spec.md §6's defaults with no environment
// overrides, useful for tests and library callers that don't bootstrap
// from the process environment.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		FactorWeights:          domain.DefaultFactorWeights(),
		WinsorizeLimit:         3.0,
		TopN:                   30,
		MaxPositionSize:        0.30,
		FactorAlphaScalar:      0.02,
		RiskAversion:           2.5,
		Tau:                    0.05,
		CovarianceLookbackDays: 504,
		RateLimitPerMin:        60,
		CacheTTLHours:          24,
		MaxRetries:             5,
		EnableFactorRegimes:    true,
	}
}

// Validate enforces spec.md §7's ConfigError invariants: fatal at
// construction, never at first use.
func (c EngineConfig) Validate() error {
	sum := c.FactorWeights.Value + c.FactorWeights.Quality + c.FactorWeights.Momentum
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("%w: factor weights sum to %f, want 1.0", domain.ErrConfigError, sum)
	}
	if c.WinsorizeLimit <= 0 {
		return fmt.Errorf("%w: winsorize_limit must be positive", domain.ErrConfigError)
	}
	if c.MaxPositionSize <= 0 || c.MaxPositionSize > 1 {
		return fmt.Errorf("%w: max_position_size must be in (0,1]", domain.ErrConfigError)
	}
	if c.TopN <= 0 {
		return fmt.Errorf("%w: top_n must be positive", domain.ErrConfigError)
	}
	if float64(c.TopN)*c.MaxPositionSize < 1.0-1e-9 {
		return fmt.Errorf("%w: top_n=%d is infeasible at max_position_size=%f (need at least %d positions)",
			domain.ErrConfigError, c.TopN, c.MaxPositionSize, int(math.Ceil(1.0/c.MaxPositionSize)))
	}
	if c.RiskAversion <= 0 {
		return fmt.Errorf("%w: risk_aversion must be positive", domain.ErrConfigError)
	}
	if c.Tau <= 0 {
		return fmt.Errorf("%w: tau must be positive", domain.ErrConfigError)
	}
	if c.CovarianceLookbackDays <= 0 {
		return fmt.Errorf("%w: covariance_lookback_days must be positive", domain.ErrConfigError)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries must be non-negative", domain.ErrConfigError)
	}
	if c.RateLimitPerMin <= 0 {
		return fmt.Errorf("%w: rate_limit_per_min must be positive", domain.ErrConfigError)
	}
	return nil
}

// WeightBoundForUniverse validates top_n against an actual universe size
// — called once the universe is resolved, since top_n > universe size is
// also a ConfigError per spec.md §7.
func (c EngineConfig) WeightBoundForUniverse(universeSize int) error {
	if c.TopN > universeSize {
		return fmt.Errorf("%w: top_n=%d exceeds universe size %d", domain.ErrConfigError, c.TopN, universeSize)
	}
	return nil
}
