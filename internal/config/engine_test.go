package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/quantport/internal/domain"
)

func TestDefaultEngineConfig_Valid(t *testing.T) {
	cfg := DefaultEngineConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_WeightsMustSumToOne(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.FactorWeights = domain.FactorWeights{Value: 0.5, Quality: 0.5, Momentum: 0.5}

	err := cfg.Validate()

	assert.ErrorIs(t, err, domain.ErrConfigError)
}

func TestValidate_MaxPositionSizeOutOfRange(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.MaxPositionSize = 1.5

	assert.ErrorIs(t, cfg.Validate(), domain.ErrConfigError)
}

func TestValidate_TopNInfeasibleAtMaxPositionSize(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.TopN = 2
	cfg.MaxPositionSize = 0.30 // 2 * 0.30 = 0.6 < 1.0

	assert.ErrorIs(t, cfg.Validate(), domain.ErrConfigError)
}

func TestWeightBoundForUniverse_TopNExceedsUniverse(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.TopN = 50

	err := cfg.WeightBoundForUniverse(10)

	assert.ErrorIs(t, err, domain.ErrConfigError)
}

func TestWeightBoundForUniverse_Fits(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.TopN = 30

	assert.NoError(t, cfg.WeightBoundForUniverse(100))
}
