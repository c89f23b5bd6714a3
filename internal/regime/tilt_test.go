package regime

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/quantport/internal/domain"
)

func TestTiltFactorWeights_Disabled(t *testing.T) {
	base := domain.FactorWeights{Value: 0.4, Quality: 0.4, Momentum: 0.2}

	tilted := TiltFactorWeights(base, RiskOff, false)

	assert.Equal(t, base, tilted)
}

func TestTiltFactorWeights_Caution_Unchanged(t *testing.T) {
	base := domain.FactorWeights{Value: 0.4, Quality: 0.4, Momentum: 0.2}

	tilted := TiltFactorWeights(base, Caution, true)

	assert.Equal(t, base, tilted)
}

func TestTiltFactorWeights_RiskOff_TiltsTowardQuality(t *testing.T) {
	base := domain.FactorWeights{Value: 0.4, Quality: 0.4, Momentum: 0.2}

	tilted := TiltFactorWeights(base, RiskOff, true)

	assert.Greater(t, tilted.Quality, base.Quality)
	assert.Less(t, tilted.Momentum, base.Momentum)
	assert.InDelta(t, 1.0, tilted.Value+tilted.Quality+tilted.Momentum, 1e-9)
}

func TestTiltFactorWeights_RiskOn_TiltsTowardMomentum(t *testing.T) {
	base := domain.FactorWeights{Value: 0.4, Quality: 0.4, Momentum: 0.2}

	tilted := TiltFactorWeights(base, RiskOn, true)

	assert.Less(t, tilted.Quality, base.Quality)
	assert.Greater(t, tilted.Momentum, base.Momentum)
}

func TestApplyMacroTilt(t *testing.T) {
	assert.Equal(t, 1.0, ApplyMacroTilt(RiskOff, false))
	assert.Equal(t, 0.75, ApplyMacroTilt(RiskOff, true))
	assert.Equal(t, 0.9, ApplyMacroTilt(Caution, true))
	assert.Equal(t, 1.0, ApplyMacroTilt(RiskOn, true))
}

func TestClassifyState_Thresholds(t *testing.T) {
	assert.Equal(t, RiskOn, classifyState(0.3))
	assert.Equal(t, RiskOff, classifyState(-0.3))
	assert.Equal(t, Caution, classifyState(0.0))
}
