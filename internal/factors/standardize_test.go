package factors

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/quantport/internal/domain"
)

func TestStandardizeOne_NaNMapsToNeutral(t *testing.T) {
	raw := map[domain.Ticker]float64{
		"A": 1.0,
		"B": 2.0,
		"C": math.NaN(),
	}

	z, fstat := standardizeOne(raw, 3.0)

	assert.Equal(t, 0.0, z["C"])
	assert.Equal(t, 2, fstat.Count)
}

func TestStandardizeOne_ClampsToWinsorizeLimit(t *testing.T) {
	raw := map[domain.Ticker]float64{
		"A": 0.0,
		"B": 0.0,
		"C": 0.0,
		"D": 100.0, // extreme outlier
	}

	z, _ := standardizeOne(raw, 2.0)

	assert.LessOrEqual(t, z["D"], 2.0)
	assert.GreaterOrEqual(t, z["D"], -2.0)
}

func TestStandardizeOne_ZeroStdProducesNeutralScores(t *testing.T) {
	raw := map[domain.Ticker]float64{"A": 5.0, "B": 5.0}

	z, fstat := standardizeOne(raw, 3.0)

	assert.Equal(t, 0.0, fstat.Std)
	assert.Equal(t, 0.0, z["A"])
	assert.Equal(t, 0.0, z["B"])
}

func TestStandardizeOne_SingleValueHasZeroStd(t *testing.T) {
	raw := map[domain.Ticker]float64{"A": 42.0}

	_, fstat := standardizeOne(raw, 3.0)

	assert.Equal(t, 1, fstat.Count)
	assert.Equal(t, 0.0, fstat.Std)
}

func TestDispersion_IdenticalScoresHaveZeroDispersion(t *testing.T) {
	assert.Equal(t, 0.0, dispersion(1.0, 1.0, 1.0))
}

func TestDispersion_SpreadScoresAreNonZero(t *testing.T) {
	assert.Greater(t, dispersion(2.0, 0.0, -1.0), 0.0)
}
