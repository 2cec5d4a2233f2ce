package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policypilot/domain/core"
)

func TestQuantileLinearInterpolation(t *testing.T) {
	xs := []float64{500, 1000, 1500}

	p50, err := Quantile(xs, 0.50)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, p50)

	// h = 0.15 * 2 = 0.3 -> 500 + 0.3*(1000-500)
	p15, err := Quantile(xs, 0.15)
	require.NoError(t, err)
	assert.InDelta(t, 650.0, p15, 1e-9)
}

func TestQuantileUnsortedInput(t *testing.T) {
	xs := []float64{1500, 500, 1000}
	p50, err := Quantile(xs, 0.50)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, p50)
}

func TestQuantileBounds(t *testing.T) {
	xs := []float64{3, 1, 2}

	p0, err := Quantile(xs, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p0)

	p1, err := Quantile(xs, 1)
	require.NoError(t, err)
	assert.Equal(t, 3.0, p1)
}

func TestQuantileSingleValue(t *testing.T) {
	v, err := Quantile([]float64{42}, 0.15)
	require.NoError(t, err)
	assert.Equal(t, 42.0, v)
}

func TestQuantileEmpty(t *testing.T) {
	_, err := Quantile(nil, 0.5)
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestQuantileInvalidP(t *testing.T) {
	_, err := Quantile([]float64{1, 2}, 1.5)
	assert.Error(t, err)
}

func TestSampleStdDev(t *testing.T) {
	// Known series: mean 5, sample variance 10/3.
	xs := []float64{3, 5, 7}
	assert.InDelta(t, 2.0, SampleStdDev(xs), 1e-9)

	assert.Equal(t, 0.0, SampleStdDev([]float64{5}))
	assert.Equal(t, 0.0, SampleStdDev(nil))
}

func TestDescribe(t *testing.T) {
	s, err := Describe([]float64{1, 2, 3, 4, 5})
	require.NoError(t, err)

	assert.Equal(t, 5, s.N)
	assert.InDelta(t, 3.0, s.Mean, 1e-9)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.InDelta(t, 4.6, s.P90, 1e-9)
	assert.InDelta(t, 4.8, s.P95, 1e-9)
}

func TestDescribeEmpty(t *testing.T) {
	_, err := Describe(nil)
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestCoV(t *testing.T) {
	cov, ok := CoV(10, 2)
	assert.True(t, ok)
	assert.InDelta(t, 0.2, cov, 1e-9)

	_, ok = CoV(0, 2)
	assert.False(t, ok)

	assert.Equal(t, 0.0, CoVOrZero(0, 2))
	assert.InDelta(t, 0.2, CoVOrZero(10, 2), 1e-9)
}
