package compare

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/goldcheck/internal/config"
	"github.com/zjrosen/goldcheck/internal/product"
)

func floatArr(t *testing.T, shape []int, vals []float64) *product.Array {
	t.Helper()
	arr, err := product.NewFloatArray(shape, "float64", vals)
	require.NoError(t, err)
	return arr
}

func labelArr(t *testing.T, shape []int, vals []float64) *product.Array {
	t.Helper()
	arr, err := product.NewFloatArray(shape, "int32", vals)
	require.NoError(t, err)
	return arr
}

func fillPtr(v float64) *float64 { return &v }

// TestWrapPhase_PrincipalInterval verifies wrap lands in (-π, π] for
// arbitrary inputs.
func TestWrapPhase_PrincipalInterval(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		phi := rapid.Float64Range(-1e6, 1e6).Draw(t, "phi")
		wrapped := WrapPhase(phi)
		// Tiny slack absorbs rounding of 2π·k for large inputs.
		if wrapped < -math.Pi-1e-9 || wrapped > math.Pi+1e-9 {
			t.Fatalf("wrap(%v) = %v outside (-π, π]", phi, wrapped)
		}
	})
}

// TestWrapPhase_Periodicity verifies wrap(φ + 2πk) == wrap(φ) up to
// floating point rounding.
func TestWrapPhase_Periodicity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		phi := rapid.Float64Range(-100, 100).Draw(t, "phi")
		k := rapid.IntRange(-50, 50).Draw(t, "k")
		a := WrapPhase(phi)
		b := WrapPhase(phi + 2*math.Pi*float64(k))
		if math.Abs(a-b) > 1e-9 {
			t.Fatalf("wrap(%v)=%v but wrap(%v + 2π·%d)=%v", phi, a, phi, k, b)
		}
	})
}

// TestWrapPhase_Boundaries pins the closed/open ends of the interval.
func TestWrapPhase_Boundaries(t *testing.T) {
	assert.InDelta(t, math.Pi, WrapPhase(math.Pi), 1e-15, "+π stays +π (right-closed)")
	assert.InDelta(t, math.Pi, WrapPhase(-math.Pi), 1e-15, "-π maps to +π (left-open)")
	assert.InDelta(t, 0, WrapPhase(2*math.Pi), 1e-12)
	assert.InDelta(t, 0, WrapPhase(-2*math.Pi), 1e-12)
	assert.InDelta(t, 0.5, WrapPhase(0.5), 1e-15)
}

// TestValidateDisplacement_OnePixelOverTolerance mirrors the scenario
// where a 2e-5 m difference at the default tolerance produces exactly
// one non-congruent pixel.
func TestValidateDisplacement_OnePixelOverTolerance(t *testing.T) {
	pol := config.DefaultPolicy()
	s := NewSession()

	golden := floatArr(t, []int{1, 2}, []float64{0.0, 0.00002})
	test := floatArr(t, []int{1, 2}, []float64{0.0, 0.0})
	labels := labelArr(t, []int{1, 2}, []float64{1, 1})

	validateDisplacement(s, "/displacement", golden, test, labels, labels, fillPtr(-1), fillPtr(-1), pol)

	violations := s.Violations()
	require.Len(t, violations, 1)
	assert.Equal(t, KindTolerance, violations[0].Kind)
	assert.Contains(t, violations[0].Message, "1 of 2")
	assert.False(t, s.Passed())
}

// TestValidateDisplacement_WithinTolerance mirrors the passing
// scenario: a 1e-7 m difference is well under the phase tolerance.
func TestValidateDisplacement_WithinTolerance(t *testing.T) {
	pol := config.DefaultPolicy()
	s := NewSession()

	golden := floatArr(t, []int{1, 2}, []float64{0.0, 0.00002})
	test := floatArr(t, []int{1, 2}, []float64{0.0, 0.0000201})
	labels := labelArr(t, []int{1, 2}, []float64{1, 1})

	validateDisplacement(s, "/displacement", golden, test, labels, labels, fillPtr(-1), fillPtr(-1), pol)

	assert.Empty(t, s.Violations())
	assert.True(t, s.Passed())
}

// TestValidateDisplacement_WholeCycleIsCongruent verifies that
// displacements differing by exactly λ/2 (one full 2π phase cycle) are
// physically indistinguishable and never flagged, even though the raw
// linear difference dwarfs the generic threshold.
func TestValidateDisplacement_WholeCycleIsCongruent(t *testing.T) {
	pol := config.DefaultPolicy()

	rapid.Check(t, func(t *rapid.T) {
		base := rapid.Float64Range(-0.5, 0.5).Draw(t, "base")
		cycles := rapid.IntRange(-5, 5).Draw(t, "cycles")

		s := NewSession()
		golden, err := product.NewFloatArray([]int{1, 1}, "float64", []float64{base})
		if err != nil {
			t.Fatal(err)
		}
		shifted := base + float64(cycles)*pol.Wavelength/2
		test, err := product.NewFloatArray([]int{1, 1}, "float64", []float64{shifted})
		if err != nil {
			t.Fatal(err)
		}
		labels, err := product.NewFloatArray([]int{1, 1}, "int32", []float64{1})
		if err != nil {
			t.Fatal(err)
		}

		validateDisplacement(s, "/displacement", golden, test, labels, labels, fillPtr(-1), fillPtr(-1), pol)
		if !s.Passed() {
			t.Fatalf("whole-cycle shift of %d cycles flagged as regression: %v", cycles, s.Violations())
		}
	})
}

// TestValidateDisplacement_NaNBudget checks the independent NaN check.
func TestValidateDisplacement_NaNBudget(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name      string
		test      []float64
		threshold float64
		wantFail  bool
	}{
		{"no NaN passes", []float64{1, 1, 1, 1}, 0.01, false},
		{"one of four NaN over 1% budget", []float64{nan, 1, 1, 1}, 0.01, true},
		{"one of four NaN within 25% budget", []float64{nan, 1, 1, 1}, 0.25, false},
		{"one of four NaN over 24% budget", []float64{nan, 1, 1, 1}, 0.24, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pol := config.DefaultPolicy()
			pol.NaNFractionThreshold = tt.threshold
			s := NewSession()

			golden := floatArr(t, []int{2, 2}, []float64{1, 1, 1, 1})
			test := floatArr(t, []int{2, 2}, tt.test)
			labels := labelArr(t, []int{2, 2}, []float64{1, 1, 1, 1})

			validateDisplacement(s, "/displacement", golden, test, labels, labels, fillPtr(-1), fillPtr(-1), pol)
			assert.Equal(t, tt.wantFail, !s.Passed())
		})
	}
}

// TestValidateDisplacement_FillAndZeroLabelsExcluded verifies pixels
// whose label is zero or the fill sentinel never participate.
func TestValidateDisplacement_FillAndZeroLabelsExcluded(t *testing.T) {
	pol := config.DefaultPolicy()
	s := NewSession()

	// Huge differences everywhere, but only pixel 0 is valid on both
	// sides and it matches exactly.
	golden := floatArr(t, []int{1, 3}, []float64{0.5, 99, 99})
	test := floatArr(t, []int{1, 3}, []float64{0.5, 0, 0})
	labels := labelArr(t, []int{1, 3}, []float64{1, 0, -1})

	validateDisplacement(s, "/displacement", golden, test, labels, labels, fillPtr(-1), fillPtr(-1), pol)
	assert.True(t, s.Passed())
}

// TestValidateDisplacement_ParameterDomain verifies out-of-domain
// thresholds are rejected before any numeric work, without panicking.
func TestValidateDisplacement_ParameterDomain(t *testing.T) {
	pol := config.DefaultPolicy()
	pol.NaNFractionThreshold = 1.5
	s := NewSession()

	golden := floatArr(t, []int{1, 1}, []float64{0})
	test := floatArr(t, []int{1, 1}, []float64{0})
	labels := labelArr(t, []int{1, 1}, []float64{1})

	validateDisplacement(s, "/displacement", golden, test, labels, labels, nil, nil, pol)

	violations := s.Violations()
	require.Len(t, violations, 1)
	assert.Equal(t, KindParameterDomain, violations[0].Kind)
	assert.Contains(t, violations[0].Message, "nan_fraction_threshold")
}

// TestValidateDisplacement_NoValidPixels covers the degenerate case
// where the test-side mask has no valid pixels at all.
func TestValidateDisplacement_NoValidPixels(t *testing.T) {
	pol := config.DefaultPolicy()
	s := NewSession()

	golden := floatArr(t, []int{1, 2}, []float64{1, 2})
	test := floatArr(t, []int{1, 2}, []float64{3, 4})
	labels := labelArr(t, []int{1, 2}, []float64{0, 0})

	validateDisplacement(s, "/displacement", golden, test, labels, labels, nil, nil, pol)
	assert.True(t, s.Passed())
}

// TestValidateDisplacement_ShapeMismatch is structural, not tolerance.
func TestValidateDisplacement_ShapeMismatch(t *testing.T) {
	pol := config.DefaultPolicy()
	s := NewSession()

	golden := floatArr(t, []int{1, 2}, []float64{1, 2})
	test := floatArr(t, []int{2, 1}, []float64{1, 2})
	labels := labelArr(t, []int{1, 2}, []float64{1, 1})

	validateDisplacement(s, "/displacement", golden, test, labels, labels, nil, nil, pol)

	violations := s.Violations()
	require.Len(t, violations, 1)
	assert.Equal(t, KindStructural, violations[0].Kind)
}
