package compare

import (
	"math"

	"github.com/zjrosen/goldcheck/internal/config"
	"github.com/zjrosen/goldcheck/internal/log"
	"github.com/zjrosen/goldcheck/internal/product"
)

// WrapPhase folds a phase value into the principal interval (-π, π],
// right-closed at +π and left-open at -π.
func WrapPhase(phi float64) float64 {
	return phi - 2*math.Pi*math.Ceil((phi-math.Pi)/(2*math.Pi))
}

// validateDisplacement compares two displacement rasters modulo 2π at
// the sensor wavelength. Interferometric phase is only observable
// modulo 2π, so displacements differing by whole phase cycles are
// physically indistinguishable and must not be flagged. Validity is
// gated by both sides' label masks; a NaN budget is checked first and
// independently.
//
// goldenFill/testFill are each side's label fill sentinel, read from
// the label dataset's _FillValue attribute; nil means the side
// declares no sentinel and validity reduces to the nonzero condition.
func validateDisplacement(s *Session, path string, golden, test, goldenLabels, testLabels *product.Array, goldenFill, testFill *float64, pol config.Policy) {
	var domain bool
	if pol.NaNFractionThreshold < 0 || pol.NaNFractionThreshold > 1 {
		s.Report(path, KindParameterDomain, "nan_fraction_threshold %v outside [0,1]", pol.NaNFractionThreshold)
		domain = true
	}
	if pol.PhaseAbsTolerance < 0 {
		s.Report(path, KindParameterDomain, "phase_abs_tolerance %v must be >= 0", pol.PhaseAbsTolerance)
		domain = true
	}
	if pol.Wavelength <= 0 {
		s.Report(path, KindParameterDomain, "wavelength %v must be > 0", pol.Wavelength)
		domain = true
	}
	if domain {
		return
	}

	if !product.ShapeEqual(golden.Shape, test.Shape) {
		s.Report(path, KindStructural, "displacement shape mismatch: golden=%v test=%v", golden.Shape, test.Shape)
		return
	}
	if !product.ShapeEqual(goldenLabels.Shape, golden.Shape) || !product.ShapeEqual(testLabels.Shape, test.Shape) {
		s.Report(path, KindStructural, "label mask shape does not match displacement shape")
		return
	}

	n := golden.Len()
	valid := func(labels *product.Array, fill *float64, i int) bool {
		v := labels.Floats[i]
		if v == 0 {
			return false
		}
		return fill == nil || v != *fill
	}

	// NaN budget among the test side's valid pixels, checked before
	// and independently of the phase comparison.
	testValid := 0
	nanAffected := 0
	for i := 0; i < n; i++ {
		if !valid(testLabels, testFill, i) {
			continue
		}
		testValid++
		if math.IsNaN(test.Floats[i]) || math.IsNaN(golden.Floats[i]) {
			nanAffected++
		}
	}
	if testValid == 0 {
		log.Info(log.CatCompare, "no valid pixels on test side, displacement check passes trivially", "path", path)
		return
	}
	nanFraction := float64(nanAffected) / float64(testValid)
	log.Info(log.CatCompare, "NaN budget computed",
		"path", path,
		"nan_affected", nanAffected,
		"test_valid", testValid,
		"fraction", nanFraction,
		"threshold", pol.NaNFractionThreshold)
	if nanFraction > pol.NaNFractionThreshold {
		s.Report(path, KindTolerance,
			"NaN fraction %.6f among %d valid pixels exceeds threshold %.6f",
			nanFraction, testValid, pol.NaNFractionThreshold)
	}

	// Linear displacement maps to phase with the two-way factor
	// -4π/λ; the caller's linear tolerance is scaled the same way.
	scale := 4 * math.Pi / pol.Wavelength
	phaseTolerance := pol.PhaseAbsTolerance * scale

	restricted := 0
	bad := 0
	var sumAbs, maxAbs float64
	for i := 0; i < n; i++ {
		if !valid(testLabels, testFill, i) || !valid(goldenLabels, goldenFill, i) {
			continue
		}
		if math.IsNaN(test.Floats[i]) || math.IsNaN(golden.Floats[i]) {
			continue
		}
		restricted++
		phaseDiff := WrapPhase((golden.Floats[i] - test.Floats[i]) * -scale)
		abs := math.Abs(phaseDiff)
		sumAbs += abs
		if abs > maxAbs {
			maxAbs = abs
		}
		if abs > phaseTolerance {
			bad++
		}
	}

	meanAbs := 0.0
	badRatio := 0.0
	if restricted > 0 {
		meanAbs = sumAbs / float64(restricted)
		badRatio = float64(bad) / float64(restricted)
	}
	log.Info(log.CatCompare, "phase congruence computed",
		"path", path,
		"restricted", restricted,
		"mean_abs_phase_err", meanAbs,
		"max_abs_phase_err", maxAbs,
		"non_congruent", bad,
		"non_congruent_ratio", badRatio,
		"phase_tolerance", phaseTolerance)

	// No fractional budget here: a single non-congruent pixel fails.
	if bad > 0 {
		s.Report(path, KindTolerance,
			"%d of %d valid pixels are not phase-congruent (max |wrapped phase error| %.6g rad > tolerance %.6g rad)",
			bad, restricted, maxAbs, phaseTolerance)
	}
}
