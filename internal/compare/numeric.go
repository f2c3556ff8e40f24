package compare

import (
	"math"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/zjrosen/goldcheck/internal/config"
	"github.com/zjrosen/goldcheck/internal/log"
	"github.com/zjrosen/goldcheck/internal/product"
)

// validateGeneric is the tolerance-banded elementwise comparison used
// for every dataset that is neither a label mask nor the measurement
// dataset. String datasets compare byte-exact; numeric datasets get an
// absolute-difference band with a failure-fraction budget.
func validateGeneric(s *Session, path string, golden, test *product.Array, pol config.Policy) {
	if golden.IsString() || test.IsString() {
		if !golden.IsString() || !test.IsString() {
			s.Report(path, KindStructural, "element type mismatch: golden is %s, test is %s", golden.DType, test.DType)
			return
		}
		validateStrings(s, path, golden.Strings, test.Strings, pol)
		return
	}

	var domain bool
	if pol.PixelFailFraction < 0 || pol.PixelFailFraction > 1 {
		s.Report(path, KindParameterDomain, "pixel_fail_fraction %v outside [0,1]", pol.PixelFailFraction)
		domain = true
	}
	if pol.AbsDiffThreshold < 0 {
		s.Report(path, KindParameterDomain, "abs_diff_threshold %v must be >= 0", pol.AbsDiffThreshold)
		domain = true
	}
	if domain {
		return
	}

	total := golden.Len()
	if total == 0 {
		log.Debug(log.CatCompare, "empty dataset, nothing to compare", "path", path)
		return
	}

	// NaN pixels are substituted with zero and intentionally stay in
	// the pixel count: a NaN appearing on only one side shows up as a
	// real difference, mirroring strict reproducibility checks.
	failed := 0
	for i := 0; i < total; i++ {
		g := golden.Floats[i]
		t := test.Floats[i]
		if math.IsNaN(g) {
			g = 0
		}
		if math.IsNaN(t) {
			t = 0
		}
		if math.Abs(g-t) > pol.AbsDiffThreshold {
			failed++
		}
	}

	fraction := float64(failed) / float64(total)
	log.Info(log.CatCompare, "numeric dataset compared",
		"path", path,
		"failed", failed,
		"total", total,
		"fraction", fraction,
		"threshold", pol.PixelFailFraction)

	if fraction > pol.PixelFailFraction {
		s.Report(path, KindTolerance,
			"%d of %d pixels (%.4f%%) differ by more than %g; budget is %.4f%%",
			failed, total, fraction*100, pol.AbsDiffThreshold, pol.PixelFailFraction*100)
	}
}

// validateStrings compares a string dataset exactly. Differences in
// allow-listed free-text fields (version strings and the like) are
// recorded as soft mismatches and never fail the run.
func validateStrings(s *Session, path string, golden, test []string, pol config.Policy) {
	if len(golden) != len(test) {
		s.Report(path, KindStructural, "string dataset length mismatch: golden=%d test=%d", len(golden), len(test))
		return
	}
	for i := range golden {
		if golden[i] == test[i] {
			continue
		}
		logStringDiff(path, golden[i], test[i])
		if pol.IsSoftFail(product.BaseName(path)) {
			s.ReportSoft(path, "value differs (log-only field): golden=%q test=%q", golden[i], test[i])
		} else {
			s.Report(path, KindTolerance, "string value differs at element %d: golden=%q test=%q", i, golden[i], test[i])
		}
		return
	}
	log.Debug(log.CatCompare, "string dataset identical", "path", path)
}

// logStringDiff emits a character-level diff so long version strings
// are readable in the run log.
func logStringDiff(path, golden, test string) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(golden, test, false)
	log.Info(log.CatCompare, "string dataset differs", "path", path, "diff", dmp.DiffPrettyText(diffs))
}
