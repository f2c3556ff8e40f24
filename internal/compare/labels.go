package compare

import (
	"github.com/zjrosen/goldcheck/internal/log"
	"github.com/zjrosen/goldcheck/internal/product"
)

// validateLabelOverlap checks that the nonzero region of the test
// classification mask covers enough of the golden one. The ratio is
// |test ∩ golden| / |golden|; intersection-over-union is logged as
// well but only the golden-relative ratio is thresholded.
func validateLabelOverlap(s *Session, path string, golden, test *product.Array, threshold float64) {
	if threshold < 0 || threshold > 1 {
		s.Report(path, KindParameterDomain, "label_overlap_threshold %v outside [0,1]", threshold)
		return
	}
	if !product.ShapeEqual(golden.Shape, test.Shape) {
		s.Report(path, KindStructural, "label shape mismatch: golden=%v test=%v", golden.Shape, test.Shape)
		return
	}

	var goldenArea, testArea, intersection, union int
	for i := range golden.Floats {
		g := golden.Floats[i] != 0
		t := test.Floats[i] != 0
		if g {
			goldenArea++
		}
		if t {
			testArea++
		}
		if g && t {
			intersection++
		}
		if g || t {
			union++
		}
	}

	// Degenerate golden mask: nothing to cover, so the check passes by
	// definition rather than dividing by zero.
	if goldenArea == 0 {
		log.Info(log.CatCompare, "golden label mask is empty, overlap check passes trivially",
			"path", path, "test_area", testArea)
		return
	}

	ratioGolden := float64(intersection) / float64(goldenArea)
	ratioUnion := 0.0
	if union > 0 {
		ratioUnion = float64(intersection) / float64(union)
	}

	log.Info(log.CatCompare, "label overlap computed",
		"path", path,
		"test_area", testArea,
		"golden_area", goldenArea,
		"intersection_over_golden", ratioGolden,
		"intersection_over_union", ratioUnion)

	if ratioGolden < threshold {
		s.Report(path, KindTolerance,
			"label overlap %.4f below threshold %.4f (test area %d, golden area %d, intersection %d)",
			ratioGolden, threshold, testArea, goldenArea, intersection)
	}
}
