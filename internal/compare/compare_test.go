package compare

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/goldcheck/internal/config"
	"github.com/zjrosen/goldcheck/internal/product"
)

// buildProduct assembles the canonical fixture tree: identification
// strings at the top, the measurement group with displacement, its
// label mask and a coherence raster.
func buildProduct(t *testing.T, displacement, labels, coherence []float64, version string) *product.MemContainer {
	t.Helper()
	disp := floatArr(t, []int{2, 2}, displacement)
	lab := labelArr(t, []int{2, 2}, labels)
	coh := floatArr(t, []int{2, 2}, coherence)

	c := product.NewMemContainer()
	c.SetAttrs("/", map[string]any{"Conventions": "CF-1.8"})
	c.AddDataset("/identification/mission_id", stringArr(t, []string{"NISAR"}), nil)
	c.AddDataset("/identification/software_version", stringArr(t, []string{version}), nil)
	c.AddDataset("/data/displacement", disp, map[string]any{"units": "meters"})
	c.AddDataset("/data/connected_component_labels", lab, map[string]any{"_FillValue": float64(-1)})
	c.AddDataset("/data/temporal_coherence", coh, nil)
	return c
}

func run(t *testing.T, golden, test product.Container, pol config.Policy, workers int) *Session {
	t.Helper()
	s := NewSession()
	err := Compare(context.Background(), s, golden, test, pol, Options{Concurrency: workers})
	require.NoError(t, err)
	return s
}

func TestCompare_IdenticalProductsMatch(t *testing.T) {
	pol := config.DefaultPolicy()
	disp := []float64{0.1, 0.2, 0.3, 0.4}
	labels := []float64{1, 1, 2, 0}
	coh := []float64{0.9, 0.8, 0.7, 0.6}

	golden := buildProduct(t, disp, labels, coh, "1.0.0")
	test := buildProduct(t, disp, labels, coh, "1.0.0")

	s := run(t, golden, test, pol, 1)
	assert.True(t, s.Passed())
	assert.Empty(t, s.Violations())
	assert.Equal(t, 5, s.DatasetsCompared())
}

// TestCompare_SelfCompareAlwaysMatches: any product matches itself,
// including NaN pixels, as long as the NaN budget is disabled.
func TestCompare_SelfCompareAlwaysMatches(t *testing.T) {
	pol := config.DefaultPolicy()
	pol.NaNFractionThreshold = 1.0

	rapid.Check(t, func(t *rapid.T) {
		disp := make([]float64, 4)
		labels := make([]float64, 4)
		coh := make([]float64, 4)
		for i := range disp {
			if rapid.Bool().Draw(t, "nan") {
				disp[i] = math.NaN()
			} else {
				disp[i] = rapid.Float64Range(-10, 10).Draw(t, "disp")
			}
			labels[i] = float64(rapid.IntRange(-1, 2).Draw(t, "label"))
			coh[i] = rapid.Float64Range(0, 1).Draw(t, "coh")
		}

		mk := func(shape []int, dtype string, vals []float64) *product.Array {
			arr, err := product.NewFloatArray(shape, dtype, vals)
			if err != nil {
				t.Fatal(err)
			}
			return arr
		}
		c := product.NewMemContainer()
		c.AddDataset("/data/displacement", mk([]int{2, 2}, "float64", disp), nil)
		c.AddDataset("/data/connected_component_labels", mk([]int{2, 2}, "int32", labels),
			map[string]any{"_FillValue": float64(-1)})
		c.AddDataset("/data/temporal_coherence", mk([]int{2, 2}, "float64", coh), nil)

		s := NewSession()
		if err := Compare(context.Background(), s, c, c, pol, Options{Concurrency: 2}); err != nil {
			t.Fatal(err)
		}
		if !s.Passed() {
			t.Fatalf("self-comparison failed: %v", s.Violations())
		}
	})
}

func TestCompare_MissingDatasetIsStructural(t *testing.T) {
	pol := config.DefaultPolicy()
	disp := []float64{0.1, 0.2, 0.3, 0.4}
	labels := []float64{1, 1, 1, 1}
	coh := []float64{1, 1, 1, 1}

	golden := buildProduct(t, disp, labels, coh, "1.0.0")
	testTree := product.NewMemContainer()
	testTree.SetAttrs("/", map[string]any{"Conventions": "CF-1.8"})
	testTree.AddDataset("/identification/mission_id", stringArr(t, []string{"NISAR"}), nil)
	testTree.AddDataset("/identification/software_version", stringArr(t, []string{"1.0.0"}), nil)
	testTree.AddDataset("/data/displacement", floatArr(t, []int{2, 2}, disp), map[string]any{"units": "meters"})
	testTree.AddDataset("/data/connected_component_labels", labelArr(t, []int{2, 2}, labels), map[string]any{"_FillValue": float64(-1)})
	// temporal_coherence deliberately absent.

	s := run(t, golden, testTree, pol, 1)
	assert.False(t, s.Passed())

	var found bool
	for _, v := range s.Violations() {
		if v.Kind == KindStructural && v.Path == "/data" {
			assert.Contains(t, v.Message, "temporal_coherence")
			found = true
		}
	}
	assert.True(t, found, "missing child must be reported at the parent group")
	// Remaining aligned datasets still compare.
	assert.Equal(t, 4, s.DatasetsCompared())
}

func TestCompare_ExtraNodeInTest(t *testing.T) {
	pol := config.DefaultPolicy()
	disp := []float64{0, 0, 0, 0}
	labels := []float64{1, 1, 1, 1}
	coh := []float64{1, 1, 1, 1}

	golden := buildProduct(t, disp, labels, coh, "1.0.0")
	test := buildProduct(t, disp, labels, coh, "1.0.0")
	test.AddDataset("/data/debug_layer", floatArr(t, []int{2, 2}, coh), nil)

	s := run(t, golden, test, pol, 1)
	assert.False(t, s.Passed())

	var found bool
	for _, v := range s.Violations() {
		if v.Kind == KindStructural && v.Path == "/data" {
			assert.Contains(t, v.Message, "debug_layer")
			found = true
		}
	}
	assert.True(t, found)
}

func TestCompare_GroupDatasetTypeMismatch(t *testing.T) {
	pol := config.DefaultPolicy()

	golden := product.NewMemContainer()
	golden.AddDataset("/node", floatArr(t, []int{1}, []float64{1}), nil)
	test := product.NewMemContainer()
	test.AddGroup("/node")

	s := run(t, golden, test, pol, 1)

	violations := s.Violations()
	require.Len(t, violations, 1)
	assert.Equal(t, KindStructural, violations[0].Kind)
	assert.Equal(t, "/node", violations[0].Path)
}

func TestCompare_ExcludedGroupSkipped(t *testing.T) {
	pol := config.DefaultPolicy()
	pol.ExcludedGroups = []string{"metadata"}

	golden := product.NewMemContainer()
	golden.AddDataset("/metadata/runconfig", stringArr(t, []string{"golden-config"}), nil)
	test := product.NewMemContainer()
	test.AddDataset("/metadata/runconfig", stringArr(t, []string{"entirely-different"}), nil)

	s := run(t, golden, test, pol, 1)
	assert.True(t, s.Passed(), "differences inside excluded groups are invisible")
	assert.Zero(t, s.DatasetsCompared())
}

func TestCompare_MissingSiblingLabelsIsStructural(t *testing.T) {
	pol := config.DefaultPolicy()

	golden := product.NewMemContainer()
	golden.AddDataset("/data/displacement", floatArr(t, []int{1}, []float64{0.5}), nil)
	test := product.NewMemContainer()
	test.AddDataset("/data/displacement", floatArr(t, []int{1}, []float64{0.5}), nil)

	s := run(t, golden, test, pol, 1)

	violations := s.Violations()
	require.Len(t, violations, 1)
	assert.Equal(t, KindStructural, violations[0].Kind)
	assert.Contains(t, violations[0].Message, config.LabelDatasetName)
}

func TestCompare_DTypeMismatch(t *testing.T) {
	pol := config.DefaultPolicy()

	t.Run("hard dataset", func(t *testing.T) {
		golden := product.NewMemContainer()
		golden.AddDataset("/d", floatArr(t, []int{1}, []float64{1}), nil)
		test := product.NewMemContainer()
		arr, err := product.NewFloatArray([]int{1}, "float32", []float64{1})
		require.NoError(t, err)
		test.AddDataset("/d", arr, nil)

		s := run(t, golden, test, pol, 1)
		violations := s.Violations()
		require.Len(t, violations, 1)
		assert.Equal(t, KindStructural, violations[0].Kind)
		assert.Contains(t, violations[0].Message, "dtype")
	})

	t.Run("soft-fail dataset skips the dtype check", func(t *testing.T) {
		golden := product.NewMemContainer()
		golden.AddDataset("/software_version", stringArr(t, []string{"1.0"}), nil)
		test := product.NewMemContainer()
		arr, err := product.NewStringArray([]int{1}, []string{"1.0"})
		require.NoError(t, err)
		arr.DType = "vlen-string"
		test.AddDataset("/software_version", arr, nil)

		s := run(t, golden, test, pol, 1)
		assert.True(t, s.Passed())
	})
}

func TestCompare_RootAttributesCompared(t *testing.T) {
	pol := config.DefaultPolicy()

	golden := product.NewMemContainer()
	golden.SetAttrs("/", map[string]any{"Conventions": "CF-1.8"})
	test := product.NewMemContainer()
	test.SetAttrs("/", map[string]any{"Conventions": "CF-1.9"})

	s := run(t, golden, test, pol, 1)

	violations := s.Violations()
	require.Len(t, violations, 1)
	assert.Equal(t, "/", violations[0].Path)
	assert.Contains(t, violations[0].Message, "Conventions")
}

// TestCompare_ConcurrencyInvariant: the verdict and violation count do
// not depend on the worker count.
func TestCompare_ConcurrencyInvariant(t *testing.T) {
	pol := config.DefaultPolicy()
	disp := []float64{0.1, 0.2, 0.3, 0.4}
	labels := []float64{1, 1, 2, 0}
	coh := []float64{0.9, 0.8, 0.7, 0.6}
	badCoh := []float64{0.9, 0.8, 0.7, 0.0}

	for _, workers := range []int{1, 2, 8} {
		golden := buildProduct(t, disp, labels, coh, "1.0.0")
		test := buildProduct(t, disp, labels, badCoh, "1.0.0")

		s := run(t, golden, test, pol, workers)
		assert.False(t, s.Passed())
		assert.Equal(t, 1, s.HardCount())
		assert.Equal(t, 5, s.DatasetsCompared())
	}
}
