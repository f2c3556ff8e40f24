package compare

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/goldcheck/internal/config"
	"github.com/zjrosen/goldcheck/internal/log"
	"github.com/zjrosen/goldcheck/internal/product"
)

// walker performs the structural recursion over both trees, collecting
// one validation job per aligned dataset pair. Jobs are independent of
// each other and run on the worker pool in Compare.
type walker struct {
	golden product.Container
	test   product.Container
	s      *Session
	pol    config.Policy
	kinds  map[string]DatasetKind
	tracer trace.Tracer

	jobs []func(context.Context) error
}

// walkGroup compares the children and attributes of one aligned group
// pair. Children missing on either side are reported and skipped;
// recursion continues into every child present in both trees.
func (w *walker) walkGroup(path string) error {
	gAttrs, err := w.golden.Attrs(path)
	if err != nil {
		return fmt.Errorf("golden attrs at %s: %w", path, err)
	}
	tAttrs, err := w.test.Attrs(path)
	if err != nil {
		return fmt.Errorf("test attrs at %s: %w", path, err)
	}
	compareAttrs(w.s, path, gAttrs, tAttrs)

	gKids, err := w.golden.ListChildren(path)
	if err != nil {
		return fmt.Errorf("listing golden children of %s: %w", path, err)
	}
	tKids, err := w.test.ListChildren(path)
	if err != nil {
		return fmt.Errorf("listing test children of %s: %w", path, err)
	}

	if missing := diffKeys(gKids, tKids); len(missing) > 0 {
		w.s.Report(path, KindStructural, "nodes missing from test: %s", strings.Join(missing, ", "))
	}
	if extra := diffKeys(tKids, gKids); len(extra) > 0 {
		w.s.Report(path, KindStructural, "nodes only in test: %s", strings.Join(extra, ", "))
	}

	tSet := make(map[string]struct{}, len(tKids))
	for _, k := range tKids {
		tSet[k] = struct{}{}
	}

	for _, name := range gKids {
		if _, ok := tSet[name]; !ok {
			continue
		}
		if w.pol.IsExcludedGroup(name) {
			log.Info(log.CatCompare, "group excluded from comparison", "path", product.JoinPath(path, name))
			continue
		}
		childPath := product.JoinPath(path, name)

		gIsGroup, err := w.golden.IsGroup(childPath)
		if err != nil {
			return fmt.Errorf("golden node type at %s: %w", childPath, err)
		}
		tIsGroup, err := w.test.IsGroup(childPath)
		if err != nil {
			return fmt.Errorf("test node type at %s: %w", childPath, err)
		}
		if gIsGroup != tIsGroup {
			w.s.Report(childPath, KindStructural, "node is a group in one tree and a dataset in the other")
			continue
		}

		if gIsGroup {
			if err := w.walkGroup(childPath); err != nil {
				return err
			}
			continue
		}

		kind, ok := w.kinds[name]
		if !ok {
			kind = DatasetGeneric
		}
		w.jobs = append(w.jobs, w.datasetJob(childPath, kind))
	}
	return nil
}

// datasetJob builds the deferred validation closure for one dataset
// pair. Structural checks (shape, dtype, attributes) run first; value
// comparison is skipped when the arrays cannot meaningfully align.
func (w *walker) datasetJob(path string, kind DatasetKind) func(context.Context) error {
	return func(ctx context.Context) error {
		_, span := w.tracer.Start(ctx, "validate_dataset",
			trace.WithAttributes(
				attribute.String("dataset.path", path),
				attribute.String("dataset.kind", kind.String()),
			))
		defer span.End()
		defer w.s.DatasetDone()

		gInfo, err := w.golden.DatasetInfo(path)
		if err != nil {
			return fmt.Errorf("golden dataset info at %s: %w", path, err)
		}
		tInfo, err := w.test.DatasetInfo(path)
		if err != nil {
			return fmt.Errorf("test dataset info at %s: %w", path, err)
		}

		if !product.ShapeEqual(gInfo.Shape, tInfo.Shape) {
			w.s.Report(path, KindStructural, "shape mismatch: golden=%v test=%v", gInfo.Shape, tInfo.Shape)
			return nil
		}
		name := product.BaseName(path)
		if gInfo.DType != tInfo.DType && !w.pol.IsSoftFail(name) {
			w.s.Report(path, KindStructural, "dtype mismatch: golden=%s test=%s", gInfo.DType, tInfo.DType)
			return nil
		}

		gAttrs, err := w.golden.Attrs(path)
		if err != nil {
			return fmt.Errorf("golden attrs at %s: %w", path, err)
		}
		tAttrs, err := w.test.Attrs(path)
		if err != nil {
			return fmt.Errorf("test attrs at %s: %w", path, err)
		}
		compareAttrs(w.s, path, gAttrs, tAttrs)

		golden, err := w.golden.ReadArray(path)
		if err != nil {
			return fmt.Errorf("reading golden %s: %w", path, err)
		}
		test, err := w.test.ReadArray(path)
		if err != nil {
			return fmt.Errorf("reading test %s: %w", path, err)
		}

		switch kind {
		case DatasetLabelOverlap:
			validateLabelOverlap(w.s, path, golden, test, w.pol.LabelOverlapThreshold)
		case DatasetPhaseCongruence:
			if err := w.validatePhase(path, golden, test); err != nil {
				return err
			}
		default:
			validateGeneric(w.s, path, golden, test, w.pol)
		}
		return nil
	}
}

// validatePhase loads the sibling label masks both sides need as
// validity gates and runs the phase-congruence check.
func (w *walker) validatePhase(path string, golden, test *product.Array) error {
	labelPath := product.JoinPath(product.ParentPath(path), config.LabelDatasetName)

	goldenLabels, goldenFill, err := readLabels(w.golden, labelPath)
	if errors.Is(err, product.ErrNotFound) {
		w.s.Report(path, KindStructural, "golden tree is missing sibling dataset %s", config.LabelDatasetName)
		return nil
	} else if err != nil {
		return fmt.Errorf("reading golden labels %s: %w", labelPath, err)
	}
	testLabels, testFill, err := readLabels(w.test, labelPath)
	if errors.Is(err, product.ErrNotFound) {
		w.s.Report(path, KindStructural, "test tree is missing sibling dataset %s", config.LabelDatasetName)
		return nil
	} else if err != nil {
		return fmt.Errorf("reading test labels %s: %w", labelPath, err)
	}

	validateDisplacement(w.s, path, golden, test, goldenLabels, testLabels, goldenFill, testFill, w.pol)
	return nil
}

// readLabels materializes a label mask and its fill sentinel. A
// missing _FillValue attribute yields a nil sentinel; validity then
// reduces to the nonzero condition.
func readLabels(c product.Container, path string) (*product.Array, *float64, error) {
	arr, err := c.ReadArray(path)
	if err != nil {
		return nil, nil, err
	}
	attrs, err := c.Attrs(path)
	if err != nil {
		return nil, nil, err
	}
	fill := fillValue(attrs)
	if fill == nil {
		log.Debug(log.CatCompare, "label dataset has no _FillValue attribute", "path", path)
	}
	return arr, fill, nil
}

// fillValue extracts a scalar _FillValue attribute, if present.
func fillValue(attrs map[string]any) *float64 {
	v, ok := attrs["_FillValue"]
	if !ok {
		return nil
	}
	fs, ok := toFloatSlice(v)
	if !ok || len(fs) != 1 {
		return nil
	}
	return &fs[0]
}
