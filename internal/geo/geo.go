// Package geo compares the geospatial metadata of two raster products:
// spatial bounds, CRS identifier and affine geotransform. These fields
// are bit-reproducible given identical input geometry, so equality is
// exact with no tolerance band.
package geo

import (
	"fmt"

	"github.com/zjrosen/goldcheck/internal/compare"
	"github.com/zjrosen/goldcheck/internal/log"
)

// Bounds is a raster's outer bounding box in CRS units.
type Bounds struct {
	Left   float64
	Bottom float64
	Right  float64
	Top    float64
}

// MetadataReader exposes the raster metadata of one product. The
// on-container implementation lives in this package; other raster
// sources only need to satisfy this interface.
type MetadataReader interface {
	Bounds() (Bounds, error)
	CRS() (string, error)
	Geotransform() ([6]float64, error)
}

// Compare fetches bounds, CRS and geotransform from both readers and
// reports a violation for any inequality. Read failures abort, since
// geospatial metadata that cannot be read means an unreadable product.
func Compare(s *compare.Session, golden, test MetadataReader) error {
	gb, err := golden.Bounds()
	if err != nil {
		return fmt.Errorf("golden bounds: %w", err)
	}
	tb, err := test.Bounds()
	if err != nil {
		return fmt.Errorf("test bounds: %w", err)
	}
	if gb != tb {
		s.Report("geo/bounds", compare.KindTolerance, "bounds differ: golden=%+v test=%+v", gb, tb)
	}

	gc, err := golden.CRS()
	if err != nil {
		return fmt.Errorf("golden CRS: %w", err)
	}
	tc, err := test.CRS()
	if err != nil {
		return fmt.Errorf("test CRS: %w", err)
	}
	if gc != tc {
		s.Report("geo/crs", compare.KindTolerance, "CRS differs: golden=%q test=%q", gc, tc)
	}

	gt, err := golden.Geotransform()
	if err != nil {
		return fmt.Errorf("golden geotransform: %w", err)
	}
	tt, err := test.Geotransform()
	if err != nil {
		return fmt.Errorf("test geotransform: %w", err)
	}
	if gt != tt {
		s.Report("geo/geotransform", compare.KindTolerance, "geotransform differs: golden=%v test=%v", gt, tt)
	}

	log.Info(log.CatGeo, "geospatial metadata compared",
		"bounds_equal", gb == tb,
		"crs_equal", gc == tc,
		"geotransform_equal", gt == tt)
	return nil
}
