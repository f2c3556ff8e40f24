package geo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zjrosen/goldcheck/internal/product"
)

// Default locations of the coordinate and grid-mapping datasets inside
// a product container.
const (
	defaultXPath    = "/x"
	defaultYPath    = "/y"
	defaultGridPath = "/spatial_ref"
)

// ContainerReader derives raster metadata from the product container
// itself: bounds from the x/y coordinate datasets, CRS and
// geotransform from the grid-mapping dataset's attributes.
type ContainerReader struct {
	c        product.Container
	xPath    string
	yPath    string
	gridPath string
}

// NewContainerReader returns a reader over the container's default
// coordinate layout.
func NewContainerReader(c product.Container) *ContainerReader {
	return &ContainerReader{c: c, xPath: defaultXPath, yPath: defaultYPath, gridPath: defaultGridPath}
}

// Bounds computes the outer bounding box from the coordinate arrays.
// Coordinates address pixel centers, so each edge is pushed out by
// half a pixel to match the conventional raster extent.
func (r *ContainerReader) Bounds() (Bounds, error) {
	xs, err := r.coord(r.xPath)
	if err != nil {
		return Bounds{}, err
	}
	ys, err := r.coord(r.yPath)
	if err != nil {
		return Bounds{}, err
	}

	halfX := 0.0
	if len(xs) > 1 {
		halfX = (xs[1] - xs[0]) / 2
	}
	halfY := 0.0
	if len(ys) > 1 {
		halfY = (ys[0] - ys[1]) / 2
	}

	// y coordinates run north to south.
	return Bounds{
		Left:   xs[0] - halfX,
		Right:  xs[len(xs)-1] + halfX,
		Top:    ys[0] + halfY,
		Bottom: ys[len(ys)-1] - halfY,
	}, nil
}

func (r *ContainerReader) coord(path string) ([]float64, error) {
	arr, err := r.c.ReadArray(path)
	if err != nil {
		return nil, fmt.Errorf("coordinate dataset %s: %w", path, err)
	}
	if arr.IsString() || arr.Len() == 0 {
		return nil, fmt.Errorf("coordinate dataset %s is not a non-empty numeric array", path)
	}
	return arr.Floats, nil
}

// CRS returns the CRS identifier from the grid-mapping dataset,
// preferring the WKT spatial_ref attribute.
func (r *ContainerReader) CRS() (string, error) {
	attrs, err := r.c.Attrs(r.gridPath)
	if err != nil {
		return "", fmt.Errorf("grid mapping %s: %w", r.gridPath, err)
	}
	for _, key := range []string{"spatial_ref", "crs_wkt"} {
		if v, ok := attrs[key]; ok {
			if s, ok := v.(string); ok {
				return s, nil
			}
		}
	}
	return "", fmt.Errorf("grid mapping %s has no spatial_ref or crs_wkt attribute", r.gridPath)
}

// Geotransform parses the GDAL-style GeoTransform attribute, a string
// of six space-separated coefficients.
func (r *ContainerReader) Geotransform() ([6]float64, error) {
	var gt [6]float64
	attrs, err := r.c.Attrs(r.gridPath)
	if err != nil {
		return gt, fmt.Errorf("grid mapping %s: %w", r.gridPath, err)
	}
	v, ok := attrs["GeoTransform"]
	if !ok {
		return gt, fmt.Errorf("grid mapping %s has no GeoTransform attribute", r.gridPath)
	}
	s, ok := v.(string)
	if !ok {
		return gt, fmt.Errorf("GeoTransform attribute at %s is not a string", r.gridPath)
	}
	fields := strings.Fields(s)
	if len(fields) != 6 {
		return gt, fmt.Errorf("GeoTransform at %s has %d fields, want 6", r.gridPath, len(fields))
	}
	for i, f := range fields {
		gt[i], err = strconv.ParseFloat(f, 64)
		if err != nil {
			return gt, fmt.Errorf("GeoTransform field %d at %s: %w", i, r.gridPath, err)
		}
	}
	return gt, nil
}
