package nc

import (
	"fmt"
	"reflect"

	"github.com/zjrosen/goldcheck/internal/product"
)

// flatten converts the reader's nested-slice payload into the flat
// row-major array model the validator works on. NetCDF arrays are
// rectangular, so the shape is taken from the first element of each
// nesting level.
func flatten(values any) (*product.Array, error) {
	shape, leaf, err := shapeOf(values)
	if err != nil {
		return nil, err
	}

	if leaf.Kind() == reflect.String {
		out := make([]string, 0, product.NumElems(shape))
		collectStrings(reflect.ValueOf(values), &out)
		return product.NewStringArray(shape, out)
	}

	out := make([]float64, 0, product.NumElems(shape))
	if err := collectFloats(reflect.ValueOf(values), &out); err != nil {
		return nil, err
	}
	return product.NewFloatArray(shape, dtypeName(leaf), out)
}

// shapeOf walks the nesting levels and returns the shape plus the leaf
// element type. A non-slice value is a scalar with an empty shape.
func shapeOf(values any) ([]int, reflect.Type, error) {
	shape := []int{}
	v := reflect.ValueOf(values)
	for v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Slice {
		shape = append(shape, v.Len())
		if v.Len() == 0 {
			return nil, nil, fmt.Errorf("empty outer dimension in payload")
		}
		v = v.Index(0)
	}
	if v.Kind() == reflect.Slice {
		shape = append(shape, v.Len())
		return shape, v.Type().Elem(), nil
	}
	return shape, v.Type(), nil
}

func collectFloats(v reflect.Value, out *[]float64) error {
	if v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	if v.Kind() == reflect.Slice {
		for i := 0; i < v.Len(); i++ {
			if err := collectFloats(v.Index(i), out); err != nil {
				return err
			}
		}
		return nil
	}
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		*out = append(*out, v.Float())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		*out = append(*out, float64(v.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		*out = append(*out, float64(v.Uint()))
	default:
		return fmt.Errorf("unsupported element kind %s", v.Kind())
	}
	return nil
}

func collectStrings(v reflect.Value, out *[]string) {
	if v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	if v.Kind() == reflect.Slice {
		for i := 0; i < v.Len(); i++ {
			collectStrings(v.Index(i), out)
		}
		return
	}
	*out = append(*out, v.String())
}

func dtypeName(t reflect.Type) string {
	return t.Kind().String()
}
