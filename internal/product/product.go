// Package product defines the read-only contract the validator uses to
// inspect a hierarchical raster product, plus an in-memory implementation
// used by tests and fixtures. On-disk adapters live in subpackages.
package product

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound reports that a node path does not exist in the container.
var ErrNotFound = errors.New("path not found")

// IOError reports that the underlying container could not be opened or
// read. It is the one error category that aborts a comparison run.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("container I/O failure at %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Info describes a dataset without materializing its payload.
type Info struct {
	Shape []int
	DType string
}

// Container is the read-only view over one product instance. Paths are
// slash-separated and rooted at "/". Implementations never expose
// mutation; the validator treats the tree as immutable for the lifetime
// of a comparison.
type Container interface {
	// ListChildren returns the child names of a group.
	ListChildren(path string) ([]string, error)
	// IsGroup reports whether the node at path is a group.
	IsGroup(path string) (bool, error)
	// DatasetInfo returns shape and element type of a dataset.
	DatasetInfo(path string) (Info, error)
	// ReadArray materializes a dataset payload.
	ReadArray(path string) (*Array, error)
	// Attrs returns the attribute map of a group or dataset.
	Attrs(path string) (map[string]any, error)
	// Close releases the container.
	Close() error
}

// JoinPath joins a parent path and a child name.
func JoinPath(parent, name string) string {
	if parent == "" || parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

// BaseName returns the final element of a node path.
func BaseName(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// ParentPath returns the path of the node's parent group.
func ParentPath(path string) string {
	i := strings.LastIndex(path, "/")
	if i <= 0 {
		return "/"
	}
	return path[:i]
}
