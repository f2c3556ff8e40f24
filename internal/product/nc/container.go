// Package nc adapts a NetCDF4/HDF5 product file to the product
// container contract. It uses the pure-Go go-native-netcdf reader, so
// CI runners need no native HDF5 library. Reads are cached; caching is
// private to the accessor and invisible to the validator's contract.
package nc

import (
	"fmt"
	"strings"
	"sync"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/goldcheck/internal/log"
	"github.com/zjrosen/goldcheck/internal/product"
)

// Container is a read-only view over one NetCDF4/HDF5 product file.
// Safe for concurrent use: the underlying reader is single-threaded,
// so all reads serialize on one mutex and hot paths hit the cache.
type Container struct {
	mu     sync.Mutex
	path   string
	root   api.Group
	groups map[string]api.Group
	cache  *gocache.Cache
}

// Open opens a product file read-only. Failure to open is an IOError,
// the one category that aborts a comparison run.
func Open(path string) (*Container, error) {
	root, err := netcdf.Open(path)
	if err != nil {
		return nil, &product.IOError{Path: path, Err: err}
	}
	log.Debug(log.CatContainer, "product container opened", "path", path)
	return &Container{
		path:   path,
		root:   root,
		groups: map[string]api.Group{"/": root},
		cache:  gocache.New(gocache.NoExpiration, 0),
	}, nil
}

// Close releases the container and every group handle opened from it.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for p, g := range c.groups {
		if p != "/" {
			g.Close()
		}
	}
	c.root.Close()
	log.Debug(log.CatContainer, "product container closed", "path", c.path)
	return nil
}

// group resolves and caches the group handle for a slash path.
// Callers hold c.mu.
func (c *Container) group(path string) (api.Group, error) {
	if g, ok := c.groups[path]; ok {
		return g, nil
	}
	g := c.root
	walked := ""
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		walked += "/" + part
		if cached, ok := c.groups[walked]; ok {
			g = cached
			continue
		}
		child, err := g.GetGroup(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", product.ErrNotFound, walked)
		}
		c.groups[walked] = child
		g = child
	}
	return g, nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// ListChildren implements product.Container. Subgroups and variables
// of a group share one flat namespace.
func (c *Container) ListChildren(path string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, err := c.group(path)
	if err != nil {
		return nil, err
	}
	names := append([]string{}, g.ListSubgroups()...)
	names = append(names, g.ListVariables()...)
	return names, nil
}

// IsGroup implements product.Container.
func (c *Container) IsGroup(path string) (bool, error) {
	if path == "/" || path == "" {
		return true, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	parent, err := c.group(product.ParentPath(path))
	if err != nil {
		return false, err
	}
	name := product.BaseName(path)
	if contains(parent.ListSubgroups(), name) {
		return true, nil
	}
	if contains(parent.ListVariables(), name) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %s", product.ErrNotFound, path)
}

// variable reads and caches a dataset payload with its attributes.
// Callers hold c.mu.
func (c *Container) variable(path string) (*entry, error) {
	if v, ok := c.cache.Get(path); ok {
		return v.(*entry), nil
	}
	parent, err := c.group(product.ParentPath(path))
	if err != nil {
		return nil, err
	}
	name := product.BaseName(path)
	if !contains(parent.ListVariables(), name) {
		return nil, fmt.Errorf("%w: %s", product.ErrNotFound, path)
	}
	v, err := parent.GetVariable(name)
	if err != nil {
		return nil, &product.IOError{Path: path, Err: err}
	}
	arr, err := flatten(v.Values)
	if err != nil {
		return nil, &product.IOError{Path: path, Err: err}
	}
	e := &entry{arr: arr, attrs: attrMapToGo(v.Attributes)}
	c.cache.Set(path, e, gocache.NoExpiration)
	return e, nil
}

type entry struct {
	arr   *product.Array
	attrs map[string]any
}

// DatasetInfo implements product.Container.
func (c *Container) DatasetInfo(path string) (product.Info, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.variable(path)
	if err != nil {
		return product.Info{}, err
	}
	return product.Info{Shape: e.arr.Shape, DType: e.arr.DType}, nil
}

// ReadArray implements product.Container.
func (c *Container) ReadArray(path string) (*product.Array, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.variable(path)
	if err != nil {
		return nil, err
	}
	return e.arr, nil
}

// Attrs implements product.Container.
func (c *Container) Attrs(path string) (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if path == "/" || path == "" {
		return attrMapToGo(c.root.Attributes()), nil
	}
	parent, err := c.group(product.ParentPath(path))
	if err != nil {
		return nil, err
	}
	name := product.BaseName(path)
	if contains(parent.ListSubgroups(), name) {
		g, err := c.group(path)
		if err != nil {
			return nil, err
		}
		return attrMapToGo(g.Attributes()), nil
	}
	e, err := c.variable(path)
	if err != nil {
		return nil, err
	}
	return e.attrs, nil
}

func attrMapToGo(attrs api.AttributeMap) map[string]any {
	out := map[string]any{}
	if attrs == nil {
		return out
	}
	for _, key := range attrs.Keys() {
		if v, ok := attrs.Get(key); ok {
			out[key] = v
		}
	}
	return out
}
