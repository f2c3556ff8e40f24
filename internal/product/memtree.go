package product

import (
	"fmt"
	"sort"
	"strings"
)

type memNode struct {
	group    bool
	children map[string]*memNode
	arr      *Array
	attrs    map[string]any
}

// MemContainer is an in-memory Container. Tests and fixture builders
// assemble one with AddGroup/AddDataset; the validator sees it through
// the same interface as an on-disk product.
type MemContainer struct {
	root   *memNode
	closed bool
}

// NewMemContainer returns an empty in-memory container with a root group.
func NewMemContainer() *MemContainer {
	return &MemContainer{root: &memNode{group: true, children: map[string]*memNode{}, attrs: map[string]any{}}}
}

// AddGroup creates a group at path, creating intermediate groups as
// needed. Adding an existing group is a no-op.
func (c *MemContainer) AddGroup(path string) *MemContainer {
	c.ensureGroup(path)
	return c
}

// AddDataset places a dataset at path, creating parent groups as needed.
func (c *MemContainer) AddDataset(path string, arr *Array, attrs map[string]any) *MemContainer {
	parent := c.ensureGroup(ParentPath(path))
	if attrs == nil {
		attrs = map[string]any{}
	}
	parent.children[BaseName(path)] = &memNode{arr: arr, attrs: attrs}
	return c
}

// SetAttrs replaces the attribute map of an existing node.
func (c *MemContainer) SetAttrs(path string, attrs map[string]any) *MemContainer {
	if n := c.lookup(path); n != nil {
		n.attrs = attrs
	}
	return c
}

func (c *MemContainer) ensureGroup(path string) *memNode {
	n := c.root
	if path == "/" || path == "" {
		return n
	}
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		child, ok := n.children[part]
		if !ok {
			child = &memNode{group: true, children: map[string]*memNode{}, attrs: map[string]any{}}
			n.children[part] = child
		}
		n = child
	}
	return n
}

func (c *MemContainer) lookup(path string) *memNode {
	n := c.root
	if path == "/" || path == "" {
		return n
	}
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if !n.group {
			return nil
		}
		child, ok := n.children[part]
		if !ok {
			return nil
		}
		n = child
	}
	return n
}

func (c *MemContainer) resolve(path string) (*memNode, error) {
	n := c.lookup(path)
	if n == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return n, nil
}

// ListChildren implements Container.
func (c *MemContainer) ListChildren(path string) ([]string, error) {
	n, err := c.resolve(path)
	if err != nil {
		return nil, err
	}
	if !n.group {
		return nil, fmt.Errorf("not a group: %s", path)
	}
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// IsGroup implements Container.
func (c *MemContainer) IsGroup(path string) (bool, error) {
	n, err := c.resolve(path)
	if err != nil {
		return false, err
	}
	return n.group, nil
}

// DatasetInfo implements Container.
func (c *MemContainer) DatasetInfo(path string) (Info, error) {
	n, err := c.resolve(path)
	if err != nil {
		return Info{}, err
	}
	if n.group || n.arr == nil {
		return Info{}, fmt.Errorf("not a dataset: %s", path)
	}
	return Info{Shape: n.arr.Shape, DType: n.arr.DType}, nil
}

// ReadArray implements Container.
func (c *MemContainer) ReadArray(path string) (*Array, error) {
	n, err := c.resolve(path)
	if err != nil {
		return nil, err
	}
	if n.group || n.arr == nil {
		return nil, fmt.Errorf("not a dataset: %s", path)
	}
	return n.arr, nil
}

// Attrs implements Container.
func (c *MemContainer) Attrs(path string) (map[string]any, error) {
	n, err := c.resolve(path)
	if err != nil {
		return nil, err
	}
	return n.attrs, nil
}

// Close implements Container.
func (c *MemContainer) Close() error {
	c.closed = true
	return nil
}
