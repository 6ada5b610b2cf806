package router

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/chen-dev/chen/internal/errors"
)

// BuildTree arranges page descriptors into a route tree.
//
// Each descriptor lands in the node reached by its directory components.
// Descriptors below a directory starting with "_" are skipped, as are files
// starting with "_" other than _layout and _404. Nodes are created on demand,
// so empty directories never appear.
//
// A second layout or not-found file in one directory fails with E103 or E104.
// Two sibling pages producing the same segment fail with E105.
func BuildTree(pages []PageDescriptor) (*RouteNode, error) {
	sorted := append([]PageDescriptor(nil), pages...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].RelativePath < sorted[j].RelativePath
	})

	root := newRouteNode()
	for _, p := range sorted {
		if err := root.insert(p); err != nil {
			return nil, err
		}
	}
	root.sortPages()
	return root, nil
}

func (n *RouteNode) insert(p PageDescriptor) error {
	parts := strings.Split(p.RelativePath, "/")
	dirs, file := parts[:len(parts)-1], parts[len(parts)-1]
	for _, dir := range dirs {
		if strings.HasPrefix(dir, ReservedPrefix) {
			return nil
		}
	}

	name := strings.TrimSuffix(file, path.Ext(file))
	switch {
	case strings.EqualFold(name, LayoutName):
		node := n.descend(dirs)
		if node.Layout != nil {
			return duplicateError("E103", p, *node.Layout)
		}
		node.Layout = &p

	case strings.EqualFold(name, NotFoundName):
		node := n.descend(dirs)
		if node.NotFound != nil {
			return duplicateError("E104", p, *node.NotFound)
		}
		node.NotFound = &p

	case strings.HasPrefix(name, ReservedPrefix):
		return nil

	default:
		segment := IndexSegment
		if !strings.EqualFold(name, IndexName) {
			segment = ConvertSegment(name)
		}
		node := n.descend(dirs)
		for _, existing := range node.Pages {
			if strings.EqualFold(existing.Segment, segment) {
				return duplicateError("E105", p, existing.PageDescriptor)
			}
		}
		node.Pages = append(node.Pages, PageEntry{PageDescriptor: p, Segment: segment})
	}
	return nil
}

func (n *RouteNode) descend(dirs []string) *RouteNode {
	node := n
	for _, dir := range dirs {
		child, ok := node.Children[dir]
		if !ok {
			child = newRouteNode()
			node.Children[dir] = child
		}
		node = child
	}
	return node
}

// sortPages orders pages index first, then lexicographically by segment.
func (n *RouteNode) sortPages() {
	sort.SliceStable(n.Pages, func(i, j int) bool {
		a, b := n.Pages[i], n.Pages[j]
		if a.IsIndex() != b.IsIndex() {
			return a.IsIndex()
		}
		return a.Segment < b.Segment
	})
	for _, child := range n.Children {
		child.sortPages()
	}
}

// SortedChildNames returns the node's child directory names in order.
func (n *RouteNode) SortedChildNames() []string {
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func duplicateError(code string, p, existing PageDescriptor) error {
	return errors.New(code).
		WithFile(p.AbsolutePath).
		WithDetail(fmt.Sprintf("%s conflicts with %s", p.RelativePath, existing.RelativePath)).
		WithSuggestion("Remove or rename one of the two files")
}
