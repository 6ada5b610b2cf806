package router

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"unicode"
)

// Route is one entry of the generated route table.
type Route struct {
	// Path is the route segment. Empty for index and pathless layout routes.
	Path string `json:"path,omitempty"`

	// Index marks an index route.
	Index bool `json:"index,omitempty"`

	// Element is the binding identifier rendered by the route.
	// Empty for pass-through directory routes.
	Element string `json:"element,omitempty"`

	// File is the relative path of the element's source file.
	File string `json:"file,omitempty"`

	// Children are nested routes.
	Children []Route `json:"children,omitempty"`
}

// Binding is one deferred-load import in the generated module.
type Binding struct {
	Identifier   string `json:"identifier"`
	ImportPath   string `json:"importPath"`
	RelativePath string `json:"relativePath"`
}

// Table is the declarative route table derived from a RouteNode.
type Table struct {
	Bindings []Binding `json:"bindings"`
	Routes   []Route   `json:"routes"`
}

// ImportPathFunc maps a page file to the specifier used in its import.
type ImportPathFunc func(PageDescriptor) string

// DefaultImportPath imports pages by absolute path with forward slashes.
func DefaultImportPath(p PageDescriptor) string {
	return strings.ReplaceAll(p.AbsolutePath, "\\", "/")
}

// NewTable derives the route table for root.
func NewTable(root *RouteNode, importPath ImportPathFunc) *Table {
	if importPath == nil {
		importPath = DefaultImportPath
	}
	t := &Table{
		Bindings: []Binding{},
		Routes:   []Route{},
	}
	if root == nil {
		return t
	}

	files := root.Files()
	sort.Slice(files, func(i, j int) bool {
		return files[i].RelativePath < files[j].RelativePath
	})

	idents := make(map[string]string, len(files))
	used := make(map[string]bool, len(files)+len(moduleNames))
	for _, name := range moduleNames {
		used[name] = true
	}
	for _, f := range files {
		id := identifierFor(f.RelativePath)
		if used[id] {
			for i := 2; ; i++ {
				candidate := fmt.Sprintf("%s_%d", id, i)
				if !used[candidate] {
					id = candidate
					break
				}
			}
		}
		used[id] = true
		idents[f.RelativePath] = id
		t.Bindings = append(t.Bindings, Binding{
			Identifier:   id,
			ImportPath:   importPath(f),
			RelativePath: f.RelativePath,
		})
	}

	t.Routes = append(t.Routes, emitNode(root, "", true, idents)...)
	if root.NotFound != nil {
		t.Routes = append(t.Routes, Route{
			Path:    "*",
			Element: idents[root.NotFound.RelativePath],
			File:    root.NotFound.RelativePath,
		})
	}
	return t
}

// emitNode returns the routes contributed by n, reached through segment.
func emitNode(n *RouteNode, segment string, isRoot bool, idents map[string]string) []Route {
	var inner []Route
	for _, p := range n.Pages {
		r := Route{
			Element: idents[p.RelativePath],
			File:    p.RelativePath,
		}
		if p.IsIndex() {
			r.Index = true
		} else {
			r.Path = p.Segment
		}
		inner = append(inner, r)
	}

	for _, name := range n.SortedChildNames() {
		inner = append(inner, emitNode(n.Children[name], ConvertSegment(name), false, idents)...)
	}

	if !isRoot && n.NotFound != nil {
		inner = append(inner, Route{
			Path:    "*",
			Element: idents[n.NotFound.RelativePath],
			File:    n.NotFound.RelativePath,
		})
	}

	switch {
	case n.Layout != nil:
		return []Route{{
			Path:     segment,
			Element:  idents[n.Layout.RelativePath],
			File:     n.Layout.RelativePath,
			Children: inner,
		}}
	case isRoot:
		return inner
	default:
		return []Route{{Path: segment, Children: inner}}
	}
}

// moduleNames are declared by the generated module itself and never bound
// to a page.
var moduleNames = []string{"Route", "Routes", "lazy", "Suspense", ComponentName}

// fallbackIdentifier names pages whose path has no letters or digits.
const fallbackIdentifier = "RoutePage"

// identifierFor derives a binding identifier from a relative path:
// "blog/[slug].tsx" becomes "RouteBlogSlug".
func identifierFor(rel string) string {
	rel = strings.TrimSuffix(rel, path.Ext(rel))

	var b strings.Builder
	b.WriteString("Route")
	for _, part := range strings.Split(rel, "/") {
		upper := true
		for _, r := range part {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				upper = true
				continue
			}
			if upper {
				r = unicode.ToUpper(r)
				upper = false
			}
			b.WriteRune(r)
		}
	}
	if b.Len() == len("Route") {
		return fallbackIdentifier
	}
	return b.String()
}

// Count returns the number of routes in the table, nested ones included.
func (t *Table) Count() int {
	return countRoutes(t.Routes)
}

func countRoutes(routes []Route) int {
	n := len(routes)
	for _, r := range routes {
		n += countRoutes(r.Children)
	}
	return n
}
