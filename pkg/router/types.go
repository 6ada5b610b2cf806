package router

// Reserved file and directory names.
const (
	// ReservedPrefix marks files and directories that never contribute pages.
	ReservedPrefix = "_"

	// LayoutName is the file name (without extension) of a directory layout.
	LayoutName = "_layout"

	// NotFoundName is the file name (without extension) of a not-found page.
	NotFoundName = "_404"

	// IndexName is the file name (without extension) of an index page.
	IndexName = "index"
)

// IndexSegment is the route segment of an index page.
const IndexSegment = ""

// PageDescriptor identifies one discovered page source file.
type PageDescriptor struct {
	// AbsolutePath is the full filesystem path of the file.
	AbsolutePath string `json:"absolutePath"`

	// RelativePath is the path below the pages root, always using "/".
	RelativePath string `json:"relativePath"`
}

// PageEntry is a page placed in a RouteNode.
type PageEntry struct {
	PageDescriptor

	// Segment is the converted route segment. IndexSegment for index pages.
	Segment string
}

// IsIndex reports whether the entry is an index page.
func (p PageEntry) IsIndex() bool {
	return p.Segment == IndexSegment
}

// RouteNode is one directory level of the route tree.
// The root node carries no segment of its own.
type RouteNode struct {
	// Layout is the directory's _layout file, if any.
	Layout *PageDescriptor

	// NotFound is the directory's _404 file, if any.
	NotFound *PageDescriptor

	// Pages are the directory's own pages, index first then by segment.
	Pages []PageEntry

	// Children maps raw directory names to their nodes.
	Children map[string]*RouteNode
}

func newRouteNode() *RouteNode {
	return &RouteNode{Children: make(map[string]*RouteNode)}
}

// LayoutPath returns the absolute path of the node's layout or "".
func (n *RouteNode) LayoutPath() string {
	if n.Layout == nil {
		return ""
	}
	return n.Layout.AbsolutePath
}

// NotFoundPath returns the absolute path of the node's not-found page or "".
func (n *RouteNode) NotFoundPath() string {
	if n.NotFound == nil {
		return ""
	}
	return n.NotFound.AbsolutePath
}

// IsEmpty reports whether the node holds nothing at all.
func (n *RouteNode) IsEmpty() bool {
	return n.Layout == nil && n.NotFound == nil && len(n.Pages) == 0 && len(n.Children) == 0
}

// Files returns every descriptor referenced by the subtree.
func (n *RouteNode) Files() []PageDescriptor {
	var files []PageDescriptor
	n.collect(&files)
	return files
}

func (n *RouteNode) collect(files *[]PageDescriptor) {
	if n.Layout != nil {
		*files = append(*files, *n.Layout)
	}
	if n.NotFound != nil {
		*files = append(*files, *n.NotFound)
	}
	for _, p := range n.Pages {
		*files = append(*files, p.PageDescriptor)
	}
	for _, child := range n.Children {
		child.collect(files)
	}
}
