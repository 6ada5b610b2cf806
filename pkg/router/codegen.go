package router

import (
	"bytes"
	"encoding/json"
	"strings"
	"text/template"
)

// ComponentName is the exported name of the generated route component.
const ComponentName = "ChenRoutes"

// GeneratedHeader is the first line of every generated module.
const GeneratedHeader = "// Code generated by chen. DO NOT EDIT."

var moduleTemplate = template.Must(template.New("module").Funcs(template.FuncMap{
	"jsString": jsString,
}).Parse(`{{.Header}}

import { lazy, Suspense } from "react";
import { Route, Routes } from "react-router";
{{if .Bindings}}
{{range .Bindings}}const {{.Identifier}} = lazy(() => import({{jsString .ImportPath}}));
{{end}}{{end}}
export function {{.Component}}() {
  return (
    <Suspense fallback={null}>
      <Routes>
{{.Body}}      </Routes>
    </Suspense>
  );
}

export default {{.Component}};
`))

// Generator renders route trees as TSX modules.
type Generator struct {
	importPath ImportPathFunc
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithImportPath sets how page files are referenced from the module.
func WithImportPath(fn ImportPathFunc) GeneratorOption {
	return func(g *Generator) {
		if fn != nil {
			g.importPath = fn
		}
	}
}

// NewGenerator creates a code generator.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{importPath: DefaultImportPath}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Table derives the route table for root.
func (g *Generator) Table(root *RouteNode) *Table {
	return NewTable(root, g.importPath)
}

// Generate renders the module for root. A nil or empty tree yields a module
// with zero routes.
func (g *Generator) Generate(root *RouteNode) ([]byte, error) {
	return g.Render(g.Table(root))
}

// Render renders a route table as a TSX module.
func (g *Generator) Render(t *Table) ([]byte, error) {
	var body strings.Builder
	writeRoutes(&body, t.Routes, 4)

	var buf bytes.Buffer
	err := moduleTemplate.Execute(&buf, struct {
		Header    string
		Component string
		Bindings  []Binding
		Body      string
	}{
		Header:    GeneratedHeader,
		Component: ComponentName,
		Bindings:  t.Bindings,
		Body:      body.String(),
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRoutes(b *strings.Builder, routes []Route, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, r := range routes {
		b.WriteString(indent)
		b.WriteString("<Route")
		if r.Index {
			b.WriteString(" index")
		} else if r.Path != "" {
			b.WriteString(" path=")
			b.WriteString(jsxAttr(r.Path))
		}
		if r.Element != "" {
			b.WriteString(" element={<")
			b.WriteString(r.Element)
			b.WriteString(" />}")
		}
		if len(r.Children) == 0 {
			b.WriteString(" />\n")
			continue
		}
		b.WriteString(">\n")
		writeRoutes(b, r.Children, depth+1)
		b.WriteString(indent)
		b.WriteString("</Route>\n")
	}
}

// jsxAttr renders a JSX attribute value. JSX string attributes cannot carry
// escapes, so unusual values fall back to an expression container.
func jsxAttr(s string) string {
	if strings.ContainsAny(s, "\"\\{}<>&\n") {
		return "{" + jsString(s) + "}"
	}
	return `"` + s + `"`
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	out, _ := json.Marshal(s)
	return string(out)
}
