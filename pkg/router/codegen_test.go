package router

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/google/go-cmp/cmp"
)

func generate(t *testing.T, files ...string) string {
	t.Helper()
	tree, err := BuildTree(descriptors(files...))
	if err != nil {
		t.Fatalf("BuildTree() error = %v", err)
	}
	code, err := NewGenerator().Generate(tree)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	return string(code)
}

func TestGenerateExampleTree(t *testing.T) {
	got := generate(t, "index.tsx", "about.tsx", "blog/index.tsx", "blog/[slug].tsx")

	want := `// Code generated by chen. DO NOT EDIT.

import { lazy, Suspense } from "react";
import { Route, Routes } from "react-router";

const RouteAbout = lazy(() => import("/src/pages/about.tsx"));
const RouteBlogSlug = lazy(() => import("/src/pages/blog/[slug].tsx"));
const RouteBlogIndex = lazy(() => import("/src/pages/blog/index.tsx"));
const RouteIndex = lazy(() => import("/src/pages/index.tsx"));

export function ChenRoutes() {
  return (
    <Suspense fallback={null}>
      <Routes>
        <Route index element={<RouteIndex />} />
        <Route path="about" element={<RouteAbout />} />
        <Route path="blog">
          <Route index element={<RouteBlogIndex />} />
          <Route path=":slug" element={<RouteBlogSlug />} />
        </Route>
      </Routes>
    </Suspense>
  );
}

export default ChenRoutes;
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Generate() mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateEmpty(t *testing.T) {
	want := `// Code generated by chen. DO NOT EDIT.

import { lazy, Suspense } from "react";
import { Route, Routes } from "react-router";

export function ChenRoutes() {
  return (
    <Suspense fallback={null}>
      <Routes>
      </Routes>
    </Suspense>
  );
}

export default ChenRoutes;
`
	if diff := cmp.Diff(want, generate(t)); diff != "" {
		t.Errorf("Generate() mismatch (-want +got):\n%s", diff)
	}

	code, err := NewGenerator().Generate(nil)
	if err != nil {
		t.Fatalf("Generate(nil) error = %v", err)
	}
	if diff := cmp.Diff(want, string(code)); diff != "" {
		t.Errorf("Generate(nil) mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateSingleIndex(t *testing.T) {
	got := generate(t, "index.tsx")
	if !strings.Contains(got, `<Route index element={<RouteIndex />} />`) {
		t.Errorf("missing index route:\n%s", got)
	}
	if n := strings.Count(got, "<Route "); n != 1 {
		t.Errorf("got %d routes, want 1", n)
	}
}

func TestGenerateNotFoundLast(t *testing.T) {
	got := generate(t, "_404.tsx", "zebra.tsx", "index.tsx", "admin/index.tsx")

	lines := strings.Split(strings.TrimSpace(got), "\n")
	var last string
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "<Route") {
			last = strings.TrimSpace(line)
		}
	}
	if want := `<Route path="*" element={<Route404 />} />`; last != want {
		t.Errorf("last route = %q, want %q", last, want)
	}
}

func TestGenerateWrapsSuspenseOnce(t *testing.T) {
	got := generate(t, "index.tsx", "a/index.tsx", "a/b/index.tsx")
	if n := strings.Count(got, "<Suspense"); n != 1 {
		t.Errorf("got %d Suspense boundaries, want 1", n)
	}
	if n := strings.Count(got, "lazy(() => import("); n != 3 {
		t.Errorf("got %d lazy bindings, want 3", n)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	files := []string{
		"index.tsx", "about.tsx", "_layout.tsx", "_404.tsx",
		"blog/index.tsx", "blog/[slug].tsx", "blog/_layout.tsx",
		"docs/[...rest].tsx", "users/[id]/index.tsx", "users/[id]/settings.tsx",
	}
	want := generate(t, files...)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		shuffled := append([]string(nil), files...)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		if got := generate(t, shuffled...); got != want {
			t.Fatalf("output differs for order %v:\n%s", shuffled, cmp.Diff(want, got))
		}
	}
}

func TestTableLayouts(t *testing.T) {
	tree, err := BuildTree(descriptors(
		"_layout.tsx",
		"index.tsx",
		"about.tsx",
		"_404.tsx",
		"blog/_layout.tsx",
		"blog/index.tsx",
		"blog/[slug].tsx",
		"blog/_404.tsx",
		"docs/[...rest].tsx",
	))
	if err != nil {
		t.Fatal(err)
	}

	want := []Route{
		{
			Element: "RouteLayout",
			File:    "_layout.tsx",
			Children: []Route{
				{Index: true, Element: "RouteIndex", File: "index.tsx"},
				{Path: "about", Element: "RouteAbout", File: "about.tsx"},
				{
					Path:    "blog",
					Element: "RouteBlogLayout",
					File:    "blog/_layout.tsx",
					Children: []Route{
						{Index: true, Element: "RouteBlogIndex", File: "blog/index.tsx"},
						{Path: ":slug", Element: "RouteBlogSlug", File: "blog/[slug].tsx"},
						{Path: "*", Element: "RouteBlog404", File: "blog/_404.tsx"},
					},
				},
				{
					Path: "docs",
					Children: []Route{
						{Path: "*", Element: "RouteDocsRest", File: "docs/[...rest].tsx"},
					},
				},
			},
		},
		{Path: "*", Element: "Route404", File: "_404.tsx"},
	}

	got := NewTable(tree, nil)
	if diff := cmp.Diff(want, got.Routes); diff != "" {
		t.Errorf("Routes mismatch (-want +got):\n%s", diff)
	}
	if got.Count() != 10 {
		t.Errorf("Count() = %d, want 10", got.Count())
	}
}

func TestTableDynamicDirectories(t *testing.T) {
	tree, err := BuildTree(descriptors("users/[id]/[...rest].tsx", "users/[id]/index.tsx"))
	if err != nil {
		t.Fatal(err)
	}

	want := []Route{{
		Path: "users",
		Children: []Route{{
			Path: ":id",
			Children: []Route{
				{Index: true, Element: "RouteUsersIdIndex", File: "users/[id]/index.tsx"},
				{Path: "*", Element: "RouteUsersIdRest", File: "users/[id]/[...rest].tsx"},
			},
		}},
	}}
	if diff := cmp.Diff(want, NewTable(tree, nil).Routes); diff != "" {
		t.Errorf("Routes mismatch (-want +got):\n%s", diff)
	}
}

func TestTableBindings(t *testing.T) {
	tree, err := BuildTree(descriptors("user_profile.tsx", "user-profile.tsx", "index.tsx", "_helpers.tsx"))
	if err != nil {
		t.Fatal(err)
	}

	got := NewTable(tree, func(p PageDescriptor) string { return "@pages/" + p.RelativePath })
	want := []Binding{
		{Identifier: "RouteIndex", ImportPath: "@pages/index.tsx", RelativePath: "index.tsx"},
		{Identifier: "RouteUserProfile", ImportPath: "@pages/user-profile.tsx", RelativePath: "user-profile.tsx"},
		{Identifier: "RouteUserProfile_2", ImportPath: "@pages/user_profile.tsx", RelativePath: "user_profile.tsx"},
	}
	if diff := cmp.Diff(want, got.Bindings); diff != "" {
		t.Errorf("Bindings mismatch (-want +got):\n%s", diff)
	}
}

func TestIdentifierFor(t *testing.T) {
	tests := []struct {
		rel  string
		want string
	}{
		{"index.tsx", "RouteIndex"},
		{"about.tsx", "RouteAbout"},
		{"_404.tsx", "Route404"},
		{"_layout.tsx", "RouteLayout"},
		{"blog/[slug].tsx", "RouteBlogSlug"},
		{"docs/[...rest].tsx", "RouteDocsRest"},
		{"user-profile.jsx", "RouteUserProfile"},
		{"api/v2/status.ts", "RouteApiV2Status"},
		{"-.tsx", "RoutePage"},
		{"[...].tsx", "RoutePage"},
	}
	for _, tt := range tests {
		if got := identifierFor(tt.rel); got != tt.want {
			t.Errorf("identifierFor(%q) = %q, want %q", tt.rel, got, tt.want)
		}
	}
}

func TestGenerateSymbolOnlyNames(t *testing.T) {
	tree, err := BuildTree(descriptors("index.tsx", "-.tsx", "[...].tsx", "@.tsx"))
	if err != nil {
		t.Fatal(err)
	}
	table := NewGenerator().Table(tree)

	var ids []string
	for _, b := range table.Bindings {
		ids = append(ids, b.Identifier)
		for _, name := range moduleNames {
			if b.Identifier == name {
				t.Errorf("binding for %s shadows %s", b.RelativePath, name)
			}
		}
	}
	want := []string{"RoutePage", "RoutePage_2", "RoutePage_3", "RouteIndex"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("identifiers mismatch (-want +got):\n%s", diff)
	}

	code, err := NewGenerator().Render(table)
	if err != nil {
		t.Fatal(err)
	}
	out := api.Transform(string(code), api.TransformOptions{
		Loader: api.LoaderTSX,
		JSX:    api.JSXAutomatic,
		Format: api.FormatESModule,
	})
	if len(out.Errors) > 0 {
		t.Fatalf("transform errors: %v", out.Errors)
	}
	js := string(out.Code)
	if !strings.Contains(js, `import { Route, Routes } from "react-router";`) {
		t.Errorf("transformed module lost the react-router import:\n%s", js)
	}
	if strings.Contains(js, "const Route =") {
		t.Errorf("transformed module redeclares Route:\n%s", js)
	}
}

func TestJSXAttr(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"about", `"about"`},
		{":id", `":id"`},
		{`say"hi`, `{"say\"hi"}`},
		{"a{b}", `{"a{b}"}`},
	}
	for _, tt := range tests {
		if got := jsxAttr(tt.in); got != tt.want {
			t.Errorf("jsxAttr(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
