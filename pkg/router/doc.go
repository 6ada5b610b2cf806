// Package router compiles a directory of page source files into a route table
// module for react-router.
//
// The pipeline is:
//   - Scanner discovers page files under the pages root
//   - BuildTree arranges them into a RouteNode tree
//   - Generator renders the tree as a TSX module exporting ChenRoutes
//
// # File Structure Convention
//
//	src/pages/
//	├── index.tsx          → /           (index route)
//	├── about.tsx          → /about
//	├── _layout.tsx        → wraps every route below it
//	├── _404.tsx           → final catch-all route "*"
//	├── _helpers.tsx       → ignored
//	├── blog/
//	│   ├── index.tsx      → /blog       (index route)
//	│   └── [slug].tsx     → /blog/:slug
//	└── docs/
//	    └── [...rest].tsx  → /docs/*
//
// Files and directories starting with "_" never contribute pages, except for
// the reserved _layout and _404 names.
//
// # Generated Module
//
// Every referenced file becomes one lazily imported binding and the table is
// wrapped once in a Suspense boundary:
//
//	const RouteAbout = lazy(() => import("/app/src/pages/about.tsx"));
//
//	export function ChenRoutes() {
//	  return (
//	    <Suspense fallback={null}>
//	      <Routes>
//	        <Route index element={<RouteIndex />} />
//	        <Route path="about" element={<RouteAbout />} />
//	      </Routes>
//	    </Suspense>
//	  );
//	}
//
// Generation is deterministic: the same filesystem state always produces
// byte-identical output.
package router
