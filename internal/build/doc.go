// Package build produces the production bundle for a chen project.
//
// The builder bundles the configured entry point with esbuild. The entry
// imports the generated routes through the "virtual:chen-routes" module,
// and every lazily loaded page becomes its own chunk:
//
//	dist/
//	├── main.js
//	├── chunks/
//	│   ├── index-4FQXK2JB.js
//	│   └── _slug_-TN3PZ6QA.js
//	└── manifest.json
//
// # Manifest
//
// manifest.json maps each written file to the sha256 of its contents:
//
//	{
//	  "main.js": "9f86d081884c7d65...",
//	  "chunks/index-4FQXK2JB.js": "60303ae22b998861..."
//	}
package build
