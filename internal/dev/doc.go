// Package dev provides the development session for the route compiler.
//
// A session consists of:
//
//   - Watcher: subscribes to changes under the pages directory
//   - ModuleGraph: tracks which modules were served and which are stale
//   - ReloadServer: notifies browsers over a WebSocket live channel
//   - Server: serves the virtual route module, the bundled entry, the
//     route table, metrics and static files
//
// # Modules
//
// /@id/virtual:chen-routes and /_chen/entry.js are esbuild bundles. Pages
// are inlined and bare imports resolve from node_modules, so the browser
// loads each as a single self-contained ES module. Add ?raw=1 to the
// module URL to see the generated TSX.
//
// # Usage
//
//	srv := dev.NewServer(dev.ServerOptions{
//	    Config: cfg,
//	    Logger: logger,
//	})
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Invalidation
//
// Every create, remove or rename under the pages directory, and every write
// to a file below it, marks the virtual module stale and sends exactly one
// full reload. There is no debouncing and no partial update.
//
// # Live Channel Protocol
//
// The browser connects to /_chen/reload via WebSocket.
// Messages are JSON-encoded:
//
//	{"type": "reload"}                // Triggers full page reload
//	{"type": "error", "error": "..."} // Shows error overlay
//	{"type": "clear"}                 // Clears error overlay
package dev
