package dev

import (
	"sync"
	"time"
)

// ModuleNode tracks one module served during a session.
type ModuleNode struct {
	ID          string
	Served      bool
	Stale       bool
	LastServed  time.Time
	Invalidated time.Time
	Loads       int
}

// ModuleGraph is the session's module tracking table. Modules are recorded
// when served and marked stale when their inputs change, so the next request
// regenerates them.
type ModuleGraph struct {
	mu      sync.RWMutex
	modules map[string]*ModuleNode
	now     func() time.Time
}

// NewModuleGraph creates an empty graph.
func NewModuleGraph() *ModuleGraph {
	return &ModuleGraph{
		modules: make(map[string]*ModuleNode),
		now:     time.Now,
	}
}

// MarkServed records that id was served with fresh content.
func (g *ModuleGraph) MarkServed(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := g.node(id)
	n.Served = true
	n.Stale = false
	n.LastServed = g.now()
	n.Loads++
}

// InvalidateModule marks id stale. It reports false when id was never
// served; the mark is still recorded so a later lookup sees it.
func (g *ModuleGraph) InvalidateModule(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := g.node(id)
	n.Stale = true
	n.Invalidated = g.now()
	return n.Served
}

// IsStale reports whether id has been invalidated since it was last served.
func (g *ModuleGraph) IsStale(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.modules[id]
	return ok && n.Stale
}

// Node returns a copy of the tracking entry for id.
func (g *ModuleGraph) Node(id string) (ModuleNode, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.modules[id]
	if !ok {
		return ModuleNode{}, false
	}
	return *n, true
}

// Len returns the number of tracked modules.
func (g *ModuleGraph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.modules)
}

// node must be called with mu held for writing.
func (g *ModuleGraph) node(id string) *ModuleNode {
	n, ok := g.modules[id]
	if !ok {
		n = &ModuleNode{ID: id}
		g.modules[id] = n
	}
	return n
}
