package dev

import (
	"strings"

	"github.com/chen-dev/chen/internal/config"
)

// CollectIgnore returns the default ignore patterns merged with the
// project's dev.ignore entries, without duplicates.
func CollectIgnore(cfg *config.Config) []string {
	patterns := make([]string, 0, len(DefaultIgnore)+len(cfg.Dev.Ignore))
	seen := make(map[string]struct{}, cap(patterns))
	for _, list := range [][]string{DefaultIgnore, cfg.Dev.Ignore} {
		for _, p := range list {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			patterns = append(patterns, p)
		}
	}
	return patterns
}
