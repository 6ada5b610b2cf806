package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chen-dev/chen/internal/config"
	"github.com/chen-dev/chen/pkg/router"
)

func routesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the route table",
		Long: `Scan the pages directory and print the route table.

Examples:
  chen routes
  chen routes --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger()
			defer logger.Sync()

			return runRoutes(cmd.Context(), cmd.OutOrStdout(), cfg, asJSON, logger)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the table as JSON")

	return cmd
}

func runRoutes(ctx context.Context, w io.Writer, cfg *config.Config, asJSON bool, logger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := router.NewCompiler(router.Options{
		Root:       cfg.PagesPath(),
		Extensions: cfg.Pages.Extensions,
		Logger:     logger,
	}).Compile(ctx)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Table)
	}

	if len(result.Table.Routes) == 0 {
		fmt.Fprintf(w, "No pages found in %s\n", cfg.PagesPath())
		return nil
	}
	printRoutes(w, result.Table.Routes, "", 0)
	return nil
}

// printRoutes writes one line per route: the full URL pattern, the element
// and the page file.
func printRoutes(w io.Writer, routes []router.Route, parent string, depth int) {
	for _, r := range routes {
		full := joinPattern(parent, r)
		label := full
		switch {
		case r.Index:
			label += " (index)"
		case r.Path == "" && len(r.Children) > 0:
			label += " (layout)"
		}

		line := strings.Repeat("  ", depth) + label
		if r.Element != "" {
			line += "  " + r.Element + "  " + mutedStyle.Render(r.File)
		}
		fmt.Fprintln(w, line)

		printRoutes(w, r.Children, full, depth+1)
	}
}

func joinPattern(parent string, r router.Route) string {
	if r.Path == "" {
		if parent == "" {
			return "/"
		}
		return parent
	}
	if parent == "" || parent == "/" {
		return "/" + r.Path
	}
	return parent + "/" + r.Path
}
