package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chen-dev/chen/internal/config"
	"github.com/chen-dev/chen/internal/errors"
	"github.com/chen-dev/chen/pkg/router"
)

func genCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate the route module",
		Long: `Scan the pages directory and generate the route module.

Without --output the module is written to stdout and page imports use
absolute paths. With --output the imports are relative to the output
file, so the file can be committed.

The output is deterministic: running it twice produces identical
output unless the pages change.

Examples:
  chen gen
  chen gen -o src/routes.gen.tsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger()
			defer logger.Sync()

			return runGen(cmd.Context(), cmd.OutOrStdout(), cfg, output, logger)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runGen(ctx context.Context, stdout io.Writer, cfg *config.Config, output string, logger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	opts := router.Options{
		Root:       cfg.PagesPath(),
		Extensions: cfg.Pages.Extensions,
		Logger:     logger,
	}
	if output != "" {
		if !filepath.IsAbs(output) {
			output = filepath.Join(cfg.Dir(), output)
		}
		opts.ImportPath = relativeImport(filepath.Dir(output))
	}

	result, err := router.NewCompiler(opts).Compile(ctx)
	if err != nil {
		return err
	}

	if output == "" {
		_, err := stdout.Write(result.Code)
		return err
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return errors.New("E140").WithFile(output).Wrap(err)
	}
	if err := os.WriteFile(output, result.Code, 0o644); err != nil {
		return errors.New("E140").WithFile(output).Wrap(err)
	}

	success("Generated %s (%d pages, %d routes) in %s",
		output, result.Pages, result.Table.Count(), result.Duration.Round(time.Microsecond))
	return nil
}

// relativeImport imports pages relative to dir, falling back to the absolute
// path when no relative path exists.
func relativeImport(dir string) router.ImportPathFunc {
	return func(p router.PageDescriptor) string {
		rel, err := filepath.Rel(dir, p.AbsolutePath)
		if err != nil {
			return router.DefaultImportPath(p)
		}
		rel = filepath.ToSlash(rel)
		if !strings.HasPrefix(rel, "../") {
			rel = "./" + rel
		}
		return rel
	}
}
