package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/chen-dev/chen/internal/build"
)

func buildCmd() *cobra.Command {
	var (
		output     string
		minify     bool
		sourceMaps bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build for production",
		Long: `Bundle the application for production.

The entry point is bundled with esbuild. Every page becomes its own
chunk, loaded when its route first renders, and manifest.json records
the sha256 of every written file.

Examples:
  chen build
  chen build --output=dist
  chen build --sourcemaps`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(output, minify, sourceMaps)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default from chen.json)")
	cmd.Flags().BoolVar(&minify, "minify", true, "Minify output")
	cmd.Flags().BoolVar(&sourceMaps, "sourcemaps", false, "Generate source maps")

	return cmd
}

func runBuild(output string, minify, sourceMaps bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if output != "" {
		cfg.Build.Output = output
	}

	logger := newLogger()
	defer logger.Sync()

	fmt.Println("  Building for production...")
	fmt.Println()

	builder := build.New(cfg, build.Options{
		Minify:     minify,
		SourceMaps: sourceMaps,
		Logger:     logger,
		OnProgress: printStep,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	fmt.Println()
	success("Built %d pages (%d routes) in %s", result.Pages, result.Routes, result.Duration.Round(time.Millisecond))
	fmt.Println()
	fmt.Printf("  %s/\n", cfg.Build.Output)
	for _, name := range result.Files {
		fmt.Printf("    %s %s\n", name, mutedStyle.Render(result.Manifest[name][:12]))
	}
	fmt.Printf("    %s\n", build.ManifestName)
	fmt.Println()

	return nil
}

// printStep prints a build progress step verbatim.
func printStep(step string) {
	info("%s", step)
}
