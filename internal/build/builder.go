package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"go.uber.org/zap"

	"github.com/chen-dev/chen/internal/config"
	"github.com/chen-dev/chen/internal/errors"
	"github.com/chen-dev/chen/pkg/router"
	"github.com/chen-dev/chen/pkg/virtual"
)

// ManifestName is the manifest file written to the output directory.
const ManifestName = "manifest.json"

// Result contains the build output.
type Result struct {
	// Duration is how long the build took.
	Duration time.Duration

	// Output is the output directory.
	Output string

	// Files are the written files relative to Output, sorted.
	Files []string

	// Manifest maps each written file to its sha256 content hash.
	Manifest map[string]string

	// Routes is the number of routes in the bundled table.
	Routes int

	// Pages is the number of page files bundled.
	Pages int
}

// Options configures the builder.
type Options struct {
	// Minify enables minification.
	Minify bool

	// SourceMaps enables linked source maps.
	SourceMaps bool

	// Logger receives build diagnostics. Nil disables logging.
	Logger *zap.Logger

	// OnProgress is called with progress updates.
	OnProgress func(step string)
}

// Builder handles production builds.
type Builder struct {
	config  *config.Config
	options Options
	service *virtual.Service
	logger  *zap.Logger
}

// New creates a new builder. Config values enable minify and source maps
// when the options leave them off.
func New(cfg *config.Config, options Options) *Builder {
	if !options.Minify && cfg.Build.Minify {
		options.Minify = true
	}
	if !options.SourceMaps && cfg.Build.SourceMaps {
		options.SourceMaps = true
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	compiler := router.NewCompiler(router.Options{
		Root:       cfg.PagesPath(),
		Extensions: cfg.Pages.Extensions,
		Logger:     logger,
	})

	return &Builder{
		config:  cfg,
		options: options,
		service: virtual.NewService(compiler, logger),
		logger:  logger.Named("build"),
	}
}

// Build bundles the entry point, with every page in its own chunk, and
// writes the manifest.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()
	outputDir := b.config.OutputPath()
	entry := b.config.EntryPath()

	if _, err := os.Stat(entry); err != nil {
		return nil, errors.New("E130").
			WithFile(entry).
			WithDetail("The build entry point does not exist.").
			WithSuggestion("Set build.entry in chen.json").
			Wrap(err)
	}

	// Generate once up front so route errors surface with their own codes.
	b.progress("Generating routes...")
	routes, err := b.service.LoadResult(ctx, virtual.ResolvedID)
	if err != nil {
		return nil, err
	}

	b.progress("Cleaning output directory...")
	if err := b.removeOutput(); err != nil {
		return nil, err
	}

	b.progress("Bundling...")
	out := api.Build(b.buildOptions(ctx, entry, outputDir))
	if len(out.Errors) > 0 {
		return nil, errors.New("E130").
			WithFile(entry).
			WithDetail(formatMessages(out.Errors))
	}
	for _, w := range out.Warnings {
		b.logger.Warn("esbuild", zap.String("message", w.Text))
	}

	result := &Result{
		Output:   outputDir,
		Manifest: make(map[string]string, len(out.OutputFiles)),
		Routes:   routes.Table.Count(),
		Pages:    routes.Pages,
	}
	for _, f := range out.OutputFiles {
		rel, err := filepath.Rel(outputDir, f.Path)
		if err != nil {
			rel = f.Path
		}
		rel = filepath.ToSlash(rel)
		result.Files = append(result.Files, rel)
		result.Manifest[rel] = hashBytes(f.Contents)
	}
	sort.Strings(result.Files)

	b.progress("Writing manifest...")
	if err := writeManifest(outputDir, result.Manifest); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	b.logger.Debug("build complete",
		zap.String("output", outputDir),
		zap.Int("files", len(result.Files)),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func (b *Builder) buildOptions(ctx context.Context, entry, outputDir string) api.BuildOptions {
	opts := api.BuildOptions{
		EntryPoints:       []string{entry},
		AbsWorkingDir:     b.config.Dir(),
		Outdir:            outputDir,
		Bundle:            true,
		Splitting:         true,
		Format:            api.FormatESModule,
		JSX:               api.JSXAutomatic,
		ChunkNames:        "chunks/[name]-[hash]",
		External:          b.config.Build.External,
		Write:             true,
		LogLevel:          api.LogLevelSilent,
		MinifyWhitespace:  b.options.Minify,
		MinifyIdentifiers: b.options.Minify,
		MinifySyntax:      b.options.Minify,
		Plugins:           []api.Plugin{b.service.PluginContext(ctx)},
	}
	if b.options.SourceMaps {
		opts.Sourcemap = api.SourceMapLinked
	}
	return opts
}

// Clean removes the build output directory.
func (b *Builder) Clean() error {
	return b.removeOutput()
}

// removeOutput deletes the output directory. It refuses when the output
// directory is the project directory or one of its ancestors.
func (b *Builder) removeOutput() error {
	outputDir := b.config.OutputPath()
	if containsPath(outputDir, b.config.Dir()) {
		return errors.New("E140").
			WithFile(outputDir).
			WithDetail("The output directory contains the project directory.").
			WithSuggestion("Set build.output to a subdirectory such as dist")
	}
	if err := os.RemoveAll(outputDir); err != nil {
		return errors.New("E140").WithFile(outputDir).Wrap(err)
	}
	return nil
}

// containsPath reports whether dir is parent or a directory below it.
func containsPath(parent, dir string) bool {
	rel, err := filepath.Rel(filepath.Clean(parent), filepath.Clean(dir))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func (b *Builder) progress(step string) {
	if b.options.OnProgress != nil {
		b.options.OnProgress(step)
	}
}

func writeManifest(outputDir string, manifest map[string]string) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return errors.New("E140").Wrap(err)
	}

	path := filepath.Join(outputDir, ManifestName)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return errors.New("E140").WithFile(outputDir).Wrap(err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.New("E140").WithFile(path).Wrap(err)
	}
	return nil
}

// formatMessages renders esbuild messages one per line.
func formatMessages(msgs []api.Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		line := m.Text
		if m.Location != nil {
			line = fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, m.Text)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
