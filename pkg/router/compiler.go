package router

import (
	"context"
	"time"

	"github.com/go-git/go-billy/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/chen-dev/chen/pkg/router"

// Options configures a Compiler.
type Options struct {
	// Root is the pages directory.
	Root string

	// Extensions overrides DefaultExtensions.
	Extensions []string

	// Filesystem overrides the host filesystem.
	Filesystem billy.Filesystem

	// ImportPath overrides DefaultImportPath.
	ImportPath ImportPathFunc

	// Logger receives debug output. Nil disables logging.
	Logger *zap.Logger

	// Tracer overrides the global OpenTelemetry tracer.
	Tracer trace.Tracer
}

// Result is the outcome of one compilation.
type Result struct {
	// Code is the generated TSX module.
	Code []byte

	// Table is the route table the code was rendered from.
	Table *Table

	// Pages is the number of scanned page files.
	Pages int

	// Duration is the wall time of the run.
	Duration time.Duration
}

// Compiler runs the scan, tree and generate pipeline. It holds no state
// between runs, so every Compile reflects the current filesystem and
// concurrent calls are independent.
type Compiler struct {
	scanner   *Scanner
	generator *Generator
	logger    *zap.Logger
	tracer    trace.Tracer
}

// NewCompiler creates a compiler.
func NewCompiler(opts Options) *Compiler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &Compiler{
		scanner: NewScanner(opts.Root,
			WithExtensions(opts.Extensions...),
			WithFilesystem(opts.Filesystem),
		),
		generator: NewGenerator(WithImportPath(opts.ImportPath)),
		logger:    logger.Named("router"),
		tracer:    tracer,
	}
}

// Root returns the pages directory.
func (c *Compiler) Root() string {
	return c.scanner.Root()
}

// Scanner returns the compiler's scanner.
func (c *Compiler) Scanner() *Scanner {
	return c.scanner
}

// Compile generates the route module from the current filesystem state.
// The context carries tracing only; a run is never cancelled midway.
func (c *Compiler) Compile(ctx context.Context) (*Result, error) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "chen.compile",
		trace.WithAttributes(attribute.String("chen.pages_root", c.Root())))
	defer span.End()

	pages, err := c.scan(ctx)
	if err != nil {
		return nil, fail(span, err)
	}

	tree, err := c.buildTree(ctx, pages)
	if err != nil {
		return nil, fail(span, err)
	}

	_, genSpan := c.tracer.Start(ctx, "chen.generate")
	table := c.generator.Table(tree)
	code, err := c.generator.Render(table)
	genSpan.SetAttributes(
		attribute.Int("chen.bindings", len(table.Bindings)),
		attribute.Int("chen.routes", table.Count()),
	)
	genSpan.End()
	if err != nil {
		return nil, fail(span, err)
	}

	result := &Result{
		Code:     code,
		Table:    table,
		Pages:    len(pages),
		Duration: time.Since(start),
	}
	span.SetAttributes(attribute.Int("chen.pages", result.Pages))
	c.logger.Debug("compiled routes",
		zap.String("root", c.Root()),
		zap.Int("pages", result.Pages),
		zap.Int("routes", table.Count()),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func (c *Compiler) scan(ctx context.Context) ([]PageDescriptor, error) {
	_, span := c.tracer.Start(ctx, "chen.scan")
	defer span.End()

	pages, err := c.scanner.Scan()
	if err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.Int("chen.pages", len(pages)))
	return pages, nil
}

func (c *Compiler) buildTree(ctx context.Context, pages []PageDescriptor) (*RouteNode, error) {
	_, span := c.tracer.Start(ctx, "chen.build_tree")
	defer span.End()

	tree, err := BuildTree(pages)
	if err != nil {
		return nil, fail(span, err)
	}
	return tree, nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
