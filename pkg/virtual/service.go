// Package virtual serves the generated route table as the virtual module
// "virtual:chen-routes".
//
// The module text is regenerated on every Load so it always reflects the
// current pages directory. Nothing is cached between loads.
package virtual

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/chen-dev/chen/internal/errors"
	"github.com/chen-dev/chen/pkg/router"
)

const (
	// PublicID is the identifier applications import.
	PublicID = "virtual:chen-routes"

	// ResolvedID is the private identifier PublicID resolves to. The NUL
	// prefix keeps other resolvers from treating it as a path.
	ResolvedID = "\x00" + PublicID

	// Namespace is the esbuild namespace holding the module.
	Namespace = "chen-routes"

	// NullPlaceholder replaces the NUL byte when an id travels in a URL.
	NullPlaceholder = "__x00__"
)

// Service resolves and loads the virtual route module.
type Service struct {
	compiler *router.Compiler
	logger   *zap.Logger
}

// NewService creates a service backed by compiler.
func NewService(compiler *router.Compiler, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		compiler: compiler,
		logger:   logger.Named("virtual"),
	}
}

// Compiler returns the compiler used for loads.
func (s *Service) Compiler() *router.Compiler {
	return s.compiler
}

// Resolve maps the public identifier to the private one. Any other id is
// not handled and reports false.
func (s *Service) Resolve(id string) (string, bool) {
	if id == PublicID {
		return ResolvedID, true
	}
	return "", false
}

// IsResolvedID reports whether id is the module's private identifier.
func IsResolvedID(id string) bool {
	return id == ResolvedID
}

// Load generates the module for the resolved id from the current
// filesystem state.
func (s *Service) Load(ctx context.Context, id string) ([]byte, error) {
	result, err := s.LoadResult(ctx, id)
	if err != nil {
		return nil, err
	}
	return result.Code, nil
}

// LoadResult is Load returning the full compilation result.
func (s *Service) LoadResult(ctx context.Context, id string) (*router.Result, error) {
	if !IsResolvedID(id) {
		return nil, errors.New("E110").
			WithDetail("Requested module " + printableID(id) + ".").
			WithSuggestion("Import routes with: import { ChenRoutes } from \"" + PublicID + "\"")
	}

	result, err := s.compiler.Compile(ctx)
	if err != nil {
		s.logger.Warn("route generation failed", zap.Error(err))
		return nil, err
	}
	s.logger.Debug("loaded virtual module",
		zap.String("id", PublicID),
		zap.Int("pages", result.Pages),
		zap.Int("bytes", len(result.Code)),
	)
	return result, nil
}

// EncodeURLID renders a module id for use in a URL path.
func EncodeURLID(id string) string {
	return strings.ReplaceAll(id, "\x00", NullPlaceholder)
}

// DecodeURLID reverses EncodeURLID.
func DecodeURLID(id string) string {
	return strings.ReplaceAll(id, NullPlaceholder, "\x00")
}

func printableID(id string) string {
	return strings.ReplaceAll(id, "\x00", "\\0")
}
