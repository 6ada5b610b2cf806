package virtual

import (
	"context"
	"regexp"

	"github.com/evanw/esbuild/pkg/api"
)

// PluginName identifies the esbuild plugin in build messages.
const PluginName = "chen-routes"

// Plugin adapts the service into an esbuild plugin. Imports of PublicID
// resolve into Namespace and load as freshly generated TSX whose relative
// imports resolve from the pages root.
func (s *Service) Plugin() api.Plugin {
	return s.PluginContext(context.Background())
}

// PluginContext is Plugin with a parent context for load tracing.
func (s *Service) PluginContext(ctx context.Context) api.Plugin {
	return api.Plugin{
		Name: PluginName,
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{
				Filter: "^" + regexp.QuoteMeta(PublicID) + "$",
			}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				resolved, _ := s.Resolve(args.Path)
				return api.OnResolveResult{
					Path:      EncodeURLID(resolved),
					Namespace: Namespace,
				}, nil
			})

			build.OnLoad(api.OnLoadOptions{
				Filter:    ".*",
				Namespace: Namespace,
			}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				code, err := s.Load(ctx, DecodeURLID(args.Path))
				if err != nil {
					return api.OnLoadResult{}, err
				}
				contents := string(code)
				return api.OnLoadResult{
					Contents:   &contents,
					Loader:     api.LoaderTSX,
					ResolveDir: s.compiler.Root(),
				}, nil
			})
		},
	}
}
