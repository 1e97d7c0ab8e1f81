package server

import (
	"context"

	"go.uber.org/fx"
)

// Module provides the web handler and HTTP server, bound to the fx lifecycle
var Module = fx.Module("server",
	fx.Provide(
		NewHandler,
		NewServer,
	),
	fx.Invoke(func(lc fx.Lifecycle, srv *Server) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error { return srv.Start(ctx) },
			OnStop:  func(ctx context.Context) error { return srv.Stop(ctx) },
		})
	}),
)
