package lightroom

import "go.uber.org/fx"

// Module provides the Lightroom API client
var Module = fx.Module("lightroom",
	fx.Provide(
		NewClient,
	),
)
