package auth

import "go.uber.org/fx"

// Module provides the IMS provider and authorization flow
var Module = fx.Module("auth",
	fx.Provide(
		NewProvider,
		NewFlow,
	),
)
