package session

import "go.uber.org/fx"

// Module provides the session store, cookie codec and gate
var Module = fx.Module("session",
	fx.Provide(
		NewStore,
		NewCookieCodec,
		NewGate,
	),
)
