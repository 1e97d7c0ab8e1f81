package config

import "go.uber.org/fx"

// Module exposes the per-package config sections to the fx graph. The root
// *Config itself is supplied by main after Load succeeds.
var Module = fx.Module("config",
	fx.Provide(
		func(cfg *Config) *ServerConfig { return &cfg.Server },
		func(cfg *Config) *AdobeConfig { return &cfg.Adobe },
		func(cfg *Config) *SessionConfig { return &cfg.Session },
		func(cfg *Config) *GalleryConfig { return &cfg.Gallery },
	),
)
