package bootstrap

import (
	"go.uber.org/fx"

	"support-center/internal/pkg/config"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		config.LoadConfig,
	),
)
