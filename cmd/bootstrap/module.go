package bootstrap

import (
	"go.uber.org/fx"

	"support-center/cmd/bootstrap/components"
)

var Module = fx.Options(
	ConfigModule,
	DBModule,
	JWTModule,
	CollaboratorsModule,
	components.PersistenceModule,
	components.UseCaseModule,
	components.HandlerModule,
	SchedulerModule,
)
