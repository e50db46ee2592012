package components

import (
	"go.uber.org/fx"

	"support-center/internal/pkg/clock"
	"support-center/internal/usecase/commands"
	"support-center/internal/usecase/queries"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewAppointmentQueries,
		queries.NewSettingsQueries,
		queries.NewAvailabilityQueries,
	),
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewAppointmentUseCase,
		commands.NewReminderUseCase,
		commands.NewSettingsUseCase,
	),
)
