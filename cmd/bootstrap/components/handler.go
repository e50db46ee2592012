package components

import (
	"go.uber.org/fx"

	"support-center/internal/handler"
	"support-center/internal/handler/api"
	"support-center/internal/handler/middleware"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewAppointmentHandler,
		api.NewAvailabilityHandler,
		api.NewSettingsHandler,
		api.NewReminderHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
