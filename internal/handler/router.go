package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"support-center/internal/handler/api"
	"support-center/internal/handler/middleware"
	"support-center/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	appointmentHandler *api.AppointmentHandler,
	availabilityHandler *api.AvailabilityHandler,
	settingsHandler *api.SettingsHandler,
	reminderHandler *api.ReminderHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	setupMiddleware(engine, cfg)
	setupRoutes(engine, appointmentHandler, availabilityHandler, settingsHandler, reminderHandler, authMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(nil, cfg.Log))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(
	engine *gin.Engine,
	appointmentHandler *api.AppointmentHandler,
	availabilityHandler *api.AvailabilityHandler,
	settingsHandler *api.SettingsHandler,
	reminderHandler *api.ReminderHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	engine.GET("/health", healthCheck)

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	apiGroup := engine.Group("/api")
	apiGroup.Use(authMiddleware.RequireAuth())
	{
		appointments := apiGroup.Group("/appointments")
		{
			addRoutes(appointments, []route{
				{Method: http.MethodPost, Path: "", Handler: appointmentHandler.Create},
				{Method: http.MethodGet, Path: "", Handler: appointmentHandler.List},
				{Method: http.MethodGet, Path: "/:id", Handler: appointmentHandler.Get},
				{Method: http.MethodGet, Path: "/:id/history", Handler: appointmentHandler.History},
				{Method: http.MethodPost, Path: "/:id/confirm", Handler: appointmentHandler.Confirm},
				{Method: http.MethodPost, Path: "/:id/start", Handler: appointmentHandler.Start},
				{Method: http.MethodPost, Path: "/:id/complete", Handler: appointmentHandler.Complete},
				{Method: http.MethodPost, Path: "/:id/cancel", Handler: appointmentHandler.Cancel},
				{Method: http.MethodPost, Path: "/:id/reschedule", Handler: appointmentHandler.Reschedule},
			})
		}

		addRoutes(apiGroup, []route{
			{Method: http.MethodGet, Path: "/availability", Handler: availabilityHandler.Suggest},
			{Method: http.MethodGet, Path: "/settings", Handler: settingsHandler.Get},
		})

		managerOnly := apiGroup.Group("")
		managerOnly.Use(authMiddleware.RequireManager())
		addRoutes(managerOnly, []route{
			{Method: http.MethodPut, Path: "/settings", Handler: settingsHandler.Update},
			{Method: http.MethodPost, Path: "/reminders/sweep", Handler: reminderHandler.Sweep},
		})
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
