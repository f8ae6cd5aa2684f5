package router

import (
	"go-huddle/core/middleware"
	"go-huddle/modules/calendar/controller"

	"github.com/labstack/echo/v4"
)

type CalendarRouter struct {
	controller *controller.CalendarController
}

func NewCalendarRouter(controller *controller.CalendarController) *CalendarRouter {
	return &CalendarRouter{
		controller: controller,
	}
}

func (r *CalendarRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	calendarRoutes := v1.Group("/private/calendar")
	calendarRoutes.Use(mw.AuthMiddleware())

	v1.GET("/public/calendar/google/callback", r.controller.GoogleCallback)

	// Connection
	calendarRoutes.GET("/connect/google", r.controller.GoogleAuthURL)
	calendarRoutes.PUT("/connection", r.controller.Connect)
	calendarRoutes.DELETE("/connection", r.controller.Disconnect)

	// Busy events
	calendarRoutes.GET("/busy", r.controller.GetBusy)
	calendarRoutes.POST("/sync", r.controller.Sync)
}
