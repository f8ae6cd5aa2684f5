package router

import (
	"go-huddle/core/middleware"
	"go-huddle/modules/event/controller"

	"github.com/labstack/echo/v4"
)

// EventRouter handles event routes
type EventRouter struct {
	EventController *controller.EventController
}

func NewEventRouter(eventController *controller.EventController) *EventRouter {
	return &EventRouter{EventController: eventController}
}

// Setup registers event routes
func (r *EventRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")
	privateRoutes := v1.Group("/private")

	eventRoutes := privateRoutes.Group("/events", mw.AuthMiddleware())

	// CRUD
	eventRoutes.POST("", r.EventController.CreateEvent)
	eventRoutes.GET("", r.EventController.ListEvents)
	eventRoutes.GET("/:id", r.EventController.GetEvent)
	eventRoutes.DELETE("/:id", r.EventController.DeleteEvent)

	// Availability
	eventRoutes.POST("/:id/availability", r.EventController.Toggle)
	eventRoutes.POST("/:id/availability/batch", r.EventController.BatchToggle)
	eventRoutes.GET("/:id/proposals", r.EventController.GetProposals)

	// Lock
	eventRoutes.POST("/:id/lock", r.EventController.LockSlot)
	eventRoutes.DELETE("/:id/lock", r.EventController.UnlockSlot)
	eventRoutes.GET("/:id/ics", r.EventController.ExportICS)

	// Members
	eventRoutes.DELETE("/:id/members/:memberId", r.EventController.RemoveMember)
	eventRoutes.PUT("/:id/members/:memberId/role", r.EventController.UpdateMemberRole)

	// Logistics and chat
	eventRoutes.PUT("/:id/logistics", r.EventController.UpdateLogistics)
	eventRoutes.POST("/:id/messages", r.EventController.PostMessage)
	eventRoutes.GET("/:id/messages", r.EventController.ListMessages)
}
