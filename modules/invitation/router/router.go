package router

import (
	"go-huddle/core/middleware"
	"go-huddle/modules/invitation/controller"

	"github.com/labstack/echo/v4"
)

type InvitationRouter struct {
	controller *controller.InvitationController
}

func NewInvitationRouter(controller *controller.InvitationController) *InvitationRouter {
	return &InvitationRouter{
		controller: controller,
	}
}

// Register mounts the routes on the /api/v1 group.
func (r *InvitationRouter) Register(g *echo.Group, mw *middleware.Middleware) {
	g.GET("/public/invitations/preview", r.controller.Preview)

	invitations := g.Group("/private/invitations")
	invitations.Use(mw.AuthMiddleware())

	invitations.POST("", r.controller.CreateInvite)
	invitations.POST("/join", r.controller.Join)
}
