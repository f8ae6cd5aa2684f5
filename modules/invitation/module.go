package invitation

import (
	"go-huddle/core/config"
	"go-huddle/core/middleware"
	"go-huddle/modules/invitation/controller"
	"go-huddle/modules/invitation/router"
	"go-huddle/modules/invitation/service"

	"github.com/labstack/echo/v4"
)

// Init initializes the invitation module on top of the event service.
func Init(g *echo.Group, mw *middleware.Middleware, events service.EventMembership, cfg *config.Config) service.InvitationServiceInterface {
	svc := service.NewInvitationService(events, cfg.JWT.Secret, cfg.JWT.InviteTTL, cfg.Server.BaseURL)
	ctrl := controller.NewInvitationController(svc)
	r := router.NewInvitationRouter(ctrl)

	r.Register(g, mw)

	return svc
}
