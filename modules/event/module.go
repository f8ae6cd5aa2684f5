package event

import (
	"go-huddle/core/config"
	"go-huddle/core/middleware"
	"go-huddle/core/queue"
	"go-huddle/modules/event/controller"
	"go-huddle/modules/event/repository"
	"go-huddle/modules/event/router"
	"go-huddle/modules/event/service"

	"github.com/labstack/echo/v4"
)

// Init wires the event module and registers its routes. The returned service
// is shared with the invitation module.
func Init(
	e *echo.Echo,
	mw *middleware.Middleware,
	repo repository.EventRepositoryInterface,
	sessions service.SessionProvider,
	busy service.BusyTimeProvider,
	notifier service.Notifier,
	jobs queue.Enqueuer,
	cfg config.SchedulingConfig,
) service.EventServiceInterface {
	svc := service.NewEventService(repo, sessions, busy, notifier, jobs, cfg)
	ctrl := controller.NewEventController(svc)
	rtr := router.NewEventRouter(ctrl)

	rtr.Setup(e, mw)
	return svc
}
