package calendar

import (
	"go-huddle/core/cache"
	"go-huddle/core/config"
	"go-huddle/core/constants"
	"go-huddle/core/database"
	"go-huddle/core/middleware"
	"go-huddle/core/queue"
	"go-huddle/modules/calendar/controller"
	"go-huddle/modules/calendar/repository"
	"go-huddle/modules/calendar/router"
	"go-huddle/modules/calendar/service"

	"github.com/labstack/echo/v4"
)

// Init wires the calendar module. The returned service is the busy-time
// provider of the event module.
func Init(
	e *echo.Echo,
	mw *middleware.Middleware,
	db database.IDatabase,
	c cache.Cache,
	client queue.Enqueuer,
	worker *queue.Worker,
	cfg *config.Config,
) service.CalendarServiceInterface {
	repo := repository.NewCalendarRepository(db)
	google := service.NewGoogleCalendar(cfg.GoogleAPI, service.GoogleCalendarAPI)
	calendarService := service.NewCalendarService(repo, c, google, client, cfg.GoogleAPI, cfg.Scheduling.BusyCacheTTL)
	calendarController := controller.NewCalendarController(calendarService)

	if worker != nil {
		worker.Handle(constants.TaskCalendarSyncBusy, calendarService.HandleSyncTask)
	}

	router.NewCalendarRouter(calendarController).Setup(e, mw)
	return calendarService
}
