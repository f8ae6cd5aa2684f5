package notification

import (
	"go-huddle/core/database"
	"go-huddle/core/middleware"
	"go-huddle/modules/notification/controller"
	"go-huddle/modules/notification/repository"
	"go-huddle/modules/notification/router"
	"go-huddle/modules/notification/service"

	"github.com/labstack/echo/v4"
)

// Init registers the notification routes on the private group.
func Init(e *echo.Group, db database.IDatabase, mw *middleware.Middleware) service.NotificationServiceInterface {
	repo := repository.NewNotificationRepository(db)
	svc := service.NewNotificationService(repo)
	ctrl := controller.NewNotificationController(svc)

	router.NewNotificationRouter(ctrl).Register(e, mw)

	return svc
}
