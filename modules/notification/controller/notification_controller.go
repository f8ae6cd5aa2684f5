package controller

import (
	"strconv"

	"go-huddle/core/controller"
	"go-huddle/core/errors"
	"go-huddle/modules/notification/dto"
	"go-huddle/modules/notification/service"

	"github.com/labstack/echo/v4"
)

type NotificationController struct {
	service service.NotificationServiceInterface
	controller.BaseController
}

func NewNotificationController(service service.NotificationServiceInterface) *NotificationController {
	return &NotificationController{
		service:        service,
		BaseController: controller.NewBaseController(),
	}
}

func queryInt(ctx echo.Context, name string) (int, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// GetMyNotifications retrieves the caller's notifications
// @Summary List notifications
// @Description Returns the caller's notifications, newest first
// @Tags Notification
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Items per page"
// @Success 200 {object} controller.SuccessResponse{data=dto.NotificationListResponse}
// @Failure 400 {object} errors.AppError
// @Failure 401 {object} errors.AppError
// @Router /private/notifications [get]
func (c *NotificationController) GetMyNotifications(ctx echo.Context) error {
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	page, err := queryInt(ctx, "page")
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "page must be a number")
	}
	pageSize, err := queryInt(ctx, "page_size")
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "page_size must be a number")
	}

	result, appErr := c.service.GetMyNotifications(ctx.Request().Context(), user.UserID, page, pageSize)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Notifications retrieved successfully")
}

// MarkAsRead marks notifications as read
// @Summary Mark as read
// @Description Marks the given notifications as read, or all of them when ids is empty
// @Tags Notification
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.MarkAsReadRequest true "Notification IDs"
// @Success 200 {object} controller.SuccessResponse
// @Failure 400 {object} errors.AppError
// @Failure 401 {object} errors.AppError
// @Router /private/notifications/read [put]
func (c *NotificationController) MarkAsRead(ctx echo.Context) error {
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	req := new(dto.MarkAsReadRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	if appErr := c.service.MarkAsRead(ctx.Request().Context(), user.UserID, req.IDs); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Marked as read successfully")
}
