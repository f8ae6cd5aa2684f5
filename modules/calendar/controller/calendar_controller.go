package controller

import (
	"strconv"

	"go-huddle/core/controller"
	"go-huddle/core/errors"
	"go-huddle/modules/calendar/dto"
	"go-huddle/modules/calendar/service"

	"github.com/labstack/echo/v4"
)

type CalendarController struct {
	controller.BaseController
	CalendarService service.CalendarServiceInterface
}

func NewCalendarController(svc service.CalendarServiceInterface) *CalendarController {
	return &CalendarController{
		BaseController:  controller.NewBaseController(),
		CalendarService: svc,
	}
}

// GoogleAuthURL starts the Google consent flow
// @Summary Google consent URL
// @Description Returns the Google authorization URL for connecting the caller's calendar
// @Tags Calendar
// @Security BearerAuth
// @Produce json
// @Success 200 {object} controller.SuccessResponse{data=dto.AuthURLResponse}
// @Failure 401 {object} errors.AppError
// @Failure 400 {object} errors.AppError
// @Router /private/calendar/connect/google [get]
func (c *CalendarController) GoogleAuthURL(ctx echo.Context) error {
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	result, appErr := c.CalendarService.AuthURL(ctx.Request().Context(), user.UserID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Google auth URL generated")
}

// GoogleCallback completes the consent flow. Google redirects the browser here, so the route is public and the state identifies the user.
// @Summary Google OAuth callback
// @Description Exchanges the authorization code and stores the calendar connection
// @Tags Calendar
// @Produce json
// @Param code query string true "Authorization code"
// @Param state query string true "OAuth state"
// @Success 200 {object} controller.SuccessResponse{data=dto.ConnectionResponse}
// @Failure 400 {object} errors.AppError
// @Router /public/calendar/google/callback [get]
func (c *CalendarController) GoogleCallback(ctx echo.Context) error {
	if reason := ctx.QueryParam("error"); reason != "" {
		return c.BadRequest(errors.ErrInvalidInput, "Google authorization failed: "+reason)
	}

	result, appErr := c.CalendarService.HandleCallback(ctx.Request().Context(), ctx.QueryParam("code"), ctx.QueryParam("state"))
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Calendar connected successfully")
}

// Connect stores the caller's Google tokens
// @Summary Connect calendar
// @Description Stores Google tokens obtained by the client
// @Tags Calendar
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.ConnectRequest true "Google tokens"
// @Success 200 {object} controller.SuccessResponse{data=dto.ConnectionResponse}
// @Failure 400 {object} errors.AppError
// @Failure 401 {object} errors.AppError
// @Router /private/calendar/connection [put]
func (c *CalendarController) Connect(ctx echo.Context) error {
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.ConnectRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.CalendarService.Connect(ctx.Request().Context(), user.UserID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Calendar connected successfully")
}

// Disconnect removes the caller's Google connection
// @Summary Disconnect calendar
// @Description Removes the stored Google connection
// @Tags Calendar
// @Security BearerAuth
// @Produce json
// @Success 200 {object} controller.SuccessResponse
// @Failure 401 {object} errors.AppError
// @Failure 404 {object} errors.AppError
// @Router /private/calendar/connection [delete]
func (c *CalendarController) Disconnect(ctx echo.Context) error {
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	if appErr := c.CalendarService.Disconnect(ctx.Request().Context(), user.UserID); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Calendar disconnected successfully")
}

// GetBusy returns the caller's busy events
// @Summary Get busy events
// @Description Returns demo busy events, or real Google events when real=true
// @Tags Calendar
// @Security BearerAuth
// @Produce json
// @Param real query bool false "Use the connected Google calendar"
// @Success 200 {object} controller.SuccessResponse{data=dto.BusyResponse}
// @Failure 400 {object} errors.AppError
// @Failure 401 {object} errors.AppError
// @Failure 404 {object} errors.AppError
// @Router /private/calendar/busy [get]
func (c *CalendarController) GetBusy(ctx echo.Context) error {
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	useReal := false
	if raw := ctx.QueryParam("real"); raw != "" {
		useReal, err = strconv.ParseBool(raw)
		if err != nil {
			return c.BadRequest(errors.ErrInvalidInput, "real must be a boolean")
		}
	}

	result, appErr := c.CalendarService.GetBusy(ctx.Request().Context(), user.UserID, useReal)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Busy events retrieved successfully")
}

// Sync schedules a refresh of the caller's cached busy events
// @Summary Sync calendar
// @Description Queues a refresh of the cached Google busy events
// @Tags Calendar
// @Security BearerAuth
// @Produce json
// @Success 200 {object} controller.SuccessResponse
// @Failure 401 {object} errors.AppError
// @Router /private/calendar/sync [post]
func (c *CalendarController) Sync(ctx echo.Context) error {
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	if appErr := c.CalendarService.RequestSync(ctx.Request().Context(), user.UserID); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Calendar sync scheduled")
}
