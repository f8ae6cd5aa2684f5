package controller

import (
	"fmt"
	"net/http"
	"strconv"

	"go-huddle/core/controller"
	"go-huddle/core/errors"
	"go-huddle/modules/event/dto"
	"go-huddle/modules/event/service"

	"github.com/labstack/echo/v4"
)

// EventController handles event HTTP requests
type EventController struct {
	controller.BaseController
	EventService service.EventServiceInterface
}

func NewEventController(svc service.EventServiceInterface) *EventController {
	return &EventController{
		BaseController: controller.NewBaseController(),
		EventService:   svc,
	}
}

// CreateEvent creates an event and its slot grid
// @Summary Create event
// @Description Creates an event with one empty slot per date and time; the caller joins as Director
// @Tags Event
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateEventRequest true "Event details"
// @Success 200 {object} controller.SuccessResponse{data=dto.EventResponse}
// @Failure 400 {object} errors.AppError
// @Failure 401 {object} errors.AppError
// @Router /private/events [post]
func (c *EventController) CreateEvent(ctx echo.Context) error {
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.CreateEventRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.EventService.CreateEvent(ctx.Request().Context(), dto.IdentityFromClaims(user), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Event created successfully")
}

// ListEvents lists the events the caller belongs to
// @Summary List my events
// @Description Returns a summary of every event the caller is a member of
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Success 200 {object} controller.SuccessResponse{data=[]dto.EventSummary}
// @Failure 401 {object} errors.AppError
// @Router /private/events [get]
func (c *EventController) ListEvents(ctx echo.Context) error {
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	result, appErr := c.EventService.ListEvents(ctx.Request().Context(), user.UserID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Events retrieved successfully")
}

// GetEvent returns one event
// @Summary Get event
// @Description Returns the full event document, members only
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} controller.SuccessResponse{data=dto.EventResponse}
// @Failure 401 {object} errors.AppError
// @Failure 403 {object} errors.AppError
// @Failure 404 {object} errors.AppError
// @Router /private/events/{id} [get]
func (c *EventController) GetEvent(ctx echo.Context) error {
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	result, appErr := c.EventService.GetEvent(ctx.Request().Context(), ctx.Param("id"), user.UserID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Event retrieved successfully")
}

// DeleteEvent deletes an event
// @Summary Delete event
// @Description Deletes the event; only its creator may do this
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} controller.SuccessResponse
// @Failure 401 {object} errors.AppError
// @Failure 403 {object} errors.AppError
// @Failure 404 {object} errors.AppError
// @Router /private/events/{id} [delete]
func (c *EventController) DeleteEvent(ctx echo.Context) error {
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	if appErr := c.EventService.DeleteEvent(ctx.Request().Context(), ctx.Param("id"), user.UserID); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Event deleted successfully")
}

// Toggle sets the caller's availability on one slot
// @Summary Toggle availability
// @Description Marks the caller available or unavailable on one slot. A select that hits a busy calendar entry is returned as a conflict and not applied
// @Tags Event
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body dto.ToggleRequest true "Slot and availability"
// @Success 200 {object} controller.SuccessResponse{data=dto.ToggleResponse}
// @Failure 400 {object} errors.AppError
// @Failure 401 {object} errors.AppError
// @Failure 403 {object} errors.AppError
// @Failure 404 {object} errors.AppError
// @Failure 423 {object} errors.AppError
// @Router /private/events/{id}/availability [post]
func (c *EventController) Toggle(ctx echo.Context) error {
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.ToggleRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.EventService.Toggle(ctx.Request().Context(), ctx.Param("id"), user.UserID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	if result.Conflict != nil {
		return c.SuccessResponse(ctx, result, fmt.Sprintf("Conflict detected: %s", result.Conflict.Title))
	}
	return c.SuccessResponse(ctx, result, "Availability updated")
}

// BatchToggle applies several availability updates at once
// @Summary Batch toggle availability
// @Description Applies the caller's updates as one step; selects that hit busy calendar entries are dropped and returned
// @Tags Event
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body dto.BatchToggleRequest true "Slot updates"
// @Success 200 {object} controller.SuccessResponse{data=dto.BatchToggleResponse}
// @Failure 400 {object} errors.AppError
// @Failure 401 {object} errors.AppError
// @Failure 403 {object} errors.AppError
// @Failure 404 {object} errors.AppError
// @Failure 423 {object} errors.AppError
// @Router /private/events/{id}/availability/batch [post]
func (c *EventController) BatchToggle(ctx echo.Context) error {
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.BatchToggleRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.EventService.BatchToggle(ctx.Request().Context(), ctx.Param("id"), user.UserID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Availability updated")
}

// GetProposals ranks the best slots
// @Summary Get proposals
// @Description Returns slots with at least one available member, fully available slots first
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Param limit query int false "Maximum number of proposals"
// @Success 200 {object} controller.SuccessResponse{data=dto.ProposalsResponse}
// @Failure 400 {object} errors.AppError
// @Failure 401 {object} errors.AppError
// @Failure 403 {object} errors.AppError
// @Failure 404 {object} errors.AppError
// @Router /private/events/{id}/proposals [get]
func (c *EventController) GetProposals(ctx echo.Context) error {
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	limit := 0
	if raw := ctx.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return c.BadRequest(errors.ErrInvalidInput, "limit must be a non-negative integer")
		}
	}

	result, appErr := c.EventService.GetProposals(ctx.Request().Context(), ctx.Param("id"), user.UserID, limit)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Proposals retrieved successfully")
}

// LockSlot fixes the final time
// @Summary Lock slot
// @Description Locks the event on one slot; availability is frozen until unlocked
// @Tags Event
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body dto.LockRequest true "Slot to lock"
// @Success 200 {object} controller.SuccessResponse{data=dto.EventResponse}
// @Failure 400 {object} errors.AppError
// @Failure 401 {object} errors.AppError
// @Failure 403 {object} errors.AppError
// @Failure 404 {object} errors.AppError
// @Router /private/events/{id}/lock [post]
func (c *EventController) LockSlot(ctx echo.Context) error {
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.LockRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.EventService.LockSlot(ctx.Request().Context(), ctx.Param("id"), user.UserID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Slot locked")
}

// UnlockSlot reopens scheduling
// @Summary Unlock slot
// @Description Clears the locked slot so availability can change again
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} controller.SuccessResponse{data=dto.EventResponse}
// @Failure 401 {object} errors.AppError
// @Failure 403 {object} errors.AppError
// @Failure 404 {object} errors.AppError
// @Router /private/events/{id}/lock [delete]
func (c *EventController) UnlockSlot(ctx echo.Context) error {
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	result, appErr := c.EventService.UnlockSlot(ctx.Request().Context(), ctx.Param("id"), user.UserID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Slot unlocked")
}

// ExportICS downloads the locked slot as an iCalendar file
// @Summary Export ICS
// @Description Returns a text/calendar file for the locked slot
// @Tags Event
// @Security BearerAuth
// @Produce text/calendar
// @Param id path string true "Event ID"
// @Success 200 {file} file
// @Failure 401 {object} errors.AppError
// @Failure 403 {object} errors.AppError
// @Failure 404 {object} errors.AppError
// @Router /private/events/{id}/ics [get]
func (c *EventController) ExportICS(ctx echo.Context) error {
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	id := ctx.Param("id")
	body, appErr := c.EventService.ExportICS(ctx.Request().Context(), id, user.UserID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=event-%s.ics", id))
	return ctx.Blob(http.StatusOK, "text/calendar; charset=utf-8", body)
}

// RemoveMember removes a member from the event
// @Summary Remove member
// @Description Removes a member and their availability. Members may remove themselves
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Param memberId path string true "Member user ID"
// @Success 200 {object} controller.SuccessResponse{data=dto.EventResponse}
// @Failure 401 {object} errors.AppError
// @Failure 403 {object} errors.AppError
// @Failure 404 {object} errors.AppError
// @Router /private/events/{id}/members/{memberId} [delete]
func (c *EventController) RemoveMember(ctx echo.Context) error {
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	result, appErr := c.EventService.RemoveMember(ctx.Request().Context(), ctx.Param("id"), user.UserID, ctx.Param("memberId"))
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Member removed")
}

// UpdateMemberRole changes a member's role
// @Summary Update member role
// @Description Sets the role of a member; needs a role that manages members
// @Tags Event
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param memberId path string true "Member user ID"
// @Param request body dto.UpdateRoleRequest true "New role"
// @Success 200 {object} controller.SuccessResponse{data=dto.EventResponse}
// @Failure 400 {object} errors.AppError
// @Failure 401 {object} errors.AppError
// @Failure 403 {object} errors.AppError
// @Failure 404 {object} errors.AppError
// @Router /private/events/{id}/members/{memberId}/role [put]
func (c *EventController) UpdateMemberRole(ctx echo.Context) error {
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.UpdateRoleRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.EventService.UpdateMemberRole(ctx.Request().Context(), ctx.Param("id"), user.UserID, ctx.Param("memberId"), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Member role updated")
}

// UpdateLogistics replaces the logistics board
// @Summary Update logistics
// @Description Replaces location, notes and checklist items
// @Tags Event
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body dto.UpdateLogisticsRequest true "Logistics board"
// @Success 200 {object} controller.SuccessResponse{data=dto.EventResponse}
// @Failure 400 {object} errors.AppError
// @Failure 401 {object} errors.AppError
// @Failure 403 {object} errors.AppError
// @Failure 404 {object} errors.AppError
// @Router /private/events/{id}/logistics [put]
func (c *EventController) UpdateLogistics(ctx echo.Context) error {
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.UpdateLogisticsRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.EventService.UpdateLogistics(ctx.Request().Context(), ctx.Param("id"), user.UserID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Logistics updated")
}

// PostMessage appends to the event chat
// @Summary Post message
// @Description Posts a chat message as the caller
// @Tags Event
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body dto.PostMessageRequest true "Message"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.AppError
// @Failure 401 {object} errors.AppError
// @Failure 403 {object} errors.AppError
// @Failure 404 {object} errors.AppError
// @Router /private/events/{id}/messages [post]
func (c *EventController) PostMessage(ctx echo.Context) error {
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.PostMessageRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.EventService.PostMessage(ctx.Request().Context(), ctx.Param("id"), user.UserID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Message sent")
}

// ListMessages returns the event chat
// @Summary List messages
// @Description Returns the chat log, optionally only messages after a given id
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Param after query string false "Return messages after this message ID"
// @Success 200 {object} controller.SuccessResponse{data=dto.MessagesResponse}
// @Failure 401 {object} errors.AppError
// @Failure 403 {object} errors.AppError
// @Failure 404 {object} errors.AppError
// @Router /private/events/{id}/messages [get]
func (c *EventController) ListMessages(ctx echo.Context) error {
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	result, appErr := c.EventService.ListMessages(ctx.Request().Context(), ctx.Param("id"), user.UserID, ctx.QueryParam("after"))
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Messages retrieved successfully")
}
