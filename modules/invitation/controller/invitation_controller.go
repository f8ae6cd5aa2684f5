package controller

import (
	"go-huddle/core/controller"
	"go-huddle/core/errors"
	eventDto "go-huddle/modules/event/dto"
	"go-huddle/modules/invitation/dto"
	"go-huddle/modules/invitation/service"

	"github.com/labstack/echo/v4"
)

type InvitationController struct {
	controller.BaseController
	service service.InvitationServiceInterface
}

func NewInvitationController(service service.InvitationServiceInterface) *InvitationController {
	return &InvitationController{
		BaseController: controller.NewBaseController(),
		service:        service,
	}
}

// CreateInvite returns a shareable join link for an event
// @Summary Create invite
// @Description Signs an invite token for an event the caller belongs to
// @Tags Invitation
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateInviteRequest true "Event to invite to"
// @Success 200 {object} controller.SuccessResponse{data=dto.InviteResponse}
// @Failure 400 {object} errors.AppError
// @Failure 401 {object} errors.AppError
// @Failure 403 {object} errors.AppError
// @Failure 404 {object} errors.AppError
// @Router /private/invitations [post]
func (c *InvitationController) CreateInvite(ctx echo.Context) error {
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.CreateInviteRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.service.CreateInvite(ctx.Request().Context(), req.EventID, user.UserID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Invite created successfully")
}

// Preview decodes an invite link without joining
// @Summary Preview invite
// @Description Returns the event details carried by an invite token
// @Tags Invitation
// @Produce json
// @Param token query string true "Invite token"
// @Success 200 {object} controller.SuccessResponse{data=dto.InvitePreview}
// @Failure 400 {object} errors.AppError
// @Router /public/invitations/preview [get]
func (c *InvitationController) Preview(ctx echo.Context) error {
	result, appErr := c.service.Preview(ctx.Request().Context(), ctx.QueryParam("token"))
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Invite retrieved successfully")
}

// Join adds the caller to the invited event
// @Summary Join event
// @Description Joins the event named by the invite token; joining twice is not an error
// @Tags Invitation
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.JoinRequest true "Invite token"
// @Success 200 {object} controller.SuccessResponse{data=dto.JoinResponse}
// @Failure 400 {object} errors.AppError
// @Failure 401 {object} errors.AppError
// @Failure 404 {object} errors.AppError
// @Router /private/invitations/join [post]
func (c *InvitationController) Join(ctx echo.Context) error {
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.JoinRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.service.Join(ctx.Request().Context(), req.Token, eventDto.IdentityFromClaims(user))
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Joined event successfully")
}
