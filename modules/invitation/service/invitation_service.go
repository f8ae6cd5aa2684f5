package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go-huddle/core/constants"
	"go-huddle/core/errors"
	"go-huddle/core/logger"
	eventDto "go-huddle/modules/event/dto"
	eventEntity "go-huddle/modules/event/entity"
	"go-huddle/modules/invitation/dto"
	"go-huddle/modules/invitation/entity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gosimple/slug"
)

// EventMembership is the part of the event service invitations rely on.
type EventMembership interface {
	GetEvent(ctx context.Context, eventID, userID string) (*eventDto.EventResponse, *errors.AppError)
	JoinEvent(ctx context.Context, eventID string, identity eventEntity.Identity) (*eventDto.EventResponse, bool, *errors.AppError)
}

type InvitationServiceInterface interface {
	CreateInvite(ctx context.Context, eventID, requesterID string) (*dto.InviteResponse, *errors.AppError)
	Preview(ctx context.Context, token string) (*dto.InvitePreview, *errors.AppError)
	Join(ctx context.Context, token string, identity eventEntity.Identity) (*dto.JoinResponse, *errors.AppError)
}

type InvitationService struct {
	events  EventMembership
	secret  []byte
	ttl     time.Duration
	baseURL string
	now     func() time.Time
}

func NewInvitationService(events EventMembership, secret string, ttl time.Duration, baseURL string) InvitationServiceInterface {
	return &InvitationService{
		events:  events,
		secret:  []byte(secret),
		ttl:     ttl,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// CreateInvite signs a link for an event the requester belongs to.
func (s *InvitationService) CreateInvite(ctx context.Context, eventID, requesterID string) (*dto.InviteResponse, *errors.AppError) {
	if eventID == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "event_id is required", nil)
	}

	ev, appErr := s.events.GetEvent(ctx, eventID, requesterID)
	if appErr != nil {
		return nil, appErr
	}

	now := s.now()
	claims := entity.InviteClaims{
		EventID:     ev.ID,
		Title:       ev.Title,
		Description: ev.Description,
		StartDate:   ev.StartDate,
		EndDate:     ev.EndDate,
		StartTime:   ev.StartTime,
		EndTime:     ev.EndTime,
		CreatorID:   ev.CreatorID,
		Scope:       constants.ScopeTokenInvite,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  ev.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	var expiresAt time.Time
	if s.ttl > 0 {
		expiresAt = now.Add(s.ttl)
		claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		logger.Error("InvitationService:CreateInvite:Sign:Error", "event_id", eventID, "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to create invite", err)
	}

	logger.Info("InvitationService:CreateInvite:Success", "event_id", eventID, "requester_id", requesterID)
	return &dto.InviteResponse{
		Token:     token,
		Link:      s.link(ev.Title, token),
		ExpiresAt: expiresAt,
	}, nil
}

func (s *InvitationService) Preview(_ context.Context, token string) (*dto.InvitePreview, *errors.AppError) {
	claims, appErr := s.parse(token)
	if appErr != nil {
		return nil, appErr
	}
	return dto.NewInvitePreview(claims), nil
}

// Join adds the identity to the invited event as a Member. Joining twice is
// not an error.
func (s *InvitationService) Join(ctx context.Context, token string, identity eventEntity.Identity) (*dto.JoinResponse, *errors.AppError) {
	claims, appErr := s.parse(token)
	if appErr != nil {
		return nil, appErr
	}

	ev, added, appErr := s.events.JoinEvent(ctx, claims.EventID, identity)
	if appErr != nil {
		return nil, appErr
	}

	logger.Info("InvitationService:Join:Success", "event_id", claims.EventID, "user_id", identity.UserID, "added", added)
	return &dto.JoinResponse{Joined: added, Event: ev}, nil
}

func (s *InvitationService) parse(token string) (*entity.InviteClaims, *errors.AppError) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Invite token is required", nil)
	}

	claims := &entity.InviteClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.NewAppError(errors.ErrTokenExpired, "Invite link has expired", err)
		}
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Invalid invite link", err)
	}
	if !parsed.Valid || claims.Scope != constants.ScopeTokenInvite || claims.EventID == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Invalid invite link", nil)
	}
	return claims, nil
}

func (s *InvitationService) link(title, token string) string {
	name := slug.Make(title)
	if name == "" {
		name = "event"
	}
	return fmt.Sprintf("%s/join/%s?token=%s", s.baseURL, name, url.QueryEscape(token))
}
