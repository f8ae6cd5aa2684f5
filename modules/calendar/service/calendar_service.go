package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"go-huddle/core/cache"
	"go-huddle/core/config"
	"go-huddle/core/constants"
	"go-huddle/core/errors"
	"go-huddle/core/logger"
	"go-huddle/core/queue"
	"go-huddle/core/utils"
	"go-huddle/modules/calendar/dto"
	"go-huddle/modules/calendar/entity"
	"go-huddle/modules/calendar/repository"
	eventEntity "go-huddle/modules/event/entity"

	"github.com/hibiken/asynq"
	"golang.org/x/oauth2"
)

// ErrNoConnection is returned when real busy times are requested for a user
// without a Google connection.
var ErrNoConnection = stderrors.New("no google calendar connected")

// GoogleClient is the provider side: the consent flow and the event listing.
type GoogleClient interface {
	Configured() bool
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	ListBusy(ctx context.Context, tok *oauth2.Token, from, to time.Time) ([]eventEntity.CalendarBusyEvent, *oauth2.Token, error)
}

type CalendarServiceInterface interface {
	AuthURL(ctx context.Context, userID string) (*dto.AuthURLResponse, *errors.AppError)
	HandleCallback(ctx context.Context, code, state string) (*dto.ConnectionResponse, *errors.AppError)
	Connect(ctx context.Context, userID string, req *dto.ConnectRequest) (*dto.ConnectionResponse, *errors.AppError)
	Disconnect(ctx context.Context, userID string) *errors.AppError
	GetBusy(ctx context.Context, userID string, useReal bool) (*dto.BusyResponse, *errors.AppError)
	RequestSync(ctx context.Context, userID string) *errors.AppError

	FetchBusyEvents(ctx context.Context, userID string, useReal bool) ([]eventEntity.CalendarBusyEvent, error)
	HandleSyncTask(ctx context.Context, task *asynq.Task) error
}

type CalendarService struct {
	repo      repository.CalendarRepositoryInterface
	cache     cache.Cache
	google    GoogleClient
	jobs      queue.Enqueuer
	ttl       time.Duration
	lookahead time.Duration
	now       func() time.Time
}

func NewCalendarService(
	repo repository.CalendarRepositoryInterface,
	c cache.Cache,
	google GoogleClient,
	jobs queue.Enqueuer,
	googleCfg config.GoogleAPIConfig,
	cacheTTL time.Duration,
) CalendarServiceInterface {
	days := googleCfg.LookaheadDays
	if days <= 0 {
		days = 7
	}
	return &CalendarService{
		repo:      repo,
		cache:     c,
		google:    google,
		jobs:      jobs,
		ttl:       cacheTTL,
		lookahead: time.Duration(days) * 24 * time.Hour,
		now:       time.Now,
	}
}

// demoBusyEvents stands in for a connected calendar.
func demoBusyEvents() []eventEntity.CalendarBusyEvent {
	return []eventEntity.CalendarBusyEvent{
		{Title: "Team standup", StartTime: "10:00 AM", DurationMinutes: 30},
		{Title: "Lunch", StartTime: "12:30 PM", DurationMinutes: 60},
		{Title: "Dentist", StartTime: "03:00 PM", DurationMinutes: 45},
	}
}

func busyCacheKey(userID string) string {
	return constants.RedisKeyBusyEvents + userID
}

func oauthStateKey(state string) string {
	return constants.RedisKeyOAuthState + state
}

// AuthURL starts the Google consent flow for userID. The state is single use.
func (s *CalendarService) AuthURL(ctx context.Context, userID string) (*dto.AuthURLResponse, *errors.AppError) {
	if !s.google.Configured() {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Google OAuth configuration is missing", nil)
	}

	state := utils.GenerateID(32)
	if err := s.cache.SetJSON(ctx, oauthStateKey(state), userID, constants.OAuthStateTTL); err != nil {
		logger.Error("CalendarService:AuthURL:SaveState:Error", "user_id", userID, "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to store state token", err)
	}
	return &dto.AuthURLResponse{URL: s.google.AuthCodeURL(state)}, nil
}

// HandleCallback exchanges the code and stores the connection of the user
// who started the flow.
func (s *CalendarService) HandleCallback(ctx context.Context, code, state string) (*dto.ConnectionResponse, *errors.AppError) {
	if code == "" || state == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "code and state are required", nil)
	}

	var userID string
	if err := s.cache.GetJSON(ctx, oauthStateKey(state), &userID); err != nil {
		if stderrors.Is(err, cache.ErrCacheMiss) {
			return nil, errors.NewAppError(errors.ErrUnauthorized, "Invalid or expired state token", nil)
		}
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to validate state token", err)
	}
	if err := s.cache.Del(ctx, oauthStateKey(state)); err != nil {
		logger.Warn("CalendarService:HandleCallback:DeleteState:Error", "error", err)
	}

	tok, err := s.google.Exchange(ctx, code)
	if err != nil {
		logger.Error("CalendarService:HandleCallback:Exchange:Error", "user_id", userID, "error", err)
		return nil, errors.NewAppError(errors.ErrUnauthorized, "Failed to exchange authorization code", err)
	}

	return s.Connect(ctx, userID, &dto.ConnectRequest{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	})
}

func (s *CalendarService) Connect(ctx context.Context, userID string, req *dto.ConnectRequest) (*dto.ConnectionResponse, *errors.AppError) {
	if strings.TrimSpace(req.AccessToken) == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "access_token is required", nil)
	}

	conn := &entity.CalendarConnection{
		UserID:         userID,
		Provider:       entity.ProviderGoogle,
		AccessToken:    req.AccessToken,
		RefreshToken:   req.RefreshToken,
		TokenExpiresAt: req.ExpiresAt,
		CalendarEmail:  req.CalendarEmail,
	}
	if err := s.repo.UpsertConnection(ctx, conn); err != nil {
		logger.Error("CalendarService:Connect:UpsertConnection:Error", "user_id", userID, "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to save calendar connection", err)
	}

	s.invalidate(ctx, userID)
	logger.Info("CalendarService:Connect:Success", "user_id", userID)
	return dto.NewConnectionResponse(conn), nil
}

func (s *CalendarService) Disconnect(ctx context.Context, userID string) *errors.AppError {
	deleted, err := s.repo.DeleteConnection(ctx, userID, entity.ProviderGoogle)
	if err != nil {
		logger.Error("CalendarService:Disconnect:DeleteConnection:Error", "user_id", userID, "error", err)
		return errors.NewAppError(errors.ErrInternalServer, "Failed to disconnect calendar", err)
	}
	if !deleted {
		return errors.NewAppError(errors.ErrNotFound, "No Google Calendar connected", nil)
	}

	s.invalidate(ctx, userID)
	return nil
}

func (s *CalendarService) GetBusy(ctx context.Context, userID string, useReal bool) (*dto.BusyResponse, *errors.AppError) {
	events, err := s.FetchBusyEvents(ctx, userID, useReal)
	if err != nil {
		if stderrors.Is(err, ErrNoConnection) {
			return nil, errors.NewAppError(errors.ErrNotFound, "No Google Calendar connected", err)
		}
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to fetch calendar", err)
	}

	source := dto.SourceDemo
	if useReal {
		source = dto.SourceGoogle
	}
	return &dto.BusyResponse{Source: source, Events: events}, nil
}

// RequestSync schedules a cache refresh, or runs it inline without a queue.
func (s *CalendarService) RequestSync(ctx context.Context, userID string) *errors.AppError {
	if s.jobs == nil {
		if _, err := s.refresh(ctx, userID); err != nil {
			if stderrors.Is(err, ErrNoConnection) {
				return errors.NewAppError(errors.ErrNotFound, "No Google Calendar connected", err)
			}
			return errors.NewAppError(errors.ErrInternalServer, "Failed to sync calendar", err)
		}
		return nil
	}

	if err := s.jobs.Enqueue(ctx, constants.TaskCalendarSyncBusy, dto.SyncPayload{UserID: userID}, asynq.MaxRetry(3)); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to schedule calendar sync", err)
	}
	return nil
}

// FetchBusyEvents returns the demo list unless useReal is set, in which case
// the cached Google events are used and refreshed on a miss.
func (s *CalendarService) FetchBusyEvents(ctx context.Context, userID string, useReal bool) ([]eventEntity.CalendarBusyEvent, error) {
	if !useReal {
		return demoBusyEvents(), nil
	}

	var cached []eventEntity.CalendarBusyEvent
	err := s.cache.GetJSON(ctx, busyCacheKey(userID), &cached)
	if err == nil {
		return cached, nil
	}
	if !stderrors.Is(err, cache.ErrCacheMiss) {
		logger.Warn("CalendarService:FetchBusyEvents:CacheGet:Error", "user_id", userID, "error", err)
	}

	return s.refresh(ctx, userID)
}

func (s *CalendarService) HandleSyncTask(ctx context.Context, task *asynq.Task) error {
	var payload dto.SyncPayload
	if err := queue.DecodePayload(task, &payload); err != nil {
		return err
	}

	events, err := s.refresh(ctx, payload.UserID)
	if err != nil {
		if stderrors.Is(err, ErrNoConnection) {
			logger.Info("CalendarService:HandleSyncTask:NoConnection", "user_id", payload.UserID)
			return nil
		}
		return err
	}

	logger.Info("CalendarService:HandleSyncTask:Success", "user_id", payload.UserID, "count", len(events))
	return nil
}

// refresh pulls the look-ahead window from Google and stores it in the cache.
func (s *CalendarService) refresh(ctx context.Context, userID string) ([]eventEntity.CalendarBusyEvent, error) {
	conn, err := s.repo.GetConnection(ctx, userID, entity.ProviderGoogle)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, ErrNoConnection
	}

	tok := &oauth2.Token{
		AccessToken:  conn.AccessToken,
		RefreshToken: conn.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       conn.TokenExpiresAt,
	}
	from := s.now()
	events, current, err := s.google.ListBusy(ctx, tok, from, from.Add(s.lookahead))
	if err != nil {
		logger.Error("CalendarService:refresh:ListBusy:Error", "user_id", userID, "error", err)
		return nil, fmt.Errorf("list google events: %w", err)
	}

	if current != nil && current.AccessToken != conn.AccessToken {
		conn.AccessToken = current.AccessToken
		conn.TokenExpiresAt = current.Expiry
		if current.RefreshToken != "" {
			conn.RefreshToken = current.RefreshToken
		}
		if err := s.repo.UpdateToken(ctx, conn); err != nil {
			logger.Error("CalendarService:refresh:UpdateToken:Error", "user_id", userID, "error", err)
		}
	}

	if err := s.cache.SetJSON(ctx, busyCacheKey(userID), events, s.ttl); err != nil {
		logger.Warn("CalendarService:refresh:CacheSet:Error", "user_id", userID, "error", err)
	}
	return events, nil
}

func (s *CalendarService) invalidate(ctx context.Context, userID string) {
	if err := s.cache.Del(ctx, busyCacheKey(userID)); err != nil {
		logger.Warn("CalendarService:invalidate:Error", "user_id", userID, "error", err)
	}
}
