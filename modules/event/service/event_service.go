package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"go-huddle/core/config"
	"go-huddle/core/constants"
	"go-huddle/core/errors"
	"go-huddle/core/logger"
	"go-huddle/core/queue"
	"go-huddle/core/utils"
	archivedto "go-huddle/modules/archive/dto"
	archive "go-huddle/modules/archive/service"
	"go-huddle/modules/event/dto"
	"go-huddle/modules/event/entity"
	"go-huddle/modules/event/repository"
	"go-huddle/modules/event/session"

	"github.com/hibiken/asynq"
)

// BusyTimeProvider supplies a user's calendar busy times.
type BusyTimeProvider interface {
	FetchBusyEvents(ctx context.Context, userID string, useReal bool) ([]entity.CalendarBusyEvent, error)
}

// Notifier delivers notifications to members. It handles its own failures.
type Notifier interface {
	Notify(ctx context.Context, userIDs []string, eventID, kind, title, message string)
}

// SessionProvider hands out the live session of an event.
type SessionProvider interface {
	Acquire(ctx context.Context, id string) (*session.Session, error)
	Discard(id string)
}

// Notification kinds
const (
	NotifySlotLocked    = "slot_locked"
	NotifySlotUnlocked  = "slot_unlocked"
	NotifyMemberRemoved = "member_removed"
	NotifyMemberJoined  = "member_joined"
)

var (
	errNotMember       = stderrors.New("not a member of this event")
	errForbidden       = stderrors.New("role does not allow this action")
	errInvalidAssignee = stderrors.New("assignee is not a member of this event")
	errInvalidItem     = stderrors.New("logistics item text is required")
	errInvalidSource   = stderrors.New("unknown calendar source")
)

// EventService coordinates availability, locking and membership. Every
// mutation goes through the event's session.
type EventService struct {
	repo     repository.EventRepositoryInterface
	sessions SessionProvider
	busy     BusyTimeProvider
	notifier Notifier
	jobs     queue.Enqueuer
	cfg      config.SchedulingConfig
	now      func() time.Time
}

type EventServiceInterface interface {
	CreateEvent(ctx context.Context, creator entity.Identity, req *dto.CreateEventRequest) (*dto.EventResponse, *errors.AppError)
	GetEvent(ctx context.Context, eventID, userID string) (*dto.EventResponse, *errors.AppError)
	ListEvents(ctx context.Context, userID string) ([]dto.EventSummary, *errors.AppError)
	DeleteEvent(ctx context.Context, eventID, userID string) *errors.AppError

	Toggle(ctx context.Context, eventID, userID string, req *dto.ToggleRequest) (*dto.ToggleResponse, *errors.AppError)
	BatchToggle(ctx context.Context, eventID, userID string, req *dto.BatchToggleRequest) (*dto.BatchToggleResponse, *errors.AppError)
	GetProposals(ctx context.Context, eventID, userID string, limit int) (*dto.ProposalsResponse, *errors.AppError)

	LockSlot(ctx context.Context, eventID, userID string, req *dto.LockRequest) (*dto.EventResponse, *errors.AppError)
	UnlockSlot(ctx context.Context, eventID, userID string) (*dto.EventResponse, *errors.AppError)
	ExportICS(ctx context.Context, eventID, userID string) ([]byte, *errors.AppError)

	JoinEvent(ctx context.Context, eventID string, identity entity.Identity) (*dto.EventResponse, bool, *errors.AppError)
	RemoveMember(ctx context.Context, eventID, actorID, memberID string) (*dto.EventResponse, *errors.AppError)
	UpdateMemberRole(ctx context.Context, eventID, actorID, memberID string, req *dto.UpdateRoleRequest) (*dto.EventResponse, *errors.AppError)

	UpdateLogistics(ctx context.Context, eventID, userID string, req *dto.UpdateLogisticsRequest) (*dto.EventResponse, *errors.AppError)
	PostMessage(ctx context.Context, eventID, userID string, req *dto.PostMessageRequest) (*entity.Message, *errors.AppError)
	ListMessages(ctx context.Context, eventID, userID, afterID string) (*dto.MessagesResponse, *errors.AppError)
}

// NewEventService wires the service. busy, notifier and jobs may be nil.
func NewEventService(
	repo repository.EventRepositoryInterface,
	sessions SessionProvider,
	busy BusyTimeProvider,
	notifier Notifier,
	jobs queue.Enqueuer,
	cfg config.SchedulingConfig,
) EventServiceInterface {
	return &EventService{
		repo:     repo,
		sessions: sessions,
		busy:     busy,
		notifier: notifier,
		jobs:     jobs,
		cfg:      cfg,
		now:      time.Now,
	}
}

// ===================== Lifecycle =====================

func (s *EventService) CreateEvent(ctx context.Context, creator entity.Identity, req *dto.CreateEventRequest) (*dto.EventResponse, *errors.AppError) {
	ev, err := entity.NewEvent(entity.EventParams{
		ID:          utils.GenerateEventID(),
		Title:       req.Title,
		Description: req.Description,
		Creator:     creator,
		Dates: entity.DateRange{
			Start: entity.DateKey(strings.TrimSpace(req.StartDate)),
			End:   entity.DateKey(strings.TrimSpace(req.EndDate)),
		},
		Times: entity.TimeRange{
			Start: entity.TimeLabel(strings.TrimSpace(req.StartTime)),
			End:   entity.TimeLabel(strings.TrimSpace(req.EndTime)),
		},
		Now: s.now(),
	})
	if err != nil {
		return nil, toAppError(err, "Failed to create event")
	}

	if err := s.repo.Create(ctx, ev); err != nil {
		logger.Error("EventService:CreateEvent:Save:Error", "creator_id", creator.UserID, "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to create event", err)
	}

	logger.Info("EventService:CreateEvent:Success",
		"event_id", ev.ID,
		"creator_id", creator.UserID,
		"slots", len(ev.Slots),
	)
	return dto.NewEventResponse(ev), nil
}

func (s *EventService) GetEvent(ctx context.Context, eventID, userID string) (*dto.EventResponse, *errors.AppError) {
	ev, appErr := s.readAsMember(ctx, eventID, userID)
	if appErr != nil {
		return nil, appErr
	}
	return dto.NewEventResponse(ev), nil
}

func (s *EventService) ListEvents(ctx context.Context, userID string) ([]dto.EventSummary, *errors.AppError) {
	events, err := s.repo.ListByMember(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to list events", err)
	}

	out := make([]dto.EventSummary, 0, len(events))
	for _, ev := range events {
		out = append(out, dto.NewEventSummary(ev))
	}
	return out, nil
}

// DeleteEvent is reserved to the creator. Pending edits are dropped, both
// before the delete and for any session reopened while it ran.
func (s *EventService) DeleteEvent(ctx context.Context, eventID, userID string) *errors.AppError {
	ev, appErr := s.readAsMember(ctx, eventID, userID)
	if appErr != nil {
		return appErr
	}
	if ev.CreatorID != userID {
		return errors.NewAppError(errors.ErrForbidden, "Only the event creator can delete it", nil)
	}

	s.sessions.Discard(eventID)
	deleted, err := s.repo.Delete(ctx, eventID)
	s.sessions.Discard(eventID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to delete event", err)
	}
	if !deleted {
		return errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}

	logger.Info("EventService:DeleteEvent:Success", "event_id", eventID, "user_id", userID)
	return nil
}

// ===================== Availability =====================

// Toggle sets the caller's availability on one slot. Selecting a time that
// collides with a busy calendar entry is reported as a conflict, not an error,
// unless the event is locked.
func (s *EventService) Toggle(ctx context.Context, eventID, userID string, req *dto.ToggleRequest) (*dto.ToggleResponse, *errors.AppError) {
	busy, appErr := s.busyEvents(ctx, userID, req.CalendarSource)
	if appErr != nil {
		return nil, appErr
	}

	key := entity.SlotKey{Date: entity.DateKey(req.Date), Time: entity.TimeLabel(req.Time)}
	if req.Available {
		if conflict, ok := HasConflict(key.Time, busy); ok {
			ev, appErr := s.readAsMember(ctx, eventID, userID)
			if appErr != nil {
				return nil, appErr
			}
			if ev.IsLocked {
				return nil, toAppError(entity.ErrEventLocked, "")
			}
			logger.Info("EventService:Toggle:Conflict",
				"event_id", eventID,
				"user_id", userID,
				"slot", key.String(),
				"busy", conflict.Title,
			)
			return &dto.ToggleResponse{
				Applied:  false,
				Conflict: &conflict,
				Event:    dto.NewEventResponse(ev),
			}, nil
		}
	}

	var changed bool
	ev, appErr := s.mutate(ctx, eventID, func(ev *entity.Event) error {
		if err := requireRole(ev, userID, nil); err != nil {
			return err
		}
		var err error
		changed, err = ev.Toggle(key, userID, req.Available)
		return err
	})
	if appErr != nil {
		return nil, appErr
	}

	return &dto.ToggleResponse{Applied: true, Changed: changed, Event: dto.NewEventResponse(ev)}, nil
}

// BatchToggle applies the caller's updates as one step. Selects that land on
// a busy time are dropped from the batch and returned.
func (s *EventService) BatchToggle(ctx context.Context, eventID, userID string, req *dto.BatchToggleRequest) (*dto.BatchToggleResponse, *errors.AppError) {
	busy, appErr := s.busyEvents(ctx, userID, req.CalendarSource)
	if appErr != nil {
		return nil, appErr
	}

	kept, dropped := FilterConflicts(req.Updates, busy)
	if dropped == nil {
		dropped = []entity.DroppedUpdate{}
	}

	var changed int
	ev, appErr := s.mutate(ctx, eventID, func(ev *entity.Event) error {
		if err := requireRole(ev, userID, nil); err != nil {
			return err
		}
		var err error
		changed, err = ev.BatchToggle(userID, kept)
		return err
	})
	if appErr != nil {
		return nil, appErr
	}

	if len(dropped) > 0 {
		logger.Info("EventService:BatchToggle:Dropped", "event_id", eventID, "user_id", userID, "dropped", len(dropped))
	}
	return &dto.BatchToggleResponse{
		Applied: len(kept),
		Changed: changed,
		Dropped: dropped,
		Event:   dto.NewEventResponse(ev),
	}, nil
}

// GetProposals returns the ranked slots with at least one available member.
func (s *EventService) GetProposals(ctx context.Context, eventID, userID string, limit int) (*dto.ProposalsResponse, *errors.AppError) {
	ev, appErr := s.readAsMember(ctx, eventID, userID)
	if appErr != nil {
		return nil, appErr
	}
	if limit <= 0 {
		limit = s.cfg.ProposalLimit
	}

	ranked := Analyze(ev.Slots, ev.Members, ev.Dates)
	return &dto.ProposalsResponse{
		TotalMembers: len(ev.Members),
		Proposals:    TopProposals(ranked, limit),
	}, nil
}

// ===================== Lock =====================

func (s *EventService) LockSlot(ctx context.Context, eventID, userID string, req *dto.LockRequest) (*dto.EventResponse, *errors.AppError) {
	key := entity.SlotKey{Date: entity.DateKey(req.Date), Time: entity.TimeLabel(req.Time)}
	ev, appErr := s.mutate(ctx, eventID, func(ev *entity.Event) error {
		if err := requireRole(ev, userID, entity.Role.CanLockSlot); err != nil {
			return err
		}
		return ev.Lock(key)
	})
	if appErr != nil {
		return nil, appErr
	}

	logger.Info("EventService:LockSlot:Locked", "event_id", eventID, "user_id", userID, "slot", key.String())
	s.notifyMembers(ctx, ev, userID, NotifySlotLocked,
		"Time locked",
		fmt.Sprintf("%s is set for %s at %s", ev.Title, key.Date, key.Time),
	)
	s.scheduleExport(ctx, eventID)
	return dto.NewEventResponse(ev), nil
}

func (s *EventService) UnlockSlot(ctx context.Context, eventID, userID string) (*dto.EventResponse, *errors.AppError) {
	var wasLocked bool
	ev, appErr := s.mutate(ctx, eventID, func(ev *entity.Event) error {
		if err := requireRole(ev, userID, entity.Role.CanLockSlot); err != nil {
			return err
		}
		wasLocked = ev.IsLocked
		ev.Unlock()
		return nil
	})
	if appErr != nil {
		return nil, appErr
	}

	if wasLocked {
		logger.Info("EventService:UnlockSlot:Unlocked", "event_id", eventID, "user_id", userID)
		s.notifyMembers(ctx, ev, userID, NotifySlotUnlocked,
			"Time reopened",
			fmt.Sprintf("%s is open for scheduling again", ev.Title),
		)
	}
	return dto.NewEventResponse(ev), nil
}

func (s *EventService) ExportICS(ctx context.Context, eventID, userID string) ([]byte, *errors.AppError) {
	ev, appErr := s.readAsMember(ctx, eventID, userID)
	if appErr != nil {
		return nil, appErr
	}

	body, err := archive.BuildICS(ev, s.now())
	if err != nil {
		if stderrors.Is(err, archive.ErrNotLocked) {
			return nil, errors.NewAppError(errors.ErrNotFound, "Event has no locked slot", err)
		}
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to export event", err)
	}
	return body, nil
}

// ===================== Members =====================

// JoinEvent adds identity as a Member. Joining twice is not an error; the
// returned flag reports whether the member was new.
func (s *EventService) JoinEvent(ctx context.Context, eventID string, identity entity.Identity) (*dto.EventResponse, bool, *errors.AppError) {
	var added bool
	ev, appErr := s.mutate(ctx, eventID, func(ev *entity.Event) error {
		var err error
		added, err = ev.AddMember(identity.AsMember(entity.RoleMember))
		return err
	})
	if appErr != nil {
		return nil, false, appErr
	}

	if added {
		logger.Info("EventService:JoinEvent:Joined", "event_id", eventID, "user_id", identity.UserID)
		s.notifyMembers(ctx, ev, identity.UserID, NotifyMemberJoined,
			"New member",
			fmt.Sprintf("%s joined %s", identity.DisplayName, ev.Title),
		)
	}
	return dto.NewEventResponse(ev), added, nil
}

// RemoveMember needs CanManageMembers unless members remove themselves.
func (s *EventService) RemoveMember(ctx context.Context, eventID, actorID, memberID string) (*dto.EventResponse, *errors.AppError) {
	ev, appErr := s.mutate(ctx, eventID, func(ev *entity.Event) error {
		var allowed func(entity.Role) bool
		if actorID != memberID {
			allowed = entity.Role.CanManageMembers
		}
		if err := requireRole(ev, actorID, allowed); err != nil {
			return err
		}
		return ev.RemoveMember(memberID)
	})
	if appErr != nil {
		return nil, appErr
	}

	logger.Info("EventService:RemoveMember:Removed", "event_id", eventID, "actor_id", actorID, "member_id", memberID)
	if actorID != memberID && s.notifier != nil {
		s.notifier.Notify(ctx, []string{memberID}, eventID, NotifyMemberRemoved,
			"Removed from event",
			fmt.Sprintf("You were removed from %s", ev.Title),
		)
	}
	return dto.NewEventResponse(ev), nil
}

func (s *EventService) UpdateMemberRole(ctx context.Context, eventID, actorID, memberID string, req *dto.UpdateRoleRequest) (*dto.EventResponse, *errors.AppError) {
	role, err := entity.ParseRole(req.Role)
	if err != nil {
		return nil, toAppError(err, "Invalid role")
	}

	ev, appErr := s.mutate(ctx, eventID, func(ev *entity.Event) error {
		if err := requireRole(ev, actorID, entity.Role.CanManageMembers); err != nil {
			return err
		}
		return ev.UpdateMemberRole(memberID, role)
	})
	if appErr != nil {
		return nil, appErr
	}

	logger.Info("EventService:UpdateMemberRole:Updated",
		"event_id", eventID,
		"actor_id", actorID,
		"member_id", memberID,
		"role", role.String(),
	)
	return dto.NewEventResponse(ev), nil
}

// ===================== Logistics & chat =====================

func (s *EventService) UpdateLogistics(ctx context.Context, eventID, userID string, req *dto.UpdateLogisticsRequest) (*dto.EventResponse, *errors.AppError) {
	board := entity.Logistics{
		Location: strings.TrimSpace(req.Location),
		Notes:    strings.TrimSpace(req.Notes),
		Items:    make([]entity.LogisticsItem, 0, len(req.Items)),
	}
	for _, it := range req.Items {
		text := strings.TrimSpace(it.Text)
		if text == "" {
			return nil, toAppError(errInvalidItem, "Invalid logistics")
		}
		id := it.ID
		if id == "" {
			id = utils.GenerateItemID()
		}
		board.Items = append(board.Items, entity.LogisticsItem{
			ID:         id,
			Text:       text,
			AssigneeID: it.AssigneeID,
			Done:       it.Done,
		})
	}

	ev, appErr := s.mutate(ctx, eventID, func(ev *entity.Event) error {
		if err := requireRole(ev, userID, entity.Role.CanEditLogistics); err != nil {
			return err
		}
		for _, it := range board.Items {
			if it.AssigneeID != "" && !ev.IsMember(it.AssigneeID) {
				return errInvalidAssignee
			}
		}
		ev.UpdateLogistics(board)
		return nil
	})
	if appErr != nil {
		return nil, appErr
	}
	return dto.NewEventResponse(ev), nil
}

func (s *EventService) PostMessage(ctx context.Context, eventID, userID string, req *dto.PostMessageRequest) (*entity.Message, *errors.AppError) {
	msg := entity.Message{
		ID:     utils.GenerateMessageID(),
		UserID: userID,
		Text:   req.Text,
		SentAt: s.now(),
	}

	ev, appErr := s.mutate(ctx, eventID, func(ev *entity.Event) error {
		m, ok := ev.Member(userID)
		if !ok {
			return errNotMember
		}
		msg.UserName = m.Name
		return ev.PostMessage(msg)
	})
	if appErr != nil {
		return nil, appErr
	}

	posted := ev.Messages[len(ev.Messages)-1]
	return &posted, nil
}

func (s *EventService) ListMessages(ctx context.Context, eventID, userID, afterID string) (*dto.MessagesResponse, *errors.AppError) {
	ev, appErr := s.readAsMember(ctx, eventID, userID)
	if appErr != nil {
		return nil, appErr
	}
	return &dto.MessagesResponse{Messages: ev.MessagesAfter(afterID)}, nil
}

// ===================== helpers =====================

func (s *EventService) open(ctx context.Context, eventID string) (*session.Session, *errors.AppError) {
	sess, err := s.sessions.Acquire(ctx, eventID)
	if err != nil {
		return nil, toAppError(err, "Failed to load event")
	}
	return sess, nil
}

func (s *EventService) readAsMember(ctx context.Context, eventID, userID string) (*entity.Event, *errors.AppError) {
	sess, appErr := s.open(ctx, eventID)
	if appErr != nil {
		return nil, appErr
	}
	ev, ok := sess.Snapshot()
	if !ok {
		return nil, toAppError(session.ErrEventNotFound, "")
	}
	if !ev.IsMember(userID) {
		return nil, toAppError(errNotMember, "")
	}
	return ev, nil
}

func (s *EventService) mutate(ctx context.Context, eventID string, fn func(ev *entity.Event) error) (*entity.Event, *errors.AppError) {
	sess, appErr := s.open(ctx, eventID)
	if appErr != nil {
		return nil, appErr
	}
	ev, err := sess.Mutate(fn)
	if stderrors.Is(err, session.ErrClosed) {
		// evicted between Acquire and Mutate
		if sess, appErr = s.open(ctx, eventID); appErr != nil {
			return nil, appErr
		}
		ev, err = sess.Mutate(fn)
	}
	if err != nil {
		return nil, toAppError(err, "Failed to update event")
	}
	return ev, nil
}

// busyEvents degrades to no busy times when the provider fails.
func (s *EventService) busyEvents(ctx context.Context, userID, source string) ([]entity.CalendarBusyEvent, *errors.AppError) {
	switch source {
	case dto.CalendarSourceNone:
		return nil, nil
	case dto.CalendarSourceDemo, dto.CalendarSourceGoogle:
	default:
		return nil, toAppError(errInvalidSource, "")
	}
	if s.busy == nil {
		return nil, nil
	}

	busy, err := s.busy.FetchBusyEvents(ctx, userID, source == dto.CalendarSourceGoogle)
	if err != nil {
		logger.Warn("EventService:busyEvents:Error", "user_id", userID, "source", source, "error", err)
		return nil, nil
	}
	return busy, nil
}

func (s *EventService) notifyMembers(ctx context.Context, ev *entity.Event, excludeID, kind, title, message string) {
	if s.notifier == nil {
		return
	}
	recipients := make([]string, 0, len(ev.Members))
	for _, m := range ev.Members {
		if m.ID != excludeID {
			recipients = append(recipients, m.ID)
		}
	}
	if len(recipients) == 0 {
		return
	}
	s.notifier.Notify(ctx, recipients, ev.ID, kind, title, message)
}

// scheduleExport runs after the debounced save has had time to land.
func (s *EventService) scheduleExport(ctx context.Context, eventID string) {
	if s.jobs == nil {
		return
	}
	delay := s.cfg.ExportDelay
	if delay <= 0 {
		delay = constants.DefaultExportDelay
	}
	err := s.jobs.Enqueue(ctx, constants.TaskEventExportICS,
		archivedto.ExportPayload{EventID: eventID},
		asynq.ProcessIn(delay),
		asynq.MaxRetry(5),
	)
	if err != nil {
		logger.Warn("EventService:scheduleExport:Error", "event_id", eventID, "error", err)
	}
}

// requireRole checks membership and, when allowed is set, the member's role.
func requireRole(ev *entity.Event, userID string, allowed func(entity.Role) bool) error {
	m, ok := ev.Member(userID)
	if !ok {
		return errNotMember
	}
	if allowed != nil && !allowed(m.Role) {
		return errForbidden
	}
	return nil
}

func toAppError(err error, fallback string) *errors.AppError {
	switch {
	case stderrors.Is(err, entity.ErrEventLocked):
		return errors.NewAppError(errors.ErrEventLocked, "Event is locked", err)
	case stderrors.Is(err, entity.ErrEventNotFound):
		return errors.NewAppError(errors.ErrNotFound, "Event not found", err)
	case stderrors.Is(err, entity.ErrSlotNotFound):
		return errors.NewAppError(errors.ErrNotFound, "Slot not found", err)
	case stderrors.Is(err, entity.ErrMemberNotFound):
		return errors.NewAppError(errors.ErrNotFound, "Member not found", err)
	case stderrors.Is(err, entity.ErrCreatorProtected):
		return errors.NewAppError(errors.ErrForbidden, "The event creator cannot be removed", err)
	case stderrors.Is(err, errNotMember):
		return errors.NewAppError(errors.ErrForbidden, "You are not a member of this event", err)
	case stderrors.Is(err, errForbidden):
		return errors.NewAppError(errors.ErrForbidden, "Your role does not allow this action", err)
	case stderrors.Is(err, entity.ErrInvalidDateRange),
		stderrors.Is(err, entity.ErrInvalidTimeRange),
		stderrors.Is(err, entity.ErrEmptyTitle),
		stderrors.Is(err, entity.ErrInvalidMember),
		stderrors.Is(err, entity.ErrInvalidRole),
		stderrors.Is(err, entity.ErrEmptyMessage),
		stderrors.Is(err, errInvalidAssignee),
		stderrors.Is(err, errInvalidItem),
		stderrors.Is(err, errInvalidSource):
		return errors.NewAppError(errors.ErrInvalidInput, err.Error(), err)
	default:
		logger.Error("EventService:toAppError:Unexpected", "error", err)
		return errors.NewAppError(errors.ErrInternalServer, fallback, err)
	}
}
