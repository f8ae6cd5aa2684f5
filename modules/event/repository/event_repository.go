package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go-huddle/core/cache"
	"go-huddle/core/constants"
	"go-huddle/core/database"
	"go-huddle/core/logger"
	"go-huddle/modules/event/entity"
)

// EventRepositoryInterface is the event document store. Load returns nil, nil
// when the event does not exist. Save replaces an existing document and
// returns entity.ErrEventNotFound when there is none, so a late save cannot
// recreate a deleted event. Subscribers receive nil after a delete.
type EventRepositoryInterface interface {
	Create(ctx context.Context, ev *entity.Event) error
	Load(ctx context.Context, id string) (*entity.Event, error)
	Save(ctx context.Context, ev *entity.Event) error
	Subscribe(ctx context.Context, id string, onChange func(*entity.Event)) (func(), error)
	ListByMember(ctx context.Context, userID string) ([]*entity.Event, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// EventRepository keeps each event as one JSONB document and announces every
// write on a per-event Redis channel so other replicas can converge.
type EventRepository struct {
	DB    database.IDatabase
	Cache cache.Cache
}

var _ EventRepositoryInterface = (*EventRepository)(nil)

func NewEventRepository(db database.IDatabase, c cache.Cache) *EventRepository {
	return &EventRepository{DB: db, Cache: c}
}

func ChangeChannel(id string) string {
	return constants.RedisChannelEventChanged + id
}

type eventRow struct {
	Document []byte `db:"document"`
}

func (r *EventRepository) Load(ctx context.Context, id string) (*entity.Event, error) {
	var row eventRow
	err := r.DB.GetContext(ctx, &row, `SELECT document FROM events WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		logger.Error("EventRepository:Load:Error", "event_id", id, "error", err)
		return nil, err
	}
	return decodeEvent(row.Document)
}

func (r *EventRepository) Create(ctx context.Context, ev *entity.Event) error {
	doc, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", ev.ID, err)
	}

	query := `
		INSERT INTO events (id, creator_id, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if err := r.DB.ExecContext(ctx, query, ev.ID, ev.CreatorID, string(doc), ev.CreatedAt, ev.UpdatedAt); err != nil {
		logger.Error("EventRepository:Create:Error", "event_id", ev.ID, "error", err)
		return err
	}

	r.publish(ctx, ev.ID, doc)
	return nil
}

// Save replaces the whole document. The last write wins.
func (r *EventRepository) Save(ctx context.Context, ev *entity.Event) error {
	doc, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", ev.ID, err)
	}

	query := `
		UPDATE events
		SET document = :document, updated_at = :updated_at
		WHERE id = :id
	`
	result, err := r.DB.NamedExecContext(ctx, query, map[string]any{
		"id":         ev.ID,
		"document":   string(doc),
		"updated_at": ev.UpdatedAt,
	})
	if err != nil {
		logger.Error("EventRepository:Save:Error", "event_id", ev.ID, "error", err)
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		logger.Warn("EventRepository:Save:Gone", "event_id", ev.ID)
		return fmt.Errorf("save event %s: %w", ev.ID, entity.ErrEventNotFound)
	}

	r.publish(ctx, ev.ID, doc)
	return nil
}

func (r *EventRepository) ListByMember(ctx context.Context, userID string) ([]*entity.Event, error) {
	filter, err := json.Marshal([]map[string]string{{"id": userID}})
	if err != nil {
		return nil, err
	}

	var rows []eventRow
	query := `
		SELECT document FROM events
		WHERE document -> 'members' @> $1::jsonb
		ORDER BY updated_at DESC
	`
	if err := r.DB.SelectContext(ctx, &rows, query, string(filter)); err != nil {
		logger.Error("EventRepository:ListByMember:Error", "user_id", userID, "error", err)
		return nil, err
	}

	events := make([]*entity.Event, 0, len(rows))
	for _, row := range rows {
		ev, err := decodeEvent(row.Document)
		if err != nil {
			logger.Warn("EventRepository:ListByMember:Decode", "user_id", userID, "error", err)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) (bool, error) {
	var deleted string
	err := r.DB.QueryRowContext(ctx, `DELETE FROM events WHERE id = $1 RETURNING id`, id).Scan(&deleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		logger.Error("EventRepository:Delete:Error", "event_id", id, "error", err)
		return false, err
	}

	r.publish(ctx, id, []byte("null"))
	return true, nil
}

func (r *EventRepository) Subscribe(ctx context.Context, id string, onChange func(*entity.Event)) (func(), error) {
	return r.Cache.Subscribe(ctx, ChangeChannel(id), func(payload []byte) {
		ev, err := decodeEvent(payload)
		if err != nil {
			logger.Warn("EventRepository:Subscribe:Decode", "event_id", id, "error", err)
			return
		}
		onChange(ev)
	})
}

// publish failures are logged; the document is already stored.
func (r *EventRepository) publish(ctx context.Context, id string, payload []byte) {
	if err := r.Cache.Publish(ctx, ChangeChannel(id), payload); err != nil {
		logger.Warn("EventRepository:publish:Error", "event_id", id, "error", err)
	}
}

// decodeEvent maps a JSON null document to an absent event.
func decodeEvent(doc []byte) (*entity.Event, error) {
	var ev *entity.Event
	if err := json.Unmarshal(doc, &ev); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return ev, nil
}
