package repository

import (
	"context"
	"database/sql"
	"errors"

	"go-huddle/core/database"
	"go-huddle/modules/calendar/entity"

	"github.com/google/uuid"
)

type CalendarRepositoryInterface interface {
	// UpsertConnection creates the user's connection for the provider or
	// replaces its credentials.
	UpsertConnection(ctx context.Context, conn *entity.CalendarConnection) error
	// GetConnection returns nil, nil when the user has no active connection.
	GetConnection(ctx context.Context, userID, provider string) (*entity.CalendarConnection, error)
	UpdateToken(ctx context.Context, conn *entity.CalendarConnection) error
	DeleteConnection(ctx context.Context, userID, provider string) (bool, error)
}

type CalendarRepository struct {
	DB database.IDatabase
}

func NewCalendarRepository(db database.IDatabase) CalendarRepositoryInterface {
	return &CalendarRepository{DB: db}
}

func (r *CalendarRepository) UpsertConnection(ctx context.Context, conn *entity.CalendarConnection) error {
	if conn.ID == uuid.Nil {
		conn.ID = uuid.New()
	}
	conn.IsActive = true

	query := `
		INSERT INTO calendar_connections (id, user_id, provider, access_token, refresh_token, token_expires_at, calendar_email, is_active)
		VALUES (:id, :user_id, :provider, :access_token, :refresh_token, :token_expires_at, :calendar_email, :is_active)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = CASE WHEN EXCLUDED.refresh_token = '' THEN calendar_connections.refresh_token ELSE EXCLUDED.refresh_token END,
			token_expires_at = EXCLUDED.token_expires_at,
			calendar_email = EXCLUDED.calendar_email,
			is_active = TRUE,
			updated_at = NOW()
	`
	_, err := r.DB.NamedExecContext(ctx, query, conn)
	return err
}

func (r *CalendarRepository) GetConnection(ctx context.Context, userID, provider string) (*entity.CalendarConnection, error) {
	var conn entity.CalendarConnection
	query := `
		SELECT id, user_id, provider, access_token, refresh_token, token_expires_at, calendar_email, is_active, created_at, updated_at
		FROM calendar_connections
		WHERE user_id = $1 AND provider = $2 AND is_active = TRUE
	`
	if err := r.DB.GetContext(ctx, &conn, query, userID, provider); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &conn, nil
}

func (r *CalendarRepository) UpdateToken(ctx context.Context, conn *entity.CalendarConnection) error {
	query := `
		UPDATE calendar_connections
		SET access_token = $1, refresh_token = $2, token_expires_at = $3, updated_at = NOW()
		WHERE user_id = $4 AND provider = $5
	`
	return r.DB.ExecContext(ctx, query, conn.AccessToken, conn.RefreshToken, conn.TokenExpiresAt, conn.UserID, conn.Provider)
}

func (r *CalendarRepository) DeleteConnection(ctx context.Context, userID, provider string) (bool, error) {
	var id uuid.UUID
	query := `DELETE FROM calendar_connections WHERE user_id = $1 AND provider = $2 RETURNING id`
	if err := r.DB.GetContext(ctx, &id, query, userID, provider); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
