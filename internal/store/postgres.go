package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/minhvu/pushrelay/internal/apperr"
	"github.com/minhvu/pushrelay/internal/config"
	"github.com/minhvu/pushrelay/internal/model"
)

// ConnectPostgres creates the single shared connection pool for a process.
func ConnectPostgres(dbCfg config.DBConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dbCfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(dbCfg.MaxOpenConn)
	db.SetConnMaxIdleTime(dbCfg.ConnMaxIdle)

	// ping to ensure connection is valid
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return db, nil
}

type postgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an existing connection pool.
func NewPostgresStore(db *sqlx.DB) RecordStore {
	return &postgresStore{db: db}
}

func (s *postgresStore) GetNotification(ctx context.Context, id string) (*model.Notification, error) {
	var n model.Notification
	query := `SELECT id, target_recipient_id, title, body, data, status,
		created_at, sent_at, failed_at,
		COALESCE(message_id, '') AS message_id, COALESCE(error, '') AS error
		FROM notifications WHERE id = $1`
	if err := s.db.GetContext(ctx, &n, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NewNotFound("notification %s", id)
		}
		return nil, err
	}
	return &n, nil
}

func (s *postgresStore) GetRecipient(ctx context.Context, id string) (*model.Recipient, error) {
	var r model.Recipient
	query := `SELECT id, COALESCE(push_token, '') AS push_token
		FROM recipients WHERE id = $1`
	if err := s.db.GetContext(ctx, &r, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NewNotFound("recipient %s", id)
		}
		return nil, err
	}
	return &r, nil
}

// MarkSent performs a partial update guarded on status = pending, so a
// redelivered event cannot overwrite an already-terminal record.
func (s *postgresStore) MarkSent(ctx context.Context, id, messageID string, at time.Time) error {
	query := `UPDATE notifications
		SET status = $1, sent_at = $2, message_id = $3
		WHERE id = $4 AND status = $5`
	_, err := s.db.ExecContext(ctx, query, model.StatusSent, at, messageID, id, model.StatusPending)
	return err
}

func (s *postgresStore) MarkFailed(ctx context.Context, id, reason string, at time.Time) error {
	query := `UPDATE notifications
		SET status = $1, failed_at = $2, error = $3
		WHERE id = $4 AND status = $5`
	_, err := s.db.ExecContext(ctx, query, model.StatusFailed, at, reason, id, model.StatusPending)
	return err
}

func (s *postgresStore) ExpiredIDs(ctx context.Context, cutoff time.Time) ([]string, error) {
	var ids []string
	query := `SELECT id FROM notifications WHERE created_at < $1`
	if err := s.db.SelectContext(ctx, &ids, query, cutoff); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *postgresStore) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, err
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

func (s *postgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
