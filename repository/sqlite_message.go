package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/seyhanc/kumru/database"
	"github.com/seyhanc/kumru/models"
	"github.com/seyhanc/kumru/pkg"
)

type sqliteMessageRepo struct {
	db database.TxQuerier
}

// NewSQLiteMessageRepo, constructor.
func NewSQLiteMessageRepo(db database.TxQuerier) MessageRepository {
	return &sqliteMessageRepo{db: db}
}

func (r *sqliteMessageRepo) Create(ctx context.Context, message *models.Message) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}

	query := `
		INSERT INTO messages (id, channel_id, user_id, username, content, asset_ref, asset_url)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		message.ID, message.ChannelID, message.UserID, message.Username,
		message.Content, message.AssetRef, message.AssetURL,
	).Scan(&message.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

func (r *sqliteMessageRepo) GetByID(ctx context.Context, messageID string) (*models.Message, error) {
	query := `
		SELECT id, channel_id, user_id, username, content, asset_ref, asset_url, edited_at, created_at
		FROM messages WHERE id = ?`

	m := &models.Message{}
	err := r.db.QueryRowContext(ctx, query, messageID).Scan(
		&m.ID, &m.ChannelID, &m.UserID, &m.Username,
		&m.Content, &m.AssetRef, &m.AssetURL, &m.EditedAt, &m.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return m, nil
}

func (r *sqliteMessageRepo) Update(ctx context.Context, message *models.Message) error {
	query := `
		UPDATE messages SET content = ?, edited_at = CURRENT_TIMESTAMP
		WHERE id = ?
		RETURNING edited_at`

	err := r.db.QueryRowContext(ctx, query, message.Content, message.ID).Scan(&message.EditedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return pkg.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}

	return nil
}

func (r *sqliteMessageRepo) Delete(ctx context.Context, messageID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, messageID)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return pkg.ErrNotFound
	}

	return nil
}

func (r *sqliteMessageRepo) ListByChannel(ctx context.Context, channelID string, before string, limit int) ([]models.Message, error) {
	var rows *sql.Rows
	var err error

	if before == "" {
		query := `
			SELECT id, channel_id, user_id, username, content, asset_ref, asset_url, edited_at, created_at
			FROM messages WHERE channel_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?`
		rows, err = r.db.QueryContext(ctx, query, channelID, limit)
	} else {
		// Cursor: before mesajının (created_at, id) çiftinden kesin olarak
		// eski satırlar. created_at eşitliğinde id tie-breaker'dır.
		query := `
			SELECT m.id, m.channel_id, m.user_id, m.username, m.content, m.asset_ref, m.asset_url, m.edited_at, m.created_at
			FROM messages m, (SELECT created_at, id FROM messages WHERE id = ?) cur
			WHERE m.channel_id = ?
			  AND (m.created_at < cur.created_at OR (m.created_at = cur.created_at AND m.id < cur.id))
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT ?`
		rows, err = r.db.QueryContext(ctx, query, before, channelID, limit)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ChannelID, &m.UserID, &m.Username,
			&m.Content, &m.AssetRef, &m.AssetURL, &m.EditedAt, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}

	return messages, nil
}

func (r *sqliteMessageRepo) ListAssetRefsByChannel(ctx context.Context, channelID string) ([]string, error) {
	query := `
		SELECT asset_ref FROM messages
		WHERE channel_id = ? AND asset_ref IS NOT NULL AND asset_ref != ''`

	rows, err := r.db.QueryContext(ctx, query, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list asset refs: %w", err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("failed to scan asset ref: %w", err)
		}
		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset refs: %w", err)
	}

	return refs, nil
}

func (r *sqliteMessageRepo) DeleteByChannel(ctx context.Context, channelID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE channel_id = ?`, channelID)
	if err != nil {
		return fmt.Errorf("failed to delete channel messages: %w", err)
	}

	return nil
}
