// Package repository — ServerRepository'nin SQLite implementasyonu.
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

type sqliteServerRepo struct {
	db database.TxQuerier
}

// NewSQLiteServerRepo, constructor.
func NewSQLiteServerRepo(db database.TxQuerier) ServerRepository {
	return &sqliteServerRepo{db: db}
}

// ─── Server CRUD ───

func (r *sqliteServerRepo) Create(ctx context.Context, server *models.Server) error {
	if server.ID == "" {
		server.ID = uuid.NewString()
	}

	query := `
		INSERT INTO servers (id, name, owner_id, image_url, image_ref, invite_code)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		server.ID, server.Name, server.OwnerID,
		server.ImageURL, server.ImageRef, server.InviteCode,
	).Scan(&server.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return nil
}

func (r *sqliteServerRepo) GetByID(ctx context.Context, serverID string) (*models.Server, error) {
	query := `
		SELECT id, name, owner_id, image_url, image_ref, invite_code, created_at
		FROM servers WHERE id = ?`

	s := &models.Server{}
	err := r.db.QueryRowContext(ctx, query, serverID).Scan(
		&s.ID, &s.Name, &s.OwnerID, &s.ImageURL, &s.ImageRef, &s.InviteCode, &s.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get server: %w", err)
	}

	return s, nil
}

func (r *sqliteServerRepo) Update(ctx context.Context, server *models.Server) error {
	query := `
		UPDATE servers SET name = ?, image_url = ?, image_ref = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		server.Name, server.ImageURL, server.ImageRef, server.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update server: %w", err)
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

func (r *sqliteServerRepo) Delete(ctx context.Context, serverID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM servers WHERE id = ?`, serverID)
	if err != nil {
		return fmt.Errorf("failed to delete server: %w", err)
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

// ─── Davet Kodu ───

func (r *sqliteServerRepo) SetInviteCode(ctx context.Context, serverID string, code *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE servers SET invite_code = ? WHERE id = ?`, code, serverID)
	if err != nil {
		return fmt.Errorf("failed to set invite code: %w", err)
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

func (r *sqliteServerRepo) ConsumeInviteCode(ctx context.Context, code string) (*models.Server, error) {
	// UPDATE ... RETURNING tek statement'ta hem kodu temizler hem sunucuyu döner.
	// Aynı kodla yarışan iki istekten sadece biri satırı yakalar —
	// diğeri sql.ErrNoRows alır (kod tek kullanımlık).
	query := `
		UPDATE servers SET invite_code = NULL
		WHERE invite_code = ?
		RETURNING id, name, owner_id, image_url, image_ref, created_at`

	s := &models.Server{}
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&s.ID, &s.Name, &s.OwnerID, &s.ImageURL, &s.ImageRef, &s.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume invite code: %w", err)
	}

	return s, nil
}

// ─── Üyelik ───

func (r *sqliteServerRepo) AddMember(ctx context.Context, serverID, userID string, role models.MemberRole) error {
	// INSERT OR IGNORE → idempotent set-union.
	// (server_id, user_id) PRIMARY KEY olduğu için tekrar eklemek no-op'tur,
	// mevcut satırın rolüne veya banned flag'ine dokunulmaz.
	query := `
		INSERT OR IGNORE INTO server_members (server_id, user_id, role)
		VALUES (?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, serverID, userID, string(role))
	if err != nil {
		return fmt.Errorf("failed to add server member: %w", err)
	}

	return nil
}

func (r *sqliteServerRepo) RemoveMember(ctx context.Context, serverID, userID string) error {
	query := `DELETE FROM server_members WHERE server_id = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query, serverID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove server member: %w", err)
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

func (r *sqliteServerRepo) IsMember(ctx context.Context, serverID, userID string) (bool, error) {
	query := `SELECT 1 FROM server_members WHERE server_id = ? AND user_id = ? LIMIT 1`

	var dummy int
	err := r.db.QueryRowContext(ctx, query, serverID, userID).Scan(&dummy)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check server membership: %w", err)
	}

	return true, nil
}

func (r *sqliteServerRepo) GetMember(ctx context.Context, serverID, userID string) (*models.ServerMember, error) {
	query := `
		SELECT server_id, user_id, role, banned, joined_at
		FROM server_members WHERE server_id = ? AND user_id = ?`

	m := &models.ServerMember{}
	err := r.db.QueryRowContext(ctx, query, serverID, userID).Scan(
		&m.ServerID, &m.UserID, &m.Role, &m.Banned, &m.JoinedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get server member: %w", err)
	}

	return m, nil
}

func (r *sqliteServerRepo) SetMemberBanned(ctx context.Context, serverID, userID string, banned bool) error {
	query := `UPDATE server_members SET banned = ? WHERE server_id = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query, banned, serverID, userID)
	if err != nil {
		return fmt.Errorf("failed to set member banned: %w", err)
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

func (r *sqliteServerRepo) GetMemberCount(ctx context.Context, serverID string) (int, error) {
	query := `SELECT COUNT(*) FROM server_members WHERE server_id = ?`

	var count int
	err := r.db.QueryRowContext(ctx, query, serverID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get member count: %w", err)
	}

	return count, nil
}

func (r *sqliteServerRepo) ListMembers(ctx context.Context, serverID string) ([]models.ServerMember, error) {
	query := `
		SELECT server_id, user_id, role, banned, joined_at
		FROM server_members WHERE server_id = ?
		ORDER BY joined_at ASC`

	rows, err := r.db.QueryContext(ctx, query, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list server members: %w", err)
	}
	defer rows.Close()

	var members []models.ServerMember
	for rows.Next() {
		var m models.ServerMember
		if err := rows.Scan(&m.ServerID, &m.UserID, &m.Role, &m.Banned, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member row: %w", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}

	return members, nil
}

func (r *sqliteServerRepo) GetUserServers(ctx context.Context, userID string) ([]models.ServerListItem, error) {
	query := `
		SELECT s.id, s.name, s.image_url
		FROM servers s
		INNER JOIN server_members sm ON s.id = sm.server_id
		WHERE sm.user_id = ?
		ORDER BY sm.joined_at ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user servers: %w", err)
	}
	defer rows.Close()

	var servers []models.ServerListItem
	for rows.Next() {
		var s models.ServerListItem
		if err := rows.Scan(&s.ID, &s.Name, &s.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan server row: %w", err)
		}
		servers = append(servers, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating server rows: %w", err)
	}

	return servers, nil
}
