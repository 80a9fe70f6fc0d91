package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/seyhanc/kumru/database"
	"github.com/seyhanc/kumru/models"
	"github.com/seyhanc/kumru/pkg"
)

type sqliteInvitationRepo struct {
	db database.TxQuerier
}

// NewSQLiteInvitationRepo, constructor.
func NewSQLiteInvitationRepo(db database.TxQuerier) InvitationRepository {
	return &sqliteInvitationRepo{db: db}
}

func (r *sqliteInvitationRepo) Create(ctx context.Context, inv *models.Invitation) error {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}

	query := `
		INSERT INTO invitations (id, server_id, inviter_id, receiver_id)
		VALUES (?, ?, ?, ?)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		inv.ID, inv.ServerID, inv.InviterID, inv.ReceiverID,
	).Scan(&inv.CreatedAt)

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: invitation already exists", pkg.ErrConflict)
		}
		return fmt.Errorf("failed to create invitation: %w", err)
	}

	return nil
}

func (r *sqliteInvitationRepo) GetByID(ctx context.Context, invitationID string) (*models.Invitation, error) {
	query := `
		SELECT id, server_id, inviter_id, receiver_id, created_at
		FROM invitations WHERE id = ?`

	inv := &models.Invitation{}
	err := r.db.QueryRowContext(ctx, query, invitationID).Scan(
		&inv.ID, &inv.ServerID, &inv.InviterID, &inv.ReceiverID, &inv.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	return inv, nil
}

func (r *sqliteInvitationRepo) Delete(ctx context.Context, invitationID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM invitations WHERE id = ?`, invitationID)
	if err != nil {
		return fmt.Errorf("failed to delete invitation: %w", err)
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

func (r *sqliteInvitationRepo) DeleteByServerAndReceiver(ctx context.Context, serverID, receiverID string) error {
	// Koşulsuz temizlik: satır yoksa da başarı sayılır (kabul akışında
	// davet kodu yarışı bu yüzden idempotenttir).
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM invitations WHERE server_id = ? AND receiver_id = ?`, serverID, receiverID)
	if err != nil {
		return fmt.Errorf("failed to delete invitation: %w", err)
	}

	return nil
}

func (r *sqliteInvitationRepo) Exists(ctx context.Context, serverID, receiverID string) (bool, error) {
	query := `SELECT 1 FROM invitations WHERE server_id = ? AND receiver_id = ? LIMIT 1`

	var dummy int
	err := r.db.QueryRowContext(ctx, query, serverID, receiverID).Scan(&dummy)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check invitation: %w", err)
	}

	return true, nil
}

func (r *sqliteInvitationRepo) ListByReceiver(ctx context.Context, receiverID string) ([]models.InvitationWithServer, error) {
	query := `
		SELECT i.id, i.server_id, i.inviter_id, i.receiver_id, i.created_at,
		       s.name, s.image_url, u.username
		FROM invitations i
		INNER JOIN servers s ON i.server_id = s.id
		INNER JOIN users u ON i.inviter_id = u.id
		WHERE i.receiver_id = ?
		ORDER BY i.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	var invitations []models.InvitationWithServer
	for rows.Next() {
		var inv models.InvitationWithServer
		if err := rows.Scan(&inv.ID, &inv.ServerID, &inv.InviterID, &inv.ReceiverID, &inv.CreatedAt,
			&inv.ServerName, &inv.ServerImageURL, &inv.InviterUsername); err != nil {
			return nil, fmt.Errorf("failed to scan invitation row: %w", err)
		}
		invitations = append(invitations, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invitation rows: %w", err)
	}

	return invitations, nil
}

func (r *sqliteInvitationRepo) DeleteByServer(ctx context.Context, serverID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM invitations WHERE server_id = ?`, serverID)
	if err != nil {
		return fmt.Errorf("failed to delete server invitations: %w", err)
	}

	return nil
}
