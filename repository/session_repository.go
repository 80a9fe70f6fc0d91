// Package repository — SessionRepository interface.
//
// Refresh token oturumları için CRUD soyutlaması.
package repository

import (
	"context"

	"github.com/seyhanc/kumru/models"
)

// SessionRepository, oturum veritabanı işlemleri için interface.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByRefreshToken(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) error
}
