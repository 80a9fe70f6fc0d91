// Package repository, veritabanı erişim katmanını (data access layer) tanımlar.
//
// Repository Pattern nedir?
// Service katmanı SQL detaylarını bilmez — sadece interface'lerle konuşur.
// Böylece:
// 1. Service'ler mock repository ile test edilebilir
// 2. SQLite'tan başka bir DB'ye geçiş service kodunu etkilemez
//
// Her entity için bir interface dosyası + bir sqlite_*.go implementasyonu vardır.
// Constructor'lar database.TxQuerier kabul eder — normal operasyonlarda *sql.DB,
// transaction içinde *sql.Tx geçilir.
package repository

import (
	"context"

	"github.com/seyhanc/kumru/models"
)

// UserRepository, kullanıcı veritabanı işlemleri için interface.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
