// Package main — Repository katmanı başlatma.
//
// initRepositories, tüm repository implementasyonlarını oluşturur.
// Her repository aynı *sql.DB'yi alır ve interface döner —
// sql.DB thread-safe connection pool'dur, paylaşılması güvenlidir.
package main

import (
	"database/sql"

	"github.com/seyhanc/kumru/repository"
)

// Repositories, tüm repository instance'larını tutan container struct.
// Tek struct, fonksiyon imzalarını temiz tutar ve yeni repository
// eklendiğinde sadece burası güncellenir.
type Repositories struct {
	User       repository.UserRepository
	Session    repository.SessionRepository
	Server     repository.ServerRepository
	Channel    repository.ChannelRepository
	Message    repository.MessageRepository
	Invitation repository.InvitationRepository
}

// initRepositories, veritabanı bağlantısından tüm repository'leri oluşturur.
func initRepositories(conn *sql.DB) *Repositories {
	return &Repositories{
		User:       repository.NewSQLiteUserRepo(conn),
		Session:    repository.NewSQLiteSessionRepo(conn),
		Server:     repository.NewSQLiteServerRepo(conn),
		Channel:    repository.NewSQLiteChannelRepo(conn),
		Message:    repository.NewSQLiteMessageRepo(conn),
		Invitation: repository.NewSQLiteInvitationRepo(conn),
	}
}
