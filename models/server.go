// Package models — Server ve üyelik domain modelleri.
//
// Server, kanalları ve üyeleri gruplayan bir topluluğu temsil eder.
// Üyelik server_members tablosunda satır bazlı tutulur (set semantiği):
// (server_id, user_id) PRIMARY KEY olduğu için duplicate üyelik imkansızdır.
//
// Invariant: sunucu var olduğu sürece üye kümesi asla boş olamaz —
// son üye ayrıldığı anda sunucu tüm kanalları ve mesajlarıyla silinir.
package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MemberRole, bir üyenin sunucudaki rolünü temsil eder.
// Go'da enum yoktur, bunun yerine typed constant'lar kullanılır.
type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleMember MemberRole = "member"
)

// Valid, rolün bilinen bir değer olup olmadığını kontrol eder.
func (r MemberRole) Valid() bool {
	return r == RoleOwner || r == RoleMember
}

// Server, bir sunucuyu temsil eder.
// InviteCode tek kullanımlıktır — eşleşen ilk katılımda temizlenir.
type Server struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	OwnerID    string    `json:"owner_id"`
	ImageURL   *string   `json:"image_url"`
	ImageRef   *string   `json:"-"` // Asset store referansı — API'ye gönderilmez
	InviteCode *string   `json:"invite_code,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ServerMember, bir kullanıcının bir sunucuya üyeliğini temsil eder.
type ServerMember struct {
	ServerID string     `json:"server_id"`
	UserID   string     `json:"user_id"`
	Role     MemberRole `json:"role"`
	Banned   bool       `json:"banned"`
	JoinedAt time.Time  `json:"joined_at"`
}

// ServerListItem, kullanıcının sunucu listesinde gösterilen minimal bilgi.
type ServerListItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ImageURL *string `json:"image_url"`
}

// CreateServerRequest, yeni sunucu oluşturma isteği.
type CreateServerRequest struct {
	Name string `json:"name"`
}

// Validate, CreateServerRequest kontrolü.
func (r *CreateServerRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	nameLen := utf8.RuneCountInString(r.Name)
	if nameLen < 1 || nameLen > 100 {
		return fmt.Errorf("server name must be between 1 and 100 characters")
	}
	return nil
}

// UpdateServerRequest, sunucu güncelleme isteği.
// Partial update pattern: nil field'lar değiştirilmez.
type UpdateServerRequest struct {
	Name *string `json:"name"`
}

// Validate, UpdateServerRequest kontrolü.
func (r *UpdateServerRequest) Validate() error {
	if r.Name != nil {
		*r.Name = strings.TrimSpace(*r.Name)
		nameLen := utf8.RuneCountInString(*r.Name)
		if nameLen < 1 || nameLen > 100 {
			return fmt.Errorf("server name must be between 1 and 100 characters")
		}
	}
	return nil
}

// JoinByCodeRequest, davet koduyla sunucuya katılma isteği.
type JoinByCodeRequest struct {
	Code string `json:"code"`
}

// Validate, JoinByCodeRequest kontrolü.
func (r *JoinByCodeRequest) Validate() error {
	r.Code = strings.TrimSpace(r.Code)
	if r.Code == "" {
		return fmt.Errorf("invite code is required")
	}
	return nil
}
