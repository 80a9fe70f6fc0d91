// Package models — Channel domain modeli.
//
// Channel, bir sunucu içindeki mesaj akışını ve kendi üye alt kümesini kapsar.
// Kanala açık bir "join" operasyonu yoktur — üyelik oluşturma anında
// kurucuyla tohumlanır, sonrası sadece ayrılmadır (opt-out modeli).
//
// Invariant: kanal var olduğu sürece üye kümesi asla boş olamaz —
// son üye ayrıldığı anda kanal tüm mesajlarıyla silinir.
package models

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Channel, bir sunucu kanalını temsil eder.
type Channel struct {
	ID        string    `json:"id"`
	ServerID  string    `json:"server_id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// ChannelMember, bir kullanıcının bir kanala üyeliğini temsil eder.
type ChannelMember struct {
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	JoinedAt  time.Time `json:"joined_at"`
}

// CreateChannelRequest, yeni kanal oluşturma isteği.
// MemberIDs ile kurucu, sunucu üyelerini kanala baştan ekleyebilir.
type CreateChannelRequest struct {
	Name      string   `json:"name"`
	MemberIDs []string `json:"member_ids,omitempty"`
}

// Validate, CreateChannelRequest'in geçerli olup olmadığını kontrol eder.
func (r *CreateChannelRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	nameLen := utf8.RuneCountInString(r.Name)
	if nameLen < 1 || nameLen > 100 {
		return fmt.Errorf("channel name must be between 1 and 100 characters")
	}

	for _, ch := range r.Name {
		if !isValidChannelNameChar(ch) {
			return fmt.Errorf("channel name contains invalid characters")
		}
	}

	return nil
}

// UpdateChannelRequest, kanal güncelleme isteği.
// Pointer (*string) kullanılır — nil ise o alan güncellenmez (partial update).
type UpdateChannelRequest struct {
	Name *string `json:"name"`
}

// Validate, UpdateChannelRequest'in geçerli olup olmadığını kontrol eder.
func (r *UpdateChannelRequest) Validate() error {
	if r.Name != nil {
		*r.Name = strings.TrimSpace(*r.Name)
		nameLen := utf8.RuneCountInString(*r.Name)
		if nameLen < 1 || nameLen > 100 {
			return fmt.Errorf("channel name must be between 1 and 100 characters")
		}
		for _, ch := range *r.Name {
			if !isValidChannelNameChar(ch) {
				return fmt.Errorf("channel name contains invalid characters")
			}
		}
	}
	return nil
}

// LeaveChannelResult, kanaldan ayrılma sonucunu taşır.
// Son üye ayrıldıysa kanal silinmiştir — Deleted=true, RemainingMembers=0.
type LeaveChannelResult struct {
	Deleted          bool `json:"deleted"`
	RemainingMembers int  `json:"remaining_members"`
}

// isValidChannelNameChar, kanal adında izin verilen karakterleri kontrol eder.
// unicode.IsLetter: tüm dillerdeki harfleri kapsar (Türkçe ş/ç/ğ/ı/ö/ü dahil).
func isValidChannelNameChar(ch rune) bool {
	return unicode.IsLetter(ch) ||
		unicode.IsDigit(ch) ||
		ch == '-' || ch == '_' || ch == ' '
}
