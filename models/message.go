package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Message, bir chat mesajını temsil eder.
//
// Username denormalize edilir — mesaj listelerken users tablosuna JOIN gerekmez.
// AssetRef, asset store'daki object key'idir; mesaj silinirken best-effort
// temizlik için saklanır. AssetURL client'ın göstereceği public adrestir.
type Message struct {
	ID        string     `json:"id"`
	ChannelID string     `json:"channel_id"`
	UserID    string     `json:"user_id"`
	Username  string     `json:"username"`
	Content   *string    `json:"content"`   // Nullable — sadece dosya içeren mesajlarda nil olabilir
	AssetRef  *string    `json:"-"`         // Asset store referansı — API'ye gönderilmez
	AssetURL  *string    `json:"asset_url"` // Public asset adresi
	EditedAt  *time.Time `json:"edited_at"` // Düzenlendiyse zaman damgası
	CreatedAt time.Time  `json:"created_at"`
}

// MessagePage, cursor-based pagination (sayfalama) sonucu.
//
// Offset-based ("LIMIT 50 OFFSET 100") yerine "bu mesajdan önceki 50 mesajı getir"
// kullanılır — yeni mesaj eklendiğinde sayfa kayması olmaz.
type MessagePage struct {
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"has_more"` // Daha eski mesajlar var mı?
}

// CreateMessageRequest, yeni mesaj gönderme isteği.
type CreateMessageRequest struct {
	Content string `json:"content"`
}

// Validate, CreateMessageRequest'in geçerli olup olmadığını kontrol eder.
// Not: Sadece dosya içeren mesajlarda content boş olabilir — bu kontrol
// service katmanında yapılır.
func (r *CreateMessageRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)
	if utf8.RuneCountInString(r.Content) > 2000 {
		return fmt.Errorf("message content must be at most 2000 characters")
	}
	return nil
}

// UpdateMessageRequest, mesaj düzenleme isteği.
type UpdateMessageRequest struct {
	Content string `json:"content"`
}

// Validate, UpdateMessageRequest'in geçerli olup olmadığını kontrol eder.
func (r *UpdateMessageRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)
	contentLen := utf8.RuneCountInString(r.Content)
	if contentLen < 1 {
		return fmt.Errorf("message content is required")
	}
	if contentLen > 2000 {
		return fmt.Errorf("message content must be at most 2000 characters")
	}
	return nil
}
