// Package models — Invitation domain modeli.
//
// Invitation, bir üyenin (inviter) başka bir kullanıcıyı (receiver) belirli
// bir sunucuya davet etmesini temsil eder.
//
// Durum makinesi: Pending → {Accepted, Cancelled}.
// Terminal durumlar saklanmaz — accept veya cancel kaydı SİLER.
// DB'de sadece pending davetler bulunur; UNIQUE(server_id, receiver_id)
// aynı çift için ikinci bir pending daveti imkansız kılar.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Invitation, bekleyen (pending) bir daveti temsil eder.
type Invitation struct {
	ID         string    `json:"id"`
	ServerID   string    `json:"server_id"`
	InviterID  string    `json:"inviter_id"`
	ReceiverID string    `json:"receiver_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// InvitationWithServer, davet listesinde sunucu bilgisiyle birlikte döner.
// Frontend'de "X seni Y sunucusuna davet etti" kartı için kullanılır.
type InvitationWithServer struct {
	Invitation
	ServerName      string  `json:"server_name"`
	ServerImageURL  *string `json:"server_image_url"`
	InviterUsername string  `json:"inviter_username"`
}

// CreateInvitationRequest, yeni davet oluşturma isteği.
type CreateInvitationRequest struct {
	ServerID   string `json:"server_id"`
	ReceiverID string `json:"receiver_id"`
}

// Validate, CreateInvitationRequest kontrolü.
func (r *CreateInvitationRequest) Validate() error {
	r.ServerID = strings.TrimSpace(r.ServerID)
	r.ReceiverID = strings.TrimSpace(r.ReceiverID)
	if r.ServerID == "" {
		return fmt.Errorf("server_id is required")
	}
	if r.ReceiverID == "" {
		return fmt.Errorf("receiver_id is required")
	}
	return nil
}
