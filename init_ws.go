// Package main — WebSocket oda yetkilendirme wire-up.
//
// Hub, oda katılım isteklerini RoomAuthorizer interface'i üzerinden
// doğrular. Üyelik bilgisi repository katmanında yaşadığı için adapter
// burada (main package'da) tanımlıdır — ws paketi repository'lere
// bağımlı olmaz (Dependency Inversion).
package main

import (
	"context"
	"errors"

	"github.com/seyhanc/kumru/pkg"
	"github.com/seyhanc/kumru/repository"
)

// repoRoomAuthorizer, ws.RoomAuthorizer'ı server_members defteri
// üzerinden implement eder. Kanal odası da sunucu üyeliğine bakar:
// sunucu üyeleri her kanalı okuyabilir ve mesaj atabilir, channel_members
// sadece yaşam döngüsünü (ayrılma / son üye silmesi) belirler.
type repoRoomAuthorizer struct {
	serverRepo  repository.ServerRepository
	channelRepo repository.ChannelRepository
}

func newRoomAuthorizer(serverRepo repository.ServerRepository, channelRepo repository.ChannelRepository) *repoRoomAuthorizer {
	return &repoRoomAuthorizer{serverRepo: serverRepo, channelRepo: channelRepo}
}

func (a *repoRoomAuthorizer) CanJoinServerRoom(ctx context.Context, serverID, userID string) (bool, error) {
	return a.serverRepo.IsMember(ctx, serverID, userID)
}

func (a *repoRoomAuthorizer) CanJoinChannelRoom(ctx context.Context, channelID, userID string) (bool, error) {
	channel, err := a.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		// Olmayan kanal bir yetki hatası değil, düz bir rettir.
		if errors.Is(err, pkg.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return a.serverRepo.IsMember(ctx, channel.ServerID, userID)
}
