package services

import (
	"context"
	"errors"
	"testing"

	"github.com/seyhanc/kumru/models"
	"github.com/seyhanc/kumru/pkg"
)

func TestCascadeDeleteServerRemovesEverything(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.seedUser(t, "ayse")
	receiver := env.seedUser(t, "mehmet")
	server := env.seedServer(t, owner.ID, "takim")

	second, err := env.channel.CreateChannel(ctx, server.ID, owner.ID, &models.CreateChannelRequest{Name: "plan"})
	if err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}
	if _, err := env.message.CreateMessage(ctx, second.ID, owner.ID, owner.Username,
		&models.CreateMessageRequest{Content: "merhaba"}, nil); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if _, err := env.invitation.CreateInvitation(ctx, owner.ID, &models.CreateInvitationRequest{
		ServerID:   server.ID,
		ReceiverID: receiver.ID,
	}); err != nil {
		t.Fatalf("CreateInvitation: %v", err)
	}
	env.hub.reset()

	if err := env.cascade.DeleteServer(ctx, server.ID); err != nil {
		t.Fatalf("cascade DeleteServer: %v", err)
	}

	if _, err := env.servers.GetByID(ctx, server.ID); !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("server row should be gone, err = %v", err)
	}
	if channels, _ := env.channels.ListByServer(ctx, server.ID); len(channels) != 0 {
		t.Errorf("channels should be gone, got %d", len(channels))
	}
	if msgs, _ := env.messages.ListByChannel(ctx, second.ID, "", 10); len(msgs) != 0 {
		t.Errorf("messages should be gone, got %d", len(msgs))
	}
	if list, _ := env.invites.ListByReceiver(ctx, receiver.ID); len(list) != 0 {
		t.Errorf("invitations should be gone, got %d", len(list))
	}
	if ok, _ := env.servers.IsMember(ctx, server.ID, owner.ID); ok {
		t.Error("member rows should be gone")
	}

	// Kaskad kendi başına hiçbir şey duyurmaz — duyuru çağıranın işi
	env.hub.mu.Lock()
	events := len(env.hub.events)
	env.hub.mu.Unlock()
	if events != 0 {
		t.Errorf("cascade broadcast %d events, want 0", events)
	}
}

func TestCascadeDeleteServerIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.seedUser(t, "ayse")
	server := env.seedServer(t, owner.ID, "takim")

	if err := env.cascade.DeleteServer(ctx, server.ID); err != nil {
		t.Fatalf("first cascade: %v", err)
	}
	// Aynı kaskadın ikinci tetiklenişi — silinecek bir şey kalmadı, hata yok
	if err := env.cascade.DeleteServer(ctx, server.ID); err != nil {
		t.Errorf("duplicate cascade should succeed: %v", err)
	}
}

func TestCascadeDeleteChannelLeavesServerIntact(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.seedUser(t, "ayse")
	server := env.seedServer(t, owner.ID, "takim")

	channel, err := env.channel.CreateChannel(ctx, server.ID, owner.ID, &models.CreateChannelRequest{Name: "plan"})
	if err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}
	if _, err := env.message.CreateMessage(ctx, channel.ID, owner.ID, owner.Username,
		&models.CreateMessageRequest{Content: "merhaba"}, nil); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}

	if err := env.cascade.DeleteChannel(ctx, channel.ID); err != nil {
		t.Fatalf("cascade DeleteChannel: %v", err)
	}

	if _, err := env.channels.GetByID(ctx, channel.ID); !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("channel should be gone, err = %v", err)
	}
	if msgs, _ := env.messages.ListByChannel(ctx, channel.ID, "", 10); len(msgs) != 0 {
		t.Errorf("messages should be gone, got %d", len(msgs))
	}

	// Sunucu ve varsayılan kanal etkilenmez
	if _, err := env.servers.GetByID(ctx, server.ID); err != nil {
		t.Errorf("server should survive a channel cascade: %v", err)
	}
	if channels, _ := env.channels.ListByServer(ctx, server.ID); len(channels) != 1 {
		t.Errorf("default channel should survive, got %d channels", len(channels))
	}
}
