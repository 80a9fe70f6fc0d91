package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/seyhanc/kumru/models"
	"github.com/seyhanc/kumru/pkg"
	"github.com/seyhanc/kumru/ws"
)

func TestCreateServerSeedsOwnerAndDefaultChannel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.seedUser(t, "ayse")

	server := env.seedServer(t, owner.ID, "takim")

	member, err := env.servers.GetMember(ctx, server.ID, owner.ID)
	if err != nil {
		t.Fatalf("owner should be a member: %v", err)
	}
	if member.Role != models.RoleOwner {
		t.Errorf("owner role = %q, want %q", member.Role, models.RoleOwner)
	}

	channels, err := env.channel.ListChannels(ctx, server.ID)
	if err != nil {
		t.Fatalf("ListChannels: %v", err)
	}
	if len(channels) != 1 || channels[0].Name != "genel" {
		t.Fatalf("expected single default channel 'genel', got %v", channels)
	}

	// Varsayılan kanalın tek üyesi kurucudur
	isMember, err := env.channels.IsMember(ctx, channels[0].ID, owner.ID)
	if err != nil || !isMember {
		t.Errorf("owner should be a member of the default channel (isMember=%v err=%v)", isMember, err)
	}
}

func TestAddMemberIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.seedUser(t, "ayse")
	other := env.seedUser(t, "mehmet")
	server := env.seedServer(t, owner.ID, "takim")

	if err := env.server.AddMember(ctx, server.ID, owner.ID, other.ID, models.RoleMember); err != nil {
		t.Fatalf("first AddMember: %v", err)
	}
	if err := env.server.AddMember(ctx, server.ID, owner.ID, other.ID, models.RoleMember); err != nil {
		t.Fatalf("second AddMember should be a no-op: %v", err)
	}

	count, err := env.servers.GetMemberCount(ctx, server.ID)
	if err != nil {
		t.Fatalf("GetMemberCount: %v", err)
	}
	if count != 2 {
		t.Errorf("member count = %d, want 2", count)
	}
}

func TestAddMemberRequiresOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.seedUser(t, "ayse")
	member := env.seedUser(t, "mehmet")
	outsider := env.seedUser(t, "zeynep")
	server := env.seedServer(t, owner.ID, "takim")

	if err := env.server.AddMember(ctx, server.ID, owner.ID, member.ID, models.RoleMember); err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	err := env.server.AddMember(ctx, server.ID, member.ID, outsider.ID, models.RoleMember)
	if !errors.Is(err, pkg.ErrForbidden) {
		t.Errorf("non-owner AddMember error = %v, want ErrForbidden", err)
	}
}

func TestAddMemberRejectsOwnerRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.seedUser(t, "ayse")
	other := env.seedUser(t, "mehmet")
	server := env.seedServer(t, owner.ID, "takim")

	err := env.server.AddMember(ctx, server.ID, owner.ID, other.ID, models.RoleOwner)
	if !errors.Is(err, pkg.ErrConflict) {
		t.Errorf("owner-role grant error = %v, want ErrConflict", err)
	}

	if err := env.server.AddMember(ctx, server.ID, owner.ID, other.ID, ""); err != nil {
		t.Fatalf("AddMember with default role: %v", err)
	}
	members, err := env.servers.ListMembers(ctx, server.ID)
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	for _, m := range members {
		if m.UserID == other.ID && m.Role != models.RoleMember {
			t.Errorf("role = %q, want member", m.Role)
		}
	}
}

func TestRemoveMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.seedUser(t, "ayse")
	member := env.seedUser(t, "mehmet")
	server := env.seedServer(t, owner.ID, "takim")

	if err := env.server.AddMember(ctx, server.ID, owner.ID, member.ID, models.RoleMember); err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	if err := env.server.RemoveMember(ctx, server.ID, owner.ID, member.ID); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}

	// Üye olmayanı çıkarmak NotFound döner — sessiz no-op değil
	err := env.server.RemoveMember(ctx, server.ID, owner.ID, member.ID)
	if !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("removing non-member error = %v, want ErrNotFound", err)
	}

	// Kendini kick'lemek için LeaveServer kullanılır
	err = env.server.RemoveMember(ctx, server.ID, owner.ID, owner.ID)
	if !errors.Is(err, pkg.ErrBadRequest) {
		t.Errorf("self-kick error = %v, want ErrBadRequest", err)
	}
}

func TestLeaveServerLastMemberTriggersCascade(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.seedUser(t, "ayse")
	server := env.seedServer(t, owner.ID, "takim")

	if err := env.server.LeaveServer(ctx, server.ID, owner.ID); err != nil {
		t.Fatalf("LeaveServer: %v", err)
	}

	if _, err := env.server.GetServer(ctx, server.ID); !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("server should be deleted after last member left, got err = %v", err)
	}

	channels, err := env.channel.ListChannels(ctx, server.ID)
	if err != nil {
		t.Fatalf("ListChannels: %v", err)
	}
	if len(channels) != 0 {
		t.Errorf("channels should be cascade-deleted, got %d", len(channels))
	}

	if !env.hub.hasOp("server:"+server.ID, ws.OpServerDelete) {
		t.Error("server room should receive server_delete after last member left")
	}
}

func TestLeaveServerWithRemainingMembers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.seedUser(t, "ayse")
	member := env.seedUser(t, "mehmet")
	server := env.seedServer(t, owner.ID, "takim")

	if err := env.server.AddMember(ctx, server.ID, owner.ID, member.ID, models.RoleMember); err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	// Owner dahil herkes ayrılabilir — sunucu kalan üyeyle yaşar
	if err := env.server.LeaveServer(ctx, server.ID, owner.ID); err != nil {
		t.Fatalf("owner LeaveServer: %v", err)
	}

	if _, err := env.server.GetServer(ctx, server.ID); err != nil {
		t.Fatalf("server should still exist: %v", err)
	}

	count, _ := env.servers.GetMemberCount(ctx, server.ID)
	if count != 1 {
		t.Errorf("member count = %d, want 1", count)
	}
}

func TestJoinByCodeIsSingleUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.seedUser(t, "ayse")
	first := env.seedUser(t, "mehmet")
	second := env.seedUser(t, "zeynep")
	server := env.seedServer(t, owner.ID, "takim")

	code, err := env.server.CreateInviteCode(ctx, server.ID, owner.ID)
	if err != nil {
		t.Fatalf("CreateInviteCode: %v", err)
	}

	joined, err := env.server.JoinByCode(ctx, first.ID, &models.JoinByCodeRequest{Code: code})
	if err != nil {
		t.Fatalf("first JoinByCode: %v", err)
	}
	if joined.ID != server.ID {
		t.Errorf("joined server = %s, want %s", joined.ID, server.ID)
	}

	// Kod tüketildi — ikinci kullanıcı aynı kodla katılamaz
	_, err = env.server.JoinByCode(ctx, second.ID, &models.JoinByCodeRequest{Code: code})
	if !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("second JoinByCode error = %v, want ErrNotFound", err)
	}
}

func TestJoinByCodeAlreadyMemberPreservesCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.seedUser(t, "ayse")
	newcomer := env.seedUser(t, "mehmet")
	server := env.seedServer(t, owner.ID, "takim")

	code, err := env.server.CreateInviteCode(ctx, server.ID, owner.ID)
	if err != nil {
		t.Fatalf("CreateInviteCode: %v", err)
	}

	// Owner zaten üye — katılım Conflict döner ve rollback kodu geri koyar
	_, err = env.server.JoinByCode(ctx, owner.ID, &models.JoinByCodeRequest{Code: code})
	if !errors.Is(err, pkg.ErrConflict) {
		t.Fatalf("already-member JoinByCode error = %v, want ErrConflict", err)
	}

	// Kod hâlâ geçerli olmalı
	if _, err := env.server.JoinByCode(ctx, newcomer.ID, &models.JoinByCodeRequest{Code: code}); err != nil {
		t.Errorf("code should survive a conflicting join attempt: %v", err)
	}
}

func TestServerUpdateEventCarriesOnlyChangedFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.seedUser(t, "ayse")
	server := env.seedServer(t, owner.ID, "takim")

	if _, err := env.server.CreateInviteCode(ctx, server.ID, owner.ID); err != nil {
		t.Fatalf("CreateInviteCode: %v", err)
	}
	env.hub.reset()

	newName := "yeni-takim"
	if _, err := env.server.UpdateServer(ctx, server.ID, owner.ID, &models.UpdateServerRequest{Name: &newName}, nil); err != nil {
		t.Fatalf("UpdateServer: %v", err)
	}

	var payload []byte
	for _, e := range env.hub.events {
		if e.Room == "server:"+server.ID && e.Event.Op == ws.OpServerUpdate {
			b, err := json.Marshal(e.Event.Data)
			if err != nil {
				t.Fatalf("marshal event data: %v", err)
			}
			payload = b
		}
	}
	if payload == nil {
		t.Fatal("no server_update was broadcast to the server room")
	}

	// Payload sadece id + değişen alanları taşır — davet kodu odaya sızmaz
	if strings.Contains(string(payload), "invite_code") {
		t.Errorf("server_update payload leaks the invite code: %s", payload)
	}
	var data ws.ServerEventData
	if err := json.Unmarshal(payload, &data); err != nil {
		t.Fatalf("unmarshal ServerEventData: %v", err)
	}
	if data.ServerID != server.ID || data.Name != newName {
		t.Errorf("payload = %+v, want server %s named %q", data, server.ID, newName)
	}
}

func TestCreateInviteCodeRequiresMembership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.seedUser(t, "ayse")
	member := env.seedUser(t, "mehmet")
	outsider := env.seedUser(t, "zeynep")
	server := env.seedServer(t, owner.ID, "takim")

	if err := env.server.AddMember(ctx, server.ID, owner.ID, member.ID, models.RoleMember); err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	// Owner olmayan üye de kod üretebilir
	if _, err := env.server.CreateInviteCode(ctx, server.ID, member.ID); err != nil {
		t.Fatalf("member CreateInviteCode: %v", err)
	}

	_, err := env.server.CreateInviteCode(ctx, server.ID, outsider.ID)
	if !errors.Is(err, pkg.ErrForbidden) {
		t.Errorf("non-member CreateInviteCode error = %v, want ErrForbidden", err)
	}
}

func TestBanMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.seedUser(t, "ayse")
	member := env.seedUser(t, "mehmet")
	server := env.seedServer(t, owner.ID, "takim")

	if err := env.server.AddMember(ctx, server.ID, owner.ID, member.ID, models.RoleMember); err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	if err := env.server.BanMember(ctx, server.ID, owner.ID, member.ID, true); err != nil {
		t.Fatalf("BanMember: %v", err)
	}

	got, err := env.servers.GetMember(ctx, server.ID, member.ID)
	if err != nil {
		t.Fatalf("GetMember: %v", err)
	}
	if !got.Banned {
		t.Error("member should be banned")
	}

	// Ban üyeliği düşürmez
	count, _ := env.servers.GetMemberCount(ctx, server.ID)
	if count != 2 {
		t.Errorf("member count = %d, want 2 (ban must not remove membership)", count)
	}

	// Ban kaldırma
	if err := env.server.BanMember(ctx, server.ID, owner.ID, member.ID, false); err != nil {
		t.Fatalf("unban: %v", err)
	}
	got, _ = env.servers.GetMember(ctx, server.ID, member.ID)
	if got.Banned {
		t.Error("member should be unbanned")
	}

	// Sadece owner banlayabilir
	err = env.server.BanMember(ctx, server.ID, member.ID, owner.ID, true)
	if !errors.Is(err, pkg.ErrForbidden) {
		t.Errorf("non-owner ban error = %v, want ErrForbidden", err)
	}
}

func TestDeleteServerBroadcastsAndIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.seedUser(t, "ayse")
	server := env.seedServer(t, owner.ID, "takim")
	env.hub.reset()

	if err := env.server.DeleteServer(ctx, server.ID, owner.ID); err != nil {
		t.Fatalf("DeleteServer: %v", err)
	}

	ops := env.hub.opsForRoom("server:" + server.ID)
	if len(ops) != 1 || ops[0] != ws.OpServerDelete {
		t.Errorf("server room ops = %v, want [%s]", ops, ws.OpServerDelete)
	}

	// İkinci silme — kaskad zaten koşmuş, hata yok
	if err := env.server.DeleteServer(ctx, server.ID, owner.ID); err != nil {
		t.Errorf("duplicate DeleteServer should succeed: %v", err)
	}
}
