package services

import (
	"context"
	"errors"
	"testing"

	"github.com/seyhanc/kumru/models"
	"github.com/seyhanc/kumru/pkg"
)

// msgEnv, mesaj testleri için hazır bir sahne kurar:
// owner'ın sunucusu, bir kanal ve sunucuya eklenmiş ikinci bir üye.
// srv alanı testEnv'in server service alanını gölgelememek için kısaltılmıştır.
type msgEnv struct {
	*testEnv
	owner   *models.User
	member  *models.User
	srv     *models.Server
	channel *models.Channel
}

func newMsgEnv(t *testing.T) *msgEnv {
	t.Helper()
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.seedUser(t, "ayse")
	member := env.seedUser(t, "mehmet")
	server := env.seedServer(t, owner.ID, "takim")

	if err := env.server.AddMember(ctx, server.ID, owner.ID, member.ID, models.RoleMember); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	channel, err := env.channel.CreateChannel(ctx, server.ID, owner.ID, &models.CreateChannelRequest{Name: "plan"})
	if err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}

	return &msgEnv{testEnv: env, owner: owner, member: member, srv: server, channel: channel}
}

func (e *msgEnv) send(t *testing.T, user *models.User, content string) *models.Message {
	t.Helper()
	msg, err := e.message.CreateMessage(context.Background(), e.channel.ID, user.ID, user.Username,
		&models.CreateMessageRequest{Content: content}, nil)
	if err != nil {
		t.Fatalf("CreateMessage(%q): %v", content, err)
	}
	return msg
}

func TestCreateMessageRequiresMembership(t *testing.T) {
	e := newMsgEnv(t)
	ctx := context.Background()
	outsider := e.seedUser(t, "zeynep")

	_, err := e.message.CreateMessage(ctx, e.channel.ID, outsider.ID, outsider.Username,
		&models.CreateMessageRequest{Content: "merhaba"}, nil)
	if !errors.Is(err, pkg.ErrForbidden) {
		t.Errorf("outsider message error = %v, want ErrForbidden", err)
	}
}

func TestCreateMessageBannedMemberRejected(t *testing.T) {
	e := newMsgEnv(t)
	ctx := context.Background()

	if err := e.server.BanMember(ctx, e.srv.ID, e.owner.ID, e.member.ID, true); err != nil {
		t.Fatalf("BanMember: %v", err)
	}

	_, err := e.message.CreateMessage(ctx, e.channel.ID, e.member.ID, e.member.Username,
		&models.CreateMessageRequest{Content: "merhaba"}, nil)
	if !errors.Is(err, pkg.ErrForbidden) {
		t.Errorf("banned member message error = %v, want ErrForbidden", err)
	}
}

func TestCreateMessageRequiresContentOrFile(t *testing.T) {
	e := newMsgEnv(t)

	_, err := e.message.CreateMessage(context.Background(), e.channel.ID, e.owner.ID, e.owner.Username,
		&models.CreateMessageRequest{Content: "   "}, nil)
	if !errors.Is(err, pkg.ErrBadRequest) {
		t.Errorf("empty message error = %v, want ErrBadRequest", err)
	}
}

func TestListMessagesPagination(t *testing.T) {
	e := newMsgEnv(t)
	ctx := context.Background()

	for _, text := range []string{"bir", "iki", "uc", "dort", "bes"} {
		e.send(t, e.owner, text)
	}

	page, err := e.message.ListMessages(ctx, e.channel.ID, "", 3)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(page.Messages) != 3 {
		t.Fatalf("first page size = %d, want 3", len(page.Messages))
	}
	if !page.HasMore {
		t.Error("first page should report more messages")
	}

	// Cursor, sayfanın en eski mesajıdır (liste eskiden yeniye döner)
	cursor := page.Messages[0].ID
	rest, err := e.message.ListMessages(ctx, e.channel.ID, cursor, 3)
	if err != nil {
		t.Fatalf("ListMessages(before): %v", err)
	}
	if len(rest.Messages) != 2 {
		t.Fatalf("second page size = %d, want 2", len(rest.Messages))
	}
	if rest.HasMore {
		t.Error("second page should be the last one")
	}

	// İki sayfa kesişmez ve toplamda 5 farklı mesajı kapsar
	seen := make(map[string]bool)
	for _, m := range append(page.Messages, rest.Messages...) {
		if seen[m.ID] {
			t.Errorf("message %s appears on both pages", m.ID)
		}
		seen[m.ID] = true
	}
	if len(seen) != 5 {
		t.Errorf("pages cover %d messages, want 5", len(seen))
	}
}

func TestUpdateMessageOnlyAuthor(t *testing.T) {
	e := newMsgEnv(t)
	ctx := context.Background()

	msg := e.send(t, e.member, "ilk hali")

	updated, err := e.message.UpdateMessage(ctx, msg.ID, e.member.ID, &models.UpdateMessageRequest{Content: "duzeltildi"})
	if err != nil {
		t.Fatalf("UpdateMessage: %v", err)
	}
	if updated.Content == nil || *updated.Content != "duzeltildi" {
		t.Errorf("content = %v, want duzeltildi", updated.Content)
	}
	if updated.EditedAt == nil {
		t.Error("EditedAt should be set after an edit")
	}

	// Sunucu owner'ı bile başkasının mesajını düzenleyemez
	_, err = e.message.UpdateMessage(ctx, msg.ID, e.owner.ID, &models.UpdateMessageRequest{Content: "mudahale"})
	if !errors.Is(err, pkg.ErrForbidden) {
		t.Errorf("non-author edit error = %v, want ErrForbidden", err)
	}
}

func TestDeleteMessageAuthorOrServerOwner(t *testing.T) {
	e := newMsgEnv(t)
	ctx := context.Background()

	// Yazar siler
	own := e.send(t, e.member, "benim mesajim")
	if err := e.message.DeleteMessage(ctx, own.ID, e.member.ID); err != nil {
		t.Fatalf("author delete: %v", err)
	}

	// Sunucu owner'ı başkasının mesajını silebilir (moderasyon)
	other := e.send(t, e.member, "moderasyon hedefi")
	if err := e.message.DeleteMessage(ctx, other.ID, e.owner.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}

	// Sıradan üye başkasının mesajını silemez
	victim := e.send(t, e.owner, "dokunma")
	if err := e.message.DeleteMessage(ctx, victim.ID, e.member.ID); !errors.Is(err, pkg.ErrForbidden) {
		t.Errorf("member delete of other's message error = %v, want ErrForbidden", err)
	}

	// Silinmiş mesajı tekrar silmek başarıdır
	if err := e.message.DeleteMessage(ctx, own.ID, e.member.ID); err != nil {
		t.Errorf("duplicate delete should succeed: %v", err)
	}
}
