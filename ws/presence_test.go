package ws

import (
	"sort"
	"testing"
)

func TestPresenceEnterIsIdempotent(t *testing.T) {
	p := NewPresenceRegistry()

	if !p.Enter("s1", "u1") {
		t.Error("first Enter should change the set")
	}
	if p.Enter("s1", "u1") {
		t.Error("repeated Enter should be a no-op")
	}
	if p.OnlineCount("s1") != 1 {
		t.Errorf("online count = %d, want 1", p.OnlineCount("s1"))
	}
	if !p.IsOnline("s1", "u1") {
		t.Error("u1 should be online in s1")
	}
}

func TestPresenceLeave(t *testing.T) {
	p := NewPresenceRegistry()
	p.Enter("s1", "u1")
	p.Enter("s1", "u2")

	if !p.Leave("s1", "u1") {
		t.Error("Leave should change the set")
	}
	if p.Leave("s1", "u1") {
		t.Error("repeated Leave should be a no-op")
	}
	if p.IsOnline("s1", "u1") {
		t.Error("u1 should be offline")
	}
	if !p.IsOnline("s1", "u2") {
		t.Error("u2 should be unaffected")
	}

	// Hiç girmemiş kullanıcı/sunucu için Leave sessiz no-op
	if p.Leave("yok", "u1") {
		t.Error("Leave on unknown server should be a no-op")
	}
}

func TestPresenceLeaveAll(t *testing.T) {
	p := NewPresenceRegistry()
	p.Enter("s1", "u1")
	p.Enter("s2", "u1")
	p.Enter("s1", "u2")

	affected := p.LeaveAll("u1")
	sort.Strings(affected)
	if len(affected) != 2 || affected[0] != "s1" || affected[1] != "s2" {
		t.Errorf("affected servers = %v, want [s1 s2]", affected)
	}

	if p.IsOnline("s1", "u1") || p.IsOnline("s2", "u1") {
		t.Error("u1 should be offline everywhere")
	}
	if !p.IsOnline("s1", "u2") {
		t.Error("u2 should be unaffected")
	}

	// İkinci çağrı boş döner
	if again := p.LeaveAll("u1"); len(again) != 0 {
		t.Errorf("second LeaveAll = %v, want empty", again)
	}
}

func TestPresenceOnlineUserIDs(t *testing.T) {
	p := NewPresenceRegistry()
	p.Enter("s1", "u1")
	p.Enter("s1", "u2")

	ids := p.OnlineUserIDs("s1")
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "u1" || ids[1] != "u2" {
		t.Errorf("online ids = %v, want [u1 u2]", ids)
	}

	if ids := p.OnlineUserIDs("bos"); len(ids) != 0 {
		t.Errorf("unknown server ids = %v, want empty", ids)
	}
}
