package database

import (
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestNewAppliesMigrations(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := New(dbPath, EmbeddedMigrations)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer db.Close()

	// embed.FS'in kökü migrations/ dizinini taşır — New'in alt dizine
	// inmesi sayesinde dosyalar gerçekten uygulanmış olmalı
	var count int
	if err := db.Conn.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("schema_migrations query: %v", err)
	}
	if count == 0 {
		t.Fatal("no migrations were applied from the embedded FS")
	}

	// Tüm çekirdek tablolar oluşmuş olmalı
	tables := []string{
		"users", "sessions", "servers", "server_members",
		"channels", "channel_members", "messages", "invitations",
	}
	for _, table := range tables {
		var name string
		err := db.Conn.QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestNewRejectsEmptyMigrationFS(t *testing.T) {
	// Hiç .sql içermeyen bir FS sessizce şemasız DB bırakmamalı
	empty := fstest.MapFS{
		"README.md": &fstest.MapFile{Data: []byte("not sql")},
	}

	_, err := New(filepath.Join(t.TempDir(), "test.db"), empty)
	if err == nil {
		t.Fatal("New should fail when the FS contains no migration files")
	}
}

func TestNewAcceptsRootLevelMigrationFiles(t *testing.T) {
	// os.DirFS gibi dosyaları doğrudan köke koyan FS'ler de çalışmalı
	flat := fstest.MapFS{
		"001_init.sql": &fstest.MapFile{Data: []byte("CREATE TABLE deneme (id TEXT PRIMARY KEY);")},
	}

	db, err := New(filepath.Join(t.TempDir(), "test.db"), flat)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer db.Close()

	var name string
	err = db.Conn.QueryRow(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'deneme'",
	).Scan(&name)
	if err != nil {
		t.Errorf("root-level migration was not applied: %v", err)
	}
}

func TestNewIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := New(dbPath, EmbeddedMigrations)
	if err != nil {
		t.Fatalf("first New: %v", err)
	}
	db.Close()

	// Aynı dosyayı tekrar açmak migration'ları tekrar koşmaz, hata vermez
	db, err = New(dbPath, EmbeddedMigrations)
	if err != nil {
		t.Fatalf("second New: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.Conn.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("schema_migrations query: %v", err)
	}
	if count == 0 {
		t.Error("schema_migrations should record applied files")
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"), EmbeddedMigrations)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer db.Close()

	// Olmayan sunucuya üyelik satırı FK ihlalidir
	_, err = db.Conn.Exec(
		"INSERT INTO server_members (server_id, user_id, role) VALUES ('yok', 'yok', 'member')",
	)
	if err == nil {
		t.Error("foreign key violation should be rejected")
	}
}
