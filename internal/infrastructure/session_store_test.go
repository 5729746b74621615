package infrastructure

import (
	"context"
	"path/filepath"
	"project_sheetbot/internal/config"
	"strings"
	"testing"

	waLog "go.mau.fi/whatsmeow/util/log"
)

func TestSessionDSN(t *testing.T) {
	driver, dialect, dsn := sessionDSN(config.WhatsAppConfig{SessionDBPath: "bot.db"})
	if driver != "sqlite" || dialect != "sqlite" {
		t.Errorf("sqlite: driver=%s dialect=%s", driver, dialect)
	}
	if !strings.HasPrefix(dsn, "file:bot.db?") || !strings.Contains(dsn, "foreign_keys(1)") {
		t.Errorf("sqlite dsn = %q", dsn)
	}

	url := "postgres://bot:pw@localhost:5432/bot?sslmode=disable"
	driver, dialect, dsn = sessionDSN(config.WhatsAppConfig{SessionDBPath: "bot.db", SessionDatabaseURL: url})
	if driver != "pgx" || dialect != "postgres" || dsn != url {
		t.Errorf("postgres: driver=%s dialect=%s dsn=%s", driver, dialect, dsn)
	}
}

func TestOpenSessionStore_SQLite(t *testing.T) {
	cfg := config.WhatsAppConfig{SessionDBPath: filepath.Join(t.TempDir(), "session.db")}

	store, err := OpenSessionStore(context.Background(), cfg, waLog.Noop)
	if err != nil {
		t.Fatalf("OpenSessionStore: %v", err)
	}
	defer store.Close()

	if store.Dialect() != "sqlite" {
		t.Errorf("Dialect() = %q", store.Dialect())
	}
	device, err := store.Container.GetFirstDevice(context.Background())
	if err != nil {
		t.Fatalf("GetFirstDevice: %v", err)
	}
	if device.ID != nil {
		t.Error("fresh store should hold an unpaired device")
	}
}
