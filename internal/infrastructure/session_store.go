package infrastructure

import (
	"context"
	"database/sql"
	"fmt"
	"project_sheetbot/internal/config"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Registers the "pgx" database/sql driver
	"go.mau.fi/whatsmeow/store/sqlstore"
	waLog "go.mau.fi/whatsmeow/util/log"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SessionStore owns the database holding the WhatsApp device session.
type SessionStore struct {
	Container *sqlstore.Container
	db        *sql.DB
	dialect   string
}

// sessionDSN picks the driver, whatsmeow dialect and DSN for the configured store.
func sessionDSN(cfg config.WhatsAppConfig) (driver, dialect, dsn string) {
	if cfg.SessionDatabaseURL != "" {
		return "pgx", "postgres", cfg.SessionDatabaseURL
	}
	return "sqlite", "sqlite", "file:" + cfg.SessionDBPath + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
}

// OpenSessionStore opens the session database (Postgres when a URL is
// configured, a local SQLite file otherwise) and upgrades whatsmeow's schema.
func OpenSessionStore(ctx context.Context, cfg config.WhatsAppConfig, log waLog.Logger) (*SessionStore, error) {
	driver, dialect, dsn := sessionDSN(cfg)

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s session database: %w", dialect, err)
	}

	if dialect == "postgres" {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(time.Hour)
		db.SetConnMaxIdleTime(30 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping %s session database: %w", dialect, err)
	}

	container := sqlstore.NewWithDB(db, dialect, log.Sub("Database"))
	if err := container.Upgrade(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("session store migration failed: %w", err)
	}

	log.Infof("WhatsApp session store ready (%s)", dialect)
	return &SessionStore{Container: container, db: db, dialect: dialect}, nil
}

func (s *SessionStore) Dialect() string {
	return s.dialect
}

func (s *SessionStore) Close() error {
	return s.db.Close()
}
