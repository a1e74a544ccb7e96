package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"pethaven/internal/domain"
)

// Open opens a SQLite database with the given DSN. In-memory databases are
// limited to one connection so every query sees the same database.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	return db, nil
}

// Migrate creates the schema. It is idempotent. Timestamps are stored as
// unix nanoseconds; ties are broken by rowid, which follows insertion order.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			role TEXT NOT NULL,
			hashed_password TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS pets (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			breed TEXT NOT NULL,
			category TEXT NOT NULL,
			age INTEGER NOT NULL DEFAULT 0,
			images TEXT NOT NULL DEFAULT '[]',
			status TEXT NOT NULL,
			shelter_id TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		// No foreign keys on participants: a conversation outlives a deleted account.
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			sender_id TEXT NOT NULL,
			receiver_id TEXT NOT NULL,
			pet_id TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			chat_id TEXT NOT NULL,
			is_read BOOLEAN NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id TEXT PRIMARY KEY,
			recipient_id TEXT NOT NULL,
			type TEXT NOT NULL,
			message TEXT NOT NULL,
			related_kind TEXT NOT NULL DEFAULT 'system',
			related_ref TEXT NOT NULL DEFAULT '',
			is_read BOOLEAN NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS applications (
			id TEXT PRIMARY KEY,
			adopter_id TEXT NOT NULL,
			pet_id TEXT NOT NULL,
			shelter_id TEXT NOT NULL,
			status TEXT NOT NULL,
			message TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			UNIQUE (pet_id, adopter_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_pets_status ON pets(status, category);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_receiver ON messages(receiver_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id);`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_applications_adopter ON applications(adopter_id);`,
		`CREATE INDEX IF NOT EXISTS idx_applications_shelter ON applications(shelter_id);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// NewStore wires every repository onto db.
func NewStore(db *sql.DB) *domain.Store {
	return &domain.Store{
		Users:         NewUserRepo(db),
		Pets:          NewPetRepo(db),
		Messages:      NewMessageRepo(db),
		Notifications: NewNotificationRepo(db),
		Applications:  NewApplicationRepo(db),
		Ping:          db.PingContext,
		Close:         db.Close,
	}
}

func toUnix(t time.Time) int64 { return t.UnixNano() }

func fromUnix(n int64) time.Time { return time.Unix(0, n).UTC() }

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
