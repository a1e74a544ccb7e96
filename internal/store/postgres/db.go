package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"pethaven/internal/domain"
)

// Open opens a PostgreSQL database using the pgx stdlib driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate runs idempotent DDL for the schema. seq columns record insertion
// order and break ties between equal timestamps.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id               TEXT         PRIMARY KEY,
			name             VARCHAR(100) NOT NULL,
			email            VARCHAR(255) UNIQUE NOT NULL,
			role             VARCHAR(20)  NOT NULL,
			hashed_password  VARCHAR(255) NOT NULL,
			is_active        BOOLEAN      NOT NULL DEFAULT TRUE,
			created_at       TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS pets (
			id         TEXT         PRIMARY KEY,
			seq        BIGSERIAL,
			name       VARCHAR(100) NOT NULL,
			breed      VARCHAR(100) NOT NULL,
			category   VARCHAR(50)  NOT NULL,
			age        INTEGER      NOT NULL DEFAULT 0,
			images     JSONB        NOT NULL DEFAULT '[]',
			status     VARCHAR(20)  NOT NULL,
			shelter_id TEXT         NOT NULL,
			created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS messages (
			id          TEXT        PRIMARY KEY,
			seq         BIGSERIAL,
			sender_id   TEXT        NOT NULL,
			receiver_id TEXT        NOT NULL,
			pet_id      TEXT        NOT NULL DEFAULT '',
			content     TEXT        NOT NULL,
			chat_id     TEXT        NOT NULL,
			is_read     BOOLEAN     NOT NULL DEFAULT FALSE,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id           TEXT        PRIMARY KEY,
			seq          BIGSERIAL,
			recipient_id TEXT        NOT NULL,
			type         VARCHAR(30) NOT NULL,
			message      TEXT        NOT NULL,
			related_kind VARCHAR(20) NOT NULL DEFAULT 'system',
			related_ref  TEXT        NOT NULL DEFAULT '',
			is_read      BOOLEAN     NOT NULL DEFAULT FALSE,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS applications (
			id         TEXT        PRIMARY KEY,
			seq        BIGSERIAL,
			adopter_id TEXT        NOT NULL,
			pet_id     TEXT        NOT NULL,
			shelter_id TEXT        NOT NULL,
			status     VARCHAR(20) NOT NULL,
			message    TEXT        NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (pet_id, adopter_id)
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_pets_status ON pets(status, category)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_receiver ON messages(receiver_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_applications_adopter ON applications(adopter_id)`,
		`CREATE INDEX IF NOT EXISTS idx_applications_shelter ON applications(shelter_id)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w\nSQL: %s", err, stmt)
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

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type scanner interface {
	Scan(dest ...any) error
}
