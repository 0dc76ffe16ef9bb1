// Package ledger persists the mapping between Telegram users and their
// upstream media/request-service accounts.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jellyrequest/jellyrequest/internal/db"
)

// ErrNotFound is returned when no linked account matches the lookup.
var ErrNotFound = errors.New("linked account not found")

// ErrUsernameTaken is returned when a write would link a username that is
// already linked to a different Telegram user. Backed by the unique index
// on lower(username).
var ErrUsernameTaken = errors.New("username already linked to another account")

// Service provides CRUD access to the linked_accounts table.
type Service struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewService creates a new ledger service.
func NewService(log *slog.Logger, pool *pgxpool.Pool) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		pool:   pool,
		logger: log.With(slog.String("service", "ledger")),
	}
}

const accountColumns = `telegram_id, jellyseerr_id, jellyfin_id, username, created_at, expires_at, guild_id, role_label`

// Get returns the linked account for a Telegram user id.
func (s *Service) Get(ctx context.Context, telegramID string) (LinkedAccount, error) {
	if s.pool == nil {
		return LinkedAccount{}, errors.New("ledger pool not configured")
	}
	row := s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM linked_accounts WHERE telegram_id = $1`,
		telegramID,
	)
	return scanAccount(row)
}

// GetByUsername returns the linked account whose upstream username matches,
// case-insensitively.
func (s *Service) GetByUsername(ctx context.Context, username string) (LinkedAccount, error) {
	if s.pool == nil {
		return LinkedAccount{}, errors.New("ledger pool not configured")
	}
	row := s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM linked_accounts WHERE lower(username) = lower($1)`,
		strings.TrimSpace(username),
	)
	return scanAccount(row)
}

// Upsert stores or replaces the linked account keyed by its Telegram id.
func (s *Service) Upsert(ctx context.Context, account LinkedAccount) error {
	if s.pool == nil {
		return errors.New("ledger pool not configured")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO linked_accounts (telegram_id, jellyseerr_id, jellyfin_id, username, expires_at, guild_id, role_label)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (telegram_id) DO UPDATE SET
			jellyseerr_id = excluded.jellyseerr_id,
			jellyfin_id   = excluded.jellyfin_id,
			username      = excluded.username,
			expires_at    = excluded.expires_at,
			guild_id      = excluded.guild_id,
			role_label    = excluded.role_label`,
		account.TelegramID,
		db.TextFromString(account.JellyseerrID),
		account.JellyfinID,
		account.Username,
		db.TimestamptzFromPtr(account.ExpiresAt),
		db.TextFromString(account.GuildID),
		db.TextFromString(account.RoleLabel),
	)
	return mapWriteError(err)
}

// mapWriteError translates a unique-index violation into ErrUsernameTaken.
func mapWriteError(err error) error {
	if db.IsUniqueViolation(err) {
		return ErrUsernameTaken
	}
	return err
}

// Delete removes the linked account for a Telegram user id. Deleting an
// absent row is not an error.
func (s *Service) Delete(ctx context.Context, telegramID string) error {
	if s.pool == nil {
		return errors.New("ledger pool not configured")
	}
	_, err := s.pool.Exec(ctx,
		`DELETE FROM linked_accounts WHERE telegram_id = $1`, telegramID)
	return err
}

// ListExpiring returns every linked account that has an expiry set,
// regardless of whether it has elapsed yet.
func (s *Service) ListExpiring(ctx context.Context) ([]LinkedAccount, error) {
	if s.pool == nil {
		return nil, errors.New("ledger pool not configured")
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM linked_accounts WHERE expires_at IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAccounts(rows)
}

// ListAll returns every linked account ordered by creation time.
func (s *Service) ListAll(ctx context.Context) ([]LinkedAccount, error) {
	if s.pool == nil {
		return nil, errors.New("ledger pool not configured")
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM linked_accounts ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAccounts(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (LinkedAccount, error) {
	var (
		account      LinkedAccount
		jellyseerrID pgtype.Text
		createdAt    pgtype.Timestamptz
		expiresAt    pgtype.Timestamptz
		guildID      pgtype.Text
		roleLabel    pgtype.Text
	)
	err := row.Scan(
		&account.TelegramID,
		&jellyseerrID,
		&account.JellyfinID,
		&account.Username,
		&createdAt,
		&expiresAt,
		&guildID,
		&roleLabel,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LinkedAccount{}, ErrNotFound
		}
		return LinkedAccount{}, err
	}
	account.JellyseerrID = db.TextToString(jellyseerrID)
	account.CreatedAt = db.TimeFromPg(createdAt)
	account.ExpiresAt = db.TimePtrFromPg(expiresAt)
	account.GuildID = db.TextToString(guildID)
	account.RoleLabel = db.TextToString(roleLabel)
	return account, nil
}

func collectAccounts(rows pgx.Rows) ([]LinkedAccount, error) {
	items := make([]LinkedAccount, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, account)
	}
	return items, rows.Err()
}
