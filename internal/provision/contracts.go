package provision

import (
	"context"

	"github.com/jellyrequest/jellyrequest/internal/jellyfin"
	"github.com/jellyrequest/jellyrequest/internal/jellyseerr"
	"github.com/jellyrequest/jellyrequest/internal/ledger"
)

// MediaService is the subset of the Jellyfin client the lifecycle needs.
type MediaService interface {
	ListUsers(ctx context.Context) ([]jellyfin.User, error)
	CreateUser(ctx context.Context, name, password string) (jellyfin.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// RequestService is the subset of the Jellyseerr client the lifecycle needs.
type RequestService interface {
	ImportFromJellyfin(ctx context.Context, jellyfinIDs []string) ([]jellyseerr.User, error)
	ListUsers(ctx context.Context, take int) ([]jellyseerr.User, error)
	DeleteUser(ctx context.Context, id int) error
}

// Ledger is the local store of linked accounts.
type Ledger interface {
	Get(ctx context.Context, telegramID string) (ledger.LinkedAccount, error)
	GetByUsername(ctx context.Context, username string) (ledger.LinkedAccount, error)
	Upsert(ctx context.Context, account ledger.LinkedAccount) error
	Delete(ctx context.Context, telegramID string) error
}

// Notifier delivers best-effort direct messages to chat users. Failures are
// never fatal to the caller.
type Notifier interface {
	SendDirectMessage(ctx context.Context, chatID, text string) error
}
