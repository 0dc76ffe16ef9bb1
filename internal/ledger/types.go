package ledger

import "time"

// LinkedAccount is the durable record mapping one Telegram identity to its
// Jellyfin and Jellyseerr accounts, plus lease metadata. ExpiresAt is nil for
// permanent accounts.
type LinkedAccount struct {
	TelegramID   string     `json:"telegram_id"`
	JellyseerrID string     `json:"jellyseerr_id,omitempty"`
	JellyfinID   string     `json:"jellyfin_id"`
	Username     string     `json:"username"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	GuildID      string     `json:"guild_id,omitempty"`
	RoleLabel    string     `json:"role_label,omitempty"`
}

// Expired reports whether the account's lease has elapsed at the given
// instant. Accounts without an expiry never expire.
func (a LinkedAccount) Expired(now time.Time) bool {
	if a.ExpiresAt == nil {
		return false
	}
	return !now.Before(*a.ExpiresAt)
}
