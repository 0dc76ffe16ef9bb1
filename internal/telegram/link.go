package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jellyrequest/jellyrequest/internal/jellyfin"
	"github.com/jellyrequest/jellyrequest/internal/ledger"
	"github.com/jellyrequest/jellyrequest/internal/provision"
)

func (b *Bot) handleLink(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.Chat.IsPrivate() {
		b.reply(msg, "Please link your account in a private chat, not in a group.")
		return
	}
	parts := strings.Fields(msg.CommandArguments())
	if len(parts) != 2 {
		b.reply(msg, "Usage: /link <jellyfin_username> <password>")
		return
	}
	username, password := parts[0], parts[1]

	user, err := b.media.AuthenticateByName(ctx, username, password)
	if err != nil {
		if errors.Is(err, jellyfin.ErrInvalidCredentials) {
			b.reply(msg, "Authentication failed: invalid Jellyfin username or password.")
		} else {
			b.logger.Error("link auth failed", slog.Any("error", err))
			b.reply(msg, "An error occurred while authenticating with Jellyfin.")
		}
		return
	}

	identity, err := b.resolver.Reconcile(ctx, user.ID)
	if err != nil {
		if errors.Is(err, provision.ErrNotFound) {
			b.reply(msg, "Your Jellyfin login is correct, but your account is not in Jellyseerr. Please contact an admin.")
		} else {
			b.logger.Error("link reconcile failed", slog.Any("error", err))
			b.reply(msg, "Failed to look up your account in Jellyseerr.")
		}
		return
	}

	linkedName := identity.Username
	if linkedName == "" {
		linkedName = username
	}
	account := ledger.LinkedAccount{
		TelegramID:   strconv.FormatInt(msg.From.ID, 10),
		JellyseerrID: identity.JellyseerrID,
		JellyfinID:   user.ID,
		Username:     linkedName,
	}
	if err := b.store.Upsert(ctx, account); err != nil {
		if errors.Is(err, ledger.ErrUsernameTaken) {
			b.reply(msg, "That Jellyfin account is already linked to another Telegram user.")
			return
		}
		b.logger.Error("link upsert failed", slog.Any("error", err))
		b.reply(msg, "Failed to save your account link. Please try again.")
		return
	}
	b.reply(msg, "Success! Your account is now linked to '"+linkedName+"'.")

	// The command message contains a password.
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(msg.Chat.ID, msg.MessageID)); err != nil {
		b.logger.Warn("delete link message failed", slog.Any("error", err))
	}
}

func (b *Bot) handleUnlink(ctx context.Context, msg *tgbotapi.Message) {
	telegramID := strconv.FormatInt(msg.From.ID, 10)
	if _, err := b.store.Get(ctx, telegramID); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			b.reply(msg, "You haven't linked your account yet.")
		} else {
			b.logger.Error("unlink lookup failed", slog.Any("error", err))
			b.reply(msg, "Failed to look up your account link.")
		}
		return
	}
	if err := b.store.Delete(ctx, telegramID); err != nil {
		b.logger.Error("unlink delete failed", slog.Any("error", err))
		b.reply(msg, "Failed to unlink your account. Please try again.")
		return
	}
	b.reply(msg, "Unlinked your account successfully.")
}
