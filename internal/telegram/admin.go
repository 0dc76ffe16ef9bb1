package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jellyrequest/jellyrequest/internal/ledger"
	"github.com/jellyrequest/jellyrequest/internal/provision"
)

// handleProvisionCommand backs /invite, /trial, and /vip. The admin replies
// to a message from the target user; duration zero means permanent.
func (b *Bot) handleProvisionCommand(ctx context.Context, msg *tgbotapi.Message, durationDays int, roleLabel, label string) {
	if !b.isAdmin(msg.From.ID) {
		b.reply(msg, "You are not authorized to use this command.")
		return
	}
	if msg.ReplyToMessage == nil || msg.ReplyToMessage.From == nil {
		b.reply(msg, "Please reply to a user's message to use this command.")
		return
	}
	target := msg.ReplyToMessage.From
	displayName := target.UserName
	if displayName == "" {
		displayName = "tg_user_" + strconv.FormatInt(target.ID, 10)
	}
	b.reply(msg, "Processing "+label+" for "+displayName+"...")

	result, err := b.provisioner.Provision(ctx, provision.Request{
		TelegramID:   strconv.FormatInt(target.ID, 10),
		DisplayName:  displayName,
		DurationDays: durationDays,
		RoleLabel:    roleLabel,
	})
	if err != nil {
		var conflict *provision.ConflictError
		if errors.As(err, &conflict) {
			b.reply(msg, fmt.Sprintf("User '%s' already exists in Jellyfin (id %s).",
				conflict.Username, conflict.JellyfinID))
			return
		}
		b.logger.Error("provision failed",
			slog.Int64("target_id", target.ID),
			slog.Any("error", err))
		b.reply(msg, "Failed to create the account: "+err.Error())
		return
	}

	if result.Notified {
		b.reply(msg, "Successfully created account for '"+result.Account.Username+"' and sent them a DM.")
	} else {
		b.reply(msg, "Account for '"+result.Account.Username+"' created, but I could not DM them.\n"+
			"Password: "+result.Password)
	}
}

func (b *Bot) handleListUsers(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg.From.ID) {
		b.reply(msg, "You are not authorized to use this command.")
		return
	}
	if !msg.Chat.IsPrivate() {
		b.reply(msg, "Please use this command in a private chat.")
		return
	}

	users, err := b.media.ListUsers(ctx)
	if err != nil {
		b.logger.Error("list users failed", slog.Any("error", err))
		b.reply(msg, "An error occurred while fetching users from Jellyfin.")
		return
	}
	if len(users) == 0 {
		b.reply(msg, "No users found on the Jellyfin server.")
		return
	}

	var sb strings.Builder
	sb.WriteString("<b>Jellyfin server user list:</b>\n\n")
	for _, user := range users {
		sb.WriteString("- <code>" + html.EscapeString(user.Name) + "</code>")
		if user.Policy.IsAdministrator {
			sb.WriteString(" (Admin)")
		}
		sb.WriteString("\n")
	}
	b.replyHTML(msg, sb.String())
}

func (b *Bot) handleDeleteUser(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg.From.ID) {
		b.reply(msg, "You are not authorized to use this command.")
		return
	}
	if !msg.Chat.IsPrivate() {
		b.reply(msg, "Please use this command in a private chat.")
		return
	}
	username := strings.TrimSpace(msg.CommandArguments())
	if username == "" {
		b.reply(msg, "Usage: /deleteuser <username>")
		return
	}

	target, err := b.resolveDeletionTarget(ctx, username)
	if err != nil {
		if errors.Is(err, provision.ErrNotFound) {
			b.reply(msg, "User '"+username+"' not found in the bot database or on Jellyfin.")
		} else {
			b.logger.Error("resolve deletion target failed",
				slog.String("username", username),
				slog.Any("error", err))
			b.reply(msg, "Error finding user on Jellyfin/Jellyseerr.")
		}
		return
	}

	if _, err := b.deprovisioner.Deprovision(ctx, target); err != nil {
		b.logger.Error("deprovision failed",
			slog.String("username", username),
			slog.Any("error", err))
		b.reply(msg, "An error occurred during deletion: "+err.Error())
		return
	}
	b.reply(msg, "Successfully deleted user '"+username+"' from all services.")
}

// resolveDeletionTarget finds the upstream ids for a username, preferring the
// ledger and falling back to scanning both upstream directories. A Jellyfin
// account with no Jellyseerr counterpart is still deletable.
func (b *Bot) resolveDeletionTarget(ctx context.Context, username string) (provision.Target, error) {
	account, err := b.store.GetByUsername(ctx, username)
	if err == nil {
		return provision.Target{
			TelegramID:   account.TelegramID,
			JellyfinID:   account.JellyfinID,
			JellyseerrID: account.JellyseerrID,
		}, nil
	}
	if !errors.Is(err, ledger.ErrNotFound) {
		return provision.Target{}, err
	}

	identity, err := b.resolver.FindByUsername(ctx, username)
	if err != nil {
		return provision.Target{}, err
	}
	target := provision.Target{JellyfinID: identity.JellyfinID}
	counterpart, err := b.resolver.Reconcile(ctx, identity.JellyfinID)
	switch {
	case err == nil:
		target.JellyseerrID = counterpart.JellyseerrID
	case errors.Is(err, provision.ErrNotFound):
		b.logger.Warn("user exists on Jellyfin but not on Jellyseerr",
			slog.String("jellyfin_id", identity.JellyfinID))
	default:
		return provision.Target{}, err
	}
	return target, nil
}
