package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jellyrequest/jellyrequest/internal/jellyfin"
	"github.com/jellyrequest/jellyrequest/internal/ledger"
)

// ticksPerSecond converts Jellyfin runtime ticks (100ns units) to seconds.
const ticksPerSecond = 10_000_000

func (b *Bot) handleWatch(ctx context.Context, msg *tgbotapi.Message) {
	account, err := b.store.Get(ctx, strconv.FormatInt(msg.From.ID, 10))
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			b.reply(msg, "You haven't linked your account yet. Use /link to get started.")
		} else {
			b.logger.Error("watch link lookup failed", slog.Any("error", err))
			b.reply(msg, "Could not look up your linked account.")
		}
		return
	}

	items, err := b.media.ListPlayedItems(ctx, account.JellyfinID)
	if err != nil {
		b.logger.Error("fetch watch data failed", slog.Any("error", err))
		b.reply(msg, "Failed to fetch watch data from Jellyfin.")
		return
	}

	days, hours, minutes := watchDuration(items)
	displayName := msg.From.FirstName
	if displayName == "" {
		displayName = account.Username
	}

	text := fmt.Sprintf("<b>%s's watch statistics</b>\n\n", html.EscapeString(displayName))
	text += fmt.Sprintf("<b>Total watched items:</b> %d\n", len(items))
	text += fmt.Sprintf("<b>Total watch time:</b> %dd %dh %dm\n", days, hours, minutes)
	text += fmt.Sprintf("<b>Last watched:</b> %s", html.EscapeString(lastWatchedTitle(items)))
	b.replyHTML(msg, text)
}

// watchDuration sums runtime ticks across items and splits the total into
// whole days, hours, and minutes.
func watchDuration(items []jellyfin.Item) (days, hours, minutes int) {
	var totalTicks int64
	for _, item := range items {
		totalTicks += item.RunTimeTicks
	}
	totalSeconds := totalTicks / ticksPerSecond
	days = int(totalSeconds / 86400)
	hours = int(totalSeconds % 86400 / 3600)
	minutes = int(totalSeconds % 3600 / 60)
	return days, hours, minutes
}

// lastWatchedTitle picks the item with the most recent LastPlayedDate.
// Episodes are prefixed with their series name. Dates are ISO 8601 strings,
// so lexical comparison orders them correctly.
func lastWatchedTitle(items []jellyfin.Item) string {
	var (
		best     jellyfin.Item
		bestDate string
	)
	for _, item := range items {
		if item.UserData == nil || item.UserData.LastPlayedDate == "" {
			continue
		}
		if item.UserData.LastPlayedDate > bestDate {
			best = item
			bestDate = item.UserData.LastPlayedDate
		}
	}
	if bestDate == "" {
		return "No specific last watched item found."
	}
	title := best.Name
	if title == "" {
		title = "Unknown Title"
	}
	if best.Type == "Episode" && best.SeriesName != "" {
		title = best.SeriesName + " - " + title
	}
	return title
}
