package telegram

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jellyrequest/jellyrequest/internal/jellyseerr"
	"github.com/jellyrequest/jellyrequest/internal/ledger"
)

// requestsPageSize is how many of the user's requests are fetched for the
// /requests browser.
const requestsPageSize = 100

func (b *Bot) handleRequests(ctx context.Context, msg *tgbotapi.Message) {
	telegramID := strconv.FormatInt(msg.From.ID, 10)
	results, err := b.fetchUserRequests(ctx, telegramID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			b.reply(msg, "You need to link your account first using /link.")
		} else {
			b.logger.Error("fetch requests failed", slog.Any("error", err))
			b.reply(msg, "An error occurred while fetching your requests.")
		}
		return
	}
	if len(results) == 0 {
		b.reply(msg, "You have no pending or completed requests.")
		return
	}
	b.sendRequestPage(ctx, msg.Chat.ID, msg.From.ID, results, 0)
}

// fetchUserRequests loads the linked user's requests, newest first, and
// caches them for pagination callbacks.
func (b *Bot) fetchUserRequests(ctx context.Context, telegramID string) ([]jellyseerr.Request, error) {
	account, err := b.store.Get(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	seerrID, err := strconv.Atoi(account.JellyseerrID)
	if err != nil {
		return nil, ledger.ErrNotFound
	}
	results, err := b.requests.ListRequests(ctx, seerrID, requestsPageSize, 0)
	if err != nil {
		return nil, err
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt > results[j].CreatedAt
	})
	b.requestLists.Set(telegramID, results)
	return results, nil
}

func (b *Bot) sendRequestPage(ctx context.Context, chatID, userID int64, results []jellyseerr.Request, index int) {
	text, photoURL := b.formatRequestItem(ctx, results[index], index, len(results))
	markup := requestsPaginationMarkup(userID, index, len(results))

	if photoURL != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(photoURL))
		photo.Caption = text
		photo.ParseMode = tgbotapi.ModeHTML
		photo.ReplyMarkup = markup
		b.send(photo)
		return
	}
	out := tgbotapi.NewMessage(chatID, text)
	out.ParseMode = tgbotapi.ModeHTML
	out.ReplyMarkup = markup
	b.send(out)
}

func (b *Bot) handleRequestsNav(ctx context.Context, query *tgbotapi.CallbackQuery) {
	parts := strings.SplitN(query.Data, ":", 4)
	if len(parts) != 4 {
		b.answerCallback(query.ID, "", false)
		return
	}
	direction, indexStr, ownerID := parts[1], parts[2], parts[3]
	index, err := strconv.Atoi(indexStr)
	if err != nil {
		b.answerCallback(query.ID, "", false)
		return
	}
	if strconv.FormatInt(query.From.ID, 10) != ownerID {
		b.answerCallback(query.ID, "This is not for you.", true)
		return
	}

	results, ok := b.requestLists.Get(ownerID)
	if !ok {
		results, err = b.fetchUserRequests(ctx, ownerID)
		if err != nil {
			b.answerCallback(query.ID, "Could not reload your requests. Please run /requests again.", true)
			return
		}
	}
	if len(results) == 0 {
		b.answerCallback(query.ID, "You have no requests.", true)
		return
	}

	if direction == "next" {
		index++
	} else {
		index--
	}
	if index < 0 || index >= len(results) {
		b.answerCallback(query.ID, "You are at the end of the list.", false)
		return
	}

	text, photoURL := b.formatRequestItem(ctx, results[index], index, len(results))
	markup := requestsPaginationMarkup(query.From.ID, index, len(results))
	b.editMediaMessage(query.Message, text, photoURL, markup)
	b.answerCallback(query.ID, "", false)
}
