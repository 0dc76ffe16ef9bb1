package telegram

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jellyrequest/jellyrequest/internal/jellyseerr"
	"github.com/jellyrequest/jellyrequest/internal/ledger"
	"github.com/jellyrequest/jellyrequest/internal/upstream"
)

// discoverCacheKey is the reserved browse key for the /discover feed;
// urlLookupKey marks single-result TMDB link lookups that have no list to
// page through.
const (
	discoverCacheKey = "discover"
	urlLookupKey     = "url_lookup"
)

func (b *Bot) handleRequest(ctx context.Context, msg *tgbotapi.Message) {
	query := strings.TrimSpace(msg.CommandArguments())
	if query == "" {
		b.reply(msg, "Please provide a search query. Usage: /request <movie/show name>")
		return
	}

	results, err := b.searchMedia(ctx, query)
	if err != nil {
		b.logger.Error("search failed", slog.String("query", query), slog.Any("error", err))
		b.reply(msg, "Search failed. Please try again later.")
		return
	}
	if len(results) == 0 {
		b.reply(msg, "No results found for your query.")
		return
	}
	b.sendMediaPage(msg.Chat.ID, query, results, 0)
}

func (b *Bot) handleDiscover(ctx context.Context, msg *tgbotapi.Message) {
	results, err := b.discoverMedia(ctx)
	if err != nil {
		b.logger.Error("discover failed", slog.Any("error", err))
		b.reply(msg, "Discovery failed. Please try again later.")
		return
	}
	if len(results) == 0 {
		b.reply(msg, "No popular items found to discover.")
		return
	}
	b.sendMediaPage(msg.Chat.ID, discoverCacheKey, results, 0)
}

// handleURLLookup answers private messages containing a TMDB link with a
// single requestable media card.
func (b *Bot) handleURLLookup(ctx context.Context, msg *tgbotapi.Message) {
	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	mediaType, tmdbID, ok := extractTMDBInfo(text)
	if !ok {
		return
	}

	var (
		item jellyseerr.MediaResult
		err  error
	)
	if mediaType == "tv" {
		item, err = b.requests.GetTV(ctx, tmdbID)
	} else {
		item, err = b.requests.GetMovie(ctx, tmdbID)
	}
	if err != nil {
		b.logger.Error("tmdb lookup failed",
			slog.String("media_type", mediaType),
			slog.Int("tmdb_id", tmdbID),
			slog.Any("error", err))
		b.reply(msg, "Could not look up that TMDB link.")
		return
	}
	b.sendMediaPage(msg.Chat.ID, urlLookupKey, []jellyseerr.MediaResult{item}, 0)
}

// searchMedia runs a cached search, keeping only movie and TV results.
func (b *Bot) searchMedia(ctx context.Context, query string) ([]jellyseerr.MediaResult, error) {
	if cached, ok := b.searches.Get(query); ok {
		return cached, nil
	}
	all, err := b.requests.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	results := make([]jellyseerr.MediaResult, 0, len(all))
	for _, item := range all {
		if item.MediaType == "movie" || item.MediaType == "tv" {
			results = append(results, item)
		}
	}
	b.searches.Set(query, results)
	return results, nil
}

// discoverMedia returns the cached popular movies and TV feeds, concatenated.
func (b *Bot) discoverMedia(ctx context.Context) ([]jellyseerr.MediaResult, error) {
	if cached, ok := b.searches.Get(discoverCacheKey); ok {
		return cached, nil
	}
	movies, err := b.requests.DiscoverMovies(ctx)
	if err != nil {
		return nil, err
	}
	tv, err := b.requests.DiscoverTV(ctx)
	if err != nil {
		return nil, err
	}
	results := append(movies, tv...)
	b.searches.Set(discoverCacheKey, results)
	return results, nil
}

func (b *Bot) sendMediaPage(chatID int64, query string, results []jellyseerr.MediaResult, index int) {
	item := results[index]
	text, photoURL := formatMediaItem(item, index, len(results))
	markup := mediaPaginationMarkup(query, index, len(results),
		item.MediaType, item.ID, b.isRequested(item.MediaType, item.ID))

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

func (b *Bot) handleMediaNav(ctx context.Context, query *tgbotapi.CallbackQuery) {
	parts := strings.SplitN(query.Data, ":", 4)
	if len(parts) != 4 {
		b.answerCallback(query.ID, "", false)
		return
	}
	direction, indexStr, searchKey := parts[1], parts[2], parts[3]
	index, err := strconv.Atoi(indexStr)
	if err != nil {
		b.answerCallback(query.ID, "", false)
		return
	}
	if searchKey == urlLookupKey {
		b.answerCallback(query.ID, "No more results to navigate.", false)
		return
	}

	var results []jellyseerr.MediaResult
	if searchKey == discoverCacheKey {
		results, err = b.discoverMedia(ctx)
	} else {
		results, err = b.searchMedia(ctx, searchKey)
	}
	if err != nil || len(results) == 0 {
		b.answerCallback(query.ID, "Search results expired. Please search again.", true)
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

	item := results[index]
	text, photoURL := formatMediaItem(item, index, len(results))
	markup := mediaPaginationMarkup(searchKey, index, len(results),
		item.MediaType, item.ID, b.isRequested(item.MediaType, item.ID))
	b.editMediaMessage(query.Message, text, photoURL, markup)
	b.answerCallback(query.ID, "", false)
}

func (b *Bot) handleMediaRequest(ctx context.Context, query *tgbotapi.CallbackQuery) {
	parts := strings.SplitN(query.Data, ":", 3)
	if len(parts) != 3 {
		b.answerCallback(query.ID, "", false)
		return
	}
	mediaType := parts[1]
	tmdbID, err := strconv.Atoi(parts[2])
	if err != nil {
		b.answerCallback(query.ID, "", false)
		return
	}

	account, err := b.store.Get(ctx, strconv.FormatInt(query.From.ID, 10))
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			b.answerCallback(query.ID, "You must link your account first using /link", true)
		} else {
			b.logger.Error("request link lookup failed", slog.Any("error", err))
			b.answerCallback(query.ID, "Could not look up your linked account.", true)
		}
		return
	}
	seerrID, err := strconv.Atoi(account.JellyseerrID)
	if err != nil {
		b.answerCallback(query.ID, "Your account link is incomplete. Please /link again.", true)
		return
	}

	switch err := b.requests.CreateRequest(ctx, mediaType, tmdbID, seerrID); {
	case err == nil:
		b.markRequested(mediaType, tmdbID)
		b.swapRequestButton(query.Message, mediaType, tmdbID)
		b.answerCallback(query.ID, "Request successful!", true)
	case upstream.IsStatus(err, http.StatusConflict):
		b.markRequested(mediaType, tmdbID)
		b.swapRequestButton(query.Message, mediaType, tmdbID)
		b.answerCallback(query.ID, "Already available or requested.", true)
	default:
		b.logger.Error("create request failed",
			slog.String("media_type", mediaType),
			slog.Int("tmdb_id", tmdbID),
			slog.Any("error", err))
		b.answerCallback(query.ID, "Request failed. Please try again later.", true)
	}
}

// swapRequestButton replaces the keyboard's request row with a Requested
// marker, leaving any navigation row intact.
func (b *Bot) swapRequestButton(msg *tgbotapi.Message, mediaType string, tmdbID int) {
	if msg == nil || msg.ReplyMarkup == nil || len(msg.ReplyMarkup.InlineKeyboard) == 0 {
		return
	}
	keyboard := make([][]tgbotapi.InlineKeyboardButton, len(msg.ReplyMarkup.InlineKeyboard))
	copy(keyboard, msg.ReplyMarkup.InlineKeyboard)
	keyboard[len(keyboard)-1] = tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Requested",
			"requested:"+mediaType+":"+strconv.Itoa(tmdbID)))

	edit := tgbotapi.NewEditMessageReplyMarkup(msg.Chat.ID, msg.MessageID,
		tgbotapi.NewInlineKeyboardMarkup(keyboard...))
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Warn("update request button failed", slog.Any("error", err))
	}
}

// editMediaMessage updates a browse card in place. Poster swaps go through
// an edit-media call; caption-only cards fall back to an edit-caption call.
func (b *Bot) editMediaMessage(msg *tgbotapi.Message, text, photoURL string, markup tgbotapi.InlineKeyboardMarkup) {
	if msg == nil {
		return
	}
	if photoURL != "" && len(msg.Photo) > 0 {
		media := tgbotapi.NewInputMediaPhoto(tgbotapi.FileURL(photoURL))
		media.Caption = text
		media.ParseMode = tgbotapi.ModeHTML
		edit := tgbotapi.EditMessageMediaConfig{
			BaseEdit: tgbotapi.BaseEdit{
				ChatID:      msg.Chat.ID,
				MessageID:   msg.MessageID,
				ReplyMarkup: &markup,
			},
			Media: media,
		}
		_, err := b.api.Send(edit)
		if err == nil {
			return
		}
		b.logger.Warn("edit media failed, falling back to caption", slog.Any("error", err))
	}

	if len(msg.Photo) > 0 {
		edit := tgbotapi.NewEditMessageCaption(msg.Chat.ID, msg.MessageID, text)
		edit.ParseMode = tgbotapi.ModeHTML
		edit.ReplyMarkup = &markup
		b.send(edit)
		return
	}
	edit := tgbotapi.NewEditMessageText(msg.Chat.ID, msg.MessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.ReplyMarkup = &markup
	b.send(edit)
}
