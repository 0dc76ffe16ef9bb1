package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// mediaPaginationMarkup builds the browse keyboard: a prev/next row when
// there is more than one result, then a request (or already-requested) row.
func mediaPaginationMarkup(query string, index, total int, mediaType string, tmdbID int, requested bool) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	if total > 1 {
		prev := tgbotapi.NewInlineKeyboardButtonData(" ", "noop")
		if index > 0 {
			prev = tgbotapi.NewInlineKeyboardButtonData("< Previous",
				fmt.Sprintf("media_nav:prev:%d:%s", index, query))
		}
		next := tgbotapi.NewInlineKeyboardButtonData(" ", "noop")
		if index < total-1 {
			next = tgbotapi.NewInlineKeyboardButtonData("Next >",
				fmt.Sprintf("media_nav:next:%d:%s", index, query))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(prev, next))
	}

	if requested {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Requested",
				fmt.Sprintf("requested:%s:%d", mediaType, tmdbID))))
	} else {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Request",
				fmt.Sprintf("media_req:%s:%d", mediaType, tmdbID))))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// requestsPaginationMarkup builds the prev/next keyboard for /requests. The
// requesting user's id is carried in the callback data so only they can page.
func requestsPaginationMarkup(userID int64, index, total int) tgbotapi.InlineKeyboardMarkup {
	prev := tgbotapi.NewInlineKeyboardButtonData(" ", "noop")
	if index > 0 {
		prev = tgbotapi.NewInlineKeyboardButtonData("< Previous",
			fmt.Sprintf("req_nav:prev:%d:%d", index, userID))
	}
	next := tgbotapi.NewInlineKeyboardButtonData(" ", "noop")
	if index < total-1 {
		next = tgbotapi.NewInlineKeyboardButtonData("Next >",
			fmt.Sprintf("req_nav:next:%d:%d", index, userID))
	}
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(prev, next))
}
