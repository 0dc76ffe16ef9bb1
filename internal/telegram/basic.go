package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

const helpText = `JellyRequest Bot Help

User commands:
/help - show this help message
/link <username> <password> - link your Telegram account to your Jellyfin/Jellyseerr account
/unlink - remove the link between your accounts
/request <name> - search for a movie or TV show to request
/discover - browse popular and trending media
/requests - view the status of your past requests
/watch - see your personal watch statistics

Direct link support:
Send a TMDB link to request media directly, for example
https://themoviedb.org/movie/550-fight-club

Admin commands:
/invite (reply to a user) - create a permanent account for the user
/trial (reply to a user) - create a 7-day trial account for the user
/vip (reply to a user) - create a 30-day account for the user
/listusers - list every account on the media server
/deleteuser <username> - delete a user from Jellyfin, Jellyseerr, and the bot`

func (b *Bot) handleStart(msg *tgbotapi.Message) {
	b.reply(msg, "Welcome to the JellyRequest Bot!\n\n"+
		"You can use me to request media for your Jellyfin server.\n"+
		"To get started, link your account with the /link command.\n\n"+
		"Type /help to see all available commands.")
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) {
	b.reply(msg, helpText)
}
