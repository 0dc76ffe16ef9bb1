// Package telegram is the chat surface of the bot: command dispatch, inline
// keyboard callbacks, and outbound direct messages.
package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jellyrequest/jellyrequest/internal/cache"
	"github.com/jellyrequest/jellyrequest/internal/config"
	"github.com/jellyrequest/jellyrequest/internal/jellyfin"
	"github.com/jellyrequest/jellyrequest/internal/jellyseerr"
	"github.com/jellyrequest/jellyrequest/internal/ledger"
	"github.com/jellyrequest/jellyrequest/internal/provision"
)

// browseCacheTTL bounds how long cached search/discover/request lists back
// their pagination keyboards.
const browseCacheTTL = time.Hour

// Store is the ledger surface the bot needs.
type Store interface {
	Get(ctx context.Context, telegramID string) (ledger.LinkedAccount, error)
	GetByUsername(ctx context.Context, username string) (ledger.LinkedAccount, error)
	Upsert(ctx context.Context, account ledger.LinkedAccount) error
	Delete(ctx context.Context, telegramID string) error
}

// Bot runs the Telegram long-poll loop and dispatches commands and callback
// queries to the lifecycle and browse services.
type Bot struct {
	token  string
	admins map[int64]struct{}

	media    *jellyfin.Client
	requests *jellyseerr.Client
	resolver *provision.Resolver
	store    Store

	provisioner   *provision.Provisioner
	deprovisioner *provision.Deprovisioner

	searches     *cache.Cache[[]jellyseerr.MediaResult]
	requestLists *cache.Cache[[]jellyseerr.Request]

	mu        sync.Mutex
	requested map[string]struct{}

	api    *tgbotapi.BotAPI
	ready  atomic.Bool
	logger *slog.Logger
}

// NewBot wires the chat surface. The provisioner and deprovisioner are
// attached later via Bind because they notify users through this bot.
func NewBot(
	log *slog.Logger,
	cfg config.TelegramConfig,
	media *jellyfin.Client,
	requests *jellyseerr.Client,
	resolver *provision.Resolver,
	store Store,
) *Bot {
	if log == nil {
		log = slog.Default()
	}
	admins := make(map[int64]struct{}, len(cfg.AdminUserIDs))
	for _, id := range cfg.AdminUserIDs {
		admins[id] = struct{}{}
	}
	return &Bot{
		token:        cfg.BotToken,
		admins:       admins,
		media:        media,
		requests:     requests,
		resolver:     resolver,
		store:        store,
		searches:     cache.New[[]jellyseerr.MediaResult](browseCacheTTL),
		requestLists: cache.New[[]jellyseerr.Request](browseCacheTTL),
		requested:    make(map[string]struct{}),
		logger:       log.With(slog.String("service", "telegram")),
	}
}

// Bind attaches the account lifecycle services. Must be called before Start.
func (b *Bot) Bind(provisioner *provision.Provisioner, deprovisioner *provision.Deprovisioner) {
	b.provisioner = provisioner
	b.deprovisioner = deprovisioner
}

// Start connects to Telegram and launches the update loop. It returns once
// the connection is established; the loop runs until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	api, err := tgbotapi.NewBotAPI(b.token)
	if err != nil {
		return err
	}
	b.api = api
	b.logger.Info("connected", slog.String("username", api.Self.UserName))

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30
	updates := api.GetUpdatesChan(updateConfig)
	b.ready.Store(true)

	go func() {
		for {
			select {
			case <-ctx.Done():
				b.logger.Info("stop")
				api.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					b.logger.Info("updates channel closed")
					return
				}
				go b.handleUpdate(ctx, update)
			}
		}
	}()
	return nil
}

// Ready reports whether the long-poll connection is up.
func (b *Bot) Ready() bool {
	return b.ready.Load()
}

// SendDirectMessage sends a plain-text message to a chat identified by its
// numeric id. Implements provision.Notifier.
func (b *Bot) SendDirectMessage(ctx context.Context, chatID, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return errors.New("telegram: chat id must be numeric")
	}
	_, err = b.api.Send(tgbotapi.NewMessage(id, text))
	return err
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	if !msg.IsCommand() {
		if msg.Chat != nil && msg.Chat.IsPrivate() {
			b.handleURLLookup(ctx, msg)
		}
		return
	}

	command := msg.Command()
	b.logger.Info("command",
		slog.String("command", command),
		slog.Int64("user_id", msg.From.ID))

	switch command {
	case "start":
		b.handleStart(msg)
	case "help":
		b.handleHelp(msg)
	case "link":
		b.handleLink(ctx, msg)
	case "unlink":
		b.handleUnlink(ctx, msg)
	case "request":
		b.handleRequest(ctx, msg)
	case "discover":
		b.handleDiscover(ctx, msg)
	case "requests":
		b.handleRequests(ctx, msg)
	case "watch":
		b.handleWatch(ctx, msg)
	case "invite":
		b.handleProvisionCommand(ctx, msg, 0, "", "permanent invite")
	case "trial":
		b.handleProvisionCommand(ctx, msg, 7, "Trial", "7-day trial")
	case "vip":
		b.handleProvisionCommand(ctx, msg, 30, "VIP", "30-day VIP invite")
	case "listusers":
		b.handleListUsers(ctx, msg)
	case "deleteuser":
		b.handleDeleteUser(ctx, msg)
	}
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	data := query.Data
	switch {
	case strings.HasPrefix(data, "media_nav:"):
		b.handleMediaNav(ctx, query)
	case strings.HasPrefix(data, "media_req:"):
		b.handleMediaRequest(ctx, query)
	case strings.HasPrefix(data, "req_nav:"):
		b.handleRequestsNav(ctx, query)
	case strings.HasPrefix(data, "requested:"):
		b.answerCallback(query.ID, "This item has already been requested.", true)
	default:
		b.answerCallback(query.ID, "", false)
	}
}

func (b *Bot) isAdmin(userID int64) bool {
	_, ok := b.admins[userID]
	return ok
}

func (b *Bot) markRequested(mediaType string, tmdbID int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requested[mediaType+":"+strconv.Itoa(tmdbID)] = struct{}{}
}

func (b *Bot) isRequested(mediaType string, tmdbID int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.requested[mediaType+":"+strconv.Itoa(tmdbID)]
	return ok
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	b.send(tgbotapi.NewMessage(msg.Chat.ID, text))
}

func (b *Bot) replyHTML(msg *tgbotapi.Message, text string) {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ParseMode = tgbotapi.ModeHTML
	b.send(out)
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.logger.Error("send failed", slog.Any("error", err))
	}
}

func (b *Bot) answerCallback(id, text string, alert bool) {
	callback := tgbotapi.NewCallback(id, text)
	callback.ShowAlert = alert
	if _, err := b.api.Request(callback); err != nil {
		b.logger.Error("answer callback failed", slog.Any("error", err))
	}
}
