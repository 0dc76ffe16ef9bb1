package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jellyrequest/jellyrequest/internal/ledger"
	"github.com/jellyrequest/jellyrequest/internal/provision"
)

// AccountStore is the ledger surface the accounts API needs.
type AccountStore interface {
	Get(ctx context.Context, telegramID string) (ledger.LinkedAccount, error)
	ListAll(ctx context.Context) ([]ledger.LinkedAccount, error)
}

// Deprovisioner tears one account down across both upstream services.
type Deprovisioner interface {
	Deprovision(ctx context.Context, target provision.Target) (provision.DeprovisionResult, error)
}

// AccountsHandler exposes the linked-account ledger to operators: listing
// accounts and removing one through the same teardown path the bot uses.
type AccountsHandler struct {
	store  AccountStore
	deprov Deprovisioner
	logger *slog.Logger
}

// NewAccountsHandler creates the accounts handler.
func NewAccountsHandler(log *slog.Logger, store AccountStore, deprov Deprovisioner) *AccountsHandler {
	return &AccountsHandler{
		store:  store,
		deprov: deprov,
		logger: log.With(slog.String("handler", "accounts")),
	}
}

// Register mounts the accounts routes on the Echo instance.
func (h *AccountsHandler) Register(e *echo.Echo) {
	e.GET("/api/accounts", h.List)
	e.DELETE("/api/accounts/:telegram_id", h.Delete)
}

// List returns every linked account in the ledger.
func (h *AccountsHandler) List(c echo.Context) error {
	accounts, err := h.store.ListAll(c.Request().Context())
	if err != nil {
		h.logger.Error("list accounts failed", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to list accounts"})
	}
	if accounts == nil {
		accounts = []ledger.LinkedAccount{}
	}
	return c.JSON(http.StatusOK, accounts)
}

// Delete removes the account linked to the given Telegram id from both
// upstream services and the ledger.
func (h *AccountsHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	telegramID := c.Param("telegram_id")

	account, err := h.store.Get(ctx, telegramID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Message: "account not found"})
		}
		h.logger.Error("get account failed", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to look up account"})
	}

	result, err := h.deprov.Deprovision(ctx, provision.Target{
		TelegramID:   account.TelegramID,
		JellyfinID:   account.JellyfinID,
		JellyseerrID: account.JellyseerrID,
	})
	if err != nil {
		h.logger.Error("deprovision failed",
			slog.String("telegram_id", telegramID),
			slog.Any("error", err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, result)
}
