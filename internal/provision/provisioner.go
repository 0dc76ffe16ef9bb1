package provision

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/jellyrequest/jellyrequest/internal/ledger"
)

// reconcileDelay is how long to wait before re-scanning the Jellyseerr
// directory after a failed import. The request service can lag behind a
// just-created media-server account.
const reconcileDelay = 2 * time.Second

// passwordBytes is the entropy of generated one-time passwords.
const passwordBytes = 12

var usernameStrip = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// Request is the input to one provisioning run. DurationDays of zero means a
// permanent account.
type Request struct {
	TelegramID   string
	DisplayName  string
	DurationDays int
	RoleLabel    string
}

// Result is a successful provisioning outcome. Password is the generated
// one-time password; Notified reports whether the welcome DM was delivered.
type Result struct {
	Account  ledger.LinkedAccount
	Password string
	Notified bool
}

// Provisioner creates one managed identity across both upstream services and
// persists it, compensating on partial failure where rollback is possible.
type Provisioner struct {
	media          MediaService
	requests       RequestService
	resolver       *Resolver
	store          Ledger
	notifier       Notifier
	mediaURL       string
	requestsURL    string
	reconcileDelay time.Duration
	now            func() time.Time
	logger         *slog.Logger
}

// NewProvisioner creates the provisioning saga. mediaURL and requestsURL are
// only used in the welcome message.
func NewProvisioner(
	log *slog.Logger,
	media MediaService,
	requests RequestService,
	resolver *Resolver,
	store Ledger,
	notifier Notifier,
	mediaURL, requestsURL string,
) *Provisioner {
	if log == nil {
		log = slog.Default()
	}
	return &Provisioner{
		media:          media,
		requests:       requests,
		resolver:       resolver,
		store:          store,
		notifier:       notifier,
		mediaURL:       mediaURL,
		requestsURL:    requestsURL,
		reconcileDelay: reconcileDelay,
		now:            time.Now,
		logger:         log.With(slog.String("service", "provisioner")),
	}
}

// Provision runs the full creation saga:
// existence check, media-server create, request-service import (with one
// delayed reconcile retry), ledger upsert, best-effort welcome DM.
//
// Any import failure that cannot be reconciled deletes the media-server
// account created during this run, so a failed saga leaves zero net accounts.
// A ledger write failure after both upstream accounts exist is NOT
// compensated; the returned error names both upstream ids.
func (p *Provisioner) Provision(ctx context.Context, req Request) (Result, error) {
	username := SanitizeUsername(req.DisplayName, req.TelegramID)

	if existing, err := p.resolver.FindByUsername(ctx, username); err == nil {
		return Result{}, &ConflictError{Username: username, JellyfinID: existing.JellyfinID}
	} else if !errors.Is(err, ErrNotFound) {
		return Result{}, fmt.Errorf("check for existing user: %w", err)
	}

	password, err := generatePassword()
	if err != nil {
		return Result{}, fmt.Errorf("generate password: %w", err)
	}

	created, err := p.media.CreateUser(ctx, username, password)
	if err != nil {
		return Result{}, fmt.Errorf("create media account: %w", err)
	}
	p.logger.Info("media account created",
		slog.String("username", username),
		slog.String("jellyfin_id", created.ID))

	jellyseerrID, err := p.importOrReconcile(ctx, created.ID, username)
	if err != nil {
		return Result{}, err
	}

	var expiresAt *time.Time
	if req.DurationDays > 0 {
		t := p.now().UTC().Add(time.Duration(req.DurationDays) * 24 * time.Hour)
		expiresAt = &t
	}
	account := ledger.LinkedAccount{
		TelegramID:   req.TelegramID,
		JellyseerrID: jellyseerrID,
		JellyfinID:   created.ID,
		Username:     username,
		CreatedAt:    p.now().UTC(),
		ExpiresAt:    expiresAt,
		RoleLabel:    req.RoleLabel,
	}
	if err := p.store.Upsert(ctx, account); err != nil {
		// Both upstream accounts exist at this point and are NOT rolled
		// back; the ids are surfaced so an operator can clean up.
		return Result{}, fmt.Errorf(
			"persist link (media account %s, request account %s left in place): %w",
			created.ID, jellyseerrID, err)
	}

	notified := p.notifyWelcome(ctx, req, username, password)
	return Result{Account: account, Password: password, Notified: notified}, nil
}

// importOrReconcile imports the new media account into the request service.
// If the import fails it waits briefly and scans the directory instead; if
// that also fails, the media account is deleted and the saga aborts.
func (p *Provisioner) importOrReconcile(ctx context.Context, jellyfinID, username string) (string, error) {
	imported, importErr := p.requests.ImportFromJellyfin(ctx, []string{jellyfinID})
	if importErr == nil && len(imported) > 0 {
		return strconv.Itoa(imported[0].ID), nil
	}
	if importErr == nil {
		importErr = errors.New("import returned no users")
	}
	p.logger.Warn("import into request service failed, reconciling",
		slog.String("username", username),
		slog.Any("error", importErr))

	select {
	case <-time.After(p.reconcileDelay):
	case <-ctx.Done():
		// Fall through to compensation; the account must not be orphaned.
	}

	identity, reconcileErr := p.resolver.Reconcile(ctx, jellyfinID)
	if reconcileErr == nil {
		return identity.JellyseerrID, nil
	}
	p.logger.Error("reconcile after failed import also failed",
		slog.String("username", username),
		slog.Any("error", reconcileErr))

	if delErr := p.media.DeleteUser(ctx, jellyfinID); delErr != nil {
		return "", fmt.Errorf(
			"import into request service failed and rollback of media account %s also failed (%v): %w",
			jellyfinID, delErr, importErr)
	}
	return "", fmt.Errorf(
		"import into request service failed, rolled back media account %q: %w",
		username, importErr)
}

func (p *Provisioner) notifyWelcome(ctx context.Context, req Request, username, password string) bool {
	text := fmt.Sprintf(
		"Welcome to the media server!\n\n"+
			"An account has been created for you. Here are your login details:\n\n"+
			"Username: %s\nTemporary password: %s\n\n"+
			"Please change your password after logging in.\n\n"+
			"Jellyfin: %s\nJellyseerr: %s",
		username, password, p.mediaURL, p.requestsURL)
	if req.DurationDays > 0 {
		text += fmt.Sprintf("\n\nNote: this is a temporary account that expires in %d days.", req.DurationDays)
	}

	if err := p.notifier.SendDirectMessage(ctx, req.TelegramID, text); err != nil {
		p.logger.Warn("welcome DM failed",
			slog.String("telegram_id", req.TelegramID),
			slog.Any("error", err))
		return false
	}
	return true
}

// SanitizeUsername strips everything outside [A-Za-z0-9.-] from the display
// name; an empty result falls back to a deterministic name derived from the
// Telegram id.
func SanitizeUsername(displayName, telegramID string) string {
	username := usernameStrip.ReplaceAllString(displayName, "")
	if username == "" {
		username = "tg_user_" + telegramID
	}
	return username
}

func generatePassword() (string, error) {
	buf := make([]byte, passwordBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
