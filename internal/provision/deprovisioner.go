package provision

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jellyrequest/jellyrequest/internal/upstream"
)

// Target identifies one account to tear down. TelegramID may be empty when
// the account was never linked locally; JellyseerrID may be empty when the
// request-service side is unknown.
type Target struct {
	TelegramID   string
	JellyfinID   string
	JellyseerrID string
}

// DeprovisionResult reports which upstream deletions actually happened.
type DeprovisionResult struct {
	JellyfinDeleted   bool
	JellyseerrDeleted bool
}

// Deprovisioner tears an account down across both upstream services and the
// ledger. Manual deletion and the expiry sweep share this path.
type Deprovisioner struct {
	media    MediaService
	requests RequestService
	store    Ledger
	logger   *slog.Logger
}

// NewDeprovisioner creates the shared teardown flow.
func NewDeprovisioner(log *slog.Logger, media MediaService, requests RequestService, store Ledger) *Deprovisioner {
	if log == nil {
		log = slog.Default()
	}
	return &Deprovisioner{
		media:    media,
		requests: requests,
		store:    store,
		logger:   log.With(slog.String("service", "deprovisioner")),
	}
}

// Deprovision deletes the media-server account, then the request-service
// account, then the ledger row. The media-server deletion is authoritative:
// any failure there, including 404, aborts the teardown. A missing
// request-service account is tolerated so a half-deleted account can be
// retried. The ledger row is only removed once both upstream deletions have
// settled.
func (d *Deprovisioner) Deprovision(ctx context.Context, target Target) (DeprovisionResult, error) {
	var result DeprovisionResult

	if err := d.media.DeleteUser(ctx, target.JellyfinID); err != nil {
		return result, fmt.Errorf("delete media account %s: %w", target.JellyfinID, err)
	}
	result.JellyfinDeleted = true
	d.logger.Info("media account deleted", slog.String("jellyfin_id", target.JellyfinID))

	if target.JellyseerrID == "" {
		d.logger.Warn("no request-service id recorded, skipping",
			slog.String("jellyfin_id", target.JellyfinID))
	} else {
		id, err := strconv.Atoi(target.JellyseerrID)
		if err != nil {
			return result, fmt.Errorf("malformed request-service id %q: %w", target.JellyseerrID, err)
		}
		switch err := d.requests.DeleteUser(ctx, id); {
		case err == nil:
			result.JellyseerrDeleted = true
			d.logger.Info("request-service account deleted", slog.Int("jellyseerr_id", id))
		case upstream.IsNotFound(err):
			d.logger.Warn("request-service account already absent", slog.Int("jellyseerr_id", id))
		default:
			return result, fmt.Errorf("delete request-service account %d: %w", id, err)
		}
	}

	if target.TelegramID != "" {
		if err := d.store.Delete(ctx, target.TelegramID); err != nil {
			return result, fmt.Errorf("delete ledger row for %s: %w", target.TelegramID, err)
		}
	}
	return result, nil
}
