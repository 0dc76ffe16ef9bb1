// Package provision implements the cross-service account lifecycle: identity
// resolution between Jellyfin and Jellyseerr, the provisioning saga with
// compensation, and the shared deprovisioning flow.
package provision

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// seerrPageSize is the fixed page size used when scanning the Jellyseerr
// directory. The directory endpoint pages, so one large page covers any
// realistic install.
const seerrPageSize = 1000

// UpstreamIdentity is the transient pair of upstream ids for one account.
// JellyseerrID is empty when only the media-server side is known.
type UpstreamIdentity struct {
	JellyfinID   string
	JellyseerrID string
	Username     string
}

// Resolver establishes or confirms the mapping between a Jellyfin account
// and its Jellyseerr counterpart. All lookups are read-only and idempotent.
type Resolver struct {
	media    MediaService
	requests RequestService
	logger   *slog.Logger
}

// NewResolver creates a resolver over the two upstream directories.
func NewResolver(log *slog.Logger, media MediaService, requests RequestService) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		media:    media,
		requests: requests,
		logger:   log.With(slog.String("service", "resolver")),
	}
}

// FindByUsername scans the Jellyfin user list for a case-insensitive
// username match. Returns ErrNotFound when no account matches.
func (r *Resolver) FindByUsername(ctx context.Context, username string) (UpstreamIdentity, error) {
	users, err := r.media.ListUsers(ctx)
	if err != nil {
		return UpstreamIdentity{}, fmt.Errorf("list media users: %w", err)
	}
	for _, user := range users {
		if strings.EqualFold(user.Name, username) {
			return UpstreamIdentity{
				JellyfinID: user.ID,
				Username:   user.Name,
			}, nil
		}
	}
	return UpstreamIdentity{}, ErrNotFound
}

// Reconcile scans the Jellyseerr directory for the user imported from the
// given Jellyfin account. Used when an automatic import fails or when
// resolving a deletion for a user absent from the ledger. Returns
// ErrNotFound when no counterpart exists.
func (r *Resolver) Reconcile(ctx context.Context, jellyfinID string) (UpstreamIdentity, error) {
	users, err := r.requests.ListUsers(ctx, seerrPageSize)
	if err != nil {
		return UpstreamIdentity{}, fmt.Errorf("list request-service users: %w", err)
	}
	for _, user := range users {
		if user.JellyfinUserID == jellyfinID {
			return UpstreamIdentity{
				JellyfinID:   jellyfinID,
				JellyseerrID: strconv.Itoa(user.ID),
				Username:     user.Username,
			}, nil
		}
	}
	return UpstreamIdentity{}, ErrNotFound
}
